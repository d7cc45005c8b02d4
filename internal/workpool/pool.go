// Package workpool bounds concurrent blocking calls such as external tool
// invocations and generic downloader runs.
package workpool

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// Pool admits at most size concurrent Do calls.
type Pool struct {
	sem  *semaphore.Weighted
	size int64
}

// New constructs a pool; sizes below one are treated as one.
func New(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size)), size: int64(size)}
}

// Size returns the configured concurrency bound.
func (p *Pool) Size() int {
	return int(p.size)
}

// Do waits for a slot, runs fn and releases the slot. Waiting honours ctx;
// a cancelled wait returns ctx's error without running fn.
func (p *Pool) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire worker slot: %w", err)
	}
	defer p.sem.Release(1)
	return fn(ctx)
}

// Run is Do for functions that return a value.
func Run[T any](ctx context.Context, p *Pool, fn func(context.Context) (T, error)) (T, error) {
	var result T
	err := p.Do(ctx, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	})
	return result, err
}
