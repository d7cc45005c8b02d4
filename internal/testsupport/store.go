package testsupport

import (
	"context"
	"testing"

	"reelpost/internal/config"
	"reelpost/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewEpisode inserts an unprocessed episode for tests using the provided store.
func NewEpisode(t testing.TB, store *queue.Store, series string, number int, sourceURL string) *queue.Episode {
	t.Helper()

	episode, err := store.AddEpisode(context.Background(), queue.NewEpisode{
		SeriesKey:      series,
		SequenceNumber: number,
		SourceURL:      sourceURL,
	})
	if err != nil {
		t.Fatalf("store.AddEpisode: %v", err)
	}
	return episode
}
