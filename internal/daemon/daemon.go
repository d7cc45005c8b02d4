package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"reelpost/internal/config"
	"reelpost/internal/intake"
	"reelpost/internal/logging"
	"reelpost/internal/pipeline"
)

// PassRunner runs one pipeline pass.
type PassRunner interface {
	RunPass(ctx context.Context) (pipeline.PassResult, error)
}

// FeedPoller imports new episodes from a feed.
type FeedPoller interface {
	Poll(ctx context.Context, feed intake.Fetcher) (intake.PollResult, error)
}

// Daemon coordinates the scheduler loop and enforces single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	runner PassRunner
	poller FeedPoller
	feed   intake.Fetcher

	lockPath string
	lock     *flock.Flock
	interval time.Duration
	trigger  chan struct{}

	mu      sync.Mutex
	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}

	last atomic.Pointer[Tick]
}

// Tick records the outcome of one scheduler iteration.
type Tick struct {
	At   time.Time
	Poll intake.PollResult
	Pass pipeline.PassResult
	Err  error
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	LockFilePath string
	Interval     time.Duration
	LastTick     *Tick
}

// New constructs a daemon. poller and feed may be nil when no feed is configured.
func New(cfg *config.Config, runner PassRunner, poller FeedPoller, feed intake.Fetcher, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || runner == nil {
		return nil, errors.New("daemon requires config and pass runner")
	}
	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		runner:   runner,
		poller:   poller,
		feed:     feed,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		interval: cfg.PollInterval(),
		trigger:  make(chan struct{}, 1),
	}, nil
}

// Start acquires the lock and launches the scheduler loop. The first tick
// runs immediately.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another reelpost scheduler is already running")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})
	d.running.Store(true)
	go d.loop(loopCtx, d.done)

	d.logger.Info("reelpost daemon started",
		logging.String("lock", d.lockPath),
		logging.Duration("interval", d.interval),
		logging.String(logging.FieldEventType, "daemon_started"),
	)
	return nil
}

// Stop cancels the loop, waits for the in-flight tick and releases the lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return
	}
	d.cancel()
	<-d.done
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("reelpost daemon stopped")
}

// Trigger requests an immediate tick; it never blocks.
func (d *Daemon) Trigger() {
	select {
	case d.trigger <- struct{}{}:
	default:
	}
}

// Status reports runtime information.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		LockFilePath: d.lockPath,
		Interval:     d.interval,
		LastTick:     d.last.Load(),
	}
}

func (d *Daemon) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		d.RunOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-d.trigger:
		}
	}
}

// RunOnce polls the feed (when configured) and runs one pass.
func (d *Daemon) RunOnce(ctx context.Context) Tick {
	tick := Tick{At: time.Now()}
	if d.poller != nil && d.feed != nil {
		poll, err := d.poller.Poll(ctx, d.feed)
		tick.Poll = poll
		if err != nil {
			logging.WarnWithContext(d.logger, "feed poll failed", "feed_poll_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check scheduler.feed_url"),
				logging.String(logging.FieldImpact, "new episodes not imported this tick"),
			)
		}
	}
	if ctx.Err() == nil {
		pass, err := d.runner.RunPass(ctx)
		tick.Pass = pass
		if err != nil && !errors.Is(err, context.Canceled) {
			tick.Err = err
			logging.ErrorWithContext(d.logger, "pass failed", "pass_failed", logging.ErrorAttrs(err)...)
		}
	}
	d.last.Store(&tick)
	return tick
}
