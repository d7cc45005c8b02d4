package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"reelpost/internal/config"
	"reelpost/internal/logging"
	"reelpost/internal/naming"
	"reelpost/internal/notifications"
	"reelpost/internal/publish"
	"reelpost/internal/queue"
	"reelpost/internal/services"
	"reelpost/internal/storage"
	"reelpost/internal/transcode"
)

// PassResult aggregates the outcome of one pass.
type PassResult struct {
	PassID    string
	Selected  int
	Claimed   int
	Succeeded int
	Failed    int
	Skipped   int
	Duration  time.Duration
}

// Options controls pass execution.
type Options struct {
	WorkDir           string
	Workers           int
	ClaimTTL          time.Duration
	HeartbeatInterval time.Duration
	Logger            *slog.Logger
	// NewPassID overrides pass id generation.
	NewPassID func() string
}

// OptionsFromConfig extracts pass options.
func OptionsFromConfig(cfg *config.Config, logger *slog.Logger) Options {
	return Options{
		WorkDir:           cfg.Paths.WorkDir,
		Workers:           cfg.Pipeline.Workers,
		ClaimTTL:          cfg.ClaimTTL(),
		HeartbeatInterval: cfg.HeartbeatInterval(),
		Logger:            logger,
	}
}

// Orchestrator runs passes.
type Orchestrator struct {
	reg    Registry
	opts   Options
	logger *slog.Logger
}

// New validates reg and returns an Orchestrator.
func New(reg Registry, opts Options) (*Orchestrator, error) {
	if err := reg.validate(); err != nil {
		return nil, err
	}
	if reg.Shortener == nil {
		reg.Shortener = passthroughShortener{}
	}
	if reg.Notifier == nil {
		reg.Notifier = notifications.NewService(&config.Config{})
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.ClaimTTL <= 0 {
		opts.ClaimTTL = 10 * time.Minute
	}
	if opts.HeartbeatInterval <= 0 || opts.HeartbeatInterval >= opts.ClaimTTL {
		opts.HeartbeatInterval = opts.ClaimTTL / 3
	}
	if opts.NewPassID == nil {
		opts.NewPassID = uuid.NewString
	}
	return &Orchestrator{
		reg:    reg,
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "pipeline"),
	}, nil
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeSucceeded
	outcomeFailed
)

// RunPass processes every currently unprocessed episode once. Per-episode
// failures are recorded and counted, never returned; the error is reserved
// for listing failures and cancellation.
func (o *Orchestrator) RunPass(ctx context.Context) (PassResult, error) {
	started := time.Now()
	result := PassResult{PassID: o.opts.NewPassID()}
	ctx = services.WithPass(ctx, result.PassID)
	logger := logging.WithContext(ctx, o.logger)

	episodes, err := o.reg.Store.ListUnprocessed(ctx)
	if err != nil {
		return result, fmt.Errorf("list unprocessed episodes: %w", err)
	}
	result.Selected = len(episodes)
	logger.Info("pass started",
		logging.Int("selected", result.Selected),
		logging.Int("workers", o.opts.Workers),
		logging.String(logging.FieldEventType, "pass_started"),
	)

	var (
		mu    sync.Mutex
		group errgroup.Group
	)
	group.SetLimit(o.opts.Workers)
	for _, episode := range episodes {
		if ctx.Err() != nil {
			break
		}
		group.Go(func() error {
			claimed, out := o.runEpisode(ctx, result.PassID, episode)
			mu.Lock()
			defer mu.Unlock()
			if claimed {
				result.Claimed++
			}
			switch out {
			case outcomeSucceeded:
				result.Succeeded++
			case outcomeFailed:
				result.Failed++
			}
			return nil
		})
	}
	_ = group.Wait()
	// Skipped covers claims held elsewhere and episodes never started.
	result.Skipped = result.Selected - result.Succeeded - result.Failed
	result.Duration = time.Since(started)

	logger.Info("pass finished",
		logging.Int("selected", result.Selected),
		logging.Int("claimed", result.Claimed),
		logging.Int("succeeded", result.Succeeded),
		logging.Int("failed", result.Failed),
		logging.Int("skipped", result.Skipped),
		logging.Duration("elapsed", result.Duration),
		logging.String(logging.FieldEventType, "pass_finished"),
	)
	if err := o.reg.Notifier.NotifyPassCompleted(context.WithoutCancel(ctx), notifications.PassSummary{
		Selected:  result.Selected,
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
		Skipped:   result.Skipped,
		Duration:  result.Duration,
	}); err != nil {
		logging.WarnWithContext(logger, "pass notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "pass summary not delivered"),
		)
	}
	return result, ctx.Err()
}

func (o *Orchestrator) runEpisode(ctx context.Context, passID string, episode *queue.Episode) (bool, outcome) {
	ctx = services.WithEpisode(ctx, episode.ID, episode.SeriesKey, episode.SequenceNumber)
	logger := logging.WithContext(ctx, o.logger)

	claimed, err := o.reg.Store.Claim(ctx, episode.ID, passID, o.opts.ClaimTTL)
	if err != nil {
		logging.WarnWithContext(logger, "claim failed", "claim_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "episode skipped this pass"),
		)
		return false, outcomeSkipped
	}
	if !claimed {
		logger.Info("episode claimed elsewhere", logging.String(logging.FieldEventType, "claim_skipped"))
		return false, outcomeSkipped
	}

	reference, err := o.process(ctx, passID, episode, logger)
	cleanupCtx := context.WithoutCancel(ctx)
	if err == nil {
		err = o.reg.Store.MarkProcessed(cleanupCtx, episode.ID, passID, reference)
		if err == nil {
			logger.Info("episode published",
				logging.String("reference", reference),
				logging.String(logging.FieldEventType, "episode_published"),
			)
			return true, outcomeSucceeded
		}
	}

	logging.ErrorWithContext(logger, "episode failed", "episode_failed", logging.ErrorAttrs(err)...)
	switch {
	case errors.Is(err, queue.ErrClaimLost):
		// Another owner holds the lease now; nothing to record.
	case ctx.Err() != nil:
		if releaseErr := o.reg.Store.ReleaseClaim(cleanupCtx, episode.ID, passID); releaseErr != nil {
			logger.Warn("release claim failed", logging.Error(releaseErr))
		}
	default:
		if recordErr := o.reg.Store.RecordFailure(cleanupCtx, episode.ID, passID, err.Error()); recordErr != nil {
			logger.Warn("record failure failed", logging.Error(recordErr))
		}
		if notifyErr := o.reg.Notifier.NotifyEpisodeFailed(cleanupCtx, episode.SeriesKey, episode.SequenceNumber, err); notifyErr != nil {
			logger.Warn("failure notification failed", logging.Error(notifyErr))
		}
	}
	return true, outcomeFailed
}

// process runs the stages for a claimed episode and returns the published
// reference.
func (o *Orchestrator) process(ctx context.Context, passID string, episode *queue.Episode, logger *slog.Logger) (string, error) {
	itemCtx, cancel := context.WithCancelCause(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go o.heartbeat(itemCtx, cancel, &wg, passID, episode.ID, logger)
	defer func() {
		cancel(nil)
		wg.Wait()
	}()

	workDir := filepath.Join(o.opts.WorkDir, workDirName(episode, passID))
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", fmt.Errorf("create work dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			logger.Warn("work dir cleanup failed", logging.String("path", workDir), logging.Error(err))
		}
	}()

	reference, err := o.stages(itemCtx, passID, episode, workDir)
	if err != nil {
		if cause := context.Cause(itemCtx); cause != nil && errors.Is(cause, queue.ErrClaimLost) {
			return "", cause
		}
		return "", err
	}
	return reference, nil
}

func (o *Orchestrator) stages(ctx context.Context, passID string, episode *queue.Episode, workDir string) (string, error) {
	backend, err := o.backendFor(episode)
	if err != nil {
		return "", err
	}
	if err := o.reg.Store.MarkDownloadStarted(ctx, episode.ID, passID); err != nil {
		return "", err
	}

	acquireCtx := services.WithStage(ctx, "acquire")
	raw := filepath.Join(workDir, "raw"+sourceExtension(episode.SourceURL))
	local, err := o.reg.Acquirer.Acquire(acquireCtx, episode.SourceURL, raw)
	if err != nil {
		return "", err
	}

	post := postFor(episode)
	variants, err := o.reg.Renderer.Render(services.WithStage(ctx, "transcode"), local, workDir, post.Caption())
	if err != nil {
		return "", err
	}

	storeCtx := services.WithStage(ctx, "store")
	post.Links = make([]publish.Link, 0, len(variants))
	for _, variant := range variants {
		name := o.reg.Naming.Build(episode.Label(), variant.Label, filepath.Ext(variant.Path))
		ref, err := backend.Store(storeCtx, variant.Path, name)
		if err != nil {
			return "", err
		}
		short := o.reg.Shortener.Shorten(storeCtx, ref, o.reg.Preferred, o.reg.Fallbacks)
		post.Links = append(post.Links, publish.Link{Label: variant.Label, URL: short})
	}

	return o.reg.Publisher.Publish(services.WithStage(ctx, "publish"), post)
}

func postFor(episode *queue.Episode) publish.Post {
	post := publish.Post{
		Series:  episode.SeriesKey,
		Number:  episode.SequenceNumber,
		Channel: episode.PublishChannel,
	}
	if episode.Kind == queue.KindUpload {
		post.Title = episode.SeriesKey
	}
	return post
}

// backendFor returns the episode's storage override, or the default backend.
func (o *Orchestrator) backendFor(episode *queue.Episode) (storage.Backend, error) {
	name := episode.StorageBackend
	if name == "" || name == o.reg.Storage.Name() {
		return o.reg.Storage, nil
	}
	if o.reg.Backends != nil {
		if backend, ok := o.reg.Backends.Lookup(name); ok {
			return backend, nil
		}
	}
	return nil, services.Wrap(services.ErrConfiguration, "storage", "select backend",
		fmt.Sprintf("backend %q requested by %s is not enabled", name, episode.Label()), nil)
}

// heartbeat extends the lease until ctx ends. Losing the lease cancels the
// item with queue.ErrClaimLost as the cause.
func (o *Orchestrator) heartbeat(ctx context.Context, cancel context.CancelCauseFunc, wg *sync.WaitGroup, passID string, id int64, logger *slog.Logger) {
	defer wg.Done()
	ticker := time.NewTicker(o.opts.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := o.reg.Store.ExtendClaim(ctx, id, passID, o.opts.ClaimTTL)
			switch {
			case err == nil:
			case errors.Is(err, queue.ErrClaimLost):
				logging.WarnWithContext(logger, "claim lost; abandoning episode", "claim_lost",
					logging.String(logging.FieldImpact, "another pass owns the episode"),
				)
				cancel(err)
				return
			case errors.Is(err, context.Canceled):
				return
			default:
				logger.Warn("heartbeat update failed", logging.Error(err))
			}
		}
	}
}

func workDirName(episode *queue.Episode, passID string) string {
	short := passID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("%s_%d-%s", naming.SanitizeToken(episode.SeriesKey), episode.SequenceNumber, naming.SanitizeToken(short))
}

// sourceExtension guesses the container from the URL path; the acquirer
// may still report a different final path. Unknown suffixes fall back to
// the default container.
func sourceExtension(sourceURL string) string {
	parsed, err := url.Parse(sourceURL)
	if err != nil {
		return transcode.DefaultContainer
	}
	return transcode.ContainerExt(path.Ext(parsed.Path))
}

type passthroughShortener struct{}

func (passthroughShortener) Shorten(_ context.Context, reference, _ string, _ []string) string {
	return reference
}
