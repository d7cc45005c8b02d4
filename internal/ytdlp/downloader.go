package ytdlp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"reelpost/internal/config"
	"reelpost/internal/logging"
	"reelpost/internal/services"
	"reelpost/internal/workpool"
)

// Request is one yt-dlp invocation.
type Request struct {
	URL            string
	OutputTemplate string
	Username       string
	Password       string
}

// Runner executes yt-dlp and returns its stdout.
type Runner interface {
	Run(ctx context.Context, req Request) (string, error)
}

// Downloader fetches media through yt-dlp on the shared worker pool.
type Downloader struct {
	runner  Runner
	pool    *workpool.Pool
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// Option customizes a Downloader.
type Option func(*Downloader)

// WithRunner injects a custom Runner (primarily for tests).
func WithRunner(r Runner) Option {
	return func(d *Downloader) {
		if r != nil {
			d.runner = r
		}
	}
}

// WithClock overrides the time source used for the fallback scan window.
func WithClock(now func() time.Time) Option {
	return func(d *Downloader) {
		if now != nil {
			d.now = now
		}
	}
}

// New constructs a Downloader from configuration.
func New(cfg *config.Config, pool *workpool.Pool, logger *slog.Logger, opts ...Option) *Downloader {
	d := &Downloader{
		runner:  commandRunner{binary: cfg.YTDLP.Binary},
		pool:    pool,
		timeout: time.Duration(cfg.YTDLP.Timeout) * time.Second,
		logger:  logging.NewComponentLogger(logger, "ytdlp"),
		now:     time.Now,
	}
	if d.pool == nil {
		d.pool = workpool.New(1)
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Download fetches sourceURL next to dest and returns the file yt-dlp wrote.
// accountID and secret are passed as the site login when present.
func (d *Downloader) Download(ctx context.Context, sourceURL, dest, accountID, secret string) (string, error) {
	base := strings.TrimSuffix(dest, filepath.Ext(dest))
	if err := os.MkdirAll(filepath.Dir(base), 0o755); err != nil {
		return "", services.Wrap(services.ErrTransfer, "acquire", "ytdlp", "Create output directory", err)
	}
	req := Request{
		URL:            sourceURL,
		OutputTemplate: base + ".%(ext)s",
		Username:       strings.TrimSpace(accountID),
		Password:       secret,
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	started := d.now()
	stdout, err := workpool.Run(ctx, d.pool, func(ctx context.Context) (string, error) {
		return d.runner.Run(ctx, req)
	})
	if err != nil {
		return "", services.Wrap(services.ErrTransfer, "acquire", "ytdlp", "yt-dlp failed", err)
	}

	if path := reportedPath(stdout); path != "" {
		if info, statErr := os.Stat(path); statErr == nil && !info.IsDir() {
			return path, nil
		}
		d.logger.Warn("reported output path missing; scanning output directory",
			logging.String("reported_path", path),
			logging.String(logging.FieldEventType, "ytdlp_path_missing"),
		)
	}

	path, err := scanForOutput(base, started)
	if err != nil {
		return "", services.Wrap(services.ErrTransfer, "acquire", "ytdlp", "Locate downloaded file", err)
	}
	d.logger.Info("resolved output by directory scan",
		logging.String("path", path),
		logging.String(logging.FieldEventType, "ytdlp_scan_fallback"),
	)
	return path, nil
}

// reportedPath returns the last non-empty stdout line.
func reportedPath(stdout string) string {
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

// scanForOutput finds the newest "<base>.*" file modified at or after
// started. Partial downloads are ignored.
func scanForOutput(base string, started time.Time) (string, error) {
	dir := filepath.Dir(base)
	prefix := filepath.Base(base) + "."
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read output directory: %w", err)
	}
	// Filesystem timestamps can be coarser than the wall clock.
	windowStart := started.Add(-time.Second)

	var (
		best     string
		bestTime time.Time
	)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		if strings.HasSuffix(name, ".part") || strings.HasSuffix(name, ".ytdl") {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().Before(windowStart) {
			continue
		}
		if best == "" || info.ModTime().After(bestTime) {
			best = filepath.Join(dir, name)
			bestTime = info.ModTime()
		}
	}
	if best == "" {
		return "", fmt.Errorf("no file matching %s* written since %s", filepath.Join(dir, prefix), started.Format(time.RFC3339))
	}
	return best, nil
}
