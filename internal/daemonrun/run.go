package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"reelpost/internal/config"
	"reelpost/internal/daemon"
	"reelpost/internal/intake"
	"reelpost/internal/logging"
	"reelpost/internal/pipeline"
	"reelpost/internal/preflight"
	"reelpost/internal/queue"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the reelpost daemon and blocks until SIGINT/SIGTERM. SIGHUP
// runs a pass without waiting for the next interval.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if !cfg.Scheduler.Enabled {
		return errors.New("scheduler is disabled (set scheduler.enabled = true or use 'reelpost pass')")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("reelpost-%s.log", runID))
	level := opts.LogLevel
	if strings.TrimSpace(level) == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logDependencySnapshot(logger, cfg)
	logPreflight(signalCtx, logger, cfg)
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update %s link: %v\n", logging.LogFileName, err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "reelpost-*.log", Exclude: []string{logPath}},
	)
	pidPath := filepath.Join(cfg.Paths.LogDir, "reelpost.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return err
	}
	defer store.Close()

	reg, err := pipeline.NewRegistry(cfg, store, logger)
	if err != nil {
		return fmt.Errorf("build pipeline registry: %w", err)
	}
	orchestrator, err := pipeline.New(reg, pipeline.OptionsFromConfig(cfg, logger))
	if err != nil {
		return fmt.Errorf("create orchestrator: %w", err)
	}

	var (
		poller daemon.FeedPoller
		feed   intake.Fetcher
	)
	if url := strings.TrimSpace(cfg.Scheduler.FeedURL); url != "" {
		poller = intake.NewService(store, logger).WithBackends(cfg.Storage.Backends)
		feed = intake.NewHTTPFeed(url, nil)
	}

	d, err := daemon.New(cfg, orchestrator, poller, feed, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	if err := d.Start(signalCtx); err != nil {
		logger.Error("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
			logging.String(logging.FieldErrorHint, "another reelpost daemon may hold "+cfg.LockPath()),
		)
		return err
	}

	wake := make(chan os.Signal, 1)
	signal.Notify(wake, syscall.SIGHUP)
	defer signal.Stop(wake)
	serveUntilDone(signalCtx, d, wake, logger)
	d.Stop()
	return nil
}

// scheduler is the part of daemon.Daemon driven by process signals.
type scheduler interface {
	Trigger()
	Status() daemon.Status
}

// serveUntilDone blocks until ctx ends. Each value on wake starts a tick
// early and logs the previous one.
func serveUntilDone(ctx context.Context, d scheduler, wake <-chan os.Signal, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("reelpost daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
			return
		case <-wake:
			attrs := []logging.Attr{logging.String(logging.FieldEventType, "daemon_triggered")}
			if tick := d.Status().LastTick; tick != nil {
				attrs = append(attrs,
					logging.String("last_tick", tick.At.Format(time.RFC3339)),
					logging.Int("last_added", tick.Poll.Added),
					logging.Int("last_succeeded", tick.Pass.Succeeded),
					logging.Int("last_failed", tick.Pass.Failed),
				)
			}
			logger.Info("immediate pass requested", logging.Args(attrs...)...)
			d.Trigger()
		}
	}
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, logging.LogFileName)
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	ffmpeg := cfg.FFmpegBinary()
	ffprobe := cfg.FFprobeBinary()
	logger.Info("dependency snapshot",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("ffmpeg_available", binaryAvailable(ffmpeg)),
		logging.String("ffmpeg_binary", ffmpeg),
		logging.Bool("ffprobe_available", binaryAvailable(ffprobe)),
		logging.String("ffprobe_binary", ffprobe),
		logging.Bool("ytdlp_enabled", cfg.YTDLP.Enabled),
		logging.Bool("ytdlp_available", binaryAvailable(cfg.YTDLP.Binary)),
		logging.Bool("telegram_token_present", strings.TrimSpace(cfg.Telegram.BotToken) != ""),
		logging.String("storage_active", cfg.Storage.Active),
		logging.String("publish_target", cfg.Publish.Target),
	)
}

func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	for _, result := range preflight.Failed(preflight.RunAll(ctx, cfg)) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldImpact, "episodes may fail until resolved"),
		)
	}
}

func binaryAvailable(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	_, err := exec.LookPath(name)
	return err == nil
}
