package transcode

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
	"reelpost/internal/media/ffprobe"
	"reelpost/internal/services"
	"reelpost/internal/workpool"
)

const (
	// OriginalLabel names the pass-through variant.
	OriginalLabel = "original"
	stderrLimit   = 500
)

// Variant is one rendered file.
type Variant struct {
	Label string
	Path  string
}

// VariantSet lists rendered files in render order with the original last.
type VariantSet []Variant

// Labels returns the variant labels in order.
func (v VariantSet) Labels() []string {
	labels := make([]string, len(v))
	for i, variant := range v {
		labels[i] = variant.Label
	}
	return labels
}

// Settings is the engine's view of configuration.
type Settings struct {
	FFmpeg            string
	FFprobe           string
	LogLevel          string
	AudioLanguages    []string
	SubtitleLanguages []string
	Targets           []config.VariantTarget
	CRF               int
	Preset            string
	AudioBitrate      string
	Watermark         bool
	WatermarkImage    string
	WatermarkText     string
	Metadata          map[string]string
}

// SettingsFromConfig extracts engine settings.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		FFmpeg:            cfg.FFmpegBinary(),
		FFprobe:           cfg.FFprobeBinary(),
		LogLevel:          cfg.Transcode.LogLevel,
		AudioLanguages:    cfg.Transcode.AudioLanguages,
		SubtitleLanguages: cfg.Transcode.SubtitleLanguages,
		Targets:           cfg.VariantTargets(),
		CRF:               cfg.Transcode.CRF,
		Preset:            cfg.Transcode.Preset,
		AudioBitrate:      cfg.Transcode.AudioBitrate,
		Watermark:         cfg.Watermark.Enabled,
		WatermarkImage:    cfg.Watermark.ImagePath,
		WatermarkText:     cfg.Watermark.Text,
		Metadata:          cfg.Watermark.Metadata,
	}
}

// Engine drives ffprobe and ffmpeg for one episode at a time.
type Engine struct {
	settings Settings
	exec     Executor
	pool     *workpool.Pool
	logger   *slog.Logger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(e *Engine) {
		if exec != nil {
			e.exec = exec
		}
	}
}

// NewEngine constructs an Engine.
func NewEngine(settings Settings, pool *workpool.Pool, logger *slog.Logger, opts ...Option) *Engine {
	if strings.TrimSpace(settings.LogLevel) == "" {
		settings.LogLevel = "error"
	}
	e := &Engine{
		settings: settings,
		exec:     commandExecutor{},
		pool:     pool,
		logger:   logging.NewComponentLogger(logger, "transcode"),
	}
	if e.pool == nil {
		e.pool = workpool.New(1)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Probe inspects path.
func (e *Engine) Probe(ctx context.Context, path string) (ffprobe.Result, error) {
	out, err := e.run(ctx, "probe", e.settings.FFprobe, ffprobe.Args(path))
	if err != nil {
		return ffprobe.Result{}, err
	}
	result, err := ffprobe.Parse(out.Stdout)
	if err != nil {
		return ffprobe.Result{}, services.Wrap(services.ErrTranscode, "transcode", "probe", "Unreadable ffprobe output", err)
	}
	return result, nil
}

// Render produces the variant set for input inside workDir. title becomes
// the container title tag when the watermark pass runs.
func (e *Engine) Render(ctx context.Context, input, workDir, title string) (VariantSet, error) {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	logger := logging.WithContext(ctx, e.logger)

	source := input
	if e.settings.Watermark {
		marked := filepath.Join(workDir, OriginalLabel+ContainerExt(filepath.Ext(input)))
		metadata := map[string]string{"title": title}
		for key, value := range e.settings.Metadata {
			metadata[key] = value
		}
		started := time.Now()
		if _, err := e.run(ctx, "watermark", e.settings.FFmpeg, watermarkArgs(e.settings, input, marked, metadata)); err != nil {
			return nil, err
		}
		logger.Info("watermark pass complete",
			logging.String("output", marked),
			logging.Duration("elapsed", time.Since(started)),
			logging.String(logging.FieldEventType, "watermark_complete"),
		)
		source = marked
	}

	probe, err := e.Probe(ctx, source)
	if err != nil {
		return nil, err
	}
	if probe.VideoStreamCount() == 0 {
		return nil, services.Wrap(services.ErrTranscode, "transcode", "probe", "Source has no video stream", nil)
	}
	logger.Info("source inspected",
		logging.Int("video_streams", probe.VideoStreamCount()),
		logging.Int("audio_streams", probe.AudioStreamCount()),
		logging.Float64("duration_seconds", probe.DurationSeconds()),
		logging.Int64("size_bytes", probe.SizeBytes()),
		logging.String("audio_kept", keptLanguages(FilterStreams(probe.Streams, "audio", e.settings.AudioLanguages))),
		logging.String("subtitles_kept", keptLanguages(FilterStreams(probe.Streams, "subtitle", e.settings.SubtitleLanguages))),
		logging.String(logging.FieldEventType, "source_inspected"),
	)

	variants := make(VariantSet, 0, len(e.settings.Targets)+1)
	for _, target := range e.settings.Targets {
		output := filepath.Join(workDir, target.Label+".mp4")
		started := time.Now()
		if _, err := e.run(ctx, "render "+target.Label, e.settings.FFmpeg, variantArgs(e.settings, source, output, probe, target.Width, target.Height)); err != nil {
			return nil, err
		}
		logger.Info("variant rendered",
			logging.String("label", target.Label),
			logging.String("output", output),
			logging.Duration("elapsed", time.Since(started)),
			logging.String(logging.FieldEventType, "variant_rendered"),
		)
		variants = append(variants, Variant{Label: target.Label, Path: output})
	}
	variants = append(variants, Variant{Label: OriginalLabel, Path: source})
	return variants, nil
}

func (e *Engine) run(ctx context.Context, operation, binary string, args []string) (Output, error) {
	out, err := workpool.Run(ctx, e.pool, func(ctx context.Context) (Output, error) {
		return e.exec.Run(ctx, binary, args)
	})
	if err != nil {
		excerpt := truncate(strings.TrimSpace(string(out.Stderr)), stderrLimit)
		return out, services.Wrap(
			services.ErrTranscode,
			"transcode",
			operation,
			fmt.Sprintf("%s failed", filepath.Base(binary)),
			fmt.Errorf("%w: %s", err, excerpt),
		)
	}
	return out, nil
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit]
}
