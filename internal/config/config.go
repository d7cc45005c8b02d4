package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains working and state directory configuration.
type Paths struct {
	WorkDir string `toml:"work_dir"`
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Telegram contains Bot API settings shared by the storage and publish steps.
type Telegram struct {
	BotToken         string `toml:"bot_token"`
	APIURL           string `toml:"api_url"`
	DumpChannelID    string `toml:"dump_channel_id"`
	PublishChannelID string `toml:"publish_channel_id"`
	MaxInlineButtons int    `toml:"max_inline_buttons"`
	RequestTimeout   int    `toml:"request_timeout"`
}

// Secrets controls where the site credential encryption key comes from.
type Secrets struct {
	EncryptionKey string `toml:"encryption_key"`
	// KeySource is "config" (encryption_key or REELPOST_ENCRYPTION_KEY) or "keyring".
	KeySource string `toml:"key_source"`
}

// Naming contains output filename decoration.
type Naming struct {
	Prefix   string   `toml:"prefix"`
	Suffix   string   `toml:"suffix"`
	MetaTags []string `toml:"meta_tags"`
}

// Resolution is a bounding box for a quality variant.
type Resolution struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// Transcode contains ffmpeg settings for variant rendering.
type Transcode struct {
	FFmpegBinary      string                `toml:"ffmpeg_binary"`
	FFprobeBinary     string                `toml:"ffprobe_binary"`
	LogLevel          string                `toml:"loglevel"`
	AudioLanguages    []string              `toml:"audio_languages"`
	SubtitleLanguages []string              `toml:"subtitle_languages"`
	Resolutions       map[string]Resolution `toml:"resolutions"`
	CRF               int                   `toml:"crf"`
	Preset            string                `toml:"preset"`
	AudioBitrate      string                `toml:"audio_bitrate"`
}

// Watermark contains the optional metadata/overlay pass settings.
type Watermark struct {
	Enabled   bool              `toml:"enabled"`
	ImagePath string            `toml:"image_path"`
	Text      string            `toml:"text"`
	Metadata  map[string]string `toml:"metadata"`
}

// YTDLP contains the generic allow-listed downloader settings.
type YTDLP struct {
	Enabled        bool   `toml:"enabled"`
	Binary         string `toml:"binary"`
	AllowAnonymous bool   `toml:"allow_anonymous"`
	Timeout        int    `toml:"timeout"`
}

// LocalStorage configures the filesystem storage backend.
type LocalStorage struct {
	Dir           string `toml:"dir"`
	PublicBaseURL string `toml:"public_base_url"`
}

// Storage selects and configures storage backends.
type Storage struct {
	Backends []string     `toml:"backends"`
	Active   string       `toml:"active"`
	Local    LocalStorage `toml:"local"`
}

// Shortener configures the link shortener chain.
type Shortener struct {
	Preferred string   `toml:"preferred"`
	Fallbacks []string `toml:"fallbacks"`
	Timeout   int      `toml:"timeout"`
}

// Publish selects where finished episodes are announced.
type Publish struct {
	Target string `toml:"target"`
}

// Pipeline contains concurrency and claim settings.
type Pipeline struct {
	Workers     int `toml:"workers"`
	ToolWorkers int `toml:"tool_workers"`
	ClaimTTL    int `toml:"claim_ttl"`
}

// Scheduler controls the daemon loop.
type Scheduler struct {
	Enabled             bool   `toml:"enabled"`
	PollIntervalMinutes int    `toml:"poll_interval_minutes"`
	FeedURL             string `toml:"feed_url"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	PassSummary    bool   `toml:"pass_summary"`
	Failures       bool   `toml:"failures"`
}

// Workflow contains lease heartbeat timing.
type Workflow struct {
	HeartbeatInterval int `toml:"heartbeat_interval"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// PublicAPISite configures one instance of the OAuth public API adapter.
type PublicAPISite struct {
	Name           string   `toml:"name"`
	BaseURL        string   `toml:"base_url"`
	Domains        []string `toml:"domains"`
	ClientID       string   `toml:"client_id"`
	ClientSecret   string   `toml:"client_secret"`
	AllowAnonymous bool     `toml:"allow_anonymous"`
}

// Sites groups site adapter configuration.
type Sites struct {
	PublicAPI []PublicAPISite `toml:"public_api"`
}

// Config encapsulates all configuration values for reelpost.
//
// Configuration sections by subsystem:
//   - Paths: working, state, and log directories
//   - Telegram: chat platform used for storage and announcements
//   - Secrets: credential encryption key source
//   - Naming, Transcode, Watermark: output files
//   - YTDLP: generic downloader for allow-listed domains
//   - Storage, Shortener, Publish: link production
//   - Pipeline, Scheduler, Workflow: pass execution
//   - Notifications, Logging: operations
//   - Sites: configured site adapters
type Config struct {
	Paths         Paths         `toml:"paths"`
	Telegram      Telegram      `toml:"telegram"`
	Secrets       Secrets       `toml:"secrets"`
	Naming        Naming        `toml:"naming"`
	Transcode     Transcode     `toml:"transcode"`
	Watermark     Watermark     `toml:"watermark"`
	YTDLP         YTDLP         `toml:"ytdlp"`
	Storage       Storage       `toml:"storage"`
	Shortener     Shortener     `toml:"shortener"`
	Publish       Publish       `toml:"publish"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Scheduler     Scheduler     `toml:"scheduler"`
	Notifications Notifications `toml:"notifications"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
	Sites         Sites         `toml:"sites"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/reelpost/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	loadDotEnv(resolvedPath)

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// loadDotEnv loads .env from the working directory and from the config
// directory. Existing environment variables always win.
func loadDotEnv(configPath string) {
	candidates := []string{".env"}
	if dir := filepath.Dir(configPath); configPath != "" && dir != "" {
		candidates = append(candidates, filepath.Join(dir, ".env"))
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err != nil || info.IsDir() {
			continue
		}
		_ = godotenv.Load(candidate)
	}
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reelpost.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.StorageEnabled("local") && strings.TrimSpace(c.Storage.Local.Dir) != "" {
		if err := os.MkdirAll(c.Storage.Local.Dir, 0o755); err != nil {
			return fmt.Errorf("create local storage directory %q: %w", c.Storage.Local.Dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite record store location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "reelpost.db")
}

// LockPath returns the scheduler lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "reelpost.lock")
}

// FFmpegBinary returns the ffmpeg executable name.
func (c *Config) FFmpegBinary() string {
	if strings.TrimSpace(c.Transcode.FFmpegBinary) == "" {
		return defaultFFmpegBinary
	}
	return c.Transcode.FFmpegBinary
}

// FFprobeBinary returns the ffprobe executable name used for stream inspection.
func (c *Config) FFprobeBinary() string {
	if strings.TrimSpace(c.Transcode.FFprobeBinary) == "" {
		return defaultFFprobeBinary
	}
	return c.Transcode.FFprobeBinary
}

// StorageEnabled reports whether a backend name is listed in storage.backends.
func (c *Config) StorageEnabled(name string) bool {
	for _, backend := range c.Storage.Backends {
		if backend == name {
			return true
		}
	}
	return false
}

// VariantTarget is a named quality variant in render order.
type VariantTarget struct {
	Label  string
	Width  int
	Height int
}

// VariantTargets returns the configured resolutions ordered from smallest to
// largest frame area, ties broken by label.
func (c *Config) VariantTargets() []VariantTarget {
	targets := make([]VariantTarget, 0, len(c.Transcode.Resolutions))
	for label, res := range c.Transcode.Resolutions {
		targets = append(targets, VariantTarget{Label: label, Width: res.Width, Height: res.Height})
	}
	sort.Slice(targets, func(i, j int) bool {
		ai := targets[i].Width * targets[i].Height
		aj := targets[j].Width * targets[j].Height
		if ai != aj {
			return ai < aj
		}
		return targets[i].Label < targets[j].Label
	})
	return targets
}

// ClaimTTL returns the pipeline claim lease duration.
func (c *Config) ClaimTTL() time.Duration {
	return time.Duration(c.Pipeline.ClaimTTL) * time.Second
}

// HeartbeatInterval returns how often running items extend their lease.
func (c *Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.Workflow.HeartbeatInterval) * time.Second
}

// PollInterval returns the scheduler period.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Scheduler.PollIntervalMinutes) * time.Minute
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
