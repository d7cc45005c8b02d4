package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelpost/internal/config"
)

// ConfigOption adjusts a generated test configuration.
type ConfigOption func(testing.TB, *config.Config)

// NewConfig returns a valid configuration rooted in a fresh temp directory.
// Telegram credentials are placeholders and the scheduler is off.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths = config.Paths{
		WorkDir: filepath.Join(base, "work"),
		DataDir: filepath.Join(base, "data"),
		LogDir:  filepath.Join(base, "logs"),
	}
	cfg.Storage.Local.Dir = filepath.Join(base, "published")
	cfg.Telegram.BotToken = "test-token"
	cfg.Telegram.DumpChannelID = "-1001"
	cfg.Telegram.PublishChannelID = "-1002"
	cfg.Secrets.EncryptionKey = "test-encryption-key"
	cfg.Scheduler.Enabled = false

	for _, opt := range opts {
		opt(t, &cfg)
	}
	return &cfg
}

// BaseDir returns the temp directory backing cfg.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkDir)
}

// WithLocalStorage makes the local directory the only storage backend.
func WithLocalStorage(publicBaseURL string) ConfigOption {
	return func(_ testing.TB, cfg *config.Config) {
		cfg.Storage.Backends = []string{"local"}
		cfg.Storage.Active = "local"
		cfg.Storage.Local.PublicBaseURL = publicBaseURL
	}
}

// WithTelegramAPI points the Bot API client at a test server.
func WithTelegramAPI(url string) ConfigOption {
	return func(_ testing.TB, cfg *config.Config) {
		cfg.Telegram.APIURL = strings.TrimRight(url, "/")
	}
}

// WithStubbedBinaries puts no-op executables for names first on PATH for the
// duration of the test. With no names it stubs ffmpeg, ffprobe and yt-dlp.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(t testing.TB, cfg *config.Config) {
		if len(names) == 0 {
			names = []string{cfg.FFmpegBinary(), cfg.FFprobeBinary(), cfg.YTDLP.Binary}
		}
		binDir := filepath.Join(BaseDir(cfg), "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			t.Fatalf("mkdir bin dir: %v", err)
		}
		for _, name := range names {
			stub := filepath.Join(binDir, filepath.Base(name))
			if err := os.WriteFile(stub, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
				t.Fatalf("write stub %s: %v", name, err)
			}
		}
		t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}
