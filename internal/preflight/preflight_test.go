package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"reelpost/internal/config"
)

func TestCheckDirectoryAccess(t *testing.T) {
	base := t.TempDir()
	file := filepath.Join(base, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		name string
		path string
		pass bool
	}{
		{"writable dir", base, true},
		{"missing", filepath.Join(base, "nope"), false},
		{"regular file", file, false},
		{"blank", "  ", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := CheckDirectoryAccess("test", tc.path)
			if result.Passed != tc.pass {
				t.Fatalf("Passed = %v, want %v (%s)", result.Passed, tc.pass, result.Detail)
			}
			if !tc.pass && result.Detail == "" {
				t.Fatal("failure should carry a detail")
			}
		})
	}
}

func TestCheckTelegram_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botgood-token/getMe" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"ok":false}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{"username":"reelpost_bot"}}`))
	}))
	defer srv.Close()

	result := CheckTelegram(context.Background(), srv.URL, "good-token")
	if !result.Passed || result.Detail != "Reachable as @reelpost_bot" {
		t.Fatalf("expected pass, got: %+v", result)
	}
}

func TestCheckTelegram_BadToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	result := CheckTelegram(context.Background(), srv.URL, "bad-token")
	if result.Passed {
		t.Fatal("expected failure for bad token")
	}
}

func TestCheckTelegram_MissingToken(t *testing.T) {
	result := CheckTelegram(context.Background(), "https://api.telegram.org", "")
	if result.Passed || result.Detail != "missing bot token" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_LocalStorageConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.WorkDir = t.TempDir()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Storage.Backends = []string{"local"}
	cfg.Storage.Active = "local"
	cfg.Storage.Local.Dir = t.TempDir()
	cfg.Publish.Target = "ntfy"

	results := RunAll(context.Background(), &cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures %+v", failed)
	}
}

func TestRunAllIncludesTelegramForTelegramPublish(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.WorkDir = t.TempDir()
	cfg.Paths.DataDir = filepath.Join(t.TempDir(), "missing")
	cfg.Paths.LogDir = t.TempDir()
	cfg.Storage.Backends = []string{"local"}
	cfg.Storage.Active = "local"
	cfg.Storage.Local.Dir = t.TempDir()
	cfg.Publish.Target = "telegram"
	cfg.Telegram.BotToken = ""

	failed := Failed(RunAll(context.Background(), &cfg))
	names := make([]string, 0, len(failed))
	for _, r := range failed {
		names = append(names, r.Name)
	}
	if len(names) != 2 || names[0] != "Data directory" || names[1] != "Telegram" {
		t.Fatalf("unexpected failed checks %v", names)
	}
}

func TestCheckSystemDepsMarksYTDLPOptional(t *testing.T) {
	cfg := config.Default()
	cfg.YTDLP.Enabled = false
	statuses := CheckSystemDeps(&cfg)
	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}
	if !statuses[2].Optional || statuses[2].Name != "yt-dlp" {
		t.Fatalf("unexpected yt-dlp status %#v", statuses[2])
	}
}
