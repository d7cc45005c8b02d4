package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reelpost/internal/config"
	"reelpost/internal/notifications"
)

type captured struct {
	title    string
	message  string
	tags     string
	priority string
	count    int
}

func newServer(t *testing.T, got *captured) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got.count++
		got.title = r.Header.Get("Title")
		got.tags = r.Header.Get("Tags")
		got.priority = r.Header.Get("Priority")
		got.message = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyEpisodeFailed(context.Background(), "show", 1, errors.New("boom")); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNotifyPassCompleted(t *testing.T) {
	tests := []struct {
		name          string
		summary       notifications.PassSummary
		expectTitle   string
		expectMessage string
	}{
		{
			name:          "clean pass",
			summary:       notifications.PassSummary{Selected: 2, Succeeded: 2, Duration: 90 * time.Second},
			expectTitle:   "reelpost - Pass Complete",
			expectMessage: "Published 2 episodes in 1m30s",
		},
		{
			name:          "partial failure",
			summary:       notifications.PassSummary{Selected: 4, Succeeded: 2, Failed: 1, Skipped: 1, Duration: 5 * time.Second},
			expectTitle:   "reelpost - Pass Complete (with errors)",
			expectMessage: "2 published, 1 failed in 5s (1 skipped)",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got captured
			server := newServer(t, &got)
			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			svc := notifications.NewService(&cfg)

			if err := svc.NotifyPassCompleted(context.Background(), tc.summary); err != nil {
				t.Fatalf("NotifyPassCompleted: %v", err)
			}
			if got.title != tc.expectTitle || got.message != tc.expectMessage {
				t.Fatalf("got title=%q message=%q", got.title, got.message)
			}
			if got.tags != "reelpost,pass,completed" {
				t.Fatalf("unexpected tags %q", got.tags)
			}
		})
	}
}

func TestEmptyPassIsNotAnnounced(t *testing.T) {
	var got captured
	server := newServer(t, &got)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)

	if err := svc.NotifyPassCompleted(context.Background(), notifications.PassSummary{}); err != nil {
		t.Fatalf("NotifyPassCompleted: %v", err)
	}
	if got.count != 0 {
		t.Fatalf("expected no request, got %d", got.count)
	}
}

func TestNotifyEpisodeFailed(t *testing.T) {
	var got captured
	server := newServer(t, &got)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)

	if err := svc.NotifyEpisodeFailed(context.Background(), "my_show", 3, errors.New("transfer failed: 404")); err != nil {
		t.Fatalf("NotifyEpisodeFailed: %v", err)
	}
	if got.message != "❌ my_show Episode 3 failed: transfer failed: 404" || got.priority != "high" {
		t.Fatalf("unexpected payload %+v", got)
	}

	cfg.Notifications.Failures = false
	got = captured{}
	if err := notifications.NewService(&cfg).NotifyEpisodeFailed(context.Background(), "s", 1, nil); err != nil {
		t.Fatal(err)
	}
	if got.count != 0 {
		t.Fatal("disabled failure notifications still sent")
	}
}

func TestSendReportsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	if err := notifications.NewService(&cfg).TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for 500 response")
	}
}
