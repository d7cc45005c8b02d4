package main

import (
	"strings"
	"testing"
	"time"

	"reelpost/internal/queue"
)

func TestEpisodeAddListStatus(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"episode", "add", "show", "1", "https://media.example/show/1.mp4", "--meta", "title=Pilot"}, env.configPath, "")
	if err != nil {
		t.Fatalf("episode add: %v", err)
	}
	requireContains(t, out, "Queued show_E1")

	if _, _, err := runCLI(t, []string{"episode", "add", "show", "1", "https://media.example/show/1.mp4"}, env.configPath, ""); err == nil {
		t.Fatal("expected duplicate add to fail")
	} else if !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("unexpected duplicate error: %v", err)
	}

	if _, _, err := runCLI(t, []string{"episode", "add", "show", "two", "https://media.example/show/2.mp4"}, env.configPath, ""); err == nil {
		t.Fatal("expected non-numeric episode number to fail")
	}

	out, _, err = runCLI(t, []string{"episode", "list", "--pending"}, env.configPath, "")
	if err != nil {
		t.Fatalf("episode list: %v", err)
	}
	requireContains(t, out, "show")
	requireContains(t, out, "pending")

	out, _, err = runCLI(t, []string{"episode", "list", "--processed"}, env.configPath, "")
	if err != nil {
		t.Fatalf("episode list processed: %v", err)
	}
	requireContains(t, out, "No episodes found")

	out, _, err = runCLI(t, []string{"episode", "status"}, env.configPath, "")
	if err != nil {
		t.Fatalf("episode status: %v", err)
	}
	requireContains(t, out, "Processed")
}

func TestEpisodeOverridesUploadAndDetail(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"episode", "add", "show", "3", "https://media.example/show/3.mp4", "--storage", "mega"}, env.configPath, ""); err == nil {
		t.Fatal("expected disabled storage override to fail")
	} else if !strings.Contains(err.Error(), "not enabled") {
		t.Fatalf("unexpected override error: %v", err)
	}

	if _, _, err := runCLI(t, []string{"episode", "add", "show", "3", "https://media.example/show/3.mp4", "--channel", "@late_night", "--storage", "local"}, env.configPath, ""); err != nil {
		t.Fatalf("episode add with overrides: %v", err)
	}
	out, _, err := runCLI(t, []string{"episode", "status", "show", "3"}, env.configPath, "")
	if err != nil {
		t.Fatalf("episode status detail: %v", err)
	}
	requireContains(t, out, "show_E3")
	requireContains(t, out, "@late_night")
	requireContains(t, out, "pending")

	if _, _, err := runCLI(t, []string{"episode", "status", "show", "4"}, env.configPath, ""); err == nil {
		t.Fatal("expected missing episode to fail")
	}
	if _, _, err := runCLI(t, []string{"episode", "status", "show"}, env.configPath, ""); err == nil {
		t.Fatal("expected a lone series argument to fail")
	}

	out, _, err = runCLI(t, []string{"upload", "Festival Highlights", "https://media.example/fest.mp4"}, env.configPath, "")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	requireContains(t, out, `Queued upload "Festival Highlights"`)
}

func TestEpisodeListRejectsConflictingFilters(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"episode", "list", "--pending", "--processed"}, env.configPath, ""); err == nil {
		t.Fatal("expected mutually exclusive flags to fail")
	}
}

func TestParseMetadata(t *testing.T) {
	got, err := parseMetadata([]string{"title = Pilot", "lang=en"})
	if err != nil {
		t.Fatalf("parseMetadata: %v", err)
	}
	if got["title"] != "Pilot" || got["lang"] != "en" {
		t.Fatalf("unexpected metadata %v", got)
	}
	if _, err := parseMetadata([]string{"novalue"}); err == nil {
		t.Fatal("expected error for pair without '='")
	}
	if got, err := parseMetadata(nil); err != nil || got != nil {
		t.Fatalf("expected nil metadata, got %v %v", got, err)
	}
}

func TestEpisodeState(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Minute)
	past := now.Add(-time.Minute)

	cases := []struct {
		name string
		ep   queue.Episode
		want string
	}{
		{"processed", queue.Episode{Processed: true}, "processed"},
		{"claimed", queue.Episode{ClaimOwner: "pass", ClaimExpiresAt: &future}, "in progress"},
		{"expired claim with error", queue.Episode{ClaimOwner: "pass", ClaimExpiresAt: &past, LastError: "boom"}, "failing"},
		{"fresh", queue.Episode{}, "pending"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := episodeState(&tc.ep, now); got != tc.want {
				t.Fatalf("episodeState = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestTruncateCell(t *testing.T) {
	if got := truncateCell("short", 10); got != "short" {
		t.Fatalf("unexpected %q", got)
	}
	if got := truncateCell("line one\nline two", 8); got != "line on…" {
		t.Fatalf("unexpected %q", got)
	}
}
