package sites_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"reelpost/internal/config"
	"reelpost/internal/services"
	"reelpost/internal/sites"
)

type stubAdapter struct {
	name    string
	domains []string
}

func (s stubAdapter) Name() string      { return s.name }
func (s stubAdapter) Domains() []string { return s.domains }
func (s stubAdapter) PrepareDownload(context.Context, string, string, string) (sites.DownloadTask, error) {
	return sites.DownloadTask{DirectURL: "https://cdn.example/" + s.name}, nil
}

func TestRegistryLastRegistrationWins(t *testing.T) {
	registry := sites.NewRegistry(
		stubAdapter{name: "first", domains: []string{"Media.Example", "a.example"}},
		stubAdapter{name: "second", domains: []string{"media.example"}},
	)

	adapter, ok := registry.Lookup("MEDIA.example")
	if !ok || adapter.Name() != "second" {
		t.Fatalf("expected second adapter, got %v %v", adapter, ok)
	}
	if _, ok := registry.Lookup("sub.media.example"); ok {
		t.Fatal("expected exact-match lookup")
	}

	entries := registry.Entries()
	if len(entries) != 2 || entries[0].Domain != "a.example" || entries[1].Adapter != "second" {
		t.Fatalf("unexpected entries: %#v", entries)
	}
	if sites.AllowsAnonymous(stubAdapter{}) {
		t.Fatal("stub adapter should not allow anonymous access")
	}
}

func newSiteServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("grant_type") != "password" || r.PostForm.Get("client_id") != "cid" {
			t.Errorf("unexpected token form: %v", r.PostForm)
		}
		if r.PostForm.Get("password") != "hunter2" {
			http.Error(w, "bad login", http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok"})
	})
	mux.HandleFunc("/api/v1/resolve", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("url") == "https://media.example/missing" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"download_url": "https://cdn.example/file.mp4?auth=" + r.Header.Get("Authorization"),
		})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestPublicAPIAdapterPrepareDownload(t *testing.T) {
	server := newSiteServer(t)
	adapter := sites.NewPublicAPIAdapter(config.PublicAPISite{
		Name:     "example",
		BaseURL:  server.URL + "/",
		Domains:  []string{"media.example"},
		ClientID: "cid",
	}, server.Client())

	task, err := adapter.PrepareDownload(context.Background(), "https://media.example/ep1", "alice", "hunter2")
	if err != nil {
		t.Fatalf("PrepareDownload: %v", err)
	}
	if task.Headers["Authorization"] != "Bearer tok" {
		t.Fatalf("expected bearer header, got %#v", task.Headers)
	}
	if task.DirectURL != "https://cdn.example/file.mp4?auth=Bearer tok" {
		t.Fatalf("unexpected direct url %q", task.DirectURL)
	}
}

func TestPublicAPIAdapterErrorsAreDistinguishable(t *testing.T) {
	server := newSiteServer(t)
	adapter := sites.NewPublicAPIAdapter(config.PublicAPISite{
		BaseURL:  server.URL,
		Domains:  []string{"media.example"},
		ClientID: "cid",
	}, server.Client())
	ctx := context.Background()

	_, err := adapter.PrepareDownload(ctx, "https://media.example/ep1", "alice", "wrong")
	if !errors.Is(err, services.ErrAuthentication) || errors.Is(err, services.ErrResolution) {
		t.Fatalf("expected authentication error, got %v", err)
	}

	_, err = adapter.PrepareDownload(ctx, "https://media.example/missing", "", "")
	if !errors.Is(err, services.ErrResolution) || errors.Is(err, services.ErrAuthentication) {
		t.Fatalf("expected resolution error, got %v", err)
	}
}

func TestPublicAPIAdapterAnonymous(t *testing.T) {
	server := newSiteServer(t)
	adapter := sites.NewPublicAPIAdapter(config.PublicAPISite{
		BaseURL:        server.URL,
		Domains:        []string{"media.example"},
		AllowAnonymous: true,
	}, server.Client())

	if !sites.AllowsAnonymous(adapter) {
		t.Fatal("expected anonymous capability")
	}
	task, err := adapter.PrepareDownload(context.Background(), "https://media.example/ep2", "", "")
	if err != nil {
		t.Fatalf("PrepareDownload: %v", err)
	}
	if _, ok := task.Headers["Authorization"]; ok {
		t.Fatal("expected no bearer header without login")
	}
}

func TestFromConfigRegistersSites(t *testing.T) {
	cfg := config.Default()
	cfg.Sites.PublicAPI = []config.PublicAPISite{
		{Name: "one", BaseURL: "https://one.example", Domains: []string{"one.example", "cdn.one.example"}},
	}
	registry := sites.FromConfig(&cfg, nil)
	if registry.Len() != 2 {
		t.Fatalf("expected two domains, got %d", registry.Len())
	}
	if adapter, ok := registry.Lookup("cdn.one.example"); !ok || adapter.Name() != "one" {
		t.Fatalf("unexpected lookup: %v %v", adapter, ok)
	}
}
