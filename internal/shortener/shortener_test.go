package shortener

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"reelpost/internal/services"
)

type scriptedProvider struct {
	name   string
	result string
	err    error
	calls  *[]string
}

func (p scriptedProvider) Name() string { return p.name }

func (p scriptedProvider) Shorten(_ context.Context, _ string) (string, error) {
	*p.calls = append(*p.calls, p.name)
	return p.result, p.err
}

func TestChainTriesEachProviderOnceInOrder(t *testing.T) {
	var calls []string
	fail := errors.New("down")
	chain := NewChain(nil,
		scriptedProvider{name: "a", err: fail, calls: &calls},
		scriptedProvider{name: "b", err: fail, calls: &calls},
		scriptedProvider{name: "c", result: "https://c/1", calls: &calls},
	)

	got := chain.Shorten(context.Background(), "tg://file_id/X", "a", []string{"b", "a", "zzz", "c"})
	if got != "https://c/1" {
		t.Fatalf("unexpected short link %q", got)
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(calls, want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
}

func TestChainFallsBackToReference(t *testing.T) {
	var calls []string
	chain := NewChain(nil, scriptedProvider{name: "a", err: errors.New("down"), calls: &calls})
	if got := chain.Shorten(context.Background(), "tg://file_id/X", "a", nil); got != "tg://file_id/X" {
		t.Fatalf("expected reference, got %q", got)
	}
	if got := chain.Shorten(context.Background(), "ref", "unknown", nil); got != "ref" {
		t.Fatalf("expected reference for unknown provider, got %q", got)
	}
}

func TestOrder(t *testing.T) {
	got := Order("TinyURL", []string{"isgd", "tinyurl", ""})
	if want := []string{"tinyurl", "isgd"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Order = %v, want %v", got, want)
	}
}

func TestTinyURLProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("url") != "https://cdn/x.mp4" {
			t.Errorf("unexpected url param %q", r.URL.Query().Get("url"))
		}
		_, _ = w.Write([]byte("https://tinyurl.com/abc\n"))
	}))
	defer server.Close()

	short, err := NewTinyURL(server.URL, server.Client()).Shorten(context.Background(), "https://cdn/x.mp4")
	if err != nil || short != "https://tinyurl.com/abc" {
		t.Fatalf("Shorten = %q, %v", short, err)
	}
}

func TestIsGdProviderSendsSimpleFormat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("format") != "simple" {
			t.Errorf("expected format=simple, got %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte("https://is.gd/xyz"))
	}))
	defer server.Close()

	short, err := NewIsGd(server.URL, server.Client()).Shorten(context.Background(), "https://cdn/x.mp4")
	if err != nil || short != "https://is.gd/xyz" {
		t.Fatalf("Shorten = %q, %v", short, err)
	}
}

func TestProviderRejectsBadResponses(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		},
		"empty": func(w http.ResponseWriter, _ *http.Request) {},
		"malformed": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("Error: rate limited"))
		},
	}
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(handler)
			defer server.Close()
			_, err := NewTinyURL(server.URL, server.Client()).Shorten(context.Background(), "https://cdn/x")
			if !errors.Is(err, services.ErrShortenerUnavailable) {
				t.Fatalf("expected ErrShortenerUnavailable, got %v", err)
			}
		})
	}
}
