package shortener

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"reelpost/internal/services"
)

const (
	DefaultTinyURLEndpoint = "https://tinyurl.com/api-create.php"
	DefaultIsGdEndpoint    = "https://is.gd/create.php"
)

// Provider shortens one URL.
type Provider interface {
	Name() string
	Shorten(ctx context.Context, longURL string) (string, error)
}

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// textProvider calls a GET endpoint that answers with the short URL as a
// plain-text body.
type textProvider struct {
	name     string
	endpoint string
	query    url.Values
	client   HTTPDoer
}

// NewTinyURL returns the tinyurl.com provider. An empty endpoint selects the
// public service.
func NewTinyURL(endpoint string, client HTTPDoer) Provider {
	if endpoint == "" {
		endpoint = DefaultTinyURLEndpoint
	}
	return &textProvider{name: "tinyurl", endpoint: endpoint, query: url.Values{}, client: client}
}

// NewIsGd returns the is.gd provider.
func NewIsGd(endpoint string, client HTTPDoer) Provider {
	if endpoint == "" {
		endpoint = DefaultIsGdEndpoint
	}
	return &textProvider{name: "isgd", endpoint: endpoint, query: url.Values{"format": {"simple"}}, client: client}
}

func (p *textProvider) Name() string { return p.name }

func (p *textProvider) Shorten(ctx context.Context, longURL string) (string, error) {
	query := url.Values{}
	for key, values := range p.query {
		query[key] = append([]string(nil), values...)
	}
	query.Set("url", longURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build %s request: %w", p.name, err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrShortenerUnavailable, "shorten", p.name, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", services.Wrap(services.ErrShortenerUnavailable, "shorten", p.name, "read body", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", services.Wrap(services.ErrShortenerUnavailable, "shorten", p.name,
			fmt.Sprintf("status %d", resp.StatusCode), nil)
	}
	short := strings.TrimSpace(string(body))
	if !looksLikeURL(short) {
		return "", services.Wrap(services.ErrShortenerUnavailable, "shorten", p.name, "malformed response",
			errors.New(truncate(short, 120)))
	}
	return short, nil
}

func looksLikeURL(value string) bool {
	if value == "" {
		return false
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit]
}
