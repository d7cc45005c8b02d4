package credentials

import (
	"fmt"
	"net/url"
	"strings"
)

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// NormalizeDomain reduces a URL or bare host to its lower-cased network
// location. A missing scheme defaults to https and the scheme's default port
// is dropped, so "example.com/path", "https://Example.com" and
// "HTTP://example.com:80" all normalize to "example.com".
func NormalizeDomain(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty url")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", raw, err)
	}
	host := strings.ToLower(parsed.Host)
	if host == "" {
		return "", fmt.Errorf("url %q has no host", raw)
	}
	if port := parsed.Port(); port != "" && defaultPorts[strings.ToLower(parsed.Scheme)] == port {
		host = strings.TrimSuffix(host, ":"+port)
	}
	return host, nil
}
