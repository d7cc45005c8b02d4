package sites

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"reelpost/internal/config"
	"reelpost/internal/services"
)

// PublicAPIAdapter resolves media through a site's public API: an OAuth
// password grant yields a bearer token, and the resolve endpoint returns a
// temporary download URL.
type PublicAPIAdapter struct {
	name           string
	baseURL        string
	domains        []string
	clientID       string
	clientSecret   string
	allowAnonymous bool
	client         HTTPDoer
}

// NewPublicAPIAdapter builds an adapter for one configured site.
func NewPublicAPIAdapter(site config.PublicAPISite, client HTTPDoer) *PublicAPIAdapter {
	if client == nil {
		client = &http.Client{Timeout: defaultRequestTimeout}
	}
	name := strings.TrimSpace(site.Name)
	if name == "" {
		name = "public_api"
	}
	return &PublicAPIAdapter{
		name:           name,
		baseURL:        strings.TrimRight(site.BaseURL, "/"),
		domains:        append([]string(nil), site.Domains...),
		clientID:       site.ClientID,
		clientSecret:   site.ClientSecret,
		allowAnonymous: site.AllowAnonymous,
		client:         client,
	}
}

func (a *PublicAPIAdapter) Name() string      { return a.name }
func (a *PublicAPIAdapter) Domains() []string { return append([]string(nil), a.domains...) }

// AllowsAnonymous reports whether the resolve endpoint accepts unauthenticated calls.
func (a *PublicAPIAdapter) AllowsAnonymous() bool { return a.allowAnonymous }

// PrepareDownload logs in when both accountID and secret are present, then
// resolves mediaURL. The bearer token is forwarded on the transfer.
func (a *PublicAPIAdapter) PrepareDownload(ctx context.Context, mediaURL, accountID, secret string) (DownloadTask, error) {
	var token string
	if strings.TrimSpace(accountID) != "" && secret != "" {
		var err error
		token, err = a.login(ctx, accountID, secret)
		if err != nil {
			return DownloadTask{}, err
		}
	}
	directURL, err := a.resolve(ctx, token, mediaURL)
	if err != nil {
		return DownloadTask{}, err
	}
	task := DownloadTask{
		DirectURL: directURL,
		Headers:   map[string]string{},
		Cookies:   map[string]string{},
	}
	if token != "" {
		task.Headers["Authorization"] = "Bearer " + token
	}
	return task, nil
}

func (a *PublicAPIAdapter) login(ctx context.Context, accountID, secret string) (string, error) {
	form := url.Values{
		"grant_type":    {"password"},
		"username":      {accountID},
		"password":      {secret},
		"client_id":     {a.clientID},
		"client_secret": {a.clientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := a.doJSON(req, &resp); err != nil {
		return "", services.Wrap(services.ErrAuthentication, a.name, "login", "Token request failed", err)
	}
	if strings.TrimSpace(resp.AccessToken) == "" {
		return "", services.Wrap(services.ErrAuthentication, a.name, "login", "Token response missing access_token", nil)
	}
	return resp.AccessToken, nil
}

func (a *PublicAPIAdapter) resolve(ctx context.Context, token, mediaURL string) (string, error) {
	endpoint := a.baseURL + "/api/v1/resolve?" + url.Values{"url": {mediaURL}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build resolve request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	var resp struct {
		DownloadURL string `json:"download_url"`
	}
	if err := a.doJSON(req, &resp); err != nil {
		return "", services.Wrap(services.ErrResolution, a.name, "resolve", "Resolve request failed", err)
	}
	if strings.TrimSpace(resp.DownloadURL) == "" {
		return "", services.Wrap(services.ErrResolution, a.name, "resolve", "Resolve response missing download_url", nil)
	}
	return resp.DownloadURL, nil
}

func (a *PublicAPIAdapter) doJSON(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
