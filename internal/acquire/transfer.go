package acquire

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"reelpost/internal/services"
)

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Transfer streams HTTP bodies to disk.
type Transfer struct {
	client HTTPDoer
}

// NewTransfer constructs a Transfer. A nil client uses an http.Client without
// an overall timeout, which follows redirects.
func NewTransfer(client HTTPDoer) *Transfer {
	if client == nil {
		client = &http.Client{}
	}
	return &Transfer{client: client}
}

// Fetch downloads sourceURL into dest, sending headers and cookies. Failures
// wrap services.ErrTransfer and leave no file at dest.
func (t *Transfer) Fetch(ctx context.Context, sourceURL, dest string, headers, cookies map[string]string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", services.Wrap(services.ErrTransfer, "acquire", "build request", "Invalid source URL", err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	for name, value := range cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransfer, "acquire", "request", "Transfer request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", services.Wrap(
			services.ErrTransfer,
			"acquire",
			"request",
			fmt.Sprintf("Source returned status %d", resp.StatusCode),
			fmt.Errorf("%s", strings.TrimSpace(string(body))),
		)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", services.Wrap(services.ErrTransfer, "acquire", "prepare", "Create destination directory", err)
	}
	partial := dest + ".part"
	file, err := os.Create(partial)
	if err != nil {
		return "", services.Wrap(services.ErrTransfer, "acquire", "prepare", "Create partial file", err)
	}
	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		_ = os.Remove(partial)
		return "", services.Wrap(services.ErrTransfer, "acquire", "stream", "Body copy failed", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(partial)
		return "", services.Wrap(services.ErrTransfer, "acquire", "stream", "Close partial file", err)
	}
	if err := os.Rename(partial, dest); err != nil {
		_ = os.Remove(partial)
		return "", services.Wrap(services.ErrTransfer, "acquire", "finalize", "Rename partial file", err)
	}
	return dest, nil
}
