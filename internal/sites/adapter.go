package sites

import (
	"context"
	"net/http"
)

// DownloadTask is the authorized transfer an adapter prepared. It is consumed
// immediately by the transfer step and never persisted.
type DownloadTask struct {
	DirectURL string
	Headers   map[string]string
	Cookies   map[string]string
}

// Adapter exchanges a media URL and credentials for a DownloadTask.
// PrepareDownload failures wrap services.ErrAuthentication when the login is
// rejected and services.ErrResolution when the media URL cannot be resolved.
type Adapter interface {
	Name() string
	Domains() []string
	PrepareDownload(ctx context.Context, mediaURL, accountID, secret string) (DownloadTask, error)
}

// AnonymousCapable is implemented by adapters that can resolve media without
// a login.
type AnonymousCapable interface {
	AllowsAnonymous() bool
}

// AllowsAnonymous reports whether adapter may run without credentials.
func AllowsAnonymous(adapter Adapter) bool {
	capable, ok := adapter.(AnonymousCapable)
	return ok && capable.AllowsAnonymous()
}

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}
