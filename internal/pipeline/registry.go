package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"reelpost/internal/acquire"
	"reelpost/internal/config"
	"reelpost/internal/credentials"
	"reelpost/internal/naming"
	"reelpost/internal/notifications"
	"reelpost/internal/publish"
	"reelpost/internal/queue"
	"reelpost/internal/secrets"
	"reelpost/internal/shortener"
	"reelpost/internal/sites"
	"reelpost/internal/storage"
	"reelpost/internal/telegram"
	"reelpost/internal/transcode"
	"reelpost/internal/workpool"
	"reelpost/internal/ytdlp"
)

// Store is the slice of the record store a pass needs.
type Store interface {
	ListUnprocessed(ctx context.Context) ([]*queue.Episode, error)
	Claim(ctx context.Context, id int64, owner string, ttl time.Duration) (bool, error)
	ExtendClaim(ctx context.Context, id int64, owner string, ttl time.Duration) error
	MarkDownloadStarted(ctx context.Context, id int64, owner string) error
	MarkProcessed(ctx context.Context, id int64, owner, reference string) error
	RecordFailure(ctx context.Context, id int64, owner, message string) error
	ReleaseClaim(ctx context.Context, id int64, owner string) error
}

// Acquirer materializes a source URL as a local file.
type Acquirer interface {
	Acquire(ctx context.Context, sourceURL, destPath string) (string, error)
}

// Renderer produces the variant set for a local file.
type Renderer interface {
	Render(ctx context.Context, input, workDir, title string) (transcode.VariantSet, error)
}

// Shortener turns a storage reference into a link; it never fails.
type Shortener interface {
	Shorten(ctx context.Context, reference, preferred string, fallbacks []string) string
}

// BackendLookup resolves a per-episode storage backend override.
type BackendLookup interface {
	Lookup(name string) (storage.Backend, bool)
}

// Registry bundles the collaborators of a pass. Storage is the default
// backend; Backends, when set, serves episodes that name another one.
type Registry struct {
	Store      Store
	Acquirer   Acquirer
	Renderer   Renderer
	Storage    storage.Backend
	Backends   BackendLookup
	Shortener  Shortener
	Publisher  publish.Publisher
	Notifier   notifications.Service
	Naming     naming.Builder
	Preferred  string
	Fallbacks  []string
	Components []string
}

// NewRegistry builds production collaborators from cfg around store.
func NewRegistry(cfg *config.Config, store *queue.Store, logger *slog.Logger) (Registry, error) {
	cipher, err := secrets.NewFromConfig(cfg)
	if err != nil {
		return Registry{}, err
	}
	pool := workpool.New(cfg.Pipeline.ToolWorkers)

	selector := acquire.NewSelector(acquire.Options{
		Adapters:         sites.FromConfig(cfg, nil),
		Credentials:      credentials.NewResolver(store, cipher, logger),
		AllowList:        store,
		Generic:          ytdlp.New(cfg, pool, logger),
		GenericEnabled:   cfg.YTDLP.Enabled,
		GenericAnonymous: cfg.YTDLP.AllowAnonymous,
		Transfer:         acquire.NewTransfer(nil),
		Logger:           logger,
	})

	tg := telegram.NewFromConfig(cfg)
	backends, err := storage.FromConfig(cfg, tg)
	if err != nil {
		return Registry{}, err
	}
	publisher, err := publish.FromConfig(cfg, tg)
	if err != nil {
		return Registry{}, err
	}

	return Registry{
		Store:      store,
		Acquirer:   selector,
		Renderer:   transcode.NewEngine(transcode.SettingsFromConfig(cfg), pool, logger),
		Storage:    backends.Active(),
		Backends:   backends,
		Shortener:  shortener.NewFromConfig(cfg, logger),
		Publisher:  publisher,
		Notifier:   notifications.NewService(cfg),
		Naming:     naming.FromConfig(cfg),
		Preferred:  cfg.Shortener.Preferred,
		Fallbacks:  cfg.Shortener.Fallbacks,
		Components: []string{
			"storage=" + backends.Active().Name(),
			"storage_enabled=" + strings.Join(backends.Names(), ","),
			"publish=" + publisher.Name(),
		},
	}, nil
}

func (r Registry) validate() error {
	switch {
	case r.Store == nil:
		return fmt.Errorf("pipeline registry: store missing")
	case r.Acquirer == nil:
		return fmt.Errorf("pipeline registry: acquirer missing")
	case r.Renderer == nil:
		return fmt.Errorf("pipeline registry: renderer missing")
	case r.Storage == nil:
		return fmt.Errorf("pipeline registry: storage backend missing")
	case r.Publisher == nil:
		return fmt.Errorf("pipeline registry: publisher missing")
	}
	return nil
}
