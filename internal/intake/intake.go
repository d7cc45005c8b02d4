// Package intake adds episodes to the queue, one at a time from the CLI or
// in bulk from a JSON feed.
package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"

	"reelpost/internal/logging"
	"reelpost/internal/queue"
	"reelpost/internal/services"
)

// Store is the queue surface intake writes to.
type Store interface {
	AddEpisode(ctx context.Context, in queue.NewEpisode) (*queue.Episode, error)
}

// Service validates and inserts episodes.
type Service struct {
	store    Store
	backends []string
	logger   *slog.Logger
}

// NewService constructs a Service.
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logging.NewComponentLogger(logger, "intake")}
}

// WithBackends limits storage overrides to names. Without it any override
// is accepted and checked when the episode is processed.
func (s *Service) WithBackends(names []string) *Service {
	s.backends = names
	return s
}

// Request is a queued item with its optional per-item overrides.
type Request struct {
	Series         string
	Number         int
	SourceURL      string
	Metadata       map[string]string
	PublishChannel string
	StorageBackend string
}

// Add inserts an unprocessed episode. Duplicates wrap services.ErrConflict.
func (s *Service) Add(ctx context.Context, series string, number int, sourceURL string, metadata map[string]string) (*queue.Episode, error) {
	return s.Submit(ctx, Request{Series: series, Number: number, SourceURL: sourceURL, Metadata: metadata})
}

// Submit inserts an unprocessed episode described by req.
func (s *Service) Submit(ctx context.Context, req Request) (*queue.Episode, error) {
	req.Series = strings.TrimSpace(req.Series)
	if req.Series == "" {
		return nil, services.Wrap(services.ErrConfiguration, "intake", "add", "series is required", nil)
	}
	if req.Number < 0 {
		return nil, services.Wrap(services.ErrConfiguration, "intake", "add", fmt.Sprintf("episode number %d must not be negative", req.Number), nil)
	}
	episode, err := s.insert(ctx, queue.KindEpisode, req)
	if errors.Is(err, queue.ErrDuplicate) {
		return nil, services.Wrap(services.ErrConflict, "intake", "add", fmt.Sprintf("%s episode %d already exists", req.Series, req.Number), err)
	}
	return episode, err
}

// Upload queues a one-off item published under title instead of a series
// caption. Titles are unique among uploads.
func (s *Service) Upload(ctx context.Context, title, sourceURL string, overrides Request) (*queue.Episode, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, services.Wrap(services.ErrConfiguration, "intake", "upload", "title is required", nil)
	}
	overrides.Series, overrides.Number, overrides.SourceURL = title, 0, sourceURL
	episode, err := s.insert(ctx, queue.KindUpload, overrides)
	if errors.Is(err, queue.ErrDuplicate) {
		return nil, services.Wrap(services.ErrConflict, "intake", "upload", fmt.Sprintf("%q is already queued", title), err)
	}
	return episode, err
}

func (s *Service) insert(ctx context.Context, kind queue.Kind, req Request) (*queue.Episode, error) {
	if err := validateSourceURL(req.SourceURL); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "intake", "add", "invalid source url", err)
	}
	backend := strings.ToLower(strings.TrimSpace(req.StorageBackend))
	if backend != "" && len(s.backends) > 0 && !slices.Contains(s.backends, backend) {
		return nil, services.Wrap(services.ErrConfiguration, "intake", "add",
			fmt.Sprintf("storage backend %q is not enabled (enabled: %s)", backend, strings.Join(s.backends, ", ")), nil)
	}
	episode, err := s.store.AddEpisode(ctx, queue.NewEpisode{
		Kind:           kind,
		SeriesKey:      req.Series,
		SequenceNumber: req.Number,
		SourceURL:      strings.TrimSpace(req.SourceURL),
		Metadata:       req.Metadata,
		PublishChannel: req.PublishChannel,
		StorageBackend: backend,
	})
	if err != nil {
		return nil, err
	}
	logging.WithContext(ctx, s.logger).Info("episode added",
		logging.Int64(logging.FieldItemID, episode.ID),
		logging.String(logging.FieldSeries, episode.SeriesKey),
		logging.Int(logging.FieldEpisode, episode.SequenceNumber),
		logging.String("kind", string(episode.Kind)),
		logging.String(logging.FieldEventType, "episode_added"),
	)
	return episode, nil
}

func validateSourceURL(raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return errors.New("missing host")
	}
	return nil
}
