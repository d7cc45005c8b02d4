package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelpost/internal/logging"
	"reelpost/internal/services"
)

// FeedItem is one entry of the JSON feed.
type FeedItem struct {
	SeriesID         string `json:"series_id"`
	EpisodeNumber    int    `json:"episode_number"`
	SourceURL        string `json:"source_url"`
	PublishChannelID string `json:"publish_channel_id,omitempty"`
	StorageBackend   string `json:"storage_backend,omitempty"`
}

// Fetcher returns the current feed entries.
type Fetcher interface {
	Fetch(ctx context.Context) ([]FeedItem, error)
}

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// HTTPFeed fetches a JSON array of FeedItem from a URL. An object with an
// "items" array is accepted too.
type HTTPFeed struct {
	url    string
	client HTTPDoer
}

// NewHTTPFeed constructs a feed reader; a nil client uses a 30s timeout.
func NewHTTPFeed(feedURL string, client HTTPDoer) *HTTPFeed {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPFeed{url: strings.TrimSpace(feedURL), client: client}
}

func (f *HTTPFeed) Fetch(ctx context.Context) ([]FeedItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "intake", "fetch feed", "", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, services.Wrap(services.ErrTransient, "intake", "fetch feed", fmt.Sprintf("status %d", resp.StatusCode), nil)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}
	return decodeFeed(body)
}

func decodeFeed(body []byte) ([]FeedItem, error) {
	var items []FeedItem
	if err := json.Unmarshal(body, &items); err == nil {
		return items, nil
	}
	var wrapped struct {
		Items []FeedItem `json:"items"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	return wrapped.Items, nil
}

// PollResult summarizes one feed poll.
type PollResult struct {
	Fetched    int
	Added      int
	Duplicates int
	Invalid    int
}

// Poll fetches the feed and adds every new entry. Duplicates are skipped
// silently; invalid entries are logged and skipped.
func (s *Service) Poll(ctx context.Context, feed Fetcher) (PollResult, error) {
	items, err := feed.Fetch(ctx)
	if err != nil {
		return PollResult{}, err
	}
	logger := logging.WithContext(ctx, s.logger)
	result := PollResult{Fetched: len(items)}
	for _, item := range items {
		_, err := s.Submit(ctx, Request{
			Series:         item.SeriesID,
			Number:         item.EpisodeNumber,
			SourceURL:      item.SourceURL,
			PublishChannel: item.PublishChannelID,
			StorageBackend: item.StorageBackend,
		})
		switch {
		case err == nil:
			result.Added++
		case errors.Is(err, services.ErrConflict):
			result.Duplicates++
		case errors.Is(err, services.ErrConfiguration):
			result.Invalid++
			logging.WarnWithContext(logger, "feed entry rejected", "feed_entry_invalid",
				logging.String(logging.FieldSeries, item.SeriesID),
				logging.Int(logging.FieldEpisode, item.EpisodeNumber),
				logging.Error(err),
				logging.String(logging.FieldImpact, "entry skipped"),
			)
		default:
			return result, err
		}
	}
	logger.Info("feed polled",
		logging.Int("fetched", result.Fetched),
		logging.Int("added", result.Added),
		logging.Int("duplicates", result.Duplicates),
		logging.Int("invalid", result.Invalid),
		logging.String(logging.FieldEventType, "feed_polled"),
	)
	return result, nil
}
