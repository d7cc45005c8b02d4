// Package publish announces a finished episode with one link per variant.
package publish

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"reelpost/internal/config"
	"reelpost/internal/services"
	"reelpost/internal/telegram"
)

// Link is a labelled short link for one variant.
type Link struct {
	Label string
	URL   string
}

// Post is everything a publisher needs to announce an episode.
type Post struct {
	Series string
	Number int
	// Title replaces the series caption for one-off uploads.
	Title string
	// Channel overrides the publisher's default destination when set.
	Channel string
	Links   []Link
}

// Caption renders "<series> Episode <n>", or Title when set.
func (p Post) Caption() string {
	if p.Title != "" {
		return p.Title
	}
	return fmt.Sprintf("%s Episode %d", p.Series, p.Number)
}

// Publisher posts an announcement and returns the reference recorded on the
// episode. Failures wrap services.ErrPublish.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, post Post) (string, error)
}

// FromConfig returns the publisher selected by publish.target.
func FromConfig(cfg *config.Config, tg *telegram.Client) (Publisher, error) {
	switch cfg.Publish.Target {
	case "telegram":
		return NewTelegramPublisher(tg, cfg.Telegram.PublishChannelID, cfg.Telegram.MaxInlineButtons), nil
	case "ntfy":
		timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
		return NewNtfyPublisher(cfg.Notifications.NtfyTopic, &http.Client{Timeout: timeout}), nil
	}
	return nil, services.Wrap(services.ErrConfiguration, "publish", "select target",
		fmt.Sprintf("unsupported target %q", cfg.Publish.Target), nil)
}

var errNoLinks = errors.New("no links to publish")
