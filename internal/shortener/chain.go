package shortener

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/samber/lo"

	"reelpost/internal/config"
	"reelpost/internal/logging"
	"reelpost/internal/services"
)

// Chain dispatches to providers by name.
type Chain struct {
	providers map[string]Provider
	logger    *slog.Logger
}

// NewChain registers providers under their names.
func NewChain(logger *slog.Logger, providers ...Provider) *Chain {
	c := &Chain{
		providers: make(map[string]Provider, len(providers)),
		logger:    logging.NewComponentLogger(logger, "shortener"),
	}
	for _, provider := range providers {
		c.providers[strings.ToLower(provider.Name())] = provider
	}
	return c
}

// NewFromConfig registers the built-in providers with the [shortener] timeout.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Chain {
	client := &http.Client{Timeout: time.Duration(cfg.Shortener.Timeout) * time.Second}
	return NewChain(logger, NewTinyURL("", client), NewIsGd("", client))
}

// Order returns the provider names Shorten would try: preferred first, then
// fallbacks, each at most once.
func Order(preferred string, fallbacks []string) []string {
	names := append([]string{preferred}, fallbacks...)
	names = lo.Map(names, func(name string, _ int) string {
		return strings.ToLower(strings.TrimSpace(name))
	})
	return lo.Uniq(lo.Compact(names))
}

// Shorten returns the first successful short link for reference, or
// reference itself when no provider succeeds. Unknown names are skipped.
func (c *Chain) Shorten(ctx context.Context, reference, preferred string, fallbacks []string) string {
	logger := logging.WithContext(ctx, c.logger)
	for _, name := range Order(preferred, fallbacks) {
		provider, ok := c.providers[name]
		if !ok {
			logger.Debug("shortener skipped", logging.String("shortener", name), logging.String("reason", "not registered"))
			continue
		}
		short, err := provider.Shorten(ctx, reference)
		if err == nil {
			return short
		}
		details := services.Details(err)
		logging.WarnWithContext(logger, "shortener unavailable", "shortener_unavailable",
			logging.String("shortener", name),
			logging.String(logging.FieldErrorKind, details.Kind),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, details.Hint),
			logging.String(logging.FieldImpact, "trying next shortener"),
		)
		if ctx.Err() != nil {
			break
		}
	}
	return reference
}
