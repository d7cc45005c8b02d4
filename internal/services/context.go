package services

import "context"

type scopeKey struct{}

// Scope identifies the pass, episode and stage a piece of work belongs to.
// Zero fields are unset.
type Scope struct {
	PassID    string
	EpisodeID int64
	Series    string
	Number    int
	Stage     string
}

// HasEpisode reports whether an episode has been attached.
func (s Scope) HasEpisode() bool {
	return s.EpisodeID != 0 || s.Series != ""
}

// ScopeFrom returns the scope stored in ctx, or the zero Scope.
func ScopeFrom(ctx context.Context) Scope {
	if ctx == nil {
		return Scope{}
	}
	scope, _ := ctx.Value(scopeKey{}).(Scope)
	return scope
}

func withScope(ctx context.Context, update func(*Scope)) context.Context {
	scope := ScopeFrom(ctx)
	update(&scope)
	return context.WithValue(ctx, scopeKey{}, scope)
}

// WithPass stamps the pass correlation id.
func WithPass(ctx context.Context, passID string) context.Context {
	if passID == "" {
		return ctx
	}
	return withScope(ctx, func(s *Scope) { s.PassID = passID })
}

// WithEpisode stamps the episode being processed and clears any stage left
// from a previous episode.
func WithEpisode(ctx context.Context, id int64, series string, number int) context.Context {
	return withScope(ctx, func(s *Scope) {
		s.EpisodeID = id
		s.Series = series
		s.Number = number
		s.Stage = ""
	})
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return withScope(ctx, func(s *Scope) { s.Stage = stage })
}
