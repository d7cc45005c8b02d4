package logging

import (
	"context"
	"log/slog"

	"reelpost/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldItemID is the standardized structured logging key for episode record identifiers.
	FieldItemID = "item_id"
	// FieldStage is the standardized structured logging key for pipeline stage names.
	FieldStage = "stage"
	// FieldSeries is the standardized structured logging key for series keys.
	FieldSeries = "series"
	// FieldEpisode is the standardized structured logging key for episode sequence numbers.
	FieldEpisode = "episode"
	// FieldCorrelationID is the standardized structured logging key for pass correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType names the kind of event a log line reports.
	FieldEventType = "event_type"
	// FieldErrorHint is a short operator-facing next step.
	FieldErrorHint = "error_hint"
	// FieldErrorKind carries services.Details(err).Kind.
	FieldErrorKind = "error_kind"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	scope := services.ScopeFrom(ctx)
	fields := make([]slog.Attr, 0, 5)
	if scope.EpisodeID != 0 {
		fields = append(fields, slog.Int64(FieldItemID, scope.EpisodeID))
	}
	if scope.HasEpisode() {
		fields = append(fields,
			slog.String(FieldSeries, scope.Series),
			slog.Int(FieldEpisode, scope.Number),
		)
	}
	if scope.Stage != "" {
		fields = append(fields, slog.String(FieldStage, scope.Stage))
	}
	if scope.PassID != "" {
		fields = append(fields, slog.String(FieldCorrelationID, scope.PassID))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}

// ErrorAttrs expands err into error, error_kind, and error_hint attributes.
func ErrorAttrs(err error) []Attr {
	details := services.Details(err)
	attrs := []Attr{Error(err), String(FieldErrorKind, details.Kind)}
	if details.Hint != "" {
		attrs = append(attrs, String(FieldErrorHint, details.Hint))
	}
	return attrs
}
