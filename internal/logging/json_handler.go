package logging

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
)

const redactedValue = "[redacted]"

// sensitiveKeys never reach a log sink verbatim. Matching is on the last
// dotted segment so grouped attrs are covered too.
var sensitiveKeys = map[string]struct{}{
	"bot_token":      {},
	"token":          {},
	"secret":         {},
	"client_secret":  {},
	"password":       {},
	"encryption_key": {},
	"authorization":  {},
	"cookie":         {},
}

func redact(key string, value slog.Value) slog.Value {
	if idx := strings.LastIndexByte(key, '.'); idx >= 0 {
		key = key[idx+1:]
	}
	if _, ok := sensitiveKeys[strings.ToLower(key)]; ok {
		return slog.StringValue(redactedValue)
	}
	return value
}

// newJSONHandler writes one object per line with ts/level/msg keys, UTC
// millisecond timestamps and base-name source locations.
func newJSONHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       lvl,
		AddSource:   addSource,
		ReplaceAttr: replaceJSONAttr,
	})
}

func replaceJSONAttr(groups []string, attr slog.Attr) slog.Attr {
	if len(groups) > 0 {
		attr.Value = redact(attr.Key, attr.Value)
		return attr
	}
	switch attr.Key {
	case slog.TimeKey:
		attr.Key = "ts"
		if attr.Value.Kind() == slog.KindTime {
			attr.Value = slog.StringValue(attr.Value.Time().UTC().Format("2006-01-02T15:04:05.000Z07:00"))
		}
	case slog.LevelKey:
		attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
	case slog.SourceKey:
		if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
			attr.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
		}
	case slog.MessageKey:
	default:
		attr.Value = redact(attr.Key, attr.Value)
	}
	return attr
}

