package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestNewFanoutHandlerCollapses(t *testing.T) {
	if _, ok := newFanoutHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("all-nil handlers should collapse to NoopHandler")
	}
	inner := slog.NewJSONHandler(&bytes.Buffer{}, nil)
	if h := newFanoutHandler(nil, inner, nil); h != inner {
		t.Fatalf("single handler should be returned unwrapped, got %T", h)
	}
}

func TestFanoutHandlerRoutesByLevel(t *testing.T) {
	var console, file bytes.Buffer
	h := TeeHandler(
		slog.NewJSONHandler(&console, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&file, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("debug should be enabled when any child accepts it")
	}

	logger := slog.New(h)
	logger.Debug("probe detail")
	logger.Info("episode published")

	if strings.Contains(console.String(), "probe detail") {
		t.Fatal("info handler received a debug record")
	}
	for name, buf := range map[string]*bytes.Buffer{"console": &console, "file": &file} {
		if !strings.Contains(buf.String(), "episode published") {
			t.Fatalf("%s missing info record: %q", name, buf.String())
		}
	}
	if !strings.Contains(file.String(), "probe detail") {
		t.Fatal("debug handler missing debug record")
	}
}

func TestFanoutHandlerDisabledForAll(t *testing.T) {
	h := newFanoutHandler(
		slog.NewJSONHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewJSONHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("info should be disabled when no child accepts it")
	}
}

func TestFanoutHandlerPropagatesAttrsAndGroups(t *testing.T) {
	var a, b bytes.Buffer
	h := newFanoutHandler(slog.NewJSONHandler(&a, nil), slog.NewJSONHandler(&b, nil))
	logger := slog.New(h.WithAttrs([]slog.Attr{slog.String("series", "show")}).WithGroup("probe"))
	logger.Info("done", slog.Int("streams", 3))

	for _, out := range []string{a.String(), b.String()} {
		if !strings.Contains(out, `"series":"show"`) || !strings.Contains(out, `"probe":{"streams":3}`) {
			t.Fatalf("unexpected output %q", out)
		}
	}
}

type failingHandler struct{ err error }

func (failingHandler) Enabled(context.Context, slog.Level) bool    { return true }
func (f failingHandler) Handle(context.Context, slog.Record) error { return f.err }
func (f failingHandler) WithAttrs([]slog.Attr) slog.Handler        { return f }
func (f failingHandler) WithGroup(string) slog.Handler             { return f }

func TestFanoutHandlerJoinsErrors(t *testing.T) {
	first := errors.New("disk full")
	second := errors.New("pipe closed")
	var buf bytes.Buffer
	h := newFanoutHandler(failingHandler{first}, slog.NewJSONHandler(&buf, nil), failingHandler{second})

	record := slog.NewRecord(time.Now(), slog.LevelInfo, "msg", 0)
	err := h.Handle(context.Background(), record)
	if !errors.Is(err, first) || !errors.Is(err, second) {
		t.Fatalf("expected both errors joined, got %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("healthy handler should still receive the record")
	}
}
