package logging

import (
	"context"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

var levelMap = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Setup installs the default logger: a tint console handler at the
// requested level, plus a plain text handler appending everything at
// debug level to logFile when it is non-empty. Returns a flush/close
// func for the file handler.
func Setup(level, logFile string) (func(), error) {
	lvl, ok := levelMap[level]
	if !ok {
		lvl = slog.LevelInfo
	}

	handlers := []slog.Handler{
		tint.NewHandler(os.Stdout, &tint.Options{Level: lvl}),
	}

	closer := func() {}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		closer = func() {
			f.Sync()
			f.Close()
		}
	}

	slog.SetDefault(slog.New(fanout(handlers)))
	return closer, nil
}

// fanout forwards every record to each handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, lvl slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, lvl) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
