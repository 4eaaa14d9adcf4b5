package logging

import (
	"context"
	"log/slog"
	"strings"
)

// levelOverrideHandler enforces a per-logger minimum level while delegating
// output to the wrapped handler.
type levelOverrideHandler struct {
	next  slog.Handler
	level slog.Level
}

func (h *levelOverrideHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *levelOverrideHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level < h.level {
		return nil
	}
	return h.next.Handle(ctx, record)
}

func (h *levelOverrideHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelOverrideHandler{next: h.next.WithAttrs(attrs), level: h.level}
}

func (h *levelOverrideHandler) WithGroup(name string) slog.Handler {
	return &levelOverrideHandler{next: h.next.WithGroup(name), level: h.level}
}

// WithLevelOverride returns a logger that enforces the provided minimum level
// on top of the base handler. Overrides can quiet a component; handlers never
// emit records below their own level.
func WithLevelOverride(logger *slog.Logger, level slog.Level) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	next := logger.Handler()
	if existing, ok := next.(*levelOverrideHandler); ok {
		next = existing.next
	}
	return slog.New(&levelOverrideHandler{next: next, level: level})
}

// ComponentLogger returns NewComponentLogger(base, component) with the level
// from overrides applied when one is configured for the component.
func ComponentLogger(base *slog.Logger, component string, overrides map[string]string) *slog.Logger {
	return ComponentLevel(NewComponentLogger(base, component), component, overrides)
}

// ComponentLevel applies the override configured for component without adding
// the component attribute. Use it for loggers handed to packages that tag
// their own records.
func ComponentLevel(base *slog.Logger, component string, overrides map[string]string) *slog.Logger {
	if level, ok := overrides[strings.ToLower(component)]; ok && strings.TrimSpace(level) != "" {
		return WithLevelOverride(base, ParseLevel(level))
	}
	return base
}
