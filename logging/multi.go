package logging

import (
	"context"
	"errors"
	"log/slog"
)

// Multi fans records out to several handlers. Each handler filters by its
// own level.
type Multi struct {
	handlers []slog.Handler
}

func NewMulti(handlers ...slog.Handler) *Multi {
	m := &Multi{}
	for _, h := range handlers {
		if h != nil {
			m.handlers = append(m.handlers, h)
		}
	}
	return m
}

func (m *Multi) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle delivers to every enabled handler and joins their errors.
func (m *Multi) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range m.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := &Multi{handlers: make([]slog.Handler, len(m.handlers))}
	for i, h := range m.handlers {
		out.handlers[i] = h.WithAttrs(attrs)
	}
	return out
}

func (m *Multi) WithGroup(name string) slog.Handler {
	if name == "" {
		return m
	}
	out := &Multi{handlers: make([]slog.Handler, len(m.handlers))}
	for i, h := range m.handlers {
		out.handlers[i] = h.WithGroup(name)
	}
	return out
}
