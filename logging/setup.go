// Package logging builds the slog loggers used by the tronio binaries.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

type Format string

const (
	FormatText   Format = "text"
	FormatJSON   Format = "json"
	FormatPretty Format = "pretty"
)

type Options struct {
	Level  string
	Format Format
	// File, when set, receives every record in addition to the console.
	File string
	// Quiet disables the console handler. The TUI client sets it since the
	// terminal belongs to the renderer.
	Quiet     bool
	AddSource bool
}

// ParseLevel accepts debug, info, warn and error in any case. Anything else
// is an error.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

func newHandler(w io.Writer, f Format, opts *slog.HandlerOptions) (slog.Handler, error) {
	switch f {
	case "", FormatText:
		return slog.NewTextHandler(w, opts), nil
	case FormatJSON:
		return slog.NewJSONHandler(w, opts), nil
	case FormatPretty:
		return NewPrettyHandler(w, opts), nil
	}
	return nil, fmt.Errorf("unknown log format %q", f)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup builds a logger writing to stderr and, optionally, a file. The
// returned closer releases the file and is never nil.
func Setup(o Options) (*slog.Logger, io.Closer, error) {
	return setup(o, os.Stderr)
}

func setup(o Options, console io.Writer) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(o.Level)
	if err != nil {
		return nil, nil, err
	}
	opts := &slog.HandlerOptions{Level: level, AddSource: o.AddSource}

	var handlers []slog.Handler
	if !o.Quiet {
		h, err := newHandler(console, o.Format, opts)
		if err != nil {
			return nil, nil, err
		}
		handlers = append(handlers, h)
	}

	var closer io.Closer = nopCloser{}
	if o.File != "" {
		if err := os.MkdirAll(filepath.Dir(o.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(o.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		// Files always get machine-readable records.
		handlers = append(handlers, slog.NewJSONHandler(f, opts))
		closer = f
	}

	if len(handlers) == 0 {
		return slog.New(slog.DiscardHandler), closer, nil
	}
	if len(handlers) == 1 {
		return slog.New(handlers[0]), closer, nil
	}
	return slog.New(NewMulti(handlers...)), closer, nil
}
