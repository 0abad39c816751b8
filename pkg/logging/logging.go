// Package logging builds the slog loggers used across httpstub. Operational
// logging is developer-facing; the server defaults to Nop so test output
// stays clean unless a logger is supplied explicitly.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Options configures logger construction.
type Options struct {
	// Level is the minimum level to emit. Defaults to info.
	Level slog.Level

	// JSON switches output from text to JSON, for CI parsing.
	JSON bool

	// Output defaults to os.Stderr.
	Output io.Writer
}

// New creates a logger from the options.
func New(opts Options) *slog.Logger {
	w := opts.Output
	if w == nil {
		w = os.Stderr
	}
	ho := &slog.HandlerOptions{Level: opts.Level}
	if opts.JSON {
		return slog.New(slog.NewJSONHandler(w, ho))
	}
	return slog.New(slog.NewTextHandler(w, ho))
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps a level string to a slog.Level, defaulting to info for
// anything unrecognized.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug", "DEBUG":
		return slog.LevelDebug
	case "warn", "WARN", "warning":
		return slog.LevelWarn
	case "error", "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
