package main

import (
	"fmt"
	"io"
	"log/slog"
)

// Log formats.
const (
	logFormatText = "text"
	logFormatJSON = "json"
)

// newLogger builds the process logger. --quiet keeps errors only,
// --verbose adds debug records.
func newLogger(w io.Writer, format string, verbose, quiet bool) (*slog.Logger, error) {
	level := slog.LevelInfo
	switch {
	case quiet:
		level = slog.LevelError
	case verbose:
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	switch format {
	case "", logFormatText:
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case logFormatJSON:
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("%w: unknown log format %q (want text or json)", ErrUsage, format)
	}
}
