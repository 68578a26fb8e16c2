// Package util provides shared helpers, currently logger construction.
package util

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger creates a structured JSON logger at the given level. Supported
// levels: "debug", "info", "warn", "error"; anything else falls back to
// "info".
func NewLogger(w io.Writer, level string) *slog.Logger {
	var slevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		slevel = slog.LevelDebug
	case "info":
		slevel = slog.LevelInfo
	case "warn":
		slevel = slog.LevelWarn
	case "error":
		slevel = slog.LevelError
	default:
		slevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slevel})
	return slog.New(handler)
}
