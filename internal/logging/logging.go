// Package logging builds the slog logger shared by the relay and the dev server.
package logging

import (
	"io"
	"log/slog"
	"strings"

	"rss-relay-go/internal/config"
)

// New returns a logger writing to w with the level and format from cfg.
// Unknown values fall back to info level and JSON output.
func New(cfg config.LogConfig, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		h = slog.NewTextHandler(w, opts)
	default:
		h = slog.NewJSONHandler(w, opts)
	}

	return slog.New(h)
}
