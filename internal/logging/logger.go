// Package logging builds the process logger.
package logging

import (
	"io"
	"log/slog"
	"strings"
)

// Config controls structured logging.
type Config struct {
	Level     string `toml:"level"`
	Format    string `toml:"format"` // text|json
	AddSource bool   `toml:"add_source"`
}

// New builds a slog.Logger writing to w. The CLI passes stderr so command
// output on stdout stays clean.
func New(cfg Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     ParseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps a level name to a slog.Level. Unknown names mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
