package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New creates a logger with color support writing to w.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(NewColorHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewDefault creates a stderr logger at the given level.
func NewDefault(level slog.Level) *slog.Logger {
	return New(os.Stderr, level)
}

// ParseLevel maps a config string onto a slog level, defaulting to
// info.
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
