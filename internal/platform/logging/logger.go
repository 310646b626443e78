package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pscheid92/hashpulse/internal/platform/correlation"
	"github.com/pscheid92/hashpulse/internal/platform/version"
)

// InitLogger builds the process-wide logger and installs it as the slog default.
// level: "debug", "info", "warn", "error" (unknown values fall back to info)
// format: "json" or "text" (anything else means text)
func InitLogger(level, format string) *slog.Logger {
	logger := NewLogger(os.Stdout, level, format).With("version", version.Version)
	slog.SetDefault(logger)
	return logger
}

// NewLogger returns a correlation-aware logger writing to w.
func NewLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(correlation.NewHandler(handler))
}

func ParseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
