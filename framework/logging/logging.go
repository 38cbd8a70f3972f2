// Package logging builds the application's slog.Logger from config.
//
// The default handler is tint's colored text handler, which reads well
// during development; production deployments set LOG_FORMAT=json for
// machine-parseable output.
package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// ParseLevel maps a config string onto a slog.Level. Unknown values fall
// back to info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a logger writing to stderr.
//
//	logger := logging.New("debug", "text")
func New(level, format string) *slog.Logger {
	return slog.New(newHandler(ParseLevel(level), os.Stderr, format))
}

func newHandler(level slog.Level, w io.Writer, format string) slog.Handler {
	switch format {
	case "json":
		return slog.NewJSONHandler(w, &slog.HandlerOptions{
			AddSource: true,
			Level:     level,
		})
	default:
		return tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	}
}

// Discard returns a logger that drops everything. Handy in tests that
// exercise failure paths on purpose.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
