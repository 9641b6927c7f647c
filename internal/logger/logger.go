package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"note-keeper/internal/config"
)

var (
	singleton *slog.Logger
	once      sync.Once
)

// Init initializes the singleton logger from the provided config.
// It is thread-safe and idempotent - the first successful call wins,
// and subsequent calls return the same logger instance.
func Init(cfg config.Config) (*slog.Logger, error) {
	once.Do(func() {
		singleton = New(cfg, os.Stdout)
	})

	return singleton, nil
}

// New builds a logger writing to w with the level and format from cfg.
// Unknown levels fall back to info, unknown formats to json.
func New(cfg config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.LogFormat) {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// L returns the singleton logger instance.
// Before Init it returns a logger that discards everything, so packages
// that log from library code never dereference nil in tests.
func L() *slog.Logger {
	if singleton == nil {
		return discard
	}
	return singleton
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))
