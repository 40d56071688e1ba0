// Package logging configures structured logging for log/slog.
// Text output is colored with tint; JSON output suits log collectors.
//
// Usage:
//
//	logging.Setup()                                   // from LOG_LEVEL / LOG_FORMAT env
//	logging.SetupWithLevel(slog.LevelDebug)           // colored text, explicit level
//	logging.Configure(os.Stderr, "debug", "json")     // explicit everything
//
// Environment variables:
//
//	LOG_LEVEL: debug, info, warn, error (default: info)
//	LOG_FORMAT: text, json (default: text)
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Setup configures logging from LOG_LEVEL and LOG_FORMAT.
func Setup() {
	Configure(os.Stderr, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
}

// SetupWithLevel configures colored logging at the given level.
func SetupWithLevel(level slog.Level) {
	slog.SetDefault(slog.New(textHandler(os.Stderr, level)))
}

// Configure installs a default logger writing to w.
func Configure(w io.Writer, level, format string) *slog.Logger {
	logger := New(w, ParseLevel(level), format)
	slog.SetDefault(logger)
	return logger
}

// New builds a logger without installing it.
func New(w io.Writer, level slog.Level, format string) *slog.Logger {
	if strings.EqualFold(format, FormatJSON) {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(textHandler(w, level))
}

func textHandler(w io.Writer, level slog.Level) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		AddSource:  true,
	})
}

// ParseLevel maps a level name to slog.Level, defaulting to INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
