// Package logging configures the process-wide slog handler and provides
// small attribute helpers used across the codebase.
package logging

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Setup installs the default slog handler. Format "text" uses a tinted
// human-readable handler for local runs; anything else emits JSON.
func Setup(level, format string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	var handler slog.Handler
	if strings.ToLower(format) == "text" {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      lvl,
			TimeFormat: time.Kitchen,
		})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	}

	slog.SetDefault(slog.New(handler))
}

// Err returns a standard error attribute.
func Err(err error) slog.Attr {
	return slog.Attr{Key: "error", Value: slog.StringValue(err.Error())}
}

// Secret masks a sensitive value, keeping a short prefix for correlation.
func Secret(key, value string) slog.Attr {
	masked := "***"
	if len(value) > 5 {
		masked = value[:5] + "***"
	}
	if value == "" {
		masked = "?"
	}
	return slog.Attr{Key: key, Value: slog.StringValue(masked)}
}
