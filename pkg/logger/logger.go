// Package logger holds the process-wide slog configuration.
package logger

import (
	"fmt"
	"log/slog"
	"os"
)

var globalLogger *slog.Logger

// InitLogger configures slog for the given level and installs the result
// as both this package's logger and the slog default.
func InitLogger(level string) error {
	var slogLevel slog.Level

	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		return fmt.Errorf("invalid log level: %s", level)
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slogLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)

	return nil
}

// GetLogger returns the configured logger, or slog's default before
// InitLogger has run.
func GetLogger() *slog.Logger {
	if globalLogger == nil {
		return slog.Default()
	}
	return globalLogger
}
