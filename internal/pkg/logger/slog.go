// internal/pkg/logger/slog.go
package logger

import (
	"log/slog"
	"os"
)

func SetupSlogLogger(level string, format string) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level:     parseSlogLevel(level),
		AddSource: true,
	}

	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

func parseSlogLevel(level string) slog.Leveler {
	return slog.LevelDebug
}
