// Package logging configures the application loggers: a structured JSON
// logger for machine consumption, rotated on disk by lumberjack, and a
// human-readable text logger for the terminal.
package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

var structuredLogger *slog.Logger
var humanReadableLogger *slog.Logger

// Init initializes the logging system. Structured JSON records go to the
// given file, rotated by lumberjack, or to stdout when logPath is empty;
// human-readable text records go to stderr.
func Init(level slog.Level, logPath string) {
	var out io.Writer = os.Stdout
	if logPath != "" {
		out = &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    100, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
	}

	structuredLogger = slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: level,
	}))
	humanReadableLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	// Structured logger is the application default
	slog.SetDefault(structuredLogger)
}

// HumanReadable returns the globally configured human-readable (Text)
// logger. Falls back to the slog default if Init() has not been called.
func HumanReadable() *slog.Logger {
	if humanReadableLogger == nil {
		return slog.Default()
	}
	return humanReadableLogger
}

// ForService creates a new logger instance with the 'service' attribute added.
// It uses the global structured logger as the base. Falls back to the slog
// default if Init() has not been called (keeps tests simple).
func ForService(serviceName string) *slog.Logger {
	if structuredLogger == nil {
		return slog.Default().With("service", serviceName)
	}
	return structuredLogger.With("service", serviceName)
}
