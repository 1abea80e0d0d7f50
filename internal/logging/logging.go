// Package logging sets up the process-wide structured logger: JSON via
// log/slog, rotated through gopkg.in/natefinch/lumberjack.v2 when a log
// file path is configured.
package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls how New builds a logger.
type Options struct {
	Level      string // debug, info, warn, error
	FilePath   string // empty means stdout
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New builds a *slog.Logger per opts.
func New(opts Options) *slog.Logger {
	var writer io.Writer = os.Stdout
	if opts.FilePath != "" {
		writer = &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   true,
		}
	}

	handler := slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level: levelFor(opts.Level),
	})
	return slog.New(handler)
}

func levelFor(level string) slog.Level {
	switch level {
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
