// Package logging provides structured logging for the MedLinkr gateway:
// a global slog logger writing to console and weekly rotating files, plus a
// request-logging middleware for chi.
package logging

import (
	"context"
	"log/slog"
	"os"
)

type LoggingService struct {
	Logger *slog.Logger
}

var DefaultLoggingService *LoggingService

// InitLogger initializes the global logger instance
func InitLogger(logDir string, retentionWeeks int, maxFileSize int64) {
	DefaultLoggingService = &LoggingService{
		Logger: SetupLogger(logDir, retentionWeeks, maxFileSize),
	}
	slog.SetDefault(DefaultLoggingService.Logger)
}

// Package-level functions for direct access

func Info(msg string, args ...any) {
	logWith(slog.LevelInfo, msg, args...)
}

func Error(msg string, args ...any) {
	logWith(slog.LevelError, msg, args...)
}

func Warn(msg string, args ...any) {
	logWith(slog.LevelWarn, msg, args...)
}

func Debug(msg string, args ...any) {
	logWith(slog.LevelDebug, msg, args...)
}

func logWith(level slog.Level, msg string, args ...any) {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		// Fallback to console logger if not initialized
		fallback := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))
		fallback.Log(context.Background(), level, msg, args...)
		return
	}
	DefaultLoggingService.Logger.Log(context.Background(), level, msg, args...)
}
