package logging

import (
	"log/slog"
	"os"
)

// Logger is the application-wide structured logger instance.
var Logger *slog.Logger = slog.Default()

// Init initializes the global logger with the specified level and format.
// level: "debug", "info", "warn", "error" (defaults to "info")
// format: "json" or "text" (defaults to "text")
func Init(level, format string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}

// WithQuiz returns a logger with a quiz_code field.
func WithQuiz(code string) *slog.Logger {
	return Logger.With("quiz_code", code)
}

// WithTeam returns a logger with a team_name field.
func WithTeam(name string) *slog.Logger {
	return Logger.With("team_name", name)
}

// WithError returns a logger with an error field.
func WithError(err error) *slog.Logger {
	return Logger.With("error", err)
}
