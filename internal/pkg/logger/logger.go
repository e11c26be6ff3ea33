package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

var defaultLogger *slog.Logger

// Initialize creates and configures the default logger
func Initialize(production bool) *slog.Logger {
	defaultLogger = slog.New(newHandler(production, os.Stdout))
	slog.SetDefault(defaultLogger)

	return defaultLogger
}

func newHandler(production bool, out *os.File) slog.Handler {
	if production {
		// JSON logging for production
		return slog.NewJSONHandler(out, &slog.HandlerOptions{
			Level:     slog.LevelInfo,
			AddSource: false,
		})
	}

	// Pretty coloured logging for development
	var w io.Writer = out
	noColor := !isatty.IsTerminal(out.Fd())
	if !noColor {
		w = colorable.NewColorable(out)
	}
	return tint.NewHandler(w, &tint.Options{
		Level:      slog.LevelDebug,
		AddSource:  true,
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
	})
}

// Get returns the default logger instance
func Get() *slog.Logger {
	if defaultLogger == nil {
		return Initialize(false)
	}
	return defaultLogger
}

// NewServiceLogger creates a logger for a specific service
func NewServiceLogger(serviceName string) *slog.Logger {
	return Get().With(slog.String("service", serviceName))
}

// Discard returns a logger that drops everything, for tests
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}
