// Package logger is the structured logging front used across mau. It
// wraps log/slog with a component/event calling convention so engine
// internals, stores and adapters log uniformly.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Options configure Init.
type Options struct {
	// Level is one of "debug", "info", "warn", "error"; anything else
	// (including empty) means info.
	Level string
	// Format is "text" (colorized, for development) or "json"; anything
	// else means text.
	Format string
	// Writer defaults to os.Stderr.
	Writer io.Writer
}

// Init replaces the process default slog logger. Libraries embedding
// mau may skip it and install their own handler instead; the package
// level helpers go through slog.Default either way.
func Init(opts Options) {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	level := ParseLevel(opts.Level)
	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	default:
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	}
	slog.SetDefault(slog.New(handler))
}

// ParseLevel maps a config string to a slog level, defaulting to info.
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

// Debug logs event for component at debug level.
func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	log(ctx, slog.LevelDebug, component, event, attrs...)
}

// Info logs event for component at info level.
func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	log(ctx, slog.LevelInfo, component, event, attrs...)
}

// Warn logs event for component at warn level.
func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	log(ctx, slog.LevelWarn, component, event, attrs...)
}

// Error logs event for component at error level.
func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	log(ctx, slog.LevelError, component, event, attrs...)
}

func log(ctx context.Context, level slog.Level, component, event string, attrs ...slog.Attr) {
	l := slog.Default()
	if !l.Enabled(ctx, level) {
		return
	}
	all := make([]slog.Attr, 0, len(attrs)+1)
	all = append(all, slog.String("component", component))
	all = append(all, attrs...)
	l.LogAttrs(ctx, level, event, all...)
}
