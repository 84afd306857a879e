// Package logger builds the *slog.Logger instances used across cliptape.
// Interactive commands get colorized output through charmbracelet/log, the
// daemon log file gets JSON, and everything else gets slog's text handler.
package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	charmlog "github.com/charmbracelet/log"
)

// ComponentKey is the attribute naming the part of the daemon that logged.
const ComponentKey = "component"

type config struct {
	level     slog.Level
	pretty    bool
	json      bool
	component string
	writer    io.Writer
}

// New creates a *slog.Logger from the given options. Without options it
// logs at Info level as text to os.Stdout.
func New(opts ...Option) *slog.Logger {
	c := &config{
		level:  slog.LevelInfo,
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(c)
	}

	var handler slog.Handler
	switch {
	case c.pretty:
		handler = charmlog.NewWithOptions(c.writer, charmlog.Options{
			Level:           charmlog.Level(c.level),
			ReportTimestamp: true,
			TimeFormat:      time.TimeOnly,
		})
	case c.json:
		handler = slog.NewJSONHandler(c.writer, &slog.HandlerOptions{Level: c.level})
	default:
		handler = slog.NewTextHandler(c.writer, &slog.HandlerOptions{Level: c.level})
	}

	l := slog.New(handler)
	if c.component != "" {
		l = l.With(ComponentKey, c.component)
	}
	return l
}

// Component returns l tagged with the given component name.
func Component(l *slog.Logger, name string) *slog.Logger {
	return l.With(ComponentKey, name)
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
