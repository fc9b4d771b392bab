// Package logger provides opinionated logging capabilities for leonia.
//
// Every logger is a *slog.Logger. The handler behind it is picked from the
// options: slog's text handler by default, slog's JSON handler for service
// style logs, or the charmbracelet/log handler for colorized CLI output.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
)

type config struct {
	level   slog.Level
	pretty  bool
	json    bool
	source  bool
	writers []io.Writer
}

// New builds a *slog.Logger from the given options.
func New(opts ...Option) *slog.Logger {
	c := &config{
		level:   slog.LevelInfo,
		writers: []io.Writer{os.Stdout},
	}
	for _, opt := range opts {
		opt(c)
	}

	var w io.Writer
	switch len(c.writers) {
	case 0:
		w = os.Stdout
	case 1:
		w = c.writers[0]
	default:
		w = io.MultiWriter(c.writers...)
	}

	switch {
	case c.json:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     c.level,
			AddSource: c.source,
		}))

	case c.pretty:
		h := charmlog.NewWithOptions(w, charmlog.Options{
			Level:           charmLevel(c.level),
			ReportTimestamp: true,
			ReportCaller:    c.source,
		})
		return slog.New(h)

	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
			Level:     c.level,
			AddSource: c.source,
		}))
	}
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(nopHandler{})
}

func charmLevel(l slog.Level) charmlog.Level {
	if l <= slog.LevelDebug {
		return charmlog.DebugLevel
	}
	return charmlog.InfoLevel
}

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (h nopHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h nopHandler) WithGroup(string) slog.Handler           { return h }
