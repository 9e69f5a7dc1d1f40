// Package logging wraps log/slog with the small helper surface the rest of
// this module expects: leveled Info/Error/Debug calls, printf variants, a
// Fatalf that exits, and With for attaching structured fields — the same
// shape as the teacher's pkg/logging package, generalized into a value type
// so each component can hold its own named logger.
package logging

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
)

var (
	debug = flag.Bool("logging.debug", false, "enable debug logging")
	level = new(slog.LevelVar)
)

// Logger is a thin wrapper around *slog.Logger.
type Logger struct {
	inner *slog.Logger
}

// New builds a Logger writing text-formatted records to stderr.
func New() *Logger {
	if *debug {
		level.Set(slog.LevelDebug)
	}
	return &Logger{inner: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// SetLevel overrides the process-wide log level.
func SetLevel(l slog.Level) {
	level.Set(l)
}

// With returns a Logger that attaches the given key/value pairs to every
// subsequent record, e.g. logger.With("component", "router").
func (l *Logger) With(args ...any) *Logger {
	return &Logger{inner: l.inner.With(args...)}
}

func (l *Logger) Info(a ...any)  { l.inner.Info(fmt.Sprint(a...)) }
func (l *Logger) Error(a ...any) { l.inner.Error(fmt.Sprint(a...)) }
func (l *Logger) Debug(a ...any) { l.inner.Debug(fmt.Sprint(a...)) }

func (l *Logger) Infof(format string, v ...any)  { l.inner.Info(fmt.Sprintf(format, v...)) }
func (l *Logger) Errorf(format string, v ...any) { l.inner.Error(fmt.Sprintf(format, v...)) }
func (l *Logger) Debugf(format string, v ...any) { l.inner.Debug(fmt.Sprintf(format, v...)) }

// Fatalf logs at error level and exits with status 1.
func (l *Logger) Fatalf(format string, v ...any) {
	l.inner.Error(fmt.Sprintf(format, v...))
	os.Exit(1)
}
