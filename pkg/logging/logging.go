package logging

import (
	"os"

	"github.com/go-logr/logr"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

const (
	LEVEL_INFO  = 0
	LEVEL_DEBUG = 1
	LEVEL_TRACE = 2
)

// NewLogger creates a new Logger instance with the given configuration.
func NewLogger(log logr.Logger) *Logger {
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	return &Logger{log: log}
}

// DefaultLogger returns a Logger writing to stdout at LEVEL_INFO, with
// color enabled only when stdout is an interactive terminal.
func DefaultLogger() *Logger {
	useColor := isatty.IsTerminal(os.Stdout.Fd()) || term.IsTerminal(int(os.Stdout.Fd()))
	sink := newTerminalSink(os.Stdout, LEVEL_INFO, useColor)
	return &Logger{log: logr.New(sink)}
}

// Discard returns a Logger that drops everything written to it. Orchestrator
// components default to this when no logger option is supplied.
func Discard() *Logger {
	return &Logger{log: logr.Discard()}
}

// Logger wraps the logr.Logger interface with the small, fixed set of
// calls the rest of this module needs.
type Logger struct {
	log logr.Logger
}

// Named returns a child Logger tagged with the given component/phase name,
// e.g. "header", "cache", "shard", "histogram", "provenance".
func (l *Logger) Named(name string) *Logger {
	return &Logger{log: l.log.WithName(name)}
}

// WithValues returns a child Logger carrying the given key/value pairs on
// every subsequent call.
func (l *Logger) WithValues(keysAndValues ...interface{}) *Logger {
	return &Logger{log: l.log.WithValues(keysAndValues...)}
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.V(LEVEL_DEBUG).Info(msg, keysAndValues...)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info(msg, keysAndValues...)
}

func (l *Logger) Trace(msg string, keysAndValues ...interface{}) {
	l.log.V(LEVEL_TRACE).Info(msg, keysAndValues...)
}

func (l *Logger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(err, msg, keysAndValues...)
}
