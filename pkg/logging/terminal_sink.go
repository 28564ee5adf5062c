package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/go-logr/logr"
)

var (
	infoTag  = color.New(color.FgGreen).SprintFunc()
	debugTag = color.New(color.FgCyan).SprintFunc()
	traceTag = color.New(color.FgYellow).SprintFunc()
	errorTag = color.New(color.FgRed).SprintFunc()
)

// terminalSink is the logr.LogSink DefaultLogger installs: one line per
// call, level-tagged and colored when the destination is an interactive
// terminal, with any accumulated WithValues pairs plus the call site's
// own key/value pairs tab-indented beneath it — the same indentation
// pkg/netcdf/header's CDL dumper uses for nested fields.
type terminalSink struct {
	out       io.Writer
	verbosity int
	name      string
	values    []interface{}
	color     bool
	mu        sync.Mutex
}

// newTerminalSink builds a sink writing to out (os.Stdout if nil) that
// emits levels up to and including verbosity.
func newTerminalSink(out io.Writer, verbosity int, useColor bool) *terminalSink {
	if out == nil {
		out = os.Stdout
	}
	return &terminalSink{out: out, verbosity: verbosity, color: useColor}
}

func (s *terminalSink) Init(logr.RuntimeInfo) {}

func (s *terminalSink) Enabled(level int) bool {
	return level <= s.verbosity
}

func (s *terminalSink) Info(level int, msg string, keysAndValues ...interface{}) {
	if !s.Enabled(level) {
		return
	}
	s.emit(false, level, msg, keysAndValues...)
}

func (s *terminalSink) Error(err error, msg string, keysAndValues ...interface{}) {
	all := append(append([]interface{}{}, keysAndValues...), "error", err)
	s.emit(true, 0, msg, all...)
}

func (s *terminalSink) WithValues(keysAndValues ...interface{}) logr.LogSink {
	return &terminalSink{
		out:       s.out,
		verbosity: s.verbosity,
		name:      s.name,
		color:     s.color,
		values:    append(append([]interface{}{}, s.values...), keysAndValues...),
	}
}

func (s *terminalSink) WithName(name string) logr.LogSink {
	full := name
	if s.name != "" {
		full = s.name + "." + name
	}
	return &terminalSink{
		out:       s.out,
		verbosity: s.verbosity,
		name:      full,
		color:     s.color,
		values:    append([]interface{}{}, s.values...),
	}
}

func (s *terminalSink) V(int) logr.LogSink {
	return &terminalSink{
		out:       s.out,
		verbosity: s.verbosity,
		name:      s.name,
		color:     s.color,
		values:    append([]interface{}{}, s.values...),
	}
}

// tag renders the bracketed level label, colored only when s.color is set.
func (s *terminalSink) tag(isError bool, level int) string {
	paint := func(f func(a ...interface{}) string, plain string) string {
		if s.color {
			return f(plain)
		}
		return plain
	}
	if isError {
		return paint(errorTag, "[ERROR]")
	}
	switch level {
	case LEVEL_INFO:
		return paint(infoTag, "[INFO]")
	case LEVEL_DEBUG:
		return paint(debugTag, "[DEBUG]")
	case LEVEL_TRACE:
		return paint(traceTag, "[TRACE]")
	default:
		return fmt.Sprintf("[LEVEL %d]", level)
	}
}

func (s *terminalSink) emit(isError bool, level int, msg string, keysAndValues ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	line := msg
	if s.name != "" {
		line = fmt.Sprintf("[%s] %s", s.name, msg)
	}
	fmt.Fprintf(s.out, "%s %s\n", s.tag(isError, level), line)

	all := append(append([]interface{}{}, s.values...), keysAndValues...)
	for i := 0; i+1 < len(all); i += 2 {
		key, ok := all[i].(string)
		if !ok {
			key = fmt.Sprintf("arg%d", i/2)
		}
		fmt.Fprintf(s.out, "\t%s: %v\n", key, all[i+1])
	}
}
