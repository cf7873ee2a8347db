// Package logger provides the leveled stderr logger behind ports.Logger.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
)

// StdLogger writes prefixed, leveled lines. Debug and Info are emitted only
// in verbose mode; Warn and Error always are, so best-effort failures in the
// caches stay visible.
type StdLogger struct {
	out     *log.Logger
	verbose bool
}

// NewStd creates a StdLogger writing to stderr.
func NewStd(verbose bool) *StdLogger {
	return NewStdTo(os.Stderr, verbose)
}

// NewStdTo creates a StdLogger writing to w.
func NewStdTo(w io.Writer, verbose bool) *StdLogger {
	return &StdLogger{
		out:     log.New(w, "xcpilot ", log.LstdFlags),
		verbose: verbose,
	}
}

func (l *StdLogger) Debug(msg string, fields map[string]interface{}) {
	if l.verbose {
		l.print("DEBUG", msg, fields)
	}
}

func (l *StdLogger) Info(msg string, fields map[string]interface{}) {
	if l.verbose {
		l.print("INFO", msg, fields)
	}
}

func (l *StdLogger) Warn(msg string, fields map[string]interface{}) {
	l.print("WARN", msg, fields)
}

func (l *StdLogger) Error(msg string, err error, fields map[string]interface{}) {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	l.print("ERROR", msg, fields)
}

func (l *StdLogger) print(level, msg string, fields map[string]interface{}) {
	l.out.Printf("[%s] %s%s", level, msg, formatFields(fields))
}

// formatFields renders fields as sorted key=value pairs for stable output.
func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%v", key, fields[key])
	}
	return b.String()
}
