// Package logger is askdocs' diagnostic output. Debug, info and warning
// lines appear only with --verbose; errors are always written. Everything
// goes to stderr so stdout stays clean for answers and the MCP stdio
// transport.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

type level int

const (
	levelDebug level = iota
	levelInfo
	levelWarn
	levelError
)

var tags = [...]string{
	levelDebug: "[DEBUG] ",
	levelInfo:  "[INFO] ",
	levelWarn:  "[WARN] ",
	levelError: "[ERROR] ",
}

var std = struct {
	sync.Mutex
	verbose bool
	out     io.Writer
}{out: os.Stderr}

// SetVerbose turns debug, info and warning output on or off.
func SetVerbose(v bool) {
	std.Lock()
	std.verbose = v
	std.Unlock()
}

// IsVerbose reports whether verbose output is on.
func IsVerbose() bool {
	std.Lock()
	defer std.Unlock()
	return std.verbose
}

// SetOutput redirects all log output.
func SetOutput(w io.Writer) {
	std.Lock()
	std.out = w
	std.Unlock()
}

// Writer returns the current destination. The HTTP server sends its
// request log here.
func Writer() io.Writer {
	std.Lock()
	defer std.Unlock()
	return std.out
}

// Debug traces pipeline internals.
func Debug(format string, args ...any) { logf(levelDebug, format, args...) }

// Info reports progress worth seeing in verbose mode.
func Info(format string, args ...any) { logf(levelInfo, format, args...) }

// Warn reports a recoverable problem, such as a retried upstream call.
func Warn(format string, args ...any) { logf(levelWarn, format, args...) }

// Error records a failure whose detail is withheld from the caller.
func Error(format string, args ...any) { logf(levelError, format, args...) }

// Section prints a banner separating stages of a verbose run.
func Section(name string) {
	std.Lock()
	defer std.Unlock()
	if std.verbose {
		fmt.Fprintf(std.out, "\n=== %s ===\n", name)
	}
}

func logf(l level, format string, args ...any) {
	std.Lock()
	defer std.Unlock()
	if l < levelError && !std.verbose {
		return
	}
	msg := fmt.Sprintf(format, args...)
	// One record per line keeps multi-line upstream errors greppable.
	msg = strings.ReplaceAll(strings.TrimRight(msg, "\n"), "\n", " | ")
	fmt.Fprint(std.out, tags[l], msg, "\n")
}
