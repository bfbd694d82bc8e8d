// Package logger prints pipeline diagnostics to stderr. Debug, Info
// and Section output is gated behind the --verbose flag; warnings are
// always emitted because they signal degraded retrieval or skipped
// documents the user should know about.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	out     io.Writer = os.Stderr
)

// SetVerbose toggles debug and info output.
func SetVerbose(v bool) {
	mu.Lock()
	verbose = v
	mu.Unlock()
}

// IsVerbose reports whether debug and info output is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects all log output, defaulting to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	out = w
	mu.Unlock()
}

func emit(gated bool, tag, format string, args []any) {
	mu.RLock()
	defer mu.RUnlock()
	if gated && !verbose {
		return
	}
	fmt.Fprintf(out, tag+format+"\n", args...)
}

// Debug logs fine-grained pipeline steps in verbose mode.
func Debug(format string, args ...any) { emit(true, "debug: ", format, args) }

// Info logs progress messages in verbose mode.
func Info(format string, args ...any) { emit(true, "info: ", format, args) }

// Warn logs a warning. Warnings are printed regardless of the
// verbose setting.
func Warn(format string, args ...any) { emit(false, "warn: ", format, args) }

// Section marks the start of a pipeline phase in verbose mode.
func Section(name string) { emit(true, "", "--- %s ---", []any{name}) }
