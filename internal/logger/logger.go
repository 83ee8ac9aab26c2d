// Package logger provides leveled logging for faqbot.
//
// Debug, Info and Warn lines and section headers are written only in
// verbose mode (the --verbose flag); they trace the build and query
// pipelines. Error lines are always written.
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
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the destination for log lines. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Section prints a section header in verbose mode.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Debug prints pipeline detail in verbose mode.
func Debug(format string, args ...any) {
	logf(false, "DEBUG", format, args...)
}

// Info prints a progress message in verbose mode.
func Info(format string, args ...any) {
	logf(false, "INFO", format, args...)
}

// Warn prints a recoverable problem in verbose mode.
func Warn(format string, args ...any) {
	logf(false, "WARN", format, args...)
}

// Error prints a failure regardless of verbose mode.
func Error(format string, args ...any) {
	logf(true, "ERROR", format, args...)
}

func logf(always bool, level, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if always || verbose {
		fmt.Fprintf(output, "["+level+"] "+format+"\n", args...)
	}
}
