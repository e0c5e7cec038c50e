// Package logger provides the process-wide log output for iocsync.
// Warnings and errors are always written. Debug and info messages are
// written only in verbose mode, enabled by the --verbose flag.
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

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func write(always bool, level, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if always || verbose {
		fmt.Fprintf(output, "["+level+"] "+format+"\n", args...)
	}
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) { write(false, "DEBUG", format, args...) }

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) { write(false, "INFO", format, args...) }

// Warn prints a warning. Skipped files, objects and sources are
// reported here, so warnings are never suppressed.
func Warn(format string, args ...any) { write(true, "WARN", format, args...) }

// Error prints an error message.
func Error(format string, args ...any) { write(true, "ERROR", format, args...) }

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Source returns a logger that prefixes every message with a feed name.
func Source(name string) Prefixed {
	return Prefixed{prefix: name + ": "}
}

// Prefixed writes through the package logger with a fixed prefix.
type Prefixed struct {
	prefix string
}

// Debug prints a prefixed debug message.
func (p Prefixed) Debug(format string, args ...any) { Debug(p.prefix+format, args...) }

// Info prints a prefixed info message.
func (p Prefixed) Info(format string, args ...any) { Info(p.prefix+format, args...) }

// Warn prints a prefixed warning.
func (p Prefixed) Warn(format string, args ...any) { Warn(p.prefix+format, args...) }

// Error prints a prefixed error.
func (p Prefixed) Error(format string, args ...any) { Error(p.prefix+format, args...) }
