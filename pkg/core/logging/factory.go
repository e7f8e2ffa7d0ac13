// ============================================================================
// dglrechner - DGL-Rechner
// ============================================================================
//
// Package:     logging
// Description: Process-wide logger defaults and factory functions
// License:     MIT
// ============================================================================

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

var (
	defaultsMu sync.RWMutex
	defaults   = LoggerConfig{Level: "info", Format: "json"}
	defaultOut = &sink{output: os.Stderr}

	logFile *os.File
)

// LoggerConfig holds the process-wide logging configuration
type LoggerConfig struct {
	// Log level (trace, debug, info, warn, error)
	Level string

	// Output format: "json" or "text"
	Format string

	// File receives all log output when set. The TUI owns stdout, so
	// interactive mode always logs to a file.
	File string

	// Output is used when File is empty (default: stderr)
	Output io.Writer
}

// Configure sets the defaults used by New. Loggers created before the call
// keep their previous settings.
func Configure(cfg LoggerConfig) error {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()

	if _, err := ParseLevel(cfg.Level); err != nil {
		return err
	}
	if _, err := ParseFormat(cfg.Format); err != nil {
		return err
	}

	var out io.Writer = os.Stderr
	if cfg.Output != nil {
		out = cfg.Output
	}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		if logFile != nil {
			logFile.Close()
		}
		logFile = f
		out = f
	}

	defaults = cfg
	defaultOut = &sink{output: out}
	return nil
}

// Close releases the log file opened by Configure, if any
func Close() error {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()

	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	defaultOut = &sink{output: os.Stderr}
	return err
}

// New creates a named logger using the process-wide defaults
func New(name string) *Logger {
	defaultsMu.RLock()
	defer defaultsMu.RUnlock()

	level, _ := ParseLevel(defaults.Level)
	format, _ := ParseFormat(defaults.Format)

	return &Logger{
		name:      name,
		level:     level,
		formatter: GetFormatter(format),
		sink:      defaultOut,
		fields:    Fields{},
	}
}

// Discard returns a logger that drops everything, for tests and headless use
func Discard() *Logger {
	return NewWithConfig(Config{Level: LevelFatal + 1, Output: io.Discard})
}
