// ============================================================================
// dglrechner - DGL-Rechner
// ============================================================================
//
// Package:     logging
// Description: Structured logger with named instances and key/value fields
// License:     MIT
// ============================================================================

package logging

import (
	"errors"
	"io"
	"os"
	"sync"
	"time"

	dglerrors "github.com/msto63/dglrechner/pkg/core/errors"
)

// Fields represents custom key-value pairs for structured logging
type Fields map[string]interface{}

// Entry represents a single log entry
type Entry struct {
	Timestamp time.Time
	Level     Level
	Message   string
	Logger    string
	Fields    Fields
	Error     error
}

// sink is shared between a logger and all loggers derived from it so that
// concurrent writes to the same output never interleave.
type sink struct {
	mu     sync.Mutex
	output io.Writer
}

func (s *sink) write(p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.output.Write(p)
}

// Logger is a named, leveled, structured logger
type Logger struct {
	name      string
	level     Level
	formatter Formatter
	sink      *sink
	fields    Fields
}

// Config holds configuration for a single logger
type Config struct {
	Name   string
	Level  Level
	Format Format
	Output io.Writer
}

// NewWithConfig creates a new logger with the specified configuration
func NewWithConfig(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	return &Logger{
		name:      cfg.Name,
		level:     cfg.Level,
		formatter: GetFormatter(cfg.Format),
		sink:      &sink{output: out},
		fields:    Fields{},
	}
}

// Name returns the logger name
func (l *Logger) Name() string {
	return l.name
}

// Level returns the minimum level of the logger
func (l *Logger) Level() Level {
	return l.level
}

// WithLevel returns a copy of the logger with a different minimum level
func (l *Logger) WithLevel(level Level) *Logger {
	clone := l.clone()
	clone.level = level
	return clone
}

// With returns a copy of the logger that adds the given key/value pairs to
// every entry
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	clone := l.clone()
	for k, v := range toFields(keysAndValues...) {
		clone.fields[k] = v
	}
	return clone
}

// IsLevelEnabled reports whether entries of the given level are written
func (l *Logger) IsLevelEnabled(level Level) bool {
	return level.ShouldLog(l.level)
}

// Trace logs a trace message
func (l *Logger) Trace(msg string, keysAndValues ...interface{}) {
	l.log(LevelTrace, msg, nil, keysAndValues...)
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.log(LevelDebug, msg, nil, keysAndValues...)
}

// Info logs an info message
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.log(LevelInfo, msg, nil, keysAndValues...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.log(LevelWarn, msg, nil, keysAndValues...)
}

// Error logs an error message
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.log(LevelError, msg, nil, keysAndValues...)
}

// Fatal logs a fatal message and exits the program
func (l *Logger) Fatal(msg string, keysAndValues ...interface{}) {
	l.log(LevelFatal, msg, nil, keysAndValues...)
	os.Exit(1)
}

// LogError logs err with a level derived from its severity
func (l *Logger) LogError(msg string, err error) {
	if err == nil {
		return
	}

	level := LevelError
	var de *dglerrors.Error
	if errors.As(err, &de) {
		switch de.Severity() {
		case dglerrors.SeverityLow:
			level = LevelInfo
		case dglerrors.SeverityMedium:
			level = LevelWarn
		}
	}
	l.log(level, msg, err)
}

func (l *Logger) log(level Level, msg string, err error, keysAndValues ...interface{}) {
	if !level.ShouldLog(l.level) {
		return
	}

	entry := &Entry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   msg,
		Logger:    l.name,
		Fields:    make(Fields, len(l.fields)+len(keysAndValues)/2),
		Error:     err,
	}
	for k, v := range l.fields {
		entry.Fields[k] = v
	}
	for k, v := range toFields(keysAndValues...) {
		entry.Fields[k] = v
	}

	formatted, fmtErr := l.formatter.Format(entry)
	if fmtErr != nil {
		return
	}
	l.sink.write(formatted)
}

func (l *Logger) clone() *Logger {
	clone := &Logger{
		name:      l.name,
		level:     l.level,
		formatter: l.formatter,
		sink:      l.sink,
		fields:    make(Fields, len(l.fields)),
	}
	for k, v := range l.fields {
		clone.fields[k] = v
	}
	return clone
}

// toFields converts key-value pairs to Fields; non-string keys and a
// trailing odd value are dropped
func toFields(keysAndValues ...interface{}) Fields {
	if len(keysAndValues) == 0 {
		return nil
	}

	fields := make(Fields, len(keysAndValues)/2)
	for i := 0; i < len(keysAndValues)-1; i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}

func codeOf(err error) string {
	var de *dglerrors.Error
	if errors.As(err, &de) {
		return string(de.Code())
	}
	return ""
}
