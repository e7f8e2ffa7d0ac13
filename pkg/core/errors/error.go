// File: error.go
// Title: Core Error Implementation
// Description: Structured error type carrying a code, a severity, the failing
//              operation and free-form details. Compatible with the standard
//              errors.Is / errors.As helpers through Unwrap.

package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"
)

// Error represents a structured error with code, severity and details
type Error struct {
	message   string
	cause     error
	code      Code
	severity  Severity
	operation string
	details   map[string]interface{}
	timestamp time.Time

	severitySet bool
}

// New creates a new Error with the given message
func New(message string) *Error {
	return &Error{
		message:   message,
		code:      CodeUnknown,
		severity:  SeverityMedium,
		details:   make(map[string]interface{}),
		timestamp: time.Now(),
	}
}

// Newf creates a new Error with a formatted message
func Newf(format string, args ...interface{}) *Error {
	return New(fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with additional context. The code of a
// wrapped *Error is inherited. Wrap returns nil for a nil error.
func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}

	e := New(message)
	e.cause = err

	var inner *Error
	if stderrors.As(err, &inner) {
		e.code = inner.code
		e.severity = inner.severity
	}
	return e
}

// Error implements the standard error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s", e.message, e.cause.Error())
	}
	return e.message
}

// Unwrap returns the underlying cause for error unwrapping
func (e *Error) Unwrap() error {
	return e.cause
}

// WithCode sets the error code. The severity follows the code unless it was
// set explicitly.
func (e *Error) WithCode(code Code) *Error {
	e.code = code
	if !e.severitySet {
		e.severity = SeverityFromCode(code)
	}
	return e
}

// WithSeverity sets the error severity
func (e *Error) WithSeverity(severity Severity) *Error {
	e.severity = severity
	e.severitySet = true
	return e
}

// WithOperation records the operation that failed
func (e *Error) WithOperation(operation string) *Error {
	e.operation = operation
	return e
}

// WithDetail adds a detail key-value pair
func (e *Error) WithDetail(key string, value interface{}) *Error {
	e.details[key] = value
	return e
}

// Message returns the message without the cause chain
func (e *Error) Message() string { return e.message }

// Code returns the error code
func (e *Error) Code() Code { return e.code }

// Severity returns the error severity
func (e *Error) Severity() Severity { return e.severity }

// Operation returns the failing operation
func (e *Error) Operation() string { return e.operation }

// Timestamp returns when the error was created
func (e *Error) Timestamp() time.Time { return e.timestamp }

// Details returns a copy of the error details
func (e *Error) Details() map[string]interface{} {
	out := make(map[string]interface{}, len(e.details))
	for k, v := range e.details {
		out[k] = v
	}
	return out
}

// MarshalJSON implements json.Marshaler
func (e *Error) MarshalJSON() ([]byte, error) {
	data := map[string]interface{}{
		"message":  e.Error(),
		"code":     e.code,
		"severity": e.severity.String(),
	}
	if e.operation != "" {
		data["operation"] = e.operation
	}
	if len(e.details) > 0 {
		data["details"] = e.details
	}
	return json.Marshal(data)
}

// CodeOf returns the code of the first *Error in err's chain, CodeUnknown
// for other non-nil errors and "" for nil
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.code
	}
	return CodeUnknown
}

// HasCode reports whether err carries the given code
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// Is and As forward to the standard library so callers need a single import
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool { return stderrors.As(err, target) }
