// File: codes.go
// Title: Error Code Definitions
// Description: Error codes used to classify failures at the solver, renderer
//              and storage boundaries. The shell maps codes to status messages
//              and the HTTP server maps them to status codes.

package errors

import "net/http"

// Code represents a structured error code for categorizing errors
type Code string

const (
	CodeUnknown  Code = "UNKNOWN"
	CodeInternal Code = "INTERNAL"
	CodeNotFound Code = "NOT_FOUND"

	// CodeInvalidInput marks equations or initial conditions the backend
	// could not parse
	CodeInvalidInput Code = "INVALID_INPUT"

	// CodeTimeout marks a solve that exceeded its deadline
	CodeTimeout Code = "TIMEOUT"

	// CodeUnsolvable marks a well-formed equation without a closed-form solution
	CodeUnsolvable Code = "UNSOLVABLE"

	// CodeCanceled marks a solve aborted by its caller
	CodeCanceled Code = "CANCELED"

	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeRenderFailed         Code = "RENDER_FAILED"
	CodeStorageError         Code = "STORAGE_ERROR"
)

// HTTPStatus returns the HTTP status code matching the error code
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnsolvable:
		return http.StatusUnprocessableEntity
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	case CodeExternalServiceError:
		return http.StatusBadGateway
	case CodeCanceled:
		return 499
	default:
		return http.StatusInternalServerError
	}
}

// SeverityFromCode returns the default severity for a code
func SeverityFromCode(code Code) Severity {
	switch code {
	case CodeInvalidInput, CodeUnsolvable, CodeNotFound, CodeCanceled:
		return SeverityLow
	case CodeTimeout, CodeRenderFailed:
		return SeverityMedium
	case CodeServiceUnavailable, CodeExternalServiceError, CodeStorageError:
		return SeverityHigh
	case CodeInternal:
		return SeverityCritical
	default:
		return SeverityMedium
	}
}
