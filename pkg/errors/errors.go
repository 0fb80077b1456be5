// Package errors defines the sentinel errors shared across the service and a
// typed AppError wrapper carrying an HTTP status for embedding callers.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrLoad marks a fatal startup-time data loading failure (missing term
	// identifier, duplicate identifier, unreadable file). The process must
	// not serve with a partially built index.
	ErrLoad = errors.New("load error")
	// ErrInvalidQuery marks a malformed request (empty search text, unknown
	// match mode). It aborts only the offending request.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrNotFound marks a lookup for an identifier that is absent from the
	// loaded snapshot.
	ErrNotFound = errors.New("not found")
	// ErrScoring marks an unrecoverable fault reported by the similarity
	// scorer; the whole similarity request is aborted rather than returning
	// a partially scored result set.
	ErrScoring = errors.New("scoring error")
	// ErrUnavailable marks a dependency (redis, postgres, kafka) that could
	// not be reached.
	ErrUnavailable = errors.New("dependency unavailable")
)

// AppError pairs a sentinel with a human-readable message and HTTP status.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New wraps a sentinel into an AppError.
func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Newf is New with Sprintf-style formatting.
func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// HTTPStatusCode maps an error to the status an HTTP layer should report.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidQuery):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
