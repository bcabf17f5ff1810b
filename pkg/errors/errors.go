// Package errors defines the typed domain errors the API maps onto HTTP
// responses.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors. Handlers and services compare against these via Code
// after FromError, or via errors.Is when the sentinel is returned directly.
var (
	ErrNotFound       = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrValidation     = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal       = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss      = New("CACHE_MISS", http.StatusNotFound, "cache miss")
	ErrSchemaNotFound = New("SCHEMA_NOT_FOUND", http.StatusNotFound, "task schema not found")
	ErrNoSubjectID    = New("NO_SUBJECT_ID", http.StatusBadRequest, "record has no subject identifier")
	ErrReportDisabled = New("REPORTS_DISABLED", http.StatusNotFound, "report export is disabled")
)

// Error carries a stable machine code, an HTTP status and a human message
// alongside the wrapped cause.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New builds a fresh Error with no wrapped cause.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches code, status and message to an underlying cause.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Clone copies a sentinel so its message can be overridden without
// mutating the shared value.
func Clone(base *Error, message string) *Error {
	if base == nil {
		return nil
	}
	out := *base
	if message != "" {
		out.Message = message
	}
	return &out
}

// FromError coerces any error into an *Error, defaulting unknown causes
// to ErrInternal.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}
