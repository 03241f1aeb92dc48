// Package apierr defines the API error taxonomy and its HTTP mapping.
package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeNotFound          Code = "NOT_FOUND"
	CodeValidation        Code = "VALIDATION"
	CodeConflict          Code = "CONFLICT"
	CodeForbidden         Code = "FORBIDDEN"
	CodeUnauthenticated   Code = "UNAUTHENTICATED"
	CodeInvalidCredential Code = "INVALID_CREDENTIAL"
	CodeInternal          Code = "INTERNAL"
)

// Error is a structured API error carrying a code, an HTTP status, and
// optional machine-readable details (e.g. blocking counts).
type Error struct {
	Code    Code           `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	status  int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Status returns the HTTP status for the error.
func (e *Error) Status() int {
	return e.status
}

// WithDetail attaches a detail key/value and returns the error.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func newError(code Code, status int, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), status: status}
}

// NotFound reports that an entity id did not resolve.
func NotFound(format string, args ...any) *Error {
	return newError(CodeNotFound, http.StatusNotFound, format, args...)
}

// Validation reports a malformed or missing field or an invalid enum value.
func Validation(format string, args ...any) *Error {
	return newError(CodeValidation, http.StatusBadRequest, format, args...)
}

// Conflict reports a state conflict such as a duplicate key or an already
// released batch.
func Conflict(format string, args ...any) *Error {
	return newError(CodeConflict, http.StatusConflict, format, args...)
}

// Forbidden reports an authenticated caller with insufficient role or scope.
func Forbidden(format string, args ...any) *Error {
	return newError(CodeForbidden, http.StatusForbidden, format, args...)
}

// Unauthenticated reports a missing or malformed credential.
func Unauthenticated(format string, args ...any) *Error {
	return newError(CodeUnauthenticated, http.StatusUnauthorized, format, args...)
}

// InvalidCredential reports a signature or expiry failure.
func InvalidCredential(format string, args ...any) *Error {
	return newError(CodeInvalidCredential, http.StatusUnauthorized, format, args...)
}

// Internal reports an unexpected infrastructure failure.
func Internal(format string, args ...any) *Error {
	return newError(CodeInternal, http.StatusInternalServerError, format, args...)
}

// From converts any error into an *Error. Unknown errors become Internal.
func From(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Internal("%v", err)
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Write maps err onto the HTTP response.
func Write(w http.ResponseWriter, err error) {
	apiErr := From(err)
	WriteJSON(w, apiErr.Status(), map[string]any{"error": apiErr})
}
