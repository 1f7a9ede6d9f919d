// Package apperr defines the error taxonomy shared by the router core.
//
// Validation errors surface to callers as 400 and are never retried.
// Dependency errors cover unreachable or failing collaborators and surface
// as 500 once retries/fallbacks are exhausted. Degraded errors mark a
// durable-store failure that was absorbed by a cache fallback; they are
// logged, never surfaced. Anything else is fatal.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport mapping.
type Kind string

const (
	KindValidation Kind = "validation"
	KindDependency Kind = "dependency"
	KindDegraded   Kind = "degraded"
	KindFatal      Kind = "internal"
)

// Error carries a kind tag plus a caller-safe message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation creates a caller-input error.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Validationf creates a formatted caller-input error.
func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Dependency wraps a collaborator failure.
func Dependency(op string, err error) *Error {
	return &Error{Kind: KindDependency, Message: op, Err: err}
}

// Degraded wraps an absorbed durable-store failure.
func Degraded(op string, err error) *Error {
	return &Error{Kind: KindDegraded, Message: op, Err: err}
}

// KindOf returns the taxonomy kind for err, defaulting to fatal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindFatal
}

// MessageOf returns the caller-safe message for err. Errors outside the
// taxonomy get a generic message; their detail belongs in the logs, not in a
// response body.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal error"
}
