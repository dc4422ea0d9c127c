package services

import (
	"errors"
	"fmt"
)

// ErrorKind tags every rejection the engine can produce so callers can map
// it to a transport status without string matching.
type ErrorKind string

const (
	KindUnauthorized      ErrorKind = "unauthorized"
	KindForbidden         ErrorKind = "forbidden"
	KindInvalidTransition ErrorKind = "invalid_transition"
	KindInvalidState      ErrorKind = "invalid_state"
	KindAlreadyReviewed   ErrorKind = "already_reviewed"
	KindNotFound          ErrorKind = "not_found"
	KindValidation        ErrorKind = "validation_failed"
	KindConflict          ErrorKind = "conflict"
	KindInternal          ErrorKind = "internal"
)

// Error is a tagged application error. Validation and authorization
// failures are always detected before any store mutation.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func Errorf(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind from an error, defaulting to internal for
// anything the engine did not tag (store outages and the like are never
// silently swallowed into a success response).
func KindOf(err error) ErrorKind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
