// Package apperror is the error taxonomy shared by services and handlers.
package apperror

import (
	"errors"
	"fmt"
)

// Kinds. Match with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrDatabase     = errors.New("database error")
)

// Error carries a client-facing message, its kind and an optional cause.
type Error struct {
	kind  error
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil && e.kind == ErrDatabase {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

// Message is the text safe to return to clients.
func (e *Error) Message() string { return e.msg }

// Kind returns the taxonomy sentinel.
func (e *Error) Kind() error { return e.kind }

func (e *Error) Unwrap() []error {
	if e.cause == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.cause}
}

func newf(kind error, format string, args ...interface{}) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) error {
	return newf(ErrNotFound, format, args...)
}

func Forbidden(format string, args ...interface{}) error {
	return newf(ErrForbidden, format, args...)
}

func Conflict(format string, args ...interface{}) error {
	return newf(ErrConflict, format, args...)
}

func Validation(format string, args ...interface{}) error {
	return newf(ErrValidation, format, args...)
}

func Unauthorized(format string, args ...interface{}) error {
	return newf(ErrUnauthorized, format, args...)
}

// Database wraps a backing-store failure. An error that already carries a
// kind is returned unchanged.
func Database(msg string, cause error) error {
	var ae *Error
	if errors.As(cause, &ae) {
		return cause
	}
	return &Error{kind: ErrDatabase, msg: msg, cause: cause}
}

// Message returns the client-facing text for err.
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		if ae.kind == ErrDatabase {
			return "Internal Server Error"
		}
		return ae.msg
	}
	return "Internal Server Error"
}
