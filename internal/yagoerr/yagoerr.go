// Package yagoerr defines the closed set of error tags that cross every
// component boundary (spec §7). Components never let stack traces or
// internal error types escape; they wrap failures in a Code plus a
// human-readable detail string.
package yagoerr

import (
	"errors"
	"fmt"
)

// Code is a closed set of user-visible failure categories.
type Code string

const (
	NotFound    Code = "NotFound"
	Invalid     Code = "Invalid"
	Network     Code = "Network"
	Integrity   Code = "Integrity"
	Validation  Code = "Validation"
	Unsupported Code = "Unsupported"
	Aborted     Code = "Aborted"
)

// Error pairs a Code with a detail message and an optional wrapped cause.
type Error struct {
	Code   Code
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Detail, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs an *Error with no wrapped cause.
func New(code Code, detail string) *Error {
	return &Error{Code: code, Detail: detail}
}

// Wrap constructs an *Error carrying cause, tagged with code.
// If cause is already a *yagoerr.Error its Cause chain is preserved.
func Wrap(code Code, detail string, cause error) *Error {
	return &Error{Code: code, Detail: detail, Cause: cause}
}

// CodeOf returns the Code of err if it (or something it wraps) is a
// *Error, and ok=true. Otherwise returns ("", false).
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}
