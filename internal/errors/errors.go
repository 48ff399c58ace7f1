package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors. Callers branch on these instead of
// matching message text.
const (
	ErrConfig     = "CONFIG"
	ErrConnection = "CONNECTION"
	ErrAuth       = "AUTH"
	ErrCommand    = "COMMAND"
)

// Error represents a structured error with code, message, suggestion, and optional cause.
// Rendered as:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var fErr *Error
	if errors.As(err, &fErr) {
		return fErr.Code == code
	}
	return false
}

// IsConnection reports whether err is a connection failure
// (unreachable host, failed handshake, failed disconnect).
func IsConnection(err error) bool { return IsCode(err, ErrConnection) }

// IsAuth reports whether err is an authentication rejection.
func IsAuth(err error) bool { return IsCode(err, ErrAuth) }

// IsCommand reports whether err is a command or file transfer failure.
func IsCommand(err error) bool { return IsCode(err, ErrCommand) }

// MessageOf returns the top-level message of a structured error, or err.Error()
// for anything else.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var fErr *Error
	if errors.As(err, &fErr) {
		return fErr.Message
	}
	return err.Error()
}
