package errors

import (
	"errors"
	"fmt"
)

// Error is a structured error carrying a code, a human-readable message, and
// optional context values. It wraps an underlying cause when one exists so
// that errors.Is/errors.As keep working through the chain.
type Error struct {
	// Code classifies the failure.
	Code ErrorCode

	// Message is the human-readable description.
	Message string

	// Context holds structured values describing the failure site.
	Context map[string]any

	// cause is the wrapped underlying error, if any.
	cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/errors.As traversal.
func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a structured error with the given code and message.
func New(code ErrorCode, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Newf creates a structured error with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps err with a code and message. Returns nil if err is nil.
func Wrap(err error, code ErrorCode, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps err with a code and formatted message. Returns nil if err
// is nil.
func Wrapf(err error, code ErrorCode, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}

// WrapWithContext wraps err with a code, message, and structured context
// values. Returns nil if err is nil.
func WrapWithContext(err error, code ErrorCode, msg string, kv map[string]any) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, Context: kv, cause: err}
}

// CodeOf returns the ErrorCode carried by err or any error it wraps.
// Errors without a structured code report CodeUnknown.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// HasCode reports whether err or any wrapped error carries the given code.
func HasCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
