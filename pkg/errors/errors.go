// Package errors provides structured error types for memeforge.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the terminal editor
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures (tokens, refs, dimensions)
//   - *_NOT_FOUND: Missing layers or resources
//   - NETWORK_*: Remote image fetch failures
//   - INTERNAL_*: Unexpected internal errors
//
// None of these errors are fatal to an editing session. Callers degrade:
// a malformed share token falls back to the default state, a broken image
// ref renders as an empty layer.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidToken, "token is not base64")
//	if errors.Is(err, errors.ErrCodeInvalidToken) {
//	    state = canvas.Default()
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "fetch %s", ref)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidToken  Code = "INVALID_TOKEN"
	ErrCodeInvalidState  Code = "INVALID_STATE"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidRef    Code = "INVALID_REF"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound         Code = "NOT_FOUND"
	ErrCodeLayerNotFound    Code = "LAYER_NOT_FOUND"
	ErrCodeResourceNotFound Code = "RESOURCE_NOT_FOUND"

	// Resource loading errors
	ErrCodeResourceDecode Code = "RESOURCE_DECODE"
	ErrCodeNetwork        Code = "NETWORK_ERROR"
	ErrCodeTimeout        Code = "TIMEOUT"

	// Output errors
	ErrCodeTooLarge Code = "TOO_LARGE"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
