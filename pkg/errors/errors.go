// Package errors provides structured error types for brickgrid.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the store, gesture engines, CLI and API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Layout Store commands fail with one of three validation codes:
//   - INVALID_POSITION: a move would place a brick at a negative origin
//   - OUT_OF_BOUNDS: a manifest or position declares min > max
//   - CYCLIC_PARENT: a reparent would make a brick its own ancestor
//
// All three are local and recoverable. A failed command leaves the store
// unchanged, so callers log or surface the error and carry on.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidPosition, "origin (%d,%d) is negative", x, y)
//	if errors.Is(err, errors.ErrCodeInvalidPosition) {
//	    // reject the drop
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidDocument, origErr, "decode page %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Layout validation errors
	ErrCodeInvalidPosition Code = "INVALID_POSITION"
	ErrCodeOutOfBounds     Code = "OUT_OF_BOUNDS"
	ErrCodeCyclicParent    Code = "CYCLIC_PARENT"
	ErrCodeInvalidParent   Code = "INVALID_PARENT"
	ErrCodeDuplicateID     Code = "DUPLICATE_ID"

	// Input validation errors
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInvalidBreakpoint Code = "INVALID_BREAKPOINT"
	ErrCodeInvalidDocument   Code = "INVALID_DOCUMENT"
	ErrCodeInvalidManifest   Code = "INVALID_MANIFEST"
	ErrCodeInvalidTemplate   Code = "INVALID_TEMPLATE"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Gesture errors
	ErrCodeGestureDisabled Code = "GESTURE_DISABLED"
	ErrCodeGestureBusy     Code = "GESTURE_BUSY"
	ErrCodeGestureIdle     Code = "GESTURE_IDLE"

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

// IsValidation reports whether err is one of the recoverable layout
// validation failures raised by store commands.
func IsValidation(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidPosition, ErrCodeOutOfBounds, ErrCodeCyclicParent,
		ErrCodeInvalidParent, ErrCodeDuplicateID, ErrCodeInvalidInput,
		ErrCodeInvalidBreakpoint:
		return true
	}
	return false
}
