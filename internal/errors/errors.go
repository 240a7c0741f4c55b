// Package errors provides structured error types for the gridb editor.
// All errors include a category, code, message, and retryable flag for
// consistent handling across components.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by system component.
type ErrorCategory string

const (
	ErrCategorySchema   ErrorCategory = "SCHEMA"
	ErrCategoryIdentity ErrorCategory = "IDENTITY"
	ErrCategoryValue    ErrorCategory = "VALUE"
	ErrCategoryStorage  ErrorCategory = "STORAGE"
	ErrCategoryHistory  ErrorCategory = "HISTORY"
)

// Error codes for each category.
const (
	// Schema codes
	CodeSchemaError       = "SCHEMA_ERROR"
	CodeInvalidIdentifier = "INVALID_IDENTIFIER"

	// Identity codes
	CodeNoIdentity = "NO_IDENTITY"

	// Value codes
	CodeTypeMismatch = "TYPE_MISMATCH"

	// Storage codes
	CodeBusy         = "BUSY"
	CodeStorageError = "STORAGE_ERROR"

	// History codes
	CodeEmptyHistory = "EMPTY_HISTORY"
)

// EditorError is the structured error type used throughout the system.
type EditorError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Cause     error
	Retryable bool
}

// Error returns a formatted error string.
func (e *EditorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *EditorError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *EditorError) Is(target error) bool {
	var t *EditorError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new EditorError.
func New(category ErrorCategory, code, message string) *EditorError {
	return &EditorError{
		Category:  category,
		Code:      code,
		Message:   message,
		Retryable: isRetryable(code),
	}
}

// Newf creates a new EditorError with a formatted message.
func Newf(category ErrorCategory, code, format string, args ...interface{}) *EditorError {
	return New(category, code, fmt.Sprintf(format, args...))
}

// Wrap creates a new EditorError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *EditorError {
	return &EditorError{
		Category:  category,
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: isRetryable(code),
	}
}

// IsRetryable checks whether an error (or its chain) is retryable.
// Only contention (BUSY) is retryable: the caller may re-issue the
// operation; nothing in the editor retries automatically.
func IsRetryable(err error) bool {
	var ee *EditorError
	if errors.As(err, &ee) {
		return ee.Retryable
	}
	return false
}

// GetCode extracts the error code from an error chain. Returns empty
// string if the error is not an EditorError.
func GetCode(err error) string {
	var ee *EditorError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}

// HasCode reports whether the error chain carries the given code.
func HasCode(err error, code string) bool {
	return GetCode(err) == code
}

func isRetryable(code string) bool {
	return code == CodeBusy
}

// Convenience constructors for the editor's taxonomy.

// SchemaErrorf reports a missing or malformed schema object.
func SchemaErrorf(format string, args ...interface{}) *EditorError {
	return Newf(ErrCategorySchema, CodeSchemaError, format, args...)
}

// InvalidIdentifierf reports an identifier that failed allow-list validation.
func InvalidIdentifierf(format string, args ...interface{}) *EditorError {
	return Newf(ErrCategorySchema, CodeInvalidIdentifier, format, args...)
}

// NoIdentityf reports a row-level operation on an unaddressable table.
func NoIdentityf(format string, args ...interface{}) *EditorError {
	return Newf(ErrCategoryIdentity, CodeNoIdentity, format, args...)
}

// TypeMismatch reports a coercion failure on a cell edit.
func TypeMismatch(message string, cause error) *EditorError {
	return Wrap(ErrCategoryValue, CodeTypeMismatch, message, cause)
}

// Busy reports storage contention after the bounded wait expired.
func Busy(message string, cause error) *EditorError {
	return Wrap(ErrCategoryStorage, CodeBusy, message, cause)
}

// StorageError reports any other statement execution failure.
func StorageError(message string, cause error) *EditorError {
	return Wrap(ErrCategoryStorage, CodeStorageError, message, cause)
}

// EmptyHistory reports an undo or redo with nothing to replay.
func EmptyHistory(message string) *EditorError {
	return New(ErrCategoryHistory, CodeEmptyHistory, message)
}
