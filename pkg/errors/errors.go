// Package errors provides structured error handling for tracegen.
// Errors carry a code for programmatic handling plus key/value context.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Code identifies an error class.
type Code string

const (
	// Input errors (1xx)
	CodeFileNotFound     Code = "E101"
	CodeInvalidFormat    Code = "E103"
	CodeInvalidTimestamp Code = "E105"
	CodeEmptyLog         Code = "E106"

	// Processing errors (2xx)
	CodeParseFailed     Code = "E201"
	CodeInvalidArgument Code = "E202"
	CodeConfigInvalid   Code = "E203"

	// Output errors (3xx)
	CodeWriteFailed Code = "E301"

	// System errors (4xx)
	CodeContextCanceled Code = "E401"

	// Unknown
	CodeUnknown Code = "E999"
)

// Error is the base error type for all tracegen errors.
type Error struct {
	Code    Code
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(fmt.Sprintf("%s=%v", k, e.Context[k]))
		}
		sb.WriteString(")")
	}

	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}

	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithContext adds context to the error.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new Error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap wraps an existing error with a code and message. Wrap(nil, ...) returns nil.
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Cause: err}
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, code Code, format string, args ...interface{}) *Error {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// --- Convenience constructors ---

// FileNotFound creates a file not found error.
func FileNotFound(path string) *Error {
	return New(CodeFileNotFound, "file not found").WithContext("path", path)
}

// InvalidArgument creates an error for a malformed CLI or config value.
func InvalidArgument(name string, value interface{}, reason string) *Error {
	return New(CodeInvalidArgument, reason).
		WithContext("arg", name).
		WithContext("value", value)
}

// EmptyLog creates an error for a log without any timestamped events.
func EmptyLog(path string) *Error {
	return New(CodeEmptyLog, "log contains no events").WithContext("path", path)
}

// WriteFailed wraps an output failure for the named target.
func WriteFailed(target string, err error) *Error {
	return Wrap(err, CodeWriteFailed, "write failed").WithContext("target", target)
}

// ContextCanceled creates a cancellation error.
func ContextCanceled(operation string) *Error {
	return New(CodeContextCanceled, "operation canceled").
		WithContext("operation", operation)
}

// --- Error checking utilities ---

// IsCode checks if an error has a specific code.
func IsCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}
