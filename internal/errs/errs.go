// Package errs defines the coded error taxonomy for the document engine.
//
// Corrupt geometry is deliberately absent: a degenerate transform is
// recovered in place (identity substitution) and never surfaces as an error.
package errs

import "errors"

// Code is an application error code.
type Code string

const (
	// InvalidArgument covers malformed input, including import records that
	// fail field-level validation.
	InvalidArgument Code = "invalid_argument"
	// NotFound marks reads of absent notes or folders.
	NotFound Code = "not_found"
	// Unavailable marks storage failures where the transaction could not
	// commit. The in-memory document is retained for retry.
	Unavailable Code = "unavailable"
	Internal    Code = "internal"
)

// Error is a coded application error.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a coded error with message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a coded error with message and cause.
func Wrap(code Code, message string, cause error) error {
	return &Error{Code: code, Message: message, Err: cause}
}

// CodeOf returns the error code, defaulting to internal.
func CodeOf(err error) Code {
	if err == nil {
		return Internal
	}
	var coded *Error
	if errors.As(err, &coded) {
		if coded.Code == "" {
			return Internal
		}
		return coded.Code
	}
	return Internal
}

// MessageOf returns a user-facing error message. Errors without a typed
// wrapper collapse to "internal error" so raw driver errors and file paths
// never reach UI surfaces.
func MessageOf(err error) string {
	if err == nil {
		return string(Internal)
	}
	var coded *Error
	if errors.As(err, &coded) && coded.Message != "" {
		return coded.Message
	}
	return "internal error"
}
