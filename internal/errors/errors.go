package errors

import (
	"errors"
	"fmt"
)

// Error codes for programmatic handling.
const (
	CodeValidation    = "VALIDATION_FAILED"
	CodeStorage       = "STORAGE_FAILED"
	CodeInvalidTarget = "INVALID_TARGET_TIER"
	CodeNotFound      = "MEMORY_NOT_FOUND"
	CodeConfigInvalid = "CONFIG_INVALID"
	CodeProviderError = "PROVIDER_ERROR"
	CodeAPIKeyMissing = "API_KEY_MISSING"
)

// CompassError is a structured error with a code and actionable suggestion.
type CompassError struct {
	Code       string // machine-readable code (e.g. STORAGE_FAILED)
	Message    string // human-readable description
	Suggestion string // actionable fix
	Err        error  // wrapped underlying error
}

// Error implements the error interface.
func (e *CompassError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap supports errors.Is / errors.As.
func (e *CompassError) Unwrap() error {
	return e.Err
}

// New creates a CompassError with the given code and message.
func New(code, message string) *CompassError {
	return &CompassError{Code: code, Message: message}
}

// Wrap creates a CompassError wrapping an existing error.
func Wrap(code, message string, err error) *CompassError {
	return &CompassError{Code: code, Message: message, Err: err}
}

// WithSuggestion returns a copy with the suggestion set.
func (e *CompassError) WithSuggestion(suggestion string) *CompassError {
	e.Suggestion = suggestion
	return e
}

// Is checks whether target matches this error's code.
func (e *CompassError) Is(target error) bool {
	var ce *CompassError
	if errors.As(target, &ce) {
		return e.Code == ce.Code
	}
	return false
}

// AsCode extracts the CompassError code from an error, or "" if not a CompassError.
func AsCode(err error) string {
	var ce *CompassError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code string) bool {
	return AsCode(err) == code
}

// Suggestion extracts the suggestion from an error, or "" if not a CompassError.
func Suggestion(err error) string {
	var ce *CompassError
	if errors.As(err, &ce) {
		return ce.Suggestion
	}
	return ""
}
