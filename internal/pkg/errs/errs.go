/*
Package errs provides custom error types and application-level error code constants.

This file defines the CustomError struct, which implements the standard Go error interface
and includes a business code, a user-friendly message, and an HTTP status code for unified error reporting.
*/
package errs

import (
	"errors"
	"fmt"
	"net/http"

	"roomchat/internal/pkg/logx"
)

// CustomError is the custom error structure used throughout the application.
// It wraps the Go error interface, adding a business code and HTTP status code.
type CustomError struct {
	// Code is the business error code (see constants definition).
	Code int

	// Message is the user-friendly error description.
	Message string

	// Status is the standard HTTP status code corresponding to this error.
	Status int

	// cause is the underlying error, if any. It is never shown to clients.
	cause error
}

// Error implements the standard Go error interface. It returns a formatted
// error string containing the error code, HTTP status, and message.
func (e *CustomError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("Error Code %d (HTTP %d): %s: %v", e.Code, e.Status, e.Message, e.cause)
	}
	return fmt.Sprintf("Error Code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// Unwrap returns the underlying cause so errors.Is and errors.As can see through a CustomError.
func (e *CustomError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a CustomError with the same business code.
func (e *CustomError) Is(target error) bool {
	var t *CustomError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithCause returns a copy of the error carrying err as its underlying cause.
func (e *CustomError) WithCause(err error) *CustomError {
	c := *e
	c.cause = err
	return &c
}

// NewError constructs and returns a new *CustomError instance based on a predefined error code.
// If an unknown code is provided, it defaults to returning ErrUnknown.
func NewError(code int) *CustomError {
	templateErr, ok := errorMap[code]

	if !ok {
		logx.Error(
			fmt.Errorf("attempted to create an error with an unknown code in errorMap"),
			"Unknown error code requested",
			"requested_code", code,
		)

		unknownErr := errorMap[ErrUnknown]
		return &CustomError{
			Code:    unknownErr.Code,
			Message: unknownErr.Message,
			Status:  unknownErr.Status,
		}
	}

	customErr := templateErr

	if customErr.Status == 0 {
		customErr.Status = http.StatusBadRequest
	}

	return &customErr
}

// Wrap builds the error for code and attaches err as its cause.
func Wrap(code int, err error) *CustomError {
	return NewError(code).WithCause(err)
}

// From extracts the *CustomError carried by err. A nil err yields nil, and an error
// without a CustomError in its chain is reported as ErrUnknown with err as the cause.
func From(err error) *CustomError {
	if err == nil {
		return nil
	}

	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr
	}

	logx.Error(err, "Handling ErrUnknown with underlying error")
	return Wrap(ErrUnknown, err)
}

// HasCode reports whether err carries a CustomError with the given code.
func HasCode(err error, code int) bool {
	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr.Code == code
	}
	return false
}
