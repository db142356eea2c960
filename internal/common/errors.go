package common

import (
	"fmt"
	"net/http"
)

// AppError is an error with the HTTP status and stable code it is reported
// with. Message and Details are client-visible; the wrapped cause is not.
type AppError struct {
	Status  int
	Code    string
	Message string
	Details any
	cause   error
}

func newAppError(status int, code, message string, cause error) *AppError {
	return &AppError{Status: status, Code: code, Message: message, cause: cause}
}

func (e *AppError) Error() string {
	if e.cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.cause)
}

func (e *AppError) Unwrap() error { return e.cause }

// WithDetails attaches client-visible details and returns the same error.
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// BadRequest is a 400 for malformed payloads.
func BadRequest(message string, cause error) *AppError {
	return newAppError(http.StatusBadRequest, "BAD_REQUEST", message, cause)
}

// NotFound is a 404.
func NotFound(message string, cause error) *AppError {
	return newAppError(http.StatusNotFound, "NOT_FOUND", message, cause)
}

// Conflict is a 409.
func Conflict(message string, cause error) *AppError {
	return newAppError(http.StatusConflict, "CONFLICT", message, cause)
}

// Unprocessable is a 422 for well-formed requests that fail domain validation.
func Unprocessable(message string, cause error) *AppError {
	return newAppError(http.StatusUnprocessableEntity, "UNPROCESSABLE", message, cause)
}

// Rejected is a 422 for a field value that does not match its input format.
// The stored value is left unchanged.
func Rejected(message string, cause error) *AppError {
	return newAppError(http.StatusUnprocessableEntity, "REJECTED_INPUT", message, cause)
}
