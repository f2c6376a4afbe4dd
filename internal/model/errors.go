package model

import (
	"errors"
	"fmt"
)

// ErrorCode classifies application errors so handlers can map them to a
// transport status and the UI can decide where to surface them.
type ErrorCode int

const (
	ErrInternal ErrorCode = iota + 1
	ErrValidation
	ErrPersistence
	ErrTimeout
	ErrUpload
	ErrNotFound
	ErrAuthentication
)

// AppError is an application error with a classification code and an
// optional wrapped cause.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped cause.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewError creates a classified application error.
func NewError(code ErrorCode, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewValidationError reports a precondition violation. No writes may have
// been attempted when this is returned.
func NewValidationError(message string) *AppError {
	return &AppError{Code: ErrValidation, Message: message}
}

// NewPersistenceError wraps a store failure.
func NewPersistenceError(message string, err error) *AppError {
	return &AppError{Code: ErrPersistence, Message: message, Err: err}
}

// CodeOf extracts the error code from err, or ErrInternal when err carries
// no classification.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
