package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrValidation
	ErrNotAuthenticated
	ErrNotAuthorized
	ErrConflict
	ErrRestricted
	ErrExternalService
	ErrInternal
)

// Error constructors
func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func Validation(message string, err error) *AppError {
	return &AppError{
		Code:    ErrValidation,
		Message: message,
		Err:     err,
	}
}

func NotAuthenticated(err error) *AppError {
	return &AppError{
		Code:    ErrNotAuthenticated,
		Message: "not authenticated",
		Err:     err,
	}
}

func NotAuthorized(message string) *AppError {
	if message == "" {
		message = "not authorized"
	}
	return &AppError{
		Code:    ErrNotAuthorized,
		Message: message,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Code:    ErrConflict,
		Message: message,
	}
}

// Restricted marks a read denied by a capability flag. It is distinct from
// NotFound so callers can tell "caretaker not authorized" apart from
// "patient has no data yet".
func Restricted(message string) *AppError {
	if message == "" {
		message = "access restricted"
	}
	return &AppError{
		Code:    ErrRestricted,
		Message: message,
	}
}

func ExternalService(message string, err error) *AppError {
	return &AppError{
		Code:    ErrExternalService,
		Message: message,
		Err:     err,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// Is reports whether err is an AppError carrying the given code.
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
