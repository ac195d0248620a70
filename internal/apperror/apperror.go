// Package apperror defines the domain errors shared by the service and
// repository layers. HTTP handlers map the sentinels to status codes.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("Validation Error")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrSelfLike        = errors.New("self like forbidden")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// EmailTaken reports a registration against an email that already has an account.
func EmailTaken(email string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("email %s is already in use", email),
		Field:   "email",
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// PermissionDenied is the Forbidden error produced by ownership checks,
// e.g. "you do not have permission to delete this answer".
func PermissionDenied(action, resource string) *AppError {
	return Forbidden(fmt.Sprintf("you do not have permission to %s this %s", action, resource))
}

// Unauthenticated means the request carried no usable credentials.
// HTTP handlers map this to 401 Unauthorized.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: message,
	}
}

// SelfLikeForbidden is returned when an author tries to like their own
// question or answer. noun is the target kind as users see it.
func SelfLikeForbidden(noun string) *AppError {
	return &AppError{
		Err:     ErrSelfLike,
		Message: fmt.Sprintf("you cannot like your own %s", noun),
	}
}
