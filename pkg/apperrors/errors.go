package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is implemented by every application error so the HTTP layer can
// map failures to stable status codes and machine-readable kinds.
type AppError interface {
	error
	HTTPStatus() int
	Code() string
}

// ValidationError represents bad or missing caller input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) HTTPStatus() int { return http.StatusBadRequest }
func (e *ValidationError) Code() string    { return "VALIDATION_ERROR" }

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError represents an unknown resource id.
type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	if e.ID != 0 {
		return fmt.Sprintf("%s with ID %d not found", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) HTTPStatus() int { return http.StatusNotFound }
func (e *NotFoundError) Code() string    { return "NOT_FOUND" }

func NewNotFoundError(resource string, id int64) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ForbiddenError represents an authenticated caller acting outside their
// permissions.
type ForbiddenError struct {
	Action string
}

func (e *ForbiddenError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("forbidden: cannot %s", e.Action)
	}
	return "forbidden"
}

func (e *ForbiddenError) HTTPStatus() int { return http.StatusForbidden }
func (e *ForbiddenError) Code() string    { return "FORBIDDEN" }

func NewForbiddenError(action string) *ForbiddenError {
	return &ForbiddenError{Action: action}
}

// UnauthorizedError represents a missing or failed authentication.
type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unauthorized: %s", e.Reason)
	}
	return "unauthorized"
}

func (e *UnauthorizedError) HTTPStatus() int { return http.StatusUnauthorized }
func (e *UnauthorizedError) Code() string    { return "UNAUTHORIZED" }

func NewUnauthorizedError(reason string) *UnauthorizedError {
	return &UnauthorizedError{Reason: reason}
}

// ConflictError represents a violated configuration invariant, such as two
// active workflows for one request type or a duplicate step order.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) HTTPStatus() int { return http.StatusConflict }
func (e *ConflictError) Code() string    { return "CONFLICT" }

func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

// InvalidStateError represents a request that is not in the lifecycle state
// required by the attempted transition.
type InvalidStateError struct {
	Message string
}

func (e *InvalidStateError) Error() string { return e.Message }

func (e *InvalidStateError) HTTPStatus() int { return http.StatusBadRequest }
func (e *InvalidStateError) Code() string    { return "INVALID_STATE" }

func NewInvalidStateError(message string) *InvalidStateError {
	return &InvalidStateError{Message: message}
}

// StatusOf resolves the HTTP status for any error, defaulting to 500 for
// errors outside the taxonomy.
func StatusOf(err error) int {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// CodeOf resolves the stable error kind for any error.
func CodeOf(err error) string {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}
	return "INTERNAL"
}
