package common

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind is the machine-readable error category carried alongside the
// HTTP status; distinct kinds may share a status (dispatch_frozen and
// conflict are both 409).
type ErrorKind string

const (
	KindValidation          ErrorKind = "validation"
	KindUnauthorized        ErrorKind = "unauthorized"
	KindForbidden           ErrorKind = "forbidden"
	KindNotFound            ErrorKind = "not_found"
	KindConflict            ErrorKind = "conflict"
	KindDispatchFrozen      ErrorKind = "dispatch_frozen"
	KindConstraintViolation ErrorKind = "constraint_violation"
	KindUnimplemented       ErrorKind = "unimplemented"
	KindInternal            ErrorKind = "internal"
	KindUnavailable         ErrorKind = "unavailable"
)

// AppError is the error shape every service layer returns across the HTTP
// boundary. Code is the HTTP status, Kind the machine-readable category,
// Message is safe to show to the caller, Err carries the underlying cause
// for logs.
type AppError struct {
	Code    int       `json:"code"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// AsAppError extracts an *AppError from an error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// NewBadRequestError creates a 400 error for invalid input
func NewBadRequestError(message string, err error) *AppError {
	return &AppError{Code: http.StatusBadRequest, Kind: KindValidation, Message: message, Err: err}
}

// NewUnauthorizedError creates a 401 error
func NewUnauthorizedError(message string) *AppError {
	return &AppError{Code: http.StatusUnauthorized, Kind: KindUnauthorized, Message: message}
}

// NewForbiddenError creates a 403 error
func NewForbiddenError(message string) *AppError {
	return &AppError{Code: http.StatusForbidden, Kind: KindForbidden, Message: message}
}

// NewNotFoundError creates a 404 error for missing entities
func NewNotFoundError(message string, err error) *AppError {
	return &AppError{Code: http.StatusNotFound, Kind: KindNotFound, Message: message, Err: err}
}

// NewConflictError creates a 409 error for duplicate or contended state
func NewConflictError(message string) *AppError {
	return &AppError{Code: http.StatusConflict, Kind: KindConflict, Message: message}
}

// NewDispatchFrozenError creates a 409 error for mutations against an
// already-dispatched day.
func NewDispatchFrozenError(message string) *AppError {
	return &AppError{Code: http.StatusConflict, Kind: KindDispatchFrozen, Message: message}
}

// NewConstraintViolationError creates a 422 error for scheduling constraint
// failures (capacity, charter exclusivity, time overlap).
func NewConstraintViolationError(message string) *AppError {
	return &AppError{Code: http.StatusUnprocessableEntity, Kind: KindConstraintViolation, Message: message}
}

// NewUnimplementedError creates a 501 error for features that are surfaced
// but intentionally not built out.
func NewUnimplementedError(message string) *AppError {
	return &AppError{Code: http.StatusNotImplemented, Kind: KindUnimplemented, Message: message}
}

// NewInternalServerError creates a 500 error
func NewInternalServerError(message string) *AppError {
	return &AppError{Code: http.StatusInternalServerError, Kind: KindInternal, Message: message}
}

// NewInternalError creates a 500 error with an underlying cause
func NewInternalError(message string, err error) *AppError {
	return &AppError{Code: http.StatusInternalServerError, Kind: KindInternal, Message: message, Err: err}
}

// NewServiceUnavailableError creates a 503 error
func NewServiceUnavailableError(message string) *AppError {
	return &AppError{Code: http.StatusServiceUnavailable, Kind: KindUnavailable, Message: message}
}
