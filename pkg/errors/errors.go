package errors

import (
	"errors"
	"fmt"
	"net/http"

	"foodshare/internal/infrastructure/docstore"
)

const (
	CodeNotFound         = "NOT_FOUND"
	CodeBadRequest       = "BAD_REQUEST"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeConflict         = "CONFLICT"
	CodeInternal         = "INTERNAL_ERROR"
	CodeTooManyRequests  = "TOO_MANY_REQUESTS"
	CodePermissionDenied = "PERMISSION_DENIED"
	CodeIndexRequired    = "INDEX_REQUIRED"
	CodeUnavailable      = "SERVICE_UNAVAILABLE"
)

type AppError struct {
	Code    string
	Message string
	Status  int
	// Retryable marks failures the user can retry by hand (connectivity).
	Retryable bool
	Err       error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code string, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    CodeBadRequest,
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

func Unauthorized(message string, err error) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     err,
	}
}

func Forbidden(message string, err error) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
		Status:  http.StatusForbidden,
		Err:     err,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: message,
		Status:  http.StatusConflict,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

func TooManyRequests(message string) *AppError {
	return &AppError{
		Code:      CodeTooManyRequests,
		Message:   message,
		Status:    http.StatusTooManyRequests,
		Retryable: true,
	}
}

// PermissionDenied is the store refusing an operation under its access rules.
func PermissionDenied(message string, err error) *AppError {
	return &AppError{
		Code:    CodePermissionDenied,
		Message: message,
		Status:  http.StatusForbidden,
		Err:     err,
	}
}

// IndexRequired means the store needs a composite index for the query.
func IndexRequired(message string, err error) *AppError {
	return &AppError{
		Code:    CodeIndexRequired,
		Message: message,
		Status:  http.StatusPreconditionFailed,
		Err:     err,
	}
}

func Unavailable(message string, err error) *AppError {
	return &AppError{
		Code:      CodeUnavailable,
		Message:   message,
		Status:    http.StatusServiceUnavailable,
		Retryable: true,
		Err:       err,
	}
}

// FromStore converts a document store error into an AppError. AppErrors
// pass through untouched.
func FromStore(err error, resource string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}

	err = docstore.Classify(err)
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		return NotFound(resource, err)
	case errors.Is(err, docstore.ErrPermissionDenied):
		return PermissionDenied(fmt.Sprintf("Access to %s was denied", resource), err)
	case errors.Is(err, docstore.ErrFailedPrecondition):
		return IndexRequired(fmt.Sprintf("Query on %s requires an index", resource), err)
	case errors.Is(err, docstore.ErrUnavailable):
		return Unavailable("Connection problem. Please check your network and try again", err)
	case errors.Is(err, docstore.ErrInvalidPath):
		return BadRequest(fmt.Sprintf("Invalid %s reference", resource), err)
	}
	return Internal(fmt.Sprintf("Failed to access %s", resource), err)
}

func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
