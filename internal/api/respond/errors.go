// Package respond writes the API's JSON envelopes and maps domain errors to
// HTTP errors.
package respond

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/good-yellow-bee/atelier/internal/access"
	"github.com/good-yellow-bee/atelier/internal/auth"
	"github.com/good-yellow-bee/atelier/internal/files"
	"github.com/good-yellow-bee/atelier/internal/projects"
	"github.com/good-yellow-bee/atelier/internal/storage"
	"github.com/good-yellow-bee/atelier/internal/validate"
)

// Error represents an API error response.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *Error) Error() string {
	return e.Message
}

// Common error codes
const (
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeConflict         = "CONFLICT"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeStorageError     = "STORAGE_ERROR"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodeAccountLocked    = "ACCOUNT_LOCKED"
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeTooLarge         = "TOO_LARGE"
)

// Standard errors
var (
	ErrUnauthenticated = &Error{
		Code:    ErrCodeUnauthorized,
		Message: "Please login to access this page",
		Status:  http.StatusUnauthorized,
	}

	ErrUnauthorizedRole = &Error{
		Code:    ErrCodeForbidden,
		Message: "Unauthorized access",
		Status:  http.StatusForbidden,
	}

	ErrForbidden = &Error{
		Code:    ErrCodeForbidden,
		Message: "Access denied",
		Status:  http.StatusForbidden,
	}

	ErrNotFound = &Error{
		Code:    ErrCodeNotFound,
		Message: "Resource not found",
		Status:  http.StatusNotFound,
	}

	ErrInternalServer = &Error{
		Code:    ErrCodeInternalError,
		Message: "Internal server error",
		Status:  http.StatusInternalServerError,
	}

	ErrStorage = &Error{
		Code:    ErrCodeStorageError,
		Message: "Could not save the file",
		Status:  http.StatusInternalServerError,
	}

	ErrRateLimited = &Error{
		Code:    ErrCodeRateLimited,
		Message: "Too many requests",
		Status:  http.StatusTooManyRequests,
	}

	ErrAccountLocked = &Error{
		Code:    ErrCodeAccountLocked,
		Message: "Account temporarily locked due to too many failed attempts",
		Status:  http.StatusTooManyRequests,
	}
)

// NewBadRequest creates a bad request error with custom message.
func NewBadRequest(message string) *Error {
	return &Error{
		Code:    ErrCodeBadRequest,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

// NewValidationError creates a validation error with custom message.
func NewValidationError(message string) *Error {
	return &Error{
		Code:    ErrCodeValidationFailed,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

// NewConflict creates a conflict error with custom message.
func NewConflict(message string) *Error {
	return &Error{
		Code:    ErrCodeConflict,
		Message: message,
		Status:  http.StatusConflict,
	}
}

// NewNotFound creates a not found error with custom message.
func NewNotFound(message string) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Message: message,
		Status:  http.StatusNotFound,
	}
}

// NewUnauthorized creates a 401 with a caller-chosen message.
func NewUnauthorized(message string) *Error {
	return &Error{
		Code:    ErrCodeUnauthorized,
		Message: message,
		Status:  http.StatusUnauthorized,
	}
}

// FromError maps a domain error to an API error. Unrecognized errors become
// ErrInternalServer.
func FromError(err error) *Error {
	var (
		apiErr *Error
		ve     *validate.Error
		swe    *files.StorageWriteError
		mbe    *http.MaxBytesError
	)
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.As(err, &ve):
		return NewValidationError(strings.Join(ve.Messages, "; "))
	case errors.As(err, &mbe):
		return &Error{Code: ErrCodeTooLarge, Message: "Upload too large", Status: http.StatusRequestEntityTooLarge}
	case errors.As(err, &swe):
		return ErrStorage
	case errors.Is(err, files.ErrInvalidPath):
		return NewBadRequest(err.Error())
	case errors.Is(err, auth.ErrDuplicateEmail):
		return NewConflict("Email already registered")
	case errors.Is(err, auth.ErrAccountLocked):
		return ErrAccountLocked
	case errors.Is(err, access.ErrUnauthenticated):
		return ErrUnauthenticated
	case errors.Is(err, access.ErrUnauthorizedRole):
		return ErrUnauthorizedRole
	case errors.Is(err, access.ErrForbidden):
		return ErrForbidden
	case errors.Is(err, access.ErrNotFound):
		return NewNotFound("Project not found")
	case errors.Is(err, projects.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return ErrNotFound
	default:
		return ErrInternalServer
	}
}

// Err writes err as an API error. Internal errors are logged with the
// operation name; their detail never reaches the client.
func Err(w http.ResponseWriter, logger *zap.SugaredLogger, op string, err error) {
	apiErr := FromError(err)
	if apiErr.Status >= http.StatusInternalServerError && logger != nil {
		logger.Errorw(op+" failed", "error", err)
	}
	JSONError(w, apiErr)
}
