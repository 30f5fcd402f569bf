package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates a validation error, either raised locally
	// before a request or returned by the backend as a 4xx
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeConflict indicates a conflict with existing data
	ErrorTypeConflict ErrorType = "CONFLICT"

	// ErrorTypeUnauthorized indicates unauthorized access
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"

	// ErrorTypeInternal indicates an internal error in this process
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeExternal indicates an error from an external service
	ErrorTypeExternal ErrorType = "EXTERNAL"

	// ErrorTypeNetwork indicates the request never produced an HTTP response
	ErrorTypeNetwork ErrorType = "NETWORK"

	// ErrorTypeServer indicates the backend answered with a 5xx
	ErrorTypeServer ErrorType = "SERVER"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	// ServerMessage is the human readable message from the backend error envelope, if any.
	ServerMessage string
	StatusCode    int
	Err           error
}

// Error implements the error interface
func (e *AppError) Error() string {
	msg := e.Message
	if e.ServerMessage != "" {
		msg = fmt.Sprintf("%s (%s)", e.Message, e.ServerMessage)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, msg)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeConflict,
		Message: message,
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeUnauthorized,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// NewExternalError creates a new external service error
func NewExternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeExternal,
		Message: message,
		Err:     err,
	}
}

// NewNetworkError creates an error for a request that failed before a response arrived
func NewNetworkError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeNetwork,
		Message: message,
		Err:     err,
	}
}

// FromStatus classifies a non-2xx HTTP response.
func FromStatus(status int, message, serverMessage string) *AppError {
	var t ErrorType
	switch {
	case status == http.StatusNotFound:
		t = ErrorTypeNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		t = ErrorTypeUnauthorized
	case status == http.StatusConflict:
		t = ErrorTypeConflict
	case status >= 500:
		t = ErrorTypeServer
	default:
		t = ErrorTypeValidation
	}
	return &AppError{
		Type:          t,
		Message:       message,
		ServerMessage: serverMessage,
		StatusCode:    status,
	}
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err carries an AppError of type t.
func IsType(err error, t ErrorType) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == t
}

// UserMessage picks the text shown to staff for a failed operation: the
// backend's own message when it sent one, the message of a locally raised
// validation error, otherwise fallback.
func UserMessage(err error, fallback string) string {
	appErr, ok := As(err)
	if !ok {
		return fallback
	}
	if appErr.ServerMessage != "" {
		return appErr.ServerMessage
	}
	if appErr.Type == ErrorTypeValidation && appErr.StatusCode == 0 && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
