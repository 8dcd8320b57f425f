package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a structured error code
type ErrorCode string

const (
	// Configuration errors
	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"

	// Database errors
	ErrCodeDatabaseQuery ErrorCode = "DATABASE_QUERY"

	// Resource errors
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	ErrCodeConflict ErrorCode = "CONFLICT"

	// Validation errors
	ErrCodeValidation   ErrorCode = "VALIDATION"
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"

	// Media intake errors
	ErrCodeInvalidFormat   ErrorCode = "INVALID_FORMAT"
	ErrCodeTooLarge        ErrorCode = "TOO_LARGE"
	ErrCodePayloadTooLarge ErrorCode = "PAYLOAD_TOO_LARGE"

	// External service errors
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE"
	ErrCodeAPITimeout      ErrorCode = "API_TIMEOUT"

	// Internal errors
	ErrCodeInternal ErrorCode = "INTERNAL"

	// Authentication/Authorization errors
	ErrCodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"
	ErrCodeConfirmation     ErrorCode = "CONFIRMATION_REQUIRED"
)

// AppError represents a structured application error
type AppError struct {
	Code     ErrorCode              `json:"code"`
	Message  string                 `json:"message"`
	Details  map[string]interface{} `json:"details,omitempty"`
	Cause    error                  `json:"-"`
	HTTPCode int                    `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying cause
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// GetHTTPCode returns the appropriate HTTP status code
func (e *AppError) GetHTTPCode() int {
	if e.HTTPCode != 0 {
		return e.HTTPCode
	}
	return getDefaultHTTPCode(e.Code)
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		HTTPCode: getDefaultHTTPCode(code),
	}
}

// Newf creates a new AppError with formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with an AppError
func Wrap(cause error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		Cause:    cause,
		HTTPCode: getDefaultHTTPCode(code),
	}
}

func getDefaultHTTPCode(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeValidation, ErrCodeMissingField:
		return http.StatusBadRequest
	case ErrCodeInvalidFormat:
		return http.StatusUnsupportedMediaType
	case ErrCodeTooLarge, ErrCodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodePermissionDenied:
		return http.StatusForbidden
	case ErrCodeConfirmation:
		return http.StatusPreconditionRequired
	case ErrCodeAPITimeout:
		return http.StatusGatewayTimeout
	case ErrCodeExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Common error constructors

// NotFound creates a not found error
func NotFound(resource string, id interface{}) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource)).
		WithDetail("resource", resource).
		WithDetail("id", id)
}

// Conflict creates a conflict error
func Conflict(message string) *AppError {
	return New(ErrCodeConflict, message)
}

// ValidationError creates a validation error
func ValidationError(field string, reason string) *AppError {
	return New(ErrCodeValidation, reason).
		WithDetail("field", field)
}

// MissingFieldError creates a missing field error
func MissingFieldError(field string, message string) *AppError {
	return New(ErrCodeMissingField, message).
		WithDetail("field", field)
}

// InvalidFormat creates an error for audio the intake does not accept
func InvalidFormat(name, contentType string) *AppError {
	return New(ErrCodeInvalidFormat, "Please upload an audio file (MP3, WAV, WebM, OGG, M4A, AAC, FLAC).").
		WithDetail("filename", name).
		WithDetail("content_type", contentType)
}

// TooLarge creates an error for files above the intake ceiling
func TooLarge(size, limit int64) *AppError {
	return Newf(ErrCodeTooLarge, "File is too large. Maximum size is %d MB.", limit/(1024*1024)).
		WithDetail("size", size).
		WithDetail("limit", limit)
}

// PayloadTooLarge creates an error for audio above the transcription service limit
func PayloadTooLarge(size, limit int64) *AppError {
	return Newf(ErrCodePayloadTooLarge, "Audio file is too large for transcription. Maximum size is %d MB.", limit/(1024*1024)).
		WithDetail("size", size).
		WithDetail("limit", limit)
}

// PermissionDenied creates a permission error
func PermissionDenied(message string) *AppError {
	return New(ErrCodePermissionDenied, message)
}

// DatabaseError creates a database error carrying the store's message
func DatabaseError(operation string, cause error) *AppError {
	return Wrap(cause, ErrCodeDatabaseQuery, fmt.Sprintf("Error %s: %v", operation, cause)).
		WithDetail("operation", operation)
}

// ExternalServiceError creates an external service error
func ExternalServiceError(service string, message string, cause error) *AppError {
	return Wrap(cause, ErrCodeExternalService, message).
		WithDetail("service", service)
}

// ConfigError creates a configuration error
func ConfigError(key string, message string) *AppError {
	return New(ErrCodeConfigInvalid, message).
		WithDetail("key", key)
}

// TimeoutError creates a timeout error
func TimeoutError(operation string, timeout string) *AppError {
	return New(ErrCodeAPITimeout, fmt.Sprintf("operation '%s' timed out after %s", operation, timeout)).
		WithDetail("operation", operation).
		WithDetail("timeout", timeout)
}

// As finds the first AppError in err's chain
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is checks if an error is of a specific type
func Is(err error, code ErrorCode) bool {
	if appErr, ok := As(err); ok {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}

// GetHTTPCode extracts the HTTP status code from an error
func GetHTTPCode(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.GetHTTPCode()
	}
	return http.StatusInternalServerError
}
