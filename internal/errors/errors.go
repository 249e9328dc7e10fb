// Package errors provides unified error handling for the service.
// It implements structured error types with machine-readable codes,
// HTTP status mapping, and retryable detection.
package errors

import (
	"fmt"
	"net/http"
	"time"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Provider error constructors ---

// ProviderUnavailable creates a new AppError for a provider that rejected or
// could not be reached by an outbound call. Transient; not retried by the core.
func ProviderUnavailable(provider string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeProviderUnavailable, Message: fmt.Sprintf("The %s provider is temporarily unavailable. Please try again.", provider),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"provider": provider}, Cause: cause,
	}
}

// InvalidAudioReference creates a new AppError for an audio source the STT
// provider rejected synchronously.
func InvalidAudioReference(reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidAudioReference, Message: fmt.Sprintf("Invalid audio reference: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// JobNotFound creates a new AppError for an unknown transcription job id.
func JobNotFound(jobID string) *AppError {
	return &AppError{
		Code: ErrCodeJobNotFound, Message: "The requested transcription job was not found.",
		HTTPStatus: http.StatusNotFound, Retryable: false,
		Details: map[string]any{"job_id": jobID},
	}
}

// STTTimeout creates a new AppError for a transcription job that did not reach
// a terminal state before the configured deadline.
func STTTimeout(jobID string, timeout time.Duration) *AppError {
	return &AppError{
		Code: ErrCodeSTTTimeout, Message: "Transcription did not complete in time.",
		HTTPStatus: http.StatusRequestTimeout, Retryable: true,
		Details: map[string]any{"job_id": jobID, "timeout": timeout.String()},
	}
}

// AnalysisProviderError creates a new AppError for a failed analysis provider call.
func AnalysisProviderError(provider string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeAnalysisProvider, Message: fmt.Sprintf("The %s analysis provider encountered an error.", provider),
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"provider": provider}, Cause: cause,
	}
}

// MalformedProviderReply creates a new AppError for a provider reply that could
// not be mapped onto the expected structure.
func MalformedProviderReply(provider, reason string) *AppError {
	return &AppError{
		Code: ErrCodeMalformedReply, Message: fmt.Sprintf("The %s provider returned a reply that could not be parsed: %s", provider, reason),
		HTTPStatus: http.StatusBadGateway, Retryable: false,
		Details: map[string]any{"provider": provider},
	}
}

// --- Common error constructors ---

// NotFound creates a new AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Retryable: false, Details: details,
	}
}

// AlreadyExists creates a new AppError for a resource that already exists.
func AlreadyExists(resource string) *AppError {
	return &AppError{
		Code: ErrCodeAlreadyExists, Message: fmt.Sprintf("A %s with these details already exists.", resource),
		HTTPStatus: http.StatusConflict, Retryable: false,
		Details: map[string]any{"resource": resource},
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false, Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// MissingField creates a new AppError for a missing required field.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("Missing required field: %s", field),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"field": field},
	}
}

// Unauthorized creates a new AppError for unauthorized access.
func Unauthorized(reason string) *AppError {
	if reason == "" {
		reason = "Authentication required."
	}
	return &AppError{
		Code: ErrCodeUnauthorized, Message: reason,
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
	}
}

// Forbidden creates a new AppError for forbidden access.
func Forbidden(reason string) *AppError {
	if reason == "" {
		reason = "You don't have permission to perform this action."
	}
	return &AppError{
		Code: ErrCodeForbidden, Message: reason,
		HTTPStatus: http.StatusForbidden, Retryable: false,
	}
}

// TokenExpired creates a new AppError for an expired authentication token.
func TokenExpired() *AppError {
	return &AppError{
		Code: ErrCodeTokenExpired, Message: "Your token has expired. Please log in again.",
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
	}
}

// InvalidToken creates a new AppError for an invalid authentication token.
func InvalidToken() *AppError {
	return &AppError{
		Code: ErrCodeInvalidToken, Message: "Invalid authentication token.",
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
	}
}

// Internal creates a new AppError for an internal server error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred. Please try again or contact support.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}

// DatabaseError creates a new AppError for a database error.
func DatabaseError(cause error) *AppError {
	return &AppError{
		Code: ErrCodeDatabaseError, Message: "A database error occurred. Please try again.",
		HTTPStatus: http.StatusInternalServerError, Retryable: true, Cause: cause,
	}
}
