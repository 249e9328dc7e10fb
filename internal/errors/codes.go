package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Provider errors
const (
	// ErrCodeProviderUnavailable indicates an external provider rejected or
	// could not serve a request. Transient.
	ErrCodeProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
	// ErrCodeInvalidAudioReference indicates the STT provider rejected the audio source.
	ErrCodeInvalidAudioReference ErrorCode = "INVALID_AUDIO_REFERENCE"
	// ErrCodeJobNotFound indicates the transcription job id is unknown.
	ErrCodeJobNotFound ErrorCode = "JOB_NOT_FOUND"
	// ErrCodeSTTTimeout indicates transcription did not finish before the deadline.
	ErrCodeSTTTimeout ErrorCode = "STT_TIMEOUT"
	// ErrCodeAnalysisProvider indicates the analysis provider call failed.
	ErrCodeAnalysisProvider ErrorCode = "ANALYSIS_PROVIDER_ERROR"
	// ErrCodeMalformedReply indicates a provider reply could not be parsed.
	ErrCodeMalformedReply ErrorCode = "MALFORMED_PROVIDER_REPLY"
)

// Resource errors
const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeAlreadyExists indicates the resource already exists.
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Authentication/Authorization errors
const (
	// ErrCodeUnauthorized indicates the request is unauthorized.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeForbidden indicates the request is forbidden.
	ErrCodeForbidden ErrorCode = "FORBIDDEN"
	// ErrCodeTokenExpired indicates the authentication token has expired.
	ErrCodeTokenExpired ErrorCode = "TOKEN_EXPIRED"
	// ErrCodeInvalidToken indicates the authentication token is invalid.
	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"
)

// Internal errors
const (
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeDatabaseError indicates a database error.
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeProviderUnavailable: true,
	ErrCodeSTTTimeout:          true,
	ErrCodeAnalysisProvider:    true,
	ErrCodeDatabaseError:       true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
