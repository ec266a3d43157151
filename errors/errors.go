package errors

import (
	"fmt"
	"time"
)

// Application error types organized by category for better error handling

type ErrorType string

// Domain/Business Logic Errors - errors related to business rules and validation
const (
	ValidationError    ErrorType = "VALIDATION_ERROR"
	NotFoundError      ErrorType = "NOT_FOUND_ERROR"
	AlreadyExistsError ErrorType = "ALREADY_EXISTS_ERROR"
	TokenError         ErrorType = "TOKEN_ERROR"
	RateLimitError     ErrorType = "RATE_LIMIT_ERROR"
)

// Infrastructure Errors - errors related to external systems and services
const (
	StoreError       ErrorType = "STORE_ERROR"
	ExternalAPIError ErrorType = "EXTERNAL_API_ERROR"
	EmailError       ErrorType = "EMAIL_ERROR"
	SourceError      ErrorType = "SOURCE_ERROR"
	AllSourcesFailed ErrorType = "ALL_SOURCES_FAILED"
)

// System/Configuration Errors - errors related to system setup and configuration
const (
	ConfigurationError ErrorType = "CONFIGURATION_ERROR"
)

type AppError struct {
	Type    ErrorType
	Message string
	Cause   error

	// RetryAfter is populated only for RateLimitError
	RetryAfter time.Duration
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(errorType ErrorType, message string) *AppError {
	return &AppError{
		Type:    errorType,
		Message: message,
	}
}

func Wrap(errorType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// Domain/Business Logic Error Constructors
func NewValidationError(message string) *AppError {
	return New(ValidationError, message)
}

func NewNotFoundError(message string) *AppError {
	return New(NotFoundError, message)
}

func NewAlreadyExistsError(message string) *AppError {
	return New(AlreadyExistsError, message)
}

func NewTokenError(message string) *AppError {
	return New(TokenError, message)
}

// NewRateLimitError reports an over-limit request and how long the caller
// should wait before retrying.
func NewRateLimitError(retryAfter time.Duration) *AppError {
	return &AppError{
		Type:       RateLimitError,
		Message:    "too many requests",
		RetryAfter: retryAfter,
	}
}

// Infrastructure Error Constructors
func NewStoreError(message string, cause error) *AppError {
	return Wrap(StoreError, message, cause)
}

func NewExternalAPIError(message string, cause error) *AppError {
	return Wrap(ExternalAPIError, message, cause)
}

func NewEmailError(message string, cause error) *AppError {
	return Wrap(EmailError, message, cause)
}

// NewSourceError reports a single quality source failing; the aggregation
// chain treats it as non-fatal and falls through to the next source.
func NewSourceError(source string, cause error) *AppError {
	return Wrap(SourceError, fmt.Sprintf("source %s unavailable", source), cause)
}

// NewAllSourcesFailedError is fatal for a metrics request: every configured
// source was exhausted without producing a snapshot.
func NewAllSourcesFailedError(cause error) *AppError {
	return Wrap(AllSourcesFailed, "all quality sources failed", cause)
}

// System/Configuration Error Constructors
func NewConfigurationError(message string, cause error) *AppError {
	return Wrap(ConfigurationError, message, cause)
}
