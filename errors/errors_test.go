package errors

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	err := NewValidationError("email is required")
	assert.Equal(t, "VALIDATION_ERROR: email is required", err.Error())

	wrapped := NewStoreError("write failed", fmt.Errorf("connection reset"))
	assert.Equal(t, "STORE_ERROR: write failed (caused by: connection reset)", wrapped.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := NewStoreError("write failed", cause)

	assert.ErrorIs(t, err, cause)
}

func TestAppError_TypeSurvivesWrapping(t *testing.T) {
	inner := NewAlreadyExistsError("subscriber already exists")
	outer := fmt.Errorf("create subscriber: %w", inner)

	var appErr *AppError
	require.True(t, errors.As(outer, &appErr))
	assert.Equal(t, AlreadyExistsError, appErr.Type)
}

func TestNewRateLimitError_CarriesRetryAfter(t *testing.T) {
	err := NewRateLimitError(42 * time.Second)

	assert.Equal(t, RateLimitError, err.Type)
	assert.Equal(t, 42*time.Second, err.RetryAfter)
	assert.Equal(t, "too many requests", err.Message)
}

func TestNewSourceError_NamesTheSource(t *testing.T) {
	err := NewSourceError("proxy", fmt.Errorf("status 502"))

	assert.Equal(t, SourceError, err.Type)
	assert.Contains(t, err.Message, "proxy")
	assert.Contains(t, err.Error(), "status 502")
}

func TestNewAllSourcesFailedError(t *testing.T) {
	err := NewAllSourcesFailedError(fmt.Errorf("file missing"))

	assert.Equal(t, AllSourcesFailed, err.Type)
	assert.ErrorContains(t, err, "all quality sources failed")

	// nil cause is allowed for an empty chain
	assert.NotPanics(t, func() { _ = NewAllSourcesFailedError(nil).Error() })
}
