package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorWrapping(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewAppError(ErrUpstreamFetch, "calendar fetch failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "UPSTREAM_FETCH_FAILED")
	assert.Contains(t, err.Error(), "connection refused")

	wrapped := fmt.Errorf("participant u1: %w", err)
	assert.True(t, IsCode(wrapped, ErrUpstreamFetch))
	assert.False(t, IsCode(wrapped, ErrNotFound))
	assert.False(t, IsCode(cause, ErrUpstreamFetch))
}

func TestAppErrorWithoutCause(t *testing.T) {
	err := NewAppError(ErrMalformedConstraint, "duration must be positive", nil)
	assert.Equal(t, "MALFORMED_CONSTRAINT: duration must be positive", err.Error())
	assert.Nil(t, err.Unwrap())
}
