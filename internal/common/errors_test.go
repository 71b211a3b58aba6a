package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpstreamError_UnwrapsKindAndCause(t *testing.T) {
	cause := errors.New("status 503")
	err := error(&UpstreamError{Kind: ErrUpstreamUnavailable, Symbol: "TCS.NS", Attempts: 5, Err: cause})

	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrUpstreamRateLimited)
	assert.Contains(t, err.Error(), "after 5 attempt(s)")
	assert.Contains(t, err.Error(), "TCS.NS")
}

func TestUnsupportedFormat_IsValidation(t *testing.T) {
	err := fmt.Errorf("format %q: %w", "xml", ErrUnsupportedFormat)

	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRateLimitError(t *testing.T) {
	err := error(&RateLimitError{Scope: "global", Limit: 100})

	assert.ErrorIs(t, err, ErrRateLimited)
	var rle *RateLimitError
	assert.True(t, errors.As(err, &rle))
	assert.Equal(t, "global", rle.Scope)
}

func TestValidationf(t *testing.T) {
	err := Validationf("symbol is required")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "validation error: symbol is required", err.Error())
}
