package common

import (
	"errors"
	"fmt"
)

// Pipeline error taxonomy. Callers match with errors.Is.
var (
	ErrValidation           = errors.New("validation error")
	ErrUnsupportedFormat    = fmt.Errorf("%w: unsupported format", ErrValidation)
	ErrRateLimited          = errors.New("rate limited")
	ErrUpstreamRateLimited  = errors.New("upstream rate limited")
	ErrUpstreamUnavailable  = errors.New("upstream unavailable")
	ErrNoData               = errors.New("no data")
	ErrInsufficientData     = errors.New("insufficient data")
	ErrSentimentUnavailable = errors.New("sentiment unavailable")
)

// UpstreamError describes a provider failure after the retry budget was spent.
// It unwraps to both its Kind sentinel and the last provider error.
type UpstreamError struct {
	Kind     error
	Symbol   string
	Attempts int
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%v for %s after %d attempt(s): %v", e.Kind, e.Symbol, e.Attempts, e.Err)
}

func (e *UpstreamError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// RateLimitError reports which counter scope rejected a request
type RateLimitError struct {
	Scope string
	Limit int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s scope (limit %d)", e.Scope, e.Limit)
}

func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

// Validationf builds an ErrValidation with a formatted detail message
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
