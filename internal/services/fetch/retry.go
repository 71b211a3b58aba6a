package fetch

import (
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultMaxAttempts = 5
	DefaultBaseDelay   = 2 * time.Second

	maxExponent = 16
)

// ExponentialJitter is a backoff.BackOff yielding base * 2^n + jitter, where
// n is the zero-based index of the attempt that just failed.
type ExponentialJitter struct {
	Base   time.Duration
	Jitter func() time.Duration

	failed int
}

// NewExponentialJitter returns a policy with uniform [0, 1s) jitter
func NewExponentialJitter(base time.Duration) *ExponentialJitter {
	return &ExponentialJitter{Base: base, Jitter: uniformSecond}
}

// NextBackOff returns the delay before the next attempt
func (p *ExponentialJitter) NextBackOff() time.Duration {
	if p.failed > maxExponent {
		return backoff.Stop
	}
	delay := p.Base << p.failed
	p.failed++
	if p.Jitter != nil {
		delay += p.Jitter()
	}
	return delay
}

// Reset restarts the exponent
func (p *ExponentialJitter) Reset() {
	p.failed = 0
}

func uniformSecond() time.Duration {
	return time.Duration(rand.Int64N(int64(time.Second)))
}

// Status tags how a fetch ended
type Status int

const (
	StatusSuccess Status = iota
	StatusNoData
	StatusThrottled
	StatusExhausted
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusNoData:
		return "no_data"
	case StatusThrottled:
		return "throttled"
	case StatusExhausted:
		return "exhausted"
	case StatusCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Outcome is the tagged result of a retried fetch
type Outcome struct {
	Status   Status
	Attempts int
	LastErr  error
}

// throttler is implemented by provider errors that can signal rate limiting
type throttler interface {
	Throttled() bool
}

// newPolicy builds the per-call BackOff: maxAttempts-1 retries bound to ctx
func (s *Service) newPolicy() *ExponentialJitter {
	p := NewExponentialJitter(s.baseDelay)
	if s.jitter != nil {
		p.Jitter = s.jitter
	}
	return p
}

// retriesFor converts an attempt budget into the backoff retry count
func retriesFor(maxAttempts int) uint64 {
	if maxAttempts <= 1 {
		return 0
	}
	return uint64(maxAttempts - 1)
}
