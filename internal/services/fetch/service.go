// Package fetch retrieves price history from the upstream provider with
// retry, backoff and failure classification
package fetch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/bobmcallan/stockmatrix/internal/common"
	"github.com/bobmcallan/stockmatrix/internal/interfaces"
	"github.com/bobmcallan/stockmatrix/internal/metrics"
	"github.com/bobmcallan/stockmatrix/internal/models"
)

// Service implements interfaces.FetchService
type Service struct {
	provider    interfaces.PriceProvider
	logger      *common.Logger
	metrics     *metrics.Metrics
	period      string
	maxAttempts int
	baseDelay   time.Duration
	jitter      func() time.Duration
	newTimer    func() backoff.Timer
}

// Option configures the service
type Option func(*Service)

// WithMaxAttempts sets the total attempt budget (first call included)
func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithBaseDelay sets the backoff base delay
func WithBaseDelay(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.baseDelay = d
		}
	}
}

// WithPeriod sets the history range requested from the provider
func WithPeriod(period string) Option {
	return func(s *Service) {
		if period != "" {
			s.period = period
		}
	}
}

// WithJitter replaces the random jitter source
func WithJitter(jitter func() time.Duration) Option {
	return func(s *Service) {
		s.jitter = jitter
	}
}

// WithTimer supplies the timer used for backoff sleeps
func WithTimer(newTimer func() backoff.Timer) Option {
	return func(s *Service) {
		s.newTimer = newTimer
	}
}

// WithMetrics records attempt outcomes
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService creates a new fetch service
func NewService(provider interfaces.PriceProvider, logger *common.Logger, opts ...Option) *Service {
	s := &Service{
		provider:    provider,
		logger:      logger,
		period:      "1y",
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch retrieves metadata and a normalized price series for symbol
func (s *Service) Fetch(ctx context.Context, symbol models.Symbol) (*models.InstrumentMetadata, models.PriceSeries, error) {
	meta, series, outcome := s.FetchWithOutcome(ctx, symbol)
	if err := outcome.Err(symbol); err != nil {
		return nil, nil, err
	}
	return meta, series, nil
}

// FetchWithOutcome runs the retry policy and reports how the fetch ended
func (s *Service) FetchWithOutcome(ctx context.Context, symbol models.Symbol) (*models.InstrumentMetadata, models.PriceSeries, Outcome) {
	var (
		meta    *models.InstrumentMetadata
		series  models.PriceSeries
		outcome Outcome
	)

	operation := func() error {
		outcome.Attempts++
		outcome.Status = StatusExhausted

		m, quotes, err := s.provider.GetHistory(ctx, symbol, s.period)
		if err == nil {
			series = sanitize(quotes)
			if len(series) == 0 {
				err = fmt.Errorf("%w: provider returned no usable bars for %s", common.ErrNoData, symbol)
			}
		}

		switch {
		case err == nil:
			meta = m
			outcome.Status = StatusSuccess
			outcome.LastErr = nil
			s.metrics.UpstreamAttempt("ok")
			return nil
		case errors.Is(err, common.ErrNoData):
			outcome.Status = StatusNoData
			outcome.LastErr = err
			s.metrics.UpstreamAttempt("no_data")
			return backoff.Permanent(err)
		case ctx.Err() != nil:
			outcome.Status = StatusCancelled
			outcome.LastErr = ctx.Err()
			return backoff.Permanent(ctx.Err())
		}

		var t throttler
		if errors.As(err, &t) && t.Throttled() {
			outcome.Status = StatusThrottled
			s.metrics.UpstreamAttempt("throttled")
		} else {
			s.metrics.UpstreamAttempt("error")
		}
		outcome.LastErr = err
		return err
	}

	notify := func(err error, next time.Duration) {
		s.logger.Warn().
			Str("symbol", symbol.String()).
			Int("attempt", outcome.Attempts).
			Int("max_attempts", s.maxAttempts).
			Str("retry_in", next.Round(time.Millisecond).String()).
			Err(err).
			Msg("Upstream fetch failed, retrying")
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(s.newPolicy(), retriesFor(s.maxAttempts)), ctx)

	var timer backoff.Timer
	if s.newTimer != nil {
		timer = s.newTimer()
	}

	if err := backoff.RetryNotifyWithTimer(operation, policy, notify, timer); err != nil {
		if ctx.Err() != nil {
			outcome.Status = StatusCancelled
			outcome.LastErr = ctx.Err()
		}
		s.logger.Warn().
			Str("symbol", symbol.String()).
			Str("status", outcome.Status.String()).
			Int("attempts", outcome.Attempts).
			Err(outcome.LastErr).
			Msg("Upstream fetch failed")
		return nil, nil, outcome
	}

	s.logger.Debug().
		Str("symbol", symbol.String()).
		Int("attempts", outcome.Attempts).
		Int("bars", len(series)).
		Msg("Upstream fetch succeeded")

	return meta, series, outcome
}

// Err converts a non-success outcome into the pipeline error taxonomy
func (o Outcome) Err(symbol models.Symbol) error {
	switch o.Status {
	case StatusSuccess:
		return nil
	case StatusNoData:
		return o.LastErr
	case StatusCancelled:
		return fmt.Errorf("fetch %s abandoned after %d attempt(s): %w", symbol, o.Attempts, o.LastErr)
	case StatusThrottled:
		return &common.UpstreamError{Kind: common.ErrUpstreamRateLimited, Symbol: symbol.String(), Attempts: o.Attempts, Err: o.LastErr}
	default:
		return &common.UpstreamError{Kind: common.ErrUpstreamUnavailable, Symbol: symbol.String(), Attempts: o.Attempts, Err: o.LastErr}
	}
}

// sanitize drops bars without a usable close and normalizes ordering
func sanitize(quotes []models.Quote) models.PriceSeries {
	valid := make([]models.Quote, 0, len(quotes))
	for _, q := range quotes {
		if q.Date.IsZero() || q.Close <= 0 || math.IsNaN(q.Close) || math.IsInf(q.Close, 0) {
			continue
		}
		valid = append(valid, q)
	}
	return models.NormalizeSeries(valid)
}

// Ensure Service implements FetchService
var _ interfaces.FetchService = (*Service)(nil)
