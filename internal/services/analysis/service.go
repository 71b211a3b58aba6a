// Package analysis runs the stock analysis pipeline: validation, rate
// limiting, caching, fetch, indicator/forecast/sentiment computation and
// assembly of the consolidated response
package analysis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/bobmcallan/stockmatrix/internal/cache"
	"github.com/bobmcallan/stockmatrix/internal/common"
	"github.com/bobmcallan/stockmatrix/internal/interfaces"
	"github.com/bobmcallan/stockmatrix/internal/metrics"
	"github.com/bobmcallan/stockmatrix/internal/models"
	"github.com/bobmcallan/stockmatrix/internal/services/forecast"
	"github.com/bobmcallan/stockmatrix/internal/services/news"
	"github.com/bobmcallan/stockmatrix/internal/signals"
)

// Request is one analysis request
type Request struct {
	Symbol   string
	Format   string
	ClientID string
}

// Result carries the analysis and, when a format was requested, its export
type Result struct {
	Response *models.AnalysisResponse
	Export   *Export
	Cached   bool
}

// Service orchestrates the analysis pipeline
type Service struct {
	fetcher       interfaces.FetchService
	news          interfaces.NewsService
	charts        interfaces.ChartRenderer
	cache         interfaces.ResponseCache
	computer      *signals.Computer
	forecaster    *forecast.Model
	stages        []Stage
	cacheTTL      time.Duration
	defaultSuffix string
	knownSuffixes []string
	metrics       *metrics.Metrics
	logger        *common.Logger
	now           func() time.Time
}

// Option configures the service
type Option func(*Service)

// WithStages sets the pre-cache stages, run in order
func WithStages(stages ...Stage) Option {
	return func(s *Service) {
		s.stages = append(s.stages, stages...)
	}
}

// WithChartRenderer enables chart rendering
func WithChartRenderer(r interfaces.ChartRenderer) Option {
	return func(s *Service) {
		s.charts = r
	}
}

// WithCacheTTL overrides the response cache TTL
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithExchangeSuffixes sets the default suffix and the suffixes treated as present
func WithExchangeSuffixes(defaultSuffix string, known []string) Option {
	return func(s *Service) {
		s.defaultSuffix = defaultSuffix
		s.knownSuffixes = known
	}
}

// WithMetrics records cache and latency metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock replaces the time source used for generated-at stamps
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates the pipeline around its collaborators
func NewService(
	fetcher interfaces.FetchService,
	newsService interfaces.NewsService,
	responseCache interfaces.ResponseCache,
	logger *common.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		fetcher:       fetcher,
		news:          newsService,
		cache:         responseCache,
		computer:      signals.NewComputer(),
		forecaster:    forecast.NewModel(forecast.DefaultHorizon),
		cacheTTL:      cache.DefaultTTL,
		defaultSuffix: ".NS",
		knownSuffixes: []string{".NS", ".BO"},
		logger:        logger,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NormalizeSymbol applies the configured exchange suffix rules
func (s *Service) NormalizeSymbol(raw string) (models.Symbol, error) {
	if strings.TrimSpace(raw) == "" {
		return "", common.Validationf("stock symbol is required")
	}
	symbol, ok := models.NormalizeSymbol(raw, s.defaultSuffix, s.knownSuffixes)
	if !ok {
		return "", common.Validationf("invalid stock symbol %q", raw)
	}
	return symbol, nil
}

// Analyze runs the full pipeline for req. Stages see every request, so a
// malformed one still counts against the caller's quota; validation follows
// and both run before any upstream call. A cache hit returns the stored
// response unchanged. Nothing is cached when the pipeline fails.
func (s *Service) Analyze(ctx context.Context, req Request) (*Result, error) {
	for _, stage := range s.stages {
		if err := stage(ctx, req); err != nil {
			s.logger.Info().
				Str("symbol", req.Symbol).
				Str("client", req.ClientID).
				Err(err).
				Msg("Request rejected")
			return nil, err
		}
	}

	format, err := ParseFormat(req.Format)
	if err != nil {
		return nil, err
	}
	symbol, err := s.NormalizeSymbol(req.Symbol)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	if cached, ok := s.cache.Get(symbol); ok {
		s.metrics.CacheHit()
		s.logger.Debug().Str("symbol", symbol.String()).Msg("Serving cached analysis")
		result.Response = cached
		result.Cached = true
	} else {
		s.metrics.CacheMiss()
		start := time.Now()

		resp, err := s.compute(ctx, symbol)
		if err != nil {
			return nil, err
		}
		s.cache.Put(symbol, resp, s.cacheTTL)
		s.metrics.ObserveAnalysis(time.Since(start))

		s.logger.Info().
			Str("symbol", symbol.String()).
			Int("bars", len(resp.Series)).
			Int("headlines", len(resp.Headlines)).
			Dur("elapsed", time.Since(start)).
			Msg("Analysis computed")
		result.Response = resp
	}

	if format != FormatNone {
		export, err := RenderExport(result.Response, format)
		if err != nil {
			return nil, err
		}
		result.Export = export
	}
	return result, nil
}

// compute fetches history and runs the indicator, forecast and sentiment
// stages concurrently before assembling the response
func (s *Service) compute(ctx context.Context, symbol models.Symbol) (*models.AnalysisResponse, error) {
	meta, series, err := s.fetcher.Fetch(ctx, symbol)
	if err != nil {
		return nil, err
	}

	var (
		wg          sync.WaitGroup
		indicators  models.IndicatorSet
		projection  *models.ForecastResult
		forecastErr error
		sentiment   = news.EmptySummary()
		headlines   = []models.NewsItem{}
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		indicators = s.computer.Compute(series)
	}()
	go func() {
		defer wg.Done()
		projection, forecastErr = s.forecaster.Forecast(series)
	}()
	go func() {
		defer wg.Done()
		company := meta.CompanyName()
		if company == "" {
			company = symbol.Base()
		}
		summary, items, err := s.news.Aggregate(ctx, company)
		if err != nil {
			if !errors.Is(err, common.ErrSentimentUnavailable) {
				err = errors.Join(common.ErrSentimentUnavailable, err)
			}
			s.logger.Warn().Str("symbol", symbol.String()).Err(err).Msg("Sentiment unavailable, continuing without it")
			return
		}
		sentiment, headlines = summary, items
	}()
	wg.Wait()

	if forecastErr != nil {
		return nil, forecastErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var chart []byte
	if s.charts != nil {
		chart, err = s.charts.Render(symbol, series, &indicators, projection)
		if err != nil {
			s.logger.Warn().Str("symbol", symbol.String()).Err(err).Msg("Chart rendering failed")
			chart = nil
		}
	}

	return Assemble(symbol, Parts{
		Metadata:   meta,
		Series:     series,
		Indicators: indicators,
		Forecast:   projection,
		Sentiment:  sentiment,
		Headlines:  headlines,
		Chart:      chart,
	}, s.now().UTC()), nil
}
