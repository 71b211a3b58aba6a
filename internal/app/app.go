package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bobmcallan/stockmatrix/internal/cache"
	"github.com/bobmcallan/stockmatrix/internal/clients/gemini"
	"github.com/bobmcallan/stockmatrix/internal/clients/newsapi"
	"github.com/bobmcallan/stockmatrix/internal/clients/yahoo"
	"github.com/bobmcallan/stockmatrix/internal/common"
	"github.com/bobmcallan/stockmatrix/internal/interfaces"
	"github.com/bobmcallan/stockmatrix/internal/metrics"
	"github.com/bobmcallan/stockmatrix/internal/ratelimit"
	"github.com/bobmcallan/stockmatrix/internal/sentiment"
	"github.com/bobmcallan/stockmatrix/internal/services/analysis"
	"github.com/bobmcallan/stockmatrix/internal/services/chart"
	"github.com/bobmcallan/stockmatrix/internal/services/fetch"
	"github.com/bobmcallan/stockmatrix/internal/services/news"
)

// App holds all initialized clients and services.
// It is the shared core used by cmd/stockmatrix-server and the tests.
type App struct {
	Config          *common.Config
	Logger          *common.Logger
	Metrics         *metrics.Metrics
	Limiter         *ratelimit.Limiter
	Cache           *cache.ResponseCache
	PriceClient     *yahoo.Client
	NewsClient      *newsapi.Client
	Scorer          interfaces.SentimentScorer
	FetchService    *fetch.Service
	NewsService     *news.Service
	AnalysisService *analysis.Service
	StartupTime     time.Time

	janitor *cron.Cron
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// resolveConfigPath checks the provided path, STOCKMATRIX_CONFIG, then the
// binary dir, then the development fallback.
func resolveConfigPath(configPath string) string {
	if configPath == "" {
		configPath = os.Getenv("STOCKMATRIX_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "stockmatrix.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/stockmatrix.toml"
		}
	}
	return configPath
}

// warnNewsDisabled reports that analyses carry no sentiment average without a
// NewsAPI key.
func warnNewsDisabled(logger *common.Logger, apiKey string) {
	if apiKey != "" {
		return
	}
	logger.Warn().Msg("NewsAPI key not configured - sentiment will be unavailable (null average)")
}

// NewApp initializes all clients and services.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	config, err := common.LoadConfig(resolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)
	m := metrics.New()

	yahooCfg := config.Clients.Yahoo
	priceClient := yahoo.NewClient(
		yahoo.WithBaseURL(yahooCfg.BaseURL),
		yahoo.WithLogger(logger),
		yahoo.WithRateLimit(yahooCfg.RateLimit),
		yahoo.WithTimeout(yahooCfg.GetTimeout()),
	)

	fetchService := fetch.NewService(priceClient, logger,
		fetch.WithMaxAttempts(yahooCfg.MaxAttempts),
		fetch.WithBaseDelay(yahooCfg.GetBaseDelay()),
		fetch.WithPeriod(yahooCfg.Period),
		fetch.WithMetrics(m),
	)

	newsCfg := config.Clients.NewsAPI
	warnNewsDisabled(logger, newsCfg.APIKey)
	newsClient := newsapi.NewClient(newsCfg.APIKey,
		newsapi.WithBaseURL(newsCfg.BaseURL),
		newsapi.WithLogger(logger),
		newsapi.WithTimeout(newsCfg.GetTimeout()),
	)

	scorer, err := newScorer(context.Background(), config, logger)
	if err != nil {
		return nil, err
	}

	newsService := news.NewService(newsClient, scorer, config.Analysis.NewsLimit, logger)
	responseCache := cache.NewResponseCache()
	limiter := ratelimit.NewLimiter()

	limits := analysis.RateLimits{
		ClientLimit: config.Limits.ClientLimit,
		GlobalLimit: config.Limits.GlobalLimit,
		Window:      config.Limits.GetWindow(),
	}
	opts := []analysis.Option{
		analysis.WithStages(analysis.RateLimitStage(limiter, limits, m)),
		analysis.WithCacheTTL(config.Cache.GetTTL()),
		analysis.WithExchangeSuffixes(config.Analysis.DefaultExchange, config.Analysis.ExchangeSuffixes),
		analysis.WithMetrics(m),
	}
	if config.Analysis.Chart {
		opts = append(opts, analysis.WithChartRenderer(chart.NewRenderer()))
	}
	analysisService := analysis.NewService(fetchService, newsService, responseCache, logger, opts...)

	a := &App{
		Config:          config,
		Logger:          logger,
		Metrics:         m,
		Limiter:         limiter,
		Cache:           responseCache,
		PriceClient:     priceClient,
		NewsClient:      newsClient,
		Scorer:          scorer,
		FetchService:    fetchService,
		NewsService:     newsService,
		AnalysisService: analysisService,
		StartupTime:     startupStart,
	}

	logger.Info().
		Dur("elapsed", time.Since(startupStart)).
		Str("scorer", config.Sentiment.Scorer).
		Bool("chart", config.Analysis.Chart).
		Msg("App initialized")

	return a, nil
}

// newScorer selects the headline scorer. Gemini without a key falls back to
// the lexicon scorer.
func newScorer(ctx context.Context, config *common.Config, logger *common.Logger) (interfaces.SentimentScorer, error) {
	switch strings.ToLower(strings.TrimSpace(config.Sentiment.Scorer)) {
	case "", "lexicon":
		return sentiment.NewLexiconScorer(), nil
	case "gemini":
		key := config.Clients.Gemini.APIKey
		if key == "" {
			logger.Warn().Msg("Gemini API key not configured - using lexicon sentiment scorer")
			return sentiment.NewLexiconScorer(), nil
		}
		client, err := gemini.NewClient(ctx, key,
			gemini.WithLogger(logger),
			gemini.WithModel(config.Clients.Gemini.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown sentiment scorer %q", config.Sentiment.Scorer)
	}
}

// Close stops the janitor and waits for a running sweep to finish.
func (a *App) Close() {
	if a.janitor != nil {
		<-a.janitor.Stop().Done()
		a.janitor = nil
	}
}
