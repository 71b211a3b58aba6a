package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/stockmatrix/internal/models"
)

// FetchService retrieves validated history with retry and failure classification
type FetchService interface {
	Fetch(ctx context.Context, symbol models.Symbol) (*models.InstrumentMetadata, models.PriceSeries, error)
}

// NewsService aggregates headline sentiment for a company
type NewsService interface {
	Aggregate(ctx context.Context, companyName string) (models.SentimentSummary, []models.NewsItem, error)
}

// ResponseCache stores computed analyses by symbol
type ResponseCache interface {
	Get(symbol models.Symbol) (*models.AnalysisResponse, bool)
	Put(symbol models.Symbol, response *models.AnalysisResponse, ttl time.Duration)
}

// RateLimiter bounds request throughput per scope key
type RateLimiter interface {
	Allow(scopeKey string, limit int, window time.Duration) bool
}
