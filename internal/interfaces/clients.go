// Package interfaces defines service contracts for StockMatrix
package interfaces

import (
	"context"

	"github.com/bobmcallan/stockmatrix/internal/models"
)

// PriceProvider retrieves instrument metadata and daily history
type PriceProvider interface {
	// GetHistory retrieves metadata and daily quotes covering period (e.g. "1y")
	GetHistory(ctx context.Context, symbol models.Symbol, period string) (*models.InstrumentMetadata, []models.Quote, error)
}

// NewsArticle is a raw article returned by the news-search collaborator
type NewsArticle struct {
	Title       string
	Source      string
	URL         string
	PublishedAt string
	Description string
}

// NewsClient searches news articles by free-text query, most recent first
type NewsClient interface {
	Search(ctx context.Context, query string, limit int) ([]NewsArticle, error)
}

// SentimentScorer scores text polarity in [-1, 1]
type SentimentScorer interface {
	Score(ctx context.Context, text string) (float64, error)
}

// ChartRenderer renders a price chart with indicator and forecast overlays
type ChartRenderer interface {
	Render(symbol models.Symbol, series models.PriceSeries, indicators *models.IndicatorSet, forecast *models.ForecastResult) ([]byte, error)
}
