package models

import (
	"time"

	"github.com/guregu/null/v6"
)

// IndicatorSet holds per-index indicator series aligned with the PriceSeries.
// Entries are null until enough history exists.
type IndicatorSet struct {
	MA50   []null.Float      `json:"ma50"`
	MA200  []null.Float      `json:"ma200"`
	RSI    []null.Float      `json:"rsi"`
	Latest IndicatorSnapshot `json:"latest"`
}

// IndicatorSnapshot is the most recent value of each indicator
type IndicatorSnapshot struct {
	MA50       null.Float `json:"ma50"`
	MA200      null.Float `json:"ma200"`
	RSI        null.Float `json:"rsi"`
	RSISignal  string     `json:"rsi_signal,omitempty"` // overbought, oversold, neutral
	MACD       null.Float `json:"macd"`
	SignalLine null.Float `json:"signal_line"`
	Trend      string     `json:"trend,omitempty"`     // bullish, bearish, neutral
	Crossover  string     `json:"crossover,omitempty"` // golden_cross, death_cross, none
}

// ForecastPoint is one extrapolated day
type ForecastPoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// ForecastResult is a linear trend fitted over historical closes and
// extrapolated over a fixed horizon
type ForecastResult struct {
	Points           []ForecastPoint `json:"points"`
	Slope            float64         `json:"slope"`
	Intercept        float64         `json:"intercept"`
	AverageForecast  float64         `json:"average_forecast"`
	PercentageChange float64         `json:"percentage_change"`
}

// NewsItem represents a scored news article
type NewsItem struct {
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
	Description string    `json:"description,omitempty"`
	Polarity    float64   `json:"polarity"`
}

// SentimentSummary aggregates headline polarity. Average is null when no
// articles were found, which is distinct from a neutral 0.
type SentimentSummary struct {
	Average null.Float `json:"average"`
	Count   int        `json:"count"`
	Label   string     `json:"label,omitempty"` // positive, negative, neutral
}

// AnalysisResponse is the consolidated artifact returned for one symbol
type AnalysisResponse struct {
	Symbol      Symbol              `json:"symbol"`
	Details     *InstrumentMetadata `json:"details"`
	Stock       QuoteSnapshot       `json:"stock"`
	Indicators  IndicatorSet        `json:"technical_indicators"`
	Forecast    *ForecastResult     `json:"forecast"`
	Sentiment   SentimentSummary    `json:"sentiment"`
	Headlines   []NewsItem          `json:"headlines"`
	Chart       []byte              `json:"chart,omitempty"` // PNG, base64 in JSON
	Analysis    string              `json:"analysis"`
	GeneratedAt time.Time           `json:"generated_at"`

	// Series is the raw history behind the analysis, used by tabular export
	Series PriceSeries `json:"-"`
}
