// Package news aggregates headline sentiment for a company
package news

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/guregu/null/v6"

	"github.com/bobmcallan/stockmatrix/internal/common"
	"github.com/bobmcallan/stockmatrix/internal/interfaces"
	"github.com/bobmcallan/stockmatrix/internal/models"
)

// DefaultLimit is the number of most recent articles scored
const DefaultLimit = 5

// Label thresholds on the mean polarity
const (
	positiveThreshold = 0.05
	negativeThreshold = -0.05
)

// Service implements interfaces.NewsService
type Service struct {
	client interfaces.NewsClient
	scorer interfaces.SentimentScorer
	limit  int
	logger *common.Logger
}

// NewService creates a new news sentiment service
func NewService(client interfaces.NewsClient, scorer interfaces.SentimentScorer, limit int, logger *common.Logger) *Service {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Service{
		client: client,
		scorer: scorer,
		limit:  limit,
		logger: logger,
	}
}

// Aggregate searches recent news for companyName and scores each headline.
// The summary average is null when no articles were found. Any collaborator
// failure is reported as ErrSentimentUnavailable.
func (s *Service) Aggregate(ctx context.Context, companyName string) (models.SentimentSummary, []models.NewsItem, error) {
	companyName = strings.TrimSpace(companyName)
	if companyName == "" {
		return EmptySummary(), []models.NewsItem{}, nil
	}

	articles, err := s.client.Search(ctx, companyName, s.limit)
	if err != nil {
		return EmptySummary(), []models.NewsItem{}, fmt.Errorf("%w: news search for %q: %v", common.ErrSentimentUnavailable, companyName, err)
	}
	if len(articles) > s.limit {
		articles = articles[:s.limit]
	}

	items := make([]models.NewsItem, 0, len(articles))
	polarities := make([]float64, 0, len(articles))
	for _, a := range articles {
		polarity, err := s.scorer.Score(ctx, a.Title)
		if err != nil {
			return EmptySummary(), []models.NewsItem{}, fmt.Errorf("%w: scoring %q: %v", common.ErrSentimentUnavailable, a.Title, err)
		}
		polarity = clamp(polarity)

		items = append(items, models.NewsItem{
			Title:       a.Title,
			Source:      a.Source,
			URL:         a.URL,
			PublishedAt: parsePublished(a.PublishedAt),
			Description: a.Description,
			Polarity:    polarity,
		})
		polarities = append(polarities, polarity)
	}

	summary := Summarize(polarities)

	s.logger.Debug().
		Str("company", companyName).
		Int("articles", summary.Count).
		Str("label", summary.Label).
		Msg("News sentiment aggregated")

	return summary, items, nil
}

// EmptySummary is the summary used when no articles are available
func EmptySummary() models.SentimentSummary {
	return models.SentimentSummary{Average: null.Float{}, Count: 0}
}

// Summarize returns the arithmetic mean of polarities with its label
func Summarize(polarities []float64) models.SentimentSummary {
	if len(polarities) == 0 {
		return EmptySummary()
	}

	sum := 0.0
	for _, p := range polarities {
		sum += p
	}
	avg := sum / float64(len(polarities))

	return models.SentimentSummary{
		Average: null.FloatFrom(avg),
		Count:   len(polarities),
		Label:   Label(avg),
	}
}

// Label classifies a mean polarity
func Label(avg float64) string {
	switch {
	case avg >= positiveThreshold:
		return "positive"
	case avg <= negativeThreshold:
		return "negative"
	default:
		return "neutral"
	}
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

func parsePublished(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// Ensure Service implements NewsService
var _ interfaces.NewsService = (*Service)(nil)
