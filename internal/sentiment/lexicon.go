// Package sentiment scores headline polarity with VADER extended by a
// financial-news vocabulary
package sentiment

import (
	"context"

	"github.com/jonreiter/govader"

	"github.com/bobmcallan/stockmatrix/internal/interfaces"
)

// marketTerms covers headline verbs and ratings missing from the stock VADER
// lexicon. Valences use VADER's -4..4 scale.
var marketTerms = map[string]float64{
	"beat": 1.5, "beats": 1.5, "bullish": 2.2, "jump": 1.4, "jumps": 1.4,
	"outperform": 1.8, "outperforms": 1.8, "rally": 1.9, "rallies": 1.9,
	"rebound": 1.3, "rebounds": 1.3, "record": 1.0, "soar": 2.2, "soars": 2.2,
	"surge": 2.0, "surges": 2.0, "upgrade": 1.8, "upgraded": 1.8,
	"bankruptcy": -3.0, "bearish": -2.2, "default": -2.0, "downgrade": -1.8,
	"downgraded": -1.8, "layoff": -1.9, "layoffs": -1.9, "plunge": -2.3,
	"plunges": -2.3, "selloff": -2.0, "slump": -1.9, "slumps": -1.9,
	"tumble": -2.0, "tumbles": -2.0, "underperform": -1.8,
}

// LexiconScorer implements interfaces.SentimentScorer without any remote call.
// It is safe for concurrent use once built.
type LexiconScorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewLexiconScorer loads the VADER lexicon and adds the market vocabulary
func NewLexiconScorer() *LexiconScorer {
	analyzer := govader.NewSentimentIntensityAnalyzer()
	for word, valence := range marketTerms {
		if _, ok := analyzer.Lexicon[word]; !ok {
			analyzer.Lexicon[word] = valence
		}
	}
	return &LexiconScorer{analyzer: analyzer}
}

// Score returns the compound polarity of text in [-1, 1]
func (s *LexiconScorer) Score(_ context.Context, text string) (float64, error) {
	return s.Compound(text), nil
}

// Compound is VADER's normalised compound score
func (s *LexiconScorer) Compound(text string) float64 {
	if text == "" {
		return 0
	}
	return s.analyzer.PolarityScores(text).Compound
}

// Ensure LexiconScorer implements SentimentScorer
var _ interfaces.SentimentScorer = (*LexiconScorer)(nil)
