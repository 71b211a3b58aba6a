package analysis

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/stockmatrix/internal/models"
)

// Parts are the computed pieces composed into one analysis
type Parts struct {
	Metadata   *models.InstrumentMetadata
	Series     models.PriceSeries
	Indicators models.IndicatorSet
	Forecast   *models.ForecastResult
	Sentiment  models.SentimentSummary
	Headlines  []models.NewsItem
	Chart      []byte
}

// Assemble composes parts into a response. It performs no I/O.
func Assemble(symbol models.Symbol, p Parts, generatedAt time.Time) *models.AnalysisResponse {
	headlines := p.Headlines
	if headlines == nil {
		headlines = []models.NewsItem{}
	}

	meta := p.Metadata
	if meta == nil {
		meta = &models.InstrumentMetadata{Symbol: symbol}
	}

	resp := &models.AnalysisResponse{
		Symbol:      symbol,
		Details:     meta,
		Stock:       Snapshot(meta, p.Series),
		Indicators:  p.Indicators,
		Forecast:    p.Forecast,
		Sentiment:   p.Sentiment,
		Headlines:   headlines,
		Chart:       p.Chart,
		GeneratedAt: generatedAt,
		Series:      p.Series,
	}
	resp.Analysis = Narrative(resp)
	return resp
}

// Snapshot derives the latest-price block. Provider metadata wins; the last
// bars fill anything it left empty.
func Snapshot(meta *models.InstrumentMetadata, series models.PriceSeries) models.QuoteSnapshot {
	var snap models.QuoteSnapshot

	last, ok := series.Last()
	if ok {
		snap.Date = last.Date
		snap.CurrentPrice = last.Close
		snap.DayLow = last.Low
		snap.DayHigh = last.High
		snap.Volume = last.Volume
	}
	if len(series) >= 2 {
		snap.PreviousClose = series[len(series)-2].Close
	}

	if meta != nil {
		if meta.CurrentPrice > 0 {
			snap.CurrentPrice = meta.CurrentPrice
		}
		if meta.PreviousClose > 0 {
			snap.PreviousClose = meta.PreviousClose
		}
		if meta.DayLow > 0 {
			snap.DayLow = meta.DayLow
		}
		if meta.DayHigh > 0 {
			snap.DayHigh = meta.DayHigh
		}
	}

	if snap.CurrentPrice == 0 {
		snap.CurrentPrice = snap.PreviousClose
	}
	if snap.PreviousClose > 0 {
		snap.Change = snap.CurrentPrice - snap.PreviousClose
		snap.ChangePct = snap.Change / snap.PreviousClose * 100
	}
	return snap
}

// Narrative summarises trend, momentum, forecast and sentiment in plain text
func Narrative(r *models.AnalysisResponse) string {
	var sb strings.Builder

	name := r.Details.CompanyName()
	fmt.Fprintf(&sb, "%s (%s) last traded at %s", name, r.Symbol, money(r.Stock.CurrentPrice))
	if r.Stock.PreviousClose > 0 {
		fmt.Fprintf(&sb, ", %s %s%% on the previous close", direction(r.Stock.Change), pct(r.Stock.ChangePct))
	}
	sb.WriteString(".\n\n")

	latest := r.Indicators.Latest
	switch latest.Trend {
	case "bullish":
		sb.WriteString("Trend: bullish. Price is above its long-term moving average")
	case "bearish":
		sb.WriteString("Trend: bearish. Price is below its long-term moving average")
	default:
		sb.WriteString("Trend: neutral. Moving averages give no clear direction")
	}
	if latest.MA50.Valid {
		fmt.Fprintf(&sb, " (MA50 %s", money(latest.MA50.Float64))
		if latest.MA200.Valid {
			fmt.Fprintf(&sb, ", MA200 %s", money(latest.MA200.Float64))
		}
		sb.WriteString(")")
	}
	switch latest.Crossover {
	case "golden_cross":
		sb.WriteString(", with a fresh golden cross")
	case "death_cross":
		sb.WriteString(", with a fresh death cross")
	}
	sb.WriteString(".\n")

	if latest.RSI.Valid {
		fmt.Fprintf(&sb, "RSI(14) is %s, %s.\n", decimal.NewFromFloat(latest.RSI.Float64).StringFixed(1), rsiZone(latest.RSISignal))
	}
	if latest.MACD.Valid && latest.SignalLine.Valid {
		if latest.MACD.Float64 >= latest.SignalLine.Float64 {
			sb.WriteString("MACD is above its signal line.\n")
		} else {
			sb.WriteString("MACD is below its signal line.\n")
		}
	}

	if f := r.Forecast; f != nil && len(f.Points) > 0 {
		fmt.Fprintf(&sb, "\nThe %d-day linear forecast averages %s (%s%% against the last close).\n",
			len(f.Points), money(f.AverageForecast), signedPct(f.PercentageChange))
	}

	if r.Sentiment.Average.Valid {
		fmt.Fprintf(&sb, "News sentiment is %s (%s across %d headline(s)).",
			r.Sentiment.Label, decimal.NewFromFloat(r.Sentiment.Average.Float64).StringFixed(2), r.Sentiment.Count)
	} else {
		sb.WriteString("No recent news was available for sentiment analysis.")
	}

	return sb.String()
}

func rsiZone(signal string) string {
	switch signal {
	case "overbought":
		return "in overbought territory"
	case "oversold":
		return "in oversold territory"
	default:
		return "in the neutral zone"
	}
}

func direction(change float64) string {
	if change < 0 {
		return "down"
	}
	return "up"
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func pct(v float64) string {
	return decimal.NewFromFloat(v).Abs().StringFixed(2)
}

func signedPct(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	if d.IsPositive() {
		return "+" + d.StringFixed(2)
	}
	return d.StringFixed(2)
}
