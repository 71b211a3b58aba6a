// Package models defines data structures for StockMatrix
package models

import (
	"sort"
	"strings"
	"time"
)

// Symbol is a normalized instrument ticker carrying an exchange suffix
type Symbol string

func (s Symbol) String() string {
	return string(s)
}

// Base returns the ticker without its exchange suffix
func (s Symbol) Base() string {
	str := string(s)
	if idx := strings.LastIndex(str, "."); idx > 0 {
		return str[:idx]
	}
	return str
}

// NormalizeSymbol trims and upper-cases raw input and appends defaultSuffix
// unless the ticker already ends in one of the known exchange suffixes.
// Currency and futures tickers (INR=X, GC=F) and indices (^NSEI) are already
// qualified and are returned unsuffixed. Returns false when the input is
// empty or contains characters outside [A-Z0-9.-_^&=].
func NormalizeSymbol(raw, defaultSuffix string, knownSuffixes []string) (Symbol, bool) {
	ticker := strings.ToUpper(strings.TrimSpace(raw))
	if ticker == "" || len(ticker) > 32 {
		return "", false
	}
	for _, r := range ticker {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.', r == '-', r == '_', r == '^', r == '&', r == '=':
		default:
			return "", false
		}
	}
	if strings.HasPrefix(ticker, ".") || strings.Contains(ticker, "..") {
		return "", false
	}
	if strings.HasPrefix(ticker, "=") || strings.HasSuffix(ticker, "=") || strings.Count(ticker, "=") > 1 {
		return "", false
	}
	if strings.Contains(ticker, "=") || strings.HasPrefix(ticker, "^") {
		return Symbol(ticker), true
	}

	suffix := strings.ToUpper(defaultSuffix)
	if suffix == "" {
		return Symbol(ticker), true
	}
	if !strings.HasPrefix(suffix, ".") {
		suffix = "." + suffix
	}
	for _, known := range append([]string{suffix}, knownSuffixes...) {
		known = strings.ToUpper(known)
		if known != "" && strings.HasSuffix(ticker, known) && len(ticker) > len(known) {
			return Symbol(ticker), true
		}
	}
	return Symbol(ticker + suffix), true
}

// Quote represents a single trading day
type Quote struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// PriceSeries is daily OHLCV history ordered ascending by date
type PriceSeries []Quote

// NormalizeSeries returns a copy of quotes truncated to calendar days, sorted
// ascending, with only the first quote kept for any repeated date.
func NormalizeSeries(quotes []Quote) PriceSeries {
	out := make(PriceSeries, 0, len(quotes))
	for _, q := range quotes {
		q.Date = truncateDay(q.Date)
		out = append(out, q)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	deduped := out[:0]
	for i, q := range out {
		if i > 0 && q.Date.Equal(deduped[len(deduped)-1].Date) {
			continue
		}
		deduped = append(deduped, q)
	}
	return deduped
}

// Closes extracts the close prices in series order
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, q := range s {
		closes[i] = q.Close
	}
	return closes
}

// Last returns the most recent quote, or false for an empty series
func (s PriceSeries) Last() (Quote, bool) {
	if len(s) == 0 {
		return Quote{}, false
	}
	return s[len(s)-1], true
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// InstrumentMetadata holds descriptive data reported by the price provider
type InstrumentMetadata struct {
	Symbol         Symbol  `json:"symbol"`
	LongName       string  `json:"long_name"`
	ShortName      string  `json:"short_name"`
	Sector         string  `json:"sector"`
	Industry       string  `json:"industry"`
	Country        string  `json:"country"`
	Currency       string  `json:"currency"`
	Exchange       string  `json:"exchange"`
	InstrumentType string  `json:"instrument_type"`
	CurrentPrice   float64 `json:"current_price"`
	PreviousClose  float64 `json:"previous_close"`
	DayHigh        float64 `json:"day_high"`
	DayLow         float64 `json:"day_low"`
	High52Week     float64 `json:"fifty_two_week_high"`
	Low52Week      float64 `json:"fifty_two_week_low"`
	MarketCap      float64 `json:"market_cap,omitempty"`
}

// CompanyName returns the best available display name
func (m *InstrumentMetadata) CompanyName() string {
	if m == nil {
		return ""
	}
	if m.LongName != "" {
		return m.LongName
	}
	if m.ShortName != "" {
		return m.ShortName
	}
	return m.Symbol.Base()
}

// QuoteSnapshot is the latest-price block of an analysis
type QuoteSnapshot struct {
	Date          time.Time `json:"date"`
	CurrentPrice  float64   `json:"current_price"`
	PreviousClose float64   `json:"previous_close"`
	DayLow        float64   `json:"day_low"`
	DayHigh       float64   `json:"day_high"`
	Volume        int64     `json:"volume"`
	Change        float64   `json:"change"`
	ChangePct     float64   `json:"change_pct"`
}
