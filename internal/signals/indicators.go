// Package signals provides technical indicator calculations over ascending
// close-price series
package signals

import (
	"github.com/guregu/null/v6"
)

// Indicator periods
const (
	PeriodMA50       = 50
	PeriodMA200      = 200
	PeriodRSI        = 14
	PeriodMACDFast   = 12
	PeriodMACDSlow   = 26
	PeriodMACDSignal = 9
)

// SMASeries returns the simple moving average at every index. Index i holds
// mean(closes[i-period+1 .. i]) and is null for i < period-1.
func SMASeries(closes []float64, period int) []null.Float {
	out := make([]null.Float, len(closes))
	if period <= 0 {
		return out
	}

	sum := 0.0
	for i, c := range closes {
		sum += c
		if i >= period {
			sum -= closes[i-period]
		}
		if i >= period-1 {
			out[i] = null.FloatFrom(sum / float64(period))
		}
	}
	return out
}

// RSISeries returns RSI(period) at every index using the trailing period
// close-to-close deltas ending at i. Null for i < period. A window with no
// losses yields 100.
func RSISeries(closes []float64, period int) []null.Float {
	out := make([]null.Float, len(closes))
	if period <= 0 {
		return out
	}

	for i := period; i < len(closes); i++ {
		var gains, losses float64
		for j := i - period + 1; j <= i; j++ {
			delta := closes[j] - closes[j-1]
			if delta > 0 {
				gains += delta
			} else {
				losses -= delta
			}
		}
		out[i] = null.FloatFrom(rsiFrom(gains/float64(period), losses/float64(period)))
	}
	return out
}

func rsiFrom(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// EMASeries returns the exponential moving average at every index, seeded
// with the SMA of the first period values. Null for i < period-1.
func EMASeries(values []float64, period int) []null.Float {
	out := make([]null.Float, len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	seed := 0.0
	for _, v := range values[:period] {
		seed += v
	}
	ema := seed / float64(period)
	out[period-1] = null.FloatFrom(ema)

	multiplier := 2.0 / float64(period+1)
	for i := period; i < len(values); i++ {
		ema = (values[i]-ema)*multiplier + ema
		out[i] = null.FloatFrom(ema)
	}
	return out
}

// MACD returns the latest MACD line (EMA fast - EMA slow) and its signal
// line (EMA of the MACD line). Either is null when history is too short.
func MACD(closes []float64, fast, slow, signal int) (macd, signalLine null.Float) {
	fastEMA := EMASeries(closes, fast)
	slowEMA := EMASeries(closes, slow)

	var line []float64
	for i := range closes {
		if fastEMA[i].Valid && slowEMA[i].Valid {
			line = append(line, fastEMA[i].Float64-slowEMA[i].Float64)
		}
	}
	if len(line) == 0 {
		return null.Float{}, null.Float{}
	}

	macd = null.FloatFrom(line[len(line)-1])
	if sig := EMASeries(line, signal); len(sig) > 0 {
		signalLine = sig[len(sig)-1]
	}
	return macd, signalLine
}

// Last returns the final entry of s, or null for an empty series
func Last(s []null.Float) null.Float {
	if len(s) == 0 {
		return null.Float{}
	}
	return s[len(s)-1]
}

// ClassifyRSI classifies an RSI value
func ClassifyRSI(rsi null.Float) string {
	if !rsi.Valid {
		return ""
	}
	if rsi.Float64 >= 70 {
		return "overbought"
	}
	if rsi.Float64 <= 30 {
		return "oversold"
	}
	return "neutral"
}

// DetectCrossover compares the last two points of a short and a long
// average. Returns "golden_cross", "death_cross", or "none".
func DetectCrossover(short, long []null.Float) string {
	n := len(short)
	if n < 2 || len(long) != n {
		return "none"
	}
	ps, pl, cs, cl := short[n-2], long[n-2], short[n-1], long[n-1]
	if !ps.Valid || !pl.Valid || !cs.Valid || !cl.Valid {
		return "none"
	}

	if ps.Float64 <= pl.Float64 && cs.Float64 > cl.Float64 {
		return "golden_cross"
	}
	if ps.Float64 >= pl.Float64 && cs.Float64 < cl.Float64 {
		return "death_cross"
	}
	return "none"
}

// DetermineTrend classifies price against the 50 and 200 day averages
func DetermineTrend(price float64, ma50, ma200 null.Float) string {
	switch {
	case ma50.Valid && ma200.Valid:
		if price > ma200.Float64 && ma50.Float64 > ma200.Float64 {
			return "bullish"
		}
		if price < ma200.Float64 && ma50.Float64 < ma200.Float64 {
			return "bearish"
		}
	case ma50.Valid:
		if price > ma50.Float64 {
			return "bullish"
		}
		if price < ma50.Float64 {
			return "bearish"
		}
	}
	return "neutral"
}

// DistanceTo returns the percentage distance of price from an average
func DistanceTo(price float64, avg null.Float) null.Float {
	if !avg.Valid || avg.Float64 == 0 {
		return null.Float{}
	}
	return null.FloatFrom((price - avg.Float64) / avg.Float64 * 100)
}
