package signals

import (
	"github.com/bobmcallan/stockmatrix/internal/models"
)

// Computer derives the indicator set for a price series
type Computer struct{}

// NewComputer creates a new signal computer
func NewComputer() *Computer {
	return &Computer{}
}

// Compute calculates MA50, MA200 and RSI(14) per index plus the latest
// snapshot including MACD(12,26,9). Pure function of series.
func (c *Computer) Compute(series models.PriceSeries) models.IndicatorSet {
	closes := series.Closes()

	set := models.IndicatorSet{
		MA50:  SMASeries(closes, PeriodMA50),
		MA200: SMASeries(closes, PeriodMA200),
		RSI:   RSISeries(closes, PeriodRSI),
	}

	latest := models.IndicatorSnapshot{
		MA50:  Last(set.MA50),
		MA200: Last(set.MA200),
		RSI:   Last(set.RSI),
	}
	latest.RSISignal = ClassifyRSI(latest.RSI)
	latest.MACD, latest.SignalLine = MACD(closes, PeriodMACDFast, PeriodMACDSlow, PeriodMACDSignal)

	if last, ok := series.Last(); ok {
		latest.Trend = DetermineTrend(last.Close, latest.MA50, latest.MA200)
	}
	latest.Crossover = DetectCrossover(set.MA50, set.MA200)

	set.Latest = latest
	return set
}
