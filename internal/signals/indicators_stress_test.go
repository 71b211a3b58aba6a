package signals

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bobmcallan/stockmatrix/internal/models"
)

// === Empty and degenerate input ===

func TestSMASeries_EmptyAndZeroPeriod(t *testing.T) {
	assert.Empty(t, SMASeries(nil, 5))
	for _, v := range SMASeries([]float64{1, 2, 3}, 0) {
		assert.False(t, v.Valid)
	}
}

func TestRSISeries_ExactlyPeriodPlusOne(t *testing.T) {
	out := RSISeries(generateTrend(100, -1, PeriodRSI+1), PeriodRSI)
	assert.True(t, out[PeriodRSI].Valid)
	assert.Equal(t, 0.0, out[PeriodRSI].Float64, "only losses gives RSI 0")
}

func TestRSISeries_FlatSeriesIs100(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 42
	}
	// no losses in the window, so the zero-loss policy applies
	assert.Equal(t, 100.0, Last(RSISeries(closes, PeriodRSI)).Float64)
}

func TestEMASeries_PeriodGreaterThanLen(t *testing.T) {
	for _, v := range EMASeries([]float64{1, 2}, 5) {
		assert.False(t, v.Valid)
	}
}

func TestEMASeries_FlatEqualsConstant(t *testing.T) {
	closes := []float64{42, 42, 42, 42, 42, 42, 42, 42, 42, 42}
	assert.InDelta(t, 42.0, Last(EMASeries(closes, 5)).Float64, 1e-9)
}

func TestLast_Empty(t *testing.T) {
	assert.False(t, Last(nil).Valid)
}

// === Extreme values ===

func TestSMASeries_ExtremeValues_NoOverflow(t *testing.T) {
	closes := []float64{1e300, 1e300, 1e300}
	v := Last(SMASeries(closes, 2))
	assert.False(t, math.IsInf(v.Float64, 0))
}

func TestRSISeries_ExtremeSwings_InRange(t *testing.T) {
	closes := zigzag(1e6, 5e5, -9e5, 60)
	for _, v := range RSISeries(closes, PeriodRSI) {
		if v.Valid {
			assert.GreaterOrEqual(t, v.Float64, 0.0)
			assert.LessOrEqual(t, v.Float64, 100.0)
		}
	}
}

func TestDistanceTo(t *testing.T) {
	d := DistanceTo(110, Last(SMASeries([]float64{100, 100}, 2)))
	assert.InDelta(t, 10.0, d.Float64, 1e-9)
	assert.False(t, DistanceTo(110, Last(SMASeries(nil, 2))).Valid)
}

func TestCompute_EmptySeries_NoPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		set := NewComputer().Compute(nil)
		assert.Empty(t, set.MA50)
		assert.False(t, set.Latest.RSI.Valid)
		assert.Equal(t, "", set.Latest.Trend)
	})
}

func TestCompute_SingleQuote(t *testing.T) {
	set := NewComputer().Compute(models.PriceSeries{{Close: 10}})
	assert.Len(t, set.RSI, 1)
	assert.False(t, set.RSI[0].Valid)
	assert.Equal(t, "neutral", set.Latest.Trend)
}
