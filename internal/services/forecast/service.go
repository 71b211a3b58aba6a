// Package forecast fits a linear trend to closing prices and extrapolates it
package forecast

import (
	"fmt"
	"math"
	"time"

	"github.com/bobmcallan/stockmatrix/internal/common"
	"github.com/bobmcallan/stockmatrix/internal/models"
)

// DefaultHorizon is the number of calendar days projected past the last date
const DefaultHorizon = 30

const day = 24 * time.Hour

// Model is an ordinary least squares trend over day offsets
type Model struct {
	horizon int
}

// NewModel creates a model projecting horizon days (DefaultHorizon when <= 0)
func NewModel(horizon int) *Model {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	return &Model{horizon: horizon}
}

// Forecast fits close = slope*x + intercept where x is the day offset from
// the first date, then evaluates the line at the horizon offsets following
// the last date. Fewer than two distinct offsets is ErrInsufficientData.
func (m *Model) Forecast(series models.PriceSeries) (*models.ForecastResult, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: empty series", common.ErrInsufficientData)
	}

	first := series[0].Date
	xs := make([]float64, len(series))
	ys := make([]float64, len(series))
	distinct := make(map[int64]struct{}, len(series))
	lastOffset := int64(math.MinInt64)

	for i, q := range series {
		offset := dayOffset(first, q.Date)
		xs[i] = float64(offset)
		ys[i] = q.Close
		distinct[offset] = struct{}{}
		if offset > lastOffset {
			lastOffset = offset
		}
	}
	if len(distinct) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 distinct dates, have %d", common.ErrInsufficientData, len(distinct))
	}

	slope, intercept := fitOLS(xs, ys)

	lastDate := first.Add(time.Duration(lastOffset) * day)
	points := make([]models.ForecastPoint, m.horizon)
	sum := 0.0
	for k := 1; k <= m.horizon; k++ {
		price := slope*float64(lastOffset+int64(k)) + intercept
		points[k-1] = models.ForecastPoint{
			Date:  lastDate.AddDate(0, 0, k),
			Price: price,
		}
		sum += price
	}

	result := &models.ForecastResult{
		Points:          points,
		Slope:           slope,
		Intercept:       intercept,
		AverageForecast: sum / float64(m.horizon),
	}

	if last, ok := series.Last(); ok && last.Close != 0 {
		result.PercentageChange = (result.AverageForecast - last.Close) / last.Close * 100
	}

	return result, nil
}

// fitOLS returns the least squares slope and intercept for ys over xs
func fitOLS(xs, ys []float64) (slope, intercept float64) {
	n := float64(len(xs))
	var meanX, meanY float64
	for i := range xs {
		meanX += xs[i]
		meanY += ys[i]
	}
	meanX /= n
	meanY /= n

	var sxy, sxx float64
	for i := range xs {
		dx := xs[i] - meanX
		sxy += dx * (ys[i] - meanY)
		sxx += dx * dx
	}

	slope = sxy / sxx
	intercept = meanY - slope*meanX
	return slope, intercept
}

// dayOffset counts whole calendar days from first to t
func dayOffset(first, t time.Time) int64 {
	fy, fm, fd := first.Date()
	ty, tm, td := t.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int64(b.Sub(a) / day)
}
