// Package chart renders price charts with indicator and forecast overlays
package chart

import (
	"bytes"
	"fmt"
	"time"

	"github.com/guregu/null/v6"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/stockmatrix/internal/interfaces"
	"github.com/bobmcallan/stockmatrix/internal/models"
)

const (
	DefaultWidth  = 1000
	DefaultHeight = 500
)

// Renderer implements interfaces.ChartRenderer producing PNG bytes
type Renderer struct {
	width  int
	height int
}

// NewRenderer creates a renderer with the default canvas size
func NewRenderer() *Renderer {
	return &Renderer{width: DefaultWidth, height: DefaultHeight}
}

// Render draws close prices (blue), MA50 (amber), MA200 (red) and the
// forecast (green dashed). Null indicator points are omitted.
func (r *Renderer) Render(symbol models.Symbol, series models.PriceSeries, indicators *models.IndicatorSet, forecast *models.ForecastResult) ([]byte, error) {
	if len(series) < 2 {
		return nil, fmt.Errorf("need at least 2 data points, got %d", len(series))
	}

	dates := make([]time.Time, len(series))
	closes := make([]float64, len(series))
	for i, q := range series {
		dates[i] = q.Date
		closes[i] = q.Close
	}

	plotted := []gochart.Series{
		gochart.TimeSeries{
			Name: "Close",
			Style: gochart.Style{
				StrokeColor: drawing.ColorFromHex("2563eb"), // blue-600
				StrokeWidth: 2,
			},
			XValues: dates,
			YValues: closes,
		},
	}

	if indicators != nil {
		if s, ok := overlay("MA50", dates, indicators.MA50, drawing.ColorFromHex("f59e0b"), nil); ok {
			plotted = append(plotted, s)
		}
		if s, ok := overlay("MA200", dates, indicators.MA200, drawing.ColorFromHex("dc2626"), nil); ok {
			plotted = append(plotted, s)
		}
	}

	if forecast != nil && len(forecast.Points) > 0 {
		// anchor the projection on the last close so the lines connect
		last := series[len(series)-1]
		fx := []time.Time{last.Date}
		fy := []float64{last.Close}
		for _, p := range forecast.Points {
			fx = append(fx, p.Date)
			fy = append(fy, p.Price)
		}
		plotted = append(plotted, gochart.TimeSeries{
			Name: "Forecast",
			Style: gochart.Style{
				StrokeColor:     drawing.ColorFromHex("16a34a"), // green-600
				StrokeWidth:     2,
				StrokeDashArray: []float64{5.0, 3.0},
			},
			XValues: fx,
			YValues: fy,
		})
	}

	graph := gochart.Chart{
		Title:  fmt.Sprintf("%s Price, Moving Averages and Forecast", symbol),
		Width:  r.width,
		Height: r.height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: gochart.XAxis{
			TickPosition: gochart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return gochart.TimeFromFloat64(t).Format("Jan 06")
				}
				return ""
			},
		},
		YAxis: gochart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		Series: plotted,
	}

	graph.Elements = []gochart.Renderable{
		gochart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}

// overlay builds a series from the valid points of values; false when fewer
// than two points are defined
func overlay(name string, dates []time.Time, values []null.Float, color drawing.Color, dash []float64) (gochart.Series, bool) {
	var xs []time.Time
	var ys []float64
	for i, v := range values {
		if v.Valid && i < len(dates) {
			xs = append(xs, dates[i])
			ys = append(ys, v.Float64)
		}
	}
	if len(xs) < 2 {
		return nil, false
	}
	return gochart.TimeSeries{
		Name: name,
		Style: gochart.Style{
			StrokeColor:     color,
			StrokeWidth:     1.5,
			StrokeDashArray: dash,
		},
		XValues: xs,
		YValues: ys,
	}, true
}

// Ensure Renderer implements ChartRenderer
var _ interfaces.ChartRenderer = (*Renderer)(nil)
