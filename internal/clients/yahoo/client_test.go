package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/stockmatrix/internal/common"
)

const chartFixture = `{
  "chart": {
    "result": [{
      "meta": {
        "currency": "INR",
        "symbol": "TCS.NS",
        "exchangeName": "NSI",
        "fullExchangeName": "NSE",
        "instrumentType": "EQUITY",
        "longName": "Tata Consultancy Services Limited",
        "shortName": "TATA CONSULTANCY SERV LT",
        "regularMarketPrice": 3950.5,
        "chartPreviousClose": 3500.0,
        "previousClose": 3925.0,
        "regularMarketDayHigh": 3975.0,
        "regularMarketDayLow": 3901.2,
        "fiftyTwoWeekHigh": 4592.25,
        "fiftyTwoWeekLow": 3311.8
      },
      "timestamp": [1704253500, 1704339900, 1704426300],
      "indicators": {
        "quote": [{
          "open":   [3800.0, null, 3850.0],
          "high":   [3820.0, null, 3900.0],
          "low":    [3790.0, null, 3840.0],
          "close":  [3810.5, null, 3890.0],
          "volume": [1200000, null, 1500000]
        }]
      }
    }],
    "error": null
  }
}`

func TestGetHistory_ParsesChart(t *testing.T) {
	var capturedPath, capturedRange, capturedInterval, capturedUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v10/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		capturedPath = r.URL.Path
		capturedRange = r.URL.Query().Get("range")
		capturedInterval = r.URL.Query().Get("interval")
		capturedUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chartFixture))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	meta, quotes, err := client.GetHistory(context.Background(), "TCS.NS", "1y")
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/TCS.NS", capturedPath)
	assert.Equal(t, "1y", capturedRange)
	assert.Equal(t, "1d", capturedInterval)
	assert.Equal(t, "Mozilla/5.0", capturedUA)

	require.NotNil(t, meta)
	assert.Equal(t, "Tata Consultancy Services Limited", meta.LongName)
	assert.Equal(t, "NSE", meta.Exchange)
	assert.Equal(t, "INR", meta.Currency)
	assert.Equal(t, 3925.0, meta.PreviousClose)
	assert.Equal(t, 4592.25, meta.High52Week)

	require.Len(t, quotes, 2, "bars with a null close are skipped")
	assert.Equal(t, 3810.5, quotes[0].Close)
	assert.Equal(t, int64(1200000), quotes[0].Volume)
	assert.Equal(t, time.Unix(1704426300, 0).UTC(), quotes[1].Date)
}

func TestGetHistory_DefaultPeriod(t *testing.T) {
	var capturedRange string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("range") {
			capturedRange = r.URL.Query().Get("range")
		}
		w.Write([]byte(chartFixture))
	}))
	defer srv.Close()

	_, _, err := NewClient(WithBaseURL(srv.URL)).GetHistory(context.Background(), "TCS.NS", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultPeriod, capturedRange)
}

func TestGetHistory_Throttled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("Too Many Requests"))
	}))
	defer srv.Close()

	_, _, err := NewClient(WithBaseURL(srv.URL)).GetHistory(context.Background(), "TCS.NS", "1y")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.Throttled())
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
}

func TestGetHistory_ServerErrorNotThrottled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, _, err := NewClient(WithBaseURL(srv.URL)).GetHistory(context.Background(), "TCS.NS", "1y")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.False(t, apiErr.Throttled())
	assert.False(t, errors.Is(err, common.ErrNoData))
}

func TestGetHistory_UnknownSymbolIsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	defer srv.Close()

	_, _, err := NewClient(WithBaseURL(srv.URL)).GetHistory(context.Background(), "NOPE.NS", "1y")
	assert.True(t, errors.Is(err, common.ErrNoData))
}

func TestGetHistory_ChartErrorIsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"delisted"}}}`))
	}))
	defer srv.Close()

	_, _, err := NewClient(WithBaseURL(srv.URL)).GetHistory(context.Background(), "NOPE.NS", "1y")
	assert.True(t, errors.Is(err, common.ErrNoData))
}

func TestGetHistory_EmptyBarsIsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[{"meta":{"symbol":"X.NS"},"timestamp":[],"indicators":{"quote":[{}]}}],"error":null}}`))
	}))
	defer srv.Close()

	_, _, err := NewClient(WithBaseURL(srv.URL)).GetHistory(context.Background(), "X.NS", "1y")
	assert.True(t, errors.Is(err, common.ErrNoData))
}

func TestGetHistory_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chartFixture))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewClient(WithBaseURL(srv.URL)).GetHistory(ctx, "TCS.NS", "1y")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

// yearChartFixture mirrors a range=1y response: meta carries only
// chartPreviousClose, the close before the range began.
const yearChartFixture = `{
  "chart": {
    "result": [{
      "meta": {
        "currency": "INR",
        "symbol": "RELIANCE.NS",
        "regularMarketPrice": 2000.0,
        "chartPreviousClose": 1000.0
      },
      "timestamp": [1736130600, 1736217000],
      "indicators": {
        "quote": [{
          "open":   [1980.0, 1992.0],
          "high":   [1995.0, 2005.0],
          "low":    [1975.0, 1988.0],
          "close":  [1990.0, 2000.0],
          "volume": [100, 200]
        }]
      }
    }],
    "error": null
  }
}`

const summaryFixture = `{
  "quoteSummary": {
    "result": [{
      "assetProfile": {"sector": "Energy", "industry": "Oil & Gas Refining & Marketing", "country": "India"},
      "price": {"longName": "Reliance Industries Limited", "shortName": "RELIANCE INDS", "marketCap": {"raw": 19500000000000, "fmt": "19.5T"}},
      "summaryDetail": {"previousClose": {"raw": 1990.0}, "dayLow": {"raw": 1988.0}, "dayHigh": {"raw": 2005.0}, "marketCap": {"raw": 19400000000000}}
    }],
    "error": null
  }
}`

func TestGetHistory_IgnoresChartPreviousClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v10/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(yearChartFixture))
	}))
	defer srv.Close()

	meta, quotes, err := NewClient(WithBaseURL(srv.URL)).GetHistory(context.Background(), "RELIANCE.NS", "1y")
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Zero(t, meta.PreviousClose, "chartPreviousClose is the close a year ago")
}

func TestGetHistory_MergesQuoteSummary(t *testing.T) {
	var summaryPath, summaryModulesParam string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v10/finance/quoteSummary/") {
			summaryPath = r.URL.Path
			summaryModulesParam = r.URL.Query().Get("modules")
			w.Write([]byte(summaryFixture))
			return
		}
		w.Write([]byte(yearChartFixture))
	}))
	defer srv.Close()

	meta, _, err := NewClient(WithBaseURL(srv.URL)).GetHistory(context.Background(), "RELIANCE.NS", "1y")
	require.NoError(t, err)

	assert.Equal(t, "/v10/finance/quoteSummary/RELIANCE.NS", summaryPath)
	assert.Equal(t, "assetProfile,price,summaryDetail", summaryModulesParam)

	assert.Equal(t, "Energy", meta.Sector)
	assert.Equal(t, "Oil & Gas Refining & Marketing", meta.Industry)
	assert.Equal(t, "India", meta.Country)
	assert.Equal(t, "Reliance Industries Limited", meta.LongName)
	assert.Equal(t, 19500000000000.0, meta.MarketCap, "price module wins over summaryDetail")
	assert.Equal(t, 1990.0, meta.PreviousClose)
	assert.Equal(t, 1988.0, meta.DayLow)
	assert.Equal(t, 2005.0, meta.DayHigh)
	assert.Equal(t, 2000.0, meta.CurrentPrice)
}

func TestGetHistory_SummaryKeepsChartValues(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v10/") {
			w.Write([]byte(summaryFixture))
			return
		}
		w.Write([]byte(chartFixture))
	}))
	defer srv.Close()

	meta, _, err := NewClient(WithBaseURL(srv.URL)).GetHistory(context.Background(), "TCS.NS", "1y")
	require.NoError(t, err)

	assert.Equal(t, "Tata Consultancy Services Limited", meta.LongName)
	assert.Equal(t, 3925.0, meta.PreviousClose)
	assert.Equal(t, 3975.0, meta.DayHigh)
	assert.Equal(t, "Energy", meta.Sector, "empty fields are still filled")
}

func TestGetHistory_SummaryFailureIsNotFatal(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusUnauthorized) }},
		{"malformed", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("<html>")) }},
		{"summary error", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"quoteSummary":{"result":null,"error":{"code":"Unauthorized","description":"Invalid Crumb"}}}`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if strings.HasPrefix(r.URL.Path, "/v10/") {
					tt.handler(w, r)
					return
				}
				w.Write([]byte(chartFixture))
			}))
			defer srv.Close()

			meta, quotes, err := NewClient(WithBaseURL(srv.URL)).GetHistory(context.Background(), "TCS.NS", "1y")
			require.NoError(t, err)
			assert.Len(t, quotes, 2)
			assert.Empty(t, meta.Sector)
			assert.Equal(t, 3925.0, meta.PreviousClose)
		})
	}
}

func TestGetHistory_MalformedBodyIsNotNoData(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"chart": [truncated`))
	}))
	defer srv.Close()

	_, _, err := NewClient(WithBaseURL(srv.URL)).GetHistory(context.Background(), "TCS.NS", "1y")
	require.Error(t, err)
	assert.False(t, errors.Is(err, common.ErrNoData), "an undecodable body is treated as transient")
	assert.Contains(t, err.Error(), "failed to decode response")
	assert.Equal(t, int32(1), calls.Load(), "no summary request after a failed chart")
}
