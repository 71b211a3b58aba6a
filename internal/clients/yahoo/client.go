// Package yahoo provides a client for the Yahoo Finance chart and quoteSummary APIs
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/stockmatrix/internal/common"
	"github.com/bobmcallan/stockmatrix/internal/interfaces"
	"github.com/bobmcallan/stockmatrix/internal/models"
)

const (
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	DefaultTimeout   = 15 * time.Second
	DefaultRateLimit = 5 // requests per second
	DefaultPeriod    = "1y"

	userAgent = "Mozilla/5.0"
)

// Client implements interfaces.PriceProvider
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the outbound request rate
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a new Yahoo Finance client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents a non-200 response from the chart API
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Yahoo API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// Throttled reports whether the provider signalled rate limiting
func (e *APIError) Throttled() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta       chartMeta `json:"meta"`
	Timestamp  []int64   `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

type chartMeta struct {
	Currency             string  `json:"currency"`
	Symbol               string  `json:"symbol"`
	ExchangeName         string  `json:"exchangeName"`
	FullExchangeName     string  `json:"fullExchangeName"`
	InstrumentType       string  `json:"instrumentType"`
	LongName             string  `json:"longName"`
	ShortName            string  `json:"shortName"`
	RegularMarketPrice   float64 `json:"regularMarketPrice"`
	PreviousClose        float64 `json:"previousClose"`
	RegularMarketDayHigh float64 `json:"regularMarketDayHigh"`
	RegularMarketDayLow  float64 `json:"regularMarketDayLow"`
	FiftyTwoWeekHigh     float64 `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow      float64 `json:"fiftyTwoWeekLow"`
}

// get performs a rate-limited GET request and returns the raw body
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("url", c.baseURL+path).Msg("Yahoo API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", common.ErrNoData, path)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    truncate(string(body), 256),
			Endpoint:   path,
		}
	}

	return body, nil
}

// GetHistory retrieves instrument metadata and daily quotes covering period.
// Profile fields come from a best-effort quoteSummary request. The chart's
// chartPreviousClose is the close before the range starts and is never used
// as the previous close. Bars with a missing close are skipped. A symbol the provider does not know,
// or one with no usable bars, yields common.ErrNoData.
func (c *Client) GetHistory(ctx context.Context, symbol models.Symbol, period string) (*models.InstrumentMetadata, []models.Quote, error) {
	if period == "" {
		period = DefaultPeriod
	}

	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("range", period)
	params.Set("includePrePost", "false")

	path := "/v8/finance/chart/" + url.PathEscape(symbol.String())

	body, err := c.get(ctx, path, params)
	if err != nil {
		return nil, nil, err
	}

	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, nil, fmt.Errorf("%w: %s: %s", common.ErrNoData, chart.Chart.Error.Code, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, nil, fmt.Errorf("%w: empty result for %s", common.ErrNoData, symbol)
	}

	result := chart.Chart.Result[0]
	quotes := convertQuotes(result)
	if len(quotes) == 0 {
		return nil, nil, fmt.Errorf("%w: no bars for %s", common.ErrNoData, symbol)
	}

	meta := convertMeta(symbol, result.Meta)
	c.enrich(ctx, meta)

	c.logger.Debug().
		Str("symbol", symbol.String()).
		Int("bars", len(quotes)).
		Msg("Yahoo history fetched")

	return meta, quotes, nil
}

func convertQuotes(result chartResult) []models.Quote {
	if len(result.Indicators.Quote) == 0 {
		return nil
	}
	q := result.Indicators.Quote[0]

	quotes := make([]models.Quote, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		closePrice, ok := at(q.Close, i)
		if !ok {
			continue
		}
		open, _ := at(q.Open, i)
		high, _ := at(q.High, i)
		low, _ := at(q.Low, i)
		volume, _ := at(q.Volume, i)

		quotes = append(quotes, models.Quote{
			Date:   time.Unix(ts, 0).UTC(),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePrice,
			Volume: int64(volume),
		})
	}
	return quotes
}

func convertMeta(symbol models.Symbol, m chartMeta) *models.InstrumentMetadata {
	exchange := m.FullExchangeName
	if exchange == "" {
		exchange = m.ExchangeName
	}
	return &models.InstrumentMetadata{
		Symbol:         symbol,
		LongName:       m.LongName,
		ShortName:      m.ShortName,
		Currency:       m.Currency,
		Exchange:       exchange,
		InstrumentType: m.InstrumentType,
		CurrentPrice:   m.RegularMarketPrice,
		PreviousClose:  m.PreviousClose,
		DayHigh:        m.RegularMarketDayHigh,
		DayLow:         m.RegularMarketDayLow,
		High52Week:     m.FiftyTwoWeekHigh,
		Low52Week:      m.FiftyTwoWeekLow,
	}
}

func at(values []*float64, i int) (float64, bool) {
	if i >= len(values) || values[i] == nil {
		return 0, false
	}
	return *values[i], true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Ensure Client implements PriceProvider
var _ interfaces.PriceProvider = (*Client)(nil)
