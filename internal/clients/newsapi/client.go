// Package newsapi provides a client for the NewsAPI article search endpoint
package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/stockmatrix/internal/common"
	"github.com/bobmcallan/stockmatrix/internal/interfaces"
)

const (
	DefaultBaseURL   = "https://newsapi.org"
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 2 // requests per second
	MaxPageSize      = 100
)

// Client implements interfaces.NewsClient
type Client struct {
	baseURL    string
	apiKey     string
	language   string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ErrMissingAPIKey is returned by Search when the client has no key
var ErrMissingAPIKey = errors.New("newsapi: api key not configured")

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

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithLanguage restricts results to an ISO-639-1 language code
func WithLanguage(language string) ClientOption {
	return func(c *Client) {
		c.language = language
	}
}

// NewClient creates a new NewsAPI client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:  DefaultBaseURL,
		apiKey:   apiKey,
		language: "en",
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

// APIError represents an error reported by NewsAPI
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("NewsAPI error: %s: %s (status: %d)", e.Code, e.Message, e.StatusCode)
}

type everythingResponse struct {
	Status       string `json:"status"`
	Code         string `json:"code"`
	Message      string `json:"message"`
	TotalResults int    `json:"totalResults"`
	Articles     []struct {
		Source struct {
			ID   *string `json:"id"`
			Name string  `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// Search queries /v2/everything for query, most recent first, returning at
// most limit articles.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]interfaces.NewsArticle, error) {
	if limit <= 0 {
		return []interfaces.NewsArticle{}, nil
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("sortBy", "publishedAt")
	params.Set("pageSize", strconv.Itoa(limit))
	if c.language != "" {
		params.Set("language", c.language)
	}

	path := "/v2/everything"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	c.logger.Debug().Str("url", c.baseURL+path).Str("query", query).Msg("NewsAPI request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var result everythingResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || result.Status == "error" {
		return nil, &APIError{StatusCode: resp.StatusCode, Code: result.Code, Message: result.Message}
	}

	articles := make([]interfaces.NewsArticle, 0, min(limit, len(result.Articles)))
	for _, a := range result.Articles {
		if len(articles) == limit {
			break
		}
		if a.Title == "" || a.Title == "[Removed]" {
			continue
		}
		articles = append(articles, interfaces.NewsArticle{
			Title:       a.Title,
			Source:      a.Source.Name,
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
			Description: a.Description,
		})
	}

	return articles, nil
}

// Ensure Client implements NewsClient
var _ interfaces.NewsClient = (*Client)(nil)
