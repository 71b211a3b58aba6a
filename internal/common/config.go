// Package common provides shared utilities for StockMatrix
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for StockMatrix
type Config struct {
	Environment string          `toml:"environment"`
	Server      ServerConfig    `toml:"server"`
	Limits      LimitsConfig    `toml:"limits"`
	Cache       CacheConfig     `toml:"cache"`
	Clients     ClientsConfig   `toml:"clients"`
	Analysis    AnalysisConfig  `toml:"analysis"`
	Sentiment   SentimentConfig `toml:"sentiment"`
	Logging     LoggingConfig   `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LimitsConfig holds the per-client and global request counters
type LimitsConfig struct {
	ClientLimit  int    `toml:"client_limit"`
	GlobalLimit  int    `toml:"global_limit"`
	Window       string `toml:"window"`
	SweepSpec    string `toml:"sweep_spec"` // cron spec for removing elapsed counters
	TrustProxies bool   `toml:"trust_proxies"`
}

// GetWindow parses and returns the counter window
func (c *LimitsConfig) GetWindow() time.Duration {
	d, err := time.ParseDuration(c.Window)
	if err != nil || d <= 0 {
		return 60 * time.Second
	}
	return d
}

// CacheConfig holds response cache configuration
type CacheConfig struct {
	TTL       string `toml:"ttl"`
	SweepSpec string `toml:"sweep_spec"`
}

// GetTTL parses and returns the cache TTL
func (c *CacheConfig) GetTTL() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Yahoo   YahooConfig   `toml:"yahoo"`
	NewsAPI NewsAPIConfig `toml:"newsapi"`
	Gemini  GeminiConfig  `toml:"gemini"`
}

// YahooConfig holds price-history provider configuration
type YahooConfig struct {
	BaseURL     string `toml:"base_url"`
	RateLimit   int    `toml:"rate_limit"`
	Timeout     string `toml:"timeout"`
	MaxAttempts int    `toml:"max_attempts"`
	BaseDelay   string `toml:"base_delay"`
	Period      string `toml:"period"`
}

// GetTimeout parses and returns the timeout duration
func (c *YahooConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetBaseDelay parses and returns the retry base delay
func (c *YahooConfig) GetBaseDelay() time.Duration {
	d, err := time.ParseDuration(c.BaseDelay)
	if err != nil || d < 0 {
		return 2 * time.Second
	}
	return d
}

// NewsAPIConfig holds news-search configuration
type NewsAPIConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
	Timeout string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *NewsAPIConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// AnalysisConfig holds pipeline tunables
type AnalysisConfig struct {
	DefaultExchange  string   `toml:"default_exchange"`
	ExchangeSuffixes []string `toml:"exchange_suffixes"`
	NewsLimit        int      `toml:"news_limit"`
	Chart            bool     `toml:"chart"`
}

// SentimentConfig selects the headline scorer
type SentimentConfig struct {
	Scorer string `toml:"scorer"` // "lexicon" or "gemini"
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Limits: LimitsConfig{
			ClientLimit: 30,
			GlobalLimit: 100,
			Window:      "60s",
			SweepSpec:   "@every 5m",
		},
		Cache: CacheConfig{
			TTL:       "1h",
			SweepSpec: "@every 10m",
		},
		Clients: ClientsConfig{
			Yahoo: YahooConfig{
				BaseURL:     "https://query1.finance.yahoo.com",
				RateLimit:   5,
				Timeout:     "15s",
				MaxAttempts: 5,
				BaseDelay:   "2s",
				Period:      "1y",
			},
			NewsAPI: NewsAPIConfig{
				BaseURL: "https://newsapi.org",
				Timeout: "10s",
			},
			Gemini: GeminiConfig{
				Model: "gemini-2.0-flash",
			},
		},
		Analysis: AnalysisConfig{
			DefaultExchange:  ".NS",
			ExchangeSuffixes: []string{".NS", ".BO"},
			NewsLimit:        5,
			Chart:            true,
		},
		Sentiment: SentimentConfig{
			Scorer: "lexicon",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("STOCKMATRIX_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("STOCKMATRIX_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("STOCKMATRIX_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("STOCKMATRIX_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if v := os.Getenv("STOCKMATRIX_CLIENT_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Limits.ClientLimit = n
		}
	}

	if v := os.Getenv("STOCKMATRIX_GLOBAL_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Limits.GlobalLimit = n
		}
	}

	if v := os.Getenv("STOCKMATRIX_CACHE_TTL"); v != "" {
		config.Cache.TTL = v
	}

	if v := os.Getenv("STOCKMATRIX_SENTIMENT_SCORER"); v != "" {
		config.Sentiment.Scorer = strings.ToLower(v)
	}

	if key := os.Getenv("NEWSAPI_API_KEY"); key != "" {
		config.Clients.NewsAPI.APIKey = key
	}

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		config.Clients.Gemini.APIKey = key
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
