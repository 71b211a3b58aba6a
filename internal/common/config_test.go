package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 30, cfg.Limits.ClientLimit)
	assert.Equal(t, 100, cfg.Limits.GlobalLimit)
	assert.Equal(t, 60*time.Second, cfg.Limits.GetWindow())
	assert.Equal(t, time.Hour, cfg.Cache.GetTTL())
	assert.Equal(t, 5, cfg.Clients.Yahoo.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Clients.Yahoo.GetBaseDelay())
	assert.Equal(t, ".NS", cfg.Analysis.DefaultExchange)
	assert.Equal(t, "lexicon", cfg.Sentiment.Scorer)
}

func TestConfig_PortEnvOverride(t *testing.T) {
	t.Setenv("STOCKMATRIX_PORT", "9090")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestConfig_InvalidPortEnvIgnored(t *testing.T) {
	t.Setenv("STOCKMATRIX_PORT", "not-a-port")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	assert.Equal(t, 8000, cfg.Server.Port)
}

func TestConfig_KeyEnvOverrides(t *testing.T) {
	t.Setenv("NEWSAPI_API_KEY", "news-from-env")
	t.Setenv("GEMINI_API_KEY", "gemini-from-env")
	t.Setenv("STOCKMATRIX_SENTIMENT_SCORER", "GEMINI")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	assert.Equal(t, "news-from-env", cfg.Clients.NewsAPI.APIKey)
	assert.Equal(t, "gemini-from-env", cfg.Clients.Gemini.APIKey)
	assert.Equal(t, "gemini", cfg.Sentiment.Scorer)
}

func TestConfig_DurationFallbacks(t *testing.T) {
	limits := LimitsConfig{Window: "bogus"}
	assert.Equal(t, 60*time.Second, limits.GetWindow())

	cache := CacheConfig{TTL: "-5m"}
	assert.Equal(t, time.Hour, cache.GetTTL())

	yahoo := YahooConfig{Timeout: "", BaseDelay: "nope"}
	assert.Equal(t, 30*time.Second, yahoo.GetTimeout())
	assert.Equal(t, 2*time.Second, yahoo.GetBaseDelay())

	yahoo.BaseDelay = "0s"
	assert.Equal(t, time.Duration(0), yahoo.GetBaseDelay())
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stockmatrix.toml")
	content := `
environment = "production"

[limits]
client_limit = 5
window = "10s"

[cache]
ttl = "15m"

[analysis]
news_limit = 9
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 5, cfg.Limits.ClientLimit)
	assert.Equal(t, 100, cfg.Limits.GlobalLimit)
	assert.Equal(t, 10*time.Second, cfg.Limits.GetWindow())
	assert.Equal(t, 15*time.Minute, cfg.Cache.GetTTL())
	assert.Equal(t, 9, cfg.Analysis.NewsLimit)
}

func TestLoadConfig_MissingFileSkipped(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"), "")
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
}

func TestLoadConfig_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("[limits\nclient_limit = "), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
