package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("API_KEY", "pk_test")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORAGE_DRIVER", "memory")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddress())
	assert.Equal(t, DriverMemory, cfg.StorageDriver)
	assert.Equal(t, ProviderIEX, cfg.QuoteProvider)
	assert.Equal(t, "https://cloud.iexapis.com/stable", cfg.QuoteBaseURL)
	assert.Equal(t, 5*time.Second, cfg.QuoteTimeout)
	assert.Zero(t, cfg.QuoteCacheTTL)
	assert.Equal(t, 120*time.Minute, cfg.SessionTTL())
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.True(t, decimal.NewFromInt(10000).Equal(cfg.StartingCash()))
}

func TestLoadRequiresAPIKey(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("API_KEY", "  ")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API_KEY")
}

func TestLoadRequiresDatabaseURLForPostgres(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("QUOTE_PROVIDER", "bloomberg")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("QUOTE_PROVIDER", "AlphaVantage")
	t.Setenv("QUOTE_BASE_URL", "http://localhost:9999/")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("INITIAL_CASH", "2500.50")
	t.Setenv("QUOTE_CACHE_TTL", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProviderAlphaVantage, cfg.QuoteProvider)
	assert.Equal(t, "http://localhost:9999", cfg.QuoteBaseURL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, "2500.5", cfg.StartingCash().String())
	assert.Equal(t, 30*time.Second, cfg.QuoteCacheTTL)
}
