package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/shopspring/decimal"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	ProviderIEX          = "iex"
	ProviderAlphaVantage = "alphavantage"
)

var defaultQuoteURLs = map[string]string{
	ProviderIEX:          "https://cloud.iexapis.com/stable",
	ProviderAlphaVantage: "https://www.alphavantage.co",
}

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port          string `env:"PORT" env-default:"8080"`
	StorageDriver string `env:"STORAGE_DRIVER" env-default:"postgres"`
	DatabaseURL   string `env:"DATABASE_URL"`
	RedisURL      string `env:"REDIS_URL"`

	APIKey        string        `env:"API_KEY"`
	QuoteProvider string        `env:"QUOTE_PROVIDER" env-default:"iex"`
	QuoteBaseURL  string        `env:"QUOTE_BASE_URL"`
	QuoteTimeout  time.Duration `env:"QUOTE_TIMEOUT" env-default:"5s"`
	QuoteCacheTTL time.Duration `env:"QUOTE_CACHE_TTL" env-default:"0s"`

	JWTSecret         string   `env:"JWT_SECRET"`
	JWTIssuer         string   `env:"JWT_ISSUER" env-default:"paper-trader"`
	SessionTTLMinutes int      `env:"SESSION_TTL_MINUTES" env-default:"120"`
	CORSOrigins       []string `env:"CORS_ALLOWED_ORIGINS" env-default:"*"`

	InitialCash string `env:"INITIAL_CASH" env-default:"10000.00"`

	LogLevel  string `env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `env:"LOG_FORMAT" env-default:"json"`
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.JWTSecret = strings.TrimSpace(c.JWTSecret)
	c.DatabaseURL = strings.TrimSpace(c.DatabaseURL)
	c.StorageDriver = strings.ToLower(strings.TrimSpace(c.StorageDriver))
	c.QuoteProvider = strings.ToLower(strings.TrimSpace(c.QuoteProvider))
	c.CORSOrigins = trimAll(c.CORSOrigins)

	if c.APIKey == "" {
		return errors.New("API_KEY not set")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	switch c.StorageDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	defaultURL, ok := defaultQuoteURLs[c.QuoteProvider]
	if !ok {
		return fmt.Errorf("unknown QUOTE_PROVIDER %q", c.QuoteProvider)
	}
	if strings.TrimSpace(c.QuoteBaseURL) == "" {
		c.QuoteBaseURL = defaultURL
	}
	c.QuoteBaseURL = strings.TrimRight(strings.TrimSpace(c.QuoteBaseURL), "/")

	if c.SessionTTLMinutes <= 0 {
		c.SessionTTLMinutes = 120
	}

	c.InitialCash = strings.TrimSpace(c.InitialCash)
	cash, err := decimal.NewFromString(c.InitialCash)
	if err != nil || cash.IsNegative() {
		return fmt.Errorf("invalid INITIAL_CASH %q", c.InitialCash)
	}
	return nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// StartingCash is the balance credited to newly registered users.
func (c Config) StartingCash() decimal.Decimal {
	cash, err := decimal.NewFromString(c.InitialCash)
	if err != nil {
		return decimal.Zero
	}
	return cash
}

// SessionTTL is the lifetime of a login session.
func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

func trimAll(values []string) []string {
	var out []string
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
