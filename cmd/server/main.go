package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/paper-trader/internal/accounts"
	"github.com/hongminglow/paper-trader/internal/auth"
	"github.com/hongminglow/paper-trader/internal/cache"
	"github.com/hongminglow/paper-trader/internal/config"
	"github.com/hongminglow/paper-trader/internal/logging"
	"github.com/hongminglow/paper-trader/internal/quote"
	"github.com/hongminglow/paper-trader/internal/server"
	"github.com/hongminglow/paper-trader/internal/storage"
	"github.com/hongminglow/paper-trader/internal/storage/memory"
	"github.com/hongminglow/paper-trader/internal/storage/postgres"
	"github.com/hongminglow/paper-trader/internal/trading"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	if envErr != nil {
		logger.Debug("no .env file found; relying on existing environment")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.WithError(err).Fatal("init storage")
	}
	defer closeStore()

	kv, closeCache, err := openCache(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("init cache")
	}
	defer closeCache()

	var lookup quote.Lookup
	switch cfg.QuoteProvider {
	case config.ProviderAlphaVantage:
		lookup = quote.NewAlphaVantageClient(cfg.QuoteBaseURL, cfg.APIKey, cfg.QuoteTimeout)
	default:
		lookup = quote.NewIEXClient(cfg.QuoteBaseURL, cfg.APIKey, cfg.QuoteTimeout)
	}
	if cfg.QuoteCacheTTL > 0 {
		lookup = quote.NewCached(lookup, kv, cfg.QuoteCacheTTL)
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.SessionTTL())
	srv := server.New(cfg, server.Deps{
		Accounts: accounts.NewService(store, cfg.StartingCash()),
		Trader:   trading.NewService(store, lookup),
		Sessions: auth.NewSessionManager(tokens, kv, cfg.SessionTTL()),
		Logger:   logger,
	})

	go func() {
		logger.WithFields(logrus.Fields{
			"addr":    cfg.HTTPAddress(),
			"storage": cfg.StorageDriver,
			"quotes":  cfg.QuoteProvider,
		}).Info("paper-trader listening")
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("http server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.WithError(err).Error("graceful shutdown error")
	}
}

func openStore(ctx context.Context, cfg config.Config) (storage.Store, func(), error) {
	if cfg.StorageDriver == config.DriverMemory {
		return memory.New(), func() {}, nil
	}
	store, err := postgres.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

// openCache uses Redis when REDIS_URL is set. Without it sessions live in
// process memory, swept by a janitor until ctx ends, and do not survive a
// restart.
func openCache(ctx context.Context, cfg config.Config, logger *logrus.Logger) (cache.Store, func(), error) {
	if cfg.RedisURL == "" {
		logger.Warn("REDIS_URL not set; sessions are kept in memory")
		m := cache.NewMemory()
		go m.RunJanitor(ctx, time.Minute)
		return m, func() {}, nil
	}
	r, err := cache.NewRedis(ctx, cfg.RedisURL, "paper-trader:")
	if err != nil {
		return nil, nil, err
	}
	return r, func() { _ = r.Close() }, nil
}
