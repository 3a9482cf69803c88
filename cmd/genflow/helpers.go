package main

import (
	"context"
	"fmt"

	"github.com/aescanero/genflow/internal/config"
	"github.com/aescanero/genflow/pkg/adapters/credentials/memory"
	credredis "github.com/aescanero/genflow/pkg/adapters/credentials/redis"
	"github.com/aescanero/genflow/pkg/adapters/generation"
	"github.com/aescanero/genflow/pkg/ports"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// initLogger initializes the logger based on log level
func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	return logger
}

// connectRedis opens and pings a Redis client when a backend needs one
func connectRedis(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*goredis.Client, error) {
	if !cfg.UsesRedis() {
		return nil, nil
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))
	return client, nil
}

// newCredentialStore picks the configured credential backend
func newCredentialStore(cfg *config.Config, client *goredis.Client, logger *zap.Logger) ports.CredentialStore {
	if cfg.CredentialsBackend == config.BackendRedis {
		return credredis.NewCredentialStore(client, cfg.Redis.CredentialKey, cfg.Redis.CredentialTTL, logger)
	}
	return memory.NewCredentialStore()
}

// newGenerationClient builds the generation client from configuration
func newGenerationClient(cfg *config.Config, metrics ports.MetricsCollector, logger *zap.Logger) (generation.Client, error) {
	return generation.NewClient(&generation.Config{
		Provider: cfg.Pollinations.Provider,
		BaseURL:  cfg.Pollinations.BaseURL,
		APIKey:   cfg.Pollinations.APIKey,
		Timeout:  cfg.Pollinations.Timeout,
		Metrics:  metrics,
		Logger:   logger,
	})
}
