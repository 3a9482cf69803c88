package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.GetHTTPAddr())
	assert.Equal(t, ":9090", cfg.GetGRPCAddr())
	assert.Equal(t, BackendMemory, cfg.CredentialsBackend)
	assert.Equal(t, BackendMemory, cfg.EventsBackend)
	assert.False(t, cfg.UsesRedis())
	assert.Equal(t, "https://gen.pollinations.ai", cfg.Pollinations.BaseURL)
	assert.Equal(t, 5, cfg.Workers.PoolSize)
	assert.Equal(t, 5*time.Minute, cfg.Timeouts.NodeExecutionTimeout)
	assert.Equal(t, "genflow:credentials:api_key", cfg.Redis.CredentialKey)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("GENFLOW_HTTP_PORT", "8181")
	t.Setenv("EVENTS_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("POLLINATIONS_API_KEY", "sk_env")
	t.Setenv("TIMEOUT_NODE_EXECUTION", "45s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8181, cfg.HTTPPort)
	assert.True(t, cfg.UsesRedis())
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "sk_env", cfg.Pollinations.APIKey)
	assert.Equal(t, 45*time.Second, cfg.Timeouts.NodeExecutionTimeout)
}

func TestLoad_ParseError(t *testing.T) {
	t.Setenv("WORKER_POOL_SIZE", "many")

	_, err := Load()
	require.ErrorContains(t, err, "failed to parse config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad http port", func(c *Config) { c.HTTPPort = 0 }, "invalid HTTP port"},
		{"bad grpc port", func(c *Config) { c.GRPCPort = 70000 }, "invalid gRPC port"},
		{"same ports", func(c *Config) { c.GRPCPort = c.HTTPPort }, "must differ"},
		{"unknown backend", func(c *Config) { c.EventsBackend = "kafka" }, "unsupported events backend"},
		{"redis without addr", func(c *Config) { c.CredentialsBackend = BackendRedis; c.Redis.Addr = "" }, "redis address is required"},
		{"unknown provider", func(c *Config) { c.Pollinations.Provider = "openai" }, "unsupported generation provider"},
		{"no workers", func(c *Config) { c.Workers.PoolSize = 0 }, "worker pool size"},
		{"no queue", func(c *Config) { c.Workers.QueueSize = 0 }, "worker queue size"},
		{"no timeout", func(c *Config) { c.Timeouts.NodeExecutionTimeout = 0 }, "node execution timeout"},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }, "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func validConfig() *Config {
	return &Config{
		HTTPPort:           8080,
		GRPCPort:           9090,
		LogLevel:           "info",
		CredentialsBackend: BackendMemory,
		EventsBackend:      BackendMemory,
		Redis:              RedisConfig{Addr: "localhost:6379"},
		Pollinations:       PollinationsConfig{Provider: "pollinations", BaseURL: "https://gen.test"},
		Workers:            WorkerConfig{PoolSize: 1, QueueSize: 1},
		Timeouts:           TimeoutConfig{NodeExecutionTimeout: time.Second},
	}
}
