package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Backend names accepted for credentials and events
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config holds all configuration for the genflow server
type Config struct {
	// Server configuration
	HTTPPort int    `env:"GENFLOW_HTTP_PORT" envDefault:"8080"`
	GRPCPort int    `env:"GENFLOW_GRPC_PORT" envDefault:"9090"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Backend selection
	CredentialsBackend string `env:"CREDENTIALS_BACKEND" envDefault:"memory"`
	EventsBackend      string `env:"EVENTS_BACKEND" envDefault:"memory"`

	// Redis configuration
	Redis RedisConfig

	// Generation service configuration
	Pollinations PollinationsConfig

	// Worker configuration
	Workers WorkerConfig

	// Timeouts
	Timeouts TimeoutConfig
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASS"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`

	// Connection pool settings
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	MaxRetries   int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`

	// Credentials and event streams
	CredentialKey string        `env:"REDIS_CREDENTIAL_KEY" envDefault:"genflow:credentials:api_key"`
	CredentialTTL time.Duration `env:"REDIS_CREDENTIAL_TTL" envDefault:"0s"`
	StreamMaxLen  int64         `env:"REDIS_STREAM_MAXLEN" envDefault:"10000"`
	ConsumerGroup string        `env:"REDIS_CONSUMER_GROUP"`
}

// PollinationsConfig holds generation client configuration
type PollinationsConfig struct {
	Provider string        `env:"GENERATION_PROVIDER" envDefault:"pollinations"`
	BaseURL  string        `env:"POLLINATIONS_BASE_URL" envDefault:"https://gen.pollinations.ai"`
	APIKey   string        `env:"POLLINATIONS_API_KEY"`
	Timeout  time.Duration `env:"POLLINATIONS_TIMEOUT" envDefault:"120s"`
}

// WorkerConfig holds worker pool configuration
type WorkerConfig struct {
	PoolSize            int           `env:"WORKER_POOL_SIZE" envDefault:"5"`
	QueueSize           int           `env:"WORKER_QUEUE_SIZE" envDefault:"64"`
	HealthCheckInterval time.Duration `env:"WORKER_HEALTH_CHECK_INTERVAL" envDefault:"30s"`
}

// TimeoutConfig holds various timeout configurations
type TimeoutConfig struct {
	NodeExecutionTimeout time.Duration `env:"TIMEOUT_NODE_EXECUTION" envDefault:"300s"` // 5 minutes
	ShutdownTimeout      time.Duration `env:"TIMEOUT_SHUTDOWN" envDefault:"30s"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server ports
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.GRPCPort < 1 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPCPort)
	}
	if c.HTTPPort == c.GRPCPort {
		return fmt.Errorf("HTTP and gRPC ports must differ: %d", c.HTTPPort)
	}

	// Validate backends
	for name, backend := range map[string]string{"credentials": c.CredentialsBackend, "events": c.EventsBackend} {
		if backend != BackendMemory && backend != BackendRedis {
			return fmt.Errorf("unsupported %s backend: %s (must be memory or redis)", name, backend)
		}
	}
	if c.UsesRedis() && c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required")
	}

	// Validate generation config
	if c.Pollinations.Provider != "pollinations" {
		return fmt.Errorf("unsupported generation provider: %s", c.Pollinations.Provider)
	}
	if c.Pollinations.BaseURL == "" {
		return fmt.Errorf("pollinations base URL is required")
	}

	// Validate worker config
	if c.Workers.PoolSize < 1 {
		return fmt.Errorf("worker pool size must be at least 1")
	}
	if c.Workers.QueueSize < 1 {
		return fmt.Errorf("worker queue size must be at least 1")
	}

	if c.Timeouts.NodeExecutionTimeout <= 0 {
		return fmt.Errorf("node execution timeout must be positive")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// UsesRedis reports whether any backend needs a Redis connection
func (c *Config) UsesRedis() bool {
	return c.CredentialsBackend == BackendRedis || c.EventsBackend == BackendRedis
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// GetGRPCAddr returns the gRPC server address
func (c *Config) GetGRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}
