package generation

import (
	"fmt"
	"time"

	"github.com/aescanero/genflow/pkg/adapters/generation/pollinations"
	"github.com/aescanero/genflow/pkg/ports"
	"go.uber.org/zap"
)

// Client is a generation client that can also probe and swap its credential
type Client interface {
	ports.GenerationClient
	ports.KeyValidator
	SetAPIKey(key string)
	IsConfigured() bool
}

// Config holds generation client configuration
type Config struct {
	Provider string
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	Metrics  ports.MetricsCollector
	Logger   *zap.Logger
}

// NewClient creates a new generation client based on provider
func NewClient(cfg *Config) (Client, error) {
	switch cfg.Provider {
	case "pollinations", "":
		return pollinations.NewClient(cfg.BaseURL, cfg.Logger,
			pollinations.WithAPIKey(cfg.APIKey),
			pollinations.WithTimeout(cfg.Timeout),
			pollinations.WithMetrics(cfg.Metrics),
		)
	default:
		return nil, fmt.Errorf("unsupported generation provider: %s", cfg.Provider)
	}
}
