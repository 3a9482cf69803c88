package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultKey is where the API key is kept unless overridden
const DefaultKey = "genflow:credentials:api_key"

// CredentialStore implements ports.CredentialStore using a Redis string
type CredentialStore struct {
	client redis.UniversalClient
	logger *zap.Logger
	key    string
	ttl    time.Duration
}

// NewCredentialStore creates a new Redis credential store.
// A zero ttl keeps the key until it is cleared.
func NewCredentialStore(client redis.UniversalClient, key string, ttl time.Duration, logger *zap.Logger) *CredentialStore {
	if key == "" {
		key = DefaultKey
	}
	return &CredentialStore{
		client: client,
		logger: logger,
		key:    key,
		ttl:    ttl,
	}
}

// Load returns the stored key, or "" when none is saved
func (s *CredentialStore) Load(ctx context.Context) (string, error) {
	value, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("failed to load credential: %w", err)
	}
	return value, nil
}

// Save replaces the stored key
func (s *CredentialStore) Save(ctx context.Context, key string) error {
	if err := s.client.Set(ctx, s.key, key, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}

	s.logger.Debug("credential saved", zap.String("redis_key", s.key))
	return nil
}

// Clear removes the stored key
func (s *CredentialStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}

	s.logger.Debug("credential cleared", zap.String("redis_key", s.key))
	return nil
}
