package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/aescanero/genflow/pkg/ports"
	"go.uber.org/zap"
)

// ErrEmptyKey is returned when an empty key is submitted for validation
var ErrEmptyKey = errors.New("API key is empty")

// KeyType is the kind of Pollinations key, read from its prefix
type KeyType string

const (
	KeyTypeNone        KeyType = ""
	KeyTypePublishable KeyType = "publishable"
	KeyTypeSecret      KeyType = "secret"
	KeyTypeUnknown     KeyType = "unknown"
)

// ClassifyKey reports the key type from its prefix
func ClassifyKey(key string) KeyType {
	switch {
	case key == "":
		return KeyTypeNone
	case strings.HasPrefix(key, "pk_"):
		return KeyTypePublishable
	case strings.HasPrefix(key, "sk_"):
		return KeyTypeSecret
	default:
		return KeyTypeUnknown
	}
}

// KeySetter receives the active key
type KeySetter interface {
	SetAPIKey(key string)
}

// Status is the externally visible key state. KeyValid is nil until a key has
// been validated or loaded.
type Status struct {
	Configured bool    `json:"configured"`
	KeyValid   *bool   `json:"isKeyValid"`
	KeyType    KeyType `json:"keyType,omitempty"`
	MaskedKey  string  `json:"maskedKey,omitempty"`
}

// Service validates, persists and applies the API key
type Service struct {
	store     ports.CredentialStore
	validator ports.KeyValidator
	client    KeySetter
	logger    *zap.Logger

	mu       sync.RWMutex
	key      string
	keyValid *bool
}

// NewService creates a new settings service
func NewService(store ports.CredentialStore, validator ports.KeyValidator, client KeySetter, logger *zap.Logger) *Service {
	return &Service{
		store:     store,
		validator: validator,
		client:    client,
		logger:    logger,
	}
}

// Load applies the stored key, if any, and marks it valid
func (s *Service) Load(ctx context.Context) error {
	key, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load API key: %w", err)
	}
	if key == "" {
		return nil
	}

	s.mu.Lock()
	s.key = key
	s.keyValid = boolPtr(true)
	s.mu.Unlock()

	s.client.SetAPIKey(key)
	s.logger.Info("API key loaded from storage", zap.String("key_type", string(ClassifyKey(key))))
	return nil
}

// ValidateAndStore probes key and, when accepted, persists and applies it.
// A rejected key only flips the status to invalid; the previous key stays active.
func (s *Service) ValidateAndStore(ctx context.Context, key string) (bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return false, ErrEmptyKey
	}

	valid := s.validator.ValidateAPIKey(ctx, key)
	if !valid {
		s.mu.Lock()
		s.keyValid = boolPtr(false)
		s.mu.Unlock()
		s.logger.Warn("API key rejected", zap.String("key_type", string(ClassifyKey(key))))
		return false, nil
	}

	if err := s.store.Save(ctx, key); err != nil {
		return true, fmt.Errorf("failed to save API key: %w", err)
	}

	s.mu.Lock()
	s.key = key
	s.keyValid = boolPtr(true)
	s.mu.Unlock()

	s.client.SetAPIKey(key)
	s.logger.Info("API key validated and stored", zap.String("key_type", string(ClassifyKey(key))))
	return true, nil
}

// Clear removes the key from storage and from the client
func (s *Service) Clear(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear API key: %w", err)
	}

	s.mu.Lock()
	s.key = ""
	s.keyValid = nil
	s.mu.Unlock()

	s.client.SetAPIKey("")
	s.logger.Info("API key cleared")
	return nil
}

// Status returns the current key state
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		Configured: s.key != "",
		KeyType:    ClassifyKey(s.key),
		MaskedKey:  MaskKey(s.key),
	}
	if s.keyValid != nil {
		st.KeyValid = boolPtr(*s.keyValid)
	}
	return st
}

// MaskKey keeps the prefix and last four characters of key
func MaskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:3] + strings.Repeat("*", len(key)-7) + key[len(key)-4:]
}

func boolPtr(b bool) *bool {
	return &b
}
