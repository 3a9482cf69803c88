package memory

import (
	"context"
	"sync"
)

// CredentialStore implements ports.CredentialStore in process memory.
// The key is lost on restart.
type CredentialStore struct {
	mu  sync.RWMutex
	key string
}

// NewCredentialStore creates a new in-memory credential store
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{}
}

// Load returns the stored key, or "" when none is saved
func (s *CredentialStore) Load(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key, nil
}

// Save replaces the stored key
func (s *CredentialStore) Save(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = key
	return nil
}

// Clear removes the stored key
func (s *CredentialStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = ""
	return nil
}
