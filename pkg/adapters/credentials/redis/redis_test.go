package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T, ttl time.Duration) (*CredentialStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCredentialStore(client, "", ttl, zap.NewNop()), mr
}

func TestCredentialStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t, 0)

	key, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, key, "missing key loads as empty")

	require.NoError(t, s.Save(ctx, "sk-live"))
	stored, err := mr.Get(DefaultKey)
	require.NoError(t, err)
	assert.Equal(t, "sk-live", stored)

	key, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sk-live", key)

	require.NoError(t, s.Clear(ctx))
	assert.False(t, mr.Exists(DefaultKey))
	require.NoError(t, s.Clear(ctx), "clearing twice is fine")
}

func TestCredentialStore_TTL(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t, time.Hour)

	require.NoError(t, s.Save(ctx, "sk-short"))
	assert.Equal(t, time.Hour, mr.TTL(DefaultKey))

	mr.FastForward(2 * time.Hour)
	key, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, key)
}

func TestCredentialStore_Unreachable(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t, 0)
	mr.Close()

	_, err := s.Load(ctx)
	assert.ErrorContains(t, err, "failed to load credential")
	assert.ErrorContains(t, s.Save(ctx, "k"), "failed to save credential")
}
