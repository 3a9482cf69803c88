package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialStore(t *testing.T) {
	ctx := context.Background()
	s := NewCredentialStore()

	key, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, key)

	require.NoError(t, s.Save(ctx, "sk-1"))
	require.NoError(t, s.Save(ctx, "sk-2"))
	key, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sk-2", key)

	require.NoError(t, s.Clear(ctx))
	key, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, key)
}
