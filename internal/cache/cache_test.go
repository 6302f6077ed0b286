package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handshakeState struct {
	Secret string `json:"secret"`
}

func TestMemoryCacheSetGet(t *testing.T) {
	c := NewMemoryCache[handshakeState]()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "token-1", handshakeState{Secret: "s1"}, time.Minute))

	got, err := c.Get(ctx, "token-1")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.Secret)
}

func TestMemoryCacheMiss(t *testing.T) {
	c := NewMemoryCache[string]()

	_, err := c.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache[string]()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "token-1", "secret", -time.Second))

	_, err := c.Get(ctx, "token-1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheDelete(t *testing.T) {
	c := NewMemoryCache[string]()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "token-1", "secret", time.Minute))
	require.NoError(t, c.Delete(ctx, "token-1"))

	_, err := c.Get(ctx, "token-1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheHealth(t *testing.T) {
	c := NewMemoryCache[string]()
	assert.NoError(t, c.Health(context.Background()))
	assert.NoError(t, c.Close())
}
