//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integration tests for the response cache
// Run with: go test -v -tags=integration ./internal/cache/...

func setupTestCache(t *testing.T) *RedisCache {
	c, err := NewRedisCache(Config{Addr: "localhost:6379", DB: 15})
	require.NoError(t, err, "Failed to connect to test redis")
	t.Cleanup(func() { c.Close() })
	return c
}

func TestRedisCache_SetGet(t *testing.T) {
	c := setupTestCache(t)
	ctx := context.Background()

	payload := []byte(`{"response":[]}`)
	require.NoError(t, c.Set(ctx, "fixtures?date=2024-10-19", payload, time.Minute))

	got, ok, err := c.Get(ctx, "fixtures?date=2024-10-19")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, payload, got)
}

func TestRedisCache_Miss(t *testing.T) {
	c := setupTestCache(t)

	got, ok, err := c.Get(context.Background(), "missing-key")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestRedisCache_Expiry(t *testing.T) {
	c := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short-lived", []byte("x"), 100*time.Millisecond))
	time.Sleep(300 * time.Millisecond)

	_, ok, err := c.Get(ctx, "short-lived")
	require.NoError(t, err)
	assert.False(t, ok)
}
