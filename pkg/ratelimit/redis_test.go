package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T) *RedisRateLimiter {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisRateLimiter(client, "test")
}

func TestAllowWithinLimit(t *testing.T) {
	limiter := newTestLimiter(t)
	rate := Rate{Requests: 3, Window: time.Minute}

	for i := 0; i < 3; i++ {
		allowed, info := limiter.Allow(context.Background(), "user:1", rate)
		assert.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 3, info.Limit)
		assert.Equal(t, 2-i, info.Remaining)
	}

	allowed, info := limiter.Allow(context.Background(), "user:1", rate)
	assert.False(t, allowed)
	assert.Zero(t, info.Remaining)

	// other keys have their own window
	allowed, _ = limiter.Allow(context.Background(), "user:2", rate)
	assert.True(t, allowed)
}

func TestReset(t *testing.T) {
	limiter := newTestLimiter(t)
	rate := Rate{Requests: 1, Window: time.Minute}

	allowed, _ := limiter.Allow(context.Background(), "ip:10.0.0.1", rate)
	require.True(t, allowed)
	allowed, _ = limiter.Allow(context.Background(), "ip:10.0.0.1", rate)
	require.False(t, allowed)

	require.NoError(t, limiter.Reset(context.Background(), "ip:10.0.0.1"))

	allowed, _ = limiter.Allow(context.Background(), "ip:10.0.0.1", rate)
	assert.True(t, allowed)
}

func TestAllowFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 50 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })
	limiter := NewRedisRateLimiter(client, "test")

	allowed, info := limiter.Allow(context.Background(), "user:1", Rate{Requests: 1, Window: time.Minute})

	assert.True(t, allowed)
	assert.Equal(t, 1, info.Limit)
}
