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

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestLoginLimiterBlocksAfterMaxFailures(t *testing.T) {
	_, client := newTestRedis(t)
	limiter := NewLoginLimiter(client, Config{Enabled: true, MaxAttempts: 3, Cooldown: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Check(ctx, "a@x.com"))
		require.NoError(t, limiter.RecordFailure(ctx, "a@x.com"))
	}

	assert.ErrorIs(t, limiter.Check(ctx, "a@x.com"), ErrRateLimited)
	assert.ErrorIs(t, limiter.Check(ctx, " A@X.COM "), ErrRateLimited, "emails are normalized")
	assert.NoError(t, limiter.Check(ctx, "b@x.com"))
}

func TestLoginLimiterWindowExpires(t *testing.T) {
	mr, client := newTestRedis(t)
	limiter := NewLoginLimiter(client, Config{Enabled: true, MaxAttempts: 1, Cooldown: time.Minute})
	ctx := context.Background()

	require.NoError(t, limiter.RecordFailure(ctx, "a@x.com"))
	require.ErrorIs(t, limiter.Check(ctx, "a@x.com"), ErrRateLimited)

	mr.FastForward(time.Minute + time.Second)
	assert.NoError(t, limiter.Check(ctx, "a@x.com"))
}

func TestLoginLimiterResetClearsCounter(t *testing.T) {
	_, client := newTestRedis(t)
	limiter := NewLoginLimiter(client, Config{Enabled: true, MaxAttempts: 5, Cooldown: time.Minute})
	ctx := context.Background()

	require.NoError(t, limiter.RecordFailure(ctx, "a@x.com"))
	require.NoError(t, limiter.RecordFailure(ctx, "a@x.com"))
	attempts, err := limiter.Attempts(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)

	require.NoError(t, limiter.Reset(ctx, "a@x.com"))
	attempts, err = limiter.Attempts(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Zero(t, attempts)
}

func TestLoginLimiterDisabledIsNoop(t *testing.T) {
	_, client := newTestRedis(t)
	limiter := NewLoginLimiter(client, Config{Enabled: false, MaxAttempts: 1})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.RecordFailure(ctx, "a@x.com"))
	}
	assert.NoError(t, limiter.Check(ctx, "a@x.com"))

	attempts, err := limiter.Attempts(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Zero(t, attempts)
}

func TestNilLoginLimiterIsNoop(t *testing.T) {
	var limiter *LoginLimiter
	ctx := context.Background()

	assert.NoError(t, limiter.Check(ctx, "a@x.com"))
	assert.NoError(t, limiter.RecordFailure(ctx, "a@x.com"))
	assert.NoError(t, limiter.Reset(ctx, "a@x.com"))

	attempts, err := limiter.Attempts(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Zero(t, attempts)
}

func TestLoginLimiterReportsRedisOutage(t *testing.T) {
	mr, client := newTestRedis(t)
	limiter := NewLoginLimiter(client, Config{Enabled: true, MaxAttempts: 1, Cooldown: time.Minute})
	mr.Close()

	err := limiter.Check(context.Background(), "a@x.com")
	assert.ErrorIs(t, err, ErrRedisUnavailable)
}
