package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrRateLimited means the caller exhausted its failed-login budget.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps Redis transport failures.
	ErrRedisUnavailable = errors.New("redis unavailable")
)

// Config holds login throttle parameters.
type Config struct {
	Enabled     bool
	MaxAttempts int
	Cooldown    time.Duration
	KeyPrefix   string
}

// LoginLimiter counts failed logins per email in fixed Redis windows.
type LoginLimiter struct {
	redis  redis.UniversalClient
	config Config
}

// NewLoginLimiter creates a limiter backed by the given Redis client.
func NewLoginLimiter(client redis.UniversalClient, cfg Config) *LoginLimiter {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "auth"
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 5 * time.Minute
	}
	return &LoginLimiter{redis: client, config: cfg}
}

// Check returns ErrRateLimited once the failure budget for email is spent.
// Check and RecordFailure are separate round trips, so concurrent failures for
// one email can overshoot MaxAttempts by at most the number of in-flight logins.
func (l *LoginLimiter) Check(ctx context.Context, email string) error {
	if l == nil || !l.config.Enabled {
		return nil
	}

	count, err := l.redis.Get(ctx, l.key(email)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count >= int64(l.config.MaxAttempts) {
		return ErrRateLimited
	}
	return nil
}

// RecordFailure counts one failed login; the window starts at the first failure.
func (l *LoginLimiter) RecordFailure(ctx context.Context, email string) error {
	if l == nil || !l.config.Enabled {
		return nil
	}

	key := l.key(email)
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Cooldown).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}
	return nil
}

// Reset clears the failure counter after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, email string) error {
	if l == nil || !l.config.Enabled {
		return nil
	}
	if err := l.redis.Del(ctx, l.key(email)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Attempts returns the failures counted in the current window.
func (l *LoginLimiter) Attempts(ctx context.Context, email string) (int, error) {
	if l == nil || !l.config.Enabled {
		return 0, nil
	}
	count, err := l.redis.Get(ctx, l.key(email)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return int(count), nil
}

func (l *LoginLimiter) key(email string) string {
	return l.config.KeyPrefix + ":login:" + strings.ToLower(strings.TrimSpace(email))
}
