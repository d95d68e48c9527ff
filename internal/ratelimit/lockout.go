package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLockoutUnavailable indicates the lockout backend is unreachable.
var ErrLockoutUnavailable = errors.New("lockout backend unavailable")

// LockoutConfig configures failed-login lockout.
type LockoutConfig struct {
	MaxFailures int
	Window      time.Duration
}

// Lockout counts failed logins per identity in Redis. A nil *Lockout, or one
// built without a client, never locks anyone out.
type Lockout struct {
	redis  redis.UniversalClient
	config LockoutConfig
}

// NewLockout creates a lockout counter.
func NewLockout(client redis.UniversalClient, cfg LockoutConfig) *Lockout {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	return &Lockout{redis: client, config: cfg}
}

func (l *Lockout) enabled(id string) bool {
	return l != nil && l.redis != nil && id != ""
}

func (l *Lockout) key(id string) string {
	return "orgdesk:login_failures:" + id
}

// Locked reports whether id has reached the failure threshold.
func (l *Lockout) Locked(ctx context.Context, id string) (bool, error) {
	if !l.enabled(id) {
		return false, nil
	}

	count, err := l.redis.Get(ctx, l.key(id)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}
	return count >= int64(l.config.MaxFailures), nil
}

// RecordFailure increments the failure counter for id. The counter expires
// one window after the first failure. Returns true once the threshold is
// reached.
func (l *Lockout) RecordFailure(ctx context.Context, id string) (bool, error) {
	if !l.enabled(id) {
		return false, nil
	}

	count, err := l.redis.Incr(ctx, l.key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, l.key(id), l.config.Window).Err(); err != nil {
			return false, fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
		}
	}

	return count >= int64(l.config.MaxFailures), nil
}

// Reset clears the failure counter for id.
func (l *Lockout) Reset(ctx context.Context, id string) error {
	if !l.enabled(id) {
		return nil
	}

	if err := l.redis.Del(ctx, l.key(id)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}
	return nil
}
