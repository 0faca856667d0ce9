package rate

import (
	"context"
	"fmt"
	"time"
)

// ErrRateLimited carries the wait hint for a throttled submission.
type ErrRateLimited struct {
	RetryAfter time.Duration
}

func (e ErrRateLimited) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

type Config struct {
	SubmissionsPerMin int
}

// Limiter throttles journal submissions per user over a fixed one
// minute window backed by redis.
type Limiter struct {
	store WindowStore
	cfg   Config
}

func NewLimiter(store WindowStore, cfg Config) *Limiter {
	if cfg.SubmissionsPerMin <= 0 {
		cfg.SubmissionsPerMin = 6
	}
	return &Limiter{store: store, cfg: cfg}
}

func (l *Limiter) AllowSubmission(ctx context.Context, userID int64) error {
	if l.store == nil {
		return fmt.Errorf("rate store is not configured")
	}

	key := fmt.Sprintf("rate:journal:%d", userID)
	count, ttl, err := l.store.IncrementWindow(ctx, key, time.Minute)
	if err != nil {
		return fmt.Errorf("rate window: %w", err)
	}
	if count > int64(l.cfg.SubmissionsPerMin) {
		if ttl <= 0 {
			ttl = time.Minute
		}
		return ErrRateLimited{RetryAfter: ttl}
	}

	return nil
}
