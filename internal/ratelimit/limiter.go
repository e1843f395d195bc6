package ratelimit

import (
	"context"
	"time"
)

// SlidingWindowLimiter enforces a single limit over a sliding window.
// PolicyLimiter composes one per configured limit; every Allow records
// the request before judging it, so a denied request still counts
// against the window.
type SlidingWindowLimiter struct {
	store  Store
	limit  int64
	window time.Duration
}

// NewSlidingWindowLimiter creates a new sliding window rate limiter.
func NewSlidingWindowLimiter(store Store, limit int64, window time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		store:  store,
		limit:  limit,
		window: window,
	}
}

// Allow records a request for the key and reports whether it stays
// within the limit, along with the count observed in the window.
func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (bool, int64, error) {
	count, err := l.store.Record(ctx, key, l.window)
	if err != nil {
		return false, 0, err
	}

	return count <= l.limit, count, nil
}
