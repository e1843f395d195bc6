package ratelimit

import (
	"context"
	"fmt"
)

// LimitExceeded contains information about which limit was exceeded.
type LimitExceeded struct {
	Scope  Scope
	Config LimitConfig
	Count  int64
}

// PolicyLimiter enforces rate limits based on a policy and resolved
// scopes. Each individual limit is checked through a SlidingWindowLimiter
// keyed by client, scope, and window.
type PolicyLimiter struct {
	store  Store
	policy *Policy
}

// NewPolicyLimiter creates a new policy-based rate limiter.
func NewPolicyLimiter(store Store, policy *Policy) *PolicyLimiter {
	return &PolicyLimiter{
		store:  store,
		policy: policy,
	}
}

// Allow checks whether a request should be allowed for the client key
// under every limit of every applicable scope. The LimitExceeded return
// value reports which limit was hit (nil when allowed).
func (l *PolicyLimiter) Allow(ctx context.Context, clientKey string, scopes []Scope) (bool, *LimitExceeded, error) {
	for _, scope := range scopes {
		limits, ok := l.policy.Limits[scope]
		if !ok {
			continue
		}

		allowed, exceeded, err := l.checkAll(ctx, clientKey, scope, limits)
		if err != nil || !allowed {
			return false, exceeded, err
		}
	}

	return true, nil, nil
}

// AllowLimits checks the client key against an explicit limit set
// instead of the policy, keyed by the given scope. Used for endpoints
// that declare their own limits in operation metadata.
func (l *PolicyLimiter) AllowLimits(ctx context.Context, clientKey string, scope Scope, limits []LimitConfig) (bool, *LimitExceeded, error) {
	return l.checkAll(ctx, clientKey, scope, limits)
}

func (l *PolicyLimiter) checkAll(ctx context.Context, clientKey string, scope Scope, limits []LimitConfig) (bool, *LimitExceeded, error) {
	for _, limit := range limits {
		window := NewSlidingWindowLimiter(l.store, limit.Max, limit.Window)

		allowed, count, err := window.Allow(ctx, l.buildKey(clientKey, scope, limit))
		if err != nil {
			return false, nil, err
		}

		if !allowed {
			return false, &LimitExceeded{
				Scope:  scope,
				Config: limit,
				Count:  count,
			}, nil
		}
	}

	return true, nil, nil
}

// buildKey combines client, scope, and window so each limit tracks
// independently.
func (l *PolicyLimiter) buildKey(clientKey string, scope Scope, limit LimitConfig) string {
	return fmt.Sprintf("%s:%s:%d", clientKey, scope, limit.Window.Milliseconds())
}
