package ratelimit

import "time"

// LimitConfig is one window/max pair.
type LimitConfig struct {
	Window time.Duration
	Max    int64
}

// Policy maps scopes to the limits enforced for them. Multiple limits
// per scope allow stacking short-burst and long-window caps.
type Policy struct {
	Limits map[Scope][]LimitConfig
}

// DefaultPolicy returns the default limits: a generous global cap, a
// relaxed read cap for redirect traffic, and stricter write caps for
// telemetry and link management.
func DefaultPolicy() *Policy {
	return &Policy{
		Limits: map[Scope][]LimitConfig{
			ScopeGlobal: {
				{Window: time.Minute, Max: 2000},
			},
			ScopeRead: {
				{Window: time.Minute, Max: 1000},
			},
			ScopeWrite: {
				{Window: time.Minute, Max: 60},
				{Window: time.Hour, Max: 600},
			},
		},
	}
}
