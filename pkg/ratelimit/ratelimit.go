package ratelimit

import (
	"context"
	"time"
)

// Rate defines the rate limit configuration
type Rate struct {
	// Requests is the number of requests allowed in the window
	Requests int
	// Window is the time window for the rate limit
	Window time.Duration
}

// RateLimitInfo contains information about the current rate limit status
type RateLimitInfo struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

// RateLimiter defines the interface for rate limiting implementations
type RateLimiter interface {
	// Allow checks if a request is allowed and returns rate limit info
	Allow(ctx context.Context, key string, limit Rate) (bool, RateLimitInfo)
	// Reset resets the rate limit for a key
	Reset(ctx context.Context, key string) error
}

var (
	// PublicAPILimit applies per IP to unauthenticated endpoints (30 req/min)
	PublicAPILimit = Rate{
		Requests: 30,
		Window:   time.Minute,
	}

	// AuthenticatedAPILimit applies per user to checkout endpoints (60 req/min)
	AuthenticatedAPILimit = Rate{
		Requests: 60,
		Window:   time.Minute,
	}

	// RedemptionLimit slows down guessing of coupon and gift card codes (10 req/min)
	RedemptionLimit = Rate{
		Requests: 10,
		Window:   time.Minute,
	}
)
