package twofactor

import (
	"context"
	"time"

	"github.com/dmitrymomot/twofactor/pkg/ratelimit"
)

// Decision is the throttle's answer for one attempt.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration // set when not allowed
}

// Throttle limits verification attempts per user. CheckAndRecord must be
// atomic per user: concurrent calls may not together exceed the limit.
type Throttle interface {
	CheckAndRecord(ctx context.Context, userID string, attempt AttemptType) (Decision, error)
}

// RateLimitThrottle adapts a ratelimit.Limiter. All attempt types share one
// bucket per user, so switching between TOTP and backup codes does not buy
// extra guesses.
type RateLimitThrottle struct {
	limiter ratelimit.Limiter
}

// NewRateLimitThrottle wraps limiter.
func NewRateLimitThrottle(limiter ratelimit.Limiter) *RateLimitThrottle {
	return &RateLimitThrottle{limiter: limiter}
}

// NewThrottle builds a sliding window throttle over store using the
// attempt limits in cfg.
func NewThrottle(store ratelimit.SlidingWindowStore, cfg Config, opts ...ratelimit.Option) (*RateLimitThrottle, error) {
	limiter, err := ratelimit.NewSlidingWindow(store, cfg.MaxAttempts, cfg.AttemptWindow, opts...)
	if err != nil {
		return nil, err
	}
	return NewRateLimitThrottle(limiter), nil
}

// CheckAndRecord implements Throttle.
func (t *RateLimitThrottle) CheckAndRecord(ctx context.Context, userID string, _ AttemptType) (Decision, error) {
	res, err := t.limiter.Allow(ctx, throttleKey(userID))
	if err != nil {
		return Decision{}, err
	}
	return Decision{Allowed: res.Allowed, RetryAfter: res.RetryAfter}, nil
}

// Reset clears the user's window.
func (t *RateLimitThrottle) Reset(ctx context.Context, userID string) error {
	return t.limiter.Reset(ctx, throttleKey(userID))
}

func throttleKey(userID string) string {
	return ratelimit.Key("2fa", "verify", userID)
}
