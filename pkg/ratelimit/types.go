package ratelimit

import (
	"context"
	"time"
)

// Result contains the result of a rate limit check.
type Result struct {
	// Allowed indicates whether the request is allowed.
	Allowed bool

	// Limit is the maximum number of requests allowed in the window.
	Limit int

	// Remaining is the number of requests remaining in the current window.
	Remaining int

	// ResetAt is the time when the oldest recorded request leaves the window.
	ResetAt time.Time

	// RetryAfter is how long to wait before the next request can be allowed,
	// rounded up to whole seconds. Zero when the request was allowed.
	RetryAfter time.Duration
}

// Limiter defines the interface for rate limiting implementations.
type Limiter interface {
	// Allow checks if a single request is allowed for the given key.
	// If allowed, it is recorded and counts against the limit.
	Allow(ctx context.Context, key string) (*Result, error)

	// Status returns the current rate limit status for the given key
	// without recording anything.
	Status(ctx context.Context, key string) (*Result, error)

	// Reset resets the rate limit for the given key.
	Reset(ctx context.Context, key string) error
}

// SlidingWindowStore keeps request timestamps per key. Implementations must
// evaluate RecordIfAllowed atomically per key, including across processes
// when the store is shared.
type SlidingWindowStore interface {
	// RecordIfAllowed drops timestamps at or before now-window, then records
	// now if fewer than limit remain. It returns whether now was recorded,
	// the resulting count and the oldest timestamp still in the window.
	RecordIfAllowed(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (allowed bool, count int64, oldest time.Time, err error)

	// Count returns the number of timestamps after now-window and the oldest
	// of them, without recording.
	Count(ctx context.Context, key string, now time.Time, window time.Duration) (count int64, oldest time.Time, err error)

	// Delete removes the given key from the store.
	Delete(ctx context.Context, key string) error
}
