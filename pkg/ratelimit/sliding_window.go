package ratelimit

import (
	"context"
	"time"
)

// SlidingWindow implements a sliding window rate limiter that tracks
// individual request timestamps within a moving time window. More accurate
// than a fixed window because a burst cannot straddle a window boundary.
type SlidingWindow struct {
	store  SlidingWindowStore
	limit  int
	window time.Duration
	now    func() time.Time
}

// Option configures a SlidingWindow.
type Option func(*SlidingWindow)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(sw *SlidingWindow) {
		if now != nil {
			sw.now = now
		}
	}
}

// NewSlidingWindow creates a new sliding window rate limiter.
func NewSlidingWindow(store SlidingWindowStore, limit int, window time.Duration, opts ...Option) (*SlidingWindow, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if window <= 0 {
		return nil, ErrInvalidInterval
	}

	sw := &SlidingWindow{
		store:  store,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(sw)
	}

	return sw, nil
}

// Allow checks if a request is allowed for the given key and records it if
// so. Denied requests are not recorded.
func (sw *SlidingWindow) Allow(ctx context.Context, key string) (*Result, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}

	now := sw.now()
	allowed, count, oldest, err := sw.store.RecordIfAllowed(ctx, key, now, sw.window, sw.limit)
	if err != nil {
		return nil, err
	}

	return sw.result(allowed, count, oldest, now), nil
}

// Status returns the current rate limit status without recording.
func (sw *SlidingWindow) Status(ctx context.Context, key string) (*Result, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}

	now := sw.now()
	count, oldest, err := sw.store.Count(ctx, key, now, sw.window)
	if err != nil {
		return nil, err
	}

	return sw.result(int(count) < sw.limit, count, oldest, now), nil
}

// Reset resets the rate limit for the given key.
func (sw *SlidingWindow) Reset(ctx context.Context, key string) error {
	if key == "" {
		return ErrKeyRequired
	}

	return sw.store.Delete(ctx, key)
}

func (sw *SlidingWindow) result(allowed bool, count int64, oldest, now time.Time) *Result {
	if oldest.IsZero() {
		oldest = now
	}
	res := &Result{
		Allowed:   allowed,
		Limit:     sw.limit,
		Remaining: max(0, sw.limit-int(count)),
		ResetAt:   oldest.Add(sw.window),
	}
	if !allowed {
		res.RetryAfter = retryAfter(res.ResetAt.Sub(now))
	}
	return res
}

// retryAfter rounds d up to whole seconds with a floor of one second, the
// granularity of the Retry-After header.
func retryAfter(d time.Duration) time.Duration {
	if d <= time.Second {
		return time.Second
	}
	if rem := d % time.Second; rem != 0 {
		d += time.Second - rem
	}
	return d
}
