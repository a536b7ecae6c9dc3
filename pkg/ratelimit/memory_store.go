package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements an in-memory sliding window store. It is only
// suitable for a single process.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*slidingWindow
	latest  time.Time

	cleanupInterval time.Duration
	initialCapacity int
	stopCleanup     chan struct{}
	cleanupOnce     sync.Once
}

type slidingWindow struct {
	timestamps []time.Time
	expiresAt  time.Time
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithCleanupInterval sets the cleanup interval for expired entries.
func WithCleanupInterval(interval time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.cleanupInterval = interval
		}
	}
}

// WithInitialCapacity sets the initial capacity for sliding window timestamps.
func WithInitialCapacity(capacity int) MemoryStoreOption {
	return func(s *MemoryStore) {
		if capacity > 0 {
			s.initialCapacity = capacity
		}
	}
}

// NewMemoryStore creates a new in-memory store with automatic cleanup.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		windows:         make(map[string]*slidingWindow),
		cleanupInterval: 1 * time.Minute,
		initialCapacity: 8,
		stopCleanup:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	go s.cleanupLoop()

	return s
}

// RecordIfAllowed implements SlidingWindowStore.
func (s *MemoryStore) RecordIfAllowed(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (bool, int64, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.observe(now)

	sw, exists := s.windows[key]
	if !exists {
		sw = &slidingWindow{timestamps: make([]time.Time, 0, s.initialCapacity)}
		s.windows[key] = sw
	}
	sw.prune(now.Add(-window))

	allowed := len(sw.timestamps) < limit
	if allowed {
		sw.timestamps = append(sw.timestamps, now)
		sw.expiresAt = now.Add(window)
	}

	return allowed, int64(len(sw.timestamps)), sw.oldest(), nil
}

// Count implements SlidingWindowStore.
func (s *MemoryStore) Count(ctx context.Context, key string, now time.Time, window time.Duration) (int64, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.observe(now)

	sw, exists := s.windows[key]
	if !exists {
		return 0, time.Time{}, nil
	}
	sw.prune(now.Add(-window))

	return int64(len(sw.timestamps)), sw.oldest(), nil
}

// Delete removes the given key.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.windows, key)
	return nil
}

// observe tracks the newest time seen so cleanup follows the caller's clock
// rather than the wall clock.
func (s *MemoryStore) observe(now time.Time) {
	if now.After(s.latest) {
		s.latest = now
	}
}

// prune drops timestamps at or before cutoff. Timestamps are appended in
// call order, so the slice is scanned from the front.
func (sw *slidingWindow) prune(cutoff time.Time) {
	i := 0
	for i < len(sw.timestamps) && !sw.timestamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		sw.timestamps = append(sw.timestamps[:0], sw.timestamps[i:]...)
	}
}

func (sw *slidingWindow) oldest() time.Time {
	if len(sw.timestamps) == 0 {
		return time.Time{}
	}
	return sw.timestamps[0]
}

// cleanupLoop runs periodically to remove expired entries.
func (s *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCleanup:
			return
		}
	}
}

// cleanup removes windows whose newest timestamp has left the window.
func (s *MemoryStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, sw := range s.windows {
		if !sw.expiresAt.After(s.latest) {
			delete(s.windows, key)
		}
	}
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// Close stops the cleanup goroutine.
func (s *MemoryStore) Close() error {
	s.cleanupOnce.Do(func() {
		close(s.stopCleanup)
	})
	return nil
}
