package audit

import (
	"context"
	"time"
)

// Option configures Logger behavior during initialization
type Option func(*Logger)

// contextExtractor extracts string values from context.
// It returns (value, found) where found indicates if extraction succeeded.
type contextExtractor func(context.Context) (string, bool)

// Context extractors enable automatic population of audit events from request context.
// If extraction fails, the corresponding event field will remain empty.

func WithUserIDExtractor(fn func(context.Context) (string, bool)) Option {
	return func(l *Logger) {
		l.userIDExtractor = fn
	}
}

func WithRequestIDExtractor(fn func(context.Context) (string, bool)) Option {
	return func(l *Logger) {
		l.requestIDExtractor = fn
	}
}

func WithIPExtractor(fn func(context.Context) (string, bool)) Option {
	return func(l *Logger) {
		l.ipExtractor = fn
	}
}

func WithUserAgentExtractor(fn func(context.Context) (string, bool)) Option {
	return func(l *Logger) {
		l.userAgentExtractor = fn
	}
}

// WithMetadataFilter scrubs event metadata before it is stored.
func WithMetadataFilter(f *MetadataFilter) Option {
	return func(l *Logger) {
		l.filter = f
	}
}

// WithClock replaces time.Now for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		if now != nil {
			l.now = now
		}
	}
}
