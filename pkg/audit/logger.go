package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Logger builds audit events and hands them to a Storage.
type Logger struct {
	storage            Storage
	filter             *MetadataFilter
	now                func() time.Time
	userIDExtractor    contextExtractor
	requestIDExtractor contextExtractor
	ipExtractor        contextExtractor
	userAgentExtractor contextExtractor
}

// NewLogger creates a new audit logger
func NewLogger(storage Storage, opts ...Option) *Logger {
	if storage == nil {
		panic("audit: storage cannot be nil")
	}

	l := &Logger{
		storage: storage,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Log records a successful action
func (l *Logger) Log(ctx context.Context, action string, opts ...EventOption) error {
	return l.store(ctx, action, ResultSuccess, nil, opts)
}

// LogFailure records an action that was refused, such as a wrong code.
func (l *Logger) LogFailure(ctx context.Context, action string, opts ...EventOption) error {
	return l.store(ctx, action, ResultFailure, nil, opts)
}

// LogError records an action that could not complete
func (l *Logger) LogError(ctx context.Context, action string, err error, opts ...EventOption) error {
	return l.store(ctx, action, ResultError, err, opts)
}

func (l *Logger) store(ctx context.Context, action string, result Result, cause error, opts []EventOption) error {
	event := l.eventFromContext(ctx)
	event.ID = uuid.New().String()
	event.CreatedAt = l.now()
	event.Action = action
	event.Result = result
	if cause != nil {
		event.Error = cause.Error()
	}

	for _, opt := range opts {
		opt(&event)
	}

	if err := event.Validate(); err != nil {
		return err
	}

	if l.filter != nil {
		event.Metadata = l.filter.Filter(event.Metadata)
	}

	return l.storage.Store(ctx, event)
}

// eventFromContext extracts event data from context
func (l *Logger) eventFromContext(ctx context.Context) Event {
	event := Event{}

	if v, ok := extract(ctx, l.userIDExtractor); ok {
		event.UserID = v
	}
	if v, ok := extract(ctx, l.requestIDExtractor); ok {
		event.RequestID = v
	}
	if v, ok := extract(ctx, l.ipExtractor); ok {
		event.IP = v
	}
	if v, ok := extract(ctx, l.userAgentExtractor); ok {
		event.UserAgent = v
	}

	return event
}

func extract(ctx context.Context, fn contextExtractor) (string, bool) {
	if fn == nil {
		return "", false
	}
	return fn(ctx)
}
