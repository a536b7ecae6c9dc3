package audit

import (
	"context"
	"log/slog"
)

// SlogStorage writes every event as a structured log record. It suits
// deployments that ship logs to a central pipeline instead of a database.
type SlogStorage struct {
	log *slog.Logger
}

// NewSlogStorage returns a storage logging through log.
func NewSlogStorage(log *slog.Logger) *SlogStorage {
	if log == nil {
		log = slog.Default()
	}
	return &SlogStorage{log: log.With(slog.String("component", "audit"))}
}

// Store implements Storage.
func (s *SlogStorage) Store(ctx context.Context, e Event) error {
	attrs := []slog.Attr{
		slog.String("event_id", e.ID),
		slog.String("action", e.Action),
		slog.String("result", string(e.Result)),
		slog.String("user_id", e.UserID),
		slog.Time("created_at", e.CreatedAt),
	}
	if e.Resource != "" {
		attrs = append(attrs, slog.String("resource", e.Resource), slog.String("resource_id", e.ResourceID))
	}
	if e.Error != "" {
		attrs = append(attrs, slog.String("error", e.Error))
	}
	if e.RequestID != "" {
		attrs = append(attrs, slog.String("request_id", e.RequestID))
	}
	if e.IP != "" {
		attrs = append(attrs, slog.String("ip", e.IP))
	}
	if e.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", e.UserAgent))
	}
	if len(e.Metadata) > 0 {
		attrs = append(attrs, slog.Any("metadata", e.Metadata))
	}

	s.log.LogAttrs(ctx, slog.LevelInfo, "audit event", attrs...)
	return nil
}
