package twofactor

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/twofactor/pkg/audit"
	"github.com/dmitrymomot/twofactor/pkg/secrets"
)

// Cipher seals secret material at rest. *secrets.Cipher implements it.
type Cipher interface {
	Encrypt(ctx context.Context, plaintext []byte, scope secrets.Scope) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte, scope secrets.Scope) ([]byte, error)
}

// AuditLogger receives security events. *audit.Logger implements it.
type AuditLogger interface {
	Log(ctx context.Context, action string, opts ...audit.EventOption) error
	LogFailure(ctx context.Context, action string, opts ...audit.EventOption) error
}

// Option configures a Service.
type Option func(*Service)

// WithConfig replaces DefaultConfig.
func WithConfig(cfg Config) Option {
	return func(s *Service) {
		s.cfg = cfg
	}
}

// WithAuditLogger sets the audit sink. Without one no events are emitted.
func WithAuditLogger(l AuditLogger) Option {
	return func(s *Service) {
		s.audit = l
	}
}

// WithLogger sets the logger for storage and cipher failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides time.Now. Tests use it to pin TOTP windows.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
