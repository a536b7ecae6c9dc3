package twofactor

import "context"

// Store persists credentials and attempts. Credential writes are
// compare-and-swap on Credential.Version so concurrent requests cannot both
// consume the same backup code or TOTP step.
type Store interface {
	// GetCredential returns the user's credential or ErrNotFound.
	GetCredential(ctx context.Context, userID string) (*Credential, error)

	// CreatePending inserts cred, or replaces a pending credential of the
	// same user. It returns ErrAlreadyEnabled instead of replacing an
	// enabled one. On success cred.Version holds the stored version.
	CreatePending(ctx context.Context, cred *Credential) error

	// UpdateCredential replaces the stored credential if its version still
	// equals expectedVersion, and returns ErrVersionConflict otherwise,
	// including when it no longer exists. On success cred.Version holds
	// the new version.
	UpdateCredential(ctx context.Context, cred *Credential, expectedVersion int64) error

	// DeleteCredential removes the credential if its version still equals
	// expectedVersion, and returns ErrVersionConflict otherwise.
	DeleteCredential(ctx context.Context, userID string, expectedVersion int64) error

	// RecordAttempt appends an attempt record.
	RecordAttempt(ctx context.Context, attempt Attempt) error
}
