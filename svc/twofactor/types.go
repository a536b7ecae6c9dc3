package twofactor

import (
	"slices"
	"strings"
	"time"
)

// Identity is the caller as resolved by the host system.
type Identity struct {
	UserID      string
	AccountName string // shown in authenticator apps, usually the email
}

func (i Identity) validate(needAccount bool) error {
	if strings.TrimSpace(i.UserID) == "" {
		return validationError("user id is required")
	}
	if needAccount && strings.TrimSpace(i.AccountName) == "" {
		return validationError("account name is required")
	}
	if needAccount && strings.Contains(i.AccountName, ":") {
		return validationError("account name must not contain ':'")
	}
	return nil
}

// Credential is the stored two-factor state of one user. Secret material is
// kept only as ciphertext.
type Credential struct {
	UserID           string
	SecretCiphertext []byte
	BackupCodes      [][]byte // each code encrypted on its own
	Enabled          bool
	CreatedAt        time.Time
	VerifiedAt       *time.Time
	LastUsedAt       *time.Time
	LastCounter      uint64 // last accepted TOTP time step
	Version          int64  // bumped by the store on every write
}

// Clone returns a deep copy.
func (c *Credential) Clone() *Credential {
	if c == nil {
		return nil
	}
	out := *c
	out.SecretCiphertext = slices.Clone(c.SecretCiphertext)
	out.BackupCodes = make([][]byte, len(c.BackupCodes))
	for i, code := range c.BackupCodes {
		out.BackupCodes[i] = slices.Clone(code)
	}
	out.VerifiedAt = cloneTime(c.VerifiedAt)
	out.LastUsedAt = cloneTime(c.LastUsedAt)
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// AttemptType tags an attempt record.
type AttemptType string

const (
	AttemptSetup            AttemptType = "setup"
	AttemptSetupVerify      AttemptType = "setup_verify"
	AttemptTOTPVerify       AttemptType = "totp_verify"
	AttemptBackupCode       AttemptType = "backup_code"
	AttemptDisable          AttemptType = "disable"
	AttemptRegenerateBackup AttemptType = "regenerate_backup"
)

// Attempt is an append-only record of one operation that checked a code.
type Attempt struct {
	ID        string
	UserID    string
	Type      AttemptType
	Success   bool
	IP        string
	UserAgent string
	CreatedAt time.Time
}

// SetupResult carries the only copy of the plaintext secret and backup codes
// the caller will ever see.
type SetupResult struct {
	Secret      string   // Base32
	URI         string   // otpauth:// provisioning URI
	BackupCodes []string // plaintext, shown once
}

type VerifySetupResult struct {
	Success bool
}

type VerifyResult struct {
	Success              bool
	Verified             bool
	RemainingBackupCodes *int // set when a backup code was used
}

type StatusResult struct {
	Enabled              bool
	Pending              bool
	VerifiedAt           *time.Time
	LastUsedAt           *time.Time
	BackupCodesRemaining int
}

type DisableResult struct {
	Success bool
}

type RegenerateBackupResult struct {
	Success     bool
	BackupCodes []string
}
