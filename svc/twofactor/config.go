package twofactor

import (
	"errors"
	"strings"
	"time"
)

// Config holds the engine settings. Defaults follow RFC 6238 practice and
// the attempt limit of five per minute.
type Config struct {
	Issuer           string        `env:"TWOFACTOR_ISSUER" envDefault:"TwoFactor"`
	BackupCodeCount  int           `env:"TWOFACTOR_BACKUP_CODE_COUNT" envDefault:"10"`
	MaxAttempts      int           `env:"TWOFACTOR_MAX_ATTEMPTS" envDefault:"5"`
	AttemptWindow    time.Duration `env:"TWOFACTOR_ATTEMPT_WINDOW" envDefault:"60s"`
	Skew             uint          `env:"TWOFACTOR_SKEW" envDefault:"1"`
	ReplayProtection bool          `env:"TWOFACTOR_REPLAY_PROTECTION" envDefault:"true"`
	ConflictRetries  uint64        `env:"TWOFACTOR_CONFLICT_RETRIES" envDefault:"4"`
}

// DefaultConfig returns the same values as the env defaults.
func DefaultConfig() Config {
	return Config{
		Issuer:           "TwoFactor",
		BackupCodeCount:  10,
		MaxAttempts:      5,
		AttemptWindow:    time.Minute,
		Skew:             1,
		ReplayProtection: true,
		ConflictRetries:  4,
	}
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Issuer) == "" {
		errs = append(errs, errors.New("issuer is required"))
	}
	if strings.Contains(c.Issuer, ":") {
		errs = append(errs, errors.New("issuer must not contain ':'"))
	}
	if c.BackupCodeCount < 1 {
		errs = append(errs, errors.New("backup code count must be positive"))
	}
	if c.MaxAttempts < 1 {
		errs = append(errs, errors.New("max attempts must be positive"))
	}
	if c.AttemptWindow <= 0 {
		errs = append(errs, errors.New("attempt window must be positive"))
	}
	// Concurrent attempts per user are capped by MaxAttempts and every lost
	// compare-and-swap means another one committed.
	if c.MaxAttempts > 0 && c.ConflictRetries < uint64(c.MaxAttempts-1) {
		errs = append(errs, errors.New("conflict retries must be at least max attempts minus one"))
	}
	if c.Skew > 10 {
		errs = append(errs, errors.New("skew above 10 steps is not supported"))
	}
	return errors.Join(errs...)
}
