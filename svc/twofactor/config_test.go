package twofactor_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/twofactor/svc/twofactor"
)

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*twofactor.Config)
		wantErr string
	}{
		{"defaults", func(*twofactor.Config) {}, ""},
		{"empty issuer", func(c *twofactor.Config) { c.Issuer = " " }, "issuer is required"},
		{"issuer with colon", func(c *twofactor.Config) { c.Issuer = "Acme:Corp" }, "must not contain"},
		{"no backup codes", func(c *twofactor.Config) { c.BackupCodeCount = 0 }, "backup code count"},
		{"no attempts", func(c *twofactor.Config) { c.MaxAttempts = 0 }, "max attempts"},
		{"no window", func(c *twofactor.Config) { c.AttemptWindow = 0 }, "attempt window"},
		{"huge skew", func(c *twofactor.Config) { c.Skew = 11 }, "skew"},
		{"zero skew", func(c *twofactor.Config) { c.Skew = 0 }, ""},
		{"too few conflict retries", func(c *twofactor.Config) { c.ConflictRetries = 3 }, "conflict retries"},
		{"retries follow attempts", func(c *twofactor.Config) { c.MaxAttempts, c.ConflictRetries = 20, 19 }, ""},
		{"attempts outgrow retries", func(c *twofactor.Config) { c.MaxAttempts = 100 }, "conflict retries"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := twofactor.DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := twofactor.DefaultConfig()
	assert.Equal(t, 10, cfg.BackupCodeCount)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, time.Minute, cfg.AttemptWindow)
	assert.Equal(t, uint(1), cfg.Skew)
	assert.True(t, cfg.ReplayProtection)
	assert.Equal(t, uint64(4), cfg.ConflictRetries)
}
