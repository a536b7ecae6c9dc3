package twofactor_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/twofactor/svc/twofactor"
)

func TestStateOf(t *testing.T) {
	t.Parallel()

	now := time.Now()
	assert.Equal(t, twofactor.StateUnprovisioned, twofactor.StateOf(nil))
	assert.Equal(t, twofactor.StatePending, twofactor.StateOf(&twofactor.Credential{}))
	assert.Equal(t, twofactor.StateEnabled, twofactor.StateOf(&twofactor.Credential{Enabled: true, VerifiedAt: &now}))
}

func TestTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from    twofactor.State
		op      twofactor.Operation
		want    twofactor.State
		allowed bool
	}{
		{twofactor.StateUnprovisioned, twofactor.OpSetup, twofactor.StatePending, true},
		{twofactor.StateUnprovisioned, twofactor.OpStatus, twofactor.StateUnprovisioned, true},
		{twofactor.StateUnprovisioned, twofactor.OpVerifySetup, twofactor.StateUnprovisioned, false},
		{twofactor.StateUnprovisioned, twofactor.OpVerify, twofactor.StateUnprovisioned, false},
		{twofactor.StateUnprovisioned, twofactor.OpDisable, twofactor.StateUnprovisioned, false},
		{twofactor.StateUnprovisioned, twofactor.OpRegenerateBackup, twofactor.StateUnprovisioned, false},

		{twofactor.StatePending, twofactor.OpSetup, twofactor.StatePending, true},
		{twofactor.StatePending, twofactor.OpVerifySetup, twofactor.StateEnabled, true},
		{twofactor.StatePending, twofactor.OpStatus, twofactor.StatePending, true},
		{twofactor.StatePending, twofactor.OpVerify, twofactor.StatePending, false},
		{twofactor.StatePending, twofactor.OpDisable, twofactor.StatePending, false},
		{twofactor.StatePending, twofactor.OpRegenerateBackup, twofactor.StatePending, false},

		{twofactor.StateEnabled, twofactor.OpSetup, twofactor.StateEnabled, false},
		{twofactor.StateEnabled, twofactor.OpVerifySetup, twofactor.StateEnabled, false},
		{twofactor.StateEnabled, twofactor.OpVerify, twofactor.StateEnabled, true},
		{twofactor.StateEnabled, twofactor.OpStatus, twofactor.StateEnabled, true},
		{twofactor.StateEnabled, twofactor.OpDisable, twofactor.StateUnprovisioned, true},
		{twofactor.StateEnabled, twofactor.OpRegenerateBackup, twofactor.StateEnabled, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.op), func(t *testing.T) {
			t.Parallel()
			got, err := twofactor.Transition(tt.from, tt.op)
			assert.Equal(t, tt.want, got)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, twofactor.ErrCredentialState)
			}
		})
	}
}

func TestCommand_Operation(t *testing.T) {
	t.Parallel()

	assert.Equal(t, twofactor.OpSetup, twofactor.SetupCommand{}.Operation())
	assert.Equal(t, twofactor.OpVerifySetup, twofactor.VerifySetupCommand{}.Operation())
	assert.Equal(t, twofactor.OpVerify, twofactor.VerifyCommand{}.Operation())
	assert.Equal(t, twofactor.OpStatus, twofactor.StatusCommand{}.Operation())
	assert.Equal(t, twofactor.OpDisable, twofactor.DisableCommand{}.Operation())
	assert.Equal(t, twofactor.OpRegenerateBackup, twofactor.RegenerateBackupCommand{}.Operation())
}
