package twofactor

import "fmt"

// State is the lifecycle position of a user's credential. A disabled
// credential is deleted, so it reads as StateUnprovisioned.
type State string

const (
	StateUnprovisioned State = "unprovisioned"
	StatePending       State = "pending"
	StateEnabled       State = "enabled"
)

// StateOf derives the state from a stored credential; nil means none stored.
func StateOf(c *Credential) State {
	switch {
	case c == nil:
		return StateUnprovisioned
	case c.Enabled:
		return StateEnabled
	default:
		return StatePending
	}
}

// Operation names a lifecycle command.
type Operation string

const (
	OpSetup            Operation = "setup"
	OpVerifySetup      Operation = "verify_setup"
	OpVerify           Operation = "verify"
	OpStatus           Operation = "status"
	OpDisable          Operation = "disable"
	OpRegenerateBackup Operation = "regenerate_backup"
)

// transitions lists the state each operation leads to when it succeeds.
// Pairs missing from the table are refused.
var transitions = map[State]map[Operation]State{
	StateUnprovisioned: {
		OpSetup:  StatePending,
		OpStatus: StateUnprovisioned,
	},
	StatePending: {
		OpSetup:       StatePending,
		OpVerifySetup: StateEnabled,
		OpStatus:      StatePending,
	},
	StateEnabled: {
		OpVerify:           StateEnabled,
		OpStatus:           StateEnabled,
		OpDisable:          StateUnprovisioned,
		OpRegenerateBackup: StateEnabled,
	},
}

// Transition returns the state op leads to from "from", or an error matching
// ErrCredentialState.
func Transition(from State, op Operation) (State, error) {
	if to, ok := transitions[from][op]; ok {
		return to, nil
	}
	return from, fmt.Errorf("%w: %s is not allowed while %s", ErrCredentialState, op, from)
}
