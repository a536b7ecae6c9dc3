package twofactor

import "context"

// Command is one of the lifecycle requests Dispatch accepts. The set is
// closed: only the types in this package implement it.
type Command interface {
	Operation() Operation
	command()
}

type SetupCommand struct{}

type VerifySetupCommand struct {
	Code string
}

type VerifyCommand struct {
	Code string
}

type StatusCommand struct{}

type DisableCommand struct {
	Code string
}

type RegenerateBackupCommand struct {
	Code string
}

func (SetupCommand) Operation() Operation            { return OpSetup }
func (VerifySetupCommand) Operation() Operation      { return OpVerifySetup }
func (VerifyCommand) Operation() Operation           { return OpVerify }
func (StatusCommand) Operation() Operation           { return OpStatus }
func (DisableCommand) Operation() Operation          { return OpDisable }
func (RegenerateBackupCommand) Operation() Operation { return OpRegenerateBackup }

func (SetupCommand) command()            {}
func (VerifySetupCommand) command()      {}
func (VerifyCommand) command()           {}
func (StatusCommand) command()           {}
func (DisableCommand) command()          {}
func (RegenerateBackupCommand) command() {}

// Result is the typed outcome of a command.
type Result interface {
	result()
}

func (*SetupResult) result()            {}
func (*VerifySetupResult) result()      {}
func (*VerifyResult) result()           {}
func (*StatusResult) result()           {}
func (*DisableResult) result()          {}
func (*RegenerateBackupResult) result() {}

// Dispatch runs cmd on behalf of id.
func (s *Service) Dispatch(ctx context.Context, id Identity, cmd Command) (Result, error) {
	switch c := cmd.(type) {
	case SetupCommand:
		return asResult(s.Setup(ctx, id))
	case VerifySetupCommand:
		return asResult(s.VerifySetup(ctx, id, c.Code))
	case VerifyCommand:
		return asResult(s.Verify(ctx, id, c.Code))
	case StatusCommand:
		return asResult(s.Status(ctx, id))
	case DisableCommand:
		return asResult(s.Disable(ctx, id, c.Code))
	case RegenerateBackupCommand:
		return asResult(s.RegenerateBackup(ctx, id, c.Code))
	default:
		return nil, validationError("unsupported command %T", cmd)
	}
}

// asResult keeps a typed nil pointer from turning into a non-nil Result.
func asResult[R Result](r R, err error) (Result, error) {
	if err != nil {
		return nil, err
	}
	return r, nil
}
