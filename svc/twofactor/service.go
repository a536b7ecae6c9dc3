package twofactor

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/dmitrymomot/twofactor/pkg/audit"
	"github.com/dmitrymomot/twofactor/pkg/logger"
	"github.com/dmitrymomot/twofactor/pkg/secrets"
	"github.com/dmitrymomot/twofactor/pkg/totp"
	"github.com/dmitrymomot/twofactor/pkg/useragent"
)

// Audit actions emitted by Service.
const (
	ActionSetup                  = "two_factor.setup"
	ActionSetupVerified          = "two_factor.setup_verified"
	ActionVerified               = "two_factor.verified"
	ActionBackupCodeUsed         = "two_factor.backup_code_used"
	ActionDisabled               = "two_factor.disabled"
	ActionBackupCodesRegenerated = "two_factor.backup_codes_regenerated"
	ActionVerificationFailed     = "two_factor.verification_failed"
	ActionRateLimited            = "two_factor.rate_limited"
)

const (
	auditResource = "two_factor_credential"
	retryInterval = 5 * time.Millisecond
)

// Service runs the two-factor credential lifecycle for one deployment.
// It is safe for concurrent use; all shared state lives in the Store and
// the Throttle.
type Service struct {
	store    Store
	cipher   Cipher
	throttle Throttle
	audit    AuditLogger
	log      *slog.Logger
	cfg      Config
	now      func() time.Time
}

// New builds a Service. store, cipher and throttle are required.
func New(store Store, cipher Cipher, throttle Throttle, opts ...Option) (*Service, error) {
	if store == nil || cipher == nil || throttle == nil {
		return nil, errors.New("twofactor: store, cipher and throttle are required")
	}

	s := &Service{
		store:    store,
		cipher:   cipher,
		throttle: throttle,
		log:      logger.Discard(),
		cfg:      DefaultConfig(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("twofactor: invalid config: %w", err)
	}

	s.log = s.log.With(logger.Component("twofactor"))
	return s, nil
}

// Setup provisions a new secret and backup codes and stores them as a
// pending credential. Calling it again before verification replaces the
// pending credential.
func (s *Service) Setup(ctx context.Context, id Identity) (*SetupResult, error) {
	if err := id.validate(true); err != nil {
		return nil, err
	}

	if _, err := s.load(ctx, id.UserID, OpSetup); err != nil {
		return nil, err
	}

	secret, err := totp.GenerateSecret()
	if err != nil {
		return nil, s.cipherFailure(ctx, string(OpSetup), id.UserID, err)
	}
	encoded := totp.EncodeSecret(secret)

	uri, err := totp.ProvisioningURI(totp.URIParams{
		Secret:      encoded,
		AccountName: id.AccountName,
		Issuer:      s.cfg.Issuer,
	})
	if err != nil {
		return nil, validationError("%v", err)
	}

	sealedSecret, err := s.cipher.Encrypt(ctx, secret, secretScope(id.UserID))
	if err != nil {
		return nil, s.cipherFailure(ctx, string(OpSetup), id.UserID, err)
	}

	codes, sealedCodes, err := s.newBackupCodes(ctx, id.UserID)
	if err != nil {
		return nil, err
	}

	cred := &Credential{
		UserID:           id.UserID,
		SecretCiphertext: sealedSecret,
		BackupCodes:      sealedCodes,
		CreatedAt:        s.now(),
	}
	if err := s.store.CreatePending(ctx, cred); err != nil {
		if errors.Is(err, ErrAlreadyEnabled) {
			_, stateErr := Transition(StateEnabled, OpSetup)
			return nil, stateErr
		}
		return nil, s.storageFailure(ctx, string(OpSetup), id.UserID, err)
	}

	if err := s.recordAttempt(ctx, id.UserID, AttemptSetup, true); err != nil {
		return nil, err
	}
	s.emit(ctx, ActionSetup, id.UserID, AttemptSetup, true)

	return &SetupResult{
		Secret:      encoded,
		URI:         uri,
		BackupCodes: codes,
	}, nil
}

// VerifySetup enables a pending credential once the user proves their
// authenticator produces the right code.
func (s *Service) VerifySetup(ctx context.Context, id Identity, code string) (*VerifySetupResult, error) {
	if err := id.validate(false); err != nil {
		return nil, err
	}
	code, err := normalizeTOTP(code)
	if err != nil {
		return nil, err
	}
	if err := s.checkThrottle(ctx, id.UserID, AttemptSetupVerify); err != nil {
		return nil, err
	}

	err = s.mutate(ctx, id.UserID, OpVerifySetup, func(cred *Credential) error {
		counter, err := s.matchTOTP(ctx, cred, code)
		if err != nil {
			return err
		}

		now := s.now()
		next := cred.Clone()
		next.Enabled = true
		next.VerifiedAt = &now
		next.LastCounter = counter
		return s.update(ctx, OpVerifySetup, next, cred.Version)
	})
	if err := s.finish(ctx, id.UserID, AttemptSetupVerify, ActionSetupVerified, err); err != nil {
		return nil, err
	}

	return &VerifySetupResult{Success: true}, nil
}

// Verify checks a login code. Six digits are treated as a TOTP code and ten
// hex characters as a backup code, which is consumed on success.
func (s *Service) Verify(ctx context.Context, id Identity, code string) (*VerifyResult, error) {
	if err := id.validate(false); err != nil {
		return nil, err
	}
	kind, code, err := totp.ClassifyCode(code)
	if err != nil {
		return nil, validationError("%v", err)
	}

	if kind == totp.CodeBackup {
		return s.verifyBackupCode(ctx, id.UserID, code)
	}

	if err := s.checkThrottle(ctx, id.UserID, AttemptTOTPVerify); err != nil {
		return nil, err
	}

	err = s.mutate(ctx, id.UserID, OpVerify, func(cred *Credential) error {
		counter, err := s.matchTOTP(ctx, cred, code)
		if err != nil {
			return err
		}

		now := s.now()
		next := cred.Clone()
		next.LastCounter = counter
		next.LastUsedAt = &now
		return s.update(ctx, OpVerify, next, cred.Version)
	})
	if err := s.finish(ctx, id.UserID, AttemptTOTPVerify, ActionVerified, err); err != nil {
		return nil, err
	}

	return &VerifyResult{Success: true, Verified: true}, nil
}

func (s *Service) verifyBackupCode(ctx context.Context, userID, code string) (*VerifyResult, error) {
	if err := s.checkThrottle(ctx, userID, AttemptBackupCode); err != nil {
		return nil, err
	}

	var remaining int
	err := s.mutate(ctx, userID, OpVerify, func(cred *Credential) error {
		idx, err := s.findBackupCode(ctx, cred, code)
		if err != nil {
			return err
		}

		now := s.now()
		next := cred.Clone()
		next.BackupCodes = slices.Delete(next.BackupCodes, idx, idx+1)
		next.LastUsedAt = &now
		if err := s.update(ctx, OpVerify, next, cred.Version); err != nil {
			return err
		}

		remaining = len(next.BackupCodes)
		return nil
	})
	if err := s.finish(ctx, userID, AttemptBackupCode, ActionBackupCodeUsed, err,
		audit.WithMetadata("remaining_backup_codes", remaining)); err != nil {
		return nil, err
	}

	return &VerifyResult{Success: true, Verified: true, RemainingBackupCodes: &remaining}, nil
}

// Status reports the credential state without touching secret material.
func (s *Service) Status(ctx context.Context, id Identity) (*StatusResult, error) {
	if err := id.validate(false); err != nil {
		return nil, err
	}

	cred, err := s.load(ctx, id.UserID, OpStatus)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return &StatusResult{}, nil
	}

	return &StatusResult{
		Enabled:              cred.Enabled,
		Pending:              !cred.Enabled,
		VerifiedAt:           cred.VerifiedAt,
		LastUsedAt:           cred.LastUsedAt,
		BackupCodesRemaining: len(cred.BackupCodes),
	}, nil
}

// Disable removes the credential after checking a current TOTP code.
func (s *Service) Disable(ctx context.Context, id Identity, code string) (*DisableResult, error) {
	if err := id.validate(false); err != nil {
		return nil, err
	}
	code, err := normalizeTOTP(code)
	if err != nil {
		return nil, err
	}
	if err := s.checkThrottle(ctx, id.UserID, AttemptDisable); err != nil {
		return nil, err
	}

	err = s.mutate(ctx, id.UserID, OpDisable, func(cred *Credential) error {
		if _, err := s.matchTOTP(ctx, cred, code); err != nil {
			return err
		}

		err := s.store.DeleteCredential(ctx, id.UserID, cred.Version)
		if err != nil && !errors.Is(err, ErrVersionConflict) {
			return s.storageFailure(ctx, string(OpDisable), id.UserID, err)
		}
		return err
	})
	if err := s.finish(ctx, id.UserID, AttemptDisable, ActionDisabled, err); err != nil {
		return nil, err
	}

	return &DisableResult{Success: true}, nil
}

// RegenerateBackup replaces every backup code after checking a current TOTP
// code. Codes issued earlier stop working.
func (s *Service) RegenerateBackup(ctx context.Context, id Identity, code string) (*RegenerateBackupResult, error) {
	if err := id.validate(false); err != nil {
		return nil, err
	}
	code, err := normalizeTOTP(code)
	if err != nil {
		return nil, err
	}
	if err := s.checkThrottle(ctx, id.UserID, AttemptRegenerateBackup); err != nil {
		return nil, err
	}

	codes, sealed, err := s.newBackupCodes(ctx, id.UserID)
	if err != nil {
		return nil, err
	}

	err = s.mutate(ctx, id.UserID, OpRegenerateBackup, func(cred *Credential) error {
		counter, err := s.matchTOTP(ctx, cred, code)
		if err != nil {
			return err
		}

		next := cred.Clone()
		next.BackupCodes = sealed
		next.LastCounter = counter
		return s.update(ctx, OpRegenerateBackup, next, cred.Version)
	})
	if err := s.finish(ctx, id.UserID, AttemptRegenerateBackup, ActionBackupCodesRegenerated, err); err != nil {
		return nil, err
	}

	return &RegenerateBackupResult{Success: true, BackupCodes: codes}, nil
}

// load returns the stored credential, or nil when none exists, after
// checking that op is allowed in its state.
func (s *Service) load(ctx context.Context, userID string, op Operation) (*Credential, error) {
	cred, err := s.store.GetCredential(ctx, userID)
	switch {
	case errors.Is(err, ErrNotFound):
		cred = nil
	case err != nil:
		return nil, s.storageFailure(ctx, string(op), userID, err)
	}

	if _, err := Transition(StateOf(cred), op); err != nil {
		return nil, err
	}
	return cred, nil
}

// mutate loads the credential and hands it to fn, reloading and retrying
// when fn reports a version conflict.
func (s *Service) mutate(ctx context.Context, userID string, op Operation, fn func(*Credential) error) error {
	attempt := 0
	b := retry.WithMaxRetries(s.cfg.ConflictRetries, retry.WithJitterPercent(50, retry.NewConstant(retryInterval)))

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		cred, err := s.load(ctx, userID, op)
		if err != nil {
			return err
		}

		if err := fn(cred); err != nil {
			if errors.Is(err, ErrVersionConflict) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})

	if errors.Is(err, ErrVersionConflict) {
		s.log.ErrorContext(ctx, "credential update kept conflicting",
			logger.Operation(string(op)),
			logger.UserID(userID),
			logger.RetryCount(attempt),
			logger.Error(err),
		)
		return ErrStorage
	}
	if err != nil && !isServiceError(err) {
		// context cancellation while waiting between retries
		return s.storageFailure(ctx, string(op), userID, err)
	}
	return err
}

// update writes next unless the stored version moved. Conflicts are
// returned untouched so mutate can retry them.
func (s *Service) update(ctx context.Context, op Operation, next *Credential, expectedVersion int64) error {
	err := s.store.UpdateCredential(ctx, next, expectedVersion)
	if err != nil && !errors.Is(err, ErrVersionConflict) {
		return s.storageFailure(ctx, string(op), next.UserID, err)
	}
	return err
}

// matchTOTP returns the matched time step, or ErrVerificationFailed when
// the code is wrong or its step was already used.
func (s *Service) matchTOTP(ctx context.Context, cred *Credential, code string) (uint64, error) {
	secret, err := s.cipher.Decrypt(ctx, cred.SecretCiphertext, secretScope(cred.UserID))
	if err != nil {
		return 0, s.cipherFailure(ctx, string(OpVerify), cred.UserID, err)
	}
	defer clear(secret)

	counter, ok := totp.MatchTOTP(secret, code, s.now(), s.cfg.Skew)
	if !ok {
		return 0, ErrVerificationFailed
	}
	if s.cfg.ReplayProtection && cred.LastCounter != 0 && counter <= cred.LastCounter {
		return 0, ErrVerificationFailed
	}
	return counter, nil
}

// findBackupCode returns the index of code in the stored list. Every entry
// is decrypted and compared so the position of a match does not show in
// timing.
func (s *Service) findBackupCode(ctx context.Context, cred *Credential, code string) (int, error) {
	idx := -1
	candidate := []byte(code)
	for i, sealed := range cred.BackupCodes {
		plain, err := s.cipher.Decrypt(ctx, sealed, backupScope(cred.UserID))
		if err != nil {
			return -1, s.cipherFailure(ctx, string(OpVerify), cred.UserID, err)
		}
		if subtle.ConstantTimeCompare(plain, candidate) == 1 && idx < 0 {
			idx = i
		}
	}
	if idx < 0 {
		return -1, ErrVerificationFailed
	}
	return idx, nil
}

func (s *Service) newBackupCodes(ctx context.Context, userID string) ([]string, [][]byte, error) {
	codes, err := totp.GenerateBackupCodes(s.cfg.BackupCodeCount)
	if err != nil {
		return nil, nil, s.cipherFailure(ctx, string(OpSetup), userID, err)
	}

	sealed := make([][]byte, len(codes))
	for i, code := range codes {
		sealed[i], err = s.cipher.Encrypt(ctx, []byte(code), backupScope(userID))
		if err != nil {
			return nil, nil, s.cipherFailure(ctx, string(OpSetup), userID, err)
		}
	}
	return codes, sealed, nil
}

// checkThrottle records the attempt with the throttle. A refused attempt is
// stored as a failure and audited, and its RateLimitError returned.
func (s *Service) checkThrottle(ctx context.Context, userID string, t AttemptType) error {
	decision, err := s.throttle.CheckAndRecord(ctx, userID, t)
	if err != nil {
		return s.storageFailure(ctx, string(t), userID, err)
	}
	if decision.Allowed {
		return nil
	}

	limited := &RateLimitError{RetryAfter: decision.RetryAfter}
	if err := s.recordAttempt(ctx, userID, t, false); err != nil {
		return err
	}
	s.emit(ctx, ActionRateLimited, userID, t, false,
		audit.WithMetadata("retry_after_seconds", limited.RetryAfterSeconds()))

	return limited
}

// finish records the outcome of a code check and emits the matching audit
// event. Only successes and code mismatches count as attempts.
func (s *Service) finish(ctx context.Context, userID string, t AttemptType, action string, err error, opts ...audit.EventOption) error {
	switch {
	case err == nil:
		if err := s.recordAttempt(ctx, userID, t, true); err != nil {
			return err
		}
		s.emit(ctx, action, userID, t, true, opts...)
		return nil

	case errors.Is(err, ErrVerificationFailed):
		if err := s.recordAttempt(ctx, userID, t, false); err != nil {
			return err
		}
		s.emit(ctx, ActionVerificationFailed, userID, t, false)
		return ErrVerificationFailed

	default:
		return err
	}
}

func (s *Service) recordAttempt(ctx context.Context, userID string, t AttemptType, success bool) error {
	info := RequestInfoFromContext(ctx)
	err := s.store.RecordAttempt(ctx, Attempt{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      t,
		Success:   success,
		IP:        info.IP,
		UserAgent: info.UserAgent,
		CreatedAt: s.now(),
	})
	if err != nil {
		return s.storageFailure(ctx, string(t), userID, err)
	}
	return nil
}

// emit sends an audit event. Sink failures are logged only; the attempt
// record is the durable trail.
func (s *Service) emit(ctx context.Context, action, userID string, t AttemptType, success bool, opts ...audit.EventOption) {
	if s.audit == nil {
		return
	}

	info := RequestInfoFromContext(ctx)
	opts = append([]audit.EventOption{
		audit.WithUserID(userID),
		audit.WithResource(auditResource, userID),
		audit.WithClient(info.IP, info.UserAgent),
		audit.WithMetadata("attempt_type", string(t)),
	}, opts...)
	if client := useragent.Summary(info.UserAgent); client != "" {
		opts = append(opts, audit.WithMetadata("client", client))
	}

	log := s.audit.Log
	if !success {
		log = s.audit.LogFailure
	}
	if err := log(ctx, action, opts...); err != nil {
		s.log.WarnContext(ctx, "failed to write audit event",
			logger.Event(action),
			logger.UserID(userID),
			logger.AttemptType(string(t)),
			logger.Error(err),
		)
	}
}

func (s *Service) storageFailure(ctx context.Context, op, userID string, err error) error {
	s.log.ErrorContext(ctx, "two-factor storage failure",
		logger.Operation(op),
		logger.UserID(userID),
		logger.Error(err),
	)
	return ErrStorage
}

func (s *Service) cipherFailure(ctx context.Context, op, userID string, err error) error {
	s.log.ErrorContext(ctx, "two-factor cipher failure",
		logger.Operation(op),
		logger.UserID(userID),
		logger.Error(err),
	)
	return ErrCipher
}

func normalizeTOTP(code string) (string, error) {
	code, err := totp.NormalizeTOTPCode(code)
	if err != nil {
		return "", validationError("%v", err)
	}
	return code, nil
}

func isServiceError(err error) bool {
	return KindOf(err) != KindUnknown
}

func secretScope(userID string) secrets.Scope {
	return secrets.Scope{UserID: userID, Purpose: secrets.PurposeTOTPSecret}
}

func backupScope(userID string) secrets.Scope {
	return secrets.Scope{UserID: userID, Purpose: secrets.PurposeBackupCode}
}
