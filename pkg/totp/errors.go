package totp

import "errors"

var (
	ErrInvalidBase32              = errors.New("invalid base32 secret")
	ErrEmptySecret                = errors.New("empty secret")
	ErrFailedToGenerateSecretKey  = errors.New("failed to generate TOTP secret key")
	ErrMissingSecret              = errors.New("missing secret")
	ErrMissingAccountName         = errors.New("missing account name")
	ErrMissingIssuer              = errors.New("missing issuer")
	ErrInvalidLabel               = errors.New("issuer and account name must not contain ':'")
	ErrInvalidCode                = errors.New("invalid code format")
	ErrInvalidOTP                 = errors.New("invalid OTP format")
	ErrInvalidBackupCode          = errors.New("invalid backup code format")
	ErrInvalidBackupCodeCount     = errors.New("invalid backup code count, must be greater than 0")
	ErrFailedToGenerateBackupCode = errors.New("failed to generate backup code")
)
