// Package totp implements the pieces of RFC 4226 / RFC 6238 two-factor
// authentication that need no storage: the strict Base32 codec for shared
// secrets, HOTP/TOTP code generation and validation, secret and backup-code
// provisioning, and otpauth provisioning URIs.
//
// Only the HMAC-SHA1, 30-second, 6-digit variant is supported. That is the
// variant every mainstream authenticator app defaults to.
//
// # Usage
//
//	secret, _ := totp.GenerateSecret()
//	uri, _ := totp.ProvisioningURI(totp.URIParams{
//	    Secret:      totp.EncodeSecret(secret),
//	    AccountName: "alice@example.com",
//	    Issuer:      "Acme",
//	})
//
//	// later
//	if totp.ValidateTOTP(secret, "123456", time.Now()) {
//	    // accepted
//	}
//
// ValidateTOTP accepts the previous, current and next 30-second windows and
// compares every candidate in constant time. MatchTOTP additionally returns
// the matched counter so callers can refuse to accept the same window twice.
//
// # Backup codes
//
// GenerateBackupCodes produces 10-character uppercase hex codes. Their length
// differs from TOTP codes, so ClassifyCode can route a single user input to
// the right check.
//
// # Error Handling
//
// Inspect errors with errors.Is against package level sentinels such as
// ErrInvalidBase32, ErrInvalidOTP and ErrInvalidBackupCode.
//
// # See Also
//
//   - RFC 4226 – HMAC-Based One-Time Password (HOTP) Algorithm
//   - RFC 6238 – Time-Based One-Time Password (TOTP) Algorithm
//   - RFC 4648 – The Base16, Base32, and Base64 Data Encodings
package totp
