package totp

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
)

const (
	SecretSize         = 20 // 160-bit secret (RFC 4226 recommendation for cryptographic strength)
	BackupCodeBytes    = 5
	BackupCodeLength   = BackupCodeBytes * 2
	DefaultBackupCodes = 10
)

// CodeKind tells a TOTP code apart from a backup code.
type CodeKind int

const (
	CodeTOTP CodeKind = iota + 1
	CodeBackup
)

// GenerateSecret draws a new raw secret from crypto/rand.
func GenerateSecret() ([]byte, error) {
	secret := make([]byte, SecretSize)
	if _, err := rand.Read(secret); err != nil {
		return nil, errors.Join(ErrFailedToGenerateSecretKey, err)
	}
	return secret, nil
}

// GenerateBackupCodes creates count single-use backup codes, each rendered as
// 10 uppercase hex characters (40 bits of entropy). Codes are unique within
// the returned batch.
func GenerateBackupCodes(count int) ([]string, error) {
	if count < 1 {
		return nil, ErrInvalidBackupCodeCount
	}

	codes := make([]string, 0, count)
	seen := make(map[string]struct{}, count)
	buf := make([]byte, BackupCodeBytes)

	for len(codes) < count {
		if _, err := rand.Read(buf); err != nil {
			return nil, errors.Join(ErrFailedToGenerateBackupCode, err)
		}
		code := strings.ToUpper(hex.EncodeToString(buf))
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}

	return codes, nil
}

// NormalizeTOTPCode strips spaces and requires exactly six ASCII digits.
func NormalizeTOTPCode(code string) (string, error) {
	code = stripSeparators(code)
	if len(code) != Digits {
		return "", ErrInvalidOTP
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return "", ErrInvalidOTP
		}
	}
	return code, nil
}

// NormalizeBackupCode strips spaces and dashes, upper-cases the input and
// requires exactly ten hex characters.
func NormalizeBackupCode(code string) (string, error) {
	code = strings.ToUpper(stripSeparators(code))
	if len(code) != BackupCodeLength {
		return "", ErrInvalidBackupCode
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if (c < '0' || c > '9') && (c < 'A' || c > 'F') {
			return "", ErrInvalidBackupCode
		}
	}
	return code, nil
}

// ClassifyCode routes a user-supplied code by length: six characters are a
// TOTP code, ten are a backup code. The normalized code is returned.
func ClassifyCode(code string) (CodeKind, string, error) {
	switch len(stripSeparators(code)) {
	case Digits:
		c, err := NormalizeTOTPCode(code)
		if err != nil {
			return 0, "", err
		}
		return CodeTOTP, c, nil
	case BackupCodeLength:
		c, err := NormalizeBackupCode(code)
		if err != nil {
			return 0, "", err
		}
		return CodeBackup, c, nil
	default:
		return 0, "", ErrInvalidCode
	}
}

func stripSeparators(code string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '-':
			return -1
		}
		return r
	}, code)
}
