package totp

import (
	"encoding/base32"
	"errors"
	"fmt"
	"strings"
)

// secretEncoding is the RFC 4648 alphabet without padding, the form
// authenticator apps expect in otpauth URIs.
var secretEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// EncodeSecret returns the unpadded Base32 representation of a raw secret.
func EncodeSecret(secret []byte) string {
	return secretEncoding.EncodeToString(secret)
}

// DecodeSecret parses a Base32 secret case-insensitively.
//
// Trailing '=' padding is tolerated. Every other symbol outside A-Z and 2-7,
// whitespace and line breaks included, is rejected with ErrInvalidBase32.
// The standard decoder silently skips '\r' and '\n' and drops dangling
// symbols, so the input is checked symbol by symbol before it is handed over
// and must re-encode to itself afterwards.
func DecodeSecret(s string) ([]byte, error) {
	s = strings.TrimRight(strings.ToUpper(s), "=")
	if s == "" {
		return nil, ErrEmptySecret
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'A' || c > 'Z') && (c < '2' || c > '7') {
			return nil, fmt.Errorf("%w: unexpected symbol %q at offset %d", ErrInvalidBase32, c, i)
		}
	}

	switch len(s) % 8 {
	case 1, 3, 6:
		return nil, fmt.Errorf("%w: impossible length %d", ErrInvalidBase32, len(s))
	}

	secret, err := secretEncoding.DecodeString(s)
	if err != nil {
		return nil, errors.Join(ErrInvalidBase32, err)
	}
	if len(secret) == 0 || EncodeSecret(secret) != s {
		return nil, fmt.Errorf("%w: non-canonical trailing bits", ErrInvalidBase32)
	}

	return secret, nil
}
