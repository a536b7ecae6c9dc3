package totp

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/binary"
	"strconv"
	"time"
)

const (
	Digits      = 6  // Standard 6-digit TOTP codes
	Period      = 30 // 30-second validity window (RFC 6238 standard)
	DefaultSkew = 1  // Steps accepted on either side of the current one
	Algorithm   = "SHA1"

	modulo = 1_000_000 // 10^Digits
)

// GenerateHOTP implements the RFC 4226 HMAC-based One-Time Password algorithm.
// The counter is hashed as a big-endian 8-byte value with HMAC-SHA1 and the
// digest is reduced to a zero-padded 6-digit string.
func GenerateHOTP(key []byte, counter uint64) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], counter)

	mac := hmac.New(sha1.New, key)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	// Dynamic truncation (RFC 4226): use last 4 bits as offset into hash
	offset := sum[len(sum)-1] & 0x0f
	// Extract 31-bit value (clear MSB to ensure positive number)
	code := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff

	return pad(code % modulo)
}

// Counter returns the RFC 6238 time step containing t.
func Counter(t time.Time) uint64 {
	unix := t.Unix()
	if unix < 0 {
		return 0
	}
	return uint64(unix) / Period
}

// GenerateTOTP returns the code for the 30-second window containing t.
func GenerateTOTP(key []byte, t time.Time) string {
	return GenerateHOTP(key, Counter(t))
}

// ValidateTOTP reports whether code matches the window containing t or one
// of its immediate neighbours, tolerating ±30s of clock drift.
func ValidateTOTP(key []byte, code string, t time.Time) bool {
	_, ok := MatchTOTP(key, code, t, DefaultSkew)
	return ok
}

// MatchTOTP checks code against every counter in [C-skew, C+skew] and returns
// the counter that matched. All candidates are compared in constant time and
// the loop never exits early, so response time does not depend on which
// window (if any) matched.
func MatchTOTP(key []byte, code string, t time.Time, skew uint) (uint64, bool) {
	if len(code) != Digits {
		return 0, false
	}

	current := Counter(t)
	candidate := []byte(code)

	var (
		matched uint64
		ok      bool
	)
	for i := -int64(skew); i <= int64(skew); i++ {
		c := int64(current) + i
		if c < 0 {
			continue
		}
		expected := []byte(GenerateHOTP(key, uint64(c)))
		if subtle.ConstantTimeCompare(expected, candidate) == 1 && !ok {
			matched, ok = uint64(c), true
		}
	}

	return matched, ok
}

func pad(code uint32) string {
	s := strconv.FormatUint(uint64(code), 10)
	for len(s) < Digits {
		s = "0" + s
	}
	return s
}
