package secrets

import (
	"crypto/sha256"
	"encoding/binary"
	"hash"
)

// Purpose names what a ciphertext protects. Each purpose gets its own subkey.
type Purpose string

const (
	PurposeTOTPSecret Purpose = "totp_secret"
	PurposeBackupCode Purpose = "backup_code"
)

// Scope binds a ciphertext to its owner and purpose. It is authenticated as
// GCM additional data, so a record copied to another user or another purpose
// fails to decrypt.
type Scope struct {
	UserID  string
	Purpose Purpose
}

// Validate reports whether both fields are set.
func (s Scope) Validate() error {
	if s.UserID == "" || s.Purpose == "" {
		return ErrInvalidScope
	}
	return nil
}

// aad hashes a length-prefixed encoding of the scope so that no choice of
// field values can collide with another.
func (s Scope) aad() []byte {
	h := sha256.New()
	writeField(h, "twofactor-scope-v1")
	writeField(h, s.UserID)
	writeField(h, string(s.Purpose))
	return h.Sum(nil)
}

func writeField(h hash.Hash, v string) {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(v)))
	h.Write(n[:])
	h.Write([]byte(v))
}
