package secrets

import "errors"

var (
	// Key errors
	ErrInvalidKey      = errors.New("invalid key: must be 32 bytes")
	ErrKeyNotFound     = errors.New("key not found")
	ErrNoActiveKey     = errors.New("no active key configured")
	ErrMissingKeyInput = errors.New("missing encryption key")

	// Encryption/decryption errors
	ErrEncryptionFailed  = errors.New("encryption failed")
	ErrDecryptionFailed  = errors.New("decryption failed")
	ErrInvalidCiphertext = errors.New("invalid ciphertext format")
	ErrInvalidScope      = errors.New("invalid scope: user id and purpose are required")

	// Key derivation errors
	ErrKeyDerivationFailed = errors.New("key derivation failed")
)
