package secrets

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"io"
)

// Ciphertext layout:
//
//	version(1) | key id(4, big-endian) | nonce(12) | sealed data + tag(16)
const (
	formatVersion byte = 1
	nonceSize          = 12
	tagSize            = 16
	headerSize         = 1 + 4 + nonceSize
)

// Cipher seals small secrets with AES-256-GCM under a per-purpose subkey of
// the provider's master key.
type Cipher struct {
	keys KeyProvider
}

// NewCipher returns a Cipher drawing master keys from keys.
func NewCipher(keys KeyProvider) *Cipher {
	return &Cipher{keys: keys}
}

// Encrypt seals plaintext for scope using the active key.
func (c *Cipher) Encrypt(ctx context.Context, plaintext []byte, scope Scope) ([]byte, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	id, master, err := c.keys.ActiveKey(ctx)
	if err != nil {
		return nil, errors.Join(ErrEncryptionFailed, err)
	}
	defer clearBytes(master)

	aead, err := newAEAD(master, scope.Purpose)
	if err != nil {
		return nil, errors.Join(ErrEncryptionFailed, err)
	}

	out := make([]byte, headerSize, headerSize+len(plaintext)+tagSize)
	out[0] = formatVersion
	binary.BigEndian.PutUint32(out[1:5], uint32(id))
	nonce := out[5:headerSize]
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, errors.Join(ErrEncryptionFailed, err)
	}

	return aead.Seal(out, nonce, plaintext, scope.aad()), nil
}

// Decrypt opens a ciphertext produced by Encrypt for the same scope.
// Every failure after the format check, whatever its cause, is reported as
// ErrDecryptionFailed.
func (c *Cipher) Decrypt(ctx context.Context, ciphertext []byte, scope Scope) ([]byte, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	if len(ciphertext) < headerSize+tagSize || ciphertext[0] != formatVersion {
		return nil, errors.Join(ErrDecryptionFailed, ErrInvalidCiphertext)
	}

	id := KeyID(binary.BigEndian.Uint32(ciphertext[1:5]))
	master, err := c.keys.Key(ctx, id)
	if err != nil {
		return nil, errors.Join(ErrDecryptionFailed, err)
	}
	defer clearBytes(master)

	aead, err := newAEAD(master, scope.Purpose)
	if err != nil {
		return nil, errors.Join(ErrDecryptionFailed, err)
	}

	plaintext, err := aead.Open(nil, ciphertext[5:headerSize], ciphertext[headerSize:], scope.aad())
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

// KeyIDOf returns the key version a ciphertext was sealed with.
func KeyIDOf(ciphertext []byte) (KeyID, error) {
	if len(ciphertext) < headerSize || ciphertext[0] != formatVersion {
		return 0, ErrInvalidCiphertext
	}
	return KeyID(binary.BigEndian.Uint32(ciphertext[1:5])), nil
}

func newAEAD(master []byte, purpose Purpose) (cipher.AEAD, error) {
	key, err := deriveKey(master, purpose)
	if err != nil {
		return nil, err
	}
	defer clearBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
