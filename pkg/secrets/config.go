package secrets

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Config holds the master key material loaded from the environment.
type Config struct {
	// EncryptionKey is the base64 encoding of the 32-byte master key used
	// for new ciphertexts.
	EncryptionKey string `env:"TWOFACTOR_ENCRYPTION_KEY,required"`
	KeyID         uint32 `env:"TWOFACTOR_ENCRYPTION_KEY_ID" envDefault:"1"`

	// RetiredKeys lists keys kept for decryption only, as "id:base64".
	RetiredKeys []string `env:"TWOFACTOR_RETIRED_KEYS" envSeparator:","`
}

// Provider decodes the configured keys. A single key yields a
// StaticKeyProvider; retired keys turn it into a Keyring with EncryptionKey
// active.
func (c Config) Provider() (KeyProvider, error) {
	key, err := decodeKey(c.EncryptionKey)
	if err != nil {
		return nil, err
	}
	defer clearBytes(key)

	if len(c.RetiredKeys) == 0 {
		return NewStaticKeyProvider(KeyID(c.KeyID), key)
	}

	ring := NewKeyring()
	for _, entry := range c.RetiredKeys {
		id, retired, err := parseRetiredKey(entry)
		if err != nil {
			return nil, err
		}
		if id == KeyID(c.KeyID) {
			clearBytes(retired)
			return nil, fmt.Errorf("%w: retired key %d shares the active key id", ErrInvalidKey, id)
		}
		err = ring.Add(id, retired, false)
		clearBytes(retired)
		if err != nil {
			return nil, err
		}
	}
	if err := ring.Add(KeyID(c.KeyID), key, true); err != nil {
		return nil, err
	}
	return ring, nil
}

func parseRetiredKey(entry string) (KeyID, []byte, error) {
	rawID, rawKey, ok := strings.Cut(strings.TrimSpace(entry), ":")
	if !ok {
		return 0, nil, fmt.Errorf("%w: retired key must be id:base64", ErrInvalidKey)
	}
	id, err := strconv.ParseUint(rawID, 10, 32)
	if err != nil {
		return 0, nil, errors.Join(ErrInvalidKey, err)
	}
	key, err := decodeKey(rawKey)
	if err != nil {
		return 0, nil, err
	}
	return KeyID(id), key, nil
}

func decodeKey(s string) ([]byte, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return nil, ErrMissingKeyInput
	}

	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, errors.Join(ErrInvalidKey, err)
	}
	return key, nil
}

// EncodeKey renders a key in the form Config expects.
func EncodeKey(key []byte) string {
	return base64.StdEncoding.EncodeToString(key)
}
