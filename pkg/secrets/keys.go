package secrets

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/crypto/hkdf"
)

const (
	// KeySize is the required size for master keys.
	KeySize = 32 // 256 bits for AES-256

	// infoPrefix provides domain separation for per-purpose subkeys.
	infoPrefix = "twofactor-secrets-v1/"
)

// KeyID identifies a master key version. It is written into every ciphertext
// so records sealed with a retired key stay readable after rotation.
type KeyID uint32

// KeyProvider hands out master keys. ActiveKey is used for new ciphertexts;
// Key resolves the version recorded in an existing one.
type KeyProvider interface {
	ActiveKey(ctx context.Context) (KeyID, []byte, error)
	Key(ctx context.Context, id KeyID) ([]byte, error)
}

// StaticKeyProvider serves a single master key.
type StaticKeyProvider struct {
	id  KeyID
	key []byte
}

// NewStaticKeyProvider copies key and serves it under id.
func NewStaticKeyProvider(id KeyID, key []byte) (*StaticKeyProvider, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	return &StaticKeyProvider{id: id, key: cloneBytes(key)}, nil
}

// ActiveKey returns the configured key.
func (p *StaticKeyProvider) ActiveKey(_ context.Context) (KeyID, []byte, error) {
	return p.id, cloneBytes(p.key), nil
}

// Key returns the configured key if id matches.
func (p *StaticKeyProvider) Key(_ context.Context, id KeyID) ([]byte, error) {
	if id != p.id {
		return nil, fmt.Errorf("%w: id %d", ErrKeyNotFound, id)
	}
	return cloneBytes(p.key), nil
}

// Keyring holds several master key versions with exactly one active for
// encryption. Retired keys remain available for decryption.
type Keyring struct {
	mu     sync.RWMutex
	keys   map[KeyID][]byte
	active KeyID
	set    bool
}

// NewKeyring returns an empty keyring.
func NewKeyring() *Keyring {
	return &Keyring{keys: make(map[KeyID][]byte)}
}

// Add registers a key version. When activate is true it becomes the key used
// for new ciphertexts.
func (k *Keyring) Add(id KeyID, key []byte, activate bool) error {
	if len(key) != KeySize {
		return ErrInvalidKey
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if old, ok := k.keys[id]; ok {
		clearBytes(old)
	}
	k.keys[id] = cloneBytes(key)
	if activate {
		k.active, k.set = id, true
	}
	return nil
}

// Activate switches encryption to an already registered key.
func (k *Keyring) Activate(id KeyID) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if _, ok := k.keys[id]; !ok {
		return fmt.Errorf("%w: id %d", ErrKeyNotFound, id)
	}
	k.active, k.set = id, true
	return nil
}

// Remove drops a retired key. The active key cannot be removed.
func (k *Keyring) Remove(id KeyID) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.set && k.active == id {
		return errors.New("cannot remove the active key")
	}
	if old, ok := k.keys[id]; ok {
		clearBytes(old)
		delete(k.keys, id)
	}
	return nil
}

// ActiveKey implements KeyProvider.
func (k *Keyring) ActiveKey(_ context.Context) (KeyID, []byte, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if !k.set {
		return 0, nil, ErrNoActiveKey
	}
	return k.active, cloneBytes(k.keys[k.active]), nil
}

// Key implements KeyProvider.
func (k *Keyring) Key(_ context.Context, id KeyID) ([]byte, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	key, ok := k.keys[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrKeyNotFound, id)
	}
	return cloneBytes(key), nil
}

// deriveKey expands a master key into the subkey for one purpose using HKDF.
// The caller is responsible for clearing the returned key from memory using clearBytes()
// when it is no longer needed.
func deriveKey(master []byte, purpose Purpose) ([]byte, error) {
	if len(master) != KeySize {
		return nil, ErrInvalidKey
	}

	hkdfReader := hkdf.New(sha256.New, master, nil, []byte(infoPrefix+string(purpose)))

	derivedKey := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdfReader, derivedKey); err != nil {
		return nil, errors.Join(ErrKeyDerivationFailed, err)
	}

	return derivedKey, nil
}

// clearBytes zeros out a byte slice holding key material.
func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// GenerateKey creates a new random 32-byte key suitable for encryption
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}
