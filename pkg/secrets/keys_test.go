package secrets_test

import (
	"context"
	"testing"

	"github.com/dmitrymomot/twofactor/pkg/secrets"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKey(t *testing.T) {
	t.Parallel()
	a, err := secrets.GenerateKey()
	require.NoError(t, err)
	b, err := secrets.GenerateKey()
	require.NoError(t, err)

	assert.Len(t, a, secrets.KeySize)
	assert.NotEqual(t, a, b)
}

func TestNewStaticKeyProvider(t *testing.T) {
	t.Parallel()
	_, err := secrets.NewStaticKeyProvider(1, make([]byte, 16))
	assert.ErrorIs(t, err, secrets.ErrInvalidKey)

	key, err := secrets.GenerateKey()
	require.NoError(t, err)
	p, err := secrets.NewStaticKeyProvider(7, key)
	require.NoError(t, err)

	// Mutating the caller's slice must not affect the provider.
	original := append([]byte(nil), key...)
	key[0] ^= 0xff

	id, got, err := p.ActiveKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, secrets.KeyID(7), id)
	assert.Equal(t, original, got)

	_, err = p.Key(context.Background(), 8)
	assert.ErrorIs(t, err, secrets.ErrKeyNotFound)
}

func TestConfig_Provider(t *testing.T) {
	t.Parallel()
	key, err := secrets.GenerateKey()
	require.NoError(t, err)

	tests := []struct {
		name    string
		cfg     secrets.Config
		wantErr error
	}{
		{name: "valid", cfg: secrets.Config{EncryptionKey: secrets.EncodeKey(key), KeyID: 3}},
		{name: "empty", cfg: secrets.Config{}, wantErr: secrets.ErrMissingKeyInput},
		{name: "not base64", cfg: secrets.Config{EncryptionKey: "%%%"}, wantErr: secrets.ErrInvalidKey},
		{name: "short key", cfg: secrets.Config{EncryptionKey: secrets.EncodeKey(key[:16])}, wantErr: secrets.ErrInvalidKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, err := tt.cfg.Provider()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			id, got, err := p.ActiveKey(context.Background())
			require.NoError(t, err)
			assert.Equal(t, secrets.KeyID(3), id)
			assert.Equal(t, key, got)
		})
	}
}

func TestConfig_Provider_RetiredKeys(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	scope := secrets.Scope{UserID: "user-1", Purpose: secrets.PurposeBackupCode}

	oldKey, err := secrets.GenerateKey()
	require.NoError(t, err)
	newKey, err := secrets.GenerateKey()
	require.NoError(t, err)

	legacy, err := secrets.Config{EncryptionKey: secrets.EncodeKey(oldKey), KeyID: 1}.Provider()
	require.NoError(t, err)
	sealed, err := secrets.NewCipher(legacy).Encrypt(ctx, []byte("ABCDEF0123"), scope)
	require.NoError(t, err)

	rotated, err := secrets.Config{
		EncryptionKey: secrets.EncodeKey(newKey),
		KeyID:         2,
		RetiredKeys:   []string{"1:" + secrets.EncodeKey(oldKey)},
	}.Provider()
	require.NoError(t, err)
	assert.IsType(t, &secrets.Keyring{}, rotated)

	c := secrets.NewCipher(rotated)
	pt, err := c.Decrypt(ctx, sealed, scope)
	require.NoError(t, err)
	assert.Equal(t, "ABCDEF0123", string(pt))

	fresh, err := c.Encrypt(ctx, pt, scope)
	require.NoError(t, err)
	id, err := secrets.KeyIDOf(fresh)
	require.NoError(t, err)
	assert.Equal(t, secrets.KeyID(2), id)

	tests := []struct {
		name    string
		retired []string
	}{
		{"missing separator", []string{secrets.EncodeKey(oldKey)}},
		{"bad id", []string{"x:" + secrets.EncodeKey(oldKey)}},
		{"short key", []string{"1:" + secrets.EncodeKey(oldKey[:16])}},
		{"same id as active", []string{"2:" + secrets.EncodeKey(oldKey)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := secrets.Config{EncryptionKey: secrets.EncodeKey(newKey), KeyID: 2, RetiredKeys: tt.retired}.Provider()
			assert.ErrorIs(t, err, secrets.ErrInvalidKey)
		})
	}
}
