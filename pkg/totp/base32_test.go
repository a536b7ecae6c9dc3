package totp_test

import (
	"crypto/rand"
	"strings"
	"testing"

	"github.com/dmitrymomot/twofactor/pkg/totp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeSecret_RoundTrip(t *testing.T) {
	t.Parallel()
	for range 100 {
		b := make([]byte, totp.SecretSize)
		_, err := rand.Read(b)
		require.NoError(t, err)

		encoded := totp.EncodeSecret(b)
		assert.NotContains(t, encoded, "=")
		assert.Len(t, encoded, 32)

		decoded, err := totp.DecodeSecret(encoded)
		require.NoError(t, err)
		assert.Equal(t, b, decoded)
	}
}

func TestEncodeSecret_Deterministic(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ", totp.EncodeSecret([]byte("12345678901234567890")))
}

func TestDecodeSecret(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		input   string
		want    []byte
		wantErr error
	}{
		{name: "uppercase", input: "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ", want: []byte("12345678901234567890")},
		{name: "lowercase", input: "gezdgnbvgy3tqojqgezdgnbvgy3tqojq", want: []byte("12345678901234567890")},
		{name: "padded", input: "MZXW6===", want: []byte("foo")},
		{name: "empty", input: "", wantErr: totp.ErrEmptySecret},
		{name: "digit outside alphabet", input: "GEZDGNBVGY3TQOJ1", wantErr: totp.ErrInvalidBase32},
		{name: "symbol", input: "GEZD-NBV", wantErr: totp.ErrInvalidBase32},
		{name: "embedded newline", input: "GEZDGNBV\nGY3TQOJQ", wantErr: totp.ErrInvalidBase32},
		{name: "embedded space", input: "GEZD GNBV", wantErr: totp.ErrInvalidBase32},
		{name: "padding in the middle", input: "MZ=XW6", wantErr: totp.ErrInvalidBase32},
		{name: "impossible length", input: "A", wantErr: totp.ErrInvalidBase32},
		{name: "three dangling symbols", input: "MZXW6AAA" + "AAA", wantErr: totp.ErrInvalidBase32},
		{name: "six dangling symbols", input: "MZXW6AAA" + "AAAAAA", wantErr: totp.ErrInvalidBase32},
		{name: "non-zero trailing bits", input: "MZXW7", wantErr: totp.ErrInvalidBase32},
		{name: "padded non-zero trailing bits", input: "MZXW7===", wantErr: totp.ErrInvalidBase32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := totp.DecodeSecret(tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeSecret_NeverTruncates(t *testing.T) {
	t.Parallel()
	valid := totp.EncodeSecret([]byte("12345678901234567890"))
	corrupted := valid[:10] + "!" + valid[11:]
	got, err := totp.DecodeSecret(corrupted)
	require.Error(t, err)
	assert.Empty(t, got)

	_, err = totp.DecodeSecret(strings.Repeat("=", 8))
	assert.ErrorIs(t, err, totp.ErrEmptySecret)

	for _, bad := range []string{valid + "A", valid + "AAA", valid[:31]} {
		got, err := totp.DecodeSecret(bad)
		require.ErrorIs(t, err, totp.ErrInvalidBase32, bad)
		assert.Nil(t, got, bad)
	}
}
