// Package secrets seals small secrets, such as TOTP seeds and backup codes,
// for storage at rest.
//
// A KeyProvider supplies 32-byte master keys. For every purpose the Cipher
// derives a subkey with HKDF-SHA-256 (info "twofactor-secrets-v1/<purpose>")
// and encrypts with AES-256-GCM under a fresh random nonce. The owner and
// purpose of a record are bound to it as additional authenticated data, so a
// ciphertext moved to another user or purpose does not open.
//
// # Format
//
//	version(1) | key id(4, big-endian) | nonce(12) | ciphertext + tag
//
// The key id makes rotation possible: register the new key in a Keyring as
// active and keep the old ones for reading.
//
// # Usage
//
//	keys, _ := secrets.NewStaticKeyProvider(1, masterKey)
//	c := secrets.NewCipher(keys)
//
//	scope := secrets.Scope{UserID: "user-1", Purpose: secrets.PurposeTOTPSecret}
//	ct, err := c.Encrypt(ctx, seed, scope)
//	if err != nil {
//	    // handle error
//	}
//	seed, err = c.Decrypt(ctx, ct, scope)
//
// # Error Handling
//
// Decrypt fails closed. A wrong key, wrong scope, truncated input or any
// flipped bit returns an error matching ErrDecryptionFailed and never partial
// plaintext.
package secrets
