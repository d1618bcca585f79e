package secrets

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// Cipher encrypts and decrypts secret material at rest. Implementations
// resolve the master key by ID so callers never hold raw key bytes.
type Cipher interface {
	Encrypt(ctx context.Context, plaintext string, keyID string) (string, error)
	Decrypt(ctx context.Context, ciphertext string, keyID string) (string, error)
}

// MasterKeyError signals that the master key could not be resolved or
// could not open the ciphertext.
type MasterKeyError struct {
	KeyID string
	Err   error
}

func (e *MasterKeyError) Error() string {
	return fmt.Sprintf("master key %s unavailable: %v", e.KeyID, e.Err)
}

func (e *MasterKeyError) Unwrap() error {
	return e.Err
}

type aesCipher struct {
	source KeySource
}

// NewAESCipher builds an AES-256-GCM cipher over the given key source.
// Ciphertexts are base64 with the nonce prefixed.
func NewAESCipher(source KeySource) Cipher {
	return &aesCipher{source: source}
}

func (c *aesCipher) gcm(ctx context.Context, keyID string) (cipher.AEAD, error) {
	key, err := c.source.MasterKey(ctx, keyID)
	if err != nil {
		return nil, &MasterKeyError{KeyID: keyID, Err: err}
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, &MasterKeyError{KeyID: keyID, Err: err}
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, &MasterKeyError{KeyID: keyID, Err: err}
	}
	return aead, nil
}

func (c *aesCipher) Encrypt(ctx context.Context, plaintext string, keyID string) (string, error) {
	aead, err := c.gcm(ctx, keyID)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *aesCipher) Decrypt(ctx context.Context, ciphertext string, keyID string) (string, error) {
	aead, err := c.gcm(ctx, keyID)
	if err != nil {
		return "", err
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("malformed ciphertext: %w", err)
	}
	if len(raw) < aead.NonceSize() {
		return "", fmt.Errorf("malformed ciphertext: too short")
	}

	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", &MasterKeyError{KeyID: keyID, Err: err}
	}
	return string(plaintext), nil
}
