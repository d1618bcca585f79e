package secrets

import (
	"context"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) []byte {
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

func TestAESCipherRoundTrip(t *testing.T) {
	cipher := NewAESCipher(StaticKeySource{Key: testKey(t)})
	ctx := context.Background()

	t.Run("encrypt then decrypt", func(t *testing.T) {
		plaintext := "0x4f3edf983ac636a65a842ce7c78d9aa706d3b113bce9c46f30d7d21715b23b1d"

		ciphertext, err := cipher.Encrypt(ctx, plaintext, "WALLET_MASTER_KEY")
		require.NoError(t, err)
		assert.NotEqual(t, plaintext, ciphertext)

		decrypted, err := cipher.Decrypt(ctx, ciphertext, "WALLET_MASTER_KEY")
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	})

	t.Run("random nonce makes ciphertexts differ", func(t *testing.T) {
		first, err := cipher.Encrypt(ctx, "same secret", "WALLET_MASTER_KEY")
		require.NoError(t, err)
		second, err := cipher.Encrypt(ctx, "same secret", "WALLET_MASTER_KEY")
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})
}

func TestAESCipherFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong key cannot open the ciphertext", func(t *testing.T) {
		ciphertext, err := NewAESCipher(StaticKeySource{Key: testKey(t)}).
			Encrypt(ctx, "secret", "WALLET_MASTER_KEY")
		require.NoError(t, err)

		_, err = NewAESCipher(StaticKeySource{Key: testKey(t)}).
			Decrypt(ctx, ciphertext, "WALLET_MASTER_KEY")

		var keyErr *MasterKeyError
		require.ErrorAs(t, err, &keyErr)
		assert.Equal(t, "WALLET_MASTER_KEY", keyErr.KeyID)
	})

	t.Run("malformed ciphertext", func(t *testing.T) {
		cipher := NewAESCipher(StaticKeySource{Key: testKey(t)})

		_, err := cipher.Decrypt(ctx, "not-base64!!!", "WALLET_MASTER_KEY")
		assert.Error(t, err)

		_, err = cipher.Decrypt(ctx, "c2hvcnQ=", "WALLET_MASTER_KEY")
		assert.Error(t, err)
	})

	t.Run("invalid key length", func(t *testing.T) {
		cipher := NewAESCipher(StaticKeySource{Key: []byte("too-short")})

		_, err := cipher.Encrypt(ctx, "secret", "WALLET_MASTER_KEY")

		var keyErr *MasterKeyError
		assert.ErrorAs(t, err, &keyErr)
	})
}

func TestEnvKeySource(t *testing.T) {
	t.Run("reads base64 key from the environment", func(t *testing.T) {
		t.Setenv("TEST_MASTER_KEY", "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=")

		key, err := EnvKeySource{}.MasterKey(context.Background(), "TEST_MASTER_KEY")
		require.NoError(t, err)
		assert.Len(t, key, 32)
	})

	t.Run("missing variable", func(t *testing.T) {
		_, err := EnvKeySource{}.MasterKey(context.Background(), "TEST_MASTER_KEY_ABSENT")
		assert.Error(t, err)
	})

	t.Run("invalid base64", func(t *testing.T) {
		t.Setenv("TEST_MASTER_KEY_BAD", "%%%")

		_, err := EnvKeySource{}.MasterKey(context.Background(), "TEST_MASTER_KEY_BAD")
		assert.Error(t, err)
	})
}
