package chains

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joanmiespada/truly-blockchain/internal/models"
	"github.com/joanmiespada/truly-blockchain/internal/secrets"
)

func testCipher(t *testing.T) secrets.Cipher {
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return secrets.NewAESCipher(secrets.StaticKeySource{Key: key})
}

func evmFixture(t *testing.T, cipher secrets.Cipher) (*models.Chain, *models.Contract) {
	ownerKey, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	secret, err := cipher.Encrypt(context.Background(),
		hex.EncodeToString(ethcrypto.FromECDSA(ownerKey)), "WALLET_MASTER_KEY")
	require.NoError(t, err)

	address := "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	ownerAddress := ethcrypto.PubkeyToAddress(ownerKey.PublicKey).Hex()

	chain := &models.Chain{
		ID:            "ganache",
		ChainType:     models.ChainTypeEvm,
		RPC:           "http://localhost:8545",
		Confirmations: 1,
	}
	contract := &models.Contract{
		ID:           1,
		ChainID:      "ganache",
		Address:      &address,
		OwnerAddress: &ownerAddress,
		OwnerSecret:  &secret,
		Status:       models.ContractStatusEnabled,
	}
	return chain, contract
}

func TestNewEvmAdapter(t *testing.T) {
	cipher := testCipher(t)

	t.Run("valid configuration", func(t *testing.T) {
		chain, contract := evmFixture(t, cipher)

		adapter, err := NewEvmAdapter(chain, contract, cipher, "WALLET_MASTER_KEY")
		require.NoError(t, err)
		assert.Equal(t, uint(1), adapter.ContractID())
	})

	t.Run("disabled contract rejected", func(t *testing.T) {
		chain, contract := evmFixture(t, cipher)
		contract.Status = models.ContractStatusDisabled

		_, err := NewEvmAdapter(chain, contract, cipher, "WALLET_MASTER_KEY")
		assert.Error(t, err)
	})

	t.Run("missing owner configuration rejected", func(t *testing.T) {
		chain, contract := evmFixture(t, cipher)
		contract.OwnerSecret = nil

		_, err := NewEvmAdapter(chain, contract, cipher, "WALLET_MASTER_KEY")
		assert.Error(t, err)
	})

	t.Run("malformed contract address rejected", func(t *testing.T) {
		chain, contract := evmFixture(t, cipher)
		bad := "not-an-address"
		contract.Address = &bad

		_, err := NewEvmAdapter(chain, contract, cipher, "WALLET_MASTER_KEY")
		assert.Error(t, err)
	})
}

func TestEvmAdapterOwnerKey(t *testing.T) {
	cipher := testCipher(t)
	chain, contract := evmFixture(t, cipher)

	adapter, err := NewEvmAdapter(chain, contract, cipher, "WALLET_MASTER_KEY")
	require.NoError(t, err)

	t.Run("decrypts and parses the signing key", func(t *testing.T) {
		key, err := adapter.ownerPrivateKey(context.Background())
		require.NoError(t, err)
		assert.Equal(t, *contract.OwnerAddress, ethcrypto.PubkeyToAddress(key.PublicKey).Hex())
	})

	t.Run("wrong master key surfaces as key error", func(t *testing.T) {
		other, err := NewEvmAdapter(chain, contract, testCipher(t), "WALLET_MASTER_KEY")
		require.NoError(t, err)

		_, err = other.ownerPrivateKey(context.Background())

		var keyErr *secrets.MasterKeyError
		assert.ErrorAs(t, err, &keyErr)
	})
}

func TestEvmAdapterCreateKeypair(t *testing.T) {
	cipher := testCipher(t)
	chain, contract := evmFixture(t, cipher)

	adapter, err := NewEvmAdapter(chain, contract, cipher, "WALLET_MASTER_KEY")
	require.NoError(t, err)

	wallet, persist, err := adapter.CreateKeypair(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, persist)
	assert.Equal(t, "user-1", wallet.UserID)
	assert.True(t, common.IsHexAddress(wallet.Address))

	// Key material is stored encrypted and decrypts back to the address.
	privateHex, err := cipher.Decrypt(context.Background(), wallet.PrivateKey, "WALLET_MASTER_KEY")
	require.NoError(t, err)
	key, err := ethcrypto.HexToECDSA(privateHex)
	require.NoError(t, err)
	assert.Equal(t, wallet.Address, ethcrypto.PubkeyToAddress(key.PublicKey).Hex())
}

func TestEvmAddressValidation(t *testing.T) {
	cipher := testCipher(t)
	chain, contract := evmFixture(t, cipher)

	adapter, err := NewEvmAdapter(chain, contract, cipher, "WALLET_MASTER_KEY")
	require.NoError(t, err)

	// A malformed user address fails before anything is dialed.
	wallet := &models.Wallet{UserID: "user-1", Address: "bogus"}
	_, err = adapter.Add(context.Background(), uuid.New(), wallet, "cafebabe", "MD5", nil, 1)

	var malformed *AddressMalformedError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "bogus", malformed.Address)
}
