package chains

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joanmiespada/truly-blockchain/internal/models"
	"github.com/joanmiespada/truly-blockchain/internal/secrets"
)

func solanaFixture(t *testing.T, cipher secrets.Cipher) (*models.Chain, *models.Contract) {
	owner := types.NewAccount()
	secret, err := cipher.Encrypt(context.Background(),
		base58.Encode(owner.PrivateKey), "WALLET_MASTER_KEY")
	require.NoError(t, err)

	program := types.NewAccount().PublicKey.ToBase58()
	ownerAddress := owner.PublicKey.ToBase58()

	chain := &models.Chain{
		ID:            "solana-devnet",
		ChainType:     models.ChainTypeSolana,
		RPC:           "https://api.devnet.solana.com",
		Confirmations: 1,
	}
	contract := &models.Contract{
		ID:           2,
		ChainID:      "solana-devnet",
		Address:      &program,
		OwnerAddress: &ownerAddress,
		OwnerSecret:  &secret,
		Status:       models.ContractStatusEnabled,
	}
	return chain, contract
}

func TestNewSolanaAdapter(t *testing.T) {
	cipher := testCipher(t)

	t.Run("valid configuration", func(t *testing.T) {
		chain, contract := solanaFixture(t, cipher)

		adapter, err := NewSolanaAdapter(chain, contract, cipher, "WALLET_MASTER_KEY")
		require.NoError(t, err)
		assert.Equal(t, uint(2), adapter.ContractID())
	})

	t.Run("disabled contract rejected", func(t *testing.T) {
		chain, contract := solanaFixture(t, cipher)
		contract.Status = models.ContractStatusDisabled

		_, err := NewSolanaAdapter(chain, contract, cipher, "WALLET_MASTER_KEY")
		assert.Error(t, err)
	})

	t.Run("missing owner configuration rejected", func(t *testing.T) {
		chain, contract := solanaFixture(t, cipher)
		contract.OwnerAddress = nil

		_, err := NewSolanaAdapter(chain, contract, cipher, "WALLET_MASTER_KEY")
		assert.Error(t, err)
	})
}

func TestSolanaOwnerAccount(t *testing.T) {
	cipher := testCipher(t)
	chain, contract := solanaFixture(t, cipher)

	adapter, err := NewSolanaAdapter(chain, contract, cipher, "WALLET_MASTER_KEY")
	require.NoError(t, err)

	t.Run("decrypts the custodial signing key", func(t *testing.T) {
		account, err := adapter.ownerAccount(context.Background())
		require.NoError(t, err)
		assert.Equal(t, *contract.OwnerAddress, account.PublicKey.ToBase58())
	})

	t.Run("wrong master key surfaces as key error", func(t *testing.T) {
		other, err := NewSolanaAdapter(chain, contract, testCipher(t), "WALLET_MASTER_KEY")
		require.NoError(t, err)

		_, err = other.ownerAccount(context.Background())

		var keyErr *secrets.MasterKeyError
		assert.ErrorAs(t, err, &keyErr)
	})
}

func TestSolanaCreateKeypair(t *testing.T) {
	cipher := testCipher(t)
	chain, contract := solanaFixture(t, cipher)

	adapter, err := NewSolanaAdapter(chain, contract, cipher, "WALLET_MASTER_KEY")
	require.NoError(t, err)

	// Every user shares the custodial owner account and nothing is persisted.
	wallet, persist, err := adapter.CreateKeypair(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, persist)
	assert.Equal(t, "user-1", wallet.UserID)
	assert.Equal(t, *contract.OwnerAddress, wallet.Address)
	assert.Empty(t, wallet.PrivateKey)
}

func TestHashPayloadEncoding(t *testing.T) {
	assetID := uuid.New()
	payload := hashPayload{
		Hash:          "cafebabe",
		HashAlgorithm: "MD5",
		AssetID:       assetID.String(),
	}

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	var decoded hashPayload
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, payload, decoded)
	assert.JSONEq(t,
		`{"hash":"cafebabe","hash_algorithm":"MD5","asset_id":"`+assetID.String()+`"}`,
		string(data))
}
