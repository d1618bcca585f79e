package chains

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/google/uuid"

	"github.com/joanmiespada/truly-blockchain/internal/models"
	"github.com/joanmiespada/truly-blockchain/internal/secrets"
	"github.com/joanmiespada/truly-blockchain/internal/utils"
)

const (
	evmMethodMint              = "mint"
	evmMethodGetContentByToken = "getContentByToken"
	evmCurrency                = "gwei"
	evmConfirmationPoll        = 2 * time.Second
)

// lightNFTABI covers the two contract entry points the adapter uses.
const lightNFTABI = `[
  {
    "inputs": [
      {"internalType": "address", "name": "to", "type": "address"},
      {"internalType": "string", "name": "token", "type": "string"},
      {"internalType": "string", "name": "hash", "type": "string"},
      {"internalType": "uint256", "name": "price", "type": "uint256"}
    ],
    "name": "mint",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "string", "name": "token", "type": "string"}
    ],
    "name": "getContentByToken",
    "outputs": [
      {"internalType": "string", "name": "hashFile", "type": "string"},
      {"internalType": "string", "name": "uri", "type": "string"},
      {"internalType": "uint256", "name": "price", "type": "uint256"},
      {"internalType": "string", "name": "state", "type": "string"},
      {"internalType": "string", "name": "hashAlgo", "type": "string"}
    ],
    "stateMutability": "view",
    "type": "function"
  }
]`

// EvmAdapter mints content hashes on an EVM chain through a deployed
// LightNFT contract, signing with the contract owner's key.
type EvmAdapter struct {
	rpcURL          string
	contractAddress common.Address
	ownerAddress    common.Address
	ownerSecret     string
	masterKeyID     string
	cipher          secrets.Cipher
	confirmations   uint64
	contractID      uint
	abi             abi.ABI
}

// NewEvmAdapter binds an adapter to a chain and its enabled contract.
func NewEvmAdapter(chain *models.Chain, contract *models.Contract, cipher secrets.Cipher, masterKeyID string) (*EvmAdapter, error) {
	if contract.Status.IsDisabled() {
		return nil, fmt.Errorf("contract %d is disabled", contract.ID)
	}
	if contract.Address == nil || contract.OwnerAddress == nil || contract.OwnerSecret == nil {
		return nil, fmt.Errorf("contract %d is missing address or owner configuration", contract.ID)
	}
	if !utils.IsValidEthereumAddress(*contract.Address) {
		return nil, fmt.Errorf("contract address %s is not a valid ethereum address", *contract.Address)
	}
	if !utils.IsValidEthereumAddress(*contract.OwnerAddress) {
		return nil, fmt.Errorf("owner address %s is not a valid ethereum address", *contract.OwnerAddress)
	}

	parsed, err := abi.JSON(strings.NewReader(lightNFTABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse contract abi: %w", err)
	}

	return &EvmAdapter{
		rpcURL:          chain.Endpoint(),
		contractAddress: common.HexToAddress(*contract.Address),
		ownerAddress:    common.HexToAddress(*contract.OwnerAddress),
		ownerSecret:     *contract.OwnerSecret,
		masterKeyID:     masterKeyID,
		cipher:          cipher,
		confirmations:   uint64(chain.Confirmations),
		contractID:      contract.ID,
		abi:             parsed,
	}, nil
}

func (a *EvmAdapter) ContractID() uint {
	return a.contractID
}

func (a *EvmAdapter) Add(ctx context.Context, assetID uuid.UUID, wallet *models.Wallet, hashFile, hashAlgorithm string, price *uint64, counter uint64) (*models.MintTx, error) {
	if !utils.IsValidEthereumAddress(wallet.Address) {
		return nil, &AddressMalformedError{Address: wallet.Address}
	}

	priceWei := new(big.Int)
	if price != nil {
		priceWei.SetUint64(*price)
	}

	client, err := ethclient.DialContext(ctx, a.rpcURL)
	if err != nil {
		return nil, &SubmissionError{Err: err}
	}
	defer client.Close()

	data, err := a.abi.Pack(evmMethodMint, common.HexToAddress(wallet.Address), assetID.String(), hashFile, priceWei)
	if err != nil {
		return nil, &SubmissionError{Err: err}
	}

	gasLimit, err := client.EstimateGas(ctx, ethereum.CallMsg{
		From: a.ownerAddress,
		To:   &a.contractAddress,
		Data: data,
	})
	if err != nil {
		return nil, &SubmissionError{Err: err}
	}

	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, &SubmissionError{Err: err}
	}

	nonce, err := client.PendingNonceAt(ctx, a.ownerAddress)
	if err != nil {
		return nil, &SubmissionError{Err: err}
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, &SubmissionError{Err: err}
	}

	ownerKey, err := a.ownerPrivateKey(ctx)
	if err != nil {
		return nil, err
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &a.contractAddress,
		Value:    big.NewInt(0),
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), ownerKey)
	if err != nil {
		return nil, &SubmissionError{Err: err}
	}

	if err := client.SendTransaction(ctx, signed); err != nil {
		return nil, &SubmissionError{Err: err}
	}

	receipt, err := a.waitConfirmed(ctx, client, signed.Hash())
	if err != nil {
		return nil, err
	}

	txHash := signed.Hash().Hex()
	blockNumber := receipt.BlockNumber.Uint64()
	gasUsed := fmt.Sprintf("%d", receipt.GasUsed)
	effectiveGasPrice := receipt.EffectiveGasPrice.String()
	cost := weiToGwei(new(big.Int).SetUint64(receipt.GasUsed)) * weiToGwei(receipt.EffectiveGasPrice)
	currency := evmCurrency
	from := a.ownerAddress.Hex()
	to := a.contractAddress.Hex()
	contractID := a.contractID

	return &models.MintTx{
		AssetID:           assetID.String(),
		TxHash:            &txHash,
		BlockNumber:       &blockNumber,
		GasUsed:           &gasUsed,
		EffectiveGasPrice: &effectiveGasPrice,
		Cost:              &cost,
		Currency:          &currency,
		FromAddress:       &from,
		ToAddress:         &to,
		ContractID:        &contractID,
	}, nil
}

// waitConfirmed polls for the receipt, then for the configured
// confirmation depth past the mined block.
func (a *EvmAdapter) waitConfirmed(ctx context.Context, client *ethclient.Client, txHash common.Hash) (*types.Receipt, error) {
	var receipt *types.Receipt
	for {
		var err error
		receipt, err = client.TransactionReceipt(ctx, txHash)
		if err == nil {
			break
		}
		if err != ethereum.NotFound {
			return nil, &SubmissionError{Err: err}
		}
		select {
		case <-ctx.Done():
			return nil, &SubmissionError{Err: ctx.Err()}
		case <-time.After(evmConfirmationPoll):
		}
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, &SubmissionError{Err: fmt.Errorf("transaction %s reverted", txHash.Hex())}
	}

	if a.confirmations > 1 {
		if err := a.waitDepth(ctx, client, receipt.BlockNumber.Uint64()); err != nil {
			return nil, err
		}
	}
	return receipt, nil
}

func (a *EvmAdapter) waitDepth(ctx context.Context, client *ethclient.Client, minedAt uint64) error {
	target := minedAt + a.confirmations - 1
	for {
		head, err := client.BlockNumber(ctx)
		if err != nil {
			return &SubmissionError{Err: err}
		}
		if head >= target {
			return nil
		}
		select {
		case <-ctx.Done():
			return &SubmissionError{Err: ctx.Err()}
		case <-time.After(evmConfirmationPoll):
		}
	}
}

func (a *EvmAdapter) Get(ctx context.Context, reference string) (*ContentInfo, error) {
	client, err := ethclient.DialContext(ctx, a.rpcURL)
	if err != nil {
		return nil, &SubmissionError{Err: err}
	}
	defer client.Close()

	data, err := a.abi.Pack(evmMethodGetContentByToken, reference)
	if err != nil {
		return nil, &SubmissionError{Err: err}
	}

	raw, err := client.CallContract(ctx, ethereum.CallMsg{
		To:   &a.contractAddress,
		Data: data,
	}, nil)
	if err != nil {
		return nil, &SubmissionError{Err: err}
	}

	values, err := a.abi.Unpack(evmMethodGetContentByToken, raw)
	if err != nil {
		return nil, &SubmissionError{Err: err}
	}
	if len(values) != 5 {
		return nil, &SubmissionError{Err: fmt.Errorf("unexpected return arity %d from %s", len(values), evmMethodGetContentByToken)}
	}

	hashFile, _ := values[0].(string)
	uri, _ := values[1].(string)
	priceWei, _ := values[2].(*big.Int)
	stateRaw, _ := values[3].(string)
	hashAlgo, _ := values[4].(string)

	info := &ContentInfo{
		HashFile:      hashFile,
		HashAlgorithm: hashAlgo,
		Token:         &reference,
	}
	if uri != "" {
		info.URI = &uri
	}
	if priceWei != nil {
		price := priceWei.Uint64()
		info.Price = &price
	}
	if state, err := models.ParseContentState(stateRaw); err == nil {
		info.State = &state
	}
	return info, nil
}

func (a *EvmAdapter) CreateKeypair(ctx context.Context, userID string) (*models.Wallet, bool, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, false, err
	}

	address := crypto.PubkeyToAddress(key.PublicKey).Hex()
	privateHex := hex.EncodeToString(crypto.FromECDSA(key))
	publicHex := hex.EncodeToString(crypto.FromECDSAPub(&key.PublicKey))

	encryptedPrivate, err := a.cipher.Encrypt(ctx, privateHex, a.masterKeyID)
	if err != nil {
		return nil, false, err
	}
	encryptedPublic, err := a.cipher.Encrypt(ctx, publicHex, a.masterKeyID)
	if err != nil {
		return nil, false, err
	}

	return &models.Wallet{
		UserID:     userID,
		Address:    address,
		PublicKey:  encryptedPublic,
		PrivateKey: encryptedPrivate,
	}, true, nil
}

func (a *EvmAdapter) ownerPrivateKey(ctx context.Context) (*ecdsa.PrivateKey, error) {
	secret, err := a.cipher.Decrypt(ctx, a.ownerSecret, a.masterKeyID)
	if err != nil {
		return nil, err
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(secret, "0x"))
	if err != nil {
		return nil, &secrets.MasterKeyError{KeyID: a.masterKeyID, Err: err}
	}
	return key, nil
}

func weiToGwei(wei *big.Int) float64 {
	value, _ := new(big.Float).SetInt(wei).Float64()
	return value / 1_000_000_000.0
}
