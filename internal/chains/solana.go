package chains

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/rpc"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/google/uuid"

	"github.com/joanmiespada/truly-blockchain/internal/models"
	"github.com/joanmiespada/truly-blockchain/internal/secrets"
)

const (
	solanaCurrency         = "lamports"
	solanaConfirmationPoll = 2 * time.Second
)

// hashPayload is the instruction data written to the memo-style program.
type hashPayload struct {
	Hash          string `json:"hash"`
	HashAlgorithm string `json:"hash_algorithm"`
	AssetID       string `json:"asset_id"`
}

// SolanaAdapter mints content hashes by invoking a deployed program with
// the hash payload as instruction data, signed by the custodial owner
// account. Users share the owner key and never get individual wallets.
type SolanaAdapter struct {
	rpcURL         string
	programAddress common.PublicKey
	ownerAddress   string
	ownerSecret    string
	masterKeyID    string
	cipher         secrets.Cipher
	contractID     uint
}

func NewSolanaAdapter(chain *models.Chain, contract *models.Contract, cipher secrets.Cipher, masterKeyID string) (*SolanaAdapter, error) {
	if contract.Status.IsDisabled() {
		return nil, fmt.Errorf("contract %d is disabled", contract.ID)
	}
	if contract.Address == nil || contract.OwnerAddress == nil || contract.OwnerSecret == nil {
		return nil, fmt.Errorf("contract %d is missing address or owner configuration", contract.ID)
	}

	return &SolanaAdapter{
		rpcURL:         chain.Endpoint(),
		programAddress: common.PublicKeyFromString(*contract.Address),
		ownerAddress:   *contract.OwnerAddress,
		ownerSecret:    *contract.OwnerSecret,
		masterKeyID:    masterKeyID,
		cipher:         cipher,
		contractID:     contract.ID,
	}, nil
}

func (a *SolanaAdapter) ContractID() uint {
	return a.contractID
}

func (a *SolanaAdapter) Add(ctx context.Context, assetID uuid.UUID, wallet *models.Wallet, hashFile, hashAlgorithm string, price *uint64, counter uint64) (*models.MintTx, error) {
	rpcClient := client.NewClient(a.rpcURL)

	owner, err := a.ownerAccount(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(hashPayload{
		Hash:          hashFile,
		HashAlgorithm: hashAlgorithm,
		AssetID:       assetID.String(),
	})
	if err != nil {
		return nil, &SubmissionError{Err: err}
	}

	recent, err := rpcClient.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, &SubmissionError{Err: err}
	}

	tx, err := types.NewTransaction(types.NewTransactionParam{
		Signers: []types.Account{owner},
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        owner.PublicKey,
			RecentBlockhash: recent.Blockhash,
			Instructions: []types.Instruction{
				{
					ProgramID: a.programAddress,
					Accounts: []types.AccountMeta{
						{PubKey: owner.PublicKey, IsSigner: true, IsWritable: true},
					},
					Data: data,
				},
			},
		}),
	})
	if err != nil {
		return nil, &SubmissionError{Err: err}
	}

	signature, err := rpcClient.SendTransaction(ctx, tx)
	if err != nil {
		return nil, &SubmissionError{Err: err}
	}

	if err := a.waitFinalized(ctx, rpcClient, signature); err != nil {
		return nil, err
	}

	confirmed, err := rpcClient.GetTransaction(ctx, signature)
	if err != nil {
		return nil, &SubmissionError{Err: err}
	}

	slot := uint64(confirmed.Slot)
	feeLamports := fmt.Sprintf("%d", a.costLamports(confirmed))
	currency := solanaCurrency
	from := a.ownerAddress
	contractID := a.contractID

	return &models.MintTx{
		AssetID:     assetID.String(),
		TxHash:      &signature,
		BlockNumber: &slot,
		GasUsed:     &feeLamports,
		Currency:    &currency,
		FromAddress: &from,
		ContractID:  &contractID,
	}, nil
}

// costLamports prefers the fee payer's balance delta, which includes fees
// plus rent, and falls back to the declared fee.
func (a *SolanaAdapter) costLamports(confirmed *client.Transaction) uint64 {
	if confirmed.Meta == nil {
		return 0
	}
	if len(confirmed.Meta.PreBalances) > 0 && len(confirmed.Meta.PostBalances) > 0 {
		delta := confirmed.Meta.PreBalances[0] - confirmed.Meta.PostBalances[0]
		if delta > 0 {
			return uint64(delta)
		}
	}
	return confirmed.Meta.Fee
}

func (a *SolanaAdapter) waitFinalized(ctx context.Context, rpcClient *client.Client, signature string) error {
	for {
		status, err := rpcClient.GetSignatureStatus(ctx, signature)
		if err != nil {
			return &SubmissionError{Err: err}
		}
		if status != nil {
			if status.Err != nil {
				return &SubmissionError{Err: fmt.Errorf("transaction %s failed: %v", signature, status.Err)}
			}
			if status.ConfirmationStatus != nil && *status.ConfirmationStatus == rpc.CommitmentFinalized {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return &SubmissionError{Err: ctx.Err()}
		case <-time.After(solanaConfirmationPoll):
		}
	}
}

func (a *SolanaAdapter) Get(ctx context.Context, reference string) (*ContentInfo, error) {
	rpcClient := client.NewClient(a.rpcURL)

	confirmed, err := rpcClient.GetTransaction(ctx, reference)
	if err != nil {
		return nil, &SubmissionError{Err: err}
	}
	if confirmed == nil || confirmed.Transaction.Message.Accounts == nil {
		return nil, &SubmissionError{Err: fmt.Errorf("transaction %s not found", reference)}
	}

	message := confirmed.Transaction.Message
	for _, instruction := range message.Instructions {
		if instruction.ProgramIDIndex >= len(message.Accounts) {
			continue
		}
		if message.Accounts[instruction.ProgramIDIndex] != a.programAddress {
			continue
		}

		var payload hashPayload
		if err := json.Unmarshal(instruction.Data, &payload); err != nil {
			continue
		}
		return &ContentInfo{
			HashFile:      payload.Hash,
			HashAlgorithm: payload.HashAlgorithm,
			Token:         &reference,
		}, nil
	}
	return nil, &SubmissionError{Err: fmt.Errorf("transaction %s carries no program instruction", reference)}
}

// CreateKeypair hands out the shared custodial owner address. The wallet
// is never persisted so every user resolves to the same account.
func (a *SolanaAdapter) CreateKeypair(_ context.Context, userID string) (*models.Wallet, bool, error) {
	return &models.Wallet{
		UserID:  userID,
		Address: a.ownerAddress,
	}, false, nil
}

func (a *SolanaAdapter) ownerAccount(ctx context.Context) (types.Account, error) {
	secret, err := a.cipher.Decrypt(ctx, a.ownerSecret, a.masterKeyID)
	if err != nil {
		return types.Account{}, err
	}

	account, err := types.AccountFromBase58(secret)
	if err != nil {
		return types.Account{}, &secrets.MasterKeyError{KeyID: a.masterKeyID, Err: err}
	}
	return account, nil
}
