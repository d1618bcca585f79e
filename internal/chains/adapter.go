package chains

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/joanmiespada/truly-blockchain/internal/models"
)

// Adapter is the per-ledger capability set. The orchestrator drives every
// supported ledger through this interface and never branches on the
// concrete variant.
type Adapter interface {
	// ContractID identifies the configuration row this adapter is bound to.
	ContractID() uint

	// Add records (hash, hashAlgorithm, assetID) against the deployed
	// program, signed by the program owner, and waits for the ledger's
	// configured confirmation depth. price may be nil on ledgers with no
	// native pricing concept.
	Add(ctx context.Context, assetID uuid.UUID, wallet *models.Wallet, hashFile, hashAlgorithm string, price *uint64, counter uint64) (*models.MintTx, error)

	// Get reads back stored content by the ledger-native reference.
	Get(ctx context.Context, reference string) (*ContentInfo, error)

	// CreateKeypair generates a ledger-native keypair for the user. The
	// second return value tells the caller whether the wallet should be
	// persisted; shared custodial keys return false.
	CreateKeypair(ctx context.Context, userID string) (*models.Wallet, bool, error)
}

// ContentInfo is the on-chain view of a minted content record.
type ContentInfo struct {
	HashFile      string               `json:"hash_file"`
	HashAlgorithm string               `json:"hash_algorithm"`
	URI           *string              `json:"uri,omitempty"`
	Price         *uint64              `json:"price,omitempty"`
	State         *models.ContentState `json:"state,omitempty"`
	Token         *string              `json:"token,omitempty"`
}

// SubmissionError covers signing, gas estimation, RPC and confirmation
// failures on the way to a confirmed transaction.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("chain submission failed: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// AddressMalformedError rejects a user wallet address the ledger cannot
// parse, before any state mutation or chain call.
type AddressMalformedError struct {
	Address string
}

func (e *AddressMalformedError) Error() string {
	return fmt.Sprintf("user wallet address incorrect: %s", e.Address)
}
