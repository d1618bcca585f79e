package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RetryWindow is the minimum age a Started mint must reach before a new
// attempt is allowed for the same asset.
const RetryWindow = 5 * time.Minute

// AlreadyMintedError rejects a mint attempt for an asset whose record is
// already terminal. No state is mutated.
type AlreadyMintedError struct {
	AssetID uuid.UUID
}

func (e *AlreadyMintedError) Error() string {
	return fmt.Sprintf("asset %s has been minted already, it can't be minted twice", e.AssetID)
}

// MintInProgressError rejects a mint attempt while a prior attempt for the
// same asset is plausibly still in flight. RetryAfter tells the caller how
// long to wait before the retry window reopens.
type MintInProgressError struct {
	AssetID    uuid.UUID
	RetryAfter time.Duration
}

func (e *MintInProgressError) Error() string {
	return fmt.Sprintf("minting of asset %s has already been initiated, retry in %s", e.AssetID, e.RetryAfter)
}

// TxNotFoundError reports a missing mint record for an asset id.
type TxNotFoundError struct {
	AssetID uuid.UUID
}

func (e *TxNotFoundError) Error() string {
	return fmt.Sprintf("no mint transaction found for asset %s", e.AssetID)
}

// TxHashNotFoundError reports a missing mint record for a chain tx reference.
type TxHashNotFoundError struct {
	TxHash string
}

func (e *TxHashNotFoundError) Error() string {
	return fmt.Sprintf("no mint transaction found for tx %s", e.TxHash)
}

// AmbiguousTxHashError reports a tx reference matching more than one record.
// Duplicate hashes are a data corruption signal and must fail loudly.
type AmbiguousTxHashError struct {
	TxHash string
	Count  int64
}

func (e *AmbiguousTxHashError) Error() string {
	return fmt.Sprintf("tx %s is ambiguous, %d records match", e.TxHash, e.Count)
}

// NeverMintedError rejects a content lookup for an asset that has never
// completed minting.
type NeverMintedError struct {
	AssetID uuid.UUID
}

func (e *NeverMintedError) Error() string {
	return fmt.Sprintf("asset %s has never been minted successfully", e.AssetID)
}
