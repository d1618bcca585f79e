package services

import (
	"github.com/google/uuid"
	"github.com/joanmiespada/truly-blockchain/internal/models"
)

// TryMintRequest carries everything needed to mint one asset's content
// hash. Counter is informational only and never participates in the
// at-most-once decision.
type TryMintRequest struct {
	AssetID       uuid.UUID `validate:"required"`
	UserID        string    `validate:"required,max=100"`
	Price         *uint64
	Hash          string `validate:"required"`
	HashAlgorithm string `validate:"required"`
	Counter       uint64
}

// MintedContent is the on-chain view returned by Get, read back from the
// ledger rather than from local state.
type MintedContent struct {
	HashFile      string              `json:"hash_file"`
	HashAlgorithm string              `json:"hash_algorithm"`
	URI           *string             `json:"uri,omitempty"`
	Price         *uint64             `json:"price,omitempty"`
	State         models.ContentState `json:"state"`
}
