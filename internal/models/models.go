package models

import (
	"time"
)

// MintTx is the per-asset minting record. There is at most one row per
// asset id; re-mint attempts overwrite the same row. The receipt columns
// are nullable because different ledgers report different subsets.
type MintTx struct {
	AssetID           string        `gorm:"primaryKey;type:varchar(36)" json:"asset_id"`
	Status            MintingStatus `gorm:"not null" json:"status"`
	TxHash            *string       `gorm:"index" json:"tx_hash,omitempty"`
	BlockNumber       *uint64       `json:"block_number,omitempty"`
	GasUsed           *string       `json:"gas_used,omitempty"`
	EffectiveGasPrice *string       `json:"effective_gas_price,omitempty"`
	Cost              *float64      `json:"cost,omitempty"`
	Currency          *string       `json:"currency,omitempty"`
	FromAddress       *string       `json:"from_address,omitempty"`
	ToAddress         *string       `json:"to_address,omitempty"`
	ContractID        *uint         `json:"contract_id,omitempty"`
	TxError           *string       `gorm:"type:text" json:"tx_error,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// Wallet holds one ledger keypair per user. PublicKey and PrivateKey are
// always ciphertext; plaintext key material never touches the database.
type Wallet struct {
	UserID     string    `gorm:"primaryKey;type:varchar(100)" json:"user_id"`
	Address    string    `gorm:"not null" json:"address"`
	PublicKey  string    `gorm:"type:text" json:"-"`
	PrivateKey string    `gorm:"type:text" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Chain represents one supported ledger and how to reach it.
type Chain struct {
	ID             string    `gorm:"primaryKey" json:"id"`
	ChainType      ChainType `gorm:"not null" json:"chain_type"` // evm, solana
	RPC            string    `gorm:"not null" json:"rpc"`
	APIKey         string    `json:"-"`
	Confirmations  uint16    `gorm:"default:1" json:"confirmations"`
	Explorer       string    `json:"explorer"`
	ExplorerAPIKey string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Endpoint returns the RPC URL to dial. Keyed providers append the API key
// as a path segment; local nodes leave APIKey empty.
func (c *Chain) Endpoint() string {
	if c.APIKey == "" {
		return c.RPC
	}
	return c.RPC + "/" + c.APIKey
}

// Contract is a deployed minting program bound to one chain. OwnerSecret is
// the program owner's signing key, stored encrypted. OwnerCash is the
// funding handle on ledgers that pay gas from a separate object.
type Contract struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	ChainID      string         `gorm:"not null;index" json:"chain_id"`
	Address      *string        `json:"address,omitempty"`
	OwnerAddress *string        `json:"owner_address,omitempty"`
	OwnerSecret  *string        `gorm:"type:text" json:"-"`
	OwnerCash    *string        `json:"owner_cash,omitempty"`
	Details      *string        `json:"details,omitempty"`
	Status       ContractStatus `gorm:"default:Disabled" json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`

	Chain Chain `gorm:"foreignKey:ChainID;references:ID" json:"chain,omitempty"`
}
