package services

import (
	"errors"

	"github.com/google/uuid"
	"github.com/joanmiespada/truly-blockchain/internal/models"
	"gorm.io/gorm"
)

// MintTxService persists the per-asset minting records. All writes are
// durable before the call returns.
type MintTxService interface {
	Add(tx *models.MintTx) error
	Update(tx *models.MintTx) error
	GetByAssetID(assetID uuid.UUID) (*models.MintTx, error)
	GetByTxHash(txHash string) (*models.MintTx, error)
	SetStatus(assetID uuid.UUID, status models.MintingStatus) error
}

type mintTxService struct {
	db *gorm.DB
}

// NewMintTxService creates a new MintTxService
func NewMintTxService(db *gorm.DB) MintTxService {
	return &mintTxService{db: db}
}

// Add upserts a mint record keyed by asset id. An existing row is fully
// overwritten; callers that want a partial update must read-modify-write.
func (s *mintTxService) Add(tx *models.MintTx) error {
	return s.db.Save(tx).Error
}

// Update is an alias of Add; both are idempotent upserts by asset id.
func (s *mintTxService) Update(tx *models.MintTx) error {
	return s.db.Save(tx).Error
}

// GetByAssetID returns the mint record for an asset id
func (s *mintTxService) GetByAssetID(assetID uuid.UUID) (*models.MintTx, error) {
	var tx models.MintTx
	err := s.db.Where("asset_id = ?", assetID.String()).First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &TxNotFoundError{AssetID: assetID}
		}
		return nil, err
	}
	return &tx, nil
}

// GetByTxHash resolves a mint record through its chain tx reference. More
// than one match means the secondary index is corrupt and fails loudly.
func (s *mintTxService) GetByTxHash(txHash string) (*models.MintTx, error) {
	var count int64
	if err := s.db.Model(&models.MintTx{}).Where("tx_hash = ?", txHash).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 1 {
		return nil, &AmbiguousTxHashError{TxHash: txHash, Count: count}
	}

	var tx models.MintTx
	err := s.db.Where("tx_hash = ?", txHash).First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &TxHashNotFoundError{TxHash: txHash}
		}
		return nil, err
	}
	return &tx, nil
}

// SetStatus updates the status of an existing mint record
func (s *mintTxService) SetStatus(assetID uuid.UUID, status models.MintingStatus) error {
	tx, err := s.GetByAssetID(assetID)
	if err != nil {
		return err
	}
	tx.Status = status
	return s.db.Save(tx).Error
}
