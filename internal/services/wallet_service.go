package services

import (
	"errors"

	"github.com/joanmiespada/truly-blockchain/internal/models"
	"gorm.io/gorm"
)

// WalletService persists one encrypted keypair per user.
type WalletService interface {
	// GetByUserID returns the user's wallet, or nil when none is stored.
	GetByUserID(userID string) (*models.Wallet, error)
	Add(wallet *models.Wallet) error
}

type walletService struct {
	db *gorm.DB
}

// NewWalletService creates a new WalletService
func NewWalletService(db *gorm.DB) WalletService {
	return &walletService{db: db}
}

func (s *walletService) GetByUserID(userID string) (*models.Wallet, error) {
	var wallet models.Wallet
	err := s.db.Where("user_id = ?", userID).First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &wallet, nil
}

// Add stores a wallet. Key material must already be encrypted by the
// caller; this layer never sees plaintext secrets.
func (s *walletService) Add(wallet *models.Wallet) error {
	return s.db.Create(wallet).Error
}
