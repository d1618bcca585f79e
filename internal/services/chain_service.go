package services

import (
	"errors"
	"fmt"

	"github.com/joanmiespada/truly-blockchain/internal/models"
	"gorm.io/gorm"
)

// ChainService reads the ledger and contract configuration. Chains and
// contracts are provisioned out of band; this layer only resolves them.
type ChainService interface {
	CreateChain(chain *models.Chain) error
	GetChain(id string) (*models.Chain, error)
	ListChains() ([]models.Chain, error)
	CreateContract(contract *models.Contract) error
	GetContractByID(id uint) (*models.Contract, error)
	// GetEnabledContract returns the single Enabled contract for a chain.
	// More than one Enabled contract per chain is a configuration error.
	GetEnabledContract(chainID string) (*models.Contract, error)
}

type chainService struct {
	db *gorm.DB
}

// NewChainService creates a new ChainService
func NewChainService(db *gorm.DB) ChainService {
	return &chainService{db: db}
}

// CreateChain creates a new chain
func (s *chainService) CreateChain(chain *models.Chain) error {
	return s.db.Create(chain).Error
}

// GetChain returns a chain by its id
func (s *chainService) GetChain(id string) (*models.Chain, error) {
	var chain models.Chain
	err := s.db.Where("id = ?", id).First(&chain).Error
	if err != nil {
		return nil, err
	}
	return &chain, nil
}

// ListChains returns all chains
func (s *chainService) ListChains() ([]models.Chain, error) {
	var chains []models.Chain
	err := s.db.Find(&chains).Error
	return chains, err
}

// CreateContract creates a new contract
func (s *chainService) CreateContract(contract *models.Contract) error {
	return s.db.Create(contract).Error
}

// GetContractByID returns a contract with its chain preloaded
func (s *chainService) GetContractByID(id uint) (*models.Contract, error) {
	var contract models.Contract
	err := s.db.Preload("Chain").First(&contract, id).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (s *chainService) GetEnabledContract(chainID string) (*models.Contract, error) {
	var contracts []models.Contract
	err := s.db.Preload("Chain").
		Where("chain_id = ? AND status = ?", chainID, models.ContractStatusEnabled).
		Find(&contracts).Error
	if err != nil {
		return nil, err
	}
	if len(contracts) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	if len(contracts) > 1 {
		return nil, fmt.Errorf("chain %s has %d enabled contracts, expected exactly one", chainID, len(contracts))
	}
	return &contracts[0], nil
}

// IsNotFound reports whether err is the storage layer's missing-record error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
