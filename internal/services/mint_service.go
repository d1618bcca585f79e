package services

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/joanmiespada/truly-blockchain/internal/chains"
	"github.com/joanmiespada/truly-blockchain/internal/models"
)

// MintService orchestrates minting a content hash onto a ledger with
// at-most-once semantics per asset.
type MintService interface {
	// TryMint mints the asset's hash unless a previous attempt already
	// succeeded or is still inside its retry window.
	TryMint(ctx context.Context, req TryMintRequest) (*models.MintTx, error)

	// Get reads the minted content back from the chain. Assets without a
	// successful mint return NeverMintedError.
	Get(ctx context.Context, assetID uuid.UUID) (*MintedContent, error)
}

type mintService struct {
	adapter   chains.Adapter
	txService MintTxService
	wallets   WalletService
	validator *validator.Validate
}

func NewMintService(adapter chains.Adapter, txService MintTxService, wallets WalletService) MintService {
	return &mintService{
		adapter:   adapter,
		txService: txService,
		wallets:   wallets,
		validator: validator.New(),
	}
}

// prechecksBeforeMinting decides whether a new attempt may proceed based
// on the asset's recorded transaction state.
func (s *mintService) prechecksBeforeMinting(assetID uuid.UUID) error {
	tx, err := s.txService.GetByAssetID(assetID)
	if err != nil {
		if _, ok := err.(*TxNotFoundError); ok {
			return nil
		}
		return err
	}

	switch tx.Status {
	case models.MintingStatusCompletedSuccessfully:
		return &AlreadyMintedError{AssetID: assetID}
	case models.MintingStatusStarted:
		elapsed := time.Since(tx.UpdatedAt)
		if elapsed < RetryWindow {
			return &MintInProgressError{AssetID: assetID, RetryAfter: RetryWindow - elapsed}
		}
	}
	return nil
}

func (s *mintService) TryMint(ctx context.Context, req TryMintRequest) (*models.MintTx, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	if err := s.prechecksBeforeMinting(req.AssetID); err != nil {
		return nil, err
	}

	wallet, err := s.resolveWallet(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	tx, err := s.markStarted(req.AssetID)
	if err != nil {
		return nil, err
	}

	receipt, addErr := s.adapter.Add(ctx, req.AssetID, wallet, req.Hash, req.HashAlgorithm, req.Price, req.Counter)
	if addErr != nil {
		return s.reconcileFailure(req.AssetID, addErr)
	}
	return s.reconcileSuccess(req.AssetID, tx, receipt)
}

// resolveWallet loads the user's stored wallet, creating one through the
// adapter when none exists. Adapters that hand out a shared custodial key
// ask for the wallet not to be persisted.
func (s *mintService) resolveWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	wallet, err := s.wallets.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if wallet != nil {
		return wallet, nil
	}

	wallet, persist, err := s.adapter.CreateKeypair(ctx, userID)
	if err != nil {
		return nil, err
	}
	if persist {
		if err := s.wallets.Add(wallet); err != nil {
			return nil, err
		}
	}
	return wallet, nil
}

// markStarted transitions the asset's transaction record to Started,
// creating the record on first attempt and clearing any prior error on
// retry. The original CreatedAt survives retries.
func (s *mintService) markStarted(assetID uuid.UUID) (*models.MintTx, error) {
	tx, err := s.txService.GetByAssetID(assetID)
	if err != nil {
		if _, ok := err.(*TxNotFoundError); ok {
			tx = &models.MintTx{
				AssetID: assetID.String(),
				Status:  models.MintingStatusStarted,
			}
			if err := s.txService.Add(tx); err != nil {
				return nil, err
			}
			return tx, nil
		}
		return nil, err
	}

	tx.Status = models.MintingStatusStarted
	tx.TxError = nil
	if err := s.txService.Update(tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// reconcileSuccess folds the confirmed receipt into the freshest stored
// record. Re-reading first keeps fields written by a concurrent attempt.
func (s *mintService) reconcileSuccess(assetID uuid.UUID, tx *models.MintTx, receipt *models.MintTx) (*models.MintTx, error) {
	current, err := s.txService.GetByAssetID(assetID)
	if err != nil {
		current = tx
	}

	mergeReceipt(current, receipt)
	current.Status = models.MintingStatusCompletedSuccessfully
	if err := s.txService.Update(current); err != nil {
		return nil, err
	}
	return current, nil
}

// reconcileFailure records the failure unless a concurrent attempt for
// the same asset completed in the meantime, in which case that success
// wins and the submission error is dropped.
func (s *mintService) reconcileFailure(assetID uuid.UUID, addErr error) (*models.MintTx, error) {
	current, err := s.txService.GetByAssetID(assetID)
	if err != nil {
		return nil, addErr
	}

	if current.Status == models.MintingStatusCompletedSuccessfully {
		return current, nil
	}

	detail := addErr.Error()
	current.Status = models.MintingStatusError
	current.TxError = &detail
	if err := s.txService.Update(current); err != nil {
		return nil, err
	}
	return nil, addErr
}

func (s *mintService) Get(ctx context.Context, assetID uuid.UUID) (*MintedContent, error) {
	tx, err := s.txService.GetByAssetID(assetID)
	if err != nil {
		if _, ok := err.(*TxNotFoundError); ok {
			return nil, &NeverMintedError{AssetID: assetID}
		}
		return nil, err
	}
	if tx.Status != models.MintingStatusCompletedSuccessfully || tx.TxHash == nil {
		return nil, &NeverMintedError{AssetID: assetID}
	}

	info, err := s.adapter.Get(ctx, *tx.TxHash)
	if err != nil {
		return nil, err
	}

	state := models.ContentStateActive
	if info.State != nil {
		state = *info.State
	}
	return &MintedContent{
		HashFile:      info.HashFile,
		HashAlgorithm: info.HashAlgorithm,
		URI:           info.URI,
		Price:         info.Price,
		State:         state,
	}, nil
}

// mergeReceipt copies every populated receipt field over the stored
// record and clears any stale error.
func mergeReceipt(tx *models.MintTx, receipt *models.MintTx) {
	if receipt == nil {
		return
	}
	if receipt.TxHash != nil {
		tx.TxHash = receipt.TxHash
	}
	if receipt.BlockNumber != nil {
		tx.BlockNumber = receipt.BlockNumber
	}
	if receipt.GasUsed != nil {
		tx.GasUsed = receipt.GasUsed
	}
	if receipt.EffectiveGasPrice != nil {
		tx.EffectiveGasPrice = receipt.EffectiveGasPrice
	}
	if receipt.Cost != nil {
		tx.Cost = receipt.Cost
	}
	if receipt.Currency != nil {
		tx.Currency = receipt.Currency
	}
	if receipt.FromAddress != nil {
		tx.FromAddress = receipt.FromAddress
	}
	if receipt.ToAddress != nil {
		tx.ToAddress = receipt.ToAddress
	}
	if receipt.ContractID != nil {
		tx.ContractID = receipt.ContractID
	}
	tx.TxError = nil
}
