package services

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/jerryshell/eptrc/internal/models"
	"github.com/jerryshell/eptrc/internal/tron"
)

// Collection result statuses.
const (
	CollectionStatusCollected = "collected"
	CollectionStatusNoBalance = "no.balance"
	CollectionStatusError     = "error"
)

// collectionErrorCode is the per-wallet failure reason in sweep results.
const collectionErrorCode = "collection.failed"

// CollectionResult reports the sweep outcome for one deposit wallet.
type CollectionResult struct {
	Address string `json:"address"`
	Status  string `json:"status"`
	Amount  string `json:"amount,omitempty"`
	TxID    string `json:"txId,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CollectionService sweeps collected funds from deposit wallets to a
// treasury address.
type CollectionService struct {
	db    *gorm.DB
	chain ChainClient
}

func NewCollectionService(db *gorm.DB, chain ChainClient) *CollectionService {
	return &CollectionService{db: db, chain: chain}
}

type collectibleWalletSession struct {
	SessionID  string
	Address    string
	PrivateKey string
}

// Collect sweeps every paid, uncollected session's wallet to toAddress,
// sponsoring fees from the given fee payer. Failures are caught per wallet;
// there is no global transaction and partial success is expected.
func (s *CollectionService) Collect(ctx context.Context, toAddress, feePayerPrivateKey string) ([]CollectionResult, error) {
	var rows []collectibleWalletSession
	err := s.db.WithContext(ctx).
		Table("payment_session").
		Select("payment_session.id AS session_id, wallet.address AS address, wallet.private_key AS private_key").
		Joins("INNER JOIN wallet ON wallet.address = payment_session.address").
		Where("payment_session.status = ? AND (payment_session.collected = ? OR payment_session.collected IS NULL)",
			models.PaymentSessionStatusPaid, false).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	results := make([]CollectionResult, 0, len(rows))

	for _, row := range rows {
		result := CollectionResult{
			Address: row.Address,
			Status:  CollectionStatusNoBalance,
		}

		balance, err := s.chain.Trc20Balance(ctx, row.Address)
		if err != nil {
			log.Printf("[Collection] balance query failed for wallet %s: %v", row.Address, err)
			result.Status = CollectionStatusError
			result.Error = collectionErrorCode
			results = append(results, result)
			continue
		}

		if balance.IsZero() {
			results = append(results, result)
			continue
		}

		amount := balance.String()
		txID, err := s.chain.SendTrc20(ctx, tron.SponsoredTransferParams{
			PrivateKey:         row.PrivateKey,
			FeePayerPrivateKey: feePayerPrivateKey,
			ToAddress:          toAddress,
			Amount:             amount,
		})
		if err != nil {
			log.Printf("[Collection] transfer failed for wallet %s: %v", row.Address, err)
			result.Status = CollectionStatusError
			result.Error = collectionErrorCode
			results = append(results, result)
			continue
		}

		err = s.db.WithContext(ctx).
			Model(&models.PaymentSession{}).
			Where("id = ?", row.SessionID).
			Updates(map[string]any{
				"collected":    true,
				"collected_at": time.Now().UnixMilli(),
			}).Error
		if err != nil {
			log.Printf("[Collection] collected flag update failed for session %s: %v", row.SessionID, err)
			result.Status = CollectionStatusError
			result.Error = collectionErrorCode
			results = append(results, result)
			continue
		}

		result.Status = CollectionStatusCollected
		result.Amount = amount
		result.TxID = txID
		results = append(results, result)
	}

	return results, nil
}
