package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/jerryshell/eptrc/internal/models"
)

// ReconcileService drives the payment session state machine: it expires
// stale sessions and checks pending ones against the chain.
type ReconcileService struct {
	db    *gorm.DB
	chain ChainClient
}

func NewReconcileService(db *gorm.DB, chain ChainClient) *ReconcileService {
	return &ReconcileService{db: db, chain: chain}
}

// Run performs one reconciliation tick: an unbounded expiry sweep followed
// by a chain check of the single least-recently-checked pending session.
func (s *ReconcileService) Run(ctx context.Context) error {
	now := time.Now().UnixMilli()

	s.expirePendingSessions(ctx, now)
	return s.checkPendingSession(ctx, now)
}

// expirePendingSessions transitions every overdue pending session to
// timeout. A failed update on one session does not block the rest.
func (s *ReconcileService) expirePendingSessions(ctx context.Context, now int64) {
	var expired []models.PaymentSession
	err := s.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", models.PaymentSessionStatusPending, now).
		Find(&expired).Error
	if err != nil {
		log.Printf("[Reconcile] expired session query failed: %v", err)
		return
	}

	for _, session := range expired {
		err := s.db.WithContext(ctx).
			Model(&models.PaymentSession{}).
			Where("id = ?", session.ID).
			Update("status", models.PaymentSessionStatusTimeout).Error
		if err != nil {
			log.Printf("[Reconcile] timeout transition failed for session %s: %v", session.ID, err)
			continue
		}

		if err := s.enqueueNotify(ctx, &session, models.NotifyEventSessionTimeout, map[string]any{
			"paymentSessionId": session.ID,
			"metadata":         session.Metadata,
		}); err != nil {
			log.Printf("[Reconcile] timeout notify enqueue failed for session %s: %v", session.ID, err)
		}
	}
}

// checkPendingSession queries the chain for the pending session whose last
// check is oldest (never-checked sessions first). When confirmed incoming
// transfers exist, the first entry of the list is authoritative for the paid
// amount; TronGrid returns transfers newest first and partial transfers are
// deliberately not aggregated.
func (s *ReconcileService) checkPendingSession(ctx context.Context, now int64) error {
	var session models.PaymentSession
	err := s.db.WithContext(ctx).
		Where("status = ? AND expires_at >= ?", models.PaymentSessionStatusPending, now).
		Order("last_checked_at ASC NULLS FIRST").
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("pending session query: %w", err)
	}

	transfers, err := s.chain.Trc20TransferList(ctx, session.Address)
	if err != nil {
		return fmt.Errorf("chain check for session %s: %w", session.ID, err)
	}

	if len(transfers) == 0 {
		return s.db.WithContext(ctx).
			Model(&models.PaymentSession{}).
			Where("id = ?", session.ID).
			Update("last_checked_at", now).Error
	}

	incoming := transfers[0]
	log.Printf("[Reconcile] session %s paid by tx %s", session.ID, incoming.TransactionID)

	err = s.db.WithContext(ctx).
		Model(&models.PaymentSession{}).
		Where("id = ?", session.ID).
		Updates(map[string]any{
			"status":           models.PaymentSessionStatusPaid,
			"amount":           incoming.Value,
			"blockchain_tx_id": incoming.TransactionID,
			"paid_at":          now,
		}).Error
	if err != nil {
		return fmt.Errorf("paid transition for session %s: %w", session.ID, err)
	}

	return s.enqueueNotify(ctx, &session, models.NotifyEventSessionPaid, map[string]any{
		"paymentSessionId": session.ID,
		"metadata":         session.Metadata,
		"amount":           incoming.Value,
	})
}

// enqueueNotify inserts exactly one delivery obligation for a state
// transition. The request body is serialized once and never mutated.
func (s *ReconcileService) enqueueNotify(ctx context.Context, session *models.PaymentSession, event string, data map[string]any) error {
	requestBody, err := json.Marshal(map[string]any{
		"event": event,
		"data":  data,
	})
	if err != nil {
		return err
	}

	notify := models.Notify{
		PaymentSessionID: session.ID.String(),
		NotifyURL:        session.NotifyURL,
		RequestBody:      string(requestBody),
		Status:           models.NotifyStatusPending,
		RetryCount:       0,
		MaxRetryCount:    models.NotifyMaxRetryCount,
	}
	return s.db.WithContext(ctx).Create(&notify).Error
}
