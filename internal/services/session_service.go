package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jerryshell/eptrc/internal/models"
	"github.com/jerryshell/eptrc/internal/tron"
)

// Session creation and lookup failure codes.
var (
	ErrWalletCreateFailed  = errors.New("wallet.create.failed")
	ErrSessionCreateFailed = errors.New("payment.session.create.failed")
	ErrSessionNotFound     = errors.New("payment.session.not.found")
)

// SessionService owns payment session creation and lookup.
type SessionService struct {
	db      *gorm.DB
	expires time.Duration
}

func NewSessionService(db *gorm.DB, expires time.Duration) *SessionService {
	return &SessionService{db: db, expires: expires}
}

// Create allocates a deposit wallet and inserts a pending session for it.
// The wallet insert and the session insert must both succeed for the session
// to be returned; a wallet orphaned by a failed session insert is never
// exposed to the caller.
func (s *SessionService) Create(ctx context.Context, metadata *string, notifyURL string) (*models.PaymentSession, error) {
	account, err := tron.NewAccount()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWalletCreateFailed, err)
	}

	wallet := models.Wallet{
		PublicKey:  account.PublicKey,
		PrivateKey: account.PrivateKey,
		Address:    account.Address,
	}
	if err := s.db.WithContext(ctx).Create(&wallet).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWalletCreateFailed, err)
	}

	session := models.PaymentSession{
		Metadata:  metadata,
		NotifyURL: notifyURL,
		Address:   wallet.Address,
		Status:    models.PaymentSessionStatusPending,
		ExpiresAt: time.Now().Add(s.expires).UnixMilli(),
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionCreateFailed, err)
	}

	return &session, nil
}

// Detail returns the full session record by id.
func (s *SessionService) Detail(ctx context.Context, paymentSessionID string) (*models.PaymentSession, error) {
	id, err := uuid.Parse(paymentSessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	var session models.PaymentSession
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	return &session, nil
}
