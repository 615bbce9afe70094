package services

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/jerryshell/eptrc/internal/config"
	"github.com/jerryshell/eptrc/internal/models"
)

// notifyRetryBackoff is the linear backoff unit between delivery attempts:
// attempt n+1 becomes due at lastRetryAt + n * 5s. No cap, no jitter.
const notifyRetryBackoff = 5000 * time.Millisecond

// NotifyService delivers pending webhook records with at-least-once
// semantics. Receivers must deduplicate, since retries resend the identical
// original body.
type NotifyService struct {
	db         *gorm.DB
	httpc      *http.Client
	webhookKey string
}

func NewNotifyService(db *gorm.DB, webhookKey string) *NotifyService {
	return &NotifyService{
		db:         db,
		httpc:      &http.Client{Timeout: 10 * time.Second},
		webhookKey: webhookKey,
	}
}

// Run performs one delivery tick over every due pending record.
func (s *NotifyService) Run(ctx context.Context) error {
	now := time.Now().UnixMilli()

	var pending []models.Notify
	err := s.db.WithContext(ctx).
		Where("status = ?", models.NotifyStatusPending).
		Find(&pending).Error
	if err != nil {
		return err
	}

	for _, notify := range pending {
		if !isDueForRetry(&notify, now) {
			continue
		}

		status, err := s.send(ctx, &notify)
		if err == nil && status == http.StatusOK {
			err = s.db.WithContext(ctx).
				Model(&models.Notify{}).
				Where("id = ?", notify.ID).
				Updates(map[string]any{
					"status":        models.NotifyStatusSuccess,
					"last_retry_at": time.Now().UnixMilli(),
				}).Error
			if err != nil {
				log.Printf("[Notify] success update failed for notify %s: %v", notify.ID, err)
			}
			continue
		}

		if err != nil {
			log.Printf("[Notify] delivery failed for notify %s: %v", notify.ID, err)
		} else {
			log.Printf("[Notify] delivery of notify %s got status %d", notify.ID, status)
		}

		if err := s.markRetried(ctx, &notify); err != nil {
			log.Printf("[Notify] retry update failed for notify %s: %v", notify.ID, err)
		}
	}

	return nil
}

// send posts the frozen request body to the notify URL.
func (s *NotifyService) send(ctx context.Context, notify *models.Notify) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, notify.NotifyURL, strings.NewReader(notify.RequestBody))
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", "EPTRC/"+config.Version)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", s.webhookKey)

	resp, err := s.httpc.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	return resp.StatusCode, nil
}

// markRetried bumps the retry counter, moving the record to its terminal
// error state once the budget is exhausted.
func (s *NotifyService) markRetried(ctx context.Context, notify *models.Notify) error {
	newRetryCount := notify.RetryCount + 1
	newStatus := models.NotifyStatusPending
	if newRetryCount >= notify.MaxRetryCount {
		newStatus = models.NotifyStatusError
	}

	return s.db.WithContext(ctx).
		Model(&models.Notify{}).
		Where("id = ?", notify.ID).
		Updates(map[string]any{
			"retry_count":   newRetryCount,
			"status":        newStatus,
			"last_retry_at": time.Now().UnixMilli(),
		}).Error
}

// isDueForRetry reports whether a pending record's backoff window has
// elapsed. First attempts are always due.
func isDueForRetry(notify *models.Notify, now int64) bool {
	if notify.RetryCount == 0 {
		return true
	}

	if notify.LastRetryAt == nil {
		return true
	}

	backoff := int64(notifyRetryBackoff/time.Millisecond) * int64(notify.RetryCount)
	return *notify.LastRetryAt+backoff < now
}
