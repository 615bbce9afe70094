package models

// Payment session lifecycle states. pending transitions to paid or timeout;
// both are terminal. Collection is tracked by the Collected flag, not a state.
const (
	PaymentSessionStatusPending = "pending"
	PaymentSessionStatusPaid    = "paid"
	PaymentSessionStatusTimeout = "timeout"
)

// PaymentSession stores one deposit request and its reconciliation state.
// Domain timestamps are unix milliseconds.
type PaymentSession struct {
	BaseModel
	Metadata       *string `json:"metadata"`
	Amount         *string `json:"amount"`
	NotifyURL      string  `gorm:"column:notify_url" json:"notifyUrl"`
	Address        string  `gorm:"uniqueIndex" json:"address"`
	Status         string  `gorm:"index" json:"status"`
	Collected      bool    `gorm:"default:false" json:"collected"`
	BlockchainTxID *string `gorm:"column:blockchain_tx_id" json:"blockchainTxId"`
	PaidAt         *int64  `json:"paidAt"`
	ExpiresAt      int64   `json:"expiresAt"`
	LastCheckedAt  *int64  `json:"lastCheckedAt"`
	CollectedAt    *int64  `json:"collectedAt"`
}

func (PaymentSession) TableName() string {
	return "payment_session"
}
