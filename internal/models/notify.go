package models

// Notify delivery states.
const (
	NotifyStatusPending = "pending"
	NotifyStatusSuccess = "success"
	NotifyStatusError   = "error"
)

// Webhook event names.
const (
	NotifyEventSessionTimeout = "payment.session.timeout"
	NotifyEventSessionPaid    = "payment.session.paid"
)

// NotifyMaxRetryCount bounds delivery attempts for a single record.
const NotifyMaxRetryCount = 10

// Notify is one outbound webhook delivery obligation. RequestBody is frozen
// at insert so retries replay the identical payload.
type Notify struct {
	BaseModel
	PaymentSessionID string  `gorm:"column:payment_session_id;index" json:"paymentSessionId"`
	NotifyURL        string  `gorm:"column:notify_url" json:"notifyUrl"`
	RequestPath      *string `gorm:"column:request_path" json:"requestPath"`
	RequestBody      string  `gorm:"column:request_body" json:"requestBody"`
	Status           string  `gorm:"index" json:"status"`
	RetryCount       int     `gorm:"default:0" json:"retryCount"`
	MaxRetryCount    int     `gorm:"default:10" json:"maxRetryCount"`
	LastRetryAt      *int64  `json:"lastRetryAt"`
}

func (Notify) TableName() string {
	return "notify"
}
