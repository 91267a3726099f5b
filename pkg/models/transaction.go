package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment methods accepted at settlement.
const (
	PaymentMethodCash = "cash"
	PaymentMethodCard = "card"
	PaymentMethodSBP  = "sbp"
)

// TransactionStatusCompleted is the only status settlement writes; a refund
// flow would add more.
const TransactionStatusCompleted = "completed"

// ValidPaymentMethod reports whether m is a supported payment method.
func ValidPaymentMethod(m string) bool {
	return m == PaymentMethodCash || m == PaymentMethodCard || m == PaymentMethodSBP
}

// Transaction is the settlement record for one completed job: the gross
// amount and its split into gateway fee, platform commission, and master
// earnings. Written exactly once, at the completion transition, and immutable
// afterwards.
type Transaction struct {
	ID             uuid.UUID `db:"id"              json:"id"`
	JobID          uuid.UUID `db:"job_id"          json:"job_id"`
	Amount         float64   `db:"amount"          json:"amount"`
	PaymentMethod  string    `db:"payment_method"  json:"payment_method"`
	GatewayFee     float64   `db:"gateway_fee"     json:"gateway_fee"`
	PlatformFee    float64   `db:"platform_fee"    json:"platform_fee"`
	MasterEarnings float64   `db:"master_earnings" json:"master_earnings"`
	Status         string    `db:"status"          json:"status"`
	CreatedAt      time.Time `db:"created_at"      json:"created_at"`
}
