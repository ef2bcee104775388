package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
)

type PaymentMethod string

const (
	MethodCreditCard   PaymentMethod = "credit_card"
	MethodDebitCard    PaymentMethod = "debit_card"
	MethodPayPal       PaymentMethod = "paypal"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodWallet       PaymentMethod = "wallet"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCreditCard, MethodDebitCard, MethodPayPal, MethodBankTransfer, MethodWallet:
		return true
	}
	return false
}

// Payment is one-to-one with its booking; booking_id carries a unique index
// so two racing attempts can never insert two rows.
type Payment struct {
	bun.BaseModel `bun:"table:payments"`

	PaymentID     string          `bun:"payment_id,pk" json:"payment_id"`
	BookingID     string          `bun:"booking_id,notnull,unique" json:"booking_id"`
	Amount        decimal.Decimal `bun:"amount,notnull,type:decimal(10,2)" json:"amount"`
	Method        PaymentMethod   `bun:"payment_method,notnull" json:"payment_method"`
	Status        PaymentStatus   `bun:"payment_status,notnull,default:'pending'" json:"payment_status"`
	TransactionID string          `bun:"transaction_id,nullzero" json:"transaction_id,omitempty"`
	Gateway       string          `bun:"payment_gateway,nullzero" json:"payment_gateway,omitempty"`
	RefundAmount  decimal.Decimal `bun:"refund_amount,type:decimal(10,2)" json:"refund_amount"`
	RefundReason  string          `bun:"refund_reason,nullzero" json:"refund_reason,omitempty"`
	CreatedAt     time.Time       `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time       `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}

type PaymentHistory struct {
	bun.BaseModel `bun:"table:payment_history"`

	ID           int64     `bun:"id,pk,autoincrement" json:"id"`
	PaymentID    string    `bun:"payment_id,notnull" json:"payment_id"`
	StatusChange string    `bun:"status_change,notnull" json:"status_change"`
	ChangedBy    string    `bun:"changed_by,nullzero" json:"changed_by,omitempty"`
	ChangeReason string    `bun:"change_reason,nullzero" json:"change_reason,omitempty"`
	Timestamp    time.Time `bun:"timestamp,notnull,default:current_timestamp" json:"timestamp"`
}

type PaymentRequest struct {
	Method PaymentMethod `json:"payment_method"`
}

type RefundRequest struct {
	Reason string `json:"reason"`
}

type PaymentResponse struct {
	PaymentID     string        `json:"payment_id"`
	BookingID     string        `json:"booking_id"`
	Amount        string        `json:"amount"`
	Method        PaymentMethod `json:"payment_method"`
	Status        PaymentStatus `json:"payment_status"`
	TransactionID string        `json:"transaction_id,omitempty"`
}

type PaymentEvent struct {
	Type      string    `json:"type"`
	PaymentID string    `json:"payment_id"`
	BookingID string    `json:"booking_id"`
	Payment   *Payment  `json:"payment,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
