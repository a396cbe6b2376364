package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// Terminal reports whether the status may never change again. Replayed
// gateway events against a terminal payment are no-ops.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodOther        PaymentMethod = "other"
)

// Payment is one attempted charge for a course enrollment or a standalone
// registration fee. Reference is caller-generated and doubles as the
// idempotency key for initialization and webhook processing.
type Payment struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Reference string    `gorm:"size:100;not null;unique" json:"reference"`

	Amount   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Currency string          `gorm:"size:3;not null" json:"currency"`

	Gateway string        `gorm:"size:50;not null" json:"gateway"`
	Method  PaymentMethod `gorm:"size:20;not null;default:'card'" json:"method"`
	Status  PaymentStatus `gorm:"size:20;not null;default:'pending'" json:"status"`

	// Set once the gateway acknowledges the charge; locks the reference to
	// that single gateway attempt.
	ChargeHandle *string `gorm:"size:255" json:"-"`
	GatewayTxnID *string `gorm:"size:255" json:"gateway_txn_id"`

	UserID   *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	CourseID *uuid.UUID `gorm:"type:uuid;index" json:"course_id"`

	GatewayFee  decimal.Decimal `gorm:"type:numeric(12,2);default:0" json:"gateway_fee"`
	PlatformFee decimal.Decimal `gorm:"type:numeric(12,2);default:0" json:"platform_fee"`

	InitiatedAt   time.Time  `gorm:"not null" json:"initiated_at"`
	PaidAt        *time.Time `json:"paid_at"`
	FailedAt      *time.Time `json:"failed_at"`
	FailureReason *string    `gorm:"type:text" json:"failure_reason"`

	User   *User   `gorm:"foreignkey:UserID" json:"-"`
	Course *Course `gorm:"foreignkey:CourseID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Payment) Money() Money {
	return Money{Amount: p.Amount, Currency: p.Currency}
}
