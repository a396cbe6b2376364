package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PayoutStatus string

const (
	PayoutStatusPending    PayoutStatus = "pending"
	PayoutStatusProcessing PayoutStatus = "processing"
	PayoutStatusCompleted  PayoutStatus = "completed"
	PayoutStatusFailed     PayoutStatus = "failed"
)

// InstructorPayout is one disbursement batch of accumulated instructor
// earnings for a period. Periods never overlap for the same instructor;
// the unique index backs the idempotency of monthly batch creation.
type InstructorPayout struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	InstructorID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:ux_instructor_period,priority:1" json:"instructor_id"`

	PeriodStart time.Time `gorm:"not null;uniqueIndex:ux_instructor_period,priority:2" json:"period_start"`
	PeriodEnd   time.Time `gorm:"not null;uniqueIndex:ux_instructor_period,priority:3" json:"period_end"`

	GrossRevenue decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"gross_revenue"`
	PlatformFee  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"platform_fee"`
	NetPayout    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"net_payout"`
	Currency     string          `gorm:"size:3;not null" json:"currency"`

	// Share rate in force when the batch was created. Recorded so the payout
	// remains explainable after the policy changes.
	ShareRate decimal.Decimal `gorm:"type:numeric(5,4);not null" json:"share_rate"`

	TransactionCount int          `gorm:"not null;default:0" json:"transaction_count"`
	Status           PayoutStatus `gorm:"size:20;not null;default:'pending'" json:"status"`

	// Idempotency key handed to the gateway on transfer initiation, so an
	// ambiguous timeout can be reconciled instead of re-sent.
	TransferReference *string `gorm:"size:100;unique" json:"transfer_reference"`
	GatewayTransferID *string `gorm:"size:255" json:"gateway_transfer_id"`
	FailureReason     *string `gorm:"type:text" json:"failure_reason"`

	// Destination snapshot taken at disbursement time.
	DestinationBank          *string `gorm:"size:20" json:"destination_bank"`
	DestinationAccountNumber *string `gorm:"size:20" json:"destination_account_number"`
	DestinationAccountName   *string `gorm:"size:255" json:"destination_account_name"`

	ProcessedAt *time.Time `json:"processed_at"`

	Instructor User `gorm:"foreignkey:InstructorID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *InstructorPayout) NetMoney() Money {
	return Money{Amount: p.NetPayout, Currency: p.Currency}
}
