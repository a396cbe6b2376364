package models

import (
	"time"

	"github.com/google/uuid"
)

// InstructorBankAccount is the single payout destination for an instructor.
// IsVerified is set only when the gateway-resolved account name matched the
// instructor's registered name on the most recent verification call.
type InstructorBankAccount struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	InstructorID uuid.UUID `gorm:"type:uuid;not null;unique" json:"instructor_id"`

	AccountNumber string `gorm:"size:20;not null" json:"account_number"`
	BankCode      string `gorm:"size:20;not null" json:"bank_code"`
	BankName      string `gorm:"size:100" json:"bank_name"`

	IsVerified           bool    `gorm:"default:false" json:"is_verified"`
	VerifiedAccountName  *string `gorm:"size:255" json:"verified_account_name"`
	VerificationProvider *string `gorm:"size:50" json:"verification_provider"`

	VerificationAttempts int        `gorm:"default:0" json:"verification_attempts"`
	LastAttemptAt        *time.Time `json:"last_attempt_at"`
	VerificationError    *string    `gorm:"type:text" json:"verification_error"`

	AutoPayoutEnabled bool `gorm:"default:false" json:"auto_payout_enabled"`

	Instructor User `gorm:"foreignkey:InstructorID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
