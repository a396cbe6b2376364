package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayoutRatePolicy is the versioned revenue-split rate. The rate in force
// at calculation time is the newest policy whose EffectiveFrom is not in
// the future; changing the rate only affects periods calculated afterwards.
type PayoutRatePolicy struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	InstructorShare decimal.Decimal `gorm:"type:numeric(5,4);not null" json:"instructor_share"`
	EffectiveFrom   time.Time       `gorm:"not null;index" json:"effective_from"`
	Note            *string         `gorm:"size:255" json:"note"`

	CreatedAt time.Time `json:"created_at"`
}
