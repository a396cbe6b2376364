package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentGateway holds per-provider credentials and capability flags. Rows
// are seeded at migration from the environment and loaded once at startup;
// they are configuration, not transactional state.
type PaymentGateway struct {
	ID   uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name string    `gorm:"size:50;not null;unique" json:"name"`

	IsActive  bool `gorm:"default:true" json:"is_active"`
	IsDefault bool `gorm:"default:false" json:"is_default"`

	PublicKey     string `gorm:"size:255" json:"-"`
	SecretKey     string `gorm:"size:255" json:"-"`
	WebhookSecret string `gorm:"size:255" json:"-"`

	// Comma-separated ISO codes, e.g. "NGN,GHS".
	SupportedCurrencies string `gorm:"size:100" json:"supported_currencies"`

	FeePercent decimal.Decimal `gorm:"type:numeric(5,4);default:0" json:"fee_percent"`
	FeeCap     decimal.Decimal `gorm:"type:numeric(12,2);default:0" json:"fee_cap"`

	SupportsTransfers bool            `gorm:"default:false" json:"supports_transfers"`
	MinTransferAmount decimal.Decimal `gorm:"type:numeric(12,2);default:0" json:"min_transfer_amount"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (g *PaymentGateway) SupportsCurrency(code string) bool {
	for _, c := range strings.Split(g.SupportedCurrencies, ",") {
		if strings.EqualFold(strings.TrimSpace(c), code) {
			return true
		}
	}
	return false
}

// TransactionFee computes the gateway's cut of amount from the configured
// fee schedule: percentage capped at FeeCap when a cap is set.
func (g *PaymentGateway) TransactionFee(amount decimal.Decimal) decimal.Decimal {
	fee := amount.Mul(g.FeePercent).RoundBank(2)
	if g.FeeCap.IsPositive() && fee.Cmp(g.FeeCap) > 0 {
		return g.FeeCap
	}
	return fee
}
