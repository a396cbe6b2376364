package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SupportedCurrencies is the platform currency allow-list. Amounts in any
// other currency are rejected at initialization.
var SupportedCurrencies = map[string]bool{
	"NGN": true,
	"GHS": true,
	"KES": true,
	"ZAR": true,
	"USD": true,
}

// Money is a fixed-point amount tagged with its currency. All monetary
// arithmetic in the system goes through this type; float64 is never used
// for money.
type Money struct {
	Amount   decimal.Decimal `gorm:"type:numeric(12,2)" json:"amount"`
	Currency string          `gorm:"size:3" json:"currency"`
}

func NewMoney(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount.Round(2), Currency: currency}
}

func MoneyFromString(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	return NewMoney(d, currency), nil
}

// MoneyFromMinorUnits builds a Money from an integer count of minor units
// (kobo, pesewas, cents). Gateways report amounts this way.
func MoneyFromMinorUnits(minor int64, currency string) Money {
	return Money{Amount: decimal.NewFromInt(minor).Div(decimal.NewFromInt(100)), Currency: currency}
}

func (m Money) MinorUnits() int64 {
	return m.Amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

func (m Money) IsPositive() bool {
	return m.Amount.IsPositive()
}

func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("currency mismatch: %s vs %s", m.Currency, other.Currency)
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

func (m Money) Sub(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("currency mismatch: %s vs %s", m.Currency, other.Currency)
	}
	return Money{Amount: m.Amount.Sub(other.Amount), Currency: m.Currency}, nil
}

// WithinTolerance reports whether other differs from m by at most
// toleranceMinor minor units. Currencies must match exactly.
func (m Money) WithinTolerance(other Money, toleranceMinor int64) bool {
	if m.Currency != other.Currency {
		return false
	}
	diff := m.Amount.Sub(other.Amount).Abs()
	return diff.Mul(decimal.NewFromInt(100)).Cmp(decimal.NewFromInt(toleranceMinor)) <= 0
}

// Split divides m into a share at rate and the remainder. Rounding (round
// half to even) is applied exactly once, on the share; the remainder is the
// exact difference, so share + remainder always equals m.
func (m Money) Split(rate decimal.Decimal) (share Money, remainder Money) {
	s := m.Amount.Mul(rate).RoundBank(2)
	share = Money{Amount: s, Currency: m.Currency}
	remainder = Money{Amount: m.Amount.Sub(s), Currency: m.Currency}
	return share, remainder
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Amount.StringFixed(2), m.Currency)
}
