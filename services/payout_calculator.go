package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chineduopara/coursepay/models"
)

// Earnings is the result of one period calculation. PlatformFee and
// NetInstructorShare always sum exactly to GrossRevenue: rounding is
// applied once, on the instructor share, and the fee is the remainder.
type Earnings struct {
	GrossRevenue       models.Money
	PlatformFee        models.Money
	NetInstructorShare models.Money
	TransactionCount   int
	ShareRate          decimal.Decimal
}

// PayoutCalculator computes instructor earnings for a period. Pure
// read-only aggregation; it never mutates anything.
type PayoutCalculator struct {
	earnings EarningsSource
	rates    RatePolicySource
	currency string
}

func NewPayoutCalculator(earnings EarningsSource, rates RatePolicySource, settlementCurrency string) *PayoutCalculator {
	return &PayoutCalculator{earnings: earnings, rates: rates, currency: settlementCurrency}
}

// Calculate sums completed payments for courses owned by the instructor
// whose paid_at falls within [periodStart, periodEnd], then applies the
// split rate in force now. Rate changes never re-derive old payouts.
func (c *PayoutCalculator) Calculate(ctx context.Context, instructorID uuid.UUID, periodStart, periodEnd time.Time) (*Earnings, error) {
	completed, err := c.earnings.CompletedPaymentsForInstructor(ctx, instructorID, periodStart, periodEnd, c.currency)
	if err != nil {
		return nil, err
	}

	gross := decimal.Zero
	for _, p := range completed {
		gross = gross.Add(p.Amount)
	}

	rate, err := c.rates.CurrentShareRate(ctx, time.Now())
	if err != nil {
		return nil, err
	}

	net, fee := models.NewMoney(gross, c.currency).Split(rate)

	return &Earnings{
		GrossRevenue:       models.NewMoney(gross, c.currency),
		PlatformFee:        fee,
		NetInstructorShare: net,
		TransactionCount:   len(completed),
		ShareRate:          rate,
	}, nil
}

// SettlementCurrency is the platform currency payouts are denominated in.
func (c *PayoutCalculator) SettlementCurrency() string {
	return c.currency
}
