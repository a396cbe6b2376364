package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chineduopara/coursepay/models"
)

func completedPayment(amount string) models.Payment {
	return models.Payment{
		ID:       uuid.New(),
		Amount:   decimal.RequireFromString(amount),
		Currency: "NGN",
		Status:   models.PaymentStatusCompleted,
	}
}

func TestCalculateSplitsGrossExactly(t *testing.T) {
	ctx := context.Background()
	instructorID := uuid.New()
	periodStart := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2026, 7, 31, 23, 59, 59, 0, time.UTC)

	testCases := []struct {
		name      string
		payments  []models.Payment
		rate      string
		wantGross string
		wantNet   string
		wantFee   string
	}{
		{
			name:      "even amounts",
			payments:  []models.Payment{completedPayment("5000.00"), completedPayment("3000.00")},
			rate:      "0.70",
			wantGross: "8000.00",
			wantNet:   "5600.00",
			wantFee:   "2400.00",
		},
		{
			name:      "odd cents land in the fee",
			payments:  []models.Payment{completedPayment("100.05")},
			rate:      "0.70",
			wantGross: "100.05",
			wantNet:   "70.04",
			wantFee:   "30.01",
		},
		{
			name:      "no completed payments",
			payments:  []models.Payment{},
			rate:      "0.70",
			wantGross: "0.00",
			wantNet:   "0.00",
			wantFee:   "0.00",
		},
		{
			name:      "different rate policy",
			payments:  []models.Payment{completedPayment("9999.99")},
			rate:      "0.85",
			wantGross: "9999.99",
			wantNet:   "8499.99",
			wantFee:   "1500.00",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			earnings := new(mockEarnings)
			rates := new(mockRates)
			calc := NewPayoutCalculator(earnings, rates, "NGN")

			earnings.On("CompletedPaymentsForInstructor", ctx, instructorID, periodStart, periodEnd, "NGN").Return(tc.payments, nil)
			rates.On("CurrentShareRate", ctx, mock.Anything).Return(decimal.RequireFromString(tc.rate), nil)

			got, err := calc.Calculate(ctx, instructorID, periodStart, periodEnd)
			require.NoError(t, err)

			require.Equal(t, tc.wantGross, got.GrossRevenue.Amount.StringFixed(2))
			require.Equal(t, tc.wantNet, got.NetInstructorShare.Amount.StringFixed(2))
			require.Equal(t, tc.wantFee, got.PlatformFee.Amount.StringFixed(2))
			require.Equal(t, len(tc.payments), got.TransactionCount)

			total := got.NetInstructorShare.Amount.Add(got.PlatformFee.Amount)
			require.True(t, total.Equal(got.GrossRevenue.Amount), "net + fee must reconstruct gross exactly")
		})
	}
}

func TestCalculatePropagatesRateLookupFailure(t *testing.T) {
	ctx := context.Background()
	earnings := new(mockEarnings)
	rates := new(mockRates)
	calc := NewPayoutCalculator(earnings, rates, "NGN")

	earnings.On("CompletedPaymentsForInstructor", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]models.Payment{completedPayment("100.00")}, nil)
	rates.On("CurrentShareRate", mock.Anything, mock.Anything).Return(decimal.Zero, ErrNotFound)

	_, err := calc.Calculate(ctx, uuid.New(), time.Now().Add(-time.Hour), time.Now())
	require.ErrorIs(t, err, ErrNotFound)
}
