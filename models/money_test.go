package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestSplitShareAndRemainderAlwaysSumToTotal(t *testing.T) {
	rate := decimal.RequireFromString("0.70")

	testCases := []struct {
		name          string
		amount        string
		wantShare     string
		wantRemainder string
	}{
		{name: "even split", amount: "5000.00", wantShare: "3500.00", wantRemainder: "1500.00"},
		{name: "odd cents round to even", amount: "100.05", wantShare: "70.04", wantRemainder: "30.01"},
		{name: "single cent", amount: "0.01", wantShare: "0.01", wantRemainder: "0.00"},
		{name: "repeating fraction", amount: "33.33", wantShare: "23.33", wantRemainder: "10.00"},
		{name: "large amount", amount: "999999.99", wantShare: "699999.99", wantRemainder: "300000.00"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := MoneyFromString(tc.amount, "NGN")
			require.NoError(t, err)

			share, remainder := m.Split(rate)

			require.Equal(t, tc.wantShare, share.Amount.StringFixed(2))
			require.Equal(t, tc.wantRemainder, remainder.Amount.StringFixed(2))

			total, err := share.Add(remainder)
			require.NoError(t, err)
			require.True(t, total.Amount.Equal(m.Amount), "share + remainder must equal the original amount")
		})
	}
}

func TestWithinTolerance(t *testing.T) {
	base, err := MoneyFromString("5000.00", "NGN")
	require.NoError(t, err)

	testCases := []struct {
		name           string
		other          Money
		toleranceMinor int64
		want           bool
	}{
		{name: "exact match zero tolerance", other: mustMoney(t, "5000.00", "NGN"), toleranceMinor: 0, want: true},
		{name: "one kobo over zero tolerance", other: mustMoney(t, "5000.01", "NGN"), toleranceMinor: 0, want: false},
		{name: "one kobo over within tolerance", other: mustMoney(t, "5000.01", "NGN"), toleranceMinor: 1, want: true},
		{name: "one kobo under within tolerance", other: mustMoney(t, "4999.99", "NGN"), toleranceMinor: 1, want: true},
		{name: "two kobo over exceeds tolerance", other: mustMoney(t, "5000.02", "NGN"), toleranceMinor: 1, want: false},
		{name: "currency mismatch never tolerated", other: mustMoney(t, "5000.00", "USD"), toleranceMinor: 100, want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, base.WithinTolerance(tc.other, tc.toleranceMinor))
		})
	}
}

func TestMinorUnitsRoundTrip(t *testing.T) {
	m := MoneyFromMinorUnits(500000, "NGN")
	require.Equal(t, "5000.00", m.Amount.StringFixed(2))
	require.Equal(t, int64(500000), m.MinorUnits())
}

func TestAddAndSubRejectCurrencyMismatch(t *testing.T) {
	ngn := mustMoney(t, "100.00", "NGN")
	usd := mustMoney(t, "100.00", "USD")

	_, err := ngn.Add(usd)
	require.Error(t, err)
	_, err = ngn.Sub(usd)
	require.Error(t, err)
}

func mustMoney(t *testing.T, amount, currency string) Money {
	t.Helper()
	m, err := MoneyFromString(amount, currency)
	require.NoError(t, err)
	return m
}
