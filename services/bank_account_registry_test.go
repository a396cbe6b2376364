package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chineduopara/coursepay/models"
	"github.com/chineduopara/coursepay/payments"
)

const testMaxAttempts = 3

func unverifiedAccount(instructorID uuid.UUID, fullName string) *models.InstructorBankAccount {
	return &models.InstructorBankAccount{
		ID:            uuid.New(),
		InstructorID:  instructorID,
		AccountNumber: "0123456789",
		BankCode:      "058",
		BankName:      "GTBank",
		Instructor:    models.User{FullName: fullName},
	}
}

func TestRegisterReplacingAccountResetsVerification(t *testing.T) {
	ctx := context.Background()
	accounts := new(mockBankAccounts)
	registry := NewBankAccountRegistry(accounts, new(mockGateways), testMaxAttempts)

	instructorID := uuid.New()
	existing := unverifiedAccount(instructorID, "Adaeze Okafor")
	existing.IsVerified = true
	name := "ADAEZE OKAFOR"
	existing.VerifiedAccountName = &name
	existing.VerificationAttempts = 2

	accounts.On("FindByInstructor", ctx, instructorID).Return(existing, nil)
	accounts.On("Save", ctx, existing).Return(nil)

	account, err := registry.Register(ctx, instructorID, "9876543210", "044", "Access Bank")

	require.NoError(t, err)
	require.Equal(t, "9876543210", account.AccountNumber)
	require.Equal(t, "044", account.BankCode)
	require.False(t, account.IsVerified)
	require.Nil(t, account.VerifiedAccountName)
	require.Zero(t, account.VerificationAttempts)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	registry := NewBankAccountRegistry(new(mockBankAccounts), new(mockGateways), testMaxAttempts)

	testCases := []struct {
		name          string
		accountNumber string
		bankCode      string
	}{
		{name: "too short", accountNumber: "12345", bankCode: "058"},
		{name: "non numeric", accountNumber: "01234ABCDE", bankCode: "058"},
		{name: "missing bank code", accountNumber: "0123456789", bankCode: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := registry.Register(ctx, uuid.New(), tc.accountNumber, tc.bankCode, "GTBank")
			require.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestVerifyMatchesResolvedName(t *testing.T) {
	testCases := []struct {
		name         string
		registered   string
		resolved     string
		wantVerified bool
	}{
		{name: "exact match", registered: "Adaeze Okafor", resolved: "Adaeze Okafor", wantVerified: true},
		{name: "case and spacing ignored", registered: "Adaeze Okafor", resolved: "ADAEZE  OKAFOR", wantVerified: true},
		{name: "bank appends middle name", registered: "Adaeze Okafor", resolved: "ADAEZE NGOZI OKAFOR", wantVerified: false},
		{name: "bank truncates last name", registered: "Adaeze Ngozi Okafor", resolved: "ADAEZE NGOZI", wantVerified: true},
		{name: "resolved contained in registered", registered: "Adaeze Ngozi Okafor", resolved: "adaeze ngozi okafor", wantVerified: true},
		{name: "different person", registered: "Adaeze Okafor", resolved: "CHUKWUEMEKA EZE", wantVerified: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			accounts := new(mockBankAccounts)
			gateways := new(mockGateways)
			gw := new(mockGateway)
			registry := NewBankAccountRegistry(accounts, gateways, testMaxAttempts)

			instructorID := uuid.New()
			account := unverifiedAccount(instructorID, tc.registered)

			accounts.On("FindByInstructor", ctx, instructorID).Return(account, nil)
			accounts.On("Save", ctx, account).Return(nil)
			gateways.On("TransferGateway").Return(gw, nil)
			gw.On("Name").Return(payments.GatewayPaystack)
			gw.On("ResolveAccount", mock.Anything, "0123456789", "058").Return(&payments.ResolvedAccount{
				AccountNumber: "0123456789",
				AccountName:   tc.resolved,
			}, nil)

			result, err := registry.Verify(ctx, instructorID)

			require.NoError(t, err)
			require.Equal(t, tc.wantVerified, result.Verified)
			require.Equal(t, tc.wantVerified, account.IsVerified)
			require.Equal(t, 1, result.Attempts)
			require.NotNil(t, account.VerifiedAccountName)
			if !tc.wantVerified {
				require.NotEmpty(t, result.Error)
			}
		})
	}
}

func TestVerifyAttemptCapIsEnforced(t *testing.T) {
	ctx := context.Background()
	accounts := new(mockBankAccounts)
	registry := NewBankAccountRegistry(accounts, new(mockGateways), testMaxAttempts)

	instructorID := uuid.New()
	account := unverifiedAccount(instructorID, "Adaeze Okafor")
	account.VerificationAttempts = testMaxAttempts

	accounts.On("FindByInstructor", ctx, instructorID).Return(account, nil)

	result, err := registry.Verify(ctx, instructorID)

	require.ErrorIs(t, err, ErrMaxAttemptsExceeded)
	require.False(t, result.Verified)
	require.Equal(t, testMaxAttempts, result.Attempts)
	accounts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestVerifyGatewayFailureStillCountsAttempt(t *testing.T) {
	ctx := context.Background()
	accounts := new(mockBankAccounts)
	gateways := new(mockGateways)
	gw := new(mockGateway)
	registry := NewBankAccountRegistry(accounts, gateways, testMaxAttempts)

	instructorID := uuid.New()
	account := unverifiedAccount(instructorID, "Adaeze Okafor")

	accounts.On("FindByInstructor", ctx, instructorID).Return(account, nil)
	accounts.On("Save", ctx, account).Return(nil)
	gateways.On("TransferGateway").Return(gw, nil)
	gw.On("ResolveAccount", mock.Anything, "0123456789", "058").Return(nil, payments.ErrGatewayTimeout)

	result, err := registry.Verify(ctx, instructorID)

	require.ErrorIs(t, err, ErrGatewayTimeout)
	require.False(t, result.Verified)
	require.Equal(t, 1, result.Attempts)
	require.Equal(t, 1, account.VerificationAttempts)
	require.NotNil(t, account.LastAttemptAt)
	accounts.AssertNumberOfCalls(t, "Save", 1)
}

func TestResetAttempts(t *testing.T) {
	ctx := context.Background()
	accounts := new(mockBankAccounts)
	registry := NewBankAccountRegistry(accounts, new(mockGateways), testMaxAttempts)

	instructorID := uuid.New()
	account := unverifiedAccount(instructorID, "Adaeze Okafor")
	account.VerificationAttempts = testMaxAttempts
	errMsg := "account name mismatch"
	account.VerificationError = &errMsg

	accounts.On("FindByInstructor", ctx, instructorID).Return(account, nil)
	accounts.On("Save", ctx, account).Return(nil)

	require.NoError(t, registry.ResetAttempts(ctx, instructorID))
	require.Zero(t, account.VerificationAttempts)
	require.Nil(t, account.VerificationError)
}
