package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chineduopara/coursepay/models"
	"github.com/chineduopara/coursepay/payments"
)

var accountNumberPattern = regexp.MustCompile(`^[0-9]{10}$`)

// VerificationResult reports one verification attempt.
type VerificationResult struct {
	Verified    bool   `json:"verified"`
	AccountName string `json:"account_name,omitempty"`
	Attempts    int    `json:"attempts"`
	Error       string `json:"error,omitempty"`
}

// BankAccountRegistry owns the verification lifecycle of instructor payout
// destinations. The name comparison is a best-effort fraud deterrent, not
// cryptographic proof: the gateway only returns an account-holder name.
type BankAccountRegistry struct {
	accounts    BankAccountRepository
	gateways    TransferGatewaySource
	maxAttempts int
	callTimeout time.Duration
}

func NewBankAccountRegistry(accounts BankAccountRepository, gateways TransferGatewaySource, maxAttempts int) *BankAccountRegistry {
	return &BankAccountRegistry{
		accounts:    accounts,
		gateways:    gateways,
		maxAttempts: maxAttempts,
		callTimeout: 15 * time.Second,
	}
}

// Register stores or replaces an instructor's payout destination. Changing
// the destination always resets the verification state.
func (r *BankAccountRegistry) Register(ctx context.Context, instructorID uuid.UUID, accountNumber, bankCode, bankName string) (*models.InstructorBankAccount, error) {
	accountNumber = strings.TrimSpace(accountNumber)
	bankCode = strings.TrimSpace(bankCode)
	if !accountNumberPattern.MatchString(accountNumber) {
		return nil, fmt.Errorf("%w: account number must be 10 digits", ErrValidation)
	}
	if bankCode == "" {
		return nil, fmt.Errorf("%w: bank code is required", ErrValidation)
	}

	account, err := r.accounts.FindByInstructor(ctx, instructorID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		account = &models.InstructorBankAccount{InstructorID: instructorID}
		account.AccountNumber = accountNumber
		account.BankCode = bankCode
		account.BankName = bankName
		if err := r.accounts.Create(ctx, account); err != nil {
			return nil, err
		}
		return account, nil
	}

	account.AccountNumber = accountNumber
	account.BankCode = bankCode
	account.BankName = bankName
	account.IsVerified = false
	account.VerifiedAccountName = nil
	account.VerificationProvider = nil
	account.VerificationError = nil
	account.VerificationAttempts = 0
	account.LastAttemptAt = nil
	if err := r.accounts.Save(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Verify resolves the account with the gateway and compares the returned
// holder name against the instructor's registered name. Every call counts
// against the attempt cap, whatever its outcome.
func (r *BankAccountRegistry) Verify(ctx context.Context, instructorID uuid.UUID) (*VerificationResult, error) {
	account, err := r.accounts.FindByInstructor(ctx, instructorID)
	if err != nil {
		return nil, err
	}

	if account.VerificationAttempts >= r.maxAttempts {
		return &VerificationResult{
			Verified: account.IsVerified,
			Attempts: account.VerificationAttempts,
			Error:    "attempt limit reached",
		}, ErrMaxAttemptsExceeded
	}

	now := time.Now()
	account.VerificationAttempts++
	account.LastAttemptAt = &now

	gw, err := r.gateways.TransferGateway()
	if err != nil {
		return r.recordFailure(ctx, account, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err))
	}

	cctx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()
	resolved, err := gw.ResolveAccount(cctx, account.AccountNumber, account.BankCode)
	if err != nil {
		if errors.Is(err, payments.ErrGatewayTimeout) {
			return r.recordFailure(ctx, account, fmt.Errorf("%w: %v", ErrGatewayTimeout, err))
		}
		return r.recordFailure(ctx, account, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err))
	}

	matched := matchAccountName(account.Instructor.FullName, resolved.AccountName)
	account.IsVerified = matched
	account.VerifiedAccountName = &resolved.AccountName
	provider := gw.Name()
	account.VerificationProvider = &provider
	if matched {
		account.VerificationError = nil
	} else {
		msg := fmt.Sprintf("account name %q does not match registered name %q", resolved.AccountName, account.Instructor.FullName)
		account.VerificationError = &msg
	}

	if err := r.accounts.Save(ctx, account); err != nil {
		return nil, err
	}

	result := &VerificationResult{
		Verified:    matched,
		AccountName: resolved.AccountName,
		Attempts:    account.VerificationAttempts,
	}
	if !matched {
		result.Error = *account.VerificationError
	}
	return result, nil
}

func (r *BankAccountRegistry) recordFailure(ctx context.Context, account *models.InstructorBankAccount, cause error) (*VerificationResult, error) {
	msg := cause.Error()
	account.VerificationError = &msg
	if err := r.accounts.Save(ctx, account); err != nil {
		return nil, err
	}
	return &VerificationResult{
		Verified: false,
		Attempts: account.VerificationAttempts,
		Error:    msg,
	}, cause
}

// ResetAttempts clears the attempt counter. Operator action only.
func (r *BankAccountRegistry) ResetAttempts(ctx context.Context, instructorID uuid.UUID) error {
	account, err := r.accounts.FindByInstructor(ctx, instructorID)
	if err != nil {
		return err
	}
	account.VerificationAttempts = 0
	account.VerificationError = nil
	return r.accounts.Save(ctx, account)
}

// ListUnverified returns unverified accounts still under the attempt cap,
// for the re-verification sweep.
func (r *BankAccountRegistry) ListUnverified(ctx context.Context) ([]models.InstructorBankAccount, error) {
	return r.accounts.ListUnverified(ctx, r.maxAttempts)
}

var whitespacePattern = regexp.MustCompile(`\s+`)

// matchAccountName compares names case-insensitively after collapsing
// whitespace, accepting substring containment in either direction. Banks
// frequently reorder or abbreviate name parts.
func matchAccountName(registered, resolved string) bool {
	a := normalizeName(registered)
	b := normalizeName(resolved)
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func normalizeName(name string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(strings.ToLower(name), " "))
}
