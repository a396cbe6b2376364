package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chineduopara/coursepay/models"
	"github.com/chineduopara/coursepay/payments"
)

// PayoutLedger owns payout batch creation and the disbursement state
// machine. Money movement is never retried blindly: an ambiguous timeout
// leaves the payout in processing and reconciliation asks the gateway for
// the authoritative transfer status.
type PayoutLedger struct {
	repo        PayoutRepository
	calc        *PayoutCalculator
	accounts    BankAccountRepository
	gateways    TransferGatewaySource
	notifier    Notifier
	autoCeiling decimal.Decimal
	minTransfer decimal.Decimal
	callTimeout time.Duration
}

func NewPayoutLedger(repo PayoutRepository, calc *PayoutCalculator, accounts BankAccountRepository, gateways TransferGatewaySource, notifier Notifier, autoCeiling, minTransfer decimal.Decimal) *PayoutLedger {
	return &PayoutLedger{
		repo:        repo,
		calc:        calc,
		accounts:    accounts,
		gateways:    gateways,
		notifier:    notifier,
		autoCeiling: autoCeiling,
		minTransfer: minTransfer,
		callTimeout: 30 * time.Second,
	}
}

// CreateMonthlyBatch creates one pending payout per instructor with
// positive net earnings in the period. Instructors who already have a
// payout overlapping the period are skipped, which makes re-invocation
// with the same period a no-op.
func (l *PayoutLedger) CreateMonthlyBatch(ctx context.Context, periodStart, periodEnd time.Time) ([]models.InstructorPayout, error) {
	if !periodEnd.After(periodStart) {
		return nil, fmt.Errorf("%w: period end must be after period start", ErrValidation)
	}

	instructors, err := l.calc.earnings.InstructorsWithEarnings(ctx, periodStart, periodEnd, l.calc.SettlementCurrency())
	if err != nil {
		return nil, err
	}

	var created []models.InstructorPayout
	for _, instructorID := range instructors {
		payout, err := l.createForInstructor(ctx, instructorID, periodStart, periodEnd)
		if err != nil {
			if errors.Is(err, ErrOverlappingPeriod) {
				continue
			}
			log.Printf("[ERROR] payout batch: instructor %s: %v", instructorID, err)
			continue
		}
		if payout != nil {
			created = append(created, *payout)
		}
	}

	return created, nil
}

func (l *PayoutLedger) createForInstructor(ctx context.Context, instructorID uuid.UUID, periodStart, periodEnd time.Time) (*models.InstructorPayout, error) {
	overlaps, err := l.repo.HasOverlappingPeriod(ctx, instructorID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	if overlaps {
		return nil, ErrOverlappingPeriod
	}

	earnings, err := l.calc.Calculate(ctx, instructorID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	if !earnings.NetInstructorShare.IsPositive() {
		return nil, nil
	}

	payout := &models.InstructorPayout{
		InstructorID:     instructorID,
		PeriodStart:      periodStart,
		PeriodEnd:        periodEnd,
		GrossRevenue:     earnings.GrossRevenue.Amount,
		PlatformFee:      earnings.PlatformFee.Amount,
		NetPayout:        earnings.NetInstructorShare.Amount,
		Currency:         earnings.GrossRevenue.Currency,
		ShareRate:        earnings.ShareRate,
		TransactionCount: earnings.TransactionCount,
		Status:           models.PayoutStatusPending,
	}
	// The unique (instructor, period) index backstops a concurrent batch
	// run; the repo maps the violation to ErrOverlappingPeriod.
	if err := l.repo.Create(ctx, payout); err != nil {
		return nil, err
	}
	return payout, nil
}

// Disburse moves one pending payout through the gateway. With autoProcess
// set, policy gates (verified account, auto-payout opt-in, ceiling) apply;
// an operator-triggered call checks only verification. A timeout leaves
// the payout in processing for ReconcileProcessing to resolve.
func (l *PayoutLedger) Disburse(ctx context.Context, payoutID uuid.UUID, autoProcess bool) (*models.InstructorPayout, error) {
	account, payout, err := l.markProcessing(ctx, payoutID, autoProcess)
	if err != nil {
		return payout, err
	}

	gw, err := l.gateways.TransferGateway()
	if err != nil {
		return payout, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	amount := payout.NetMoney()
	reason := fmt.Sprintf("Instructor earnings %s to %s",
		payout.PeriodStart.Format("2006-01-02"), payout.PeriodEnd.Format("2006-01-02"))

	cctx, cancel := context.WithTimeout(ctx, l.callTimeout)
	defer cancel()
	result, err := gw.InitiateTransfer(cctx, account, amount, *payout.TransferReference, reason)
	if err != nil {
		if errors.Is(err, payments.ErrGatewayTimeout) {
			// Outcome unknown: stay in processing, never re-send.
			log.Printf("[WARN] transfer for payout %s timed out; leaving in processing for reconciliation", payout.ID)
			return payout, fmt.Errorf("%w: %v", ErrGatewayTimeout, err)
		}
		return l.finishDisbursement(ctx, payout.ID, &payments.TransferResult{Status: "failed", Reason: err.Error()})
	}

	return l.finishDisbursement(ctx, payout.ID, result)
}

func (l *PayoutLedger) markProcessing(ctx context.Context, payoutID uuid.UUID, autoProcess bool) (*models.InstructorBankAccount, *models.InstructorPayout, error) {
	var (
		account *models.InstructorBankAccount
		payout  *models.InstructorPayout
	)
	err := l.repo.InTx(ctx, func(tx PayoutTx) error {
		p, err := tx.LockByID(ctx, payoutID)
		if err != nil {
			return err
		}
		if p.Status != models.PayoutStatusPending {
			return fmt.Errorf("%w: payout is %s", ErrNotEligible, p.Status)
		}

		a, err := l.accounts.FindByInstructor(ctx, p.InstructorID)
		if err != nil {
			return fmt.Errorf("%w: no bank account on file", ErrNotEligible)
		}
		if !a.IsVerified {
			return fmt.Errorf("%w: bank account not verified", ErrNotEligible)
		}
		if l.minTransfer.IsPositive() && p.NetPayout.Cmp(l.minTransfer) < 0 {
			return fmt.Errorf("%w: amount below gateway minimum transfer", ErrNotEligible)
		}
		if autoProcess {
			if !a.AutoPayoutEnabled {
				return fmt.Errorf("%w: auto payout not enabled for instructor", ErrRequiresManualApproval)
			}
			if p.NetPayout.Cmp(l.autoCeiling) > 0 {
				return ErrRequiresManualApproval
			}
		}

		now := time.Now()
		p.Status = models.PayoutStatusProcessing
		if p.TransferReference == nil {
			ref := "TRF-" + uuid.NewString()
			p.TransferReference = &ref
		}
		p.DestinationBank = &a.BankCode
		p.DestinationAccountNumber = &a.AccountNumber
		p.DestinationAccountName = a.VerifiedAccountName
		p.UpdatedAt = now
		if err := tx.Save(ctx, p); err != nil {
			return err
		}

		account = a
		payout = p
		return nil
	})
	return account, payout, err
}

func (l *PayoutLedger) finishDisbursement(ctx context.Context, payoutID uuid.UUID, result *payments.TransferResult) (*models.InstructorPayout, error) {
	var payout *models.InstructorPayout
	err := l.repo.InTx(ctx, func(tx PayoutTx) error {
		p, err := tx.LockByID(ctx, payoutID)
		if err != nil {
			return err
		}
		if p.Status != models.PayoutStatusProcessing {
			payout = p
			return nil
		}

		switch result.Status {
		case "success":
			now := time.Now()
			p.Status = models.PayoutStatusCompleted
			p.ProcessedAt = &now
			if result.TransferID != "" {
				p.GatewayTransferID = &result.TransferID
			}
		case "failed":
			reason := result.Reason
			if reason == "" {
				reason = "gateway rejected transfer"
			}
			p.Status = models.PayoutStatusFailed
			p.FailureReason = &reason
		default:
			// Gateway queued the transfer; stays processing until the
			// reconciliation sweep confirms it.
			if result.TransferID != "" {
				p.GatewayTransferID = &result.TransferID
			}
		}

		if err := tx.Save(ctx, p); err != nil {
			return err
		}
		payout = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	if payout != nil && payout.Status == models.PayoutStatusCompleted {
		l.notifier.Notify(ctx, "payout.completed", map[string]any{
			"payout_id":     payout.ID.String(),
			"instructor_id": payout.InstructorID.String(),
			"amount":        payout.NetPayout.StringFixed(2),
			"currency":      payout.Currency,
		})
	}

	return payout, nil
}

// Requeue returns a failed payout to pending. Operator action only; failed
// money movement is never re-tried automatically.
func (l *PayoutLedger) Requeue(ctx context.Context, payoutID uuid.UUID) (*models.InstructorPayout, error) {
	var payout *models.InstructorPayout
	err := l.repo.InTx(ctx, func(tx PayoutTx) error {
		p, err := tx.LockByID(ctx, payoutID)
		if err != nil {
			return err
		}
		if p.Status != models.PayoutStatusFailed {
			return fmt.Errorf("%w: only failed payouts can be requeued", ErrNotEligible)
		}
		p.Status = models.PayoutStatusPending
		p.FailureReason = nil
		p.GatewayTransferID = nil
		p.TransferReference = nil
		if err := tx.Save(ctx, p); err != nil {
			return err
		}
		payout = p
		return nil
	})
	return payout, err
}

// ReconcileProcessing polls the gateway for every payout stuck in
// processing and applies the authoritative transfer status. Returns how
// many payouts reached a terminal state.
func (l *PayoutLedger) ReconcileProcessing(ctx context.Context) (int, error) {
	processing, err := l.repo.ListByStatus(ctx, models.PayoutStatusProcessing)
	if err != nil {
		return 0, err
	}
	if len(processing) == 0 {
		return 0, nil
	}

	gw, err := l.gateways.TransferGateway()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	resolved := 0
	for _, p := range processing {
		if p.TransferReference == nil {
			log.Printf("[WARN] processing payout %s has no transfer reference; operator attention required", p.ID)
			continue
		}

		cctx, cancel := context.WithTimeout(ctx, l.callTimeout)
		result, err := gw.VerifyTransfer(cctx, *p.TransferReference)
		cancel()
		switch {
		case errors.Is(err, payments.ErrNotFoundAtGateway):
			// The transfer never reached the gateway, typically because the
			// initiation timed out before it was accepted. Failing the
			// payout here unblocks the operator requeue path.
			result = &payments.TransferResult{
				Status: "failed",
				Reason: fmt.Sprintf("gateway has no record of transfer %s", *p.TransferReference),
			}
		case err != nil:
			log.Printf("[WARN] transfer status check for payout %s failed: %v", p.ID, err)
			continue
		}
		if result.Status != "success" && result.Status != "failed" {
			continue
		}

		updated, err := l.finishDisbursement(ctx, p.ID, result)
		if err != nil {
			log.Printf("[ERROR] failed to finalize payout %s after reconciliation: %v", p.ID, err)
			continue
		}
		if updated != nil && updated.Status != models.PayoutStatusProcessing {
			resolved++
		}
	}

	return resolved, nil
}

// ListPendingOlderThan exposes stale pending payouts for the reminder
// sweep.
func (l *PayoutLedger) ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]models.InstructorPayout, error) {
	return l.repo.ListPendingOlderThan(ctx, cutoff)
}

// ListPending returns all payouts awaiting disbursement.
func (l *PayoutLedger) ListPending(ctx context.Context) ([]models.InstructorPayout, error) {
	return l.repo.ListByStatus(ctx, models.PayoutStatusPending)
}
