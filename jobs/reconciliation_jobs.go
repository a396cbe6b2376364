package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	config "github.com/chineduopara/coursepay/configs"
	"github.com/chineduopara/coursepay/notifications"
	"github.com/chineduopara/coursepay/services"
)

// Reconciliation bundles every time-driven sweep over the ledgers. It is
// a coordinator only; all state changes go through the owning services.
type Reconciliation struct {
	payments *services.PaymentLedger
	payouts  *services.PayoutLedger
	banks    *services.BankAccountRegistry
	notifier services.Notifier

	expiryThreshold time.Duration
	reverifyWindow  time.Duration
	reminderAge     time.Duration
}

func NewReconciliation(payments *services.PaymentLedger, payouts *services.PayoutLedger, banks *services.BankAccountRegistry, notifier services.Notifier) *Reconciliation {
	return &Reconciliation{
		payments:        payments,
		payouts:         payouts,
		banks:           banks,
		notifier:        notifier,
		expiryThreshold: time.Duration(config.ConfigInt("PAYMENT_EXPIRY_HOURS", 24)) * time.Hour,
		reverifyWindow:  48 * time.Hour,
		reminderAge:     5 * 24 * time.Hour,
	}
}

// ExpireStalePayments cancels pending payments past the expiry threshold.
func (r *Reconciliation) ExpireStalePayments(ctx context.Context) error {
	count, err := r.payments.ExpireStalePending(ctx, r.expiryThreshold)
	if err != nil {
		return err
	}
	if count > 0 {
		log.Printf("Expired %d stale pending payment(s).", count)
	}
	return nil
}

// ReverifyPendingPayments asks the gateway about recent pending payments,
// covering webhooks that were dropped in transit.
func (r *Reconciliation) ReverifyPendingPayments(ctx context.Context) error {
	applied, err := r.payments.ReverifyPending(ctx, r.reverifyWindow)
	if err != nil {
		return err
	}
	if applied > 0 {
		log.Printf("Re-verification resolved %d pending payment(s).", applied)
	}
	return nil
}

// MonthlyPayoutBatch creates the previous calendar month's payouts, then
// auto-disburses those under the ceiling. Per-payout failures are
// collected into the summary; one bad payout never aborts the batch.
func (r *Reconciliation) MonthlyPayoutBatch(ctx context.Context) error {
	now := time.Now()
	periodEnd := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).Add(-time.Second)
	periodStart := time.Date(periodEnd.Year(), periodEnd.Month(), 1, 0, 0, 0, 0, time.UTC)

	created, err := r.payouts.CreateMonthlyBatch(ctx, periodStart, periodEnd)
	if err != nil {
		return err
	}
	log.Printf("Monthly payout batch for %s: %d payout(s) created.", periodStart.Format("2006-01"), len(created))

	succeeded, failed := 0, 0
	for _, payout := range created {
		if _, err := r.payouts.Disburse(ctx, payout.ID, true); err != nil {
			failed++
			log.Printf("Auto-disbursement of payout %s skipped: %v", payout.ID, err)
			continue
		}
		succeeded++
	}
	if succeeded+failed > 0 {
		log.Printf("Auto-disbursement summary: %d succeeded, %d held for review.", succeeded, failed)
	}
	return nil
}

// ReconcileProcessingPayouts resolves payouts left in processing by
// timeouts against the gateway's authoritative transfer status.
func (r *Reconciliation) ReconcileProcessingPayouts(ctx context.Context) error {
	resolved, err := r.payouts.ReconcileProcessing(ctx)
	if err != nil {
		return err
	}
	if resolved > 0 {
		log.Printf("Reconciliation resolved %d processing payout(s).", resolved)
	}
	return nil
}

// BankVerificationSweep retries verification for unverified accounts still
// under the attempt cap.
func (r *Reconciliation) BankVerificationSweep(ctx context.Context) error {
	accounts, err := r.banks.ListUnverified(ctx)
	if err != nil {
		return err
	}

	verified := 0
	for _, account := range accounts {
		result, err := r.banks.Verify(ctx, account.InstructorID)
		if err != nil {
			log.Printf("Bank verification for instructor %s failed: %v", account.InstructorID, err)
			continue
		}
		if result.Verified {
			verified++
		}
	}
	if len(accounts) > 0 {
		log.Printf("Bank verification sweep: %d/%d account(s) verified.", verified, len(accounts))
	}
	return nil
}

// PayoutReminders nudges operators about payouts pending too long.
func (r *Reconciliation) PayoutReminders(ctx context.Context) error {
	cutoff := time.Now().Add(-r.reminderAge)
	stale, err := r.payouts.ListPendingOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}

	for _, payout := range stale {
		r.notifier.Notify(ctx, "payout.reminder", map[string]any{
			"payout_id":     payout.ID.String(),
			"instructor_id": payout.InstructorID.String(),
			"amount":        payout.NetPayout.StringFixed(2),
			"currency":      payout.Currency,
			"pending_since": payout.CreatedAt.Format(time.RFC3339),
		})

		instructor := payout.Instructor
		if instructor.Email != "" {
			body := fmt.Sprintf(
				"<h1>Payout Pending</h1><p>Hello %s,</p><p>Your payout of %s %s has been awaiting disbursement since %s. Our team is on it.</p>",
				instructor.FullName, payout.NetPayout.StringFixed(2), payout.Currency, payout.CreatedAt.Format("Jan 2, 2006"),
			)
			go notifications.SendEmail(instructor.FullName, instructor.Email, "Your Payout Is Still Pending", body)
		}
	}
	if len(stale) > 0 {
		log.Printf("Sent %d payout reminder(s).", len(stale))
	}
	return nil
}

// Jobs returns the full descriptor set for the cron scheduler.
func (r *Reconciliation) Jobs() []Job {
	return []Job{
		{Name: "ExpireStalePayments", MaxRetries: 3, InitialBackoff: 10 * time.Second, Run: r.ExpireStalePayments},
		{Name: "ReverifyPendingPayments", MaxRetries: 3, InitialBackoff: 30 * time.Second, Run: r.ReverifyPendingPayments},
		{Name: "ReconcileProcessingPayouts", MaxRetries: 3, InitialBackoff: 30 * time.Second, Run: r.ReconcileProcessingPayouts},
		{Name: "BankVerificationSweep", MaxRetries: 2, InitialBackoff: time.Minute, Run: r.BankVerificationSweep},
		{Name: "PayoutReminders", MaxRetries: 2, InitialBackoff: time.Minute, Run: r.PayoutReminders},
	}
}

// MonthlyJob is scheduled separately: money-creating work gets fewer
// automatic retries.
func (r *Reconciliation) MonthlyJob() Job {
	return Job{Name: "MonthlyPayoutBatch", MaxRetries: 1, InitialBackoff: 5 * time.Minute, Timeout: 30 * time.Minute, Run: r.MonthlyPayoutBatch}
}
