package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/chineduopara/coursepay/models"
	"github.com/chineduopara/coursepay/payments"
)

const expiredPaymentReason = "expired: not completed within time limit"

// GatewayEvent is a status report for one payment reference, whether it
// arrived as a webhook or from a manual verification call. Both paths feed
// ApplyGatewayEvent so there is exactly one choke point for state changes.
type GatewayEvent struct {
	Reference      string
	ObservedStatus string
	GatewayTxnID   string
	Amount         models.Money
	Reason         string
}

// Outcome reports what ApplyGatewayEvent did. Applied=false means the
// payment was already terminal and the event was an idempotent replay.
type Outcome struct {
	Applied bool
	Status  models.PaymentStatus
}

type InitializePaymentRequest struct {
	Reference     string
	Amount        models.Money
	Gateway       string
	Method        models.PaymentMethod
	UserID        *uuid.UUID
	CourseID      *uuid.UUID
	CustomerEmail string
}

// PaymentLedger is the single source of truth for payment state. Every
// status transition is guarded by a row lock and a terminal-status check,
// so concurrent and replayed events collapse to exactly one effect.
type PaymentLedger struct {
	repo           PaymentRepository
	gateways       GatewayResolver
	rates          RatePolicySource
	notifier       Notifier
	toleranceMinor int64
	callTimeout    time.Duration
}

func NewPaymentLedger(repo PaymentRepository, gateways GatewayResolver, rates RatePolicySource, notifier Notifier, toleranceMinor int64) *PaymentLedger {
	return &PaymentLedger{
		repo:           repo,
		gateways:       gateways,
		rates:          rates,
		notifier:       notifier,
		toleranceMinor: toleranceMinor,
		callTimeout:    15 * time.Second,
	}
}

// Initialize records a pending payment and asks the gateway for a charge
// handle. The row commits before the gateway call so a lost response never
// leaves gateway money without a local record. Retrying with the same
// reference is allowed only while no charge handle has been persisted.
func (l *PaymentLedger) Initialize(ctx context.Context, req InitializePaymentRequest) (*models.Payment, *payments.ChargeHandle, error) {
	if req.Reference == "" || !req.Amount.IsPositive() {
		return nil, nil, fmt.Errorf("%w: reference and a positive amount are required", ErrValidation)
	}
	if !models.SupportedCurrencies[req.Amount.Currency] {
		return nil, nil, fmt.Errorf("%w: unsupported currency %s", ErrValidation, req.Amount.Currency)
	}
	gw, err := l.gateways.Resolve(req.Gateway)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if cfg, ok := l.gateways.Config(req.Gateway); ok && !cfg.SupportsCurrency(req.Amount.Currency) {
		return nil, nil, fmt.Errorf("%w: gateway %s does not support %s", ErrValidation, req.Gateway, req.Amount.Currency)
	}

	payment, err := l.repo.FindByReference(ctx, req.Reference)
	switch {
	case err == nil:
		// The reference is locked to one gateway attempt once a charge
		// handle exists.
		if payment.Status.Terminal() || payment.ChargeHandle != nil {
			return nil, nil, ErrDuplicateReference
		}
	case errors.Is(err, ErrUnknownReference):
		payment = &models.Payment{
			Reference:   req.Reference,
			Amount:      req.Amount.Amount,
			Currency:    req.Amount.Currency,
			Gateway:     req.Gateway,
			Method:      req.Method,
			Status:      models.PaymentStatusPending,
			UserID:      req.UserID,
			CourseID:    req.CourseID,
			InitiatedAt: time.Now(),
		}
		if req.Method == "" {
			payment.Method = models.PaymentMethodCard
		}
		if err := l.repo.Create(ctx, payment); err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, err
	}

	cctx, cancel := context.WithTimeout(ctx, l.callTimeout)
	defer cancel()
	handle, err := gw.InitializeCharge(cctx, payment, req.CustomerEmail)
	if err != nil {
		if errors.Is(err, payments.ErrGatewayTimeout) {
			return payment, nil, fmt.Errorf("%w: %v", ErrGatewayTimeout, err)
		}
		return payment, nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	payment.ChargeHandle = &handle.ProviderRef
	if err := l.repo.Save(ctx, payment); err != nil {
		log.Printf("[ERROR] failed to persist charge handle for payment %s: %v", payment.Reference, err)
	}

	return payment, handle, nil
}

// ApplyGatewayEvent applies one observed gateway outcome. Safe to invoke
// concurrently and redundantly for the same reference: the transition, the
// enrollment grant and the fee computation commit in one transaction, and
// a terminal payment always yields a no-op Outcome.
func (l *PaymentLedger) ApplyGatewayEvent(ctx context.Context, evt GatewayEvent) (Outcome, error) {
	var (
		out       Outcome
		mismatch  bool
		completed *models.Payment
	)

	err := l.repo.InTx(ctx, func(tx PaymentTx) error {
		p, err := tx.LockByReference(ctx, evt.Reference)
		if err != nil {
			return err
		}

		if p.Status.Terminal() {
			out = Outcome{Applied: false, Status: p.Status}
			return nil
		}

		now := time.Now()

		if evt.ObservedStatus == "success" && !p.Money().WithinTolerance(evt.Amount, l.toleranceMinor) {
			reason := fmt.Sprintf("amount mismatch: expected %s, gateway reported %s", p.Money(), evt.Amount)
			p.Status = models.PaymentStatusFailed
			p.FailedAt = &now
			p.FailureReason = &reason
			setGatewayTxnID(p, evt.GatewayTxnID)
			if err := tx.Save(ctx, p); err != nil {
				return err
			}
			mismatch = true
			out = Outcome{Applied: true, Status: p.Status}
			return nil
		}

		if evt.ObservedStatus == "success" {
			p.Status = models.PaymentStatusCompleted
			p.PaidAt = &now
			setGatewayTxnID(p, evt.GatewayTxnID)
			if cfg, ok := l.gateways.Config(p.Gateway); ok {
				p.GatewayFee = cfg.TransactionFee(p.Amount)
			}
			if share, err := l.rates.CurrentShareRate(ctx, now); err == nil {
				_, platform := p.Money().Split(share)
				p.PlatformFee = platform.Amount
			} else {
				log.Printf("[ERROR] share rate lookup failed for payment %s, platform fee left unset: %v", p.Reference, err)
			}
			if err := tx.Save(ctx, p); err != nil {
				return err
			}
			if p.UserID != nil && p.CourseID != nil {
				if err := tx.GrantEnrollment(ctx, *p.UserID, *p.CourseID, p.Reference); err != nil {
					return err
				}
			}
			completed = p
		} else {
			reason := evt.Reason
			if reason == "" {
				reason = "gateway reported failure"
			}
			p.Status = models.PaymentStatusFailed
			p.FailedAt = &now
			p.FailureReason = &reason
			setGatewayTxnID(p, evt.GatewayTxnID)
			if err := tx.Save(ctx, p); err != nil {
				return err
			}
		}

		out = Outcome{Applied: true, Status: p.Status}
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}

	if mismatch {
		log.Printf("[SECURITY] amount mismatch on payment %s: gateway reported %s, payment forced to failed", evt.Reference, evt.Amount)
		return out, ErrAmountMismatch
	}

	if completed != nil {
		l.notifier.Notify(ctx, "payment.completed", map[string]any{
			"reference": completed.Reference,
			"amount":    completed.Amount.StringFixed(2),
			"currency":  completed.Currency,
		})
	}

	return out, nil
}

// VerifyWithGateway queries the gateway's authoritative transaction status
// for a reference and feeds any terminal outcome through ApplyGatewayEvent.
// This is the manual-verification path and the webhook-was-dropped path.
func (l *PaymentLedger) VerifyWithGateway(ctx context.Context, reference string) (Outcome, error) {
	p, err := l.repo.FindByReference(ctx, reference)
	if err != nil {
		return Outcome{}, err
	}
	if p.Status.Terminal() {
		return Outcome{Applied: false, Status: p.Status}, nil
	}

	gw, err := l.gateways.Resolve(p.Gateway)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	cctx, cancel := context.WithTimeout(ctx, l.callTimeout)
	defer cancel()
	status, err := gw.VerifyTransaction(cctx, reference)
	if err != nil {
		if errors.Is(err, payments.ErrGatewayTimeout) {
			return Outcome{}, fmt.Errorf("%w: %v", ErrGatewayTimeout, err)
		}
		return Outcome{}, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	switch status.Status {
	case "success", "failed", "abandoned":
		observed := status.Status
		if observed == "abandoned" {
			observed = "failed"
		}
		return l.ApplyGatewayEvent(ctx, GatewayEvent{
			Reference:      reference,
			ObservedStatus: observed,
			GatewayTxnID:   status.GatewayTxnID,
			Amount:         status.Amount,
			Reason:         "gateway reported " + status.Status,
		})
	}

	// Still pending on the gateway's side; leave the payment untouched.
	return Outcome{Applied: false, Status: p.Status}, nil
}

// ExpireStalePending cancels pending payments older than the threshold and
// cancels their pending enrollments. A late-arriving gateway event and the
// sweep race safely: whichever transition commits first wins, the loser
// no-ops on the terminal-status check.
func (l *PaymentLedger) ExpireStalePending(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	stale, err := l.repo.ListStalePending(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, p := range stale {
		err := l.repo.InTx(ctx, func(tx PaymentTx) error {
			locked, err := tx.LockByReference(ctx, p.Reference)
			if err != nil {
				return err
			}
			if locked.Status != models.PaymentStatusPending {
				return nil
			}
			reason := expiredPaymentReason
			locked.Status = models.PaymentStatusCancelled
			locked.FailureReason = &reason
			if err := tx.Save(ctx, locked); err != nil {
				return err
			}
			if err := tx.CancelPendingEnrollment(ctx, locked.Reference); err != nil {
				return err
			}
			count++
			return nil
		})
		if err != nil {
			log.Printf("[ERROR] failed to expire payment %s: %v", p.Reference, err)
		}
	}

	return count, nil
}

// ReverifyPending re-checks recent pending payments that already hold a
// charge handle against the gateway, covering dropped webhooks. Returns how
// many payments reached a terminal state.
func (l *PaymentLedger) ReverifyPending(ctx context.Context, window time.Duration) (int, error) {
	since := time.Now().Add(-window)
	pending, err := l.repo.ListPendingWithChargeSince(ctx, since)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, p := range pending {
		outcome, err := l.VerifyWithGateway(ctx, p.Reference)
		if err != nil {
			if !errors.Is(err, ErrAmountMismatch) {
				log.Printf("[WARN] re-verification of payment %s failed: %v", p.Reference, err)
				continue
			}
		}
		if outcome.Applied {
			applied++
		}
	}

	return applied, nil
}

func setGatewayTxnID(p *models.Payment, txnID string) {
	if txnID != "" {
		p.GatewayTxnID = &txnID
	}
}
