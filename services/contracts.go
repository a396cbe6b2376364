package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chineduopara/coursepay/models"
	"github.com/chineduopara/coursepay/payments"
)

// PaymentRepository owns Payment row persistence. Create translates unique
// violations on the reference into ErrDuplicateReference; lookups translate
// missing rows into ErrUnknownReference.
type PaymentRepository interface {
	InTx(ctx context.Context, fn func(tx PaymentTx) error) error
	Create(ctx context.Context, p *models.Payment) error
	Save(ctx context.Context, p *models.Payment) error
	FindByReference(ctx context.Context, reference string) (*models.Payment, error)
	ListStalePending(ctx context.Context, cutoff time.Time) ([]models.Payment, error)
	ListPendingWithChargeSince(ctx context.Context, since time.Time) ([]models.Payment, error)
}

// PaymentTx is the transactional view of the payment store: row-locked
// payment mutation plus the enrollment side effects that must commit
// atomically with a status transition.
type PaymentTx interface {
	LockByReference(ctx context.Context, reference string) (*models.Payment, error)
	Save(ctx context.Context, p *models.Payment) error
	GrantEnrollment(ctx context.Context, payerID, courseID uuid.UUID, paymentRef string) error
	CancelPendingEnrollment(ctx context.Context, paymentRef string) error
}

// PayoutRepository owns InstructorPayout persistence. Create translates the
// unique (instructor, period) violation into ErrOverlappingPeriod.
type PayoutRepository interface {
	InTx(ctx context.Context, fn func(tx PayoutTx) error) error
	Create(ctx context.Context, p *models.InstructorPayout) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.InstructorPayout, error)
	HasOverlappingPeriod(ctx context.Context, instructorID uuid.UUID, start, end time.Time) (bool, error)
	ListByStatus(ctx context.Context, status models.PayoutStatus) ([]models.InstructorPayout, error)
	ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]models.InstructorPayout, error)
}

type PayoutTx interface {
	LockByID(ctx context.Context, id uuid.UUID) (*models.InstructorPayout, error)
	Save(ctx context.Context, p *models.InstructorPayout) error
}

// BankAccountRepository owns InstructorBankAccount persistence. Lookups
// preload the owning instructor so the registry can match names.
type BankAccountRepository interface {
	Create(ctx context.Context, a *models.InstructorBankAccount) error
	Save(ctx context.Context, a *models.InstructorBankAccount) error
	FindByInstructor(ctx context.Context, instructorID uuid.UUID) (*models.InstructorBankAccount, error)
	ListUnverified(ctx context.Context, maxAttempts int) ([]models.InstructorBankAccount, error)
}

// EarningsSource is the read-only view of completed payments that the
// payout calculator aggregates over.
type EarningsSource interface {
	CompletedPaymentsForInstructor(ctx context.Context, instructorID uuid.UUID, start, end time.Time, currency string) ([]models.Payment, error)
	InstructorsWithEarnings(ctx context.Context, start, end time.Time, currency string) ([]uuid.UUID, error)
}

// RatePolicySource resolves the revenue-split rate in force at a point in
// time.
type RatePolicySource interface {
	CurrentShareRate(ctx context.Context, at time.Time) (decimal.Decimal, error)
}

// GatewayResolver narrows the payments registry to what the payment ledger
// needs.
type GatewayResolver interface {
	Resolve(name string) (payments.Gateway, error)
	Config(name string) (*models.PaymentGateway, bool)
}

// TransferGatewaySource yields the gateway used for payout disbursement
// and bank account resolution.
type TransferGatewaySource interface {
	TransferGateway() (payments.Gateway, error)
}

// Notifier dispatches fire-and-forget notifications. Implementations log
// failures; they never propagate them into ledger transactions.
type Notifier interface {
	Notify(ctx context.Context, event string, payload map[string]any)
}
