package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/chineduopara/coursepay/models"
	"github.com/chineduopara/coursepay/payments"
)

// mockPaymentStore doubles as PaymentRepository and PaymentTx, the same way
// the GORM repo rebinds itself inside a transaction. InTx runs the callback
// against the mock itself so tests observe in-transaction calls directly.
type mockPaymentStore struct {
	mock.Mock
}

func (m *mockPaymentStore) InTx(ctx context.Context, fn func(tx PaymentTx) error) error {
	return fn(m)
}

func (m *mockPaymentStore) Create(ctx context.Context, p *models.Payment) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockPaymentStore) Save(ctx context.Context, p *models.Payment) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockPaymentStore) FindByReference(ctx context.Context, reference string) (*models.Payment, error) {
	args := m.Called(ctx, reference)
	if p, ok := args.Get(0).(*models.Payment); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPaymentStore) ListStalePending(ctx context.Context, cutoff time.Time) ([]models.Payment, error) {
	args := m.Called(ctx, cutoff)
	if ps, ok := args.Get(0).([]models.Payment); ok {
		return ps, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPaymentStore) ListPendingWithChargeSince(ctx context.Context, since time.Time) ([]models.Payment, error) {
	args := m.Called(ctx, since)
	if ps, ok := args.Get(0).([]models.Payment); ok {
		return ps, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPaymentStore) LockByReference(ctx context.Context, reference string) (*models.Payment, error) {
	args := m.Called(ctx, reference)
	if p, ok := args.Get(0).(*models.Payment); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPaymentStore) GrantEnrollment(ctx context.Context, payerID, courseID uuid.UUID, paymentRef string) error {
	return m.Called(ctx, payerID, courseID, paymentRef).Error(0)
}

func (m *mockPaymentStore) CancelPendingEnrollment(ctx context.Context, paymentRef string) error {
	return m.Called(ctx, paymentRef).Error(0)
}

type mockPayoutStore struct {
	mock.Mock
}

func (m *mockPayoutStore) InTx(ctx context.Context, fn func(tx PayoutTx) error) error {
	return fn(m)
}

func (m *mockPayoutStore) Create(ctx context.Context, p *models.InstructorPayout) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockPayoutStore) FindByID(ctx context.Context, id uuid.UUID) (*models.InstructorPayout, error) {
	args := m.Called(ctx, id)
	if p, ok := args.Get(0).(*models.InstructorPayout); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPayoutStore) HasOverlappingPeriod(ctx context.Context, instructorID uuid.UUID, start, end time.Time) (bool, error) {
	args := m.Called(ctx, instructorID, start, end)
	return args.Bool(0), args.Error(1)
}

func (m *mockPayoutStore) ListByStatus(ctx context.Context, status models.PayoutStatus) ([]models.InstructorPayout, error) {
	args := m.Called(ctx, status)
	if ps, ok := args.Get(0).([]models.InstructorPayout); ok {
		return ps, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPayoutStore) ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]models.InstructorPayout, error) {
	args := m.Called(ctx, cutoff)
	if ps, ok := args.Get(0).([]models.InstructorPayout); ok {
		return ps, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPayoutStore) LockByID(ctx context.Context, id uuid.UUID) (*models.InstructorPayout, error) {
	args := m.Called(ctx, id)
	if p, ok := args.Get(0).(*models.InstructorPayout); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPayoutStore) Save(ctx context.Context, p *models.InstructorPayout) error {
	return m.Called(ctx, p).Error(0)
}

type mockBankAccounts struct {
	mock.Mock
}

func (m *mockBankAccounts) Create(ctx context.Context, a *models.InstructorBankAccount) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockBankAccounts) Save(ctx context.Context, a *models.InstructorBankAccount) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockBankAccounts) FindByInstructor(ctx context.Context, instructorID uuid.UUID) (*models.InstructorBankAccount, error) {
	args := m.Called(ctx, instructorID)
	if a, ok := args.Get(0).(*models.InstructorBankAccount); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBankAccounts) ListUnverified(ctx context.Context, maxAttempts int) ([]models.InstructorBankAccount, error) {
	args := m.Called(ctx, maxAttempts)
	if as, ok := args.Get(0).([]models.InstructorBankAccount); ok {
		return as, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockEarnings struct {
	mock.Mock
}

func (m *mockEarnings) CompletedPaymentsForInstructor(ctx context.Context, instructorID uuid.UUID, start, end time.Time, currency string) ([]models.Payment, error) {
	args := m.Called(ctx, instructorID, start, end, currency)
	if ps, ok := args.Get(0).([]models.Payment); ok {
		return ps, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockEarnings) InstructorsWithEarnings(ctx context.Context, start, end time.Time, currency string) ([]uuid.UUID, error) {
	args := m.Called(ctx, start, end, currency)
	if ids, ok := args.Get(0).([]uuid.UUID); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockRates struct {
	mock.Mock
}

func (m *mockRates) CurrentShareRate(ctx context.Context, at time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, at)
	if d, ok := args.Get(0).(decimal.Decimal); ok {
		return d, args.Error(1)
	}
	return decimal.Zero, args.Error(1)
}

// mockGateways covers GatewayResolver and TransferGatewaySource.
type mockGateways struct {
	mock.Mock
}

func (m *mockGateways) Resolve(name string) (payments.Gateway, error) {
	args := m.Called(name)
	if gw, ok := args.Get(0).(payments.Gateway); ok {
		return gw, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateways) Config(name string) (*models.PaymentGateway, bool) {
	args := m.Called(name)
	if cfg, ok := args.Get(0).(*models.PaymentGateway); ok {
		return cfg, args.Bool(1)
	}
	return nil, args.Bool(1)
}

func (m *mockGateways) TransferGateway() (payments.Gateway, error) {
	args := m.Called()
	if gw, ok := args.Get(0).(payments.Gateway); ok {
		return gw, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Name() string {
	return m.Called().String(0)
}

func (m *mockGateway) InitializeCharge(ctx context.Context, payment *models.Payment, customerEmail string) (*payments.ChargeHandle, error) {
	args := m.Called(ctx, payment, customerEmail)
	if h, ok := args.Get(0).(*payments.ChargeHandle); ok {
		return h, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) VerifyTransaction(ctx context.Context, reference string) (*payments.TransactionStatus, error) {
	args := m.Called(ctx, reference)
	if s, ok := args.Get(0).(*payments.TransactionStatus); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) InitiateTransfer(ctx context.Context, account *models.InstructorBankAccount, amount models.Money, transferRef, reason string) (*payments.TransferResult, error) {
	args := m.Called(ctx, account, amount, transferRef, reason)
	if r, ok := args.Get(0).(*payments.TransferResult); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) VerifyTransfer(ctx context.Context, transferRef string) (*payments.TransferResult, error) {
	args := m.Called(ctx, transferRef)
	if r, ok := args.Get(0).(*payments.TransferResult); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) ResolveAccount(ctx context.Context, accountNumber, bankCode string) (*payments.ResolvedAccount, error) {
	args := m.Called(ctx, accountNumber, bankCode)
	if a, ok := args.Get(0).(*payments.ResolvedAccount); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

// mockNotifier records events without asserting on them unless a test opts
// in via Events.
type mockNotifier struct {
	events []string
}

func (m *mockNotifier) Notify(ctx context.Context, event string, payload map[string]any) {
	m.events = append(m.events, event)
}
