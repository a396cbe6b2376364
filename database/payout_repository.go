package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chineduopara/coursepay/models"
	"github.com/chineduopara/coursepay/services"
)

// PayoutRepo is the GORM implementation of services.PayoutRepository.
type PayoutRepo struct {
	db *gorm.DB
}

func NewPayoutRepo(db *gorm.DB) *PayoutRepo {
	return &PayoutRepo{db: db}
}

func (r *PayoutRepo) InTx(ctx context.Context, fn func(tx services.PayoutTx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&payoutTx{db: tx})
	})
}

func (r *PayoutRepo) Create(ctx context.Context, p *models.InstructorPayout) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return services.ErrOverlappingPeriod
		}
		return err
	}
	return nil
}

func (r *PayoutRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.InstructorPayout, error) {
	var payout models.InstructorPayout
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&payout).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, services.ErrNotFound
		}
		return nil, err
	}
	return &payout, nil
}

func (r *PayoutRepo) HasOverlappingPeriod(ctx context.Context, instructorID uuid.UUID, start, end time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.InstructorPayout{}).
		Where("instructor_id = ? AND period_start <= ? AND period_end >= ?", instructorID, end, start).
		Count(&count).Error
	return count > 0, err
}

func (r *PayoutRepo) ListByStatus(ctx context.Context, status models.PayoutStatus) ([]models.InstructorPayout, error) {
	var payouts []models.InstructorPayout
	err := r.db.WithContext(ctx).Where("status = ?", status).Find(&payouts).Error
	return payouts, err
}

func (r *PayoutRepo) ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]models.InstructorPayout, error) {
	var payouts []models.InstructorPayout
	err := r.db.WithContext(ctx).
		Preload("Instructor").
		Where("status = ? AND created_at < ?", models.PayoutStatusPending, cutoff).
		Find(&payouts).Error
	return payouts, err
}

type payoutTx struct {
	db *gorm.DB
}

func (t *payoutTx) LockByID(ctx context.Context, id uuid.UUID) (*models.InstructorPayout, error) {
	var payout models.InstructorPayout
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&payout).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, services.ErrNotFound
		}
		return nil, err
	}
	return &payout, nil
}

func (t *payoutTx) Save(ctx context.Context, p *models.InstructorPayout) error {
	return t.db.WithContext(ctx).Save(p).Error
}

// EarningsRepo is the read-only GORM view behind the payout calculator.
type EarningsRepo struct {
	db *gorm.DB
}

func NewEarningsRepo(db *gorm.DB) *EarningsRepo {
	return &EarningsRepo{db: db}
}

func (r *EarningsRepo) CompletedPaymentsForInstructor(ctx context.Context, instructorID uuid.UUID, start, end time.Time, currency string) ([]models.Payment, error) {
	var completed []models.Payment
	err := r.db.WithContext(ctx).
		Joins("JOIN courses ON courses.id = payments.course_id").
		Where("courses.instructor_id = ?", instructorID).
		Where("payments.status = ? AND payments.currency = ?", models.PaymentStatusCompleted, currency).
		Where("payments.paid_at BETWEEN ? AND ?", start, end).
		Find(&completed).Error
	return completed, err
}

func (r *EarningsRepo) InstructorsWithEarnings(ctx context.Context, start, end time.Time, currency string) ([]uuid.UUID, error) {
	var instructorIDs []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Distinct("courses.instructor_id").
		Joins("JOIN courses ON courses.id = payments.course_id").
		Where("payments.status = ? AND payments.currency = ?", models.PaymentStatusCompleted, currency).
		Where("payments.paid_at BETWEEN ? AND ?", start, end).
		Pluck("courses.instructor_id", &instructorIDs).Error
	return instructorIDs, err
}

// RatePolicyRepo resolves the versioned revenue-split rate.
type RatePolicyRepo struct {
	db *gorm.DB
}

func NewRatePolicyRepo(db *gorm.DB) *RatePolicyRepo {
	return &RatePolicyRepo{db: db}
}

func (r *RatePolicyRepo) CurrentShareRate(ctx context.Context, at time.Time) (decimal.Decimal, error) {
	var policy models.PayoutRatePolicy
	err := r.db.WithContext(ctx).
		Where("effective_from <= ?", at).
		Order("effective_from DESC").
		First(&policy).Error
	if err != nil {
		return decimal.Zero, err
	}
	return policy.InstructorShare, nil
}
