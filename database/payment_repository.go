package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chineduopara/coursepay/models"
	"github.com/chineduopara/coursepay/services"
)

// PaymentRepo is the GORM implementation of services.PaymentRepository.
// Same-reference serialization comes from SELECT ... FOR UPDATE inside
// InTx; different references proceed in parallel.
type PaymentRepo struct {
	db *gorm.DB
}

func NewPaymentRepo(db *gorm.DB) *PaymentRepo {
	return &PaymentRepo{db: db}
}

func (r *PaymentRepo) InTx(ctx context.Context, fn func(tx services.PaymentTx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&paymentTx{db: tx})
	})
}

func (r *PaymentRepo) Create(ctx context.Context, p *models.Payment) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return services.ErrDuplicateReference
		}
		return err
	}
	return nil
}

func (r *PaymentRepo) Save(ctx context.Context, p *models.Payment) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *PaymentRepo) FindByReference(ctx context.Context, reference string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, services.ErrUnknownReference
		}
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepo) ListStalePending(ctx context.Context, cutoff time.Time) ([]models.Payment, error) {
	var stale []models.Payment
	err := r.db.WithContext(ctx).
		Where("status = ? AND initiated_at < ?", models.PaymentStatusPending, cutoff).
		Find(&stale).Error
	return stale, err
}

func (r *PaymentRepo) ListPendingWithChargeSince(ctx context.Context, since time.Time) ([]models.Payment, error) {
	var pending []models.Payment
	err := r.db.WithContext(ctx).
		Where("status = ? AND charge_handle IS NOT NULL AND initiated_at >= ?", models.PaymentStatusPending, since).
		Find(&pending).Error
	return pending, err
}

type paymentTx struct {
	db *gorm.DB
}

func (t *paymentTx) LockByReference(ctx context.Context, reference string) (*models.Payment, error) {
	var payment models.Payment
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("reference = ?", reference).
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, services.ErrUnknownReference
		}
		return nil, err
	}
	return &payment, nil
}

func (t *paymentTx) Save(ctx context.Context, p *models.Payment) error {
	return t.db.WithContext(ctx).Save(p).Error
}

func (t *paymentTx) GrantEnrollment(ctx context.Context, payerID, courseID uuid.UUID, paymentRef string) error {
	var enrollment models.Enrollment
	err := t.db.WithContext(ctx).Where("payment_reference = ?", paymentRef).First(&enrollment).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		now := time.Now()
		enrollment = models.Enrollment{
			UserID:           payerID,
			CourseID:         courseID,
			PaymentReference: paymentRef,
			Status:           models.EnrollmentStatusActive,
			ActivatedAt:      &now,
		}
		return t.db.WithContext(ctx).Create(&enrollment).Error
	case err != nil:
		return err
	}

	// Replays land here; an already-active enrollment stays untouched.
	if enrollment.Status == models.EnrollmentStatusActive {
		return nil
	}
	now := time.Now()
	enrollment.Status = models.EnrollmentStatusActive
	enrollment.ActivatedAt = &now
	return t.db.WithContext(ctx).Save(&enrollment).Error
}

func (t *paymentTx) CancelPendingEnrollment(ctx context.Context, paymentRef string) error {
	now := time.Now()
	return t.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("payment_reference = ? AND status = ?", paymentRef, models.EnrollmentStatusPending).
		Updates(map[string]any{"status": models.EnrollmentStatusCancelled, "cancelled_at": now}).
		Error
}
