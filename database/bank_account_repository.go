package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chineduopara/coursepay/models"
	"github.com/chineduopara/coursepay/services"
)

// BankAccountRepo is the GORM implementation of
// services.BankAccountRepository.
type BankAccountRepo struct {
	db *gorm.DB
}

func NewBankAccountRepo(db *gorm.DB) *BankAccountRepo {
	return &BankAccountRepo{db: db}
}

func (r *BankAccountRepo) Create(ctx context.Context, a *models.InstructorBankAccount) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *BankAccountRepo) Save(ctx context.Context, a *models.InstructorBankAccount) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *BankAccountRepo) FindByInstructor(ctx context.Context, instructorID uuid.UUID) (*models.InstructorBankAccount, error) {
	var account models.InstructorBankAccount
	err := r.db.WithContext(ctx).
		Preload("Instructor").
		Where("instructor_id = ?", instructorID).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, services.ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *BankAccountRepo) ListUnverified(ctx context.Context, maxAttempts int) ([]models.InstructorBankAccount, error) {
	var accounts []models.InstructorBankAccount
	err := r.db.WithContext(ctx).
		Preload("Instructor").
		Where("is_verified = ? AND verification_attempts < ?", false, maxAttempts).
		Find(&accounts).Error
	return accounts, err
}

// WebhookEventRepo records every authenticated webhook for audit and
// database-side replay deduplication.
type WebhookEventRepo struct {
	db *gorm.DB
}

func NewWebhookEventRepo(db *gorm.DB) *WebhookEventRepo {
	return &WebhookEventRepo{db: db}
}

// Record inserts the audit row. Returns false when the (gateway, event)
// pair was already recorded, i.e. the delivery is a replay.
func (r *WebhookEventRepo) Record(ctx context.Context, evt *models.WebhookEvent) (bool, error) {
	if err := r.db.WithContext(ctx).Create(evt).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// FindByKey loads the audit row for a delivery that already exists, so a
// redelivery can be judged on whether the prior attempt finished cleanly.
func (r *WebhookEventRepo) FindByKey(ctx context.Context, gateway, eventKey string) (*models.WebhookEvent, error) {
	var evt models.WebhookEvent
	err := r.db.WithContext(ctx).
		Where("gateway = ? AND event_key = ?", gateway, eventKey).
		First(&evt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, services.ErrNotFound
		}
		return nil, err
	}
	return &evt, nil
}

// MarkProcessed stamps the outcome of an apply attempt. A nil processingErr
// clears any error left by an earlier failed attempt.
func (r *WebhookEventRepo) MarkProcessed(ctx context.Context, evt *models.WebhookEvent, processingErr error) {
	updates := map[string]any{"processed_at": gorm.Expr("NOW()"), "processing_error": nil}
	if processingErr != nil {
		updates["processing_error"] = processingErr.Error()
	}
	r.db.WithContext(ctx).Model(evt).Updates(updates)
}
