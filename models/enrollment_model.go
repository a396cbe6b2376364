package models

import (
	"time"

	"github.com/google/uuid"
)

type EnrollmentStatus string

const (
	EnrollmentStatusPending   EnrollmentStatus = "pending"
	EnrollmentStatusActive    EnrollmentStatus = "active"
	EnrollmentStatusCancelled EnrollmentStatus = "cancelled"
)

// Enrollment ties a student to a course, 1:1 with the payment that funded
// it. Activated in the same transaction that completes the payment.
type Enrollment struct {
	ID               uuid.UUID        `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID           uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	CourseID         uuid.UUID        `gorm:"type:uuid;not null;index" json:"course_id"`
	PaymentReference string           `gorm:"size:100;not null;unique" json:"payment_reference"`
	Status           EnrollmentStatus `gorm:"size:20;not null;default:'pending'" json:"status"`

	ActivatedAt *time.Time `json:"activated_at"`
	CancelledAt *time.Time `json:"cancelled_at"`

	User   User   `gorm:"foreignkey:UserID" json:"-"`
	Course Course `gorm:"foreignkey:CourseID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
