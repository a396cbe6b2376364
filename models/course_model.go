package models

import (
	"time"

	"github.com/google/uuid"
)

// Course is the boundary projection of the catalog service: just enough to
// know who owns a course and what it costs. Content management lives
// elsewhere.
type Course struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	InstructorID uuid.UUID `gorm:"type:uuid;not null;index" json:"instructor_id"`
	Price        Money     `gorm:"embedded;embeddedPrefix:price_" json:"price"`
	IsPublished  bool      `gorm:"default:true" json:"is_published"`

	Instructor User `gorm:"foreignkey:InstructorID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
