package models

import (
	"time"

	"github.com/google/uuid"
)

// WebhookEvent is the audit record for every inbound gateway webhook that
// passed signature verification. The unique (gateway, event key) pair backs
// replay deduplication alongside the Redis fast path.
type WebhookEvent struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Gateway  string    `gorm:"size:50;not null;uniqueIndex:ux_webhook_gateway_event,priority:1" json:"gateway"`
	EventKey string    `gorm:"size:255;not null;uniqueIndex:ux_webhook_gateway_event,priority:2" json:"event_key"`

	EventType string `gorm:"size:100;not null" json:"event_type"`
	Reference string `gorm:"size:100;index" json:"reference"`
	Payload   string `gorm:"type:text;not null" json:"-"`

	ProcessedAt     *time.Time `json:"processed_at"`
	ProcessingError *string    `gorm:"type:text" json:"processing_error"`

	CreatedAt time.Time `json:"created_at"`
}
