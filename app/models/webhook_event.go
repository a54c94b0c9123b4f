package models

import "time"

// WebhookEvent is the idempotency record for billing webhook deliveries.
// A row exists once per first-seen provider event id and is never mutated
// afterwards; redelivery of a recorded event id is acknowledged without
// reapplying effects.
type WebhookEvent struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	EventID     string    `gorm:"type:varchar(191);uniqueIndex;not null" json:"event_id"`
	EventType   string    `gorm:"type:varchar(100);not null;index" json:"event_type"`
	OutcomeHash string    `gorm:"type:varchar(64);not null" json:"outcome_hash"`
	ProcessedAt time.Time `gorm:"type:timestamp;not null" json:"processed_at"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}
