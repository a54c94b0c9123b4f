package webhook

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/buildsuitehq/BuildSuite/app/models"
)

// EventRepository persists webhook idempotency records.
type EventRepository interface {
	Exists(ctx context.Context, eventID string) (bool, error)
	// RecordIfAbsent inserts the record unless the event id was already
	// seen; it reports whether this call created the row.
	RecordIfAbsent(ctx context.Context, event *models.WebhookEvent) (bool, error)
}

type gormEventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates an idempotency repository backed by GORM.
func NewEventRepository(db *gorm.DB) EventRepository {
	return &gormEventRepository{db: db}
}

func (r *gormEventRepository) Exists(ctx context.Context, eventID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.WebhookEvent{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	return count > 0, err
}

func (r *gormEventRepository) RecordIfAbsent(ctx context.Context, event *models.WebhookEvent) (bool, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}
