package ledger

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/buildsuitehq/BuildSuite/app/models"
)

// Repository provides DB operations used by the ledger service. Every
// mutation goes through an optimistic conditional primitive; nothing holds a
// lock across statements.
type Repository interface {
	GetByCustomer(ctx context.Context, customerID string) (*models.Subscription, error)
	// CreateIfAbsent inserts the first row for a customer. It reports false
	// when another writer created the row concurrently.
	CreateIfAbsent(ctx context.Context, sub *models.Subscription) (bool, error)
	// UpdateVersioned applies the new state iff the stored version still
	// equals expectedVersion, bumping version by one. Reports whether this
	// writer won.
	UpdateVersioned(ctx context.Context, sub *models.Subscription, expectedVersion int64) (bool, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a ledger repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetByCustomer(ctx context.Context, customerID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).Where("customer_id = ?", customerID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) CreateIfAbsent(ctx context.Context, sub *models.Subscription) (bool, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "customer_id"}},
		DoNothing: true,
	}).Create(sub)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) UpdateVersioned(ctx context.Context, sub *models.Subscription, expectedVersion int64) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("customer_id = ? AND version = ?", sub.CustomerID, expectedVersion).
		Updates(map[string]interface{}{
			"status":                   sub.Status,
			"plan_tier":                sub.PlanTier,
			"current_period_end":       sub.CurrentPeriodEnd,
			"external_subscription_id": sub.ExternalSubscriptionID,
			"last_event_seq":           sub.LastEventSeq,
			"version":                  expectedVersion + 1,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}
