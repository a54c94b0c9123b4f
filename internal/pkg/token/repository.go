package token

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/buildsuitehq/BuildSuite/app/models"
)

// Repository provides DB operations used by the token store.
type Repository interface {
	Insert(ctx context.Context, row *models.SessionToken) error
	FindByToken(ctx context.Context, token string) (*models.SessionToken, error)
	// MarkUsed flips used to true iff the row is still unused and unexpired.
	// The eligibility check and the flip are one conditional statement; it
	// reports whether this caller won the transition.
	MarkUsed(ctx context.Context, token string, now time.Time) (bool, error)
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a token repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Insert(ctx context.Context, row *models.SessionToken) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *gormRepository) FindByToken(ctx context.Context, token string) (*models.SessionToken, error) {
	var row models.SessionToken
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *gormRepository) MarkUsed(ctx context.Context, token string, now time.Time) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.SessionToken{}).
		Where("token = ? AND used = ?", token, false).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Update("used", true)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tx := r.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at < ?", cutoff).
		Delete(&models.SessionToken{})
	return tx.RowsAffected, tx.Error
}
