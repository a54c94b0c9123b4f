package identity

import (
	"context"

	"gorm.io/gorm"

	"github.com/buildsuitehq/BuildSuite/app/models"
)

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates an identity repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) FindProviderAccount(ctx context.Context, provider, providerUserID string) (*models.ProviderAccount, error) {
	var account models.ProviderAccount
	err := r.db.WithContext(ctx).
		Where("provider = ? AND provider_user_id = ?", provider, providerUserID).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *gormRepository) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) CreateProviderAccount(ctx context.Context, account *models.ProviderAccount) error {
	return r.db.WithContext(ctx).Create(account).Error
}
