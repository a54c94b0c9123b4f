package repository

import (
	"github.com/buildsuitehq/BuildSuite/app/models"
	"gorm.io/gorm"
)

// vendorRepository implements the VendorRepository interface
type vendorRepository struct {
	db *gorm.DB
}

// NewVendorRepository creates a new vendor repository instance
func NewVendorRepository(db *gorm.DB) VendorRepository {
	return &vendorRepository{db: db}
}

func (r *vendorRepository) Create(vendor *models.Vendor) error {
	return r.db.Create(vendor).Error
}

func (r *vendorRepository) GetByID(id uint) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := r.db.First(&vendor, id).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (r *vendorRepository) GetByUserID(userID uint) ([]models.Vendor, error) {
	var vendors []models.Vendor
	err := r.db.Where("user_id = ?", userID).Order("name ASC").Find(&vendors).Error
	return vendors, err
}

func (r *vendorRepository) Update(vendor *models.Vendor) error {
	return r.db.Save(vendor).Error
}

func (r *vendorRepository) Delete(id uint) error {
	return r.db.Delete(&models.Vendor{}, id).Error
}
