package repository

import (
	"github.com/buildsuitehq/BuildSuite/app/models"
	"gorm.io/gorm"
)

// invoiceRepository implements the InvoiceRepository interface
type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository instance
func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(invoice *models.Invoice) error {
	return r.db.Create(invoice).Error
}

func (r *invoiceRepository) GetByID(id uint) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.First(&invoice, id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) GetByUUID(uuid string) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.Where("uuid = ?", uuid).First(&invoice).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) GetByUserID(userID uint, offset, limit int) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepository) Update(invoice *models.Invoice) error {
	return r.db.Save(invoice).Error
}

func (r *invoiceRepository) Delete(id uint) error {
	return r.db.Delete(&models.Invoice{}, id).Error
}

func (r *invoiceRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Invoice{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
