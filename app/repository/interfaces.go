package repository

import (
	"github.com/buildsuitehq/BuildSuite/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByCustomerID(customerID string) (*models.User, error)
	Update(user *models.User) error
	Count() (int64, error)
}

// InvoiceRepository defines the interface for invoice-related database operations
type InvoiceRepository interface {
	Create(invoice *models.Invoice) error
	GetByID(id uint) (*models.Invoice, error)
	GetByUUID(uuid string) (*models.Invoice, error)
	GetByUserID(userID uint, offset, limit int) ([]models.Invoice, error)
	Update(invoice *models.Invoice) error
	Delete(id uint) error
	CountByUserID(userID uint) (int64, error)
}

// ProjectRepository defines the interface for project-related database operations
type ProjectRepository interface {
	Create(project *models.Project) error
	GetByID(id uint) (*models.Project, error)
	GetByUserID(userID uint) ([]models.Project, error)
	Update(project *models.Project) error
	Delete(id uint) error
}

// VendorRepository defines the interface for vendor-related database operations
type VendorRepository interface {
	Create(vendor *models.Vendor) error
	GetByID(id uint) (*models.Vendor, error)
	GetByUserID(userID uint) ([]models.Vendor, error)
	Update(vendor *models.Vendor) error
	Delete(id uint) error
}

// Repositories bundles all repository instances
type Repositories struct {
	User    UserRepository
	Invoice InvoiceRepository
	Project ProjectRepository
	Vendor  VendorRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:    NewUserRepository(db),
		Invoice: NewInvoiceRepository(db),
		Project: NewProjectRepository(db),
		Vendor:  NewVendorRepository(db),
	}
}
