package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		db: db,
	}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

// GetUserRepository returns the user repository instance
func (f *Factory) GetUserRepository() UserRepository {
	return f.GetRepositories().User
}

// GetInvoiceRepository returns the invoice repository instance
func (f *Factory) GetInvoiceRepository() InvoiceRepository {
	return f.GetRepositories().Invoice
}

// GetProjectRepository returns the project repository instance
func (f *Factory) GetProjectRepository() ProjectRepository {
	return f.GetRepositories().Project
}

// GetVendorRepository returns the vendor repository instance
func (f *Factory) GetVendorRepository() VendorRepository {
	return f.GetRepositories().Vendor
}
