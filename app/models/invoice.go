package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	InvoiceStatusDraft   = "draft"
	InvoiceStatusSent    = "sent"
	InvoiceStatusPaid    = "paid"
	InvoiceStatusOverdue = "overdue"
)

type Invoice struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UUID        string         `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	UserID      uint           `gorm:"not null;index" json:"user_id"`
	ProjectID   uint           `gorm:"index" json:"project_id"`
	VendorID    uint           `gorm:"index" json:"vendor_id"`
	Number      string         `gorm:"type:varchar(50);not null" json:"number"`
	Status      string         `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	AmountCents int64          `gorm:"not null;default:0" json:"amount_cents"`
	Currency    string         `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	DueDate     *time.Time     `gorm:"type:timestamp;default:null" json:"due_date,omitempty"`
	Notes       string         `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
