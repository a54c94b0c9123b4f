package models

import (
	"time"

	"gorm.io/gorm"
)

type Project struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"not null;index" json:"user_id"`
	Name        string         `gorm:"type:varchar(200);not null" json:"name"`
	Address     string         `gorm:"type:varchar(255)" json:"address"`
	BudgetCents int64          `gorm:"not null;default:0" json:"budget_cents"`
	Active      bool           `gorm:"not null;default:true;index" json:"active"`
	StartedAt   *time.Time     `gorm:"type:timestamp;default:null" json:"started_at,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
