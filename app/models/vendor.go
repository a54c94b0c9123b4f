package models

import (
	"time"

	"gorm.io/gorm"
)

type Vendor struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	Name      string         `gorm:"type:varchar(200);not null" json:"name"`
	Email     string         `gorm:"type:varchar(200)" json:"email"`
	Phone     string         `gorm:"type:varchar(50)" json:"phone"`
	Trade     string         `gorm:"type:varchar(100)" json:"trade"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
