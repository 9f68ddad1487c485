package models

import "time"

type Customer struct {
	ID        string    `gorm:"primary_key;size:64" json:"id"`
	StoreId   string    `gorm:"index;not null" json:"store_id" binding:"required"`
	Name      string    `gorm:"size:255;not null" json:"name" binding:"required"`
	Email     string    `gorm:"size:255" json:"email"`
	Phone     string    `gorm:"size:64" json:"phone"`
	Mobile    string    `gorm:"size:64" json:"mobile"`
	Notes     string    `gorm:"type:text" json:"notes"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
