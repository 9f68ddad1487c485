package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Expense struct {
	ID            string          `gorm:"primary_key;size:64" json:"id"`
	StoreId       string          `gorm:"index;not null" json:"store_id" binding:"required"`
	ExpenseNumber string          `gorm:"size:255;not null" json:"expense_number"`
	Category      string          `gorm:"size:255" json:"category"`
	ExpenseDate   time.Time       `gorm:"not null" json:"expense_date"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	Notes         string          `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
