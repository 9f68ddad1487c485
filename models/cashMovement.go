package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CashDirection string

const (
	CashDirectionIn  CashDirection = "IN"
	CashDirectionOut CashDirection = "OUT"
)

// CashMovement is one register drawer movement. Sales paid in cash derive one
// automatically; manual drops/floats create them directly.
type CashMovement struct {
	ID          string          `gorm:"primary_key;size:64" json:"id"`
	StoreId     string          `gorm:"index;not null" json:"store_id" binding:"required"`
	Direction   CashDirection   `gorm:"size:8;not null" json:"direction"`
	Reason      string          `gorm:"size:255" json:"reason"`
	ReferenceId string          `gorm:"index;size:64" json:"reference_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	MovedAt     time.Time       `gorm:"not null" json:"moved_at"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
