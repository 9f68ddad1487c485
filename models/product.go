package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            string          `gorm:"primary_key;size:64" json:"id"`
	StoreId       string          `gorm:"index;not null" json:"store_id" binding:"required"`
	Name          string          `gorm:"size:255;not null" json:"name" binding:"required"`
	Sku           string          `gorm:"size:255" json:"sku"`
	Barcode       string          `gorm:"size:255" json:"barcode"`
	Description   string          `gorm:"type:text" json:"description"`
	SalesPrice    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sales_price"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"purchase_price"`
	StockOnHand   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"stock_on_hand"`
	IsActive      *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
