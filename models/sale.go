package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type SaleStatus string

const (
	SaleStatusCompleted SaleStatus = "COMPLETED"
	SaleStatusVoid      SaleStatus = "VOID"
)

type PaymentMode string

const (
	PaymentModeCash PaymentMode = "CASH"
	PaymentModeCard PaymentMode = "CARD"
	PaymentModeBank PaymentMode = "BANK"
)

type Sale struct {
	ID             string          `gorm:"primary_key;size:64" json:"id"`
	StoreId        string          `gorm:"index;not null" json:"store_id" binding:"required"`
	SaleNumber     string          `gorm:"size:255;not null" json:"sale_number"`
	CustomerId     string          `gorm:"index;size:64" json:"customer_id"`
	SaleDate       time.Time       `gorm:"not null" json:"sale_date"`
	PaymentMode    PaymentMode     `gorm:"size:16;not null;default:'CASH'" json:"payment_mode"`
	SubTotal       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sub_total"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	CurrentStatus  SaleStatus      `gorm:"size:16;not null;default:'COMPLETED'" json:"current_status"`
	Notes          string          `gorm:"type:text" json:"notes"`
	Items          []SaleItem      `gorm:"foreignKey:SaleId;references:ID" json:"items"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type SaleItem struct {
	ID        string          `gorm:"primary_key;size:64" json:"id"`
	SaleId    string          `gorm:"index;size:64;not null" json:"sale_id"`
	ProductId string          `gorm:"index;size:64" json:"product_id"`
	Name      string          `gorm:"size:255;not null" json:"name"`
	Qty       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"qty"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
}
