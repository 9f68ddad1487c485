package models

import (
	"fmt"

	"bitbucket.org/mmdatafocus/pos_backend/utils"
)

// EntityType identifies one locally mirrored domain collection. The value is
// also the remote collection segment in the resolved schema path.
type EntityType string

const (
	EntityTypeProduct      EntityType = "products"
	EntityTypeCustomer     EntityType = "customers"
	EntityTypeSale         EntityType = "sales"
	EntityTypeExpense      EntityType = "expenses"
	EntityTypeCashMovement EntityType = "cash_movements"
)

// AllEntityTypes lists every mirrored collection in drain-priority order.
var AllEntityTypes = []EntityType{
	EntityTypeSale,
	EntityTypeCashMovement,
	EntityTypeExpense,
	EntityTypeProduct,
	EntityTypeCustomer,
}

// DefaultQueuePriority maps entity types to the queue band they enqueue at.
// Money-bearing records drain first. Lower drains first.
func DefaultQueuePriority(entityType EntityType) int {
	switch entityType {
	case EntityTypeSale, EntityTypeCashMovement:
		return 1
	case EntityTypeExpense:
		return 2
	default:
		return 3
	}
}

func (e EntityType) Valid() bool {
	switch e {
	case EntityTypeProduct, EntityTypeCustomer, EntityTypeSale, EntityTypeExpense, EntityTypeCashMovement:
		return true
	}
	return false
}

// DecodeEntity unmarshals a raw snapshot into the typed model for entityType.
func DecodeEntity(entityType EntityType, raw []byte) (any, error) {
	switch entityType {
	case EntityTypeProduct:
		var v Product
		if err := utils.UnmarshalFromJSON(raw, &v); err != nil {
			return nil, err
		}
		return &v, nil
	case EntityTypeCustomer:
		var v Customer
		if err := utils.UnmarshalFromJSON(raw, &v); err != nil {
			return nil, err
		}
		return &v, nil
	case EntityTypeSale:
		var v Sale
		if err := utils.UnmarshalFromJSON(raw, &v); err != nil {
			return nil, err
		}
		return &v, nil
	case EntityTypeExpense:
		var v Expense
		if err := utils.UnmarshalFromJSON(raw, &v); err != nil {
			return nil, err
		}
		return &v, nil
	case EntityTypeCashMovement:
		var v CashMovement
		if err := utils.UnmarshalFromJSON(raw, &v); err != nil {
			return nil, err
		}
		return &v, nil
	}
	return nil, fmt.Errorf("unknown entity type %q", entityType)
}
