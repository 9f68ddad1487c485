package models

import (
	"context"
	"errors"
	"fmt"

	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LocalStore is the durable device-local mirror: one table per entity type
// plus the sync queue. It survives process restarts and is the only component
// that writes sqlite. All failures surface as ErrStorageUnavailable so
// callers can degrade to session-only durability instead of crashing.
type LocalStore struct {
	DB *gorm.DB
}

func NewLocalStore(db *gorm.DB) *LocalStore {
	return &LocalStore{DB: db}
}

func storageErr(err error) error {
	return fmt.Errorf("%w: %v", utils.ErrStorageUnavailable, err)
}

// Put upserts one cached entity, keyed by its id. Replaying the same snapshot
// is a no-op beyond refreshing updated_at; replaying a changed snapshot
// replaces the cached row wholesale, line items included.
func (s *LocalStore) Put(ctx context.Context, entityType EntityType, entity any) error {
	if !entityType.Valid() {
		return fmt.Errorf("unknown entity type %q", entityType)
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return putEntity(tx, entityType, entity)
	})
	if err != nil {
		return storageErr(err)
	}
	return nil
}

// putEntity is the shared upsert body. Sales carry their line items as an
// association, and gorm's upsert clause covers only the parent row, so the
// items are replaced explicitly: the snapshot is the whole truth, stale lines
// must not survive a replay.
func putEntity(tx *gorm.DB, entityType EntityType, entity any) error {
	if entityType != EntityTypeSale {
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(entity).Error
	}

	var sale *Sale
	switch v := entity.(type) {
	case *Sale:
		sale = v
	case Sale:
		sale = &v
	default:
		return fmt.Errorf("sale snapshot has unexpected type %T", entity)
	}

	if err := tx.Omit("Items").
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(sale).Error; err != nil {
		return err
	}
	if err := tx.Where("sale_id = ?", sale.ID).Delete(&SaleItem{}).Error; err != nil {
		return err
	}
	if len(sale.Items) == 0 {
		return nil
	}
	return tx.Create(&sale.Items).Error
}

// GetAll returns every cached entity of entityType scoped to storeId. Order is
// unspecified; callers sort when they care.
func (s *LocalStore) GetAll(ctx context.Context, entityType EntityType, storeId string) (any, error) {
	db := s.DB.WithContext(ctx).Where("store_id = ?", storeId)

	switch entityType {
	case EntityTypeProduct:
		var out []Product
		if err := db.Find(&out).Error; err != nil {
			return nil, storageErr(err)
		}
		return out, nil
	case EntityTypeCustomer:
		var out []Customer
		if err := db.Find(&out).Error; err != nil {
			return nil, storageErr(err)
		}
		return out, nil
	case EntityTypeSale:
		var out []Sale
		if err := db.Preload("Items").Find(&out).Error; err != nil {
			return nil, storageErr(err)
		}
		return out, nil
	case EntityTypeExpense:
		var out []Expense
		if err := db.Find(&out).Error; err != nil {
			return nil, storageErr(err)
		}
		return out, nil
	case EntityTypeCashMovement:
		var out []CashMovement
		if err := db.Find(&out).Error; err != nil {
			return nil, storageErr(err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown entity type %q", entityType)
}

// Get returns one cached entity by id, or ErrorRecordNotFound.
func (s *LocalStore) Get(ctx context.Context, entityType EntityType, id string) (any, error) {
	db := s.DB.WithContext(ctx).Where("id = ?", id)

	var (
		out any
		err error
	)
	switch entityType {
	case EntityTypeProduct:
		var v Product
		err = db.First(&v).Error
		out = &v
	case EntityTypeCustomer:
		var v Customer
		err = db.First(&v).Error
		out = &v
	case EntityTypeSale:
		var v Sale
		err = db.Preload("Items").First(&v).Error
		out = &v
	case EntityTypeExpense:
		var v Expense
		err = db.First(&v).Error
		out = &v
	case EntityTypeCashMovement:
		var v CashMovement
		err = db.First(&v).Error
		out = &v
	default:
		return nil, fmt.Errorf("unknown entity type %q", entityType)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, storageErr(err)
	}
	return out, nil
}

// Enqueue durably appends one queue item.
func (s *LocalStore) Enqueue(ctx context.Context, item *SyncQueueItem) error {
	if err := s.DB.WithContext(ctx).Create(item).Error; err != nil {
		return storageErr(err)
	}
	return nil
}

// PutWithQueue writes the entity cache row and its queue item in a single
// transaction: both land or neither does. This is what keeps a crash between
// "saved the sale" and "queued its sync" from orphaning either side.
func (s *LocalStore) PutWithQueue(ctx context.Context, entityType EntityType, entity any, item *SyncQueueItem) error {
	if !entityType.Valid() {
		return fmt.Errorf("unknown entity type %q", entityType)
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := putEntity(tx, entityType, entity); err != nil {
			return err
		}
		return tx.Create(item).Error
	})
	if err != nil {
		return storageErr(err)
	}
	return nil
}

// DequeueAll returns the full queue: lowest priority number first, oldest
// first within a priority band. FIFO fairness per entity type follows from
// created_at ordering.
func (s *LocalStore) DequeueAll(ctx context.Context) ([]SyncQueueItem, error) {
	var items []SyncQueueItem
	err := s.DB.WithContext(ctx).
		Order("priority ASC, created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, storageErr(err)
	}
	return items, nil
}

// QueuedItems returns the pending queue scoped to one store, in drain order.
func (s *LocalStore) QueuedItems(ctx context.Context, storeId string) ([]SyncQueueItem, error) {
	var items []SyncQueueItem
	err := s.DB.WithContext(ctx).
		Where("store_id = ?", storeId).
		Order("priority ASC, created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, storageErr(err)
	}
	return items, nil
}

// Remove deletes one queue entry after a successful replay (or eviction).
func (s *LocalStore) Remove(ctx context.Context, queueItemId string) error {
	err := s.DB.WithContext(ctx).
		Where("id = ?", queueItemId).
		Delete(&SyncQueueItem{}).Error
	if err != nil {
		return storageErr(err)
	}
	return nil
}

// IncrementRetry bumps retry_count, records the failure message and refreshes
// updated_at. Returns the new retry count.
func (s *LocalStore) IncrementRetry(ctx context.Context, queueItemId string, lastError string) (int, error) {
	db := s.DB.WithContext(ctx)

	err := db.Model(&SyncQueueItem{}).
		Where("id = ?", queueItemId).
		Updates(map[string]interface{}{
			"retry_count": gorm.Expr("retry_count + 1"),
			"last_error":  &lastError,
		}).Error
	if err != nil {
		return 0, storageErr(err)
	}

	var item SyncQueueItem
	if err := db.Select("id,retry_count").Where("id = ?", queueItemId).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, utils.ErrorRecordNotFound
		}
		return 0, storageErr(err)
	}
	return item.RetryCount, nil
}

// CountQueued is the pending-count surface the UI polls.
func (s *LocalStore) CountQueued(ctx context.Context, storeId string) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).
		Model(&SyncQueueItem{}).
		Where("store_id = ?", storeId).
		Count(&n).Error
	if err != nil {
		return 0, storageErr(err)
	}
	return n, nil
}
