package models

import "time"

// SyncQueueItem is one deferred mutation: the full entity snapshot taken at
// enqueue time, waiting for replay against the remote service. Created when a
// remote write fails or is skipped while offline; removed on successful
// replay or when retry_count reaches the configured maximum (eviction).
type SyncQueueItem struct {
	ID          string     `gorm:"primary_key;size:64" json:"id"`
	StoreId     string     `gorm:"index;not null" json:"store_id"`
	EntityType  EntityType `gorm:"size:32;not null" json:"entity_type"`
	EntityId    string     `gorm:"index;size:64;not null" json:"entity_id"`
	PayloadJSON []byte     `gorm:"type:json;not null" json:"payload"`
	Priority    int        `gorm:"index:idx_sync_queue_order,priority:1;not null;default:3" json:"priority"`
	RetryCount  int        `gorm:"not null;default:0" json:"retry_count"`
	LastError   *string    `gorm:"type:text" json:"last_error"`
	CreatedAt   time.Time  `gorm:"index:idx_sync_queue_order,priority:2;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
