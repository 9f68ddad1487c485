package possync

import (
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/models"
)

type SyncEventType string

const (
	SyncEventOnline  SyncEventType = "online"
	SyncEventOffline SyncEventType = "offline"
	SyncEventSyncing SyncEventType = "syncing"
	SyncEventSuccess SyncEventType = "success"
	SyncEventError   SyncEventType = "error"
)

// SyncEvent is one entry on the UI-facing status stream.
type SyncEvent struct {
	Type    SyncEventType `json:"type"`
	Message string        `json:"message"`
}

// ItemResult describes the outcome of replaying one queue item.
type ItemResult struct {
	QueueItemId string            `json:"queue_item_id"`
	EntityType  models.EntityType `json:"entity_type"`
	EntityId    string            `json:"entity_id"`
	Succeeded   bool              `json:"succeeded"`
	Evicted     bool              `json:"evicted"`
	RetryCount  int               `json:"retry_count"`
	Message     string            `json:"message,omitempty"`
}

// DrainSummary aggregates one drain pass. Evicted items are counted inside
// Failed as well: they are failures that will not be retried.
type DrainSummary struct {
	Succeeded  int          `json:"succeeded"`
	Failed     int          `json:"failed"`
	Evicted    int          `json:"evicted"`
	Details    []ItemResult `json:"details"`
	StartedAt  time.Time    `json:"started_at"`
	DurationMs int64        `json:"duration_ms"`
}

type SnapshotSource string

const (
	SnapshotSourceOnline  SnapshotSource = "online"
	SnapshotSourceOffline SnapshotSource = "offline"
)

// Snapshot is the loader's best-available view of every collection for one
// store scope. Collections that could not be fetched remotely fall back to
// the local cache; Source reports where the bulk came from.
type Snapshot struct {
	Source      SnapshotSource            `json:"source"`
	Collections map[models.EntityType]any `json:"collections"`
	Partial     bool                      `json:"partial"`
}
