package possync

import (
	"context"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Engine wires the whole offline-first stack: local store, connectivity
// monitor, schema resolver, remote adapter, mutation coordinator, queue
// processor and fallback loader. The UI layer talks to this.
type Engine struct {
	Store       *models.LocalStore
	State       *AppState
	Monitor     *Monitor
	Adapter     *RemoteAdapter
	Coordinator *Coordinator
	Processor   *Processor
	Loader      *Loader
}

// NewEngine builds the engine on top of an opened local database. The session
// starts optimistically online; the first failed request flips it.
func NewEngine(db *gorm.DB, logger *logrus.Logger) (*Engine, error) {
	store := models.NewLocalStore(db)
	state := NewAppState()
	monitor := NewMonitor(true)

	adapter, err := NewRemoteAdapter(monitor, logger)
	if err != nil {
		return nil, err
	}

	cfg := config.GetSyncRetryConfig()

	return &Engine{
		Store:       store,
		State:       state,
		Monitor:     monitor,
		Adapter:     adapter,
		Coordinator: NewCoordinator(state, store, adapter, monitor, logger),
		Processor:   NewProcessor(store, adapter, monitor, logger, cfg),
		Loader:      NewLoader(store, adapter, monitor, logger),
	}, nil
}

// NumberOfQueuedItems is the pending-count query the UI polls for its
// "offline / pending N items" indicator.
func (e *Engine) NumberOfQueuedItems(ctx context.Context, storeId string) (int64, error) {
	return e.Store.CountQueued(ctx, storeId)
}

// ForceSyncNow is the manual drain entry point.
func (e *Engine) ForceSyncNow(ctx context.Context) (*DrainSummary, error) {
	return e.Processor.SyncNow(ctx)
}

// Run starts the periodic drain loop and blocks until ctx is done.
func (e *Engine) Run(ctx context.Context) {
	e.Processor.Run(ctx)
}

// Close releases subscriptions.
func (e *Engine) Close() {
	e.Processor.Close()
}
