package possync

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *models.LocalStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.Product{}, &models.Customer{}, &models.Sale{}, &models.SaleItem{},
		&models.Expense{}, &models.CashMovement{}, &models.SyncQueueItem{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return models.NewLocalStore(db)
}

func fastRetryConfig(maxRetries int) config.SyncRetryConfig {
	return config.SyncRetryConfig{
		MaxRetries:    maxRetries,
		ProbeAttempts: 1,
		BaseBackoff:   1,
		MaxBackoff:    1,
	}
}

// fakeRemote is an in-memory stand-in for the remote adapter. Upserts land in
// records keyed by entity id; failures are scripted per entity id or
// globally.
type fakeRemote struct {
	mu sync.Mutex

	records     map[models.EntityType]map[string][]byte
	upsertOrder []string
	upsertCalls int
	probeCalls  int

	failIds   map[string]bool
	failAll   bool
	probeErr  error
	fetchErrs map[models.EntityType]error
	probeGate chan struct{}
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		records:   map[models.EntityType]map[string][]byte{},
		failIds:   map[string]bool{},
		fetchErrs: map[models.EntityType]error{},
	}
}

func (f *fakeRemote) FetchAll(ctx context.Context, entityType models.EntityType, storeId string) ([]json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fetchErrs[entityType]; err != nil {
		return nil, err
	}
	out := []json.RawMessage{}
	for _, raw := range f.records[entityType] {
		out = append(out, json.RawMessage(raw))
	}
	return out, nil
}

func (f *fakeRemote) Upsert(ctx context.Context, entityType models.EntityType, entityId string, snapshot []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upsertCalls++
	f.upsertOrder = append(f.upsertOrder, entityId)
	if f.failAll || f.failIds[entityId] {
		return errors.New("remote write failed: simulated")
	}
	byId := f.records[entityType]
	if byId == nil {
		byId = map[string][]byte{}
		f.records[entityType] = byId
	}
	byId[entityId] = append([]byte(nil), snapshot...)
	return nil
}

func (f *fakeRemote) Delete(ctx context.Context, entityType models.EntityType, entityId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records[entityType], entityId)
	return nil
}

func (f *fakeRemote) Probe(ctx context.Context) error {
	f.mu.Lock()
	gate := f.probeGate
	f.probeCalls++
	err := f.probeErr
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return err
}

func (f *fakeRemote) record(entityType models.EntityType, entityId string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.records[entityType][entityId]
	return raw, ok
}

func (f *fakeRemote) recordCount(entityType models.EntityType) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records[entityType])
}

func (f *fakeRemote) seed(entityType models.EntityType, entityId string, raw []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	byId := f.records[entityType]
	if byId == nil {
		byId = map[string][]byte{}
		f.records[entityType] = byId
	}
	byId[entityId] = raw
}
