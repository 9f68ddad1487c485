package possync

import (
	"context"
	"errors"
	"testing"

	"bitbucket.org/mmdatafocus/pos_backend/models"
	"github.com/shopspring/decimal"
)

func TestLoadSnapshot_OnlineFetchesAndCachesEveryCollection(t *testing.T) {
	store := newTestStore(t)
	remote := newFakeRemote()
	remote.seed(models.EntityTypeProduct, "prod-1", []byte(`{"id":"prod-1","store_id":"store-1","name":"Beans","stock_on_hand":"12"}`))
	remote.seed(models.EntityTypeCustomer, "c-1", []byte(`{"id":"c-1","store_id":"store-1","name":"Aye"}`))

	l := NewLoader(store, remote, NewMonitor(true), nil)
	snap := l.LoadSnapshot(context.Background(), "store-1")

	if snap.Source != SnapshotSourceOnline || snap.Partial {
		t.Fatalf("expected full online snapshot, got %+v", snap)
	}
	products := snap.Collections[models.EntityTypeProduct].([]any)
	if len(products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(products))
	}
	if got := products[0].(*models.Product).StockOnHand; !got.Equal(decimal.NewFromInt(12)) {
		t.Fatalf("expected decoded stock 12, got %s", got)
	}

	// Remote records are written back to the local cache.
	if _, err := store.Get(context.Background(), models.EntityTypeCustomer, "c-1"); err != nil {
		t.Fatalf("customer not cached: %v", err)
	}
}

func TestLoadSnapshot_PartialFailureFallsBackToCachePerCollection(t *testing.T) {
	store := newTestStore(t)
	remote := newFakeRemote()
	remote.seed(models.EntityTypeCustomer, "c-1", []byte(`{"id":"c-1","store_id":"store-1","name":"Aye"}`))
	remote.fetchErrs[models.EntityTypeProduct] = errors.New("remote read failed: 500")

	// Cached product from a previous session.
	if err := store.Put(context.Background(), models.EntityTypeProduct, &models.Product{
		ID: "prod-cached", StoreId: "store-1", Name: "Cached Beans",
	}); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	l := NewLoader(store, remote, NewMonitor(true), nil)
	snap := l.LoadSnapshot(context.Background(), "store-1")

	if snap.Source != SnapshotSourceOnline || !snap.Partial {
		t.Fatalf("expected partial online snapshot, got %+v", snap)
	}
	customers := snap.Collections[models.EntityTypeCustomer].([]any)
	if len(customers) != 1 {
		t.Fatalf("healthy collection blanked out: %+v", snap.Collections)
	}
	products := snap.Collections[models.EntityTypeProduct].([]models.Product)
	if len(products) != 1 || products[0].ID != "prod-cached" {
		t.Fatalf("expected cached product fallback, got %+v", products)
	}
}

func TestLoadSnapshot_TotalRemoteFailureBecomesOfflineSnapshot(t *testing.T) {
	store := newTestStore(t)
	remote := newFakeRemote()
	for _, et := range models.AllEntityTypes {
		remote.fetchErrs[et] = errors.New("remote read failed: timeout")
	}

	if err := store.Put(context.Background(), models.EntityTypeProduct, &models.Product{
		ID: "prod-cached", StoreId: "store-1", Name: "Cached Beans",
	}); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	l := NewLoader(store, remote, NewMonitor(true), nil)
	snap := l.LoadSnapshot(context.Background(), "store-1")

	if snap.Source != SnapshotSourceOffline {
		t.Fatalf("total remote failure should fall back to offline, got %+v", snap)
	}
	products := snap.Collections[models.EntityTypeProduct].([]models.Product)
	if len(products) != 1 {
		t.Fatalf("expected cached product in offline snapshot, got %+v", products)
	}
}

func TestLoadSnapshot_OfflineReadsCacheWithoutTouchingRemote(t *testing.T) {
	store := newTestStore(t)
	remote := newFakeRemote()

	_ = store.Put(context.Background(), models.EntityTypeCustomer, &models.Customer{
		ID: "c-1", StoreId: "store-1", Name: "Aye",
	})

	l := NewLoader(store, remote, NewMonitor(false), nil)
	snap := l.LoadSnapshot(context.Background(), "store-1")

	if snap.Source != SnapshotSourceOffline {
		t.Fatalf("expected offline source, got %s", snap.Source)
	}
	customers := snap.Collections[models.EntityTypeCustomer].([]models.Customer)
	if len(customers) != 1 || customers[0].ID != "c-1" {
		t.Fatalf("expected cached customer, got %+v", customers)
	}
	remote.mu.Lock()
	defer remote.mu.Unlock()
	if remote.probeCalls != 0 {
		t.Fatal("offline load must not probe the remote")
	}
}
