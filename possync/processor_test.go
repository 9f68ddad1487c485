package possync

import (
	"context"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/models"
)

func enqueueTestItem(t *testing.T, store *models.LocalStore, id, entityId string) {
	t.Helper()
	err := store.Enqueue(context.Background(), &models.SyncQueueItem{
		ID:          id,
		StoreId:     "store-1",
		EntityType:  models.EntityTypeSale,
		EntityId:    entityId,
		PayloadJSON: []byte(`{"id":"` + entityId + `"}`),
		Priority:    1,
	})
	if err != nil {
		t.Fatalf("enqueue %s: %v", id, err)
	}
}

func TestDrain_EmptiesQueueUnderFullConnectivity(t *testing.T) {
	store := newTestStore(t)
	remote := newFakeRemote()
	monitor := NewMonitor(true)
	p := NewProcessor(store, remote, monitor, nil, fastRetryConfig(3))
	defer p.Close()

	for i := 0; i < 5; i++ {
		enqueueTestItem(t, store, "q-"+string(rune('a'+i)), "sale-"+string(rune('a'+i)))
	}

	summary, err := p.SyncNow(context.Background())
	if err != nil {
		t.Fatalf("sync now: %v", err)
	}
	if summary.Succeeded != 5 || summary.Failed != 0 {
		t.Fatalf("expected 5 succeeded, got %+v", summary)
	}

	n, _ := store.CountQueued(context.Background(), "store-1")
	if n != 0 {
		t.Fatalf("expected empty queue, got %d", n)
	}
	if remote.recordCount(models.EntityTypeSale) != 5 {
		t.Fatalf("expected 5 remote records, got %d", remote.recordCount(models.EntityTypeSale))
	}
}

func TestDrain_FailedItemDoesNotBlockRest(t *testing.T) {
	store := newTestStore(t)
	remote := newFakeRemote()
	remote.failIds["sale-b"] = true
	monitor := NewMonitor(true)
	p := NewProcessor(store, remote, monitor, nil, fastRetryConfig(10))
	defer p.Close()

	enqueueTestItem(t, store, "q-a", "sale-a")
	enqueueTestItem(t, store, "q-b", "sale-b")
	enqueueTestItem(t, store, "q-c", "sale-c")

	summary, err := p.SyncNow(context.Background())
	if err != nil {
		t.Fatalf("sync now: %v", err)
	}
	if summary.Succeeded != 2 || summary.Failed != 1 {
		t.Fatalf("expected 2 ok / 1 failed, got %+v", summary)
	}

	// sale-c must have been attempted after sale-b failed.
	attempted := map[string]bool{}
	for _, id := range remote.upsertOrder {
		attempted[id] = true
	}
	if !attempted["sale-c"] {
		t.Fatal("item after the failing one was not attempted")
	}

	n, _ := store.CountQueued(context.Background(), "store-1")
	if n != 1 {
		t.Fatalf("expected only the failed item queued, got %d", n)
	}
}

func TestDrain_EvictsPoisonAfterExactlyMaxRetries(t *testing.T) {
	store := newTestStore(t)
	remote := newFakeRemote()
	remote.failIds["sale-poison"] = true
	monitor := NewMonitor(true)
	const maxRetries = 3
	p := NewProcessor(store, remote, monitor, nil, fastRetryConfig(maxRetries))
	defer p.Close()

	enqueueTestItem(t, store, "q-poison", "sale-poison")
	ctx := context.Background()

	for pass := 1; pass <= maxRetries; pass++ {
		summary, err := p.SyncNow(ctx)
		if err != nil {
			t.Fatalf("pass %d: %v", pass, err)
		}
		n, _ := store.CountQueued(ctx, "store-1")
		if pass < maxRetries {
			if n != 1 {
				t.Fatalf("pass %d: item evicted too early", pass)
			}
			if summary.Evicted != 0 {
				t.Fatalf("pass %d: unexpected eviction in summary", pass)
			}
		} else {
			if n != 0 {
				t.Fatalf("pass %d: item should be evicted, still queued", pass)
			}
			if summary.Evicted != 1 || len(summary.Details) != 1 || !summary.Details[0].Evicted {
				t.Fatalf("eviction not reported: %+v", summary)
			}
		}
	}
}

func TestDrain_ProbeFailureAbortsWithoutConsumingQueue(t *testing.T) {
	store := newTestStore(t)
	remote := newFakeRemote()
	remote.probeErr = context.DeadlineExceeded
	monitor := NewMonitor(true)
	p := NewProcessor(store, remote, monitor, nil, fastRetryConfig(3))
	defer p.Close()

	enqueueTestItem(t, store, "q-a", "sale-a")

	if _, err := p.SyncNow(context.Background()); err == nil {
		t.Fatal("expected probe failure to abort the pass")
	}
	if remote.upsertCalls != 0 {
		t.Fatalf("queue was consumed despite failed probes: %d upserts", remote.upsertCalls)
	}
	n, _ := store.CountQueued(context.Background(), "store-1")
	if n != 1 {
		t.Fatalf("expected untouched queue, got %d", n)
	}
}

func TestDrain_ConcurrentTriggersCollapse(t *testing.T) {
	store := newTestStore(t)
	remote := newFakeRemote()
	remote.probeGate = make(chan struct{})
	monitor := NewMonitor(true)
	p := NewProcessor(store, remote, monitor, nil, fastRetryConfig(3))
	defer p.Close()

	done := make(chan struct{})
	go func() {
		_, _ = p.SyncNow(context.Background())
		close(done)
	}()

	// Wait for the first pass to be inside its probe.
	deadline := time.After(2 * time.Second)
	for {
		remote.mu.Lock()
		started := remote.probeCalls > 0
		remote.mu.Unlock()
		if started {
			break
		}
		select {
		case <-deadline:
			t.Fatal("first drain never started probing")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	summary, err := p.SyncNow(context.Background())
	if err != nil || summary != nil {
		t.Fatalf("expected second trigger to be skipped, got %+v, %v", summary, err)
	}

	close(remote.probeGate)
	<-done
}

func TestDrain_MixedOutcomeReportsDetailList(t *testing.T) {
	store := newTestStore(t)
	remote := newFakeRemote()
	remote.failIds["sale-bad"] = true
	monitor := NewMonitor(true)
	p := NewProcessor(store, remote, monitor, nil, fastRetryConfig(1))
	defer p.Close()

	enqueueTestItem(t, store, "q-good", "sale-good")
	enqueueTestItem(t, store, "q-bad", "sale-bad")

	summary, err := p.SyncNow(context.Background())
	if err != nil {
		t.Fatalf("sync now: %v", err)
	}
	if summary.Succeeded != 1 || summary.Failed != 1 || summary.Evicted != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	var badReported bool
	for _, d := range summary.Details {
		if d.EntityId == "sale-bad" && !d.Succeeded && d.Message != "" {
			badReported = true
		}
	}
	if !badReported {
		t.Fatalf("failing sale id missing from detail list: %+v", summary.Details)
	}

	// max retries 1: the bad item is evicted in the same pass.
	n, _ := store.CountQueued(context.Background(), "store-1")
	if n != 0 {
		t.Fatalf("expected pending count 0 after eviction, got %d", n)
	}
}

func TestDrain_EmitsStatusEvents(t *testing.T) {
	store := newTestStore(t)
	remote := newFakeRemote()
	remote.failIds["sale-bad"] = true
	monitor := NewMonitor(true)
	p := NewProcessor(store, remote, monitor, nil, fastRetryConfig(1))
	defer p.Close()

	var events []SyncEventType
	unsub := p.Subscribe(func(ev SyncEvent) { events = append(events, ev.Type) })
	defer unsub()

	enqueueTestItem(t, store, "q-good", "sale-good")
	enqueueTestItem(t, store, "q-bad", "sale-bad")

	if _, err := p.SyncNow(context.Background()); err != nil {
		t.Fatalf("sync now: %v", err)
	}

	want := map[SyncEventType]bool{SyncEventSyncing: false, SyncEventSuccess: false, SyncEventError: false}
	for _, ev := range events {
		if _, ok := want[ev]; ok {
			want[ev] = true
		}
	}
	for ev, seen := range want {
		if !seen {
			t.Fatalf("missing %s event in %v", ev, events)
		}
	}
}
