package possync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/models"
	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"
)

type processorState string

const (
	processorIdle     processorState = "idle"
	processorProbing  processorState = "probing"
	processorDraining processorState = "draining"
)

// Processor drains the durable queue opportunistically: on reconnect, on a
// coarse timer while online, and on demand. A pass verifies reachability with
// bounded exponential-backoff probes, replays the queue in priority/FIFO
// order, isolates per-item failures, and evicts poison items once they hit
// the retry ceiling. Concurrent triggers collapse into the single active pass.
type Processor struct {
	Store   *models.LocalStore
	Remote  Remote
	Monitor *Monitor
	Logger  *logrus.Logger
	Cfg     config.SyncRetryConfig

	mu       sync.Mutex
	draining bool
	state    processorState

	subMu        sync.Mutex
	nextSubId    int
	subs         map[int]func(SyncEvent)
	unsubMonitor func()
}

func NewProcessor(store *models.LocalStore, remote Remote, monitor *Monitor, logger *logrus.Logger, cfg config.SyncRetryConfig) *Processor {
	p := &Processor{
		Store:   store,
		Remote:  remote,
		Monitor: monitor,
		Logger:  logger,
		Cfg:     cfg,
		state:   processorIdle,
		subs:    map[int]func(SyncEvent){},
	}

	// Republish connectivity transitions on the status stream and use the
	// offline->online edge as a drain trigger.
	p.unsubMonitor = monitor.Subscribe(func(online bool) {
		if online {
			p.publish(SyncEvent{Type: SyncEventOnline, Message: "connection restored"})
			go func() {
				_, _ = p.drain(context.Background(), false)
			}()
		} else {
			p.publish(SyncEvent{Type: SyncEventOffline, Message: "connection lost"})
		}
	})

	return p
}

// Subscribe registers a status-stream listener; returns its unsubscribe
// handle.
func (p *Processor) Subscribe(fn func(SyncEvent)) (unsubscribe func()) {
	p.subMu.Lock()
	id := p.nextSubId
	p.nextSubId++
	p.subs[id] = fn
	p.subMu.Unlock()

	return func() {
		p.subMu.Lock()
		delete(p.subs, id)
		p.subMu.Unlock()
	}
}

func (p *Processor) publish(ev SyncEvent) {
	p.subMu.Lock()
	listeners := make([]func(SyncEvent), 0, len(p.subs))
	for _, fn := range p.subs {
		listeners = append(listeners, fn)
	}
	p.subMu.Unlock()

	for _, fn := range listeners {
		fn(ev)
	}
}

// Close detaches the processor from the connectivity monitor.
func (p *Processor) Close() {
	if p.unsubMonitor != nil {
		p.unsubMonitor()
	}
}

// Run is the periodic trigger: while online, drain every Cfg.DrainInterval to
// catch items enqueued without a connectivity transition. Blocks until ctx is
// done.
func (p *Processor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(p.Cfg.DrainInterval):
		}
		if p.Monitor.Online() {
			_, _ = p.drain(ctx, false)
		}
	}
}

// SyncNow is the manual trigger. Unlike background passes, its failure is
// surfaced to the caller so a foreground action can report it.
func (p *Processor) SyncNow(ctx context.Context) (*DrainSummary, error) {
	return p.drain(ctx, true)
}

// drain runs one pass. Returns (nil, nil) when another pass is already in
// flight; the skipped trigger relies on the next periodic one.
func (p *Processor) drain(ctx context.Context, foreground bool) (*DrainSummary, error) {
	p.mu.Lock()
	if p.draining {
		p.mu.Unlock()
		return nil, nil
	}
	p.draining = true
	p.state = processorProbing
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.draining = false
		p.state = processorIdle
		p.mu.Unlock()
	}()

	if err := p.probeReachability(ctx); err != nil {
		if foreground {
			p.publish(SyncEvent{Type: SyncEventError, Message: "sync failed: backend unreachable"})
		}
		return nil, err
	}

	p.mu.Lock()
	p.state = processorDraining
	p.mu.Unlock()

	items, err := p.Store.DequeueAll(ctx)
	if err != nil {
		config.LogError(p.Logger, "possync", "drain", "read queue", nil, err)
		return nil, err
	}

	summary := &DrainSummary{StartedAt: time.Now().UTC()}
	if len(items) == 0 {
		summary.DurationMs = time.Since(summary.StartedAt).Milliseconds()
		return summary, nil
	}

	p.publish(SyncEvent{Type: SyncEventSyncing, Message: fmt.Sprintf("syncing %d pending items", len(items))})

	for i := range items {
		p.replayItem(ctx, &items[i], summary)
	}

	summary.DurationMs = time.Since(summary.StartedAt).Milliseconds()

	if p.Logger != nil {
		p.Logger.WithFields(logrus.Fields{
			"field":       "SyncProcessor",
			"succeeded":   summary.Succeeded,
			"failed":      summary.Failed,
			"evicted":     summary.Evicted,
			"duration_ms": summary.DurationMs,
		}).Info("drain pass finished")
	}

	if summary.Succeeded > 0 {
		p.publish(SyncEvent{Type: SyncEventSuccess, Message: fmt.Sprintf("%d items synced", summary.Succeeded)})
	}
	if summary.Failed > 0 {
		p.publish(SyncEvent{Type: SyncEventError, Message: fmt.Sprintf("%d items failed to sync", summary.Failed)})
	}

	return summary, nil
}

// probeReachability gives the backend a bounded number of chances before the
// pass is abandoned: base delay doubling between attempts, capped count.
func (p *Processor) probeReachability(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.Cfg.BaseBackoff
	bo.MaxInterval = p.Cfg.MaxBackoff
	bo.MaxElapsedTime = 0

	attempts := p.Cfg.ProbeAttempts
	if attempts < 1 {
		attempts = 1
	}

	return backoff.Retry(func() error {
		return p.Remote.Probe(ctx)
	}, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(attempts-1)), ctx))
}

// replayItem attempts one queued mutation. A failure never stops the pass;
// an item at the retry ceiling is evicted and reported, never silently
// dropped.
func (p *Processor) replayItem(ctx context.Context, item *models.SyncQueueItem, summary *DrainSummary) {
	result := ItemResult{
		QueueItemId: item.ID,
		EntityType:  item.EntityType,
		EntityId:    item.EntityId,
	}

	err := p.Remote.Upsert(ctx, item.EntityType, item.EntityId, item.PayloadJSON)
	if err == nil {
		if rerr := p.Store.Remove(ctx, item.ID); rerr != nil {
			config.LogError(p.Logger, "possync", "replayItem", "remove replayed item", item.ID, rerr)
		}
		result.Succeeded = true
		result.RetryCount = item.RetryCount
		summary.Succeeded++
		summary.Details = append(summary.Details, result)
		return
	}

	result.Message = err.Error()
	retryCount, rerr := p.Store.IncrementRetry(ctx, item.ID, err.Error())
	if rerr != nil {
		config.LogError(p.Logger, "possync", "replayItem", "increment retry", item.ID, rerr)
		retryCount = item.RetryCount + 1
	}
	result.RetryCount = retryCount
	summary.Failed++

	if retryCount >= p.Cfg.MaxRetries {
		if rerr := p.Store.Remove(ctx, item.ID); rerr != nil {
			config.LogError(p.Logger, "possync", "replayItem", "evict poison item", item.ID, rerr)
		}
		result.Evicted = true
		summary.Evicted++
		if p.Logger != nil {
			p.Logger.WithFields(logrus.Fields{
				"field":         "SyncProcessor",
				"queue_item_id": item.ID,
				"entity_type":   item.EntityType,
				"entity_id":     item.EntityId,
				"retry_count":   retryCount,
			}).Error("queue item evicted after max retries: " + err.Error())
		}
	} else if p.Logger != nil {
		p.Logger.WithFields(logrus.Fields{
			"field":         "SyncProcessor",
			"queue_item_id": item.ID,
			"entity_type":   item.EntityType,
			"entity_id":     item.EntityId,
			"retry_count":   retryCount,
		}).Warn("queue item replay failed: " + err.Error())
	}

	summary.Details = append(summary.Details, result)
}
