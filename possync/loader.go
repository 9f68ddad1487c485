package possync

import (
	"context"
	"sync"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/models"
	"github.com/sirupsen/logrus"
)

// Loader produces the best available snapshot of every collection at session
// start or on explicit refresh. Online it fetches all collections in
// parallel, tolerating individual failures; whatever succeeded is cached
// locally and the rest falls back to the cache. Offline (or on total
// failure) everything comes from the cache. It never blocks indefinitely and
// always returns a usable, possibly empty, result.
type Loader struct {
	Store   *models.LocalStore
	Remote  Remote
	Monitor *Monitor
	Logger  *logrus.Logger
}

func NewLoader(store *models.LocalStore, remote Remote, monitor *Monitor, logger *logrus.Logger) *Loader {
	return &Loader{
		Store:   store,
		Remote:  remote,
		Monitor: monitor,
		Logger:  logger,
	}
}

func (l *Loader) LoadSnapshot(ctx context.Context, storeId string) *Snapshot {
	if l.Monitor.Online() {
		if snap := l.loadOnline(ctx, storeId); snap != nil {
			return snap
		}
	}
	return l.loadOffline(ctx, storeId)
}

func (l *Loader) loadOnline(ctx context.Context, storeId string) *Snapshot {
	type fetchResult struct {
		entityType models.EntityType
		entities   []any
		err        error
	}

	results := make([]fetchResult, len(models.AllEntityTypes))
	var wg sync.WaitGroup
	for i, et := range models.AllEntityTypes {
		wg.Add(1)
		go func(i int, et models.EntityType) {
			defer wg.Done()
			raws, err := l.Remote.FetchAll(ctx, et, storeId)
			if err != nil {
				results[i] = fetchResult{entityType: et, err: err}
				return
			}
			entities := make([]any, 0, len(raws))
			for _, raw := range raws {
				entity, derr := models.DecodeEntity(et, raw)
				if derr != nil {
					config.LogError(l.Logger, "possync", "loadOnline", "decode remote record", string(et), derr)
					continue
				}
				entities = append(entities, entity)
			}
			results[i] = fetchResult{entityType: et, entities: entities}
		}(i, et)
	}
	wg.Wait()

	succeeded := 0
	for _, res := range results {
		if res.err == nil {
			succeeded++
		}
	}
	if succeeded == 0 {
		// Total failure: treat the session as offline.
		return nil
	}

	snap := &Snapshot{
		Source:      SnapshotSourceOnline,
		Collections: map[models.EntityType]any{},
	}

	for _, res := range results {
		if res.err != nil {
			// One failing collection must not blank out the others.
			snap.Partial = true
			cached, cerr := l.Store.GetAll(ctx, res.entityType, storeId)
			if cerr != nil {
				config.LogError(l.Logger, "possync", "loadOnline", "cache fallback", string(res.entityType), cerr)
				snap.Collections[res.entityType] = []any{}
				continue
			}
			snap.Collections[res.entityType] = cached
			continue
		}

		for _, entity := range res.entities {
			if perr := l.Store.Put(ctx, res.entityType, entity); perr != nil {
				config.LogError(l.Logger, "possync", "loadOnline", "cache write-back", string(res.entityType), perr)
				break
			}
		}
		snap.Collections[res.entityType] = res.entities
	}

	if l.Logger != nil {
		l.Logger.WithFields(logrus.Fields{
			"field":    "Loader",
			"store_id": storeId,
			"source":   snap.Source,
			"partial":  snap.Partial,
		}).Info("snapshot loaded")
	}
	return snap
}

func (l *Loader) loadOffline(ctx context.Context, storeId string) *Snapshot {
	snap := &Snapshot{
		Source:      SnapshotSourceOffline,
		Collections: map[models.EntityType]any{},
	}
	for _, et := range models.AllEntityTypes {
		cached, err := l.Store.GetAll(ctx, et, storeId)
		if err != nil {
			config.LogError(l.Logger, "possync", "loadOffline", "read cache", string(et), err)
			snap.Collections[et] = []any{}
			continue
		}
		snap.Collections[et] = cached
	}
	return snap
}
