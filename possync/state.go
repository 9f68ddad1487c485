package possync

import (
	"sync"

	"bitbucket.org/mmdatafocus/pos_backend/models"
)

// AppState is the in-memory application state the UI renders from. Optimistic
// applies land here first and are never rolled back by sync failures; only an
// explicit compensating mutation changes them again.
type AppState struct {
	mu       sync.RWMutex
	entities map[models.EntityType]map[string]any
}

func NewAppState() *AppState {
	return &AppState{
		entities: map[models.EntityType]map[string]any{},
	}
}

func (s *AppState) Put(entityType models.EntityType, id string, entity any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putLocked(entityType, id, entity)
}

// PutAll applies several entities atomically: a mutation and its derived side
// effects become visible together or not at all.
func (s *AppState) PutAll(batch []StateEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range batch {
		s.putLocked(e.EntityType, e.EntityId, e.Entity)
	}
}

func (s *AppState) putLocked(entityType models.EntityType, id string, entity any) {
	byId := s.entities[entityType]
	if byId == nil {
		byId = map[string]any{}
		s.entities[entityType] = byId
	}
	byId[id] = entity
}

func (s *AppState) Get(entityType models.EntityType, id string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entities[entityType][id]
	return v, ok
}

func (s *AppState) All(entityType models.EntityType) []any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]any, 0, len(s.entities[entityType]))
	for _, v := range s.entities[entityType] {
		out = append(out, v)
	}
	return out
}

func (s *AppState) Remove(entityType models.EntityType, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entities[entityType], id)
}

// StateEntry pairs an entity with its identity for batched applies.
type StateEntry struct {
	EntityType models.EntityType
	EntityId   string
	Entity     any
}
