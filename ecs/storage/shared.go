package storage

import (
	"reflect"
	"sync"

	"github.com/pkg/errors"

	ecs "github.com/DangerosoDavo/slotengine/ecs"
	"github.com/DangerosoDavo/slotengine/sparse"
)

// NewSharedStrategy constructs a storage strategy where entities with equal
// component values reference one stored instance, e.g. every zombie pointing
// at the same base stats.
//
// Shared values are immutable from the point of view of a single entity. To
// change one entity's value, Set a new value; the old instance is released
// once no entity references it.
func NewSharedStrategy() ecs.StorageStrategy {
	return sharedStrategy{}
}

type sharedStrategy struct{}

func (sharedStrategy) Name() string {
	return "shared"
}

func (sharedStrategy) NewStore(t ecs.ComponentType) ecs.ComponentStore {
	return &sharedStore{
		typ:         t,
		valueToData: make(map[uint32]*sharedValue),
		nextValueID: 1,
	}
}

type sharedValue struct {
	data     any
	refCount int
}

// sharedStore maps entities to value IDs through a sparse set and keeps the
// deduplicated values in a reference-counted table.
type sharedStore struct {
	mu          sync.RWMutex
	typ         ecs.ComponentType
	entities    sparse.Set[uint32]
	valueToData map[uint32]*sharedValue
	nextValueID uint32
}

func (s *sharedStore) ComponentType() ecs.ComponentType {
	return s.typ
}

func (s *sharedStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entities.Len()
}

func (s *sharedStore) Has(id ecs.EntityID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entities.Contains(id)
}

func (s *sharedStore) Get(id ecs.EntityID) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	valueID, ok := s.entities.Get(id)
	if !ok {
		return nil, false
	}
	shared, ok := s.valueToData[valueID]
	if !ok {
		return nil, false
	}
	return shared.data, true
}

func (s *sharedStore) Iterate(fn func(ecs.EntityID, any) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for id, valueID := range s.entities.All() {
		shared, ok := s.valueToData[valueID]
		if !ok {
			continue
		}
		if !fn(id, shared.data) {
			return
		}
	}
}

func (s *sharedStore) Set(id ecs.EntityID, value any) error {
	if id.IsNil() {
		return errors.Wrap(ecs.ErrNilEntity, "shared: set")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	valueID := s.acquireLocked(value)
	if p := s.entities.GetPtr(id); p != nil {
		s.releaseLocked(*p)
		*p = valueID
		return nil
	}
	s.evictSlotLocked(id)
	s.entities.Insert(id, valueID)
	return nil
}

func (s *sharedStore) Remove(id ecs.EntityID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	valueID, ok := s.entities.Get(id)
	if !ok {
		return false
	}
	s.entities.Remove(id)
	s.releaseLocked(valueID)
	return true
}

func (s *sharedStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entities.Clear()
	s.valueToData = make(map[uint32]*sharedValue)
}

// acquireLocked returns the ID of a stored value deeply equal to value,
// storing it first when no such value exists.
func (s *sharedStore) acquireLocked(value any) uint32 {
	for valueID, shared := range s.valueToData {
		if reflect.DeepEqual(shared.data, value) {
			shared.refCount++
			return valueID
		}
	}

	valueID := s.nextValueID
	s.nextValueID++
	s.valueToData[valueID] = &sharedValue{data: value, refCount: 1}
	return valueID
}

func (s *sharedStore) releaseLocked(valueID uint32) {
	shared, ok := s.valueToData[valueID]
	if !ok {
		return
	}
	shared.refCount--
	if shared.refCount <= 0 {
		delete(s.valueToData, valueID)
	}
}

// evictSlotLocked releases the reference held by an older generation of id's
// slot before the sparse set drops that entry.
func (s *sharedStore) evictSlotLocked(id ecs.EntityID) {
	stale, ok := s.entities.KeyAt(id.Index())
	if !ok || stale == id {
		return
	}
	valueID, _ := s.entities.Get(stale)
	s.entities.Remove(stale)
	s.releaseLocked(valueID)
}

// Stats returns statistics about the shared store for debugging and optimization.
func (s *sharedStore) Stats() SharedStorageStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entities := s.entities.Len()
	return SharedStorageStats{
		EntityCount:      entities,
		UniqueValueCount: len(s.valueToData),
		SharingRatio:     float64(entities) / float64(max(len(s.valueToData), 1)),
	}
}

// SharedStorageStats provides metrics about shared component storage efficiency.
type SharedStorageStats struct {
	EntityCount      int     // number of entities with this component
	UniqueValueCount int     // number of unique component values
	SharingRatio     float64 // average entities per unique value (higher = more sharing)
}

var _ ecs.ComponentStore = (*sharedStore)(nil)
