package storage

import (
	"sync"

	"github.com/pkg/errors"

	ecs "github.com/DangerosoDavo/slotengine/ecs"
	"github.com/DangerosoDavo/slotengine/sparse"
)

type sparseStrategy struct {
	capacity int
}

// NewSparseStrategy constructs the default storage strategy: a sparse set per
// component type, giving dense iteration and O(1) add/remove.
func NewSparseStrategy() ecs.StorageStrategy {
	return sparseStrategy{}
}

// NewSparseStrategyWithCapacity preallocates room for capacity components.
func NewSparseStrategyWithCapacity(capacity int) ecs.StorageStrategy {
	return sparseStrategy{capacity: capacity}
}

func (sparseStrategy) Name() string {
	return "sparse"
}

func (s sparseStrategy) NewStore(t ecs.ComponentType) ecs.ComponentStore {
	return &sparseStore{typ: t, set: sparse.New[any](s.capacity)}
}

type sparseStore struct {
	mu  sync.RWMutex
	typ ecs.ComponentType
	set *sparse.Set[any]
}

func (s *sparseStore) ComponentType() ecs.ComponentType {
	return s.typ
}

func (s *sparseStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set.Len()
}

func (s *sparseStore) Has(id ecs.EntityID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set.Contains(id)
}

func (s *sparseStore) Get(id ecs.EntityID) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set.Get(id)
}

func (s *sparseStore) Iterate(fn func(ecs.EntityID, any) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, v := range s.set.All() {
		if !fn(id, v) {
			return
		}
	}
}

func (s *sparseStore) Set(id ecs.EntityID, value any) error {
	if id.IsNil() {
		return errors.Wrap(ecs.ErrNilEntity, "sparse: set")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.set.GetPtr(id); p != nil {
		*p = value
		return nil
	}
	s.set.Insert(id, value)
	return nil
}

func (s *sparseStore) Remove(id ecs.EntityID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.Remove(id)
}

func (s *sparseStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set.Clear()
}

var _ ecs.ComponentStore = (*sparseStore)(nil)
