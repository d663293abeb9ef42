package storage

import (
	"github.com/pkg/errors"

	ecs "github.com/DangerosoDavo/slotengine/ecs"
	"github.com/DangerosoDavo/slotengine/handle"
)

type denseStrategy struct{}

// NewDenseStrategy constructs a slot-indexed storage strategy. Components are
// stored at the entity's slot index, which suits components that nearly every
// entity carries.
func NewDenseStrategy() ecs.StorageStrategy {
	return denseStrategy{}
}

func (denseStrategy) Name() string {
	return "dense"
}

func (denseStrategy) NewStore(t ecs.ComponentType) ecs.ComponentStore {
	return &denseStore{typ: t}
}

// denseStore keeps one slot per handle index. Each slot records the full
// handle that owns it, so a lookup with a recycled index only matches when
// the generation matches too. An empty slot is owned by handle.Invalid.
//
// denseStore is not synchronised; it is meant for worlds driven from a
// single goroutine.
type denseStore struct {
	typ   ecs.ComponentType
	slots []denseSlot
	count int
}

type denseSlot struct {
	owner handle.Handle
	value any
}

func (s *denseStore) ComponentType() ecs.ComponentType {
	return s.typ
}

func (s *denseStore) Len() int {
	return s.count
}

func (s *denseStore) Has(id ecs.EntityID) bool {
	_, ok := s.slot(id)
	return ok
}

func (s *denseStore) Get(id ecs.EntityID) (any, bool) {
	slot, ok := s.slot(id)
	if !ok {
		return nil, false
	}
	return slot.value, true
}

func (s *denseStore) Iterate(fn func(ecs.EntityID, any) bool) {
	for _, slot := range s.slots {
		if slot.owner.IsNil() {
			continue
		}
		if !fn(slot.owner, slot.value) {
			return
		}
	}
}

// Set stores value at the entity's slot. A component left behind by an older
// generation of the same slot is replaced.
func (s *denseStore) Set(id ecs.EntityID, value any) error {
	if id.IsNil() {
		return errors.Wrap(ecs.ErrNilEntity, "dense: set")
	}
	idx := id.Index()
	if idx > handle.MaxIndex {
		return errors.Wrapf(handle.ErrInvalidHandle, "dense: set %s", id)
	}
	s.ensureCapacity(int(idx) + 1)
	slot := &s.slots[idx]
	if slot.owner.IsNil() {
		s.count++
	}
	slot.owner = id
	slot.value = value
	return nil
}

func (s *denseStore) Remove(id ecs.EntityID) bool {
	slot, ok := s.slot(id)
	if !ok {
		return false
	}
	*slot = denseSlot{owner: handle.Invalid}
	s.count--
	return true
}

func (s *denseStore) Clear() {
	clear(s.slots)
	s.slots = s.slots[:0]
	s.count = 0
}

// slot returns the slot owned by exactly id.
func (s *denseStore) slot(id ecs.EntityID) (*denseSlot, bool) {
	idx := id.Index()
	if id.IsNil() || idx >= uint32(len(s.slots)) {
		return nil, false
	}
	slot := &s.slots[idx]
	if slot.owner != id {
		return nil, false
	}
	return slot, true
}

func (s *denseStore) ensureCapacity(size int) {
	old := len(s.slots)
	if size <= old {
		return
	}
	s.slots = append(s.slots, make([]denseSlot, size-old)...)
	for i := old; i < size; i++ {
		s.slots[i].owner = handle.Invalid
	}
}

var _ ecs.ComponentStore = (*denseStore)(nil)
