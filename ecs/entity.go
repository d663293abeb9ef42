package ecs

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/DangerosoDavo/slotengine/handle"
)

// EntityID identifies an entity and encodes a generation for stale-handle detection.
type EntityID = handle.Handle

// NilEntity is the reserved "no entity" identifier.
const NilEntity EntityID = handle.Invalid

// NewEntityRegistry constructs an empty registry. Options are forwarded to the
// backing handle allocator.
func NewEntityRegistry(opts ...handle.Option) *EntityRegistry {
	return &EntityRegistry{alloc: handle.NewAllocator(opts...)}
}

// EntityRegistry coordinates entity allocation and recycling. It serialises
// access to its allocator so a registry can be shared between goroutines.
type EntityRegistry struct {
	mu    sync.Mutex
	alloc *handle.Allocator
}

// Create issues a new entity identifier, recycling slots when possible.
func (r *EntityRegistry) Create() (EntityID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := r.alloc.Create()
	if err != nil {
		return NilEntity, errors.Wrap(err, "ecs: create entity")
	}
	return id, nil
}

// Destroy releases the entity identifier. Destroying a stale or unknown
// identifier returns an error wrapping handle.ErrInvalidHandle.
func (r *EntityRegistry) Destroy(id EntityID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.alloc.Destroy(id); err != nil {
		return errors.Wrap(err, "ecs: destroy entity")
	}
	return nil
}

// IsAlive reports whether the identifier refers to a currently allocated entity.
func (r *EntityRegistry) IsAlive(id EntityID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.alloc.IsValid(id)
}

// Count returns the number of live entities.
func (r *EntityRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.alloc.Len()
}

// Each calls fn for every live entity until fn returns false. The set of
// entities is captured before the first call, so fn may create or destroy
// entities.
func (r *EntityRegistry) Each(fn func(EntityID) bool) {
	r.mu.Lock()
	live := make([]EntityID, 0, r.alloc.Len())
	for id := range r.alloc.All() {
		live = append(live, id)
	}
	r.mu.Unlock()

	for _, id := range live {
		if !fn(id) {
			return
		}
	}
}

// Stats reports the occupancy of the backing allocator.
func (r *EntityRegistry) Stats() handle.Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.alloc.Stats()
}
