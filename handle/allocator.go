package handle

import (
	"iter"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidHandle is returned when destroying a handle that is stale,
	// out of range, or already destroyed.
	ErrInvalidHandle = errors.New("handle: invalid handle")
	// ErrExhausted is returned when the allocator cannot grow any further.
	ErrExhausted = errors.New("handle: allocator exhausted")
)

// Option configures an Allocator.
type Option func(*Allocator)

// WithCapacity preallocates room for n slots.
func WithCapacity(n int) Option {
	return func(a *Allocator) {
		if n > 0 {
			a.table = make([]Handle, 0, n)
		}
	}
}

// WithMaxSlots caps the number of slots the table may grow to. Values of zero
// or above MaxSlots fall back to MaxSlots.
func WithMaxSlots(n uint32) Option {
	return func(a *Allocator) {
		if n > 0 && n <= MaxSlots {
			a.maxSlots = n
		}
	}
}

// Allocator hands out generational handles and recycles destroyed slots.
//
// Free slots form a singly linked list threaded through the table itself: the
// index field of a free slot holds the position of the next free slot and its
// generation field holds the generation the next occupant receives. A live
// slot's index field always equals its own position.
//
// An Allocator is not safe for concurrent use.
type Allocator struct {
	table     []Handle
	freeHead  uint32
	freeCount int
	maxSlots  uint32
}

// NewAllocator constructs an empty allocator.
func NewAllocator(opts ...Option) *Allocator {
	a := &Allocator{freeHead: nilIndex, maxSlots: MaxSlots}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Create returns a fresh handle, reusing the most recently destroyed slot when
// one is available.
func (a *Allocator) Create() (Handle, error) {
	if a.freeCount > 0 {
		pos := a.freeHead
		h, next := a.table[pos].WithIndex(pos)
		a.table[pos] = h
		a.freeHead = next
		a.freeCount--
		return h, nil
	}

	n := uint32(len(a.table))
	if n >= a.limit() {
		return Invalid, ErrExhausted
	}
	h := FromIndex(n)
	a.table = append(a.table, h)
	return h, nil
}

// Destroy invalidates h and pushes its slot onto the free list. Destroying a
// handle that is not currently valid returns an error wrapping
// ErrInvalidHandle and leaves the allocator untouched.
func (a *Allocator) Destroy(h Handle) error {
	if !a.IsValid(h) {
		return errors.Wrapf(ErrInvalidHandle, "destroy %v", h)
	}
	pos := h.Index()
	freed, _ := a.table[pos].BumpGeneration().WithIndex(a.freeHead)
	a.table[pos] = freed
	a.freeHead = pos
	a.freeCount++
	return nil
}

// IsValid reports whether h refers to a live slot of this allocator.
func (a *Allocator) IsValid(h Handle) bool {
	pos := h.Index()
	if pos >= uint32(len(a.table)) {
		return false
	}
	slot := a.table[pos]
	return slot.Index() == pos && slot.Generation() == h.Generation()
}

// Len returns the number of live handles.
func (a *Allocator) Len() int {
	return len(a.table) - a.freeCount
}

// Cap returns the number of slots in the table, live or free.
func (a *Allocator) Cap() int {
	return len(a.table)
}

// FreeCount returns the number of slots waiting to be recycled.
func (a *Allocator) FreeCount() int {
	return a.freeCount
}

// MaxSlots returns the slot limit of the allocator.
func (a *Allocator) MaxSlots() uint32 {
	return a.limit()
}

// All yields every live handle in slot order.
func (a *Allocator) All() iter.Seq[Handle] {
	return func(yield func(Handle) bool) {
		for pos, slot := range a.table {
			if slot.Index() != uint32(pos) {
				continue
			}
			if !yield(slot) {
				return
			}
		}
	}
}

// Reset destroys every live handle. The table keeps its slots so handles
// issued before the reset stay stale after the slots are reused.
func (a *Allocator) Reset() {
	for pos := range a.table {
		p := uint32(pos)
		if a.table[p].Index() != p {
			continue
		}
		a.table[p], _ = a.table[p].BumpGeneration().WithIndex(a.freeHead)
		a.freeHead = p
		a.freeCount++
	}
}

// Stats summarises the allocator's table.
type Stats struct {
	Live     int
	Free     int
	Capacity int
}

// Stats returns a snapshot of the allocator's occupancy.
func (a *Allocator) Stats() Stats {
	return Stats{Live: a.Len(), Free: a.freeCount, Capacity: len(a.table)}
}

func (a *Allocator) limit() uint32 {
	if a.maxSlots == 0 {
		return MaxSlots
	}
	return a.maxSlots
}
