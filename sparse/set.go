// Package sparse provides a sparse set keyed by generational handles.
//
// Values live in a dense slice that can be iterated without gaps. A second,
// sparse slice indexed by handle index maps each key to its dense position.
// Removal swaps the removed entry with the last one, so iteration order is
// not preserved across removals.
package sparse

import (
	"iter"

	"github.com/DangerosoDavo/slotengine/handle"
)

const absent = ^uint32(0)

type entry[T any] struct {
	key   handle.Handle
	value T
}

// Set maps handles to values of type T. The zero value is an empty set ready
// to use. A Set is not safe for concurrent use.
type Set[T any] struct {
	dense  []entry[T]
	sparse []uint32
}

// New returns a set with room for capacity entries.
func New[T any](capacity int) *Set[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Set[T]{
		dense:  make([]entry[T], 0, capacity),
		sparse: newSparse(capacity),
	}
}

// Insert adds value under key and reports whether it was added. Inserting a
// key that is already present keeps the existing value; callers that need to
// replace it remove the key first or write through GetPtr.
//
// A set holds at most one entry per slot index. An entry left behind by an
// older generation of the same slot is evicted by the insert. Keys whose
// index lies past handle.MaxIndex, including Invalid, are never stored.
func (s *Set[T]) Insert(key handle.Handle, value T) bool {
	idx := key.Index()
	if idx > handle.MaxIndex || s.Contains(key) {
		return false
	}
	if pos, ok := s.occupant(idx); ok {
		s.removeAt(pos)
	}
	s.grow(idx)
	s.sparse[idx] = uint32(len(s.dense))
	s.dense = append(s.dense, entry[T]{key: key, value: value})
	return true
}

// Remove deletes key and reports whether it was present.
func (s *Set[T]) Remove(key handle.Handle) bool {
	pos, ok := s.position(key)
	if !ok {
		return false
	}
	s.removeAt(pos)
	return true
}

// Contains reports whether key is present.
func (s *Set[T]) Contains(key handle.Handle) bool {
	_, ok := s.position(key)
	return ok
}

// KeyAt returns the key stored for slot index, whatever its generation.
// Consumers use it to find entries left behind by a destroyed handle.
func (s *Set[T]) KeyAt(index uint32) (handle.Handle, bool) {
	pos, ok := s.occupant(index)
	if !ok {
		return handle.Invalid, false
	}
	return s.dense[pos].key, true
}

// Get returns the value stored under key.
func (s *Set[T]) Get(key handle.Handle) (T, bool) {
	pos, ok := s.position(key)
	if !ok {
		var zero T
		return zero, false
	}
	return s.dense[pos].value, true
}

// GetPtr returns a pointer to the value stored under key, or nil. The pointer
// is invalidated by the next Insert, Remove or Clear.
func (s *Set[T]) GetPtr(key handle.Handle) *T {
	pos, ok := s.position(key)
	if !ok {
		return nil
	}
	return &s.dense[pos].value
}

// Clear removes every entry. The sparse index is left as is; stale positions
// are rejected by the dense key check.
func (s *Set[T]) Clear() {
	clear(s.dense)
	s.dense = s.dense[:0]
}

// Len returns the number of entries.
func (s *Set[T]) Len() int {
	return len(s.dense)
}

// Empty reports whether the set has no entries.
func (s *Set[T]) Empty() bool {
	return len(s.dense) == 0
}

// All yields key/value pairs in dense order. Each call starts a new traversal.
// The set must not be modified during iteration.
func (s *Set[T]) All() iter.Seq2[handle.Handle, T] {
	return func(yield func(handle.Handle, T) bool) {
		for i := range s.dense {
			if !yield(s.dense[i].key, s.dense[i].value) {
				return
			}
		}
	}
}

// AllPtr yields keys with pointers to their values in dense order.
func (s *Set[T]) AllPtr() iter.Seq2[handle.Handle, *T] {
	return func(yield func(handle.Handle, *T) bool) {
		for i := range s.dense {
			if !yield(s.dense[i].key, &s.dense[i].value) {
				return
			}
		}
	}
}

// Keys yields the keys in dense order.
func (s *Set[T]) Keys() iter.Seq[handle.Handle] {
	return func(yield func(handle.Handle) bool) {
		for i := range s.dense {
			if !yield(s.dense[i].key) {
				return
			}
		}
	}
}

func (s *Set[T]) position(key handle.Handle) (uint32, bool) {
	pos, ok := s.occupant(key.Index())
	if !ok || s.dense[pos].key != key {
		return 0, false
	}
	return pos, true
}

// occupant returns the dense position of whichever generation of idx is
// stored, if any.
func (s *Set[T]) occupant(idx uint32) (uint32, bool) {
	if idx >= uint32(len(s.sparse)) {
		return 0, false
	}
	pos := s.sparse[idx]
	if pos >= uint32(len(s.dense)) || s.dense[pos].key.Index() != idx {
		return 0, false
	}
	return pos, true
}

// removeAt swaps the entry at pos with the last one and pops it.
func (s *Set[T]) removeAt(pos uint32) {
	removed := s.dense[pos].key.Index()
	last := uint32(len(s.dense) - 1)
	if pos != last {
		moved := s.dense[last]
		s.dense[pos] = moved
		s.sparse[moved.key.Index()] = pos
	}
	s.dense[last] = entry[T]{}
	s.dense = s.dense[:last]
	s.sparse[removed] = absent
}

// grow extends the sparse index to cover idx, doubling where possible.
func (s *Set[T]) grow(idx uint32) {
	if idx < uint32(len(s.sparse)) {
		return
	}
	oldLen := len(s.sparse)
	newLen := max(oldLen*2, int(idx)+1)
	if newLen > int(handle.MaxSlots) {
		newLen = int(handle.MaxSlots)
	}
	grown := make([]uint32, newLen)
	copy(grown, s.sparse)
	for i := oldLen; i < newLen; i++ {
		grown[i] = absent
	}
	s.sparse = grown
}

func newSparse(n int) []uint32 {
	if n > int(handle.MaxSlots) {
		n = int(handle.MaxSlots)
	}
	out := make([]uint32, n)
	for i := range out {
		out[i] = absent
	}
	return out
}
