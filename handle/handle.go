// Package handle implements packed 32-bit generational handles and the
// free-list allocator that hands them out.
//
// A Handle stores a slot index in its upper 20 bits and a generation in its
// lower 12 bits. The generation of a slot is bumped every time the slot is
// destroyed, so copies of the old handle stop validating once the slot is
// recycled.
//
// Indices are 0-based. The all-ones value Invalid (index 0xFFFFF) is reserved
// as the "no handle" sentinel, which means the zero value Handle(0) is a real
// handle: index 0, generation 0.
package handle

import "fmt"

const (
	// IndexBits is the width of the index field.
	IndexBits = 20
	// GenerationBits is the width of the generation field.
	GenerationBits = 12

	// IndexShift positions the index field above the generation field.
	IndexShift = GenerationBits
	// IndexMask selects the index field of a raw handle value.
	IndexMask uint32 = 0xFFFFF000
	// GenerationMask selects the generation field of a raw handle value.
	GenerationMask uint32 = 0x00000FFF

	// nilIndex is the index field of Invalid. It is never allocated and also
	// terminates the allocator's free list.
	nilIndex uint32 = IndexMask >> IndexShift

	// MaxIndex is the largest index an allocator will hand out.
	MaxIndex = nilIndex - 1
	// MaxSlots is the largest number of slots an allocator can hold.
	MaxSlots = nilIndex
	// GenerationLimit is the number of distinct generations before a slot's
	// generation wraps around to its starting value.
	GenerationLimit = GenerationMask + 1
)

// Handle is an opaque identifier made of a slot index and a generation.
type Handle uint32

// Invalid is the reserved "no handle" value.
const Invalid Handle = Handle(^uint32(0))

// FromIndex returns the first-generation handle for index.
// It panics if index is larger than MaxIndex.
func FromIndex(index uint32) Handle {
	return New(index, 0)
}

// New packs index and generation into a handle. The generation is truncated
// to GenerationBits. It panics if index is larger than MaxIndex.
func New(index uint32, generation uint16) Handle {
	if index > MaxIndex {
		panic(fmt.Sprintf("handle: index %d exceeds maximum %d", index, MaxIndex))
	}
	return Handle(index<<IndexShift | uint32(generation)&GenerationMask)
}

// Index returns the slot index of h.
func (h Handle) Index() uint32 {
	return (uint32(h) & IndexMask) >> IndexShift
}

// Generation returns the generation of h.
func (h Handle) Generation() uint16 {
	return uint16(uint32(h) & GenerationMask)
}

// BumpGeneration returns h with its generation incremented. The generation
// wraps to zero after GenerationLimit-1.
func (h Handle) BumpGeneration() Handle {
	gen := (uint32(h) + 1) & GenerationMask
	return Handle(uint32(h)&IndexMask | gen)
}

// WithIndex returns h with its index field replaced by newIndex and yields the
// index it replaced. newIndex is truncated to IndexBits.
func (h Handle) WithIndex(newIndex uint32) (Handle, uint32) {
	old := h.Index()
	raw := (newIndex<<IndexShift)&IndexMask | uint32(h)&GenerationMask
	return Handle(raw), old
}

// IsNil reports whether h is the Invalid sentinel.
func (h Handle) IsNil() bool {
	return h == Invalid
}

// String renders the handle for debugging purposes.
func (h Handle) String() string {
	if h.IsNil() {
		return "Handle(nil)"
	}
	return fmt.Sprintf("Handle(%d:%d)", h.Index(), h.Generation())
}
