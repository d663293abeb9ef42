package handle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleFields(t *testing.T) {
	h := New(0x12345, 0xABC)
	assert.Equal(t, uint32(0x12345), h.Index())
	assert.Equal(t, uint16(0xABC), h.Generation())
	assert.Equal(t, Handle(0x12345ABC), h)
}

func TestFromIndexStartsAtGenerationZero(t *testing.T) {
	h := FromIndex(7)
	assert.Equal(t, uint32(7), h.Index())
	assert.Zero(t, h.Generation())
	assert.Equal(t, Handle(7<<IndexShift), h)
}

func TestFromIndexRejectsReservedIndex(t *testing.T) {
	assert.Panics(t, func() { FromIndex(MaxIndex + 1) })
	assert.NotPanics(t, func() { FromIndex(MaxIndex) })
}

func TestBumpGenerationWraps(t *testing.T) {
	h := New(3, uint16(GenerationMask))
	bumped := h.BumpGeneration()
	assert.Equal(t, uint32(3), bumped.Index())
	assert.Zero(t, bumped.Generation())

	assert.Equal(t, uint16(1), FromIndex(3).BumpGeneration().Generation())
}

func TestWithIndexReturnsPreviousIndex(t *testing.T) {
	h := New(10, 5)
	replaced, old := h.WithIndex(42)
	assert.Equal(t, uint32(10), old)
	assert.Equal(t, uint32(42), replaced.Index())
	assert.Equal(t, uint16(5), replaced.Generation())
}

func TestInvalidSentinel(t *testing.T) {
	require.True(t, Invalid.IsNil())
	assert.Equal(t, nilIndex, Invalid.Index())
	assert.False(t, Handle(0).IsNil(), "zero value is index 0, generation 0")
	assert.Equal(t, "Handle(nil)", Invalid.String())
	assert.Equal(t, "Handle(1:2)", New(1, 2).String())
}
