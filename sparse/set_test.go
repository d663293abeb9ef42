package sparse_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DangerosoDavo/slotengine/handle"
	"github.com/DangerosoDavo/slotengine/sparse"
)

func TestSetRemoveKeepsOtherEntries(t *testing.T) {
	h0, h1, h2 := handle.FromIndex(0), handle.FromIndex(1), handle.FromIndex(2)

	var s sparse.Set[string]
	require.True(t, s.Insert(h0, "a"))
	require.True(t, s.Insert(h1, "b"))
	require.True(t, s.Insert(h2, "c"))
	assert.Equal(t, 3, s.Len())

	require.True(t, s.Remove(h0))
	assert.Equal(t, 2, s.Len())
	assert.False(t, s.Contains(h0))

	v, ok := s.Get(h1)
	assert.True(t, ok)
	assert.Equal(t, "b", v)
	v, ok = s.Get(h2)
	assert.True(t, ok)
	assert.Equal(t, "c", v)
}

func TestSetInsertIsIdempotent(t *testing.T) {
	h0 := handle.FromIndex(0)
	s := sparse.New[int](4)

	assert.True(t, s.Insert(h0, 10))
	assert.False(t, s.Insert(h0, 20))

	v, ok := s.Get(h0)
	assert.True(t, ok)
	assert.Equal(t, 10, v)
	assert.Equal(t, 1, s.Len())
}

func TestSetRejectsOtherGenerations(t *testing.T) {
	old := handle.New(5, 0)
	cur := old.BumpGeneration()

	var s sparse.Set[int]
	s.Insert(old, 1)
	assert.False(t, s.Contains(cur))
	_, ok := s.Get(cur)
	assert.False(t, ok)
	assert.False(t, s.Remove(cur))
	assert.Nil(t, s.GetPtr(cur))
}

func TestSetInsertEvictsStaleGeneration(t *testing.T) {
	old := handle.New(5, 0)
	cur := old.BumpGeneration()
	other := handle.FromIndex(1)

	var s sparse.Set[int]
	s.Insert(old, 1)
	s.Insert(other, 2)
	require.True(t, s.Insert(cur, 3))

	assert.Equal(t, 2, s.Len())
	assert.False(t, s.Contains(old))
	v, _ := s.Get(cur)
	assert.Equal(t, 3, v)
	v, _ = s.Get(other)
	assert.Equal(t, 2, v)

	require.True(t, s.Remove(other))
	v, _ = s.Get(cur)
	assert.Equal(t, 3, v)
}

func TestSetAbsentAndOutOfRangeKeys(t *testing.T) {
	var s sparse.Set[int]
	far := handle.FromIndex(handle.MaxIndex)

	assert.False(t, s.Contains(far))
	assert.False(t, s.Remove(far))
	assert.False(t, s.Insert(handle.Invalid, 1))
	assert.True(t, s.Empty())
}

func TestSetIgnoresKeysPastMaxIndex(t *testing.T) {
	var s sparse.Set[int]
	require.True(t, s.Insert(handle.FromIndex(handle.MaxIndex), 1))

	reserved := handle.Handle(0xFFFFF001)
	require.Equal(t, uint32(handle.MaxSlots), reserved.Index())
	assert.False(t, reserved.IsNil())

	assert.NotPanics(t, func() {
		assert.False(t, s.Insert(reserved, 2))
	})
	assert.False(t, s.Contains(reserved))
	_, ok := s.Get(reserved)
	assert.False(t, ok)
	assert.Nil(t, s.GetPtr(reserved))
	assert.False(t, s.Remove(reserved))
	_, ok = s.KeyAt(reserved.Index())
	assert.False(t, ok)

	assert.Equal(t, 1, s.Len())
	v, _ := s.Get(handle.FromIndex(handle.MaxIndex))
	assert.Equal(t, 1, v)
}

func TestSetGetPtrWritesThrough(t *testing.T) {
	h := handle.FromIndex(3)
	var s sparse.Set[int]
	s.Insert(h, 1)

	p := s.GetPtr(h)
	require.NotNil(t, p)
	*p = 7

	v, _ := s.Get(h)
	assert.Equal(t, 7, v)

	for _, vp := range s.AllPtr() {
		*vp *= 2
	}
	v, _ = s.Get(h)
	assert.Equal(t, 14, v)
}

func TestSetClear(t *testing.T) {
	var s sparse.Set[int]
	h0, h1 := handle.FromIndex(0), handle.FromIndex(1)
	s.Insert(h0, 1)
	s.Insert(h1, 2)

	s.Clear()
	assert.True(t, s.Empty())
	assert.False(t, s.Contains(h0))
	assert.False(t, s.Contains(h1))

	require.True(t, s.Insert(h1, 3))
	assert.False(t, s.Contains(h0))
	v, _ := s.Get(h1)
	assert.Equal(t, 3, v)
}

func TestSetIterationIsRestartable(t *testing.T) {
	var s sparse.Set[int]
	for i := uint32(0); i < 4; i++ {
		s.Insert(handle.FromIndex(i*3), int(i))
	}

	collect := func() map[handle.Handle]int {
		out := make(map[handle.Handle]int)
		for k, v := range s.All() {
			out[k] = v
		}
		return out
	}
	first := collect()
	assert.Len(t, first, 4)
	assert.Equal(t, first, collect())

	var keys []handle.Handle
	for k := range s.Keys() {
		keys = append(keys, k)
		if len(keys) == 2 {
			break
		}
	}
	assert.Len(t, keys, 2)
}

// Random insert/remove sequences checked against a map model.
func TestSetMatchesModel(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	alloc := handle.NewAllocator()
	var s sparse.Set[int]
	model := make(map[handle.Handle]int)
	var pool []handle.Handle

	for i := 0; i < 64; i++ {
		h, err := alloc.Create()
		require.NoError(t, err)
		pool = append(pool, h)
	}

	for step := 0; step < 10000; step++ {
		key := pool[rng.Intn(len(pool))]
		switch rng.Intn(3) {
		case 0, 1:
			_, present := model[key]
			inserted := s.Insert(key, step)
			require.Equal(t, !present, inserted)
			if !present {
				model[key] = step
			}
		default:
			_, present := model[key]
			require.Equal(t, present, s.Remove(key))
			delete(model, key)
			require.False(t, s.Contains(key))
		}
	}

	require.Equal(t, len(model), s.Len())
	seen := make(map[handle.Handle]struct{})
	for k, v := range s.All() {
		_, dup := seen[k]
		require.False(t, dup, "duplicate key %v", k)
		seen[k] = struct{}{}
		want, ok := model[k]
		require.True(t, ok)
		assert.Equal(t, want, v)
	}
	assert.Len(t, seen, len(model))
}

func TestSetKeyAtFindsAnyGeneration(t *testing.T) {
	var s sparse.Set[int]
	old := handle.New(9, 3)
	s.Insert(old, 1)

	k, ok := s.KeyAt(9)
	assert.True(t, ok)
	assert.Equal(t, old, k)

	_, ok = s.KeyAt(10)
	assert.False(t, ok)
	k, ok = s.KeyAt(handle.MaxIndex)
	assert.False(t, ok)
	assert.True(t, k.IsNil())
}
