package ecs_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DangerosoDavo/slotengine/ecs"
	"github.com/DangerosoDavo/slotengine/handle"
)

func TestEntityRegistryCreateAndDestroy(t *testing.T) {
	reg := ecs.NewEntityRegistry()
	a, err := reg.Create()
	require.NoError(t, err)
	b, err := reg.Create()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, reg.Count())
	assert.True(t, reg.IsAlive(a))
	assert.True(t, reg.IsAlive(b))

	require.NoError(t, reg.Destroy(a))
	assert.False(t, reg.IsAlive(a))
	assert.Equal(t, 1, reg.Count())

	c, err := reg.Create()
	require.NoError(t, err)
	assert.Equal(t, a.Index(), c.Index(), "index should be recycled")
	assert.Equal(t, a.Generation()+1, c.Generation())
	assert.False(t, reg.IsAlive(a))
}

func TestEntityRegistryRejectsStaleID(t *testing.T) {
	reg := ecs.NewEntityRegistry()
	id, err := reg.Create()
	require.NoError(t, err)
	require.NoError(t, reg.Destroy(id))

	err = reg.Destroy(id)
	require.Error(t, err)
	assert.Equal(t, handle.ErrInvalidHandle, errors.Cause(err))
	assert.False(t, reg.IsAlive(id))
	assert.False(t, reg.IsAlive(ecs.NilEntity))
}

func TestEntityRegistryLimit(t *testing.T) {
	reg := ecs.NewEntityRegistry(handle.WithMaxSlots(1))
	_, err := reg.Create()
	require.NoError(t, err)

	id, err := reg.Create()
	assert.Equal(t, handle.ErrExhausted, errors.Cause(err))
	assert.True(t, id.IsNil())
}

func TestEntityRegistryEach(t *testing.T) {
	reg := ecs.NewEntityRegistry()
	var ids []ecs.EntityID
	for i := 0; i < 4; i++ {
		id, err := reg.Create()
		require.NoError(t, err)
		ids = append(ids, id)
	}
	require.NoError(t, reg.Destroy(ids[1]))

	var seen []ecs.EntityID
	reg.Each(func(id ecs.EntityID) bool {
		// Destroying from inside the callback must not deadlock.
		require.NoError(t, reg.Destroy(id))
		seen = append(seen, id)
		return true
	})
	assert.ElementsMatch(t, []ecs.EntityID{ids[0], ids[2], ids[3]}, seen)
	assert.Zero(t, reg.Count())

	stats := reg.Stats()
	assert.Equal(t, 0, stats.Live)
	assert.Equal(t, 4, stats.Free)
}
