package storage

import (
	"testing"

	"github.com/pkg/errors"

	ecs "github.com/DangerosoDavo/slotengine/ecs"
	"github.com/DangerosoDavo/slotengine/handle"
)

func TestDenseStoreCRUD(t *testing.T) {
	store := NewDenseStrategy().NewStore(ecs.ComponentType("comp")).(*denseStore)

	reg := ecs.NewEntityRegistry()
	id, err := reg.Create()
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := store.Set(id, 42); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !store.Has(id) {
		t.Fatalf("expected Has to be true")
	}
	if got, ok := store.Get(id); !ok || got.(int) != 42 {
		t.Fatalf("unexpected get result: %#v, ok=%v", got, ok)
	}

	called := false
	store.Iterate(func(e ecs.EntityID, v any) bool {
		called = true
		if e != id {
			t.Fatalf("unexpected entity: %v", e)
		}
		if v.(int) != 42 {
			t.Fatalf("unexpected value: %v", v)
		}
		return true
	})
	if !called {
		t.Fatalf("expected iterate to visit entity")
	}

	if !store.Remove(id) {
		t.Fatalf("remove failed")
	}
	if store.Has(id) {
		t.Fatalf("value should be removed")
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d", store.Len())
	}
}

func TestDenseStoreRejectsNilEntity(t *testing.T) {
	store := NewDenseStrategy().NewStore(ecs.ComponentType("comp"))
	err := store.Set(ecs.NilEntity, 10)
	if errors.Cause(err) != ecs.ErrNilEntity {
		t.Fatalf("expected ErrNilEntity, got %v", err)
	}
}

func TestDenseStoreIgnoresStaleGeneration(t *testing.T) {
	store := NewDenseStrategy().NewStore(ecs.ComponentType("comp"))

	old := handle.New(3, 0)
	cur := old.BumpGeneration()

	if err := store.Set(old, "old"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if store.Has(cur) {
		t.Fatalf("newer generation must not see the old component")
	}
	if store.Remove(cur) {
		t.Fatalf("remove with newer generation must fail")
	}

	if err := store.Set(cur, "new"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if store.Has(old) {
		t.Fatalf("old generation should have been replaced")
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 component, got %d", store.Len())
	}
	if got, _ := store.Get(cur); got != "new" {
		t.Fatalf("unexpected value %v", got)
	}
}

func TestDenseStoreClear(t *testing.T) {
	store := NewDenseStrategy().NewStore(ecs.ComponentType("comp"))
	for i := uint32(0); i < 8; i++ {
		if err := store.Set(handle.FromIndex(i), int(i)); err != nil {
			t.Fatalf("set: %v", err)
		}
	}
	store.Clear()
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d", store.Len())
	}
	if store.Has(handle.FromIndex(0)) {
		t.Fatalf("cleared store still reports entity 0")
	}
}

func TestDenseStoreHandleZeroAfterClear(t *testing.T) {
	store := NewDenseStrategy().NewStore(ecs.ComponentType("comp"))
	zero := handle.FromIndex(0)

	if err := store.Set(handle.FromIndex(2), "two"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if store.Has(zero) {
		t.Fatalf("empty slot 0 must not match handle 0")
	}
	store.Clear()
	if err := store.Set(handle.FromIndex(3), "three"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if store.Has(zero) || store.Has(handle.FromIndex(2)) {
		t.Fatalf("cleared slots must stay empty after regrowth")
	}

	visits := 0
	store.Iterate(func(ecs.EntityID, any) bool {
		visits++
		return true
	})
	if visits != 1 {
		t.Fatalf("expected 1 visit, got %d", visits)
	}
}

func TestDenseStoreRejectsReservedIndex(t *testing.T) {
	store := NewDenseStrategy().NewStore(ecs.ComponentType("comp"))
	reserved := handle.Handle(0xFFFFF001)

	err := store.Set(reserved, 1)
	if errors.Cause(err) != handle.ErrInvalidHandle {
		t.Fatalf("expected ErrInvalidHandle, got %v", err)
	}
	if store.Has(reserved) || store.Len() != 0 {
		t.Fatalf("reserved index must not be stored")
	}
}
