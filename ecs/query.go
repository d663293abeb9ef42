package ecs

// Get returns the component stored for id when it exists and has type T.
func Get[T any](view ComponentView, id EntityID) (T, bool) {
	var zero T
	v, ok := view.Get(id)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Each calls fn for every component of type T in view. Values of another type
// are skipped.
func Each[T any](view ComponentView, fn func(EntityID, T) bool) {
	view.Iterate(func(id EntityID, v any) bool {
		typed, ok := v.(T)
		if !ok {
			return true
		}
		return fn(id, typed)
	})
}

// Join calls fn for every entity present in both a and b. It walks the smaller
// view and probes the larger one. fn must not write to either view; systems
// defer such writes through their ExecutionContext.
func Join(a, b ComponentView, fn func(id EntityID, av, bv any) bool) {
	if a.Len() <= b.Len() {
		a.Iterate(func(id EntityID, av any) bool {
			bv, ok := b.Get(id)
			if !ok {
				return true
			}
			return fn(id, av, bv)
		})
		return
	}
	b.Iterate(func(id EntityID, bv any) bool {
		av, ok := a.Get(id)
		if !ok {
			return true
		}
		return fn(id, av, bv)
	})
}
