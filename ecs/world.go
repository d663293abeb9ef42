package ecs

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type WorldOption func(*World)

// NewWorld constructs a world with default registries and providers.
func NewWorld(opts ...WorldOption) *World {
	w := &World{
		registry:  NewEntityRegistry(),
		storage:   newStorageProvider(),
		resources: newResourceContainer(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WithEntityRegistry overrides the default registry.
func WithEntityRegistry(registry *EntityRegistry) WorldOption {
	return func(w *World) {
		if registry != nil {
			w.registry = registry
		}
	}
}

// WithStorageProvider overrides the default storage provider.
func WithStorageProvider(provider StorageProvider) WorldOption {
	return func(w *World) {
		if provider != nil {
			w.storage = provider
		}
	}
}

// WithResourceContainer overrides the default resource container.
func WithResourceContainer(container ResourceContainer) WorldOption {
	return func(w *World) {
		if container != nil {
			w.resources = container
		}
	}
}

// WithLogger sets the logger used for world diagnostics.
func WithLogger(logger *zap.Logger) WorldOption {
	return func(w *World) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// Registry exposes the backing entity registry.
func (w *World) Registry() *EntityRegistry {
	return w.registry
}

// Storage returns the storage provider used by the world.
func (w *World) Storage() StorageProvider {
	return w.storage
}

// Resources exposes the resource container.
func (w *World) Resources() ResourceContainer {
	return w.resources
}

// Logger returns the world's logger.
func (w *World) Logger() *zap.Logger {
	return w.logger
}

// CreateEntity allocates a new entity.
func (w *World) CreateEntity() (EntityID, error) {
	return w.registry.Create()
}

// IsAlive reports whether id refers to a live entity.
func (w *World) IsAlive(id EntityID) bool {
	return w.registry.IsAlive(id)
}

// DestroyEntity removes the entity's components from every registered store
// and then releases its identifier. Stale identifiers are rejected before any
// store is touched, so a recycled slot's new occupant keeps its components.
func (w *World) DestroyEntity(id EntityID) error {
	if id.IsNil() {
		return ErrNilEntity
	}
	if !w.registry.IsAlive(id) {
		w.logger.Warn("destroy of dead entity rejected", zap.Stringer("entity", id))
		return errors.Wrapf(ErrEntityNotAlive, "destroy %v", id)
	}
	removed := w.storage.RemoveEntity(id)
	if err := w.registry.Destroy(id); err != nil {
		return err
	}
	w.logger.Debug("entity destroyed", zap.Stringer("entity", id), zap.Int("components", removed))
	return nil
}

// RegisterComponent allows callers to register component storage strategies.
func (w *World) RegisterComponent(t ComponentType, strategy StorageStrategy) error {
	return w.storage.RegisterComponent(t, strategy)
}

// ViewComponent retrieves a component view by type.
func (w *World) ViewComponent(t ComponentType) (ComponentView, error) {
	return w.storage.View(t)
}

// SetComponent stores value as the t component of a live entity.
func (w *World) SetComponent(id EntityID, t ComponentType, value any) error {
	store, err := w.writable(t)
	if err != nil {
		return err
	}
	if id.IsNil() {
		return ErrNilEntity
	}
	if !w.registry.IsAlive(id) {
		return errors.Wrapf(ErrEntityNotAlive, "set %s on %v", t, id)
	}
	return store.Set(id, value)
}

// RemoveComponent drops the t component of id and reports whether it existed.
func (w *World) RemoveComponent(id EntityID, t ComponentType) (bool, error) {
	store, err := w.writable(t)
	if err != nil {
		return false, err
	}
	return store.Remove(id), nil
}

// ApplyCommands executes deferred commands against the world.
func (w *World) ApplyCommands(commands []Command) error {
	return w.storage.Apply(w, commands)
}

func (w *World) writable(t ComponentType) (ComponentStore, error) {
	view, err := w.storage.View(t)
	if err != nil {
		return nil, err
	}
	store, ok := view.(ComponentStore)
	if !ok {
		return nil, errors.Wrapf(ErrComponentNotWritable, "component %s", t)
	}
	return store, nil
}
