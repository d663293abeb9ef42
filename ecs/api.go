package ecs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// World encapsulates entity/component storage and resources.
type World struct {
	registry  *EntityRegistry
	storage   StorageProvider
	resources ResourceContainer
	logger    *zap.Logger
}

// StorageProvider manages component storage backends.
type StorageProvider interface {
	RegisterComponent(ComponentType, StorageStrategy) error
	View(ComponentType) (ComponentView, error)
	// RemoveEntity drops the entity from every registered store and returns
	// how many stores held it.
	RemoveEntity(EntityID) int
	Types() []ComponentType
	Apply(*World, []Command) error
}

// StorageStrategy describes how a component type is stored internally.
type StorageStrategy interface {
	Name() string
	NewStore(ComponentType) ComponentStore
}

// ComponentType identifies a component storage bucket.
type ComponentType string

// ComponentStore permits read/write access to component instances.
type ComponentStore interface {
	ComponentView
	// Set inserts the component or replaces the value already stored for id.
	Set(EntityID, any) error
	Remove(EntityID) bool
	Clear()
}

// ComponentView exposes read-only iteration over stored components.
type ComponentView interface {
	ComponentType() ComponentType
	Len() int
	Has(EntityID) bool
	Get(EntityID) (any, bool)
	Iterate(func(EntityID, any) bool)
}

// Command represents a deferred mutation applied outside system execution.
type Command interface {
	Apply(world *World) error
}

// ResourceContainer holds shared resources accessible to systems.
type ResourceContainer interface {
	Get(name string) (any, bool)
	Set(name string, value any)
	Delete(name string)
	Range(func(string, any) bool)
}

// System represents executable logic driven by the Scheduler.
type System interface {
	Descriptor() SystemDescriptor
	Run(ctx context.Context, exec ExecutionContext) SystemResult
}

// SystemDescriptor describes scheduling metadata for a system.
type SystemDescriptor struct {
	Name     string
	Phase    Phase
	RunEvery TickInterval
}

// SystemResult indicates how a system behaved during execution.
type SystemResult struct {
	Skipped bool
	Err     error
}

// ExecutionContext supplies a system with scoped access to the world.
type ExecutionContext interface {
	World() *World
	TimeDelta() time.Duration
	TickIndex() uint64
	Logger() *zap.Logger
	Defer(cmd Command)
}

// TickInterval controls how frequently a system runs.
type TickInterval struct {
	Every  uint32
	Offset uint32
}
