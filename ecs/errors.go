package ecs

import "github.com/pkg/errors"

var (
	// ErrComponentAlreadyRegistered indicates an attempt to register the same component twice.
	ErrComponentAlreadyRegistered = errors.New("ecs: component already registered")
	// ErrComponentNotRegistered signals lookup on an unknown component type.
	ErrComponentNotRegistered = errors.New("ecs: component not registered")
	// ErrComponentNotWritable is returned when a registered view does not accept writes.
	ErrComponentNotWritable = errors.New("ecs: component is not writable")
	// ErrNilStorageStrategy is returned when storage registration receives a nil strategy.
	ErrNilStorageStrategy = errors.New("ecs: nil storage strategy")
	// ErrNilComponentStore is returned when a strategy produces a nil store.
	ErrNilComponentStore = errors.New("ecs: strategy returned nil store")
	// ErrNilEntity is returned when an operation receives NilEntity.
	ErrNilEntity = errors.New("ecs: nil entity")
	// ErrEntityNotAlive is returned when an entity was destroyed or never created.
	ErrEntityNotAlive = errors.New("ecs: entity not alive")
	// ErrSystemAlreadyRegistered indicates two systems share a name.
	ErrSystemAlreadyRegistered = errors.New("ecs: system already registered")
)
