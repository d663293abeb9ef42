package ecs

import "github.com/pkg/errors"

// NewCreateEntityCommand enqueues a new entity creation. If target is non-nil it receives the allocated ID.
func NewCreateEntityCommand(target *EntityID) Command {
	return createEntityCommand{target: target}
}

// NewDestroyEntityCommand enqueues an entity deletion together with all of its components.
func NewDestroyEntityCommand(id EntityID) Command {
	return destroyEntityCommand{entity: id}
}

// NewAddComponentCommand enqueues a component addition.
func NewAddComponentCommand(id EntityID, component ComponentType, value any) Command {
	return addComponentCommand{entity: id, component: component, value: value}
}

// NewRemoveComponentCommand enqueues a component removal.
func NewRemoveComponentCommand(id EntityID, component ComponentType) Command {
	return removeComponentCommand{entity: id, component: component}
}

type createEntityCommand struct {
	target *EntityID
}

type destroyEntityCommand struct {
	entity EntityID
}

type addComponentCommand struct {
	entity    EntityID
	component ComponentType
	value     any
}

type removeComponentCommand struct {
	entity    EntityID
	component ComponentType
}

func (c createEntityCommand) Apply(world *World) error {
	id, err := world.CreateEntity()
	if err != nil {
		return err
	}
	if c.target != nil {
		*c.target = id
	}
	return nil
}

func (c destroyEntityCommand) Apply(world *World) error {
	return world.DestroyEntity(c.entity)
}

func (c addComponentCommand) Apply(world *World) error {
	if err := world.SetComponent(c.entity, c.component, c.value); err != nil {
		return errors.Wrapf(err, "ecs: add component %s", c.component)
	}
	return nil
}

func (c removeComponentCommand) Apply(world *World) error {
	if c.entity.IsNil() {
		return ErrNilEntity
	}
	_, err := world.RemoveComponent(c.entity, c.component)
	return err
}

var (
	_ Command = createEntityCommand{}
	_ Command = destroyEntityCommand{}
	_ Command = addComponentCommand{}
	_ Command = removeComponentCommand{}
)
