package sim

import (
	"github.com/pkg/errors"

	"github.com/DangerosoDavo/slotengine/ecs"
)

// spawnCommand creates an entity with every simulation component.
type spawnCommand struct {
	sim   *Sim
	stats BaseStats
	pos   Position
	vel   Velocity
}

func (c spawnCommand) Apply(world *ecs.World) error {
	id, err := world.CreateEntity()
	if err != nil {
		return errors.Wrap(err, "sim: spawn")
	}
	components := []struct {
		typ   ecs.ComponentType
		value any
	}{
		{ComponentBaseStats, c.stats},
		{ComponentCurrentStats, CurrentStats{Health: c.stats.MaxHealth}},
		{ComponentPosition, c.pos},
		{ComponentVelocity, c.vel},
	}
	for _, comp := range components {
		if err := world.SetComponent(id, comp.typ, comp.value); err != nil {
			return errors.Wrapf(err, "sim: spawn %v", id)
		}
	}
	c.sim.spawned++
	return nil
}

// killCommand destroys an entity and counts the death.
type killCommand struct {
	sim *Sim
	id  ecs.EntityID
}

func (c killCommand) Apply(world *ecs.World) error {
	if err := world.DestroyEntity(c.id); err != nil {
		return err
	}
	c.sim.destroyed++
	return nil
}
