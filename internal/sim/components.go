// Package sim is a small entity simulation used to exercise the handle table
// under churn: entities spawn from shared archetype stats, move, take damage
// and die, so their slots are recycled with fresh generations.
package sim

import (
	"github.com/DangerosoDavo/slotengine/ecs"
	"github.com/DangerosoDavo/slotengine/ecs/storage"
)

const (
	ComponentBaseStats    ecs.ComponentType = "BaseStats"
	ComponentCurrentStats ecs.ComponentType = "CurrentStats"
	ComponentPosition     ecs.ComponentType = "Position"
	ComponentVelocity     ecs.ComponentType = "Velocity"
)

// BaseStats holds the immutable values of an archetype. Entities of the same
// archetype share a single stored instance.
type BaseStats struct {
	Name      string
	MaxHealth int
	Attack    int
	Defense   int
	MoveSpeed float64
}

// CurrentStats is the mutable per-entity state.
type CurrentStats struct {
	Health int
	Dead   bool
}

type Position struct {
	X, Y float64
}

type Velocity struct {
	DX, DY float64
}

var (
	ZombieStats   = BaseStats{Name: "zombie", MaxHealth: 50, Attack: 10, Defense: 5, MoveSpeed: 2}
	SkeletonStats = BaseStats{Name: "skeleton", MaxHealth: 40, Attack: 15, Defense: 3, MoveSpeed: 3}
	MinerStats    = BaseStats{Name: "miner", MaxHealth: 75, Attack: 5, Defense: 8, MoveSpeed: 3}
	BossStats     = BaseStats{Name: "boss", MaxHealth: 500, Attack: 50, Defense: 30, MoveSpeed: 1.5}
)

// Archetypes lists the stats new entities are drawn from.
var Archetypes = []BaseStats{ZombieStats, SkeletonStats, MinerStats, BossStats}

// RegisterComponents registers the simulation's component types: shared base
// stats, slot-indexed current stats and sparse position/velocity.
func RegisterComponents(world *ecs.World, capacity int) error {
	strategies := []struct {
		typ      ecs.ComponentType
		strategy ecs.StorageStrategy
	}{
		{ComponentBaseStats, storage.NewSharedStrategy()},
		{ComponentCurrentStats, storage.NewDenseStrategy()},
		{ComponentPosition, storage.NewSparseStrategyWithCapacity(capacity)},
		{ComponentVelocity, storage.NewSparseStrategyWithCapacity(capacity)},
	}
	for _, s := range strategies {
		if err := world.RegisterComponent(s.typ, s.strategy); err != nil {
			return err
		}
	}
	return nil
}

// damage is the health lost by a defender struck with the given force.
func damage(force int, defender BaseStats) int {
	return max(force-defender.Defense, 1)
}
