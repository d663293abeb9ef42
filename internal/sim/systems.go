package sim

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/DangerosoDavo/slotengine/ecs"
)

// spawnSystem tops the population back up to the configured size.
type spawnSystem struct{ sim *Sim }

func (spawnSystem) Descriptor() ecs.SystemDescriptor {
	return ecs.SystemDescriptor{Name: "spawn", Phase: ecs.PhaseInput}
}

func (s spawnSystem) Run(_ context.Context, exec ecs.ExecutionContext) ecs.SystemResult {
	deficit := s.sim.cfg.Entities - exec.World().Registry().Count()
	if deficit <= 0 {
		return ecs.SystemResult{Skipped: true}
	}
	rng := s.sim.rng
	bounds := s.sim.cfg.Bounds
	for i := 0; i < deficit; i++ {
		stats := Archetypes[rng.Intn(len(Archetypes))]
		angle := rng.Float64() * 2 * math.Pi
		exec.Defer(spawnCommand{
			sim:   s.sim,
			stats: stats,
			pos:   Position{X: rng.Float64() * bounds, Y: rng.Float64() * bounds},
			vel:   Velocity{DX: math.Cos(angle) * stats.MoveSpeed, DY: math.Sin(angle) * stats.MoveSpeed},
		})
	}
	return ecs.SystemResult{}
}

// movementSystem advances every entity that has both a position and a
// velocity, wrapping around the world bounds.
type movementSystem struct{ sim *Sim }

func (movementSystem) Descriptor() ecs.SystemDescriptor {
	return ecs.SystemDescriptor{Name: "movement", Phase: ecs.PhaseUpdate}
}

func (s movementSystem) Run(_ context.Context, exec ecs.ExecutionContext) ecs.SystemResult {
	world := exec.World()
	positions, err := world.ViewComponent(ComponentPosition)
	if err != nil {
		return ecs.SystemResult{Err: err}
	}
	velocities, err := world.ViewComponent(ComponentVelocity)
	if err != nil {
		return ecs.SystemResult{Err: err}
	}

	dt := exec.TimeDelta().Seconds()
	bounds := s.sim.cfg.Bounds
	ecs.Join(positions, velocities, func(id ecs.EntityID, p, v any) bool {
		pos, vel := p.(Position), v.(Velocity)
		pos.X = wrap(pos.X+vel.DX*dt, bounds)
		pos.Y = wrap(pos.Y+vel.DY*dt, bounds)
		exec.Defer(ecs.NewAddComponentCommand(id, ComponentPosition, pos))
		return true
	})
	return ecs.SystemResult{}
}

func wrap(v, bounds float64) float64 {
	v = math.Mod(v, bounds)
	if v < 0 {
		v += bounds
	}
	return v
}

// combatSystem strikes a random share of the living population. The share is
// the configured churn rate.
type combatSystem struct{ sim *Sim }

func (combatSystem) Descriptor() ecs.SystemDescriptor {
	return ecs.SystemDescriptor{Name: "combat", Phase: ecs.PhaseUpdate}
}

func (s combatSystem) Run(_ context.Context, exec ecs.ExecutionContext) ecs.SystemResult {
	world := exec.World()
	base, err := world.ViewComponent(ComponentBaseStats)
	if err != nil {
		return ecs.SystemResult{Err: err}
	}
	current, err := world.ViewComponent(ComponentCurrentStats)
	if err != nil {
		return ecs.SystemResult{Err: err}
	}

	rng := s.sim.rng
	ecs.Each(current, func(id ecs.EntityID, cur CurrentStats) bool {
		if cur.Dead || rng.Float64() >= s.sim.cfg.Churn {
			return true
		}
		defender, ok := ecs.Get[BaseStats](base, id)
		if !ok {
			return true
		}
		attacker := Archetypes[rng.Intn(len(Archetypes))]
		cur.Health -= damage(attacker.Attack*strikeMultiplier, defender)
		if cur.Health <= 0 {
			cur.Health = 0
			cur.Dead = true
		}
		exec.Defer(ecs.NewAddComponentCommand(id, ComponentCurrentStats, cur))
		return true
	})
	return ecs.SystemResult{}
}

const strikeMultiplier = 4

// reaperSystem destroys dead entities, freeing their slots for reuse.
type reaperSystem struct{ sim *Sim }

func (reaperSystem) Descriptor() ecs.SystemDescriptor {
	return ecs.SystemDescriptor{Name: "reaper", Phase: ecs.PhasePostUpdate}
}

func (s reaperSystem) Run(_ context.Context, exec ecs.ExecutionContext) ecs.SystemResult {
	current, err := exec.World().ViewComponent(ComponentCurrentStats)
	if err != nil {
		return ecs.SystemResult{Err: err}
	}
	ecs.Each(current, func(id ecs.EntityID, cur CurrentStats) bool {
		if cur.Dead {
			exec.Defer(killCommand{sim: s.sim, id: id})
		}
		return true
	})
	return ecs.SystemResult{}
}

// censusSystem periodically logs the population.
type censusSystem struct{ sim *Sim }

func (censusSystem) Descriptor() ecs.SystemDescriptor {
	return ecs.SystemDescriptor{Name: "census", Phase: ecs.PhaseOutput, RunEvery: ecs.TickInterval{Every: 60}}
}

func (s censusSystem) Run(_ context.Context, exec ecs.ExecutionContext) ecs.SystemResult {
	stats := exec.World().Registry().Stats()
	exec.Logger().Info("census",
		zap.Uint64("tick", exec.TickIndex()),
		zap.Int("live", stats.Live),
		zap.Int("free", stats.Free),
		zap.Int("spawned", s.sim.spawned),
		zap.Int("destroyed", s.sim.destroyed),
	)
	return ecs.SystemResult{}
}
