package sim

import (
	"context"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/DangerosoDavo/slotengine/ecs"
	"github.com/DangerosoDavo/slotengine/handle"
)

// TickRate is the simulated time step.
const TickRate = time.Second / 60

// Config sizes a simulation.
type Config struct {
	// Entities is the population the spawner maintains.
	Entities int
	// Churn is the probability that a living entity is struck in a tick.
	Churn float64
	Seed  int64
	// Bounds is the side of the square world. Defaults to 100.
	Bounds float64
}

// Option configures a Sim.
type Option func(*Sim)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Sim) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRegistryOptions passes allocator options to the entity registry.
func WithRegistryOptions(opts ...handle.Option) Option {
	return func(s *Sim) { s.registryOpts = append(s.registryOpts, opts...) }
}

// WithSchedulerOptions passes options to the scheduler.
func WithSchedulerOptions(opts ...ecs.SchedulerOption) Option {
	return func(s *Sim) { s.schedulerOpts = append(s.schedulerOpts, opts...) }
}

// Sim owns one world and its scheduler. It is driven from a single goroutine;
// run several Sims to use more cores.
type Sim struct {
	cfg           Config
	world         *ecs.World
	scheduler     *ecs.Scheduler
	rng           *rand.Rand
	logger        *zap.Logger
	registryOpts  []handle.Option
	schedulerOpts []ecs.SchedulerOption

	spawned   int
	destroyed int
}

// Report summarises a simulation run.
type Report struct {
	Ticks     uint64
	Spawned   int
	Destroyed int
	Live      int
	Table     handle.Stats
}

func New(cfg Config, opts ...Option) (*Sim, error) {
	if cfg.Entities <= 0 {
		return nil, errors.Errorf("sim: entities must be positive, got %d", cfg.Entities)
	}
	if cfg.Churn < 0 || cfg.Churn > 1 {
		return nil, errors.Errorf("sim: churn must be within [0,1], got %g", cfg.Churn)
	}
	if cfg.Bounds <= 0 {
		cfg.Bounds = 100
	}

	s := &Sim{
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	registryOpts := append([]handle.Option{handle.WithCapacity(cfg.Entities)}, s.registryOpts...)
	s.world = ecs.NewWorld(
		ecs.WithEntityRegistry(ecs.NewEntityRegistry(registryOpts...)),
		ecs.WithLogger(s.logger),
	)
	if err := RegisterComponents(s.world, cfg.Entities); err != nil {
		return nil, err
	}

	s.scheduler = ecs.NewScheduler(s.world, s.schedulerOpts...)
	systems := []ecs.System{
		spawnSystem{sim: s},
		movementSystem{sim: s},
		combatSystem{sim: s},
		reaperSystem{sim: s},
		censusSystem{sim: s},
	}
	for _, sys := range systems {
		if err := s.scheduler.Register(sys); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Run advances the simulation by ticks steps.
func (s *Sim) Run(ctx context.Context, ticks int) error {
	return s.scheduler.Run(ctx, ticks, TickRate)
}

func (s *Sim) World() *ecs.World {
	return s.world
}

func (s *Sim) Report() Report {
	stats := s.world.Registry().Stats()
	return Report{
		Ticks:     s.scheduler.TickIndex(),
		Spawned:   s.spawned,
		Destroyed: s.destroyed,
		Live:      stats.Live,
		Table:     stats,
	}
}

// SetLengths returns the number of entries in each component store.
func (s *Sim) SetLengths() map[ecs.ComponentType]int {
	out := make(map[ecs.ComponentType]int)
	for _, typ := range s.world.Storage().Types() {
		view, err := s.world.ViewComponent(typ)
		if err != nil {
			continue
		}
		out[typ] = view.Len()
	}
	return out
}
