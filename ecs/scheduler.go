package ecs

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Phase orders systems within a single tick.
type Phase int

const (
	PhaseInput Phase = iota
	PhasePreUpdate
	PhaseUpdate
	PhasePostUpdate
	PhaseOutput
	PhaseCleanup
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhasePreUpdate:
		return "pre_update"
	case PhaseUpdate:
		return "update"
	case PhasePostUpdate:
		return "post_update"
	case PhaseOutput:
		return "output"
	case PhaseCleanup:
		return "cleanup"
	}
	return "unknown"
}

// ErrorPolicy defines how the scheduler responds to system failures.
type ErrorPolicy uint8

const (
	ErrorPolicyAbort ErrorPolicy = iota
	ErrorPolicyContinue
	ErrorPolicyRetry
)

// TickSummary captures what happened during one tick.
type TickSummary struct {
	Tick            uint64
	Duration        time.Duration
	SystemsTotal    int
	SystemsExecuted int
	SystemsSkipped  int
	SystemsFailed   int
	CommandsApplied int
	Error           error
}

// TickObserver receives a summary after each tick.
type TickObserver func(TickSummary)

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithErrorPolicy selects how failing systems are handled.
func WithErrorPolicy(policy ErrorPolicy) SchedulerOption {
	return func(s *Scheduler) { s.policy = policy }
}

// WithSchedulerLogger overrides the logger, which defaults to the world's.
func WithSchedulerLogger(logger *zap.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTickObserver registers fn to receive tick summaries.
func WithTickObserver(fn TickObserver) SchedulerOption {
	return func(s *Scheduler) {
		if fn != nil {
			s.observers = append(s.observers, fn)
		}
	}
}

// Scheduler runs systems against a world once per tick, in phase order and
// then registration order. Commands deferred by systems are applied after the
// last system of the tick, so handles destroyed during a tick stay valid
// until every system has seen them.
type Scheduler struct {
	mu        sync.Mutex
	world     *World
	systems   []System
	names     map[string]struct{}
	policy    ErrorPolicy
	pool      *CommandBufferPool
	logger    *zap.Logger
	observers []TickObserver
	tick      uint64
}

// NewScheduler constructs a scheduler bound to the provided world.
func NewScheduler(world *World, opts ...SchedulerOption) *Scheduler {
	if world == nil {
		world = NewWorld()
	}
	s := &Scheduler{
		world:  world,
		names:  make(map[string]struct{}),
		pool:   NewCommandBufferPool(),
		logger: world.Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds a system. Names must be unique.
func (s *Scheduler) Register(sys System) error {
	if sys == nil {
		return errors.New("ecs: nil system")
	}
	desc := sys.Descriptor()
	if desc.Name == "" {
		return errors.New("ecs: system requires non-empty name")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.names[desc.Name]; exists {
		return errors.Wrapf(ErrSystemAlreadyRegistered, "system %s", desc.Name)
	}
	s.names[desc.Name] = struct{}{}
	s.systems = append(s.systems, sys)
	sort.SliceStable(s.systems, func(i, j int) bool {
		return s.systems[i].Descriptor().Phase < s.systems[j].Descriptor().Phase
	})
	return nil
}

// World returns the world driven by the scheduler.
func (s *Scheduler) World() *World {
	return s.world
}

// TickIndex returns the number of completed ticks.
func (s *Scheduler) TickIndex() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick
}

// Run executes steps ticks, stopping at the first error.
func (s *Scheduler) Run(ctx context.Context, steps int, dt time.Duration) error {
	for i := 0; i < steps; i++ {
		if err := s.Tick(ctx, dt); err != nil {
			return err
		}
	}
	return nil
}

// Tick runs every due system once and applies their deferred commands.
func (s *Scheduler) Tick(ctx context.Context, dt time.Duration) error {
	s.mu.Lock()
	systems := append([]System(nil), s.systems...)
	tick := s.tick
	s.mu.Unlock()

	buf := s.pool.Get()
	defer s.pool.Put(buf)

	summary := TickSummary{Tick: tick, SystemsTotal: len(systems)}
	start := time.Now()
	err := s.runSystems(ctx, systems, dt, tick, buf, &summary)
	if err == nil {
		applied, flushErr := buf.Flush(s.world)
		summary.CommandsApplied = applied
		if flushErr != nil {
			err = errors.Wrap(flushErr, "ecs: apply deferred commands")
		}
	}
	summary.Duration = time.Since(start)
	summary.Error = err
	s.publish(summary)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.tick++
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) runSystems(ctx context.Context, systems []System, dt time.Duration, tick uint64, buf *CommandBuffer, summary *TickSummary) error {
	execCtx := &systemExecutionContext{world: s.world, dt: dt, tick: tick, commands: buf}

	for _, sys := range systems {
		if err := ctx.Err(); err != nil {
			return err
		}
		desc := sys.Descriptor()
		if !shouldRunTick(tick, desc.RunEvery) {
			summary.SystemsSkipped++
			continue
		}
		logger := s.logger.With(zap.String("system", desc.Name), zap.Stringer("phase", desc.Phase))
		execCtx.logger = logger

		snapshot := buf.Snapshot()
		result := sys.Run(ctx, execCtx)
		if result.Err != nil && s.policy == ErrorPolicyRetry {
			logger.Warn("system failed, retrying", zap.Error(result.Err))
			buf.Restore(snapshot)
			result = sys.Run(ctx, execCtx)
		}
		if result.Err != nil {
			buf.Restore(snapshot)
			summary.SystemsFailed++
			err := errors.Wrapf(result.Err, "ecs: system %s failed", desc.Name)
			if s.policy == ErrorPolicyContinue {
				logger.Error("system failed", zap.Error(result.Err))
				continue
			}
			return err
		}
		if result.Skipped {
			summary.SystemsSkipped++
			continue
		}
		summary.SystemsExecuted++
	}
	return nil
}

func (s *Scheduler) publish(summary TickSummary) {
	fields := []zap.Field{
		zap.Uint64("tick", summary.Tick),
		zap.Duration("duration", summary.Duration),
		zap.Int("systems_executed", summary.SystemsExecuted),
		zap.Int("systems_skipped", summary.SystemsSkipped),
		zap.Int("systems_failed", summary.SystemsFailed),
		zap.Int("commands_applied", summary.CommandsApplied),
	}
	if summary.Error != nil {
		s.logger.Error("tick failed", append(fields, zap.Error(summary.Error))...)
	} else {
		s.logger.Debug("tick complete", fields...)
	}
	for _, observer := range s.observers {
		observer(summary)
	}
}

func shouldRunTick(tick uint64, interval TickInterval) bool {
	every := uint64(interval.Every)
	if every == 0 {
		return true
	}
	offset := uint64(interval.Offset % interval.Every)
	return (tick+offset)%every == 0
}

type systemExecutionContext struct {
	world    *World
	dt       time.Duration
	tick     uint64
	logger   *zap.Logger
	commands *CommandBuffer
}

func (c *systemExecutionContext) World() *World { return c.world }

func (c *systemExecutionContext) TimeDelta() time.Duration { return c.dt }

func (c *systemExecutionContext) TickIndex() uint64 { return c.tick }

func (c *systemExecutionContext) Logger() *zap.Logger { return c.logger }

func (c *systemExecutionContext) Defer(cmd Command) { c.commands.Push(cmd) }
