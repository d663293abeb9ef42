package main

import (
	"io"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DangerosoDavo/slotengine/ecs"
	"github.com/DangerosoDavo/slotengine/handle"
	"github.com/DangerosoDavo/slotengine/internal/config"
	"github.com/DangerosoDavo/slotengine/internal/metrics"
	"github.com/DangerosoDavo/slotengine/internal/sim"
)

var (
	benchShards     int
	benchEntities   int
	benchIterations int
	benchChurn      float64
	benchSeed       int64
	benchMetrics    string
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Churn entities through sharded worlds and report handle table metrics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		applyBenchFlags(cmd, &cfg.Bench)
		if err := cfg.Validate(); err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		collector := metrics.NewCollector()
		reports, elapsed, err := runBench(cmd, cfg, logger, collector)
		if err != nil {
			return err
		}

		var total sim.Report
		for _, r := range reports {
			total.Spawned += r.Spawned
			total.Destroyed += r.Destroyed
			total.Live += r.Live
		}
		ticks := cfg.Bench.Shards * cfg.Bench.Iterations
		logger.Info("bench complete",
			zap.Int("shards", cfg.Bench.Shards),
			zap.Int("ticks", ticks),
			zap.Duration("elapsed", elapsed),
			zap.Float64("ticks_per_second", float64(ticks)/elapsed.Seconds()),
			zap.Int("spawned", total.Spawned),
			zap.Int("destroyed", total.Destroyed),
			zap.Int("live", total.Live),
		)
		return writeMetrics(cmd.OutOrStdout(), benchMetrics, collector)
	},
}

// runBench runs one simulation per shard in parallel. Shards share nothing
// but the collector.
func runBench(cmd *cobra.Command, cfg *config.Config, logger *zap.Logger, collector *metrics.Collector) ([]sim.Report, time.Duration, error) {
	b := cfg.Bench
	reports := make([]sim.Report, b.Shards)
	group, ctx := errgroup.WithContext(cmd.Context())
	start := time.Now()
	for i := 0; i < b.Shards; i++ {
		shard := strconv.Itoa(i)
		group.Go(func() error {
			s, err := sim.New(
				sim.Config{Entities: b.Entities, Churn: b.Churn, Seed: b.Seed + int64(i)},
				sim.WithLogger(logger.With(zap.String("shard", shard))),
				sim.WithRegistryOptions(
					handle.WithCapacity(cfg.ECS.InitialCapacity),
					handle.WithMaxSlots(cfg.EntityLimit())),
				sim.WithSchedulerOptions(ecs.WithTickObserver(collector.TickObserver(shard))),
			)
			if err != nil {
				return err
			}
			if err := s.Run(ctx, b.Iterations); err != nil {
				return errors.Wrapf(err, "shard %s", shard)
			}
			report := s.Report()
			reports[i] = report
			collector.ObserveTable(shard, report.Table)
			for typ, n := range s.SetLengths() {
				collector.ObserveSet(shard, string(typ), n)
			}
			return nil
		})
	}
	err := group.Wait()
	return reports, time.Since(start), err
}

func applyBenchFlags(cmd *cobra.Command, b *config.BenchConfig) {
	flags := cmd.Flags()
	if flags.Changed("shards") {
		b.Shards = benchShards
	}
	if flags.Changed("entities") {
		b.Entities = benchEntities
	}
	if flags.Changed("iterations") {
		b.Iterations = benchIterations
	}
	if flags.Changed("churn") {
		b.Churn = benchChurn
	}
	if flags.Changed("seed") {
		b.Seed = benchSeed
	}
}

// writeMetrics writes to path, to stdout for "-", or nowhere for "".
func writeMetrics(stdout io.Writer, path string, collector *metrics.Collector) error {
	switch path {
	case "":
		return nil
	case "-":
		return collector.WriteMetrics(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create metrics file")
	}
	if err := collector.WriteMetrics(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func init() {
	flags := benchCmd.Flags()
	flags.IntVar(&benchShards, "shards", 0, "number of worlds run in parallel")
	flags.IntVar(&benchEntities, "entities", 0, "population maintained per world")
	flags.IntVar(&benchIterations, "iterations", 0, "ticks per world")
	flags.Float64Var(&benchChurn, "churn", 0, "probability an entity is struck each tick")
	flags.Int64Var(&benchSeed, "seed", 0, "random seed of the first shard")
	flags.StringVar(&benchMetrics, "metrics", "-", `metrics output file ("-" for stdout, "" to disable)`)
	rootCmd.AddCommand(benchCmd)
}
