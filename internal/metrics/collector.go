// Package metrics exports handle table, sparse set and scheduler statistics
// through a Prometheus registry.
package metrics

import (
	"io"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/DangerosoDavo/slotengine/ecs"
	"github.com/DangerosoDavo/slotengine/handle"
)

// Collector holds per-shard gauges and counters in its own registry. It is
// safe for concurrent use so that every shard of a benchmark can report into
// one collector.
type Collector struct {
	registry *prometheus.Registry

	tableLive     *prometheus.GaugeVec
	tableFree     *prometheus.GaugeVec
	tableCapacity *prometheus.GaugeVec
	setLen        *prometheus.GaugeVec

	ticks       *prometheus.CounterVec
	tickErrors  *prometheus.CounterVec
	tickSeconds *prometheus.CounterVec
	commands    *prometheus.CounterVec
}

func NewCollector() *Collector {
	shard := []string{"shard"}
	c := &Collector{
		registry: prometheus.NewRegistry(),
		tableLive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "handle_table_live",
			Help: "Live handles in the table.",
		}, shard),
		tableFree: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "handle_table_free",
			Help: "Slots waiting on the free list.",
		}, shard),
		tableCapacity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "handle_table_capacity",
			Help: "Slots ever allocated.",
		}, shard),
		setLen: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sparse_set_len",
			Help: "Entries stored in a sparse set.",
		}, []string{"shard", "set"}),
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecs_ticks_total",
			Help: "Scheduler ticks observed.",
		}, shard),
		tickErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecs_tick_errors_total",
			Help: "Scheduler ticks that failed.",
		}, shard),
		tickSeconds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecs_tick_duration_seconds_total",
			Help: "Time spent in scheduler ticks.",
		}, shard),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecs_commands_applied_total",
			Help: "Deferred commands applied.",
		}, shard),
	}
	c.registry.MustRegister(c)
	return c
}

func (c *Collector) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.tableLive, c.tableFree, c.tableCapacity, c.setLen,
		c.ticks, c.tickErrors, c.tickSeconds, c.commands,
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.collectors() {
		m.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, m := range c.collectors() {
		m.Collect(ch)
	}
}

// Gatherer exposes the collector's registry, e.g. for promhttp.HandlerFor.
func (c *Collector) Gatherer() prometheus.Gatherer {
	return c.registry
}

// ObserveTable records the latest occupancy of a shard's handle table.
func (c *Collector) ObserveTable(shard string, stats handle.Stats) {
	c.tableLive.WithLabelValues(shard).Set(float64(stats.Live))
	c.tableFree.WithLabelValues(shard).Set(float64(stats.Free))
	c.tableCapacity.WithLabelValues(shard).Set(float64(stats.Capacity))
}

// ObserveSet records the latest length of a named sparse set.
func (c *Collector) ObserveSet(shard, set string, length int) {
	c.setLen.WithLabelValues(shard, set).Set(float64(length))
}

// ObserveTick accumulates a scheduler tick summary.
func (c *Collector) ObserveTick(shard string, summary ecs.TickSummary) {
	c.ticks.WithLabelValues(shard).Inc()
	c.tickSeconds.WithLabelValues(shard).Add(summary.Duration.Seconds())
	c.commands.WithLabelValues(shard).Add(float64(summary.CommandsApplied))
	errs := c.tickErrors.WithLabelValues(shard)
	if summary.Error != nil {
		errs.Inc()
	}
}

// TickObserver adapts the collector to ecs.WithTickObserver for one shard.
func (c *Collector) TickObserver(shard string) ecs.TickObserver {
	return func(summary ecs.TickSummary) { c.ObserveTick(shard, summary) }
}

// WriteMetrics writes every family to w in the Prometheus text format,
// ordered by metric name and label values.
func (c *Collector) WriteMetrics(w io.Writer) error {
	if w == nil {
		return nil
	}
	families, err := c.registry.Gather()
	if err != nil {
		return errors.Wrap(err, "metrics: gather")
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return errors.Wrapf(err, "metrics: write %s", mf.GetName())
		}
	}
	return nil
}
