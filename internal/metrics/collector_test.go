package metrics

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DangerosoDavo/slotengine/ecs"
	"github.com/DangerosoDavo/slotengine/handle"
)

func TestCollectorTableAndSetGauges(t *testing.T) {
	c := NewCollector()
	c.ObserveTable("b", handle.Stats{Live: 3, Free: 1, Capacity: 4})
	c.ObserveTable("a", handle.Stats{Live: 10, Free: 0, Capacity: 10})
	c.ObserveSet("a", "Velocity", 2)
	c.ObserveSet("a", "Position", 7)

	expected := `
# HELP handle_table_live Live handles in the table.
# TYPE handle_table_live gauge
handle_table_live{shard="a"} 10
handle_table_live{shard="b"} 3
# HELP handle_table_capacity Slots ever allocated.
# TYPE handle_table_capacity gauge
handle_table_capacity{shard="a"} 10
handle_table_capacity{shard="b"} 4
# HELP sparse_set_len Entries stored in a sparse set.
# TYPE sparse_set_len gauge
sparse_set_len{set="Position",shard="a"} 7
sparse_set_len{set="Velocity",shard="a"} 2
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected),
		"handle_table_live", "handle_table_capacity", "sparse_set_len"))

	// Later observations replace earlier ones.
	c.ObserveTable("b", handle.Stats{Live: 0, Free: 4, Capacity: 4})
	assert.Equal(t, float64(4), testutil.ToFloat64(c.tableFree.WithLabelValues("b")))
}

func TestCollectorAccumulatesTicks(t *testing.T) {
	c := NewCollector()
	observe := c.TickObserver("0")
	observe(ecs.TickSummary{Duration: 500 * time.Millisecond, CommandsApplied: 4})
	observe(ecs.TickSummary{Duration: 250 * time.Millisecond, Error: errors.New("boom")})

	expected := `
# HELP ecs_ticks_total Scheduler ticks observed.
# TYPE ecs_ticks_total counter
ecs_ticks_total{shard="0"} 2
# HELP ecs_tick_errors_total Scheduler ticks that failed.
# TYPE ecs_tick_errors_total counter
ecs_tick_errors_total{shard="0"} 1
# HELP ecs_tick_duration_seconds_total Time spent in scheduler ticks.
# TYPE ecs_tick_duration_seconds_total counter
ecs_tick_duration_seconds_total{shard="0"} 0.75
# HELP ecs_commands_applied_total Deferred commands applied.
# TYPE ecs_commands_applied_total counter
ecs_commands_applied_total{shard="0"} 4
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected),
		"ecs_ticks_total", "ecs_tick_errors_total", "ecs_tick_duration_seconds_total", "ecs_commands_applied_total"))
}

func TestWriteMetricsEscapesLabelValues(t *testing.T) {
	c := NewCollector()
	c.ObserveTable("naïve\n\"x\"", handle.Stats{Live: 1, Capacity: 1})

	var buf bytes.Buffer
	require.NoError(t, c.WriteMetrics(&buf))
	out := buf.String()

	assert.Contains(t, out, "# TYPE handle_table_live gauge\n")
	assert.Contains(t, out, `handle_table_live{shard="naïve\n\"x\""} 1`)
	assert.NotContains(t, out, `\u`)
}

func TestWriteMetricsOrdersShards(t *testing.T) {
	c := NewCollector()
	c.ObserveTable("b", handle.Stats{Live: 1})
	c.ObserveTable("a", handle.Stats{Live: 2})

	var buf bytes.Buffer
	require.NoError(t, c.WriteMetrics(&buf))
	out := buf.String()
	assert.Less(t, strings.Index(out, `handle_table_live{shard="a"}`), strings.Index(out, `handle_table_live{shard="b"}`))
}

func TestCollectorNilWriter(t *testing.T) {
	assert.NoError(t, NewCollector().WriteMetrics(nil))
}
