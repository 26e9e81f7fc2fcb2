package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCollectorIncCounter(t *testing.T) {
	c := NewCollector()
	ctx := context.Background()

	c.IncCounter(ctx, "grimoire_run_executions_total", map[string]string{"status": "success"})
	c.IncCounter(ctx, "grimoire_run_executions_total", map[string]string{"status": "success"})
	c.IncCounter(ctx, "grimoire_run_executions_total", map[string]string{"status": "failure"})

	require.Equal(t, float64(2), c.Counter("grimoire_run_executions_total", map[string]string{"status": "success"}))
	require.Equal(t, float64(1), c.Counter("grimoire_run_executions_total", map[string]string{"status": "failure"}))
	require.Equal(t, float64(0), c.Counter("grimoire_run_executions_total", map[string]string{"status": "halted"}))
}

func TestCollectorSetGauge(t *testing.T) {
	c := NewCollector()
	ctx := context.Background()

	c.SetGauge(ctx, "grimoire_active_runs", 3, nil)
	c.SetGauge(ctx, "grimoire_active_runs", 5, nil)

	c.mu.Lock()
	got := c.gauges[c.key("grimoire_active_runs", nil)]
	c.mu.Unlock()
	require.Equal(t, float64(5), got)
}

func TestCollectorObserveHistogram(t *testing.T) {
	c := NewCollector()
	ctx := context.Background()

	c.ObserveHistogram(ctx, "grimoire_run_execution_duration_seconds", 0.5, nil)
	c.ObserveHistogram(ctx, "grimoire_run_execution_duration_seconds", 1.5, nil)

	samples := c.Histogram("grimoire_run_execution_duration_seconds", nil)
	require.Equal(t, []float64{0.5, 1.5}, samples)
}
