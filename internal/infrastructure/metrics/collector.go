// Package metrics provides an in-process ports.MetricsCollector and
// ports.Tracer adapter. It exists so the interpreter has something real to
// report run/step/guard counters and execution spans to without forcing a
// specific observability backend on every caller; a production deployment
// can swap in a Prometheus- or OpenTelemetry-backed adapter behind the same
// ports interfaces.
package metrics

import (
	"context"
	"sort"
	"sync"

	"github.com/grimoire-lang/grimoire/internal/ports"
)

// Collector accumulates counters, gauges, and histogram samples in memory,
// guarded by a mutex the way breaker.Manager serialises concurrent access
// from parallel step branches.
type Collector struct {
	mu         sync.Mutex
	counters   map[string]float64
	gauges     map[string]float64
	histograms map[string][]float64
}

// NewCollector returns an empty in-memory collector.
func NewCollector() *Collector {
	return &Collector{
		counters:   make(map[string]float64),
		gauges:     make(map[string]float64),
		histograms: make(map[string][]float64),
	}
}

var _ ports.MetricsCollector = (*Collector)(nil)

func (c *Collector) key(name string, labels map[string]string) string {
	names := make([]string, 0, len(labels))
	for k := range labels {
		names = append(names, k)
	}
	sort.Strings(names)
	key := name
	for _, k := range names {
		key += "|" + k + "=" + labels[k]
	}
	return key
}

// IncCounter implements ports.MetricsCollector.
func (c *Collector) IncCounter(_ context.Context, name string, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[c.key(name, labels)]++
}

// SetGauge implements ports.MetricsCollector.
func (c *Collector) SetGauge(_ context.Context, name string, value float64, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gauges[c.key(name, labels)] = value
}

// ObserveHistogram implements ports.MetricsCollector.
func (c *Collector) ObserveHistogram(_ context.Context, name string, value float64, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.key(name, labels)
	c.histograms[key] = append(c.histograms[key], value)
}

// Counter returns the current value of a counter, for tests.
func (c *Collector) Counter(name string, labels map[string]string) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counters[c.key(name, labels)]
}

// Histogram returns the recorded samples for a histogram, for tests.
func (c *Collector) Histogram(name string, labels map[string]string) []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]float64, len(c.histograms[c.key(name, labels)]))
	copy(out, c.histograms[c.key(name, labels)])
	return out
}
