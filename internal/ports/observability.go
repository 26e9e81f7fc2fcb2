package ports

import "context"

// MetricsCollector records quantitative observability signals emitted by the
// interpreter. The interface is intentionally generic so
// adapters can back onto an in-memory counter set, Prometheus, or a vendor
// SDK. Standard metric names include the ones below; the interpreter emits
// the three counters and the run-duration histogram, and nothing in this
// module emits grimoire_active_runs or the advisory-call histogram:
//   - Counters:
//     grimoire_run_executions_total{status="success|failure|halted"}
//     grimoire_step_executions_total{status="success|failure|skipped|halted"}
//     grimoire_guard_checks_total{severity="...", status="pass|fail"}
//   - Gauges:
//     grimoire_active_runs
//   - Histograms:
//     grimoire_run_execution_duration_seconds
//     grimoire_advisory_call_duration_seconds{advisor="..."}
type MetricsCollector interface {
	IncCounter(ctx context.Context, name string, labels map[string]string)
	SetGauge(ctx context.Context, name string, value float64, labels map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, labels map[string]string)
}

// Tracer manages distributed tracing spans. Span names follow the convention
// `<component>.<operation>` (e.g., `interpreter.execute`, `loader.compile`,
// `advisor.ask`). Adapters should propagate correlation IDs and integrate
// with the chosen tracing backend (e.g., OpenTelemetry).
type Tracer interface {
	StartSpan(ctx context.Context, name string, attributes ...interface{}) (context.Context, Span)
	Inject(ctx context.Context, carrier interface{}) error
	Extract(ctx context.Context, carrier interface{}) (context.Context, error)
}

// Span represents an active tracing span.
type Span interface {
	SetAttribute(key string, value interface{})
	SetStatus(status SpanStatus, message string)
	End()
}

// SpanStatus provides strongly typed span result semantics.
type SpanStatus string

const (
	SpanStatusOK    SpanStatus = "ok"
	SpanStatusError SpanStatus = "error"
)
