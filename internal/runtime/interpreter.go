package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/grimoire-lang/grimoire/internal/domain/ir"
	"github.com/grimoire-lang/grimoire/internal/ports"
	grimoireerrors "github.com/grimoire-lang/grimoire/pkg/errors"
)

// newRunID composes a run identifier from the spell id and the
// interpreter's own run counter.
func newRunID(spellID string, seq int) string {
	return fmt.Sprintf("%s-run-%d", spellID, seq)
}

// Interpreter drives a compiled SpellIR per spec.md §4.8: a sequential,
// single-threaded walk over the authored step list with cooperative
// suspension at action/advisory/wait boundaries and parallel branches.
type Interpreter struct {
	registry ports.PluginRegistry
	advisor  ports.AdvisorHandler
	breakers ports.CircuitBreakerManager
	logger   ports.Logger
	metrics  ports.MetricsCollector
	tracer   ports.Tracer
	runSeq   int
}

// NewInterpreter wires an Interpreter's external collaborators. advisor and
// breakers may be nil — a nil advisor falls back to fallback values /
// advisory guards passing; a nil breaker manager disables trip checks.
// Metrics and tracing are wired separately through WithMetrics/WithTracer
// since most callers (tests, one-off compiles) don't need either.
func NewInterpreter(registry ports.PluginRegistry, advisor ports.AdvisorHandler, breakers ports.CircuitBreakerManager, logger ports.Logger) *Interpreter {
	return &Interpreter{registry: registry, advisor: advisor, breakers: breakers, logger: logger}
}

// WithMetrics attaches a metrics collector and returns i for chaining.
func (i *Interpreter) WithMetrics(metrics ports.MetricsCollector) *Interpreter {
	i.metrics = metrics
	return i
}

// WithTracer attaches a tracer and returns i for chaining.
func (i *Interpreter) WithTracer(tracer ports.Tracer) *Interpreter {
	i.tracer = tracer
	return i
}

func (i *Interpreter) incCounter(ctx context.Context, name string, labels map[string]string) {
	if i.metrics != nil {
		i.metrics.IncCounter(ctx, name, labels)
	}
}

func (i *Interpreter) observeDuration(ctx context.Context, name string, seconds float64, labels map[string]string) {
	if i.metrics != nil {
		i.metrics.ObserveHistogram(ctx, name, seconds, labels)
	}
}

func (i *Interpreter) startSpan(ctx context.Context, name string) (context.Context, ports.Span) {
	if i.tracer == nil {
		return ctx, nil
	}
	return i.tracer.StartSpan(ctx, name)
}

func endSpan(span ports.Span, status ports.SpanStatus, message string) {
	if span == nil {
		return
	}
	span.SetStatus(status, message)
	span.End()
}

var _ ports.Interpreter = (*Interpreter)(nil)

// Execute implements ports.Interpreter.
func (i *Interpreter) Execute(ctx context.Context, spellIR *ir.SpellIR, opts ports.ExecuteOptions) (*ports.ExecutionResult, error) {
	mode := resolveMode(opts)

	ctx, span := i.startSpan(ctx, "interpreter.execute")

	i.runSeq++
	runID := newRunID(spellIR.ID, i.runSeq)

	rt := NewContext(runID, spellIR.ID, opts.Params, spellIR, opts.PersistentState)
	rt.Vault, rt.Chain, rt.Trigger = opts.Vault, opts.Chain, opts.Trigger

	var ledger *Ledger
	if opts.AuditWriter != nil {
		ledger = NewLedger(runID, spellIR.ID, NewAuditSink(opts.AuditWriter))
	} else {
		ledger = NewLedger(runID, spellIR.ID, nil)
	}

	ledger.Append(EventRunStarted, map[string]interface{}{"mode": string(mode)})

	result := &ports.ExecutionResult{RunID: runID, StartTime: rt.StartTime}

	finish := func(success bool, runErr error) (*ports.ExecutionResult, error) {
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(rt.StartTime)
		result.FinalState = rt.PersistentState(spellIR)
		result.Metrics = toExecutionMetrics(rt.Metrics())
		result.LedgerEvents = toLedgerRecords(ledger.Entries())
		result.Success = success

		status := "success"
		switch {
		case runErr != nil:
			status = "failure"
		case result.Halted:
			status = "halted"
		}
		i.incCounter(ctx, "grimoire_run_executions_total", map[string]string{"status": status})
		i.observeDuration(ctx, "grimoire_run_execution_duration_seconds", result.Duration.Seconds(), nil)

		if runErr != nil {
			result.Error = runErr.Error()
			ledger.Append(EventRunFailed, map[string]interface{}{"error": runErr.Error()})
			result.LedgerEvents = toLedgerRecords(ledger.Entries())
			endSpan(span, ports.SpanStatusError, runErr.Error())
			return result, nil
		}
		ledger.Append(EventRunCompleted, map[string]interface{}{})
		result.LedgerEvents = toLedgerRecords(ledger.Entries())
		endSpan(span, ports.SpanStatusOK, "")
		return result, nil
	}

	if err := i.runGuards(ctx, rt, ledger, spellIR.Guards, false); err != nil {
		return finish(false, err)
	}

	stepIndex := make(map[string]ir.Step, len(spellIR.Steps))
	for _, s := range spellIR.Steps {
		stepIndex[s.StepID()] = s
	}

	for _, step := range spellIR.Steps {
		if rt.StepExecuted(step.StepID()) {
			continue
		}
		if !dependenciesSatisfied(step, rt) {
			return finish(false, grimoireerrors.NewRuntimeError(step.StepID(), fmt.Errorf("unresolved dependency")))
		}

		out := i.dispatch(ctx, rt, ledger, mode, stepIndex, step)
		rt.IncrementStepsExecuted()
		rt.MarkStepExecuted(step.StepID())
		markChildrenExecuted(rt, step)

		if out.halted {
			i.incCounter(ctx, "grimoire_step_executions_total", map[string]string{"status": "halted"})
			result.Halted = true
			result.HaltReason = out.haltReason
			return finish(true, nil)
		}
		if out.failed {
			rt.IncrementErrors()
			onFailure := actionOnFailure(step)
			switch onFailure {
			case "skip":
				i.incCounter(ctx, "grimoire_step_executions_total", map[string]string{"status": "skipped"})
				ledger.Append(EventStepSkipped, map[string]interface{}{"step": step.StepID(), "error": out.err.Error()})
				continue
			case "catch":
				// Handled by an enclosing try; propagate as failure has no
				// parent here (a standalone non-try step never has this
				// value), so fall through to abort defensively.
				i.incCounter(ctx, "grimoire_step_executions_total", map[string]string{"status": "failure"})
				return finish(false, out.err)
			default: // "halt", "revert"
				i.incCounter(ctx, "grimoire_step_executions_total", map[string]string{"status": "failure"})
				return finish(false, out.err)
			}
		}
		i.incCounter(ctx, "grimoire_step_executions_total", map[string]string{"status": "success"})
	}

	if err := i.runGuards(ctx, rt, ledger, spellIR.Guards, true); err != nil {
		return finish(false, err)
	}

	return finish(true, nil)
}

func dependsOnOf(step ir.Step) []string {
	switch s := step.(type) {
	case ir.ComputeStep:
		return s.DependsOn
	case ir.ConditionalStep:
		return s.DependsOn
	case ir.ActionStep:
		return s.DependsOn
	case ir.LoopStep:
		return s.DependsOn
	case ir.TryStep:
		return s.DependsOn
	case ir.ParallelStep:
		return s.DependsOn
	case ir.PipelineStep:
		return s.DependsOn
	case ir.AdvisoryStep:
		return s.DependsOn
	case ir.WaitStep:
		return s.DependsOn
	case ir.EmitStep:
		return s.DependsOn
	case ir.HaltStep:
		return s.DependsOn
	default:
		return nil
	}
}

func dependenciesSatisfied(step ir.Step, rt *Context) bool {
	for _, dep := range dependsOnOf(step) {
		if !rt.StepExecuted(dep) {
			return false
		}
	}
	return true
}

// actionOnFailure returns a step's declared onFailure policy, defaulting to
// "revert" (spec.md §4.8 step 5) for kinds that don't carry one.
func actionOnFailure(step ir.Step) string {
	if a, ok := step.(ir.ActionStep); ok && a.OnFailure != "" {
		return a.OnFailure
	}
	return "revert"
}

// markChildrenExecuted marks a container step's transitive child IDs as
// executed so the main walk does not re-run them standalone (spec.md §4.8
// step 5).
func markChildrenExecuted(rt *Context, step ir.Step) {
	switch s := step.(type) {
	case ir.ConditionalStep:
		for _, id := range s.ThenSteps {
			rt.MarkStepExecuted(id)
		}
		for _, id := range s.ElseSteps {
			rt.MarkStepExecuted(id)
		}
	case ir.LoopStep:
		for _, id := range s.BodySteps {
			rt.MarkStepExecuted(id)
		}
	case ir.TryStep:
		for _, id := range s.TrySteps {
			rt.MarkStepExecuted(id)
		}
		for _, cb := range s.CatchBlocks {
			for _, id := range cb.Steps {
				rt.MarkStepExecuted(id)
			}
		}
		for _, id := range s.FinallySteps {
			rt.MarkStepExecuted(id)
		}
	case ir.ParallelStep:
		for _, b := range s.Branches {
			for _, id := range b.Steps {
				rt.MarkStepExecuted(id)
			}
		}
	case ir.PipelineStep:
		for _, st := range s.Stages {
			if st.Step != "" {
				rt.MarkStepExecuted(st.Step)
			}
		}
	}
}

func resolveMode(opts ports.ExecuteOptions) ports.ExecutionMode {
	if opts.Mode == ports.ModeExecute || opts.Mode == ports.ModeSimulate {
		return opts.Mode
	}
	return ports.ModeSimulate
}

func toExecutionMetrics(m *Metrics) ports.ExecutionMetrics {
	return ports.ExecutionMetrics{
		StepsExecuted:   m.StepsExecuted,
		ActionsExecuted: m.ActionsExecuted,
		GasUsed:         m.GasUsed.String(),
		AdvisoryCalls:   m.AdvisoryCalls,
		Errors:          m.Errors,
		Retries:         m.Retries,
	}
}

func toLedgerRecords(entries []Entry) []ports.LedgerRecord {
	out := make([]ports.LedgerRecord, len(entries))
	for idx, e := range entries {
		out[idx] = ports.LedgerRecord{
			ID: e.ID, Timestamp: e.Timestamp, RunID: e.RunID, SpellID: e.SpellID,
			Event: string(e.Event), Data: e.Data,
		}
	}
	return out
}
