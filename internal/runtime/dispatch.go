package runtime

import (
	"context"

	"github.com/grimoire-lang/grimoire/internal/domain/ir"
	"github.com/grimoire-lang/grimoire/internal/ports"
)

// stepOutcome is dispatch's uniform return shape (spec.md §4.8 step 5).
type stepOutcome struct {
	failed     bool
	err        error
	halted     bool
	haltReason string
}

func ok() stepOutcome                { return stepOutcome{} }
func fail(err error) stepOutcome     { return stepOutcome{failed: true, err: err} }
func halt(reason string) stepOutcome { return stepOutcome{halted: true, haltReason: reason} }

// dispatch routes step to its kind-specific executor and runs its nested
// steps in order (for container kinds), per spec.md §4.9.
func (i *Interpreter) dispatch(ctx context.Context, rt *Context, ledger *Ledger, mode ports.ExecutionMode, index map[string]ir.Step, step ir.Step) stepOutcome {
	ledger.Append(EventStepStarted, map[string]interface{}{"step": step.StepID(), "kind": string(step.Kind())})

	var out stepOutcome
	switch s := step.(type) {
	case ir.ComputeStep:
		out = i.execCompute(rt, s)
	case ir.ConditionalStep:
		out = i.execConditional(ctx, rt, ledger, mode, index, s)
	case ir.ActionStep:
		out = i.execAction(ctx, rt, ledger, mode, s)
	case ir.LoopStep:
		out = i.execLoop(ctx, rt, ledger, mode, index, s)
	case ir.TryStep:
		out = i.execTry(ctx, rt, ledger, mode, index, s)
	case ir.ParallelStep:
		out = i.execParallel(ctx, rt, ledger, mode, index, s)
	case ir.PipelineStep:
		out = i.execPipeline(ctx, rt, ledger, mode, index, s)
	case ir.AdvisoryStep:
		out = i.execAdvisory(ctx, rt, ledger, s)
	case ir.WaitStep:
		out = i.execWait(ctx, rt, ledger, mode, s)
	case ir.EmitStep:
		out = i.execEmit(rt, ledger, s)
	case ir.HaltStep:
		out = i.execHalt(rt, s)
	default:
		out = ok()
	}

	switch {
	case out.halted:
		ledger.Append(EventHalt, map[string]interface{}{"step": step.StepID(), "reason": out.haltReason})
	case out.failed:
		data := map[string]interface{}{"step": step.StepID(), "error": out.err.Error()}
		if loc, ok := sourceLocationFor(rt, step.StepID()); ok {
			data["line"] = loc.Line
			data["column"] = loc.Column
		}
		ledger.Append(EventStepFailed, data)
	default:
		ledger.Append(EventStepCompleted, map[string]interface{}{"step": step.StepID()})
	}
	return out
}

func sourceLocationFor(rt *Context, stepID string) (ir.SourceLocation, bool) {
	loc, ok := rt.sourceMap[stepID]
	return loc, ok
}

// runSequence executes a list of step IDs against index in order, stopping
// at the first halt or unhandled failure.
func (i *Interpreter) runSequence(ctx context.Context, rt *Context, ledger *Ledger, mode ports.ExecutionMode, index map[string]ir.Step, ids []string) stepOutcome {
	for _, id := range ids {
		step, found := index[id]
		if !found {
			continue
		}
		out := i.dispatch(ctx, rt, ledger, mode, index, step)
		rt.IncrementStepsExecuted()
		rt.MarkStepExecuted(id)
		markChildrenExecuted(rt, step)
		if out.halted || out.failed {
			return out
		}
	}
	return ok()
}
