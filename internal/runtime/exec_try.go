package runtime

import (
	"context"
	"math"
	"time"

	"github.com/grimoire-lang/grimoire/internal/domain/ir"
	"github.com/grimoire-lang/grimoire/internal/ports"
	"github.com/grimoire-lang/grimoire/internal/runtime/evalctx"
	grimoireerrors "github.com/grimoire-lang/grimoire/pkg/errors"
)

// errorKind classifies err into the fixed try/catch vocabulary of spec.md
// §4.5/§4.9.4: anything not in the fixed set reduces to "*" (handled by a
// wildcard catch), mirroring the IR generator's own reduction of a catch
// block's declared ErrorType.
func errorKind(err error) string {
	switch e := err.(type) {
	case *grimoireerrors.TimeoutError:
		return e.ErrorKind()
	case *grimoireerrors.GuardFailed:
		return "guard_failed"
	case *grimoireerrors.CircuitBreakerTripped:
		return "circuit_breaker_tripped"
	case *grimoireerrors.ValidationError:
		return "validation_error"
	case *grimoireerrors.RuntimeError:
		return "execution_error"
	default:
		return "*"
	}
}

func matchCatch(blocks []ir.CatchBlock, kind string) (ir.CatchBlock, bool) {
	for _, cb := range blocks {
		if cb.ErrorType == kind {
			return cb, true
		}
	}
	for _, cb := range blocks {
		if cb.ErrorType == "*" {
			return cb, true
		}
	}
	return ir.CatchBlock{}, false
}

// execTry executes trySteps with error recovery, then always runs
// finallySteps (spec.md §4.9.4). A per-try snapshot of ephemeral state and
// bound variables backs the `rollback` catch action.
func (i *Interpreter) execTry(ctx context.Context, rt *Context, ledger *Ledger, mode ports.ExecutionMode, index map[string]ir.Step, s ir.TryStep) stepOutcome {
	snapshot := rt.Eval.Snapshot()

	out := i.runSequence(ctx, rt, ledger, mode, index, s.TrySteps)

	if out.failed {
		out = i.handleTryFailure(ctx, rt, ledger, mode, index, s, snapshot, out)
	}

	if finallyOut := i.runSequence(ctx, rt, ledger, mode, index, s.FinallySteps); finallyOut.halted || finallyOut.failed {
		return finallyOut
	}
	return out
}

func (i *Interpreter) handleTryFailure(ctx context.Context, rt *Context, ledger *Ledger, mode ports.ExecutionMode, index map[string]ir.Step, s ir.TryStep, snapshot *evalctx.Context, out stepOutcome) stepOutcome {
	kind := errorKind(out.err)
	cb, matched := matchCatch(s.CatchBlocks, kind)
	if !matched {
		return out
	}

	switch cb.Action {
	case "skip":
		ledger.Append(EventStepSkipped, map[string]interface{}{"step": s.StepID(), "catch": cb.ErrorType})
		return ok()

	case "halt":
		return halt(out.err.Error())

	case "rollback":
		rt.Eval.Restore(snapshot)
		return out

	case "retry":
		return i.retryTry(ctx, rt, ledger, mode, index, s, cb)

	default:
		if len(cb.Steps) > 0 {
			return i.runSequence(ctx, rt, ledger, mode, index, cb.Steps)
		}
		return out
	}
}

func (i *Interpreter) retryTry(ctx context.Context, rt *Context, ledger *Ledger, mode ports.ExecutionMode, index map[string]ir.Step, s ir.TryStep, cb ir.CatchBlock) stepOutcome {
	spec := cb.Retry
	maxAttempts := 3
	if spec != nil && spec.MaxAttempts > 0 {
		maxAttempts = spec.MaxAttempts
	}

	var last stepOutcome
	for attempt := 1; attempt < maxAttempts; attempt++ {
		rt.IncrementRetries()
		sleepBackoff(spec, attempt)
		last = i.runSequence(ctx, rt, ledger, mode, index, s.TrySteps)
		if !last.failed {
			return last
		}
	}
	return last
}

func sleepBackoff(spec *ir.RetrySpec, attempt int) {
	if spec == nil || spec.Backoff == "" || spec.Backoff == "none" {
		return
	}
	base := spec.BackoffBase
	if base <= 0 {
		base = 1
	}
	var delay float64
	switch spec.Backoff {
	case "linear":
		delay = base * float64(attempt)
	case "exponential":
		delay = base * math.Pow(2, float64(attempt-1))
	default:
		return
	}
	if spec.MaxBackoff > 0 && delay > spec.MaxBackoff {
		delay = spec.MaxBackoff
	}
	time.Sleep(time.Duration(delay * float64(time.Second)))
}
