package runtime

import (
	"context"
	"time"

	"github.com/grimoire-lang/grimoire/internal/domain/ir"
	"github.com/grimoire-lang/grimoire/internal/ports"
	"github.com/grimoire-lang/grimoire/internal/runtime/eval"
	grimoireerrors "github.com/grimoire-lang/grimoire/pkg/errors"
)

// simulateWaitThreshold caps how long a wait step actually sleeps in
// simulate mode (spec.md §4.9.9): waits longer than this are a no-op so a
// dry run doesn't block on a multi-hour cooldown.
const simulateWaitThreshold = 5 * time.Second

// execWait sleeps for the evaluated duration (seconds), unless mode is
// simulate and the duration exceeds simulateWaitThreshold.
func (i *Interpreter) execWait(ctx context.Context, rt *Context, ledger *Ledger, mode ports.ExecutionMode, s ir.WaitStep) stepOutcome {
	v, err := eval.Evaluate(rt.Eval, s.Duration)
	if err != nil {
		return fail(grimoireerrors.NewRuntimeError(s.StepID(), err))
	}
	seconds, _ := v.(float64)
	d := time.Duration(seconds * float64(time.Second))

	ledger.Append(EventWait, map[string]interface{}{"step": s.StepID(), "duration": seconds})

	if mode == ports.ModeSimulate && d > simulateWaitThreshold {
		return ok()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fail(grimoireerrors.NewRuntimeError(s.StepID(), ctx.Err()))
	case <-timer.C:
		return ok()
	}
}

// execEmit evaluates each of s.Data's expressions and appends a ledger
// event named s.Event.
func (i *Interpreter) execEmit(rt *Context, ledger *Ledger, s ir.EmitStep) stepOutcome {
	data := make(map[string]interface{}, len(s.Data))
	for k, expr := range s.Data {
		v, err := eval.Evaluate(rt.Eval, expr)
		if err != nil {
			return fail(grimoireerrors.NewRuntimeError(s.StepID(), err))
		}
		data[k] = v
	}
	ledger.Append(EventEmit, map[string]interface{}{"step": s.StepID(), "event": s.Event, "data": data})
	return ok()
}

// execHalt stops the run successfully with an optional reason.
func (i *Interpreter) execHalt(rt *Context, s ir.HaltStep) stepOutcome {
	reason := ""
	if s.HasReason {
		v, err := eval.Evaluate(rt.Eval, s.Reason)
		if err != nil {
			return fail(grimoireerrors.NewRuntimeError(s.StepID(), err))
		}
		if text, isStr := v.(string); isStr {
			reason = text
		}
	}
	return halt(reason)
}
