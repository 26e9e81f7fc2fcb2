package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/grimoire-lang/grimoire/internal/domain/ir"
	"github.com/grimoire-lang/grimoire/internal/lang/ast"
	"github.com/grimoire-lang/grimoire/internal/ports"
	"github.com/grimoire-lang/grimoire/internal/runtime/eval"
	grimoireerrors "github.com/grimoire-lang/grimoire/pkg/errors"
)

var (
	errNotIterable    = errors.New("for loop source is not an iterable value")
	errLoopCapReached = errors.New("loop.until reached its iteration cap without satisfying its condition")
)

const defaultMaxIterations = 100

// execLoop implements the three loop shapes of spec.md §4.9.3.
func (i *Interpreter) execLoop(ctx context.Context, rt *Context, ledger *Ledger, mode ports.ExecutionMode, index map[string]ir.Step, s ir.LoopStep) stepOutcome {
	max := s.MaxIterations
	if max <= 0 {
		max = defaultMaxIterations
	}

	switch s.Variant {
	case ir.LoopRepeat:
		count, err := evalInt(rt, s.Count)
		if err != nil {
			return fail(grimoireerrors.NewRuntimeError(s.StepID(), err))
		}
		if count > max {
			count = max
		}
		for n := 0; n < count; n++ {
			if out := i.runSequence(ctx, rt, ledger, mode, index, s.BodySteps); out.halted || out.failed {
				return out
			}
		}

	case ir.LoopFor:
		src, err := eval.Evaluate(rt.Eval, s.Source)
		if err != nil {
			return fail(grimoireerrors.NewRuntimeError(s.StepID(), err))
		}
		items, ok := src.([]interface{})
		if !ok {
			return fail(grimoireerrors.NewRuntimeError(s.StepID(), errNotIterable))
		}
		for n, item := range items {
			if n >= max {
				break
			}
			rt.BindVariable(s.Variable, item)
			if out := i.runSequence(ctx, rt, ledger, mode, index, s.BodySteps); out.halted || out.failed {
				return out
			}
		}

	case ir.LoopUntil:
		satisfied := false
		for n := 0; n < max; n++ {
			if out := i.runSequence(ctx, rt, ledger, mode, index, s.BodySteps); out.halted || out.failed {
				return out
			}
			v, err := eval.Evaluate(rt.Eval, s.Condition)
			if err != nil {
				return fail(grimoireerrors.NewRuntimeError(s.StepID(), err))
			}
			if eval.Truthy(v) {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return fail(grimoireerrors.NewRuntimeError(s.StepID(), errLoopCapReached))
		}
	}

	return ok()
}

func evalInt(rt *Context, expr ast.Expression) (int, error) {
	v, err := eval.Evaluate(rt.Eval, expr)
	if err != nil {
		return 0, err
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("expected a numeric value, got %T", v)
	}
	return int(f), nil
}
