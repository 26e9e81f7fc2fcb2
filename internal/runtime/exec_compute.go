package runtime

import (
	"github.com/grimoire-lang/grimoire/internal/domain/ir"
	"github.com/grimoire-lang/grimoire/internal/runtime/eval"
	"github.com/grimoire-lang/grimoire/internal/runtime/evalctx"
	grimoireerrors "github.com/grimoire-lang/grimoire/pkg/errors"
)

// execCompute evaluates each assignment's expression and binds the result
// under its variable name (spec.md §4.9.1).
func (i *Interpreter) execCompute(rt *Context, s ir.ComputeStep) stepOutcome {
	var last interface{}
	for _, a := range s.Assignments {
		v, err := eval.Evaluate(rt.Eval, a.Expression)
		if err != nil {
			return fail(grimoireerrors.NewRuntimeError(s.StepID(), err))
		}
		rt.BindVariable(a.Variable, v)
		if _, isState := rt.Eval.State[a.Variable]; isState {
			rt.Eval.State[a.Variable] = v
		}
		last = v
	}
	rt.BindOutput(s.StepID(), evalctx.StepOutput{Success: true, Value: last})
	return ok()
}
