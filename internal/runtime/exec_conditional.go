package runtime

import (
	"context"

	"github.com/grimoire-lang/grimoire/internal/domain/ir"
	"github.com/grimoire-lang/grimoire/internal/lang/ast"
	"github.com/grimoire-lang/grimoire/internal/ports"
	"github.com/grimoire-lang/grimoire/internal/runtime/eval"
	grimoireerrors "github.com/grimoire-lang/grimoire/pkg/errors"
)

// execConditional evaluates condition and executes the matching branch's
// step IDs in order (spec.md §4.9.2). An advisory condition expression
// (ast.ExprAdvisory) evaluates to its prompt text rather than a boolean; a
// configured advisor is consulted for the branch's truth value.
func (i *Interpreter) execConditional(ctx context.Context, rt *Context, ledger *Ledger, mode ports.ExecutionMode, index map[string]ir.Step, s ir.ConditionalStep) stepOutcome {
	truth, err := i.evaluateConditionalCondition(ctx, rt, s)
	if err != nil {
		return fail(grimoireerrors.NewRuntimeError(s.StepID(), err))
	}

	branch := s.ElseSteps
	if truth {
		branch = s.ThenSteps
	}
	return i.runSequence(ctx, rt, ledger, mode, index, branch)
}

func (i *Interpreter) evaluateConditionalCondition(ctx context.Context, rt *Context, s ir.ConditionalStep) (bool, error) {
	if s.Condition.Kind != ast.ExprAdvisory {
		v, err := eval.Evaluate(rt.Eval, s.Condition)
		if err != nil {
			return false, err
		}
		return eval.Truthy(v), nil
	}

	prompt, err := eval.Evaluate(rt.Eval, s.Condition)
	if err != nil {
		return false, err
	}
	if i.advisor == nil {
		return false, nil
	}
	resp, err := i.advisor.Ask(ctx, advisorRequestFor("", prompt))
	if err != nil {
		return false, err
	}
	return eval.Truthy(resp.Value), nil
}
