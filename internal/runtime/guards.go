package runtime

import (
	"context"

	"github.com/grimoire-lang/grimoire/internal/domain/ir"
	"github.com/grimoire-lang/grimoire/internal/runtime/eval"
	grimoireerrors "github.com/grimoire-lang/grimoire/pkg/errors"
)

// runGuards evaluates guards in order (spec.md §4.8 steps 4 and 6). post
// narrows which severities abort the run: pre-execution guards abort on
// "halt" or "revert" (and on a false "pause" advisory outcome);
// post-execution guards abort only on "halt".
func (i *Interpreter) runGuards(ctx context.Context, rt *Context, ledger *Ledger, guards []ir.Guard, post bool) error {
	for _, g := range guards {
		passed, err := i.evaluateGuard(ctx, rt, g)
		if err != nil {
			return grimoireerrors.NewRuntimeError("guard:"+g.Name, err)
		}
		if passed {
			i.incCounter(ctx, "grimoire_guard_checks_total", map[string]string{"severity": g.Severity, "status": "pass"})
			ledger.Append(EventGuardPassed, map[string]interface{}{"guard": g.Name})
			continue
		}

		i.incCounter(ctx, "grimoire_guard_checks_total", map[string]string{"severity": g.Severity, "status": "fail"})
		ledger.Append(EventGuardFailed, map[string]interface{}{"guard": g.Name, "severity": g.Severity})

		aborts := g.Severity == "halt" || (!post && (g.Severity == "revert" || g.Severity == "pause"))
		if !aborts {
			continue
		}
		return grimoireerrors.NewGuardFailed(g.Name, g.Severity, "guard "+g.Name+" did not pass")
	}
	return nil
}

// evaluateGuard runs a single guard's check, routing advisory guards
// through the configured advisor handler (falling back to true when none
// is configured, so a spell without an advisor wired never spuriously
// aborts on an advisory-only guard).
func (i *Interpreter) evaluateGuard(ctx context.Context, rt *Context, g ir.Guard) (bool, error) {
	if !g.IsAdvisory {
		v, err := eval.Evaluate(rt.Eval, g.Check)
		if err != nil {
			return false, err
		}
		return eval.Truthy(v), nil
	}

	prompt, err := eval.Evaluate(rt.Eval, g.Check)
	if err != nil {
		return false, err
	}
	if i.advisor == nil {
		return true, nil
	}
	resp, err := i.advisor.Ask(ctx, advisorRequestFor(g.Advisor, prompt))
	if err != nil {
		return false, err
	}
	return eval.Truthy(resp.Value), nil
}
