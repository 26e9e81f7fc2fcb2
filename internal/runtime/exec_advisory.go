package runtime

import (
	"context"
	"time"

	"github.com/grimoire-lang/grimoire/internal/domain/ir"
	"github.com/grimoire-lang/grimoire/internal/ports"
	"github.com/grimoire-lang/grimoire/internal/runtime/eval"
	"github.com/grimoire-lang/grimoire/internal/runtime/evalctx"
)

// advisorRequestFor builds an AdvisorRequest for a prompt value already
// evaluated from an ast.ExprAdvisory node (always a string).
func advisorRequestFor(advisor string, prompt interface{}) ports.AdvisorRequest {
	text, _ := prompt.(string)
	return ports.AdvisorRequest{Advisor: advisor, Prompt: text}
}

// execAdvisory calls the configured advisor handler, or falls back to the
// step's declared Fallback value when none is wired (spec.md §4.9.8).
func (i *Interpreter) execAdvisory(ctx context.Context, rt *Context, ledger *Ledger, s ir.AdvisoryStep) stepOutcome {
	rt.IncrementAdvisoryCalls()
	ledger.Append(EventAdvisoryStarted, map[string]interface{}{"step": s.StepID(), "advisor": s.Advisor})

	if i.advisor == nil {
		return i.completeAdvisory(rt, ledger, s, i.fallbackValue(rt, s), nil)
	}

	req := ports.AdvisorRequest{
		Advisor:      s.Advisor,
		Prompt:       s.Prompt,
		Timeout:      time.Duration(s.Timeout * float64(time.Second)),
		OutputSchema: s.OutputSchema,
	}
	resp, err := i.advisor.Ask(ctx, req)
	if err != nil {
		// An advisor failure (including a timeout) falls back rather than
		// aborting the run, per the step's declared Fallback.
		return i.completeAdvisory(rt, ledger, s, i.fallbackValue(rt, s), nil)
	}
	return i.completeAdvisory(rt, ledger, s, resp.Value, resp.Tooling)
}

func (i *Interpreter) completeAdvisory(rt *Context, ledger *Ledger, s ir.AdvisoryStep, value interface{}, tooling []string) stepOutcome {
	if s.Output != "" {
		rt.BindOutput(s.Output, evalctx.StepOutput{Success: true, Value: value})
	}
	ledger.Append(EventAdvisoryCompleted, map[string]interface{}{"step": s.StepID(), "tooling": tooling})
	return ok()
}

func (i *Interpreter) fallbackValue(rt *Context, s ir.AdvisoryStep) interface{} {
	if !s.Fallback.HasExpr {
		return s.Fallback.Literal
	}
	v, err := eval.Evaluate(rt.Eval, s.Fallback.Expr)
	if err != nil {
		return nil
	}
	return v
}
