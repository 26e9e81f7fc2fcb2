package runtime

import (
	"context"
	"math/big"
	"time"

	"github.com/grimoire-lang/grimoire/internal/domain/ir"
	domainplugin "github.com/grimoire-lang/grimoire/internal/domain/plugin"
	"github.com/grimoire-lang/grimoire/internal/lang/exprparse"
	"github.com/grimoire-lang/grimoire/internal/ports"
	"github.com/grimoire-lang/grimoire/internal/runtime/eval"
	"github.com/grimoire-lang/grimoire/internal/runtime/evalctx"
	grimoireerrors "github.com/grimoire-lang/grimoire/pkg/errors"
)

// execAction dispatches an ActionStep to the registered venue adapter
// (spec.md §4.9.7): resolve the asset/amount, consult the circuit breaker,
// call the executor, record gas and an `action_simulated`/`action_executed`
// ledger entry, then feed the observed gas back into the breaker.
func (i *Interpreter) execAction(ctx context.Context, rt *Context, ledger *Ledger, mode ports.ExecutionMode, s ir.ActionStep) stepOutcome {
	if i.breakers != nil {
		if err := i.breakers.Check(s.Venue); err != nil {
			return fail(grimoireerrors.NewRuntimeError(s.StepID(), err))
		}
	}

	executor, err := i.resolveExecutor(s)
	if err != nil {
		return fail(grimoireerrors.NewRuntimeError(s.StepID(), err))
	}

	params, err := buildActionParams(rt, s)
	if err != nil {
		return fail(grimoireerrors.NewRuntimeError(s.StepID(), err))
	}

	req := ports.ActionRequest{
		Step:   s,
		Asset:  rt.assetIndex[s.Asset],
		Params: params,
	}

	res, err := executor.Execute(ctx, req)
	if err != nil {
		if i.breakers != nil {
			i.breakers.Record(s.Venue, "rate", 1, time.Now())
		}
		return fail(grimoireerrors.NewRuntimeError(s.StepID(), err))
	}

	rt.IncrementActionsExecuted()
	gas := gasFromResult(res)
	rt.AddGasUsed(gas)
	if i.breakers != nil && gas != nil {
		gasFloat, _ := new(big.Float).SetInt(gas).Float64()
		i.breakers.Record(s.Venue, "gas", gasFloat, time.Now())
	}

	event := EventActionSimulated
	if mode == ports.ModeExecute {
		event = EventActionExecuted
	}
	ledger.Append(event, map[string]interface{}{
		"step": s.StepID(), "venue": s.Venue, "type": s.Type,
		"tx_hash": res.TxHash, "gas_used": gasString(gas),
	})

	if s.OutputBinding != "" {
		rt.BindOutput(s.OutputBinding, evalctx.StepOutput{Success: true, Value: res.Output})
	}
	return ok()
}

func (i *Interpreter) resolveExecutor(s ir.ActionStep) (ports.ActionExecutor, error) {
	if i.registry == nil {
		return nil, grimoireerrors.NewAdapterError(s.Venue, nil)
	}
	return i.registry.GetForKind(s.Venue, domainplugin.Kind(s.Type))
}

// buildActionParams re-hydrates Amount/Constraints — stored as raw
// expression-source strings in IR (spec.md §4.5: "Amount is carried as a
// raw string rather than forced through the expression re-parser") — back
// into evaluable expressions via the shared re-parser, same as the IR
// generator does for every other stringified field.
func buildActionParams(rt *Context, s ir.ActionStep) (map[string]interface{}, error) {
	params := map[string]interface{}{
		"asset": s.Asset, "to": s.To, "to_chain": s.ToChain, "collateral": s.Collateral,
	}
	if s.Amount == "max" {
		params["amount"] = "max"
	} else if s.Amount != "" {
		v, err := evalRawExpr(rt, s.Amount)
		if err != nil {
			return nil, err
		}
		params["amount"] = v
	}
	for k, raw := range s.Constraints {
		v, err := evalRawExpr(rt, raw)
		if err != nil {
			return nil, err
		}
		params[k] = v
	}
	return params, nil
}

func evalRawExpr(rt *Context, raw string) (interface{}, error) {
	expr, err := exprparse.Parse(raw)
	if err != nil {
		return nil, err
	}
	return eval.Evaluate(rt.Eval, expr)
}

func gasFromResult(res *ports.ActionResult) *big.Int {
	if res == nil || res.Metadata == nil {
		return nil
	}
	raw, ok := res.Metadata["gasUsed"]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case string:
		g, ok := new(big.Int).SetString(v, 10)
		if ok {
			return g
		}
	case *big.Int:
		return v
	}
	return nil
}

func gasString(g *big.Int) string {
	if g == nil {
		return "0"
	}
	return g.String()
}
