package runtime

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/grimoire-lang/grimoire/internal/domain/ir"
	"github.com/grimoire-lang/grimoire/internal/ports"
	"github.com/grimoire-lang/grimoire/internal/runtime/eval"
	"github.com/grimoire-lang/grimoire/internal/runtime/evalctx"
	grimoireerrors "github.com/grimoire-lang/grimoire/pkg/errors"
)

var errPipelineStageMissing = errors.New("pipeline stage references an unknown step id")

// execPipeline streams s.Source through s.Stages in declaration order
// (spec.md §4.9.6). map/pmap/filter/reduce stages carry a body (one
// statement, per the "one statement per stage" decision) referenced by
// Step; take/skip/sort have no body and act on Arg/SortBy directly.
func (i *Interpreter) execPipeline(ctx context.Context, rt *Context, ledger *Ledger, mode ports.ExecutionMode, index map[string]ir.Step, s ir.PipelineStep) stepOutcome {
	src, err := eval.Evaluate(rt.Eval, s.Source)
	if err != nil {
		return fail(grimoireerrors.NewRuntimeError(s.StepID(), err))
	}
	items, ok := src.([]interface{})
	if !ok {
		return fail(grimoireerrors.NewRuntimeError(s.StepID(), errNotIterable))
	}

	var result interface{} = items
	for _, stage := range s.Stages {
		next, reduced, err := i.runPipelineStage(ctx, rt, ledger, mode, index, stage, items)
		if err != nil {
			return fail(grimoireerrors.NewRuntimeError(s.StepID(), err))
		}
		items = next
		if reduced {
			result = items[0]
		} else {
			result = items
		}
	}

	if s.OutputBinding != "" {
		rt.BindOutput(s.OutputBinding, evalctx.StepOutput{Success: true, Value: result})
	}
	return ok()
}

// runPipelineStage runs one stage, returning its output item slice and
// whether it collapsed to a single reduced value.
func (i *Interpreter) runPipelineStage(ctx context.Context, rt *Context, ledger *Ledger, mode ports.ExecutionMode, index map[string]ir.Step, stage ir.PipelineStage, items []interface{}) ([]interface{}, bool, error) {
	switch stage.Op {
	case "map":
		out, err := i.mapStage(ctx, rt, ledger, mode, index, stage, items, false)
		return out, false, err
	case "pmap":
		out, err := i.mapStage(ctx, rt, ledger, mode, index, stage, items, true)
		return out, false, err
	case "filter":
		out, err := i.filterStage(ctx, rt, ledger, mode, index, stage, items)
		return out, false, err
	case "take":
		n, err := stageCount(rt, stage)
		if err != nil {
			return nil, false, err
		}
		if n > len(items) {
			n = len(items)
		}
		return items[:n], false, nil
	case "skip":
		n, err := stageCount(rt, stage)
		if err != nil {
			return nil, false, err
		}
		if n > len(items) {
			n = len(items)
		}
		return items[n:], false, nil
	case "sort":
		out, err := sortStage(rt, stage, items)
		return out, false, err
	case "reduce":
		acc, err := i.reduceStage(ctx, rt, ledger, mode, index, stage, items)
		if err != nil {
			return nil, false, err
		}
		return []interface{}{acc}, true, nil
	default:
		return items, false, nil
	}
}

func stageCount(rt *Context, stage ir.PipelineStage) (int, error) {
	v, err := eval.Evaluate(rt.Eval, stage.Arg)
	if err != nil {
		return 0, err
	}
	f, ok := v.(float64)
	if !ok {
		return 0, errNotIterable
	}
	return int(f), nil
}

// stageBodyValue binds item (and, for reduce, acc) then runs the stage's
// referenced statement, returning its compute output value.
func (i *Interpreter) stageBodyValue(ctx context.Context, rt *Context, ledger *Ledger, mode ports.ExecutionMode, index map[string]ir.Step, stage ir.PipelineStage) (interface{}, error) {
	step, found := index[stage.Step]
	if !found {
		return nil, errPipelineStageMissing
	}
	out := i.dispatch(ctx, rt, ledger, mode, index, step)
	if out.failed {
		return nil, out.err
	}
	outputs := rt.Eval.Outputs
	so, ok := outputs[stage.Step].(evalctx.StepOutput)
	if !ok {
		return nil, errPipelineStageMissing
	}
	return so.Value, nil
}

func (i *Interpreter) mapStage(ctx context.Context, rt *Context, ledger *Ledger, mode ports.ExecutionMode, index map[string]ir.Step, stage ir.PipelineStage, items []interface{}, parallel bool) ([]interface{}, error) {
	out := make([]interface{}, len(items))
	if !parallel {
		for idx, item := range items {
			rt.BindVariable("item", item)
			v, err := i.stageBodyValue(ctx, rt, ledger, mode, index, stage)
			if err != nil {
				return nil, err
			}
			out[idx] = v
		}
		return out, nil
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	for idx, item := range items {
		wg.Add(1)
		go func(idx int, item interface{}) {
			defer wg.Done()
			mu.Lock()
			rt.BindVariable("item", item)
			v, err := i.stageBodyValue(ctx, rt, ledger, mode, index, stage)
			if err != nil && firstErr == nil {
				firstErr = err
			} else {
				out[idx] = v
			}
			mu.Unlock()
		}(idx, item)
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

func (i *Interpreter) filterStage(ctx context.Context, rt *Context, ledger *Ledger, mode ports.ExecutionMode, index map[string]ir.Step, stage ir.PipelineStage, items []interface{}) ([]interface{}, error) {
	var out []interface{}
	for _, item := range items {
		rt.BindVariable("item", item)
		v, err := i.stageBodyValue(ctx, rt, ledger, mode, index, stage)
		if err != nil {
			return nil, err
		}
		if eval.Truthy(v) {
			out = append(out, item)
		}
	}
	return out, nil
}

func sortStage(rt *Context, stage ir.PipelineStage, items []interface{}) ([]interface{}, error) {
	out := make([]interface{}, len(items))
	copy(out, items)
	var sortErr error
	sort.SliceStable(out, func(a, b int) bool {
		if sortErr != nil {
			return false
		}
		rt.BindVariable("item", out[a])
		av, err := eval.Evaluate(rt.Eval, stage.SortBy)
		if err != nil {
			sortErr = err
			return false
		}
		rt.BindVariable("item", out[b])
		bv, err := eval.Evaluate(rt.Eval, stage.SortBy)
		if err != nil {
			sortErr = err
			return false
		}
		af, _ := av.(float64)
		bf, _ := bv.(float64)
		if stage.Order == "desc" {
			return af > bf
		}
		return af < bf
	})
	return out, sortErr
}

func (i *Interpreter) reduceStage(ctx context.Context, rt *Context, ledger *Ledger, mode ports.ExecutionMode, index map[string]ir.Step, stage ir.PipelineStage, items []interface{}) (interface{}, error) {
	acc, err := eval.Evaluate(rt.Eval, stage.Arg)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		rt.BindVariable("acc", acc)
		rt.BindVariable("item", item)
		v, err := i.stageBodyValue(ctx, rt, ledger, mode, index, stage)
		if err != nil {
			return nil, err
		}
		acc = v
	}
	return acc, nil
}
