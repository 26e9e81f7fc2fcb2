package runtime

import (
	"context"
	"errors"
	"sync"

	"github.com/grimoire-lang/grimoire/internal/domain/ir"
	"github.com/grimoire-lang/grimoire/internal/ports"
	"github.com/grimoire-lang/grimoire/internal/runtime/eval"
	grimoireerrors "github.com/grimoire-lang/grimoire/pkg/errors"
)

var (
	errJoinAnyUnmet = errors.New("parallel join(any) did not reach its required success count")
	errNoBestBranch = errors.New("parallel join(best) found no successful branch to score")
)

// branchResult is one branch's completed outcome, captured for `best` join
// metric evaluation.
type branchResult struct {
	name string
	out  stepOutcome
}

// execParallel runs s.Branches cooperatively and joins per s.Join (spec.md
// §4.9.5, §5). Ledger appends stay serialised through the interpreter's
// single ledger/lock since every branch calls the same *Ledger.Append.
// Branches share the execution context per spec.md §5's shared-resource
// policy — the interpreter does not arbitrate concurrent writes to the same
// key, so spells are expected to write disjoint keys per branch.
func (i *Interpreter) execParallel(ctx context.Context, rt *Context, ledger *Ledger, mode ports.ExecutionMode, index map[string]ir.Step, s ir.ParallelStep) stepOutcome {
	branchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan branchResult, len(s.Branches))
	var wg sync.WaitGroup
	for _, b := range s.Branches {
		wg.Add(1)
		go func(b ir.Branch) {
			defer wg.Done()
			out := i.runSequence(branchCtx, rt, ledger, mode, index, b.Steps)
			select {
			case results <- branchResult{name: b.Name, out: out}:
			case <-branchCtx.Done():
			}
		}(b)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	mode2 := joinMode(s.Join)
	target := joinCount(s.Join, len(s.Branches))
	onFail := s.OnFail
	if onFail == "" {
		onFail = "abort"
	}

	var succeeded int
	var collected []branchResult
	var firstFailure stepOutcome
	for r := range results {
		collected = append(collected, r)
		if r.out.failed || r.out.halted {
			if firstFailure.err == nil && !firstFailure.halted {
				firstFailure = r.out
			}
			if onFail == "abort" {
				cancel()
			}
			continue
		}
		succeeded++
		if mode2 == "any" && succeeded >= target {
			cancel()
			break
		}
	}
	// Drain any remaining sends so goroutines writing to results don't block
	// forever after we stop reading.
	for range results {
	}

	if mode2 == "best" {
		return i.pickBest(rt, s.Join, collected)
	}

	if firstFailure.halted {
		return firstFailure
	}
	if mode2 == "any" {
		if succeeded >= target {
			return ok()
		}
		return fail(grimoireerrors.NewRuntimeError(s.StepID(), errJoinAnyUnmet))
	}
	if firstFailure.failed {
		return firstFailure
	}
	return ok()
}

func joinMode(j *ir.Join) string {
	if j == nil || j.Mode == "" {
		return "all"
	}
	return j.Mode
}

func joinCount(j *ir.Join, total int) int {
	if j == nil || j.Count <= 0 {
		return total
	}
	return j.Count
}

func (i *Interpreter) pickBest(rt *Context, j *ir.Join, results []branchResult) stepOutcome {
	if j == nil {
		return ok()
	}
	order := j.Order
	var bestVal float64
	found := false
	for _, r := range results {
		if r.out.failed || r.out.halted {
			continue
		}
		v, err := eval.Evaluate(rt.Eval, j.Metric)
		if err != nil {
			continue
		}
		f, isFloat := v.(float64)
		if !isFloat {
			continue
		}
		if !found || (order == "desc" && f > bestVal) || (order != "desc" && f < bestVal) {
			bestVal = f
			found = true
		}
	}
	if !found {
		return fail(grimoireerrors.NewRuntimeError("", errNoBestBranch))
	}
	return ok()
}
