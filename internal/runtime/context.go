// Package runtime implements the interpreter of spec.md §4.7–§4.11: the
// expression evaluator's surrounding execution context, ledger, step
// dispatch, and circuit breaker.
package runtime

import (
	"math/big"
	"sync"
	"time"

	"github.com/grimoire-lang/grimoire/internal/domain/ir"
	"github.com/grimoire-lang/grimoire/internal/runtime/eval"
	"github.com/grimoire-lang/grimoire/internal/runtime/evalctx"
)

// Metrics tracks the run-scoped counters of spec.md §3.5. GasUsed is a
// big.Int rather than a machine integer because gas/wei amounts routinely
// exceed 64 bits.
type Metrics struct {
	StepsExecuted  int
	ActionsExecuted int
	GasUsed        *big.Int
	AdvisoryCalls  int
	Errors         int
	Retries        int
}

// NewMetrics returns a zeroed Metrics with an initialised GasUsed.
func NewMetrics() *Metrics {
	return &Metrics{GasUsed: new(big.Int)}
}

// Context is the per-run execution context (spec.md §3.5). Its exported
// fields are read freely; mutation is confined to the methods below so the
// interpreter's documented-operations discipline (spec.md §3.8) holds.
type Context struct {
	RunID     string
	StartTime time.Time
	SpellID   string
	Vault     string
	Chain     string
	Trigger   string

	Eval *evalctx.Context

	mu            sync.Mutex
	executedSteps map[string]bool
	metrics       *Metrics
	sourceMap     map[string]ir.SourceLocation
	assetIndex    map[string]ir.Asset
}

// NewContext builds an execution context for one run. persistentState is
// the caller-supplied, previously-saved state (caller wins over the
// schema's initial values per spec.md §4.8 step 2); ephemeral state is
// always zeroed fresh from schema.
func NewContext(runID, spellID string, params map[string]interface{}, spellIR *ir.SpellIR, persistentState map[string]interface{}) *Context {
	ev := evalctx.New()
	for k, v := range params {
		ev.Params[k] = v
	}
	for _, f := range spellIR.State.Ephemeral {
		ev.State[f.Key], _ = eval.Evaluate(ev, f.InitialValue)
	}
	for _, f := range spellIR.State.Persistent {
		ev.State[f.Key], _ = eval.Evaluate(ev, f.InitialValue)
	}
	for k, v := range persistentState {
		ev.State[k] = v
	}
	for _, alias := range spellIR.Aliases {
		ev.Aliases[alias.Name] = alias
	}
	assetIndex := make(map[string]ir.Asset, len(spellIR.Assets))
	for _, a := range spellIR.Assets {
		assetIndex[a.Symbol] = a
	}

	return &Context{
		RunID:         runID,
		StartTime:     time.Now(),
		SpellID:       spellID,
		Eval:          ev,
		executedSteps: map[string]bool{},
		metrics:       NewMetrics(),
		sourceMap:     spellIR.SourceMap,
		assetIndex:    assetIndex,
	}
}

// Metrics returns the run's live metrics counters.
func (c *Context) Metrics() *Metrics { return c.metrics }

// BindVariable assigns a value to a bare variable name, visible to later
// expressions in this run.
func (c *Context) BindVariable(name string, value interface{}) {
	c.Eval.Bind(name, value)
}

// BindOutput records a step's output under name.
func (c *Context) BindOutput(name string, output evalctx.StepOutput) {
	c.Eval.SetOutput(name, output)
}

// MarkStepExecuted records stepID as having run, so the interpreter's main
// walk skips it when it reaches the step standalone.
func (c *Context) MarkStepExecuted(stepID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.executedSteps[stepID] = true
}

// StepExecuted reports whether stepID has already run during this run.
func (c *Context) StepExecuted(stepID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.executedSteps[stepID]
}

// IncrementStepsExecuted bumps the steps-executed counter.
func (c *Context) IncrementStepsExecuted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics.StepsExecuted++
}

// IncrementActionsExecuted bumps the actions-executed counter.
func (c *Context) IncrementActionsExecuted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics.ActionsExecuted++
}

// IncrementAdvisoryCalls bumps the advisory-calls counter.
func (c *Context) IncrementAdvisoryCalls() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics.AdvisoryCalls++
}

// IncrementErrors bumps the errors counter.
func (c *Context) IncrementErrors() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics.Errors++
}

// IncrementRetries bumps the retries counter.
func (c *Context) IncrementRetries() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics.Retries++
}

// AddGasUsed accumulates gas into the run's running total.
func (c *Context) AddGasUsed(gas *big.Int) {
	if gas == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics.GasUsed.Add(c.metrics.GasUsed, gas)
}

// PersistentState returns a copy of the persistent-scope state suitable for
// handing to the state store at the end of a run.
func (c *Context) PersistentState(spellIR *ir.SpellIR) map[string]interface{} {
	out := make(map[string]interface{}, len(spellIR.State.Persistent))
	for _, f := range spellIR.State.Persistent {
		out[f.Key] = c.Eval.State[f.Key]
	}
	return out
}
