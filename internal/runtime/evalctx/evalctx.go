// Package evalctx holds the value environment the expression evaluator
// reads from (spec.md §4.7): params, merged state, step outputs, loop/
// compute-bound variables, and venue aliases.
package evalctx

import "github.com/grimoire-lang/grimoire/internal/domain/ir"

// StepOutput is the structured value a compute/action/advisory/pipeline
// step binds under its output name. Property access on it consults a
// fixed set of known fields rather than a generic map lookup.
type StepOutput struct {
	Success bool
	Error   string
	Value   interface{}
}

// Field looks up one of StepOutput's known properties.
func (o StepOutput) Field(name string) (interface{}, bool) {
	switch name {
	case "success":
		return o.Success, true
	case "error":
		return o.Error, true
	case "value":
		return o.Value, true
	default:
		return nil, false
	}
}

// Context is the read/write environment a single step evaluation sees.
// Callers mutate it exclusively through the methods below, mirroring the
// execution context's documented-operations discipline (spec.md §3.8).
type Context struct {
	Params  map[string]interface{}
	State   map[string]interface{}
	Outputs map[string]interface{}
	Vars    map[string]interface{}
	Aliases map[string]ir.Alias
}

// New builds an empty Context ready for Bind/SetOutput calls.
func New() *Context {
	return &Context{
		Params:  map[string]interface{}{},
		State:   map[string]interface{}{},
		Outputs: map[string]interface{}{},
		Vars:    map[string]interface{}{},
		Aliases: map[string]ir.Alias{},
	}
}

// Bind assigns a value to a variable name visible to subsequent expression
// evaluation (compute assignments, loop variables, pipeline bindings).
func (c *Context) Bind(name string, value interface{}) {
	c.Vars[name] = value
}

// Lookup resolves a bare identifier against bound variables only; `params`
// and `state` are reached through property access on the reserved names
// "params"/"state", not through this table.
func (c *Context) Lookup(name string) (interface{}, bool) {
	v, ok := c.Vars[name]
	return v, ok
}

// SetOutput records a step's bound output value, addressable by later
// expressions as `<name>.value`/`.success`/`.error` or, for compute steps,
// directly as the bound variable.
func (c *Context) SetOutput(name string, output StepOutput) {
	c.Outputs[name] = output
	c.Vars[name] = output
}

// Snapshot captures the mutable parts of the context so a `try` block can
// restore them on rollback (spec.md §5's "maintain a per-try snapshot").
func (c *Context) Snapshot() *Context {
	clone := &Context{
		Params:  c.Params,
		Aliases: c.Aliases,
		State:   make(map[string]interface{}, len(c.State)),
		Outputs: make(map[string]interface{}, len(c.Outputs)),
		Vars:    make(map[string]interface{}, len(c.Vars)),
	}
	for k, v := range c.State {
		clone.State[k] = v
	}
	for k, v := range c.Outputs {
		clone.Outputs[k] = v
	}
	for k, v := range c.Vars {
		clone.Vars[k] = v
	}
	return clone
}

// Restore replaces the mutable parts of c with a previously taken Snapshot.
func (c *Context) Restore(snap *Context) {
	c.State = snap.State
	c.Outputs = snap.Outputs
	c.Vars = snap.Vars
}
