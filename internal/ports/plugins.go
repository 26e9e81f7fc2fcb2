package ports

import (
	"context"

	"github.com/grimoire-lang/grimoire/internal/domain/ir"
	plugin "github.com/grimoire-lang/grimoire/internal/domain/plugin"
)

// ActionRequest carries everything an ActionExecutor needs to dispatch a
// single action step: the lowered step itself, the resolved asset, and
// Params. Params holds the step's asset, to, to_chain and collateral fields
// as written, its amount ("max" passed through as is) and its constraint
// expressions evaluated to concrete Go values. Guards and bound variables
// are not passed.
type ActionRequest struct {
	Step   ir.ActionStep
	Asset  ir.Asset
	Params map[string]interface{}
}

// ActionResult captures what an adapter did so the interpreter can bind its
// output, append a ledger entry, and feed downstream steps.
type ActionResult struct {
	Output   interface{}
	TxHash   string
	Metadata map[string]interface{}
}

// ActionExecutor is the contract a venue adapter implementation satisfies so
// the interpreter's action step executor (spec.md §4.9.7) can dispatch to it.
// Unlike the historical plugin lifecycle (Evaluate-then-Apply, for idempotent
// convergence toward a desired state), a venue adapter performs one concrete
// on-chain or off-chain call per invocation: spells are scripts of imperative
// actions, not declarative desired-state pipelines.
type ActionExecutor interface {
	Metadata() plugin.Metadata
	Execute(ctx context.Context, req ActionRequest) (*ActionResult, error)
}

// PluginRegistry manages adapter discovery and registration. Infrastructure
// wires concrete adapters into the registry at startup; the runtime's action
// executor resolves an adapter by venue alias and action kind when it
// dispatches an ActionStep. Registries must be safe for concurrent use
// because the interpreter may dispatch actions from parallel branches.
type PluginRegistry interface {
	Register(a ActionExecutor) error
	Get(venue string) (ActionExecutor, error)
	GetForKind(venue string, kind plugin.Kind) (ActionExecutor, error)
	List() []ActionExecutor
}
