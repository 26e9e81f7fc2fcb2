package transform

import (
	"github.com/grimoire-lang/grimoire/internal/lang/ast"
	"github.com/grimoire-lang/grimoire/internal/lang/exprfmt"
	"github.com/grimoire-lang/grimoire/internal/lang/source"
)

// actionKinds maps a method name written in source (`@aave.deposit(...)`)
// onto the action kind the runtime's venue adapters dispatch on (spec
// §4.3.7). Methods absent from this table pass through under their own
// name, so an adapter-specific verb still reaches the adapter unchanged.
var actionKinds = map[string]string{
	"deposit":  "lend",
	"supply":   "lend",
	"withdraw": "withdraw",
	"borrow":   "borrow",
	"repay":    "repay",
	"stake":    "stake",
	"unstake":  "unstake",
	"claim":    "claim",
	"swap":     "swap",
	"bridge":   "bridge",
	"transfer": "transfer",
}

// queryMethods name read-only venue calls that bind a result rather than
// dispatching a state-changing action; the transformer lowers these to
// ComputeStep assignments instead of ActionStep records.
var queryMethods = map[string]bool{
	"get_rates":        true,
	"get_supply_rates": true,
}

// positionalArgFields gives the ActionStep field each positional
// (unnamed) call argument binds to, in order, per action kind. Named
// arguments bypass this table entirely and are matched by name.
var positionalArgFields = map[string][]string{
	"lend":     {"asset", "amount"},
	"withdraw": {"asset", "amount"},
	"borrow":   {"asset", "amount"},
	"repay":    {"asset", "amount"},
	"stake":    {"asset", "amount"},
	"unstake":  {"asset", "amount"},
	"claim":    {"asset"},
	"swap":     {"asset", "amount", "to"},
	"bridge":   {"asset", "amount", "to_chain"},
	"transfer": {"asset", "amount", "to"},
}

// constraintRenames maps the constraint names spells are written with onto
// the canonical names ActionStep.Constraints carries, so adapters see one
// consistent vocabulary regardless of which synonym a spell author used.
var constraintRenames = map[string]string{
	"slippage": "max_slippage",
	"min_out":  "min_output",
	"max_in":   "max_input",
}

// venueOf renders a method-call receiver (a venue ref, skill alias, or
// arbitrary expression) to the plain string an ActionStep names its venue
// with.
func venueOf(receiver ast.Expression) string {
	switch receiver.Kind {
	case ast.ExprVenueRef:
		return receiver.VenueName
	case ast.ExprIdentifier:
		return receiver.Name
	default:
		return exprfmt.Format(receiver)
	}
}

// buildActionStep lowers a method-call statement into an ActionStep,
// resolving the action kind, positional/named argument binding, and
// constraint renames.
func (tr *Transformer) buildActionStep(st ast.Statement, outputBinding string) *source.ActionStep {
	method := st.Method
	kind, ok := actionKinds[method]
	if !ok {
		kind = method
	}

	step := &source.ActionStep{
		Type:          kind,
		Venue:         venueOf(st.Receiver),
		OutputBinding: outputBinding,
	}

	fields := positionalArgFields[kind]
	positionalIndex := 0
	for _, arg := range st.CallArgs {
		name := arg.Name
		if name == "" {
			if positionalIndex < len(fields) {
				name = fields[positionalIndex]
			}
			positionalIndex++
		}
		assignActionField(step, name, tr.fmt(arg.Value))
	}
	for name, val := range st.With {
		assignActionField(step, name, tr.fmt(val))
	}
	return step
}

func assignActionField(step *source.ActionStep, name, value string) {
	if canonical, ok := constraintRenames[name]; ok {
		name = canonical
	}
	switch name {
	case "asset":
		step.Asset = value
	case "amount":
		step.Amount = value
	case "to":
		step.To = value
	case "to_chain":
		step.ToChain = value
	case "collateral":
		step.Collateral = value
	default:
		if step.Constraints == nil {
			step.Constraints = map[string]string{}
		}
		step.Constraints[name] = value
	}
}

// buildQueryCompute lowers a read-only venue method call (get_rates and
// friends) to a single-assignment ComputeStep: the call keeps its method
// syntax but is evaluated like any other expression rather than dispatched
// through the action adapter path.
func (tr *Transformer) buildQueryCompute(st ast.Statement, target string) *source.ComputeStep {
	call := ast.Expression{
		Kind: ast.ExprCall,
		Callee: &ast.Expression{
			Kind:     ast.ExprPropertyAccess,
			Object:   &st.Receiver,
			Property: st.Method,
		},
		Args: st.CallArgs,
	}
	if target == "" {
		target = "_"
	}
	return &source.ComputeStep{
		Assignments: []source.Assignment{{Variable: target, Expression: tr.fmt(call)}},
	}
}
