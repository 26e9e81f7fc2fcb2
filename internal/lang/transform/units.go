package transform

import (
	"fmt"

	"github.com/grimoire-lang/grimoire/internal/lang/ast"
	"github.com/grimoire-lang/grimoire/internal/lang/exprfmt"
	grimoireerrors "github.com/grimoire-lang/grimoire/pkg/errors"
)

// resolveUnits rewrites every ExprUnitLiteral node in an expression tree
// into a plain numeric literal carrying the asset's base-unit amount
// (spec §4.3.8): floor(amount * 10^decimals). An unrecognised unit symbol
// (one never declared in the spell's `assets` section) is a compile error:
// it is collected into tr.errs rather than aborting the pass immediately,
// so a spell with several bad unit symbols reports all of them in one
// compile instead of one at a time.
func (tr *Transformer) resolveUnits(e ast.Expression) ast.Expression {
	switch e.Kind {
	case ast.ExprUnitLiteral:
		decimals, ok := tr.assetDecimals[e.UnitSymbol]
		if !ok {
			tr.errs = append(tr.errs, grimoireerrors.NewValidationError(
				"UNKNOWN_UNIT", "",
				fmt.Sprintf("unknown unit symbol %q at %s: no matching `assets` declaration", e.UnitSymbol, e.Span.Start),
			))
		}
		scaled := e.UnitAmount
		for i := 0; i < decimals; i++ {
			scaled *= 10
		}
		return ast.Expression{
			Kind:        ast.ExprLiteral,
			LiteralKind: ast.LiteralNumber,
			NumberValue: float64(int64(scaled)),
			Span:        e.Span,
		}
	case ast.ExprBinary:
		left := tr.resolveUnits(*e.Left)
		right := tr.resolveUnits(*e.Right)
		e.Left, e.Right = &left, &right
		return e
	case ast.ExprUnary:
		operand := tr.resolveUnits(*e.Operand)
		e.Operand = &operand
		return e
	case ast.ExprCall:
		callee := tr.resolveUnits(*e.Callee)
		e.Callee = &callee
		e.Args = tr.resolveUnitsArgs(e.Args)
		return e
	case ast.ExprPropertyAccess:
		obj := tr.resolveUnits(*e.Object)
		e.Object = &obj
		return e
	case ast.ExprArrayAccess:
		arr := tr.resolveUnits(*e.Array)
		idx := tr.resolveUnits(*e.Index)
		e.Array, e.Index = &arr, &idx
		return e
	case ast.ExprArrayLiteral:
		elems := make([]ast.Expression, len(e.Elements))
		for i, el := range e.Elements {
			elems[i] = tr.resolveUnits(el)
		}
		e.Elements = elems
		return e
	case ast.ExprObjectLiteral:
		entries := make([]ast.ObjectEntry, len(e.Entries))
		for i, entry := range e.Entries {
			entries[i] = ast.ObjectEntry{Key: entry.Key, Value: tr.resolveUnits(entry.Value)}
		}
		e.Entries = entries
		return e
	case ast.ExprTernary:
		cond := tr.resolveUnits(*e.TernaryCond)
		then := tr.resolveUnits(*e.TernaryThen)
		els := tr.resolveUnits(*e.TernaryElse)
		e.TernaryCond, e.TernaryThen, e.TernaryElse = &cond, &then, &els
		return e
	default:
		return e
	}
}

func (tr *Transformer) resolveUnitsArgs(args []ast.Argument) []ast.Argument {
	if args == nil {
		return nil
	}
	out := make([]ast.Argument, len(args))
	for i, a := range args {
		out[i] = ast.Argument{Name: a.Name, Value: tr.resolveUnits(a.Value)}
	}
	return out
}

// fmt resolves unit literals and renders the result to its canonical
// stringified form (spec §4.4) in one step, so every expression embedded
// into SpellSource has already had its base-unit arithmetic applied.
func (tr *Transformer) fmt(e ast.Expression) string {
	return exprfmt.Format(tr.resolveUnits(e))
}
