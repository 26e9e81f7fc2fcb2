// Package eval implements the expression evaluator of spec.md §4.7: it
// walks a typed ast.Expression tree against an evalctx.Context and
// produces a Go value (float64, string, bool, []interface{},
// map[string]interface{}, evalctx.StepOutput, ir.Alias, or nil).
package eval

import (
	"fmt"
	"math"
	"sort"

	grimoireerrors "github.com/grimoire-lang/grimoire/pkg/errors"

	"github.com/grimoire-lang/grimoire/internal/domain/ir"
	"github.com/grimoire-lang/grimoire/internal/lang/ast"
	"github.com/grimoire-lang/grimoire/internal/runtime/evalctx"
)

// Evaluate walks expr against c, returning an ExpressionError (never a
// panic) on any failure so the calling executor can decide how to surface
// it (spec.md §4.7: "never throws out of the evaluator").
func Evaluate(c *evalctx.Context, expr ast.Expression) (interface{}, error) {
	switch expr.Kind {
	case ast.ExprLiteral:
		return evalLiteral(expr), nil

	case ast.ExprIdentifier:
		return evalIdentifier(c, expr)

	case ast.ExprVenueRef:
		alias, ok := c.Aliases[expr.VenueName]
		if !ok {
			return nil, exprErr(expr, fmt.Sprintf("undeclared venue alias @%s", expr.VenueName))
		}
		return alias, nil

	case ast.ExprAdvisory:
		return expr.AdvisoryText, nil

	case ast.ExprPercentage:
		return expr.PercentageValue, nil

	case ast.ExprUnitLiteral:
		// Unit literals are resolved to plain numeric literals by the
		// transformer before an expression ever reaches IR (units.go); a
		// raw unit literal here means a caller evaluated a pre-transform
		// AST node directly. Fall back to the bare amount.
		return expr.UnitAmount, nil

	case ast.ExprBinary:
		return evalBinary(c, expr)

	case ast.ExprUnary:
		return evalUnary(c, expr)

	case ast.ExprCall:
		return evalCall(c, expr)

	case ast.ExprPropertyAccess:
		return evalPropertyAccess(c, expr)

	case ast.ExprArrayAccess:
		return evalArrayAccess(c, expr)

	case ast.ExprArrayLiteral:
		out := make([]interface{}, 0, len(expr.Elements))
		for _, el := range expr.Elements {
			v, err := Evaluate(c, el)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil

	case ast.ExprObjectLiteral:
		out := make(map[string]interface{}, len(expr.Entries))
		for _, entry := range expr.Entries {
			v, err := Evaluate(c, entry.Value)
			if err != nil {
				return nil, err
			}
			out[entry.Key] = v
		}
		return out, nil

	case ast.ExprTernary:
		cond, err := Evaluate(c, *expr.TernaryCond)
		if err != nil {
			return nil, err
		}
		if Truthy(cond) {
			return Evaluate(c, *expr.TernaryThen)
		}
		return Evaluate(c, *expr.TernaryElse)

	default:
		return nil, exprErr(expr, "unsupported expression kind")
	}
}

func exprErr(expr ast.Expression, msg string) error {
	return grimoireerrors.NewExpressionError(expr.Span.Start, msg)
}

func evalLiteral(expr ast.Expression) interface{} {
	switch expr.LiteralKind {
	case ast.LiteralNumber:
		return expr.NumberValue
	case ast.LiteralString, ast.LiteralAddress:
		return expr.StringValue
	case ast.LiteralBool:
		return expr.BoolValue
	default:
		return nil
	}
}

func evalIdentifier(c *evalctx.Context, expr ast.Expression) (interface{}, error) {
	switch expr.Name {
	case "params":
		return mapAny(c.Params), nil
	case "state":
		return mapAny(c.State), nil
	}
	if v, ok := c.Lookup(expr.Name); ok {
		return v, nil
	}
	return nil, exprErr(expr, fmt.Sprintf("undefined identifier %q", expr.Name))
}

func mapAny(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	return m
}

func evalBinary(c *evalctx.Context, expr ast.Expression) (interface{}, error) {
	if expr.Operator == "and" || expr.Operator == "or" {
		left, err := Evaluate(c, *expr.Left)
		if err != nil {
			return nil, err
		}
		if expr.Operator == "and" && !Truthy(left) {
			return false, nil
		}
		if expr.Operator == "or" && Truthy(left) {
			return true, nil
		}
		right, err := Evaluate(c, *expr.Right)
		if err != nil {
			return nil, err
		}
		return Truthy(right), nil
	}

	left, err := Evaluate(c, *expr.Left)
	if err != nil {
		return nil, err
	}
	right, err := Evaluate(c, *expr.Right)
	if err != nil {
		return nil, err
	}

	switch expr.Operator {
	case "==":
		return deepEqual(left, right), nil
	case "!=":
		return !deepEqual(left, right), nil
	case "<", "<=", ">", ">=":
		lf, lok := asFloat(left)
		rf, rok := asFloat(right)
		if !lok || !rok {
			return nil, exprErr(expr, "comparison requires numeric operands")
		}
		switch expr.Operator {
		case "<":
			return lf < rf, nil
		case "<=":
			return lf <= rf, nil
		case ">":
			return lf > rf, nil
		default:
			return lf >= rf, nil
		}
	case "+":
		if ls, ok := left.(string); ok {
			rs, _ := right.(string)
			return ls + rs, nil
		}
		lf, lok := asFloat(left)
		rf, rok := asFloat(right)
		if !lok || !rok {
			return nil, exprErr(expr, "+ requires numeric or string operands")
		}
		return lf + rf, nil
	case "-", "*", "/", "%":
		lf, lok := asFloat(left)
		rf, rok := asFloat(right)
		if !lok || !rok {
			return nil, exprErr(expr, fmt.Sprintf("%s requires numeric operands", expr.Operator))
		}
		switch expr.Operator {
		case "-":
			return lf - rf, nil
		case "*":
			return lf * rf, nil
		case "/":
			if rf == 0 {
				return nil, exprErr(expr, "division by zero")
			}
			return lf / rf, nil
		default:
			if rf == 0 {
				return nil, exprErr(expr, "modulo by zero")
			}
			return math.Mod(lf, rf), nil
		}
	default:
		return nil, exprErr(expr, fmt.Sprintf("unsupported operator %q", expr.Operator))
	}
}

func evalUnary(c *evalctx.Context, expr ast.Expression) (interface{}, error) {
	operand, err := Evaluate(c, *expr.Operand)
	if err != nil {
		return nil, err
	}
	switch expr.UnaryOp {
	case "not":
		return !Truthy(operand), nil
	case "-":
		f, ok := asFloat(operand)
		if !ok {
			return nil, exprErr(expr, "unary - requires a numeric operand")
		}
		return -f, nil
	default:
		return nil, exprErr(expr, fmt.Sprintf("unsupported unary operator %q", expr.UnaryOp))
	}
}

func evalArrayAccess(c *evalctx.Context, expr ast.Expression) (interface{}, error) {
	arr, err := Evaluate(c, *expr.Array)
	if err != nil {
		return nil, err
	}
	idx, err := Evaluate(c, *expr.Index)
	if err != nil {
		return nil, err
	}
	switch a := arr.(type) {
	case []interface{}:
		f, ok := asFloat(idx)
		if !ok {
			return nil, exprErr(expr, "array index must be numeric")
		}
		i := int(f)
		if i < 0 || i >= len(a) {
			return nil, exprErr(expr, fmt.Sprintf("array index %d out of range", i))
		}
		return a[i], nil
	case map[string]interface{}:
		key, _ := idx.(string)
		return a[key], nil
	default:
		return nil, exprErr(expr, "indexing requires an array or object")
	}
}

func evalPropertyAccess(c *evalctx.Context, expr ast.Expression) (interface{}, error) {
	obj, err := Evaluate(c, *expr.Object)
	if err != nil {
		return nil, err
	}
	switch v := obj.(type) {
	case map[string]interface{}:
		return v[expr.Property], nil
	case evalctx.StepOutput:
		if field, ok := v.Field(expr.Property); ok {
			return field, nil
		}
		return nil, exprErr(expr, fmt.Sprintf("unknown step output property %q", expr.Property))
	case ir.Alias:
		switch expr.Property {
		case "chain":
			return v.Chain, nil
		case "address":
			return v.Address, nil
		case "label":
			return v.Label, nil
		case "name":
			return v.Name, nil
		default:
			return nil, exprErr(expr, fmt.Sprintf("unknown venue alias property %q", expr.Property))
		}
	default:
		return nil, exprErr(expr, fmt.Sprintf("cannot access property %q on %T", expr.Property, obj))
	}
}

func Truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case []interface{}:
		return len(t) > 0
	case map[string]interface{}:
		return len(t) > 0
	default:
		return true
	}
}

func asFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func deepEqual(a, b interface{}) bool {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		return af == bf
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case []interface{}:
		bv, ok := b.([]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !deepEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]interface{}:
		bv, ok := b.(map[string]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			if !deepEqual(v, bv[k]) {
				return false
			}
		}
		return true
	case nil:
		return b == nil
	default:
		return a == b
	}
}

// sortedKeys returns m's keys in ascending order.
func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
