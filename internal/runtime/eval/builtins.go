package eval

import (
	"fmt"
	"math"
	"time"

	"github.com/grimoire-lang/grimoire/internal/lang/ast"
	"github.com/grimoire-lang/grimoire/internal/runtime/evalctx"
)

// nowFunc is overridable by tests; production code always uses time.Now.
var nowFunc = time.Now

func evalCall(c *evalctx.Context, expr ast.Expression) (interface{}, error) {
	if expr.Callee.Kind != ast.ExprIdentifier {
		return nil, exprErr(expr, "call target must be a builtin function name")
	}
	args := make([]interface{}, len(expr.Args))
	for i, arg := range expr.Args {
		v, err := Evaluate(c, arg.Value)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return callBuiltin(expr, expr.Callee.Name, args)
}

func callBuiltin(expr ast.Expression, name string, args []interface{}) (interface{}, error) {
	switch name {
	case "min", "max":
		nums, err := floats(expr, args)
		if err != nil {
			return nil, err
		}
		if len(nums) == 0 {
			return nil, exprErr(expr, fmt.Sprintf("%s requires at least one argument", name))
		}
		result := nums[0]
		for _, n := range nums[1:] {
			if (name == "min" && n < result) || (name == "max" && n > result) {
				result = n
			}
		}
		return result, nil

	case "abs":
		n, err := oneFloat(expr, "abs", args)
		if err != nil {
			return nil, err
		}
		return math.Abs(n), nil

	case "floor":
		n, err := oneFloat(expr, "floor", args)
		if err != nil {
			return nil, err
		}
		return math.Floor(n), nil

	case "ceil":
		n, err := oneFloat(expr, "ceil", args)
		if err != nil {
			return nil, err
		}
		return math.Ceil(n), nil

	case "round":
		n, err := oneFloat(expr, "round", args)
		if err != nil {
			return nil, err
		}
		return math.Round(n), nil

	case "pow":
		nums, err := floats(expr, args)
		if err != nil {
			return nil, err
		}
		if len(nums) != 2 {
			return nil, exprErr(expr, "pow requires exactly two arguments")
		}
		return math.Pow(nums[0], nums[1]), nil

	case "len":
		if len(args) != 1 {
			return nil, exprErr(expr, "len requires exactly one argument")
		}
		switch v := args[0].(type) {
		case []interface{}:
			return float64(len(v)), nil
		case map[string]interface{}:
			return float64(len(v)), nil
		case string:
			return float64(len(v)), nil
		default:
			return nil, exprErr(expr, "len requires an array, object, or string")
		}

	case "sum":
		items, err := iterable(expr, "sum", args)
		if err != nil {
			return nil, err
		}
		total := 0.0
		for _, item := range items {
			f, ok := asFloat(item)
			if !ok {
				return nil, exprErr(expr, "sum requires a numeric array")
			}
			total += f
		}
		return total, nil

	case "any":
		items, err := iterable(expr, "any", args)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			if Truthy(item) {
				return true, nil
			}
		}
		return false, nil

	case "all":
		items, err := iterable(expr, "all", args)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			if !Truthy(item) {
				return false, nil
			}
		}
		return true, nil

	case "now":
		return float64(nowFunc().Unix()), nil

	default:
		return nil, exprErr(expr, fmt.Sprintf("unknown builtin function %q", name))
	}
}

func floats(expr ast.Expression, args []interface{}) ([]float64, error) {
	out := make([]float64, 0, len(args))
	for _, a := range args {
		f, ok := asFloat(a)
		if !ok {
			return nil, exprErr(expr, "expected numeric argument")
		}
		out = append(out, f)
	}
	return out, nil
}

func oneFloat(expr ast.Expression, name string, args []interface{}) (float64, error) {
	if len(args) != 1 {
		return 0, exprErr(expr, fmt.Sprintf("%s requires exactly one argument", name))
	}
	f, ok := asFloat(args[0])
	if !ok {
		return 0, exprErr(expr, fmt.Sprintf("%s requires a numeric argument", name))
	}
	return f, nil
}

func iterable(expr ast.Expression, name string, args []interface{}) ([]interface{}, error) {
	if len(args) != 1 {
		return nil, exprErr(expr, fmt.Sprintf("%s requires exactly one argument", name))
	}
	items, ok := args[0].([]interface{})
	if !ok {
		return nil, exprErr(expr, fmt.Sprintf("%s requires an array argument", name))
	}
	return items, nil
}
