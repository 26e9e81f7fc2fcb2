package eval

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grimoire-lang/grimoire/internal/domain/ir"
	"github.com/grimoire-lang/grimoire/internal/lang/ast"
	"github.com/grimoire-lang/grimoire/internal/runtime/evalctx"
)

func num(v float64) ast.Expression { return ast.Expression{Kind: ast.ExprLiteral, LiteralKind: ast.LiteralNumber, NumberValue: v} }
func ident(name string) ast.Expression { return ast.Expression{Kind: ast.ExprIdentifier, Name: name} }

func TestEvaluateArithmetic(t *testing.T) {
	t.Parallel()
	left, right := num(4), num(2)
	expr := ast.Expression{Kind: ast.ExprBinary, Left: &left, Operator: "+", Right: &right}

	v, err := Evaluate(evalctx.New(), expr)
	require.NoError(t, err)
	require.Equal(t, 6.0, v)
}

func TestEvaluateComparisonAndLogic(t *testing.T) {
	t.Parallel()
	left, right := num(4), num(2)
	gt := ast.Expression{Kind: ast.ExprBinary, Left: &left, Operator: ">", Right: &right}
	lit := ast.Expression{Kind: ast.ExprLiteral, LiteralKind: ast.LiteralBool, BoolValue: true}
	and := ast.Expression{Kind: ast.ExprBinary, Left: &gt, Operator: "and", Right: &lit}

	v, err := Evaluate(evalctx.New(), and)
	require.NoError(t, err)
	require.Equal(t, true, v)
}

func TestEvaluateIdentifierAndParams(t *testing.T) {
	t.Parallel()
	c := evalctx.New()
	c.Params["amount"] = 100.0
	c.Bind("x", 5.0)

	prop := ast.Expression{
		Kind:     ast.ExprPropertyAccess,
		Object:   &ast.Expression{Kind: ast.ExprIdentifier, Name: "params"},
		Property: "amount",
	}
	v, err := Evaluate(c, prop)
	require.NoError(t, err)
	require.Equal(t, 100.0, v)

	v2, err := Evaluate(c, ident("x"))
	require.NoError(t, err)
	require.Equal(t, 5.0, v2)
}

func TestEvaluateUndefinedIdentifierFails(t *testing.T) {
	t.Parallel()
	_, err := Evaluate(evalctx.New(), ident("missing"))
	require.Error(t, err)
}

func TestEvaluateBuiltinMax(t *testing.T) {
	t.Parallel()
	a, b, c := num(1), num(9), num(3)
	call := ast.Expression{
		Kind:   ast.ExprCall,
		Callee: &ast.Expression{Kind: ast.ExprIdentifier, Name: "max"},
		Args: []ast.Argument{
			{Value: a}, {Value: b}, {Value: c},
		},
	}
	v, err := Evaluate(evalctx.New(), call)
	require.NoError(t, err)
	require.Equal(t, 9.0, v)
}

func TestEvaluateStepOutputProperty(t *testing.T) {
	t.Parallel()
	c := evalctx.New()
	c.SetOutput("swap_result", evalctx.StepOutput{Success: true, Value: 42.0})

	prop := ast.Expression{
		Kind:     ast.ExprPropertyAccess,
		Object:   &ast.Expression{Kind: ast.ExprIdentifier, Name: "swap_result"},
		Property: "value",
	}
	v, err := Evaluate(c, prop)
	require.NoError(t, err)
	require.Equal(t, 42.0, v)
}

func TestEvaluateVenueRefProperty(t *testing.T) {
	t.Parallel()
	c := evalctx.New()
	c.Aliases["aave"] = ir.Alias{Name: "aave", Chain: "ethereum", Address: "0x1", Label: "lending"}

	venue := ast.Expression{Kind: ast.ExprVenueRef, VenueName: "aave"}
	prop := ast.Expression{Kind: ast.ExprPropertyAccess, Object: &venue, Property: "chain"}

	v, err := Evaluate(c, prop)
	require.NoError(t, err)
	require.Equal(t, "ethereum", v)
}

func TestEvaluateTernary(t *testing.T) {
	t.Parallel()
	cond := ast.Expression{Kind: ast.ExprLiteral, LiteralKind: ast.LiteralBool, BoolValue: false}
	then := num(1)
	els := num(2)
	expr := ast.Expression{Kind: ast.ExprTernary, TernaryCond: &cond, TernaryThen: &then, TernaryElse: &els}

	v, err := Evaluate(evalctx.New(), expr)
	require.NoError(t, err)
	require.Equal(t, 2.0, v)
}

func TestEvaluateDeepEqualityOnArrays(t *testing.T) {
	t.Parallel()
	left := ast.Expression{Kind: ast.ExprArrayLiteral, Elements: []ast.Expression{num(1), num(2)}}
	right := ast.Expression{Kind: ast.ExprArrayLiteral, Elements: []ast.Expression{num(1), num(2)}}
	eq := ast.Expression{Kind: ast.ExprBinary, Left: &left, Operator: "==", Right: &right}

	v, err := Evaluate(evalctx.New(), eq)
	require.NoError(t, err)
	require.Equal(t, true, v)
}

func TestEvaluateDivisionByZeroFails(t *testing.T) {
	t.Parallel()
	left, right := num(1), num(0)
	expr := ast.Expression{Kind: ast.ExprBinary, Left: &left, Operator: "/", Right: &right}

	_, err := Evaluate(evalctx.New(), expr)
	require.Error(t, err)
}
