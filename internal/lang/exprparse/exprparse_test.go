package exprparse

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grimoire-lang/grimoire/internal/lang/ast"
	"github.com/grimoire-lang/grimoire/internal/lang/exprfmt"
)

func TestRoundTripBinary(t *testing.T) {
	t.Parallel()

	left := ast.Expression{Kind: ast.ExprIdentifier, Name: "params"}
	prop := ast.Expression{Kind: ast.ExprPropertyAccess, Object: &left, Property: "amount"}
	zero := ast.Expression{Kind: ast.ExprLiteral, LiteralKind: ast.LiteralNumber, NumberValue: 0}
	original := ast.Expression{Kind: ast.ExprBinary, Left: &prop, Operator: ">", Right: &zero}

	str := exprfmt.Format(original)
	require.Equal(t, "(params.amount > 0)", str)

	reparsed, err := Parse(str)
	require.NoError(t, err)
	require.Equal(t, ast.ExprBinary, reparsed.Kind)
	require.Equal(t, ">", reparsed.Operator)
	require.Equal(t, ast.ExprPropertyAccess, reparsed.Left.Kind)
	require.Equal(t, "amount", reparsed.Left.Property)
}

func TestRoundTripLogicalAnd(t *testing.T) {
	t.Parallel()

	a := ast.Expression{Kind: ast.ExprLiteral, LiteralKind: ast.LiteralBool, BoolValue: true}
	b := ast.Expression{Kind: ast.ExprLiteral, LiteralKind: ast.LiteralBool, BoolValue: false}
	original := ast.Expression{Kind: ast.ExprBinary, Left: &a, Operator: "and", Right: &b}

	str := exprfmt.Format(original)
	require.Equal(t, "(true AND false)", str)

	reparsed, err := Parse(str)
	require.NoError(t, err)
	require.Equal(t, ast.ExprBinary, reparsed.Kind)
	require.Equal(t, "and", reparsed.Operator)
}

func TestRoundTripCallAndTernary(t *testing.T) {
	t.Parallel()

	str := "(max(1, 2) > 1 ? \"yes\" : \"no\")"
	reparsed, err := Parse(str)
	require.NoError(t, err)
	require.Equal(t, ast.ExprTernary, reparsed.Kind)
}

func TestRoundTripVenueAndAdvisory(t *testing.T) {
	t.Parallel()

	venue := ast.Expression{Kind: ast.ExprVenueRef, VenueName: "aave"}
	require.Equal(t, "@aave", exprfmt.Format(venue))

	reparsed, err := Parse("@aave")
	require.NoError(t, err)
	require.Equal(t, ast.ExprVenueRef, reparsed.Kind)
	require.Equal(t, "aave", reparsed.VenueName)

	advisory := ast.Expression{Kind: ast.ExprAdvisory, AdvisoryText: "check risk"}
	require.Equal(t, "**check risk**", exprfmt.Format(advisory))
}

func TestRoundTripArrayAndObjectLiterals(t *testing.T) {
	t.Parallel()

	one := ast.Expression{Kind: ast.ExprLiteral, LiteralKind: ast.LiteralNumber, NumberValue: 1}
	two := ast.Expression{Kind: ast.ExprLiteral, LiteralKind: ast.LiteralNumber, NumberValue: 2}
	arr := ast.Expression{Kind: ast.ExprArrayLiteral, Elements: []ast.Expression{one, two}}
	require.Equal(t, "[1, 2]", exprfmt.Format(arr))

	reparsed, err := Parse("[1, 2]")
	require.NoError(t, err)
	require.Equal(t, ast.ExprArrayLiteral, reparsed.Kind)
	require.Len(t, reparsed.Elements, 2)

	obj := ast.Expression{Kind: ast.ExprObjectLiteral, Entries: []ast.ObjectEntry{{Key: "a", Value: one}}}
	require.Equal(t, "{a: 1}", exprfmt.Format(obj))
}
