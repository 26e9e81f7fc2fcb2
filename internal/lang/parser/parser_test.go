package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grimoire-lang/grimoire/internal/lang/ast"
	"github.com/grimoire-lang/grimoire/internal/lang/lexer"
)

func parseSrc(t *testing.T, src string) *ast.Spell {
	t.Helper()
	tokens, err := lexer.Tokenize(src)
	require.NoError(t, err)
	spell, err := Parse(tokens)
	require.NoError(t, err)
	return spell
}

func TestParseMinimalSpell(t *testing.T) {
	t.Parallel()

	src := "spell T\n  version: \"1.0.0\"\n  on manual:\n    x = 42\n"
	spell := parseSrc(t, src)

	require.Equal(t, "T", spell.Name)
	require.Len(t, spell.Sections, 1)
	require.Equal(t, ast.SectionVersion, spell.Sections[0].Kind)
	require.Equal(t, "1.0.0", spell.Sections[0].StringValue)

	require.Len(t, spell.Triggers, 1)
	require.Equal(t, ast.TriggerManual, spell.Triggers[0].Kind)
	require.Len(t, spell.Triggers[0].Body, 1)

	assign := spell.Triggers[0].Body[0]
	require.Equal(t, ast.StmtAssignment, assign.Kind)
	require.Equal(t, "x", assign.Target)
	require.Equal(t, ast.ExprLiteral, assign.Value.Kind)
	require.Equal(t, float64(42), assign.Value.NumberValue)
}

func TestParseParamsPercentage(t *testing.T) {
	t.Parallel()

	src := "spell T\n  params:\n    ratio: 50%\n  on manual:\n    pass\n"
	spell := parseSrc(t, src)

	var params *ast.Section
	for i := range spell.Sections {
		if spell.Sections[i].Kind == ast.SectionParams {
			params = &spell.Sections[i]
		}
	}
	require.NotNil(t, params)
	require.Len(t, params.Params, 1)
	require.Equal(t, "ratio", params.Params[0].Name)
	require.Equal(t, ast.ExprPercentage, params.Params[0].Default.Kind)
	require.Equal(t, 0.5, params.Params[0].Default.PercentageValue)
}

func TestParseUnitLiteral(t *testing.T) {
	t.Parallel()

	src := "spell T\n  params:\n    amount: 1.5 USDC\n  on manual:\n    pass\n"
	spell := parseSrc(t, src)

	require.Equal(t, ast.ExprUnitLiteral, spell.Sections[0].Params[0].Default.Kind)
	require.Equal(t, "USDC", spell.Sections[0].Params[0].Default.UnitSymbol)
	require.Equal(t, 1.5, spell.Sections[0].Params[0].Default.UnitAmount)
}

func TestParseMethodCallStatementLevel(t *testing.T) {
	t.Parallel()

	src := "spell T\n  on manual:\n    aave.deposit(USDC, 100)\n"
	spell := parseSrc(t, src)

	stmt := spell.Triggers[0].Body[0]
	require.Equal(t, ast.StmtMethodCall, stmt.Kind)
	require.Equal(t, "deposit", stmt.Method)
	require.Equal(t, ast.ExprIdentifier, stmt.Receiver.Kind)
	require.Equal(t, "aave", stmt.Receiver.Name)
	require.Len(t, stmt.CallArgs, 2)
}

func TestParseAssignedMethodCallWithConstraint(t *testing.T) {
	t.Parallel()

	src := "spell T\n  on manual:\n    result = venue.swap(USDC, ETH, 1000) with slippage=50\n"
	spell := parseSrc(t, src)

	stmt := spell.Triggers[0].Body[0]
	require.Equal(t, ast.StmtMethodCall, stmt.Kind)
	require.Equal(t, "result", stmt.Target)
	require.Equal(t, "swap", stmt.Method)
	require.Contains(t, stmt.With, "slippage")
}

func TestParseAtomicSkip(t *testing.T) {
	t.Parallel()

	src := "spell T\n  on manual:\n    atomic skip:\n      x = 1\n"
	spell := parseSrc(t, src)

	stmt := spell.Triggers[0].Body[0]
	require.Equal(t, ast.StmtAtomic, stmt.Kind)
	require.Equal(t, "skip", stmt.AtomicMode)
	require.Len(t, stmt.AtomicBody, 1)
}

func TestParseIfElifElse(t *testing.T) {
	t.Parallel()

	src := "spell T\n  on manual:\n    if params.amount > 0:\n      x = 1\n    elif params.amount < 0:\n      x = 2\n    else:\n      x = 3\n"
	spell := parseSrc(t, src)

	stmt := spell.Triggers[0].Body[0]
	require.Equal(t, ast.StmtIf, stmt.Kind)
	require.Len(t, stmt.ThenBody, 1)
	require.Len(t, stmt.Elifs, 1)
	require.Len(t, stmt.ElseBody, 1)
}

func TestParseTryCatchFinally(t *testing.T) {
	t.Parallel()

	src := "spell T\n  on manual:\n    try:\n      x = 1\n    catch timeout retry:\n      pass\n    catch revert:\n      pass\n    finally:\n      pass\n"
	spell := parseSrc(t, src)

	stmt := spell.Triggers[0].Body[0]
	require.Equal(t, ast.StmtTry, stmt.Kind)
	require.Len(t, stmt.Catches, 2)
	require.Equal(t, "timeout", stmt.Catches[0].ErrorType)
	require.Equal(t, "retry", stmt.Catches[0].Action)
	require.Equal(t, "*", stmt.Catches[1].ErrorType)
	require.Len(t, stmt.FinallyBody, 1)
}

func TestParseParallelJoinAny(t *testing.T) {
	t.Parallel()

	src := "spell T\n  on manual:\n    parallel join=any, count=2:\n      a:\n        x = 1\n      b:\n        x = 2\n"
	spell := parseSrc(t, src)

	stmt := spell.Triggers[0].Body[0]
	require.Equal(t, ast.StmtParallel, stmt.Kind)
	require.Len(t, stmt.Branches, 2)
	require.Equal(t, "any", stmt.Join.Mode)
	require.Equal(t, 2, stmt.Join.Count)
}

func TestParsePipelineStages(t *testing.T) {
	t.Parallel()

	src := "spell T\n  on manual:\n    data | filter: item > 0 | take 10\n"
	spell := parseSrc(t, src)

	stmt := spell.Triggers[0].Body[0]
	require.Equal(t, ast.StmtPipeline, stmt.Kind)
	require.Len(t, stmt.Stages, 2)
	require.Equal(t, ast.StageFilter, stmt.Stages[0].Op)
	require.Equal(t, ast.StageTake, stmt.Stages[1].Op)
}

func TestParseGuardsSection(t *testing.T) {
	t.Parallel()

	src := "spell T\n  guards:\n    positive:\n      check: params.amount > 0\n      severity: \"halt\"\n  on manual:\n    pass\n"
	spell := parseSrc(t, src)

	var guards *ast.Section
	for i := range spell.Sections {
		if spell.Sections[i].Kind == ast.SectionGuards {
			guards = &spell.Sections[i]
		}
	}
	require.NotNil(t, guards)
	require.Len(t, guards.Guards, 1)
	require.Equal(t, ast.SeverityHalt, guards.Guards[0].Severity)
	require.False(t, guards.Guards[0].IsAdvisory)
}

func TestParseTernaryAndPrecedence(t *testing.T) {
	t.Parallel()

	src := "spell T\n  on manual:\n    x = 1 + 2 * 3 > 5 ? 1 : 0\n"
	spell := parseSrc(t, src)

	stmt := spell.Triggers[0].Body[0]
	require.Equal(t, ast.ExprTernary, stmt.Value.Kind)
}

func TestParseMissingIndentIsError(t *testing.T) {
	t.Parallel()

	tokens, err := lexer.Tokenize("spell T\n  on manual:\n  x = 1\n")
	require.NoError(t, err)
	_, err = Parse(tokens)
	require.Error(t, err)
}
