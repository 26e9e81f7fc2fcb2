package transform

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grimoire-lang/grimoire/internal/lang/ast"
	"github.com/grimoire-lang/grimoire/internal/lang/lexer"
	"github.com/grimoire-lang/grimoire/internal/lang/parser"
)

func parseSrc(t *testing.T, src string) *ast.Spell {
	t.Helper()
	tokens, err := lexer.Tokenize(src)
	require.NoError(t, err)
	spell, err := parser.Parse(tokens)
	require.NoError(t, err)
	return spell
}

func TestTransformMinimalSpell(t *testing.T) {
	t.Parallel()

	src := "spell T\n  version: \"1.0.0\"\n  on manual:\n    x = 42\n"
	spell := parseSrc(t, src)

	out, errs, err := Transform(spell, Options{})
	require.NoError(t, err)
	require.Empty(t, errs)
	require.Equal(t, "T", out.Spell)
	require.Equal(t, "1.0.0", out.Version)
	require.Len(t, out.Steps, 1)
	require.NotNil(t, out.Steps[0].Compute)
	require.Equal(t, "x", out.Steps[0].Compute.Assignments[0].Variable)
	require.Equal(t, "42", out.Steps[0].Compute.Assignments[0].Expression)
	require.Empty(t, out.Trigger.Schedule)
}

func TestTransformMissingTriggerErrors(t *testing.T) {
	t.Parallel()

	src := "spell T\n  version: \"1.0.0\"\n"
	tokens, err := lexer.Tokenize(src)
	require.NoError(t, err)
	spell, err := parser.Parse(tokens)
	require.NoError(t, err)

	_, _, err = Transform(spell, Options{})
	require.Error(t, err)
}

func TestTransformHourlyTrigger(t *testing.T) {
	t.Parallel()

	src := "spell T\n  on hourly:\n    x = 1\n"
	spell := parseSrc(t, src)

	out, errs, err := Transform(spell, Options{})
	require.NoError(t, err)
	require.Empty(t, errs)
	require.Equal(t, "0 * * * *", out.Trigger.Schedule)
}

func TestTransformMultipleTriggersCollapseToAny(t *testing.T) {
	t.Parallel()

	src := "spell T\n  on hourly:\n    x = 1\n  on daily:\n    y = 2\n"
	spell := parseSrc(t, src)

	out, errs, err := Transform(spell, Options{})
	require.NoError(t, err)
	require.Empty(t, errs)
	require.Len(t, out.Trigger.Any, 2)
	require.Equal(t, "0 * * * *", out.Trigger.Any[0].Schedule)
	require.Equal(t, "0 0 * * *", out.Trigger.Any[1].Schedule)
	require.Len(t, out.Steps, 2)
}

func TestTransformMethodCallBecomesActionStep(t *testing.T) {
	t.Parallel()

	src := "spell T\n  assets:\n    USDC:\n      chain: \"ethereum\"\n      address: \"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48\"\n      decimals: 6\n  on manual:\n    result = @aave.deposit(asset=USDC, amount=1.5 USDC)\n"
	spell := parseSrc(t, src)

	out, errs, err := Transform(spell, Options{})
	require.NoError(t, err)
	require.Empty(t, errs)
	require.Len(t, out.Steps, 1)
	action := out.Steps[0].Action
	require.NotNil(t, action)
	require.Equal(t, "lend", action.Type)
	require.Equal(t, "aave", action.Venue)
	require.Equal(t, "USDC", action.Asset)
	require.Equal(t, "1500000", action.Amount)
	require.Equal(t, "result", action.OutputBinding)
}

func TestTransformUnknownUnitSymbolIsCollectedError(t *testing.T) {
	t.Parallel()

	src := "spell T\n  params:\n    amount: 5 NOTANASSET\n  on manual:\n    x = 1\n"
	spell := parseSrc(t, src)

	out, errs, err := Transform(spell, Options{})
	require.NoError(t, err)
	require.Nil(t, out)
	require.Len(t, errs, 1)
	require.Contains(t, errs[0].Error(), "NOTANASSET")
}

func TestTransformUnknownUnitSymbolsAreAllCollected(t *testing.T) {
	t.Parallel()

	src := "spell T\n  on manual:\n    x = 1 FOO\n    y = 2 BAR\n"
	spell := parseSrc(t, src)

	out, errs, err := Transform(spell, Options{})
	require.NoError(t, err)
	require.Nil(t, out)
	require.Len(t, errs, 2)
}

func TestTransformIfElseProducesNestedSteps(t *testing.T) {
	t.Parallel()

	src := "spell T\n  on manual:\n    if params.x > 0:\n      a = 1\n    else:\n      b = 2\n"
	spell := parseSrc(t, src)

	out, errs, err := Transform(spell, Options{})
	require.NoError(t, err)
	require.Empty(t, errs)
	require.Len(t, out.Steps, 3)
	require.NotNil(t, out.Steps[2].If)
	require.Equal(t, "(params.x > 0)", out.Steps[2].If.Condition)
	require.Len(t, out.Steps[2].If.ThenSteps, 1)
	require.Len(t, out.Steps[2].If.ElseSteps, 1)
}

func TestTransformLimitsFoldIntoParamsWithPrefix(t *testing.T) {
	t.Parallel()

	src := "spell T\n  limits:\n    max_exposure: 1000\n  on manual:\n    x = 1\n"
	spell := parseSrc(t, src)

	out, errs, err := Transform(spell, Options{})
	require.NoError(t, err)
	require.Empty(t, errs)
	require.Equal(t, "1000", out.Params["limit_max_exposure"])
}

func TestTransformGuardDetectsAdvisory(t *testing.T) {
	t.Parallel()

	src := "spell T\n  guards:\n    risk_check:\n      check: **verify position health**\n      severity: \"halt\"\n  on manual:\n    x = 1\n"
	spell := parseSrc(t, src)

	out, errs, err := Transform(spell, Options{})
	require.NoError(t, err)
	require.Empty(t, errs)
	require.Len(t, out.Guards, 1)
	require.True(t, out.Guards[0].IsAdvisory)
	require.Equal(t, "halt", out.Guards[0].Severity)
}

func TestTransformDoInlinesBlockWithSubstitution(t *testing.T) {
	t.Parallel()

	src := "spell T\n  block helper(n):\n    x = n\n  on manual:\n    do helper(5)\n"
	spell := parseSrc(t, src)

	out, errs, err := Transform(spell, Options{})
	require.NoError(t, err)
	require.Empty(t, errs)
	require.Len(t, out.Steps, 1)
	require.NotNil(t, out.Steps[0].Compute)
	require.Equal(t, "5", out.Steps[0].Compute.Assignments[0].Expression)
}

func TestTransformUnknownBlockErrors(t *testing.T) {
	t.Parallel()

	src := "spell T\n  on manual:\n    do helper(5)\n"
	spell := parseSrc(t, src)

	_, _, err := Transform(spell, Options{})
	require.Error(t, err)
}
