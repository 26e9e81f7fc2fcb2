package ir

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grimoire-lang/grimoire/internal/lang/source"
)

func TestGenerateMinimalComputeStep(t *testing.T) {
	t.Parallel()

	src := &source.SpellSource{
		Spell:   "T",
		Version: "1.0.0",
		Steps: []source.Step{
			{ID: "compute_1", Compute: &source.ComputeStep{
				Assignments: []source.Assignment{{Variable: "x", Expression: "42"}},
			}},
		},
	}

	res := Generate(src)
	require.True(t, res.Success)
	require.Empty(t, res.Errors)
	require.Len(t, res.IR.Steps, 1)
	compute, ok := res.IR.Steps[0].(ComputeStep)
	require.True(t, ok)
	require.Equal(t, "x", compute.Assignments[0].Variable)
	require.Len(t, res.IR.Meta.Hash, 8)
}

func TestGenerateDuplicateStepIDFails(t *testing.T) {
	t.Parallel()

	src := &source.SpellSource{
		Spell: "T",
		Steps: []source.Step{
			{ID: "x", Compute: &source.ComputeStep{Assignments: []source.Assignment{{Variable: "a", Expression: "1"}}}},
			{ID: "x", Compute: &source.ComputeStep{Assignments: []source.Assignment{{Variable: "b", Expression: "2"}}}},
		},
	}

	res := Generate(src)
	require.False(t, res.Success)
	require.Len(t, res.Errors, 1)
}

func TestGenerateMissingStepIDFails(t *testing.T) {
	t.Parallel()

	src := &source.SpellSource{
		Spell: "T",
		Steps: []source.Step{
			{Compute: &source.ComputeStep{Assignments: []source.Assignment{{Variable: "a", Expression: "1"}}}},
		},
	}

	res := Generate(src)
	require.False(t, res.Success)
}

func TestGenerateActionStep(t *testing.T) {
	t.Parallel()

	src := &source.SpellSource{
		Spell: "T",
		Steps: []source.Step{
			{ID: "action_1", Action: &source.ActionStep{
				Type: "lend", Venue: "aave", Asset: "USDC", Amount: "1500000",
			}},
		},
	}

	res := Generate(src)
	require.True(t, res.Success)
	action, ok := res.IR.Steps[0].(ActionStep)
	require.True(t, ok)
	require.Equal(t, "lend", action.Type)
	require.Equal(t, "1500000", action.Amount)
}

func TestGenerateActionAmountAcceptsMaxSentinel(t *testing.T) {
	t.Parallel()

	src := &source.SpellSource{
		Spell: "T",
		Steps: []source.Step{
			{ID: "action_1", Action: &source.ActionStep{Type: "withdraw", Venue: "aave", Asset: "USDC", Amount: "max"}},
		},
	}

	res := Generate(src)
	require.True(t, res.Success)
	action := res.IR.Steps[0].(ActionStep)
	require.Equal(t, "max", action.Amount)
}

func TestGenerateBridgeActionRequiresToChain(t *testing.T) {
	t.Parallel()

	src := &source.SpellSource{
		Spell: "T",
		Steps: []source.Step{
			{ID: "action_1", Action: &source.ActionStep{Type: "bridge", Venue: "wormhole", Asset: "USDC", Amount: "1"}},
		},
	}

	res := Generate(src)
	require.False(t, res.Success)
}

func TestGenerateConditionalValidatesChildReferences(t *testing.T) {
	t.Parallel()

	src := &source.SpellSource{
		Spell: "T",
		Steps: []source.Step{
			{ID: "if_1", If: &source.IfStep{
				Condition: "(params.x > 0)",
				ThenSteps: []string{"compute_1"},
				ElseSteps: []string{"nonexistent"},
			}},
			{ID: "compute_1", Compute: &source.ComputeStep{Assignments: []source.Assignment{{Variable: "a", Expression: "1"}}}},
		},
	}

	res := Generate(src)
	require.False(t, res.Success)
}

func TestGenerateCatchActionRevertRenamedToRollback(t *testing.T) {
	t.Parallel()

	src := &source.SpellSource{
		Spell: "T",
		Steps: []source.Step{
			{ID: "try_1", Try: &source.TryStep{
				TrySteps: nil,
				CatchBlocks: []source.CatchBlock{
					{ErrorType: "*", Action: "revert"},
				},
			}},
		},
	}

	res := Generate(src)
	require.True(t, res.Success)
	try := res.IR.Steps[0].(TryStep)
	require.Equal(t, "rollback", try.CatchBlocks[0].Action)
}

func TestGenerateCatchErrorTypeOutsideFixedSetReducesToWildcard(t *testing.T) {
	t.Parallel()

	src := &source.SpellSource{
		Spell: "T",
		Steps: []source.Step{
			{ID: "try_1", Try: &source.TryStep{
				CatchBlocks: []source.CatchBlock{
					{ErrorType: "some_custom_kind", Action: "skip"},
				},
			}},
		},
	}

	res := Generate(src)
	require.True(t, res.Success)
	try := res.IR.Steps[0].(TryStep)
	require.Equal(t, "*", try.CatchBlocks[0].ErrorType)
}

func TestGenerateParamTypeInference(t *testing.T) {
	t.Parallel()

	src := &source.SpellSource{
		Spell: "T",
		Params: map[string]string{
			"ratio":  "0.5",
			"active": "true",
			"label":  `"hello"`,
		},
		Steps: []source.Step{
			{ID: "compute_1", Compute: &source.ComputeStep{Assignments: []source.Assignment{{Variable: "a", Expression: "1"}}}},
		},
	}

	res := Generate(src)
	require.True(t, res.Success)
	types := map[string]ParamType{}
	for _, p := range res.IR.Params {
		types[p.Name] = p.Type
	}
	require.Equal(t, ParamNumber, types["ratio"])
	require.Equal(t, ParamBool, types["active"])
	require.Equal(t, ParamString, types["label"])
}

func TestGenerateMultipleTriggersFlatten(t *testing.T) {
	t.Parallel()

	src := &source.SpellSource{
		Spell: "T",
		Trigger: source.Trigger{Any: []source.Trigger{
			{Schedule: "0 * * * *"},
			{Schedule: "0 0 * * *"},
		}},
		Steps: []source.Step{
			{ID: "compute_1", Compute: &source.ComputeStep{Assignments: []source.Assignment{{Variable: "a", Expression: "1"}}}},
		},
	}

	res := Generate(src)
	require.True(t, res.Success)
	require.Len(t, res.IR.Triggers, 2)
}

func TestGenerateGuardMissingCheckFails(t *testing.T) {
	t.Parallel()

	src := &source.SpellSource{
		Spell: "T",
		Guards: []source.Guard{{Name: "g1"}},
		Steps: []source.Step{
			{ID: "compute_1", Compute: &source.ComputeStep{Assignments: []source.Assignment{{Variable: "a", Expression: "1"}}}},
		},
	}

	res := Generate(src)
	require.False(t, res.Success)
}

func TestGenerateAdvisoryGuardRequiresAdvisor(t *testing.T) {
	t.Parallel()

	src := &source.SpellSource{
		Spell: "T",
		Guards: []source.Guard{{Name: "g1", Check: "**verify position health**", IsAdvisory: true}},
		Steps: []source.Step{
			{ID: "compute_1", Compute: &source.ComputeStep{Assignments: []source.Assignment{{Variable: "a", Expression: "1"}}}},
		},
	}

	res := Generate(src)
	require.False(t, res.Success)
}

func TestGenerateHashIsDeterministic(t *testing.T) {
	t.Parallel()

	src := &source.SpellSource{
		Spell: "T",
		Steps: []source.Step{
			{ID: "compute_1", Compute: &source.ComputeStep{Assignments: []source.Assignment{{Variable: "a", Expression: "1"}}}},
		},
	}

	res1 := Generate(src)
	res2 := Generate(src)
	require.Equal(t, res1.IR.Meta.Hash, res2.IR.Meta.Hash)
}
