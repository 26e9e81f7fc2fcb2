package dashboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grimoire-lang/grimoire/internal/ports"
)

func TestSummarizeLedgerCountsStepsAndGuards(t *testing.T) {
	entries := []ports.LedgerRecord{
		{Event: "run_started"},
		{Event: "step_started"},
		{Event: "guard_passed", Data: map[string]interface{}{"guard": "collateral_ratio"}},
		{Event: "step_completed"},
		{Event: "step_started"},
		{Event: "guard_failed", Data: map[string]interface{}{"guard": "max_slippage"}},
		{Event: "step_completed"},
	}

	data := summarizeLedger(entries)
	require.Equal(t, 2, data.StepsTotal)
	require.Equal(t, 2, data.StepsCompleted)
	require.False(t, data.Failed)
	require.False(t, data.Halted)
	require.Len(t, data.Guards, 2)
	require.True(t, data.Guards[0].Passed)
	require.Equal(t, "collateral_ratio", data.Guards[0].Message)
	require.False(t, data.Guards[1].Passed)
	require.Equal(t, "max_slippage", data.Guards[1].Message)
}

func TestSummarizeLedgerDetectsFailureAndHalt(t *testing.T) {
	data := summarizeLedger([]ports.LedgerRecord{{Event: "run_failed"}})
	require.True(t, data.Failed)

	data = summarizeLedger([]ports.LedgerRecord{{Event: "halt"}})
	require.True(t, data.Halted)
}

func TestViewLedgerRendersSummaryAndProgress(t *testing.T) {
	m := NewModel(context.Background(), &stubService{})
	m.loading = false
	m.selectedSpell = "vault-rebalance"
	m.selectedRun = "run-1"
	m.ledger = []ports.LedgerRecord{
		{ID: 1, Event: "step_started"},
		{ID: 2, Event: "step_completed"},
		{ID: 3, Event: "guard_passed", Data: map[string]interface{}{"guard": "collateral_ratio"}},
	}

	view := m.viewLedger()
	require.Contains(t, view, "1/1")
	require.Contains(t, view, "Guards:")
	require.Contains(t, view, "collateral_ratio")
	require.Contains(t, view, "step_completed")
}
