package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grimoire-lang/grimoire/internal/ports"
)

func TestMemoryLoadSave(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	state, err := m.Load(ctx, "unknown-spell")
	require.NoError(t, err)
	assert.Nil(t, state)

	require.NoError(t, m.Save(ctx, "vault-rebalance", map[string]interface{}{"lastYield": 12.5}))
	state, err = m.Load(ctx, "vault-rebalance")
	require.NoError(t, err)
	assert.Equal(t, 12.5, state["lastYield"])
}

func TestMemoryAddRunPrunesHistory(t *testing.T) {
	m := NewMemory()
	m.maxRuns = 3
	ctx := context.Background()

	base := time.Now()
	for n := 0; n < 5; n++ {
		run := ports.RunSummary{RunID: string(rune('a' + n)), Timestamp: base.Add(time.Duration(n) * time.Minute)}
		require.NoError(t, m.AddRun(ctx, "vault-rebalance", run))
	}

	runs, err := m.GetRuns(ctx, "vault-rebalance", 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	// Most-recent first.
	assert.Equal(t, string(rune('a'+4)), runs[0].RunID)
}

func TestMemoryPruneTrimsHistoryAndLedgers(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	base := time.Now()
	for n := 0; n < 5; n++ {
		runID := string(rune('a' + n))
		run := ports.RunSummary{RunID: runID, Timestamp: base.Add(time.Duration(n) * time.Minute)}
		require.NoError(t, m.AddRun(ctx, "vault-rebalance", run))
		require.NoError(t, m.SaveLedger(ctx, "vault-rebalance", runID, []ports.LedgerRecord{{ID: 1, Event: "run_started"}}))
	}

	removed, err := m.Prune(ctx, "vault-rebalance", 2)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	runs, err := m.GetRuns(ctx, "vault-rebalance", 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	for n := 0; n < 3; n++ {
		entries, err := m.LoadLedger(ctx, "vault-rebalance", string(rune('a'+n)))
		require.NoError(t, err)
		assert.Empty(t, entries)
	}

	removed, err = m.Prune(ctx, "vault-rebalance", 2)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestMemoryLedgerRoundtrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	entries := []ports.LedgerRecord{{ID: 1, Event: "run_started"}, {ID: 2, Event: "run_completed"}}
	require.NoError(t, m.SaveLedger(ctx, "vault-rebalance", "run-1", entries))

	loaded, err := m.LoadLedger(ctx, "vault-rebalance", "run-1")
	require.NoError(t, err)
	assert.Equal(t, entries, loaded)

	missing, err := m.LoadLedger(ctx, "vault-rebalance", "run-2")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemoryListSpellsSorted(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Save(ctx, "zeta", map[string]interface{}{}))
	require.NoError(t, m.Save(ctx, "alpha", map[string]interface{}{}))

	spells, err := m.ListSpells(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, spells)
}
