package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grimoire-lang/grimoire/internal/ports"
)

func TestFileStoreStatePersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	fs1, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, fs1.Save(ctx, "vault-rebalance", map[string]interface{}{"epoch": 3.0}))

	fs2, err := NewFileStore(dir)
	require.NoError(t, err)
	state, err := fs2.Load(ctx, "vault-rebalance")
	require.NoError(t, err)
	assert.Equal(t, 3.0, state["epoch"])
}

func TestFileStoreLoadMissingSpellReturnsNil(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	state, err := fs.Load(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestFileStoreAddRunPrunesHistory(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	fs.maxRuns = 2
	ctx := context.Background()

	base := time.Now()
	for n := 0; n < 4; n++ {
		run := ports.RunSummary{RunID: string(rune('a' + n)), Timestamp: base.Add(time.Duration(n) * time.Minute), GasUsed: "0"}
		require.NoError(t, fs.AddRun(ctx, "vault-rebalance", run))
	}

	runs, err := fs.GetRuns(ctx, "vault-rebalance", 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, string(rune('a'+3)), runs[0].RunID)
}

func TestFileStorePruneTrimsHistoryAndLedgers(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	base := time.Now()
	for n := 0; n < 4; n++ {
		runID := string(rune('a' + n))
		run := ports.RunSummary{RunID: runID, Timestamp: base.Add(time.Duration(n) * time.Minute), GasUsed: "0"}
		require.NoError(t, fs.AddRun(ctx, "vault-rebalance", run))
		require.NoError(t, fs.SaveLedger(ctx, "vault-rebalance", runID, []ports.LedgerRecord{{ID: 1, Event: "run_started"}}))
	}

	removed, err := fs.Prune(ctx, "vault-rebalance", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	runs, err := fs.GetRuns(ctx, "vault-rebalance", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	for n := 0; n < 3; n++ {
		entries, err := fs.LoadLedger(ctx, "vault-rebalance", string(rune('a'+n)))
		require.NoError(t, err)
		assert.Empty(t, entries)
	}
	entries, err := fs.LoadLedger(ctx, "vault-rebalance", string(rune('a'+3)))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStoreLedgerRoundtrip(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	entries := []ports.LedgerRecord{{ID: 1, Event: "run_started", Data: map[string]interface{}{"mode": "simulate"}}}
	require.NoError(t, fs.SaveLedger(ctx, "vault-rebalance", "run-1", entries))

	loaded, err := fs.LoadLedger(ctx, "vault-rebalance", "run-1")
	require.NoError(t, err)
	assert.Equal(t, entries[0].Event, loaded[0].Event)
	assert.Equal(t, "simulate", loaded[0].Data["mode"])
}

func TestFileStoreListSpellsSorted(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, fs.Save(ctx, "zeta", map[string]interface{}{}))
	require.NoError(t, fs.Save(ctx, "alpha", map[string]interface{}{}))

	spells, err := fs.ListSpells(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, spells)
}

func TestSanitizeIDRejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, fs.Save(context.Background(), "../../etc/passwd", map[string]interface{}{"x": 1.0}))
	assert.True(t, filepath.Dir(fs.statePath("../../etc/passwd")) == filepath.Join(dir, "passwd"))
}
