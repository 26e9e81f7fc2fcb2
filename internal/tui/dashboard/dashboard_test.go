package dashboard

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/grimoire-lang/grimoire/internal/ports"
)

type stubService struct {
	spells      []string
	spellsErr   error
	runs        map[string][]ports.RunSummary
	runsErr     error
	ledger      map[string][]ports.LedgerRecord
	ledgerErr   error
	ledgerCalls int
}

func (s *stubService) ListSpells(context.Context) ([]string, error) {
	return s.spells, s.spellsErr
}

func (s *stubService) GetRuns(_ context.Context, spellID string, _ int) ([]ports.RunSummary, error) {
	if s.runsErr != nil {
		return nil, s.runsErr
	}
	return s.runs[spellID], nil
}

func (s *stubService) LoadLedger(_ context.Context, spellID, runID string) ([]ports.LedgerRecord, error) {
	s.ledgerCalls++
	if s.ledgerErr != nil {
		return nil, s.ledgerErr
	}
	return s.ledger[spellID+"/"+runID], nil
}

func TestModelInitLoadsSpells(t *testing.T) {
	svc := &stubService{spells: []string{"vault-rebalance"}}
	m := NewModel(context.Background(), svc)

	cmd := m.Init()
	require.NotNil(t, cmd)
	msg := cmd()

	batch, ok := msg.(tea.BatchMsg)
	require.True(t, ok)

	var found bool
	for _, c := range batch {
		if loaded, ok := c().(spellsLoadedMsg); ok {
			found = true
			require.Equal(t, []string{"vault-rebalance"}, loaded.spells)
		}
	}
	require.True(t, found, "expected a spellsLoadedMsg among Init's batched commands")
}

func TestUpdateSpellsLoadedPopulatesList(t *testing.T) {
	m := NewModel(context.Background(), &stubService{})
	updated, _ := m.Update(spellsLoadedMsg{spells: []string{"a", "b"}})
	mm := updated.(Model)

	require.Equal(t, []string{"a", "b"}, mm.spells)
	require.False(t, mm.loading)
}

func TestEnterDrillsFromSpellsToRunsToLedger(t *testing.T) {
	svc := &stubService{
		spells: []string{"vault-rebalance"},
		runs: map[string][]ports.RunSummary{
			"vault-rebalance": {{RunID: "run-1", Success: true}},
		},
		ledger: map[string][]ports.LedgerRecord{
			"vault-rebalance/run-1": {{ID: 1, Event: "run_started"}},
		},
	}
	m := NewModel(context.Background(), svc)
	m.spells = []string{"vault-rebalance"}
	m.loading = false

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	mm := updated.(Model)
	require.Equal(t, ViewRuns, mm.viewMode)
	require.Equal(t, "vault-rebalance", mm.selectedSpell)
	require.NotNil(t, cmd)

	runsMsg := cmd().(runsLoadedMsg)
	updated, _ = mm.Update(runsMsg)
	mm = updated.(Model)
	require.Len(t, mm.runs, 1)

	updated, cmd = mm.Update(tea.KeyMsg{Type: tea.KeyEnter})
	mm = updated.(Model)
	require.Equal(t, ViewLedger, mm.viewMode)
	require.Equal(t, "run-1", mm.selectedRun)

	ledgerMsg := cmd().(ledgerLoadedMsg)
	updated, _ = mm.Update(ledgerMsg)
	mm = updated.(Model)
	require.Len(t, mm.ledger, 1)
	require.Equal(t, "run_started", mm.ledger[0].Event)
}

func TestEscGoesBackAPane(t *testing.T) {
	m := NewModel(context.Background(), &stubService{})
	m.viewMode = ViewLedger
	m.selectedSpell = "vault-rebalance"

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	mm := updated.(Model)
	require.Equal(t, ViewRuns, mm.viewMode)

	updated, _ = mm.Update(tea.KeyMsg{Type: tea.KeyEsc})
	mm = updated.(Model)
	require.Equal(t, ViewSpells, mm.viewMode)
}

func TestErrMsgSetsErrorBanner(t *testing.T) {
	m := NewModel(context.Background(), &stubService{})
	updated, _ := m.Update(errMsg{err: errors.New("boom")})
	mm := updated.(Model)
	require.Equal(t, "boom", mm.errMsg)
	require.False(t, mm.loading)
}

func TestViewRendersWithoutPanicking(t *testing.T) {
	m := NewModel(context.Background(), &stubService{})
	m.loading = false
	m.spells = []string{"vault-rebalance"}
	require.Contains(t, m.View(), "grimoire dashboard")

	m.viewMode = ViewHelp
	require.Contains(t, m.View(), "help")
}

func TestCursorNavigationWraps(t *testing.T) {
	m := NewModel(context.Background(), &stubService{})
	m.loading = false
	m.spells = []string{"a", "b", "c"}

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyUp})
	mm := updated.(Model)
	require.Equal(t, 2, mm.spellCursor)

	updated, _ = mm.Update(tea.KeyMsg{Type: tea.KeyDown})
	mm = updated.(Model)
	require.Equal(t, 0, mm.spellCursor)
}
