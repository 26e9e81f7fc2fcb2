package dashboard

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// loadSpellsCmd asynchronously lists every spell with persisted state.
func loadSpellsCmd(ctx context.Context, svc StateService) tea.Cmd {
	return func() tea.Msg {
		spells, err := svc.ListSpells(ctx)
		if err != nil {
			return errMsg{err: err}
		}
		return spellsLoadedMsg{spells: spells}
	}
}

// loadRunsCmd asynchronously loads a spell's recent run history.
func loadRunsCmd(ctx context.Context, svc StateService, spellID string) tea.Cmd {
	return func() tea.Msg {
		runs, err := svc.GetRuns(ctx, spellID, runHistoryLimit)
		if err != nil {
			return errMsg{err: err}
		}
		return runsLoadedMsg{spellID: spellID, runs: runs}
	}
}

// loadLedgerCmd asynchronously loads one run's ledger.
func loadLedgerCmd(ctx context.Context, svc StateService, spellID, runID string) tea.Cmd {
	return func() tea.Msg {
		entries, err := svc.LoadLedger(ctx, spellID, runID)
		if err != nil {
			return errMsg{err: err}
		}
		return ledgerLoadedMsg{spellID: spellID, runID: runID, entries: entries}
	}
}

// tickCmd schedules the next auto-refresh of the active ledger view.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}
