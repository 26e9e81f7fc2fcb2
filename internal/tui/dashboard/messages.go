package dashboard

import "github.com/grimoire-lang/grimoire/internal/ports"

// ViewMode determines which pane is focused.
type ViewMode int

const (
	ViewSpells ViewMode = iota
	ViewRuns
	ViewLedger
	ViewHelp
)

// spellsLoadedMsg carries the result of a ListSpells call.
type spellsLoadedMsg struct {
	spells []string
}

// runsLoadedMsg carries the result of a GetRuns call for one spell.
type runsLoadedMsg struct {
	spellID string
	runs    []ports.RunSummary
}

// ledgerLoadedMsg carries the result of a LoadLedger call for one run.
type ledgerLoadedMsg struct {
	spellID string
	runID   string
	entries []ports.LedgerRecord
}

// errMsg reports a failed load.
type errMsg struct {
	err error
}

// tickMsg fires on the dashboard's auto-refresh interval while a run's
// ledger is being tailed, so in-progress events keep appearing.
type tickMsg struct{}
