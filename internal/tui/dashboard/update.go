package dashboard

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles incoming messages and advances the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spellsLoadedMsg:
		m.loading = false
		m.spells = msg.spells
		if m.spellCursor >= len(m.spells) {
			m.spellCursor = 0
		}
		return m, nil

	case runsLoadedMsg:
		m.loading = false
		m.runs = msg.runs
		if m.runCursor >= len(m.runs) {
			m.runCursor = 0
		}
		return m, nil

	case ledgerLoadedMsg:
		m.loading = false
		m.ledger = msg.entries
		if m.viewMode == ViewLedger && msg.spellID == m.selectedSpell && msg.runID == m.selectedRun {
			return m, tickCmd(m.refreshInterval)
		}
		return m, nil

	case tickMsg:
		if m.viewMode != ViewLedger {
			return m, nil
		}
		return m, loadLedgerCmd(m.ctx, m.svc, m.selectedSpell, m.selectedRun)

	case errMsg:
		m.loading = false
		m.errMsg = msg.err.Error()
		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		if m.viewMode == ViewHelp {
			m.viewMode = ViewSpells
			return m, nil
		}
		return m, tea.Quit

	case "?":
		if m.viewMode == ViewHelp {
			m.viewMode = ViewSpells
		} else {
			m.viewMode = ViewHelp
		}
		return m, nil

	case "up", "k":
		switch m.viewMode {
		case ViewSpells:
			m.moveCursorUp(&m.spellCursor, len(m.spells))
		case ViewRuns:
			m.moveCursorUp(&m.runCursor, len(m.runs))
		}
		return m, nil

	case "down", "j":
		switch m.viewMode {
		case ViewSpells:
			m.moveCursorDown(&m.spellCursor, len(m.spells))
		case ViewRuns:
			m.moveCursorDown(&m.runCursor, len(m.runs))
		}
		return m, nil

	case "enter":
		return m.handleEnter()

	case "esc", "backspace":
		return m.handleBack()

	case "r":
		return m.handleRefresh()
	}
	return m, nil
}

func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	switch m.viewMode {
	case ViewSpells:
		spellID, ok := m.selectedSpellID()
		if !ok {
			return m, nil
		}
		m.selectedSpell = spellID
		m.viewMode = ViewRuns
		m.runCursor = 0
		m.loading = true
		return m, loadRunsCmd(m.ctx, m.svc, spellID)

	case ViewRuns:
		run, ok := m.selectedRunSummary()
		if !ok {
			return m, nil
		}
		m.selectedRun = run.RunID
		m.viewMode = ViewLedger
		m.loading = true
		return m, loadLedgerCmd(m.ctx, m.svc, m.selectedSpell, run.RunID)
	}
	return m, nil
}

func (m Model) handleBack() (tea.Model, tea.Cmd) {
	switch m.viewMode {
	case ViewLedger:
		m.viewMode = ViewRuns
		m.ledger = nil
		return m, nil
	case ViewRuns:
		m.viewMode = ViewSpells
		m.runs = nil
		return m, nil
	case ViewHelp:
		m.viewMode = ViewSpells
		return m, nil
	}
	return m, nil
}

func (m Model) handleRefresh() (tea.Model, tea.Cmd) {
	m.loading = true
	switch m.viewMode {
	case ViewSpells:
		return m, loadSpellsCmd(m.ctx, m.svc)
	case ViewRuns:
		return m, loadRunsCmd(m.ctx, m.svc, m.selectedSpell)
	case ViewLedger:
		return m, loadLedgerCmd(m.ctx, m.svc, m.selectedSpell, m.selectedRun)
	}
	m.loading = false
	return m, nil
}
