package dashboard

import (
	"fmt"
	"strings"

	"github.com/grimoire-lang/grimoire/internal/ports"
	"github.com/grimoire-lang/grimoire/internal/tui/components"
)

// View renders the active pane.
func (m Model) View() string {
	if m.viewMode == ViewHelp {
		return m.viewHelp()
	}

	var body string
	switch m.viewMode {
	case ViewSpells:
		body = m.viewSpells()
	case ViewRuns:
		body = m.viewRuns()
	case ViewLedger:
		body = m.viewLedger()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("grimoire dashboard"))
	b.WriteString("\n")
	if m.errMsg != "" {
		b.WriteString(errorBannerStyle.Render("error: " + m.errMsg))
		b.WriteString("\n\n")
	}
	b.WriteString(body)
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓ move · enter open · esc back · r refresh · ? help · q quit"))
	return b.String()
}

func (m Model) viewSpells() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Spells"))
	b.WriteString("\n")

	if m.loading {
		b.WriteString(m.spinner.View() + " loading spells...\n")
		return b.String()
	}
	if len(m.spells) == 0 {
		b.WriteString(mutedStyle.Render("no spells with persisted state yet"))
		return b.String()
	}

	for i, spellID := range m.spells {
		line := spellID
		if i == m.spellCursor {
			b.WriteString(selectedItemStyle.Render(line))
		} else {
			b.WriteString(itemStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewRuns() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Runs — %s", m.selectedSpell)))
	b.WriteString("\n")

	if m.loading {
		b.WriteString(m.spinner.View() + " loading runs...\n")
		return b.String()
	}
	if len(m.runs) == 0 {
		b.WriteString(mutedStyle.Render("no runs recorded for this spell"))
		return b.String()
	}

	for i, run := range m.runs {
		line := formatRunLine(run)
		if i == m.runCursor {
			b.WriteString(selectedItemStyle.Render(line))
		} else {
			b.WriteString(itemStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatRunLine(run ports.RunSummary) string {
	status := successStyle.Render("success")
	if !run.Success {
		status = failedStyle.Render("failed")
	}
	ts := run.Timestamp.Format("2006-01-02 15:04:05")
	line := fmt.Sprintf("%s  %s  %s  gas=%s", ts, run.RunID, status, run.GasUsed)
	if run.Error != "" {
		line += "  " + mutedStyle.Render(run.Error)
	}
	return line
}

func (m Model) viewLedger() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Ledger — %s / %s", m.selectedSpell, m.selectedRun)))
	b.WriteString("\n")

	if m.loading && len(m.ledger) == 0 {
		b.WriteString(m.spinner.View() + " loading ledger...\n")
		return b.String()
	}
	if len(m.ledger) == 0 {
		b.WriteString(mutedStyle.Render("no ledger events recorded"))
		return b.String()
	}

	summary := summarizeLedger(m.ledger)
	progress := components.NewProgress(summary.StepsTotal)
	b.WriteString(progress.View(summary.StepsCompleted))
	b.WriteString("\n")
	b.WriteString(components.NewSummary(summary).View())
	b.WriteString("\n\n")

	for _, entry := range m.ledger {
		b.WriteString(formatLedgerLine(entry))
		b.WriteString("\n")
	}
	return b.String()
}

// summarizeLedger derives a run summary from the ledger entries fetched so
// far, counting step starts/completions and collecting guard outcomes in
// the order they were appended.
func summarizeLedger(entries []ports.LedgerRecord) components.RunSummaryData {
	var data components.RunSummaryData
	for _, entry := range entries {
		switch entry.Event {
		case "step_started":
			data.StepsTotal++
		case "step_completed":
			data.StepsCompleted++
		case "run_failed":
			data.Failed = true
		case "halt":
			data.Halted = true
		case "guard_passed":
			data.Guards = append(data.Guards, components.GuardOutcome{Passed: true, Message: guardName(entry)})
		case "guard_failed":
			data.Guards = append(data.Guards, components.GuardOutcome{Passed: false, Message: guardName(entry)})
		}
	}
	return data
}

func guardName(entry ports.LedgerRecord) string {
	if name, ok := entry.Data["guard"].(string); ok {
		return name
	}
	return "unknown"
}

func formatLedgerLine(entry ports.LedgerRecord) string {
	ts := entry.Timestamp.Format("15:04:05.000")
	event := entry.Event
	switch {
	case strings.HasSuffix(event, "_failed"):
		event = failedStyle.Render(event)
	case strings.HasSuffix(event, "_completed") || strings.HasSuffix(event, "_executed"):
		event = successStyle.Render(event)
	case strings.HasSuffix(event, "_skipped"):
		event = warnStyle.Render(event)
	}
	return fmt.Sprintf("[%s] #%d %s", ts, entry.ID, event)
}

func (m Model) viewHelp() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("grimoire dashboard — help"))
	b.WriteString("\n")
	b.WriteString("Navigate: Spells → Runs → Ledger\n\n")
	b.WriteString("  up/k, down/j   move cursor\n")
	b.WriteString("  enter          open selection\n")
	b.WriteString("  esc/backspace  go back\n")
	b.WriteString("  r              refresh current pane\n")
	b.WriteString("  ?              toggle this help\n")
	b.WriteString("  q, ctrl+c      quit\n")
	return b.String()
}
