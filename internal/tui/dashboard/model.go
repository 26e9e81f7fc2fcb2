package dashboard

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/grimoire-lang/grimoire/internal/ports"
)

// runHistoryLimit bounds how many recent runs the dashboard fetches per
// spell — enough to populate the run list pane without pulling a spell's
// entire history.
const runHistoryLimit = 20

// defaultRefreshInterval controls how often the ledger pane re-polls its
// active run while it's in view.
const defaultRefreshInterval = 2 * time.Second

// Model is the dashboard's bubbletea model: a spell list, drilling into a
// run list, drilling into that run's ledger tail (spec.md §7's live
// ledger dashboard).
type Model struct {
	ctx context.Context
	svc StateService

	viewMode ViewMode

	spells        []string
	spellCursor   int
	runs          []ports.RunSummary
	runCursor     int
	selectedSpell string
	selectedRun   string
	ledger        []ports.LedgerRecord

	spinner spinner.Model
	loading bool
	errMsg  string

	refreshInterval time.Duration
	width           int
	height          int
}

// NewModel constructs a dashboard model backed by svc.
func NewModel(ctx context.Context, svc StateService) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	return Model{
		ctx:             ctx,
		svc:             svc,
		viewMode:        ViewSpells,
		spinner:         s,
		loading:         true,
		refreshInterval: defaultRefreshInterval,
		width:           80,
		height:          24,
	}
}

// Init loads the spell list and starts the spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, loadSpellsCmd(m.ctx, m.svc))
}

// selectedSpellID returns the spell under the cursor in the spells pane.
func (m *Model) selectedSpellID() (string, bool) {
	if m.spellCursor < 0 || m.spellCursor >= len(m.spells) {
		return "", false
	}
	return m.spells[m.spellCursor], true
}

// selectedRunSummary returns the run under the cursor in the runs pane.
func (m *Model) selectedRunSummary() (ports.RunSummary, bool) {
	if m.runCursor < 0 || m.runCursor >= len(m.runs) {
		return ports.RunSummary{}, false
	}
	return m.runs[m.runCursor], true
}

func (m *Model) moveCursorUp(cursor *int, length int) {
	if length == 0 {
		return
	}
	*cursor--
	if *cursor < 0 {
		*cursor = length - 1
	}
}

func (m *Model) moveCursorDown(cursor *int, length int) {
	if length == 0 {
		return
	}
	*cursor++
	if *cursor >= length {
		*cursor = 0
	}
}
