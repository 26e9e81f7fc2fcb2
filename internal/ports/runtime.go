package ports

import (
	"context"
	"time"
)

// AdvisorRequest carries everything an advisory step needs to call out to
// an advisor handler (spec.md §4.9.8).
type AdvisorRequest struct {
	Advisor       string
	Prompt        string
	Timeout       time.Duration
	OutputSchema  map[string]interface{}
	ToolingConfig map[string]interface{}
}

// AdvisorResponse is what an advisor handler returns for a completed call.
type AdvisorResponse struct {
	Value interface{}
	// Tooling records which skills/tools the advisor exercised,
	// surfaced on the advisory_completed ledger entry.
	Tooling []string
}

// AdvisorHandler dispatches advisory steps and advisory guard checks to an
// external advisor (an LLM tool-use loop, a human-in-the-loop queue, or any
// other out-of-process collaborator). When no handler is configured the
// interpreter falls back to the step's declared Fallback value.
type AdvisorHandler interface {
	Ask(ctx context.Context, req AdvisorRequest) (*AdvisorResponse, error)
}

// CircuitBreakerManager is consulted by the action executor before and
// after dispatching an action (spec.md §4.10). Implementations must be
// safe for concurrent use since parallel branches may dispatch actions
// concurrently.
type CircuitBreakerManager interface {
	Check(breakerID string) error
	Record(breakerID string, kind string, value float64, at time.Time)
}

// RunSummary is the persisted shape of one completed run (spec.md §3.7).
type RunSummary struct {
	RunID     string
	Timestamp time.Time
	Success   bool
	Error     string
	Duration  time.Duration
	GasUsed   string // decimal string; state store preserves bigint precision
	FinalState map[string]interface{}
}

// LedgerRecord is the persisted shape of one ledger entry (spec.md §3.6).
type LedgerRecord struct {
	ID        int
	Timestamp time.Time
	RunID     string
	SpellID   string
	Event     string
	Data      map[string]interface{}
}

// StateStore is the abstract persistence port of spec.md §4.11. It
// outlives individual runs; implementations MUST preserve bigint-valued
// metrics as decimal strings and keep `listSpells` sorted.
type StateStore interface {
	Load(ctx context.Context, spellID string) (map[string]interface{}, error)
	Save(ctx context.Context, spellID string, state map[string]interface{}) error
	AddRun(ctx context.Context, spellID string, run RunSummary) error
	GetRuns(ctx context.Context, spellID string, limit int) ([]RunSummary, error)
	SaveLedger(ctx context.Context, spellID, runID string, entries []LedgerRecord) error
	LoadLedger(ctx context.Context, spellID, runID string) ([]LedgerRecord, error)
	ListSpells(ctx context.Context) ([]string, error)

	// Prune trims spellID's run history to its most recent keep entries
	// (spec.md §4.11 property 7, exposed as the `state prune` CLI surface)
	// and discards the ledgers of any run that falls out of history. A
	// non-positive keep applies the store's default retention instead.
	Prune(ctx context.Context, spellID string, keep int) (int, error)
}
