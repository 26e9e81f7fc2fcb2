package components

// StepStatus mirrors the step-lifecycle states the interpreter's ledger
// emits (EventStepStarted/Completed/Failed/Skipped), generalised from the
// teacher's internal/model.StepResult so this component no longer depends
// on a package this module never carries.
type StepStatus int

const (
	StatusPending StepStatus = iota
	StatusRunning
	StatusSuccess
	StatusFailed
	StatusSkipped
)

// StepResult is one step's rendered status plus an optional detail
// message (a halt reason, a guard failure, an error string).
type StepResult struct {
	Status  StepStatus
	Message string
}

// StepEntry represents a single step for rendering.
type StepEntry struct {
	ID     string
	Result StepResult
}

// StepList renders a list of steps with their current status.
type StepList struct {
	entries []StepEntry
}

// NewStepList constructs a step list component, preserving order's
// sequence (a spell's step-dependency order, not map iteration order).
func NewStepList(order []string, steps map[string]StepResult) StepList {
	entries := make([]StepEntry, 0, len(order))
	for _, id := range order {
		entries = append(entries, StepEntry{ID: id, Result: steps[id]})
	}
	return StepList{entries: entries}
}

// Entries returns a copy of the ordered step entries.
func (s StepList) Entries() []StepEntry {
	clone := make([]StepEntry, len(s.entries))
	copy(clone, s.entries)
	return clone
}
