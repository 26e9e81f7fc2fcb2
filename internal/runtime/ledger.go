package runtime

import (
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event names the ledger's fixed vocabulary (spec.md §3.6).
type Event string

const (
	EventRunStarted          Event = "run_started"
	EventRunCompleted        Event = "run_completed"
	EventRunFailed           Event = "run_failed"
	EventStepStarted         Event = "step_started"
	EventStepCompleted       Event = "step_completed"
	EventStepFailed          Event = "step_failed"
	EventStepSkipped         Event = "step_skipped"
	EventActionSimulated     Event = "action_simulated"
	EventActionExecuted      Event = "action_executed"
	EventGuardPassed         Event = "guard_passed"
	EventGuardFailed         Event = "guard_failed"
	EventAdvisoryStarted     Event = "advisory_started"
	EventAdvisoryCompleted   Event = "advisory_completed"
	EventCircuitBreakerTrip  Event = "circuit_breaker_tripped"
	EventEmit                Event = "emit"
	EventWait                Event = "wait"
	EventHalt                Event = "halt"
)

// Entry is one append-only ledger record (spec.md §3.6).
type Entry struct {
	ID        int
	Timestamp time.Time
	RunID     string
	SpellID   string
	Event     Event
	Data      map[string]interface{}
}

// Ledger accumulates entries for the duration of a run; the interpreter is
// its sole writer (spec.md §3.8), and hands the accumulated entries to the
// state store at the end of the run.
type Ledger struct {
	mu      sync.Mutex
	runID   string
	spellID string
	entries []Entry
	audit   *zerolog.Logger
}

// NewLedger constructs an empty ledger for one run. audit, when non-nil, is
// the zerolog sink every appended entry is additionally streamed to as a
// JSON line (the `--audit-log` flag, spec_full.md §2.2) — a distinct
// concern from the human-facing application log.
func NewLedger(runID, spellID string, audit *zerolog.Logger) *Ledger {
	return &Ledger{runID: runID, spellID: spellID, audit: audit}
}

// NewAuditSink wraps w as a zerolog JSON-line writer suitable for NewLedger.
func NewAuditSink(w io.Writer) *zerolog.Logger {
	logger := zerolog.New(w).With().Timestamp().Logger()
	return &logger
}

// Append records event with data and streams it to the audit sink if one
// is configured. Safe for concurrent use: parallel step branches append
// through this same sink (spec.md §5's ledger serialisation guarantee).
func (l *Ledger) Append(event Event, data map[string]interface{}) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := Entry{
		ID:        len(l.entries) + 1,
		Timestamp: time.Now(),
		RunID:     l.runID,
		SpellID:   l.spellID,
		Event:     event,
		Data:      data,
	}
	l.entries = append(l.entries, entry)

	if l.audit != nil {
		evt := l.audit.Info().
			Str("run_id", entry.RunID).
			Str("spell_id", entry.SpellID).
			Str("event", string(entry.Event)).
			Time("timestamp", entry.Timestamp)
		for k, v := range data {
			evt = evt.Interface(k, v)
		}
		evt.Send()
	}

	return entry
}

// Entries returns every entry appended so far, in emission order.
func (l *Ledger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}
