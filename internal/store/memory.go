// Package store implements the abstract StateStore port of spec.md §4.11:
// persistent state, run history, and ledgers, keyed by spell id.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/grimoire-lang/grimoire/internal/ports"
)

// defaultMaxRuns caps run history per spell; AddRun prunes to this many
// most-recent entries (spec.md §4.11: "prunes history to maxRuns (default
// 100)").
const defaultMaxRuns = 100

type spellRecord struct {
	state  map[string]interface{}
	runs   []ports.RunSummary
	ledger map[string][]ports.LedgerRecord
}

// Memory is an in-memory StateStore, suitable for tests and for `simulate`
// runs that don't need durability.
type Memory struct {
	mu      sync.RWMutex
	spells  map[string]*spellRecord
	maxRuns int
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{spells: make(map[string]*spellRecord), maxRuns: defaultMaxRuns}
}

var _ ports.StateStore = (*Memory)(nil)

func (m *Memory) record(spellID string) *spellRecord {
	r, ok := m.spells[spellID]
	if !ok {
		r = &spellRecord{state: map[string]interface{}{}, ledger: map[string][]ports.LedgerRecord{}}
		m.spells[spellID] = r
	}
	return r
}

func (m *Memory) Load(ctx context.Context, spellID string) (map[string]interface{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.spells[spellID]
	if !ok {
		return nil, nil
	}
	out := make(map[string]interface{}, len(r.state))
	for k, v := range r.state {
		out[k] = v
	}
	return out, nil
}

func (m *Memory) Save(ctx context.Context, spellID string, state map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := m.record(spellID)
	r.state = make(map[string]interface{}, len(state))
	for k, v := range state {
		r.state[k] = v
	}
	return nil
}

func (m *Memory) AddRun(ctx context.Context, spellID string, run ports.RunSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := m.record(spellID)
	r.runs = append(r.runs, run)
	if len(r.runs) > m.maxRuns {
		r.runs = r.runs[len(r.runs)-m.maxRuns:]
	}
	return nil
}

// Prune trims spellID's run history to keep most-recent entries (or
// maxRuns when keep <= 0) and drops the ledgers of pruned-away runs,
// returning the number of runs removed.
func (m *Memory) Prune(ctx context.Context, spellID string, keep int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if keep <= 0 {
		keep = m.maxRuns
	}
	r, ok := m.spells[spellID]
	if !ok || len(r.runs) <= keep {
		return 0, nil
	}

	removed := r.runs[:len(r.runs)-keep]
	r.runs = r.runs[len(r.runs)-keep:]
	for _, run := range removed {
		delete(r.ledger, run.RunID)
	}
	return len(removed), nil
}

func (m *Memory) GetRuns(ctx context.Context, spellID string, limit int) ([]ports.RunSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.spells[spellID]
	if !ok {
		return nil, nil
	}
	out := make([]ports.RunSummary, len(r.runs))
	copy(out, r.runs)
	sort.Slice(out, func(a, b int) bool { return out[a].Timestamp.After(out[b].Timestamp) })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) SaveLedger(ctx context.Context, spellID, runID string, entries []ports.LedgerRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := m.record(spellID)
	out := make([]ports.LedgerRecord, len(entries))
	copy(out, entries)
	r.ledger[runID] = out
	return nil
}

func (m *Memory) LoadLedger(ctx context.Context, spellID, runID string) ([]ports.LedgerRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.spells[spellID]
	if !ok {
		return nil, nil
	}
	entries, ok := r.ledger[runID]
	if !ok {
		return nil, nil
	}
	out := make([]ports.LedgerRecord, len(entries))
	copy(out, entries)
	return out, nil
}

func (m *Memory) ListSpells(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.spells))
	for id := range m.spells {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}
