package dashboard

import (
	"context"

	"github.com/grimoire-lang/grimoire/internal/ports"
)

// StateService exposes the read-only StateStore operations the dashboard
// needs to tail a spell's run history and ledger, generalised from the
// teacher's PipelineService (which wrapped Verify/Apply) since the
// dashboard only ever observes state here — it never triggers a run.
type StateService interface {
	ListSpells(ctx context.Context) ([]string, error)
	GetRuns(ctx context.Context, spellID string, limit int) ([]ports.RunSummary, error)
	LoadLedger(ctx context.Context, spellID string, runID string) ([]ports.LedgerRecord, error)
}

// storeService adapts a ports.StateStore directly into a StateService.
type storeService struct {
	store ports.StateStore
}

// NewStoreService wraps store as a StateService.
func NewStoreService(store ports.StateStore) StateService {
	return &storeService{store: store}
}

func (s *storeService) ListSpells(ctx context.Context) ([]string, error) {
	return s.store.ListSpells(ctx)
}

func (s *storeService) GetRuns(ctx context.Context, spellID string, limit int) ([]ports.RunSummary, error) {
	return s.store.GetRuns(ctx, spellID, limit)
}

func (s *storeService) LoadLedger(ctx context.Context, spellID string, runID string) ([]ports.LedgerRecord, error) {
	return s.store.LoadLedger(ctx, spellID, runID)
}
