package spell

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/grimoire-lang/grimoire/internal/domain/ir"
	logginginfra "github.com/grimoire-lang/grimoire/internal/infrastructure/logging"
	"github.com/grimoire-lang/grimoire/internal/ports"
	"github.com/grimoire-lang/grimoire/internal/store"
)

type stubLoader struct {
	spellIR *ir.SpellIR
	err     error
}

func (s *stubLoader) Load(context.Context, string) (*ir.SpellIR, []error, error) {
	return s.spellIR, nil, s.err
}

func (s *stubLoader) Check(context.Context, string) ir.Result {
	return ir.Result{Success: s.err == nil}
}

type stubInterpreter struct {
	result *ports.ExecutionResult
	err    error
}

func (s *stubInterpreter) Execute(context.Context, *ir.SpellIR, ports.ExecuteOptions) (*ports.ExecutionResult, error) {
	return s.result, s.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingPublisher) Publish(ctx context.Context, event ports.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event.EventType())
	return nil
}

func (r *recordingPublisher) Subscribe(string, ports.EventHandler) (ports.Subscription, error) {
	return noopSubscription{}, nil
}

func (r *recordingPublisher) contains(eventType string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e == eventType {
			return true
		}
	}
	return false
}

type noopSubscription struct{}

func (noopSubscription) Unsubscribe() {}

func TestRunUseCasePersistsStateAndLedger(t *testing.T) {
	spellIR := &ir.SpellIR{ID: "vault-rebalance"}
	loader := &stubLoader{spellIR: spellIR}
	result := &ports.ExecutionResult{
		Success: true, RunID: "vault-rebalance-run-1", StartTime: time.Now(),
		FinalState:   map[string]interface{}{"epoch": 4.0},
		Metrics:      ports.ExecutionMetrics{GasUsed: "0"},
		LedgerEvents: []ports.LedgerRecord{{ID: 1, Event: "run_started"}},
	}
	interp := &stubInterpreter{result: result}
	st := store.NewMemory()
	events := &recordingPublisher{}
	logger := logginginfra.NewNoOpLogger()

	uc := NewRunUseCase(loader, interp, st, logger, events)
	got, err := uc.Run(context.Background(), "vault.spell", ports.ExecuteOptions{Mode: ports.ModeSimulate})
	require.NoError(t, err)
	require.Same(t, result, got)

	state, err := st.Load(context.Background(), "vault-rebalance")
	require.NoError(t, err)
	require.Equal(t, 4.0, state["epoch"])

	runs, err := st.GetRuns(context.Background(), "vault-rebalance", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	ledger, err := st.LoadLedger(context.Background(), "vault-rebalance", "vault-rebalance-run-1")
	require.NoError(t, err)
	require.Len(t, ledger, 1)

	require.True(t, events.contains(ports.EventRunStarted))
	require.True(t, events.contains(ports.EventRunCompleted))
}

func TestRunUseCaseLoadsPersistedStateWhenNotOverridden(t *testing.T) {
	spellIR := &ir.SpellIR{ID: "vault-rebalance"}
	loader := &stubLoader{spellIR: spellIR}
	st := store.NewMemory()
	require.NoError(t, st.Save(context.Background(), "vault-rebalance", map[string]interface{}{"epoch": 2.0}))

	var seenState map[string]interface{}
	interp := &capturingInterpreter{
		result: &ports.ExecutionResult{Success: true, RunID: "r1", StartTime: time.Now(), Metrics: ports.ExecutionMetrics{GasUsed: "0"}},
		onExecute: func(opts ports.ExecuteOptions) { seenState = opts.PersistentState },
	}

	uc := NewRunUseCase(loader, interp, st, nil, nil)
	_, err := uc.Run(context.Background(), "vault.spell", ports.ExecuteOptions{Mode: ports.ModeSimulate})
	require.NoError(t, err)
	require.Equal(t, 2.0, seenState["epoch"])
}

type capturingInterpreter struct {
	result    *ports.ExecutionResult
	onExecute func(ports.ExecuteOptions)
}

func (c *capturingInterpreter) Execute(ctx context.Context, spellIR *ir.SpellIR, opts ports.ExecuteOptions) (*ports.ExecutionResult, error) {
	if c.onExecute != nil {
		c.onExecute(opts)
	}
	return c.result, nil
}
