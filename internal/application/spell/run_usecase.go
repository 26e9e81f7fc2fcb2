package spell

import (
	"context"

	"github.com/grimoire-lang/grimoire/internal/ports"
)

// RunUseCase coordinates compiling a spell, executing it, and persisting
// its resulting state, run summary, and ledger (spec.md §4.11).
type RunUseCase struct {
	loader      ports.SpellLoader
	interpreter ports.Interpreter
	store       ports.StateStore
	logger      ports.Logger
	events      ports.EventPublisher
}

// NewRunUseCase constructs a RunUseCase with its dependencies injected.
func NewRunUseCase(loader ports.SpellLoader, interpreter ports.Interpreter, store ports.StateStore, logger ports.Logger, events ports.EventPublisher) *RunUseCase {
	return &RunUseCase{loader: loader, interpreter: interpreter, store: store, logger: logger, events: events}
}

// Run compiles path, loads the spell's persisted state (unless opts already
// carries one), executes it, and persists the resulting state/run/ledger.
func (u *RunUseCase) Run(ctx context.Context, path string, opts ports.ExecuteOptions) (*ports.ExecutionResult, error) {
	spellIR, _, err := u.loader.Load(ctx, path)
	if err != nil {
		if u.logger != nil {
			u.logger.Error(ctx, "failed to load spell", "path", path, "error", err)
		}
		return nil, err
	}

	if opts.PersistentState == nil && u.store != nil {
		state, loadErr := u.store.Load(ctx, spellIR.ID)
		if loadErr != nil {
			if u.logger != nil {
				u.logger.Warn(ctx, "failed to load persisted state", "spell_id", spellIR.ID, "error", loadErr)
			}
		} else {
			opts.PersistentState = state
		}
	}

	if u.logger != nil {
		u.logger.Info(ctx, "running spell", "spell_id", spellIR.ID, "mode", string(opts.Mode))
	}
	publishEvent(ctx, u.events, u.logger, ports.EventRunStarted, map[string]interface{}{
		"spell_id": spellIR.ID, "mode": string(opts.Mode),
	})

	result, err := u.interpreter.Execute(ctx, spellIR, opts)
	if err != nil {
		if u.logger != nil {
			u.logger.Error(ctx, "spell run failed to start", "spell_id", spellIR.ID, "error", err)
		}
		publishEvent(ctx, u.events, u.logger, ports.EventRunFailed, map[string]interface{}{
			"spell_id": spellIR.ID, "error": err.Error(),
		})
		return nil, err
	}

	if u.store != nil {
		if saveErr := u.store.Save(ctx, spellIR.ID, result.FinalState); saveErr != nil && u.logger != nil {
			u.logger.Warn(ctx, "failed to persist spell state", "spell_id", spellIR.ID, "error", saveErr)
		}
		summary := ports.RunSummary{
			RunID: result.RunID, Timestamp: result.StartTime, Success: result.Success,
			Error: result.Error, Duration: result.Duration, GasUsed: result.Metrics.GasUsed,
			FinalState: result.FinalState,
		}
		if addErr := u.store.AddRun(ctx, spellIR.ID, summary); addErr != nil && u.logger != nil {
			u.logger.Warn(ctx, "failed to record run summary", "spell_id", spellIR.ID, "error", addErr)
		}
		if ledgerErr := u.store.SaveLedger(ctx, spellIR.ID, result.RunID, result.LedgerEvents); ledgerErr != nil && u.logger != nil {
			u.logger.Warn(ctx, "failed to persist ledger", "spell_id", spellIR.ID, "run_id", result.RunID, "error", ledgerErr)
		}
	}

	eventType := ports.EventRunCompleted
	if !result.Success {
		eventType = ports.EventRunFailed
	}
	publishEvent(ctx, u.events, u.logger, eventType, map[string]interface{}{
		"spell_id": spellIR.ID, "run_id": result.RunID, "success": result.Success, "halted": result.Halted,
	})

	if u.logger != nil {
		u.logger.Info(ctx, "spell run finished", "spell_id", spellIR.ID, "run_id", result.RunID, "success", result.Success)
	}
	return result, nil
}
