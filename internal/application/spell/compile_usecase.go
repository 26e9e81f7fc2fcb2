package spell

import (
	"context"

	"github.com/grimoire-lang/grimoire/internal/domain/ir"
	"github.com/grimoire-lang/grimoire/internal/ports"
)

// CompileUseCase loads a spell source file through the front-end pipeline
// (lexer → parser → transform → IR generation) and reports its result.
type CompileUseCase struct {
	loader ports.SpellLoader
	logger ports.Logger
	events ports.EventPublisher
}

// NewCompileUseCase constructs a CompileUseCase with its dependencies injected.
func NewCompileUseCase(loader ports.SpellLoader, logger ports.Logger, events ports.EventPublisher) *CompileUseCase {
	return &CompileUseCase{loader: loader, logger: logger, events: events}
}

// Compile loads and lowers path, returning the generated IR. When
// compilation fails it returns the collected compilation errors and the
// error instead of IR.
func (u *CompileUseCase) Compile(ctx context.Context, path string) (*ir.SpellIR, []error, error) {
	if u.logger != nil {
		u.logger.Info(ctx, "compiling spell", "path", path)
	}
	spellIR, errs, err := u.loader.Load(ctx, path)
	if err != nil {
		if u.logger != nil {
			u.logger.Error(ctx, "failed to compile spell", "path", path, "error", err)
		}
		return nil, errs, err
	}
	if u.logger != nil {
		u.logger.Info(ctx, "spell compiled", "path", path, "spell_id", spellIR.ID, "steps", len(spellIR.Steps))
	}
	return spellIR, errs, nil
}

// Check runs static validation only, without requiring a fully lowered IR
// (spec.md §4.6's `grimoire check` contract).
func (u *CompileUseCase) Check(ctx context.Context, path string) ir.Result {
	if u.logger != nil {
		u.logger.Info(ctx, "checking spell", "path", path)
	}
	return u.loader.Check(ctx, path)
}
