package ports

import (
	"context"

	"github.com/grimoire-lang/grimoire/internal/domain/ir"
)

// SpellLoader compiles a spell source file through the full front-end
// pipeline (tokenize → parse → transform → generate IR) down to validated
// IR, for both the `compile` and `run` CLI surfaces (spec_full.md §2.3).
// Implementations must be deterministic and must not mutate global state;
// import resolution (spec.md §4.3) is the only filesystem/network access
// performed during Load.
type SpellLoader interface {
	// Load reads path, compiles it, and returns validated IR. When
	// compilation fails it returns the collected compilation errors and a
	// non-nil error that reports how many there were; warnings are not
	// returned.
	Load(ctx context.Context, path string) (*ir.SpellIR, []error, error)

	// Check performs the same pipeline but never returns partial IR on
	// failure — it exists for the CLI's `compile --check` fast path, which
	// only needs the pass/fail verdict and diagnostics.
	Check(ctx context.Context, path string) ir.Result
}
