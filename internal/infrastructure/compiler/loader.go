// Package compiler wires the front-end pipeline (lexer → parser →
// transform → IR generation) behind ports.SpellLoader, so the application
// layer and the CLI never import the lang/ or domain/ir packages directly.
package compiler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/grimoire-lang/grimoire/internal/domain/ir"
	"github.com/grimoire-lang/grimoire/internal/lang/importer"
	"github.com/grimoire-lang/grimoire/internal/lang/lexer"
	"github.com/grimoire-lang/grimoire/internal/lang/parser"
	"github.com/grimoire-lang/grimoire/internal/lang/transform"
	"github.com/grimoire-lang/grimoire/internal/ports"
)

// Loader implements ports.SpellLoader by running a spell source file
// through the full compilation chain.
type Loader struct {
	importLoader importer.Loader
	logger       ports.Logger
}

// NewLoader constructs a Loader. importLoader may be nil, in which case
// importer.NewLocalLoader is used: `import` declarations then resolve
// against the local filesystem only, and "git+" registry imports are not
// resolved (spec.md §4.3).
func NewLoader(importLoader importer.Loader, logger ports.Logger) *Loader {
	if importLoader == nil {
		importLoader = importer.NewLocalLoader()
	}
	return &Loader{importLoader: importLoader, logger: logger}
}

func (l *Loader) logDebug(ctx context.Context, msg string, fields ...interface{}) {
	if l.logger != nil {
		l.logger.Debug(ctx, msg, fields...)
	}
}

// Load reads path, compiles it, and returns validated IR.
func (l *Loader) Load(ctx context.Context, path string) (*ir.SpellIR, []error, error) {
	result, err := l.compile(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	if !result.Success {
		return nil, result.Errors, fmt.Errorf("spell %q failed to compile: %d error(s)", path, len(result.Errors))
	}
	return result.IR, nil, nil
}

// Check runs the same pipeline as Load but returns the whole ir.Result
// (its errors, and the IR on success) instead of an error value.
func (l *Loader) Check(ctx context.Context, path string) ir.Result {
	result, err := l.compile(ctx, path)
	if err != nil {
		return ir.Result{Success: false, Errors: []error{err}}
	}
	return result
}

func (l *Loader) compile(ctx context.Context, path string) (ir.Result, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return ir.Result{}, fmt.Errorf("read %q: %w", path, err)
	}

	l.logDebug(ctx, "tokenizing spell", "path", path)
	tokens, err := lexer.Tokenize(string(src))
	if err != nil {
		return ir.Result{}, fmt.Errorf("tokenize %q: %w", path, err)
	}

	l.logDebug(ctx, "parsing spell", "path", path)
	spell, err := parser.Parse(tokens)
	if err != nil {
		return ir.Result{}, fmt.Errorf("parse %q: %w", path, err)
	}

	l.logDebug(ctx, "lowering spell", "path", path)
	spellSource, transformErrs, err := transform.Transform(spell, transform.Options{
		Loader:  l.importLoader,
		BaseDir: filepath.Dir(path),
	})
	if err != nil {
		return ir.Result{}, fmt.Errorf("transform %q: %w", path, err)
	}
	if len(transformErrs) > 0 {
		return ir.Result{Success: false, Errors: transformErrs}, nil
	}

	l.logDebug(ctx, "generating ir", "path", path)
	return ir.Generate(spellSource), nil
}

var _ ports.SpellLoader = (*Loader)(nil)
