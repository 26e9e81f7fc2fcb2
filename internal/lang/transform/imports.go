package transform

import (
	"fmt"
	"path/filepath"

	"github.com/grimoire-lang/grimoire/internal/lang/ast"
	grimoireerrors "github.com/grimoire-lang/grimoire/pkg/errors"
)

// collectImports walks a spell's `import` declarations depth-first,
// registering every reachable block under its namespace alias (spec §4.3
// item 2) and failing on any import cycle. visited tracks the loader keys
// currently on the walk's call stack, not every file ever visited, so a
// diamond-shaped (non-cyclic) import graph is still accepted.
func (tr *Transformer) collectImports(spell *ast.Spell, baseDir string, visited map[string]bool) error {
	for _, imp := range spell.Imports {
		if tr.loader == nil {
			return grimoireerrors.CompilationError{Code: "NO_IMPORT_LOADER", Message: fmt.Sprintf("cannot resolve import %q: no import loader configured", imp.Path)}
		}
		imported, key, err := tr.loader.Load(baseDir, imp.Path)
		if err != nil {
			return grimoireerrors.CompilationError{Code: "IMPORT_FAILED", Message: fmt.Sprintf("importing %q: %v", imp.Path, err)}
		}
		if visited[key] {
			return grimoireerrors.CompilationError{Code: "IMPORT_CYCLE", Message: fmt.Sprintf("import cycle detected at %q", imp.Path)}
		}
		alias := imp.Alias
		if alias == "" {
			alias = aliasFromPath(imp.Path)
		}
		for _, block := range imported.Blocks {
			namespaced := alias + "." + block.Name
			tr.blocks[namespaced] = cloneBlock(block)
		}
		nested := make(map[string]bool, len(visited)+1)
		for k := range visited {
			nested[k] = true
		}
		nested[key] = true
		nextBaseDir := filepath.Dir(keyToPath(key, baseDir, imp.Path))
		if err := tr.collectImports(imported, nextBaseDir, nested); err != nil {
			return err
		}
	}
	return nil
}

// aliasFromPath derives a default namespace from an unaliased import's
// file name: `import "shared/lending.spell"` registers its blocks under
// `lending.<name>`.
func aliasFromPath(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return base[:len(base)-len(ext)]
}

// keyToPath recovers a directory to resolve the imported file's own
// imports against. Local imports use absolute filesystem keys directly;
// registry imports carry a logical "git+name:path" key, so the path is
// rebuilt by joining baseDir with the import path. Nested "git+" imports
// ignore that directory: GitLoader resolves them against the registry root.
func keyToPath(key, baseDir, relPath string) string {
	if filepath.IsAbs(key) {
		return key
	}
	return filepath.Join(baseDir, relPath)
}

func cloneBlock(b ast.Block) *ast.Block {
	cp := b
	cp.Params = append([]string(nil), b.Params...)
	cp.Body = substituteStatements(b.Body, nil)
	return &cp
}
