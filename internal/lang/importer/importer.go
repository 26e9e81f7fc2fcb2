// Package importer resolves a spell's `import "path" [as alias]`
// declarations into parsed ASTs so the transformer can harvest their
// block definitions (spec §4.3 item 2).
package importer

import "github.com/grimoire-lang/grimoire/internal/lang/ast"

// Loader resolves and parses one imported file. relPath is as written in
// the source `import` statement; baseDir is the importing file's
// directory. The returned key must be a value that uniquely and
// deterministically identifies the resolved target, suitable as a cycle
// set key (an absolute filesystem path for local imports, a composite
// registry key for remote ones).
type Loader interface {
	Load(baseDir, relPath string) (spell *ast.Spell, key string, err error)
}
