package importer

import (
	"os"
	"path/filepath"

	"github.com/grimoire-lang/grimoire/internal/lang/ast"
	"github.com/grimoire-lang/grimoire/internal/lang/lexer"
	"github.com/grimoire-lang/grimoire/internal/lang/parser"
)

// LocalLoader resolves imports against the filesystem, relative to the
// importing file's directory.
type LocalLoader struct{}

// NewLocalLoader constructs a LocalLoader.
func NewLocalLoader() *LocalLoader {
	return &LocalLoader{}
}

func (l *LocalLoader) Load(baseDir, relPath string) (*ast.Spell, string, error) {
	joined := filepath.Join(baseDir, relPath)
	absPath, err := filepath.Abs(joined)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, absPath, err
	}
	tokens, err := lexer.Tokenize(string(data))
	if err != nil {
		return nil, absPath, err
	}
	spell, err := parser.Parse(tokens)
	if err != nil {
		return nil, absPath, err
	}
	return spell, absPath, nil
}
