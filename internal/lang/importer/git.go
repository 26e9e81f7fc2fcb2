package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"

	"github.com/grimoire-lang/grimoire/internal/lang/ast"
	"github.com/grimoire-lang/grimoire/internal/lang/lexer"
	"github.com/grimoire-lang/grimoire/internal/lang/parser"
)

// gitPrefix marks an import path as resolving against a shared spell
// registry rather than the local filesystem: `import "git+shared:lending/base.spell"`.
const gitPrefix = "git+"

// GitLoader resolves imports against named git remotes, caching clones
// under CacheDir and pulling the default branch on repeat use.
type GitLoader struct {
	Registry map[string]string // registry name -> clone URL
	CacheDir string
}

// NewGitLoader constructs a GitLoader backed by the given registry of
// named remotes.
func NewGitLoader(cacheDir string, registry map[string]string) *GitLoader {
	return &GitLoader{Registry: registry, CacheDir: cacheDir}
}

func (g *GitLoader) Handles(relPath string) bool {
	return strings.HasPrefix(relPath, gitPrefix)
}

func (g *GitLoader) Load(_ string, relPath string) (*ast.Spell, string, error) {
	rest := strings.TrimPrefix(relPath, gitPrefix)
	name, innerPath, ok := strings.Cut(rest, ":")
	if !ok {
		return nil, "", fmt.Errorf("malformed git import %q: expected git+<registry>:<path>", relPath)
	}
	url, ok := g.Registry[name]
	if !ok {
		return nil, "", fmt.Errorf("unknown spell registry %q", name)
	}
	repoDir := filepath.Join(g.CacheDir, name)
	if err := g.sync(repoDir, url); err != nil {
		return nil, "", fmt.Errorf("syncing registry %q: %w", name, err)
	}
	absPath := filepath.Join(repoDir, innerPath)
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, "", err
	}
	tokens, err := lexer.Tokenize(string(data))
	if err != nil {
		return nil, "", err
	}
	spell, err := parser.Parse(tokens)
	if err != nil {
		return nil, "", err
	}
	// The key is the logical registry path, not a filesystem path: two
	// spells importing the same registry entry must collide in the
	// cycle-detection set even if the cache directory is relocated.
	return spell, gitPrefix + name + ":" + innerPath, nil
}

func (g *GitLoader) sync(repoDir, url string) error {
	if _, err := os.Stat(repoDir); os.IsNotExist(err) {
		_, err := git.PlainCloneContext(context.Background(), repoDir, false, &git.CloneOptions{
			URL:   url,
			Depth: 1,
		})
		return err
	}
	repo, err := git.PlainOpen(repoDir)
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return err
	}
	err = wt.PullContext(context.Background(), &git.PullOptions{})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return err
	}
	return nil
}

// Composite dispatches to a GitLoader for "git+"-prefixed import paths
// and to a local Loader for everything else.
type Composite struct {
	Git   *GitLoader
	Local Loader
}

// NewComposite builds a Loader that routes registry imports to git and
// everything else to the local filesystem.
func NewComposite(git *GitLoader, local Loader) *Composite {
	return &Composite{Git: git, Local: local}
}

func (c *Composite) Load(baseDir, relPath string) (*ast.Spell, string, error) {
	if c.Git != nil && c.Git.Handles(relPath) {
		return c.Git.Load(baseDir, relPath)
	}
	return c.Local.Load(baseDir, relPath)
}
