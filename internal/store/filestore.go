package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/grimoire-lang/grimoire/internal/ports"
)

// FileStore is a YAML-file-backed StateStore (spec.md §4.11, §6.6). Each
// spell gets its own directory under root holding a state file, a run-
// history file, and one ledger file per run — the three-entity schema the
// spec suggests a relational store would use, generalised here from the
// teacher's single-file StatusCache (internal/registry/cache.go) to one
// file per entity so a run's ledger (which can be large) never has to be
// rewritten just because another run's summary changed.
type FileStore struct {
	root    string
	mu      sync.Mutex
	maxRuns int
}

// NewFileStore returns a FileStore rooted at dir, creating it if absent.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state store directory: %w", err)
	}
	return &FileStore{root: dir, maxRuns: defaultMaxRuns}, nil
}

var _ ports.StateStore = (*FileStore)(nil)

func (f *FileStore) spellDir(spellID string) string {
	return filepath.Join(f.root, sanitizeID(spellID))
}

func (f *FileStore) statePath(spellID string) string {
	return filepath.Join(f.spellDir(spellID), "state.yaml")
}

func (f *FileStore) runsPath(spellID string) string {
	return filepath.Join(f.spellDir(spellID), "runs.yaml")
}

func (f *FileStore) ledgerPath(spellID, runID string) string {
	return filepath.Join(f.spellDir(spellID), "ledger", sanitizeID(runID)+".yaml")
}

// sanitizeID keeps path separators out of spell/run ids before they become
// directory or file names.
func sanitizeID(id string) string {
	return filepath.Base(filepath.Clean(id))
}

type stateFile struct {
	Version string                 `yaml:"version"`
	State   map[string]interface{} `yaml:"state"`
}

type runsFile struct {
	Version string             `yaml:"version"`
	Runs    []ports.RunSummary `yaml:"runs"`
}

type ledgerFile struct {
	Version string               `yaml:"version"`
	Entries []ports.LedgerRecord `yaml:"entries"`
}

// writeYAML marshals v to path atomically: write to a sibling .tmp file,
// then rename over the destination, mirroring the teacher's
// StatusCache.Save temp-file-plus-rename pattern (generalised from JSON to
// YAML).
func writeYAML(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temporary file for %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename temporary file for %s: %w", path, err)
	}
	return nil
}

func readYAML(path string, v interface{}) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	return true, nil
}

func (f *FileStore) Load(ctx context.Context, spellID string) (map[string]interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var file stateFile
	found, err := readYAML(f.statePath(spellID), &file)
	if err != nil || !found {
		return nil, err
	}
	return file.State, nil
}

func (f *FileStore) Save(ctx context.Context, spellID string, state map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return writeYAML(f.statePath(spellID), stateFile{Version: "1", State: state})
}

func (f *FileStore) AddRun(ctx context.Context, spellID string, run ports.RunSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var file runsFile
	if _, err := readYAML(f.runsPath(spellID), &file); err != nil {
		return err
	}
	file.Version = "1"
	file.Runs = append(file.Runs, run)
	if len(file.Runs) > f.maxRuns {
		file.Runs = file.Runs[len(file.Runs)-f.maxRuns:]
	}
	return writeYAML(f.runsPath(spellID), file)
}

// Prune trims spellID's run history to keep most-recent entries (or
// maxRuns when keep <= 0) and removes the ledger files of pruned-away
// runs, returning the number of runs removed.
func (f *FileStore) Prune(ctx context.Context, spellID string, keep int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if keep <= 0 {
		keep = f.maxRuns
	}

	var file runsFile
	if _, err := readYAML(f.runsPath(spellID), &file); err != nil {
		return 0, err
	}
	if len(file.Runs) <= keep {
		return 0, nil
	}

	removed := file.Runs[:len(file.Runs)-keep]
	file.Runs = file.Runs[len(file.Runs)-keep:]
	if err := writeYAML(f.runsPath(spellID), file); err != nil {
		return 0, err
	}
	for _, run := range removed {
		if err := os.Remove(f.ledgerPath(spellID, run.RunID)); err != nil && !os.IsNotExist(err) {
			return len(removed), fmt.Errorf("remove ledger for pruned run %s: %w", run.RunID, err)
		}
	}
	return len(removed), nil
}

func (f *FileStore) GetRuns(ctx context.Context, spellID string, limit int) ([]ports.RunSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var file runsFile
	if _, err := readYAML(f.runsPath(spellID), &file); err != nil {
		return nil, err
	}
	out := make([]ports.RunSummary, len(file.Runs))
	copy(out, file.Runs)
	sort.Slice(out, func(a, b int) bool { return out[a].Timestamp.After(out[b].Timestamp) })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *FileStore) SaveLedger(ctx context.Context, spellID, runID string, entries []ports.LedgerRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return writeYAML(f.ledgerPath(spellID, runID), ledgerFile{Version: "1", Entries: entries})
}

func (f *FileStore) LoadLedger(ctx context.Context, spellID, runID string) ([]ports.LedgerRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var file ledgerFile
	found, err := readYAML(f.ledgerPath(spellID, runID), &file)
	if err != nil || !found {
		return nil, err
	}
	return file.Entries, nil
}

func (f *FileStore) ListSpells(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list state store directory: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}
