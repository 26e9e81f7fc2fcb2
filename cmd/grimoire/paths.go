package main

import (
	"os"
	"path/filepath"
)

// defaultStatePath returns ~/.grimoire/state, generalised from the
// teacher's ~/.streamy/registry.json convention to a directory since the
// file-backed state store keeps one subdirectory per spell.
func defaultStatePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".grimoire", "state"), nil
}
