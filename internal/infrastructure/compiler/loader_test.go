package compiler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeSpell(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "vault.spell")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestLoaderLoadReturnsIR(t *testing.T) {
	path := writeSpell(t, "spell T\n  version: \"1.0.0\"\n  on manual:\n    x = 42\n")

	l := NewLoader(nil, nil)
	spellIR, errs, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	require.Empty(t, errs)
	require.NotNil(t, spellIR)
	require.Equal(t, "T", spellIR.ID)
}

func TestLoaderLoadReportsCompileErrors(t *testing.T) {
	path := writeSpell(t, "spell T\n  on manual:\n    x = \n")

	l := NewLoader(nil, nil)
	_, _, err := l.Load(context.Background(), path)
	require.Error(t, err)
}

func TestLoaderCheckNeverReturnsPartialIROnFailure(t *testing.T) {
	path := writeSpell(t, "spell T\n  on manual:\n    x = \n")

	l := NewLoader(nil, nil)
	result := l.Check(context.Background(), path)
	require.False(t, result.Success)
	require.Nil(t, result.IR)
	require.NotEmpty(t, result.Errors)
}

func TestLoaderLoadMissingFile(t *testing.T) {
	l := NewLoader(nil, nil)
	_, _, err := l.Load(context.Background(), filepath.Join(t.TempDir(), "missing.spell"))
	require.Error(t, err)
}
