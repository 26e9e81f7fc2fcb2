package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	spellapp "github.com/grimoire-lang/grimoire/internal/application/spell"
	"github.com/grimoire-lang/grimoire/internal/domain/ir"
	"github.com/grimoire-lang/grimoire/internal/ports"
	"github.com/grimoire-lang/grimoire/internal/store"
)

type fakeLoader struct {
	spellIR     *ir.SpellIR
	loadErrs    []error
	loadErr     error
	checkResult ir.Result
}

func (f *fakeLoader) Load(ctx context.Context, path string) (*ir.SpellIR, []error, error) {
	return f.spellIR, f.loadErrs, f.loadErr
}

func (f *fakeLoader) Check(ctx context.Context, path string) ir.Result {
	return f.checkResult
}

type fakeInterpreter struct {
	result *ports.ExecutionResult
	err    error
}

func (f *fakeInterpreter) Execute(ctx context.Context, spellIR *ir.SpellIR, opts ports.ExecuteOptions) (*ports.ExecutionResult, error) {
	return f.result, f.err
}

func newTestApp(loader ports.SpellLoader, interp ports.Interpreter) *AppContext {
	mem := store.NewMemory()
	return &AppContext{
		Store:      mem,
		CompileUse: spellapp.NewCompileUseCase(loader, nil, nil),
		RunUse:     spellapp.NewRunUseCase(loader, interp, mem, nil, nil),
	}
}

func TestCompileCommandSuccess(t *testing.T) {
	loader := &fakeLoader{spellIR: &ir.SpellIR{ID: "vault-rebalance", Steps: []ir.Step{}}}
	app := newTestApp(loader, &fakeInterpreter{})

	cmd := newCompileCmd(app)
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"spell.gr"})

	require.NoError(t, cmd.Execute())
	require.Contains(t, buf.String(), "vault-rebalance")
}

func TestCompileCommandReportsErrors(t *testing.T) {
	loader := &fakeLoader{loadErrs: []error{errors.New("boom")}, loadErr: errors.New("boom")}
	app := newTestApp(loader, &fakeInterpreter{})

	cmd := newCompileCmd(app)
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"spell.gr"})

	err := cmd.Execute()
	require.Error(t, err)
	require.Contains(t, buf.String(), "boom")
}

func TestRunCommandSimulateByDefault(t *testing.T) {
	loader := &fakeLoader{spellIR: &ir.SpellIR{ID: "vault-rebalance"}}
	interp := &fakeInterpreter{result: &ports.ExecutionResult{
		Success: true, RunID: "run-1", Metrics: ports.ExecutionMetrics{GasUsed: "0"},
	}}
	app := newTestApp(loader, interp)

	cmd := newRunCmd(app, &rootFlags{}, false)
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"spell.gr"})

	require.NoError(t, cmd.Execute())
	require.Contains(t, buf.String(), "run-1")
	require.Contains(t, buf.String(), "success")
}

func TestRunCommandPropagatesFailure(t *testing.T) {
	loader := &fakeLoader{spellIR: &ir.SpellIR{ID: "vault-rebalance"}}
	interp := &fakeInterpreter{result: &ports.ExecutionResult{
		Success: false, RunID: "run-2", Error: "guard failed",
	}}
	app := newTestApp(loader, interp)

	cmd := newRunCmd(app, &rootFlags{}, false)
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"spell.gr"})

	err := cmd.Execute()
	require.Error(t, err)
	require.Contains(t, buf.String(), "failed")
}

func TestStateShowListsSpells(t *testing.T) {
	app := newTestApp(&fakeLoader{}, &fakeInterpreter{})
	require.NoError(t, app.Store.Save(context.Background(), "vault-rebalance", map[string]interface{}{"epoch": 1.0}))

	cmd := newStateShowCmd(app)
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	require.Contains(t, buf.String(), "vault-rebalance")
}

func TestStatePruneReportsRemovedCount(t *testing.T) {
	app := newTestApp(&fakeLoader{}, &fakeInterpreter{})
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, app.Store.AddRun(ctx, "vault-rebalance", ports.RunSummary{RunID: string(rune('a' + i))}))
	}

	cmd := newStatePruneCmd(app)
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"vault-rebalance", "--keep", "2"})

	require.NoError(t, cmd.Execute())
	require.Contains(t, buf.String(), "removed 3 run(s)")
}

func TestLedgerShowRendersEntries(t *testing.T) {
	app := newTestApp(&fakeLoader{}, &fakeInterpreter{})
	ctx := context.Background()
	require.NoError(t, app.Store.SaveLedger(ctx, "vault-rebalance", "run-1", []ports.LedgerRecord{
		{ID: 1, Event: "run_started"},
		{ID: 2, Event: "step_completed"},
	}))

	cmd := newLedgerShowCmd(app)
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"vault-rebalance", "run-1"})

	require.NoError(t, cmd.Execute())
	require.Contains(t, buf.String(), "run_started")
	require.Contains(t, buf.String(), "step_completed")
}

func TestVersionCommandPrintsVersion(t *testing.T) {
	cmd := newVersionCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)

	require.NoError(t, cmd.Execute())
	require.Contains(t, buf.String(), "grimoire")
}
