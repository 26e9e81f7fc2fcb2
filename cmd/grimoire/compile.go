package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	grimoireerrors "github.com/grimoire-lang/grimoire/pkg/errors"
)

type compileOptions struct {
	checkOnly  bool
	jsonOutput bool
}

func newCompileCmd(app *AppContext) *cobra.Command {
	opts := &compileOptions{}

	cmd := &cobra.Command{
		Use:   "compile <spell-path>",
		Short: "Compile a spell to IR and report any errors or warnings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, app, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.checkOnly, "check", false, "Validate only, without requiring a fully lowered IR")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output the result as JSON")

	return cmd
}

type compileJSONPayload struct {
	Success  bool     `json:"success"`
	SpellID  string   `json:"spell_id,omitempty"`
	Steps    int      `json:"steps,omitempty"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func runCompile(cmd *cobra.Command, app *AppContext, path string, opts *compileOptions) error {
	ctx, _ := app.CommandContext(cmd, "command.compile")

	if opts.checkOnly {
		result := app.CompileUse.Check(ctx, path)
		return renderCompileResult(cmd, result.Success, "", 0, result.Errors, result.Warnings, opts.jsonOutput)
	}

	spellIR, errs, err := app.CompileUse.Compile(ctx, path)
	if err != nil {
		if len(errs) == 0 {
			return newCommandError("compile", fmt.Sprintf("compiling %q", path), err, "Check the spell source for syntax errors.")
		}
		return renderCompileResult(cmd, false, "", 0, errs, nil, opts.jsonOutput)
	}

	return renderCompileResult(cmd, true, spellIR.ID, len(spellIR.Steps), nil, nil, opts.jsonOutput)
}

func renderCompileResult(cmd *cobra.Command, success bool, spellID string, steps int, errs []error, warnings []grimoireerrors.CompilationWarning, jsonOutput bool) error {
	errStrings := make([]string, 0, len(errs))
	for _, e := range errs {
		errStrings = append(errStrings, e.Error())
	}
	warnStrings := make([]string, 0, len(warnings))
	for _, w := range warnings {
		warnStrings = append(warnStrings, w.String())
	}

	if jsonOutput {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(compileJSONPayload{
			Success: success, SpellID: spellID, Steps: steps,
			Errors: errStrings, Warnings: warnStrings,
		})
	}

	out := cmd.OutOrStdout()
	if success {
		fmt.Fprintf(out, "compiled ok: %s (%d steps)\n", spellID, steps)
	} else {
		fmt.Fprintln(out, "compile failed:")
	}
	for _, e := range errStrings {
		fmt.Fprintf(out, "  error: %s\n", e)
	}
	for _, w := range warnStrings {
		fmt.Fprintf(out, "  warning: %s\n", w)
	}
	if !success {
		return fmt.Errorf("compilation failed with %d error(s)", len(errStrings))
	}
	return nil
}
