package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/grimoire-lang/grimoire/internal/ports"
)

type runOptions struct {
	vault   string
	chain   string
	trigger string
	params  map[string]string
	json    bool
	audit   string
}

// newRunCmd builds either `run` or `simulate`; simulateOnly pins the
// execution mode to ports.ModeSimulate and forbids the --execute override.
func newRunCmd(app *AppContext, root *rootFlags, simulateOnly bool) *cobra.Command {
	opts := &runOptions{}

	use := "run <spell-path>"
	short := "Execute a spell (simulate by default, execute with --execute)"
	if simulateOnly {
		use = "simulate <spell-path>"
		short = "Simulate a spell without any on-chain effects"
	}

	var execute bool

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := ports.ModeSimulate
			switch {
			case simulateOnly:
				mode = ports.ModeSimulate
			case execute:
				mode = ports.ModeExecute
			case root.simulate:
				mode = ports.ModeSimulate
			}
			return runSpell(cmd, app, args[0], mode, opts)
		},
	}

	if !simulateOnly {
		cmd.Flags().BoolVar(&execute, "execute", false, "Execute the spell for real instead of simulating")
	}
	cmd.Flags().StringVar(&opts.vault, "vault", "", "Vault address bound to $vault")
	cmd.Flags().StringVar(&opts.chain, "chain", "", "Chain identifier bound to $chain")
	cmd.Flags().StringVar(&opts.trigger, "trigger", "manual", "Trigger name to run")
	cmd.Flags().StringToStringVar(&opts.params, "param", nil, "Spell parameter, repeatable (key=value)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Output the execution result as JSON")
	cmd.Flags().StringVar(&opts.audit, "audit-log", "", "Path to stream a zerolog JSON audit trail to")

	return cmd
}

func runSpell(cmd *cobra.Command, app *AppContext, path string, mode ports.ExecutionMode, opts *runOptions) error {
	ctx, logger := app.CommandContext(cmd, "command.run")

	params := make(map[string]interface{}, len(opts.params))
	for k, v := range opts.params {
		params[k] = v
	}

	execOpts := ports.ExecuteOptions{
		Mode:    mode,
		Params:  params,
		Trigger: opts.trigger,
		Vault:   opts.vault,
		Chain:   opts.chain,
	}

	if opts.audit != "" {
		f, err := os.OpenFile(opts.audit, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return newCommandError("run", fmt.Sprintf("opening audit log %q", opts.audit), err, "Check the path is writable.")
		}
		defer f.Close()
		execOpts.AuditWriter = f
	}

	result, err := app.RunUse.Run(ctx, path, execOpts)
	if err != nil {
		if logger != nil {
			logger.Error(ctx, "run command failed", "error", err)
		}
		return newCommandError("run", fmt.Sprintf("executing %q", path), err, "Run 'grimoire compile' first to check for front-end errors.")
	}

	if opts.json {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			return err
		}
	} else {
		renderRunResultTable(cmd, result)
	}

	if !result.Success {
		return fmt.Errorf("run %s failed: %s", result.RunID, result.Error)
	}
	return nil
}

func renderRunResultTable(cmd *cobra.Command, result *ports.ExecutionResult) {
	out := cmd.OutOrStdout()
	status := "success"
	if !result.Success {
		status = "failed"
	}
	fmt.Fprintf(out, "run:      %s\n", result.RunID)
	fmt.Fprintf(out, "status:   %s\n", status)
	fmt.Fprintf(out, "duration: %s\n", result.Duration)
	fmt.Fprintf(out, "gas:      %s\n", result.Metrics.GasUsed)
	fmt.Fprintf(out, "steps:    %d (actions: %d, advisory: %d, retries: %d)\n",
		result.Metrics.StepsExecuted, result.Metrics.ActionsExecuted, result.Metrics.AdvisoryCalls, result.Metrics.Retries)
	if result.Halted {
		fmt.Fprintf(out, "halted:   %s\n", result.HaltReason)
	}
	if result.Error != "" {
		fmt.Fprintf(out, "error:    %s\n", result.Error)
	}
}
