package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/grimoire-lang/grimoire/internal/ports"
)

func newStateCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or prune persisted spell state",
	}

	cmd.AddCommand(newStateShowCmd(app))
	cmd.AddCommand(newStatePruneCmd(app))
	return cmd
}

func newStateShowCmd(app *AppContext) *cobra.Command {
	var jsonOutput bool
	var runLimit int

	cmd := &cobra.Command{
		Use:   "show [spell-id]",
		Short: "Show persisted state and recent runs for a spell, or list all spells",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, _ := app.CommandContext(cmd, "command.state.show")

			if len(args) == 0 {
				spells, err := app.Store.ListSpells(ctx)
				if err != nil {
					return newCommandError("state show", "listing spells", err, "Check the state directory permissions.")
				}
				return renderSpellList(cmd, spells, jsonOutput)
			}

			spellID := args[0]
			state, err := app.Store.Load(ctx, spellID)
			if err != nil {
				return newCommandError("state show", fmt.Sprintf("loading state for %q", spellID), err, "Run 'grimoire state show' to list known spells.")
			}
			runs, err := app.Store.GetRuns(ctx, spellID, runLimit)
			if err != nil {
				return newCommandError("state show", fmt.Sprintf("loading runs for %q", spellID), err, "Check the state directory permissions.")
			}
			return renderSpellState(cmd, spellID, state, runs, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().IntVar(&runLimit, "limit", 20, "Maximum number of recent runs to show")
	return cmd
}

func newStatePruneCmd(app *AppContext) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune <spell-id>",
		Short: "Trim a spell's run history to its most recent runs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, logger := app.CommandContext(cmd, "command.state.prune")
			spellID := args[0]

			removed, err := app.Store.Prune(ctx, spellID, keep)
			if err != nil {
				return newCommandError("state prune", fmt.Sprintf("pruning %q", spellID), err, "Check the state directory permissions.")
			}
			if logger != nil {
				logger.Info(ctx, "pruned run history", "spell_id", spellID, "removed", removed)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d run(s) for %s\n", removed, spellID)
			return nil
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 0, "Number of most recent runs to retain (0 uses the store's default retention)")
	return cmd
}

func renderSpellList(cmd *cobra.Command, spells []string, jsonOutput bool) error {
	if jsonOutput {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(spells)
	}
	out := cmd.OutOrStdout()
	if len(spells) == 0 {
		fmt.Fprintln(out, "No spells with persisted state yet.")
		return nil
	}
	for _, s := range spells {
		fmt.Fprintln(out, s)
	}
	return nil
}

type stateJSONPayload struct {
	SpellID string                 `json:"spell_id"`
	State   map[string]interface{} `json:"state"`
	Runs    []ports.RunSummary     `json:"runs"`
}

func renderSpellState(cmd *cobra.Command, spellID string, state map[string]interface{}, runs []ports.RunSummary, jsonOutput bool) error {
	if jsonOutput {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(stateJSONPayload{SpellID: spellID, State: state, Runs: runs})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "spell: %s\n\n", spellID)
	fmt.Fprintf(out, "state: %d field(s)\n", len(state))
	for k, v := range state {
		fmt.Fprintf(out, "  %s = %v\n", k, v)
	}

	fmt.Fprintf(out, "\nruns: %d\n", len(runs))
	if len(runs) == 0 {
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tTIMESTAMP\tSTATUS\tDURATION\tGAS")
	for _, r := range runs {
		status := "success"
		if !r.Success {
			status = "failed"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.RunID, r.Timestamp.Format(time.RFC3339), status, r.Duration, r.GasUsed)
	}
	return w.Flush()
}
