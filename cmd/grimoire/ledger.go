package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/grimoire-lang/grimoire/internal/ports"
)

func newLedgerCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect a run's append-only ledger",
	}
	cmd.AddCommand(newLedgerShowCmd(app))
	return cmd
}

func newLedgerShowCmd(app *AppContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <spell-id> <run-id>",
		Short: "Show the ledger entries recorded for one run",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, _ := app.CommandContext(cmd, "command.ledger.show")
			spellID, runID := args[0], args[1]

			entries, err := app.Store.LoadLedger(ctx, spellID, runID)
			if err != nil {
				return newCommandError("ledger show", fmt.Sprintf("loading ledger for %q/%q", spellID, runID), err, "Run 'grimoire state show <spell-id>' to find valid run ids.")
			}
			return renderLedger(cmd, entries, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func renderLedger(cmd *cobra.Command, entries []ports.LedgerRecord, jsonOutput bool) error {
	if jsonOutput {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(entries)
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No ledger entries recorded for this run.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tTIMESTAMP\tEVENT")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\n", e.ID, e.Timestamp.Format(time.RFC3339Nano), e.Event)
	}
	return w.Flush()
}
