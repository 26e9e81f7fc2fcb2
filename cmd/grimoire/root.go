package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	verbose  bool
	simulate bool
}

func newRootCmd(app *AppContext) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "grimoire",
		Short:         "Grimoire compiles and runs deterministic on-chain spells",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().BoolVar(&flags.simulate, "simulate", false, "Default execution mode to simulate rather than execute")

	cmd.AddCommand(newCompileCmd(app))
	cmd.AddCommand(newRunCmd(app, flags, false))
	cmd.AddCommand(newRunCmd(app, flags, true))
	cmd.AddCommand(newStateCmd(app))
	cmd.AddCommand(newLedgerCmd(app))
	cmd.AddCommand(newDashboardCmd(app))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
