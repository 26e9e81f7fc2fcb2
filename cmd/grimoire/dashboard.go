package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/grimoire-lang/grimoire/internal/tui/dashboard"
)

func newDashboardCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Launch the interactive spell/run/ledger dashboard",
		Long:  `Launch a bubbletea TUI that browses persisted spells, drills into their run history, and tails a run's ledger in real time.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, logger := app.CommandContext(cmd, "command.dashboard")
			if logger != nil {
				logger.Info(ctx, "launching dashboard")
			}

			service := dashboard.NewStoreService(app.Store)
			model := dashboard.NewModel(ctx, service)

			program := tea.NewProgram(model, tea.WithAltScreen())
			if _, err := program.Run(); err != nil {
				if logger != nil {
					logger.Error(ctx, "dashboard execution failed", "error", err)
				}
				return fmt.Errorf("run dashboard: %w", err)
			}

			if logger != nil {
				logger.Info(ctx, "dashboard closed")
			}
			return nil
		},
	}

	return cmd
}
