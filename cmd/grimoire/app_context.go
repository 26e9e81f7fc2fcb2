package main

import (
	"context"

	"github.com/spf13/cobra"

	spellapp "github.com/grimoire-lang/grimoire/internal/application/spell"
	"github.com/grimoire-lang/grimoire/internal/ports"
)

// AppContext bundles the long-lived services wired at startup so command
// files only depend on this struct, never on infrastructure packages
// directly.
type AppContext struct {
	Logger     ports.Logger
	Events     ports.EventPublisher
	Store      ports.StateStore
	CompileUse *spellapp.CompileUseCase
	RunUse     *spellapp.RunUseCase
}

// CommandContext returns the command's context (falling back to
// Background) together with a component-scoped logger.
func (a *AppContext) CommandContext(cmd *cobra.Command, component string) (context.Context, ports.Logger) {
	ctx := context.Background()
	if cmd != nil && cmd.Context() != nil {
		ctx = cmd.Context()
	}
	return ctx, a.LoggerFor(component)
}

// LoggerFor derives a child logger scoped to component.
func (a *AppContext) LoggerFor(component string) ports.Logger {
	if a == nil || a.Logger == nil {
		return nil
	}
	return a.Logger.With("component", component)
}
