package main

import (
	"context"
	"fmt"
	"os"

	spellapp "github.com/grimoire-lang/grimoire/internal/application/spell"
	"github.com/grimoire-lang/grimoire/internal/infrastructure/compiler"
	eventsinfra "github.com/grimoire-lang/grimoire/internal/infrastructure/events"
	logginginfra "github.com/grimoire-lang/grimoire/internal/infrastructure/logging"
	metricsinfra "github.com/grimoire-lang/grimoire/internal/infrastructure/metrics"
	plugininfra "github.com/grimoire-lang/grimoire/internal/infrastructure/plugin"
	"github.com/grimoire-lang/grimoire/internal/lang/importer"
	"github.com/grimoire-lang/grimoire/internal/runtime"
	"github.com/grimoire-lang/grimoire/internal/runtime/breaker"
	"github.com/grimoire-lang/grimoire/internal/store"
)

func main() {
	appLogger, err := logginginfra.New(logginginfra.Options{
		Level:     "info",
		Component: "cli",
		Layer:     "infrastructure",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create application logger: %v\n", err)
		os.Exit(1)
	}

	correlationID := logginginfra.GenerateCorrelationID()
	ctx := logginginfra.WithCorrelationID(context.Background(), correlationID)

	statePath, err := defaultStatePath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to determine state directory: %v\n", err)
		os.Exit(1)
	}
	stateStore, err := store.NewFileStore(statePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open state store at %s: %v\n", statePath, err)
		os.Exit(1)
	}

	eventPublisher := eventsinfra.NewLoggingPublisher(appLogger.With("component", "event_publisher"))
	registry := plugininfra.NewRegistry()
	breakers := runtime.NewBreakerAdapter(breaker.NewManager(map[string]breaker.Policy{}))
	loader := compiler.NewLoader(importer.NewLocalLoader(), appLogger.With("component", "spell_loader"))
	interpreter := runtime.NewInterpreter(registry, nil, breakers, appLogger.With("component", "interpreter")).
		WithMetrics(metricsinfra.NewCollector()).
		WithTracer(metricsinfra.NewTracer())

	compileUseCase := spellapp.NewCompileUseCase(loader, appLogger.With("component", "compile_usecase"), eventPublisher)
	runUseCase := spellapp.NewRunUseCase(loader, interpreter, stateStore, appLogger.With("component", "run_usecase"), eventPublisher)

	app := &AppContext{
		Logger:      appLogger,
		Events:      eventPublisher,
		Store:       stateStore,
		CompileUse:  compileUseCase,
		RunUse:      runUseCase,
	}

	rootCmd := newRootCmd(app)
	appLogger.Info(ctx, "starting grimoire command", "pid", os.Getpid())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
