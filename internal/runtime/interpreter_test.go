package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grimoire-lang/grimoire/internal/domain/ir"
	"github.com/grimoire-lang/grimoire/internal/infrastructure/metrics"
	"github.com/grimoire-lang/grimoire/internal/lang/ast"
	"github.com/grimoire-lang/grimoire/internal/ports"
)

func minimalComputeSpell() *ir.SpellIR {
	return &ir.SpellIR{
		ID: "vault-rebalance",
		Steps: []ir.Step{
			ir.ComputeStep{
				Assignments: []ir.Assignment{
					{Variable: "x", Expression: ast.Expression{Kind: ast.ExprLiteral, LiteralKind: ast.LiteralNumber, NumberValue: 1}},
				},
			},
		},
	}
}

func TestExecuteEmitsRunAndStepMetrics(t *testing.T) {
	collector := metrics.NewCollector()
	interp := NewInterpreter(nil, nil, nil, nil).WithMetrics(collector)

	result, err := interp.Execute(context.Background(), minimalComputeSpell(), ports.ExecuteOptions{Mode: ports.ModeSimulate})
	require.NoError(t, err)
	require.True(t, result.Success)

	require.Equal(t, float64(1), collector.Counter("grimoire_run_executions_total", map[string]string{"status": "success"}))
	require.Equal(t, float64(1), collector.Counter("grimoire_step_executions_total", map[string]string{"status": "success"}))
	require.Len(t, collector.Histogram("grimoire_run_execution_duration_seconds", nil), 1)
}

func TestExecuteRecordsTracingSpan(t *testing.T) {
	tracer := metrics.NewTracer()
	interp := NewInterpreter(nil, nil, nil, nil).WithTracer(tracer)

	_, err := interp.Execute(context.Background(), minimalComputeSpell(), ports.ExecuteOptions{Mode: ports.ModeSimulate})
	require.NoError(t, err)

	spans := tracer.Spans()
	require.Len(t, spans, 1)
	require.Equal(t, "interpreter.execute", spans[0].Name)
	require.Equal(t, ports.SpanStatusOK, spans[0].Status)
}

func TestExecuteWithoutMetricsOrTracerStillWorks(t *testing.T) {
	interp := NewInterpreter(nil, nil, nil, nil)

	result, err := interp.Execute(context.Background(), minimalComputeSpell(), ports.ExecuteOptions{Mode: ports.ModeSimulate})
	require.NoError(t, err)
	require.True(t, result.Success)
}
