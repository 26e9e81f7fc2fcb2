package transform

import (
	"fmt"

	"github.com/grimoire-lang/grimoire/internal/lang/ast"
	"github.com/grimoire-lang/grimoire/internal/lang/exprfmt"
	"github.com/grimoire-lang/grimoire/internal/lang/source"
	grimoireerrors "github.com/grimoire-lang/grimoire/pkg/errors"
)

// defaultMaxIterations caps `for`/`repeat` loops that carry no explicit
// bound of their own, so a runaway loop body still terminates.
const defaultMaxIterations = 100

// lowerStatements lowers a statement sequence in source order, chaining
// each step's DependsOn to the previous one; lead seeds that chain with
// whatever the sequence's containing statement already depended on.
func (tr *Transformer) lowerStatements(stmts []ast.Statement, lead string) ([]string, error) {
	var ids []string
	prev := lead
	for _, st := range stmts {
		newIDs, err := tr.lowerStatement(st, prev)
		if err != nil {
			return nil, err
		}
		ids = append(ids, newIDs...)
		if len(newIDs) > 0 {
			prev = newIDs[len(newIDs)-1]
		}
	}
	return ids, nil
}

func (tr *Transformer) lowerStatement(st ast.Statement, dependsOn string) ([]string, error) {
	switch st.Kind {
	case ast.StmtAssignment:
		return tr.lowerAssignment(st, dependsOn)
	case ast.StmtMethodCall:
		return tr.lowerMethodCall(st, dependsOn, st.Target)
	case ast.StmtIf:
		return tr.lowerIf(st, dependsOn)
	case ast.StmtFor:
		return tr.lowerFor(st, dependsOn)
	case ast.StmtRepeat:
		return tr.lowerRepeat(st, dependsOn)
	case ast.StmtUntil:
		return tr.lowerUntil(st, dependsOn)
	case ast.StmtTry:
		return tr.lowerTry(st, dependsOn)
	case ast.StmtParallel:
		return tr.lowerParallel(st, dependsOn)
	case ast.StmtPipeline:
		return tr.lowerPipeline(st, dependsOn)
	case ast.StmtAdvise:
		return tr.lowerAdvise(st, dependsOn)
	case ast.StmtDo:
		return tr.lowerDo(st, dependsOn)
	case ast.StmtAtomic:
		return tr.lowerAtomic(st, dependsOn)
	case ast.StmtEmit:
		return tr.lowerEmit(st, dependsOn)
	case ast.StmtHalt:
		return tr.lowerHalt(st, dependsOn)
	case ast.StmtWait:
		return tr.lowerWait(st, dependsOn)
	case ast.StmtPass:
		return nil, nil
	case ast.StmtAdvisory:
		return tr.lowerAdvisoryStatement(st, dependsOn)
	}
	return nil, fmt.Errorf("transform: unhandled statement kind %d", st.Kind)
}

func (tr *Transformer) withDepends(step *source.Step, dependsOn string) {
	if dependsOn != "" {
		step.DependsOn = []string{dependsOn}
	}
}

func (tr *Transformer) appendStep(step source.Step) {
	tr.out.Steps = append(tr.out.Steps, step)
}

// lowerAssignment lowers a plain `target = expr` statement. Assignments
// whose right-hand side is a venue or skill method call never reach
// here: the parser resolves those directly to StmtMethodCall (with
// Target carrying the bound variable) so a single statement kind covers
// both the bound and bare forms of a method call.
func (tr *Transformer) lowerAssignment(st ast.Statement, dependsOn string) ([]string, error) {
	step := source.Step{
		ID:             tr.nextID("compute"),
		SourceLocation: tr.loc(st.Span),
		Compute: &source.ComputeStep{
			Assignments: []source.Assignment{{Variable: st.Target, Expression: tr.fmt(st.Value)}},
		},
	}
	tr.withDepends(&step, dependsOn)
	tr.appendStep(step)
	return []string{step.ID}, nil
}

func (tr *Transformer) lowerMethodCall(st ast.Statement, dependsOn, target string) ([]string, error) {
	var step source.Step
	step.SourceLocation = tr.loc(st.Span)
	if queryMethods[st.Method] {
		step.ID = tr.nextID("compute")
		step.Compute = tr.buildQueryCompute(st, target)
	} else {
		step.ID = tr.nextID("action")
		action := tr.buildActionStep(st, target)
		if st.UsingSkill != "" {
			if action.Constraints == nil {
				action.Constraints = map[string]string{}
			}
			action.Constraints["skill"] = st.UsingSkill
		}
		step.Action = action
	}
	tr.withDepends(&step, dependsOn)
	tr.appendStep(step)
	return []string{step.ID}, nil
}

func (tr *Transformer) lowerIf(st ast.Statement, dependsOn string) ([]string, error) {
	thenIDs, err := tr.lowerStatements(st.ThenBody, "")
	if err != nil {
		return nil, err
	}
	elseIDs, err := tr.lowerElifChain(st.Elifs, st.ElseBody)
	if err != nil {
		return nil, err
	}
	step := source.Step{
		ID:             tr.nextID("if"),
		SourceLocation: tr.loc(st.Span),
		If: &source.IfStep{
			Condition: tr.fmt(st.Condition),
			ThenSteps: thenIDs,
			ElseSteps: elseIDs,
		},
	}
	tr.withDepends(&step, dependsOn)
	tr.appendStep(step)
	return []string{step.ID}, nil
}

// lowerElifChain lowers a chain of `elif` clauses into nested IfSteps, the
// same shape an `if`/`else if`/`else` ladder in any step-record IR takes
// when there is no dedicated elif slot: each elif becomes the ElseSteps of
// its predecessor.
func (tr *Transformer) lowerElifChain(elifs []ast.ElifClause, elseBody []ast.Statement) ([]string, error) {
	if len(elifs) == 0 {
		return tr.lowerStatements(elseBody, "")
	}
	head := elifs[0]
	thenIDs, err := tr.lowerStatements(head.Body, "")
	if err != nil {
		return nil, err
	}
	elseIDs, err := tr.lowerElifChain(elifs[1:], elseBody)
	if err != nil {
		return nil, err
	}
	step := source.Step{
		ID:             tr.nextID("if"),
		SourceLocation: tr.loc(head.Span),
		If: &source.IfStep{
			Condition: tr.fmt(head.Condition),
			ThenSteps: thenIDs,
			ElseSteps: elseIDs,
		},
	}
	tr.appendStep(step)
	return []string{step.ID}, nil
}

func (tr *Transformer) lowerFor(st ast.Statement, dependsOn string) ([]string, error) {
	bodyIDs, err := tr.lowerStatements(st.Body, "")
	if err != nil {
		return nil, err
	}
	step := source.Step{
		ID:             tr.nextID("for"),
		SourceLocation: tr.loc(st.Span),
		For: &source.ForStep{
			Variable:      st.LoopVar,
			Source:        tr.fmt(st.Source),
			BodySteps:     bodyIDs,
			MaxIterations: defaultMaxIterations,
		},
	}
	tr.withDepends(&step, dependsOn)
	tr.appendStep(step)
	return []string{step.ID}, nil
}

func (tr *Transformer) lowerRepeat(st ast.Statement, dependsOn string) ([]string, error) {
	bodyIDs, err := tr.lowerStatements(st.Body, "")
	if err != nil {
		return nil, err
	}
	step := source.Step{
		ID:             tr.nextID("repeat"),
		SourceLocation: tr.loc(st.Span),
		Repeat: &source.RepeatStep{
			Count:         tr.fmt(st.Count),
			BodySteps:     bodyIDs,
			MaxIterations: defaultMaxIterations,
		},
	}
	tr.withDepends(&step, dependsOn)
	tr.appendStep(step)
	return []string{step.ID}, nil
}

func (tr *Transformer) lowerUntil(st ast.Statement, dependsOn string) ([]string, error) {
	bodyIDs, err := tr.lowerStatements(st.Body, "")
	if err != nil {
		return nil, err
	}
	step := source.Step{
		ID:             tr.nextID("loop"),
		SourceLocation: tr.loc(st.Span),
		Loop: &source.LoopUntilStep{
			Condition:     tr.fmt(st.Condition),
			BodySteps:     bodyIDs,
			MaxIterations: intLiteralOrDefault(st.MaxIterations, defaultMaxIterations),
		},
	}
	tr.withDepends(&step, dependsOn)
	tr.appendStep(step)
	return []string{step.ID}, nil
}

func (tr *Transformer) lowerTry(st ast.Statement, dependsOn string) ([]string, error) {
	tryIDs, err := tr.lowerStatements(st.TryBody, "")
	if err != nil {
		return nil, err
	}
	catches := make([]source.CatchBlock, 0, len(st.Catches))
	for _, c := range st.Catches {
		stepIDs, err := tr.lowerStatements(c.Steps, "")
		if err != nil {
			return nil, err
		}
		var retry *source.RetrySpec
		if c.Retry != nil {
			retry = &source.RetrySpec{
				MaxAttempts: c.Retry.MaxAttempts,
				Backoff:     c.Retry.Backoff,
				BackoffBase: c.Retry.BackoffBase,
				MaxBackoff:  c.Retry.MaxBackoff,
			}
		}
		catches = append(catches, source.CatchBlock{
			ErrorType: c.ErrorType,
			Action:    c.Action,
			Steps:     stepIDs,
			Retry:     retry,
		})
	}
	finallyIDs, err := tr.lowerStatements(st.FinallyBody, "")
	if err != nil {
		return nil, err
	}
	step := source.Step{
		ID:             tr.nextID("try"),
		SourceLocation: tr.loc(st.Span),
		Try: &source.TryStep{
			TrySteps:     tryIDs,
			CatchBlocks:  catches,
			FinallySteps: finallyIDs,
		},
	}
	tr.withDepends(&step, dependsOn)
	tr.appendStep(step)
	return []string{step.ID}, nil
}

// lowerAtomic has no dedicated raw step shape of its own: it reuses
// TryStep with a single wildcard catch carrying the atomic mode as the
// catch action, since "roll every step in this block back together on any
// failure" is exactly try/catch semantics restricted to one outcome.
func (tr *Transformer) lowerAtomic(st ast.Statement, dependsOn string) ([]string, error) {
	bodyIDs, err := tr.lowerStatements(st.AtomicBody, "")
	if err != nil {
		return nil, err
	}
	step := source.Step{
		ID:             tr.nextID("atomic"),
		SourceLocation: tr.loc(st.Span),
		Try: &source.TryStep{
			TrySteps: bodyIDs,
			CatchBlocks: []source.CatchBlock{
				{ErrorType: "*", Action: st.AtomicMode},
			},
		},
	}
	tr.withDepends(&step, dependsOn)
	tr.appendStep(step)
	return []string{step.ID}, nil
}

func (tr *Transformer) lowerParallel(st ast.Statement, dependsOn string) ([]string, error) {
	branches := make([]source.Branch, 0, len(st.Branches))
	for _, b := range st.Branches {
		ids, err := tr.lowerStatements(b.Body, "")
		if err != nil {
			return nil, err
		}
		branches = append(branches, source.Branch{Name: b.Name, Steps: ids})
	}
	var join *source.Join
	if st.Join != nil {
		join = &source.Join{
			Mode:   st.Join.Mode,
			Count:  st.Join.Count,
			Metric: tr.formatOptional(st.Join.Metric),
			Order:  st.Join.Order,
		}
	}
	step := source.Step{
		ID:             tr.nextID("parallel"),
		SourceLocation: tr.loc(st.Span),
		Parallel: &source.ParallelStep{
			Branches: branches,
			Join:     join,
			OnFail:   st.OnFail,
		},
	}
	tr.withDepends(&step, dependsOn)
	tr.appendStep(step)
	return []string{step.ID}, nil
}

func (tr *Transformer) lowerPipeline(st ast.Statement, dependsOn string) ([]string, error) {
	stages := make([]source.PipelineStageRef, 0, len(st.Stages))
	for _, s := range st.Stages {
		ref := source.PipelineStageRef{Op: string(s.Op), Order: s.Order}
		ids, err := tr.lowerStatements(s.Body, "")
		if err != nil {
			return nil, err
		}
		if len(ids) > 0 {
			ref.Step = ids[0]
		}
		ref.Arg = tr.formatOptional(s.Arg)
		ref.SortBy = tr.formatOptional(s.SortBy)
		stages = append(stages, ref)
	}
	step := source.Step{
		ID:             tr.nextID("pipeline"),
		SourceLocation: tr.loc(st.Span),
		Pipeline: &source.PipelineStep{
			Source: tr.fmt(st.PipelineSource),
			Stages: stages,
		},
	}
	tr.withDepends(&step, dependsOn)
	tr.appendStep(step)
	return []string{step.ID}, nil
}

func (tr *Transformer) lowerAdvise(st ast.Statement, dependsOn string) ([]string, error) {
	step := source.Step{
		ID:             tr.nextID("advisory"),
		SourceLocation: tr.loc(st.Span),
		Advisory: &source.AdvisoryStep{
			Prompt:       tr.fmt(st.Prompt),
			Advisor:      st.Advisor,
			Output:       st.Target,
			Timeout:      numberOf(st.Timeout),
			Fallback:     tr.buildFallback(st.Fallback),
			OutputSchema: exprToSchemaMap(st.OutputSchema),
		},
	}
	tr.withDepends(&step, dependsOn)
	tr.appendStep(step)
	return []string{step.ID}, nil
}

func (tr *Transformer) lowerDo(st ast.Statement, dependsOn string) ([]string, error) {
	block, ok := tr.blocks[st.BlockName]
	if !ok {
		return nil, grimoireerrors.CompilationError{Code: "UNKNOWN_BLOCK", Message: fmt.Sprintf("do references undeclared block %q", st.BlockName)}
	}
	subst := make(map[string]ast.Expression, len(block.Params))
	for i, param := range block.Params {
		if i < len(st.Args) {
			subst[param] = st.Args[i]
		}
	}
	inlined := substituteStatements(block.Body, subst)
	return tr.lowerStatements(inlined, dependsOn)
}

func (tr *Transformer) lowerEmit(st ast.Statement, dependsOn string) ([]string, error) {
	step := source.Step{
		ID:             tr.nextID("emit"),
		SourceLocation: tr.loc(st.Span),
		Emit: &source.EmitStep{
			Event: st.EventName,
			Data:  tr.exprMapToStringMap(st.EmitData),
		},
	}
	tr.withDepends(&step, dependsOn)
	tr.appendStep(step)
	return []string{step.ID}, nil
}

func (tr *Transformer) lowerHalt(st ast.Statement, dependsOn string) ([]string, error) {
	step := source.Step{
		ID:             tr.nextID("halt"),
		SourceLocation: tr.loc(st.Span),
		Halt:           &source.HaltStep{Reason: tr.formatOptional(st.Reason)},
	}
	tr.withDepends(&step, dependsOn)
	tr.appendStep(step)
	return []string{step.ID}, nil
}

func (tr *Transformer) lowerWait(st ast.Statement, dependsOn string) ([]string, error) {
	step := source.Step{
		ID:             tr.nextID("wait"),
		SourceLocation: tr.loc(st.Span),
		Wait:           &source.WaitStep{Duration: tr.fmt(st.Duration)},
	}
	tr.withDepends(&step, dependsOn)
	tr.appendStep(step)
	return []string{step.ID}, nil
}

// lowerAdvisoryStatement lowers a bare advisory-literal statement (an
// in-body `**note**` with no `advise`/`guard` wrapper) to a ledger event,
// since it carries no adapter call or binding of its own — just a
// human-readable note the audit trail should retain.
func (tr *Transformer) lowerAdvisoryStatement(st ast.Statement, dependsOn string) ([]string, error) {
	step := source.Step{
		ID:             tr.nextID("advisory_note"),
		SourceLocation: tr.loc(st.Span),
		Emit: &source.EmitStep{
			Event: "advisory_note",
			Data:  map[string]string{"text": tr.adviceText(st.AdvisoryText)},
		},
	}
	tr.withDepends(&step, dependsOn)
	tr.appendStep(step)
	return []string{step.ID}, nil
}

func (tr *Transformer) adviceText(e ast.Expression) string {
	if e.Kind == ast.ExprAdvisory {
		return e.AdvisoryText
	}
	return tr.fmt(e)
}

func (tr *Transformer) exprMapToStringMap(m map[string]ast.Expression) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = tr.fmt(v)
	}
	return out
}

func numberOf(e ast.Expression) float64 {
	if e.Kind == ast.ExprLiteral && e.LiteralKind == ast.LiteralNumber {
		return e.NumberValue
	}
	return 0
}

func intLiteralOrDefault(e ast.Expression, def int) int {
	if e.Kind == ast.ExprLiteral && e.LiteralKind == ast.LiteralNumber {
		return int(e.NumberValue)
	}
	return def
}

// formatOptional renders an expression unless it is the parser's
// unset-field zero value (never produced for an expression a spell author
// actually wrote, since every parsed expression carries a real span).
func (tr *Transformer) formatOptional(e ast.Expression) string {
	if e.Span.Start.Line == 0 && e.Kind == ast.ExprLiteral && e.NumberValue == 0 && e.StringValue == "" {
		return ""
	}
	return tr.fmt(e)
}

func (tr *Transformer) buildFallback(e ast.Expression) source.Fallback {
	if e.Span.Start.Line == 0 && e.Kind == ast.ExprLiteral && e.NumberValue == 0 && e.StringValue == "" {
		return source.Fallback{}
	}
	if e.Kind == ast.ExprLiteral {
		return source.Fallback{Literal: exprToInterface(e)}
	}
	return source.Fallback{Expr: tr.fmt(e)}
}

func exprToInterface(e ast.Expression) interface{} {
	switch e.Kind {
	case ast.ExprLiteral:
		switch e.LiteralKind {
		case ast.LiteralString, ast.LiteralAddress:
			return e.StringValue
		case ast.LiteralBool:
			return e.BoolValue
		default:
			return e.NumberValue
		}
	case ast.ExprArrayLiteral:
		out := make([]interface{}, len(e.Elements))
		for i, el := range e.Elements {
			out[i] = exprToInterface(el)
		}
		return out
	case ast.ExprObjectLiteral:
		return exprToSchemaMap(e)
	default:
		return exprfmt.Format(e)
	}
}

func exprToSchemaMap(e ast.Expression) map[string]interface{} {
	if e.Kind != ast.ExprObjectLiteral {
		return nil
	}
	out := make(map[string]interface{}, len(e.Entries))
	for _, entry := range e.Entries {
		out[entry.Key] = exprToInterface(entry.Value)
	}
	return out
}
