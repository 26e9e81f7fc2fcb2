package ir

import (
	"encoding/json"
	"fmt"

	"github.com/grimoire-lang/grimoire/internal/lang/ast"
	"github.com/grimoire-lang/grimoire/internal/lang/exprparse"
	"github.com/grimoire-lang/grimoire/internal/lang/source"
	grimoireerrors "github.com/grimoire-lang/grimoire/pkg/errors"
)

// fixedErrorTypes is the closed vocabulary a try/catch ErrorType is
// reduced to; anything else collapses to the wildcard "*" (spec §4.5).
var fixedErrorTypes = map[string]bool{
	"*":                       true,
	"deadline_exceeded":       true,
	"validation_error":        true,
	"execution_error":         true,
	"guard_failed":            true,
	"circuit_breaker_tripped": true,
}

// Result is the outcome of one Generate call: either a usable IR with no
// errors, or a collected error list with IR left nil (spec §4.5's
// `{success:false, errors}` contract).
type Result struct {
	IR       *SpellIR
	Success  bool
	Errors   []error
	Warnings []grimoireerrors.CompilationWarning
}

// generator accumulates errors across one Generate call the way the
// teacher's validation layer accumulates DomainErrors, rather than
// aborting at the first problem (spec §7: IR generator "collect all").
type generator struct {
	errors   []error
	warnings []grimoireerrors.CompilationWarning
	seenIDs  map[string]bool
}

func (g *generator) fail(code, message string) {
	g.errors = append(g.errors, grimoireerrors.CompilationError{Code: code, Message: message})
}

func (g *generator) warn(code, message string) {
	g.warnings = append(g.warnings, grimoireerrors.CompilationWarning{Code: code, Message: message})
}

// parseExpr re-hydrates a canonical expression string (spec §4.4) into a
// typed tree, recording an EXPRESSION_PARSE_ERROR on failure.
func (g *generator) parseExpr(raw string) ast.Expression {
	expr, err := exprparse.Parse(raw)
	if err != nil {
		g.fail("EXPRESSION_PARSE_ERROR", fmt.Sprintf("%q: %v", raw, err))
		return ast.Expression{}
	}
	return expr
}

func (g *generator) parseExprMap(m map[string]string) map[string]ast.Expression {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]ast.Expression, len(m))
	for k, v := range m {
		out[k] = g.parseExpr(v)
	}
	return out
}

// Generate lowers a transformer-produced SpellSource into validated IR
// (spec §4.5). The spell hash is computed from the canonical JSON of src
// before any mutation, so it reflects the exact compiled input.
func Generate(src *source.SpellSource) Result {
	g := &generator{seenIDs: map[string]bool{}}

	hash := spellHash(src)

	ir := &SpellIR{
		ID:      src.Spell,
		Version: src.Version,
		Meta: Meta{
			Name:        src.Spell,
			Description: src.Description,
			Hash:        hash,
		},
	}

	ir.Assets = g.lowerAssets(src.Assets)
	ir.Aliases = g.lowerAliases(src.Venues)
	ir.Skills = g.lowerSkills(src.Skills)
	ir.Advisors = g.lowerAdvisors(src.Advisors)
	ir.Params = g.lowerParams(src.Params)
	ir.State = g.lowerState(src.State)
	ir.Guards = g.lowerGuards(src.Guards)
	ir.Triggers = g.lowerTriggers(src.Trigger)

	ir.Steps, ir.SourceMap = g.lowerSteps(src.Steps)
	g.validateStepReferences(ir.Steps)

	if len(g.errors) > 0 {
		return Result{Success: false, Errors: g.errors, Warnings: g.warnings}
	}
	return Result{IR: ir, Success: true, Warnings: g.warnings}
}

// spellHash computes a content hash of src's canonical JSON encoding: a
// 32-bit FNV-1a rolling hash, hex-encoded to 8 lowercase digits (spec
// §4.5, §6.4). This is content-addressing, not a security primitive.
func spellHash(src *source.SpellSource) string {
	body, err := json.Marshal(src)
	if err != nil {
		return "00000000"
	}
	var h uint32 = 2166136261
	for _, b := range body {
		h ^= uint32(b)
		h *= 16777619
	}
	return fmt.Sprintf("%08x", h)
}

func (g *generator) lowerAssets(assets map[string]source.AssetRef) []Asset {
	if len(assets) == 0 {
		return nil
	}
	out := make([]Asset, 0, len(assets))
	for symbol, a := range assets {
		out = append(out, Asset{Symbol: symbol, Chain: a.Chain, Address: a.Address, Decimals: a.Decimals})
	}
	return out
}

func (g *generator) lowerAliases(venues map[string]source.VenueRef) []Alias {
	if len(venues) == 0 {
		return nil
	}
	out := make([]Alias, 0, len(venues))
	for alias, v := range venues {
		out = append(out, Alias{Name: alias, Chain: v.Chain, Address: v.Address, Label: v.Label})
	}
	return out
}

func (g *generator) lowerSkills(skills map[string]source.SkillRef) []Skill {
	if len(skills) == 0 {
		return nil
	}
	out := make([]Skill, 0, len(skills))
	for name, s := range skills {
		out = append(out, Skill{Name: name, Adapter: s.Adapter, Config: g.parseExprMap(s.Config)})
	}
	return out
}

func (g *generator) lowerAdvisors(advisors map[string]source.AdvisorRef) []Advisor {
	if len(advisors) == 0 {
		return nil
	}
	out := make([]Advisor, 0, len(advisors))
	for name, a := range advisors {
		out = append(out, Advisor{Name: name, Model: a.Model, Config: g.parseExprMap(a.Config)})
	}
	return out
}

// lowerParams re-hydrates every params entry (including the limit_-
// prefixed ones folded in at transform time) and infers a simple-form
// type from the resulting literal, when the expression is a bare
// literal (spec §4.5).
func (g *generator) lowerParams(params map[string]string) []Param {
	if len(params) == 0 {
		return nil
	}
	out := make([]Param, 0, len(params))
	for name, raw := range params {
		expr := g.parseExpr(raw)
		paramType := inferParamType(expr)
		g.validateStruct(paramShape{Name: name, Type: paramType})
		out = append(out, Param{Name: name, Type: paramType, Default: expr})
	}
	return out
}

func inferParamType(e ast.Expression) ParamType {
	if e.Kind != ast.ExprLiteral {
		return ParamOther
	}
	switch e.LiteralKind {
	case ast.LiteralNumber:
		return ParamNumber
	case ast.LiteralBool:
		return ParamBool
	case ast.LiteralString:
		return ParamString
	case ast.LiteralAddress:
		return ParamAddress
	default:
		return ParamOther
	}
}

func (g *generator) lowerState(state source.StateShape) StateShape {
	return StateShape{
		Persistent: g.lowerStateFields(state.Persistent),
		Ephemeral:  g.lowerStateFields(state.Ephemeral),
	}
}

func (g *generator) lowerStateFields(fields map[string]string) []StateField {
	if len(fields) == 0 {
		return nil
	}
	out := make([]StateField, 0, len(fields))
	for key, raw := range fields {
		out = append(out, StateField{Key: key, InitialValue: g.parseExpr(raw)})
	}
	return out
}

// lowerGuards requires advisory guards to name an advisor and expression
// guards to carry a parseable check (spec §4.5, §7).
func (g *generator) lowerGuards(guards []source.Guard) []Guard {
	if len(guards) == 0 {
		return nil
	}
	out := make([]Guard, 0, len(guards))
	for _, sg := range guards {
		if sg.Name == "" {
			g.fail("MISSING_GUARD_ID", "guard declared without a name")
			continue
		}
		if sg.Check == "" {
			g.fail("MISSING_GUARD_CHECK", fmt.Sprintf("guard %q declared without a check", sg.Name))
			continue
		}
		g.validateStruct(guardShape{Name: sg.Name, Severity: sg.Severity})
		guard := Guard{
			Name:       sg.Name,
			IsAdvisory: sg.IsAdvisory,
			Advisor:    sg.Advisor,
			Severity:   sg.Severity,
		}
		if sg.IsAdvisory && sg.Advisor == "" {
			g.fail("MISSING_GUARD_ADVISOR", fmt.Sprintf("advisory guard %q declared without an advisor", sg.Name))
			continue
		}
		// Both forms re-parse through the same grammar (spec §4.6): an
		// advisory check's canonical string already carries its `**...**`
		// delimiters, which the re-parser recognises as ExprAdvisory.
		guard.Check = g.parseExpr(sg.Check)
		out = append(out, guard)
	}
	return out
}

// lowerTriggers flattens a possibly-disjunctive SpellSource.Trigger into
// one Trigger entry per disjunct.
func (g *generator) lowerTriggers(t source.Trigger) []Trigger {
	if len(t.Any) > 0 {
		out := make([]Trigger, 0, len(t.Any))
		for _, sub := range t.Any {
			out = append(out, g.lowerTrigger(sub))
		}
		return out
	}
	return []Trigger{g.lowerTrigger(t)}
}

func (g *generator) lowerTrigger(t source.Trigger) Trigger {
	g.validateStruct(triggerShape{Schedule: t.Schedule})
	out := Trigger{Schedule: t.Schedule, PollInterval: t.PollInterval, EventName: t.EventName}
	if t.Condition != "" {
		out.Condition = g.parseExpr(t.Condition)
		out.HasCondition = true
	}
	if t.FilterExpr != "" {
		out.FilterExpr = g.parseExpr(t.FilterExpr)
		out.HasFilter = true
	}
	return out
}

// lowerSteps lowers every raw step in source order, recording
// MISSING_STEP_ID / DUPLICATE_STEP_ID / UNKNOWN_STEP_TYPE problems as it
// goes, and returns the propagated sourceMap (spec §4.5, §3.8).
func (g *generator) lowerSteps(steps []source.Step) ([]Step, map[string]SourceLocation) {
	out := make([]Step, 0, len(steps))
	sourceMap := map[string]SourceLocation{}
	for _, s := range steps {
		if s.ID == "" {
			g.fail("MISSING_STEP_ID", "step declared without an id")
			continue
		}
		if g.seenIDs[s.ID] {
			g.fail("DUPLICATE_STEP_ID", fmt.Sprintf("step id %q used more than once", s.ID))
			continue
		}
		g.seenIDs[s.ID] = true

		step := g.lowerStep(s)
		if step == nil {
			g.fail("UNKNOWN_STEP_TYPE", fmt.Sprintf("step %q carries no recognised payload", s.ID))
			continue
		}
		out = append(out, step)
		if s.SourceLocation != nil {
			sourceMap[s.ID] = SourceLocation{Line: s.SourceLocation.Line, Column: s.SourceLocation.Column}
		}
	}
	return out, sourceMap
}

func (g *generator) lowerStep(s source.Step) Step {
	b := base{ID: s.ID, DependsOn: s.DependsOn}
	switch {
	case s.Compute != nil:
		return g.lowerCompute(b, s.Compute)
	case s.Action != nil:
		return g.lowerAction(b, s.Action, s.OnFailure)
	case s.If != nil:
		return g.lowerConditional(b, s.If)
	case s.For != nil:
		return g.lowerFor(b, s.For)
	case s.Repeat != nil:
		return g.lowerRepeat(b, s.Repeat)
	case s.Loop != nil:
		return g.lowerLoopUntil(b, s.Loop)
	case s.Try != nil:
		return g.lowerTry(b, s.Try)
	case s.Parallel != nil:
		return g.lowerParallel(b, s.Parallel)
	case s.Pipeline != nil:
		return g.lowerPipeline(b, s.Pipeline)
	case s.Advisory != nil:
		return g.lowerAdvisory(b, s.Advisory)
	case s.Wait != nil:
		return WaitStep{base: b, Duration: g.parseExpr(s.Wait.Duration)}
	case s.Emit != nil:
		return EmitStep{base: b, Event: s.Emit.Event, Data: g.parseExprMap(s.Emit.Data)}
	case s.Halt != nil:
		halt := HaltStep{base: b}
		if s.Halt.Reason != "" {
			halt.Reason = g.parseExpr(s.Halt.Reason)
			halt.HasReason = true
		}
		return halt
	default:
		return nil
	}
}

func (g *generator) lowerCompute(b base, c *source.ComputeStep) ComputeStep {
	assignments := make([]Assignment, 0, len(c.Assignments))
	for _, a := range c.Assignments {
		assignments = append(assignments, Assignment{Variable: a.Variable, Expression: g.parseExpr(a.Expression)})
	}
	return ComputeStep{base: b, Assignments: assignments}
}

// lowerAction validates the `bridge` action kind's required to_chain
// field and otherwise plucks ActionStep's already-bound fields through
// unchanged; Amount keeps its raw string form so the "max" sentinel
// (spec §4.5) survives without needing to be a parseable expression.
func (g *generator) lowerAction(b base, a *source.ActionStep, onFailure string) ActionStep {
	if a.Type == "bridge" && a.ToChain == "" {
		g.fail("ACTION_MISSING_TO_CHAIN", fmt.Sprintf("step %q: bridge action requires to_chain", b.ID))
	}
	return ActionStep{
		base:          b,
		Type:          a.Type,
		Venue:         a.Venue,
		Asset:         a.Asset,
		Amount:        a.Amount,
		To:            a.To,
		ToChain:       a.ToChain,
		Collateral:    a.Collateral,
		Constraints:   a.Constraints,
		OutputBinding: a.OutputBinding,
		OnFailure:     onFailure,
	}
}

func (g *generator) lowerConditional(b base, i *source.IfStep) ConditionalStep {
	return ConditionalStep{
		base:      b,
		Condition: g.parseExpr(i.Condition),
		ThenSteps: i.ThenSteps,
		ElseSteps: i.ElseSteps,
	}
}

func (g *generator) lowerFor(b base, f *source.ForStep) LoopStep {
	max := f.MaxIterations
	if max == 0 {
		max = 100
	}
	return LoopStep{
		base: b, Variant: LoopFor,
		Variable: f.Variable, Source: g.parseExpr(f.Source),
		BodySteps: f.BodySteps, MaxIterations: max,
	}
}

func (g *generator) lowerRepeat(b base, r *source.RepeatStep) LoopStep {
	max := r.MaxIterations
	if max == 0 {
		max = 100
	}
	return LoopStep{
		base: b, Variant: LoopRepeat,
		Count: g.parseExpr(r.Count), BodySteps: r.BodySteps, MaxIterations: max,
	}
}

func (g *generator) lowerLoopUntil(b base, l *source.LoopUntilStep) LoopStep {
	max := l.MaxIterations
	if max == 0 {
		max = 100
	}
	return LoopStep{
		base: b, Variant: LoopUntil,
		Condition: g.parseExpr(l.Condition), BodySteps: l.BodySteps, MaxIterations: max,
	}
}

// lowerTry renames the legacy catch action "revert" to "rollback" and
// reduces any ErrorType outside the fixed vocabulary to the "*" wildcard
// (spec §4.5).
func (g *generator) lowerTry(b base, t *source.TryStep) TryStep {
	catches := make([]CatchBlock, 0, len(t.CatchBlocks))
	for _, c := range t.CatchBlocks {
		action := c.Action
		if action == "revert" {
			action = "rollback"
		}
		errType := c.ErrorType
		if !fixedErrorTypes[errType] {
			errType = "*"
		}
		var retry *RetrySpec
		if c.Retry != nil {
			retry = &RetrySpec{
				MaxAttempts: c.Retry.MaxAttempts,
				Backoff:     c.Retry.Backoff,
				BackoffBase: c.Retry.BackoffBase,
				MaxBackoff:  c.Retry.MaxBackoff,
			}
		}
		catches = append(catches, CatchBlock{ErrorType: errType, Action: action, Steps: c.Steps, Retry: retry})
	}
	return TryStep{
		base: b, TrySteps: t.TrySteps, CatchBlocks: catches, FinallySteps: t.FinallySteps,
	}
}

func (g *generator) lowerParallel(b base, p *source.ParallelStep) ParallelStep {
	branches := make([]Branch, 0, len(p.Branches))
	for _, br := range p.Branches {
		branches = append(branches, Branch{Name: br.Name, Steps: br.Steps})
	}
	var join *Join
	if p.Join != nil {
		j := Join{Mode: p.Join.Mode, Count: p.Join.Count, Order: p.Join.Order}
		if p.Join.Metric != "" {
			j.Metric = g.parseExpr(p.Join.Metric)
		}
		join = &j
	}
	return ParallelStep{base: b, Branches: branches, Join: join, OnFail: p.OnFail}
}

// lowerPipeline lowers each stage; the transformer already enforced one
// statement per stage (DESIGN.md), so Step here is always a single
// reference rather than a list.
func (g *generator) lowerPipeline(b base, p *source.PipelineStep) PipelineStep {
	stages := make([]PipelineStage, 0, len(p.Stages))
	for _, s := range p.Stages {
		stage := PipelineStage{Op: s.Op, Order: s.Order, Step: s.Step}
		if s.Arg != "" {
			stage.Arg = g.parseExpr(s.Arg)
		}
		if s.SortBy != "" {
			stage.SortBy = g.parseExpr(s.SortBy)
		}
		stages = append(stages, stage)
	}
	return PipelineStep{
		base: b, Source: g.parseExpr(p.Source), Stages: stages, OutputBinding: p.OutputBinding,
	}
}

func (g *generator) lowerAdvisory(b base, a *source.AdvisoryStep) AdvisoryStep {
	fb := Fallback{Literal: a.Fallback.Literal}
	if a.Fallback.Expr != "" {
		fb.Expr = g.parseExpr(a.Fallback.Expr)
		fb.HasExpr = true
	}
	return AdvisoryStep{
		base: b, Prompt: a.Prompt, Advisor: a.Advisor, Output: a.Output,
		Timeout: a.Timeout, Fallback: fb, OutputSchema: a.OutputSchema,
	}
}

// validateStepReferences enforces the invariant that every step id named
// by a container step (thenSteps, bodySteps, catch.steps, branches[].
// steps, pipeline.stages[].step, dependsOn) resolves to a step that was
// actually produced (spec §3.4).
func (g *generator) validateStepReferences(steps []Step) {
	for _, s := range steps {
		for _, dep := range dependsOnOf(s) {
			if !g.seenIDs[dep] {
				g.fail("DEPENDENCY_NOT_FOUND", fmt.Sprintf("step %q depends on unknown step %q", s.StepID(), dep))
			}
		}
		for _, child := range childStepsOf(s) {
			if !g.seenIDs[child] {
				g.fail("CHILD_STEP_NOT_FOUND", fmt.Sprintf("step %q references unknown child step %q", s.StepID(), child))
			}
		}
	}
}

func dependsOnOf(s Step) []string {
	switch st := s.(type) {
	case ComputeStep:
		return st.DependsOn
	case ConditionalStep:
		return st.DependsOn
	case ActionStep:
		return st.DependsOn
	case LoopStep:
		return st.DependsOn
	case TryStep:
		return st.DependsOn
	case ParallelStep:
		return st.DependsOn
	case PipelineStep:
		return st.DependsOn
	case AdvisoryStep:
		return st.DependsOn
	case WaitStep:
		return st.DependsOn
	case EmitStep:
		return st.DependsOn
	case HaltStep:
		return st.DependsOn
	default:
		return nil
	}
}

func childStepsOf(s Step) []string {
	var ids []string
	switch st := s.(type) {
	case ConditionalStep:
		ids = append(ids, st.ThenSteps...)
		ids = append(ids, st.ElseSteps...)
	case LoopStep:
		ids = append(ids, st.BodySteps...)
	case TryStep:
		ids = append(ids, st.TrySteps...)
		ids = append(ids, st.FinallySteps...)
		for _, c := range st.CatchBlocks {
			ids = append(ids, c.Steps...)
		}
	case ParallelStep:
		for _, br := range st.Branches {
			ids = append(ids, br.Steps...)
		}
	case PipelineStep:
		for _, stage := range st.Stages {
			if stage.Step != "" {
				ids = append(ids, stage.Step)
			}
		}
	}
	return ids
}
