// Package transform lowers a parsed ast.Spell into a source.SpellSource
// record (spec §4.3): resolving imports and inlining blocks, flattening
// declaration sections, lowering triggers to their cron/condition/event
// shape, and walking every statement tree into the flat, addressable step
// list the IR generator later validates.
package transform

import (
	"fmt"

	"github.com/grimoire-lang/grimoire/internal/lang/ast"
	"github.com/grimoire-lang/grimoire/internal/lang/importer"
	"github.com/grimoire-lang/grimoire/internal/lang/source"
	grimoireerrors "github.com/grimoire-lang/grimoire/pkg/errors"
)

// Options configures one Transform call.
type Options struct {
	// Loader resolves `import` declarations. May be nil for spells that
	// declare none.
	Loader importer.Loader
	// BaseDir is the directory the spell's own file lives in, against
	// which relative import paths resolve.
	BaseDir string
}

// Transformer holds the mutable state one Transform pass accumulates:
// the namespaced block registry, the asset decimals table unit-literal
// resolution needs, per-prefix step-id counters, the SpellSource being
// built, and any non-fatal ValidationErrors collected along the way
// (unknown unit symbols, spec §4.3.8).
type Transformer struct {
	loader        importer.Loader
	blocks        map[string]*ast.Block
	assetDecimals map[string]int
	counters      map[string]int
	out           *source.SpellSource
	errs          []error
}

// Transform lowers a parsed spell into its SpellSource record. The returned
// []error is the set of validation problems collected without aborting the
// pass (e.g. every unknown unit symbol used in the spell); the returned
// error is reserved for failures that leave SpellSource unusable (a
// malformed import, a missing trigger). Callers should treat a non-empty
// []error the same way ir.Generate's collected errors are treated: the
// compile failed, but every problem is reported at once.
func Transform(spell *ast.Spell, opts Options) (*source.SpellSource, []error, error) {
	tr := &Transformer{
		loader:        opts.Loader,
		blocks:        map[string]*ast.Block{},
		assetDecimals: map[string]int{},
		counters:      map[string]int{},
		out:           &source.SpellSource{Spell: spell.Name},
	}
	for _, b := range spell.Blocks {
		local := b
		tr.blocks[b.Name] = &local
	}
	if err := tr.collectImports(spell, opts.BaseDir, map[string]bool{}); err != nil {
		return nil, nil, err
	}
	tr.preScanAssets(spell)
	if err := tr.lowerSections(spell); err != nil {
		return nil, nil, err
	}
	if err := tr.lowerTriggers(spell); err != nil {
		return nil, nil, err
	}
	if len(tr.errs) > 0 {
		return nil, tr.errs, nil
	}
	return tr.out, nil, nil
}

// preScanAssets indexes each declared asset's decimals ahead of statement
// lowering, since unit-literal resolution (spec §4.3.8) needs an asset's
// decimals before it ever sees a use of that asset within an expression.
func (tr *Transformer) preScanAssets(spell *ast.Spell) {
	for _, sec := range spell.Sections {
		if sec.Kind != ast.SectionAssets {
			continue
		}
		for _, a := range sec.Assets {
			tr.assetDecimals[a.Symbol] = a.Decimals
		}
	}
}

func (tr *Transformer) nextID(prefix string) string {
	tr.counters[prefix]++
	return fmt.Sprintf("%s_%d", prefix, tr.counters[prefix])
}

func (tr *Transformer) loc(span ast.Span) *source.Location {
	return &source.Location{Line: span.Start.Line, Column: span.Start.Column}
}

// lowerSections flattens the fixed declaration sections into
// SpellSource's top-level maps, folding limits into params under a
// `limit_` prefix and venues into a flat alias→VenueRef map (spec §4.3
// item 4).
func (tr *Transformer) lowerSections(spell *ast.Spell) error {
	tr.out.Params = map[string]string{}
	tr.out.State = source.StateShape{}
	for _, sec := range spell.Sections {
		switch sec.Kind {
		case ast.SectionVersion:
			tr.out.Version = sec.StringValue
		case ast.SectionDescription:
			tr.out.Description = sec.StringValue
		case ast.SectionAssets:
			tr.out.Assets = tr.lowerAssets(sec.Assets)
		case ast.SectionParams:
			for _, p := range sec.Params {
				tr.out.Params[p.Name] = tr.fmt(p.Default)
			}
		case ast.SectionLimits:
			for _, l := range sec.Limits {
				tr.out.Params["limit_"+l.Name] = tr.fmt(l.Value)
			}
		case ast.SectionVenues:
			tr.out.Venues = tr.lowerVenues(sec.VenueGroups)
		case ast.SectionState:
			tr.lowerState(sec.StateScopes)
		case ast.SectionSkills:
			tr.out.Skills = tr.lowerSkills(sec.Skills)
		case ast.SectionAdvisors:
			tr.out.Advisors = tr.lowerAdvisors(sec.Advisors)
		case ast.SectionGuards:
			tr.out.Guards = tr.lowerGuards(sec.Guards)
		}
	}
	return nil
}

func (tr *Transformer) lowerAssets(decls []ast.AssetDecl) map[string]source.AssetRef {
	if len(decls) == 0 {
		return nil
	}
	out := make(map[string]source.AssetRef, len(decls))
	for _, a := range decls {
		out[a.Symbol] = source.AssetRef{Chain: a.Chain, Address: a.Address, Decimals: a.Decimals}
	}
	return out
}

func (tr *Transformer) lowerVenues(groups []ast.VenueGroup) map[string]source.VenueRef {
	out := map[string]source.VenueRef{}
	for _, g := range groups {
		for _, v := range g.Venues {
			out[v.Alias] = source.VenueRef{Chain: v.Chain, Address: v.Address, Label: g.Label}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (tr *Transformer) lowerState(scopes []ast.StateScope) {
	for _, scope := range scopes {
		target := &tr.out.State.Ephemeral
		if scope.Persistent {
			target = &tr.out.State.Persistent
		}
		if *target == nil {
			*target = map[string]string{}
		}
		for _, f := range scope.Fields {
			(*target)[f.Name] = tr.fmt(f.Initial)
		}
	}
}

func (tr *Transformer) lowerSkills(decls []ast.SkillDecl) map[string]source.SkillRef {
	if len(decls) == 0 {
		return nil
	}
	out := make(map[string]source.SkillRef, len(decls))
	for _, s := range decls {
		out[s.Name] = source.SkillRef{Adapter: s.Adapter, Config: tr.exprMapToStringMap(s.Config)}
	}
	return out
}

func (tr *Transformer) lowerAdvisors(decls []ast.AdvisorDecl) map[string]source.AdvisorRef {
	if len(decls) == 0 {
		return nil
	}
	out := make(map[string]source.AdvisorRef, len(decls))
	for _, a := range decls {
		out[a.Name] = source.AdvisorRef{Model: a.Model, Config: tr.exprMapToStringMap(a.Config)}
	}
	return out
}

func (tr *Transformer) lowerGuards(decls []ast.GuardDecl) []source.Guard {
	if len(decls) == 0 {
		return nil
	}
	out := make([]source.Guard, len(decls))
	for i, g := range decls {
		out[i] = source.Guard{
			Name:       g.Name,
			Check:      tr.fmt(g.Check),
			IsAdvisory: g.Check.Kind == ast.ExprAdvisory,
			Advisor:    g.Advisor,
			Severity:   string(g.Severity),
		}
	}
	return out
}

// lowerTriggers collapses a spell's `on` blocks into SpellSource's single
// Trigger field (spec §4.3 item 5): more than one trigger becomes an
// `Any` disjunction, and every trigger's statement body is lowered into
// the shared top-level step list in declaration order, since a spell's
// compiled steps are one flat sequence regardless of which trigger fired
// it.
func (tr *Transformer) lowerTriggers(spell *ast.Spell) error {
	if len(spell.Triggers) == 0 {
		return grimoireerrors.CompilationError{Code: "MISSING_TRIGGER", Message: "spell declares no `on` trigger"}
	}
	lowered := make([]source.Trigger, len(spell.Triggers))
	var lead string
	for i, t := range spell.Triggers {
		lowered[i] = tr.lowerTriggerShape(t)
		ids, err := tr.lowerStatements(t.Body, lead)
		if err != nil {
			return err
		}
		if len(ids) > 0 {
			lead = ids[len(ids)-1]
		}
	}
	if len(lowered) == 1 {
		tr.out.Trigger = lowered[0]
		return nil
	}
	tr.out.Trigger = source.Trigger{Any: lowered}
	return nil
}

func (tr *Transformer) lowerTriggerShape(t ast.Trigger) source.Trigger {
	switch t.Kind {
	case ast.TriggerHourly:
		return source.Trigger{Schedule: "0 * * * *"}
	case ast.TriggerDaily:
		return source.Trigger{Schedule: "0 0 * * *"}
	case ast.TriggerSchedule:
		return source.Trigger{Schedule: t.Cron}
	case ast.TriggerCondition:
		return source.Trigger{Condition: tr.fmt(t.Condition), PollInterval: t.PollInterval}
	case ast.TriggerEvent:
		return source.Trigger{EventName: t.EventName, FilterExpr: tr.formatOptional(t.FilterExpr)}
	default:
		return source.Trigger{}
	}
}
