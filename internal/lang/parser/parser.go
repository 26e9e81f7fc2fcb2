// Package parser implements Grimoire's recursive-descent parser (spec
// §4.2): a flat token stream in, a Spell AST out, one token of lookahead.
package parser

import (
	"strconv"

	"github.com/grimoire-lang/grimoire/internal/lang/ast"
	"github.com/grimoire-lang/grimoire/internal/lang/token"
	grimoireerrors "github.com/grimoire-lang/grimoire/pkg/errors"
)

var sectionKeywords = map[string]ast.SectionKind{
	"version":     ast.SectionVersion,
	"description": ast.SectionDescription,
	"assets":      ast.SectionAssets,
	"params":      ast.SectionParams,
	"limits":      ast.SectionLimits,
	"venues":      ast.SectionVenues,
	"state":       ast.SectionState,
	"skills":      ast.SectionSkills,
	"advisors":    ast.SectionAdvisors,
	"guards":      ast.SectionGuards,
}

var stageKeywords = map[string]ast.PipelineStageOp{
	"map":    ast.StageMap,
	"pmap":   ast.StagePMap,
	"filter": ast.StageFilter,
	"where":  ast.StageFilter,
	"reduce": ast.StageReduce,
	"take":   ast.StageTake,
	"skip":   ast.StageSkip,
	"sort":   ast.StageSort,
}

var atomicModes = map[string]bool{"skip": true, "halt": true, "revert": true}
var catchActions = map[string]bool{"skip": true, "halt": true, "revert": true, "retry": true}

// Parser consumes a token slice produced by the lexer and builds a Spell
// AST by recursive descent.
type Parser struct {
	tokens []token.Token
	pos    int
}

// New constructs a Parser over a complete token stream.
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse parses a full token stream into a Spell AST.
func Parse(tokens []token.Token) (*ast.Spell, error) {
	return New(tokens).ParseSpell()
}

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos]
}

func (p *Parser) peek(n int) token.Token {
	idx := p.pos + n
	if idx >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[idx]
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) isKeyword(word string) bool {
	t := p.cur()
	return t.Type == token.KEYWORD && t.Value == word
}

func (p *Parser) expectType(t token.Type) (token.Token, error) {
	cur := p.cur()
	if cur.Type != t {
		return token.Token{}, grimoireerrors.NewParseError(cur.Location, cur.Type.String()+" \""+cur.Value+"\"", t.String())
	}
	return p.advance(), nil
}

func (p *Parser) expectKeyword(word string) (token.Token, error) {
	cur := p.cur()
	if cur.Type != token.KEYWORD || cur.Value != word {
		return token.Token{}, grimoireerrors.NewParseError(cur.Location, cur.Type.String()+" \""+cur.Value+"\"", "keyword \""+word+"\"")
	}
	return p.advance(), nil
}

func (p *Parser) span(start grimoireerrors.Location) ast.Span {
	return ast.Span{Start: start, End: p.cur().Location}
}

// ParseSpell parses the top-level `spell <Identifier>` block.
func (p *Parser) ParseSpell() (*ast.Spell, error) {
	start := p.cur().Location
	if _, err := p.expectKeyword("spell"); err != nil {
		return nil, err
	}
	nameTok, err := p.expectType(token.IDENTIFIER)
	if err != nil {
		return nil, err
	}
	if _, err := p.expectType(token.NEWLINE); err != nil {
		return nil, err
	}
	if _, err := p.expectType(token.INDENT); err != nil {
		return nil, err
	}

	spell := &ast.Spell{Name: nameTok.Value}
	for p.cur().Type != token.DEDENT && p.cur().Type != token.EOF {
		if err := p.parseTopItem(spell); err != nil {
			return nil, err
		}
	}
	if _, err := p.expectType(token.DEDENT); err != nil {
		return nil, err
	}
	spell.Span = p.span(start)
	return spell, nil
}

func (p *Parser) parseTopItem(spell *ast.Spell) error {
	cur := p.cur()
	if cur.Type != token.KEYWORD {
		return grimoireerrors.NewParseError(cur.Location, cur.Type.String()+" \""+cur.Value+"\"", "import, block, on, or a section keyword")
	}
	switch cur.Value {
	case "import":
		imp, err := p.parseImport()
		if err != nil {
			return err
		}
		spell.Imports = append(spell.Imports, *imp)
	case "block":
		blk, err := p.parseBlockDecl()
		if err != nil {
			return err
		}
		spell.Blocks = append(spell.Blocks, *blk)
	case "on":
		trig, err := p.parseTrigger()
		if err != nil {
			return err
		}
		spell.Triggers = append(spell.Triggers, *trig)
	default:
		if kind, ok := sectionKeywords[cur.Value]; ok {
			sec, err := p.parseSection(kind)
			if err != nil {
				return err
			}
			spell.Sections = append(spell.Sections, *sec)
			return nil
		}
		return grimoireerrors.NewParseError(cur.Location, "keyword \""+cur.Value+"\"", "import, block, on, or a section keyword")
	}
	return nil
}

func (p *Parser) parseImport() (*ast.Import, error) {
	start := p.cur().Location
	if _, err := p.expectKeyword("import"); err != nil {
		return nil, err
	}
	pathTok, err := p.expectType(token.STRING)
	if err != nil {
		return nil, err
	}
	alias := ""
	if p.isKeyword("as") {
		p.advance()
		aliasTok, err := p.expectType(token.IDENTIFIER)
		if err != nil {
			return nil, err
		}
		alias = aliasTok.Value
	}
	if _, err := p.expectType(token.NEWLINE); err != nil {
		return nil, err
	}
	return &ast.Import{Path: pathTok.Value, Alias: alias, Span: p.span(start)}, nil
}

func (p *Parser) parseBlockDecl() (*ast.Block, error) {
	start := p.cur().Location
	if _, err := p.expectKeyword("block"); err != nil {
		return nil, err
	}
	nameTok, err := p.expectType(token.IDENTIFIER)
	if err != nil {
		return nil, err
	}
	if _, err := p.expectType(token.LPAREN); err != nil {
		return nil, err
	}
	var params []string
	for p.cur().Type != token.RPAREN {
		pTok, err := p.expectType(token.IDENTIFIER)
		if err != nil {
			return nil, err
		}
		params = append(params, pTok.Value)
		if p.cur().Type == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expectType(token.RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseBlockBody()
	if err != nil {
		return nil, err
	}
	return &ast.Block{Name: nameTok.Value, Params: params, Body: body, Span: p.span(start)}, nil
}

// parseBlockBody parses the uniform `: NEWLINE INDENT stmt+ DEDENT` shape.
func (p *Parser) parseBlockBody() ([]ast.Statement, error) {
	if _, err := p.expectType(token.COLON); err != nil {
		return nil, err
	}
	if _, err := p.expectType(token.NEWLINE); err != nil {
		return nil, err
	}
	if _, err := p.expectType(token.INDENT); err != nil {
		return nil, err
	}
	body, err := p.parseStatements()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectType(token.DEDENT); err != nil {
		return nil, err
	}
	return body, nil
}

func (p *Parser) parseStatements() ([]ast.Statement, error) {
	var stmts []ast.Statement
	for p.cur().Type != token.DEDENT && p.cur().Type != token.EOF {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

// --- Sections ---

func (p *Parser) parseSection(kind ast.SectionKind) (*ast.Section, error) {
	start := p.cur().Location
	p.advance() // section keyword
	if _, err := p.expectType(token.COLON); err != nil {
		return nil, err
	}
	sec := &ast.Section{Kind: kind}
	var err error
	switch kind {
	case ast.SectionVersion, ast.SectionDescription:
		var expr ast.Expression
		expr, err = p.parseExpression()
		if err == nil {
			sec.StringValue = literalString(expr)
			_, err = p.expectType(token.NEWLINE)
		}
	case ast.SectionAssets:
		sec.Assets, err = p.parseAssetsSection()
	case ast.SectionParams:
		sec.Params, err = p.parseParamsSection()
	case ast.SectionLimits:
		sec.Limits, err = p.parseLimitsSection()
	case ast.SectionVenues:
		sec.VenueGroups, err = p.parseVenuesSection()
	case ast.SectionState:
		sec.StateScopes, err = p.parseStateSection()
	case ast.SectionSkills:
		sec.Skills, err = p.parseSkillsSection()
	case ast.SectionAdvisors:
		sec.Advisors, err = p.parseAdvisorsSection()
	case ast.SectionGuards:
		sec.Guards, err = p.parseGuardsSection()
	}
	if err != nil {
		return nil, err
	}
	sec.Span = p.span(start)
	return sec, nil
}

func literalString(e ast.Expression) string {
	if e.Kind == ast.ExprLiteral {
		return e.StringValue
	}
	if e.Kind == ast.ExprIdentifier {
		return e.Name
	}
	return ""
}

func literalInt(e ast.Expression) int {
	if e.Kind == ast.ExprLiteral && e.LiteralKind == ast.LiteralNumber {
		return int(e.NumberValue)
	}
	if e.Kind == ast.ExprUnitLiteral {
		return int(e.UnitAmount)
	}
	return 0
}

// parseIndentedBlockHeader consumes the common `NEWLINE INDENT` opener
// shared by every indented section body.
func (p *Parser) parseIndentedBlockHeader() error {
	if _, err := p.expectType(token.NEWLINE); err != nil {
		return err
	}
	_, err := p.expectType(token.INDENT)
	return err
}

// parseFlatKVExprs parses `key: expr NEWLINE` lines until DEDENT, without
// consuming the DEDENT itself.
func (p *Parser) parseFlatKVExprs() (map[string]ast.Expression, error) {
	fields := map[string]ast.Expression{}
	for p.cur().Type != token.DEDENT && p.cur().Type != token.EOF {
		keyTok := p.advance()
		if keyTok.Type != token.IDENTIFIER && keyTok.Type != token.KEYWORD {
			return nil, grimoireerrors.NewParseError(keyTok.Location, keyTok.Type.String(), "field name")
		}
		if _, err := p.expectType(token.COLON); err != nil {
			return nil, err
		}
		val, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectType(token.NEWLINE); err != nil {
			return nil, err
		}
		fields[keyTok.Value] = val
	}
	return fields, nil
}

func (p *Parser) parseAssetsSection() ([]ast.AssetDecl, error) {
	if err := p.parseIndentedBlockHeader(); err != nil {
		return nil, err
	}
	var decls []ast.AssetDecl
	for p.cur().Type != token.DEDENT {
		start := p.cur().Location
		symTok, err := p.expectType(token.IDENTIFIER)
		if err != nil {
			return nil, err
		}
		if _, err := p.expectType(token.COLON); err != nil {
			return nil, err
		}
		if err := p.parseIndentedBlockHeader(); err != nil {
			return nil, err
		}
		fields, err := p.parseFlatKVExprs()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectType(token.DEDENT); err != nil {
			return nil, err
		}
		decls = append(decls, ast.AssetDecl{
			Symbol:   symTok.Value,
			Chain:    literalString(fields["chain"]),
			Address:  literalString(fields["address"]),
			Decimals: literalInt(fields["decimals"]),
			Span:     p.span(start),
		})
	}
	if _, err := p.expectType(token.DEDENT); err != nil {
		return nil, err
	}
	return decls, nil
}

func (p *Parser) parseParamsSection() ([]ast.ParamDecl, error) {
	if err := p.parseIndentedBlockHeader(); err != nil {
		return nil, err
	}
	var decls []ast.ParamDecl
	for p.cur().Type != token.DEDENT {
		start := p.cur().Location
		nameTok := p.advance()
		if nameTok.Type != token.IDENTIFIER && nameTok.Type != token.KEYWORD {
			return nil, grimoireerrors.NewParseError(nameTok.Location, nameTok.Type.String(), "param name")
		}
		if _, err := p.expectType(token.COLON); err != nil {
			return nil, err
		}
		val, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectType(token.NEWLINE); err != nil {
			return nil, err
		}
		decls = append(decls, ast.ParamDecl{Name: nameTok.Value, Default: val, Span: p.span(start)})
	}
	if _, err := p.expectType(token.DEDENT); err != nil {
		return nil, err
	}
	return decls, nil
}

func (p *Parser) parseLimitsSection() ([]ast.LimitDecl, error) {
	if err := p.parseIndentedBlockHeader(); err != nil {
		return nil, err
	}
	var decls []ast.LimitDecl
	for p.cur().Type != token.DEDENT {
		start := p.cur().Location
		nameTok, err := p.expectType(token.IDENTIFIER)
		if err != nil {
			return nil, err
		}
		if _, err := p.expectType(token.COLON); err != nil {
			return nil, err
		}
		val, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectType(token.NEWLINE); err != nil {
			return nil, err
		}
		decls = append(decls, ast.LimitDecl{Name: nameTok.Value, Value: val, Span: p.span(start)})
	}
	if _, err := p.expectType(token.DEDENT); err != nil {
		return nil, err
	}
	return decls, nil
}

func (p *Parser) parseVenuesSection() ([]ast.VenueGroup, error) {
	if err := p.parseIndentedBlockHeader(); err != nil {
		return nil, err
	}
	var groups []ast.VenueGroup
	for p.cur().Type != token.DEDENT {
		gStart := p.cur().Location
		labelTok, err := p.expectType(token.IDENTIFIER)
		if err != nil {
			return nil, err
		}
		if _, err := p.expectType(token.COLON); err != nil {
			return nil, err
		}
		if err := p.parseIndentedBlockHeader(); err != nil {
			return nil, err
		}
		var venues []ast.VenueDecl
		for p.cur().Type != token.DEDENT {
			vStart := p.cur().Location
			aliasTok, err := p.expectType(token.IDENTIFIER)
			if err != nil {
				return nil, err
			}
			if _, err := p.expectType(token.COLON); err != nil {
				return nil, err
			}
			if err := p.parseIndentedBlockHeader(); err != nil {
				return nil, err
			}
			fields, err := p.parseFlatKVExprs()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectType(token.DEDENT); err != nil {
				return nil, err
			}
			venues = append(venues, ast.VenueDecl{
				Alias:   aliasTok.Value,
				Chain:   literalString(fields["chain"]),
				Address: literalString(fields["address"]),
				Span:    p.span(vStart),
			})
		}
		if _, err := p.expectType(token.DEDENT); err != nil {
			return nil, err
		}
		groups = append(groups, ast.VenueGroup{Label: labelTok.Value, Venues: venues, Span: p.span(gStart)})
	}
	if _, err := p.expectType(token.DEDENT); err != nil {
		return nil, err
	}
	return groups, nil
}

func (p *Parser) parseStateSection() ([]ast.StateScope, error) {
	if err := p.parseIndentedBlockHeader(); err != nil {
		return nil, err
	}
	var scopes []ast.StateScope
	for p.cur().Type != token.DEDENT {
		start := p.cur().Location
		var persistent bool
		switch {
		case p.isKeyword("persistent"):
			persistent = true
			p.advance()
		case p.isKeyword("ephemeral"):
			persistent = false
			p.advance()
		default:
			cur := p.cur()
			return nil, grimoireerrors.NewParseError(cur.Location, cur.Value, "\"persistent\" or \"ephemeral\"")
		}
		if _, err := p.expectType(token.COLON); err != nil {
			return nil, err
		}
		if err := p.parseIndentedBlockHeader(); err != nil {
			return nil, err
		}
		var fields []ast.StateField
		for p.cur().Type != token.DEDENT {
			fStart := p.cur().Location
			nameTok, err := p.expectType(token.IDENTIFIER)
			if err != nil {
				return nil, err
			}
			if _, err := p.expectType(token.COLON); err != nil {
				return nil, err
			}
			val, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectType(token.NEWLINE); err != nil {
				return nil, err
			}
			fields = append(fields, ast.StateField{Name: nameTok.Value, Initial: val, Span: p.span(fStart)})
		}
		if _, err := p.expectType(token.DEDENT); err != nil {
			return nil, err
		}
		scopes = append(scopes, ast.StateScope{Persistent: persistent, Fields: fields, Span: p.span(start)})
	}
	if _, err := p.expectType(token.DEDENT); err != nil {
		return nil, err
	}
	return scopes, nil
}

func (p *Parser) parseSkillsSection() ([]ast.SkillDecl, error) {
	if err := p.parseIndentedBlockHeader(); err != nil {
		return nil, err
	}
	var decls []ast.SkillDecl
	for p.cur().Type != token.DEDENT {
		start := p.cur().Location
		nameTok, err := p.expectType(token.IDENTIFIER)
		if err != nil {
			return nil, err
		}
		if _, err := p.expectType(token.COLON); err != nil {
			return nil, err
		}
		if err := p.parseIndentedBlockHeader(); err != nil {
			return nil, err
		}
		fields, err := p.parseFlatKVExprs()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectType(token.DEDENT); err != nil {
			return nil, err
		}
		adapter := literalString(fields["adapter"])
		delete(fields, "adapter")
		decls = append(decls, ast.SkillDecl{Name: nameTok.Value, Adapter: adapter, Config: fields, Span: p.span(start)})
	}
	if _, err := p.expectType(token.DEDENT); err != nil {
		return nil, err
	}
	return decls, nil
}

func (p *Parser) parseAdvisorsSection() ([]ast.AdvisorDecl, error) {
	if err := p.parseIndentedBlockHeader(); err != nil {
		return nil, err
	}
	var decls []ast.AdvisorDecl
	for p.cur().Type != token.DEDENT {
		start := p.cur().Location
		nameTok, err := p.expectType(token.IDENTIFIER)
		if err != nil {
			return nil, err
		}
		if _, err := p.expectType(token.COLON); err != nil {
			return nil, err
		}
		if err := p.parseIndentedBlockHeader(); err != nil {
			return nil, err
		}
		fields, err := p.parseFlatKVExprs()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectType(token.DEDENT); err != nil {
			return nil, err
		}
		model := literalString(fields["model"])
		delete(fields, "model")
		decls = append(decls, ast.AdvisorDecl{Name: nameTok.Value, Model: model, Config: fields, Span: p.span(start)})
	}
	if _, err := p.expectType(token.DEDENT); err != nil {
		return nil, err
	}
	return decls, nil
}

func (p *Parser) parseGuardsSection() ([]ast.GuardDecl, error) {
	if err := p.parseIndentedBlockHeader(); err != nil {
		return nil, err
	}
	var decls []ast.GuardDecl
	for p.cur().Type != token.DEDENT {
		start := p.cur().Location
		nameTok, err := p.expectType(token.IDENTIFIER)
		if err != nil {
			return nil, err
		}
		if _, err := p.expectType(token.COLON); err != nil {
			return nil, err
		}
		if err := p.parseIndentedBlockHeader(); err != nil {
			return nil, err
		}
		fields, err := p.parseFlatKVExprs()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectType(token.DEDENT); err != nil {
			return nil, err
		}
		check := fields["check"]
		severity := ast.GuardSeverity(literalString(fields["severity"]))
		if severity == "" {
			severity = ast.SeverityWarn
		}
		decls = append(decls, ast.GuardDecl{
			Name:       nameTok.Value,
			Check:      check,
			IsAdvisory: check.Kind == ast.ExprAdvisory,
			Advisor:    literalString(fields["advisor"]),
			Severity:   severity,
			Span:       p.span(start),
		})
	}
	if _, err := p.expectType(token.DEDENT); err != nil {
		return nil, err
	}
	return decls, nil
}

// --- Triggers ---

func (p *Parser) parseTrigger() (*ast.Trigger, error) {
	start := p.cur().Location
	if _, err := p.expectKeyword("on"); err != nil {
		return nil, err
	}
	trig := &ast.Trigger{}
	switch {
	case p.isKeyword("manual"):
		p.advance()
		trig.Kind = ast.TriggerManual
	case p.isKeyword("hourly"):
		p.advance()
		trig.Kind = ast.TriggerHourly
	case p.isKeyword("daily"):
		p.advance()
		trig.Kind = ast.TriggerDaily
	case p.isKeyword("condition"):
		p.advance()
		cond, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		trig.Kind = ast.TriggerCondition
		trig.Condition = cond
		if p.cur().Type == token.IDENTIFIER && p.cur().Value == "every" {
			p.advance()
			nTok, err := p.expectType(token.NUMBER)
			if err != nil {
				return nil, err
			}
			n, _ := strconv.ParseFloat(nTok.Value, 64)
			trig.PollInterval = int(n)
		}
	case p.isKeyword("event"):
		p.advance()
		nameTok, err := p.expectType(token.IDENTIFIER)
		if err != nil {
			return nil, err
		}
		trig.Kind = ast.TriggerEvent
		trig.EventName = nameTok.Value
		if p.isKeyword("where") {
			p.advance()
			filt, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			trig.FilterExpr = filt
		}
	case p.cur().Type == token.STRING:
		tok := p.advance()
		trig.Kind = ast.TriggerSchedule
		trig.Cron = tok.Value
	default:
		cur := p.cur()
		return nil, grimoireerrors.NewParseError(cur.Location, cur.Value, "manual, hourly, daily, condition, event, or a cron string")
	}
	body, err := p.parseBlockBody()
	if err != nil {
		return nil, err
	}
	trig.Body = body
	trig.Span = p.span(start)
	return trig, nil
}
