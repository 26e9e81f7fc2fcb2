package parser

import (
	"github.com/grimoire-lang/grimoire/internal/lang/ast"
	"github.com/grimoire-lang/grimoire/internal/lang/token"
	grimoireerrors "github.com/grimoire-lang/grimoire/pkg/errors"
)

func (p *Parser) parseStatement() (ast.Statement, error) {
	cur := p.cur()
	if cur.Type == token.ADVISORY {
		return p.parseAdvisoryStatement()
	}
	if cur.Type == token.KEYWORD {
		switch cur.Value {
		case "if":
			return p.parseIf()
		case "for":
			return p.parseFor()
		case "repeat":
			return p.parseRepeat()
		case "until":
			return p.parseUntil()
		case "try":
			return p.parseTry()
		case "parallel":
			return p.parseParallel()
		case "do":
			return p.parseDo()
		case "atomic":
			return p.parseAtomic()
		case "emit":
			return p.parseEmit()
		case "halt":
			return p.parseHalt()
		case "wait":
			return p.parseWait()
		case "pass":
			return p.parsePass()
		}
	}
	return p.parseSimpleStatement()
}

func (p *Parser) parseAdvisoryStatement() (ast.Statement, error) {
	start := p.cur().Location
	tok := p.advance()
	if _, err := p.expectType(token.NEWLINE); err != nil {
		return ast.Statement{}, err
	}
	return ast.Statement{
		Kind:         ast.StmtAdvisory,
		AdvisoryText: ast.Expression{Kind: ast.ExprAdvisory, AdvisoryText: tok.Value},
		Span:         p.span(start),
	}, nil
}

func (p *Parser) parseIf() (ast.Statement, error) {
	start := p.cur().Location
	p.advance()
	cond, err := p.parseExpression()
	if err != nil {
		return ast.Statement{}, err
	}
	thenBody, err := p.parseBlockBody()
	if err != nil {
		return ast.Statement{}, err
	}
	var elifs []ast.ElifClause
	for p.isKeyword("elif") {
		eStart := p.cur().Location
		p.advance()
		econd, err := p.parseExpression()
		if err != nil {
			return ast.Statement{}, err
		}
		ebody, err := p.parseBlockBody()
		if err != nil {
			return ast.Statement{}, err
		}
		elifs = append(elifs, ast.ElifClause{Condition: econd, Body: ebody, Span: p.span(eStart)})
	}
	var elseBody []ast.Statement
	if p.isKeyword("else") {
		p.advance()
		elseBody, err = p.parseBlockBody()
		if err != nil {
			return ast.Statement{}, err
		}
	}
	return ast.Statement{
		Kind: ast.StmtIf, Condition: cond, ThenBody: thenBody, Elifs: elifs, ElseBody: elseBody,
		Span: p.span(start),
	}, nil
}

func (p *Parser) parseFor() (ast.Statement, error) {
	start := p.cur().Location
	p.advance()
	varTok, err := p.expectType(token.IDENTIFIER)
	if err != nil {
		return ast.Statement{}, err
	}
	if _, err := p.expectKeyword("in"); err != nil {
		return ast.Statement{}, err
	}
	source, err := p.parseExpression()
	if err != nil {
		return ast.Statement{}, err
	}
	body, err := p.parseBlockBody()
	if err != nil {
		return ast.Statement{}, err
	}
	return ast.Statement{Kind: ast.StmtFor, LoopVar: varTok.Value, Source: source, Body: body, Span: p.span(start)}, nil
}

func (p *Parser) parseRepeat() (ast.Statement, error) {
	start := p.cur().Location
	p.advance()
	count, err := p.parseExpression()
	if err != nil {
		return ast.Statement{}, err
	}
	body, err := p.parseBlockBody()
	if err != nil {
		return ast.Statement{}, err
	}
	return ast.Statement{Kind: ast.StmtRepeat, Count: count, Body: body, Span: p.span(start)}, nil
}

func (p *Parser) parseUntil() (ast.Statement, error) {
	start := p.cur().Location
	p.advance()
	cond, err := p.parseExpression()
	if err != nil {
		return ast.Statement{}, err
	}
	var maxIter ast.Expression
	if p.isKeyword("max") {
		p.advance()
		maxIter, err = p.parseExpression()
		if err != nil {
			return ast.Statement{}, err
		}
	}
	body, err := p.parseBlockBody()
	if err != nil {
		return ast.Statement{}, err
	}
	return ast.Statement{Kind: ast.StmtUntil, Condition: cond, MaxIterations: maxIter, Body: body, Span: p.span(start)}, nil
}

func (p *Parser) parseTry() (ast.Statement, error) {
	start := p.cur().Location
	p.advance()
	tryBody, err := p.parseBlockBody()
	if err != nil {
		return ast.Statement{}, err
	}
	var catches []ast.CatchClause
	for p.isKeyword("catch") {
		catch, err := p.parseCatch()
		if err != nil {
			return ast.Statement{}, err
		}
		catches = append(catches, *catch)
	}
	if len(catches) == 0 {
		cur := p.cur()
		return ast.Statement{}, grimoireerrors.NewParseError(cur.Location, cur.Value, "at least one catch clause")
	}
	var finallyBody []ast.Statement
	if p.isKeyword("finally") {
		p.advance()
		finallyBody, err = p.parseBlockBody()
		if err != nil {
			return ast.Statement{}, err
		}
	}
	return ast.Statement{Kind: ast.StmtTry, TryBody: tryBody, Catches: catches, FinallyBody: finallyBody, Span: p.span(start)}, nil
}

func (p *Parser) parseCatch() (*ast.CatchClause, error) {
	start := p.cur().Location
	p.advance() // catch
	// revert is not a reserved word, so it arrives as an IDENTIFIER.
	isAction := func(t token.Token) bool {
		return (t.Type == token.KEYWORD || t.Type == token.IDENTIFIER) && catchActions[t.Value]
	}
	errType := "*"
	if p.cur().Type == token.OPERATOR && p.cur().Value == "*" {
		p.advance()
	} else if (p.cur().Type == token.IDENTIFIER || p.cur().Type == token.STRING) && !(isAction(p.cur()) && !isAction(p.peek(1))) {
		errType = p.advance().Value
	}
	cur := p.cur()
	if !isAction(cur) {
		return nil, grimoireerrors.NewParseError(cur.Location, cur.Value, "skip, halt, revert, or retry")
	}
	action := p.advance().Value
	var retry *ast.RetrySpec
	var err error
	if action == "retry" && p.cur().Type == token.LPAREN {
		retry, err = p.parseRetrySpec()
		if err != nil {
			return nil, err
		}
	}
	body, err := p.parseBlockBody()
	if err != nil {
		return nil, err
	}
	return &ast.CatchClause{ErrorType: errType, Action: action, Steps: body, Retry: retry, Span: p.span(start)}, nil
}

func (p *Parser) parseRetrySpec() (*ast.RetrySpec, error) {
	spec := &ast.RetrySpec{MaxAttempts: 3, Backoff: "none"}
	p.advance() // (
	for p.cur().Type != token.RPAREN {
		keyTok, err := p.expectType(token.IDENTIFIER)
		if err != nil {
			return nil, err
		}
		if _, err := p.expectType(token.ASSIGN); err != nil {
			return nil, err
		}
		val, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		switch keyTok.Value {
		case "max_attempts":
			spec.MaxAttempts = literalInt(val)
		case "backoff":
			spec.Backoff = literalString(val)
		case "backoff_base":
			spec.BackoffBase = val.NumberValue
		case "max_backoff":
			spec.MaxBackoff = val.NumberValue
		}
		if p.cur().Type == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expectType(token.RPAREN); err != nil {
		return nil, err
	}
	return spec, nil
}

func (p *Parser) parseParallel() (ast.Statement, error) {
	start := p.cur().Location
	p.advance()
	kwargs := map[string]ast.Expression{}
	for p.cur().Type != token.COLON {
		keyTok := p.advance()
		if keyTok.Type != token.IDENTIFIER && keyTok.Type != token.KEYWORD {
			return ast.Statement{}, grimoireerrors.NewParseError(keyTok.Location, keyTok.Type.String(), "parallel option name")
		}
		if _, err := p.expectType(token.ASSIGN); err != nil {
			return ast.Statement{}, err
		}
		val, err := p.parseExpression()
		if err != nil {
			return ast.Statement{}, err
		}
		kwargs[keyTok.Value] = val
		if p.cur().Type == token.COMMA {
			p.advance()
		}
	}
	if _, err := p.expectType(token.COLON); err != nil {
		return ast.Statement{}, err
	}
	if _, err := p.expectType(token.NEWLINE); err != nil {
		return ast.Statement{}, err
	}
	if _, err := p.expectType(token.INDENT); err != nil {
		return ast.Statement{}, err
	}
	var branches []ast.ParallelBranch
	for p.cur().Type != token.DEDENT {
		bStart := p.cur().Location
		nameTok, err := p.expectType(token.IDENTIFIER)
		if err != nil {
			return ast.Statement{}, err
		}
		body, err := p.parseBlockBody()
		if err != nil {
			return ast.Statement{}, err
		}
		branches = append(branches, ast.ParallelBranch{Name: nameTok.Value, Body: body, Span: p.span(bStart)})
	}
	if _, err := p.expectType(token.DEDENT); err != nil {
		return ast.Statement{}, err
	}

	mode := literalString(kwargs["join"])
	if mode == "" {
		mode = "all"
	}
	join := &ast.JoinSpec{Mode: mode, Order: literalString(kwargs["order"])}
	if mode == "any" {
		join.Count = literalInt(kwargs["count"])
	}
	if mode == "best" {
		if metric, ok := kwargs["metric"]; ok {
			join.Metric = metric
		}
	}
	onFail := literalString(kwargs["on_fail"])
	if onFail == "" {
		onFail = "abort"
	}
	return ast.Statement{Kind: ast.StmtParallel, Branches: branches, Join: join, OnFail: onFail, Span: p.span(start)}, nil
}

func (p *Parser) parseDo() (ast.Statement, error) {
	start := p.cur().Location
	p.advance()
	nameTok, err := p.expectType(token.IDENTIFIER)
	if err != nil {
		return ast.Statement{}, err
	}
	if _, err := p.expectType(token.LPAREN); err != nil {
		return ast.Statement{}, err
	}
	var args []ast.Expression
	for p.cur().Type != token.RPAREN {
		arg, err := p.parseExpression()
		if err != nil {
			return ast.Statement{}, err
		}
		args = append(args, arg)
		if p.cur().Type == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expectType(token.RPAREN); err != nil {
		return ast.Statement{}, err
	}
	if _, err := p.expectType(token.NEWLINE); err != nil {
		return ast.Statement{}, err
	}
	return ast.Statement{Kind: ast.StmtDo, BlockName: nameTok.Value, Args: args, Span: p.span(start)}, nil
}

func (p *Parser) parseAtomic() (ast.Statement, error) {
	start := p.cur().Location
	p.advance()
	mode := "revert"
	if (p.cur().Type == token.KEYWORD || p.cur().Type == token.IDENTIFIER) && atomicModes[p.cur().Value] {
		mode = p.advance().Value
	}
	body, err := p.parseBlockBody()
	if err != nil {
		return ast.Statement{}, err
	}
	return ast.Statement{Kind: ast.StmtAtomic, AtomicMode: mode, AtomicBody: body, Span: p.span(start)}, nil
}

func (p *Parser) parseEmit() (ast.Statement, error) {
	start := p.cur().Location
	p.advance()
	nameTok, err := p.expectType(token.IDENTIFIER)
	if err != nil {
		return ast.Statement{}, err
	}
	data := map[string]ast.Expression{}
	if p.cur().Type == token.COLON {
		p.advance()
		if err := p.parseIndentedBlockHeader(); err != nil {
			return ast.Statement{}, err
		}
		data, err = p.parseFlatKVExprs()
		if err != nil {
			return ast.Statement{}, err
		}
		if _, err := p.expectType(token.DEDENT); err != nil {
			return ast.Statement{}, err
		}
	} else {
		if _, err := p.expectType(token.NEWLINE); err != nil {
			return ast.Statement{}, err
		}
	}
	return ast.Statement{Kind: ast.StmtEmit, EventName: nameTok.Value, EmitData: data, Span: p.span(start)}, nil
}

func (p *Parser) parseHalt() (ast.Statement, error) {
	start := p.cur().Location
	p.advance()
	var reason ast.Expression
	if p.cur().Type != token.NEWLINE {
		var err error
		reason, err = p.parseExpression()
		if err != nil {
			return ast.Statement{}, err
		}
	}
	if _, err := p.expectType(token.NEWLINE); err != nil {
		return ast.Statement{}, err
	}
	return ast.Statement{Kind: ast.StmtHalt, Reason: reason, Span: p.span(start)}, nil
}

func (p *Parser) parseWait() (ast.Statement, error) {
	start := p.cur().Location
	p.advance()
	dur, err := p.parseExpression()
	if err != nil {
		return ast.Statement{}, err
	}
	if _, err := p.expectType(token.NEWLINE); err != nil {
		return ast.Statement{}, err
	}
	return ast.Statement{Kind: ast.StmtWait, Duration: dur, Span: p.span(start)}, nil
}

func (p *Parser) parsePass() (ast.Statement, error) {
	start := p.cur().Location
	p.advance()
	if _, err := p.expectType(token.NEWLINE); err != nil {
		return ast.Statement{}, err
	}
	return ast.Statement{Kind: ast.StmtPass, Span: p.span(start)}, nil
}

func (p *Parser) parseAdviseRHS() (ast.Statement, error) {
	start := p.cur().Location
	p.advance() // advise
	advisorTok, err := p.expectType(token.IDENTIFIER)
	if err != nil {
		return ast.Statement{}, err
	}
	if _, err := p.expectType(token.COLON); err != nil {
		return ast.Statement{}, err
	}
	prompt, err := p.parseExpression()
	if err != nil {
		return ast.Statement{}, err
	}
	if err := p.parseIndentedBlockHeader(); err != nil {
		return ast.Statement{}, err
	}
	fields, err := p.parseFlatKVExprs()
	if err != nil {
		return ast.Statement{}, err
	}
	if _, err := p.expectType(token.DEDENT); err != nil {
		return ast.Statement{}, err
	}
	outputSchema, hasOutput := fields["output"]
	timeout, hasTimeout := fields["timeout"]
	fallback, hasFallback := fields["fallback"]
	if !hasOutput || !hasTimeout || !hasFallback {
		cur := p.cur()
		return ast.Statement{}, grimoireerrors.NewParseError(cur.Location, "incomplete advise block", "output, timeout, and fallback")
	}
	return ast.Statement{
		Kind: ast.StmtAdvise, Advisor: advisorTok.Value, Prompt: prompt,
		OutputSchema: outputSchema, Timeout: timeout, Fallback: fallback,
		Span: p.span(start),
	}, nil
}

// parseSimpleStatement handles assignment, method_call, and pipeline
// statements, which all begin with an expression and are disambiguated by
// what follows it.
func (p *Parser) parseSimpleStatement() (ast.Statement, error) {
	start := p.cur().Location

	if p.cur().Type == token.IDENTIFIER && p.peek(1).Type == token.ASSIGN {
		target := p.advance().Value
		p.advance() // =
		if p.isKeyword("advise") {
			return p.parseAdviseRHS()
		}
		rhs, err := p.parseExpression()
		if err != nil {
			return ast.Statement{}, err
		}
		if rhs.Kind == ast.ExprCall && rhs.Callee != nil && rhs.Callee.Kind == ast.ExprPropertyAccess {
			stmt, err := p.finishMethodCall(rhs, target)
			if err != nil {
				return ast.Statement{}, err
			}
			stmt.Span = p.span(start)
			return stmt, nil
		}
		if _, err := p.expectType(token.NEWLINE); err != nil {
			return ast.Statement{}, err
		}
		return ast.Statement{Kind: ast.StmtAssignment, Target: target, Value: rhs, Span: p.span(start)}, nil
	}

	lead, err := p.parseExpression()
	if err != nil {
		return ast.Statement{}, err
	}

	if p.cur().Type == token.OPERATOR && p.cur().Value == "|" {
		return p.parsePipelineStatement(lead, start)
	}

	if lead.Kind == ast.ExprCall && lead.Callee != nil && lead.Callee.Kind == ast.ExprPropertyAccess {
		stmt, err := p.finishMethodCall(lead, "")
		if err != nil {
			return ast.Statement{}, err
		}
		stmt.Span = p.span(start)
		return stmt, nil
	}

	cur := p.cur()
	return ast.Statement{}, grimoireerrors.NewParseError(cur.Location, cur.Type.String(), "assignment, method call, or pipeline statement")
}

// finishMethodCall wraps a parsed `obj.method(args)` call expression into a
// method_call statement, consuming optional `using`/`with` trailers.
func (p *Parser) finishMethodCall(call ast.Expression, target string) (ast.Statement, error) {
	prop := call.Callee
	stmt := ast.Statement{
		Kind:     ast.StmtMethodCall,
		Target:   target,
		Receiver: *prop.Object,
		Method:   prop.Property,
		CallArgs: call.Args,
	}
	if p.isKeyword("using") {
		p.advance()
		skillTok, err := p.expectType(token.IDENTIFIER)
		if err != nil {
			return ast.Statement{}, err
		}
		stmt.UsingSkill = skillTok.Value
	}
	if p.isKeyword("with") {
		p.advance()
		with, err := p.parseWithTrailer()
		if err != nil {
			return ast.Statement{}, err
		}
		stmt.With = with
	}
	if _, err := p.expectType(token.NEWLINE); err != nil {
		return ast.Statement{}, err
	}
	return stmt, nil
}

func (p *Parser) parseWithTrailer() (map[string]ast.Expression, error) {
	m := map[string]ast.Expression{}
	for {
		keyTok, err := p.expectType(token.IDENTIFIER)
		if err != nil {
			return nil, err
		}
		if _, err := p.expectType(token.ASSIGN); err != nil {
			return nil, err
		}
		val, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		m[keyTok.Value] = val
		if p.cur().Type == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	return m, nil
}

