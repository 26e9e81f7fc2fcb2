package parser

import (
	"strconv"

	"github.com/grimoire-lang/grimoire/internal/lang/ast"
	"github.com/grimoire-lang/grimoire/internal/lang/token"
	grimoireerrors "github.com/grimoire-lang/grimoire/pkg/errors"
)

// parseExpression is the entry point for the full precedence ladder
// (spec §4.2): ternary → or → and → equality → comparison → additive →
// multiplicative → unary → postfix → primary.
func (p *Parser) parseExpression() (ast.Expression, error) {
	return p.parseTernary()
}

func (p *Parser) parseTernary() (ast.Expression, error) {
	start := p.cur().Location
	cond, err := p.parseOr()
	if err != nil {
		return ast.Expression{}, err
	}
	if p.cur().Type != token.QUESTION {
		return cond, nil
	}
	p.advance()
	thenExpr, err := p.parseExpression()
	if err != nil {
		return ast.Expression{}, err
	}
	if _, err := p.expectType(token.COLON); err != nil {
		return ast.Expression{}, err
	}
	elseExpr, err := p.parseExpression()
	if err != nil {
		return ast.Expression{}, err
	}
	return ast.Expression{
		Kind: ast.ExprTernary, TernaryCond: &cond, TernaryThen: &thenExpr, TernaryElse: &elseExpr,
		Span: p.span(start),
	}, nil
}

func (p *Parser) parseOr() (ast.Expression, error) {
	start := p.cur().Location
	left, err := p.parseAnd()
	if err != nil {
		return ast.Expression{}, err
	}
	for p.isKeyword("or") {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return ast.Expression{}, err
		}
		left = ast.Expression{Kind: ast.ExprBinary, Left: &left, Operator: "or", Right: &right, Span: p.span(start)}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expression, error) {
	start := p.cur().Location
	left, err := p.parseEquality()
	if err != nil {
		return ast.Expression{}, err
	}
	for p.isKeyword("and") {
		p.advance()
		right, err := p.parseEquality()
		if err != nil {
			return ast.Expression{}, err
		}
		left = ast.Expression{Kind: ast.ExprBinary, Left: &left, Operator: "and", Right: &right, Span: p.span(start)}
	}
	return left, nil
}

func (p *Parser) parseEquality() (ast.Expression, error) {
	start := p.cur().Location
	left, err := p.parseComparison()
	if err != nil {
		return ast.Expression{}, err
	}
	for p.cur().Type == token.OPERATOR && (p.cur().Value == "==" || p.cur().Value == "!=") {
		op := p.advance().Value
		right, err := p.parseComparison()
		if err != nil {
			return ast.Expression{}, err
		}
		left = ast.Expression{Kind: ast.ExprBinary, Left: &left, Operator: op, Right: &right, Span: p.span(start)}
	}
	return left, nil
}

func (p *Parser) parseComparison() (ast.Expression, error) {
	start := p.cur().Location
	left, err := p.parseAdditive()
	if err != nil {
		return ast.Expression{}, err
	}
	for p.cur().Type == token.OPERATOR && isComparisonOp(p.cur().Value) {
		op := p.advance().Value
		right, err := p.parseAdditive()
		if err != nil {
			return ast.Expression{}, err
		}
		left = ast.Expression{Kind: ast.ExprBinary, Left: &left, Operator: op, Right: &right, Span: p.span(start)}
	}
	return left, nil
}

func isComparisonOp(v string) bool {
	return v == "<" || v == ">" || v == "<=" || v == ">="
}

func (p *Parser) parseAdditive() (ast.Expression, error) {
	start := p.cur().Location
	left, err := p.parseMultiplicative()
	if err != nil {
		return ast.Expression{}, err
	}
	for p.cur().Type == token.OPERATOR && (p.cur().Value == "+" || p.cur().Value == "-") {
		op := p.advance().Value
		right, err := p.parseMultiplicative()
		if err != nil {
			return ast.Expression{}, err
		}
		left = ast.Expression{Kind: ast.ExprBinary, Left: &left, Operator: op, Right: &right, Span: p.span(start)}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (ast.Expression, error) {
	start := p.cur().Location
	left, err := p.parseUnary()
	if err != nil {
		return ast.Expression{}, err
	}
	for p.cur().Type == token.OPERATOR && (p.cur().Value == "*" || p.cur().Value == "/" || p.cur().Value == "%") {
		op := p.advance().Value
		right, err := p.parseUnary()
		if err != nil {
			return ast.Expression{}, err
		}
		left = ast.Expression{Kind: ast.ExprBinary, Left: &left, Operator: op, Right: &right, Span: p.span(start)}
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expression, error) {
	start := p.cur().Location
	if p.isKeyword("not") {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return ast.Expression{}, err
		}
		return ast.Expression{Kind: ast.ExprUnary, UnaryOp: "not", Operand: &operand, Span: p.span(start)}, nil
	}
	if p.cur().Type == token.OPERATOR && p.cur().Value == "-" {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return ast.Expression{}, err
		}
		return ast.Expression{Kind: ast.ExprUnary, UnaryOp: "-", Operand: &operand, Span: p.span(start)}, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (ast.Expression, error) {
	start := p.cur().Location
	expr, err := p.parsePrimary()
	if err != nil {
		return ast.Expression{}, err
	}
	for {
		switch p.cur().Type {
		case token.DOT:
			p.advance()
			propTok := p.advance()
			if propTok.Type != token.IDENTIFIER && !(propTok.Type == token.KEYWORD && token.ExpressionIdentifierWhitelist[propTok.Value]) {
				return ast.Expression{}, grimoireerrors.NewParseError(propTok.Location, propTok.Type.String(), "property name")
			}
			expr = ast.Expression{Kind: ast.ExprPropertyAccess, Object: &expr, Property: propTok.Value, Span: p.span(start)}
		case token.LBRACKET:
			p.advance()
			idx, err := p.parseExpression()
			if err != nil {
				return ast.Expression{}, err
			}
			if _, err := p.expectType(token.RBRACKET); err != nil {
				return ast.Expression{}, err
			}
			expr = ast.Expression{Kind: ast.ExprArrayAccess, Array: &expr, Index: &idx, Span: p.span(start)}
		case token.LPAREN:
			p.advance()
			args, err := p.parseArgList()
			if err != nil {
				return ast.Expression{}, err
			}
			if _, err := p.expectType(token.RPAREN); err != nil {
				return ast.Expression{}, err
			}
			expr = ast.Expression{Kind: ast.ExprCall, Callee: &expr, Args: args, Span: p.span(start)}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parseArgList() ([]ast.Argument, error) {
	var args []ast.Argument
	for p.cur().Type != token.RPAREN {
		if p.cur().Type == token.IDENTIFIER && p.peek(1).Type == token.ASSIGN {
			name := p.advance().Value
			p.advance() // =
			val, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			args = append(args, ast.Argument{Name: name, Value: val})
		} else {
			val, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			args = append(args, ast.Argument{Value: val})
		}
		if p.cur().Type == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	return args, nil
}

func (p *Parser) parsePrimary() (ast.Expression, error) {
	start := p.cur().Location
	cur := p.cur()

	switch cur.Type {
	case token.NUMBER:
		p.advance()
		val, _ := strconv.ParseFloat(cur.Value, 64)
		if p.cur().Type == token.IDENTIFIER {
			sym := p.advance().Value
			return ast.Expression{Kind: ast.ExprUnitLiteral, UnitAmount: val, UnitSymbol: sym, Span: p.span(start)}, nil
		}
		return ast.Expression{Kind: ast.ExprLiteral, LiteralKind: ast.LiteralNumber, NumberValue: val, Span: p.span(start)}, nil
	case token.STRING:
		p.advance()
		return ast.Expression{Kind: ast.ExprLiteral, LiteralKind: ast.LiteralString, StringValue: cur.Value, Span: p.span(start)}, nil
	case token.BOOLEAN:
		p.advance()
		return ast.Expression{Kind: ast.ExprLiteral, LiteralKind: ast.LiteralBool, BoolValue: cur.Value == "true", Span: p.span(start)}, nil
	case token.ADDRESS:
		p.advance()
		return ast.Expression{Kind: ast.ExprLiteral, LiteralKind: ast.LiteralAddress, StringValue: cur.Value, Span: p.span(start)}, nil
	case token.PERCENTAGE:
		p.advance()
		val, _ := strconv.ParseFloat(cur.Value, 64)
		return ast.Expression{Kind: ast.ExprPercentage, PercentageValue: val, Span: p.span(start)}, nil
	case token.VENUE_REF:
		p.advance()
		return ast.Expression{Kind: ast.ExprVenueRef, VenueName: cur.Value, Span: p.span(start)}, nil
	case token.ADVISORY:
		p.advance()
		return ast.Expression{Kind: ast.ExprAdvisory, AdvisoryText: cur.Value, Span: p.span(start)}, nil
	case token.LPAREN:
		p.advance()
		inner, err := p.parseExpression()
		if err != nil {
			return ast.Expression{}, err
		}
		if _, err := p.expectType(token.RPAREN); err != nil {
			return ast.Expression{}, err
		}
		return inner, nil
	case token.LBRACKET:
		return p.parseArrayLiteral(start)
	case token.LBRACE:
		return p.parseObjectLiteral(start)
	case token.IDENTIFIER:
		p.advance()
		return ast.Expression{Kind: ast.ExprIdentifier, Name: cur.Value, Span: p.span(start)}, nil
	case token.KEYWORD:
		if token.ExpressionIdentifierWhitelist[cur.Value] {
			p.advance()
			return ast.Expression{Kind: ast.ExprIdentifier, Name: cur.Value, Span: p.span(start)}, nil
		}
	}
	return ast.Expression{}, grimoireerrors.NewParseError(cur.Location, cur.Type.String()+" \""+cur.Value+"\"", "an expression")
}

func (p *Parser) parseArrayLiteral(start grimoireerrors.Location) (ast.Expression, error) {
	p.advance() // [
	var elems []ast.Expression
	for p.cur().Type != token.RBRACKET {
		elem, err := p.parseExpression()
		if err != nil {
			return ast.Expression{}, err
		}
		elems = append(elems, elem)
		if p.cur().Type == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expectType(token.RBRACKET); err != nil {
		return ast.Expression{}, err
	}
	return ast.Expression{Kind: ast.ExprArrayLiteral, Elements: elems, Span: p.span(start)}, nil
}

func (p *Parser) parseObjectLiteral(start grimoireerrors.Location) (ast.Expression, error) {
	p.advance() // {
	var entries []ast.ObjectEntry
	for p.cur().Type != token.RBRACE {
		keyTok := p.advance()
		if keyTok.Type != token.IDENTIFIER && keyTok.Type != token.STRING && keyTok.Type != token.KEYWORD {
			return ast.Expression{}, grimoireerrors.NewParseError(keyTok.Location, keyTok.Type.String(), "object key")
		}
		if _, err := p.expectType(token.COLON); err != nil {
			return ast.Expression{}, err
		}
		val, err := p.parseExpression()
		if err != nil {
			return ast.Expression{}, err
		}
		entries = append(entries, ast.ObjectEntry{Key: keyTok.Value, Value: val})
		if p.cur().Type == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expectType(token.RBRACE); err != nil {
		return ast.Expression{}, err
	}
	return ast.Expression{Kind: ast.ExprObjectLiteral, Entries: entries, Span: p.span(start)}, nil
}
