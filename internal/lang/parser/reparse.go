package parser

import (
	"github.com/grimoire-lang/grimoire/internal/lang/ast"
	"github.com/grimoire-lang/grimoire/internal/lang/token"
	grimoireerrors "github.com/grimoire-lang/grimoire/pkg/errors"
)

// ParseExpressionTokens parses a single expression from a token slice and
// requires the remainder to be empty structural tokens (NEWLINE/EOF). It
// backs internal/lang/exprparse, which re-hydrates the stringified
// expressions embedded in SpellSource (spec §4.6).
func ParseExpressionTokens(tokens []token.Token) (ast.Expression, error) {
	p := New(tokens)
	expr, err := p.parseExpression()
	if err != nil {
		return ast.Expression{}, err
	}
	for p.cur().Type == token.NEWLINE || p.cur().Type == token.INDENT || p.cur().Type == token.DEDENT {
		p.advance()
	}
	if p.cur().Type != token.EOF {
		cur := p.cur()
		return ast.Expression{}, grimoireerrors.NewExpressionError(cur.Location, "unexpected trailing token \""+cur.Value+"\" after expression")
	}
	return expr, nil
}
