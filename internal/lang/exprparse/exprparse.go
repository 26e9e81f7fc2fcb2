// Package exprparse re-parses the canonical stringified expressions
// embedded in SpellSource back into typed ast.Expression trees (spec
// §4.6), using the same grammar as the front-end parser's expression
// rules but operating on a single-line string.
package exprparse

import (
	"github.com/grimoire-lang/grimoire/internal/lang/ast"
	"github.com/grimoire-lang/grimoire/internal/lang/lexer"
	"github.com/grimoire-lang/grimoire/internal/lang/parser"
	"github.com/grimoire-lang/grimoire/internal/lang/token"
)

// Parse re-hydrates a canonical expression string into a typed
// Expression tree.
func Parse(src string) (ast.Expression, error) {
	tokens, err := lexer.Tokenize(src + "\n")
	if err != nil {
		return ast.Expression{}, err
	}
	normalizeLogicalKeywords(tokens)
	return parser.ParseExpressionTokens(tokens)
}

// normalizeLogicalKeywords maps the uppercase AND/OR tokens the
// stringification contract emits (spec §4.4) back onto the lexer's
// lowercase "and"/"or" keyword tokens, since the canonical surface form
// uses the uppercase spelling to set logical operators apart from
// identifiers of the same name.
func normalizeLogicalKeywords(tokens []token.Token) {
	for i, tok := range tokens {
		if tok.Type != token.IDENTIFIER {
			continue
		}
		switch tok.Value {
		case "AND":
			tokens[i].Type = token.KEYWORD
			tokens[i].Value = "and"
		case "OR":
			tokens[i].Type = token.KEYWORD
			tokens[i].Value = "or"
		}
	}
}
