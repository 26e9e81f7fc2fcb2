// Package token defines the lexical token vocabulary produced by the
// Grimoire tokenizer (spec §3.1).
package token

import "github.com/grimoire-lang/grimoire/pkg/errors"

// Type identifies a lexical token category.
type Type int

const (
	EOF Type = iota
	NEWLINE
	INDENT
	DEDENT

	NUMBER
	STRING
	BOOLEAN
	ADDRESS
	PERCENTAGE

	IDENTIFIER
	KEYWORD

	VENUE_REF
	ADVISORY

	OPERATOR
	ASSIGN
	COLON
	COMMA
	DOT
	QUESTION
	LPAREN
	RPAREN
	LBRACKET
	RBRACKET
	LBRACE
	RBRACE
)

var typeNames = map[Type]string{
	EOF:        "EOF",
	NEWLINE:    "NEWLINE",
	INDENT:     "INDENT",
	DEDENT:     "DEDENT",
	NUMBER:     "NUMBER",
	STRING:     "STRING",
	BOOLEAN:    "BOOLEAN",
	ADDRESS:    "ADDRESS",
	PERCENTAGE: "PERCENTAGE",
	IDENTIFIER: "IDENTIFIER",
	KEYWORD:    "KEYWORD",
	VENUE_REF:  "VENUE_REF",
	ADVISORY:   "ADVISORY",
	OPERATOR:   "OPERATOR",
	ASSIGN:     "ASSIGN",
	COLON:      "COLON",
	COMMA:      "COMMA",
	DOT:        "DOT",
	QUESTION:   "QUESTION",
	LPAREN:     "LPAREN",
	RPAREN:     "RPAREN",
	LBRACKET:   "LBRACKET",
	RBRACKET:   "RBRACKET",
	LBRACE:     "LBRACE",
	RBRACE:     "RBRACE",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// Token is a single lexeme with its source location.
type Token struct {
	Type     Type
	Value    string
	Location errors.Location
}

// Keywords is the fixed reserved-word set from the Glossary, including the
// words that are contextual in the grammar (import, block, try, …). true
// and false are not members: they lex as BOOLEAN.
var Keywords = map[string]bool{
	"spell": true, "version": true, "description": true, "assets": true,
	"params": true, "limits": true, "venues": true, "state": true,
	"skills": true, "advisors": true, "guards": true, "on": true,
	"if": true, "elif": true, "else": true, "for": true, "in": true,
	"while": true, "atomic": true, "emit": true, "halt": true, "wait": true,
	"pass": true, "and": true, "or": true, "not": true, "max": true,
	"manual": true, "hourly": true, "daily": true, "persistent": true,
	"ephemeral": true,
	"import":     true, "as": true, "block": true, "do": true, "try": true,
	"catch": true, "finally": true, "retry": true, "parallel": true,
	"pipeline": true, "map": true, "pmap": true, "filter": true,
	"where": true, "reduce": true, "take": true, "skip": true, "sort": true,
	"by": true, "order": true, "join": true, "using": true, "with": true,
	"via": true, "advise": true, "repeat": true, "loop": true,
	"until": true, "condition": true, "event": true,
}

// ExpressionIdentifierWhitelist is the fixed set of keywords the parser
// accepts as ordinary identifiers inside expression context (spec §4.2).
var ExpressionIdentifierWhitelist = map[string]bool{
	"max": true, "assets": true, "params": true, "limits": true,
	"state": true, "venues": true, "lending": true, "swap": true,
	"persistent": true, "ephemeral": true, "version": true,
	"description": true, "skills": true, "advisors": true, "guards": true,
	"block": true,
}
