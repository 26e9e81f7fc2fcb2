// Package exprfmt implements the expression stringification contract
// (spec §4.4): rendering a typed AST Expression into the canonical
// surface string the transformer embeds into SpellSource, reversible by
// internal/lang/exprparse.
package exprfmt

import (
	"strconv"
	"strings"

	"github.com/grimoire-lang/grimoire/internal/lang/ast"
)

// Format renders an expression to its canonical stringified form.
func Format(e ast.Expression) string {
	var sb strings.Builder
	write(&sb, e)
	return sb.String()
}

func write(sb *strings.Builder, e ast.Expression) {
	switch e.Kind {
	case ast.ExprLiteral:
		writeLiteral(sb, e)
	case ast.ExprIdentifier:
		sb.WriteString(e.Name)
	case ast.ExprVenueRef:
		sb.WriteString("@")
		sb.WriteString(e.VenueName)
	case ast.ExprAdvisory:
		sb.WriteString("**")
		sb.WriteString(e.AdvisoryText)
		sb.WriteString("**")
	case ast.ExprPercentage:
		sb.WriteString(formatFloat(e.PercentageValue))
	case ast.ExprUnitLiteral:
		sb.WriteString(formatFloat(e.UnitAmount))
	case ast.ExprBinary:
		sb.WriteString("(")
		write(sb, *e.Left)
		sb.WriteString(" ")
		sb.WriteString(binaryOp(e.Operator))
		sb.WriteString(" ")
		write(sb, *e.Right)
		sb.WriteString(")")
	case ast.ExprUnary:
		if e.UnaryOp == "not" {
			sb.WriteString("not ")
		} else {
			sb.WriteString(e.UnaryOp)
		}
		write(sb, *e.Operand)
	case ast.ExprCall:
		write(sb, *e.Callee)
		sb.WriteString("(")
		for i, arg := range e.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			if arg.Name != "" {
				sb.WriteString(arg.Name)
				sb.WriteString("=")
			}
			write(sb, arg.Value)
		}
		sb.WriteString(")")
	case ast.ExprPropertyAccess:
		write(sb, *e.Object)
		sb.WriteString(".")
		sb.WriteString(e.Property)
	case ast.ExprArrayAccess:
		write(sb, *e.Array)
		sb.WriteString("[")
		write(sb, *e.Index)
		sb.WriteString("]")
	case ast.ExprArrayLiteral:
		sb.WriteString("[")
		for i, elem := range e.Elements {
			if i > 0 {
				sb.WriteString(", ")
			}
			write(sb, elem)
		}
		sb.WriteString("]")
	case ast.ExprObjectLiteral:
		sb.WriteString("{")
		for i, entry := range e.Entries {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(entry.Key)
			sb.WriteString(": ")
			write(sb, entry.Value)
		}
		sb.WriteString("}")
	case ast.ExprTernary:
		sb.WriteString("(")
		write(sb, *e.TernaryCond)
		sb.WriteString(" ? ")
		write(sb, *e.TernaryThen)
		sb.WriteString(" : ")
		write(sb, *e.TernaryElse)
		sb.WriteString(")")
	}
}

func writeLiteral(sb *strings.Builder, e ast.Expression) {
	switch e.LiteralKind {
	case ast.LiteralString:
		sb.WriteString(strconv.Quote(e.StringValue))
	case ast.LiteralBool:
		if e.BoolValue {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case ast.LiteralAddress:
		sb.WriteString(e.StringValue)
	default:
		sb.WriteString(formatFloat(e.NumberValue))
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func binaryOp(op string) string {
	switch op {
	case "and":
		return "AND"
	case "or":
		return "OR"
	default:
		return op
	}
}
