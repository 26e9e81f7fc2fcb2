package transform

import "github.com/grimoire-lang/grimoire/internal/lang/ast"

// substituteStatements deep-copies a block body, rewriting every
// identifier reference to a block parameter with the corresponding `do`
// call argument (spec §4.3.2's block-inlining contract).
func substituteStatements(stmts []ast.Statement, subst map[string]ast.Expression) []ast.Statement {
	out := make([]ast.Statement, len(stmts))
	for i, st := range stmts {
		out[i] = substituteStatement(st, subst)
	}
	return out
}

func substituteStatement(st ast.Statement, subst map[string]ast.Expression) ast.Statement {
	out := st
	out.Value = substituteExprCopy(st.Value, subst)
	out.Condition = substituteExprCopy(st.Condition, subst)
	out.ThenBody = substituteStatements(st.ThenBody, subst)
	out.Elifs = substituteElifs(st.Elifs, subst)
	out.ElseBody = substituteStatements(st.ElseBody, subst)
	out.Source = substituteExprCopy(st.Source, subst)
	out.Body = substituteStatements(st.Body, subst)
	out.Count = substituteExprCopy(st.Count, subst)
	out.MaxIterations = substituteExprCopy(st.MaxIterations, subst)
	out.TryBody = substituteStatements(st.TryBody, subst)
	out.Catches = substituteCatches(st.Catches, subst)
	out.FinallyBody = substituteStatements(st.FinallyBody, subst)
	out.Branches = substituteBranches(st.Branches, subst)
	if st.Join != nil {
		join := *st.Join
		join.Metric = substituteExprCopy(st.Join.Metric, subst)
		out.Join = &join
	}
	out.PipelineSource = substituteExprCopy(st.PipelineSource, subst)
	out.Stages = substituteStages(st.Stages, subst)
	out.Prompt = substituteExprCopy(st.Prompt, subst)
	out.OutputSchema = substituteExprCopy(st.OutputSchema, subst)
	out.Timeout = substituteExprCopy(st.Timeout, subst)
	out.Fallback = substituteExprCopy(st.Fallback, subst)
	out.Args = substituteExprSlice(st.Args, subst)
	out.AtomicBody = substituteStatements(st.AtomicBody, subst)
	out.Receiver = substituteExprCopy(st.Receiver, subst)
	out.CallArgs = substituteArgs(st.CallArgs, subst)
	out.With = substituteExprMap(st.With, subst)
	out.EmitData = substituteExprMap(st.EmitData, subst)
	out.Reason = substituteExprCopy(st.Reason, subst)
	out.Duration = substituteExprCopy(st.Duration, subst)
	out.AdvisoryText = substituteExprCopy(st.AdvisoryText, subst)
	return out
}

func substituteExprCopy(e ast.Expression, subst map[string]ast.Expression) ast.Expression {
	return substituteExpr(e, subst)
}

func substituteExpr(e ast.Expression, subst map[string]ast.Expression) ast.Expression {
	switch e.Kind {
	case ast.ExprIdentifier:
		if repl, ok := subst[e.Name]; ok {
			return repl
		}
		return e
	case ast.ExprBinary:
		left := substituteExpr(*e.Left, subst)
		right := substituteExpr(*e.Right, subst)
		e.Left, e.Right = &left, &right
		return e
	case ast.ExprUnary:
		operand := substituteExpr(*e.Operand, subst)
		e.Operand = &operand
		return e
	case ast.ExprCall:
		callee := substituteExpr(*e.Callee, subst)
		e.Callee = &callee
		e.Args = substituteArgs(e.Args, subst)
		return e
	case ast.ExprPropertyAccess:
		obj := substituteExpr(*e.Object, subst)
		e.Object = &obj
		return e
	case ast.ExprArrayAccess:
		arr := substituteExpr(*e.Array, subst)
		idx := substituteExpr(*e.Index, subst)
		e.Array, e.Index = &arr, &idx
		return e
	case ast.ExprArrayLiteral:
		e.Elements = substituteExprSlice(e.Elements, subst)
		return e
	case ast.ExprObjectLiteral:
		entries := make([]ast.ObjectEntry, len(e.Entries))
		for i, entry := range e.Entries {
			entries[i] = ast.ObjectEntry{Key: entry.Key, Value: substituteExpr(entry.Value, subst)}
		}
		e.Entries = entries
		return e
	case ast.ExprTernary:
		cond := substituteExpr(*e.TernaryCond, subst)
		then := substituteExpr(*e.TernaryThen, subst)
		els := substituteExpr(*e.TernaryElse, subst)
		e.TernaryCond, e.TernaryThen, e.TernaryElse = &cond, &then, &els
		return e
	default:
		return e
	}
}

func substituteExprSlice(exprs []ast.Expression, subst map[string]ast.Expression) []ast.Expression {
	if exprs == nil {
		return nil
	}
	out := make([]ast.Expression, len(exprs))
	for i, e := range exprs {
		out[i] = substituteExpr(e, subst)
	}
	return out
}

func substituteExprMap(m map[string]ast.Expression, subst map[string]ast.Expression) map[string]ast.Expression {
	if m == nil {
		return nil
	}
	out := make(map[string]ast.Expression, len(m))
	for k, v := range m {
		out[k] = substituteExpr(v, subst)
	}
	return out
}

func substituteArgs(args []ast.Argument, subst map[string]ast.Expression) []ast.Argument {
	if args == nil {
		return nil
	}
	out := make([]ast.Argument, len(args))
	for i, a := range args {
		out[i] = ast.Argument{Name: a.Name, Value: substituteExpr(a.Value, subst)}
	}
	return out
}

func substituteElifs(elifs []ast.ElifClause, subst map[string]ast.Expression) []ast.ElifClause {
	if elifs == nil {
		return nil
	}
	out := make([]ast.ElifClause, len(elifs))
	for i, el := range elifs {
		out[i] = ast.ElifClause{
			Condition: substituteExpr(el.Condition, subst),
			Body:      substituteStatements(el.Body, subst),
			Span:      el.Span,
		}
	}
	return out
}

func substituteCatches(catches []ast.CatchClause, subst map[string]ast.Expression) []ast.CatchClause {
	if catches == nil {
		return nil
	}
	out := make([]ast.CatchClause, len(catches))
	for i, c := range catches {
		out[i] = ast.CatchClause{
			ErrorType: c.ErrorType,
			Action:    c.Action,
			Steps:     substituteStatements(c.Steps, subst),
			Retry:     c.Retry,
			Span:      c.Span,
		}
	}
	return out
}

func substituteBranches(branches []ast.ParallelBranch, subst map[string]ast.Expression) []ast.ParallelBranch {
	if branches == nil {
		return nil
	}
	out := make([]ast.ParallelBranch, len(branches))
	for i, b := range branches {
		out[i] = ast.ParallelBranch{Name: b.Name, Body: substituteStatements(b.Body, subst), Span: b.Span}
	}
	return out
}

func substituteStages(stages []ast.PipelineStage, subst map[string]ast.Expression) []ast.PipelineStage {
	if stages == nil {
		return nil
	}
	out := make([]ast.PipelineStage, len(stages))
	for i, s := range stages {
		out[i] = ast.PipelineStage{
			Op:     s.Op,
			Arg:    substituteExpr(s.Arg, subst),
			SortBy: substituteExpr(s.SortBy, subst),
			Order:  s.Order,
			Body:   substituteStatements(s.Body, subst),
			Span:   s.Span,
		}
	}
	return out
}
