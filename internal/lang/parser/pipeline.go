package parser

import (
	"github.com/grimoire-lang/grimoire/internal/lang/ast"
	"github.com/grimoire-lang/grimoire/internal/lang/token"
	grimoireerrors "github.com/grimoire-lang/grimoire/pkg/errors"
)

var bodiedStages = map[ast.PipelineStageOp]bool{
	ast.StageMap: true, ast.StagePMap: true, ast.StageFilter: true, ast.StageReduce: true,
}

// parsePipelineStatement parses the `| stageOp[arg]: body` chain following
// an already-parsed source expression.
func (p *Parser) parsePipelineStatement(source ast.Expression, start grimoireerrors.Location) (ast.Statement, error) {
	var stages []ast.PipelineStage
	consumedBlock := false
	for p.cur().Type == token.OPERATOR && p.cur().Value == "|" {
		p.advance()
		stage, blockConsumed, err := p.parseStage()
		if err != nil {
			return ast.Statement{}, err
		}
		stages = append(stages, *stage)
		consumedBlock = blockConsumed
	}
	if !consumedBlock {
		if _, err := p.expectType(token.NEWLINE); err != nil {
			return ast.Statement{}, err
		}
	}
	return ast.Statement{Kind: ast.StmtPipeline, PipelineSource: source, Stages: stages, Span: p.span(start)}, nil
}

func (p *Parser) parseStage() (*ast.PipelineStage, bool, error) {
	start := p.cur().Location
	cur := p.cur()
	if cur.Type != token.KEYWORD {
		return nil, false, grimoireerrors.NewParseError(cur.Location, cur.Type.String(), "a pipeline stage operator")
	}
	op, ok := stageKeywords[cur.Value]
	if !ok {
		return nil, false, grimoireerrors.NewParseError(cur.Location, cur.Value, "map, pmap, filter, where, reduce, take, skip, or sort")
	}
	p.advance()

	stage := &ast.PipelineStage{Op: op}

	switch op {
	case ast.StageReduce:
		if _, err := p.expectType(token.LPAREN); err != nil {
			return nil, false, err
		}
		arg, err := p.parseExpression()
		if err != nil {
			return nil, false, err
		}
		stage.Arg = arg
		if _, err := p.expectType(token.RPAREN); err != nil {
			return nil, false, err
		}
	case ast.StageTake, ast.StageSkip:
		arg, err := p.parseExpression()
		if err != nil {
			return nil, false, err
		}
		stage.Arg = arg
	case ast.StageSort:
		if p.isKeyword("by") {
			p.advance()
			sortBy, err := p.parseExpression()
			if err != nil {
				return nil, false, err
			}
			stage.SortBy = sortBy
		}
		if p.isKeyword("order") {
			p.advance()
			orderTok := p.advance()
			stage.Order = orderTok.Value
		}
	}

	if bodiedStages[op] {
		if _, err := p.expectType(token.COLON); err != nil {
			return nil, false, err
		}
		bodyExpr, err := p.parseExpression()
		if err != nil {
			return nil, false, err
		}
		// The intermediate form retains only one statement per stage (see
		// the pipeline stage design note); an inline expression body is
		// that one statement, carried as a bare assignment to "item".
		stage.Body = []ast.Statement{{Kind: ast.StmtAssignment, Target: "item", Value: bodyExpr}}
		stage.Span = p.span(start)
		return stage, false, nil
	}

	stage.Span = p.span(start)
	return stage, false, nil
}
