package parser

import (
	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/token"
)

// parseType parses a named type or `fn(T, ...) -> R`.
func (p *Parser) parseType() (*ast.TypeExpr, bool) {
	switch p.peek().Kind {
	case token.Ident:
		return &ast.TypeExpr{Name: p.advance().Text}, true
	case token.KwFn:
		p.advance()
		open, ok := p.expect(token.LParen, diag.SynExpectType, "expected '(' after 'fn'")
		if !ok {
			return nil, false
		}
		t := &ast.TypeExpr{Fn: true}
		for !p.atOr(token.RParen, token.EOF) {
			param, ok := p.parseType()
			if !ok {
				return nil, false
			}
			t.Params = append(t.Params, param)
			if _, comma := p.eat(token.Comma); !comma {
				break
			}
		}
		if _, ok := p.expectClose(token.RParen, open.Span); !ok {
			return nil, false
		}
		if _, ok := p.expect(token.Arrow, diag.SynExpectType, "expected '->' after parameter types"); !ok {
			return nil, false
		}
		result, ok := p.parseType()
		if !ok {
			return nil, false
		}
		t.Result = result
		return t, true
	default:
		p.err(diag.SynExpectType, "expected type, got "+p.peek().Kind.String())
		return nil, false
	}
}
