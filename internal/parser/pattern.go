package parser

import (
	"fmt"

	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/token"
)

// parsePattern parses one pattern with an optional trailing `as name`.
func (p *Parser) parsePattern() (*ast.Pattern, bool) {
	pat, ok := p.parsePatternAtom()
	if !ok {
		return nil, false
	}
	if asTok, ok := p.eat(token.KwAs); ok {
		name, ok := p.parseIdent("name after 'as'")
		if !ok {
			return nil, false
		}
		if pat.Binds() {
			p.errAt(diag.SynUnexpectedToken, asTok.Span, fmt.Sprintf("pattern already binds %q", pat.Name))
			return nil, false
		}
		pat.Name = name.Text
		pat.Span = pat.Span.Cover(name.Span)
	}
	return pat, true
}

func (p *Parser) parsePatternAtom() (*ast.Pattern, bool) {
	tok := p.peek()
	switch tok.Kind {
	case token.Underscore:
		p.advance()
		pat := &ast.Pattern{Kind: ast.PatDiscard, Span: tok.Span}
		return p.maybeTyped(pat)
	case token.KwVar:
		p.advance()
		name, ok := p.parseIdent("variable name after 'var'")
		if !ok {
			return nil, false
		}
		pat := &ast.Pattern{Kind: ast.PatBinding, Span: tok.Span.Cover(name.Span), Name: name.Text}
		return p.maybeTyped(pat)
	case token.IntLit, token.StringLit, token.KwTrue, token.KwFalse, token.Minus:
		lit, sp, ok := p.parseLiteral()
		if !ok {
			return nil, false
		}
		return &ast.Pattern{Kind: ast.PatLiteral, Span: sp, Lit: lit}, true
	case token.Ident:
		return p.parseConstructorPattern()
	default:
		p.err(diag.SynExpectPattern, fmt.Sprintf("expected pattern, got %s", tok.Kind))
		return nil, false
	}
}

// maybeTyped turns `_` or `var x` followed by `: T` into a type pattern.
func (p *Parser) maybeTyped(pat *ast.Pattern) (*ast.Pattern, bool) {
	if _, ok := p.eat(token.Colon); !ok {
		return pat, true
	}
	start := p.peek().Span
	ty, ok := p.parseType()
	if !ok {
		return nil, false
	}
	pat.Kind = ast.PatType
	pat.TypeExpr = ty
	pat.Span = pat.Span.Cover(start).Cover(p.lastSpan)
	return pat, true
}

// parseConstructorPattern parses `U::V`, `U::V(p, ...)`, `U::V { f: p }`
// and `C { f: p }`.
func (p *Parser) parseConstructorPattern() (*ast.Pattern, bool) {
	owner := p.advance()
	pat := &ast.Pattern{Kind: ast.PatClass, Span: owner.Span, Owner: owner.Text}
	if _, ok := p.eat(token.ColonColon); ok {
		v, ok := p.parseIdent("variant name after '::'")
		if !ok {
			return nil, false
		}
		pat.Kind, pat.Variant = ast.PatVariant, v.Text
		pat.Span = pat.Span.Cover(v.Span)
	} else if !p.at(token.LBrace) {
		p.errAt(diag.SynExpectPattern, owner.Span,
			fmt.Sprintf("expected pattern, got name %q; write 'var %s' to bind it", owner.Text, owner.Text))
		return nil, false
	}

	switch {
	case p.at(token.LParen) && pat.Kind == ast.PatVariant:
		open := p.advance()
		pat.Positional = true
		for i := 0; !p.atOr(token.RParen, token.EOF); i++ {
			if p.peek().IsIdent() && p.peekN(1).Kind == token.Colon {
				p.err(diag.SynMixedFieldStyle, "named field inside '(...)'; use '{ name: pattern }'")
				return nil, false
			}
			sub, ok := p.parsePattern()
			if !ok {
				return nil, false
			}
			pat.Fields = append(pat.Fields, ast.FieldPattern{Index: i, Pat: sub, Span: sub.Span})
			if _, comma := p.eat(token.Comma); !comma {
				break
			}
		}
		closeTok, ok := p.expectClose(token.RParen, open.Span)
		if !ok {
			return nil, false
		}
		pat.Span = pat.Span.Cover(closeTok.Span)
	case p.at(token.LBrace) && (pat.Kind == ast.PatClass || p.bracedFieldsAhead()):
		open := p.advance()
		for !p.atOr(token.RBrace, token.EOF) {
			name, ok := p.parseIdent("field name")
			if !ok {
				return nil, false
			}
			if _, ok := p.expect(token.Colon, diag.SynUnexpectedToken, "expected ':' after field name"); !ok {
				return nil, false
			}
			sub, ok := p.parsePattern()
			if !ok {
				return nil, false
			}
			pat.Fields = append(pat.Fields, ast.FieldPattern{Name: name.Text, Index: -1, Pat: sub, Span: name.Span.Cover(sub.Span)})
			if _, comma := p.eat(token.Comma); !comma {
				break
			}
		}
		closeTok, ok := p.expectClose(token.RBrace, open.Span)
		if !ok {
			return nil, false
		}
		pat.Span = pat.Span.Cover(closeTok.Span)
	}
	return pat, true
}
