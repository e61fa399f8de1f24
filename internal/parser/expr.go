package parser

import (
	"fmt"
	"strconv"

	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/source"
	"quill/internal/token"
)

// Precedence, loosest first: `&&`, `==`, then postfix `.f` and `matches P`.
func (p *Parser) parseExpr() (*ast.Expr, bool) {
	return p.parseAnd()
}

func (p *Parser) parseAnd() (*ast.Expr, bool) {
	left, ok := p.parseEq()
	if !ok {
		return nil, false
	}
	for p.at(token.AndAnd) {
		p.advance()
		right, ok := p.parseEq()
		if !ok {
			return nil, false
		}
		left = &ast.Expr{Kind: ast.ExprAnd, Span: left.Span.Cover(right.Span), X: left, Y: right}
	}
	return left, true
}

func (p *Parser) parseEq() (*ast.Expr, bool) {
	left, ok := p.parsePostfix()
	if !ok {
		return nil, false
	}
	for p.at(token.EqEq) {
		p.advance()
		right, ok := p.parsePostfix()
		if !ok {
			return nil, false
		}
		left = &ast.Expr{Kind: ast.ExprEq, Span: left.Span.Cover(right.Span), X: left, Y: right}
	}
	return left, true
}

func (p *Parser) parsePostfix() (*ast.Expr, bool) {
	e, ok := p.parsePrimary()
	if !ok {
		return nil, false
	}
	for {
		switch {
		case p.at(token.Dot):
			p.advance()
			name, ok := p.parseIdent("field name after '.'")
			if !ok {
				return nil, false
			}
			e = &ast.Expr{Kind: ast.ExprField, Span: e.Span.Cover(name.Span), X: e, Name: name.Text}
		case p.at(token.KwMatches):
			p.advance()
			pat, ok := p.parsePattern()
			if !ok {
				return nil, false
			}
			e = &ast.Expr{Kind: ast.ExprMatches, Span: e.Span.Cover(pat.Span), X: e, Pat: pat}
		default:
			return e, true
		}
	}
}

func (p *Parser) parsePrimary() (*ast.Expr, bool) {
	tok := p.peek()
	switch tok.Kind {
	case token.IntLit, token.StringLit, token.KwTrue, token.KwFalse, token.Minus:
		lit, sp, ok := p.parseLiteral()
		if !ok {
			return nil, false
		}
		return &ast.Expr{Kind: ast.ExprLiteral, Span: sp, Lit: lit}, true
	case token.Ident:
		p.advance()
		return &ast.Expr{Kind: ast.ExprName, Span: tok.Span, Name: tok.Text}, true
	case token.LParen:
		open := p.advance()
		inner, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		closeTok, ok := p.expectClose(token.RParen, open.Span)
		if !ok {
			return nil, false
		}
		inner.Span = open.Span.Cover(closeTok.Span)
		return inner, true
	case token.KwMatch:
		return p.parseMatch()
	case token.KwIf:
		return p.parseIf()
	case token.KwNew:
		return p.parseNew()
	default:
		p.err(diag.SynExpectExpression, fmt.Sprintf("expected expression, got %s", tok.Kind))
		return nil, false
	}
}

// parseLiteral accepts int, string and bool literals, and a minus sign
// directly before an int.
func (p *Parser) parseLiteral() (ast.Literal, source.Span, bool) {
	tok := p.advance()
	switch tok.Kind {
	case token.KwTrue, token.KwFalse:
		return ast.Literal{Kind: ast.LitBool, Bool: tok.Kind == token.KwTrue}, tok.Span, true
	case token.StringLit:
		return ast.Literal{Kind: ast.LitString, Str: tok.Text}, tok.Span, true
	case token.Minus:
		num, ok := p.expect(token.IntLit, diag.SynExpectExpression, "expected integer after '-'")
		if !ok {
			return ast.Literal{}, tok.Span, false
		}
		sp := tok.Span.Cover(num.Span)
		v, ok := p.intValue("-"+num.Text, sp)
		return ast.Literal{Kind: ast.LitInt, Int: v}, sp, ok
	case token.IntLit:
		v, ok := p.intValue(tok.Text, tok.Span)
		return ast.Literal{Kind: ast.LitInt, Int: v}, tok.Span, ok
	}
	p.errAt(diag.SynExpectExpression, tok.Span, fmt.Sprintf("expected literal, got %s", tok.Kind))
	return ast.Literal{}, tok.Span, false
}

func (p *Parser) intValue(text string, sp source.Span) (int64, bool) {
	v, err := strconv.ParseInt(text, 0, 64)
	if err != nil {
		p.errAt(diag.LexBadNumber, sp, fmt.Sprintf("integer literal %s out of range", text))
		return 0, false
	}
	return v, true
}

// parseMatch parses `match e { P => e, ... }`. Commas between arms are optional.
func (p *Parser) parseMatch() (*ast.Expr, bool) {
	kw := p.advance()
	scrut, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	open, ok := p.expect(token.LBrace, diag.SynUnexpectedToken, "expected '{' after match scrutinee")
	if !ok {
		return nil, false
	}
	e := &ast.Expr{Kind: ast.ExprMatch, X: scrut}
	failed := false
	for !p.atOr(token.RBrace, token.EOF) {
		arm, ok := p.parseArm()
		if !ok {
			failed = true
			p.skipUntil(token.Comma, token.RBrace)
		} else {
			e.Arms = append(e.Arms, arm)
		}
		if _, comma := p.eat(token.Comma); !comma && !ok {
			break
		}
	}
	closeTok, ok := p.expectClose(token.RBrace, open.Span)
	if !ok || failed {
		return nil, false
	}
	e.Span = kw.Span.Cover(closeTok.Span)
	return e, true
}

func (p *Parser) parseArm() (*ast.Arm, bool) {
	pat, ok := p.parsePattern()
	if !ok {
		return nil, false
	}
	if ifTok, guard := p.eat(token.KwIf); guard {
		p.errAt(diag.SynUnexpectedToken, ifTok.Span, "match guards are not supported")
		return nil, false
	}
	if _, ok := p.expect(token.FatArrow, diag.SynExpectFatArrow, "expected '=>' after pattern"); !ok {
		return nil, false
	}
	body, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	return &ast.Arm{Pattern: pat, Body: body, Span: pat.Span.Cover(body.Span)}, true
}

// parseIf parses `if c { e } else { e }`; `else if` chains nest.
func (p *Parser) parseIf() (*ast.Expr, bool) {
	kw := p.advance()
	cond, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	then, ok := p.parseBlock()
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(token.KwElse, diag.SynUnexpectedToken, "expected 'else'; if is an expression"); !ok {
		return nil, false
	}
	var els *ast.Expr
	if p.at(token.KwIf) {
		els, ok = p.parseIf()
	} else {
		els, ok = p.parseBlock()
	}
	if !ok {
		return nil, false
	}
	return &ast.Expr{Kind: ast.ExprIf, Span: kw.Span.Cover(els.Span), X: cond, Y: then, Z: els}, true
}

// parseBlock parses `{ e }`. The span of e is kept; only the braces are dropped.
func (p *Parser) parseBlock() (*ast.Expr, bool) {
	open, ok := p.expect(token.LBrace, diag.SynUnexpectedToken, "expected '{'")
	if !ok {
		return nil, false
	}
	e, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	if _, ok := p.expectClose(token.RBrace, open.Span); !ok {
		return nil, false
	}
	return e, true
}

// parseNew parses `new C { f: e }`, `new U::V`, `new U::V(e, ...)` and
// `new U::V { f: e }`.
func (p *Parser) parseNew() (*ast.Expr, bool) {
	kw := p.advance()
	owner, ok := p.parseIdent("type name after 'new'")
	if !ok {
		return nil, false
	}
	nd := &ast.NewData{Owner: owner.Text}
	end := owner.Span
	if _, ok := p.eat(token.ColonColon); ok {
		v, ok := p.parseIdent("variant name after '::'")
		if !ok {
			return nil, false
		}
		nd.Variant, end = v.Text, v.Span
	}

	switch {
	case p.at(token.LParen):
		open := p.advance()
		nd.Positional = true
		for i := 0; !p.atOr(token.RParen, token.EOF); i++ {
			if p.peek().IsIdent() && p.peekN(1).Kind == token.Colon {
				p.err(diag.SynMixedFieldStyle, "named field inside '(...)'; use '{ name: value }'")
				return nil, false
			}
			v, ok := p.parseExpr()
			if !ok {
				return nil, false
			}
			nd.Args = append(nd.Args, ast.FieldInit{Index: i, Value: v, Span: v.Span})
			if _, comma := p.eat(token.Comma); !comma {
				break
			}
		}
		closeTok, ok := p.expectClose(token.RParen, open.Span)
		if !ok {
			return nil, false
		}
		end = closeTok.Span
	case p.at(token.LBrace) && (nd.Variant == "" || p.bracedFieldsAhead()):
		open := p.advance()
		for !p.atOr(token.RBrace, token.EOF) {
			name, ok := p.parseIdent("field name")
			if !ok {
				return nil, false
			}
			if _, ok := p.expect(token.Colon, diag.SynUnexpectedToken, "expected ':' after field name"); !ok {
				return nil, false
			}
			v, ok := p.parseExpr()
			if !ok {
				return nil, false
			}
			nd.Args = append(nd.Args, ast.FieldInit{Name: name.Text, Index: -1, Value: v, Span: name.Span.Cover(v.Span)})
			if _, comma := p.eat(token.Comma); !comma {
				break
			}
		}
		closeTok, ok := p.expectClose(token.RBrace, open.Span)
		if !ok {
			return nil, false
		}
		end = closeTok.Span
	}
	return &ast.Expr{Kind: ast.ExprNew, Span: kw.Span.Cover(end), New: nd}, true
}
