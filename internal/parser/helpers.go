package parser

import (
	"fmt"

	"quill/internal/diag"
	"quill/internal/source"
	"quill/internal/token"
)

// advance consumes the next token.
func (p *Parser) advance() token.Token {
	tok := p.peek()
	if tok.Kind != token.EOF {
		p.pos++
		p.lastSpan = tok.Span
	}
	return tok
}

// eat consumes the next token if it has kind k.
func (p *Parser) eat(k token.Kind) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	return token.Token{}, false
}

// diagnosticSpan points at the next token, or just past the last one at EOF.
func (p *Parser) diagnosticSpan() source.Span {
	peek := p.peek()
	if peek.Kind == token.EOF {
		return source.Span{File: p.lastSpan.File, Start: p.lastSpan.End, End: p.lastSpan.End}
	}
	return peek.Span
}

// expect consumes a token of kind k or reports code.
func (p *Parser) expect(k token.Kind, code diag.Code, msg string) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	p.err(code, fmt.Sprintf("%s, got %s", msg, p.peek().Kind))
	return token.Token{Kind: token.Invalid, Span: p.diagnosticSpan()}, false
}

// expectClose consumes the closing delimiter k opened at open.
func (p *Parser) expectClose(k token.Kind, open source.Span) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	if b := diag.ReportError(p.opts.Reporter, diag.SynUnclosedDelimiter, p.diagnosticSpan(),
		fmt.Sprintf("expected %s, got %s", k, p.peek().Kind)); b != nil && p.countError() {
		b.WithNote(open, "delimiter opened here").Emit()
	}
	return token.Token{Kind: token.Invalid, Span: p.diagnosticSpan()}, false
}

func (p *Parser) err(code diag.Code, msg string) {
	p.errAt(code, p.diagnosticSpan(), msg)
}

func (p *Parser) errAt(code diag.Code, sp source.Span, msg string) {
	if b := diag.ReportError(p.opts.Reporter, code, sp, msg); b != nil && p.countError() {
		b.Emit()
	}
}

// countError records an error and reports whether it may still be emitted.
func (p *Parser) countError() bool {
	p.errors++
	return p.opts.MaxErrors == 0 || p.errors <= p.opts.MaxErrors
}

// skipUntil advances to the first token of one of kinds at bracket depth
// zero, without consuming it.
func (p *Parser) skipUntil(kinds ...token.Kind) {
	depth := 0
	for !p.at(token.EOF) {
		k := p.peek().Kind
		if depth == 0 && p.atOr(kinds...) {
			return
		}
		switch k {
		case token.LParen, token.LBrace:
			depth++
		case token.RParen, token.RBrace:
			if depth == 0 {
				return
			}
			depth--
		}
		p.advance()
	}
}

func (p *Parser) parseIdent(what string) (token.Token, bool) {
	if tok := p.peek(); tok.IsKeyword() {
		p.err(diag.SynExpectIdentifier, fmt.Sprintf("expected %s, got reserved word %q", what, tok.Text))
		return token.Token{Kind: token.Invalid, Span: p.diagnosticSpan()}, false
	}
	return p.expect(token.Ident, diag.SynExpectIdentifier, "expected "+what)
}

// bracedFieldsAhead reports whether the '{' at the cursor opens a field
// list: `{}` or `{ name: ...`. After a variant name a '{' may also open the
// block of an enclosing `if` or `match`.
func (p *Parser) bracedFieldsAhead() bool {
	if !p.at(token.LBrace) {
		return false
	}
	next := p.peekN(1).Kind
	return next == token.RBrace || next == token.Ident && p.peekN(2).Kind == token.Colon
}
