package parser

import (
	"errors"
	"fmt"
	"slices"

	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/lexer"
	"quill/internal/source"
	"quill/internal/token"
)

type Options struct {
	// MaxErrors stops reporting after this many errors; 0 means no limit.
	MaxErrors uint
	Reporter  diag.Reporter
}

// Parser holds the state for one body or type text.
type Parser struct {
	toks     []token.Token
	pos      int
	eof      token.Token
	opts     Options
	errors   uint
	lastSpan source.Span
}

func newParser(file *source.File, opts Options) *Parser {
	counter := &countingReporter{next: opts.Reporter}
	lx := lexer.New(file, lexer.Options{Reporter: counter})
	p := &Parser{opts: opts}
	for _, tok := range lx.All() {
		if tok.Kind != token.Invalid {
			p.toks = append(p.toks, tok)
		}
	}
	p.eof = lx.Next()
	p.lastSpan = source.Span{File: file.ID}
	p.errors = counter.count
	return p
}

// ParseBody parses a function body: exactly one expression.
func ParseBody(file *source.File, opts Options) (*ast.Expr, bool) {
	p := newParser(file, opts)
	e, ok := p.parseExpr()
	if ok && !p.at(token.EOF) {
		p.err(diag.SynTrailingInput, fmt.Sprintf("unexpected %s after expression", p.peek().Kind))
		ok = false
	}
	return e, ok && p.errors == 0
}

// ParseType parses a whole text as a type.
func ParseType(file *source.File, opts Options) (*ast.TypeExpr, bool) {
	p := newParser(file, opts)
	t, ok := p.parseType()
	if ok && !p.at(token.EOF) {
		p.err(diag.SynTrailingInput, fmt.Sprintf("unexpected %s after type", p.peek().Kind))
		ok = false
	}
	return t, ok && p.errors == 0
}

// ErrSyntax wraps the first problem found by ParseTypeString.
var ErrSyntax = errors.New("syntax error")

// ParseTypeString parses a type written in a declaration, where no source
// positions are available.
func ParseTypeString(text string) (*ast.TypeExpr, error) {
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("type", []byte(text)))
	bag := diag.NewBag(1)
	t, ok := ParseType(file, Options{MaxErrors: 1, Reporter: diag.BagReporter{Bag: bag}})
	if !ok {
		msg := "invalid type"
		if items := bag.Items(); len(items) > 0 {
			msg = items[0].Message
		}
		return nil, fmt.Errorf("%w in %q: %s", ErrSyntax, text, msg)
	}
	return t, nil
}

func (p *Parser) peek() token.Token {
	return p.peekN(0)
}

func (p *Parser) peekN(n int) token.Token {
	if p.pos+n < len(p.toks) {
		return p.toks[p.pos+n]
	}
	return p.eof
}

func (p *Parser) at(k token.Kind) bool {
	return p.peek().Kind == k
}

func (p *Parser) atOr(kinds ...token.Kind) bool {
	return slices.Contains(kinds, p.peek().Kind)
}

// countingReporter forwards lexical diagnostics and counts the errors.
type countingReporter struct {
	next  diag.Reporter
	count uint
}

func (r *countingReporter) Report(code diag.Code, sev diag.Severity, sp source.Span, msg string, notes []diag.Note, fixes []diag.Fix) {
	if sev == diag.SevError {
		r.count++
	}
	if r.next != nil {
		r.next.Report(code, sev, sp, msg, notes, fixes)
	}
}
