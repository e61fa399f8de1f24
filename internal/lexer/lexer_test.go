package lexer

import (
	"testing"

	"quill/internal/diag"
	"quill/internal/source"
	"quill/internal/token"
)

func scan(t *testing.T, src string) ([]token.Token, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	f := fs.Get(fs.AddVirtual("body", []byte(src)))
	bag := diag.NewBag(10)
	return New(f, Options{Reporter: diag.BagReporter{Bag: bag}}).All(), bag
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func TestScanKinds(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []token.Kind
	}{
		{
			name: "match_arm",
			src:  "match s { Shape::Dot => 1, _ => -2 }",
			want: []token.Kind{
				token.KwMatch, token.Ident, token.LBrace,
				token.Ident, token.ColonColon, token.Ident, token.FatArrow, token.IntLit, token.Comma,
				token.Underscore, token.FatArrow, token.Minus, token.IntLit, token.RBrace,
			},
		},
		{
			name: "matches_and_eq",
			src:  "a.b matches var x: int && x == 0x1F",
			want: []token.Kind{
				token.Ident, token.Dot, token.Ident, token.KwMatches, token.KwVar, token.Ident,
				token.Colon, token.Ident, token.AndAnd, token.Ident, token.EqEq, token.IntLit,
			},
		},
		{
			name: "comments",
			src:  "// lead\nnew /* a /* nested */ b */ P { x: true }",
			want: []token.Kind{
				token.KwNew, token.Ident, token.LBrace, token.Ident, token.Colon, token.KwTrue, token.RBrace,
			},
		},
		{
			name: "split_operators",
			src:  "- x: ::y -3",
			want: []token.Kind{
				token.Minus, token.Ident, token.Colon, token.ColonColon, token.Ident, token.Minus, token.IntLit,
			},
		},
		{
			name: "fn_type",
			src:  "fn(int, _x) -> bool",
			want: []token.Kind{
				token.KwFn, token.LParen, token.Ident, token.Comma, token.Ident, token.RParen, token.Arrow, token.Ident,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, bag := scan(t, tt.src)
			if bag.Len() != 0 {
				t.Fatalf("unexpected diagnostics: %+v", bag.Items())
			}
			got := kinds(toks)
			if len(got) != len(tt.want) {
				t.Fatalf("kinds = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSpansCoverText(t *testing.T) {
	src := "match  shape {\n\tCircle => 10 }"
	toks, _ := scan(t, src)
	for _, tok := range toks {
		if tok.Kind == token.StringLit {
			continue
		}
		if got := src[tok.Span.Start:tok.Span.End]; got != tok.Text {
			t.Errorf("%v: span covers %q, text %q", tok.Kind, got, tok.Text)
		}
	}
}

func TestIdentifiersAreNFC(t *testing.T) {
	decomposed := "cafe\u0301"
	toks, bag := scan(t, decomposed+" caf\u00e9")
	if bag.Len() != 0 || len(toks) != 2 {
		t.Fatalf("toks = %+v, diags = %+v", toks, bag.Items())
	}
	if toks[0].Text != toks[1].Text {
		t.Errorf("%q and %q should normalize to the same name", toks[0].Text, toks[1].Text)
	}
	if toks[0].Span.Len() != uint32(len(decomposed)) {
		t.Errorf("span should cover the original bytes, got %v", toks[0].Span)
	}
}

func TestStringEscapes(t *testing.T) {
	toks, bag := scan(t, `"a\"b\n\\"`)
	if bag.Len() != 0 || len(toks) != 1 || toks[0].Kind != token.StringLit {
		t.Fatalf("toks = %+v, diags = %+v", toks, bag.Items())
	}
	if toks[0].Text != "a\"b\n\\" {
		t.Errorf("Text = %q", toks[0].Text)
	}
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		src  string
		code diag.Code
	}{
		{`"open`, diag.LexUnterminatedString},
		{"\"line\nbreak\"", diag.LexUnterminatedString},
		{`"\q"`, diag.LexBadEscape},
		{"12ab", diag.LexBadNumber},
		{"0x", diag.LexBadNumber},
		{"a ? b", diag.LexUnknownChar},
		{"/* never closed", diag.LexUnterminatedComment},
	}
	for _, tt := range tests {
		_, bag := scan(t, tt.src)
		if bag.Len() == 0 || bag.Items()[0].Code != tt.code {
			t.Errorf("%q: diagnostics = %+v, want %v", tt.src, bag.Items(), tt.code)
		}
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	fs := source.NewFileSet()
	lx := New(fs.Get(fs.AddVirtual("body", []byte("a b"))), Options{})
	if lx.Peek().Text != "a" || lx.Peek().Text != "a" {
		t.Fatal("Peek should be idempotent")
	}
	if lx.Next().Text != "a" || lx.Next().Text != "b" {
		t.Fatal("Next after Peek should resume in order")
	}
	if lx.Next().Kind != token.EOF || lx.Next().Kind != token.EOF {
		t.Fatal("EOF should be sticky")
	}
}
