package lexer

import (
	"fmt"

	"quill/internal/diag"
	"quill/internal/token"
)

var singleByte = map[byte]token.Kind{
	'_': token.Underscore,
	'-': token.Minus,
	':': token.Colon,
	',': token.Comma,
	'.': token.Dot,
	'(': token.LParen,
	')': token.RParen,
	'{': token.LBrace,
	'}': token.RBrace,
}

// scanOperatorOrPunct scans punctuation, longest match first.
func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.cursor.Mark()
	emit := func(k token.Kind) token.Token {
		sp := lx.cursor.SpanFrom(start)
		return token.Token{Kind: k, Span: sp, Text: lx.text(sp)}
	}

	switch {
	case lx.try2('&', '&'):
		return emit(token.AndAnd)
	case lx.try2('=', '='):
		return emit(token.EqEq)
	case lx.try2('=', '>'):
		return emit(token.FatArrow)
	case lx.try2('-', '>'):
		return emit(token.Arrow)
	case lx.try2(':', ':'):
		return emit(token.ColonColon)
	}

	if k, ok := singleByte[lx.cursor.Peek()]; ok {
		lx.cursor.Bump()
		return emit(k)
	}

	r, sz := lx.peekRune()
	if sz == 0 {
		lx.cursor.Bump()
	} else {
		lx.bumpRune()
	}
	tok := emit(token.Invalid)
	lx.errLex(diag.LexUnknownChar, tok.Span, fmt.Sprintf("unknown character %q", r))
	return tok
}
