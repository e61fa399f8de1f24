package lexer

import (
	"quill/internal/diag"
	"quill/internal/token"
)

// scanNumber accepts decimal and 0x/0o/0b integers with '_' separators.
// The value is checked by the parser; here only the shape is validated.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()

	digit := isDec
	if lx.cursor.Peek() == '0' {
		b0, b1, ok := lx.cursor.Peek2()
		if ok && b0 == '0' {
			switch b1 {
			case 'x', 'X':
				digit = isHex
			case 'o', 'O':
				digit = func(b byte) bool { return b >= '0' && b <= '7' }
			case 'b', 'B':
				digit = func(b byte) bool { return b == '0' || b == '1' }
			}
			if b1 == 'x' || b1 == 'X' || b1 == 'o' || b1 == 'O' || b1 == 'b' || b1 == 'B' {
				lx.cursor.Bump()
				lx.cursor.Bump()
				if !digit(lx.cursor.Peek()) {
					sp := lx.cursor.SpanFrom(start)
					lx.errLex(diag.LexBadNumber, sp, "expected digits after base prefix")
					return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
				}
			}
		}
	}

	for digit(lx.cursor.Peek()) || lx.cursor.Peek() == '_' {
		lx.cursor.Bump()
	}
	if isIdentContinueByte(lx.cursor.Peek()) {
		for isIdentContinueByte(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
		sp := lx.cursor.SpanFrom(start)
		lx.errLex(diag.LexBadNumber, sp, "malformed number literal "+lx.text(sp))
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
	}
	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: token.IntLit, Span: sp, Text: lx.text(sp)}
}
