package lexer

import "quill/internal/diag"

// skipTrivia consumes whitespace, `// ...` line comments and `/* ... */`
// block comments. Block comments nest.
func (lx *Lexer) skipTrivia() {
	for !lx.cursor.EOF() {
		switch b := lx.cursor.Peek(); b {
		case ' ', '\t', '\n', '\r':
			lx.cursor.Bump()
			continue
		case '/':
			b0, b1, ok := lx.cursor.Peek2()
			if !ok || b0 != '/' {
				return
			}
			switch b1 {
			case '/':
				for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
					lx.cursor.Bump()
				}
				continue
			case '*':
				lx.skipBlockComment()
				continue
			}
		}
		return
	}
}

func (lx *Lexer) skipBlockComment() {
	start := lx.cursor.Mark()
	lx.cursor.Bump()
	lx.cursor.Bump()
	depth := 1
	for !lx.cursor.EOF() {
		b0, b1, ok := lx.cursor.Peek2()
		switch {
		case ok && b0 == '/' && b1 == '*':
			lx.cursor.Bump()
			lx.cursor.Bump()
			depth++
		case ok && b0 == '*' && b1 == '/':
			lx.cursor.Bump()
			lx.cursor.Bump()
			depth--
			if depth == 0 {
				return
			}
		default:
			lx.cursor.Bump()
		}
	}
	lx.errLex(diag.LexUnterminatedComment, lx.cursor.SpanFrom(start), "unterminated block comment")
}
