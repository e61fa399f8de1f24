// Package token defines the lexical tokens of function bodies.
// Invariants:
//   - Token.Span covers the source bytes of the token exactly.
//   - Token.Text is the source slice, except for identifiers, which are
//     NFC-normalized, and string literals, which hold the unescaped value.
//   - Type names such as int and bool are identifiers; the resolver
//     recognizes them.
package token
