package token

var keywords = map[string]Kind{
	"true":    KwTrue,
	"false":   KwFalse,
	"match":   KwMatch,
	"matches": KwMatches,
	"if":      KwIf,
	"else":    KwElse,
	"new":     KwNew,
	"var":     KwVar,
	"as":      KwAs,
	"fn":      KwFn,
}

// LookupKeyword reports whether ident is a keyword. Keywords are lowercase
// and case-sensitive.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}
