package token

import "fmt"

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF

	Ident
	IntLit
	StringLit

	KwTrue    // true
	KwFalse   // false
	KwMatch   // match
	KwMatches // matches
	KwIf      // if
	KwElse    // else
	KwNew     // new
	KwVar     // var
	KwAs      // as
	KwFn      // fn

	Underscore // _
	Minus      // -
	AndAnd     // &&
	EqEq       // ==
	Colon      // :
	ColonColon // ::
	Comma      // ,
	Dot        // .
	Arrow      // ->
	FatArrow   // =>
	LParen     // (
	RParen     // )
	LBrace     // {
	RBrace     // }
)

var kindNames = [...]string{
	Invalid:    "invalid",
	EOF:        "end of input",
	Ident:      "identifier",
	IntLit:     "integer literal",
	StringLit:  "string literal",
	KwTrue:     "'true'",
	KwFalse:    "'false'",
	KwMatch:    "'match'",
	KwMatches:  "'matches'",
	KwIf:       "'if'",
	KwElse:     "'else'",
	KwNew:      "'new'",
	KwVar:      "'var'",
	KwAs:       "'as'",
	KwFn:       "'fn'",
	Underscore: "'_'",
	Minus:      "'-'",
	AndAnd:     "'&&'",
	EqEq:       "'=='",
	Colon:      "':'",
	ColonColon: "'::'",
	Comma:      "','",
	Dot:        "'.'",
	Arrow:      "'->'",
	FatArrow:   "'=>'",
	LParen:     "'('",
	RParen:     "')'",
	LBrace:     "'{'",
	RBrace:     "'}'",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}
