package ast

import (
	"fmt"

	"quill/internal/source"
	"quill/internal/types"
)

// ExprKind tags Expr.
type ExprKind uint8

const (
	ExprLiteral ExprKind = iota
	// ExprName is an identifier; sema resolves it to a local symbol.
	ExprName
	// ExprField is `X.Name`.
	ExprField
	ExprAnd
	ExprEq
	ExprMatch
	// ExprMatches is `X matches Pat`.
	ExprMatches
	// ExprIf is `if X { Y } else { Z }`.
	ExprIf
	ExprNew
)

func (k ExprKind) String() string {
	switch k {
	case ExprLiteral:
		return "literal"
	case ExprName:
		return "name"
	case ExprField:
		return "field"
	case ExprAnd:
		return "and"
	case ExprEq:
		return "eq"
	case ExprMatch:
		return "match"
	case ExprMatches:
		return "matches"
	case ExprIf:
		return "if"
	case ExprNew:
		return "new"
	default:
		return fmt.Sprintf("ExprKind(%d)", k)
	}
}

// Expr is a tagged expression node. Only the fields relevant to Kind are set.
type Expr struct {
	Kind ExprKind
	Span source.Span
	Type types.TypeID

	Lit  Literal
	Name string
	Sym  SymbolID

	X, Y, Z *Expr

	Arms []*Arm
	Pat  *Pattern

	New *NewData
}

// Arm is one `Pattern => Body` alternative of a match.
type Arm struct {
	Pattern *Pattern
	// Guard is reserved; guards are not part of the language yet.
	Guard *Expr
	Body  *Expr
	Span  source.Span
}

// NewData describes `new T { f: e }`, `new U::V(e, ...)` and `new U::V`.
type NewData struct {
	Owner      string
	Variant    string
	Positional bool
	Args       []FieldInit
}

// FieldInit is one constructor argument; Name is empty for positional ones.
type FieldInit struct {
	Name  string
	Index int
	Value *Expr
	Span  source.Span
}

// Inspect walks e depth-first. Returning false from f skips children.
// Patterns are not visited.
func Inspect(e *Expr, f func(*Expr) bool) {
	if e == nil || !f(e) {
		return
	}
	Inspect(e.X, f)
	Inspect(e.Y, f)
	Inspect(e.Z, f)
	for _, arm := range e.Arms {
		Inspect(arm.Guard, f)
		Inspect(arm.Body, f)
	}
	if e.New != nil {
		for _, arg := range e.New.Args {
			Inspect(arg.Value, f)
		}
	}
}

// WalkPattern visits p and every nested sub-pattern in source order.
func WalkPattern(p *Pattern, f func(*Pattern)) {
	if p == nil {
		return
	}
	f(p)
	for _, fp := range p.Fields {
		WalkPattern(fp.Pat, f)
	}
}
