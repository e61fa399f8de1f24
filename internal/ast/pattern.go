package ast

import (
	"fmt"
	"strconv"

	"quill/internal/source"
	"quill/internal/types"
)

// PatKind tags Pattern.
type PatKind uint8

const (
	// PatDiscard is `_`.
	PatDiscard PatKind = iota
	// PatBinding is `var x`.
	PatBinding
	// PatType is `var x: T` or `_: T`; the checker only admits it when T is the scrutinee type.
	PatType
	PatLiteral
	// PatVariant is `U::V`, `U::V(p, ...)` or `U::V { f: p }`.
	PatVariant
	// PatClass is `C { f: p }`.
	PatClass
)

func (k PatKind) String() string {
	switch k {
	case PatDiscard:
		return "discard"
	case PatBinding:
		return "binding"
	case PatType:
		return "type"
	case PatLiteral:
		return "literal"
	case PatVariant:
		return "variant"
	case PatClass:
		return "class"
	default:
		return fmt.Sprintf("PatKind(%d)", k)
	}
}

// Pattern is a surface pattern. Parser fills the syntax, sema fills Type,
// Sym and the resolved field indices.
type Pattern struct {
	Kind PatKind
	Span source.Span
	// Type is the type of the value this pattern is matched against.
	Type types.TypeID

	// Name is the bound variable for binding/type patterns and for `P as x`.
	Name string
	Sym  SymbolID

	// TypeExpr is the annotation of a type pattern.
	TypeExpr *TypeExpr

	Lit Literal

	// Owner is `U` in `U::V` or `C` in `C { ... }`.
	Owner   string
	Variant string
	// Positional is set for `U::V(p, ...)`.
	Positional bool
	Fields     []FieldPattern
}

// FieldPattern is one explicitly written sub-pattern.
type FieldPattern struct {
	// Name is empty for positional sub-patterns.
	Name  string
	Index int
	Pat   *Pattern
	Span  source.Span
}

// IsCatchAll reports whether the pattern matches every value without testing it.
func (p *Pattern) IsCatchAll() bool {
	if p == nil {
		return false
	}
	switch p.Kind {
	case PatDiscard, PatBinding, PatType:
		return true
	default:
		return false
	}
}

// Binds reports whether the pattern introduces a variable at its own level.
func (p *Pattern) Binds() bool {
	return p != nil && p.Name != "" && p.Name != "_"
}

func (p *Pattern) String() string {
	if p == nil {
		return "<nil>"
	}
	var s string
	switch p.Kind {
	case PatDiscard:
		return "_"
	case PatBinding:
		return "var " + p.Name
	case PatType:
		name := "_"
		if p.Binds() {
			name = "var " + p.Name
		}
		return name + ": " + p.TypeExpr.String()
	case PatLiteral:
		s = p.Lit.String()
	case PatVariant:
		s = p.Owner + "::" + p.Variant
		switch {
		case p.Positional:
			s += "(" + joinFields(p.Fields, false) + ")"
		case len(p.Fields) > 0:
			s += " { " + joinFields(p.Fields, true) + " }"
		}
	case PatClass:
		s = p.Owner + " { " + joinFields(p.Fields, true) + " }"
	}
	if p.Binds() {
		s += " as " + p.Name
	}
	return s
}

func joinFields(fields []FieldPattern, named bool) string {
	out := ""
	for i, f := range fields {
		if i > 0 {
			out += ", "
		}
		if named {
			out += f.Name + ": "
		}
		out += f.Pat.String()
	}
	return out
}

// LitKind tags Literal.
type LitKind uint8

const (
	LitNone LitKind = iota
	LitBool
	LitInt
	LitString
)

// Literal is a constant written in source.
type Literal struct {
	Kind LitKind
	Bool bool
	Int  int64
	Str  string
}

func (l Literal) String() string {
	switch l.Kind {
	case LitBool:
		return strconv.FormatBool(l.Bool)
	case LitInt:
		return strconv.FormatInt(l.Int, 10)
	case LitString:
		return strconv.Quote(l.Str)
	default:
		return "<none>"
	}
}
