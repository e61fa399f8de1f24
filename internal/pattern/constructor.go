package pattern

import (
	"errors"
	"fmt"

	"quill/internal/ast"
)

// ErrInternal reports a contract breach by the caller: the type checker is
// expected to reject every program that triggers it.
var ErrInternal = errors.New("pattern: internal invariant violated")

// CtorKind tags Constructor.
type CtorKind uint8

const (
	// CtorWildcard is the constructor of `_`, bindings and type patterns.
	CtorWildcard CtorKind = iota
	// CtorVariant selects a union variant by declaration index.
	CtorVariant
	// CtorClass is the single constructor of a class (or unit).
	CtorClass
	CtorBool
	// CtorLiteral is one value of a domain that cannot be listed (numbers, strings).
	CtorLiteral
	// CtorMissing stands for every constructor absent from a column.
	CtorMissing
	// CtorNonExhaustive stands for the values a column can never list.
	CtorNonExhaustive
	// CtorHidden stands for every variant the current module cannot name.
	CtorHidden
	// CtorPrivateUninhabited fills a field that is empty but not visible here.
	CtorPrivateUninhabited
	// CtorNever is the constructor of an uninhabited type.
	CtorNever
)

func (k CtorKind) String() string {
	switch k {
	case CtorWildcard:
		return "wildcard"
	case CtorVariant:
		return "variant"
	case CtorClass:
		return "class"
	case CtorBool:
		return "bool"
	case CtorLiteral:
		return "literal"
	case CtorMissing:
		return "missing"
	case CtorNonExhaustive:
		return "non-exhaustive"
	case CtorHidden:
		return "hidden"
	case CtorPrivateUninhabited:
		return "private-uninhabited"
	case CtorNever:
		return "never"
	default:
		return fmt.Sprintf("CtorKind(%d)", k)
	}
}

// Constructor describes which shape a value takes. Values compare with ==.
type Constructor struct {
	Kind CtorKind
	// Index is the variant ordinal for CtorVariant.
	Index int
	Bool  bool
	Lit   ast.Literal
}

var (
	Wildcard           = Constructor{Kind: CtorWildcard}
	Missing            = Constructor{Kind: CtorMissing}
	NonExhaustive      = Constructor{Kind: CtorNonExhaustive}
	Hidden             = Constructor{Kind: CtorHidden}
	PrivateUninhabited = Constructor{Kind: CtorPrivateUninhabited}
	Never              = Constructor{Kind: CtorNever}
	Class              = Constructor{Kind: CtorClass}
)

// Variant returns the constructor of the union variant at index i.
func Variant(i int) Constructor {
	return Constructor{Kind: CtorVariant, Index: i}
}

// Bool returns the constructor of a boolean value.
func Bool(v bool) Constructor {
	return Constructor{Kind: CtorBool, Bool: v}
}

// Literal returns the constructor of an int or string constant.
func Literal(lit ast.Literal) Constructor {
	return Constructor{Kind: CtorLiteral, Lit: lit}
}

// IsWildcard reports whether c matches anything.
func (c Constructor) IsWildcard() bool {
	return c.Kind == CtorWildcard
}

// IsMarker reports whether c only exists to render as `_` in reports.
func (c Constructor) IsMarker() bool {
	return c.Kind == CtorNonExhaustive || c.Kind == CtorHidden
}

// IsCoveredBy reports whether every value of c is also a value of other.
// c comes from splitting, so it is never a wildcard.
func (c Constructor) IsCoveredBy(other Constructor) (bool, error) {
	if c.Kind == CtorWildcard {
		return false, fmt.Errorf("%w: splitting produced a wildcard", ErrInternal)
	}
	switch {
	case other.Kind == CtorWildcard:
		return true, nil
	case c.Kind == CtorPrivateUninhabited:
		return true, nil
	case c.Kind == CtorMissing || c.Kind == CtorNonExhaustive || c.Kind == CtorHidden:
		return false, nil
	}
	switch c.Kind {
	case CtorClass:
		return other.Kind == CtorClass, nil
	case CtorVariant:
		return other.Kind == CtorVariant && other.Index == c.Index, nil
	case CtorBool:
		return other.Kind == CtorBool && other.Bool == c.Bool, nil
	case CtorLiteral:
		return other.Kind == CtorLiteral && other.Lit == c.Lit, nil
	case CtorNever:
		return other.Kind == CtorNever, nil
	}
	return false, fmt.Errorf("%w: cannot compare %s with %s", ErrInternal, c.Kind, other.Kind)
}

func (c Constructor) String() string {
	switch c.Kind {
	case CtorVariant:
		return fmt.Sprintf("variant(%d)", c.Index)
	case CtorBool:
		return fmt.Sprintf("bool(%t)", c.Bool)
	case CtorLiteral:
		return "literal(" + c.Lit.String() + ")"
	default:
		return c.Kind.String()
	}
}
