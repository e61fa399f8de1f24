package pattern

import (
	"fmt"
	"slices"

	"fortio.org/safecast"

	"quill/internal/ast"
	"quill/internal/source"
	"quill/internal/types"
)

// PatID addresses a DeconstructedPattern in an Arena. NoPatID is used for
// implicit wildcards, which have no identity.
type PatID uint32

const NoPatID PatID = 0

// FieldPat is one explicitly written sub-pattern, keyed by field index.
type FieldPat struct {
	Index int
	Pat   PatID
}

// DeconstructedPattern is a surface pattern reduced to a constructor and
// its explicit fields. Fields absent from Fields are wildcards.
type DeconstructedPattern struct {
	Ctor   Constructor
	Arity  int
	Fields []FieldPat
	Type   types.TypeID
	Span   source.Span
}

// Arena owns every pattern of one match expression.
type Arena struct {
	pats []DeconstructedPattern
}

func NewArena() *Arena {
	return &Arena{pats: make([]DeconstructedPattern, 1, 16)}
}

// Len counts patterns, not including the reserved slot.
func (a *Arena) Len() int {
	return len(a.pats) - 1
}

// Get returns the pattern for id, or nil for NoPatID.
func (a *Arena) Get(id PatID) *DeconstructedPattern {
	if id == NoPatID || int(id) >= len(a.pats) {
		return nil
	}
	return &a.pats[id]
}

func (a *Arena) alloc(p DeconstructedPattern) PatID {
	n, err := safecast.Conv[uint32](len(a.pats))
	if err != nil {
		panic(fmt.Errorf("pattern arena overflow: %w", err))
	}
	a.pats = append(a.pats, p)
	return PatID(n)
}

// Field returns the sub-pattern at index i, or NoPatID when it is implicit.
func (p *DeconstructedPattern) Field(i int) PatID {
	for _, f := range p.Fields {
		if f.Index == i {
			return f.Pat
		}
	}
	return NoPatID
}

// Walk visits id and its explicit sub-patterns depth-first. Returning false
// from f skips the children of that pattern.
func (a *Arena) Walk(id PatID, f func(PatID) bool) {
	p := a.Get(id)
	if p == nil || !f(id) {
		return
	}
	for _, fp := range p.Fields {
		a.Walk(fp.Pat, f)
	}
}

// Lower deconstructs pat, whose value has type ty, into the arena.
func Lower(a *Arena, cx *Cx, pat *ast.Pattern, ty types.TypeID) (PatID, error) {
	if pat == nil {
		return NoPatID, fmt.Errorf("%w: nil pattern", ErrInternal)
	}
	tt, ok := cx.Types.Lookup(ty)
	if !ok {
		return NoPatID, fmt.Errorf("%w: pattern %s has no type", ErrInternal, pat)
	}
	switch pat.Kind {
	case ast.PatDiscard, ast.PatBinding, ast.PatType:
		return a.alloc(DeconstructedPattern{Ctor: Wildcard, Type: ty, Span: pat.Span}), nil

	case ast.PatLiteral:
		ctor, err := literalCtor(pat.Lit, tt.Kind)
		if err != nil {
			return NoPatID, err
		}
		return a.alloc(DeconstructedPattern{Ctor: ctor, Type: ty, Span: pat.Span}), nil

	case ast.PatVariant:
		info, ok := cx.Types.UnionInfo(ty)
		if !ok {
			return NoPatID, fmt.Errorf("%w: variant pattern %s against %s", ErrInternal, pat, types.Label(cx.Types, ty))
		}
		idx := info.VariantIndex(pat.Variant)
		if idx < 0 {
			return NoPatID, fmt.Errorf("%w: %s has no variant %q", ErrInternal, info.Name, pat.Variant)
		}
		v := &info.Variants[idx]
		return lowerFields(a, cx, pat, Variant(idx), ty, v.Fields)

	case ast.PatClass:
		info, ok := cx.Types.ClassInfo(ty)
		if !ok {
			return NoPatID, fmt.Errorf("%w: class pattern %s against %s", ErrInternal, pat, types.Label(cx.Types, ty))
		}
		return lowerFields(a, cx, pat, Class, ty, info.Fields)
	}
	return NoPatID, fmt.Errorf("%w: unknown pattern kind %s", ErrInternal, pat.Kind)
}

func lowerFields(a *Arena, cx *Cx, pat *ast.Pattern, ctor Constructor, ty types.TypeID, decl []types.Field) (PatID, error) {
	id := a.alloc(DeconstructedPattern{Ctor: ctor, Arity: len(decl), Type: ty, Span: pat.Span})
	var fields []FieldPat
	for pos, fp := range pat.Fields {
		idx := pos
		if !pat.Positional {
			idx = fieldIndex(decl, fp.Name)
		}
		if idx < 0 || idx >= len(decl) {
			return NoPatID, fmt.Errorf("%w: field %q out of range in %s", ErrInternal, fp.Name, pat)
		}
		if slices.ContainsFunc(fields, func(f FieldPat) bool { return f.Index == idx }) {
			return NoPatID, fmt.Errorf("%w: field %d bound twice in %s", ErrInternal, idx, pat)
		}
		sub, err := Lower(a, cx, fp.Pat, decl[idx].Type)
		if err != nil {
			return NoPatID, err
		}
		fields = append(fields, FieldPat{Index: idx, Pat: sub})
	}
	slices.SortFunc(fields, func(x, y FieldPat) int { return x.Index - y.Index })
	// re-fetch: recursive allocs may have grown the arena
	a.Get(id).Fields = fields
	return id, nil
}

func literalCtor(lit ast.Literal, kind types.Kind) (Constructor, error) {
	switch {
	case lit.Kind == ast.LitBool && kind == types.KindBool:
		return Bool(lit.Bool), nil
	case lit.Kind == ast.LitInt && (kind == types.KindInt || kind == types.KindUint):
		return Literal(lit), nil
	case lit.Kind == ast.LitString && kind == types.KindString:
		return Literal(lit), nil
	}
	return Constructor{}, fmt.Errorf("%w: literal %s against %s", ErrInternal, lit, kind)
}

func fieldIndex(fields []types.Field, name string) int {
	for i, f := range fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}
