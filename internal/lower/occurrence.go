package lower

import (
	"fmt"
	"maps"

	"quill/internal/ast"
	"quill/internal/mir"
	"quill/internal/types"
)

// rootOcc is the scrutinee itself.
const rootOcc = 0

// occurrence is a value reachable from the scrutinee through a chain of
// field reads.
type occurrence struct {
	parent int
	field  mir.FieldRef
	ty     types.TypeID
}

type occKey struct {
	parent  int
	variant string
	index   int
}

// occTable interns occurrences so every test and binding on the same access
// chain shares one temporary.
type occTable struct {
	types *types.Interner
	occs  []occurrence
	index map[occKey]int
}

func newOccTable(in *types.Interner, scrutTy types.TypeID) *occTable {
	return &occTable{
		types: in,
		occs:  []occurrence{{parent: -1, ty: scrutTy}},
		index: make(map[occKey]int),
	}
}

func (t *occTable) child(parent int, variant string, index int, decl types.Field) int {
	key := occKey{parent: parent, variant: variant, index: index}
	if id, ok := t.index[key]; ok {
		return id
	}
	id := len(t.occs)
	t.occs = append(t.occs, occurrence{
		parent: parent,
		field:  mir.FieldRef{Variant: variant, Name: decl.Name, Index: index},
		ty:     decl.Type,
	})
	t.index[key] = id
	return id
}

func (t *occTable) typeOf(occ int) types.TypeID {
	return t.occs[occ].ty
}

// subPatterns resolves the explicitly written fields of a class or variant
// pattern to child occurrences, in declaration order.
func (t *occTable) subPatterns(occ int, variant string, pat *ast.Pattern, decl []types.Field) ([]column, error) {
	cols := make([]column, 0, len(pat.Fields))
	seen := make(map[int]bool, len(pat.Fields))
	for pos, fp := range pat.Fields {
		idx := pos
		if !pat.Positional {
			idx = fieldIndex(decl, fp.Name)
		}
		if idx < 0 || idx >= len(decl) {
			return nil, fmt.Errorf("%w: field %q out of range in %s", ErrInternal, fp.Name, pat)
		}
		if seen[idx] {
			return nil, fmt.Errorf("%w: field %d bound twice in %s", ErrInternal, idx, pat)
		}
		if fp.Pat == nil {
			return nil, fmt.Errorf("%w: empty sub-pattern in %s", ErrInternal, pat)
		}
		seen[idx] = true
		cols = append(cols, column{occ: t.child(occ, variant, idx, decl[idx]), pat: fp.Pat, index: idx})
	}
	sortColumns(cols)
	return cols, nil
}

// classShape checks that pat is a class pattern for the class at occ.
func (t *occTable) classShape(occ int, pat *ast.Pattern) (*types.ClassInfo, error) {
	ty := t.typeOf(occ)
	info, ok := t.types.ClassInfo(ty)
	if !ok {
		return nil, fmt.Errorf("%w: class pattern %s against %s", ErrInternal, pat, types.Label(t.types, ty))
	}
	if pat.Owner != "" && pat.Owner != info.Name {
		return nil, fmt.Errorf("%w: pattern %s against class %s", ErrInternal, pat, info.Name)
	}
	return info, nil
}

// variantShape resolves a variant pattern against the union at occ.
func (t *occTable) variantShape(occ int, pat *ast.Pattern) (*types.UnionInfo, int, error) {
	ty := t.typeOf(occ)
	info, ok := t.types.UnionInfo(ty)
	if !ok {
		return nil, -1, fmt.Errorf("%w: variant pattern %s against %s", ErrInternal, pat, types.Label(t.types, ty))
	}
	if pat.Owner != "" && pat.Owner != info.Name {
		return nil, -1, fmt.Errorf("%w: pattern %s against union %s", ErrInternal, pat, info.Name)
	}
	ord := info.VariantIndex(pat.Variant)
	if ord < 0 {
		return nil, -1, fmt.Errorf("%w: union %s has no variant %s", ErrInternal, info.Name, pat.Variant)
	}
	return info, ord, nil
}

// literalShape checks a literal pattern against the primitive at occ.
func (t *occTable) literalShape(occ int, pat *ast.Pattern) (testKind, error) {
	ty := t.typeOf(occ)
	kind := t.types.KindOf(ty)
	switch {
	case pat.Lit.Kind == ast.LitBool && kind == types.KindBool:
		return testBool, nil
	case pat.Lit.Kind == ast.LitInt && (kind == types.KindInt || kind == types.KindUint):
		return testInt, nil
	case pat.Lit.Kind == ast.LitString && kind == types.KindString:
		return testString, nil
	}
	return 0, fmt.Errorf("%w: literal %s against %s", ErrInternal, pat.Lit, types.Label(t.types, ty))
}

// materializer reads occurrences into temporaries on demand. Reads are
// emitted into the current block, so a cache is only valid along the path
// that filled it; branches work on clones.
type materializer struct {
	l     *funcLowerer
	occs  *occTable
	cache map[int]mir.LocalID
}

func (m *materializer) local(occ int) mir.LocalID {
	if id, ok := m.cache[occ]; ok {
		return id
	}
	o := m.occs.occs[occ]
	parent := m.local(o.parent)
	tmp := m.l.newTemp(o.ty, m.l.f.Span)
	m.l.fieldAccess(tmp, parent, o.field)
	m.cache[occ] = tmp
	return tmp
}

// discriminant reads the union tag at occ into a fresh temp.
func (m *materializer) discriminant(occ int) mir.LocalID {
	obj := m.local(occ)
	tag := m.l.newTemp(m.l.types.Builtins().U32, m.l.f.Span)
	m.l.fieldAccess(tag, obj, mir.Discriminant())
	return tag
}

func (m *materializer) fork() *materializer {
	return &materializer{l: m.l, occs: m.occs, cache: maps.Clone(m.cache)}
}
