package sema

import (
	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/source"
	"quill/internal/types"
)

// patternChecker resolves one top-level pattern. Bindings land in sc and
// every name may be bound once.
type patternChecker struct {
	fc    *funcChecker
	sc    *scope
	bound map[string]source.Span
}

// pattern resolves p against a scrutinee of type ty, declaring its bindings
// in sc. A NoTypeID scrutinee still declares bindings so later uses resolve.
func (fc *funcChecker) pattern(p *ast.Pattern, ty types.TypeID, sc *scope) {
	pc := &patternChecker{fc: fc, sc: sc, bound: make(map[string]source.Span)}
	pc.check(p, ty)
}

func (pc *patternChecker) check(p *ast.Pattern, ty types.TypeID) {
	if p == nil {
		return
	}
	p.Type = ty
	if p.Binds() {
		pc.bind(p, ty)
	}
	switch p.Kind {
	case ast.PatType:
		pc.typePattern(p, ty)
	case ast.PatLiteral:
		pc.literal(p, ty)
	case ast.PatVariant:
		pc.variant(p, ty)
	case ast.PatClass:
		pc.class(p, ty)
	}
}

func (pc *patternChecker) bind(p *ast.Pattern, ty types.TypeID) {
	if prev, dup := pc.bound[p.Name]; dup {
		pc.fc.tc.errorf(diag.SemaDuplicateBinding, p.Span, "%q is bound more than once in this pattern", p.Name).
			WithNote(prev, "first bound here").
			Emit()
		return
	}
	pc.bound[p.Name] = p.Span
	p.Sym = pc.fc.declare(p.Name, ty, false, p.Span)
	pc.sc.bind(p.Name, p.Sym)
}

func (pc *patternChecker) typePattern(p *ast.Pattern, ty types.TypeID) {
	tc := pc.fc.tc
	want := tc.resolveType(p.TypeExpr, p.Span, pc.fc.generics)
	if want == types.NoTypeID || ty == types.NoTypeID || want == ty {
		return
	}
	tc.report(diag.SemaPatternTypeMismatch, p.Span, "type pattern %s cannot match a value of type %s", tc.label(want), tc.label(ty))
}

func (pc *patternChecker) literal(p *ast.Pattern, ty types.TypeID) {
	tc := pc.fc.tc
	if ty == types.NoTypeID {
		return
	}
	kind := tc.types.KindOf(ty)
	switch {
	case p.Lit.Kind == ast.LitBool && kind == types.KindBool,
		p.Lit.Kind == ast.LitString && kind == types.KindString,
		p.Lit.Kind == ast.LitInt && kind == types.KindInt:
	case p.Lit.Kind == ast.LitInt && kind == types.KindUint:
		if p.Lit.Int < 0 {
			tc.report(diag.SemaBadLiteralPattern, p.Span, "negative literal %d can never match a value of type %s", p.Lit.Int, tc.label(ty))
		}
	default:
		tc.report(diag.SemaPatternTypeMismatch, p.Span, "literal %s cannot match a value of type %s", p.Lit, tc.label(ty))
	}
}

// owner checks that the type named by the pattern is the scrutinee type.
func (pc *patternChecker) owner(p *ast.Pattern, ty types.TypeID) bool {
	tc := pc.fc.tc
	id, ok := tc.named(p.Owner, p.Span)
	if !ok {
		return false
	}
	if ty != types.NoTypeID && id != ty {
		tc.report(diag.SemaPatternTypeMismatch, p.Span, "pattern of type %s cannot match a value of type %s", tc.label(id), tc.label(ty))
		return false
	}
	return ty != types.NoTypeID
}

func (pc *patternChecker) variant(p *ast.Pattern, ty types.TypeID) {
	tc := pc.fc.tc
	if !pc.owner(p, ty) {
		pc.unresolved(p)
		return
	}
	info, ok := tc.types.UnionInfo(ty)
	if !ok {
		tc.report(diag.SemaNotAUnion, p.Span, "%s is not a union", p.Owner)
		pc.unresolved(p)
		return
	}
	vi := info.VariantIndex(p.Variant)
	if vi < 0 {
		tc.report(diag.SemaUnknownVariant, p.Span, "union %s has no variant %q", info.Name, p.Variant)
		pc.unresolved(p)
		return
	}
	v := &info.Variants[vi]
	if !tc.visible(v.Private, info.Module) {
		tc.report(diag.SemaPrivateVariant, p.Span, "variant %s::%s is private to module %s", info.Name, v.Name, info.Module)
	}
	what := info.Name + "::" + v.Name
	if !p.Positional {
		pc.namedFields(p, what, v.Fields, info.Module)
		return
	}
	if v.Kind == types.VariantClass || len(p.Fields) != len(v.Fields) {
		tc.report(diag.SemaArityMismatch, p.Span, "%s has %d positional fields, the pattern lists %d", what, positionalCount(v), len(p.Fields))
		pc.unresolved(p)
		return
	}
	for i := range p.Fields {
		fp := &p.Fields[i]
		fp.Index = i
		pc.check(fp.Pat, v.Fields[i].Type)
	}
}

func positionalCount(v *types.Variant) int {
	if v.Kind == types.VariantClass {
		return 0
	}
	return len(v.Fields)
}

func (pc *patternChecker) class(p *ast.Pattern, ty types.TypeID) {
	tc := pc.fc.tc
	if !pc.owner(p, ty) {
		pc.unresolved(p)
		return
	}
	info, ok := tc.types.ClassInfo(ty)
	if !ok {
		tc.report(diag.SemaNotAClass, p.Span, "%s is not a class", p.Owner)
		pc.unresolved(p)
		return
	}
	pc.namedFields(p, info.Name, info.Fields, info.Module)
}

func (pc *patternChecker) namedFields(p *ast.Pattern, what string, decl []types.Field, module string) {
	tc := pc.fc.tc
	seen := make(map[string]source.Span, len(p.Fields))
	for i := range p.Fields {
		fp := &p.Fields[i]
		idx := fieldIndex(decl, fp.Name)
		if idx < 0 {
			tc.report(diag.SemaUnknownField, fp.Span, "%s has no field %q", what, fp.Name)
			pc.check(fp.Pat, types.NoTypeID)
			continue
		}
		if prev, dup := seen[fp.Name]; dup {
			tc.errorf(diag.SemaDuplicateField, fp.Span, "field %q is listed more than once", fp.Name).
				WithNote(prev, "first listed here").
				Emit()
			pc.check(fp.Pat, types.NoTypeID)
			continue
		}
		seen[fp.Name] = fp.Span
		if !tc.visible(decl[idx].Private, module) {
			tc.report(diag.SemaPrivateField, fp.Span, "field %s.%s is private to module %s", what, fp.Name, module)
		}
		fp.Index = idx
		pc.check(fp.Pat, decl[idx].Type)
	}
}

// unresolved walks sub-patterns of a pattern that failed to resolve.
func (pc *patternChecker) unresolved(p *ast.Pattern) {
	for i := range p.Fields {
		pc.check(p.Fields[i].Pat, types.NoTypeID)
	}
}
