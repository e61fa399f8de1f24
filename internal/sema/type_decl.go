package sema

import (
	"quill/internal/diag"
	"quill/internal/project"
	"quill/internal/source"
	"quill/internal/types"
)

// pendingType is a registered nominal type whose body is not resolved yet.
type pendingType struct {
	unit  *project.LoadedUnit
	file  *source.File
	id    types.TypeID
	class *project.ClassDecl
	union *project.UnionDecl
}

// declareTypes registers every class and union name first so declarations
// may refer to each other in any order.
func (tc *typeChecker) declareTypes(units []*project.LoadedUnit) []pendingType {
	var pending []pendingType
	for _, lu := range units {
		file := tc.fs.Get(lu.File)
		for i := range lu.Unit.Classes {
			decl := &lu.Unit.Classes[i]
			sp := lu.DeclSpan(file, "name", decl.Name)
			if !tc.declareName(decl.Name, sp) {
				continue
			}
			id := tc.types.RegisterClass(decl.Name, declModule(lu, decl.Module), sp)
			pending = append(pending, pendingType{unit: lu, file: file, id: id, class: decl})
		}
		for i := range lu.Unit.Unions {
			decl := &lu.Unit.Unions[i]
			sp := lu.DeclSpan(file, "name", decl.Name)
			if !tc.declareName(decl.Name, sp) {
				continue
			}
			id := tc.types.RegisterUnion(decl.Name, declModule(lu, decl.Module), decl.Open, sp)
			pending = append(pending, pendingType{unit: lu, file: file, id: id, union: decl})
		}
	}
	return pending
}

func declModule(lu *project.LoadedUnit, override string) string {
	if override != "" {
		return override
	}
	return lu.Unit.Module
}

func (tc *typeChecker) declareName(name string, sp source.Span) bool {
	if _, builtin := tc.builtins[name]; builtin {
		tc.report(diag.SemaDuplicateSymbol, sp, "%q is a builtin type and cannot be redeclared", name)
		return false
	}
	if prev, dup := tc.sites[name]; dup {
		tc.errorf(diag.SemaDuplicateSymbol, sp, "type %q is declared more than once", name).
			WithNote(prev, "previously declared here").
			Emit()
		return false
	}
	tc.sites[name] = sp
	return true
}

// defineTypes resolves field and variant payload types.
func (tc *typeChecker) defineTypes(pending []pendingType) {
	for _, p := range pending {
		if p.class != nil {
			tc.types.SetClassFields(p.id, tc.fields(p, p.class.Fields))
			continue
		}
		tc.types.SetUnionVariants(p.id, tc.variants(p))
	}
}

func (tc *typeChecker) fields(p pendingType, decls []project.FieldDecl) []types.Field {
	fields := make([]types.Field, 0, len(decls))
	seen := make(map[string]source.Span, len(decls))
	for _, fd := range decls {
		sp := p.unit.DeclSpan(p.file, "name", fd.Name)
		if prev, dup := seen[fd.Name]; dup {
			tc.errorf(diag.SemaDuplicateField, sp, "field %q is declared more than once", fd.Name).
				WithNote(prev, "previously declared here").
				Emit()
			continue
		}
		seen[fd.Name] = sp
		_, ty := tc.declType(p.unit, p.file, fd.Type, nil)
		fields = append(fields, types.Field{Name: fd.Name, Type: tc.orInvalid(ty), Private: fd.Private})
	}
	return fields
}

func (tc *typeChecker) variants(p pendingType) []types.Variant {
	out := make([]types.Variant, 0, len(p.union.Variants))
	seen := make(map[string]source.Span, len(p.union.Variants))
	for _, vd := range p.union.Variants {
		sp := p.unit.DeclSpan(p.file, "name", vd.Name)
		if prev, dup := seen[vd.Name]; dup {
			tc.errorf(diag.SemaDuplicateSymbol, sp, "variant %q of %s is declared more than once", vd.Name, p.union.Name).
				WithNote(prev, "previously declared here").
				Emit()
			continue
		}
		seen[vd.Name] = sp
		v := types.Variant{Name: vd.Name, Kind: types.VariantUnit, Private: vd.Private, Hidden: vd.Hidden}
		switch {
		case len(vd.Items) > 0:
			items := make([]types.TypeID, len(vd.Items))
			for i, text := range vd.Items {
				_, ty := tc.declType(p.unit, p.file, text, nil)
				items[i] = tc.orInvalid(ty)
			}
			v.Kind = types.VariantTuple
			v.Fields = types.TupleFields(items)
		case len(vd.Fields) > 0:
			v.Kind = types.VariantClass
			v.Fields = tc.fields(p, vd.Fields)
		}
		out = append(out, v)
	}
	return out
}

func (tc *typeChecker) orInvalid(ty types.TypeID) types.TypeID {
	if ty == types.NoTypeID {
		return tc.types.Builtins().Invalid
	}
	return ty
}
