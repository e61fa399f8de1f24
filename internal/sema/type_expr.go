package sema

import (
	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/parser"
	"quill/internal/project"
	"quill/internal/source"
	"quill/internal/types"
)

// declType parses and resolves a type written in a unit declaration.
func (tc *typeChecker) declType(lu *project.LoadedUnit, file *source.File, text string, generics map[string]types.TypeID) (*ast.TypeExpr, types.TypeID) {
	sp := lu.DeclSpan(file, "", text)
	te, err := parser.ParseTypeString(text)
	if err != nil {
		tc.report(diag.SynExpectType, sp, "invalid type %q: %v", text, err)
		return nil, types.NoTypeID
	}
	return te, tc.resolveType(te, sp, generics)
}

// resolveType maps a written type to its TypeID. Generic parameters shadow
// declared types, which shadow nothing: builtin names cannot be redeclared.
// NoTypeID is returned after reporting when a name is unknown.
func (tc *typeChecker) resolveType(te *ast.TypeExpr, sp source.Span, generics map[string]types.TypeID) types.TypeID {
	if te == nil {
		return types.NoTypeID
	}
	if te.Fn {
		params := make([]types.TypeID, len(te.Params))
		failed := false
		for i, p := range te.Params {
			params[i] = tc.resolveType(p, sp, generics)
			failed = failed || params[i] == types.NoTypeID
		}
		result := tc.resolveType(te.Result, sp, generics)
		if failed || result == types.NoTypeID {
			return types.NoTypeID
		}
		return tc.types.RegisterFn(params, result)
	}
	if id, ok := generics[te.Name]; ok {
		return id
	}
	if id, ok := tc.builtins[te.Name]; ok {
		return id
	}
	if id, ok := tc.types.Named(te.Name); ok {
		return id
	}
	tc.report(diag.SemaUnknownType, sp, "unknown type %q", te.Name)
	return types.NoTypeID
}

// named finds a declared class or union.
func (tc *typeChecker) named(name string, sp source.Span) (types.TypeID, bool) {
	if id, ok := tc.types.Named(name); ok {
		return id, true
	}
	if _, builtin := tc.builtins[name]; builtin {
		tc.report(diag.SemaUnknownType, sp, "%s is a builtin type, not a class or union", name)
		return types.NoTypeID, false
	}
	tc.report(diag.SemaUnknownType, sp, "unknown type %q", name)
	return types.NoTypeID, false
}
