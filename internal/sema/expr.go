package sema

import (
	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/types"
)

// value types e and drops the scope its truth would establish.
func (fc *funcChecker) value(e *ast.Expr, sc *scope) types.TypeID {
	ty, _ := fc.expr(e, sc)
	return ty
}

// expr types e in sc and records the type on the node. The returned scope
// holds the names bound when e evaluates to true: bindings of `matches`
// flow through `&&` into its right operand and into the then-branch of an
// enclosing `if`. NoTypeID means an error was already reported.
func (fc *funcChecker) expr(e *ast.Expr, sc *scope) (types.TypeID, *scope) {
	if e == nil {
		return types.NoTypeID, sc
	}
	tc := fc.tc
	b := tc.types.Builtins()
	truth := sc

	switch e.Kind {
	case ast.ExprLiteral:
		e.Type = literalType(b, e.Lit)

	case ast.ExprName:
		sym, ok := sc.lookup(e.Name)
		if !ok {
			tc.report(diag.SemaUnresolvedSymbol, e.Span, "undefined name %q", e.Name)
			return types.NoTypeID, sc
		}
		e.Sym = sym
		e.Type = fc.fn.Local(sym).Type

	case ast.ExprField:
		e.Type = fc.field(e, sc)

	case ast.ExprAnd:
		lt, ls := fc.expr(e.X, sc)
		rt, rs := fc.expr(e.Y, ls)
		if !fc.isBool(lt) || !fc.isBool(rt) {
			tc.report(diag.SemaInvalidBinaryOperands, e.Span, "operator && needs bool operands, got %s and %s", tc.label(lt), tc.label(rt))
		}
		e.Type, truth = b.Bool, rs

	case ast.ExprEq:
		lt := fc.value(e.X, sc)
		rt := fc.value(e.Y, sc)
		if lt != types.NoTypeID && rt != types.NoTypeID {
			if lt != rt && !fc.coerceLiteral(e.X, rt) && !fc.coerceLiteral(e.Y, lt) {
				tc.report(diag.SemaInvalidBinaryOperands, e.Span, "cannot compare %s with %s", tc.label(lt), tc.label(rt))
			} else if !fc.comparable(e.X.Type) {
				tc.report(diag.SemaInvalidBinaryOperands, e.Span, "values of type %s cannot be compared with ==", tc.label(e.X.Type))
			}
		}
		e.Type = b.Bool

	case ast.ExprMatch:
		xt := fc.value(e.X, sc)
		var j join
		for _, arm := range e.Arms {
			armScope := newScope(sc)
			fc.pattern(arm.Pattern, xt, armScope)
			fc.joinBranch(&j, arm.Body, fc.value(arm.Body, armScope))
		}
		e.Type = j.result(b)

	case ast.ExprMatches:
		xt := fc.value(e.X, sc)
		bound := newScope(sc)
		fc.pattern(e.Pat, xt, bound)
		e.Type, truth = b.Bool, bound

	case ast.ExprIf:
		ct, then := fc.expr(e.X, sc)
		if ct != types.NoTypeID && ct != b.Bool && ct != b.Never {
			tc.report(diag.SemaInvalidBoolContext, e.X.Span, "condition has type %s, want bool", tc.label(ct))
		}
		var j join
		fc.joinBranch(&j, e.Y, fc.value(e.Y, then))
		fc.joinBranch(&j, e.Z, fc.value(e.Z, sc))
		e.Type = j.result(b)

	case ast.ExprNew:
		e.Type = fc.newExpr(e, sc)
	}
	return e.Type, truth
}

func literalType(b types.Builtins, lit ast.Literal) types.TypeID {
	switch lit.Kind {
	case ast.LitBool:
		return b.Bool
	case ast.LitInt:
		return b.Int
	case ast.LitString:
		return b.String
	default:
		return b.Unit
	}
}

// isBool accepts bool, never and already-reported errors.
func (fc *funcChecker) isBool(ty types.TypeID) bool {
	b := fc.tc.types.Builtins()
	return ty == types.NoTypeID || ty == b.Bool || ty == b.Never
}

func (fc *funcChecker) comparable(ty types.TypeID) bool {
	switch fc.tc.types.KindOf(ty) {
	case types.KindBool, types.KindString, types.KindInt, types.KindUint, types.KindFloat:
		return true
	default:
		return false
	}
}

func (fc *funcChecker) field(e *ast.Expr, sc *scope) types.TypeID {
	tc := fc.tc
	xt := fc.value(e.X, sc)
	if xt == types.NoTypeID {
		return types.NoTypeID
	}
	info, ok := tc.types.ClassInfo(xt)
	if !ok {
		tc.report(diag.SemaNotAClass, e.Span, "type %s has no fields", tc.label(xt))
		return types.NoTypeID
	}
	idx := info.FieldIndex(e.Name)
	if idx < 0 {
		tc.report(diag.SemaUnknownField, e.Span, "class %s has no field %q", info.Name, e.Name)
		return types.NoTypeID
	}
	f := info.Fields[idx]
	if !tc.visible(f.Private, info.Module) {
		tc.report(diag.SemaPrivateField, e.Span, "field %s.%s is private to module %s", info.Name, f.Name, info.Module)
	}
	return f.Type
}

// join accumulates the type of a multi-branch expression. Branches of type
// never adopt the type of the others.
type join struct {
	ty     types.TypeID
	first  *ast.Expr
	failed bool
}

func (fc *funcChecker) joinBranch(j *join, e *ast.Expr, ty types.TypeID) {
	tc := fc.tc
	switch {
	case ty == types.NoTypeID:
		j.failed = true
	case ty == tc.types.Builtins().Never:
	case j.ty == types.NoTypeID:
		j.ty, j.first = ty, e
	case fc.assignable(e, ty, j.ty):
	case fc.coerceLiteral(j.first, ty):
		j.ty, j.first = ty, e
	default:
		tc.errorf(diag.SemaTypeMismatch, e.Span, "branch has type %s, expected %s", tc.label(ty), tc.label(j.ty)).
			WithNote(j.first.Span, "first branch has type "+tc.label(j.ty)).
			Emit()
	}
}

// result is never for zero branches or when every branch diverges.
func (j *join) result(b types.Builtins) types.TypeID {
	switch {
	case j.ty != types.NoTypeID:
		return j.ty
	case j.failed:
		return types.NoTypeID
	default:
		return b.Never
	}
}

func (fc *funcChecker) newExpr(e *ast.Expr, sc *scope) types.TypeID {
	tc := fc.tc
	nd := e.New
	owner, ok := tc.named(nd.Owner, e.Span)
	if !ok {
		fc.argValues(nd, sc)
		return types.NoTypeID
	}

	if nd.Variant == "" {
		info, ok := tc.types.ClassInfo(owner)
		if !ok {
			tc.report(diag.SemaNotAClass, e.Span, "%s is not a class; name a variant with %s::V", nd.Owner, nd.Owner)
			fc.argValues(nd, sc)
			return types.NoTypeID
		}
		if nd.Positional {
			tc.report(diag.SemaArityMismatch, e.Span, "class %s takes named fields", info.Name)
			fc.argValues(nd, sc)
			return owner
		}
		fc.namedArgs(e, info.Name, info.Fields, info.Module, sc)
		return owner
	}

	info, ok := tc.types.UnionInfo(owner)
	if !ok {
		tc.report(diag.SemaNotAUnion, e.Span, "%s is not a union", nd.Owner)
		fc.argValues(nd, sc)
		return types.NoTypeID
	}
	vi := info.VariantIndex(nd.Variant)
	if vi < 0 {
		tc.report(diag.SemaUnknownVariant, e.Span, "union %s has no variant %q", info.Name, nd.Variant)
		fc.argValues(nd, sc)
		return owner
	}
	v := &info.Variants[vi]
	if !tc.visible(v.Private, info.Module) {
		tc.report(diag.SemaPrivateVariant, e.Span, "variant %s::%s is private to module %s", info.Name, v.Name, info.Module)
	}
	what := info.Name + "::" + v.Name
	switch {
	case v.Kind == types.VariantClass && nd.Positional:
		tc.report(diag.SemaArityMismatch, e.Span, "%s takes named fields", what)
		fc.argValues(nd, sc)
	case v.Kind == types.VariantClass:
		fc.namedArgs(e, what, v.Fields, info.Module, sc)
	case nd.Positional || len(nd.Args) == 0:
		fc.positionalArgs(e, what, v.Fields, sc)
	default:
		tc.report(diag.SemaArityMismatch, e.Span, "%s takes positional fields", what)
		fc.argValues(nd, sc)
	}
	return owner
}

// argValues types the arguments of a constructor that could not be resolved.
func (fc *funcChecker) argValues(nd *ast.NewData, sc *scope) {
	for _, arg := range nd.Args {
		fc.value(arg.Value, sc)
	}
}

func (fc *funcChecker) positionalArgs(e *ast.Expr, what string, decl []types.Field, sc *scope) {
	tc := fc.tc
	nd := e.New
	if len(nd.Args) != len(decl) {
		tc.report(diag.SemaArityMismatch, e.Span, "%s takes %d fields, got %d", what, len(decl), len(nd.Args))
		fc.argValues(nd, sc)
		return
	}
	for i := range nd.Args {
		arg := &nd.Args[i]
		arg.Index = i
		fc.argument(arg, decl[i], sc)
	}
}

func (fc *funcChecker) namedArgs(e *ast.Expr, what string, decl []types.Field, module string, sc *scope) {
	tc := fc.tc
	nd := e.New
	given := make(map[string]*ast.FieldInit, len(nd.Args))
	for i := range nd.Args {
		arg := &nd.Args[i]
		idx := fieldIndex(decl, arg.Name)
		switch {
		case idx < 0:
			tc.report(diag.SemaUnknownField, arg.Span, "%s has no field %q", what, arg.Name)
			fc.value(arg.Value, sc)
			continue
		case given[arg.Name] != nil:
			tc.errorf(diag.SemaDuplicateField, arg.Span, "field %q is set more than once", arg.Name).
				WithNote(given[arg.Name].Span, "first set here").
				Emit()
			fc.value(arg.Value, sc)
			continue
		}
		given[arg.Name] = arg
		arg.Index = idx
		if !tc.visible(decl[idx].Private, module) {
			tc.report(diag.SemaPrivateField, arg.Span, "field %s.%s is private to module %s", what, arg.Name, module)
		}
		fc.argument(arg, decl[idx], sc)
	}
	for _, f := range decl {
		if given[f.Name] == nil {
			tc.report(diag.SemaMissingField, e.Span, "missing field %q in new %s", f.Name, what)
		}
	}
}

func (fc *funcChecker) argument(arg *ast.FieldInit, f types.Field, sc *scope) {
	tc := fc.tc
	got := fc.value(arg.Value, sc)
	if got == types.NoTypeID || f.Type == tc.types.Builtins().Invalid {
		return
	}
	if !fc.assignable(arg.Value, got, f.Type) {
		tc.report(diag.SemaTypeMismatch, arg.Value.Span, "field %s has type %s, got %s", f.Name, tc.label(f.Type), tc.label(got))
	}
}

func fieldIndex(fields []types.Field, name string) int {
	for i, f := range fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}
