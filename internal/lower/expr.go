package lower

import (
	"fmt"

	"quill/internal/ast"
	"quill/internal/mir"
	"quill/internal/types"
)

func (l *funcLowerer) lowerExpr(e *ast.Expr) (mir.Operand, error) {
	if e == nil {
		return mir.Operand{}, fmt.Errorf("%w: missing expression", ErrInternal)
	}
	switch e.Kind {
	case ast.ExprLiteral:
		return l.constLiteral(e.Lit, e.Type)
	case ast.ExprName:
		id, err := l.ensureLocal(e.Sym)
		if err != nil {
			return mir.Operand{}, err
		}
		return l.copyOf(id), nil
	case ast.ExprField:
		return l.lowerFieldExpr(e)
	case ast.ExprAnd:
		return l.lowerAndExpr(e)
	case ast.ExprEq:
		return l.lowerEqExpr(e)
	case ast.ExprIf:
		return l.lowerIfExpr(e)
	case ast.ExprNew:
		return l.lowerNewExpr(e)
	case ast.ExprMatch:
		return l.lowerMatch(e)
	case ast.ExprMatches:
		return l.lowerMatches(e)
	default:
		return mir.Operand{}, fmt.Errorf("%w: unknown expression kind %s", ErrInternal, e.Kind)
	}
}

func (l *funcLowerer) lowerFieldExpr(e *ast.Expr) (mir.Operand, error) {
	info, ok := l.types.ClassInfo(e.X.Type)
	if !ok {
		return mir.Operand{}, fmt.Errorf("%w: field %s on non-class %s", ErrInternal, e.Name, types.Label(l.types, e.X.Type))
	}
	idx := info.FieldIndex(e.Name)
	if idx < 0 {
		return mir.Operand{}, fmt.Errorf("%w: class %s has no field %s", ErrInternal, info.Name, e.Name)
	}
	obj, err := l.lowerExpr(e.X)
	if err != nil {
		return mir.Operand{}, err
	}
	objLocal := l.spill(obj, e.X.Span)
	dst := l.newTemp(info.Fields[idx].Type, e.Span)
	l.fieldAccess(dst, objLocal, mir.FieldRef{Variant: mir.ClassVariant, Name: e.Name, Index: idx})
	return l.copyOf(dst), nil
}

// lowerAndExpr short-circuits: Y is evaluated only when X holds.
func (l *funcLowerer) lowerAndExpr(e *ast.Expr) (mir.Operand, error) {
	x, err := l.lowerExpr(e.X)
	if err != nil {
		return mir.Operand{}, err
	}
	result := l.newTemp(l.types.Builtins().Bool, e.Span)
	l.assignUse(result, x)

	rhs := l.newBlock()
	join := l.newBlock()
	l.branchIf(l.copyOf(result), rhs, join)

	l.startBlock(rhs)
	y, err := l.lowerExpr(e.Y)
	if err != nil {
		return mir.Operand{}, err
	}
	l.assignUse(result, y)
	l.gotoBlock(join)

	l.startBlock(join)
	return l.copyOf(result), nil
}

func (l *funcLowerer) lowerEqExpr(e *ast.Expr) (mir.Operand, error) {
	x, err := l.lowerExpr(e.X)
	if err != nil {
		return mir.Operand{}, err
	}
	y, err := l.lowerExpr(e.Y)
	if err != nil {
		return mir.Operand{}, err
	}
	result := l.newTemp(l.types.Builtins().Bool, e.Span)
	l.assignBinary(result, mir.BinEq, x, y)
	return l.copyOf(result), nil
}

func (l *funcLowerer) lowerIfExpr(e *ast.Expr) (mir.Operand, error) {
	cond, err := l.lowerExpr(e.X)
	if err != nil {
		return mir.Operand{}, err
	}
	result := l.newTemp(e.Type, e.Span)

	thenBB := l.newBlock()
	elseBB := l.newBlock()
	joinBB := l.newBlock()
	l.branchIf(cond, thenBB, elseBB)

	for _, arm := range []struct {
		bb   mir.BlockID
		body *ast.Expr
	}{{thenBB, e.Y}, {elseBB, e.Z}} {
		l.startBlock(arm.bb)
		op, err := l.lowerExpr(arm.body)
		if err != nil {
			return mir.Operand{}, err
		}
		l.assignUse(result, op)
		l.gotoBlock(joinBB)
	}

	l.startBlock(joinBB)
	return l.copyOf(result), nil
}

// lowerNewExpr allocates the value, then stores the discriminant (unions
// only) and every argument through FieldAssign.
func (l *funcLowerer) lowerNewExpr(e *ast.Expr) (mir.Operand, error) {
	nd := e.New
	if nd == nil {
		return mir.Operand{}, fmt.Errorf("%w: new expression without payload", ErrInternal)
	}

	var (
		variant string
		decl    []types.Field
		ordinal = -1
	)
	switch l.types.KindOf(e.Type) {
	case types.KindClass:
		info, _ := l.types.ClassInfo(e.Type)
		if nd.Variant != "" {
			return mir.Operand{}, fmt.Errorf("%w: class %s constructed as variant %s", ErrInternal, info.Name, nd.Variant)
		}
		variant, decl = mir.ClassVariant, info.Fields
	case types.KindUnion:
		info, _ := l.types.UnionInfo(e.Type)
		ordinal = info.VariantIndex(nd.Variant)
		if ordinal < 0 {
			return mir.Operand{}, fmt.Errorf("%w: union %s has no variant %s", ErrInternal, info.Name, nd.Variant)
		}
		variant, decl = nd.Variant, info.Variants[ordinal].Fields
	default:
		return mir.Operand{}, fmt.Errorf("%w: new of %s", ErrInternal, types.Label(l.types, e.Type))
	}

	obj := l.newTemp(e.Type, e.Span)
	l.assign(obj, mir.RValue{Kind: mir.RValueAlloc, Alloc: mir.AllocRV{Type: e.Type}})
	if ordinal >= 0 {
		l.fieldAssign(obj, mir.Discriminant(), l.constOrdinal(ordinal))
	}
	for pos, arg := range nd.Args {
		idx := pos
		if !nd.Positional {
			idx = fieldIndex(decl, arg.Name)
		}
		if idx < 0 || idx >= len(decl) {
			return mir.Operand{}, fmt.Errorf("%w: field %q out of range in new %s", ErrInternal, arg.Name, nd.Owner)
		}
		op, err := l.lowerExpr(arg.Value)
		if err != nil {
			return mir.Operand{}, err
		}
		l.fieldAssign(obj, mir.FieldRef{Variant: variant, Name: decl[idx].Name, Index: idx}, op)
	}
	return l.copyOf(obj), nil
}

func fieldIndex(fields []types.Field, name string) int {
	for i, f := range fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}
