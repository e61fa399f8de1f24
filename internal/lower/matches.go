package lower

import (
	"fmt"
	"strconv"

	"quill/internal/ast"
	"quill/internal/mir"
	"quill/internal/trace"
)

type conjunctKind uint8

const (
	// conjVariant compares the discriminant with an ordinal.
	conjVariant conjunctKind = iota
	// conjLiteral compares a primitive with a literal.
	conjLiteral
	// conjBind stores the value into a pattern variable and is always true.
	conjBind
)

type conjunct struct {
	kind    conjunctKind
	occ     int
	ordinal int
	lit     ast.Literal
	sym     ast.SymbolID
}

// lowerMatches lowers `x matches P` to a left-to-right short-circuit
// conjunction with one term per pattern level. Bindings contribute a
// constant true term after storing their value, so they are populated
// before the result is read.
func (l *funcLowerer) lowerMatches(e *ast.Expr) (mir.Operand, error) {
	span := trace.Begin(l.tracer, trace.ScopeExpr, "lower_matches", l.parent)
	terms := 0
	defer func() {
		span.WithExtra("terms", strconv.Itoa(terms)).End("")
	}()

	if e.Pat == nil {
		return mir.Operand{}, fmt.Errorf("%w: matches without pattern", ErrInternal)
	}
	scrut, err := l.lowerExpr(e.X)
	if err != nil {
		return mir.Operand{}, err
	}
	tmp := l.newTemp(e.X.Type, e.X.Span)
	l.assignUse(tmp, scrut)

	occs := newOccTable(l.types, e.X.Type)
	conj, err := collectConjuncts(occs, rootOcc, e.Pat, nil)
	if err != nil {
		return mir.Operand{}, err
	}
	terms = len(conj)

	boolTy := l.types.Builtins().Bool
	result := l.newTemp(boolTy, e.Span)
	if len(conj) == 0 {
		l.assignUse(result, l.constBool(true))
		return l.copyOf(result), nil
	}

	m := &materializer{l: l, occs: occs, cache: map[int]mir.LocalID{rootOcc: tmp}}
	join := l.newBlock()
	for i, c := range conj {
		term, err := l.emitConjunct(c, m)
		if err != nil {
			return mir.Operand{}, err
		}
		if i == 0 {
			l.assignUse(result, term)
		} else {
			l.assignBinary(result, mir.BinAnd, l.copyOf(result), term)
		}
		if i == len(conj)-1 {
			l.gotoBlock(join)
			break
		}
		next := l.newBlock()
		l.branchIf(l.copyOf(result), next, join)
		l.startBlock(next)
	}

	l.startBlock(join)
	return l.copyOf(result), nil
}

// emitConjunct emits the statements of one term and returns its value.
func (l *funcLowerer) emitConjunct(c conjunct, m *materializer) (mir.Operand, error) {
	switch c.kind {
	case conjVariant:
		tag := m.discriminant(c.occ)
		eq := l.newTemp(l.types.Builtins().Bool, l.f.Span)
		l.assignBinary(eq, mir.BinEq, l.copyOf(tag), l.constOrdinal(c.ordinal))
		return l.copyOf(eq), nil
	case conjLiteral:
		subject := m.local(c.occ)
		lit, err := l.constLiteral(c.lit, l.localType(subject))
		if err != nil {
			return mir.Operand{}, err
		}
		eq := l.newTemp(l.types.Builtins().Bool, l.f.Span)
		l.assignBinary(eq, mir.BinEq, l.copyOf(subject), lit)
		return l.copyOf(eq), nil
	case conjBind:
		src := m.local(c.occ)
		dst, err := l.ensureLocal(c.sym)
		if err != nil {
			return mir.Operand{}, err
		}
		l.assignUse(dst, l.copyOf(src))
		return l.constBool(true), nil
	default:
		return mir.Operand{}, fmt.Errorf("%w: unknown conjunct %d", ErrInternal, c.kind)
	}
}

// collectConjuncts walks pat in pre-order: the test of a level comes before
// its binding, and fields follow in declaration order.
func collectConjuncts(occs *occTable, occ int, pat *ast.Pattern, out []conjunct) ([]conjunct, error) {
	bind := func(out []conjunct) []conjunct {
		if pat.Binds() && pat.Sym != ast.NoSymbolID {
			out = append(out, conjunct{kind: conjBind, occ: occ, sym: pat.Sym})
		}
		return out
	}

	var subs []column
	switch pat.Kind {
	case ast.PatDiscard, ast.PatBinding, ast.PatType:
		return bind(out), nil
	case ast.PatLiteral:
		if _, err := occs.literalShape(occ, pat); err != nil {
			return nil, err
		}
		out = append(out, conjunct{kind: conjLiteral, occ: occ, lit: pat.Lit})
		return bind(out), nil
	case ast.PatVariant:
		info, ord, err := occs.variantShape(occ, pat)
		if err != nil {
			return nil, err
		}
		out = append(out, conjunct{kind: conjVariant, occ: occ, ordinal: ord})
		v := &info.Variants[ord]
		if subs, err = occs.subPatterns(occ, v.Name, pat, v.Fields); err != nil {
			return nil, err
		}
	case ast.PatClass:
		info, err := occs.classShape(occ, pat)
		if err != nil {
			return nil, err
		}
		if subs, err = occs.subPatterns(occ, mir.ClassVariant, pat, info.Fields); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unknown pattern kind %s", ErrInternal, pat.Kind)
	}

	out = bind(out)
	for _, col := range subs {
		var err error
		if out, err = collectConjuncts(occs, col.occ, col.pat, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}
