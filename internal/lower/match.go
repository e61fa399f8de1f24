package lower

import (
	"fmt"
	"strconv"

	"quill/internal/ast"
	"quill/internal/mir"
	"quill/internal/trace"
)

// matchLowering is the state of one match expression. It is discarded once
// the expression's join block is reached.
type matchLowering struct {
	l      *funcLowerer
	expr   *ast.Expr
	result mir.LocalID
	join   mir.BlockID

	bodies map[int]mir.BlockID
	// shared maps a literal body to the block of the first binding-free arm
	// that produced it.
	shared map[ast.Literal]mir.BlockID
	order  []int
}

// lowerMatch evaluates the scrutinee once, compiles the arms into a
// decision tree and emits it. Arms after the first catch-all are dropped:
// nothing can reach them.
func (l *funcLowerer) lowerMatch(e *ast.Expr) (mir.Operand, error) {
	span := trace.Begin(l.tracer, trace.ScopeExpr, "lower_match", l.parent)
	leaves := 0
	defer func() {
		span.WithExtra("leaves", strconv.Itoa(leaves)).End("")
	}()

	scrut, err := l.lowerExpr(e.X)
	if err != nil {
		return mir.Operand{}, err
	}
	scrutTy := e.X.Type
	tmp := l.newTemp(scrutTy, e.X.Span)
	l.assignUse(tmp, scrut)
	result := l.newTemp(e.Type, e.Span)

	occs := newOccTable(l.types, scrutTy)
	b := &treeBuilder{occs: occs}
	var rows []clause
	for i, arm := range e.Arms {
		if arm == nil || arm.Pattern == nil {
			return mir.Operand{}, fmt.Errorf("%w: match arm %d has no pattern", ErrInternal, i)
		}
		if arm.Guard != nil {
			return mir.Operand{}, fmt.Errorf("%w: guarded arms are not supported", ErrInternal)
		}
		row, err := b.newClause(i, arm.Pattern)
		if err != nil {
			return mir.Operand{}, err
		}
		rows = append(rows, row)
		if arm.Pattern.IsCatchAll() {
			break
		}
	}
	tree, err := b.build(rows)
	if err != nil {
		return mir.Operand{}, err
	}
	leaves = tree.countLeaves()

	ml := &matchLowering{
		l:      l,
		expr:   e,
		result: result,
		join:   l.newBlock(),
		bodies: make(map[int]mir.BlockID),
		shared: make(map[ast.Literal]mir.BlockID),
	}
	m := &materializer{l: l, occs: occs, cache: map[int]mir.LocalID{rootOcc: tmp}}
	if err := ml.emit(tree, m); err != nil {
		return mir.Operand{}, err
	}

	for _, arm := range ml.order {
		l.startBlock(ml.bodies[arm])
		op, err := l.lowerExpr(e.Arms[arm].Body)
		if err != nil {
			return mir.Operand{}, err
		}
		l.assignUse(result, op)
		l.gotoBlock(ml.join)
	}

	l.startBlock(ml.join)
	return l.copyOf(result), nil
}

// emit writes node into the current block.
func (ml *matchLowering) emit(n *decisionNode, m *materializer) error {
	l := ml.l
	switch n.kind {
	case nodeFail:
		l.unreachable()
		return nil
	case nodeLeaf:
		for _, bd := range n.bindings {
			src := m.local(bd.occ)
			dst, err := l.ensureLocal(bd.sym)
			if err != nil {
				return err
			}
			l.assignUse(dst, l.copyOf(src))
		}
		l.gotoBlock(ml.body(n.arm))
		return nil
	case nodeSwitch:
		if n.test == testString {
			return ml.emitStringChain(n, m)
		}
		var value mir.Operand
		if n.test == testVariant {
			value = l.copyOf(m.discriminant(n.occ))
		} else {
			value = l.copyOf(m.local(n.occ))
		}
		targets := make([]mir.BlockID, len(n.cases))
		cases := make([]mir.SwitchCase, len(n.cases))
		for i, c := range n.cases {
			targets[i] = l.newBlock()
			cases[i] = mir.SwitchCase{Value: c.value, Target: targets[i]}
		}
		fallback := l.newBlock()
		l.switchInt(value, cases, fallback)

		for i, c := range n.cases {
			l.startBlock(targets[i])
			if err := ml.emit(c.node, m.fork()); err != nil {
				return err
			}
		}
		l.startBlock(fallback)
		return ml.emit(n.fallback, m.fork())
	default:
		return fmt.Errorf("%w: unknown decision node %d", ErrInternal, n.kind)
	}
}

// emitStringChain tests string cases one equality at a time.
func (ml *matchLowering) emitStringChain(n *decisionNode, m *materializer) error {
	l := ml.l
	subject := m.local(n.occ)
	for _, c := range n.cases {
		lit, err := l.constLiteral(ast.Literal{Kind: ast.LitString, Str: c.str}, l.localType(subject))
		if err != nil {
			return err
		}
		eq := l.newTemp(l.types.Builtins().Bool, ml.expr.Span)
		l.assignBinary(eq, mir.BinEq, l.copyOf(subject), lit)
		hit := l.newBlock()
		next := l.newBlock()
		l.branchIf(l.copyOf(eq), hit, next)

		l.startBlock(hit)
		if err := ml.emit(c.node, m.fork()); err != nil {
			return err
		}
		l.startBlock(next)
	}
	return ml.emit(n.fallback, m.fork())
}

// body returns the block that evaluates arm's body, creating it once.
func (ml *matchLowering) body(arm int) mir.BlockID {
	if bb, ok := ml.bodies[arm]; ok {
		return bb
	}
	a := ml.expr.Arms[arm]
	if a.Body != nil && a.Body.Kind == ast.ExprLiteral && !bindsAny(a.Pattern) {
		if bb, ok := ml.shared[a.Body.Lit]; ok {
			ml.bodies[arm] = bb
			return bb
		}
	}
	bb := ml.l.newBlock()
	ml.bodies[arm] = bb
	ml.order = append(ml.order, arm)
	if a.Body != nil && a.Body.Kind == ast.ExprLiteral && !bindsAny(a.Pattern) {
		ml.shared[a.Body.Lit] = bb
	}
	return bb
}

func bindsAny(p *ast.Pattern) bool {
	binds := false
	ast.WalkPattern(p, func(sub *ast.Pattern) {
		if sub.Binds() {
			binds = true
		}
	})
	return binds
}
