package lower

import (
	"fmt"
	"slices"

	"quill/internal/ast"
	"quill/internal/mir"
	"quill/internal/types"
)

type nodeKind uint8

const (
	// nodeLeaf selects an arm.
	nodeLeaf nodeKind = iota
	// nodeSwitch tests one occurrence.
	nodeSwitch
	// nodeFail is a value no arm matches; exhaustiveness makes it unreachable.
	nodeFail
)

type testKind uint8

const (
	testVariant testKind = iota
	testBool
	testInt
	testString
)

// binding copies the value at occ into a pattern variable.
type binding struct {
	sym ast.SymbolID
	occ int
}

// decisionNode is one node of the tree built for a single match expression.
type decisionNode struct {
	kind nodeKind

	// leaf
	arm      int
	bindings []binding

	// switch
	occ      int
	test     testKind
	cases    []decisionCase
	fallback *decisionNode
}

type decisionCase struct {
	// value is the variant ordinal, 0/1 for bools, or the integer literal.
	value int64
	str   string
	node  *decisionNode
}

// column is one pending test of a clause.
type column struct {
	occ   int
	pat   *ast.Pattern
	index int
}

func sortColumns(cols []column) {
	slices.SortStableFunc(cols, func(a, b column) int { return a.index - b.index })
}

// clause is one row of the decision matrix: an arm and the tests it still
// needs. Catch-all and class sub-patterns never stay in cols; normalize
// turns them into bindings and child columns.
type clause struct {
	arm      int
	cols     []column
	bindings []binding
}

type treeBuilder struct {
	occs *occTable
}

// newClause builds the row for arm with its pattern at the scrutinee.
func (b *treeBuilder) newClause(arm int, pat *ast.Pattern) (clause, error) {
	return b.normalize(clause{arm: arm}, []column{{occ: rootOcc, pat: pat}})
}

// normalize folds pending columns into c. Catch-alls only bind; class
// patterns need no test and expand into their fields in declaration order.
func (b *treeBuilder) normalize(c clause, pending []column) (clause, error) {
	out := clause{arm: c.arm, cols: slices.Clone(c.cols), bindings: slices.Clone(c.bindings)}
	work := slices.Clone(pending)
	for len(work) > 0 {
		col := work[0]
		work = work[1:]
		pat := col.pat
		if pat.Binds() && pat.Sym != ast.NoSymbolID {
			out.bindings = append(out.bindings, binding{sym: pat.Sym, occ: col.occ})
		}
		switch pat.Kind {
		case ast.PatDiscard, ast.PatBinding, ast.PatType:
		case ast.PatClass:
			info, err := b.occs.classShape(col.occ, pat)
			if err != nil {
				return clause{}, err
			}
			subs, err := b.occs.subPatterns(col.occ, mir.ClassVariant, pat, info.Fields)
			if err != nil {
				return clause{}, err
			}
			work = append(subs, work...)
		case ast.PatVariant:
			if _, _, err := b.occs.variantShape(col.occ, pat); err != nil {
				return clause{}, err
			}
			out.cols = append(out.cols, col)
		case ast.PatLiteral:
			if _, err := b.occs.literalShape(col.occ, pat); err != nil {
				return clause{}, err
			}
			out.cols = append(out.cols, col)
		default:
			return clause{}, fmt.Errorf("%w: unknown pattern kind %s", ErrInternal, pat.Kind)
		}
	}
	return out, nil
}

// columnAt finds the pending test of c on occ.
func (c *clause) columnAt(occ int) (int, bool) {
	for i := range c.cols {
		if c.cols[i].occ == occ {
			return i, true
		}
	}
	return -1, false
}

// build compiles rows into a decision tree. The first row wins once it has
// no pending tests; otherwise its first test decides what to switch on.
func (b *treeBuilder) build(rows []clause) (*decisionNode, error) {
	if len(rows) == 0 {
		return &decisionNode{kind: nodeFail}, nil
	}
	first := rows[0]
	if len(first.cols) == 0 {
		return &decisionNode{kind: nodeLeaf, arm: first.arm, bindings: first.bindings}, nil
	}

	occ := first.cols[0].occ
	switch first.cols[0].pat.Kind {
	case ast.PatVariant:
		return b.buildVariantSwitch(rows, occ)
	default:
		kind, err := b.occs.literalShape(occ, first.cols[0].pat)
		if err != nil {
			return nil, err
		}
		return b.buildLiteralSwitch(rows, occ, kind)
	}
}

func (b *treeBuilder) buildVariantSwitch(rows []clause, occ int) (*decisionNode, error) {
	var (
		info     *types.UnionInfo
		ordinals []int
	)
	for i := range rows {
		ci, ok := rows[i].columnAt(occ)
		if !ok {
			continue
		}
		pat := rows[i].cols[ci].pat
		if pat.Kind != ast.PatVariant {
			return nil, fmt.Errorf("%w: mixed pattern kinds %s on one value", ErrInternal, pat)
		}
		u, ord, err := b.occs.variantShape(occ, pat)
		if err != nil {
			return nil, err
		}
		info = u
		if !slices.Contains(ordinals, ord) {
			ordinals = append(ordinals, ord)
		}
	}
	slices.Sort(ordinals)

	node := &decisionNode{kind: nodeSwitch, occ: occ, test: testVariant}
	for _, ord := range ordinals {
		v := &info.Variants[ord]
		var sub []clause
		for i := range rows {
			row := rows[i]
			ci, ok := row.columnAt(occ)
			if !ok {
				sub = append(sub, row)
				continue
			}
			pat := row.cols[ci].pat
			if info.VariantIndex(pat.Variant) != ord {
				continue
			}
			fields, err := b.occs.subPatterns(occ, v.Name, pat, v.Fields)
			if err != nil {
				return nil, err
			}
			row.cols = slices.Delete(slices.Clone(row.cols), ci, ci+1)
			next, err := b.normalize(row, fields)
			if err != nil {
				return nil, err
			}
			sub = append(sub, next)
		}
		child, err := b.build(sub)
		if err != nil {
			return nil, err
		}
		node.cases = append(node.cases, decisionCase{value: int64(ord), node: child})
	}

	if len(ordinals) == len(info.Variants) {
		node.fallback = &decisionNode{kind: nodeFail}
		return node, nil
	}
	fallback, err := b.build(rowsWithout(rows, occ))
	if err != nil {
		return nil, err
	}
	node.fallback = fallback
	return node, nil
}

func (b *treeBuilder) buildLiteralSwitch(rows []clause, occ int, kind testKind) (*decisionNode, error) {
	var lits []ast.Literal
	for i := range rows {
		ci, ok := rows[i].columnAt(occ)
		if !ok {
			continue
		}
		pat := rows[i].cols[ci].pat
		if pat.Kind != ast.PatLiteral {
			return nil, fmt.Errorf("%w: mixed pattern kinds %s on one value", ErrInternal, pat)
		}
		if k, err := b.occs.literalShape(occ, pat); err != nil {
			return nil, err
		} else if k != kind {
			return nil, fmt.Errorf("%w: mixed literal kinds on one value", ErrInternal)
		}
		if !slices.Contains(lits, pat.Lit) {
			lits = append(lits, pat.Lit)
		}
	}
	if kind == testBool {
		// false before true, matching the 0/1 switch values
		slices.SortFunc(lits, func(a, b ast.Literal) int { return boolValue(a.Bool) - boolValue(b.Bool) })
	}

	node := &decisionNode{kind: nodeSwitch, occ: occ, test: kind}
	for _, lit := range lits {
		var sub []clause
		for i := range rows {
			row := rows[i]
			ci, ok := row.columnAt(occ)
			if !ok {
				sub = append(sub, row)
				continue
			}
			if row.cols[ci].pat.Lit != lit {
				continue
			}
			row.cols = slices.Delete(slices.Clone(row.cols), ci, ci+1)
			sub = append(sub, row)
		}
		child, err := b.build(sub)
		if err != nil {
			return nil, err
		}
		dc := decisionCase{node: child}
		switch kind {
		case testBool:
			dc.value = int64(boolValue(lit.Bool))
		case testInt:
			dc.value = lit.Int
		case testString:
			dc.str = lit.Str
		}
		node.cases = append(node.cases, dc)
	}

	if kind == testBool && len(lits) == 2 {
		node.fallback = &decisionNode{kind: nodeFail}
		return node, nil
	}
	fallback, err := b.build(rowsWithout(rows, occ))
	if err != nil {
		return nil, err
	}
	node.fallback = fallback
	return node, nil
}

// rowsWithout keeps the rows that do not test occ: they match any value there.
func rowsWithout(rows []clause, occ int) []clause {
	var out []clause
	for i := range rows {
		if _, ok := rows[i].columnAt(occ); !ok {
			out = append(out, rows[i])
		}
	}
	return out
}

func boolValue(v bool) int {
	if v {
		return 1
	}
	return 0
}

// countLeaves reports how many distinct arms the tree can select.
func (n *decisionNode) countLeaves() int {
	seen := make(map[int]bool)
	var walk func(*decisionNode)
	walk = func(n *decisionNode) {
		if n == nil {
			return
		}
		switch n.kind {
		case nodeLeaf:
			seen[n.arm] = true
		case nodeSwitch:
			for _, c := range n.cases {
				walk(c.node)
			}
			walk(n.fallback)
		}
	}
	walk(n)
	return len(seen)
}
