package usefulness

import (
	"fmt"
	"slices"

	"quill/internal/pattern"
	"quill/internal/trace"
	"quill/internal/types"
)

// DefaultComplexityLimit bounds the number of rows reaching the base case.
const DefaultComplexityLimit = 1_000_000

// Arm is one match arm as seen by the analyzer.
type Arm struct {
	Pat pattern.PatID
	// HasGuard is reserved for guarded arms; guarded rows never cover later ones.
	HasGuard bool
}

// Options tunes one analysis.
type Options struct {
	// ComplexityLimit aborts the analysis with ErrTooComplex; 0 disables it.
	ComplexityLimit int
	Tracer          trace.Tracer
	// Parent is the span id node events attach to.
	Parent uint64
}

// Usefulness classifies an arm.
type Usefulness uint8

const (
	Useful Usefulness = iota
	Redundant
)

func (u Usefulness) String() string {
	if u == Useful {
		return "useful"
	}
	return "redundant"
}

// ArmResult is the verdict for one arm.
type ArmResult struct {
	Usefulness Usefulness
	// CoveredBy lists the earlier arms that together match every value of a
	// redundant arm.
	CoveredBy []int
	// RedundantSubpatterns lists nested patterns of a useful arm that no
	// value reaches.
	RedundantSubpatterns []pattern.PatID
}

// PatUsefulness is what the analyzer learned about one pattern.
type PatUsefulness struct {
	// Reached is false when no row ever had this pattern at its head.
	Reached   bool
	Useful    bool
	CoveredBy []pattern.PatID
}

// Report is the outcome of ComputeMatchUsefulness.
type Report struct {
	Arms []ArmResult
	// Witnesses are values no arm matches; empty means exhaustive.
	Witnesses []pattern.Witness
	// Intersections[i] lists earlier arms sharing at least one value with arm i.
	Intersections [][]int
	// Patterns is indexed by PatID.
	Patterns []PatUsefulness
}

// Exhaustive reports whether every value is matched.
func (r *Report) Exhaustive() bool {
	return len(r.Witnesses) == 0
}

// RedundantArms lists the indices of redundant arms.
func (r *Report) RedundantArms() []int {
	var out []int
	for i, a := range r.Arms {
		if a.Usefulness == Redundant {
			out = append(out, i)
		}
	}
	return out
}

// ucx is the state of one analysis; it is never shared.
type ucx struct {
	cx         *pattern.Cx
	arena      *pattern.Arena
	complexity int
	limit      int
	pats       []PatUsefulness
	tracer     trace.Tracer
	parent     uint64
	depth      int
}

// ComputeMatchUsefulness checks arms, in order, against values of scrutTy.
func ComputeMatchUsefulness(cx *pattern.Cx, arena *pattern.Arena, arms []Arm, scrutTy types.TypeID, validity Validity, opts Options) (*Report, error) {
	tr := opts.Tracer
	if tr == nil {
		tr = trace.Nop
	}
	u := &ucx{
		cx:     cx,
		arena:  arena,
		limit:  opts.ComplexityLimit,
		pats:   make([]PatUsefulness, arena.Len()+1),
		tracer: tr,
		parent: opts.Parent,
	}
	for i, arm := range arms {
		if arena.Get(arm.Pat) == nil {
			return nil, fmt.Errorf("%w: arm %d has no pattern", ErrInternal, i)
		}
	}

	m := newMatrix(arms, scrutTy, validity)
	wits, err := u.compute(m)
	if err != nil {
		return nil, err
	}
	witnesses, err := wits.singleColumn()
	if err != nil {
		return nil, err
	}

	rootArm := make(map[pattern.PatID]int, len(arms))
	for i, arm := range arms {
		rootArm[arm.Pat] = i
	}

	report := &Report{
		Arms:          make([]ArmResult, len(arms)),
		Witnesses:     witnesses,
		Intersections: make([][]int, len(arms)),
		Patterns:      u.pats,
	}
	for _, row := range m.rows {
		for _, j := range row.intersects.members() {
			if !slices.Contains(report.Intersections[row.parentRow], j) {
				report.Intersections[row.parentRow] = append(report.Intersections[row.parentRow], j)
			}
		}
	}
	for i, arm := range arms {
		slices.Sort(report.Intersections[i])
		info := u.pats[arm.Pat]
		if !info.Useful {
			res := ArmResult{Usefulness: Redundant}
			for _, pid := range info.CoveredBy {
				if j, ok := rootArm[pid]; ok && !slices.Contains(res.CoveredBy, j) {
					res.CoveredBy = append(res.CoveredBy, j)
				}
			}
			slices.Sort(res.CoveredBy)
			report.Arms[i] = res
			continue
		}
		res := ArmResult{Usefulness: Useful}
		arena.Walk(arm.Pat, func(id pattern.PatID) bool {
			p := u.pats[id]
			if p.Reached && !p.Useful {
				res.RedundantSubpatterns = append(res.RedundantSubpatterns, id)
				return false
			}
			return true
		})
		report.Arms[i] = res
	}
	return report, nil
}

func (u *ucx) ctorOf(id pattern.PatID) pattern.Constructor {
	if p := u.arena.Get(id); p != nil {
		return p.Ctor
	}
	return pattern.Wildcard
}

// compute is the recursive step: it fills row usefulness and intersections
// and returns the witnesses of m.
func (u *ucx) compute(m *Matrix) (witnessMatrix, error) {
	if err := m.checkShape(); err != nil {
		return nil, err
	}
	if !m.wildcardRowIsRelevant && !slices.ContainsFunc(m.rows, func(r matrixRow) bool { return r.relevant }) {
		// nothing below can change usefulness or produce witnesses
		return nil, nil
	}

	if m.columnCount() == 0 {
		u.complexity += len(m.rows)
		if u.limit > 0 && u.complexity > u.limit {
			return nil, fmt.Errorf("%w: limit %d reached", ErrTooComplex, u.limit)
		}
		useful := true
		for i := range m.rows {
			m.rows[i].useful = useful
			m.rows[i].intersects.insertRange(i)
			useful = useful && m.rows[i].underGuard
		}
		if useful && m.wildcardRowIsRelevant {
			return unitWitness(), nil
		}
		return nil, nil
	}

	place := m.places[0]
	heads := make([]pattern.Constructor, len(m.rows))
	for i := range m.rows {
		heads[i] = u.ctorOf(m.rows[i].pats[0])
	}
	split, missing, err := u.splitColumnCtors(place, heads)
	if err != nil {
		return nil, err
	}

	var ret witnessMatrix
	for _, ctor := range split {
		ctorIsRelevant := ctor.Kind == pattern.CtorMissing || len(missing) == 0
		spec, err := u.specialize(m, place, ctor, ctorIsRelevant)
		if err != nil {
			return nil, err
		}
		u.traceStep(ctor, place, spec)

		u.depth++
		wits, err := u.compute(spec)
		u.depth--
		if err != nil {
			return nil, err
		}
		wits, err = u.applyConstructor(wits, place, missing, ctor)
		if err != nil {
			return nil, err
		}
		ret = append(ret, wits...)

		// unspecialize
		for ci := range spec.rows {
			child := &spec.rows[ci]
			parent := &m.rows[child.parentRow]
			parent.useful = parent.useful || child.useful
			for _, other := range child.intersects.members() {
				pi := spec.rows[other].parentRow
				if pi != child.parentRow {
					parent.intersects.insert(pi)
				}
			}
		}
	}

	for i := range m.rows {
		u.record(m, i)
	}
	return ret, nil
}

// record folds row i's verdict into its head pattern.
func (u *ucx) record(m *Matrix, i int) {
	row := &m.rows[i]
	head := row.pats[0]
	if head == pattern.NoPatID || int(head) >= len(u.pats) {
		return
	}
	info := &u.pats[head]
	info.Reached = true
	info.Useful = info.Useful || row.useful
	if row.useful {
		return
	}
	for _, j := range row.intersects.members() {
		other := &m.rows[j]
		if !other.useful || other.underGuard {
			continue
		}
		if pid := other.pats[0]; pid != pattern.NoPatID && !slices.Contains(info.CoveredBy, pid) {
			info.CoveredBy = append(info.CoveredBy, pid)
		}
	}
	slices.Sort(info.CoveredBy)
}

// splitColumnCtors returns the constructors to specialize with and the
// constructors to report when the Missing branch yields witnesses.
func (u *ucx) splitColumnCtors(place PlaceInfo, heads []pattern.Constructor) ([]pattern.Constructor, []pattern.Constructor, error) {
	if place.PrivateUninhabited {
		return []pattern.Constructor{pattern.PrivateUninhabited}, nil, nil
	}
	set, err := u.cx.CtorSetFor(place.Type)
	if err != nil {
		return nil, nil, err
	}

	// `match x {}` on an empty type is exhaustive whatever the validity
	isToplevelException := place.IsScrutinee && set.AllEmpty()
	emptyArmsAreUnreachable := place.Validity == ValidOnly
	canOmitEmptyArms := place.Validity == ValidOnly || isToplevelException

	parts := set.Split(heads)
	allMissing := len(parts.Present) == 0

	splitCtors := slices.Clone(parts.Present)
	if len(parts.Missing) > 0 || (len(parts.MissingEmpty) > 0 && !emptyArmsAreUnreachable) {
		splitCtors = append(splitCtors, pattern.Missing)
	}

	missing := parts.Missing
	if !canOmitEmptyArms {
		missing = append(missing, parts.MissingEmpty...)
	}

	// below the scrutinee, prefer `_` over listing every constructor
	reportIndividual := place.IsScrutinee || !allMissing
	switch {
	case !reportIndividual:
		missing = []pattern.Constructor{pattern.Wildcard}
	case slices.ContainsFunc(missing, func(c pattern.Constructor) bool { return c.Kind == pattern.CtorNonExhaustive }):
		missing = []pattern.Constructor{pattern.NonExhaustive}
	}
	return splitCtors, missing, nil
}

// specialize keeps the rows whose head covers ctor and replaces the head by
// its fields.
func (u *ucx) specialize(m *Matrix, place PlaceInfo, ctor pattern.Constructor, ctorIsRelevant bool) (*Matrix, error) {
	subs, err := u.cx.CtorSubTypes(ctor, place.Type)
	if err != nil {
		return nil, err
	}
	arity := len(subs)
	places := make([]PlaceInfo, 0, arity+len(m.places)-1)
	for _, sub := range subs {
		places = append(places, PlaceInfo{
			Type:               sub.Type,
			PrivateUninhabited: sub.PrivateUninhabited,
			Validity:           place.Validity,
		})
	}
	places = append(places, m.places[1:]...)

	spec := &Matrix{
		places:                places,
		wildcardRowIsRelevant: m.wildcardRowIsRelevant && ctorIsRelevant,
	}
	for i := range m.rows {
		row := &m.rows[i]
		headCtor := u.ctorOf(row.pats[0])
		covered, err := ctor.IsCoveredBy(headCtor)
		if err != nil {
			return nil, err
		}
		if !covered {
			continue
		}
		fields, err := u.specializeHead(row.pats[0], ctor, arity)
		if err != nil {
			return nil, err
		}
		spec.push(matrixRow{
			pats:       append(fields, row.pats[1:]...),
			relevant:   row.relevant && (!headCtor.IsWildcard() || ctorIsRelevant),
			parentRow:  i,
			underGuard: row.underGuard,
		})
	}
	return spec, nil
}

func (u *ucx) specializeHead(head pattern.PatID, ctor pattern.Constructor, arity int) ([]pattern.PatID, error) {
	fields := make([]pattern.PatID, arity)
	p := u.arena.Get(head)
	if p == nil || p.Ctor.IsWildcard() {
		return fields, nil
	}
	if ctor.Kind == pattern.CtorPrivateUninhabited {
		return nil, nil
	}
	if p.Arity != arity {
		return nil, fmt.Errorf("%w: pattern has arity %d, constructor %s has %d", ErrInternal, p.Arity, ctor, arity)
	}
	for _, f := range p.Fields {
		if f.Index < 0 || f.Index >= arity {
			return nil, fmt.Errorf("%w: field %d out of range for arity %d", ErrInternal, f.Index, arity)
		}
		fields[f.Index] = f.Pat
	}
	return fields, nil
}

func (u *ucx) traceStep(ctor pattern.Constructor, place PlaceInfo, spec *Matrix) {
	if !u.tracer.Level().ShouldEmit(trace.ScopeNode) {
		return
	}
	trace.Point(u.tracer, trace.ScopeNode, "specialize",
		fmt.Sprintf("depth=%d ty=%s ctor=%s rows=%d cols=%d", u.depth, types.Label(u.cx.Types, place.Type), ctor, len(spec.rows), spec.columnCount()),
		u.parent)
}
