// Package matchcheck runs the usefulness analysis over every match
// expression of a resolved program and turns the reports into diagnostics.
package matchcheck

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/pattern"
	"quill/internal/source"
	"quill/internal/trace"
	"quill/internal/types"
	"quill/internal/usefulness"
)

// maxListedWitnesses bounds the witnesses quoted in the headline message.
// Every witness still gets its own note.
const maxListedWitnesses = 3

// Options configures one Check run.
type Options struct {
	// ComplexityLimit is passed to the analyzer; 0 disables the limit.
	ComplexityLimit int
	// AssumeValid lets arms for uninhabited variants be omitted.
	AssumeValid bool
	Tracer      trace.Tracer
	Parent      uint64
}

// Stats summarises what Check found.
type Stats struct {
	Matches       int
	NonExhaustive int
	RedundantArms int
	Unreachable   int
	TooComplex    int
}

type checker struct {
	prog     *ast.Program
	cx       *pattern.Cx
	reporter diag.Reporter
	validity usefulness.Validity
	limit    int
	tracer   trace.Tracer
	parent   uint64
	stats    Stats
}

// Check analyzes every match of prog and reports through r. User mistakes
// become diagnostics; a returned error means the program was not resolved
// correctly upstream.
func Check(prog *ast.Program, r diag.Reporter, opts Options) (Stats, error) {
	tr := opts.Tracer
	if tr == nil {
		tr = trace.Nop
	}
	validity := usefulness.MaybeInvalid
	if opts.AssumeValid {
		validity = usefulness.ValidOnly
	}
	c := &checker{
		prog:     prog,
		cx:       pattern.NewCx(prog.Types, prog.Module),
		reporter: r,
		validity: validity,
		limit:    opts.ComplexityLimit,
		tracer:   tr,
		parent:   opts.Parent,
	}
	for _, fn := range prog.Funcs {
		if err := c.checkFunc(fn); err != nil {
			return c.stats, fmt.Errorf("check %s: %w", fn.Name, err)
		}
	}
	return c.stats, nil
}

func (c *checker) checkFunc(fn *ast.Func) error {
	var firstErr error
	ast.Inspect(fn.Body, func(e *ast.Expr) bool {
		if firstErr != nil {
			return false
		}
		if e.Kind == ast.ExprMatch {
			firstErr = c.checkMatch(e)
		}
		return firstErr == nil
	})
	return firstErr
}

func (c *checker) checkMatch(e *ast.Expr) (err error) {
	c.stats.Matches++
	span := trace.Begin(c.tracer, trace.ScopeExpr, "check_match", c.parent)
	verdict := "ok"
	defer func() {
		span.WithExtra("arms", strconv.Itoa(len(e.Arms))).End(verdict)
	}()

	if e.X == nil {
		return fmt.Errorf("%w: match without scrutinee", usefulness.ErrInternal)
	}
	scrutTy := e.X.Type
	arena := pattern.NewArena()
	arms := make([]usefulness.Arm, 0, len(e.Arms))
	for i, arm := range e.Arms {
		id, err := pattern.Lower(arena, c.cx, arm.Pattern, scrutTy)
		if err != nil {
			return fmt.Errorf("arm %d: %w", i, err)
		}
		arms = append(arms, usefulness.Arm{Pat: id, HasGuard: arm.Guard != nil})
	}

	report, err := usefulness.ComputeMatchUsefulness(c.cx, arena, arms, scrutTy, c.validity, usefulness.Options{
		ComplexityLimit: c.limit,
		Tracer:          c.tracer,
		Parent:          span.ID(),
	})
	if errors.Is(err, usefulness.ErrTooComplex) {
		verdict = "too_complex"
		c.stats.TooComplex++
		msg := fmt.Sprintf("match on %s is too complex to analyze", types.Label(c.prog.Types, scrutTy))
		if b := diag.ReportError(c.reporter, diag.SemaMatchTooComplex, e.Span, msg); b != nil {
			b.WithNote(e.X.Span, fmt.Sprintf("the analysis stopped after %d steps; split the match or raise analysis.complexity_limit", c.limit))
			b.Emit()
		}
		return nil
	}
	if err != nil {
		return err
	}

	if !report.Exhaustive() {
		verdict = "non_exhaustive"
		c.reportMissing(e, report.Witnesses)
	}
	for i, res := range report.Arms {
		if res.Usefulness == usefulness.Redundant {
			c.reportRedundantArm(e, i, res)
			continue
		}
		for _, id := range res.RedundantSubpatterns {
			c.reportUnreachable(arena, id)
		}
	}
	return nil
}

func (c *checker) reportMissing(e *ast.Expr, witnesses []pattern.Witness) {
	c.stats.NonExhaustive++
	rendered := make([]string, len(witnesses))
	marker := false
	for i, w := range witnesses {
		rendered[i] = w.Render(c.prog.Types)
		marker = marker || w.HasMarker()
	}

	msg := "match is not exhaustive: " + quoteList(rendered) + " not covered"
	if len(e.Arms) == 0 {
		msg = fmt.Sprintf("match on %s has no arms, but the type has values: %s not covered", types.Label(c.prog.Types, e.X.Type), quoteList(rendered))
	}
	b := diag.ReportError(c.reporter, diag.SemaNonexhaustiveMatch, e.Span, msg)
	if b == nil {
		return
	}
	for _, w := range rendered {
		b.WithNote(e.X.Span, fmt.Sprintf("pattern `%s` not covered", w))
	}
	if marker {
		b.WithNote(e.X.Span, "some values cannot be listed here; add a `_` arm to cover them")
	}
	if value, ok := placeholder(c.prog.Types, e.Type); ok && len(e.Arms) > 0 {
		last := e.Arms[len(e.Arms)-1]
		insert := source.Span{File: last.Span.File, Start: last.Span.End, End: last.Span.End}
		b.WithFix("add a catch-all arm", diag.FixEdit{Span: insert, NewText: ", _ => " + value})
	}
	b.Emit()
}

func (c *checker) reportRedundantArm(e *ast.Expr, i int, res usefulness.ArmResult) {
	c.stats.RedundantArms++
	arm := e.Arms[i]
	b := diag.ReportWarning(c.reporter, diag.SemaRedundantArm, arm.Pattern.Span, fmt.Sprintf("unreachable arm `%s`", arm.Pattern))
	if b == nil {
		return
	}
	switch {
	case len(res.CoveredBy) == 1:
		j := res.CoveredBy[0]
		b.WithNote(e.Arms[j].Pattern.Span, fmt.Sprintf("arm %d already matches every value", j+1))
	case len(res.CoveredBy) > 1:
		for _, j := range res.CoveredBy {
			b.WithNote(e.Arms[j].Pattern.Span, fmt.Sprintf("arm %d matches some of these values", j+1))
		}
	default:
		b.WithNote(arm.Pattern.Span, "no value of this type can reach the arm")
	}
	b.WithFix("remove the unreachable arm", diag.FixEdit{Span: armRemovalSpan(e, i)})
	b.Emit()
}

// armRemovalSpan covers arm i together with the separator that joins it to
// its neighbour, so deleting it leaves a well-formed arm list.
func armRemovalSpan(e *ast.Expr, i int) source.Span {
	sp := e.Arms[i].Span
	switch {
	case i+1 < len(e.Arms):
		sp.End = e.Arms[i+1].Span.Start
	case i > 0:
		sp.Start = e.Arms[i-1].Span.End
	}
	return sp
}

func (c *checker) reportUnreachable(arena *pattern.Arena, id pattern.PatID) {
	p := arena.Get(id)
	if p == nil {
		return
	}
	c.stats.Unreachable++
	diag.ReportWarning(c.reporter, diag.SemaUnreachablePattern, p.Span, "unreachable pattern").
		WithNote(p.Span, "earlier arms already match every value this pattern could").
		Emit()
}

func quoteList(items []string) string {
	shown := items
	if len(shown) > maxListedWitnesses {
		shown = shown[:maxListedWitnesses]
	}
	quoted := make([]string, len(shown))
	for i, s := range shown {
		quoted[i] = "`" + s + "`"
	}
	out := strings.Join(quoted, ", ")
	if rest := len(items) - len(shown); rest > 0 {
		out += fmt.Sprintf(" and %d more", rest)
	}
	return out
}

// placeholder is a literal of ty used as the body of a suggested arm.
func placeholder(in *types.Interner, ty types.TypeID) (string, bool) {
	switch in.KindOf(ty) {
	case types.KindBool:
		return "false", true
	case types.KindString:
		return `""`, true
	case types.KindInt, types.KindUint:
		return "0", true
	default:
		return "", false
	}
}
