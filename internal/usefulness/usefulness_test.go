package usefulness_test

import (
	"errors"
	"slices"
	"testing"

	"quill/internal/ast"
	"quill/internal/pattern"
	"quill/internal/testkit"
	"quill/internal/types"
	"quill/internal/usefulness"
)

type analysis struct {
	f      *testkit.Fixture
	arena  *pattern.Arena
	report *usefulness.Report
}

func analyze(t *testing.T, f *testkit.Fixture, ty types.TypeID, validity usefulness.Validity, pats ...*ast.Pattern) *analysis {
	t.Helper()
	res, err := run(f, f.Module, ty, validity, 0, pats...)
	if err != nil {
		t.Fatalf("ComputeMatchUsefulness: %v", err)
	}
	return res
}

func run(f *testkit.Fixture, module string, ty types.TypeID, validity usefulness.Validity, limit int, pats ...*ast.Pattern) (*analysis, error) {
	cx := pattern.NewCx(f.Types, module)
	arena := pattern.NewArena()
	arms := make([]usefulness.Arm, len(pats))
	for i, p := range pats {
		id, err := pattern.Lower(arena, cx, p, ty)
		if err != nil {
			return nil, err
		}
		arms[i] = usefulness.Arm{Pat: id}
	}
	report, err := usefulness.ComputeMatchUsefulness(cx, arena, arms, ty, validity, usefulness.Options{ComplexityLimit: limit})
	if err != nil {
		return nil, err
	}
	return &analysis{f: f, arena: arena, report: report}, nil
}

func (a *analysis) witnesses() []string {
	out := make([]string, len(a.report.Witnesses))
	for i, w := range a.report.Witnesses {
		out[i] = w.Render(a.f.Types)
	}
	return out
}

func abc(t *testing.T) (*testkit.Fixture, types.TypeID) {
	t.Helper()
	f := testkit.NewFixture("main")
	u := f.Union("MyUnion", testkit.UnitVariant("A"), testkit.UnitVariant("B"), testkit.UnitVariant("C"))
	return f, u
}

func TestMissingVariantWitness(t *testing.T) {
	f := testkit.NewFixture("main")
	u := f.Union("MyUnion", testkit.UnitVariant("A"), testkit.UnitVariant("B"))
	a := analyze(t, f, u, usefulness.ValidOnly, testkit.V("MyUnion", "A"))
	if got := a.witnesses(); !slices.Equal(got, []string{"MyUnion::B"}) {
		t.Fatalf("witnesses = %v, want [MyUnion::B]", got)
	}
	if a.report.Arms[0].Usefulness != usefulness.Useful {
		t.Fatalf("single arm must be useful")
	}
}

func TestFullCoverIsExhaustive(t *testing.T) {
	f, u := abc(t)
	a := analyze(t, f, u, usefulness.ValidOnly,
		testkit.V("MyUnion", "A"), testkit.V("MyUnion", "B"), testkit.V("MyUnion", "C"))
	if !a.report.Exhaustive() {
		t.Fatalf("expected exhaustive, got %v", a.witnesses())
	}
	if r := a.report.RedundantArms(); len(r) != 0 {
		t.Fatalf("no arm is redundant, got %v", r)
	}
}

func TestSecondWildcardIsRedundant(t *testing.T) {
	f, u := abc(t)
	a := analyze(t, f, u, usefulness.ValidOnly,
		testkit.V("MyUnion", "A"), testkit.Wild(), testkit.Bind("x"))
	if !a.report.Exhaustive() {
		t.Fatalf("expected exhaustive")
	}
	if got := a.report.RedundantArms(); !slices.Equal(got, []int{2}) {
		t.Fatalf("redundant arms = %v, want [2]", got)
	}
	covered := a.report.Arms[2].CoveredBy
	if !slices.Contains(covered, 1) {
		t.Fatalf("arm 2 must be covered by the first wildcard, got %v", covered)
	}
	if got := a.report.Intersections[1]; !slices.Equal(got, []int{0}) {
		t.Fatalf("wildcard intersects arm 0, got %v", got)
	}
}

func TestRepeatedVariantIsRedundant(t *testing.T) {
	f, u := abc(t)
	a := analyze(t, f, u, usefulness.ValidOnly,
		testkit.V("MyUnion", "A"), testkit.V("MyUnion", "A"), testkit.Wild())
	if got := a.report.RedundantArms(); !slices.Equal(got, []int{1}) {
		t.Fatalf("redundant arms = %v, want [1]", got)
	}
	if got := a.report.Arms[1].CoveredBy; !slices.Equal(got, []int{0}) {
		t.Fatalf("covered by = %v, want [0]", got)
	}
}

func TestNestedMissingCombination(t *testing.T) {
	f := testkit.NewFixture("main")
	inner := f.Union("Inner", testkit.UnitVariant("X"), testkit.UnitVariant("Y"))
	outer := f.Union("Outer",
		testkit.ClassVariant("Wrap", testkit.Field("inner", inner), testkit.Field("tag", f.Builtins().Bool)),
		testkit.UnitVariant("None"),
	)
	a := analyze(t, f, outer, usefulness.ValidOnly,
		testkit.VN("Outer", "Wrap", testkit.F("inner", testkit.V("Inner", "X"))),
		testkit.VN("Outer", "Wrap", testkit.F("inner", testkit.V("Inner", "Y")), testkit.F("tag", testkit.Bool(true))),
		testkit.V("Outer", "None"),
	)
	want := []string{"Outer::Wrap { inner: Inner::Y, tag: false }"}
	if got := a.witnesses(); !slices.Equal(got, want) {
		t.Fatalf("witnesses = %v, want %v", got, want)
	}
}

func TestBoolColumnsEnumerateBothValues(t *testing.T) {
	f := testkit.NewFixture("main")
	b := f.Builtins()
	flags := f.Class("Flags", testkit.Field("a", b.Bool), testkit.Field("b", b.Bool))
	a := analyze(t, f, flags, usefulness.ValidOnly,
		testkit.C("Flags", testkit.F("a", testkit.Bool(true))),
		testkit.C("Flags", testkit.F("a", testkit.Bool(false)), testkit.F("b", testkit.Bool(true))),
	)
	want := []string{"Flags { a: false, b: false }"}
	if got := a.witnesses(); !slices.Equal(got, want) {
		t.Fatalf("witnesses = %v, want %v", got, want)
	}
}

func TestUnlistableNeedsWildcard(t *testing.T) {
	f := testkit.NewFixture("main")
	b := f.Builtins()

	a := analyze(t, f, b.Int, usefulness.ValidOnly, testkit.Int(1), testkit.Int(2), testkit.Int(1))
	if got := a.witnesses(); !slices.Equal(got, []string{"_"}) {
		t.Fatalf("witnesses = %v, want [_]", got)
	}
	if !a.report.Witnesses[0].HasMarker() {
		t.Fatalf("unlistable witness must carry the non-exhaustive marker")
	}
	if got := a.report.RedundantArms(); !slices.Equal(got, []int{2}) {
		t.Fatalf("repeated literal must be redundant, got %v", got)
	}

	a = analyze(t, f, b.String, usefulness.ValidOnly, testkit.Str("x"), testkit.Bind("s"))
	if !a.report.Exhaustive() {
		t.Fatalf("binding closes a string column")
	}
}

func TestNeverScrutineeNeedsNoArms(t *testing.T) {
	f := testkit.NewFixture("main")
	void := f.Union("Void")
	wrap := f.Union("Wrap", testkit.TupleVariant("Only", void))
	for _, v := range []usefulness.Validity{usefulness.ValidOnly, usefulness.MaybeInvalid} {
		for _, ty := range []types.TypeID{void, f.Builtins().Never, wrap} {
			a := analyze(t, f, ty, v)
			if !a.report.Exhaustive() {
				t.Fatalf("%s scrutinee with %s validity: witnesses %v", types.Label(f.Types, ty), v, a.witnesses())
			}
		}
	}
}

func TestEmptyVariantDependsOnValidity(t *testing.T) {
	f := testkit.NewFixture("main")
	void := f.Union("Void")
	u := f.Union("U", testkit.UnitVariant("A"), testkit.TupleVariant("B", void))

	a := analyze(t, f, u, usefulness.ValidOnly, testkit.V("U", "A"))
	if !a.report.Exhaustive() {
		t.Fatalf("valid place may omit the empty variant, got %v", a.witnesses())
	}
	a = analyze(t, f, u, usefulness.MaybeInvalid, testkit.V("U", "A"))
	if got := a.witnesses(); !slices.Equal(got, []string{"U::B(_)"}) {
		t.Fatalf("witnesses = %v, want [U::B(_)]", got)
	}
}

func TestOpenForeignUnionNeedsWildcard(t *testing.T) {
	f := testkit.NewFixture("main")
	u := f.UnionIn("lib", true, "Event", testkit.UnitVariant("Start"), testkit.UnitVariant("Stop"))
	a := analyze(t, f, u, usefulness.ValidOnly, testkit.V("Event", "Start"), testkit.V("Event", "Stop"))
	if got := a.witnesses(); !slices.Equal(got, []string{"_"}) {
		t.Fatalf("witnesses = %v, want [_]", got)
	}
	if !a.report.Witnesses[0].HasMarker() {
		t.Fatalf("expected the non-exhaustive marker")
	}

	home, err := run(f, "lib", u, usefulness.ValidOnly, 0, testkit.V("Event", "Start"), testkit.V("Event", "Stop"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !home.report.Exhaustive() {
		t.Fatalf("declaring module may list every variant")
	}
}

func TestHiddenVariantsCollapse(t *testing.T) {
	f := testkit.NewFixture("main")
	u := f.UnionIn("lib", false, "Op",
		testkit.UnitVariant("Add"),
		types.Variant{Name: "Secret1", Private: true},
		types.Variant{Name: "Secret2", Hidden: true},
	)
	a := analyze(t, f, u, usefulness.ValidOnly, testkit.V("Op", "Add"))
	got := a.witnesses()
	if !slices.Equal(got, []string{"_"}) {
		t.Fatalf("hidden variants must collapse into one `_`, got %v", got)
	}
}

func TestPrivateEmptyFieldIsSkipped(t *testing.T) {
	f := testkit.NewFixture("main")
	b := f.Builtins()
	secret := f.ClassIn("lib", "Secret", testkit.Field("id", b.Int), testkit.PrivateField("n", b.Never))
	a := analyze(t, f, secret, usefulness.ValidOnly, testkit.C("Secret", testkit.F("id", testkit.Int(1))))
	want := []string{"Secret { id: _, .. }"}
	if got := a.witnesses(); !slices.Equal(got, want) {
		t.Fatalf("witnesses = %v, want %v", got, want)
	}
}

func TestSingleFieldClassWildcardIsExhaustive(t *testing.T) {
	f := testkit.NewFixture("main")
	c := f.Class("Box", testkit.Field("f", f.Builtins().Int))
	a := analyze(t, f, c, usefulness.ValidOnly, testkit.C("Box", testkit.F("f", testkit.Wild())))
	if !a.report.Exhaustive() || len(a.report.RedundantArms()) != 0 {
		t.Fatalf("unexpected report %+v", a.report)
	}
}

func TestComplexityLimit(t *testing.T) {
	f, u := abc(t)
	_, err := run(f, f.Module, u, usefulness.ValidOnly, 1, testkit.Wild(), testkit.Wild())
	if !errors.Is(err, usefulness.ErrTooComplex) {
		t.Fatalf("expected ErrTooComplex, got %v", err)
	}
	if errors.Is(err, usefulness.ErrInternal) {
		t.Fatalf("limit breach must not look like an internal error")
	}
}

func TestAddingArmsIsMonotonic(t *testing.T) {
	f, u := abc(t)
	base := []*ast.Pattern{testkit.V("MyUnion", "A"), testkit.V("MyUnion", "B")}
	before := analyze(t, f, u, usefulness.ValidOnly, base...)
	after := analyze(t, f, u, usefulness.ValidOnly, append([]*ast.Pattern{testkit.Wild()}, base...)...)
	for i := range base {
		if before.report.Arms[i].Usefulness == usefulness.Redundant && after.report.Arms[i+1].Usefulness == usefulness.Useful {
			t.Fatalf("arm %d became useful after adding an earlier arm", i)
		}
	}
	if got := after.report.RedundantArms(); !slices.Equal(got, []int{1, 2}) {
		t.Fatalf("leading wildcard makes every later arm redundant, got %v", got)
	}
	if len(after.witnesses()) != 0 {
		t.Fatalf("leading wildcard is exhaustive")
	}
}

func TestPatternUsefulnessIsIndexedByID(t *testing.T) {
	f, u := abc(t)
	a := analyze(t, f, u, usefulness.ValidOnly, testkit.Wild(), testkit.V("MyUnion", "C"))
	if len(a.report.Patterns) != a.arena.Len()+1 {
		t.Fatalf("patterns table has %d entries for %d patterns", len(a.report.Patterns), a.arena.Len())
	}
	second := a.report.Patterns[2]
	if !second.Reached || second.Useful {
		t.Fatalf("second arm pattern should be reached and useless: %+v", second)
	}
	if !slices.Equal(second.CoveredBy, []pattern.PatID{1}) {
		t.Fatalf("covered by = %v, want [1]", second.CoveredBy)
	}
}
