package ast

import "testing"

func TestPatternString(t *testing.T) {
	tests := []struct {
		pat  *Pattern
		want string
	}{
		{&Pattern{Kind: PatDiscard}, "_"},
		{&Pattern{Kind: PatBinding, Name: "x"}, "var x"},
		{&Pattern{Kind: PatType, TypeExpr: &TypeExpr{Name: "int"}}, "_: int"},
		{&Pattern{Kind: PatLiteral, Lit: Literal{Kind: LitString, Str: "hi"}}, `"hi"`},
		{&Pattern{Kind: PatVariant, Owner: "U", Variant: "A"}, "U::A"},
		{&Pattern{
			Kind: PatVariant, Owner: "U", Variant: "A", Positional: true,
			Fields: []FieldPattern{{Pat: &Pattern{Kind: PatBinding, Name: "x"}}},
		}, "U::A(var x)"},
		{&Pattern{
			Kind: PatClass, Owner: "P", Name: "p",
			Fields: []FieldPattern{{Name: "f", Pat: &Pattern{Kind: PatDiscard}}},
		}, "P { f: _ } as p"},
	}
	for _, tt := range tests {
		if got := tt.pat.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestInspectVisitsArmsAndArgs(t *testing.T) {
	lit := func(v int64) *Expr { return &Expr{Kind: ExprLiteral, Lit: Literal{Kind: LitInt, Int: v}} }
	e := &Expr{
		Kind: ExprMatch,
		X: &Expr{Kind: ExprNew, New: &NewData{Owner: "C", Args: []FieldInit{{Name: "f", Value: lit(1)}}}},
		Arms: []*Arm{
			{Pattern: &Pattern{Kind: PatDiscard}, Body: lit(2)},
		},
	}
	count := 0
	Inspect(e, func(*Expr) bool {
		count++
		return true
	})
	if count != 4 {
		t.Fatalf("expected 4 nodes, got %d", count)
	}
}
