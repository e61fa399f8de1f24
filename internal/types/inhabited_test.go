package types

import (
	"testing"

	"quill/internal/source"
)

var noSpan source.Span

func TestUninhabitedBasics(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	void := in.RegisterUnion("Void", "lib", false, noSpan)
	holder := in.RegisterClass("Holder", "lib", noSpan)
	in.SetClassFields(holder, []Field{{Name: "v", Type: void}})

	tests := []struct {
		name string
		id   TypeID
		want bool
	}{
		{"never", b.Never, true},
		{"int", b.Int, false},
		{"zero variant union", void, true},
		{"class with empty field", holder, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := in.IsUninhabited(tt.id, "main"); got != tt.want {
				t.Fatalf("IsUninhabited = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUninhabitedRespectsScope(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	secret := in.RegisterClass("Secret", "lib", noSpan)
	in.SetClassFields(secret, []Field{{Name: "n", Type: b.Never, Private: true}})
	if in.IsUninhabited(secret, "main") {
		t.Fatalf("private empty field must not leak outside its module")
	}
	if !in.IsUninhabited(secret, "lib") {
		t.Fatalf("declaring module sees the class as empty")
	}

	open := in.RegisterUnion("Open", "lib", true, noSpan)
	if in.IsUninhabited(open, "main") {
		t.Fatalf("open union is inhabited outside its module")
	}
	if !in.IsUninhabited(open, "lib") {
		t.Fatalf("open zero-variant union is empty inside its module")
	}
}

func TestUninhabitedRecursiveTypeTerminates(t *testing.T) {
	in := NewInterner()
	list := in.RegisterUnion("List", "main", false, noSpan)
	in.SetUnionVariants(list, []Variant{
		{Name: "Cons", Kind: VariantTuple, Fields: TupleFields([]TypeID{in.Builtins().Int, list})},
	})
	if in.IsUninhabited(list, "main") {
		t.Fatalf("recursive types are treated as inhabited")
	}
}
