package sema

import (
	"fmt"
	"testing"

	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/project"
	"quill/internal/source"
	"quill/internal/types"
)

const prelude = `module = "main"

[[class]]
name = "Pair"
fields = [{ name = "a", type = "int" }, { name = "b", type = "bool" }]

[[class]]
name = "Secret"
module = "vault"
fields = [{ name = "key", type = "string", private = true }, { name = "id", type = "int" }]

[[union]]
name = "Opt"

[[union.variant]]
name = "None"

[[union.variant]]
name = "Some"
items = ["int"]

[[union.variant]]
name = "Named"
fields = [{ name = "x", type = "int" }]

[[union]]
name = "Vault"
module = "vault"

[[union.variant]]
name = "Open"

[[union.variant]]
name = "Locked"
private = true
`

// withFunc appends a function f over a fixed parameter list to the prelude.
func withFunc(result, body string) string {
	return prelude + fmt.Sprintf(`
[[func]]
name = "f"
params = [
  { name = "o", type = "Opt" },
  { name = "p", type = "Pair" },
  { name = "n", type = "uint" },
  { name = "s", type = "Secret" },
  { name = "v", type = "Vault" },
]
result = %q
body = '''%s'''
`, result, body)
}

func loadUnit(t *testing.T, fs *source.FileSet, path, text string) *project.LoadedUnit {
	t.Helper()
	format := project.FormatOf(path)
	u, err := project.DecodeUnit(path, format, []byte(text))
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	id := fs.Add(path, []byte(text), 0)
	return &project.LoadedUnit{Path: path, File: id, Format: format, Unit: u}
}

func checkText(t *testing.T, texts ...string) (*ast.Program, bool, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	units := make([]*project.LoadedUnit, len(texts))
	for i, text := range texts {
		units[i] = loadUnit(t, fs, fmt.Sprintf("unit%d.toml", i), text)
	}
	bag := diag.NewBag(50)
	prog, ok := Check(fs, units, Options{Reporter: diag.BagReporter{Bag: bag}})
	return prog, ok, bag
}

func TestCheck_ResolvesBodies(t *testing.T) {
	tests := []struct {
		name   string
		result string
		body   string
	}{
		{"match_arms", "int", `match o { Opt::None => 0, Opt::Some(var x) => x, Opt::Named { x: var y } => y }`},
		{"matches_and", "bool", `o matches Opt::Some(var x) && x == 1`},
		{"matches_if", "int", `if o matches Opt::Some(var x) { x } else { 0 }`},
		{"nested_and", "int", `if o matches Opt::Some(var x) && p matches Pair { a: var y } { y } else { 0 }`},
		{"uint_literals", "uint", `if n == 3 { 1 } else { n }`},
		{"uint_pattern", "int", `match n { 0 => 1, _ => 2 }`},
		{"new_tuple", "Opt", `new Opt::Some(1)`},
		{"new_named", "Opt", `new Opt::Named { x: 2 }`},
		{"new_unit", "Opt", `new Opt::None`},
		{"new_class", "Pair", `new Pair { b: true, a: 1 }`},
		{"public_field", "int", `s.id`},
		{"type_pattern", "int", `match o { var x: Opt => 1 }`},
		{"as_binding", "Opt", `match o { Opt::Some(_) as w => w, _ => o }`},
		{"empty_match", "int", `match v { }`},
		{"shadowing", "int", `match p { Pair { a: var p } => p }`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, ok, bag := checkText(t, withFunc(tt.result, tt.body))
			if !ok || bag.Len() != 0 {
				t.Fatalf("ok=%v, diagnostics: %+v", ok, bag.Items())
			}
			fn := prog.Func("f")
			if fn == nil || fn.Body == nil {
				t.Fatal("function f missing")
			}
			ast.Inspect(fn.Body, func(e *ast.Expr) bool {
				if e.Type == types.NoTypeID {
					t.Errorf("%s expression at %v has no type", e.Kind, e.Span)
				}
				return true
			})
		})
	}
}

func TestCheck_Errors(t *testing.T) {
	tests := []struct {
		name   string
		result string
		body   string
		code   diag.Code
	}{
		{"undefined", "int", `x`, diag.SemaUnresolvedSymbol},
		{"binding_not_in_else", "int", `if o matches Opt::Some(var x) { 0 } else { x }`, diag.SemaUnresolvedSymbol},
		{"binding_not_outside", "bool", `(o matches Opt::Some(var x)) == (x == 1)`, diag.SemaUnresolvedSymbol},
		{"field_of_union", "int", `o.x`, diag.SemaNotAClass},
		{"unknown_field", "int", `p.c`, diag.SemaUnknownField},
		{"private_field", "string", `s.key`, diag.SemaPrivateField},
		{"and_operands", "bool", `p.a && true`, diag.SemaInvalidBinaryOperands},
		{"eq_mismatch", "bool", `p.a == p.b`, diag.SemaInvalidBinaryOperands},
		{"eq_class", "bool", `p == p`, diag.SemaInvalidBinaryOperands},
		{"if_condition", "int", `if p.a { 1 } else { 2 }`, diag.SemaInvalidBoolContext},
		{"branch_mismatch", "int", `if p.b { 1 } else { true }`, diag.SemaTypeMismatch},
		{"body_mismatch", "bool", `p.a`, diag.SemaTypeMismatch},
		{"unknown_variant", "Opt", `new Opt::Many`, diag.SemaUnknownVariant},
		{"missing_field", "Pair", `new Pair { a: 1 }`, diag.SemaMissingField},
		{"duplicate_field", "Pair", `new Pair { a: 1, a: 2, b: true }`, diag.SemaDuplicateField},
		{"new_arity", "Opt", `new Opt::Some(1, 2)`, diag.SemaArityMismatch},
		{"new_arg_type", "Opt", `new Opt::Some(true)`, diag.SemaTypeMismatch},
		{"new_not_union", "Pair", `new Pair::A`, diag.SemaNotAUnion},
		{"new_not_class", "Opt", `new Opt { x: 1 }`, diag.SemaNotAClass},
		{"new_private_variant", "Vault", `new Vault::Locked`, diag.SemaPrivateVariant},
		{"unknown_pattern_type", "int", `match o { Nope::A => 1, _ => 2 }`, diag.SemaUnknownType},
		{"pattern_wrong_type", "int", `match o { Pair { a: _ } => 1, _ => 2 }`, diag.SemaPatternTypeMismatch},
		{"literal_wrong_type", "int", `match o { 1 => 1, _ => 2 }`, diag.SemaPatternTypeMismatch},
		{"negative_uint", "int", `match n { -1 => 1, _ => 2 }`, diag.SemaBadLiteralPattern},
		{"duplicate_binding", "int", `match p { Pair { a: var x, b: var x } => 1 }`, diag.SemaDuplicateBinding},
		{"private_variant", "int", `match v { Vault::Locked => 1, _ => 2 }`, diag.SemaPrivateVariant},
		{"pattern_arity", "int", `match o { Opt::Some(var x, var y) => 1, _ => 2 }`, diag.SemaArityMismatch},
		{"type_pattern", "int", `match o { var x: int => 1 }`, diag.SemaPatternTypeMismatch},
		{"pattern_private_field", "int", `match s { Secret { key: _ } => 1 }`, diag.SemaPrivateField},
		{"pattern_unknown_field", "int", `match p { Pair { z: _ } => 1 }`, diag.SemaUnknownField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok, bag := checkText(t, withFunc(tt.result, tt.body))
			if ok {
				t.Fatal("expected the check to fail")
			}
			items := bag.Items()
			if len(items) == 0 {
				t.Fatal("no diagnostics reported")
			}
			if items[0].Code != tt.code {
				t.Errorf("first diagnostic %s (%s), want %s", items[0].Code.ID(), items[0].Message, tt.code.ID())
			}
		})
	}
}

func TestCheck_SyntaxErrorFailsWithoutSemaNoise(t *testing.T) {
	_, ok, bag := checkText(t, withFunc("int", `match o {`))
	if ok {
		t.Fatal("expected failure")
	}
	for _, d := range bag.Items() {
		if d.Code >= diag.SemaInfo && d.Code < diag.IOLoadFileError {
			t.Errorf("unexpected semantic diagnostic %s: %s", d.Code.ID(), d.Message)
		}
	}
}

func TestCheck_Declarations(t *testing.T) {
	tests := []struct {
		name string
		text string
		code diag.Code
	}{
		{
			name: "duplicate_type",
			text: prelude + "\n[[class]]\nname = \"Pair\"\n",
			code: diag.SemaDuplicateSymbol,
		},
		{
			name: "builtin_name",
			text: "module = \"m\"\n[[class]]\nname = \"int\"\n",
			code: diag.SemaDuplicateSymbol,
		},
		{
			name: "unknown_field_type",
			text: "module = \"m\"\n[[class]]\nname = \"Box\"\nfields = [{ name = \"v\", type = \"Nothing\" }]\n",
			code: diag.SemaUnknownType,
		},
		{
			name: "duplicate_field_decl",
			text: "module = \"m\"\n[[class]]\nname = \"Box\"\nfields = [{ name = \"v\", type = \"int\" }, { name = \"v\", type = \"bool\" }]\n",
			code: diag.SemaDuplicateField,
		},
		{
			name: "duplicate_variant",
			text: "module = \"m\"\n[[union]]\nname = \"U\"\n[[union.variant]]\nname = \"A\"\n[[union.variant]]\nname = \"A\"\n",
			code: diag.SemaDuplicateSymbol,
		},
		{
			name: "duplicate_func",
			text: "module = \"m\"\n[[func]]\nname = \"g\"\nresult = \"int\"\nbody = \"1\"\n[[func]]\nname = \"g\"\nresult = \"int\"\nbody = \"2\"\n",
			code: diag.SemaDuplicateSymbol,
		},
		{
			name: "bad_type_text",
			text: "module = \"m\"\n[[func]]\nname = \"g\"\nresult = \"fn(\"\nbody = \"1\"\n",
			code: diag.SynExpectType,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok, bag := checkText(t, tt.text)
			if ok {
				t.Fatal("expected the check to fail")
			}
			if items := bag.Items(); len(items) == 0 || items[0].Code != tt.code {
				t.Errorf("diagnostics %+v, want first code %s", items, tt.code.ID())
			}
		})
	}
}

func TestCheck_Generics(t *testing.T) {
	text := `module = "m"

[[func]]
name = "id"
generics = ["T"]
params = [{ name = "x", type = "T" }, { name = "k", type = "fn(T) -> bool" }]
result = "T"
body = "match x { var y: T => y }"
`
	prog, ok, bag := checkText(t, text)
	if !ok {
		t.Fatalf("diagnostics: %+v", bag.Items())
	}
	fn := prog.Func("id")
	if got := prog.Types.KindOf(fn.Result); got != types.KindParam {
		t.Errorf("result kind = %v, want param", got)
	}
	if got := prog.Types.KindOf(fn.Params[1].Type); got != types.KindFn {
		t.Errorf("k kind = %v, want fn", got)
	}
	if fn.Params[0].Type != fn.Result {
		t.Error("both uses of T should resolve to one parameter type")
	}
}

func TestCheck_DependencyPrivacy(t *testing.T) {
	dep := `module = "geo"

[[class]]
name = "Point"
fields = [{ name = "x", type = "int" }, { name = "tag", type = "string", private = true }]
`
	entry := `module = "app"
imports = ["unit0.toml"]

[[func]]
name = "tag"
params = [{ name = "p", type = "Point" }]
result = "string"
body = "p.tag"
`
	prog, ok, bag := checkText(t, dep, entry)
	if ok {
		t.Fatal("reading a private field of another module must fail")
	}
	if items := bag.Items(); len(items) != 1 || items[0].Code != diag.SemaPrivateField {
		t.Fatalf("diagnostics: %+v", items)
	}
	if prog.Module != "app" || len(prog.Decls) != 1 || len(prog.Funcs) != 1 {
		t.Errorf("program = module %q, %d decls, %d funcs", prog.Module, len(prog.Decls), len(prog.Funcs))
	}
}

func TestCheck_BindingsBecomeLocals(t *testing.T) {
	prog, ok, bag := checkText(t, withFunc("int", `match o { Opt::Some(var x) => x, Opt::Named { x: var y } => y, _ => 0 }`))
	if !ok {
		t.Fatalf("diagnostics: %+v", bag.Items())
	}
	fn := prog.Func("f")
	// index 0 is reserved, five parameters follow
	if len(fn.Locals) != 8 {
		t.Fatalf("locals = %d, want 8", len(fn.Locals))
	}
	x := fn.Locals[6]
	if x.Name != "x" || x.Param || x.Type != prog.Types.Builtins().Int {
		t.Errorf("local 6 = %+v", x)
	}
	arm := fn.Body.Arms[0]
	if arm.Pattern.Type == types.NoTypeID || arm.Pattern.Fields[0].Pat.Sym != 6 {
		t.Errorf("pattern not resolved: %+v", arm.Pattern)
	}
	if arm.Body.Sym != 6 {
		t.Errorf("arm body refers to symbol %d, want 6", arm.Body.Sym)
	}
	named := fn.Body.Arms[1].Pattern
	if named.Fields[0].Index != 0 {
		t.Errorf("named field index = %d, want 0", named.Fields[0].Index)
	}
}
