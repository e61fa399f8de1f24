package project

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"quill/internal/source"
)

const shapesTOML = `module = "shapes"
imports = ["base.yaml"]

[[union]]
name = "Shape"
open = true

[[union.variant]]
name = "Dot"

[[union.variant]]
name = "Circle"
items = ["int"]

[[union.variant]]
name = "Rect"
fields = [{ name = "w", type = "int" }, { name = "h", type = "int", private = true }]

[[func]]
name = "area"
params = [{ name = "s", type = "Shape" }]
result = "int"
body = "match s { Shape::Dot => 0, _ => 1 }"
`

const baseYAML = `module: base
class:
  - name: Point
    fields:
      - {name: x, type: int}
      - {name: y, type: int}
union:
  - name: Flag
    variant:
      - name: "On"
      - name: "Off"
        hidden: true
`

func TestFormatOf(t *testing.T) {
	tests := map[string]Format{
		"a.toml":     FormatTOML,
		"dir/B.YAML": FormatYAML,
		"c.yml":      FormatYAML,
		"d.json":     FormatUnknown,
	}
	for path, want := range tests {
		if got := FormatOf(path); got != want {
			t.Errorf("FormatOf(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestDecodeUnitTOML(t *testing.T) {
	u, err := DecodeUnit("shapes.toml", FormatTOML, []byte(shapesTOML))
	if err != nil {
		t.Fatalf("DecodeUnit: %v", err)
	}
	if u.Module != "shapes" || len(u.Imports) != 1 {
		t.Fatalf("header = %q %v", u.Module, u.Imports)
	}
	if len(u.Unions) != 1 || !u.Unions[0].Open || len(u.Unions[0].Variants) != 3 {
		t.Fatalf("unions = %+v", u.Unions)
	}
	rect := u.Unions[0].Variants[2]
	if len(rect.Fields) != 2 || !rect.Fields[1].Private {
		t.Errorf("Rect = %+v", rect)
	}
	if len(u.Funcs) != 1 || u.Funcs[0].Params[0].Type != "Shape" {
		t.Errorf("funcs = %+v", u.Funcs)
	}
}

func TestDecodeUnitYAML(t *testing.T) {
	u, err := DecodeUnit("base.yaml", FormatYAML, []byte(baseYAML))
	if err != nil {
		t.Fatalf("DecodeUnit: %v", err)
	}
	if u.Module != "base" || len(u.Classes) != 1 || len(u.Classes[0].Fields) != 2 {
		t.Fatalf("unit = %+v", u)
	}
	if v := u.Unions[0].Variants; len(v) != 2 || !v[1].Hidden {
		t.Errorf("variants = %+v", v)
	}
}

func TestDecodeUnitErrors(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		content string
		wantErr error
		errText string
	}{
		{name: "no_module", format: FormatTOML, content: "imports = []\n", wantErr: ErrModuleMissing},
		{name: "bad_module", format: FormatYAML, content: "module: 9lives\n", wantErr: ErrInvalidModuleName},
		{name: "unknown_format", format: FormatUnknown, content: "", wantErr: ErrUnknownFormat},
		{name: "unknown_toml_key", format: FormatTOML, content: "module = \"m\"\nversion = 1\n", errText: "unknown key"},
		{name: "unknown_yaml_key", format: FormatYAML, content: "module: m\nversion: 1\n", errText: "version"},
		{
			name:    "items_and_fields",
			format:  FormatTOML,
			content: "module = \"m\"\n[[union]]\nname = \"U\"\n[[union.variant]]\nname = \"V\"\nitems = [\"int\"]\nfields = [{ name = \"a\", type = \"int\" }]\n",
			errText: "mutually exclusive",
		},
		{name: "func_without_result", format: FormatYAML, content: "module: m\nfunc:\n  - name: f\n", errText: "result is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeUnit("unit", tt.format, []byte(tt.content))
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.errText != "" && !strings.Contains(err.Error(), tt.errText) {
				t.Errorf("err = %v, want mention of %q", err, tt.errText)
			}
			if !strings.HasPrefix(err.Error(), "unit:") {
				t.Errorf("error should start with the path: %v", err)
			}
		})
	}
}

func TestLoadUnitMeta(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shapes.toml")
	writeFile(t, path, shapesTOML)

	fs := source.NewFileSet()
	lu, err := LoadUnit(fs, path)
	if err != nil {
		t.Fatalf("LoadUnit: %v", err)
	}
	file := fs.Get(lu.File)
	if lu.Meta.Module != "shapes" || lu.Meta.ContentHash != Digest(file.Hash) {
		t.Errorf("meta = %+v", lu.Meta)
	}
	if len(lu.Meta.Imports) != 1 || lu.Meta.Imports[0].Path != filepath.ToSlash(filepath.Join(dir, "base.yaml")) {
		t.Fatalf("imports = %+v", lu.Meta.Imports)
	}
	sp := lu.Meta.Span
	if got := string(file.Content[sp.Start:sp.End]); got != "shapes" {
		t.Errorf("module span covers %q", got)
	}
	if sp := lu.DeclSpan(file, "name", "Circle"); string(file.Content[sp.Start:sp.End]) != "Circle" {
		t.Errorf("variant span = %v", sp)
	}
	if off := BodyOffset(file, lu.Unit.Funcs[0].Body); off < 0 || !strings.HasPrefix(string(file.Content[off:]), "match s") {
		t.Errorf("BodyOffset = %d", off)
	}
}

func TestDeclSpanPrefersKeyedOccurrence(t *testing.T) {
	fs := source.NewFileSet()
	text := "module = \"m\"\n# Shape is used below\nunion = [{ name = \"Shape\" }]\n"
	id := fs.AddVirtual("u.toml", []byte(text))
	lu := &LoadedUnit{File: id}
	sp := lu.DeclSpan(fs.Get(id), "name", "Shape")
	if want := strings.LastIndex(text, "Shape"); int(sp.Start) != want {
		t.Errorf("span start = %d, want %d", sp.Start, want)
	}
	if sp := lu.DeclSpan(fs.Get(id), "name", "Missing"); sp != (source.Span{File: id}) {
		t.Errorf("missing name should fall back to file start, got %v", sp)
	}
}

func TestModuleIdentAndImports(t *testing.T) {
	for s, want := range map[string]bool{"shapes": true, "a.b_c": true, "a..b": false, "9x": false, "": false, "a-b": false} {
		if got := IsValidModuleIdent(s); got != want {
			t.Errorf("IsValidModuleIdent(%q) = %v", s, got)
		}
	}
	if got := ResolveImportPath("units/app.toml", "../lib/base.yaml"); got != "lib/base.yaml" {
		t.Errorf("ResolveImportPath = %q", got)
	}
	if got := ResolveImportPath("app.toml", " "); got != "" {
		t.Errorf("blank import = %q", got)
	}
}

func TestCombineDependsOnOrder(t *testing.T) {
	a, b, c := Digest{1}, Digest{2}, Digest{3}
	if Combine(a, b, c) == Combine(a, c, b) {
		t.Error("Combine should depend on dependency order")
	}
	if Combine(a) == a {
		t.Error("Combine should rehash content")
	}
}
