package testkit

import (
	"quill/internal/ast"
	"quill/internal/source"
	"quill/internal/types"
)

// Fixture declares types for tests without going through a unit file.
type Fixture struct {
	Types  *types.Interner
	Module string
}

func NewFixture(module string) *Fixture {
	return &Fixture{Types: types.NewInterner(), Module: module}
}

func (f *Fixture) Builtins() types.Builtins {
	return f.Types.Builtins()
}

// Union declares a closed union in the fixture's module.
func (f *Fixture) Union(name string, variants ...types.Variant) types.TypeID {
	return f.UnionIn(f.Module, false, name, variants...)
}

// UnionIn declares a union in another module, optionally open.
func (f *Fixture) UnionIn(module string, open bool, name string, variants ...types.Variant) types.TypeID {
	id := f.Types.RegisterUnion(name, module, open, source.Span{})
	f.Types.SetUnionVariants(id, variants)
	return id
}

// Class declares a class in the fixture's module.
func (f *Fixture) Class(name string, fields ...types.Field) types.TypeID {
	return f.ClassIn(f.Module, name, fields...)
}

func (f *Fixture) ClassIn(module, name string, fields ...types.Field) types.TypeID {
	id := f.Types.RegisterClass(name, module, source.Span{})
	f.Types.SetClassFields(id, fields)
	return id
}

// UnitVariant declares `Name`.
func UnitVariant(name string) types.Variant {
	return types.Variant{Name: name, Kind: types.VariantUnit}
}

// TupleVariant declares `Name(T0, T1, ...)`.
func TupleVariant(name string, items ...types.TypeID) types.Variant {
	return types.Variant{Name: name, Kind: types.VariantTuple, Fields: types.TupleFields(items)}
}

// ClassVariant declares `Name { f: T, ... }`.
func ClassVariant(name string, fields ...types.Field) types.Variant {
	return types.Variant{Name: name, Kind: types.VariantClass, Fields: fields}
}

func Field(name string, ty types.TypeID) types.Field {
	return types.Field{Name: name, Type: ty}
}

func PrivateField(name string, ty types.TypeID) types.Field {
	return types.Field{Name: name, Type: ty, Private: true}
}

// Pattern builders. Types are left unset: the analyzer and the lowering
// take the type from the scrutinee and field declarations.

func Wild() *ast.Pattern {
	return &ast.Pattern{Kind: ast.PatDiscard}
}

func Bind(name string) *ast.Pattern {
	return &ast.Pattern{Kind: ast.PatBinding, Name: name}
}

func Int(v int64) *ast.Pattern {
	return &ast.Pattern{Kind: ast.PatLiteral, Lit: ast.Literal{Kind: ast.LitInt, Int: v}}
}

func Bool(v bool) *ast.Pattern {
	return &ast.Pattern{Kind: ast.PatLiteral, Lit: ast.Literal{Kind: ast.LitBool, Bool: v}}
}

func Str(v string) *ast.Pattern {
	return &ast.Pattern{Kind: ast.PatLiteral, Lit: ast.Literal{Kind: ast.LitString, Str: v}}
}

// V builds `Owner::Variant` or `Owner::Variant(items...)`.
func V(owner, variant string, items ...*ast.Pattern) *ast.Pattern {
	p := &ast.Pattern{Kind: ast.PatVariant, Owner: owner, Variant: variant}
	if len(items) > 0 {
		p.Positional = true
		for i, item := range items {
			p.Fields = append(p.Fields, ast.FieldPattern{Name: types.TupleFieldName(i), Index: i, Pat: item})
		}
	}
	return p
}

// VN builds `Owner::Variant { f: p, ... }`.
func VN(owner, variant string, fields ...ast.FieldPattern) *ast.Pattern {
	return &ast.Pattern{Kind: ast.PatVariant, Owner: owner, Variant: variant, Fields: fields}
}

// C builds `Owner { f: p, ... }`.
func C(owner string, fields ...ast.FieldPattern) *ast.Pattern {
	return &ast.Pattern{Kind: ast.PatClass, Owner: owner, Fields: fields}
}

// F is a named sub-pattern.
func F(name string, p *ast.Pattern) ast.FieldPattern {
	return ast.FieldPattern{Name: name, Pat: p}
}

// As attaches `as name` to p.
func As(p *ast.Pattern, name string) *ast.Pattern {
	p.Name = name
	return p
}
