package ast

import (
	"quill/internal/source"
	"quill/internal/types"
)

// SymbolID addresses Func.Locals. Zero means unresolved.
type SymbolID uint32

const NoSymbolID SymbolID = 0

// Local is a named function-scoped variable: a parameter or a pattern binding.
type Local struct {
	Name  string
	Type  types.TypeID
	Param bool
	Span  source.Span
}

// Param is a declared function parameter.
type Param struct {
	Name     string
	TypeExpr *TypeExpr
	Type     types.TypeID
	Sym      SymbolID
}

// Func is a function with an expression body.
type Func struct {
	Name     string
	Span     source.Span
	Generics []string
	Params   []Param
	// ResultExpr is the declared result type, nil when inferred from the body.
	ResultExpr *TypeExpr
	Result     types.TypeID
	Body       *Expr
	// Locals holds every symbol of the function, index 0 reserved.
	Locals []Local
}

// Local returns the symbol's descriptor.
func (f *Func) Local(sym SymbolID) *Local {
	if sym == NoSymbolID || int(sym) >= len(f.Locals) {
		return nil
	}
	return &f.Locals[sym]
}

// Program is one resolved compilation unit.
type Program struct {
	Module string
	Types  *types.Interner
	Files  *source.FileSet
	Funcs  []*Func
	// Decls lists class and union types in declaration order.
	Decls []types.TypeID
}

// Func finds a function by name.
func (p *Program) Func(name string) *Func {
	for _, fn := range p.Funcs {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}
