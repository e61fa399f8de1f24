package sema

import (
	"slices"

	"fortio.org/safecast"

	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/parser"
	"quill/internal/project"
	"quill/internal/source"
	"quill/internal/types"
)

// funcChecker types one function body.
type funcChecker struct {
	tc       *typeChecker
	fn       *ast.Func
	generics map[string]types.TypeID
}

// scope is a lexical block of names. Lookups walk outwards.
type scope struct {
	parent *scope
	names  map[string]ast.SymbolID
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent}
}

func (s *scope) bind(name string, sym ast.SymbolID) {
	if s.names == nil {
		s.names = make(map[string]ast.SymbolID)
	}
	s.names[name] = sym
}

func (s *scope) lookup(name string) (ast.SymbolID, bool) {
	for ; s != nil; s = s.parent {
		if sym, ok := s.names[name]; ok {
			return sym, true
		}
	}
	return ast.NoSymbolID, false
}

func (tc *typeChecker) checkFuncs(lu *project.LoadedUnit) []*ast.Func {
	file := tc.fs.Get(lu.File)
	seen := make(map[string]source.Span, len(lu.Unit.Funcs))
	out := make([]*ast.Func, 0, len(lu.Unit.Funcs))
	for i := range lu.Unit.Funcs {
		decl := &lu.Unit.Funcs[i]
		sp := lu.DeclSpan(file, "name", decl.Name)
		if prev, dup := seen[decl.Name]; dup {
			tc.errorf(diag.SemaDuplicateSymbol, sp, "function %q is declared more than once", decl.Name).
				WithNote(prev, "previously declared here").
				Emit()
			continue
		}
		seen[decl.Name] = sp
		if fn := tc.checkFunc(lu, file, decl, sp); fn != nil {
			out = append(out, fn)
		}
	}
	return out
}

// checkFunc resolves the signature and body of decl. It returns nil when the
// body does not parse.
func (tc *typeChecker) checkFunc(lu *project.LoadedUnit, file *source.File, decl *project.FuncDecl, sp source.Span) *ast.Func {
	fn := &ast.Func{
		Name:     decl.Name,
		Span:     sp,
		Generics: slices.Clone(decl.Generics),
		Locals:   []ast.Local{{}},
	}
	fc := &funcChecker{tc: tc, fn: fn, generics: make(map[string]types.TypeID, len(decl.Generics))}
	for _, g := range decl.Generics {
		if _, dup := fc.generics[g]; dup {
			tc.report(diag.SemaDuplicateSymbol, lu.DeclSpan(file, "generics", g), "generic parameter %q of %s is declared more than once", g, decl.Name)
			continue
		}
		fc.generics[g] = tc.types.RegisterParam(g, decl.Name)
	}

	root := newScope(nil)
	for _, pd := range decl.Params {
		psp := lu.DeclSpan(file, "name", pd.Name)
		te, ty := tc.declType(lu, file, pd.Type, fc.generics)
		if _, dup := root.names[pd.Name]; dup {
			tc.report(diag.SemaDuplicateSymbol, psp, "parameter %q of %s is declared more than once", pd.Name, decl.Name)
			continue
		}
		sym := fc.declare(pd.Name, ty, true, psp)
		root.bind(pd.Name, sym)
		fn.Params = append(fn.Params, ast.Param{Name: pd.Name, TypeExpr: te, Type: ty, Sym: sym})
	}
	fn.ResultExpr, fn.Result = tc.declType(lu, file, decl.Result, fc.generics)

	bodyFile := tc.fs.Get(tc.fs.AddVirtual(lu.Path+"#"+decl.Name, []byte(decl.Body)))
	body, ok := parser.ParseBody(bodyFile, parser.Options{MaxErrors: tc.opts.MaxErrors, Reporter: tc.reporter})
	if !ok {
		tc.errors++
		return nil
	}
	fn.Body = body

	got := fc.value(body, root)
	if got != types.NoTypeID && fn.Result != types.NoTypeID && !fc.assignable(body, got, fn.Result) {
		tc.report(diag.SemaTypeMismatch, body.Span, "body of %s has type %s, but the declared result is %s",
			decl.Name, tc.label(got), tc.label(fn.Result))
	}
	return fn
}

// declare appends a function-scoped symbol.
func (fc *funcChecker) declare(name string, ty types.TypeID, param bool, sp source.Span) ast.SymbolID {
	sym, err := safecast.Conv[ast.SymbolID](len(fc.fn.Locals))
	if err != nil {
		panic(err)
	}
	fc.fn.Locals = append(fc.fn.Locals, ast.Local{Name: name, Type: ty, Param: param, Span: sp})
	return sym
}

// assignable reports whether a value of type got, computed by e, fits want.
// A non-negative integer literal adopts uint when uint is wanted.
func (fc *funcChecker) assignable(e *ast.Expr, got, want types.TypeID) bool {
	if got == want || got == fc.tc.types.Builtins().Never {
		return true
	}
	return fc.coerceLiteral(e, want)
}

func (fc *funcChecker) coerceLiteral(e *ast.Expr, want types.TypeID) bool {
	if e == nil || e.Kind != ast.ExprLiteral || e.Lit.Kind != ast.LitInt || e.Lit.Int < 0 {
		return false
	}
	if fc.tc.types.KindOf(want) != types.KindUint {
		return false
	}
	e.Type = want
	return true
}
