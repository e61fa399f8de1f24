package lower_test

import (
	"strings"
	"testing"

	"quill/internal/ast"
	"quill/internal/lower"
	"quill/internal/mir"
	"quill/internal/testkit"
	"quill/internal/types"
)

// unit is a one-function program under construction.
type unit struct {
	fx *testkit.Fixture
	fn *ast.Func
}

func newUnit(fx *testkit.Fixture, result types.TypeID) *unit {
	return &unit{
		fx: fx,
		fn: &ast.Func{Name: "f", Result: result, Locals: []ast.Local{{}}},
	}
}

// declare adds a function-scoped symbol.
func (u *unit) declare(name string, ty types.TypeID, param bool) ast.SymbolID {
	sym := ast.SymbolID(len(u.fn.Locals)) //nolint:gosec // tiny test tables
	u.fn.Locals = append(u.fn.Locals, ast.Local{Name: name, Type: ty, Param: param})
	if param {
		u.fn.Params = append(u.fn.Params, ast.Param{Name: name, Type: ty, Sym: sym})
	}
	return sym
}

// param declares a parameter and returns an expression reading it.
func (u *unit) param(name string, ty types.TypeID) *ast.Expr {
	sym := u.declare(name, ty, true)
	return &ast.Expr{Kind: ast.ExprName, Name: name, Sym: sym, Type: ty}
}

// bind resolves `var name` (or `as name`) in p to a fresh symbol.
func (u *unit) bind(p *ast.Pattern, ty types.TypeID) *ast.Pattern {
	p.Sym = u.declare(p.Name, ty, false)
	return p
}

func (u *unit) name(p *ast.Pattern) *ast.Expr {
	return &ast.Expr{Kind: ast.ExprName, Name: p.Name, Sym: p.Sym, Type: u.fn.Local(p.Sym).Type}
}

func (u *unit) lower(t *testing.T, body *ast.Expr) (*mir.Func, error) {
	t.Helper()
	u.fn.Body = body
	prog := &ast.Program{Module: u.fx.Module, Types: u.fx.Types, Funcs: []*ast.Func{u.fn}}
	m, err := lower.LowerProgram(prog, lower.Options{})
	if err != nil {
		return nil, err
	}
	if err := mir.Validate(m, u.fx.Types); err != nil {
		t.Fatalf("lowered module is invalid: %v", err)
	}
	return m.Funcs[0], nil
}

func (u *unit) mustLower(t *testing.T, body *ast.Expr) *mir.Func {
	t.Helper()
	f, err := u.lower(t, body)
	if err != nil {
		t.Fatalf("lower: %v", err)
	}
	return f
}

func intLit(in *types.Interner, v int64) *ast.Expr {
	return &ast.Expr{Kind: ast.ExprLiteral, Type: in.Builtins().Int, Lit: ast.Literal{Kind: ast.LitInt, Int: v}}
}

func match(x *ast.Expr, result types.TypeID, arms ...*ast.Arm) *ast.Expr {
	return &ast.Expr{Kind: ast.ExprMatch, Type: result, X: x, Arms: arms}
}

func arm(p *ast.Pattern, body *ast.Expr) *ast.Arm {
	return &ast.Arm{Pattern: p, Body: body}
}

func switches(f *mir.Func) []mir.SwitchIntTerm {
	var out []mir.SwitchIntTerm
	for i := range f.Blocks {
		if f.Blocks[i].Term.Kind == mir.TermSwitchInt {
			out = append(out, f.Blocks[i].Term.SwitchInt)
		}
	}
	return out
}

func instrs(f *mir.Func, kind mir.InstrKind) []mir.Instr {
	var out []mir.Instr
	for i := range f.Blocks {
		for _, ins := range f.Blocks[i].Instrs {
			if ins.Kind == kind {
				out = append(out, ins)
			}
		}
	}
	return out
}

// assignsTo counts the instructions storing into the named local.
func assignsTo(f *mir.Func, name string) int {
	id, ok := f.LocalByName(name)
	if !ok {
		return 0
	}
	n := 0
	for _, ins := range instrs(f, mir.InstrAssign) {
		if ins.Assign.Dst.Local == id {
			n++
		}
	}
	return n
}

func dump(t *testing.T, f *mir.Func, in *types.Interner) string {
	t.Helper()
	var sb strings.Builder
	if err := mir.DumpFunc(&sb, f, in); err != nil {
		t.Fatalf("dump: %v", err)
	}
	return sb.String()
}
