// Package sema resolves decoded units into an ast.Program. It registers the
// nominal types of every unit, parses function bodies, binds names to
// function-scoped symbols and types every expression and pattern.
package sema

import (
	"fmt"
	"strconv"

	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/project"
	"quill/internal/source"
	"quill/internal/trace"
	"quill/internal/types"
)

// Options configures one Check run.
type Options struct {
	Reporter diag.Reporter
	// MaxErrors caps syntax errors per body; 0 means no limit.
	MaxErrors uint
	Tracer    trace.Tracer
	Parent    uint64
}

// typeChecker holds the state shared by every unit of one run.
type typeChecker struct {
	fs       *source.FileSet
	types    *types.Interner
	reporter diag.Reporter
	opts     Options
	// module is the entry unit's module; privacy is judged against it.
	module   string
	builtins map[string]types.TypeID
	sites    map[string]source.Span
	errors   int
}

// Check resolves units, ordered dependencies first with the entry unit last.
// Types of every unit are registered; only the entry unit's functions are
// checked and returned. The result is usable only when ok is true.
func Check(fs *source.FileSet, units []*project.LoadedUnit, opts Options) (prog *ast.Program, ok bool) {
	tr := opts.Tracer
	if tr == nil {
		tr = trace.Nop
	}
	span := trace.Begin(tr, trace.ScopePass, "sema", opts.Parent)

	in := types.NewInterner()
	b := in.Builtins()
	tc := &typeChecker{
		fs:       fs,
		types:    in,
		reporter: opts.Reporter,
		opts:     opts,
		builtins: map[string]types.TypeID{
			"unit":   b.Unit,
			"never":  b.Never,
			"bool":   b.Bool,
			"string": b.String,
			"int":    b.Int,
			"uint":   b.Uint,
			"float":  b.Float,
		},
		sites: make(map[string]source.Span),
	}
	if tc.reporter == nil {
		tc.reporter = diag.NopReporter{}
	}

	prog = &ast.Program{Types: in, Files: fs}
	if len(units) > 0 {
		entry := units[len(units)-1]
		tc.module = entry.Unit.Module
		prog.Module = entry.Unit.Module

		pending := tc.declareTypes(units)
		tc.defineTypes(pending)
		for _, p := range pending {
			prog.Decls = append(prog.Decls, p.id)
		}
		prog.Funcs = tc.checkFuncs(entry)
	}

	ok = tc.errors == 0
	status := "ok"
	if !ok {
		status = "errors"
	}
	span.WithExtra("funcs", strconv.Itoa(len(prog.Funcs))).
		WithExtra("errors", strconv.Itoa(tc.errors)).
		End(status)
	return prog, ok
}

// report emits an error diagnostic.
func (tc *typeChecker) report(code diag.Code, sp source.Span, format string, args ...any) {
	tc.errorf(code, sp, format, args...).Emit()
}

// errorf counts an error and returns its builder so callers can attach notes.
func (tc *typeChecker) errorf(code diag.Code, sp source.Span, format string, args ...any) *diag.ReportBuilder {
	tc.errors++
	return diag.ReportError(tc.reporter, code, sp, fmt.Sprintf(format, args...))
}

func (tc *typeChecker) label(id types.TypeID) string {
	return types.Label(tc.types, id)
}

// visible reports whether something declared private in module can be used
// from the module being checked.
func (tc *typeChecker) visible(private bool, module string) bool {
	return !private || module == tc.module
}
