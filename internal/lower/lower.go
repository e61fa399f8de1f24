// Package lower turns resolved function bodies into MIR. Pattern-bearing
// expressions become decision trees of discriminant switches and field reads.
package lower

import (
	"fmt"

	"fortio.org/safecast"

	"quill/internal/ast"
	"quill/internal/mir"
	"quill/internal/trace"
	"quill/internal/types"
)

// Options tunes one lowering run.
type Options struct {
	// SimplifyCFG folds trivial gotos and drops unreachable blocks afterwards.
	SimplifyCFG bool
	Tracer      trace.Tracer
	// Parent is the span id expression events attach to.
	Parent uint64
}

// LowerProgram converts every function of prog to MIR. Functions are lowered
// one at a time, each with its own funcLowerer.
func LowerProgram(prog *ast.Program, opts Options) (*mir.Module, error) {
	if prog == nil || prog.Types == nil {
		return nil, fmt.Errorf("%w: program without types", ErrInternal)
	}
	tr := opts.Tracer
	if tr == nil {
		tr = trace.Nop
	}

	data, err := buildDataLayouts(prog.Types, prog.Decls)
	if err != nil {
		return nil, err
	}
	out := &mir.Module{Name: prog.Module, Data: data}

	for i, fn := range prog.Funcs {
		if fn == nil {
			continue
		}
		raw, err := safecast.Conv[int32](i)
		if err != nil {
			panic(fmt.Errorf("lower: func id overflow: %w", err))
		}
		fl := newFuncLowerer(prog, fn, mir.FuncID(raw), tr, opts.Parent)
		f, err := fl.lowerFunc()
		if err != nil {
			return nil, fmt.Errorf("lower %s: %w", fn.Name, err)
		}
		out.Funcs = append(out.Funcs, f)
	}
	if opts.SimplifyCFG {
		mir.SimplifyModule(out)
	}
	return out, nil
}

// buildDataLayouts declares the backend shape of every class and union.
// Unions carry a u32 discriminant and one variant per declared alternative,
// numbered by declaration order; classes get the single ClassVariant.
func buildDataLayouts(in *types.Interner, decls []types.TypeID) ([]mir.DataType, error) {
	out := make([]mir.DataType, 0, len(decls))
	for _, id := range decls {
		switch in.KindOf(id) {
		case types.KindClass:
			info, _ := in.ClassInfo(id)
			out = append(out, mir.DataType{
				Name: info.Name,
				Type: id,
				Variants: []mir.DataVariant{{
					Name:   mir.ClassVariant,
					Fields: dataFields(info.Fields),
				}},
			})
		case types.KindUnion:
			info, _ := in.UnionInfo(id)
			dt := mir.DataType{
				Name:         info.Name,
				Type:         id,
				Discriminant: in.Builtins().U32,
				Variants:     make([]mir.DataVariant, 0, len(info.Variants)),
			}
			for i := range info.Variants {
				ord, err := safecast.Conv[uint32](i)
				if err != nil {
					return nil, fmt.Errorf("%w: union %s has too many variants", ErrInternal, info.Name)
				}
				dt.Variants = append(dt.Variants, mir.DataVariant{
					Name:    info.Variants[i].Name,
					Ordinal: ord,
					Fields:  dataFields(info.Variants[i].Fields),
				})
			}
			out = append(out, dt)
		default:
			return nil, fmt.Errorf("%w: declaration %s is neither class nor union", ErrInternal, types.Label(in, id))
		}
	}
	return out, nil
}

func dataFields(fields []types.Field) []mir.DataField {
	if len(fields) == 0 {
		return nil
	}
	out := make([]mir.DataField, len(fields))
	for i, f := range fields {
		out[i] = mir.DataField{Name: f.Name, Type: f.Type}
	}
	return out
}
