package mir

import (
	"errors"
	"fmt"

	"quill/internal/types"
)

// Validate checks MIR module invariants.
// Returns error if any invariant is violated.
func Validate(m *Module, typesIn *types.Interner) error {
	if m == nil {
		return nil
	}
	var errs []error
	for _, f := range m.Funcs {
		if f == nil {
			continue
		}
		if err := validateFunc(f, typesIn); err != nil {
			errs = append(errs, fmt.Errorf("function %s: %w", f.Name, err))
		}
	}
	for i := range m.Data {
		if err := validateData(&m.Data[i], typesIn); err != nil {
			errs = append(errs, fmt.Errorf("data %s: %w", m.Data[i].Name, err))
		}
	}
	return errors.Join(errs...)
}

func validateFunc(f *Func, typesIn *types.Interner) error {
	var errs []error

	if f.Entry < 0 || int(f.Entry) >= len(f.Blocks) {
		errs = append(errs, fmt.Errorf("entry bb%d does not exist", f.Entry))
	}
	if err := validateBlocksTerminated(f); err != nil {
		errs = append(errs, err)
	}
	if err := validateBlockTargets(f); err != nil {
		errs = append(errs, err)
	}
	if err := validateLocalIDs(f); err != nil {
		errs = append(errs, err)
	}
	if err := validateTypes(f, typesIn); err != nil {
		errs = append(errs, err)
	}
	if err := validateTempNames(f); err != nil {
		errs = append(errs, err)
	}
	if err := validateDiscriminants(f, typesIn); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// validateBlocksTerminated checks that every block ends with a terminator.
func validateBlocksTerminated(f *Func) error {
	var errs []error
	for i := range f.Blocks {
		if f.Blocks[i].Term.Kind == TermNone {
			errs = append(errs, fmt.Errorf("bb%d: unterminated block", i))
		}
		if f.Blocks[i].ID != BlockID(i) { //nolint:gosec // bounded by len(f.Blocks)
			errs = append(errs, fmt.Errorf("bb%d: block carries id bb%d", i, f.Blocks[i].ID))
		}
	}
	return errors.Join(errs...)
}

// validateBlockTargets checks that all block target IDs exist and that
// switch cases are unique.
func validateBlockTargets(f *Func) error {
	var errs []error

	blockExists := func(id BlockID) bool {
		return id >= 0 && int(id) < len(f.Blocks)
	}

	for i := range f.Blocks {
		bb := &f.Blocks[i]
		switch bb.Term.Kind {
		case TermGoto:
			if !blockExists(bb.Term.Goto.Target) {
				errs = append(errs, fmt.Errorf("bb%d: goto target bb%d does not exist", i, bb.Term.Goto.Target))
			}
		case TermSwitchInt:
			seen := make(map[int64]bool, len(bb.Term.SwitchInt.Cases))
			for j, c := range bb.Term.SwitchInt.Cases {
				if seen[c.Value] {
					errs = append(errs, fmt.Errorf("bb%d: switch_int has duplicate case for value %d", i, c.Value))
				}
				seen[c.Value] = true

				if !blockExists(c.Target) {
					errs = append(errs, fmt.Errorf("bb%d: switch_int case %d (%d) target bb%d does not exist",
						i, j, c.Value, c.Target))
				}
			}
			if !blockExists(bb.Term.SwitchInt.Default) {
				errs = append(errs, fmt.Errorf("bb%d: switch_int default target bb%d does not exist",
					i, bb.Term.SwitchInt.Default))
			}
		}
	}
	return errors.Join(errs...)
}

// validateLocalIDs checks that all LocalID references are valid.
func validateLocalIDs(f *Func) error {
	var errs []error

	checkPlace := func(p Place, context string) {
		if p.Local < 0 || int(p.Local) >= len(f.Locals) {
			errs = append(errs, fmt.Errorf("%s: local L%d does not exist", context, p.Local))
		}
	}

	checkOperand := func(op Operand, context string) {
		if op.Kind == OperandCopy {
			checkPlace(op.Place, context)
		}
	}

	for _, id := range f.Params {
		checkPlace(Place{Local: id}, "params")
	}

	for i := range f.Blocks {
		bb := &f.Blocks[i]
		for j := range bb.Instrs {
			ins := &bb.Instrs[j]
			ctx := fmt.Sprintf("bb%d instr %d", i, j)

			switch ins.Kind {
			case InstrAssign:
				checkPlace(ins.Assign.Dst, ctx)
				switch ins.Assign.Src.Kind {
				case RValueUse:
					checkOperand(ins.Assign.Src.Use, ctx)
				case RValueBinaryOp:
					checkOperand(ins.Assign.Src.Binary.Left, ctx)
					checkOperand(ins.Assign.Src.Binary.Right, ctx)
				}
			case InstrFieldAccess:
				checkPlace(ins.FieldAccess.Dst, ctx)
				checkPlace(ins.FieldAccess.Object, ctx)
			case InstrFieldAssign:
				checkPlace(ins.FieldAssign.Object, ctx)
				checkOperand(ins.FieldAssign.Value, ctx)
			}
		}

		ctx := fmt.Sprintf("bb%d terminator", i)
		switch bb.Term.Kind {
		case TermReturn:
			if bb.Term.Return.HasValue {
				checkOperand(bb.Term.Return.Value, ctx)
			}
		case TermSwitchInt:
			checkOperand(bb.Term.SwitchInt.Value, ctx)
		}
	}

	return errors.Join(errs...)
}

// validateTypes checks that every local is typed.
func validateTypes(f *Func, typesIn *types.Interner) error {
	var errs []error
	for i := range f.Locals {
		ty := f.Locals[i].Type
		if ty == types.NoTypeID {
			errs = append(errs, fmt.Errorf("local L%d (%s): missing type", i, f.Locals[i].Name))
			continue
		}
		if typesIn != nil {
			if _, ok := typesIn.Lookup(ty); !ok {
				errs = append(errs, fmt.Errorf("local L%d (%s): unknown type#%d", i, f.Locals[i].Name, ty))
			}
		}
	}
	return errors.Join(errs...)
}

// validateTempNames checks that temporaries are numbered densely from zero.
func validateTempNames(f *Func) error {
	var errs []error
	var n uint32
	for _, id := range f.Temps() {
		if want := TempName(n); f.Locals[id].Name != want {
			errs = append(errs, fmt.Errorf("local L%d: temp named %q, want %q", id, f.Locals[id].Name, want))
		}
		n++
	}
	return errors.Join(errs...)
}

// validateDiscriminants checks that the union tag is only read from or
// written to union values, and only read into u32 locals.
func validateDiscriminants(f *Func, typesIn *types.Interner) error {
	if typesIn == nil {
		return nil
	}
	localOK := func(id LocalID) bool { return id >= 0 && int(id) < len(f.Locals) }
	isUnion := func(id LocalID) bool {
		_, ok := typesIn.UnionInfo(f.Locals[id].Type)
		return ok
	}
	var errs []error
	for bi := range f.Blocks {
		for ii := range f.Blocks[bi].Instrs {
			ins := &f.Blocks[bi].Instrs[ii]
			var obj Place
			switch {
			case ins.Kind == InstrFieldAccess && ins.FieldAccess.Field.IsDiscriminant():
				obj = ins.FieldAccess.Object
				if dst := ins.FieldAccess.Dst.Local; localOK(dst) {
					if tt, ok := typesIn.Lookup(f.Locals[dst].Type); !ok || tt.Kind != types.KindUint || tt.Width != types.Width32 {
						errs = append(errs, fmt.Errorf("bb%d: %s read into non-u32 local L%d", bi, DiscriminantField, dst))
					}
				}
			case ins.Kind == InstrFieldAssign && ins.FieldAssign.Field.IsDiscriminant():
				obj = ins.FieldAssign.Object
			default:
				continue
			}
			if localOK(obj.Local) && !isUnion(obj.Local) {
				errs = append(errs, fmt.Errorf("bb%d: %s of local L%d, which is not a union", bi, DiscriminantField, obj.Local))
			}
		}
	}
	return errors.Join(errs...)
}

func validateData(d *DataType, typesIn *types.Interner) error {
	var errs []error
	if d.IsUnion() {
		if typesIn != nil {
			if tt, ok := typesIn.Lookup(d.Discriminant); !ok || tt.Kind != types.KindUint || tt.Width != types.Width32 {
				errs = append(errs, fmt.Errorf("discriminant %s is not u32", DiscriminantField))
			}
		}
		for i, v := range d.Variants {
			if v.Ordinal != uint32(i) { //nolint:gosec // variant count fits u32 by construction
				errs = append(errs, fmt.Errorf("variant %s: ordinal %d at position %d", v.Name, v.Ordinal, i))
			}
		}
	} else if len(d.Variants) != 1 || d.Variants[0].Name != ClassVariant {
		errs = append(errs, fmt.Errorf("class layout must have exactly one %s variant", ClassVariant))
	}
	return errors.Join(errs...)
}
