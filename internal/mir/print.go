package mir

import (
	"fmt"
	"io"
	"strings"

	"quill/internal/types"
)

// DumpOptions configures MIR module dumping.
type DumpOptions struct {
	// Func restricts the dump to one function; data layouts are omitted.
	Func string
}

// DumpModule writes a human-readable representation of a MIR module.
func DumpModule(w io.Writer, m *Module, typesIn *types.Interner, opts DumpOptions) error {
	if w == nil || m == nil {
		return nil
	}
	p := &printer{w: w, types: typesIn}

	if opts.Func != "" {
		f := m.Func(opts.Func)
		if f == nil {
			return fmt.Errorf("mir: no function %q", opts.Func)
		}
		p.dumpFunc(f)
		return p.err
	}

	if m.Name != "" {
		p.printf("module %s\n", m.Name)
	}
	for i := range m.Data {
		p.dumpData(&m.Data[i])
	}
	p.printf("funcs=%d\n", len(m.Funcs))
	for _, f := range m.Funcs {
		if f != nil {
			p.printf("\n")
			p.dumpFunc(f)
		}
	}
	return p.err
}

// DumpFunc writes a single function.
func DumpFunc(w io.Writer, f *Func, typesIn *types.Interner) error {
	p := &printer{w: w, types: typesIn}
	p.dumpFunc(f)
	return p.err
}

type printer struct {
	w     io.Writer
	types *types.Interner
	f     *Func
	err   error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) dumpData(d *DataType) {
	if d.IsUnion() {
		p.printf("data %s: union %s: %s\n", d.Name, DiscriminantField, typeStr(p.types, d.Discriminant))
	} else {
		p.printf("data %s: class\n", d.Name)
	}
	for _, v := range d.Variants {
		fields := make([]string, 0, len(v.Fields))
		for _, f := range v.Fields {
			fields = append(fields, f.Name+": "+typeStr(p.types, f.Type))
		}
		body := ""
		if len(fields) > 0 {
			body = " { " + strings.Join(fields, ", ") + " }"
		}
		p.printf("  variant %d %s%s\n", v.Ordinal, v.Name, body)
	}
}

func (p *printer) dumpFunc(f *Func) {
	if f == nil {
		return
	}
	p.f = f
	p.printf("fn %s:\n", f.Name)

	p.printf("  locals:\n")
	for i := range f.Locals {
		l := f.Locals[i]
		name := l.Name
		if name == "" {
			name = "_"
		}
		if flags := formatLocalFlags(l.Flags); flags != "" {
			p.printf("    L%d: %s %s name=%s\n", i, typeStr(p.types, l.Type), flags, name)
		} else {
			p.printf("    L%d: %s name=%s\n", i, typeStr(p.types, l.Type), name)
		}
	}

	for i := range f.Blocks {
		bb := &f.Blocks[i]
		p.printf("  bb%d:\n", bb.ID)
		for j := range bb.Instrs {
			p.printf("    %s\n", p.formatInstr(&bb.Instrs[j]))
		}
		p.printf("    %s\n", p.formatTerm(&bb.Term))
	}
}

func formatLocalFlags(f LocalFlags) string {
	var parts []string
	if f&LocalFlagParam != 0 {
		parts = append(parts, "param")
	}
	if f&LocalFlagBinding != 0 {
		parts = append(parts, "bind")
	}
	if f&LocalFlagTemp != 0 {
		parts = append(parts, "temp")
	}
	if len(parts) == 0 {
		return ""
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func (p *printer) formatInstr(ins *Instr) string {
	switch ins.Kind {
	case InstrAssign:
		return fmt.Sprintf("%s = %s", p.formatPlace(ins.Assign.Dst), p.formatRValue(&ins.Assign.Src))
	case InstrFieldAccess:
		return fmt.Sprintf("%s = field %s.%s", p.formatPlace(ins.FieldAccess.Dst), p.formatPlace(ins.FieldAccess.Object), ins.FieldAccess.Field)
	case InstrFieldAssign:
		return fmt.Sprintf("%s.%s = %s", p.formatPlace(ins.FieldAssign.Object), ins.FieldAssign.Field, p.formatOperand(&ins.FieldAssign.Value))
	case InstrNop:
		return "nop"
	default:
		return "<instr?>"
	}
}

func (p *printer) formatTerm(term *Terminator) string {
	switch term.Kind {
	case TermNone, TermUnreachable:
		return "unreachable"
	case TermReturn:
		if !term.Return.HasValue {
			return "return"
		}
		return fmt.Sprintf("return %s", p.formatOperand(&term.Return.Value))
	case TermGoto:
		return fmt.Sprintf("goto bb%d", term.Goto.Target)
	case TermSwitchInt:
		out := fmt.Sprintf("switch_int %s {", p.formatOperand(&term.SwitchInt.Value))
		for _, c := range term.SwitchInt.Cases {
			out += fmt.Sprintf(" %d -> bb%d;", c.Value, c.Target)
		}
		out += fmt.Sprintf(" default -> bb%d; }", term.SwitchInt.Default)
		return out
	default:
		return "<term?>"
	}
}

func (p *printer) formatPlace(pl Place) string {
	if !pl.IsValid() {
		return "L?"
	}
	if p.f != nil && int(pl.Local) < len(p.f.Locals) {
		if name := p.f.Locals[pl.Local].Name; name != "" {
			return name
		}
	}
	return fmt.Sprintf("L%d", pl.Local)
}

func (p *printer) formatOperand(op *Operand) string {
	switch op.Kind {
	case OperandConst:
		return formatConst(&op.Const)
	case OperandCopy:
		return "copy " + p.formatPlace(op.Place)
	default:
		return "<op?>"
	}
}

func formatConst(c *Const) string {
	switch c.Kind {
	case ConstUnit:
		return "const ()"
	case ConstInt:
		return fmt.Sprintf("const %d", c.IntValue)
	case ConstUint:
		return fmt.Sprintf("const %d:uint", c.UintValue)
	case ConstBool:
		if c.BoolValue {
			return "const true"
		}
		return "const false"
	case ConstString:
		return fmt.Sprintf("const %q", c.StringValue)
	default:
		return "const ?"
	}
}

func (p *printer) formatRValue(rv *RValue) string {
	switch rv.Kind {
	case RValueUse:
		return p.formatOperand(&rv.Use)
	case RValueBinaryOp:
		return fmt.Sprintf("(%s %s %s)", p.formatOperand(&rv.Binary.Left), rv.Binary.Op, p.formatOperand(&rv.Binary.Right))
	case RValueAlloc:
		return "alloc " + typeStr(p.types, rv.Alloc.Type)
	default:
		return "<rvalue?>"
	}
}

func typeStr(typesIn *types.Interner, id types.TypeID) string {
	if id == types.NoTypeID {
		return "?"
	}
	if typesIn == nil {
		return fmt.Sprintf("type#%d", id)
	}
	return types.Label(typesIn, id)
}
