package lower

import (
	"fmt"

	"fortio.org/safecast"

	"quill/internal/ast"
	"quill/internal/mir"
	"quill/internal/source"
	"quill/internal/trace"
	"quill/internal/types"
)

// funcLowerer holds everything one function's lowering mutates. It is never
// shared: LowerProgram builds a fresh one per function.
type funcLowerer struct {
	prog  *ast.Program
	types *types.Interner
	src   *ast.Func

	f   *mir.Func
	cur mir.BlockID

	symToLocal map[ast.SymbolID]mir.LocalID
	nextTemp   uint32

	tracer trace.Tracer
	parent uint64
}

func newFuncLowerer(prog *ast.Program, fn *ast.Func, id mir.FuncID, tr trace.Tracer, parent uint64) *funcLowerer {
	return &funcLowerer{
		prog:  prog,
		types: prog.Types,
		src:   fn,
		f: &mir.Func{
			ID:     id,
			Name:   fn.Name,
			Span:   fn.Span,
			Result: fn.Result,
		},
		cur:        mir.NoBlockID,
		symToLocal: make(map[ast.SymbolID]mir.LocalID),
		tracer:     tr,
		parent:     parent,
	}
}

func (l *funcLowerer) lowerFunc() (*mir.Func, error) {
	entry := l.newBlock()
	l.f.Entry = entry
	l.startBlock(entry)

	for _, p := range l.src.Params {
		id, err := l.ensureLocal(p.Sym)
		if err != nil {
			return nil, err
		}
		l.f.Params = append(l.f.Params, id)
	}
	if l.src.Body == nil {
		return nil, fmt.Errorf("%w: function %s has no body", ErrInternal, l.src.Name)
	}

	op, err := l.lowerExpr(l.src.Body)
	if err != nil {
		return nil, err
	}
	l.setTerm(&mir.Terminator{Kind: mir.TermReturn, Return: mir.ReturnTerm{HasValue: true, Value: op}})

	for i := range l.f.Blocks {
		if l.f.Blocks[i].Term.Kind == mir.TermNone {
			l.f.Blocks[i].Term.Kind = mir.TermUnreachable
		}
	}
	return l.f, nil
}

func (l *funcLowerer) curBlock() *mir.Block {
	idx := int(l.cur)
	if idx < 0 || idx >= len(l.f.Blocks) {
		return nil
	}
	return &l.f.Blocks[idx]
}

func (l *funcLowerer) newBlock() mir.BlockID {
	raw, err := safecast.Conv[int32](len(l.f.Blocks))
	if err != nil {
		panic(fmt.Errorf("lower: block id overflow: %w", err))
	}
	id := mir.BlockID(raw)
	l.f.Blocks = append(l.f.Blocks, mir.Block{ID: id, Term: mir.Terminator{Kind: mir.TermNone}})
	return id
}

func (l *funcLowerer) startBlock(id mir.BlockID) {
	l.cur = id
}

func (l *funcLowerer) setTerm(t *mir.Terminator) {
	b := l.curBlock()
	if b == nil || b.Terminated() || t == nil {
		return
	}
	b.Term = *t
}

func (l *funcLowerer) emit(ins *mir.Instr) {
	b := l.curBlock()
	if b == nil || b.Terminated() || ins == nil {
		return
	}
	b.Instrs = append(b.Instrs, *ins)
}

func (l *funcLowerer) gotoBlock(target mir.BlockID) {
	l.setTerm(&mir.Terminator{Kind: mir.TermGoto, Goto: mir.GotoTerm{Target: target}})
}

func (l *funcLowerer) unreachable() {
	l.setTerm(&mir.Terminator{Kind: mir.TermUnreachable})
}

// switchInt ends the current block with an integer switch.
func (l *funcLowerer) switchInt(value mir.Operand, cases []mir.SwitchCase, def mir.BlockID) {
	l.setTerm(&mir.Terminator{
		Kind:      mir.TermSwitchInt,
		SwitchInt: mir.SwitchIntTerm{Value: value, Cases: cases, Default: def},
	})
}

// branchIf jumps to then when cond holds and to els otherwise.
func (l *funcLowerer) branchIf(cond mir.Operand, then, els mir.BlockID) {
	l.switchInt(cond, []mir.SwitchCase{{Value: 1, Target: then}}, els)
}

func (l *funcLowerer) appendLocal(local mir.Local) mir.LocalID {
	raw, err := safecast.Conv[int32](len(l.f.Locals))
	if err != nil {
		panic(fmt.Errorf("lower: local id overflow: %w", err))
	}
	l.f.Locals = append(l.f.Locals, local)
	return mir.LocalID(raw)
}

// ensureLocal maps a source symbol (parameter or pattern binding) to its
// MIR local, declaring it on first use.
func (l *funcLowerer) ensureLocal(sym ast.SymbolID) (mir.LocalID, error) {
	if existing, ok := l.symToLocal[sym]; ok {
		return existing, nil
	}
	src := l.src.Local(sym)
	if src == nil {
		return mir.NoLocalID, fmt.Errorf("%w: unresolved symbol #%d in %s", ErrInternal, sym, l.src.Name)
	}
	flags := mir.LocalFlagBinding
	if src.Param {
		flags = mir.LocalFlagParam
	}
	id := l.appendLocal(mir.Local{
		Sym:   sym,
		Type:  src.Type,
		Flags: flags,
		Name:  src.Name,
		Span:  src.Span,
	})
	l.symToLocal[sym] = id
	return id, nil
}

// newTemp declares the next `_localN` temporary.
func (l *funcLowerer) newTemp(ty types.TypeID, span source.Span) mir.LocalID {
	name := mir.TempName(l.nextTemp)
	l.nextTemp++
	return l.appendLocal(mir.Local{
		Type:  ty,
		Flags: mir.LocalFlagTemp,
		Name:  name,
		Span:  span,
	})
}

func (l *funcLowerer) localType(id mir.LocalID) types.TypeID {
	return l.f.Locals[id].Type
}

func (l *funcLowerer) assign(dst mir.LocalID, rv mir.RValue) {
	l.emit(&mir.Instr{
		Kind:   mir.InstrAssign,
		Assign: mir.AssignInstr{Dst: mir.Place{Local: dst}, Src: rv},
	})
}

func (l *funcLowerer) assignUse(dst mir.LocalID, op mir.Operand) {
	l.assign(dst, mir.RValue{Kind: mir.RValueUse, Use: op})
}

func (l *funcLowerer) assignBinary(dst mir.LocalID, op mir.BinaryOp, left, right mir.Operand) {
	l.assign(dst, mir.RValue{Kind: mir.RValueBinaryOp, Binary: mir.BinaryOpRV{Op: op, Left: left, Right: right}})
}

func (l *funcLowerer) fieldAccess(dst, obj mir.LocalID, field mir.FieldRef) {
	l.emit(&mir.Instr{
		Kind: mir.InstrFieldAccess,
		FieldAccess: mir.FieldAccessInstr{
			Dst:    mir.Place{Local: dst},
			Object: mir.Place{Local: obj},
			Field:  field,
		},
	})
}

func (l *funcLowerer) fieldAssign(obj mir.LocalID, field mir.FieldRef, value mir.Operand) {
	l.emit(&mir.Instr{
		Kind:        mir.InstrFieldAssign,
		FieldAssign: mir.FieldAssignInstr{Object: mir.Place{Local: obj}, Field: field, Value: value},
	})
}

func (l *funcLowerer) copyOf(id mir.LocalID) mir.Operand {
	return mir.Operand{Kind: mir.OperandCopy, Type: l.localType(id), Place: mir.Place{Local: id}}
}

func (l *funcLowerer) constBool(v bool) mir.Operand {
	ty := l.types.Builtins().Bool
	return mir.Operand{Kind: mir.OperandConst, Type: ty, Const: mir.Const{Kind: mir.ConstBool, Type: ty, BoolValue: v}}
}

func (l *funcLowerer) constOrdinal(ord int) mir.Operand {
	ty := l.types.Builtins().U32
	v, err := safecast.Conv[uint64](ord)
	if err != nil {
		panic(fmt.Errorf("lower: negative variant ordinal: %w", err))
	}
	return mir.Operand{Kind: mir.OperandConst, Type: ty, Const: mir.Const{Kind: mir.ConstUint, Type: ty, UintValue: v}}
}

// constLiteral lowers a literal at type ty.
func (l *funcLowerer) constLiteral(lit ast.Literal, ty types.TypeID) (mir.Operand, error) {
	c := mir.Const{Type: ty}
	switch lit.Kind {
	case ast.LitNone:
		c.Kind = mir.ConstUnit
	case ast.LitBool:
		c.Kind = mir.ConstBool
		c.BoolValue = lit.Bool
	case ast.LitInt:
		if l.types.KindOf(ty) == types.KindUint {
			v, err := safecast.Conv[uint64](lit.Int)
			if err != nil {
				return mir.Operand{}, fmt.Errorf("%w: negative literal %d for %s", ErrInternal, lit.Int, types.Label(l.types, ty))
			}
			c.Kind = mir.ConstUint
			c.UintValue = v
		} else {
			c.Kind = mir.ConstInt
			c.IntValue = lit.Int
		}
	case ast.LitString:
		c.Kind = mir.ConstString
		c.StringValue = lit.Str
	default:
		return mir.Operand{}, fmt.Errorf("%w: unknown literal kind %d", ErrInternal, lit.Kind)
	}
	return mir.Operand{Kind: mir.OperandConst, Type: ty, Const: c}, nil
}

// spill returns a local holding op, copying constants into a fresh temp.
func (l *funcLowerer) spill(op mir.Operand, span source.Span) mir.LocalID {
	if op.Kind == mir.OperandCopy {
		return op.Place.Local
	}
	tmp := l.newTemp(op.Type, span)
	l.assignUse(tmp, op)
	return tmp
}
