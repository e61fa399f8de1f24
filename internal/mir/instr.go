package mir

import (
	"quill/internal/types"
)

// InstrKind enumerates instruction kinds in MIR.
type InstrKind uint8

const (
	// InstrAssign stores an rvalue into a local.
	InstrAssign InstrKind = iota
	// InstrFieldAccess reads one field of a data value into a local.
	InstrFieldAccess
	// InstrFieldAssign writes one field of a data value held in a local.
	InstrFieldAssign
	// InstrNop represents a no-op instruction.
	InstrNop
)

// Instr represents a MIR instruction.
type Instr struct {
	Kind InstrKind

	Assign      AssignInstr
	FieldAccess FieldAccessInstr
	FieldAssign FieldAssignInstr
}

// AssignInstr represents an assignment instruction.
type AssignInstr struct {
	Dst Place
	Src RValue
}

// FieldAccessInstr is `Dst = Object.Field`.
type FieldAccessInstr struct {
	Dst    Place
	Object Place
	Field  FieldRef
}

// FieldAssignInstr is `Object.Field = Value`.
type FieldAssignInstr struct {
	Object Place
	Field  FieldRef
	Value  Operand
}

// OperandKind distinguishes operand sources.
type OperandKind uint8

const (
	// OperandConst is an immediate constant.
	OperandConst OperandKind = iota
	// OperandCopy reads a local.
	OperandCopy
)

// Operand is an rvalue input.
type Operand struct {
	Kind  OperandKind
	Type  types.TypeID
	Const Const
	Place Place
}

// ConstKind enumerates constant kinds.
type ConstKind uint8

const (
	ConstUnit ConstKind = iota
	ConstInt
	ConstUint
	ConstBool
	ConstString
)

// Const is a literal value.
type Const struct {
	Kind        ConstKind
	Type        types.TypeID
	IntValue    int64
	UintValue   uint64
	BoolValue   bool
	StringValue string
}

// BinaryOp enumerates the binary operators lowering emits.
type BinaryOp uint8

const (
	BinEq BinaryOp = iota
	BinAnd
)

func (op BinaryOp) String() string {
	switch op {
	case BinEq:
		return "=="
	case BinAnd:
		return "&&"
	default:
		return "?"
	}
}

// RValueKind enumerates rvalue kinds.
type RValueKind uint8

const (
	// RValueUse forwards an operand.
	RValueUse RValueKind = iota
	// RValueBinaryOp combines two operands.
	RValueBinaryOp
	// RValueAlloc creates a data value whose fields are then set by FieldAssign.
	RValueAlloc
)

// RValue represents the right-hand side of an assignment.
type RValue struct {
	Kind RValueKind

	Use    Operand
	Binary BinaryOpRV
	Alloc  AllocRV
}

// BinaryOpRV is `Left Op Right`.
type BinaryOpRV struct {
	Op    BinaryOp
	Left  Operand
	Right Operand
}

// AllocRV allocates a value of a declared data type.
type AllocRV struct {
	Type types.TypeID
}
