package mir

type TermKind uint8

const (
	TermNone TermKind = iota
	TermReturn
	TermGoto
	TermSwitchInt
	TermUnreachable
)

type Terminator struct {
	Kind TermKind

	Return      ReturnTerm
	Goto        GotoTerm
	SwitchInt   SwitchIntTerm
	Unreachable struct{}
}

type ReturnTerm struct {
	HasValue bool
	Value    Operand
}

type GotoTerm struct {
	Target BlockID
}

// SwitchCase routes one integer value. Bool scrutinees switch on 0 and 1.
type SwitchCase struct {
	Value  int64
	Target BlockID
}

type SwitchIntTerm struct {
	Value   Operand
	Cases   []SwitchCase
	Default BlockID
}

// Successors lists the blocks a terminator may transfer control to.
func (t *Terminator) Successors() []BlockID {
	switch t.Kind {
	case TermGoto:
		return []BlockID{t.Goto.Target}
	case TermSwitchInt:
		out := make([]BlockID, 0, len(t.SwitchInt.Cases)+1)
		for _, c := range t.SwitchInt.Cases {
			out = append(out, c.Target)
		}
		return append(out, t.SwitchInt.Default)
	default:
		return nil
	}
}

// retarget rewrites every successor edge through fn.
func (t *Terminator) retarget(fn func(BlockID) BlockID) {
	switch t.Kind {
	case TermGoto:
		t.Goto.Target = fn(t.Goto.Target)
	case TermSwitchInt:
		if len(t.SwitchInt.Cases) > 0 {
			t.SwitchInt.Cases = append([]SwitchCase(nil), t.SwitchInt.Cases...)
		}
		for j := range t.SwitchInt.Cases {
			t.SwitchInt.Cases[j].Target = fn(t.SwitchInt.Cases[j].Target)
		}
		t.SwitchInt.Default = fn(t.SwitchInt.Default)
	}
}
