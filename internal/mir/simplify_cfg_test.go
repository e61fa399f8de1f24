package mir_test

import (
	"testing"

	"quill/internal/mir"
	"quill/internal/types"
)

func assignConst(dst mir.LocalID, v int64) mir.Instr {
	return mir.Instr{
		Kind: mir.InstrAssign,
		Assign: mir.AssignInstr{
			Dst: mir.Place{Local: dst},
			Src: mir.RValue{
				Kind: mir.RValueUse,
				Use: mir.Operand{
					Kind:  mir.OperandConst,
					Const: mir.Const{Kind: mir.ConstInt, IntValue: v},
				},
			},
		},
	}
}

func gotoTerm(target mir.BlockID) mir.Terminator {
	return mir.Terminator{Kind: mir.TermGoto, Goto: mir.GotoTerm{Target: target}}
}

func returnTerm() mir.Terminator {
	return mir.Terminator{Kind: mir.TermReturn}
}

// TestSimplifyCFG_TrivialGoto tests that trivial goto blocks are removed.
func TestSimplifyCFG_TrivialGoto(t *testing.T) {
	// bb0 (with instruction) -> bb1 (trivial goto) -> bb2 (return)
	intType := types.NewInterner().Builtins().Int

	f := &mir.Func{
		Name:   "test",
		Entry:  0,
		Locals: []mir.Local{{Name: "x", Type: intType}},
		Blocks: []mir.Block{
			{ID: 0, Instrs: []mir.Instr{assignConst(0, 1)}, Term: gotoTerm(1)},
			{ID: 1, Term: gotoTerm(2)},
			{ID: 2, Term: returnTerm()},
		},
	}

	mir.SimplifyCFG(f)

	if len(f.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(f.Blocks))
	}
	if f.Blocks[0].Term.Kind != mir.TermGoto || f.Blocks[0].Term.Goto.Target != 1 {
		t.Errorf("expected bb0 to goto bb1, got %+v", f.Blocks[0].Term)
	}
	if f.Blocks[1].Term.Kind != mir.TermReturn {
		t.Errorf("expected TermReturn for bb1, got %v", f.Blocks[1].Term.Kind)
	}
}

// TestSimplifyCFG_GotoChain tests that chains of goto blocks are collapsed.
func TestSimplifyCFG_GotoChain(t *testing.T) {
	f := &mir.Func{
		Name:   "test",
		Entry:  0,
		Locals: []mir.Local{{Name: "x", Type: types.NewInterner().Builtins().Int}},
		Blocks: []mir.Block{
			{ID: 0, Instrs: []mir.Instr{assignConst(0, 1)}, Term: gotoTerm(1)},
			{ID: 1, Term: gotoTerm(2)},
			{ID: 2, Term: gotoTerm(3)},
			{ID: 3, Term: returnTerm()},
		},
	}

	mir.SimplifyCFG(f)

	if len(f.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(f.Blocks))
	}
	if f.Blocks[0].Term.Goto.Target != 1 {
		t.Errorf("expected bb0 to target bb1, got bb%d", f.Blocks[0].Term.Goto.Target)
	}
}

// TestSimplifyCFG_UnreachableBlocks tests that unreachable blocks are removed.
func TestSimplifyCFG_UnreachableBlocks(t *testing.T) {
	f := &mir.Func{
		Name:  "test",
		Entry: 0,
		Blocks: []mir.Block{
			{ID: 0, Term: returnTerm()},
			{ID: 1, Term: mir.Terminator{Kind: mir.TermUnreachable}},
		},
	}

	mir.SimplifyCFG(f)

	if len(f.Blocks) != 1 {
		t.Errorf("expected 1 block, got %d", len(f.Blocks))
	}
}

// TestSimplifyCFG_SwitchTargets tests that switch cases and the default
// edge skip trivial gotos and are renumbered.
func TestSimplifyCFG_SwitchTargets(t *testing.T) {
	in := types.NewInterner()
	f := &mir.Func{
		Name:  "test",
		Entry: 0,
		Locals: []mir.Local{
			{Name: "tag", Type: in.Builtins().U32},
		},
		Blocks: []mir.Block{
			{
				ID: 0,
				Term: mir.Terminator{
					Kind: mir.TermSwitchInt,
					SwitchInt: mir.SwitchIntTerm{
						Value:   mir.Operand{Kind: mir.OperandCopy, Place: mir.Place{Local: 0}},
						Cases:   []mir.SwitchCase{{Value: 0, Target: 1}, {Value: 1, Target: 2}},
						Default: 3,
					},
				},
			},
			{ID: 1, Term: gotoTerm(4)},
			{ID: 2, Instrs: []mir.Instr{assignConst(0, 7)}, Term: gotoTerm(4)},
			{ID: 3, Term: mir.Terminator{Kind: mir.TermUnreachable}},
			{ID: 4, Term: returnTerm()},
		},
	}

	mir.SimplifyCFG(f)

	if len(f.Blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d", len(f.Blocks))
	}
	sw := f.Blocks[0].Term.SwitchInt
	// old bb4 is now bb3, old bb2 is bb1, old bb3 is bb2
	if sw.Cases[0].Target != 3 {
		t.Errorf("case 0: expected bb3, got bb%d", sw.Cases[0].Target)
	}
	if sw.Cases[1].Target != 1 {
		t.Errorf("case 1: expected bb1, got bb%d", sw.Cases[1].Target)
	}
	if sw.Default != 2 {
		t.Errorf("default: expected bb2, got bb%d", sw.Default)
	}
	if err := mir.Validate(&mir.Module{Funcs: []*mir.Func{f}}, in); err != nil {
		t.Errorf("validate after simplify: %v", err)
	}
}

// TestSimplifyCFG_EntryRedirect tests that a trivial entry block is skipped.
func TestSimplifyCFG_EntryRedirect(t *testing.T) {
	f := &mir.Func{
		Name:  "test",
		Entry: 0,
		Blocks: []mir.Block{
			{ID: 0, Term: gotoTerm(1)},
			{ID: 1, Term: returnTerm()},
		},
	}

	mir.SimplifyCFG(f)

	if len(f.Blocks) != 1 || f.Entry != 0 {
		t.Fatalf("expected single entry block, got %d blocks entry bb%d", len(f.Blocks), f.Entry)
	}
	if f.Blocks[0].Term.Kind != mir.TermReturn {
		t.Errorf("expected TermReturn, got %v", f.Blocks[0].Term.Kind)
	}
}

// TestSimplifyCFG_SelfLoop tests that a trivial self loop is left intact.
func TestSimplifyCFG_SelfLoop(t *testing.T) {
	f := &mir.Func{
		Name:  "test",
		Entry: 0,
		Blocks: []mir.Block{
			{ID: 0, Term: gotoTerm(0)},
		},
	}

	mir.SimplifyCFG(f)

	if len(f.Blocks) != 1 || f.Blocks[0].Term.Goto.Target != 0 {
		t.Errorf("expected self loop to survive, got %+v", f.Blocks)
	}
}

// TestSimplifyModule tests that every function of a module is simplified and
// nil entries are tolerated.
func TestSimplifyModule(t *testing.T) {
	intType := types.NewInterner().Builtins().Int
	chain := func(name string) *mir.Func {
		return &mir.Func{
			Name:   name,
			Locals: []mir.Local{{Name: "x", Type: intType}},
			Blocks: []mir.Block{
				{ID: 0, Instrs: []mir.Instr{assignConst(0, 1)}, Term: gotoTerm(1)},
				{ID: 1, Term: gotoTerm(2)},
				{ID: 2, Term: returnTerm()},
				{ID: 3, Term: returnTerm()},
			},
		}
	}
	m := &mir.Module{Funcs: []*mir.Func{chain("a"), nil, chain("b")}}

	mir.SimplifyModule(m)
	mir.SimplifyModule(nil)

	for _, f := range []*mir.Func{m.Funcs[0], m.Funcs[2]} {
		if len(f.Blocks) != 2 {
			t.Errorf("%s: expected 2 blocks, got %d", f.Name, len(f.Blocks))
		}
	}
}
