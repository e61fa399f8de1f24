package mir_test

import (
	"strings"
	"testing"

	"quill/internal/mir"
	"quill/internal/types"
)

func TestDumpModule(t *testing.T) {
	in := types.NewInterner()
	b := in.Builtins()
	f := validFunc(in)
	f.Blocks[1].Instrs = append(f.Blocks[1].Instrs, mir.Instr{
		Kind: mir.InstrFieldAccess,
		FieldAccess: mir.FieldAccessInstr{
			Dst:    mir.Place{Local: 1},
			Object: mir.Place{Local: 0},
			Field:  mir.FieldRef{Variant: "A", Name: "Item0", Index: 0},
		},
	})
	m := &mir.Module{
		Name:  "demo",
		Funcs: []*mir.Func{f},
		Data: []mir.DataType{{
			Name:         "U",
			Discriminant: b.U32,
			Variants: []mir.DataVariant{
				{Name: "A", Ordinal: 0, Fields: []mir.DataField{{Name: "Item0", Type: b.Int}}},
				{Name: "B", Ordinal: 1},
			},
		}},
	}

	var sb strings.Builder
	if err := mir.DumpModule(&sb, m, in, mir.DumpOptions{}); err != nil {
		t.Fatalf("dump: %v", err)
	}
	out := sb.String()

	for _, want := range []string{
		"module demo\n",
		"data U: union _variantIdentifier: u32\n",
		"  variant 0 A { Item0: int }\n",
		"  variant 1 B\n",
		"funcs=1\n",
		"fn pick:\n",
		"    L0: u32 [param] name=t\n",
		"    L1: int [temp] name=_local0\n",
		"    switch_int copy t { 0 -> bb1; default -> bb2; }\n",
		"    _local0 = const 1\n",
		"    _local0 = field t.A.Item0\n",
		"    return copy _local0\n",
		"  bb2:\n    unreachable\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q\n%s", want, out)
		}
	}
}

func TestDumpModule_SingleFunc(t *testing.T) {
	in := types.NewInterner()
	m := &mir.Module{Name: "demo", Funcs: []*mir.Func{validFunc(in)}}

	var sb strings.Builder
	if err := mir.DumpModule(&sb, m, in, mir.DumpOptions{Func: "pick"}); err != nil {
		t.Fatalf("dump: %v", err)
	}
	if strings.Contains(sb.String(), "module demo") {
		t.Errorf("single function dump should omit the module header:\n%s", sb.String())
	}
	if !strings.HasPrefix(sb.String(), "fn pick:\n") {
		t.Errorf("unexpected dump:\n%s", sb.String())
	}

	if err := mir.DumpModule(&sb, m, in, mir.DumpOptions{Func: "missing"}); err == nil {
		t.Error("expected error for unknown function")
	}
}

func TestTempName(t *testing.T) {
	if got := mir.TempName(0); got != "_local0" {
		t.Errorf("TempName(0) = %q", got)
	}
	if got := mir.TempName(12); got != "_local12" {
		t.Errorf("TempName(12) = %q", got)
	}
	if got := mir.Discriminant().String(); got != "_variantIdentifier" {
		t.Errorf("Discriminant() = %q", got)
	}
}
