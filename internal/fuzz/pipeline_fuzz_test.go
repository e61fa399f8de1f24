package fuzztests

import (
	"testing"

	"quill/internal/diag"
	"quill/internal/lower"
	"quill/internal/matchcheck"
	"quill/internal/mir"
	"quill/internal/project"
	"quill/internal/sema"
	"quill/internal/source"
)

// FuzzUnitPipeline pushes arbitrary unit text through resolution, match
// checking and lowering. Programs that check cleanly must lower to valid IR.
func FuzzUnitPipeline(f *testing.F) {
	addUnitSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)
		u, err := project.DecodeUnit("fuzz.toml", project.FormatTOML, input)
		if err != nil {
			return
		}
		fs := source.NewFileSet()
		id := fs.Add("fuzz.toml", input, 0)
		lu := &project.LoadedUnit{Path: "fuzz.toml", File: id, Format: project.FormatTOML, Unit: u}

		bag := diag.NewBag(256)
		r := diag.BagReporter{Bag: bag}
		prog, ok := sema.Check(fs, []*project.LoadedUnit{lu}, sema.Options{Reporter: r, MaxErrors: 64})
		if !ok {
			if !bag.HasErrors() {
				t.Fatalf("resolution failed without a diagnostic")
			}
			return
		}
		if _, err := matchcheck.Check(prog, r, matchcheck.Options{ComplexityLimit: 100_000, AssumeValid: true}); err != nil {
			t.Fatalf("matchcheck: %v", err)
		}
		if bag.HasErrors() {
			return
		}
		for _, simplify := range []bool{false, true} {
			m, err := lower.LowerProgram(prog, lower.Options{SimplifyCFG: simplify})
			if err != nil {
				t.Fatalf("lower (simplify=%v): %v", simplify, err)
			}
			if err := mir.Validate(m, prog.Types); err != nil {
				t.Fatalf("invalid IR (simplify=%v): %v", simplify, err)
			}
		}
	})
}
