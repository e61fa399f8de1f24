package fix

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"quill/internal/diag"
	"quill/internal/source"
)

const body = `match o { A => 0, A => 1, B => 2 }`

// setup writes a unit holding body and registers it with its virtual body
// file, the way the resolver does.
func setup(t *testing.T, unitBody string) (fs *source.FileSet, path string, bodyID source.FileID) {
	t.Helper()
	path = filepath.ToSlash(filepath.Join(t.TempDir(), "main.toml"))
	text := "module = \"main\"\n\n[[func]]\nname = \"get\"\nresult = \"int\"\nbody = '''" + unitBody + "'''\n"
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		t.Fatal(err)
	}
	fs = source.NewFileSet()
	if _, err := fs.Load(path); err != nil {
		t.Fatal(err)
	}
	bodyID = fs.AddVirtual(path+"#get", []byte(body))
	return fs, path, bodyID
}

func span(file source.FileID, text, sub string) source.Span {
	i := strings.Index(text, sub)
	return source.Span{File: file, Start: uint32(i), End: uint32(i + len(sub))} //nolint:gosec // short test strings
}

func diagnostics(id source.FileID) []diag.Diagnostic {
	redundant := diag.New(diag.SevWarning, diag.SemaRedundantArm, span(id, body, "A => 1"), "unreachable arm `A`").
		WithFix("remove the unreachable arm", diag.FixEdit{Span: span(id, body, "A => 1, ")})
	end := span(id, body, "B => 2")
	end.Start = end.End
	missing := diag.New(diag.SevError, diag.SemaNonexhaustiveMatch, span(id, body, body), "match is not exhaustive").
		WithFix("add a catch-all arm", diag.FixEdit{Span: end, NewText: ", _ => 0"})
	return []diag.Diagnostic{redundant, missing}
}

func readUnitBody(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	_, rest, _ := strings.Cut(string(data), "body = '''")
	got, _, _ := strings.Cut(rest, "'''")
	return got
}

func TestApply_MovesBodyEditsIntoTheUnit(t *testing.T) {
	tests := []struct {
		name    string
		mode    ApplyMode
		want    string
		applied int
	}{
		{name: "all", mode: ApplyModeAll, want: `match o { A => 0, B => 2, _ => 0 }`, applied: 2},
		{name: "once", mode: ApplyModeOnce, want: `match o { A => 0, A => 1, B => 2, _ => 0 }`, applied: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, path, id := setup(t, body)
			res, err := Apply(fs, diagnostics(id), ApplyOptions{Mode: tt.mode})
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if len(res.Applied) != tt.applied {
				t.Fatalf("applied %d fixes: %+v", len(res.Applied), res)
			}
			if len(res.FileChanges) != 1 || res.FileChanges[0].Path != path {
				t.Fatalf("changes = %+v", res.FileChanges)
			}
			if got := readUnitBody(t, path); got != tt.want {
				t.Errorf("body = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestApply_ByID(t *testing.T) {
	fs, path, id := setup(t, body)
	diags := diagnostics(id)
	target := fixID(fs, diags[0], 0)

	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeID, TargetID: target})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(res.Applied) != 1 || res.Applied[0].Code != diag.SemaRedundantArm {
		t.Fatalf("applied = %+v", res.Applied)
	}
	if got := readUnitBody(t, path); got != `match o { A => 0, B => 2 }` {
		t.Errorf("body = %q", got)
	}

	_, err = Apply(fs, diags, ApplyOptions{Mode: ApplyModeID, TargetID: "nope"})
	if !errors.Is(err, ErrNoFixes) {
		t.Errorf("unknown id: err = %v", err)
	}
}

func TestApply_SkipsConflictsAndUnlocatedBodies(t *testing.T) {
	t.Run("conflict", func(t *testing.T) {
		fs, _, id := setup(t, body)
		first := diag.New(diag.SevWarning, diag.SemaRedundantArm, span(id, body, "A => 1"), "a").
			WithFix("drop", diag.FixEdit{Span: span(id, body, "A => 1, ")})
		second := diag.New(diag.SevWarning, diag.SemaRedundantArm, span(id, body, "1, B"), "b").
			WithFix("drop more", diag.FixEdit{Span: span(id, body, "1, B")})
		res, err := Apply(fs, []diag.Diagnostic{first, second}, ApplyOptions{Mode: ApplyModeAll, DryRun: true})
		if err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if len(res.Applied) != 1 || len(res.Skipped) != 1 {
			t.Fatalf("result = %+v", res)
		}
		if !strings.HasPrefix(res.Skipped[0].Reason, "conflicts with an earlier fix") {
			t.Errorf("reason = %q", res.Skipped[0].Reason)
		}
	})

	t.Run("escaped_body", func(t *testing.T) {
		fs, path, id := setup(t, "match o { A => 0 }")
		before, _ := os.ReadFile(path)
		res, err := Apply(fs, diagnostics(id), ApplyOptions{Mode: ApplyModeAll})
		if !errors.Is(err, ErrNoFixes) {
			t.Fatalf("err = %v, want ErrNoFixes", err)
		}
		if len(res.Skipped) != 2 || res.Skipped[0].Reason != "function body is not stored verbatim in its unit" {
			t.Errorf("skipped = %+v", res.Skipped)
		}
		after, _ := os.ReadFile(path)
		if string(before) != string(after) {
			t.Error("unit was modified")
		}
	})
}

func TestApply_DryRunKeepsFiles(t *testing.T) {
	fs, path, id := setup(t, body)
	res, err := Apply(fs, diagnostics(id), ApplyOptions{Mode: ApplyModeAll, DryRun: true})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := readUnitBody(t, path); got != body {
		t.Errorf("dry run wrote the unit: %q", got)
	}
	if !strings.Contains(string(res.FileChanges[0].Content), `B => 2, _ => 0 }`) {
		t.Errorf("content = %s", res.FileChanges[0].Content)
	}
}

func TestSpansConflict(t *testing.T) {
	e := func(start, end int) placedEdit { return placedEdit{start: start, end: end} }
	tests := []struct {
		a, b placedEdit
		want bool
	}{
		{e(0, 0), e(0, 0), false},
		{e(5, 5), e(0, 10), true},
		{e(10, 10), e(0, 10), false},
		{e(0, 5), e(5, 9), false},
		{e(0, 6), e(5, 9), true},
	}
	for _, tt := range tests {
		if got := spansConflict(tt.a, tt.b); got != tt.want {
			t.Errorf("spansConflict(%v, %v) = %v", tt.a, tt.b, got)
		}
	}
}
