package diagfmt

import (
	"bytes"
	"encoding/json"
	"testing"

	"quill/internal/diag"
	"quill/internal/source"
)

func TestJSONBasic(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("shapes.toml", []byte(body))

	bag := diag.NewBag(10)
	bag.Add(redundantArm(fileID).WithFix("remove the arm", diag.FixEdit{
		Span: source.Span{File: fileID, Start: 10, End: 28},
	}))
	bag.Add(diag.NewError(diag.SemaNonexhaustiveMatch, source.Span{File: fileID, Start: 0, End: 5}, "match is not exhaustive"))

	var buf bytes.Buffer
	opts := JSONOpts{
		IncludePositions: true,
		PathMode:         PathModeBasename,
		IncludeNotes:     true,
		IncludeFixes:     true,
		IncludePreviews:  true,
	}
	if err := JSON(&buf, bag, fs, opts); err != nil {
		t.Fatalf("JSON() error: %v", err)
	}

	var output DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &output); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, buf.String())
	}
	if output.Count != 2 || len(output.Diagnostics) != 2 {
		t.Fatalf("count = %d, diagnostics = %d", output.Count, len(output.Diagnostics))
	}

	first := output.Diagnostics[0]
	if first.Severity != "WARNING" || first.Code != "SEM3051" || first.Title != "Unreachable match arm" {
		t.Errorf("unexpected header %+v", first)
	}
	if first.Location.File != "shapes.toml" || first.Location.StartLine != 2 || first.Location.StartCol != 2 {
		t.Errorf("unexpected location %+v", first.Location)
	}
	if len(first.Notes) != 1 || first.Notes[0].Location.StartCol != 7 {
		t.Errorf("unexpected notes %+v", first.Notes)
	}
	if len(first.Fixes) != 1 || len(first.Fixes[0].Edits) != 1 {
		t.Fatalf("unexpected fixes %+v", first.Fixes)
	}
	edit := first.Fixes[0].Edits[0]
	if len(edit.BeforeLines) != 2 || len(edit.AfterLines) != 1 || edit.AfterLines[0] != "}" {
		t.Errorf("unexpected preview %+v", edit)
	}
}

func TestJSONMax(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("shapes.toml", []byte(body))

	bag := diag.NewBag(10)
	for range 3 {
		bag.Add(redundantArm(fileID))
	}
	output := BuildDiagnosticsOutput(bag, fs, JSONOpts{Max: 2})
	if output.Count != 2 || output.Dropped != 1 {
		t.Errorf("Count=%d Dropped=%d, want 2 1", output.Count, output.Dropped)
	}
	if output.Diagnostics[0].Notes != nil {
		t.Error("notes must be omitted unless requested")
	}
	if output.Diagnostics[0].Location.StartLine != 0 {
		t.Error("positions must be omitted unless requested")
	}
}
