package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"quill/internal/diag"
	"quill/internal/source"
)

const body = "match s {\n\tShape::Dot => 1,\n}\n"

func redundantArm(file source.FileID) diag.Diagnostic {
	d := diag.New(diag.SevWarning, diag.SemaRedundantArm, source.Span{File: file, Start: 11, End: 21}, "unreachable arm")
	return d.WithNote(source.Span{File: file, Start: 6, End: 7}, "covered by this arm")
}

func TestPathModes(t *testing.T) {
	fs := source.NewFileSet()
	fs.SetBaseDir("/home/user/project")
	fileID := fs.Add("/home/user/project/src/shapes.toml", []byte(body), 0)

	bag := diag.NewBag(10)
	bag.Add(redundantArm(fileID))

	tests := []struct {
		name     string
		mode     PathMode
		contains string
	}{
		{name: "absolute", mode: PathModeAbsolute, contains: "/home/user/project/src/shapes.toml:2:2"},
		{name: "relative", mode: PathModeRelative, contains: "\nsrc/shapes.toml:2:2"},
		{name: "basename", mode: PathModeBasename, contains: "\nshapes.toml:2:2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			buf.WriteByte('\n')
			Pretty(&buf, bag, fs, PrettyOpts{PathMode: tt.mode})
			output := buf.String()
			if !strings.Contains(output, tt.contains) {
				t.Errorf("expected %q in:\n%s", tt.contains, output)
			}
			if !strings.Contains(output, "WARNING SEM3051: unreachable arm") {
				t.Errorf("missing header in:\n%s", output)
			}
		})
	}
}

func TestPrettyQuoteAndNotes(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("shapes.toml", []byte(body))

	bag := diag.NewBag(10)
	bag.Add(redundantArm(fileID))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{Context: 1, PathMode: PathModeBasename, ShowNotes: true})

	want := "shapes.toml:2:2: WARNING SEM3051: unreachable arm\n" +
		" 1 | match s {\n" +
		" 2 | \tShape::Dot => 1,\n" +
		"   | \t^~~~~~~~~~\n" +
		"  note: shapes.toml:1:7: covered by this arm\n"
	if got := buf.String(); got != want {
		t.Errorf("unexpected output:\nwant:\n%s\ngot:\n%s", want, got)
	}
}

func TestPrettyFixPreview(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("shapes.toml", []byte(body))

	bag := diag.NewBag(2)
	d := redundantArm(fileID).WithFix("remove the arm", diag.FixEdit{
		Span: source.Span{File: fileID, Start: 10, End: 28},
	})
	bag.Add(d)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename, ShowFixes: true, ShowPreview: true})
	output := buf.String()

	for _, want := range []string{
		"fix #1: remove the arm",
		"edit shapes.toml:2:1 apply=\"\"",
		"preview:",
		"- \tShape::Dot => 1,",
		"+ }",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in:\n%s", want, output)
		}
	}
	if strings.Contains(output, "note:") {
		t.Errorf("notes are off but printed:\n%s", output)
	}
}

func TestPrettyReportsDropped(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("shapes.toml", []byte(body))

	bag := diag.NewBag(1)
	bag.Add(redundantArm(fileID))
	bag.Add(redundantArm(fileID))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{})
	if !strings.Contains(buf.String(), "1 more diagnostics not shown") {
		t.Errorf("missing dropped summary:\n%s", buf.String())
	}
}

func TestUseColor(t *testing.T) {
	if !UseColor(ColorAlways, nil) {
		t.Error("on should force color")
	}
	if UseColor(ColorNever, nil) {
		t.Error("off should disable color")
	}
	if UseColor(ColorAuto, nil) {
		t.Error("auto without a file cannot be a terminal")
	}
}
