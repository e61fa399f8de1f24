package diag

import (
	"testing"

	"quill/internal/source"
)

func TestBagLimit(t *testing.T) {
	b := NewBag(2)
	sp := source.Span{File: 0, Start: 1, End: 2}
	if !b.Add(NewError(SemaTypeMismatch, sp, "a")) || !b.Add(New(SevWarning, SemaRedundantArm, sp, "b")) {
		t.Fatal("first two diagnostics should fit")
	}
	if b.Add(NewError(SemaTypeMismatch, sp, "c")) {
		t.Error("third diagnostic should be rejected")
	}
	if b.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", b.Dropped())
	}
	if b.Len() != 2 || b.Cap() != 2 {
		t.Errorf("Len=%d Cap=%d, want 2 2", b.Len(), b.Cap())
	}
	if !b.HasErrors() || !b.HasWarnings() {
		t.Error("bag should report errors and warnings")
	}
	if b.Count(SevWarning) != 1 {
		t.Errorf("Count(SevWarning) = %d", b.Count(SevWarning))
	}
}

func TestBagSortDedup(t *testing.T) {
	b := NewBag(10)
	r := NewDedupReporter(BagReporter{Bag: b})
	ReportWarning(r, SemaRedundantArm, source.Span{File: 1, Start: 5, End: 6}, "w").Emit()
	ReportError(r, SemaNonexhaustiveMatch, source.Span{File: 1, Start: 0, End: 9}, "e").Emit()
	ReportError(r, SemaNonexhaustiveMatch, source.Span{File: 1, Start: 0, End: 9}, "e again").Emit()
	ReportError(r, SemaTypeMismatch, source.Span{File: 0, Start: 3, End: 4}, "first file").Emit()

	b.Sort()
	items := b.Items()
	want := []Code{SemaTypeMismatch, SemaNonexhaustiveMatch, SemaRedundantArm}
	if len(items) != len(want) {
		t.Fatalf("got %d items, want %d", len(items), len(want))
	}
	for i, code := range want {
		if items[i].Code != code {
			t.Errorf("item %d: %s, want %s", i, items[i].Code.ID(), code.ID())
		}
	}
}

func TestReportBuilderEmitsOnce(t *testing.T) {
	b := NewBag(10)
	r := NewDedupReporter(BagReporter{Bag: b})
	sp := source.Span{Start: 1, End: 4}

	rb := ReportError(r, SemaNonexhaustiveMatch, sp, "missing arms").
		WithNote(sp, "`Shape::Circle(_)` not covered").
		WithFix("add a catch-all arm", FixEdit{Span: sp, NewText: "_ => 0"})
	rb.Emit()
	rb.Emit()
	ReportError(r, SemaNonexhaustiveMatch, sp, "missing arms").Emit()

	if b.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", b.Len())
	}
	d := b.Items()[0]
	if len(d.Notes) != 1 || len(d.Fixes) != 1 || d.Fixes[0].Edits[0].NewText != "_ => 0" {
		t.Errorf("unexpected diagnostic %+v", d)
	}
}

func TestCodeID(t *testing.T) {
	tests := []struct {
		code Code
		want string
	}{
		{LexUnknownChar, "LEX1001"},
		{SynUnexpectedToken, "SYN2001"},
		{SemaNonexhaustiveMatch, "SEM3050"},
		{IOLoadFileError, "IO4001"},
		{ProjInvalidUnit, "PRJ5001"},
		{UnknownCode, "E0000"},
	}
	for _, tt := range tests {
		if got := tt.code.ID(); got != tt.want {
			t.Errorf("ID() = %q, want %q", got, tt.want)
		}
	}
	if Code(9999).Title() != "Unknown error" {
		t.Error("unknown codes should fall back to the generic title")
	}
}
