package token

import "testing"

func TestLookupKeyword(t *testing.T) {
	tests := []struct {
		text string
		kind Kind
		ok   bool
	}{
		{"match", KwMatch, true},
		{"matches", KwMatches, true},
		{"new", KwNew, true},
		{"Match", Invalid, false},
		{"int", Invalid, false},
	}
	for _, tt := range tests {
		k, ok := LookupKeyword(tt.text)
		if ok != tt.ok || (ok && k != tt.kind) {
			t.Errorf("LookupKeyword(%q) = %v, %v", tt.text, k, ok)
		}
	}
}

func TestClassification(t *testing.T) {
	for text, kind := range keywords {
		tok := Token{Kind: kind, Text: text}
		if !tok.IsKeyword() {
			t.Errorf("%q should be a keyword", text)
		}
	}
	if (Token{Kind: Ident}).IsKeyword() || (Token{Kind: Underscore}).IsKeyword() {
		t.Error("identifiers and punctuation are not keywords")
	}
	if got := FatArrow.String(); got != "'=>'" {
		t.Errorf("FatArrow.String() = %q", got)
	}
	if got := Kind(200).String(); got != "Kind(200)" {
		t.Errorf("unknown kind = %q", got)
	}
}
