package version

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestDescribe(t *testing.T) {
	prevNoColor := color.NoColor
	color.NoColor = true
	prev := [3]string{Version, GitCommit, BuildDate}
	t.Cleanup(func() {
		color.NoColor = prevNoColor
		Version, GitCommit, BuildDate = prev[0], prev[1], prev[2]
	})

	tests := []struct {
		version, commit, date string
		want                  string
	}{
		{"0.1.0-dev", "", "", "quill 0.1.0-dev"},
		{"1.2.3", "abc123", "", "quill 1.2.3 (abc123)"},
		{"1.2.3-rc.1", "1234567890abcdef1234", "2024-01-15", "quill 1.2.3-rc.1 (1234567890ab) built 2024-01-15"},
		{"nightly", "", "", "quill nightly"},
	}
	for _, tt := range tests {
		Version, GitCommit, BuildDate = tt.version, tt.commit, tt.date
		if got := Describe(); got != tt.want {
			t.Errorf("Describe() = %q, want %q", got, tt.want)
		}
	}
}

func TestColored_KeepsTextWhenColorIsOn(t *testing.T) {
	prevNoColor := color.NoColor
	color.NoColor = false
	prev := Version
	t.Cleanup(func() {
		color.NoColor = prevNoColor
		Version = prev
	})

	Version = "2.0.1-beta"
	got := Colored()
	if got == Version {
		t.Fatal("Colored() did not add color")
	}
	for _, part := range []string{"2", "0", "1", "-beta"} {
		if !strings.Contains(got, part) {
			t.Errorf("Colored() = %q lacks %q", got, part)
		}
	}
}
