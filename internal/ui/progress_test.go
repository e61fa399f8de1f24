package ui

import (
	"strings"
	"testing"

	"quill/internal/buildpipeline"
)

func newModel(files ...string) *progressModel {
	return NewProgressModel("checking", files, nil).(*progressModel)
}

func TestApplyEvent_TracksStages(t *testing.T) {
	m := newModel("a.toml", "b.toml")

	steps := []struct {
		ev     buildpipeline.Event
		file   int
		status string
	}{
		{buildpipeline.Event{File: "a.toml", Stage: buildpipeline.StageLoad, Status: buildpipeline.StatusWorking}, 0, "loading"},
		{buildpipeline.Event{File: "a.toml", Stage: buildpipeline.StageMatch, Status: buildpipeline.StatusWorking}, 0, "checking"},
		{buildpipeline.Event{File: "b.toml", Stage: buildpipeline.StageLoad, Status: buildpipeline.StatusCached}, 1, "cached"},
		{buildpipeline.Event{File: "a.toml", Stage: buildpipeline.StageMatch, Status: buildpipeline.StatusError}, 0, "error"},
		// late events for a finished file are ignored
		{buildpipeline.Event{File: "a.toml", Stage: buildpipeline.StageLower, Status: buildpipeline.StatusWorking}, 0, "error"},
		{buildpipeline.Event{File: "other.toml", Stage: buildpipeline.StageLoad, Status: buildpipeline.StatusWorking}, 1, "cached"},
	}
	for i, step := range steps {
		m.applyEvent(step.ev)
		if got := m.items[step.file].status; got != step.status {
			t.Errorf("step %d: status = %q, want %q", i, got, step.status)
		}
	}

	finished, failed := m.counts()
	if finished != 2 || failed != 1 {
		t.Errorf("counts = %d finished, %d failed", finished, failed)
	}
	if got := m.percent(); got != 1 {
		t.Errorf("percent = %v, want 1", got)
	}
	if view := m.View(); !strings.Contains(view, "2/2, 1 failed") {
		t.Errorf("view lacks the summary:\n%s", view)
	}
}

func TestPercent_CountsPartialStages(t *testing.T) {
	m := newModel("a.toml", "b.toml")
	if got := m.percent(); got != 0 {
		t.Fatalf("fresh percent = %v", got)
	}
	m.applyEvent(buildpipeline.Event{File: "a.toml", Stage: buildpipeline.StageLower, Status: buildpipeline.StatusWorking})
	if got := m.percent(); got != 0.4 {
		t.Errorf("percent = %v, want 0.4", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"units/main.toml", 0, "units/main.toml"},
		{"units/main.toml", 40, "units/main.toml"},
		{"units/main.toml", 8, "units..."},
		{"units/main.toml", 10, "units/m..."},
		{"units/main.toml", 3, "uni"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
