package observ

import (
	"strings"
	"testing"
	"time"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	if got := tm.Report(); len(got.Phases) != 0 || got.TotalMS != 0 {
		t.Fatalf("empty timer report = %+v", got)
	}
	idx := tm.Begin("resolve")
	tm.End(idx, "3 funcs")
	tm.End(42, "ignored")
	tm.Record("lower", 2*time.Millisecond, "cached")

	rep := tm.Report()
	if len(rep.Phases) != 2 {
		t.Fatalf("phases = %d, want 2", len(rep.Phases))
	}
	if rep.Phases[0].Name != "resolve" || rep.Phases[0].Note != "3 funcs" {
		t.Errorf("first phase = %+v", rep.Phases[0])
	}
	if rep.Phases[1].DurationMS != 2 {
		t.Errorf("recorded phase = %+v", rep.Phases[1])
	}
	if rep.TotalMS < 2 {
		t.Errorf("total %.3f should include the recorded phase", rep.TotalMS)
	}

	sum := rep.String()
	for _, want := range []string{"timings:", "resolve", "// cached", "total"} {
		if !strings.Contains(sum, want) {
			t.Errorf("summary lacks %q:\n%s", want, sum)
		}
	}
}
