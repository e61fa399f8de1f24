package driver

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"quill/internal/buildpipeline"
	"quill/internal/diag"
	"quill/internal/project"
)

func defaultOptions() Options {
	return OptionsFromConfig(project.DefaultConfig("test"))
}

func TestRun_Check(t *testing.T) {
	dir := writeProject(t, map[string]string{"main.toml": mainUnit, "partial.toml": partialUnit})

	res, err := Run(context.Background(), Request{Paths: []string{dir}, Options: defaultOptions(), Jobs: 2})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	names := make([]string, len(res.Files))
	for i := range res.Files {
		names[i] = filepath.Base(res.Files[i].Path)
	}
	if strings.Join(names, ",") != "lib.toml,main.toml,partial.toml" {
		t.Fatalf("files = %v", names)
	}
	if !res.HasErrors() {
		t.Fatal("HasErrors = false, want the partial match reported")
	}

	main := res.Files[1]
	if main.Failed() {
		t.Errorf("main.toml failed: %v", main.Bag.Items())
	}
	if main.IR != "" {
		t.Errorf("check produced IR")
	}
	if main.Stats.Matches != 1 {
		t.Errorf("matches = %d, want 1", main.Stats.Matches)
	}

	partial := res.Files[2]
	if !hasCode(partial.Bag, diag.SemaNonexhaustiveMatch) {
		t.Errorf("partial.toml diagnostics = %v", partial.Bag.Items())
	}
	if partial.Stats.NonExhaustive != 1 {
		t.Errorf("non-exhaustive = %d, want 1", partial.Stats.NonExhaustive)
	}
}

func TestRun_Lower(t *testing.T) {
	dir := writeProject(t, map[string]string{"main.toml": mainUnit})
	entry := filepath.Join(dir, "main.toml")

	tests := []struct {
		name    string
		fn      string
		want    []string
		notWant []string
		wantErr bool
	}{
		{name: "module", want: []string{"fn get:", "fn is_some:"}},
		{name: "one_func", fn: "is_some", want: []string{"fn is_some:"}, notWant: []string{"fn get:"}},
		{name: "unknown_func", fn: "nope", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Run(context.Background(), Request{
				Paths:   []string{entry},
				Options: defaultOptions(),
				Lower:   true,
				Func:    tt.fn,
			})
			if tt.wantErr {
				if err == nil || res.Files[0].Err == nil {
					t.Fatalf("err = %v, want a lowering failure", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			ir := res.Files[0].IR
			for _, s := range tt.want {
				if !strings.Contains(ir, s) {
					t.Errorf("IR lacks %q:\n%s", s, ir)
				}
			}
			for _, s := range tt.notWant {
				if strings.Contains(ir, s) {
					t.Errorf("IR contains %q:\n%s", s, ir)
				}
			}
		})
	}
}

func TestRun_SkipsLoweringOnErrors(t *testing.T) {
	dir := writeProject(t, map[string]string{"partial.toml": partialUnit})

	res, err := Run(context.Background(), Request{
		Paths:   []string{filepath.Join(dir, "partial.toml")},
		Options: defaultOptions(),
		Lower:   true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Files[0].IR != "" {
		t.Errorf("IR was produced for a file with errors")
	}
	if !res.Files[0].Failed() {
		t.Errorf("file did not fail")
	}
}

func TestRun_CacheReplaysResults(t *testing.T) {
	dir := writeProject(t, map[string]string{"partial.toml": partialUnit, "main.toml": mainUnit})
	cache, err := NewDiskCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	req := Request{Paths: []string{dir}, Options: defaultOptions(), Lower: true, Cache: cache}

	first, err := Run(context.Background(), req)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := Run(context.Background(), req)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	for i := range second.Files {
		a, b := &first.Files[i], &second.Files[i]
		if a.Cached {
			t.Errorf("%s: first run hit the cache", a.Path)
		}
		if !b.Cached {
			t.Errorf("%s: second run missed the cache", b.Path)
		}
		if a.IR != b.IR {
			t.Errorf("%s: IR differs after replay", b.Path)
		}
		if a.Stats != b.Stats {
			t.Errorf("%s: stats %+v, replayed %+v", b.Path, a.Stats, b.Stats)
		}
		if a.Bag.Len() != b.Bag.Len() {
			t.Fatalf("%s: %d diagnostics, replayed %d", b.Path, a.Bag.Len(), b.Bag.Len())
		}
		for j, d := range a.Bag.Items() {
			r := b.Bag.Items()[j]
			if d.Code != r.Code || d.Message != r.Message || d.Primary.Start != r.Primary.Start {
				t.Errorf("%s: diagnostic %d = %+v, replayed %+v", b.Path, j, d, r)
			}
			if a.Files.Get(d.Primary.File).Path != b.Files.Get(r.Primary.File).Path {
				t.Errorf("%s: diagnostic %d moved to another file", b.Path, j)
			}
		}
	}

	// a different option set must not reuse the entries
	req.Options.SimplifyCFG = !req.Options.SimplifyCFG
	third, err := Run(context.Background(), req)
	if err != nil {
		t.Fatalf("third run: %v", err)
	}
	for _, f := range third.Files {
		if f.Cached {
			t.Errorf("%s: hit the cache with different options", f.Path)
		}
	}
}

type eventLog struct {
	mu     sync.Mutex
	events []buildpipeline.Event
}

func (l *eventLog) OnEvent(e buildpipeline.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func TestRun_ReportsProgress(t *testing.T) {
	dir := writeProject(t, map[string]string{"main.toml": mainUnit, "partial.toml": partialUnit})
	log := &eventLog{}

	res, err := Run(context.Background(), Request{
		Paths:    []string{dir},
		Options:  defaultOptions(),
		Lower:    true,
		Jobs:     3,
		Progress: log,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	queued := make(map[string]int)
	finished := make(map[string]buildpipeline.Status)
	stages := make(map[string]map[buildpipeline.Stage]bool)
	for _, e := range log.events {
		if e.Status == buildpipeline.StatusQueued {
			queued[e.File]++
		}
		if e.Finished() {
			if _, dup := finished[e.File]; dup {
				t.Errorf("%s finished twice", e.File)
			}
			finished[e.File] = e.Status
		}
		if stages[e.File] == nil {
			stages[e.File] = make(map[buildpipeline.Stage]bool)
		}
		stages[e.File][e.Stage] = true
	}
	for _, f := range res.Files {
		if queued[f.Path] != 1 {
			t.Errorf("%s queued %d times", f.Path, queued[f.Path])
		}
		want := buildpipeline.StatusDone
		if f.Failed() {
			want = buildpipeline.StatusError
		}
		if finished[f.Path] != want {
			t.Errorf("%s finished as %q, want %q", f.Path, finished[f.Path], want)
		}
	}
	main := filepath.ToSlash(filepath.Join(dir, "main.toml"))
	for _, st := range []buildpipeline.Stage{buildpipeline.StageLoad, buildpipeline.StageResolve, buildpipeline.StageMatch, buildpipeline.StageLower} {
		if !stages[main][st] {
			t.Errorf("main.toml never reached stage %q", st)
		}
	}
}

func TestRun_Cancelled(t *testing.T) {
	dir := writeProject(t, map[string]string{"main.toml": mainUnit})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Run(ctx, Request{Paths: []string{dir}}); err == nil {
		t.Fatal("Run succeeded with a cancelled context")
	}
}
