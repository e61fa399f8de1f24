// Package driver runs the whole pipeline over unit files: loading the import
// graph, resolution, match checking and lowering, in parallel per file and
// with an optional disk cache.
package driver

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"fortio.org/safecast"
	"golang.org/x/sync/errgroup"

	"quill/internal/ast"
	"quill/internal/buildpipeline"
	"quill/internal/diag"
	"quill/internal/lower"
	"quill/internal/matchcheck"
	"quill/internal/mir"
	"quill/internal/observ"
	"quill/internal/project"
	"quill/internal/sema"
	"quill/internal/source"
	"quill/internal/trace"
)

// DefaultMaxDiagnostics bounds each file's bag when the request sets no limit.
const DefaultMaxDiagnostics = 200

// Options are the analysis and lowering knobs that affect results.
type Options struct {
	ComplexityLimit int  `msgpack:"complexity_limit"`
	AssumeValid     bool `msgpack:"assume_valid"`
	SimplifyCFG     bool `msgpack:"simplify_cfg"`
}

// OptionsFromConfig takes the knobs from a project manifest.
func OptionsFromConfig(cfg project.Config) Options {
	return Options{
		ComplexityLimit: cfg.Analysis.ComplexityLimit,
		AssumeValid:     cfg.Analysis.AssumeValid,
		SimplifyCFG:     cfg.Lower.SimplifyCFG,
	}
}

// Request describes one run.
type Request struct {
	// Paths are unit files or directories holding them.
	Paths   []string
	Options Options
	// Lower also builds and dumps the IR of files without errors.
	Lower bool
	// Func restricts the IR dump to one function.
	Func string
	// Jobs bounds parallelism; 0 means GOMAXPROCS.
	Jobs           int
	MaxDiagnostics int
	// BaseDir is the directory paths are displayed relative to.
	BaseDir  string
	Cache    *DiskCache
	Progress buildpipeline.ProgressSink
}

// FileResult is the outcome for one entry file.
type FileResult struct {
	Path  string
	Files *source.FileSet
	Bag   *diag.Bag
	// IR is the textual MIR; empty unless lowering was requested and ran.
	IR     string
	Stats  matchcheck.Stats
	Timing observ.Report
	Cached bool
	// Err is an internal failure, as opposed to a diagnostic.
	Err error
}

// Failed reports whether the file produced errors of any kind.
func (r *FileResult) Failed() bool {
	return r.Err != nil || (r.Bag != nil && r.Bag.HasErrors())
}

// Result holds per-file outcomes in the order the files were listed.
type Result struct {
	Files []FileResult
}

// HasErrors reports whether any file failed.
func (r *Result) HasErrors() bool {
	for i := range r.Files {
		if r.Files[i].Failed() {
			return true
		}
	}
	return false
}

// Run processes every unit file of req in parallel. Internal failures are
// kept on each FileResult and joined into the returned error. A cancelled
// run returns no result.
func Run(ctx context.Context, req Request) (*Result, error) {
	files, err := ExpandPaths(req.Paths)
	if err != nil {
		return nil, err
	}
	if req.MaxDiagnostics <= 0 {
		req.MaxDiagnostics = DefaultMaxDiagnostics
	}

	tr := trace.FromContext(ctx)
	span := trace.Begin(tr, trace.ScopeDriver, "run", trace.CurrentSpan(ctx).SpanID).
		WithExtra("files", strconv.Itoa(len(files)))
	defer span.End("")

	buildpipeline.EmitQueued(req.Progress, files)

	jobs := req.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([]FileResult, len(files))
	g, gctx := errgroup.WithContext(trace.WithSpan(ctx, span))
	g.SetLimit(max(1, min(jobs, len(files))))
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = processFile(gctx, &req, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var errs []error
	for i := range results {
		if results[i].Err != nil {
			errs = append(errs, results[i].Err)
		}
	}
	return &Result{Files: results}, errors.Join(errs...)
}

// fileRun is the state of one file moving through the stages.
type fileRun struct {
	req    *Request
	path   string
	tracer trace.Tracer
	parent uint64
	timer  *observ.Timer
	res    FileResult
	r      diag.Reporter
}

func processFile(ctx context.Context, req *Request, path string) FileResult {
	tr := trace.FromContext(ctx)
	span := trace.Begin(tr, trace.ScopePass, "file", trace.CurrentSpan(ctx).SpanID).WithExtra("path", path)

	fs := source.NewFileSet()
	fs.SetBaseDir(req.BaseDir)
	bag := diag.NewBag(req.MaxDiagnostics)
	run := &fileRun{
		req:    req,
		path:   path,
		tracer: tr,
		parent: span.ID(),
		timer:  observ.NewTimer(),
		res:    FileResult{Path: path, Files: fs, Bag: bag},
		// a cache hit replays the load diagnostics once more
		r:      diag.NewDedupReporter(diag.BagReporter{Bag: bag}),
	}
	status := run.process()
	bag.Sort()
	run.res.Timing = run.timer.Report()
	span.End(string(status))
	return run.res
}

func (f *fileRun) stage(stage buildpipeline.Stage) int {
	buildpipeline.EmitStage(f.req.Progress, f.path, stage, buildpipeline.StatusWorking, nil, 0)
	return f.timer.Begin(string(stage))
}

func (f *fileRun) finish(stage buildpipeline.Stage, status buildpipeline.Status, started time.Time) buildpipeline.Status {
	buildpipeline.EmitStage(f.req.Progress, f.path, stage, status, f.res.Err, time.Since(started))
	return status
}

func (f *fileRun) process() buildpipeline.Status {
	fs, bag := f.res.Files, f.res.Bag
	start := time.Now()

	idx := f.stage(buildpipeline.StageLoad)
	prog, ok := LoadProgram(fs, f.path, f.r)
	if prog == nil || !ok {
		f.timer.End(idx, "failed")
		return f.finish(buildpipeline.StageLoad, buildpipeline.StatusError, start)
	}
	f.timer.End(idx, fmt.Sprintf("%d units", len(prog.Units)))

	key, keyErr := cacheKey(prog.Hash, f.req, prog.Entry)
	if f.req.Cache != nil && keyErr == nil {
		var payload DiskPayload
		if hit, err := f.req.Cache.Get(key, &payload); err == nil && hit {
			payload.restore(fs, f.r)
			f.res.IR, f.res.Stats, f.res.Cached = payload.IR, payload.Stats, true
			for _, p := range payload.Timing.Phases {
				f.timer.Record(p.Name, time.Duration(p.DurationMS*float64(time.Millisecond)), "cached")
			}
			status := buildpipeline.StatusCached
			if bag.HasErrors() {
				status = buildpipeline.StatusError
			}
			return f.finish(buildpipeline.StageLoad, status, start)
		}
	}

	stage, status := f.analyze(prog)
	if f.res.Err != nil {
		return f.finish(stage, buildpipeline.StatusError, start)
	}
	if f.req.Cache != nil && keyErr == nil {
		payload := newPayload(prog.Entry, fs, bag)
		payload.IR, payload.Stats = f.res.IR, f.res.Stats
		rep := f.timer.Report()
		// the load phase always reruns
		if len(rep.Phases) > 0 {
			rep.Phases = rep.Phases[1:]
		}
		payload.Timing = rep
		if err := f.req.Cache.Put(key, payload); err != nil {
			trace.Begin(f.tracer, trace.ScopePass, "cache-put", f.parent).End(err.Error())
		}
	}
	return f.finish(stage, status, start)
}

// analyze resolves, checks and optionally lowers prog. It returns the last
// stage reached.
func (f *fileRun) analyze(prog *Program) (buildpipeline.Stage, buildpipeline.Status) {
	fs, bag := f.res.Files, f.res.Bag

	maxErrors, err := safecast.Conv[uint](f.req.MaxDiagnostics)
	if err != nil {
		panic(fmt.Errorf("max diagnostics overflow: %w", err))
	}
	idx := f.stage(buildpipeline.StageResolve)
	astProg, ok := sema.Check(fs, prog.Units, sema.Options{
		Reporter:  f.r,
		MaxErrors: maxErrors,
		Tracer:    f.tracer,
		Parent:    f.parent,
	})
	f.timer.End(idx, fmt.Sprintf("%d funcs", len(astProg.Funcs)))
	if !ok {
		return buildpipeline.StageResolve, buildpipeline.StatusError
	}

	idx = f.stage(buildpipeline.StageMatch)
	stats, err := matchcheck.Check(astProg, f.r, matchcheck.Options{
		ComplexityLimit: f.req.Options.ComplexityLimit,
		AssumeValid:     f.req.Options.AssumeValid,
		Tracer:          f.tracer,
		Parent:          f.parent,
	})
	f.timer.End(idx, fmt.Sprintf("%d matches", stats.Matches))
	f.res.Stats = stats
	if err != nil {
		f.res.Err = fmt.Errorf("%s: %w", f.path, err)
		return buildpipeline.StageMatch, buildpipeline.StatusError
	}
	if bag.HasErrors() {
		return buildpipeline.StageMatch, buildpipeline.StatusError
	}
	if !f.req.Lower {
		return buildpipeline.StageMatch, buildpipeline.StatusDone
	}

	idx = f.stage(buildpipeline.StageLower)
	ir, err := f.lower(astProg)
	f.timer.End(idx, "")
	if err != nil {
		f.res.Err = fmt.Errorf("%s: %w", f.path, err)
		return buildpipeline.StageLower, buildpipeline.StatusError
	}
	f.res.IR = ir
	return buildpipeline.StageLower, buildpipeline.StatusDone
}

func (f *fileRun) lower(prog *ast.Program) (string, error) {
	m, err := lower.LowerProgram(prog, lower.Options{
		SimplifyCFG: f.req.Options.SimplifyCFG,
		Tracer:      f.tracer,
		Parent:      f.parent,
	})
	if err != nil {
		return "", err
	}
	if err := mir.Validate(m, prog.Types); err != nil {
		return "", err
	}
	var sb strings.Builder
	if err := mir.DumpModule(&sb, m, prog.Types, mir.DumpOptions{Func: f.req.Func}); err != nil {
		return "", err
	}
	return sb.String(), nil
}
