package driver

import (
	"errors"
	"fmt"
	"path/filepath"

	"quill/internal/diag"
	"quill/internal/project"
	"quill/internal/project/dag"
	"quill/internal/source"
)

// Program is an entry unit together with everything it imports.
type Program struct {
	Entry string
	// Units are ordered dependencies first; the entry unit is last.
	Units []*project.LoadedUnit
	// Hash covers the entry and its transitive imports.
	Hash project.Digest
}

// countingReporter forwards diagnostics and counts errors.
type countingReporter struct {
	next   diag.Reporter
	errors int
	first  *diag.Diagnostic
}

func (c *countingReporter) Report(code diag.Code, sev diag.Severity, primary source.Span, msg string, notes []diag.Note, fixes []diag.Fix) {
	if sev >= diag.SevError {
		c.errors++
		if c.first == nil {
			d := diag.New(sev, code, primary, msg)
			c.first = &d
		}
	}
	if c.next != nil {
		c.next.Report(code, sev, primary, msg, notes, fixes)
	}
}

// LoadProgram loads entry and its transitive imports through fs. Problems are
// reported through r; ok is false when a unit is unreadable or invalid, an
// import is missing, or the imports form a cycle.
func LoadProgram(fs *source.FileSet, entry string, r diag.Reporter) (*Program, bool) {
	total := &countingReporter{next: r}
	entry = filepath.ToSlash(filepath.Clean(entry))

	units := make(map[string]*project.LoadedUnit)
	var nodes []dag.Node
	queue := []string{entry}
	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]
		if _, seen := units[path]; seen {
			continue
		}
		units[path] = nil

		lu, err := project.LoadUnit(fs, path)
		if lu == nil {
			// unreadable imports surface as missing units of their importer
			if path == entry {
				reportLoadError(total, source.Span{}, err)
			}
			continue
		}
		units[path] = lu

		unitReporter := &countingReporter{next: total}
		if err != nil {
			diag.ReportError(unitReporter, diag.ProjInvalidUnit, source.Span{File: lu.File}, err.Error()).Emit()
			lu.Meta.Path = lu.Path
			lu.Meta.Span = source.Span{File: lu.File}
		}
		lu.Meta.Imports = keepKnownFormats(unitReporter, lu.Meta.Imports)
		for _, imp := range lu.Meta.Imports {
			queue = append(queue, imp.Path)
		}
		nodes = append(nodes, dag.Node{
			Meta:     lu.Meta,
			Reporter: unitReporter,
			Broken:   unitReporter.errors > 0,
			FirstErr: unitReporter.first,
		})
	}
	if units[entry] == nil {
		return nil, false
	}

	metas := make([]project.UnitMeta, len(nodes))
	for i := range nodes {
		metas[i] = nodes[i].Meta
	}
	idx := dag.BuildIndex(metas)
	g, slots := dag.BuildGraph(idx, nodes)
	dag.ReportDuplicateModules(slots)
	topo := dag.ToposortKahn(g)
	dag.ReportCycles(idx, slots, topo)
	if topo.Cyclic {
		return nil, false
	}

	order := topo.DependenciesFirst()
	propagateBroken(g, slots, order)
	dag.ReportBrokenDeps(idx, slots)

	prog := &Program{Entry: entry, Units: make([]*project.LoadedUnit, 0, len(order))}
	hashes := make([]project.Digest, len(slots))
	for _, id := range order {
		lu := units[idx.IDToPath[int(id)]]
		deps := make([]project.Digest, 0, len(g.Edges[int(id)]))
		for _, to := range g.Edges[int(id)] {
			deps = append(deps, hashes[int(to)])
		}
		hashes[int(id)] = project.Combine(lu.Meta.ContentHash, deps...)
		lu.Meta.UnitHash = hashes[int(id)]
		prog.Units = append(prog.Units, lu)
	}
	prog.Hash = units[entry].Meta.UnitHash
	return prog, total.errors == 0
}

func reportLoadError(r diag.Reporter, sp source.Span, err error) {
	code := diag.IOLoadFileError
	if errors.Is(err, project.ErrUnknownFormat) {
		code = diag.ProjUnknownFormat
	}
	diag.ReportError(r, code, sp, fmt.Sprintf("failed to load unit: %v", err)).Emit()
}

// keepKnownFormats drops imports that can never load and reports them.
func keepKnownFormats(r diag.Reporter, imports []project.ImportMeta) []project.ImportMeta {
	kept := imports[:0]
	for _, imp := range imports {
		if imp.Path == "" {
			continue
		}
		if project.FormatOf(imp.Path) == project.FormatUnknown {
			diag.ReportError(r, diag.ProjUnknownFormat, imp.Span,
				fmt.Sprintf("cannot import %q: units are .toml or .yaml files", imp.Path)).Emit()
			continue
		}
		kept = append(kept, imp)
	}
	return kept
}

// propagateBroken marks importers of broken units as broken so that failures
// are reported along the whole import chain.
func propagateBroken(g dag.Graph, slots []dag.Slot, order []dag.UnitID) {
	for _, id := range order {
		slot := &slots[int(id)]
		if slot.Broken {
			continue
		}
		for _, to := range g.Edges[int(id)] {
			dep := &slots[int(to)]
			if dep.Broken || !dep.Present {
				slot.Broken = true
				if slot.FirstErr == nil {
					slot.FirstErr = dep.FirstErr
				}
				break
			}
		}
	}
}
