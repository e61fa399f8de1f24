package dag

import (
	"fmt"
	"slices"
	"strings"

	"quill/internal/diag"
	"quill/internal/project"
	"quill/internal/source"
)

type Graph struct {
	// Edges[from] lists the units imported by from.
	Edges [][]UnitID
	// Indeg counts importers among present units.
	Indeg []int
	// Present marks units that were actually loaded.
	Present []bool
}

type Node struct {
	Meta     project.UnitMeta
	Reporter diag.Reporter
	Broken   bool
	FirstErr *diag.Diagnostic
}

type Slot struct {
	Meta     project.UnitMeta
	Reporter diag.Reporter
	Present  bool
	Broken   bool
	FirstErr *diag.Diagnostic
}

// BuildGraph links nodes by their imports and reports loads of the same
// path, self imports and imports of units that were never loaded.
func BuildGraph(idx Index, nodes []Node) (Graph, []Slot) {
	nodeCount := len(idx.IDToPath)
	g := Graph{
		Edges:   make([][]UnitID, nodeCount),
		Indeg:   make([]int, nodeCount),
		Present: make([]bool, nodeCount),
	}
	slots := make([]Slot, nodeCount)
	for i, p := range idx.IDToPath {
		slots[i].Meta.Path = p
	}

	for _, node := range nodes {
		meta := node.Meta
		id, ok := idx.PathToID[meta.Path]
		if meta.Path == "" || !ok {
			continue
		}
		slot := &slots[int(id)]
		if slot.Present {
			if b := diag.ReportError(node.Reporter, diag.ProjDuplicateModule, meta.Span,
				fmt.Sprintf("unit %q loaded twice", meta.Path)); b != nil {
				if slot.Meta.Span != (source.Span{}) {
					b.WithNote(slot.Meta.Span, "first loaded here")
				}
				b.Emit()
			}
			continue
		}
		slot.Meta = meta
		slot.Reporter = node.Reporter
		slot.Present = true
		slot.Broken = node.Broken
		slot.FirstErr = node.FirstErr
		g.Present[int(id)] = true
	}

	for from := range slots {
		slot := &slots[from]
		if !slot.Present {
			continue
		}
		seen := make(map[UnitID]struct{}, len(slot.Meta.Imports))
		for _, dep := range slot.Meta.Imports {
			toID, ok := idx.PathToID[dep.Path]
			if dep.Path == "" || !ok {
				continue
			}
			if UnitID(from) == toID { //nolint:gosec // from < len(IDToPath)
				if b := diag.ReportError(slot.Reporter, diag.ProjSelfImport, dep.Span,
					fmt.Sprintf("unit %q imports itself", slot.Meta.Path)); b != nil {
					b.Emit()
				}
				continue
			}
			if _, dup := seen[toID]; dup {
				continue
			}
			seen[toID] = struct{}{}

			g.Edges[from] = append(g.Edges[from], toID)
			if g.Present[int(toID)] {
				g.Indeg[int(toID)]++
			} else if b := diag.ReportError(slot.Reporter, diag.ProjMissingModule, dep.Span,
				fmt.Sprintf("unit %q imports missing unit %q", slot.Meta.Path, dep.Path)); b != nil {
				b.Emit()
			}
		}
		slices.Sort(g.Edges[from])
	}
	return g, slots
}

// ReportDuplicateModules reports distinct units that claim the same module name.
func ReportDuplicateModules(slots []Slot) {
	first := make(map[string]*Slot, len(slots))
	for i := range slots {
		slot := &slots[i]
		if !slot.Present || slot.Meta.Module == "" {
			continue
		}
		prev, ok := first[slot.Meta.Module]
		if !ok {
			first[slot.Meta.Module] = slot
			continue
		}
		if b := diag.ReportError(slot.Reporter, diag.ProjDuplicateModule, slot.Meta.Span,
			fmt.Sprintf("module %q is already declared by %q", slot.Meta.Module, prev.Meta.Path)); b != nil {
			b.WithNote(prev.Meta.Span, "previous declaration").Emit()
		}
	}
}

// ReportCycles reports every unit left over by the toposort.
func ReportCycles(idx Index, slots []Slot, topo *Topo) {
	if topo == nil || !topo.Cyclic || len(topo.Cycles) == 0 {
		return
	}
	names := make([]string, 0, len(topo.Cycles))
	for _, id := range topo.Cycles {
		names = append(names, idx.IDToPath[int(id)])
	}
	summary := strings.Join(names, " -> ")

	for _, id := range topo.Cycles {
		slot := slots[int(id)]
		if !slot.Present {
			continue
		}
		msg := fmt.Sprintf("unit %q participates in an import cycle: %s", slot.Meta.Path, summary)
		if b := diag.ReportError(slot.Reporter, diag.ProjImportCycle, slot.Meta.Span, msg); b != nil {
			b.Emit()
		}
	}
}

// ReportBrokenDeps points importers at broken imports.
func ReportBrokenDeps(idx Index, slots []Slot) {
	for i := range slots {
		from := &slots[i]
		if !from.Present || len(from.Meta.Imports) == 0 {
			continue
		}
		emitted := make(map[string]struct{}, len(from.Meta.Imports))
		for _, imp := range from.Meta.Imports {
			toID, ok := idx.PathToID[imp.Path]
			if !ok || !slots[int(toID)].Broken {
				continue
			}
			if _, seen := emitted[imp.Path]; seen {
				continue
			}
			emitted[imp.Path] = struct{}{}

			dep := slots[int(toID)]
			b := diag.ReportError(from.Reporter, diag.ProjDependencyFailed, imp.Span,
				fmt.Sprintf("imported unit %q has errors", imp.Path))
			if b == nil {
				continue
			}
			if dep.FirstErr != nil {
				b.WithNote(dep.FirstErr.Primary, "first error in dependency: "+dep.FirstErr.Message)
			}
			b.Emit()
		}
	}
}
