package dag

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

type Topo struct {
	// Order lists present units, importers before the units they import.
	Order []UnitID
	// Batches groups units whose importers are all in earlier batches.
	Batches [][]UnitID
	Cyclic  bool
	Cycles  []UnitID
}

// ToposortKahn orders the present units of g.
func ToposortKahn(g Graph) *Topo {
	nodeCount := len(g.Edges)
	indeg := slices.Clone(g.Indeg)

	topo := &Topo{Order: make([]UnitID, 0, nodeCount)}

	active := 0
	current := make([]UnitID, 0, nodeCount)
	for i := range nodeCount {
		if !g.Present[i] {
			continue
		}
		active++
		if indeg[i] == 0 {
			current = append(current, mustID(i))
		}
	}

	visited := 0
	for len(current) > 0 {
		batch := slices.Clone(current)
		topo.Batches = append(topo.Batches, batch)

		var next []UnitID
		for _, id := range batch {
			topo.Order = append(topo.Order, id)
			visited++
			for _, to := range g.Edges[int(id)] {
				if !g.Present[int(to)] {
					continue
				}
				indeg[int(to)]--
				if indeg[int(to)] == 0 {
					next = append(next, to)
				}
			}
		}
		slices.Sort(next)
		current = next
	}

	if visited != active {
		topo.Cyclic = true
		for i := range nodeCount {
			if g.Present[i] && indeg[i] > 0 {
				topo.Cycles = append(topo.Cycles, mustID(i))
			}
		}
	}
	return topo
}

// DependenciesFirst returns Order reversed, so every unit follows its imports.
func (t *Topo) DependenciesFirst() []UnitID {
	out := slices.Clone(t.Order)
	slices.Reverse(out)
	return out
}

func mustID(i int) UnitID {
	id, err := safecast.Conv[UnitID](i)
	if err != nil {
		panic(fmt.Errorf("unit id overflow: %w", err))
	}
	return id
}
