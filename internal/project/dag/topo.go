package dag

import (
	"fmt"
	"slices"
	"strings"
)

// Topo is the result of a topological sort.
type Topo struct {
	Order   []NodeID   // линейный порядок (только объявленные узлы)
	Batches [][]NodeID // волны независимых узлов
	Cyclic  bool
	Cycles  []NodeID // узлы, оставшиеся в цикле
}

// ToposortKahn orders declared nodes so that every edge points forward.
// Nodes of a batch are independent of each other and sorted by id.
func ToposortKahn(g Graph) *Topo {
	nodeCount := len(g.Edges)
	indeg := slices.Clone(g.Indeg)
	topo := &Topo{
		Order: make([]NodeID, 0, nodeCount),
	}

	active := 0
	current := make([]NodeID, 0, nodeCount)
	for i := range nodeCount {
		if !g.Present[i] {
			continue
		}
		active++
		if indeg[i] == 0 {
			current = append(current, nodeID(i))
		}
	}

	for len(current) > 0 {
		batch := slices.Clone(current)
		topo.Batches = append(topo.Batches, batch)

		var next []NodeID
		for _, id := range batch {
			topo.Order = append(topo.Order, id)
			for _, to := range g.Edges[int(id)] {
				indeg[int(to)]--
				if indeg[int(to)] == 0 {
					next = append(next, to)
				}
			}
		}
		slices.Sort(next)
		current = next
	}

	if len(topo.Order) != active {
		topo.Cyclic = true
		for i := range nodeCount {
			if g.Present[i] && indeg[i] > 0 {
				topo.Cycles = append(topo.Cycles, nodeID(i))
			}
		}
	}
	return topo
}

// CycleError describes the nodes left in cycles, or returns nil.
func CycleError(idx Index, topo *Topo, what string) error {
	if topo == nil || !topo.Cyclic {
		return nil
	}
	return fmt.Errorf("%s cycle: %s", what, strings.Join(idx.Names(topo.Cycles), " -> "))
}
