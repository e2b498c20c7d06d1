// Package dag orders named nodes by "must come before" edges and reports the
// nodes caught in cycles.
package dag

import (
	"fmt"
	"slices"
)

// Graph is an adjacency list over an Index.
type Graph struct {
	Edges   [][]NodeID // Edges[from] = []to: from must precede to
	Indeg   []int      // входящие степени для Kahn
	Present []bool     // узел объявлен, а не только упомянут в ребре
}

// Edge says From must precede To.
type Edge struct {
	From string
	To   string
}

// BuildGraph builds the graph of edges between declared nodes. An edge that
// mentions an undeclared node is an error; duplicate edges are merged.
func BuildGraph(idx Index, declared []string, edges []Edge) (Graph, error) {
	n := len(idx.IDToName)
	g := Graph{
		Edges:   make([][]NodeID, n),
		Indeg:   make([]int, n),
		Present: make([]bool, n),
	}
	for _, name := range declared {
		id, ok := idx.NameToID[name]
		if !ok {
			return Graph{}, fmt.Errorf("node %q is missing from the index", name)
		}
		g.Present[int(id)] = true
	}

	seen := make(map[[2]NodeID]struct{}, len(edges))
	for _, e := range edges {
		from, ok := idx.NameToID[e.From]
		if !ok || !g.Present[int(from)] {
			return Graph{}, fmt.Errorf("edge %q -> %q: unknown node %q", e.From, e.To, e.From)
		}
		to, ok := idx.NameToID[e.To]
		if !ok || !g.Present[int(to)] {
			return Graph{}, fmt.Errorf("edge %q -> %q: unknown node %q", e.From, e.To, e.To)
		}
		key := [2]NodeID{from, to}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		g.Edges[from] = append(g.Edges[from], to)
		g.Indeg[to]++
	}
	for from := range g.Edges {
		if len(g.Edges[from]) > 1 {
			slices.Sort(g.Edges[from])
		}
	}
	return g, nil
}
