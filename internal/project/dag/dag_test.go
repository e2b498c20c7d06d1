package dag

import (
	"slices"
	"testing"
)

func TestBuildIndexSortsAndDeduplicates(t *testing.T) {
	idx := BuildIndex([]string{"b", "a", "c", "a", ""})
	want := []string{"a", "b", "c"}
	if !slices.Equal(idx.IDToName, want) {
		t.Fatalf("IDToName = %v, want %v", idx.IDToName, want)
	}
	for i, name := range want {
		if id, ok := idx.NameToID[name]; !ok || int(id) != i {
			t.Fatalf("NameToID[%q] = %v, want %d", name, id, i)
		}
	}
}

func TestBuildGraphRejectsUnknownNodes(t *testing.T) {
	idx := BuildIndex([]string{"a", "b"})
	if _, err := BuildGraph(idx, []string{"a"}, []Edge{{From: "a", To: "b"}}); err == nil {
		t.Fatalf("edge to undeclared node must fail")
	}
	g, err := BuildGraph(idx, []string{"a", "b"}, []Edge{{From: "a", To: "b"}, {From: "a", To: "b"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Edges[0]) != 1 || g.Indeg[1] != 1 {
		t.Fatalf("duplicate edges must merge: %v %v", g.Edges, g.Indeg)
	}
}

func TestToposortKahnBatches(t *testing.T) {
	names := []string{"Base", "Mid", "Leaf", "Other"}
	idx := BuildIndex(names)
	g, err := BuildGraph(idx, names, []Edge{
		{From: "Base", To: "Mid"},
		{From: "Mid", To: "Leaf"},
	})
	if err != nil {
		t.Fatal(err)
	}
	topo := ToposortKahn(g)
	if topo.Cyclic {
		t.Fatalf("expected acyclic graph")
	}
	got := make([][]string, len(topo.Batches))
	for i, b := range topo.Batches {
		got[i] = idx.Names(b)
	}
	want := [][]string{{"Base", "Other"}, {"Mid"}, {"Leaf"}}
	if len(got) != len(want) {
		t.Fatalf("batches = %v, want %v", got, want)
	}
	for i := range want {
		if !slices.Equal(got[i], want[i]) {
			t.Fatalf("batch %d = %v, want %v", i, got[i], want[i])
		}
	}
	if CycleError(idx, topo, "base type") != nil {
		t.Fatalf("no cycle expected")
	}
}

func TestToposortKahnReportsCycles(t *testing.T) {
	names := []string{"A", "B", "C", "Self"}
	idx := BuildIndex(names)
	g, err := BuildGraph(idx, names, []Edge{
		{From: "A", To: "B"},
		{From: "B", To: "A"},
		{From: "Self", To: "Self"},
	})
	if err != nil {
		t.Fatal(err)
	}
	topo := ToposortKahn(g)
	if !topo.Cyclic {
		t.Fatalf("expected a cycle")
	}
	if got := idx.Names(topo.Cycles); !slices.Equal(got, []string{"A", "B", "Self"}) {
		t.Fatalf("cycles = %v", got)
	}
	if !slices.Equal(idx.Names(topo.Order), []string{"C"}) {
		t.Fatalf("order = %v", idx.Names(topo.Order))
	}
	err = CycleError(idx, topo, "base type")
	if err == nil || err.Error() != "base type cycle: A -> B -> Self" {
		t.Fatalf("unexpected error %v", err)
	}
}
