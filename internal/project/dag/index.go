package dag

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// NodeID identifies a node by its position in the sorted name index.
type NodeID uint32

// Index maps node names to dense ids.
type Index struct {
	NameToID map[string]NodeID
	IDToName []string
}

// собрать уникальные имена, отсортировать, раздать ID по порядку
func BuildIndex(names []string) Index {
	uniq := make(map[string]struct{}, len(names))
	for _, name := range names {
		if name != "" {
			uniq[name] = struct{}{}
		}
	}
	sorted := make([]string, 0, len(uniq))
	for name := range uniq {
		sorted = append(sorted, name)
	}
	slices.Sort(sorted)

	nameToID := make(map[string]NodeID, len(sorted))
	for i, name := range sorted {
		nameToID[name] = nodeID(i)
	}
	return Index{
		NameToID: nameToID,
		IDToName: sorted,
	}
}

// Names maps ids back to names.
func (idx Index) Names(ids []NodeID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = idx.IDToName[int(id)]
	}
	return out
}

func nodeID(i int) NodeID {
	id, err := safecast.Conv[NodeID](i)
	if err != nil {
		panic(fmt.Errorf("node id overflow: %w", err))
	}
	return id
}
