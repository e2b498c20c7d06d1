package layout

import "crossgen/internal/types"

type cache struct {
	byType map[types.TypeID]bool
}

func newCache() *cache {
	return &cache{byType: make(map[types.TypeID]bool, 256)}
}

func (c *cache) get(id types.TypeID) (contained, ok bool) {
	if c == nil {
		return false, false
	}
	contained, ok = c.byType[id]
	return contained, ok
}

func (c *cache) put(id types.TypeID, contained bool) {
	if c == nil {
		return
	}
	c.byType[id] = contained
}

func (c *cache) len() int {
	if c == nil {
		return 0
	}
	return len(c.byType)
}
