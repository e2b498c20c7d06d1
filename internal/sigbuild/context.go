// Package sigbuild encodes loader-interpreted signatures: fixup headers,
// type signatures and method signatures, written against a signature
// context that tracks which module tokens are resolved in.
package sigbuild

import (
	"fmt"
	"sync"

	"fortio.org/safecast"

	"crossgen/internal/types"
)

// ModuleTable assigns compact indices to the modules referenced by one
// output image. The home module is index 0; every other module gets the
// next index on first reference and keeps it.
type ModuleTable struct {
	mu    sync.Mutex
	index map[types.ModuleID]uint32
	order []types.ModuleID
}

// NewModuleTable creates a table whose index 0 is home.
func NewModuleTable(home types.ModuleID) *ModuleTable {
	return &ModuleTable{
		index: map[types.ModuleID]uint32{home: 0},
		order: []types.ModuleID{home},
	}
}

// Index returns the index of m, assigning one on first use.
func (t *ModuleTable) Index(m types.ModuleID) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx, ok := t.index[m]; ok {
		return idx
	}
	idx, err := safecast.Conv[uint32](len(t.order))
	if err != nil {
		panic(types.Invariantf("module table", "index overflow: %v", err))
	}
	t.index[m] = idx
	t.order = append(t.order, m)
	return idx
}

// Modules returns the referenced modules in index order.
func (t *ModuleTable) Modules() []types.ModuleID {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]types.ModuleID, len(t.order))
	copy(out, t.order)
	return out
}

// Len reports how many modules have an index.
func (t *ModuleTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.order)
}

// Context is the module tokens are currently resolved against, plus the
// image-wide module table used to name other modules.
type Context struct {
	Home  types.ModuleID
	table *ModuleTable
}

// NewContext returns a context rooted at the table's home module.
func NewContext(table *ModuleTable) Context {
	home := types.NoModuleID
	if mods := table.Modules(); len(mods) > 0 {
		home = mods[0]
	}
	return Context{Home: home, table: table}
}

// WithHome returns a context resolving tokens against m.
func (c Context) WithHome(m types.ModuleID) Context {
	c.Home = m
	return c
}

// Table returns the module table shared by every context of the image.
func (c Context) Table() *ModuleTable {
	return c.table
}

// ModuleIndex returns the image-wide index of m.
func (c Context) ModuleIndex(m types.ModuleID) uint32 {
	if c.table == nil {
		panic(types.Invariantf("signature context", "no module table for module #%d", m))
	}
	return c.table.Index(m)
}

func (c Context) String() string {
	return fmt.Sprintf("ctx(home=#%d)", c.Home)
}
