package types

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// ModuleID identifies a module (assembly) known to the type system.
type ModuleID uint32

// NoModuleID marks the absence of a module.
const NoModuleID ModuleID = 0

// ModuleInfo stores metadata for a module.
type ModuleInfo struct {
	Name string

	// next row ids per metadata table
	typeRows      uint32
	methodRows    uint32
	memberRefRows uint32
}

// RegisterModule adds a module by name. Module names are unique.
func (in *Interner) RegisterModule(name string) (ModuleID, error) {
	if name == "" {
		return NoModuleID, fmt.Errorf("module name is empty")
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if _, ok := in.modIdx[name]; ok {
		return NoModuleID, fmt.Errorf("module %q already registered", name)
	}
	return in.addModule(name), nil
}

func (in *Interner) addModule(name string) ModuleID {
	n, err := safecast.Conv[uint32](len(in.modules))
	if err != nil {
		panic(fmt.Errorf("module count overflow: %w", err))
	}
	id := ModuleID(n)
	in.modules = append(in.modules, ModuleInfo{Name: name})
	in.modIdx[name] = id
	return id
}

// ModuleByName resolves a module name.
func (in *Interner) ModuleByName(name string) (ModuleID, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	id, ok := in.modIdx[name]
	return id, ok
}

// ModuleName returns the name of a module, or "" for unknown ids.
func (in *Interner) ModuleName(id ModuleID) string {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if id == NoModuleID || int(id) >= len(in.modules) {
		return ""
	}
	return in.modules[id].Name
}

// Modules lists every registered module in registration order.
func (in *Interner) Modules() []ModuleID {
	in.mu.RLock()
	defer in.mu.RUnlock()
	out := make([]ModuleID, 0, len(in.modules)-1)
	for i := 1; i < len(in.modules); i++ {
		out = append(out, ModuleID(i))
	}
	return out
}

// SortModules orders module ids by name for deterministic output.
func (in *Interner) SortModules(ids []ModuleID) {
	slices.SortFunc(ids, func(a, b ModuleID) int {
		na, nb := in.ModuleName(a), in.ModuleName(b)
		if na < nb {
			return -1
		}
		if na > nb {
			return 1
		}
		return int(a) - int(b)
	})
}

func (in *Interner) nextRow(id ModuleID, table uint32) uint32 {
	if id == NoModuleID || int(id) >= len(in.modules) {
		panic(fmt.Errorf("types: row allocation for unknown module #%d", id))
	}
	m := &in.modules[id]
	var row *uint32
	switch table {
	case TokenTypeDef:
		row = &m.typeRows
	case TokenMethodDef:
		row = &m.methodRows
	case TokenMemberRef:
		row = &m.memberRefRows
	default:
		panic(fmt.Errorf("types: unsupported token table %#x", table))
	}
	*row++
	if *row > tokenRIDMask {
		panic(fmt.Errorf("types: metadata table %#x overflow in module %q", table, m.Name))
	}
	return table | *row
}
