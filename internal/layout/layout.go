// Package layout answers whether the compilation has complete, fixed
// knowledge of a type's instance field layout, so that field offsets may be
// baked into generated code instead of being resolved by the loader.
package layout

import (
	"math"
	"sync"

	"crossgen/internal/types"
)

// Scope is the module containment test the oracle builds on.
type Scope interface {
	ContainsType(t types.TypeID) bool
}

// Oracle computes and caches layout containment.
//
// Queries are serialized: the recursion guard of a query and the shared
// cache must never be observed half-updated by another query.
type Oracle struct {
	Types *types.Interner
	Scope Scope

	mu    sync.Mutex
	cache *cache
}

// New creates an oracle answering for scope.
func New(typesIn *types.Interner, scope Scope) *Oracle {
	return &Oracle{
		Types: typesIn,
		Scope: scope,
		cache: newCache(),
	}
}

// noCycle marks a result that depends on no type still in progress.
const noCycle = math.MaxInt

// queryState is the recursion guard of one top-level query: the types in
// progress and their depth on the stack.
type queryState struct {
	stack []types.TypeID
	index map[types.TypeID]int
}

func newQueryState() *queryState {
	return &queryState{
		stack: nil,
		index: make(map[types.TypeID]int, 32),
	}
}

// ContainsTypeLayout reports whether t's layout is fully known to the
// compilation.
func (o *Oracle) ContainsTypeLayout(t types.TypeID) bool {
	if o == nil || o.Types == nil || o.Scope == nil {
		return false
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cache == nil {
		o.cache = newCache()
	}
	if contained, ok := o.cache.get(t); ok {
		return contained
	}
	contained, _ := o.containsTypeLayout(t, newQueryState())
	return contained
}

// containsTypeLayout returns the answer for t and the shallowest stack depth
// that a provisional (re-entrant) answer inside t's traversal relied on.
//
// Re-entering a type in progress answers true without caching. A finished
// answer is cached when it is false, or when nothing it relied on is still in
// progress above t.
func (o *Oracle) containsTypeLayout(t types.TypeID, state *queryState) (bool, int) {
	if contained, ok := o.cache.get(t); ok {
		return contained, noCycle
	}
	if depth, ok := state.index[t]; ok {
		return true, depth
	}

	depth := len(state.stack)
	state.index[t] = depth
	state.stack = append(state.stack, t)
	contained, low := o.computeContains(t, state)
	state.stack = state.stack[:len(state.stack)-1]
	delete(state.index, t)

	if !contained || low >= depth {
		o.cache.put(t, contained)
		return contained, noCycle
	}
	return contained, low
}

// cachedLen reports how many answers are memoized.
func (o *Oracle) cachedLen() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cache.len()
}
