package fixup

import (
	"sync"

	"crossgen/internal/r2r"
	"crossgen/internal/sigbuild"
	"crossgen/internal/types"
)

type nodeKey struct {
	kind r2r.FixupKind
	id   MethodIdentity
}

// Factory creates and caches method fixup signatures for one output image.
// It is safe for concurrent use: concurrent requests for the same key get
// the same node.
type Factory struct {
	types   *types.Interner
	mangler NameMangler

	mu    sync.Mutex
	nodes map[nodeKey]*MethodFixupSignature
	order []*MethodFixupSignature
}

// NewFactory creates an empty factory.
func NewFactory(typesIn *types.Interner, mangler NameMangler) *Factory {
	return &Factory{
		types:   typesIn,
		mangler: mangler,
		nodes:   make(map[nodeKey]*MethodFixupSignature, 64),
	}
}

// MethodSignature returns the node for (kind, id), creating it on first
// request. Requesting an existing key under a different signature context
// violates the one-image-per-factory contract and panics.
func (f *Factory) MethodSignature(kind r2r.FixupKind, id MethodIdentity, ctx sigbuild.Context) *MethodFixupSignature {
	if !kind.IsValid() {
		panic(types.Invariantf("method fixup", "invalid fixup kind %s", kind))
	}
	if !kind.TargetsMethod() {
		panic(types.Invariantf("method fixup", "fixup kind %s does not reference a method", kind))
	}
	if id.Converter != r2r.ConverterInvalid && !id.Converter.IsValid() {
		panic(types.Invariantf("method fixup", "invalid converter %s", id.Converter))
	}
	if _, ok := f.types.Method(id.Method.Method); !ok {
		panic(types.Invariantf("method fixup", "unknown method#%d", id.Method.Method))
	}

	key := nodeKey{kind: kind, id: id}
	f.mu.Lock()
	defer f.mu.Unlock()
	if node, ok := f.nodes[key]; ok {
		if node.ctx != ctx {
			panic(types.Invariantf("method fixup", "%s %s requested under %s and %s", kind, id.Describe(f.types), node.ctx, ctx))
		}
		return node
	}
	node := &MethodFixupSignature{
		kind:    kind,
		id:      id,
		ctx:     ctx,
		types:   f.types,
		mangler: f.mangler,
	}
	f.nodes[key] = node
	f.order = append(f.order, node)
	return node
}

// Len reports how many distinct nodes exist.
func (f *Factory) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.nodes)
}

// Signatures returns every node in deterministic order.
func (f *Factory) Signatures() []*MethodFixupSignature {
	f.mu.Lock()
	out := make([]*MethodFixupSignature, len(f.order))
	copy(out, f.order)
	f.mu.Unlock()
	SortSignatures(out)
	return out
}
