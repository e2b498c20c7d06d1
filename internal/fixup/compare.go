package fixup

import (
	"cmp"
	"slices"

	"crossgen/internal/types"
)

// Compare orders two method fixup signatures of the same factory. The order
// is total and returns 0 only for nodes with the same kind and identity.
// Readable labels decide first so output does not depend on interning
// order; handles break ties between distinct items with equal labels.
func Compare(a, b *MethodFixupSignature) int {
	if a == b {
		return 0
	}
	in := a.types
	ia, ib := a.id, b.id
	ma, mb := ia.Method, ib.Method

	if c := cmp.Compare(a.kind, b.kind); c != 0 {
		return c
	}
	if c := cmp.Compare(in.ModuleName(ma.Token.Module), in.ModuleName(mb.Token.Module)); c != 0 {
		return c
	}
	if c := cmp.Compare(ma.Token.Value, mb.Token.Value); c != 0 {
		return c
	}
	if c := cmp.Compare(in.TypeLabel(in.OwningType(ma.Method)), in.TypeLabel(in.OwningType(mb.Method))); c != 0 {
		return c
	}
	if c := cmp.Compare(in.MethodLabel(ma.Method), in.MethodLabel(mb.Method)); c != 0 {
		return c
	}
	if c := compareTypeLabels(in, ma.Constrained, mb.Constrained); c != 0 {
		return c
	}
	if c := compareTypeLabels(in, ia.Type, ib.Type); c != 0 {
		return c
	}
	if c := compareBool(ia.IsUnboxingStub, ib.IsUnboxingStub); c != 0 {
		return c
	}
	if c := compareBool(ia.IsInstantiatingStub, ib.IsInstantiatingStub); c != 0 {
		return c
	}
	if c := cmp.Compare(ia.Converter, ib.Converter); c != 0 {
		return c
	}

	// equal labels, distinct handles
	if c := cmp.Compare(ma.Method, mb.Method); c != 0 {
		return c
	}
	if c := cmp.Compare(ma.Token.Module, mb.Token.Module); c != 0 {
		return c
	}
	if c := cmp.Compare(ma.Constrained, mb.Constrained); c != 0 {
		return c
	}
	return cmp.Compare(ia.Type, ib.Type)
}

func compareTypeLabels(in *types.Interner, a, b types.TypeID) int {
	switch {
	case a == b:
		return 0
	case a == types.NoTypeID:
		return -1
	case b == types.NoTypeID:
		return 1
	}
	return cmp.Compare(in.TypeLabel(a), in.TypeLabel(b))
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

// SortSignatures sorts nodes by Compare.
func SortSignatures(nodes []*MethodFixupSignature) {
	slices.SortFunc(nodes, Compare)
}
