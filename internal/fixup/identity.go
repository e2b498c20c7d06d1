// Package fixup builds the method fixup signatures of a compilation: the
// deferred symbolic method references the loader resolves at load time.
// Nodes are deduplicated by identity, so every call site requesting the same
// reference shares one node.
package fixup

import (
	"fmt"
	"strings"

	"crossgen/internal/r2r"
	"crossgen/internal/types"
)

// MethodIdentity is the value a method fixup is keyed by. It is comparable;
// == is structural equality over every field.
type MethodIdentity struct {
	Type                types.TypeID
	Method              types.MethodWithToken
	IsUnboxingStub      bool
	IsInstantiatingStub bool
	Converter           r2r.ConverterKind
}

// Describe renders the identity for diagnostics.
func (id MethodIdentity) Describe(in *types.Interner) string {
	var sb strings.Builder
	sb.WriteString(in.MethodLabel(id.Method.Method))
	if id.Type != types.NoTypeID {
		fmt.Fprintf(&sb, " on %s", in.TypeLabel(id.Type))
	}
	if id.IsUnboxingStub {
		sb.WriteString(" unbox")
	}
	if id.IsInstantiatingStub {
		sb.WriteString(" inst")
	}
	if id.Converter != r2r.ConverterInvalid {
		fmt.Fprintf(&sb, " via %s", id.Converter)
	}
	return sb.String()
}

// tokenLabel names a token by its issuing module instead of its handle.
func tokenLabel(in *types.Interner, tok types.Token) string {
	return fmt.Sprintf("%s:%08X", in.ModuleName(tok.Module), tok.Value)
}
