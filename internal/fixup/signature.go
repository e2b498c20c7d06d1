package fixup

import (
	"strings"

	"crossgen/internal/r2r"
	"crossgen/internal/sigbuild"
	"crossgen/internal/types"
)

// ClassCode orders method fixup signatures against other node kinds.
const ClassCode = 150063499

// SignatureBuilder is the emission surface a fixup writes through.
type SignatureBuilder interface {
	AddSymbol(sym sigbuild.Symbol)
	EmitByte(v byte)
	EmitFixup(kind r2r.FixupKind, module types.ModuleID, ctx sigbuild.Context) sigbuild.Context
	EmitMethodSignature(m types.MethodWithToken, enforceDefEncoding bool, ctx sigbuild.Context, unboxingStub, instantiatingStub bool)
	ObjectData() sigbuild.ObjectData
}

// NameMangler supplies the prefix shared by every symbol of one
// compilation unit.
type NameMangler struct {
	CompilationUnitPrefix string
}

// MethodFixupSignature asks the loader to resolve a method reference of a
// given fixup kind. It is immutable once created by a Factory.
type MethodFixupSignature struct {
	kind    r2r.FixupKind
	id      MethodIdentity
	ctx     sigbuild.Context
	types   *types.Interner
	mangler NameMangler
}

// Kind returns the fixup kind.
func (s *MethodFixupSignature) Kind() r2r.FixupKind { return s.kind }

// Identity returns the identity the node is keyed by.
func (s *MethodFixupSignature) Identity() MethodIdentity { return s.id }

// Method returns the referenced method.
func (s *MethodFixupSignature) Method() types.MethodID { return s.id.Method.Method }

// Context returns the signature context the node encodes against.
func (s *MethodFixupSignature) Context() sigbuild.Context { return s.ctx }

// ClassCode returns the cross-kind ordering code of the node.
func (s *MethodFixupSignature) ClassCode() int { return ClassCode }

// emittedMethod is the reference actually encoded. The loader cannot name a
// universal canonical method, so such methods are written as their typical
// definition.
func (s *MethodFixupSignature) emittedMethod() types.MethodWithToken {
	m := s.id.Method
	if s.types.IsCanonicalMethod(m.Method, types.CanonUniversal) {
		m.Method = s.types.TypicalMethodDefinition(m.Method)
	}
	return m
}

// Emit writes the signature. With relocsOnly it returns empty data: the
// node has no address relocations, only loader-interpreted content.
func (s *MethodFixupSignature) Emit(b SignatureBuilder, relocsOnly bool) sigbuild.ObjectData {
	if relocsOnly {
		return sigbuild.ObjectData{}
	}

	method := s.emittedMethod()
	b.AddSymbol(s)
	if s.id.Converter != r2r.ConverterInvalid {
		inner := b.EmitFixup(r2r.FixupLoadConverterThunk, method.Token.Module, s.ctx)
		b.EmitByte(byte(s.id.Converter))
		b.EmitByte(byte(s.kind))
		b.EmitMethodSignature(method, false, inner, s.id.IsUnboxingStub, s.id.IsInstantiatingStub)
	} else {
		inner := b.EmitFixup(s.kind, method.Token.Module, s.ctx)
		b.EmitMethodSignature(method, false, inner, s.id.IsUnboxingStub, s.id.IsInstantiatingStub)
	}
	return b.ObjectData()
}

// MangledName returns the node's symbol name.
func (s *MethodFixupSignature) MangledName() string {
	var sb strings.Builder
	sb.WriteString(s.mangler.CompilationUnitPrefix)
	sb.WriteString("MethodFixupSignature(")
	sb.WriteString(s.kind.String())
	if s.id.IsUnboxingStub {
		sb.WriteString(" [UNBOX]")
	}
	if s.id.IsInstantiatingStub {
		sb.WriteString(" [INST]")
	}
	if s.id.Converter != r2r.ConverterInvalid {
		sb.WriteString(" [")
		sb.WriteString(s.id.Converter.String())
		sb.WriteString("]")
	}
	sb.WriteString(": ")
	s.appendMethodName(&sb)
	sb.WriteString(")")
	return sb.String()
}

func (s *MethodFixupSignature) appendMethodName(sb *strings.Builder) {
	m := s.id.Method
	sb.WriteString(s.types.MethodLabel(m.Method))
	if m.Constrained != types.NoTypeID {
		sb.WriteString(" @ ")
		sb.WriteString(s.types.TypeLabel(m.Constrained))
	}
	if s.id.Type != types.NoTypeID {
		sb.WriteString(" on ")
		sb.WriteString(s.types.TypeLabel(s.id.Type))
	}
	sb.WriteString("; ")
	sb.WriteString(tokenLabel(s.types, m.Token))
}

func (s *MethodFixupSignature) String() string {
	return s.MangledName()
}
