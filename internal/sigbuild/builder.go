package sigbuild

import (
	"fortio.org/safecast"

	"crossgen/internal/r2r"
	"crossgen/internal/types"
)

// Symbol is an addressable node defined by emitted data.
type Symbol interface {
	MangledName() string
}

// Reloc is an address relocation inside emitted data.
type Reloc struct {
	Offset int
	Target Symbol
}

// ObjectData is the output of one node.
type ObjectData struct {
	Data           []byte
	Relocs         []Reloc
	Alignment      int
	DefinedSymbols []Symbol
}

// IsEmpty reports whether the data carries neither bytes nor relocations.
func (d ObjectData) IsEmpty() bool {
	return len(d.Data) == 0 && len(d.Relocs) == 0
}

// Builder accumulates the bytes of one signature.
type Builder struct {
	types   *types.Interner
	data    []byte
	symbols []Symbol
}

// NewBuilder creates an empty builder resolving types through typesIn.
func NewBuilder(typesIn *types.Interner) *Builder {
	return &Builder{types: typesIn}
}

// AddSymbol registers sym as defined at the current offset.
func (b *Builder) AddSymbol(sym Symbol) {
	b.symbols = append(b.symbols, sym)
}

// EmitByte appends one raw byte.
func (b *Builder) EmitByte(v byte) {
	b.data = append(b.data, v)
}

// EmitUint appends v in the compressed unsigned integer encoding: one byte
// below 0x80, two bytes below 0x4000, four bytes below 0x20000000.
func (b *Builder) EmitUint(v uint32) {
	switch {
	case v < 0x80:
		b.data = append(b.data, byte(v))
	case v < 0x4000:
		b.data = append(b.data, byte(0x80|v>>8), byte(v))
	case v < 0x20000000:
		b.data = append(b.data, byte(0xC0|v>>24), byte(v>>16), byte(v>>8), byte(v))
	default:
		panic(types.Invariantf("compressed integer", "value %#x does not fit", v))
	}
}

func (b *Builder) emitLen(n int) {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(types.Invariantf("compressed integer", "length %d: %v", n, err))
	}
	b.EmitUint(v)
}

func (b *Builder) emitElement(e r2r.ElementType) {
	b.EmitByte(byte(e))
}

// EmitFixup writes the fixup kind byte. When module differs from the
// context's home module, the kind carries the module override bit and is
// followed by the module's index; the returned context resolves tokens in
// module.
func (b *Builder) EmitFixup(kind r2r.FixupKind, module types.ModuleID, ctx Context) Context {
	if module == types.NoModuleID || module == ctx.Home {
		b.EmitByte(byte(kind))
		return ctx
	}
	b.EmitByte(byte(kind | r2r.FixupModuleOverride))
	b.EmitUint(ctx.ModuleIndex(module))
	return ctx.WithHome(module)
}

// Len returns the number of bytes emitted so far.
func (b *Builder) Len() int {
	return len(b.data)
}

// ObjectData returns the emitted bytes and defined symbols.
func (b *Builder) ObjectData() ObjectData {
	data := make([]byte, len(b.data))
	copy(data, b.data)
	syms := make([]Symbol, len(b.symbols))
	copy(syms, b.symbols)
	return ObjectData{
		Data:           data,
		Alignment:      1,
		DefinedSymbols: syms,
	}
}
