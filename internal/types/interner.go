package types

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs and ModuleIDs for the core library.
type Builtins struct {
	CoreModule      ModuleID
	GeneratedModule ModuleID

	Object         TypeID
	String         TypeID
	ValueType      TypeID
	Enum           TypeID
	Array          TypeID
	Canon          TypeID
	UniversalCanon TypeID

	prims map[Primitive]TypeID
}

// Primitive returns the TypeID of a primitive.
func (b Builtins) Primitive(p Primitive) TypeID {
	return b.prims[p]
}

// Interner provides stable TypeIDs by hashing structural descriptors.
// Definitions are never deduplicated: each registration yields a new identity.
//
// All exported methods are safe for concurrent use. Composite queries
// (substitution, canonical conversion) are built from the locked leaf
// operations and never hold the lock across calls.
type Interner struct {
	mu sync.RWMutex

	types   []Type
	index   map[Type]TypeID
	defs    []DefInfo
	insts   []InstInfo
	instIdx map[instKey]TypeID
	fnptrs  []FnPtrInfo
	fnIdx   map[fnKey]TypeID
	byName  map[qualName]TypeID

	modules []ModuleInfo
	modIdx  map[string]ModuleID

	methodDefs []MethodDef
	methods    []methodEntry
	methodIdx  map[methodKey]MethodID
	memberRefs map[memberRefKey]Token

	builtins Builtins
}

// Core library and generated module names.
const (
	CoreModuleName      = "System.Private.CoreLib"
	GeneratedModuleName = "System.Private.CompilerGenerated"
)

// NewInterner constructs an interner seeded with the core library.
func NewInterner() *Interner {
	in := &Interner{
		index:      make(map[Type]TypeID, 64),
		instIdx:    make(map[instKey]TypeID, 64),
		fnIdx:      make(map[fnKey]TypeID),
		byName:     make(map[qualName]TypeID, 64),
		modIdx:     make(map[string]ModuleID, 8),
		methodIdx:  make(map[methodKey]MethodID, 64),
		memberRefs: make(map[memberRefKey]Token),
	}
	// reserve 0 as invalid sentinel everywhere
	in.types = append(in.types, Type{})
	in.defs = append(in.defs, DefInfo{})
	in.insts = append(in.insts, InstInfo{})
	in.fnptrs = append(in.fnptrs, FnPtrInfo{})
	in.modules = append(in.modules, ModuleInfo{})
	in.methodDefs = append(in.methodDefs, MethodDef{})
	in.methods = append(in.methods, methodEntry{})

	core := in.addModule(CoreModuleName)
	in.builtins.CoreModule = core
	in.builtins.GeneratedModule = in.addModule(GeneratedModuleName)

	in.builtins.Object = in.addDef(KindClass, DefInfo{Module: core, Namespace: "System", Name: "Object"})
	in.builtins.ValueType = in.addDef(KindClass, DefInfo{Module: core, Namespace: "System", Name: "ValueType", Base: in.builtins.Object})
	in.builtins.Enum = in.addDef(KindClass, DefInfo{Module: core, Namespace: "System", Name: "Enum", Base: in.builtins.ValueType})
	in.builtins.String = in.addDef(KindClass, DefInfo{Module: core, Namespace: "System", Name: "String", Base: in.builtins.Object})
	in.builtins.Array = in.addDef(KindClass, DefInfo{Module: core, Namespace: "System", Name: "Array", Base: in.builtins.Object})

	in.builtins.prims = make(map[Primitive]TypeID, len(primitiveNames))
	for p := PrimVoid; p <= PrimUintPtr; p++ {
		in.builtins.prims[p] = in.addDef(KindPrimitive, DefInfo{
			Module:    core,
			Namespace: "System",
			Name:      p.String(),
			Base:      in.builtins.ValueType,
			Prim:      p,
		})
	}

	in.builtins.Canon = in.internRaw(Type{Kind: KindCanon, Canon: CanonSpecific})
	in.builtins.UniversalCanon = in.internRaw(Type{Kind: KindCanon, Canon: CanonUniversal})
	return in
}

// Builtins returns the core library handles.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern ensures the provided structural descriptor has a stable TypeID.
// Definitions, instances and function pointers have dedicated constructors.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid || t.Kind.IsDefinition() || t.Kind == KindInstance || t.Kind == KindFnPtr {
		return NoTypeID
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.index[t]; ok {
		return id
	}
	return in.internRaw(t)
}

// internRaw adds the descriptor to the storage. Callers hold the write lock.
func (in *Interner) internRaw(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	if !t.Kind.IsDefinition() {
		in.index[t] = id
	}
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.lookupLocked(id)
}

func (in *Interner) lookupLocked(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// Len reports how many types have been interned, sentinel excluded.
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.types) - 1
}

// PointerTo interns a pointer to elem.
func (in *Interner) PointerTo(elem TypeID) TypeID {
	return in.Intern(MakePointer(elem))
}

// ArrayOf interns a single-dimensional array of elem.
func (in *Interner) ArrayOf(elem TypeID) TypeID {
	return in.Intern(MakeArray(elem))
}

// TypeParam interns the index-th type generic parameter.
func (in *Interner) TypeParam(index int) TypeID {
	idx, err := safecast.Conv[uint32](index)
	if err != nil {
		panic(fmt.Errorf("type parameter index overflow: %w", err))
	}
	return in.Intern(MakeTypeParam(idx))
}

// MethodParam interns the index-th method generic parameter.
func (in *Interner) MethodParam(index int) TypeID {
	idx, err := safecast.Conv[uint32](index)
	if err != nil {
		panic(fmt.Errorf("method parameter index overflow: %w", err))
	}
	return in.Intern(MakeMethodParam(idx))
}

func typeArgsKey(args []TypeID) string {
	if len(args) == 0 {
		return ""
	}
	var b strings.Builder
	for i, arg := range args {
		if i > 0 {
			b.WriteByte('#')
		}
		b.WriteString(strconv.FormatUint(uint64(arg), 10))
	}
	return b.String()
}
