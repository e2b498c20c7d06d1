package types

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// MethodID identifies an interned method (definition or instantiation).
type MethodID uint32

// NoMethodID marks the absence of a method.
const NoMethodID MethodID = 0

// MethodFlags describe properties of a method definition.
type MethodFlags uint8

const (
	MethodStatic MethodFlags = 1 << iota
	MethodVirtual
	// MethodNonVersionable marks bodies guaranteed not to change across versions.
	MethodNonVersionable
	// MethodArray marks methods synthesized by the runtime for array types.
	MethodArray
)

// ArrayMethodKind enumerates the runtime-synthesized array accessors.
type ArrayMethodKind uint8

const (
	ArrayGet ArrayMethodKind = iota + 1
	ArraySet
	ArrayAddress
	ArrayCtor
)

func (k ArrayMethodKind) String() string {
	switch k {
	case ArrayGet:
		return "Get"
	case ArraySet:
		return "Set"
	case ArrayAddress:
		return "Address"
	case ArrayCtor:
		return ".ctor"
	default:
		return fmt.Sprintf("ArrayMethodKind(%d)", k)
	}
}

// MethodDef stores metadata for a method definition.
type MethodDef struct {
	Owner   TypeID // generic definition, or array type for array methods
	Name    string
	Token   uint32
	Arity   int
	Flags   MethodFlags
	Typical MethodID
}

// MethodDesc describes an interned method.
type MethodDesc struct {
	ID      MethodID
	Typical MethodID
	Owner   TypeID
	Inst    []TypeID
	Name    string
	Token   uint32
	Arity   int
	Flags   MethodFlags
}

type methodEntry struct {
	def   uint32
	owner TypeID
	inst  []TypeID
}

type methodKey struct {
	def   uint32
	owner TypeID
	inst  string
}

// DefineMethod declares a method on a type definition and returns its
// typical (fully open) MethodID.
func (in *Interner) DefineMethod(owner TypeID, name string, arity int, flags MethodFlags) (MethodID, error) {
	if name == "" {
		return NoMethodID, fmt.Errorf("method name is empty")
	}
	if arity < 0 {
		return NoMethodID, fmt.Errorf("method %s: negative arity %d", name, arity)
	}
	if flags&MethodArray != 0 {
		return NoMethodID, fmt.Errorf("method %s: array methods are synthesized, not declared", name)
	}
	tt, ok := in.Lookup(owner)
	if !ok || !tt.Kind.IsDefinition() {
		return NoMethodID, fmt.Errorf("method %s: owner type#%d is not a type definition", name, owner)
	}
	var inst []TypeID
	for i := 0; i < arity; i++ {
		inst = append(inst, in.MethodParam(i))
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	module := in.moduleOfLocked(owner)
	return in.addMethodDef(MethodDef{
		Owner: owner,
		Name:  name,
		Token: in.nextRow(module, TokenMethodDef),
		Arity: arity,
		Flags: flags,
	}, inst), nil
}

// ArrayMethod returns the runtime-synthesized accessor kind of an array type.
func (in *Interner) ArrayMethod(array TypeID, kind ArrayMethodKind) (MethodID, error) {
	if !in.IsArray(array) {
		return NoMethodID, fmt.Errorf("type#%d is not an array", array)
	}
	name := kind.String()
	in.mu.Lock()
	defer in.mu.Unlock()
	for slot := 1; slot < len(in.methodDefs); slot++ {
		def := in.methodDefs[slot]
		if def.Owner == array && def.Flags&MethodArray != 0 && def.Name == name {
			return def.Typical, nil
		}
	}
	return in.addMethodDef(MethodDef{Owner: array, Name: name, Flags: MethodArray}, nil), nil
}

// addMethodDef stores a definition and its typical method. Callers hold the write lock.
func (in *Interner) addMethodDef(def MethodDef, inst []TypeID) MethodID {
	slot, err := safecast.Conv[uint32](len(in.methodDefs))
	if err != nil {
		panic(fmt.Errorf("method definition overflow: %w", err))
	}
	in.methodDefs = append(in.methodDefs, def)
	id := in.addMethodEntry(methodEntry{def: slot, owner: def.Owner, inst: inst})
	in.methodDefs[slot].Typical = id
	return id
}

func (in *Interner) addMethodEntry(e methodEntry) MethodID {
	n, err := safecast.Conv[uint32](len(in.methods))
	if err != nil {
		panic(fmt.Errorf("method overflow: %w", err))
	}
	id := MethodID(n)
	in.methods = append(in.methods, e)
	in.methodIdx[methodKey{def: e.def, owner: e.owner, inst: typeArgsKey(e.inst)}] = id
	return id
}

// InstantiateMethod interns m's definition on owner with the given method
// instantiation. owner must be the defining type or an instantiation of it.
func (in *Interner) InstantiateMethod(m MethodID, owner TypeID, inst ...TypeID) (MethodID, error) {
	desc, ok := in.Method(m)
	if !ok {
		return NoMethodID, fmt.Errorf("method#%d is unknown", m)
	}
	typical, _ := in.Method(desc.Typical)
	if in.TypeDefinition(owner) != typical.Owner {
		return NoMethodID, fmt.Errorf("%s is not declared on %s", in.MethodLabel(m), in.TypeLabel(owner))
	}
	if len(inst) != typical.Arity {
		return NoMethodID, fmt.Errorf("%s expects %d method type arguments, got %d", in.MethodLabel(m), typical.Arity, len(inst))
	}
	if slices.Contains(inst, NoTypeID) {
		return NoMethodID, fmt.Errorf("%s: missing method type argument", in.MethodLabel(m))
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	def := in.methods[desc.Typical].def
	key := methodKey{def: def, owner: owner, inst: typeArgsKey(inst)}
	if id, ok := in.methodIdx[key]; ok {
		return id, nil
	}
	return in.addMethodEntry(methodEntry{def: def, owner: owner, inst: slices.Clone(inst)}), nil
}

// MustInstantiateMethod is InstantiateMethod for callers that already validated shapes.
func (in *Interner) MustInstantiateMethod(m MethodID, owner TypeID, inst ...TypeID) MethodID {
	id, err := in.InstantiateMethod(m, owner, inst...)
	if err != nil {
		panic(Invariantf("instantiate method", "%v", err))
	}
	return id
}

func (in *Interner) methodLocked(m MethodID) (methodEntry, bool) {
	if m == NoMethodID || int(m) >= len(in.methods) {
		return methodEntry{}, false
	}
	return in.methods[m], true
}

// Method returns the description of an interned method.
func (in *Interner) Method(m MethodID) (MethodDesc, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	e, ok := in.methodLocked(m)
	if !ok {
		return MethodDesc{}, false
	}
	def := in.methodDefs[e.def]
	return MethodDesc{
		ID:      m,
		Typical: def.Typical,
		Owner:   e.owner,
		Inst:    slices.Clone(e.inst),
		Name:    def.Name,
		Token:   def.Token,
		Arity:   def.Arity,
		Flags:   def.Flags,
	}, true
}

// FindMethod resolves a method declared on a definition by name.
func (in *Interner) FindMethod(owner TypeID, name string) (MethodID, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	for slot := 1; slot < len(in.methodDefs); slot++ {
		def := in.methodDefs[slot]
		if def.Owner == owner && def.Name == name {
			return def.Typical, true
		}
	}
	return NoMethodID, false
}

// OwningType returns the (possibly instantiated) type a method belongs to.
func (in *Interner) OwningType(m MethodID) TypeID {
	desc, _ := in.Method(m)
	return desc.Owner
}

// MethodInstantiation returns the method's own generic arguments.
func (in *Interner) MethodInstantiation(m MethodID) []TypeID {
	desc, _ := in.Method(m)
	return desc.Inst
}

// TypicalMethodDefinition returns the fully open form of m: declared on the
// uninstantiated owner with its own method parameters.
func (in *Interner) TypicalMethodDefinition(m MethodID) MethodID {
	desc, ok := in.Method(m)
	if !ok {
		return NoMethodID
	}
	return desc.Typical
}

// IsArrayMethod reports whether m is a runtime-synthesized array accessor.
func (in *Interner) IsArrayMethod(m MethodID) bool {
	desc, _ := in.Method(m)
	return desc.Flags&MethodArray != 0
}

// IsNonVersionable reports whether m carries the non-versionable marker.
func (in *Interner) IsNonVersionable(m MethodID) bool {
	desc, _ := in.Method(m)
	return desc.Flags&MethodNonVersionable != 0
}
