package types

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// FieldFlags describe storage properties of a field.
type FieldFlags uint8

const (
	// FieldStatic marks per-type storage.
	FieldStatic FieldFlags = 1 << iota
	// FieldLiteral marks compile-time constants with no storage.
	FieldLiteral
	// FieldHasRVA marks fields overlaid on fixed-size data in the image.
	FieldHasRVA
)

// Field describes a single field of a type definition.
type Field struct {
	Name  string
	Type  TypeID
	Flags FieldFlags
}

// IsInstance reports whether the field occupies space in each instance.
func (f Field) IsInstance() bool {
	return f.Flags&(FieldStatic|FieldLiteral|FieldHasRVA) == 0
}

// DefFlags describe properties of a type definition.
type DefFlags uint8

const (
	// DefByRefLike marks stack-only value types.
	DefByRefLike DefFlags = 1 << iota
)

// DefInfo stores metadata for a type definition.
type DefInfo struct {
	Module    ModuleID
	Namespace string
	Name      string
	Token     uint32
	Base      TypeID
	Arity     int
	Fields    []Field
	Flags     DefFlags
	Prim      Primitive
}

type qualName struct {
	Module    ModuleID
	Namespace string
	Name      string
}

// DefineType registers a new type definition in module and returns its TypeID.
// The base type and fields are attached later so that definitions may refer
// to each other.
func (in *Interner) DefineType(module ModuleID, kind Kind, namespace, name string, arity int, flags DefFlags) (TypeID, error) {
	switch kind {
	case KindClass, KindValueType, KindEnum, KindInterface:
	default:
		return NoTypeID, fmt.Errorf("cannot define type of kind %s", kind)
	}
	if name == "" {
		return NoTypeID, fmt.Errorf("type name is empty")
	}
	if arity < 0 {
		return NoTypeID, fmt.Errorf("type %s.%s: negative arity %d", namespace, name, arity)
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if module == NoModuleID || int(module) >= len(in.modules) {
		return NoTypeID, fmt.Errorf("type %s.%s: unknown module #%d", namespace, name, module)
	}
	key := qualName{Module: module, Namespace: namespace, Name: name}
	if _, ok := in.byName[key]; ok {
		return NoTypeID, fmt.Errorf("type %s.%s already defined in %s", namespace, name, in.modules[module].Name)
	}
	base := NoTypeID
	switch kind {
	case KindValueType:
		base = in.builtins.ValueType
	case KindEnum:
		base = in.builtins.Enum
	case KindClass:
		base = in.builtins.Object
	}
	return in.addDef(kind, DefInfo{
		Module:    module,
		Namespace: namespace,
		Name:      name,
		Arity:     arity,
		Base:      base,
		Flags:     flags,
	}), nil
}

// addDef stores a definition. Callers hold the write lock or own the
// interner exclusively.
func (in *Interner) addDef(kind Kind, info DefInfo) TypeID {
	info.Token = in.nextRow(info.Module, TokenTypeDef)
	info.Fields = cloneFields(info.Fields)
	slot, err := safecast.Conv[uint32](len(in.defs))
	if err != nil {
		panic(fmt.Errorf("definition overflow: %w", err))
	}
	in.defs = append(in.defs, info)
	id := in.internRaw(Type{Kind: kind, Prim: info.Prim, Payload: slot})
	in.byName[qualName{Module: info.Module, Namespace: info.Namespace, Name: info.Name}] = id
	return id
}

// SetBase sets the base type of a definition. Use NoTypeID for none.
func (in *Interner) SetBase(def, base TypeID) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	info := in.defLocked(def)
	if info == nil {
		return fmt.Errorf("type#%d is not a definition", def)
	}
	info.Base = base
	return nil
}

// SetFields stores the field descriptors of a definition.
func (in *Interner) SetFields(def TypeID, fields []Field) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	info := in.defLocked(def)
	if info == nil {
		return fmt.Errorf("type#%d is not a definition", def)
	}
	info.Fields = cloneFields(fields)
	return nil
}

// Def returns a copy of the definition metadata for a definition TypeID.
func (in *Interner) Def(id TypeID) (DefInfo, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	info := in.defLocked(id)
	if info == nil {
		return DefInfo{}, false
	}
	out := *info
	out.Fields = cloneFields(info.Fields)
	return out, true
}

// FindType resolves a definition by module and qualified name.
func (in *Interner) FindType(module ModuleID, namespace, name string) (TypeID, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	id, ok := in.byName[qualName{Module: module, Namespace: namespace, Name: name}]
	return id, ok
}

func (in *Interner) defLocked(id TypeID) *DefInfo {
	tt, ok := in.lookupLocked(id)
	if !ok || !tt.Kind.IsDefinition() {
		return nil
	}
	if tt.Payload == 0 || int(tt.Payload) >= len(in.defs) {
		return nil
	}
	return &in.defs[tt.Payload]
}

// moduleOfLocked returns the defining module of a definition or instance.
func (in *Interner) moduleOfLocked(id TypeID) ModuleID {
	tt, ok := in.lookupLocked(id)
	if !ok {
		return NoModuleID
	}
	if tt.Kind == KindInstance {
		return in.moduleOfLocked(tt.Elem)
	}
	if info := in.defLocked(id); info != nil {
		return info.Module
	}
	return NoModuleID
}

func cloneFields(fields []Field) []Field {
	if len(fields) == 0 {
		return nil
	}
	return slices.Clone(fields)
}
