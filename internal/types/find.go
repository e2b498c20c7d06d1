package types

// TypeDefinition resolves instances to their generic definition. Every other
// type is its own definition.
func (in *Interner) TypeDefinition(id TypeID) TypeID {
	tt, ok := in.Lookup(id)
	if !ok {
		return id
	}
	if tt.Kind == KindInstance {
		return tt.Elem
	}
	return id
}

// IsModuleDefined reports whether id's definition is declared by a module.
// Arrays, pointers, function pointers, generic parameters and canonical
// placeholders are synthesized and have no declaring module.
func (in *Interner) IsModuleDefined(id TypeID) bool {
	tt, ok := in.Lookup(in.TypeDefinition(id))
	return ok && tt.Kind.IsDefinition()
}

// DefiningModule returns the module declaring id's definition.
func (in *Interner) DefiningModule(id TypeID) ModuleID {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.moduleOfLocked(id)
}

// ClosestDefType maps arrays to the core Array type; other types map to themselves.
func (in *Interner) ClosestDefType(id TypeID) TypeID {
	if in.IsArray(id) {
		return in.builtins.Array
	}
	return id
}

// BaseType returns the base type of id with generic arguments substituted.
func (in *Interner) BaseType(id TypeID) TypeID {
	tt, ok := in.Lookup(id)
	if !ok {
		return NoTypeID
	}
	switch {
	case tt.Kind == KindArray:
		return in.builtins.Array
	case tt.Kind == KindInstance:
		info, _ := in.Def(tt.Elem)
		return in.Subst(info.Base, in.Instantiation(id), nil)
	case tt.Kind.IsDefinition():
		info, _ := in.Def(id)
		return info.Base
	default:
		return NoTypeID
	}
}

// Fields returns the fields of id with generic arguments substituted.
func (in *Interner) Fields(id TypeID) []Field {
	tt, ok := in.Lookup(id)
	if !ok {
		return nil
	}
	switch {
	case tt.Kind == KindInstance:
		info, _ := in.Def(tt.Elem)
		args := in.Instantiation(id)
		for i := range info.Fields {
			info.Fields[i].Type = in.Subst(info.Fields[i].Type, args, nil)
		}
		return info.Fields
	case tt.Kind.IsDefinition():
		info, _ := in.Def(id)
		return info.Fields
	default:
		return nil
	}
}

func (in *Interner) kindOfDefinition(id TypeID) Kind {
	tt, ok := in.Lookup(in.TypeDefinition(id))
	if !ok {
		return KindInvalid
	}
	return tt.Kind
}

// IsValueType reports whether id is a primitive, struct or enum (or an
// instantiation of one).
func (in *Interner) IsValueType(id TypeID) bool {
	switch in.kindOfDefinition(id) {
	case KindPrimitive, KindValueType, KindEnum:
		return true
	default:
		return false
	}
}

// IsPrimitive reports whether id is a primitive.
func (in *Interner) IsPrimitive(id TypeID) bool {
	tt, ok := in.Lookup(id)
	return ok && tt.Kind == KindPrimitive
}

// IsEnum reports whether id is an enum.
func (in *Interner) IsEnum(id TypeID) bool {
	return in.kindOfDefinition(id) == KindEnum
}

// IsInterface reports whether id is an interface (or an instantiation of one).
func (in *Interner) IsInterface(id TypeID) bool {
	return in.kindOfDefinition(id) == KindInterface
}

// IsObject reports whether id is the universal base type.
func (in *Interner) IsObject(id TypeID) bool {
	return id != NoTypeID && id == in.builtins.Object
}

// IsPointer reports whether id is an unmanaged pointer.
func (in *Interner) IsPointer(id TypeID) bool {
	tt, ok := in.Lookup(id)
	return ok && tt.Kind == KindPointer
}

// IsFunctionPointer reports whether id is a function pointer.
func (in *Interner) IsFunctionPointer(id TypeID) bool {
	tt, ok := in.Lookup(id)
	return ok && tt.Kind == KindFnPtr
}

// IsArray reports whether id is an array.
func (in *Interner) IsArray(id TypeID) bool {
	tt, ok := in.Lookup(id)
	return ok && tt.Kind == KindArray
}

// IsGenericParam reports whether id is an unbound generic parameter.
func (in *Interner) IsGenericParam(id TypeID) bool {
	tt, ok := in.Lookup(id)
	return ok && tt.Kind == KindGenericParam
}

// IsByRefLike reports whether id is a stack-only value type.
func (in *Interner) IsByRefLike(id TypeID) bool {
	info, ok := in.Def(in.TypeDefinition(id))
	return ok && info.Flags&DefByRefLike != 0
}
