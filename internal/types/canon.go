package types

// IsCanonicalDefinitionType reports whether id is itself a canonical
// placeholder of the requested form.
func (in *Interner) IsCanonicalDefinitionType(id TypeID, form CanonKind) bool {
	tt, ok := in.Lookup(id)
	return ok && tt.Kind == KindCanon && form.matches(tt.Canon)
}

// IsCanonicalSubtype reports whether a canonical placeholder of the requested
// form occurs anywhere inside id.
func (in *Interner) IsCanonicalSubtype(id TypeID, form CanonKind) bool {
	tt, ok := in.Lookup(id)
	if !ok {
		return false
	}
	switch tt.Kind {
	case KindCanon:
		return form.matches(tt.Canon)
	case KindPointer, KindArray:
		return in.IsCanonicalSubtype(tt.Elem, form)
	case KindInstance:
		for _, a := range in.Instantiation(id) {
			if in.IsCanonicalSubtype(a, form) {
				return true
			}
		}
		return false
	case KindFnPtr:
		sig, _ := in.FnPtr(id)
		if in.IsCanonicalSubtype(sig.Return, form) {
			return true
		}
		for _, p := range sig.Params {
			if in.IsCanonicalSubtype(p, form) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// ConvertToCanonForm returns the shared form of id. Specific sharing replaces
// reference-type arguments with __Canon; universal sharing replaces every
// argument with __UniversalCanon.
func (in *Interner) ConvertToCanonForm(id TypeID, form CanonKind) TypeID {
	if form != CanonSpecific && form != CanonUniversal {
		panic(Invariantf("canonical conversion", "unsupported form %s", form))
	}
	tt, ok := in.Lookup(id)
	if !ok {
		return id
	}
	switch tt.Kind {
	case KindInstance:
		args := in.Instantiation(id)
		for i, a := range args {
			args[i] = in.canonArg(a, form)
		}
		return in.MustInstantiate(tt.Elem, args...)
	case KindArray:
		return in.ArrayOf(in.canonArg(tt.Elem, form))
	default:
		return id
	}
}

func (in *Interner) canonArg(arg TypeID, form CanonKind) TypeID {
	if form == CanonUniversal {
		return in.builtins.UniversalCanon
	}
	if in.IsCanonicalDefinitionType(arg, CanonAny) {
		return arg
	}
	if in.IsValueType(arg) || in.IsPointer(arg) || in.IsFunctionPointer(arg) {
		return in.ConvertToCanonForm(arg, CanonSpecific)
	}
	return in.builtins.Canon
}

// IsCanonicalMethod reports whether m's owner or method instantiation
// contains a canonical placeholder of the requested form.
func (in *Interner) IsCanonicalMethod(m MethodID, form CanonKind) bool {
	desc, ok := in.Method(m)
	if !ok {
		return false
	}
	if in.IsCanonicalSubtype(desc.Owner, form) {
		return true
	}
	for _, a := range desc.Inst {
		if in.IsCanonicalSubtype(a, form) {
			return true
		}
	}
	return false
}

// CanonMethodTarget returns the method whose body is shared by m under the
// requested form. Non-generic methods are their own target.
func (in *Interner) CanonMethodTarget(m MethodID, form CanonKind) MethodID {
	desc, ok := in.Method(m)
	if !ok {
		return m
	}
	owner := desc.Owner
	if in.HasInstantiation(owner) && owner != in.TypeDefinition(owner) {
		owner = in.ConvertToCanonForm(owner, form)
	}
	inst := desc.Inst
	if len(inst) > 0 && desc.Typical != m {
		for i, a := range inst {
			inst[i] = in.canonArg(a, form)
		}
	}
	if owner == desc.Owner && (desc.Typical == m || len(inst) == 0) {
		return m
	}
	return in.MustInstantiateMethod(desc.Typical, owner, inst...)
}
