package types

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// InstInfo stores the generic definition and arguments of an instantiation.
type InstInfo struct {
	Def  TypeID
	Args []TypeID
}

type instKey struct {
	Def  TypeID
	Args string
}

// Instantiate interns def<args...>. Instantiating a definition over its own
// type parameters yields the definition itself.
func (in *Interner) Instantiate(def TypeID, args ...TypeID) (TypeID, error) {
	info, ok := in.Def(def)
	if !ok {
		return NoTypeID, fmt.Errorf("type#%d is not a generic definition", def)
	}
	if info.Arity == 0 {
		return NoTypeID, fmt.Errorf("%s is not generic", in.TypeLabel(def))
	}
	if len(args) != info.Arity {
		return NoTypeID, fmt.Errorf("%s expects %d type arguments, got %d", in.TypeLabel(def), info.Arity, len(args))
	}
	if slices.Contains(args, NoTypeID) {
		return NoTypeID, fmt.Errorf("%s: missing type argument", in.TypeLabel(def))
	}
	if in.isOwnParams(args) {
		return def, nil
	}

	key := instKey{Def: def, Args: typeArgsKey(args)}
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.instIdx[key]; ok {
		return id, nil
	}
	slot, err := safecast.Conv[uint32](len(in.insts))
	if err != nil {
		panic(fmt.Errorf("instance overflow: %w", err))
	}
	in.insts = append(in.insts, InstInfo{Def: def, Args: slices.Clone(args)})
	id := in.internRaw(Type{Kind: KindInstance, Elem: def, Payload: slot})
	in.instIdx[key] = id
	return id, nil
}

// MustInstantiate is Instantiate for callers that already validated arity.
func (in *Interner) MustInstantiate(def TypeID, args ...TypeID) TypeID {
	id, err := in.Instantiate(def, args...)
	if err != nil {
		panic(Invariantf("instantiate", "%v", err))
	}
	return id
}

func (in *Interner) isOwnParams(args []TypeID) bool {
	for i, a := range args {
		tt, ok := in.Lookup(a)
		if !ok || tt.Kind != KindGenericParam || tt.Method || int(tt.Index) != i {
			return false
		}
	}
	return true
}

// Instantiation returns the type arguments of id: the arguments of an
// instance, the open parameters of a generic definition, or nil.
func (in *Interner) Instantiation(id TypeID) []TypeID {
	tt, ok := in.Lookup(id)
	if !ok {
		return nil
	}
	switch {
	case tt.Kind == KindInstance:
		in.mu.RLock()
		defer in.mu.RUnlock()
		return slices.Clone(in.insts[tt.Payload].Args)
	case tt.Kind.IsDefinition():
		info, _ := in.Def(id)
		if info.Arity == 0 {
			return nil
		}
		out := make([]TypeID, info.Arity)
		for i := range out {
			out[i] = in.TypeParam(i)
		}
		return out
	default:
		return nil
	}
}

// HasInstantiation reports whether id is generic (open or closed).
func (in *Interner) HasInstantiation(id TypeID) bool {
	return len(in.Instantiation(id)) > 0
}

// Subst replaces generic parameters inside t. Parameters without a matching
// argument are left in place.
func (in *Interner) Subst(t TypeID, typeArgs, methodArgs []TypeID) TypeID {
	if len(typeArgs) == 0 && len(methodArgs) == 0 {
		return t
	}
	tt, ok := in.Lookup(t)
	if !ok {
		return t
	}
	switch tt.Kind {
	case KindGenericParam:
		args := typeArgs
		if tt.Method {
			args = methodArgs
		}
		if int(tt.Index) < len(args) && args[tt.Index] != NoTypeID {
			return args[tt.Index]
		}
		return t
	case KindPointer:
		if elem := in.Subst(tt.Elem, typeArgs, methodArgs); elem != tt.Elem {
			return in.PointerTo(elem)
		}
		return t
	case KindArray:
		if elem := in.Subst(tt.Elem, typeArgs, methodArgs); elem != tt.Elem {
			return in.ArrayOf(elem)
		}
		return t
	case KindInstance:
		args := in.Instantiation(t)
		changed := false
		for i, a := range args {
			if s := in.Subst(a, typeArgs, methodArgs); s != a {
				args[i] = s
				changed = true
			}
		}
		if !changed {
			return t
		}
		return in.MustInstantiate(tt.Elem, args...)
	case KindFnPtr:
		sig, _ := in.FnPtr(t)
		ret := in.Subst(sig.Return, typeArgs, methodArgs)
		params := make([]TypeID, len(sig.Params))
		for i, p := range sig.Params {
			params[i] = in.Subst(p, typeArgs, methodArgs)
		}
		return in.FnPtrOf(ret, params...)
	default:
		if tt.Kind.IsDefinition() && len(typeArgs) > 0 {
			// an open generic definition stands for its typical instantiation
			if info, _ := in.Def(t); info.Arity > 0 && info.Arity <= len(typeArgs) {
				return in.MustInstantiate(t, typeArgs[:info.Arity]...)
			}
		}
		return t
	}
}
