package project

import (
	"fmt"
	"slices"
	"strings"

	"crossgen/internal/types"
)

// resolver turns parsed expressions into interned types.
type resolver struct {
	in     *types.Interner
	byQual map[string][]types.TypeID // "Ns.Name"
	byName map[string][]types.TypeID // "Name"
}

func newResolver(in *types.Interner) *resolver {
	r := &resolver{
		in:     in,
		byQual: make(map[string][]types.TypeID),
		byName: make(map[string][]types.TypeID),
	}
	b := in.Builtins()
	for _, id := range []types.TypeID{b.Object, b.ValueType, b.Enum, b.String, b.Array} {
		r.add(id)
	}
	return r
}

func (r *resolver) add(id types.TypeID) {
	info, _ := r.in.Def(id)
	qual := JoinQualified(info.Namespace, info.Name)
	r.byQual[qual] = append(r.byQual[qual], id)
	if info.Namespace != "" {
		r.byName[info.Name] = append(r.byName[info.Name], id)
	}
}

// paramScope limits which generic parameters an expression may use. A negative
// arity means any index is accepted.
type paramScope struct {
	typeArity   int
	methodArity int
}

var anyParams = paramScope{typeArity: -1, methodArity: -1}

var keywordTypes = map[string]func(types.Builtins) types.TypeID{
	"object":           func(b types.Builtins) types.TypeID { return b.Object },
	"string":           func(b types.Builtins) types.TypeID { return b.String },
	"__Canon":          func(b types.Builtins) types.TypeID { return b.Canon },
	"__UniversalCanon": func(b types.Builtins) types.TypeID { return b.UniversalCanon },
}

func (r *resolver) resolveString(s string, ps paramScope) (types.TypeID, error) {
	e, err := ParseTypeExpr(s)
	if err != nil {
		return types.NoTypeID, err
	}
	return r.resolve(e, ps)
}

func (r *resolver) resolve(e *TypeExpr, ps paramScope) (types.TypeID, error) {
	switch e.Kind {
	case ExprTypeParam:
		if ps.typeArity >= 0 && e.Index >= ps.typeArity {
			return types.NoTypeID, fmt.Errorf("type parameter !%d out of range (arity %d)", e.Index, ps.typeArity)
		}
		return r.in.TypeParam(e.Index), nil
	case ExprMethodParam:
		if ps.methodArity >= 0 && e.Index >= ps.methodArity {
			return types.NoTypeID, fmt.Errorf("method parameter !!%d out of range (arity %d)", e.Index, ps.methodArity)
		}
		return r.in.MethodParam(e.Index), nil
	case ExprArray, ExprPointer:
		elem, err := r.resolve(e.Elem, ps)
		if err != nil {
			return types.NoTypeID, err
		}
		if e.Kind == ExprArray {
			return r.in.ArrayOf(elem), nil
		}
		return r.in.PointerTo(elem), nil
	case ExprFnPtr:
		ret, err := r.resolve(e.Elem, ps)
		if err != nil {
			return types.NoTypeID, err
		}
		params, err := r.resolveList(e.Args, ps)
		if err != nil {
			return types.NoTypeID, err
		}
		return r.in.FnPtrOf(ret, params...), nil
	}

	def, err := r.lookup(e)
	if err != nil {
		return types.NoTypeID, err
	}
	if len(e.Args) == 0 {
		return def, nil
	}
	args, err := r.resolveList(e.Args, ps)
	if err != nil {
		return types.NoTypeID, err
	}
	return r.in.Instantiate(def, args...)
}

func (r *resolver) resolveList(list []*TypeExpr, ps paramScope) ([]types.TypeID, error) {
	out := make([]types.TypeID, 0, len(list))
	for _, a := range list {
		id, err := r.resolve(a, ps)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func (r *resolver) lookup(e *TypeExpr) (types.TypeID, error) {
	if e.Module != "" {
		mod, ok := r.in.ModuleByName(e.Module)
		if !ok {
			return types.NoTypeID, fmt.Errorf("unknown module %q", e.Module)
		}
		ns, name := SplitQualified(e.Name)
		id, ok := r.in.FindType(mod, ns, name)
		if !ok {
			return types.NoTypeID, fmt.Errorf("type %s not found in module %s", e.Name, e.Module)
		}
		return id, nil
	}
	if fn, ok := keywordTypes[e.Name]; ok {
		return fn(r.in.Builtins()), nil
	}
	if p, ok := types.ParsePrimitive(e.Name); ok {
		return r.in.Builtins().Primitive(p), nil
	}

	candidates := r.byQual[e.Name]
	if len(candidates) == 0 && !strings.Contains(e.Name, ".") {
		candidates = r.byName[e.Name]
	}
	switch len(candidates) {
	case 0:
		return types.NoTypeID, fmt.Errorf("unknown type %q", e.Name)
	case 1:
		return candidates[0], nil
	default:
		labels := make([]string, len(candidates))
		for i, c := range candidates {
			labels[i] = r.in.TypeLabel(c)
		}
		slices.Sort(labels)
		return types.NoTypeID, fmt.Errorf("ambiguous type %q: %s", e.Name, strings.Join(labels, ", "))
	}
}

// resolveMethod resolves a method reference. Array accessors are
// synthesized on demand; other methods must be declared on the owner's
// definition.
func (r *resolver) resolveMethod(s string) (types.MethodID, error) {
	ref, err := ParseMethodRef(s)
	if err != nil {
		return types.NoMethodID, err
	}
	owner, err := r.resolve(ref.Owner, anyParams)
	if err != nil {
		return types.NoMethodID, err
	}
	if r.in.IsArray(owner) {
		if len(ref.Args) > 0 {
			return types.NoMethodID, fmt.Errorf("array method %s takes no type arguments", ref.Name)
		}
		for k := types.ArrayGet; k <= types.ArrayCtor; k++ {
			if k.String() == ref.Name {
				return r.in.ArrayMethod(owner, k)
			}
		}
		return types.NoMethodID, fmt.Errorf("unknown array method %q", ref.Name)
	}

	def := r.in.TypeDefinition(owner)
	typical, ok := r.in.FindMethod(def, ref.Name)
	if !ok {
		return types.NoMethodID, fmt.Errorf("method %s not declared on %s", ref.Name, r.in.TypeLabel(def))
	}
	if len(ref.Args) == 0 && owner == def {
		return typical, nil
	}
	args, err := r.resolveList(ref.Args, anyParams)
	if err != nil {
		return types.NoMethodID, err
	}
	return r.in.InstantiateMethod(typical, owner, args...)
}
