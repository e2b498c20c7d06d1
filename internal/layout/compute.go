package layout

import "crossgen/internal/types"

// isTriviallyContained covers types whose layout never depends on the
// compilation: value types, the universal base type, primitives, enums,
// pointers, function pointers, stack-only types and canonical placeholders.
func (o *Oracle) isTriviallyContained(id types.TypeID) bool {
	typesIn := o.Types
	return typesIn.IsValueType(id) ||
		typesIn.IsObject(id) ||
		typesIn.IsPrimitive(id) ||
		typesIn.IsEnum(id) ||
		typesIn.IsPointer(id) ||
		typesIn.IsFunctionPointer(id) ||
		typesIn.IsByRefLike(id) ||
		typesIn.IsCanonicalDefinitionType(id, types.CanonAny)
}

func (o *Oracle) computeContains(id types.TypeID, state *queryState) (bool, int) {
	if id == types.NoTypeID {
		return false, noCycle
	}
	if o.isTriviallyContained(id) {
		return true, noCycle
	}
	typesIn := o.Types
	// an unbound parameter's layout depends on an argument not known here
	if typesIn.IsGenericParam(id) {
		return false, noCycle
	}

	defType := typesIn.ClosestDefType(id)
	if !o.Scope.ContainsType(typesIn.TypeDefinition(defType)) {
		return false, noCycle
	}

	low := noCycle
	step := func(dep types.TypeID) bool {
		contained, l := o.containsTypeLayout(dep, state)
		low = min(low, l)
		return contained
	}

	if base := typesIn.BaseType(defType); base != types.NoTypeID && !step(base) {
		return false, noCycle
	}
	for _, arg := range typesIn.Instantiation(defType) {
		if !step(arg) {
			return false, noCycle
		}
	}
	for _, f := range typesIn.Fields(defType) {
		if !f.IsInstance() {
			continue
		}
		if !step(f.Type) {
			return false, noCycle
		}
	}
	return true, low
}
