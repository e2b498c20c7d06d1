// Package testkit holds invariant checkers shared by package tests.
package testkit

import (
	"fmt"
	"slices"

	"crossgen/internal/scope"
	"crossgen/internal/types"
)

// CheckGroupInvariants verifies the relations every scope.Group must keep
// over the given types and methods:
//  1. every compiled module is in the version bubble
//  2. a contained type versions with the compilation
//  3. a contained method body versions with the compilation
//  4. a contained layout of a module-defined reference type implies its
//     definition is compiled
//  5. inlining requires the caller to version with the compilation
func CheckGroupInvariants(g scope.Group, in *types.Interner, ids []types.TypeID, methods []types.MethodID) error {
	if g == nil || in == nil {
		return fmt.Errorf("nil group or interner")
	}

	bubble := g.VersionBubbleModules()
	for _, m := range g.CompiledModules() {
		if !slices.Contains(bubble, m) {
			return fmt.Errorf("compiled module %s is outside the version bubble", in.ModuleName(m))
		}
	}

	for _, id := range ids {
		label := in.TypeLabel(id)
		if g.ContainsType(id) && !g.VersionsWithType(id) {
			return fmt.Errorf("%s is contained but does not version with the compilation", label)
		}
		if in.IsModuleDefined(id) && !in.IsObject(id) && !in.IsValueType(id) && !in.IsEnum(id) && !in.IsByRefLike(id) &&
			g.ContainsTypeLayout(id) && !g.ContainsType(in.TypeDefinition(id)) {
			return fmt.Errorf("%s has a contained layout but its definition is not compiled", label)
		}
	}

	for _, m := range methods {
		if g.ContainsMethodBody(m, false) && !g.VersionsWithMethodBody(m) {
			return fmt.Errorf("%s body is compiled but does not version", in.MethodLabel(m))
		}
	}
	for _, caller := range methods {
		if g.VersionsWithMethodBody(caller) {
			continue
		}
		for _, callee := range methods {
			if g.CanInline(caller, callee) {
				return fmt.Errorf("%s may inline %s from outside the version bubble",
					in.MethodLabel(caller), in.MethodLabel(callee))
			}
		}
	}
	return nil
}
