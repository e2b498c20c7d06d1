package scope

import (
	set "github.com/hashicorp/go-set/v3"

	"crossgen/internal/layout"
	"crossgen/internal/types"
)

// SingleModuleGroup compiles a set of modules as one unit, optionally
// versioning with a larger bubble of modules that are not compiled now but
// ship together with it.
type SingleModuleGroup struct {
	types    *types.Interner
	compiled *set.Set[types.ModuleID]
	bubble   *set.Set[types.ModuleID]
	layout   *layout.Oracle
}

var _ Group = (*SingleModuleGroup)(nil)

// NewSingleModuleGroup builds the policy. The compiler-generated module is
// always compiled, and every compiled module is part of the version bubble.
func NewSingleModuleGroup(typesIn *types.Interner, compiled, bubble []types.ModuleID) *SingleModuleGroup {
	compiledSet := set.From(compiled)
	compiledSet.Insert(typesIn.Builtins().GeneratedModule)

	bubbleSet := set.From(bubble)
	bubbleSet.InsertSet(compiledSet)

	g := &SingleModuleGroup{
		types:    typesIn,
		compiled: compiledSet,
		bubble:   bubbleSet,
	}
	g.layout = layout.New(typesIn, g)
	return g
}

func (g *SingleModuleGroup) isModuleDefinedIn(t types.TypeID, modules *set.Set[types.ModuleID]) bool {
	if !g.types.IsModuleDefined(t) {
		return false
	}
	return modules.Contains(g.types.DefiningModule(t))
}

// ContainsType reports whether t's definition belongs to a compiled module.
func (g *SingleModuleGroup) ContainsType(t types.TypeID) bool {
	return g.isModuleDefinedIn(t, g.compiled)
}

func (g *SingleModuleGroup) ContainsTypeDictionary(t types.TypeID) bool {
	return g.ContainsType(t)
}

// ContainsMethodBody reports whether m's body is compiled here. Array
// accessors are synthesized by the runtime and never compiled.
func (g *SingleModuleGroup) ContainsMethodBody(m types.MethodID, _ bool) bool {
	if g.types.IsArrayMethod(m) {
		return false
	}
	return g.ContainsType(g.types.OwningType(m))
}

// ContainsMethodDictionary panics with *types.InvariantError when m is its
// own shared canonical form: dictionaries only exist for exact instantiations.
func (g *SingleModuleGroup) ContainsMethodDictionary(m types.MethodID) bool {
	if g.types.CanonMethodTarget(m, types.CanonSpecific) == m {
		panic(types.Invariantf("method dictionary", "%s is its own canonical form", g.types.MethodLabel(m)))
	}
	return g.ContainsMethodBody(m, false)
}

func (g *SingleModuleGroup) VersionsWithType(t types.TypeID) bool {
	return g.isModuleDefinedIn(t, g.bubble)
}

func (g *SingleModuleGroup) VersionsWithMethodBody(m types.MethodID) bool {
	return g.VersionsWithType(g.types.OwningType(m))
}

// CanInline allows inlining when the caller's tokens can be encoded (it is in
// the version bubble) and the callee body is stable relative to this
// compilation (in the bubble, or marked non-versionable). Universal canonical
// callees are never inlined.
func (g *SingleModuleGroup) CanInline(caller, callee types.MethodID) bool {
	if g.types.IsCanonicalMethod(callee, types.CanonUniversal) {
		return false
	}
	return g.VersionsWithMethodBody(caller) &&
		(g.VersionsWithMethodBody(callee) || g.types.IsNonVersionable(callee))
}

func (g *SingleModuleGroup) ContainsTypeLayout(t types.TypeID) bool {
	return g.layout.ContainsTypeLayout(t)
}

func (g *SingleModuleGroup) ImportsMethod(types.MethodID, bool) bool { return false }

func (g *SingleModuleGroup) ExportTypeForm(types.TypeID) ExportForm { return ExportNone }

func (g *SingleModuleGroup) ExportTypeFormDictionary(types.TypeID) ExportForm { return ExportNone }

func (g *SingleModuleGroup) ExportMethodForm(types.MethodID, bool) ExportForm { return ExportNone }

func (g *SingleModuleGroup) ExportMethodDictionaryForm(types.MethodID) ExportForm {
	return ExportNone
}

func (g *SingleModuleGroup) IsSingleFileCompilation() bool { return false }

func (g *SingleModuleGroup) ShouldReferenceThroughImportTable(types.TypeID) bool { return false }

func (g *SingleModuleGroup) CanHaveReferenceThroughImportTable() bool { return false }

func (g *SingleModuleGroup) ShouldProduceFullVTable(types.TypeID) bool { return false }

func (g *SingleModuleGroup) ShouldPromoteToFullType(t types.TypeID) bool {
	return g.ShouldProduceFullVTable(t)
}

func (g *SingleModuleGroup) PresenceOfEETypeImpliesAllMethodsOnType(t types.TypeID) bool {
	return (g.types.HasInstantiation(t) || g.types.IsArray(t)) &&
		g.ShouldProduceFullVTable(t) &&
		g.types.IsCanonicalSubtype(g.types.ConvertToCanonForm(t, types.CanonSpecific), types.CanonAny)
}

// CompiledModules returns the compiled modules sorted by name.
func (g *SingleModuleGroup) CompiledModules() []types.ModuleID {
	out := g.compiled.Slice()
	g.types.SortModules(out)
	return out
}

// VersionBubbleModules returns the version bubble sorted by name.
func (g *SingleModuleGroup) VersionBubbleModules() []types.ModuleID {
	out := g.bubble.Slice()
	g.types.SortModules(out)
	return out
}
