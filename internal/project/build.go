package project

import (
	"fmt"
	"slices"

	set "github.com/hashicorp/go-set/v3"

	"crossgen/internal/project/dag"
	"crossgen/internal/r2r"
	"crossgen/internal/scope"
	"crossgen/internal/types"
)

// Universe is a manifest built into an interned type system.
type Universe struct {
	Name     string
	Prefix   string
	Mode     scope.Mode
	Types    *types.Interner
	Compiled []types.ModuleID
	Bubble   []types.ModuleID
	Defined  []types.TypeID   // manifest types in declaration order
	Methods  []types.MethodID // manifest methods in declaration order
	Calls    []Call
	Digest   Digest
}

// Call is one resolved call site.
type Call struct {
	Index         int
	Site          types.ModuleID // module containing the caller
	Caller        types.MethodID
	Callee        types.MethodID
	Token         types.Token // token the caller's module uses for callee
	Kind          r2r.FixupKind
	Unboxing      bool
	Instantiating bool
	Converter     r2r.ConverterKind
	Constrained   types.TypeID
	Target        types.TypeID
}

// ScopeConfig returns the policy configuration for the universe.
func (u *Universe) ScopeConfig() scope.Config {
	return scope.Config{
		Mode:     u.Mode,
		Types:    u.Types,
		Compiled: u.Compiled,
		Bubble:   u.Bubble,
	}
}

var typeKinds = map[string]types.Kind{
	"class":     types.KindClass,
	"struct":    types.KindValueType,
	"enum":      types.KindEnum,
	"interface": types.KindInterface,
}

// Build interns everything the manifest declares. Errors are
// *ManifestError values naming the offending entry.
func Build(m *Manifest) (*Universe, error) {
	mode, err := scope.ParseMode(m.Compilation.Mode)
	if err != nil {
		return nil, m.wrap("[compilation].mode", err)
	}
	b := &builder{
		m:  m,
		in: types.NewInterner(),
		u:  &Universe{Name: m.Compilation.Name, Prefix: m.Compilation.Prefix, Mode: mode},
	}
	b.u.Types = b.in
	b.res = newResolver(b.in)

	steps := []func() error{
		b.registerModules,
		b.selectModules,
		b.defineTypes,
		b.attachBases,
		b.attachFields,
		b.defineMethods,
		b.resolveCalls,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	b.u.Digest = b.digest()
	return b.u, nil
}

type builder struct {
	m   *Manifest
	in  *types.Interner
	res *resolver
	u   *Universe
}

func (b *builder) registerModules() error {
	seen := set.New[string](len(b.m.Modules))
	for i, e := range b.m.Modules {
		entry := fmt.Sprintf("module[%d]", i)
		if err := ValidateDottedName(e.Name); err != nil {
			return b.m.wrap(entry, err)
		}
		if !seen.Insert(e.Name) {
			return b.m.errorf(entry, "duplicate module %q", e.Name)
		}
		if _, err := b.in.RegisterModule(e.Name); err != nil {
			return b.m.wrap(entry, err)
		}
	}
	return nil
}

func (b *builder) moduleList(entry string, names []string) ([]types.ModuleID, error) {
	out := make([]types.ModuleID, 0, len(names))
	for _, name := range names {
		id, ok := b.in.ModuleByName(name)
		if !ok {
			return nil, b.m.errorf(entry, "unknown module %q", name)
		}
		out = append(out, id)
	}
	return out, nil
}

func (b *builder) selectModules() error {
	var err error
	if b.u.Compiled, err = b.moduleList("[compilation].compiled", b.m.Compilation.Compiled); err != nil {
		return err
	}
	b.u.Bubble, err = b.moduleList("[compilation].bubble", b.m.Compilation.Bubble)
	return err
}

func typeEntryName(i int, e TypeEntry) string {
	return fmt.Sprintf("type[%d] %s", i, e.QualifiedName())
}

func (b *builder) defineTypes() error {
	for i, e := range b.m.Types {
		entry := typeEntryName(i, e)
		mod, ok := b.in.ModuleByName(e.Module)
		if !ok {
			return b.m.errorf(entry, "unknown module %q", e.Module)
		}
		kind, ok := typeKinds[e.Kind]
		if !ok {
			return b.m.errorf(entry, "unknown kind %q (expected: class|struct|enum|interface)", e.Kind)
		}
		if !IsValidIdent(e.Name) {
			return b.m.errorf(entry, "invalid type name %q", e.Name)
		}
		if e.Namespace != "" {
			if err := ValidateDottedName(e.Namespace); err != nil {
				return b.m.wrap(entry, err)
			}
		}
		var flags types.DefFlags
		if e.ByRefLike {
			if kind != types.KindValueType {
				return b.m.errorf(entry, "only structs can be byref-like")
			}
			flags |= types.DefByRefLike
		}
		id, err := b.in.DefineType(mod, kind, e.Namespace, e.Name, e.Arity, flags)
		if err != nil {
			return b.m.wrap(entry, err)
		}
		b.res.add(id)
		b.u.Defined = append(b.u.Defined, id)
	}
	return nil
}

// attachBases resolves base types in dependency order and rejects
// inheritance cycles.
func (b *builder) attachBases() error {
	bases := make([]types.TypeID, len(b.u.Defined))
	labels := make([]string, len(b.u.Defined))
	var edges []dag.Edge
	for i, e := range b.m.Types {
		def := b.u.Defined[i]
		labels[i] = b.in.TypeLabel(def)
		if e.Base == "" {
			continue
		}
		base, err := b.res.resolveString(e.Base, paramScope{typeArity: e.Arity})
		if err != nil {
			return b.m.wrap(typeEntryName(i, e), fmt.Errorf("base: %w", err))
		}
		baseDef := b.in.TypeDefinition(base)
		if !b.in.IsModuleDefined(base) || b.in.IsValueType(baseDef) || b.in.IsInterface(baseDef) {
			return b.m.errorf(typeEntryName(i, e), "invalid base type %s", b.in.TypeLabel(base))
		}
		bases[i] = base
		edges = append(edges, dag.Edge{From: b.in.TypeLabel(baseDef), To: labels[i]})
	}

	declared := slices.Clone(labels)
	for _, e := range edges {
		declared = append(declared, e.From)
	}
	idx := dag.BuildIndex(declared)
	g, err := dag.BuildGraph(idx, declared, edges)
	if err != nil {
		return b.m.wrap("types", err)
	}
	if err := dag.CycleError(idx, dag.ToposortKahn(g), "base type"); err != nil {
		return b.m.wrap("types", err)
	}
	for i, base := range bases {
		if base == types.NoTypeID {
			continue
		}
		if err := b.in.SetBase(b.u.Defined[i], base); err != nil {
			return b.m.wrap(typeEntryName(i, b.m.Types[i]), err)
		}
	}
	return nil
}

// attachFields resolves field types and rejects structs that contain
// themselves by value.
func (b *builder) attachFields() error {
	var labels []string
	var edges []dag.Edge
	for i, e := range b.m.Types {
		def := b.u.Defined[i]
		entry := typeEntryName(i, e)
		names := set.New[string](len(e.Fields))
		fields := make([]types.Field, 0, len(e.Fields))
		for j, fe := range e.Fields {
			if !IsValidIdent(fe.Name) {
				return b.m.errorf(entry, "field %d: invalid name %q", j, fe.Name)
			}
			if !names.Insert(fe.Name) {
				return b.m.errorf(entry, "duplicate field %q", fe.Name)
			}
			ft, err := b.res.resolveString(fe.Type, paramScope{typeArity: e.Arity})
			if err != nil {
				return b.m.wrap(entry, fmt.Errorf("field %s: %w", fe.Name, err))
			}
			var flags types.FieldFlags
			if fe.Static {
				flags |= types.FieldStatic
			}
			if fe.Literal {
				flags |= types.FieldLiteral
			}
			if fe.RVA {
				flags |= types.FieldHasRVA
			}
			fields = append(fields, types.Field{Name: fe.Name, Type: ft, Flags: flags})

			fieldDef := b.in.TypeDefinition(ft)
			if flags == 0 && b.in.IsValueType(def) && b.in.IsModuleDefined(fieldDef) && b.in.IsValueType(fieldDef) && !b.in.IsPrimitive(fieldDef) {
				edges = append(edges, dag.Edge{From: b.in.TypeLabel(fieldDef), To: b.in.TypeLabel(def)})
			}
		}
		if err := b.in.SetFields(def, fields); err != nil {
			return b.m.wrap(entry, err)
		}
		labels = append(labels, b.in.TypeLabel(def))
	}

	declared := slices.Clone(labels)
	for _, e := range edges {
		declared = append(declared, e.From)
	}
	idx := dag.BuildIndex(declared)
	g, err := dag.BuildGraph(idx, declared, edges)
	if err != nil {
		return b.m.wrap("types", err)
	}
	if err := dag.CycleError(idx, dag.ToposortKahn(g), "struct layout"); err != nil {
		return b.m.wrap("types", err)
	}
	return nil
}

func (b *builder) defineMethods() error {
	for i, e := range b.m.Methods {
		entry := fmt.Sprintf("method[%d] %s::%s", i, e.Owner, e.Name)
		owner, err := b.res.resolveString(e.Owner, paramScope{})
		if err != nil {
			return b.m.wrap(entry, fmt.Errorf("owner: %w", err))
		}
		if b.in.TypeDefinition(owner) != owner || !b.in.IsModuleDefined(owner) {
			return b.m.errorf(entry, "owner must name a type definition")
		}
		var flags types.MethodFlags
		if e.Static {
			flags |= types.MethodStatic
		}
		if e.Virtual {
			flags |= types.MethodVirtual
		}
		if e.NonVersionable {
			flags |= types.MethodNonVersionable
		}
		if _, dup := b.in.FindMethod(owner, e.Name); dup {
			return b.m.errorf(entry, "duplicate method")
		}
		id, err := b.in.DefineMethod(owner, e.Name, e.Arity, flags)
		if err != nil {
			return b.m.wrap(entry, err)
		}
		b.u.Methods = append(b.u.Methods, id)
	}
	return nil
}

func (b *builder) resolveCalls() error {
	for i, e := range b.m.Calls {
		entry := fmt.Sprintf("call[%d]", i)
		call, err := b.resolveCall(i, e)
		if err != nil {
			return b.m.wrap(entry, err)
		}
		b.u.Calls = append(b.u.Calls, call)
	}
	return nil
}

func (b *builder) resolveCall(i int, e CallEntry) (Call, error) {
	call := Call{Index: i, Unboxing: e.Unboxing, Instantiating: e.Instantiating}
	var err error
	if call.Caller, err = b.res.resolveMethod(e.Caller); err != nil {
		return Call{}, fmt.Errorf("caller: %w", err)
	}
	if !slices.Contains(b.u.Methods, b.in.TypicalMethodDefinition(call.Caller)) {
		return Call{}, fmt.Errorf("caller %s is not declared by the manifest", e.Caller)
	}
	if call.Callee, err = b.res.resolveMethod(e.Callee); err != nil {
		return Call{}, fmt.Errorf("callee: %w", err)
	}

	kindName := e.Kind
	if kindName == "" {
		kindName = r2r.FixupMethodEntry.String()
	}
	if call.Kind, err = r2r.ParseFixupKind(kindName); err != nil {
		return Call{}, err
	}
	if !call.Kind.TargetsMethod() {
		return Call{}, fmt.Errorf("fixup kind %s does not reference a method", call.Kind)
	}
	if call.Converter, err = r2r.ParseConverterKind(e.Converter); err != nil {
		return Call{}, err
	}
	if e.Constrained != "" {
		if call.Constrained, err = b.res.resolveString(e.Constrained, anyParams); err != nil {
			return Call{}, fmt.Errorf("constrained: %w", err)
		}
	}
	if e.Target != "" {
		if call.Target, err = b.res.resolveString(e.Target, anyParams); err != nil {
			return Call{}, fmt.Errorf("target: %w", err)
		}
	}

	call.Site = b.in.DefiningModule(b.in.OwningType(call.Caller))
	call.Token = b.callToken(call.Site, call.Callee)
	return call, nil
}

// callToken picks the token the site module uses for callee: its own
// MethodDef for an uninstantiated local method, a MemberRef otherwise.
func (b *builder) callToken(site types.ModuleID, callee types.MethodID) types.Token {
	if !b.in.IsArrayMethod(callee) && b.in.TypicalMethodDefinition(callee) == callee {
		if def := b.in.MethodDefToken(callee); def.Module == site {
			return def
		}
	}
	return b.in.MemberRef(site, callee)
}

// digest combines the manifest hash with the compiled module names so two
// compilations of one manifest with different module sets differ.
func (b *builder) digest() Digest {
	mods := slices.Clone(b.u.Compiled)
	b.in.SortModules(mods)
	deps := make([]Digest, 0, len(mods))
	for _, id := range mods {
		deps = append(deps, Sum([]byte(b.in.ModuleName(id))))
	}
	return Combine(b.m.Digest, deps...)
}
