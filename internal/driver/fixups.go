package driver

import (
	"context"
	"fmt"
	"slices"

	"crossgen/internal/fixup"
	"crossgen/internal/project"
	"crossgen/internal/r2r"
	"crossgen/internal/sigbuild"
	"crossgen/internal/trace"
	"crossgen/internal/types"
)

// FixupEntry is one emitted method fixup signature.
type FixupEntry struct {
	Node   *fixup.MethodFixupSignature
	Symbol string
	Kind   r2r.FixupKind
	Data   []byte
	Sites  []int // manifest call indices sharing the node
}

// FixupSet is the outcome of a fixup pass.
type FixupSet struct {
	Home    types.ModuleID
	Modules []string // module table, index 0 is the home module
	Entries []FixupEntry
	Aborted []*UnitError
}

// homeModule is the module whose metadata the image is built against: the
// first compiled module by name.
func (s *Session) homeModule() types.ModuleID {
	mods := slices.Clone(s.Universe.Compiled)
	if len(mods) == 0 {
		return types.NoModuleID
	}
	s.Universe.Types.SortModules(mods)
	return mods[0]
}

func identityOf(c project.Call) fixup.MethodIdentity {
	return fixup.MethodIdentity{
		Type: c.Target,
		Method: types.MethodWithToken{
			Method:      c.Callee,
			Token:       c.Token,
			Constrained: c.Constrained,
		},
		IsUnboxingStub:      c.Unboxing,
		IsInstantiatingStub: c.Instantiating,
		Converter:           c.Converter,
	}
}

// Fixups requests a method fixup for every call site in parallel, then
// emits the distinct nodes in sorted order. Emission is sequential so module
// table indices do not depend on scheduling.
func (s *Session) Fixups(ctx context.Context) (*FixupSet, error) {
	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "fixups", trace.CurrentSpan(ctx))
	defer span.End("")
	ctx = trace.WithSpan(ctx, span)

	u := s.Universe
	in := u.Types
	home := s.homeModule()
	table := sigbuild.NewModuleTable(home)
	sigCtx := sigbuild.NewContext(table)
	factory := fixup.NewFactory(in, fixup.NameMangler{CompilationUnitPrefix: u.Prefix})

	done := s.opts.track("collect")
	nodes := make([]*fixup.MethodFixupSignature, len(u.Calls))
	aborted, err := s.forEachUnit(ctx, "collect", len(u.Calls),
		func(i int) string { return fmt.Sprintf("call:%d", u.Calls[i].Index) },
		func(i int) {
			c := u.Calls[i]
			nodes[i] = factory.MethodSignature(c.Kind, identityOf(c), sigCtx)
		})
	if err != nil {
		done("cancelled")
		return nil, err
	}
	done(fmt.Sprintf("%d sites, %d nodes", len(u.Calls)-len(aborted), factory.Len()))

	sites := make(map[*fixup.MethodFixupSignature][]int, factory.Len())
	for i, node := range nodes {
		if node != nil {
			sites[node] = append(sites[node], u.Calls[i].Index)
		}
	}

	done = s.opts.track("emit")
	set := &FixupSet{Home: home, Aborted: aborted}
	sigs := factory.Signatures()
	progress := s.opts.startPass("emit", len(sigs))
	defer progress.finish()
	for i, node := range sigs {
		var data []byte
		err := runUnit(ctx, "emit:"+node.MangledName(), func() {
			b := sigbuild.NewBuilder(in)
			data = node.Emit(b, false).Data
		})
		progress.unit(err != nil)
		if err != nil {
			ue := err.(*UnitError)
			ue.Index = i
			set.Aborted = append(set.Aborted, ue)
			continue
		}
		set.Entries = append(set.Entries, FixupEntry{
			Node:   node,
			Symbol: node.MangledName(),
			Kind:   node.Kind(),
			Data:   data,
			Sites:  sites[node],
		})
	}
	for _, m := range table.Modules() {
		set.Modules = append(set.Modules, in.ModuleName(m))
	}
	done(fmt.Sprintf("%d signatures", len(set.Entries)))
	span.WithExtra("nodes", fmt.Sprint(len(set.Entries)))
	return set, nil
}
