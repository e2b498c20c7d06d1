package layout

import (
	"testing"

	"golang.org/x/sync/errgroup"

	"crossgen/internal/types"
)

type moduleScope struct {
	in      *types.Interner
	modules map[types.ModuleID]bool
}

func (s moduleScope) ContainsType(t types.TypeID) bool {
	return s.in.IsModuleDefined(t) && s.modules[s.in.DefiningModule(t)]
}

type universe struct {
	in       *types.Interner
	compiled types.ModuleID
	external types.ModuleID
}

func newUniverse(t *testing.T) *universe {
	t.Helper()
	in := types.NewInterner()
	a, err := in.RegisterModule("A")
	if err != nil {
		t.Fatal(err)
	}
	x, err := in.RegisterModule("X")
	if err != nil {
		t.Fatal(err)
	}
	return &universe{in: in, compiled: a, external: x}
}

func (u *universe) define(t *testing.T, module types.ModuleID, kind types.Kind, name string, arity int) types.TypeID {
	t.Helper()
	id, err := u.in.DefineType(module, kind, "", name, arity, 0)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func (u *universe) fields(t *testing.T, def types.TypeID, fields ...types.Field) {
	t.Helper()
	if err := u.in.SetFields(def, fields); err != nil {
		t.Fatal(err)
	}
}

func (u *universe) oracle() *Oracle {
	return New(u.in, moduleScope{in: u.in, modules: map[types.ModuleID]bool{u.compiled: true}})
}

func TestTriviallyContainedTypes(t *testing.T) {
	u := newUniverse(t)
	extStruct := u.define(t, u.external, types.KindValueType, "S", 0)
	extEnum := u.define(t, u.external, types.KindEnum, "E", 0)
	extClass := u.define(t, u.external, types.KindClass, "C", 0)
	o := New(u.in, moduleScope{in: u.in, modules: map[types.ModuleID]bool{}})
	b := u.in.Builtins()

	cases := map[string]types.TypeID{
		"primitive":      b.Primitive(types.PrimInt32),
		"object":         b.Object,
		"external value": extStruct,
		"external enum":  extEnum,
		"pointer":        u.in.PointerTo(extClass),
		"fnptr":          u.in.FnPtrOf(extClass, extClass),
		"canon":          b.Canon,
		"universal":      b.UniversalCanon,
	}
	for name, id := range cases {
		if !o.ContainsTypeLayout(id) {
			t.Errorf("%s: expected contained layout", name)
		}
	}
	if o.ContainsTypeLayout(extClass) {
		t.Errorf("external class must not be contained")
	}
}

func TestContainmentFollowsDefinitionAndFields(t *testing.T) {
	u := newUniverse(t)
	b := u.in.Builtins()
	extClass := u.define(t, u.external, types.KindClass, "Ext", 0)
	u.fields(t, extClass, types.Field{Name: "n", Type: b.Primitive(types.PrimInt32)})

	plain := u.define(t, u.compiled, types.KindClass, "Plain", 0)
	u.fields(t, plain, types.Field{Name: "n", Type: b.Primitive(types.PrimInt64)}, types.Field{Name: "o", Type: b.Object})

	holder := u.define(t, u.compiled, types.KindClass, "Holder", 0)
	u.fields(t, holder, types.Field{Name: "ext", Type: extClass})

	statics := u.define(t, u.compiled, types.KindClass, "Statics", 0)
	u.fields(t, statics,
		types.Field{Name: "shared", Type: extClass, Flags: types.FieldStatic},
		types.Field{Name: "constant", Type: extClass, Flags: types.FieldLiteral},
		types.Field{Name: "blob", Type: extClass, Flags: types.FieldHasRVA},
	)

	derived := u.define(t, u.compiled, types.KindClass, "Derived", 0)
	if err := u.in.SetBase(derived, extClass); err != nil {
		t.Fatal(err)
	}

	o := u.oracle()
	if o.ContainsTypeLayout(extClass) {
		t.Errorf("definition outside the compiled set must fail regardless of its fields")
	}
	if !o.ContainsTypeLayout(plain) {
		t.Errorf("compiled class with core-typed fields must be contained")
	}
	if o.ContainsTypeLayout(holder) {
		t.Errorf("instance field of external class type must fail")
	}
	if !o.ContainsTypeLayout(statics) {
		t.Errorf("static, literal and RVA fields do not affect instance layout")
	}
	if o.ContainsTypeLayout(derived) {
		t.Errorf("external base type must fail")
	}
	if o.ContainsTypeLayout(u.in.ArrayOf(b.Primitive(types.PrimInt32))) {
		t.Errorf("arrays resolve to the core Array type, which is not compiled here")
	}
}

func TestSelfReferenceTerminatesAndCaches(t *testing.T) {
	u := newUniverse(t)
	node := u.define(t, u.compiled, types.KindClass, "Node", 0)
	u.fields(t, node, types.Field{Name: "next", Type: node}, types.Field{Name: "raw", Type: u.in.PointerTo(node)})

	o := u.oracle()
	if !o.ContainsTypeLayout(node) {
		t.Fatalf("self-referential compiled type must be contained")
	}
	if got, ok := o.cache.get(node); !ok || !got {
		t.Fatalf("completed answer must be cached as true, got %v/%v", got, ok)
	}
}

func TestCycleDoesNotPoisonCache(t *testing.T) {
	u := newUniverse(t)
	ext := u.define(t, u.external, types.KindClass, "Ext", 0)
	outer := u.define(t, u.compiled, types.KindClass, "Outer", 0)
	inner := u.define(t, u.compiled, types.KindClass, "Inner", 0)
	u.fields(t, outer, types.Field{Name: "inner", Type: inner}, types.Field{Name: "ext", Type: ext})
	u.fields(t, inner, types.Field{Name: "outer", Type: outer})

	o := u.oracle()
	if o.ContainsTypeLayout(outer) {
		t.Fatalf("Outer embeds an external class")
	}
	if got, ok := o.cache.get(inner); ok && got {
		t.Fatalf("provisional answer for Inner leaked into the cache")
	}
	if o.ContainsTypeLayout(inner) {
		t.Fatalf("Inner embeds Outer, which is not contained")
	}
}

func TestCycleThroughInstantiation(t *testing.T) {
	u := newUniverse(t)
	base := u.define(t, u.compiled, types.KindClass, "Base", 1)
	u.fields(t, base, types.Field{Name: "self", Type: u.in.TypeParam(0)})
	tree := u.define(t, u.compiled, types.KindClass, "Tree", 0)
	if err := u.in.SetBase(tree, u.in.MustInstantiate(base, tree)); err != nil {
		t.Fatal(err)
	}

	o := u.oracle()
	if !o.ContainsTypeLayout(tree) {
		t.Fatalf("Tree : Base<Tree> must terminate as contained")
	}
	if !o.ContainsTypeLayout(u.in.MustInstantiate(base, tree)) {
		t.Fatalf("Base<Tree> must be contained once Tree is")
	}
}

func TestGenericInstantiations(t *testing.T) {
	u := newUniverse(t)
	b := u.in.Builtins()
	ext := u.define(t, u.external, types.KindClass, "Ext", 0)
	box := u.define(t, u.compiled, types.KindClass, "Box", 1)
	u.fields(t, box, types.Field{Name: "item", Type: u.in.TypeParam(0)})

	o := u.oracle()
	if !o.ContainsTypeLayout(u.in.MustInstantiate(box, b.Primitive(types.PrimInt32))) {
		t.Errorf("Box<int32> must be contained")
	}
	if o.ContainsTypeLayout(u.in.MustInstantiate(box, ext)) {
		t.Errorf("Box<Ext> depends on an external argument")
	}
	if o.ContainsTypeLayout(box) {
		t.Errorf("the open definition depends on an unbound parameter")
	}

	extBox := u.define(t, u.external, types.KindClass, "ExtBox", 1)
	if o.ContainsTypeLayout(u.in.MustInstantiate(extBox, b.Primitive(types.PrimInt32))) {
		t.Errorf("instantiation of an external definition must fail")
	}
}

func TestConcurrentQueriesAgree(t *testing.T) {
	u := newUniverse(t)
	ext := u.define(t, u.external, types.KindClass, "Ext", 0)
	var ids []types.TypeID
	prev := ext
	for i := 0; i < 16; i++ {
		id := u.define(t, u.compiled, types.KindClass, "C"+string(rune('a'+i)), 0)
		u.fields(t, id, types.Field{Name: "self", Type: id})
		if i%4 == 0 {
			u.fields(t, id, types.Field{Name: "prev", Type: prev}, types.Field{Name: "self", Type: id})
		}
		prev = id
		ids = append(ids, id)
	}

	want := make(map[types.TypeID]bool, len(ids))
	seq := u.oracle()
	for _, id := range ids {
		want[id] = seq.ContainsTypeLayout(id)
	}

	shared := u.oracle()
	var g errgroup.Group
	for w := 0; w < 8; w++ {
		g.Go(func() error {
			for i := range ids {
				id := ids[(i+w)%len(ids)]
				if got := shared.ContainsTypeLayout(id); got != want[id] {
					t.Errorf("type#%d: concurrent=%v sequential=%v", id, got, want[id])
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if shared.cachedLen() == 0 {
		t.Fatalf("expected memoized answers")
	}
}
