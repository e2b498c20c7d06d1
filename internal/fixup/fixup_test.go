package fixup

import (
	"bytes"
	"errors"
	"slices"
	"strings"
	"testing"

	"golang.org/x/sync/errgroup"

	"crossgen/internal/r2r"
	"crossgen/internal/scope"
	"crossgen/internal/sigbuild"
	"crossgen/internal/types"
)

type world struct {
	in      *types.Interner
	a, b    types.ModuleID
	box     types.TypeID
	program types.TypeID
	get     types.MethodID
	main    types.MethodID
	ctx     sigbuild.Context
	factory *Factory
}

func newWorld(t *testing.T) *world {
	t.Helper()
	in := types.NewInterner()
	w := &world{in: in}
	var err error
	if w.a, err = in.RegisterModule("A"); err != nil {
		t.Fatal(err)
	}
	if w.b, err = in.RegisterModule("B"); err != nil {
		t.Fatal(err)
	}
	if w.box, err = in.DefineType(w.a, types.KindClass, "Coll", "Box", 1, 0); err != nil {
		t.Fatal(err)
	}
	if err := in.SetFields(w.box, []types.Field{{Name: "item", Type: in.TypeParam(0)}}); err != nil {
		t.Fatal(err)
	}
	if w.program, err = in.DefineType(w.b, types.KindClass, "App", "Program", 0, 0); err != nil {
		t.Fatal(err)
	}
	if w.get, err = in.DefineMethod(w.box, "Get", 0, 0); err != nil {
		t.Fatal(err)
	}
	if w.main, err = in.DefineMethod(w.program, "Main", 0, types.MethodStatic); err != nil {
		t.Fatal(err)
	}
	w.ctx = sigbuild.NewContext(sigbuild.NewModuleTable(w.a))
	w.factory = NewFactory(in, NameMangler{CompilationUnitPrefix: "_unit_"})
	return w
}

func (w *world) closedGet(arg types.TypeID) types.MethodID {
	return w.in.MustInstantiateMethod(w.get, w.in.MustInstantiate(w.box, arg))
}

func (w *world) identity(m types.MethodID) MethodIdentity {
	return MethodIdentity{Method: types.MethodWithToken{Method: m, Token: w.in.MethodDefToken(m)}}
}

func (w *world) emit(node *MethodFixupSignature) []byte {
	return node.Emit(sigbuild.NewBuilder(w.in), false).Data
}

func TestFactoryDeduplicatesConcurrently(t *testing.T) {
	w := newWorld(t)
	id := w.identity(w.closedGet(w.in.Builtins().Primitive(types.PrimInt32)))

	nodes := make([]*MethodFixupSignature, 32)
	var g errgroup.Group
	for i := range nodes {
		g.Go(func() error {
			nodes[i] = w.factory.MethodSignature(r2r.FixupMethodEntry, id, w.ctx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	for _, n := range nodes[1:] {
		if n != nodes[0] {
			t.Fatalf("concurrent requests produced distinct nodes")
		}
	}
	if w.factory.Len() != 1 {
		t.Fatalf("expected one node, got %d", w.factory.Len())
	}

	other := id
	other.IsUnboxingStub = true
	if w.factory.MethodSignature(r2r.FixupMethodEntry, other, w.ctx) == nodes[0] {
		t.Fatalf("stub flag must be part of the identity")
	}
	if w.factory.MethodSignature(r2r.FixupVirtualEntry, id, w.ctx) == nodes[0] {
		t.Fatalf("fixup kind must be part of the key")
	}
}

func TestEmitRelocsOnlyIsEmpty(t *testing.T) {
	w := newWorld(t)
	id := w.identity(w.get)
	id.Converter = r2r.ConverterStandardUnboxing
	node := w.factory.MethodSignature(r2r.FixupMethodEntry, id, w.ctx)

	b := sigbuild.NewBuilder(w.in)
	data := node.Emit(b, true)
	if !data.IsEmpty() || len(data.DefinedSymbols) != 0 {
		t.Fatalf("relocs-only emission must be empty, got %+v", data)
	}
	if b.Len() != 0 {
		t.Fatalf("relocs-only emission must not write")
	}
}

func TestEmitBytes(t *testing.T) {
	w := newWorld(t)
	i32 := w.in.Builtins().Primitive(types.PrimInt32)
	closed := w.identity(w.closedGet(i32))
	// owner flag, Box<int32>, MethodDef rid 1
	sig := []byte{0x40, 0x15, 0x12, 0x04, 0x01, 0x08, 0x01}

	plain := w.factory.MethodSignature(r2r.FixupMethodEntry, closed, w.ctx)
	if got, want := w.emit(plain), append([]byte{0x13}, sig...); !bytes.Equal(got, want) {
		t.Fatalf("plain = % X, want % X", got, want)
	}

	conv := closed
	conv.Converter = r2r.ConverterStandardUnboxing
	withConv := w.factory.MethodSignature(r2r.FixupMethodEntry, conv, w.ctx)
	if got, want := w.emit(withConv), append([]byte{0x37, 0x07, 0x13}, sig...); !bytes.Equal(got, want) {
		t.Fatalf("converter = % X, want % X", got, want)
	}

	foreignCtx := sigbuild.NewContext(sigbuild.NewModuleTable(w.b))
	foreign := NewFactory(w.in, NameMangler{}).MethodSignature(r2r.FixupMethodEntry, conv, foreignCtx)
	if got, want := w.emit(foreign), append([]byte{0xB7, 0x01, 0x07, 0x13}, sig...); !bytes.Equal(got, want) {
		t.Fatalf("foreign converter = % X, want % X", got, want)
	}

	data := plain.Emit(sigbuild.NewBuilder(w.in), false)
	if len(data.DefinedSymbols) != 1 || data.DefinedSymbols[0].MangledName() != plain.MangledName() {
		t.Fatalf("node must define itself as a symbol")
	}
}

func TestUniversalCanonicalEmitsTypicalDefinition(t *testing.T) {
	w := newWorld(t)
	universal := w.closedGet(w.in.Builtins().UniversalCanon)
	node := w.factory.MethodSignature(r2r.FixupMethodEntry, w.identity(universal), w.ctx)
	typical := w.factory.MethodSignature(r2r.FixupMethodEntry, w.identity(w.get), w.ctx)

	got := w.emit(node)
	if want := w.emit(typical); !bytes.Equal(got, want) {
		t.Fatalf("universal form = % X, typical = % X", got, want)
	}
	if node == typical {
		t.Fatalf("the rewrite must not merge identities")
	}

	conv := w.identity(universal)
	conv.Converter = r2r.ConverterGenericToStandard
	if got := w.emit(w.factory.MethodSignature(r2r.FixupMethodEntry, conv, w.ctx)); bytes.IndexByte(got, 0x3E) >= 0 {
		t.Fatalf("converter path must apply the rewrite too: % X", got)
	}
}

func TestMangledName(t *testing.T) {
	w := newWorld(t)
	id := w.identity(w.closedGet(w.in.Builtins().Primitive(types.PrimInt32)))
	id.IsUnboxingStub = true
	id.IsInstantiatingStub = true
	id.Converter = r2r.ConverterStandardUnboxing

	got := w.factory.MethodSignature(r2r.FixupMethodEntry, id, w.ctx).MangledName()
	want := "_unit_MethodFixupSignature(MethodEntry [UNBOX] [INST] [StandardUnboxing]: [A]Coll.Box`1<int32>::Get; A:06000001)"
	if got != want {
		t.Fatalf("MangledName:\n got %s\nwant %s", got, want)
	}

	plain := w.identity(w.get)
	name := w.factory.MethodSignature(r2r.FixupVirtualEntry, plain, w.ctx).MangledName()
	if strings.Contains(name, "[UNBOX]") || strings.Contains(name, "[INST]") {
		t.Fatalf("unexpected stub markers in %s", name)
	}
	if !strings.HasPrefix(name, "_unit_MethodFixupSignature(VirtualEntry: ") {
		t.Fatalf("unexpected name %s", name)
	}

	targeted := w.identity(w.get)
	targeted.Type = w.program
	untyped := w.factory.MethodSignature(r2r.FixupMethodEntry, w.identity(w.get), w.ctx)
	typed := w.factory.MethodSignature(r2r.FixupMethodEntry, targeted, w.ctx)
	if typed == untyped {
		t.Fatalf("target type must be part of the node key")
	}
	want = "_unit_MethodFixupSignature(MethodEntry: [A]Coll.Box`1::Get on [B]App.Program; A:06000001)"
	if got := typed.MangledName(); got != want {
		t.Fatalf("MangledName:\n got %s\nwant %s", got, want)
	}
	if typed.MangledName() == untyped.MangledName() {
		t.Fatalf("distinct nodes share symbol %s", typed.MangledName())
	}
}

func TestCompareIsTotalAndInjective(t *testing.T) {
	w := newWorld(t)
	builtins := w.in.Builtins()
	i32 := builtins.Primitive(types.PrimInt32)

	var ids []MethodIdentity
	for _, m := range []types.MethodID{w.get, w.closedGet(i32), w.closedGet(builtins.Object), w.main} {
		base := w.identity(m)
		ids = append(ids, base)
		unbox := base
		unbox.IsUnboxingStub = true
		ids = append(ids, unbox)
		inst := base
		inst.IsInstantiatingStub = true
		ids = append(ids, inst)
		conv := base
		conv.Converter = r2r.ConverterStandardToGeneric
		ids = append(ids, conv)
		ref := base
		ref.Method.Token = w.in.MemberRef(w.b, m)
		ids = append(ids, ref)
		constrained := base
		constrained.Method.Constrained = w.program
		ids = append(ids, constrained)
		target := base
		target.Type = w.program
		ids = append(ids, target)
	}
	var nodes []*MethodFixupSignature
	for _, kind := range []r2r.FixupKind{r2r.FixupMethodEntry, r2r.FixupVirtualEntry} {
		for _, id := range ids {
			nodes = append(nodes, w.factory.MethodSignature(kind, id, w.ctx))
		}
	}

	symbols := make(map[string]*MethodFixupSignature, len(nodes))
	for _, n := range nodes {
		if prev, ok := symbols[n.MangledName()]; ok && prev != n {
			t.Fatalf("distinct nodes share symbol %s", n.MangledName())
		}
		symbols[n.MangledName()] = n
	}

	for _, a := range nodes {
		for _, b := range nodes {
			ab, ba := Compare(a, b), Compare(b, a)
			if ab != -ba {
				t.Fatalf("not antisymmetric: %s vs %s", a, b)
			}
			if (ab == 0) != (a == b) {
				t.Fatalf("zero must mean same node: %s vs %s", a, b)
			}
			for _, c := range nodes {
				if ab < 0 && Compare(b, c) < 0 && Compare(a, c) >= 0 {
					t.Fatalf("not transitive: %s < %s < %s", a, b, c)
				}
			}
		}
	}

	sorted := slices.Clone(nodes)
	SortSignatures(sorted)
	reversed := slices.Clone(nodes)
	slices.Reverse(reversed)
	SortSignatures(reversed)
	if !slices.Equal(sorted, reversed) {
		t.Fatalf("sort depends on input order")
	}
	if !slices.Equal(sorted, w.factory.Signatures()) {
		t.Fatalf("factory must return nodes in sorted order")
	}
}

func TestFactoryRejectsInvalidRequests(t *testing.T) {
	w := newWorld(t)
	id := w.identity(w.get)

	cases := map[string]func(){
		"non-method kind": func() { w.factory.MethodSignature(r2r.FixupTypeHandle, id, w.ctx) },
		"override bit":    func() { w.factory.MethodSignature(r2r.FixupMethodEntry|r2r.FixupModuleOverride, id, w.ctx) },
		"context mismatch": func() {
			w.factory.MethodSignature(r2r.FixupMethodEntry, id, w.ctx)
			w.factory.MethodSignature(r2r.FixupMethodEntry, id, w.ctx.WithHome(w.b))
		},
	}
	for name, fn := range cases {
		t.Run(name, func(t *testing.T) {
			defer func() {
				r := recover()
				err, ok := r.(error)
				var inv *types.InvariantError
				if !ok || !errors.As(err, &inv) {
					t.Fatalf("expected invariant panic, got %v", r)
				}
				if name == "context mismatch" && !strings.Contains(inv.Detail, id.Describe(w.in)) {
					t.Fatalf("panic must describe the identity: %s", inv.Detail)
				}
			}()
			fn()
		})
	}
}

// Two modules compiled together: A defines Box<T>, B calls Box<int32>::Get
// from two call sites.
func TestCrossModuleCallSitesShareOneNode(t *testing.T) {
	w := newWorld(t)
	group, err := scope.New(scope.Config{
		Mode:     scope.ModeSingleModule,
		Types:    w.in,
		Compiled: []types.ModuleID{w.a, w.b},
	})
	if err != nil {
		t.Fatal(err)
	}
	i32 := w.in.Builtins().Primitive(types.PrimInt32)
	boxInt := w.in.MustInstantiate(w.box, i32)
	if !group.ContainsTypeLayout(boxInt) {
		t.Fatalf("Box<int32> layout must be contained")
	}
	if !group.CanInline(w.main, w.closedGet(i32)) {
		t.Fatalf("B may inline A's code when both are compiled")
	}

	callee := w.closedGet(i32)
	ctx := sigbuild.NewContext(sigbuild.NewModuleTable(w.b))
	site := func() *MethodFixupSignature {
		tok := w.in.MemberRef(w.b, callee)
		return w.factory.MethodSignature(r2r.FixupMethodEntry, MethodIdentity{
			Method: types.MethodWithToken{Method: callee, Token: tok},
		}, ctx)
	}
	first, second := site(), site()
	if first != second {
		t.Fatalf("both call sites must share one node")
	}
	if !bytes.Equal(w.emit(first), w.emit(second)) || first.MangledName() != second.MangledName() {
		t.Fatalf("shared node must emit identically")
	}
}
