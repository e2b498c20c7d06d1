package sigbuild

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"golang.org/x/sync/errgroup"

	"crossgen/internal/r2r"
	"crossgen/internal/types"
)

type world struct {
	in   *types.Interner
	a, b types.ModuleID
	box  types.TypeID
	pair types.TypeID
	get  types.MethodID
	ctx  Context
}

func newWorld(t *testing.T) *world {
	t.Helper()
	in := types.NewInterner()
	a, err := in.RegisterModule("A")
	if err != nil {
		t.Fatal(err)
	}
	b, err := in.RegisterModule("B")
	if err != nil {
		t.Fatal(err)
	}
	box, err := in.DefineType(a, types.KindClass, "Coll", "Box", 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	pair, err := in.DefineType(b, types.KindValueType, "Data", "Pair", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	get, err := in.DefineMethod(box, "Get", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	return &world{in: in, a: a, b: b, box: box, pair: pair, get: get, ctx: NewContext(NewModuleTable(a))}
}

func expectInvariantPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		err, ok := r.(error)
		var inv *types.InvariantError
		if !ok || !errors.As(err, &inv) {
			t.Fatalf("expected invariant panic, got %v", r)
		}
	}()
	fn()
}

func TestEmitUintCompressed(t *testing.T) {
	tests := []struct {
		v    uint32
		want []byte
	}{
		{0x00, []byte{0x00}},
		{0x03, []byte{0x03}},
		{0x7F, []byte{0x7F}},
		{0x80, []byte{0x80, 0x80}},
		{0x2E57, []byte{0xAE, 0x57}},
		{0x3FFF, []byte{0xBF, 0xFF}},
		{0x4000, []byte{0xC0, 0x00, 0x40, 0x00}},
		{0x1FFFFFFF, []byte{0xDF, 0xFF, 0xFF, 0xFF}},
	}
	for _, tt := range tests {
		b := NewBuilder(types.NewInterner())
		b.EmitUint(tt.v)
		if got := b.ObjectData().Data; !bytes.Equal(got, tt.want) {
			t.Errorf("EmitUint(%#x) = % X, want % X", tt.v, got, tt.want)
		}
	}
	expectInvariantPanic(t, func() { NewBuilder(types.NewInterner()).EmitUint(0x20000000) })
}

func TestEmitFixupModuleOverride(t *testing.T) {
	w := newWorld(t)
	c, err := w.in.RegisterModule("C")
	if err != nil {
		t.Fatal(err)
	}

	b := NewBuilder(w.in)
	inner := b.EmitFixup(r2r.FixupMethodEntry, w.a, w.ctx)
	if inner != w.ctx {
		t.Fatalf("home-module fixup must keep the context")
	}
	if got := b.ObjectData().Data; !bytes.Equal(got, []byte{0x13}) {
		t.Fatalf("home fixup = % X", got)
	}

	b = NewBuilder(w.in)
	inner = b.EmitFixup(r2r.FixupMethodEntry, w.b, w.ctx)
	if inner.Home != w.b {
		t.Fatalf("foreign fixup must switch the context to B")
	}
	b.EmitFixup(r2r.FixupMethodEntry, c, w.ctx)
	b.EmitFixup(r2r.FixupMethodEntry, w.b, w.ctx)
	want := []byte{0x93, 0x01, 0x93, 0x02, 0x93, 0x01}
	if got := b.ObjectData().Data; !bytes.Equal(got, want) {
		t.Fatalf("foreign fixups = % X, want % X", got, want)
	}
}

func TestEmitTypeSignature(t *testing.T) {
	w := newWorld(t)
	builtins := w.in.Builtins()
	i32 := builtins.Primitive(types.PrimInt32)

	tests := []struct {
		name string
		id   types.TypeID
		want []byte
	}{
		{"int32", i32, []byte{0x08}},
		{"object", builtins.Object, []byte{0x1C}},
		{"string", builtins.String, []byte{0x0E}},
		{"box of int32", w.in.MustInstantiate(w.box, i32), []byte{0x15, 0x12, 0x04, 0x01, 0x08}},
		{"foreign struct", w.pair, []byte{0x3F, 0x01, 0x11, 0x04}},
		{"array", w.in.ArrayOf(i32), []byte{0x1D, 0x08}},
		{"pointer", w.in.PointerTo(w.pair), []byte{0x0F, 0x3F, 0x01, 0x11, 0x04}},
		{"canon", builtins.Canon, []byte{0x3E}},
		{"type param", w.in.TypeParam(0), []byte{0x13, 0x00}},
		{"method param", w.in.MethodParam(1), []byte{0x1E, 0x01}},
		{"fnptr", w.in.FnPtrOf(builtins.Primitive(types.PrimVoid), i32), []byte{0x1B, 0x00, 0x01, 0x01, 0x08}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder(w.in)
			b.EmitTypeSignature(tt.id, w.ctx)
			if got := b.ObjectData().Data; !bytes.Equal(got, tt.want) {
				t.Fatalf("got % X, want % X", got, tt.want)
			}
		})
	}

	expectInvariantPanic(t, func() {
		NewBuilder(w.in).EmitTypeSignature(builtins.UniversalCanon, w.ctx)
	})
}

func TestEmitMethodSignature(t *testing.T) {
	w := newWorld(t)
	i32 := w.in.Builtins().Primitive(types.PrimInt32)
	closed := w.in.MustInstantiateMethod(w.get, w.in.MustInstantiate(w.box, i32))

	emit := func(m types.MethodWithToken, enforceDef, unbox, inst bool) []byte {
		b := NewBuilder(w.in)
		b.EmitMethodSignature(m, enforceDef, w.ctx, unbox, inst)
		return b.ObjectData().Data
	}

	if got := emit(w.in.WithDefToken(w.get), false, false, false); !bytes.Equal(got, []byte{0x00, 0x01}) {
		t.Fatalf("typical method = % X", got)
	}
	closedDef := types.MethodWithToken{Method: closed, Token: w.in.MethodDefToken(w.get)}
	if got, want := emit(closedDef, false, false, false), []byte{0x40, 0x15, 0x12, 0x04, 0x01, 0x08, 0x01}; !bytes.Equal(got, want) {
		t.Fatalf("instantiated owner = % X, want % X", got, want)
	}
	if got := emit(closedDef, false, true, true); got[0] != 0x43 {
		t.Fatalf("stub flags = %#x, want 0x43", got[0])
	}

	ref := types.MethodWithToken{Method: closed, Token: w.in.MemberRef(w.a, closed)}
	if got := emit(ref, false, false, false); got[0] != 0x50 {
		t.Fatalf("member ref flags = %#x, want 0x50", got[0])
	}
	if got := emit(ref, true, false, false); got[0] != 0x40 {
		t.Fatalf("enforced def encoding flags = %#x, want 0x40", got[0])
	}

	foreign := types.MethodWithToken{Method: closed, Token: w.in.MemberRef(w.b, closed)}
	got := emit(foreign, false, false, false)
	// flags 0xD0 take two bytes; the owner is then encoded from B's context
	want := []byte{0x80, 0xD0, 0x01, 0x3F, 0x00, 0x15, 0x12, 0x04, 0x01, 0x08, 0x01}
	if !bytes.Equal(got, want) {
		t.Fatalf("update context = % X, want % X", got, want)
	}
}

func TestEmitMethodSignatureConstrained(t *testing.T) {
	w := newWorld(t)
	m := w.in.WithDefToken(w.get)
	m.Constrained = w.pair

	b := NewBuilder(w.in)
	b.EmitMethodSignature(m, false, w.ctx, false, false)
	want := []byte{0x20, 0x01, 0x3F, 0x01, 0x11, 0x04}
	if got := b.ObjectData().Data; !bytes.Equal(got, want) {
		t.Fatalf("got % X, want % X", got, want)
	}
}

type namedSymbol string

func (s namedSymbol) MangledName() string { return string(s) }

func TestObjectDataCarriesSymbols(t *testing.T) {
	b := NewBuilder(types.NewInterner())
	b.AddSymbol(namedSymbol("node"))
	b.EmitByte(0x13)
	data := b.ObjectData()
	if len(data.DefinedSymbols) != 1 || data.DefinedSymbols[0].MangledName() != "node" {
		t.Fatalf("defined symbols = %v", data.DefinedSymbols)
	}
	if data.IsEmpty() || data.Alignment != 1 {
		t.Fatalf("unexpected object data %+v", data)
	}
	data.Data[0] = 0xFF
	if b.ObjectData().Data[0] != 0x13 {
		t.Fatalf("object data must not alias the builder")
	}
}

func TestModuleTableConcurrentIndex(t *testing.T) {
	in := types.NewInterner()
	var mods []types.ModuleID
	for i := 0; i < 32; i++ {
		id, err := in.RegisterModule(fmt.Sprintf("M%02d", i))
		if err != nil {
			t.Fatal(err)
		}
		mods = append(mods, id)
	}
	table := NewModuleTable(mods[0])

	results := make([][]uint32, 8)
	var g errgroup.Group
	for w := range results {
		g.Go(func() error {
			out := make([]uint32, len(mods))
			for i := range mods {
				j := (i + w*5) % len(mods)
				out[j] = table.Index(mods[j])
			}
			results[w] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	for w := 1; w < len(results); w++ {
		for i := range mods {
			if results[w][i] != results[0][i] {
				t.Fatalf("module %d got indices %d and %d", i, results[0][i], results[w][i])
			}
		}
	}
	if results[0][0] != 0 {
		t.Fatalf("home module must be index 0")
	}
	if table.Len() != len(mods) {
		t.Fatalf("expected %d dense indices, got %d", len(mods), table.Len())
	}
	for idx, m := range table.Modules() {
		if got := table.Index(m); int(got) != idx {
			t.Fatalf("module #%d: index %d, position %d", m, got, idx)
		}
	}
}
