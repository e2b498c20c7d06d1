package scope

import (
	"errors"
	"slices"
	"testing"

	"crossgen/internal/types"
)

type fixture struct {
	in      *types.Interner
	a, b, x types.ModuleID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	in := types.NewInterner()
	f := &fixture{in: in}
	for name, dst := range map[string]*types.ModuleID{"A": &f.a, "B": &f.b, "X": &f.x} {
		id, err := in.RegisterModule(name)
		if err != nil {
			t.Fatal(err)
		}
		*dst = id
	}
	return f
}

func (f *fixture) class(t *testing.T, module types.ModuleID, name string, arity int) types.TypeID {
	t.Helper()
	id, err := f.in.DefineType(module, types.KindClass, "", name, arity, 0)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func (f *fixture) method(t *testing.T, owner types.TypeID, name string, arity int, flags types.MethodFlags) types.MethodID {
	t.Helper()
	id, err := f.in.DefineMethod(owner, name, arity, flags)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func (f *fixture) group() *SingleModuleGroup {
	return NewSingleModuleGroup(f.in, []types.ModuleID{f.a}, []types.ModuleID{f.b})
}

func TestBubbleIncludesCompiledModules(t *testing.T) {
	f := newFixture(t)
	g := f.group()

	compiled := g.CompiledModules()
	bubble := g.VersionBubbleModules()
	for _, m := range compiled {
		if !slices.Contains(bubble, m) {
			t.Fatalf("compiled module %s missing from bubble", f.in.ModuleName(m))
		}
	}
	if !slices.Contains(compiled, f.in.Builtins().GeneratedModule) {
		t.Fatalf("generated module must always be compiled")
	}
	if !slices.Contains(bubble, f.b) || slices.Contains(compiled, f.b) {
		t.Fatalf("B belongs to the bubble only")
	}
	if slices.Contains(bubble, f.x) {
		t.Fatalf("X is outside the bubble")
	}
}

func TestContainsTypeAndBody(t *testing.T) {
	f := newFixture(t)
	b := f.in.Builtins()
	local := f.class(t, f.a, "Local", 0)
	bubbled := f.class(t, f.b, "Bubbled", 0)
	ext := f.class(t, f.x, "Ext", 0)
	run := f.method(t, local, "Run", 0, 0)
	g := f.group()

	tests := []struct {
		name     string
		id       types.TypeID
		contains bool
		versions bool
	}{
		{"local", local, true, true},
		{"bubbled", bubbled, false, true},
		{"external", ext, false, false},
		{"primitive", b.Primitive(types.PrimInt32), false, false},
		{"array", f.in.ArrayOf(local), false, false},
		{"pointer", f.in.PointerTo(local), false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.ContainsType(tt.id); got != tt.contains {
				t.Fatalf("ContainsType = %v, want %v", got, tt.contains)
			}
			if got := g.ContainsTypeDictionary(tt.id); got != tt.contains {
				t.Fatalf("ContainsTypeDictionary = %v, want %v", got, tt.contains)
			}
			if got := g.VersionsWithType(tt.id); got != tt.versions {
				t.Fatalf("VersionsWithType = %v, want %v", got, tt.versions)
			}
		})
	}

	if !g.ContainsMethodBody(run, false) || !g.ContainsMethodBody(run, true) {
		t.Fatalf("Local::Run body must be compiled")
	}
	get, err := f.in.ArrayMethod(f.in.ArrayOf(local), types.ArrayGet)
	if err != nil {
		t.Fatal(err)
	}
	if g.ContainsMethodBody(get, false) {
		t.Fatalf("array accessors are never compiled")
	}
}

func TestCanInline(t *testing.T) {
	f := newFixture(t)
	b := f.in.Builtins()
	local := f.class(t, f.a, "Local", 0)
	bubbled := f.class(t, f.b, "Bubbled", 0)
	ext := f.class(t, f.x, "Ext", 0)
	box := f.class(t, f.a, "Box", 1)

	caller := f.method(t, local, "Caller", 0, 0)
	extCaller := f.method(t, ext, "Caller", 0, 0)
	bubbleCallee := f.method(t, bubbled, "Callee", 0, 0)
	extCallee := f.method(t, ext, "Callee", 0, 0)
	extStable := f.method(t, ext, "Stable", 0, types.MethodNonVersionable)
	boxGet := f.method(t, box, "Get", 0, 0)
	universal := f.in.MustInstantiateMethod(boxGet, f.in.MustInstantiate(box, b.UniversalCanon))

	g := f.group()
	tests := []struct {
		name           string
		caller, callee types.MethodID
		want           bool
	}{
		{"bubble to bubble", caller, bubbleCallee, true},
		{"into external", caller, extCallee, false},
		{"non-versionable external", caller, extStable, true},
		{"external caller", extCaller, bubbleCallee, false},
		{"universal canonical callee", caller, universal, false},
	}
	for _, tt := range tests {
		if got := g.CanInline(tt.caller, tt.callee); got != tt.want {
			t.Errorf("%s: CanInline = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSingleModuleConstants(t *testing.T) {
	f := newFixture(t)
	local := f.class(t, f.a, "Local", 0)
	run := f.method(t, local, "Run", 0, 0)
	g := f.group()

	if g.ImportsMethod(run, false) || g.IsSingleFileCompilation() ||
		g.ShouldReferenceThroughImportTable(local) || g.CanHaveReferenceThroughImportTable() ||
		g.ShouldProduceFullVTable(local) || g.ShouldPromoteToFullType(local) ||
		g.PresenceOfEETypeImpliesAllMethodsOnType(local) {
		t.Fatalf("single-module policy must answer false")
	}
	if g.ExportTypeForm(local) != ExportNone || g.ExportTypeFormDictionary(local) != ExportNone ||
		g.ExportMethodForm(run, false) != ExportNone || g.ExportMethodDictionaryForm(run) != ExportNone {
		t.Fatalf("single-module policy exports nothing")
	}
}

func TestContainsMethodDictionaryRequiresExactInstantiation(t *testing.T) {
	f := newFixture(t)
	b := f.in.Builtins()
	local := f.class(t, f.a, "Local", 0)
	box := f.class(t, f.a, "Box", 1)
	get := f.method(t, box, "Get", 0, 0)
	g := f.group()

	exact := f.in.MustInstantiateMethod(get, f.in.MustInstantiate(box, local))
	if !g.ContainsMethodDictionary(exact) {
		t.Fatalf("Box<Local>::Get dictionary must be compiled")
	}

	shared := f.in.MustInstantiateMethod(get, f.in.MustInstantiate(box, b.Canon))
	defer func() {
		r := recover()
		var inv *types.InvariantError
		err, ok := r.(error)
		if !ok || !errors.As(err, &inv) {
			t.Fatalf("expected invariant panic, got %v", r)
		}
	}()
	g.ContainsMethodDictionary(shared)
}

func TestLayoutQueryUsesCompiledSet(t *testing.T) {
	f := newFixture(t)
	ext := f.class(t, f.x, "Ext", 0)
	c := f.class(t, f.a, "C", 0)
	if err := f.in.SetFields(c, []types.Field{{Name: "e", Type: ext}}); err != nil {
		t.Fatal(err)
	}
	plain := f.class(t, f.a, "Plain", 0)
	g := f.group()

	if g.ContainsTypeLayout(c) {
		t.Fatalf("C embeds a reference to an external class")
	}
	if !g.ContainsTypeLayout(plain) {
		t.Fatalf("Plain has no fields outside the compilation")
	}
}

func TestNewRejectsUnsupportedModes(t *testing.T) {
	in := types.NewInterner()
	if _, err := New(Config{Mode: ModeSingleModule, Types: in}); err != nil {
		t.Fatalf("single-module mode: %v", err)
	}
	for _, mode := range []Mode{ModeMultiModule, ModeComposite} {
		if _, err := New(Config{Mode: mode, Types: in}); !errors.Is(err, ErrUnsupportedMode) {
			t.Fatalf("%s: expected ErrUnsupportedMode, got %v", mode, err)
		}
	}
	if _, err := ParseMode("bogus"); err == nil {
		t.Fatalf("expected parse error")
	}
}
