// Package scope decides what belongs to the compilation: which types and
// method bodies are compiled, which binary-shape assumptions may be baked in,
// and whether inlining across module boundaries is legal.
//
// Every predicate is an ordinary answer. A negative answer means the caller
// takes its fallback (indirection, loader resolution, no inlining).
package scope

import (
	"errors"
	"fmt"

	"crossgen/internal/types"
)

// ExportForm describes how a type or method is exposed to other compilations.
type ExportForm uint8

const (
	ExportNone ExportForm = iota
	ExportDirect
	ExportViaCanonical
)

func (f ExportForm) String() string {
	switch f {
	case ExportNone:
		return "none"
	case ExportDirect:
		return "direct"
	case ExportViaCanonical:
		return "via-canonical"
	default:
		return fmt.Sprintf("ExportForm(%d)", f)
	}
}

// Containment answers whether types and bodies are compiled here.
type Containment interface {
	ContainsType(t types.TypeID) bool
	ContainsTypeDictionary(t types.TypeID) bool
	ContainsMethodBody(m types.MethodID, unboxingStub bool) bool
	ContainsMethodDictionary(m types.MethodID) bool
}

// Versioning answers whether binary shape may be assumed fixed.
type Versioning interface {
	VersionsWithType(t types.TypeID) bool
	VersionsWithMethodBody(m types.MethodID) bool
}

// Inlining answers whether a callee body may be inlined into a caller.
type Inlining interface {
	CanInline(caller, callee types.MethodID) bool
}

// LayoutPolicy answers whether field offsets of a type may be baked in.
type LayoutPolicy interface {
	ContainsTypeLayout(t types.TypeID) bool
}

// Exports covers the import/export and vtable shape queries used by
// multi-module variants.
type Exports interface {
	ImportsMethod(m types.MethodID, unboxingStub bool) bool
	ExportTypeForm(t types.TypeID) ExportForm
	ExportTypeFormDictionary(t types.TypeID) ExportForm
	ExportMethodForm(m types.MethodID, unboxingStub bool) ExportForm
	ExportMethodDictionaryForm(m types.MethodID) ExportForm
	IsSingleFileCompilation() bool
	ShouldReferenceThroughImportTable(t types.TypeID) bool
	CanHaveReferenceThroughImportTable() bool
	ShouldProduceFullVTable(t types.TypeID) bool
	ShouldPromoteToFullType(t types.TypeID) bool
	PresenceOfEETypeImpliesAllMethodsOnType(t types.TypeID) bool
}

// Group is the full policy consulted by the importer, code generator and
// layout planner.
type Group interface {
	Containment
	Versioning
	Inlining
	LayoutPolicy
	Exports

	CompiledModules() []types.ModuleID
	VersionBubbleModules() []types.ModuleID
}

// Mode selects the policy variant.
type Mode uint8

const (
	ModeSingleModule Mode = iota + 1
	ModeMultiModule
	ModeComposite
)

func (m Mode) String() string {
	switch m {
	case ModeSingleModule:
		return "single"
	case ModeMultiModule:
		return "multi"
	case ModeComposite:
		return "composite"
	default:
		return fmt.Sprintf("Mode(%d)", m)
	}
}

// ParseMode converts a string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "single":
		return ModeSingleModule, nil
	case "multi":
		return ModeMultiModule, nil
	case "composite":
		return ModeComposite, nil
	default:
		return 0, fmt.Errorf("invalid compilation mode: %q (expected: single|multi|composite)", s)
	}
}

// ErrUnsupportedMode is returned for policy variants this compiler does not build.
var ErrUnsupportedMode = errors.New("unsupported compilation mode")

// Config describes one compilation.
type Config struct {
	Mode     Mode
	Types    *types.Interner
	Compiled []types.ModuleID
	Bubble   []types.ModuleID
}

// New builds the policy variant selected by cfg.Mode.
func New(cfg Config) (Group, error) {
	if cfg.Types == nil {
		return nil, fmt.Errorf("scope: missing type system")
	}
	switch cfg.Mode {
	case ModeSingleModule, 0:
		return NewSingleModuleGroup(cfg.Types, cfg.Compiled, cfg.Bubble), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMode, cfg.Mode)
	}
}
