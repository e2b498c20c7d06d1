package sigbuild

import (
	"crossgen/internal/r2r"
	"crossgen/internal/types"
)

var primitiveElements = map[types.Primitive]r2r.ElementType{
	types.PrimVoid:    r2r.ElementVoid,
	types.PrimBool:    r2r.ElementBoolean,
	types.PrimChar:    r2r.ElementChar,
	types.PrimInt8:    r2r.ElementI1,
	types.PrimUint8:   r2r.ElementU1,
	types.PrimInt16:   r2r.ElementI2,
	types.PrimUint16:  r2r.ElementU2,
	types.PrimInt32:   r2r.ElementI4,
	types.PrimUint32:  r2r.ElementU4,
	types.PrimInt64:   r2r.ElementI8,
	types.PrimUint64:  r2r.ElementU8,
	types.PrimFloat32: r2r.ElementR4,
	types.PrimFloat64: r2r.ElementR8,
	types.PrimIntPtr:  r2r.ElementI,
	types.PrimUintPtr: r2r.ElementU,
}

// typeDefOrRefTag is the TypeDefOrRef coded-index tag of a TypeDef row.
const typeDefOrRefTag = 0

// EmitTypeSignature encodes t. Types defined outside ctx's home module are
// prefixed with MODULE_ZAPSIG and the module index, and their tokens and
// arguments are resolved in that module.
func (b *Builder) EmitTypeSignature(t types.TypeID, ctx Context) {
	in := b.types
	tt, ok := in.Lookup(t)
	if !ok {
		panic(types.Invariantf("type signature", "unknown type#%d", t))
	}
	builtins := in.Builtins()

	switch tt.Kind {
	case types.KindPrimitive:
		info, _ := in.Def(t)
		elem, ok := primitiveElements[info.Prim]
		if !ok {
			panic(types.Invariantf("type signature", "primitive %s has no element type", info.Prim))
		}
		b.emitElement(elem)

	case types.KindClass, types.KindValueType, types.KindEnum, types.KindInterface, types.KindInstance:
		switch t {
		case builtins.Object:
			b.emitElement(r2r.ElementObject)
			return
		case builtins.String:
			b.emitElement(r2r.ElementString)
			return
		}
		module := in.DefiningModule(t)
		if module != ctx.Home {
			b.emitElement(r2r.ElementModuleZapSig)
			b.EmitUint(ctx.ModuleIndex(module))
			ctx = ctx.WithHome(module)
		}
		if tt.Kind != types.KindInstance {
			b.emitDefinition(t)
			return
		}
		b.emitElement(r2r.ElementGenericInst)
		b.emitDefinition(tt.Elem)
		args := in.Instantiation(t)
		b.emitLen(len(args))
		for _, arg := range args {
			b.EmitTypeSignature(arg, ctx)
		}

	case types.KindArray:
		b.emitElement(r2r.ElementSZArray)
		b.EmitTypeSignature(tt.Elem, ctx)

	case types.KindPointer:
		b.emitElement(r2r.ElementPtr)
		b.EmitTypeSignature(tt.Elem, ctx)

	case types.KindFnPtr:
		sig, _ := in.FnPtr(t)
		b.emitElement(r2r.ElementFnPtr)
		b.EmitByte(0) // default calling convention
		b.emitLen(len(sig.Params))
		b.EmitTypeSignature(sig.Return, ctx)
		for _, p := range sig.Params {
			b.EmitTypeSignature(p, ctx)
		}

	case types.KindGenericParam:
		if tt.Method {
			b.emitElement(r2r.ElementMVar)
		} else {
			b.emitElement(r2r.ElementVar)
		}
		b.EmitUint(tt.Index)

	case types.KindCanon:
		if tt.Canon == types.CanonUniversal {
			panic(types.Invariantf("type signature", "universal canonical form has no loader encoding"))
		}
		b.emitElement(r2r.ElementCanonZapSig)

	default:
		panic(types.Invariantf("type signature", "cannot encode %s", tt.Kind))
	}
}

// emitDefinition writes CLASS or VALUETYPE followed by the definition's
// TypeDefOrRef coded token.
func (b *Builder) emitDefinition(def types.TypeID) {
	info, ok := b.types.Def(def)
	if !ok {
		panic(types.Invariantf("type signature", "type#%d is not a definition", def))
	}
	if b.types.IsValueType(def) {
		b.emitElement(r2r.ElementValueType)
	} else {
		b.emitElement(r2r.ElementClass)
	}
	rid := types.Token{Module: info.Module, Value: info.Token}.RID()
	b.EmitUint(rid<<2 | typeDefOrRefTag)
}
