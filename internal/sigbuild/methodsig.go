package sigbuild

import (
	"crossgen/internal/r2r"
	"crossgen/internal/types"
)

// EmitMethodSignature encodes a method reference:
//
//	flags [module] [owner type] token-rid [count args...] [constrained type]
//
// With enforceDefEncoding, a MemberRef token is replaced by the MethodDef
// token of the method's definition. A token issued by a module other than
// ctx's home switches the context inline (UpdateContext).
func (b *Builder) EmitMethodSignature(m types.MethodWithToken, enforceDefEncoding bool, ctx Context, unboxingStub, instantiatingStub bool) {
	in := b.types
	desc, ok := in.Method(m.Method)
	if !ok {
		panic(types.Invariantf("method signature", "unknown method#%d", m.Method))
	}

	token := m.Token
	if enforceDefEncoding && token.Table() == types.TokenMemberRef {
		token = in.MethodDefToken(desc.Typical)
	}
	if token.IsNil() {
		panic(types.Invariantf("method signature", "%s has no token", in.MethodLabel(m.Method)))
	}

	var flags r2r.MethodSigFlags
	if unboxingStub {
		flags |= r2r.MethodSigUnboxingStub
	}
	if instantiatingStub {
		flags |= r2r.MethodSigInstantiatingStub
	}
	if len(desc.Inst) > 0 {
		flags |= r2r.MethodSigMethodInstantiation
	}
	if token.Table() == types.TokenMemberRef {
		flags |= r2r.MethodSigMemberRefToken
	}
	if m.Constrained != types.NoTypeID {
		flags |= r2r.MethodSigConstrained
	}
	owner := desc.Owner
	ownerType := in.TypeDefinition(owner) != owner || in.IsArray(owner)
	if ownerType {
		flags |= r2r.MethodSigOwnerType
	}
	if token.Module != ctx.Home {
		flags |= r2r.MethodSigUpdateContext
	}

	b.EmitUint(uint32(flags))
	if flags&r2r.MethodSigUpdateContext != 0 {
		b.EmitUint(ctx.ModuleIndex(token.Module))
		ctx = ctx.WithHome(token.Module)
	}
	if ownerType {
		b.EmitTypeSignature(owner, ctx)
	}
	b.EmitUint(token.RID())
	if len(desc.Inst) > 0 {
		b.emitLen(len(desc.Inst))
		for _, arg := range desc.Inst {
			b.EmitTypeSignature(arg, ctx)
		}
	}
	if m.Constrained != types.NoTypeID {
		b.EmitTypeSignature(m.Constrained, ctx)
	}
}
