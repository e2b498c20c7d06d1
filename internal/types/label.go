package types

import (
	"strconv"
	"strings"
)

// TypeLabel returns a deterministic label for a TypeID. Labels are unique
// per type: module-declared types carry their module name.
func (in *Interner) TypeLabel(id TypeID) string {
	var sb strings.Builder
	in.writeLabel(&sb, id)
	return sb.String()
}

func (in *Interner) writeLabel(sb *strings.Builder, id TypeID) {
	tt, ok := in.Lookup(id)
	if !ok {
		sb.WriteByte('?')
		return
	}
	switch tt.Kind {
	case KindPrimitive:
		sb.WriteString(tt.Prim.String())
	case KindClass, KindValueType, KindEnum, KindInterface:
		switch id {
		case in.builtins.Object:
			sb.WriteString("object")
			return
		case in.builtins.String:
			sb.WriteString("string")
			return
		}
		info, _ := in.Def(id)
		sb.WriteByte('[')
		sb.WriteString(in.ModuleName(info.Module))
		sb.WriteByte(']')
		if info.Namespace != "" {
			sb.WriteString(info.Namespace)
			sb.WriteByte('.')
		}
		sb.WriteString(info.Name)
		if info.Arity > 0 {
			sb.WriteByte('`')
			sb.WriteString(strconv.Itoa(info.Arity))
		}
	case KindInstance:
		in.writeLabel(sb, tt.Elem)
		in.writeArgs(sb, in.Instantiation(id))
	case KindArray:
		in.writeLabel(sb, tt.Elem)
		sb.WriteString("[]")
	case KindPointer:
		in.writeLabel(sb, tt.Elem)
		sb.WriteByte('*')
	case KindFnPtr:
		sig, _ := in.FnPtr(id)
		sb.WriteString("fnptr<")
		in.writeLabel(sb, sig.Return)
		sb.WriteByte('(')
		for i, p := range sig.Params {
			if i > 0 {
				sb.WriteByte(',')
			}
			in.writeLabel(sb, p)
		}
		sb.WriteString(")>")
	case KindGenericParam:
		if tt.Method {
			sb.WriteString("!!")
		} else {
			sb.WriteByte('!')
		}
		sb.WriteString(strconv.FormatUint(uint64(tt.Index), 10))
	case KindCanon:
		if tt.Canon == CanonUniversal {
			sb.WriteString("__UniversalCanon")
		} else {
			sb.WriteString("__Canon")
		}
	default:
		sb.WriteByte('?')
	}
}

func (in *Interner) writeArgs(sb *strings.Builder, args []TypeID) {
	if len(args) == 0 {
		return
	}
	sb.WriteByte('<')
	for i, a := range args {
		if i > 0 {
			sb.WriteByte(',')
		}
		in.writeLabel(sb, a)
	}
	sb.WriteByte('>')
}

// MethodLabel returns a deterministic label for a method:
// owner::name<method args>.
func (in *Interner) MethodLabel(m MethodID) string {
	desc, ok := in.Method(m)
	if !ok {
		return "?"
	}
	var sb strings.Builder
	in.writeLabel(&sb, desc.Owner)
	sb.WriteString("::")
	sb.WriteString(desc.Name)
	in.writeArgs(&sb, desc.Inst)
	return sb.String()
}
