package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindPrimitive
	KindClass
	KindValueType
	KindEnum
	KindInterface
	KindPointer
	KindFnPtr
	KindArray
	KindInstance
	KindGenericParam
	KindCanon
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindPrimitive:
		return "primitive"
	case KindClass:
		return "class"
	case KindValueType:
		return "struct"
	case KindEnum:
		return "enum"
	case KindInterface:
		return "interface"
	case KindPointer:
		return "pointer"
	case KindFnPtr:
		return "fnptr"
	case KindArray:
		return "array"
	case KindInstance:
		return "instance"
	case KindGenericParam:
		return "generic-param"
	case KindCanon:
		return "canon"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// IsDefinition reports whether types of this kind are declared by a module.
func (k Kind) IsDefinition() bool {
	switch k {
	case KindPrimitive, KindClass, KindValueType, KindEnum, KindInterface:
		return true
	default:
		return false
	}
}

// Primitive identifies the built-in scalar types of the core library.
type Primitive uint8

const (
	PrimNone Primitive = iota
	PrimVoid
	PrimBool
	PrimChar
	PrimInt8
	PrimUint8
	PrimInt16
	PrimUint16
	PrimInt32
	PrimUint32
	PrimInt64
	PrimUint64
	PrimFloat32
	PrimFloat64
	PrimIntPtr
	PrimUintPtr
)

var primitiveNames = [...]string{
	PrimNone:    "",
	PrimVoid:    "void",
	PrimBool:    "bool",
	PrimChar:    "char",
	PrimInt8:    "int8",
	PrimUint8:   "uint8",
	PrimInt16:   "int16",
	PrimUint16:  "uint16",
	PrimInt32:   "int32",
	PrimUint32:  "uint32",
	PrimInt64:   "int64",
	PrimUint64:  "uint64",
	PrimFloat32: "float32",
	PrimFloat64: "float64",
	PrimIntPtr:  "intptr",
	PrimUintPtr: "uintptr",
}

func (p Primitive) String() string {
	if int(p) < len(primitiveNames) && p != PrimNone {
		return primitiveNames[p]
	}
	return fmt.Sprintf("Primitive(%d)", p)
}

// ParsePrimitive maps a primitive keyword to its Primitive.
func ParsePrimitive(name string) (Primitive, bool) {
	for i, n := range primitiveNames {
		if n != "" && n == name {
			return Primitive(i), true
		}
	}
	return PrimNone, false
}

// CanonKind selects a canonical (shared generic) form.
type CanonKind uint8

const (
	CanonNone CanonKind = iota
	// CanonSpecific shares code across reference-type instantiations.
	CanonSpecific
	// CanonUniversal shares code across every instantiation. Compiler-internal only.
	CanonUniversal
	// CanonAny matches either form in queries.
	CanonAny
)

func (c CanonKind) String() string {
	switch c {
	case CanonNone:
		return "none"
	case CanonSpecific:
		return "specific"
	case CanonUniversal:
		return "universal"
	case CanonAny:
		return "any"
	default:
		return fmt.Sprintf("CanonKind(%d)", c)
	}
}

func (c CanonKind) matches(form CanonKind) bool {
	if form == CanonNone {
		return false
	}
	return c == CanonAny || c == form
}

// Type is a compact descriptor for any supported type.
type Type struct {
	Kind    Kind
	Elem    TypeID    // pointer/array element; generic definition for instances
	Prim    Primitive // for primitives
	Canon   CanonKind // for canonical placeholders
	Index   uint32    // generic parameter position
	Method  bool      // generic parameter belongs to a method
	Payload uint32    // slot into definition, instance or fnptr storage
}

// Descriptor helpers ---------------------------------------------------------

// MakePointer describes an unmanaged pointer.
func MakePointer(elem TypeID) Type {
	return Type{Kind: KindPointer, Elem: elem}
}

// MakeArray describes a single-dimensional zero-based array.
func MakeArray(elem TypeID) Type {
	return Type{Kind: KindArray, Elem: elem}
}

// MakeTypeParam describes the index-th generic parameter of a type.
func MakeTypeParam(index uint32) Type {
	return Type{Kind: KindGenericParam, Index: index}
}

// MakeMethodParam describes the index-th generic parameter of a method.
func MakeMethodParam(index uint32) Type {
	return Type{Kind: KindGenericParam, Index: index, Method: true}
}
