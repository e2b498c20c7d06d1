package r2r

import (
	"fmt"
	"strings"
)

// MethodSigFlags prefix every encoded method signature.
type MethodSigFlags uint32

const (
	MethodSigUnboxingStub        MethodSigFlags = 0x01
	MethodSigInstantiatingStub   MethodSigFlags = 0x02
	MethodSigMethodInstantiation MethodSigFlags = 0x04
	MethodSigSlotInsteadOfToken  MethodSigFlags = 0x08
	MethodSigMemberRefToken      MethodSigFlags = 0x10
	MethodSigConstrained         MethodSigFlags = 0x20
	MethodSigOwnerType           MethodSigFlags = 0x40
	MethodSigUpdateContext       MethodSigFlags = 0x80
)

var methodSigFlagNames = []struct {
	flag MethodSigFlags
	name string
}{
	{MethodSigUnboxingStub, "UnboxingStub"},
	{MethodSigInstantiatingStub, "InstantiatingStub"},
	{MethodSigMethodInstantiation, "MethodInstantiation"},
	{MethodSigSlotInsteadOfToken, "SlotInsteadOfToken"},
	{MethodSigMemberRefToken, "MemberRefToken"},
	{MethodSigConstrained, "Constrained"},
	{MethodSigOwnerType, "OwnerType"},
	{MethodSigUpdateContext, "UpdateContext"},
}

func (f MethodSigFlags) String() string {
	if f == 0 {
		return "0"
	}
	var parts []string
	rest := f
	for _, e := range methodSigFlagNames {
		if f&e.flag != 0 {
			parts = append(parts, e.name)
			rest &^= e.flag
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%X", uint32(rest)))
	}
	return strings.Join(parts, "|")
}

// ElementType is the leading byte of an encoded type signature.
type ElementType uint8

const (
	ElementVoid        ElementType = 0x01
	ElementBoolean     ElementType = 0x02
	ElementChar        ElementType = 0x03
	ElementI1          ElementType = 0x04
	ElementU1          ElementType = 0x05
	ElementI2          ElementType = 0x06
	ElementU2          ElementType = 0x07
	ElementI4          ElementType = 0x08
	ElementU4          ElementType = 0x09
	ElementI8          ElementType = 0x0A
	ElementU8          ElementType = 0x0B
	ElementR4          ElementType = 0x0C
	ElementR8          ElementType = 0x0D
	ElementString      ElementType = 0x0E
	ElementPtr         ElementType = 0x0F
	ElementValueType   ElementType = 0x11
	ElementClass       ElementType = 0x12
	ElementVar         ElementType = 0x13
	ElementGenericInst ElementType = 0x15
	ElementI           ElementType = 0x18
	ElementU           ElementType = 0x19
	ElementFnPtr       ElementType = 0x1B
	ElementObject      ElementType = 0x1C
	ElementSZArray     ElementType = 0x1D
	ElementMVar        ElementType = 0x1E

	// ElementCanonZapSig stands for the shared canonical placeholder.
	ElementCanonZapSig ElementType = 0x3E
	// ElementModuleZapSig is followed by a module index; the type after it
	// is resolved in that module.
	ElementModuleZapSig ElementType = 0x3F
)

var elementNames = map[ElementType]string{
	ElementVoid:         "VOID",
	ElementBoolean:      "BOOLEAN",
	ElementChar:         "CHAR",
	ElementI1:           "I1",
	ElementU1:           "U1",
	ElementI2:           "I2",
	ElementU2:           "U2",
	ElementI4:           "I4",
	ElementU4:           "U4",
	ElementI8:           "I8",
	ElementU8:           "U8",
	ElementR4:           "R4",
	ElementR8:           "R8",
	ElementString:       "STRING",
	ElementPtr:          "PTR",
	ElementValueType:    "VALUETYPE",
	ElementClass:        "CLASS",
	ElementVar:          "VAR",
	ElementGenericInst:  "GENERICINST",
	ElementI:            "I",
	ElementU:            "U",
	ElementFnPtr:        "FNPTR",
	ElementObject:       "OBJECT",
	ElementSZArray:      "SZARRAY",
	ElementMVar:         "MVAR",
	ElementCanonZapSig:  "CANON_ZAPSIG",
	ElementModuleZapSig: "MODULE_ZAPSIG",
}

func (e ElementType) String() string {
	if name, ok := elementNames[e]; ok {
		return name
	}
	return fmt.Sprintf("ElementType(0x%02X)", uint8(e))
}
