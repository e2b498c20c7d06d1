// Package r2r holds the loader-facing constants of the ready-to-run image
// format: fixup kinds, calling-convention converter kinds, method signature
// flags and the element types of encoded type signatures.
package r2r

import (
	"fmt"
	"strings"
)

// FixupKind identifies how the loader resolves a fixup cell.
type FixupKind uint8

const (
	FixupThisObjDictionaryLookup FixupKind = 0x07
	FixupTypeDictionaryLookup    FixupKind = 0x08
	FixupMethodDictionaryLookup  FixupKind = 0x09

	FixupTypeHandle                    FixupKind = 0x10
	FixupMethodHandle                  FixupKind = 0x11
	FixupFieldHandle                   FixupKind = 0x12
	FixupMethodEntry                   FixupKind = 0x13
	FixupMethodEntryDefToken           FixupKind = 0x14
	FixupMethodEntryRefToken           FixupKind = 0x15
	FixupVirtualEntry                  FixupKind = 0x16
	FixupVirtualEntryDefToken          FixupKind = 0x17
	FixupVirtualEntryRefToken          FixupKind = 0x18
	FixupVirtualEntrySlot              FixupKind = 0x19
	FixupHelper                        FixupKind = 0x1A
	FixupStringHandle                  FixupKind = 0x1B
	FixupNewObject                     FixupKind = 0x1C
	FixupNewArray                      FixupKind = 0x1D
	FixupIsInstanceOf                  FixupKind = 0x1E
	FixupChkCast                       FixupKind = 0x1F
	FixupFieldAddress                  FixupKind = 0x20
	FixupCctorTrigger                  FixupKind = 0x21
	FixupStaticBaseNonGC               FixupKind = 0x22
	FixupStaticBaseGC                  FixupKind = 0x23
	FixupThreadStaticBaseNonGC         FixupKind = 0x24
	FixupThreadStaticBaseGC            FixupKind = 0x25
	FixupFieldBaseOffset               FixupKind = 0x26
	FixupFieldOffset                   FixupKind = 0x27
	FixupTypeDictionary                FixupKind = 0x28
	FixupMethodDictionary              FixupKind = 0x29
	FixupCheckTypeLayout               FixupKind = 0x2A
	FixupCheckFieldOffset              FixupKind = 0x2B
	FixupDelegateCtor                  FixupKind = 0x2C
	FixupDeclaringTypeHandle           FixupKind = 0x2D
	FixupIndirectPInvokeTarget         FixupKind = 0x2E
	FixupPInvokeTarget                 FixupKind = 0x2F
	FixupCheckInstructionSetSupport    FixupKind = 0x30
	FixupVerifyFieldOffset             FixupKind = 0x31
	FixupVerifyTypeLayout              FixupKind = 0x32
	FixupCheckVirtualFunctionOverride  FixupKind = 0x33
	FixupVerifyVirtualFunctionOverride FixupKind = 0x34
	FixupCheckILBody                   FixupKind = 0x35
	FixupVerifyILBody                  FixupKind = 0x36

	// FixupLoadConverterThunk asks the loader for a thunk bridging the
	// generic-sharing calling convention and the callee's native one.
	FixupLoadConverterThunk FixupKind = 0x37

	// FixupModuleOverride is or-ed into the kind byte when a compressed
	// module index follows it.
	FixupModuleOverride FixupKind = 0x80
)

var fixupNames = map[FixupKind]string{
	FixupThisObjDictionaryLookup:       "ThisObjDictionaryLookup",
	FixupTypeDictionaryLookup:          "TypeDictionaryLookup",
	FixupMethodDictionaryLookup:        "MethodDictionaryLookup",
	FixupTypeHandle:                    "TypeHandle",
	FixupMethodHandle:                  "MethodHandle",
	FixupFieldHandle:                   "FieldHandle",
	FixupMethodEntry:                   "MethodEntry",
	FixupMethodEntryDefToken:           "MethodEntry_DefToken",
	FixupMethodEntryRefToken:           "MethodEntry_RefToken",
	FixupVirtualEntry:                  "VirtualEntry",
	FixupVirtualEntryDefToken:          "VirtualEntry_DefToken",
	FixupVirtualEntryRefToken:          "VirtualEntry_RefToken",
	FixupVirtualEntrySlot:              "VirtualEntry_Slot",
	FixupHelper:                        "Helper",
	FixupStringHandle:                  "StringHandle",
	FixupNewObject:                     "NewObject",
	FixupNewArray:                      "NewArray",
	FixupIsInstanceOf:                  "IsInstanceOf",
	FixupChkCast:                       "ChkCast",
	FixupFieldAddress:                  "FieldAddress",
	FixupCctorTrigger:                  "CctorTrigger",
	FixupStaticBaseNonGC:               "StaticBaseNonGC",
	FixupStaticBaseGC:                  "StaticBaseGC",
	FixupThreadStaticBaseNonGC:         "ThreadStaticBaseNonGC",
	FixupThreadStaticBaseGC:            "ThreadStaticBaseGC",
	FixupFieldBaseOffset:               "FieldBaseOffset",
	FixupFieldOffset:                   "FieldOffset",
	FixupTypeDictionary:                "TypeDictionary",
	FixupMethodDictionary:              "MethodDictionary",
	FixupCheckTypeLayout:               "Check_TypeLayout",
	FixupCheckFieldOffset:              "Check_FieldOffset",
	FixupDelegateCtor:                  "DelegateCtor",
	FixupDeclaringTypeHandle:           "DeclaringTypeHandle",
	FixupIndirectPInvokeTarget:         "IndirectPInvokeTarget",
	FixupPInvokeTarget:                 "PInvokeTarget",
	FixupCheckInstructionSetSupport:    "Check_InstructionSetSupport",
	FixupVerifyFieldOffset:             "Verify_FieldOffset",
	FixupVerifyTypeLayout:              "Verify_TypeLayout",
	FixupCheckVirtualFunctionOverride:  "Check_VirtualFunctionOverride",
	FixupVerifyVirtualFunctionOverride: "Verify_VirtualFunctionOverride",
	FixupCheckILBody:                   "Check_IL_Body",
	FixupVerifyILBody:                  "Verify_IL_Body",
	FixupLoadConverterThunk:            "LoadConverterThunk",
}

var fixupByName = func() map[string]FixupKind {
	out := make(map[string]FixupKind, len(fixupNames))
	for k, name := range fixupNames {
		out[strings.ToLower(name)] = k
	}
	return out
}()

func (k FixupKind) String() string {
	if name, ok := fixupNames[k]; ok {
		return name
	}
	if k&FixupModuleOverride != 0 {
		return (k &^ FixupModuleOverride).String() + "|ModuleOverride"
	}
	return fmt.Sprintf("FixupKind(0x%02X)", uint8(k))
}

// IsValid reports whether k is a known fixup kind without the override bit.
func (k FixupKind) IsValid() bool {
	_, ok := fixupNames[k]
	return ok
}

// TargetsMethod reports whether fixups of kind k are followed by a method
// signature.
func (k FixupKind) TargetsMethod() bool {
	switch k {
	case FixupMethodHandle, FixupMethodEntry, FixupMethodEntryDefToken, FixupMethodEntryRefToken,
		FixupVirtualEntry, FixupVirtualEntryDefToken, FixupVirtualEntryRefToken, FixupVirtualEntrySlot,
		FixupMethodDictionary, FixupMethodDictionaryLookup, FixupDelegateCtor,
		FixupIndirectPInvokeTarget, FixupPInvokeTarget, FixupCheckILBody, FixupVerifyILBody:
		return true
	default:
		return false
	}
}

// ParseFixupKind resolves a fixup kind by name, case-insensitively.
func ParseFixupKind(s string) (FixupKind, error) {
	if k, ok := fixupByName[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("unknown fixup kind %q", s)
}
