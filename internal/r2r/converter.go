package r2r

import (
	"fmt"
	"strings"
)

// ConverterKind selects the calling-convention converter thunk placed in
// front of a method entry. ConverterInvalid means no converter is needed.
type ConverterKind uint8

const (
	ConverterInvalid ConverterKind = iota
	ConverterStandardToGenericInstantiating
	ConverterStandardToGenericInstantiatingIfNotHasThis
	ConverterStandardToGenericPassThruInstantiating
	ConverterStandardToGenericPassThruInstantiatingIfNotHasThis
	ConverterStandardToGeneric
	ConverterGenericToStandard
	ConverterStandardUnboxing
	ConverterStandardUnboxingAndInstantiatingGeneric
	ConverterGenericToStandardWithTargetPointerArgAndMaybeParamOverride
)

var converterNames = [...]string{
	ConverterInvalid:                                                    "Invalid",
	ConverterStandardToGenericInstantiating:                             "StandardToGenericInstantiating",
	ConverterStandardToGenericInstantiatingIfNotHasThis:                 "StandardToGenericInstantiatingIfNotHasThis",
	ConverterStandardToGenericPassThruInstantiating:                     "StandardToGenericPassThruInstantiating",
	ConverterStandardToGenericPassThruInstantiatingIfNotHasThis:         "StandardToGenericPassThruInstantiatingIfNotHasThis",
	ConverterStandardToGeneric:                                          "StandardToGeneric",
	ConverterGenericToStandard:                                          "GenericToStandard",
	ConverterStandardUnboxing:                                           "StandardUnboxing",
	ConverterStandardUnboxingAndInstantiatingGeneric:                    "StandardUnboxingAndInstantiatingGeneric",
	ConverterGenericToStandardWithTargetPointerArgAndMaybeParamOverride: "GenericToStandardWithTargetPointerArgAndMaybeParamOverride",
}

func (k ConverterKind) String() string {
	if int(k) < len(converterNames) {
		return converterNames[k]
	}
	return fmt.Sprintf("ConverterKind(%d)", uint8(k))
}

// IsValid reports whether k names a real converter.
func (k ConverterKind) IsValid() bool {
	return k != ConverterInvalid && int(k) < len(converterNames)
}

// ParseConverterKind resolves a converter by name. The empty string and
// "none" mean no converter.
func ParseConverterKind(s string) (ConverterKind, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "none") {
		return ConverterInvalid, nil
	}
	for i, name := range converterNames {
		if strings.EqualFold(name, s) {
			return ConverterKind(i), nil
		}
	}
	return ConverterInvalid, fmt.Errorf("unknown converter kind %q", s)
}
