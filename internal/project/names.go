package project

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeName trims and NFC-normalizes a manifest name so that visually
// identical names intern to the same entity.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// IsValidIdent reports whether name is a single identifier segment.
func IsValidIdent(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if i == 0 && r != '_' && !unicode.IsLetter(r) {
			return false
		}
		if i > 0 && r != '_' && r != '`' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// ValidateDottedName checks a dot-separated name such as a module name or a
// namespace. Empty segments are rejected.
func ValidateDottedName(name string) error {
	if name == "" {
		return fmt.Errorf("empty name")
	}
	for _, seg := range strings.Split(name, ".") {
		if !IsValidIdent(seg) {
			return fmt.Errorf("invalid name %q", name)
		}
	}
	return nil
}

// SplitQualified splits "Ns.Sub.Name" into ("Ns.Sub", "Name").
func SplitQualified(name string) (namespace, simple string) {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

// JoinQualified is the inverse of SplitQualified.
func JoinQualified(namespace, simple string) string {
	if namespace == "" {
		return simple
	}
	return namespace + "." + simple
}
