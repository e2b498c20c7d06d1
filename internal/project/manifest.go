// Package project loads scenario manifests: TOML files declaring modules,
// types, methods and call sites, and builds them into a type universe the
// compilation policy and fixup encoder run against.
package project

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Manifest is the decoded form of a crossgen.toml file.
type Manifest struct {
	Path        string            `toml:"-"`
	Digest      Digest            `toml:"-"`
	Compilation CompilationConfig `toml:"compilation"`
	Modules     []ModuleEntry     `toml:"module"`
	Types       []TypeEntry       `toml:"type"`
	Methods     []MethodEntry     `toml:"method"`
	Calls       []CallEntry       `toml:"call"`
}

// CompilationConfig is the [compilation] section.
type CompilationConfig struct {
	Name     string   `toml:"name"`
	Mode     string   `toml:"mode"`
	Prefix   string   `toml:"prefix"`
	Compiled []string `toml:"compiled"`
	Bubble   []string `toml:"bubble"`
}

// ModuleEntry is one [[module]].
type ModuleEntry struct {
	Name string `toml:"name"`
}

// TypeEntry is one [[type]].
type TypeEntry struct {
	Module    string       `toml:"module"`
	Namespace string       `toml:"namespace"`
	Name      string       `toml:"name"`
	Kind      string       `toml:"kind"`
	Base      string       `toml:"base"`
	Arity     int          `toml:"arity"`
	ByRefLike bool         `toml:"byref_like"`
	Fields    []FieldEntry `toml:"fields"`
}

// QualifiedName returns "Namespace.Name".
func (e TypeEntry) QualifiedName() string {
	return JoinQualified(e.Namespace, e.Name)
}

// FieldEntry is one field of a [[type]].
type FieldEntry struct {
	Name    string `toml:"name"`
	Type    string `toml:"type"`
	Static  bool   `toml:"static"`
	Literal bool   `toml:"literal"`
	RVA     bool   `toml:"rva"`
}

// MethodEntry is one [[method]].
type MethodEntry struct {
	Owner          string `toml:"owner"`
	Name           string `toml:"name"`
	Arity          int    `toml:"arity"`
	Static         bool   `toml:"static"`
	Virtual        bool   `toml:"virtual"`
	NonVersionable bool   `toml:"non_versionable"`
}

// CallEntry is one [[call]]: a call site in caller that needs a fixup for
// callee.
type CallEntry struct {
	Caller        string `toml:"caller"`
	Callee        string `toml:"callee"`
	Kind          string `toml:"kind"`
	Unboxing      bool   `toml:"unboxing"`
	Instantiating bool   `toml:"instantiating"`
	Converter     string `toml:"converter"`
	Constrained   string `toml:"constrained"`
	Target        string `toml:"target"`
}

// ManifestError reports a problem with one manifest entry.
type ManifestError struct {
	Path  string
	Entry string
	Err   error
}

func (e *ManifestError) Error() string {
	if e.Entry == "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Entry, e.Err)
}

func (e *ManifestError) Unwrap() error { return e.Err }

var (
	// ErrCompilationSectionMissing indicates that [compilation] is missing.
	ErrCompilationSectionMissing = errors.New("missing [compilation]")
	// ErrCompiledModulesMissing indicates that [compilation].compiled is missing or empty.
	ErrCompiledModulesMissing = errors.New("missing [compilation].compiled")
)

// LoadManifest reads and decodes a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return ParseManifest(path, data)
}

// ParseManifest decodes manifest text. path is only used in errors.
func ParseManifest(path string, data []byte) (*Manifest, error) {
	var m Manifest
	meta, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, &ManifestError{Path: path, Err: fmt.Errorf("failed to parse TOML: %w", err)}
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, &ManifestError{Path: path, Err: fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))}
	}
	if !meta.IsDefined("compilation") {
		return nil, &ManifestError{Path: path, Err: ErrCompilationSectionMissing}
	}
	if !meta.IsDefined("compilation", "compiled") || len(m.Compilation.Compiled) == 0 {
		return nil, &ManifestError{Path: path, Err: ErrCompiledModulesMissing}
	}
	m.Path = path
	m.Digest = Sum(data)
	m.normalize()
	return &m, nil
}

func (m *Manifest) normalize() {
	c := &m.Compilation
	c.Name = NormalizeName(c.Name)
	c.Mode = strings.ToLower(strings.TrimSpace(c.Mode))
	for i := range c.Compiled {
		c.Compiled[i] = NormalizeName(c.Compiled[i])
	}
	for i := range c.Bubble {
		c.Bubble[i] = NormalizeName(c.Bubble[i])
	}
	for i := range m.Modules {
		m.Modules[i].Name = NormalizeName(m.Modules[i].Name)
	}
	for i := range m.Types {
		t := &m.Types[i]
		t.Module = NormalizeName(t.Module)
		t.Namespace = NormalizeName(t.Namespace)
		t.Name = NormalizeName(t.Name)
		t.Kind = strings.ToLower(strings.TrimSpace(t.Kind))
		t.Base = NormalizeName(t.Base)
		for j := range t.Fields {
			t.Fields[j].Name = NormalizeName(t.Fields[j].Name)
			t.Fields[j].Type = NormalizeName(t.Fields[j].Type)
		}
	}
	for i := range m.Methods {
		mm := &m.Methods[i]
		mm.Owner = NormalizeName(mm.Owner)
		mm.Name = NormalizeName(mm.Name)
	}
	for i := range m.Calls {
		c := &m.Calls[i]
		c.Caller = NormalizeName(c.Caller)
		c.Callee = NormalizeName(c.Callee)
		c.Kind = strings.TrimSpace(c.Kind)
		c.Converter = strings.TrimSpace(c.Converter)
		c.Constrained = NormalizeName(c.Constrained)
		c.Target = NormalizeName(c.Target)
	}
}

func (m *Manifest) errorf(entry, format string, args ...any) error {
	return &ManifestError{Path: m.Path, Entry: entry, Err: fmt.Errorf(format, args...)}
}

func (m *Manifest) wrap(entry string, err error) error {
	return &ManifestError{Path: m.Path, Entry: entry, Err: err}
}
