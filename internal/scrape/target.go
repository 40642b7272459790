package scrape

import (
	"errors"
	"fmt"
	"maps"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// BaseType describes one fundamental type on a target.
type BaseType struct {
	BitSize   int  `json:"bit_size" toml:"bit_size"`
	Alignment int  `json:"alignment" toml:"alignment"`
	Signed    bool `json:"signed" toml:"signed"`
}

// Target is the compiler model used for layout: fundamental type sizes,
// pointer width and alignment rules. All sizes are in bits.
type Target struct {
	Name             string
	Types            map[string]BaseType
	CharSign         string // "signed" or "unsigned"
	Endian           string // "little" or "big"
	EnumType         string
	PointerSize      int
	DefaultAlignment int
	StructAlignment  int
}

// Clone returns a deep copy of t.
func (t *Target) Clone() *Target {
	c := *t
	c.Types = maps.Clone(t.Types)
	return &c
}

// Base returns the fundamental type registered under its collated name.
func (t *Target) Base(name string) (BaseType, bool) {
	bt, ok := t.Types[name]
	return bt, ok
}

var ignoredTypeWords = map[string]bool{
	"const": true, "volatile": true, "__const": true, "__volatile__": true,
	"__volatile": true, "restrict": true, "__restrict": true, "__restrict__": true,
}

// collated maps the alphabetically sorted specifier list to its canonical name.
// Plain "char" depends on the target and is handled in Collate.
var collated = map[string]string{
	"int":                    "signed int",
	"int unsigned":           "unsigned int",
	"int signed":             "signed int",
	"signed":                 "signed int",
	"unsigned":               "unsigned int",
	"short":                  "signed short",
	"short unsigned":         "unsigned short",
	"short signed":           "signed short",
	"int short":              "signed short",
	"int short unsigned":     "unsigned short",
	"int short signed":       "signed short",
	"char unsigned":          "unsigned char",
	"char signed":            "signed char",
	"long":                   "signed long",
	"long unsigned":          "unsigned long",
	"long signed":            "signed long",
	"int long":               "signed long",
	"int long unsigned":      "unsigned long",
	"int long signed":        "signed long",
	"long long":              "signed long long",
	"long long unsigned":     "unsigned long long",
	"long long signed":       "signed long long",
	"int long long":          "signed long long",
	"int long long unsigned": "unsigned long long",
	"int long long signed":   "signed long long",
}

// Collate turns a list of type specifiers into the single canonical name the
// type tables are keyed by, e.g. [short int] -> "signed short" and
// [long double] -> "double long". Aggregate names ("struct tag") are kept in
// declaration order.
func (t *Target) Collate(words []string) string {
	var names []string
	for _, w := range words {
		switch w {
		case "":
			continue
		case "__signed__", "__signed":
			w = "signed"
		}
		if ignoredTypeWords[w] {
			continue
		}
		names = append(names, w)
	}
	if len(names) == 0 {
		return ""
	}
	switch names[0] {
	case "struct", "union", "enum":
		return strings.Join(names, " ")
	}

	sort.Strings(names)
	name := strings.Join(names, " ")
	if name == "char" {
		return t.CharSign + " char"
	}
	if c, ok := collated[name]; ok {
		return c
	}
	return name
}

var fixedWidthTypes = map[string]BaseType{
	"int8_t":   {BitSize: 8, Alignment: 8, Signed: true},
	"uint8_t":  {BitSize: 8, Alignment: 8},
	"int16_t":  {BitSize: 16, Alignment: 16, Signed: true},
	"uint16_t": {BitSize: 16, Alignment: 16},
	"int32_t":  {BitSize: 32, Alignment: 32, Signed: true},
	"uint32_t": {BitSize: 32, Alignment: 32},
	"int64_t":  {BitSize: 64, Alignment: 64, Signed: true},
	"uint64_t": {BitSize: 64, Alignment: 64},
}

// Fingerprint describes every layout setting of t in a stable order. Two
// targets with the same fingerprint lay out types identically.
func (t *Target) Fingerprint() string {
	var b strings.Builder
	fmt.Fprintf(&b, "name=%s char=%s endian=%s enum=%s ptr=%d align=%d struct=%d\n",
		t.Name, t.CharSign, t.Endian, t.EnumType, t.PointerSize, t.DefaultAlignment, t.StructAlignment)
	names := make([]string, 0, len(t.Types))
	for name := range t.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		bt := t.Types[name]
		fmt.Fprintf(&b, "%s=%d/%d/%t\n", name, bt.BitSize, bt.Alignment, bt.Signed)
	}
	return b.String()
}

// Arm32 is a generic 32 bit ARM EABI compiler.
func Arm32() *Target {
	t := &Target{
		Name:             "arm32",
		Types:            maps.Clone(fixedWidthTypes),
		CharSign:         "signed",
		Endian:           "little",
		EnumType:         "signed int",
		PointerSize:      32,
		DefaultAlignment: 32,
		StructAlignment:  32,
	}
	ft := t.Types
	ft["bool"] = BaseType{BitSize: 8, Alignment: 8}
	ft["_Bool"] = ft["bool"]
	ft["float"] = BaseType{BitSize: 32, Alignment: 32, Signed: true}
	ft["double"] = BaseType{BitSize: 64, Alignment: 64, Signed: true}
	ft["double long"] = BaseType{BitSize: 64, Alignment: 64, Signed: true}
	ft["signed char"] = ft["int8_t"]
	ft["unsigned char"] = ft["uint8_t"]
	ft["signed short"] = ft["int16_t"]
	ft["unsigned short"] = ft["uint16_t"]
	ft["signed int"] = ft["int32_t"]
	ft["unsigned int"] = ft["uint32_t"]
	ft["signed long"] = ft["int32_t"]
	ft["unsigned long"] = ft["uint32_t"]
	ft["signed long long"] = ft["int64_t"]
	ft["unsigned long long"] = ft["uint64_t"]
	ft["size_t"] = ft["uint32_t"]
	ft["ptrdiff_t"] = ft["int32_t"]
	ft["intptr_t"] = ft["int32_t"]
	ft["uintptr_t"] = ft["uint32_t"]
	return t
}

// LP64 follows the x86-64 System V data model.
func LP64() *Target {
	t := &Target{
		Name:             "lp64",
		Types:            maps.Clone(fixedWidthTypes),
		CharSign:         "signed",
		Endian:           "little",
		EnumType:         "signed int",
		PointerSize:      64,
		DefaultAlignment: 64,
		StructAlignment:  8,
	}
	ft := t.Types
	ft["bool"] = BaseType{BitSize: 8, Alignment: 8}
	ft["_Bool"] = ft["bool"]
	ft["float"] = BaseType{BitSize: 32, Alignment: 32, Signed: true}
	ft["double"] = BaseType{BitSize: 64, Alignment: 64, Signed: true}
	ft["double long"] = BaseType{BitSize: 128, Alignment: 128, Signed: true}
	ft["signed char"] = ft["int8_t"]
	ft["unsigned char"] = ft["uint8_t"]
	ft["signed short"] = ft["int16_t"]
	ft["unsigned short"] = ft["uint16_t"]
	ft["signed int"] = ft["int32_t"]
	ft["unsigned int"] = ft["uint32_t"]
	ft["signed long"] = ft["int64_t"]
	ft["unsigned long"] = ft["uint64_t"]
	ft["signed long long"] = ft["int64_t"]
	ft["unsigned long long"] = ft["uint64_t"]
	ft["size_t"] = ft["uint64_t"]
	ft["ptrdiff_t"] = ft["int64_t"]
	ft["intptr_t"] = ft["int64_t"]
	ft["uintptr_t"] = ft["uint64_t"]
	return t
}

// Registry holds the named targets a results file may select.
type Registry struct {
	targets map[string]*Target
}

// NewRegistry returns a registry holding the built-in targets.
func NewRegistry() *Registry {
	r := &Registry{targets: make(map[string]*Target)}
	for _, t := range []*Target{Arm32(), LP64()} {
		r.targets[t.Name] = t
	}
	return r
}

// Lookup returns a copy of the named target.
func (r *Registry) Lookup(name string) (*Target, error) {
	t, ok := r.targets[name]
	if !ok {
		return nil, &ConfigError{Name: name}
	}
	return t.Clone(), nil
}

// Names returns the registered target names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.targets))
	for name := range r.targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Add registers t, replacing any target of the same name.
func (r *Registry) Add(t *Target) {
	r.targets[t.Name] = t
}

type targetFile struct {
	Targets map[string]targetSpec `toml:"targets"`
}

type targetSpec struct {
	Base             string              `toml:"base"`
	CharSign         string              `toml:"char_sign"`
	Endian           string              `toml:"endian"`
	EnumType         string              `toml:"enum_type"`
	PointerSize      int                 `toml:"pointer_size"`
	DefaultAlignment int                 `toml:"default_alignment"`
	StructAlignment  int                 `toml:"struct_alignment"`
	Types            map[string]BaseType `toml:"types"`
}

// LoadFile adds the targets described by a TOML file of the form
//
//	[targets.cortex_m0]
//	base = "arm32"
//	char_sign = "unsigned"
//	[targets.cortex_m0.types."double long"]
//	bit_size = 64
//	alignment = 32
//	signed = true
//
// A target without a base starts from arm32. Keys left out keep the base value.
func (r *Registry) LoadFile(path string) error {
	var file targetFile
	meta, err := toml.DecodeFile(path, &file)
	if err != nil {
		return fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("targets") {
		return fmt.Errorf("%s: missing [targets]", path)
	}

	names := make([]string, 0, len(file.Targets))
	for name := range file.Targets {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		spec := file.Targets[name]
		baseName := spec.Base
		if baseName == "" {
			baseName = "arm32"
		}
		base, err := r.Lookup(baseName)
		if err != nil {
			return fmt.Errorf("%s: target %q: %w", path, name, err)
		}
		t := base
		t.Name = name
		defined := func(key string) bool { return meta.IsDefined("targets", name, key) }
		if defined("char_sign") {
			if spec.CharSign != "signed" && spec.CharSign != "unsigned" {
				return fmt.Errorf("%s: target %q: char_sign must be signed or unsigned, got %q", path, name, spec.CharSign)
			}
			t.CharSign = spec.CharSign
		}
		if defined("endian") {
			t.Endian = spec.Endian
		}
		if defined("enum_type") {
			t.EnumType = spec.EnumType
		}
		if defined("pointer_size") {
			t.PointerSize = spec.PointerSize
		}
		if defined("default_alignment") {
			t.DefaultAlignment = spec.DefaultAlignment
		}
		if defined("struct_alignment") {
			t.StructAlignment = spec.StructAlignment
		}
		for typeName, bt := range spec.Types {
			if bt.BitSize <= 0 || bt.Alignment <= 0 {
				return fmt.Errorf("%s: target %q: type %q needs positive bit_size and alignment", path, name, typeName)
			}
			t.Types[t.Collate(strings.Fields(typeName))] = bt
		}
		if t.PointerSize <= 0 || t.StructAlignment <= 0 {
			return fmt.Errorf("%s: target %q: %w", path, name, errInvalidTarget)
		}
		r.Add(t)
	}
	return nil
}

var errInvalidTarget = errors.New("pointer_size and struct_alignment must be positive")
