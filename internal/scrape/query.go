package scrape

import (
	"path/filepath"
	"slices"
	"strings"
)

// Wildcard leaves a scope field unqualified.
const Wildcard = "*"

// Scope narrows a query. Empty fields are treated as Wildcard. Filename is
// compared against the base name of the declaring file.
type Scope struct {
	Filename string
	Function string
	Typename string
}

func (sc Scope) normalize() Scope {
	if sc.Filename == "" {
		sc.Filename = Wildcard
	}
	if sc.Function == "" {
		sc.Function = Wildcard
	}
	if sc.Typename == "" {
		sc.Typename = Wildcard
	}
	return sc
}

func (sc Scope) key(kind string, name ...string) string {
	parts := append([]string{kind, sc.Filename, sc.Function, sc.Typename}, name...)
	return strings.Join(parts, ":")
}

func (sc Scope) matchFile(filename string) bool {
	return sc.Filename == Wildcard || sc.Filename == simpleFilename(filename)
}

func (sc Scope) matchFunction(function string) bool {
	return sc.Function == Wildcard || sc.Function == function
}

func simpleFilename(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Base(path)
}

// TypeSize returns the size in bits of a fundamental type, typedef or tagged
// aggregate. Names ending in '*' are pointers. Multi-word names are collated,
// so "short int" and "int short" both mean "signed short".
func (s *Scraper) TypeSize(name string) (int, error) {
	size, _, err := s.lookupType(name)
	return size, err
}

// TypeAlignment returns the alignment in bits of the named type.
func (s *Scraper) TypeAlignment(name string) (int, error) {
	_, align, err := s.lookupType(name)
	return align, err
}

func (s *Scraper) lookupType(name string) (size, align int, err error) {
	name = strings.TrimSpace(name)
	if strings.HasSuffix(name, "*") {
		return s.target.PointerSize, s.target.PointerSize, nil
	}
	name = s.target.Collate(strings.Fields(name))
	if bt, ok := s.target.Base(name); ok {
		return bt.BitSize, bt.Alignment, nil
	}
	if td, ok := s.Typedef(name); ok {
		if td.Exception != "" {
			return 0, 0, &SyntaxError{Msg: td.Exception}
		}
		return td.Size, td.Alignment, nil
	}
	if name == "enum" || strings.HasPrefix(name, "enum ") {
		if bt, ok := s.target.Base(s.target.EnumType); ok {
			return bt.BitSize, bt.Alignment, nil
		}
	}
	return 0, 0, syntaxErrorf("Unknown type %s", name)
}

// isTypeName reports whether name is a fundamental type or a typedef.
func (s *Scraper) isTypeName(name string) bool {
	if _, ok := s.target.Base(name); ok {
		return true
	}
	_, ok := s.typedefs[name]
	return ok
}

// baseOf resolves name through simple typedefs to its fundamental type.
func (s *Scraper) baseOf(name string) (BaseType, bool) {
	for range 16 {
		if bt, ok := s.target.Base(name); ok {
			return bt, true
		}
		td, ok := s.typedefs[name]
		if !ok {
			return BaseType{}, false
		}
		switch {
		case td.Kind == KindEnum:
			name = s.target.EnumType
		case td.Kind == KindSimple && len(td.Types) == 1 && td.Types[0].Ptr == 0 && len(td.Types[0].Array) == 0:
			name = td.Types[0].TypeName
		default:
			return BaseType{}, false
		}
	}
	return BaseType{}, false
}

// lastVariable finds the latest declaration of name visible from function.
func (s *Scraper) lastVariable(name, function string) (Variable, bool) {
	for i := len(s.variables) - 1; i >= 0; i-- {
		v := s.variables[i]
		if v.Name == name && (v.Function == "" || v.Function == function) {
			return v, true
		}
	}
	return Variable{}, false
}

// Enum returns the value of the enumeration constant name. Exactly one
// declaration must match the scope.
func (s *Scraper) Enum(name string, sc Scope) (int64, error) {
	sc = sc.normalize()
	key := sc.key("enum", name)
	if v, ok := s.memo[key]; ok {
		return v.(int64), nil
	}

	match := -1
	for i := range s.enums {
		e := &s.enums[i]
		if !sc.matchFunction(e.Function) || !sc.matchFile(e.Filename) {
			continue
		}
		if sc.Typename != Wildcard && !e.HasName(sc.Typename) {
			continue
		}
		if _, ok := e.Value(name); !ok {
			continue
		}
		if match >= 0 {
			return 0, &LookupError{
				Kind:   Duplicate,
				Entity: EntityEnum,
				Key:    key,
				Found:  []Location{e.Location(), s.enums[match].Location()},
			}
		}
		match = i
	}
	if match < 0 {
		return 0, &LookupError{Kind: Missing, Entity: EntityEnum, Key: key}
	}

	v, _ := s.enums[match].Value(name)
	s.memo[key] = v.Value
	return v.Value, nil
}

// EnumType returns the constants of the single enumeration selected by the
// scope, in declaration order.
func (s *Scraper) EnumType(sc Scope) ([]EnumValue, error) {
	sc = sc.normalize()
	key := sc.key("enum_type")
	if v, ok := s.memo[key]; ok {
		return slices.Clone(v.([]EnumValue)), nil
	}

	match := -1
	for i := range s.enums {
		e := &s.enums[i]
		if !sc.matchFunction(e.Function) || !sc.matchFile(e.Filename) {
			continue
		}
		if sc.Typename != Wildcard && !e.HasName(sc.Typename) {
			continue
		}
		if match >= 0 {
			return nil, &LookupError{
				Kind:   Duplicate,
				Entity: EntityEnum,
				Key:    key,
				Found:  []Location{e.Location(), s.enums[match].Location()},
			}
		}
		match = i
	}
	if match < 0 {
		return nil, &LookupError{Kind: Missing, Entity: EntityEnum, Key: key}
	}

	values := slices.Clone(s.enums[match].Values)
	s.memo[key] = values
	return slices.Clone(values), nil
}

// Var returns the variable called name, with its address filled in from the
// linker symbols when they are loaded. The typename scope field matches the
// collated variable type. A name of Wildcard matches any variable.
func (s *Scraper) Var(name string, sc Scope) (Variable, error) {
	sc = sc.normalize()
	if sc.Typename != Wildcard {
		sc.Typename = s.target.Collate(strings.Fields(sc.Typename))
	}
	key := sc.key("var", name)
	if v, ok := s.memo[key]; ok {
		return v.(Variable), nil
	}

	match := -1
	for i := range s.variables {
		v := &s.variables[i]
		if name != Wildcard && name != v.Name {
			continue
		}
		if !sc.matchFunction(v.Function) || !sc.matchFile(v.Filename) {
			continue
		}
		if sc.Typename != Wildcard && sc.Typename != v.Type {
			continue
		}
		if match >= 0 {
			return Variable{}, &LookupError{
				Kind:   Duplicate,
				Entity: EntityVariable,
				Key:    key,
				Found:  []Location{v.Location(), s.variables[match].Location()},
			}
		}
		match = i
	}
	if match < 0 {
		return Variable{}, &LookupError{Kind: Missing, Entity: EntityVariable, Key: key}
	}

	v := s.variables[match]
	v.Addr = nil
	sym, err := findSymbol(s.mapVars, v.Name, v.Filename, EntityMapVariable, key, v.Location())
	if err != nil {
		return Variable{}, err
	}
	if sym != nil {
		addr := sym.Addr
		v.Addr = &addr
	}
	s.memo[key] = v
	return v, nil
}

// Func returns the function definition called name, with address and size
// from the linker symbols when they are loaded.
func (s *Scraper) Func(name string, sc Scope) (Function, error) {
	sc = sc.normalize()
	key := sc.key("func", name)
	if v, ok := s.memo[key]; ok {
		return v.(Function), nil
	}

	match := -1
	for i := range s.functions {
		f := &s.functions[i]
		if name != f.Name || !sc.matchFile(f.Filename) {
			continue
		}
		if match >= 0 {
			return Function{}, &LookupError{
				Kind:   Duplicate,
				Entity: EntityFunction,
				Key:    key,
				Found:  []Location{f.Location(), s.functions[match].Location()},
			}
		}
		match = i
	}
	if match < 0 {
		return Function{}, &LookupError{Kind: Missing, Entity: EntityFunction, Key: key}
	}

	f := s.functions[match]
	f.Addr, f.Size = nil, nil
	sym, err := findSymbol(s.mapFuncs, f.Name, f.Filename, EntityMapFunction, key, f.Location())
	if err != nil {
		return Function{}, err
	}
	if sym != nil {
		addr, size := sym.Addr, sym.Size
		f.Addr, f.Size = &addr, &size
	}
	s.memo[key] = f
	return f, nil
}

// findSymbol picks the linker symbol for a declaration. Symbols without a file
// match any declaration of the same name.
func findSymbol(syms []MapSymbol, name, filename string, entity Entity, key string, at Location) (*MapSymbol, error) {
	var found *MapSymbol
	for i := range syms {
		sym := &syms[i]
		if sym.Name != name {
			continue
		}
		if sym.File != "" && simpleFilename(sym.File) != simpleFilename(filename) {
			continue
		}
		if found != nil {
			return nil, &LookupError{Kind: Duplicate, Entity: entity, Key: key, Found: []Location{at, at}}
		}
		found = sym
	}
	return found, nil
}
