package scrape

// Param is one parameter of a function definition.
type Param struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Ptr   int    `json:"ptr"`
	Array []int  `json:"array"`
}

// Function is a function definition. Prototypes are not recorded.
type Function struct {
	Name       string  `json:"name"`
	Filename   string  `json:"filename"`
	LineNumber int     `json:"line_number"`
	Line       string  `json:"line"`
	Type       string  `json:"type"`
	Ptr        int     `json:"ptr"`
	Params     []Param `json:"params"`
	Addr       *uint64 `json:"addr,omitempty"`
	Size       *uint64 `json:"size,omitempty"`
	Exception  string  `json:"exception,omitempty"`
	Static     bool    `json:"static,omitempty"`
}

// Location returns the declaration site.
func (f *Function) Location() Location {
	return Location{Filename: f.Filename, LineNumber: f.LineNumber}
}

// TypedefKind is the shape of a typedef or tagged aggregate.
type TypedefKind string

const (
	KindSimple TypedefKind = "simple"
	KindStruct TypedefKind = "struct"
	KindUnion  TypedefKind = "union"
	KindEnum   TypedefKind = "enum"
)

// TypeElement is one member of an aggregate, or the single aliased type of a
// simple typedef. Offset and Size are in bits.
type TypeElement struct {
	TypeName   string `json:"type_name"`
	VarName    string `json:"var_name,omitempty"`
	LineNumber int    `json:"line_number"`
	Line       string `json:"line"`
	Array      []int  `json:"array"`
	Ptr        int    `json:"ptr"`
	Offset     int    `json:"offset"`
	Size       int    `json:"size"`
	Alignment  int    `json:"alignment"`
	BitField   int    `json:"bitfield,omitempty"`
}

// Typedef is a named type: a typedef name or a struct/union tag. Size and
// Alignment are in bits. Exception is set when the layout could not be
// computed.
type Typedef struct {
	Name       string        `json:"name"`
	Kind       TypedefKind   `json:"kind"`
	Filename   string        `json:"filename"`
	LineNumber int           `json:"line_number"`
	Line       string        `json:"line"`
	Size       int           `json:"size"`
	Alignment  int           `json:"alignment"`
	Types      []TypeElement `json:"types"`
	Exception  string        `json:"exception,omitempty"`
}

// Location returns the declaration site.
func (t *Typedef) Location() Location {
	return Location{Filename: t.Filename, LineNumber: t.LineNumber}
}

// Variable is a module-scope variable or a function-scope static.
type Variable struct {
	Name       string  `json:"name"`
	Filename   string  `json:"filename"`
	LineNumber int     `json:"line_number"`
	Line       string  `json:"line"`
	Type       string  `json:"type"`
	EnumName   string  `json:"enum_name,omitempty"`
	Array      []int   `json:"array"`
	Ptr        int     `json:"ptr"`
	Size       int     `json:"size"`
	Function   string  `json:"function,omitempty"`
	Static     bool    `json:"static,omitempty"`
	Extern     bool    `json:"extern,omitempty"`
	Addr       *uint64 `json:"addr,omitempty"`
	Exception  string  `json:"exception,omitempty"`
}

// Location returns the declaration site.
func (v *Variable) Location() Location {
	return Location{Filename: v.Filename, LineNumber: v.LineNumber}
}

// EnumValue is one enumeration constant.
type EnumValue struct {
	Name       string `json:"name"`
	Value      int64  `json:"value"`
	LineNumber int    `json:"line_number"`
	Line       string `json:"line"`
}

// Enum is one enumeration. Name is the tag (empty when anonymous); Aliases
// are typedef names declared together with it.
type Enum struct {
	Filename   string      `json:"filename"`
	LineNumber int         `json:"line_number"`
	Function   string      `json:"function,omitempty"`
	Name       string      `json:"name,omitempty"`
	Aliases    []string    `json:"aliases,omitempty"`
	Values     []EnumValue `json:"values"`
	Exception  string      `json:"exception,omitempty"`
}

// Location returns the declaration site.
func (e *Enum) Location() Location {
	return Location{Filename: e.Filename, LineNumber: e.LineNumber}
}

// HasName reports whether typename selects e, either by tag or alias.
func (e *Enum) HasName(typename string) bool {
	if e.Name == typename {
		return true
	}
	for _, a := range e.Aliases {
		if a == typename {
			return true
		}
	}
	return false
}

// Value returns the named constant.
func (e *Enum) Value(name string) (EnumValue, bool) {
	for _, v := range e.Values {
		if v.Name == name {
			return v, true
		}
	}
	return EnumValue{}, false
}

// MapSymbol is a symbol read from the linker output. File is set only for
// file-local symbols.
type MapSymbol struct {
	Name string `json:"name"`
	Addr uint64 `json:"addr"`
	Size uint64 `json:"size"`
	File string `json:"file,omitempty"`
}
