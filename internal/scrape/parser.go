package scrape

import (
	"fmt"
	"slices"
	"strings"
)

// fileParser walks the token stream of one source file and records every
// declaration it finds directly into the Scraper.
type fileParser struct {
	s        *Scraper
	filename string
	lines    []string
	toks     []Token
	pos      int

	function  string           // enclosing function definition, empty at file scope
	enumScope map[string]int64 // constants of the enum being declared
}

// declSpec is the result of parsing declaration specifiers.
type declSpec struct {
	line    int
	typedef bool
	static  bool
	extern  bool
	words   []string // fundamental type keywords
	named   string   // typedef name or "struct tag" reference
	agg     *Typedef // struct or union declared inline
	isEnum  bool
	enumTag string
	enumIdx int // index into Scraper.enums when declared inline, else -1
}

func (s declSpec) hasType() bool {
	return len(s.words) > 0 || s.named != "" || s.agg != nil || s.isEnum
}

// declarator is one declared name with its pointer and array modifiers.
type declarator struct {
	name   string
	line   int
	ptr    int
	dims   []int
	isFunc bool
	params []Param
	err    error // array extent that could not be evaluated

	unsized bool // first array dimension left empty, as in a[]
}

func (p *fileParser) cur() Token { return p.toks[p.pos] }

func (p *fileParser) peekAt(n int) Token {
	if i := p.pos + n; i < len(p.toks) {
		return p.toks[i]
	}
	return p.toks[len(p.toks)-1]
}

func (p *fileParser) next() Token {
	t := p.toks[p.pos]
	if t.Kind != TokEOF {
		p.pos++
	}
	return t
}

func (p *fileParser) at(text string) bool { return p.cur().is(text) }

func (p *fileParser) accept(text string) bool {
	if p.at(text) {
		p.next()
		return true
	}
	return false
}

func (p *fileParser) expect(text string) error {
	if p.accept(text) {
		return nil
	}
	return p.errorf("expected '%s', found '%s'", text, p.cur().Text)
}

func (p *fileParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%s:%d: %s", p.filename, p.cur().Line, fmt.Sprintf(format, args...))
}

func (p *fileParser) lineText(n int) string {
	if n > 0 && n < len(p.lines) {
		return p.lines[n]
	}
	return ""
}

// parse consumes the whole file.
func (p *fileParser) parse() error {
	for p.cur().Kind != TokEOF {
		switch {
		case p.accept(";"):
		case p.at("__asm__"), p.at("asm"), p.at("_Static_assert"), p.at("static_assert"):
			p.next()
			if err := p.skipBalanced("(", ")"); err != nil {
				return err
			}
			p.accept(";")
		default:
			if err := p.parseDeclaration(); err != nil {
				return err
			}
		}
	}
	return nil
}

// parseDeclaration handles one declaration or function definition.
func (p *fileParser) parseDeclaration() error {
	start := p.pos
	spec, err := p.parseSpecifiers()
	if err != nil {
		return err
	}
	if p.accept(";") {
		return nil
	}
	for {
		d, err := p.parseDeclarator()
		if err != nil {
			return err
		}
		if d.name == "" {
			if p.pos == start {
				return p.errorf("unexpected '%s'", p.cur().Text)
			}
			return p.errorf("expected a declarator, found '%s'", p.cur().Text)
		}

		variable := false
		switch {
		case spec.typedef:
			if err := p.addTypedef(spec, d); err != nil {
				return err
			}
		case d.isFunc && p.at("{"):
			p.addFunction(spec, d)
			return p.parseBody(d.name)
		case d.isFunc, spec.extern:
			// Prototypes and extern declarations define nothing.
		default:
			variable = true
		}

		if p.at("__asm__") || p.at("asm") || p.at("__asm") {
			p.next()
			if err := p.skipBalanced("(", ")"); err != nil {
				return err
			}
		}
		unsized := variable && d.unsized
		if p.accept("=") {
			if unsized {
				if n := p.initializerExtent(); n >= 0 {
					d.dims[0] = n
					unsized = false
				}
			}
			if err := p.skipInitializer(); err != nil {
				return err
			}
		}
		if unsized && d.err == nil {
			d.err = syntaxErrorf("Array size missing for %s", d.name)
		}
		if variable {
			p.addVariable(spec, d)
		}
		if p.accept(",") {
			continue
		}
		return p.expect(";")
	}
}

// parseSpecifiers reads storage classes, qualifiers and the type specifier.
func (p *fileParser) parseSpecifiers() (declSpec, error) {
	spec := declSpec{line: p.cur().Line, enumIdx: -1}
	for {
		t := p.cur()
		if t.Kind != TokIdent {
			return spec, nil
		}
		switch {
		case t.Text == "typedef":
			spec.typedef = true
			p.next()
		case storageClasses[t.Text]:
			spec.static = spec.static || t.Text == "static"
			spec.extern = spec.extern || t.Text == "extern"
			p.next()
		case typeQualifiers[t.Text]:
			p.next()
			if t.Text == "_Atomic" && p.at("(") {
				if err := p.skipBalanced("(", ")"); err != nil {
					return spec, err
				}
			}
		case builtinSpecifiers[t.Text]:
			if spec.named != "" || spec.agg != nil || spec.isEnum {
				return spec, nil
			}
			spec.words = append(spec.words, t.Text)
			p.next()
		case t.Text == "struct" || t.Text == "union":
			if spec.hasType() {
				return spec, nil
			}
			if err := p.parseRecord(&spec); err != nil {
				return spec, err
			}
		case t.Text == "enum":
			if spec.hasType() {
				return spec, nil
			}
			if err := p.parseEnum(&spec); err != nil {
				return spec, err
			}
		default:
			if spec.hasType() {
				return spec, nil
			}
			n := p.peekAt(1)
			if !p.s.isTypeName(t.Text) && n.Kind != TokIdent && !n.is("*") {
				// implicit int: the identifier is the declarator
				return spec, nil
			}
			spec.named = t.Text
			p.next()
		}
	}
}

// parseRecord reads a struct or union specifier, laying out its members when
// it has a body.
func (p *fileParser) parseRecord(spec *declSpec) error {
	kw := p.next()
	tag := ""
	if p.cur().Kind == TokIdent {
		tag = p.next().Text
	}
	if !p.at("{") {
		if tag == "" {
			return p.errorf("expected a tag or body after '%s'", kw.Text)
		}
		spec.named = kw.Text + " " + tag
		return nil
	}
	p.next()

	td := &Typedef{
		Kind:       KindStruct,
		Filename:   p.filename,
		LineNumber: kw.Line,
		Line:       p.lineText(kw.Line),
	}
	if tag != "" {
		td.Name = kw.Text + " " + tag
	}
	if kw.Text == "union" {
		td.Kind = KindUnion
	}
	lay := newLayout(td.Kind == KindUnion, p.s.target.StructAlignment)

	for !p.accept("}") {
		if p.cur().Kind == TokEOF {
			return p.errorf("unexpected end of file in %s body", kw.Text)
		}
		if p.accept(";") {
			continue
		}
		mspec, err := p.parseSpecifiers()
		if err != nil {
			return err
		}
		if p.accept(";") {
			// Anonymous member struct or union.
			if mspec.agg != nil && mspec.agg.Name == "" {
				el := TypeElement{
					TypeName:   string(mspec.agg.Kind),
					LineNumber: mspec.line,
					Line:       p.lineText(mspec.line),
					Size:       mspec.agg.Size,
					Alignment:  mspec.agg.Alignment,
				}
				el.Offset = lay.place(el.Size, el.Alignment, -1)
				td.Types = append(td.Types, el)
			}
			continue
		}
		for {
			d, err := p.parseDeclarator()
			if err != nil {
				return err
			}
			bitfield := -1
			if p.accept(":") {
				w, err := p.constExpr()
				if err != nil {
					return err
				}
				if w < 0 {
					return p.errorf("negative bitfield width %d", w)
				}
				bitfield = int(w)
			}
			el, err := p.element(mspec, d)
			if err != nil {
				if td.Exception == "" {
					td.Exception = err.Error()
				}
			} else {
				el.Offset = lay.place(el.Size, el.Alignment, bitfield)
				if bitfield >= 0 {
					el.BitField = bitfield
				}
			}
			td.Types = append(td.Types, el)
			if !p.accept(",") {
				break
			}
		}
		if err := p.expect(";"); err != nil {
			return err
		}
	}

	if td.Exception == "" {
		td.Size, td.Alignment = lay.finish()
	}
	if td.Name != "" {
		p.s.tags[td.Name] = td
	}
	p.s.trace(10, "aggregate", "name", td.Name, "kind", td.Kind, "size", td.Size, "file", p.filename, "line", td.LineNumber)
	spec.agg = td
	return nil
}

// parseEnum reads an enum specifier and records its constants when it has a
// body. Implicit values continue from the previous constant.
func (p *fileParser) parseEnum(spec *declSpec) error {
	kw := p.next()
	spec.isEnum = true
	if p.cur().Kind == TokIdent {
		spec.enumTag = p.next().Text
	}
	if p.accept(":") {
		// fixed underlying type
		if _, err := p.parseSpecifiers(); err != nil {
			return err
		}
	}
	if !p.accept("{") {
		return nil
	}

	e := Enum{
		Filename:   p.filename,
		LineNumber: kw.Line,
		Function:   p.function,
		Name:       spec.enumTag,
		Values:     []EnumValue{},
	}
	outer := p.enumScope
	p.enumScope = make(map[string]int64)
	defer func() { p.enumScope = outer }()

	value := int64(0)
	for !p.at("}") {
		name := p.next()
		if name.Kind != TokIdent {
			return p.errorf("expected an enumerator, found '%s'", name.Text)
		}
		if p.accept("=") {
			v, err := p.constExpr()
			if err != nil {
				e.Exception = err.Error()
				if err := p.skipUntil("}"); err != nil {
					return err
				}
				break
			}
			value = v
		}
		e.Values = append(e.Values, EnumValue{
			Name:       name.Text,
			Value:      value,
			LineNumber: name.Line,
			Line:       p.lineText(name.Line),
		})
		p.enumScope[name.Text] = value
		value++
		if !p.accept(",") {
			break
		}
	}
	if err := p.expect("}"); err != nil {
		return err
	}

	p.s.enums = append(p.s.enums, e)
	spec.enumIdx = len(p.s.enums) - 1
	p.s.trace(10, "enum", "name", e.Name, "function", e.Function, "values", len(e.Values), "file", p.filename, "line", e.LineNumber)
	return nil
}

// parseDeclarator reads pointers, the declared name and array or parameter
// suffixes. Abstract declarators (no name) are accepted.
func (p *fileParser) parseDeclarator() (declarator, error) {
	ptr := 0
	for {
		if p.accept("*") {
			ptr++
			continue
		}
		if typeQualifiers[p.cur().Text] && p.cur().Kind == TokIdent {
			p.next()
			continue
		}
		break
	}

	if p.at("(") && p.groupedDeclaratorAhead() {
		p.next()
		inner, err := p.parseDeclarator()
		if err != nil {
			return inner, err
		}
		if err := p.expect(")"); err != nil {
			return inner, err
		}
		outer := declarator{}
		if err := p.parseSuffixes(&outer); err != nil {
			return inner, err
		}
		// Suffixes after the parenthesis describe what a pointer declarator
		// points to; they only matter for a plain grouped name.
		if inner.ptr == 0 && !inner.isFunc {
			inner.unsized = inner.unsized || (len(inner.dims) == 0 && outer.unsized)
			inner.dims = append(inner.dims, outer.dims...)
			inner.isFunc = outer.isFunc
			inner.params = outer.params
			inner.ptr = ptr
			if inner.err == nil {
				inner.err = outer.err
			}
		}
		return inner, nil
	}

	d := declarator{line: p.cur().Line, ptr: ptr}
	if t := p.cur(); t.Kind == TokIdent && !builtinSpecifiers[t.Text] {
		d.name = t.Text
		p.next()
	}
	if err := p.parseSuffixes(&d); err != nil {
		return d, err
	}
	return d, nil
}

// groupedDeclaratorAhead reports whether the '(' at the current position opens
// a parenthesised declarator rather than a parameter list.
func (p *fileParser) groupedDeclaratorAhead() bool {
	n := p.peekAt(1)
	switch {
	case n.is("*"), n.is("("), n.is("^"):
		return true
	case n.Kind == TokIdent:
		return !p.isSpecifierStart(n.Text)
	}
	return false
}

func (p *fileParser) parseSuffixes(d *declarator) error {
	for {
		switch {
		case p.accept("["):
			if p.accept("]") {
				d.unsized = d.unsized || len(d.dims) == 0
				d.dims = append(d.dims, 0)
				continue
			}
			for p.at("static") || (typeQualifiers[p.cur().Text] && p.cur().Kind == TokIdent) {
				p.next()
			}
			n, err := p.constExpr()
			if err != nil {
				if d.err == nil {
					d.err = err
				}
				if err := p.skipUntil("]"); err != nil {
					return err
				}
			} else if n < 0 {
				if d.err == nil {
					d.err = syntaxErrorf("Negative array size %d", n)
				}
			}
			if err := p.expect("]"); err != nil {
				return err
			}
			d.dims = append(d.dims, int(n))
		case p.at("("):
			params, err := p.parseParams()
			if err != nil {
				return err
			}
			if !d.isFunc {
				d.isFunc = true
				d.params = params
			}
		default:
			return nil
		}
	}
}

func (p *fileParser) parseParams() ([]Param, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	params := []Param{}
	if p.accept(")") {
		return params, nil
	}
	if p.at("void") && p.peekAt(1).is(")") {
		p.next()
		p.next()
		return params, nil
	}
	for {
		if !p.accept("...") {
			spec, err := p.parseSpecifiers()
			if err != nil {
				return nil, err
			}
			d, err := p.parseDeclarator()
			if err != nil {
				return nil, err
			}
			param := Param{Name: d.name, Type: p.typeNameOf(spec), Ptr: d.ptr, Array: d.dims}
			if spec.isEnum {
				param.Type = strings.TrimSpace("enum " + spec.enumTag)
			}
			if param.Array == nil {
				param.Array = []int{}
			}
			params = append(params, param)
		}
		if p.accept(",") {
			continue
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return params, nil
	}
}

// parseBody scans a function body. Statements are skipped; declarations are
// parsed so that enums, typedefs and static variables are recorded with the
// function as their scope.
func (p *fileParser) parseBody(name string) error {
	outer := p.function
	p.function = name
	defer func() { p.function = outer }()

	if err := p.expect("{"); err != nil {
		return err
	}
	depth := 1
	stmtStart := true
	for depth > 0 {
		t := p.cur()
		switch {
		case t.Kind == TokEOF:
			return p.errorf("unexpected end of file in body of %s", name)
		case t.is("{"):
			depth++
			p.next()
			stmtStart = true
		case t.is("}"):
			depth--
			p.next()
			stmtStart = true
		case t.is(";"), t.is(":"):
			p.next()
			stmtStart = true
		case stmtStart && p.startsDeclaration():
			if err := p.parseDeclaration(); err != nil {
				return err
			}
			stmtStart = true
		case t.is("enum") && (p.peekAt(1).is("{") || p.peekAt(2).is("{")):
			spec := declSpec{enumIdx: -1}
			if err := p.parseEnum(&spec); err != nil {
				return err
			}
			stmtStart = false
		default:
			p.next()
			stmtStart = false
		}
	}
	return nil
}

// startsDeclaration reports whether a statement beginning at the current token
// is a declaration.
func (p *fileParser) startsDeclaration() bool {
	t := p.cur()
	if t.Kind != TokIdent {
		return false
	}
	if p.isSpecifierStart(t.Text) && !p.s.isTypeName(t.Text) {
		return true
	}
	if p.s.isTypeName(t.Text) {
		n := p.peekAt(1)
		return n.Kind == TokIdent || n.is("*") || n.is("(")
	}
	return false
}

// isSpecifierStart reports whether name can begin declaration specifiers.
func (p *fileParser) isSpecifierStart(name string) bool {
	switch name {
	case "typedef", "struct", "union", "enum":
		return true
	}
	return storageClasses[name] || typeQualifiers[name] || builtinSpecifiers[name] || p.s.isTypeName(name)
}

// typeNameAhead reports whether the token at offset n starts a type name.
func (p *fileParser) typeNameAhead(n int) bool {
	t := p.peekAt(n)
	return t.Kind == TokIdent && p.isSpecifierStart(t.Text) && !storageClasses[t.Text] && t.Text != "typedef"
}

// typeName parses a type name as used in casts and sizeof.
func (p *fileParser) typeName() (declSpec, declarator, error) {
	spec, err := p.parseSpecifiers()
	if err != nil {
		return spec, declarator{}, err
	}
	d, err := p.parseDeclarator()
	return spec, d, err
}

// typeNameOf returns the collated type name of the specifiers.
func (p *fileParser) typeNameOf(spec declSpec) string {
	switch {
	case spec.isEnum:
		return "enum"
	case spec.agg != nil:
		if spec.agg.Name != "" {
			return spec.agg.Name
		}
		return string(spec.agg.Kind)
	case spec.named != "":
		return spec.named
	case len(spec.words) > 0:
		return p.s.target.Collate(spec.words)
	}
	return "signed int"
}

// objectSize returns the size and alignment in bits of an object declared
// with spec and d.
func (p *fileParser) objectSize(spec declSpec, d declarator) (size, align int, err error) {
	if d.err != nil {
		return 0, 0, d.err
	}
	switch {
	case d.ptr > 0:
		size, align = p.s.target.PointerSize, p.s.target.PointerSize
	case d.isFunc:
		return 0, 0, syntaxErrorf("Function type has no size")
	case spec.isEnum:
		bt, ok := p.s.target.Base(p.s.target.EnumType)
		if !ok {
			return 0, 0, syntaxErrorf("Unknown type %s", p.s.target.EnumType)
		}
		size, align = bt.BitSize, bt.Alignment
	case spec.agg != nil:
		if spec.agg.Exception != "" {
			return 0, 0, &SyntaxError{Msg: spec.agg.Exception}
		}
		size, align = spec.agg.Size, spec.agg.Alignment
	default:
		if size, align, err = p.s.lookupType(p.typeNameOf(spec)); err != nil {
			return 0, 0, err
		}
	}
	return size * product(d.dims), align, nil
}

// element builds the layout record of one aggregate member.
func (p *fileParser) element(spec declSpec, d declarator) (TypeElement, error) {
	el := TypeElement{
		TypeName:   p.typeNameOf(spec),
		VarName:    d.name,
		LineNumber: d.line,
		Line:       p.lineText(d.line),
		Array:      d.dims,
		Ptr:        d.ptr,
	}
	if spec.isEnum {
		el.TypeName = strings.TrimSpace("enum " + spec.enumTag)
	}
	if el.Array == nil {
		el.Array = []int{}
	}
	size, align, err := p.objectSize(spec, d)
	if err != nil {
		return el, err
	}
	el.Size, el.Alignment = size, align
	return el, nil
}

func (p *fileParser) addTypedef(spec declSpec, d declarator) error {
	td := &Typedef{
		Name:       d.name,
		Kind:       KindSimple,
		Filename:   p.filename,
		LineNumber: spec.line,
		Line:       p.lineText(spec.line),
	}
	switch {
	case spec.agg != nil && d.ptr == 0 && !d.isFunc:
		td.Kind = spec.agg.Kind
		td.Types = spec.agg.Types
		td.Exception = spec.agg.Exception
		if d.err != nil {
			td.Exception = d.err.Error()
		}
		if td.Exception == "" {
			td.Size = spec.agg.Size * product(d.dims)
			td.Alignment = spec.agg.Alignment
		}
	default:
		if spec.isEnum && d.ptr == 0 {
			td.Kind = KindEnum
			if idx := p.enumIndex(spec); idx >= 0 && len(d.dims) == 0 && !d.isFunc {
				e := &p.s.enums[idx]
				e.Aliases = append(e.Aliases, d.name)
			}
		}
		el, err := p.element(spec, d)
		if d.isFunc {
			// Function types are only usable through pointers.
			el.Size, el.Alignment, err = 0, 0, nil
		}
		if err != nil {
			td.Exception = err.Error()
		}
		td.Types = []TypeElement{el}
		td.Size, td.Alignment = el.Size, el.Alignment
	}
	if td.Types == nil {
		td.Types = []TypeElement{}
	}

	if existing, ok := p.s.typedefs[td.Name]; ok {
		if !sameLayout(existing, td) {
			return &DuplicateTypedefError{Name: td.Name, First: existing.Location(), Second: td.Location()}
		}
		return nil
	}
	p.s.typedefs[td.Name] = td
	p.s.trace(10, "typedef", "name", td.Name, "kind", td.Kind, "size", td.Size, "file", p.filename, "line", td.LineNumber)
	return nil
}

// enumIndex finds the enum a specifier refers to: the one it declared, or
// the latest visible enum with the same tag.
func (p *fileParser) enumIndex(spec declSpec) int {
	if spec.enumIdx >= 0 || spec.enumTag == "" {
		return spec.enumIdx
	}
	for i := len(p.s.enums) - 1; i >= 0; i-- {
		e := &p.s.enums[i]
		if e.Name == spec.enumTag && (e.Function == "" || e.Function == p.function) {
			return i
		}
	}
	return -1
}

// sameLayout compares two typedefs ignoring where they were declared.
func sameLayout(a, b *Typedef) bool {
	if a.Kind != b.Kind || a.Size != b.Size || a.Alignment != b.Alignment || a.Exception != b.Exception {
		return false
	}
	return slices.EqualFunc(a.Types, b.Types, func(x, y TypeElement) bool {
		return x.TypeName == y.TypeName && x.VarName == y.VarName && x.Ptr == y.Ptr &&
			x.Offset == y.Offset && x.Size == y.Size && x.Alignment == y.Alignment &&
			x.BitField == y.BitField && slices.Equal(x.Array, y.Array)
	})
}

func (p *fileParser) addFunction(spec declSpec, d declarator) {
	f := Function{
		Name:       d.name,
		Filename:   p.filename,
		LineNumber: d.line,
		Line:       p.lineText(d.line),
		Type:       p.typeNameOf(spec),
		Ptr:        d.ptr,
		Params:     d.params,
		Static:     spec.static,
	}
	if f.Params == nil {
		f.Params = []Param{}
	}
	p.s.functions = append(p.s.functions, f)
	p.s.trace(10, "function", "name", f.Name, "file", p.filename, "line", f.LineNumber)
}

// addVariable records module-scope variables and function-scope statics.
func (p *fileParser) addVariable(spec declSpec, d declarator) {
	if p.function != "" && !spec.static {
		return
	}
	v := Variable{
		Name:       d.name,
		Filename:   p.filename,
		LineNumber: d.line,
		Line:       p.lineText(d.line),
		Type:       p.typeNameOf(spec),
		Array:      d.dims,
		Ptr:        d.ptr,
		Function:   p.function,
		Static:     spec.static,
	}
	if spec.isEnum {
		v.EnumName = spec.enumTag
	}
	if v.Array == nil {
		v.Array = []int{}
	}
	size, _, err := p.objectSize(spec, d)
	if err != nil {
		v.Exception = err.Error()
	} else {
		v.Size = size
	}
	p.s.variables = append(p.s.variables, v)
	p.s.trace(10, "variable", "name", v.Name, "type", v.Type, "function", v.Function, "size", v.Size, "file", p.filename, "line", v.LineNumber)
}

// initializerExtent returns the number of elements the initializer at the
// current position gives an array of unknown size, or -1 when it cannot tell.
// Designated initializers are not counted.
func (p *fileParser) initializerExtent() int {
	t := p.cur()
	if t.Kind == TokString {
		n := 0
		for i := 0; p.peekAt(i).Kind == TokString; i++ {
			c, ok := stringLength(p.peekAt(i).Text)
			if !ok {
				return -1
			}
			n += c
		}
		return n + 1
	}
	if !t.is("{") {
		return -1
	}

	count, depth := 0, 0
	empty := true // no token yet in the current element
	for i := 0; ; i++ {
		t := p.peekAt(i)
		if t.Kind == TokEOF {
			return -1
		}
		if depth == 1 {
			switch {
			case t.is(","):
				if empty {
					return -1
				}
				count++
				empty = true
				continue
			case t.is("}"):
				if !empty {
					count++
				}
				return count
			case empty && (t.is(".") || t.is("[")):
				return -1
			}
			empty = false
		}
		switch {
		case t.is("(") || t.is("[") || t.is("{"):
			depth++
		case t.is(")") || t.is("]") || t.is("}"):
			depth--
		}
	}
}

// stringLength counts the characters of a string literal token, escapes
// counting as one.
func stringLength(lit string) (int, bool) {
	open := strings.IndexByte(lit, '"')
	if open < 0 || !strings.HasSuffix(lit, `"`) || len(lit) < open+2 {
		return 0, false
	}
	body := lit[open+1 : len(lit)-1]
	n := 0
	for i := 0; i < len(body); i++ {
		n++
		if body[i] != '\\' || i+1 >= len(body) {
			continue
		}
		i++
		switch c := body[i]; {
		case c == 'x':
			for i+1 < len(body) && isHexDigit(body[i+1]) {
				i++
			}
		case c >= '0' && c <= '7':
			for k := 0; k < 2 && i+1 < len(body) && body[i+1] >= '0' && body[i+1] <= '7'; k++ {
				i++
			}
		}
	}
	return n, true
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// skipInitializer skips to the ',' or ';' that ends an initializer.
func (p *fileParser) skipInitializer() error {
	depth := 0
	for {
		t := p.cur()
		switch {
		case t.Kind == TokEOF:
			return p.errorf("unexpected end of file in initializer")
		case t.is("("), t.is("["), t.is("{"):
			depth++
		case t.is(")"), t.is("]"), t.is("}"):
			depth--
		case depth == 0 && (t.is(",") || t.is(";")):
			return nil
		}
		p.next()
	}
}

// skipUntil advances to the closing token at nesting depth zero without
// consuming it.
func (p *fileParser) skipUntil(closer string) error {
	depth := 0
	for {
		t := p.cur()
		switch {
		case t.Kind == TokEOF:
			return p.errorf("expected '%s'", closer)
		case depth == 0 && t.is(closer):
			return nil
		case t.is("("), t.is("["), t.is("{"):
			depth++
		case t.is(")"), t.is("]"), t.is("}"):
			if depth > 0 {
				depth--
			}
		}
		p.next()
	}
}

// skipBalanced consumes an open token and everything up to its matching close.
func (p *fileParser) skipBalanced(open, close string) error {
	if err := p.expect(open); err != nil {
		return err
	}
	depth := 1
	for depth > 0 {
		t := p.next()
		switch {
		case t.Kind == TokEOF:
			return p.errorf("expected '%s'", close)
		case t.is(open):
			depth++
		case t.is(close):
			depth--
		}
	}
	return nil
}
