package scrape

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

var binaryPrecedence = map[string]int{
	"||": 1,
	"&&": 2,
	"|":  3,
	"^":  4,
	"&":  5,
	"==": 6, "!=": 6,
	"<": 7, ">": 7, "<=": 7, ">=": 7,
	"<<": 8, ">>": 8,
	"+": 9, "-": 9,
	"*": 10, "/": 10, "%": 10,
}

// constExpr evaluates an integer constant expression starting at the current
// token. It stops at the first token that cannot continue the expression.
func (p *fileParser) constExpr() (int64, error) {
	cond, err := p.binary(1)
	if err != nil {
		return 0, err
	}
	if !p.at("?") {
		return cond, nil
	}
	p.next()
	a, err := p.constExpr()
	if err != nil {
		return 0, err
	}
	if err := p.expect(":"); err != nil {
		return 0, err
	}
	b, err := p.constExpr()
	if err != nil {
		return 0, err
	}
	if cond != 0 {
		return a, nil
	}
	return b, nil
}

func (p *fileParser) binary(minPrec int) (int64, error) {
	lhs, err := p.unary()
	if err != nil {
		return 0, err
	}
	for {
		op := p.cur()
		prec, ok := binaryPrecedence[op.Text]
		if op.Kind != TokPunct || !ok || prec < minPrec {
			return lhs, nil
		}
		p.next()
		rhs, err := p.binary(prec + 1)
		if err != nil {
			return 0, err
		}
		if lhs, err = applyBinary(op.Text, lhs, rhs); err != nil {
			return 0, err
		}
	}
}

func applyBinary(op string, a, b int64) (int64, error) {
	switch op {
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/", "%":
		if b == 0 {
			return 0, syntaxErrorf("Division by zero in constant expression")
		}
		if op == "/" {
			return a / b, nil
		}
		return a % b, nil
	case "<<", ">>":
		if b < 0 {
			return 0, syntaxErrorf("Negative shift count %d", b)
		}
		if b >= 64 {
			if op == ">>" && a < 0 {
				return -1, nil
			}
			return 0, nil
		}
		if op == "<<" {
			return a << uint(b), nil
		}
		return a >> uint(b), nil
	case "&":
		return a & b, nil
	case "|":
		return a | b, nil
	case "^":
		return a ^ b, nil
	case "&&":
		return boolInt(a != 0 && b != 0), nil
	case "||":
		return boolInt(a != 0 || b != 0), nil
	case "==":
		return boolInt(a == b), nil
	case "!=":
		return boolInt(a != b), nil
	case "<":
		return boolInt(a < b), nil
	case ">":
		return boolInt(a > b), nil
	case "<=":
		return boolInt(a <= b), nil
	case ">=":
		return boolInt(a >= b), nil
	}
	return 0, syntaxErrorf("Unknown BinaryOp '%s'", op)
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func (p *fileParser) unary() (int64, error) {
	t := p.cur()
	switch {
	case t.is("-"), t.is("+"), t.is("~"), t.is("!"):
		p.next()
		v, err := p.unary()
		if err != nil {
			return 0, err
		}
		switch t.Text {
		case "-":
			return -v, nil
		case "~":
			return ^v, nil
		case "!":
			return boolInt(v == 0), nil
		}
		return v, nil
	case t.is("sizeof"), t.is("_Alignof"), t.is("__alignof__"), t.is("alignof"):
		p.next()
		return p.sizeofOperand(t.Text != "sizeof")
	case t.is("(") && p.typeNameAhead(1):
		p.next()
		spec, d, err := p.typeName()
		if err != nil {
			return 0, err
		}
		if err := p.expect(")"); err != nil {
			return 0, err
		}
		v, err := p.unary()
		if err != nil {
			return 0, err
		}
		return p.convert(v, spec, d), nil
	}
	return p.primary()
}

// sizeofOperand returns the byte size (or alignment) of a parenthesised type
// name or of a variable already declared in this translation unit.
func (p *fileParser) sizeofOperand(alignment bool) (int64, error) {
	var size, align int
	if p.at("(") && p.typeNameAhead(1) {
		p.next()
		spec, d, err := p.typeName()
		if err != nil {
			return 0, err
		}
		if err := p.expect(")"); err != nil {
			return 0, err
		}
		if size, align, err = p.objectSize(spec, d); err != nil {
			return 0, err
		}
	} else {
		parens := 0
		for p.accept("(") {
			parens++
		}
		name := p.next()
		if name.Kind != TokIdent {
			return 0, syntaxErrorf("Unsupported sizeof operand '%s'", name.Text)
		}
		v, ok := p.s.lastVariable(name.Text, p.function)
		if !ok || v.Exception != "" {
			return 0, syntaxErrorf("Unknown variable '%s' in sizeof", name.Text)
		}
		for range parens {
			if err := p.expect(")"); err != nil {
				return 0, err
			}
		}
		size, align = v.Size, v.Size/max(product(v.Array), 1)
	}
	if alignment {
		return int64(align+7) / 8, nil
	}
	return int64(size+7) / 8, nil
}

func (p *fileParser) primary() (int64, error) {
	t := p.next()
	switch t.Kind {
	case TokNumber:
		return parseIntConstant(t.Text)
	case TokChar:
		return charConstant(t.Text)
	case TokIdent:
		if v, ok := p.lookupConstant(t.Text); ok {
			return v, nil
		}
		return 0, syntaxErrorf("Unknown constant '%s'", t.Text)
	}
	if t.is("(") {
		v, err := p.constExpr()
		if err != nil {
			return 0, err
		}
		return v, p.expect(")")
	}
	return 0, syntaxErrorf("Could not parse constant '%s'", t.Text)
}

// lookupConstant resolves an enumeration constant visible from the current
// position: the enum being declared first, then the most recent declaration
// at file scope or in the enclosing function.
func (p *fileParser) lookupConstant(name string) (int64, bool) {
	if v, ok := p.enumScope[name]; ok {
		return v, true
	}
	for i := len(p.s.enums) - 1; i >= 0; i-- {
		e := &p.s.enums[i]
		if e.Function != "" && e.Function != p.function {
			continue
		}
		if v, ok := e.Value(name); ok {
			return v.Value, true
		}
	}
	return 0, false
}

// convert applies a cast to an integer of the named type.
func (p *fileParser) convert(v int64, spec declSpec, d declarator) int64 {
	if d.ptr > 0 {
		return truncate(v, p.s.target.PointerSize, false)
	}
	name := p.typeNameOf(spec)
	if spec.isEnum {
		name = p.s.target.EnumType
	}
	if name == "bool" || name == "_Bool" {
		return boolInt(v != 0)
	}
	if bt, ok := p.s.baseOf(name); ok {
		return truncate(v, bt.BitSize, bt.Signed)
	}
	return v
}

func truncate(v int64, bits int, signed bool) int64 {
	if bits <= 0 || bits >= 64 {
		return v
	}
	mask := uint64(1)<<uint(bits) - 1
	u := uint64(v) & mask
	if signed && u&(uint64(1)<<uint(bits-1)) != 0 {
		u |= ^mask
	}
	return int64(u)
}

// parseIntConstant reads a C integer or floating literal. Floating values are
// truncated toward zero.
func parseIntConstant(text string) (int64, error) {
	s := strings.TrimRight(text, "uUlL")
	lower := strings.ToLower(s)
	isHex := strings.HasPrefix(lower, "0x")
	if strings.ContainsAny(lower, ".") || (!isHex && strings.ContainsAny(lower, "e")) || (isHex && strings.Contains(lower, "p")) {
		f, err := strconv.ParseFloat(strings.TrimRight(s, "fF"), 64)
		if err != nil {
			return 0, syntaxErrorf("Could not parse constant '%s'", text)
		}
		return int64(f), nil
	}
	if strings.Contains(s, "_") {
		return 0, syntaxErrorf("Could not parse constant '%s'", text)
	}
	if v, err := strconv.ParseInt(s, 0, 64); err == nil {
		return v, nil
	}
	u, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, syntaxErrorf("Could not parse constant '%s'", text)
	}
	return int64(u), nil
}

var simpleEscapes = map[byte]int64{
	'n': '\n', 't': '\t', 'r': '\r', 'a': 7, 'b': 8, 'f': 12, 'v': 11,
	'\\': '\\', '\'': '\'', '"': '"', '?': '?', 'e': 27,
}

// charConstant returns the value of a character literal such as 'A' or '\n'.
func charConstant(text string) (int64, error) {
	q := strings.IndexByte(text, '\'')
	if q < 0 || len(text) < q+3 || text[len(text)-1] != '\'' {
		return 0, syntaxErrorf("Could not parse constant '%s'", text)
	}
	body := text[q+1 : len(text)-1]
	if body[0] != '\\' {
		r, _ := utf8.DecodeRuneInString(body)
		return int64(r), nil
	}
	if len(body) < 2 {
		return 0, syntaxErrorf("Could not parse constant '%s'", text)
	}
	esc := body[1:]
	switch {
	case esc[0] == 'x':
		v, err := strconv.ParseUint(esc[1:], 16, 64)
		if err != nil {
			return 0, syntaxErrorf("Could not parse constant '%s'", text)
		}
		return int64(v), nil
	case esc[0] >= '0' && esc[0] <= '7':
		v, err := strconv.ParseUint(esc, 8, 64)
		if err != nil {
			return 0, syntaxErrorf("Could not parse constant '%s'", text)
		}
		return int64(v), nil
	}
	if v, ok := simpleEscapes[esc[0]]; ok && len(esc) == 1 {
		return v, nil
	}
	return 0, syntaxErrorf("Could not parse constant '%s'", text)
}
