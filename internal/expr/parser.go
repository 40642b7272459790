package expr

// binaryLevels lists the binary operators from loosest to tightest binding.
var binaryLevels = [][]string{
	{"|"},
	{"^"},
	{"&"},
	{"<<", ">>"},
	{"+", "-"},
	{"*", "/", "//", "%"},
}

type parser struct {
	toks []token
	pos  int
}

// Parse parses a single expression.
func Parse(src string) (Node, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	n, err := p.parseTest()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, syntaxError(t.pos)
	}
	return n, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isOp(op string) bool {
	t := p.peek()
	return t.kind == tokOp && t.text == op
}

func (p *parser) isKeyword(kw string) bool {
	t := p.peek()
	return t.kind == tokName && t.text == kw
}

func (p *parser) expectOp(op string) error {
	if !p.isOp(op) {
		return syntaxError(p.peek().pos)
	}
	p.advance()
	return nil
}

// parseTest handles the conditional expression.
func (p *parser) parseTest() (Node, error) {
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.isKeyword("if") {
		return n, nil
	}
	p.advance()
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.isKeyword("else") {
		return nil, syntaxError(p.peek().pos)
	}
	p.advance()
	els, err := p.parseTest()
	if err != nil {
		return nil, err
	}
	return &IfExp{Cond: cond, Then: n, Else: els}, nil
}

func (p *parser) parseOr() (Node, error) {
	n, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("or") {
		p.advance()
		r, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		n = &BoolOp{Op: "or", L: n, R: r}
	}
	return n, nil
}

func (p *parser) parseAnd() (Node, error) {
	n, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("and") {
		p.advance()
		r, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		n = &BoolOp{Op: "and", L: n, R: r}
	}
	return n, nil
}

func (p *parser) parseNot() (Node, error) {
	if p.isKeyword("not") {
		p.advance()
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: "not", X: x}, nil
	}
	return p.parseComparison()
}

// compareOp consumes a comparison operator if one is next.
func (p *parser) compareOp() (string, bool) {
	t := p.peek()
	switch {
	case t.kind == tokOp:
		switch t.text {
		case "<", ">", "==", ">=", "<=", "!=":
			p.advance()
			return t.text, true
		}
	case t.kind == tokName && t.text == "in":
		p.advance()
		return "in", true
	case t.kind == tokName && t.text == "not":
		n := p.toks[p.pos+1]
		if n.kind == tokName && n.text == "in" {
			p.advance()
			p.advance()
			return "not in", true
		}
	case t.kind == tokName && t.text == "is":
		p.advance()
		if p.isKeyword("not") {
			p.advance()
			return "is not", true
		}
		return "is", true
	}
	return "", false
}

func (p *parser) parseComparison() (Node, error) {
	l, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	var cmp *Compare
	for {
		op, ok := p.compareOp()
		if !ok {
			break
		}
		r, err := p.parseBinary(0)
		if err != nil {
			return nil, err
		}
		if cmp == nil {
			cmp = &Compare{L: l}
		}
		cmp.Ops = append(cmp.Ops, op)
		cmp.Rs = append(cmp.Rs, r)
	}
	if cmp == nil {
		return l, nil
	}
	return cmp, nil
}

func (p *parser) parseBinary(level int) (Node, error) {
	if level == len(binaryLevels) {
		return p.parseFactor()
	}
	n, err := p.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || indexOf(binaryLevels[level], t.text) < 0 {
			return n, nil
		}
		p.advance()
		r, err := p.parseBinary(level + 1)
		if err != nil {
			return nil, err
		}
		n = &Binary{Op: t.text, L: n, R: r}
	}
}

// parseFactor handles unary - + ~.
func (p *parser) parseFactor() (Node, error) {
	if t := p.peek(); t.kind == tokOp && (t.text == "-" || t.text == "+" || t.text == "~") {
		p.advance()
		x, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: t.text, X: x}, nil
	}
	return p.parsePower()
}

func (p *parser) parsePower() (Node, error) {
	n, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if p.isOp("**") {
		p.advance()
		r, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return &Binary{Op: "**", L: n, R: r}, nil
	}
	return n, nil
}

// parsePostfix handles attribute access, subscripts and calls.
func (p *parser) parsePostfix() (Node, error) {
	n, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.isOp("."):
			p.advance()
			t := p.advance()
			if t.kind != tokName {
				return nil, syntaxError(t.pos)
			}
			n = &Attr{X: n, Name: t.text}
		case p.isOp("["):
			p.advance()
			key, err := p.parseTest()
			if err != nil {
				return nil, err
			}
			if err := p.expectOp("]"); err != nil {
				return nil, err
			}
			n = &Index{X: n, Key: key}
		case p.isOp("("):
			p.advance()
			call, err := p.parseCallArgs(n)
			if err != nil {
				return nil, err
			}
			n = call
		default:
			return n, nil
		}
	}
}

func (p *parser) parseCallArgs(fn Node) (*Call, error) {
	call := &Call{Fn: fn}
	for !p.isOp(")") {
		t := p.peek()
		if t.kind == tokName && p.toks[p.pos+1].kind == tokOp && p.toks[p.pos+1].text == "=" {
			p.advance()
			p.advance()
			v, err := p.parseTest()
			if err != nil {
				return nil, err
			}
			call.Keywords = append(call.Keywords, Keyword{Name: t.text, Value: v})
		} else {
			if len(call.Keywords) > 0 {
				return nil, errorf("SyntaxError", "non-keyword arg after keyword arg")
			}
			v, err := p.parseTest()
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, v)
		}
		if !p.isOp(",") {
			break
		}
		p.advance()
	}
	if err := p.expectOp(")"); err != nil {
		return nil, err
	}
	return call, nil
}

func (p *parser) parsePrimary() (Node, error) {
	t := p.advance()
	switch t.kind {
	case tokInt:
		return &Const{Value: t.num}, nil
	case tokString:
		s := t.text
		// adjacent literals concatenate
		for p.peek().kind == tokString {
			s += p.advance().text
		}
		return &Const{Value: s}, nil
	case tokName:
		switch t.text {
		case "True":
			return &Const{Value: true}, nil
		case "False":
			return &Const{Value: false}, nil
		case "None":
			return &Const{Value: nil}, nil
		case "and", "or", "not", "in", "is", "if", "else":
			return nil, syntaxError(t.pos)
		}
		return &Name{ID: t.text}, nil
	case tokOp:
		switch t.text {
		case "(":
			n, err := p.parseTest()
			if err != nil {
				return nil, err
			}
			return n, p.expectOp(")")
		case "[":
			list := &List{}
			for !p.isOp("]") {
				e, err := p.parseTest()
				if err != nil {
					return nil, err
				}
				list.Elems = append(list.Elems, e)
				if !p.isOp(",") {
					break
				}
				p.advance()
			}
			return list, p.expectOp("]")
		}
	}
	return nil, syntaxError(t.pos)
}
