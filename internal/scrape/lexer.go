package scrape

import (
	"fmt"
	"strings"
)

// punctuators longest first, so the first prefix match wins.
var punctuators = []string{
	"<<=", ">>=", "...",
	"->", "++", "--", "<<", ">>", "<=", ">=", "==", "!=", "&&", "||",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "##",
}

// Lexer scans normalised C source (comments and directives already blanked).
type Lexer struct {
	src  string
	pos  int // index of the next byte to consume
	line int // current 1-based source line
}

// NewLexer returns a Lexer positioned at the start of src.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src, line: 1}
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peek2() byte {
	if l.pos+1 >= len(l.src) {
		return 0
	}
	return l.src[l.pos+1]
}

func (l *Lexer) advance() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
	}
	return c
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.src) {
		switch l.peek() {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			l.advance()
		case '\\':
			// stray line continuation
			if l.peek2() == '\n' {
				l.advance()
				l.advance()
				continue
			}
			return
		default:
			return
		}
	}
}

// Tokenize returns every token of the source followed by a TokEOF token.
func (l *Lexer) Tokenize() ([]Token, error) {
	var toks []Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == TokEOF {
			return toks, nil
		}
	}
}

func (l *Lexer) next() (Token, error) {
	l.skipWhitespace()
	line := l.line
	if l.pos >= len(l.src) {
		return Token{Kind: TokEOF, Line: line}, nil
	}

	c := l.peek()
	switch {
	case isIdentStart(c):
		start := l.pos
		for l.pos < len(l.src) && isIdentByte(l.peek()) {
			l.advance()
		}
		// L"wide" and u8"utf" prefixes belong to the literal.
		if q := l.peek(); (q == '"' || q == '\'') && isLiteralPrefix(l.src[start:l.pos]) {
			return l.scanQuoted(start, line)
		}
		return Token{Kind: TokIdent, Text: l.src[start:l.pos], Line: line}, nil
	case isDigit(c) || (c == '.' && isDigit(l.peek2())):
		return l.scanNumber(line), nil
	case c == '"' || c == '\'':
		return l.scanQuoted(l.pos, line)
	}

	for _, p := range punctuators {
		if strings.HasPrefix(l.src[l.pos:], p) {
			for range len(p) {
				l.advance()
			}
			return Token{Kind: TokPunct, Text: p, Line: line}, nil
		}
	}
	l.advance()
	return Token{Kind: TokPunct, Text: string(c), Line: line}, nil
}

// scanNumber collects a pp-number: digits, letters, dots and exponent signs.
func (l *Lexer) scanNumber(line int) Token {
	start := l.pos
	for l.pos < len(l.src) {
		c := l.peek()
		if isIdentByte(c) || c == '.' {
			prev := c
			l.advance()
			if (prev == 'e' || prev == 'E' || prev == 'p' || prev == 'P') && (l.peek() == '+' || l.peek() == '-') {
				if !strings.HasPrefix(strings.ToLower(l.src[start:l.pos]), "0x") || prev == 'p' || prev == 'P' {
					l.advance()
				}
			}
			continue
		}
		break
	}
	return Token{Kind: TokNumber, Text: l.src[start:l.pos], Line: line}
}

// scanQuoted collects a string or character literal starting at start (which
// may include an encoding prefix already consumed).
func (l *Lexer) scanQuoted(start, line int) (Token, error) {
	quote := l.advance()
	kind := TokString
	if quote == '\'' {
		kind = TokChar
	}
	for {
		if l.pos >= len(l.src) || l.peek() == '\n' {
			return Token{}, fmt.Errorf("line %d: unterminated %s literal", line, strings.ToLower(kind.String()))
		}
		c := l.advance()
		if c == '\\' {
			l.advance()
			continue
		}
		if c == quote {
			break
		}
	}
	return Token{Kind: kind, Text: l.src[start:l.pos], Line: line}, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isLiteralPrefix(s string) bool {
	switch s {
	case "L", "u", "U", "u8":
		return true
	}
	return false
}
