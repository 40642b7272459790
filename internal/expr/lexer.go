package expr

import (
	"math/big"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokInt
	tokString
	tokName
	tokOp
)

type token struct {
	kind tokenKind
	text string // operator or name text, decoded string contents
	num  Value
	pos  int
}

var operators = []string{
	"**", "//", "<<", ">>", "<=", ">=", "==", "!=",
	"+", "-", "*", "/", "%", "&", "|", "^", "~", "<", ">",
	"(", ")", "[", "]", ",", ".", "=", ":",
}

func syntaxError(pos int) *Error {
	return errorf("SyntaxError", "invalid syntax at offset %d", pos)
}

// lex splits src into tokens.
func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for {
		for i < len(src) && (src[i] == ' ' || src[i] == '\t') {
			i++
		}
		if i >= len(src) {
			return append(toks, token{kind: tokEOF, pos: i}), nil
		}
		c := src[i]
		start := i
		switch {
		case isNameStart(c):
			for i < len(src) && (isNameStart(src[i]) || isDigitByte(src[i])) {
				i++
			}
			// r'' and u'' prefixes
			if i < len(src) && (src[i] == '\'' || src[i] == '"') && isStringPrefix(src[start:i]) {
				s, n, err := scanString(src, i, strings.ContainsAny(src[start:i], "rR"))
				if err != nil {
					return nil, err
				}
				toks = append(toks, token{kind: tokString, text: s, pos: start})
				i = n
				continue
			}
			toks = append(toks, token{kind: tokName, text: src[start:i], pos: start})
		case isDigitByte(c):
			for i < len(src) && (isNameStart(src[i]) || isDigitByte(src[i])) {
				i++
			}
			text := strings.TrimRight(src[start:i], "lL")
			v, ok := new(big.Int).SetString(text, 0)
			if !ok || strings.Contains(text, "_") {
				return nil, syntaxError(start)
			}
			toks = append(toks, token{kind: tokInt, num: normInt(v), text: src[start:i], pos: start})
		case c == '\'' || c == '"':
			s, n, err := scanString(src, i, false)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokString, text: s, pos: start})
			i = n
		default:
			op := ""
			for _, o := range operators {
				if strings.HasPrefix(src[i:], o) {
					op = o
					break
				}
			}
			if op == "" {
				return nil, syntaxError(start)
			}
			i += len(op)
			toks = append(toks, token{kind: tokOp, text: op, pos: start})
		}
	}
}

// scanString decodes the quoted literal at src[i] and returns it with the
// offset just past the closing quote.
func scanString(src string, i int, raw bool) (string, int, error) {
	q := src[i]
	start := i
	i++
	var b strings.Builder
	for {
		if i >= len(src) {
			return "", 0, errorf("SyntaxError", "EOL while scanning string literal at offset %d", start)
		}
		c := src[i]
		switch {
		case c == q:
			return b.String(), i + 1, nil
		case c == '\\' && i+1 < len(src):
			if raw {
				b.WriteByte(c)
				b.WriteByte(src[i+1])
				i += 2
				continue
			}
			i++
			switch e := src[i]; e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '0':
				b.WriteByte(0)
			case 'x':
				if i+2 >= len(src) {
					return "", 0, errorf("ValueError", "invalid \\x escape")
				}
				v, err := strconv.ParseUint(src[i+1:i+3], 16, 8)
				if err != nil {
					return "", 0, errorf("ValueError", "invalid \\x escape")
				}
				b.WriteByte(byte(v))
				i += 2
			case '\\', '\'', '"':
				b.WriteByte(e)
			default:
				b.WriteByte('\\')
				b.WriteByte(e)
			}
			i++
		default:
			b.WriteByte(c)
			i++
		}
	}
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigitByte(c byte) bool { return c >= '0' && c <= '9' }

func isStringPrefix(s string) bool {
	switch strings.ToLower(s) {
	case "r", "u", "b", "ur", "br":
		return true
	}
	return false
}
