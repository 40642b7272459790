package scrape

import "fmt"

// TokenKind identifies the category of a lexed token.
type TokenKind int

const (
	TokEOF    TokenKind = iota // sentinel: end of input
	TokIdent                   // identifier or keyword
	TokNumber                  // integer or floating literal, suffixes included
	TokString                  // "..."
	TokChar                    // '...'
	TokPunct                   // operator or delimiter
)

var tokenKindNames = [...]string{
	TokEOF:    "EOF",
	TokIdent:  "IDENT",
	TokNumber: "NUMBER",
	TokString: "STRING",
	TokChar:   "CHAR",
	TokPunct:  "PUNCT",
}

func (k TokenKind) String() string {
	if int(k) >= 0 && int(k) < len(tokenKindNames) {
		return tokenKindNames[k]
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// Token is a single lexical unit with its 1-based source line.
type Token struct {
	Kind TokenKind
	Text string
	Line int
}

func (t Token) String() string {
	return fmt.Sprintf("%-6s %-14q  line %d", t.Kind, t.Text, t.Line)
}

// is reports whether t is the punctuator or keyword text.
func (t Token) is(text string) bool {
	return (t.Kind == TokPunct || t.Kind == TokIdent) && t.Text == text
}

// Keyword groups used by the declaration parser.
var (
	storageClasses = map[string]bool{
		"typedef": true, "static": true, "extern": true, "auto": true, "register": true,
		"_Thread_local": true, "__thread": true, "inline": true, "__inline": true,
		"__inline__": true, "_Noreturn": true,
	}
	typeQualifiers = map[string]bool{
		"const": true, "volatile": true, "restrict": true, "__restrict": true,
		"__restrict__": true, "__const": true, "__volatile__": true, "__volatile": true,
		"__extension__": true, "_Atomic": true,
	}
	builtinSpecifiers = map[string]bool{
		"void": true, "char": true, "short": true, "int": true, "long": true,
		"float": true, "double": true, "signed": true, "unsigned": true,
		"__signed__": true, "__signed": true, "_Bool": true, "_Complex": true,
	}
)
