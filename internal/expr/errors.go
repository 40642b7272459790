package expr

import (
	"errors"
	"fmt"
	"strings"
)

// Error is a failed evaluation. Class is the exception class a fixture
// expectation refers to, e.g. KeyError or NameError.
type Error struct {
	Class string
	Msg   string
}

func (e *Error) Error() string { return e.Class + ": " + e.Msg }

// ExceptionClass returns the class name.
func (e *Error) ExceptionClass() string { return e.Class }

func errorf(class, format string, args ...any) *Error {
	return &Error{Class: class, Msg: fmt.Sprintf(format, args...)}
}

// Classed is implemented by errors that carry their own exception class.
type Classed interface {
	ExceptionClass() string
}

// Repr renders err the way an exception prints in a fixture expectation:
// Class('message',). Errors without a class are reported as Exception.
func Repr(err error) string {
	class, msg := "Exception", err.Error()
	var ee *Error
	var ce Classed
	switch {
	case errors.As(err, &ee):
		class, msg = ee.Class, ee.Msg
	case errors.As(err, &ce):
		class = ce.ExceptionClass()
		if e, ok := ce.(error); ok {
			msg = e.Error()
		}
	}
	return class + "(" + quote(msg) + ",)"
}

// quote returns the literal form of s: single quoted unless s holds a single
// quote and no double quote.
func quote(s string) string {
	q := byte('\'')
	if strings.IndexByte(s, '\'') >= 0 && strings.IndexByte(s, '"') < 0 {
		q = '"'
	}
	var b strings.Builder
	b.WriteByte(q)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == q || c == '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\r':
			b.WriteString(`\r`)
		case c == '\t':
			b.WriteString(`\t`)
		case c < 0x20 || c >= 0x7f:
			fmt.Fprintf(&b, `\x%02x`, c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte(q)
	return b.String()
}
