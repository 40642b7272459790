package scrape

import (
	"errors"
	"fmt"
)

// LookupKind tells a missing entity from an ambiguous one.
type LookupKind int

const (
	Missing LookupKind = iota
	Duplicate
)

func (k LookupKind) String() string {
	if k == Duplicate {
		return "Duplicate"
	}
	return "Missing"
}

// Entity names the table a lookup ran against.
type Entity int

const (
	EntityEnum Entity = iota
	EntityVariable
	EntityMapVariable
	EntityFunction
	EntityMapFunction
)

// noun returns the word used in the rendered message. The variable table says
// "variables" when reporting duplicates.
func (e Entity) noun(kind LookupKind) string {
	switch e {
	case EntityVariable:
		if kind == Duplicate {
			return "variables"
		}
		return "variable"
	case EntityMapVariable:
		return "variable in map"
	case EntityFunction:
		return "function"
	case EntityMapFunction:
		return "function in map"
	}
	return "enum"
}

// Location is a declaration site.
type Location struct {
	Filename   string `json:"filename"`
	LineNumber int    `json:"line_number"`
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d", l.Filename, l.LineNumber)
}

// LookupError reports a query that matched nothing or more than one
// declaration. Found holds the two clashing sites for duplicates, the later
// declaration first.
type LookupError struct {
	Kind   LookupKind
	Entity Entity
	Key    string
	Found  []Location
}

func (e *LookupError) Error() string {
	msg := fmt.Sprintf("%s %s '%s'", e.Kind, e.Entity.noun(e.Kind), e.Key)
	if e.Kind == Duplicate && len(e.Found) == 2 {
		msg += fmt.Sprintf("  %s and %s", e.Found[0], e.Found[1])
	}
	return msg
}

// ExceptionClass is the class name used when the error is rendered for an
// EXP comparison.
func (e *LookupError) ExceptionClass() string { return "Exception" }

// IsMissing reports whether err is a LookupError of kind Missing.
func IsMissing(err error) bool {
	var le *LookupError
	return errors.As(err, &le) && le.Kind == Missing
}

// IsDuplicate reports whether err is a LookupError of kind Duplicate.
func IsDuplicate(err error) bool {
	var le *LookupError
	return errors.As(err, &le) && le.Kind == Duplicate
}

// SyntaxError reports an unknown type or a constant that cannot be evaluated.
type SyntaxError struct {
	Msg string
}

func (e *SyntaxError) Error() string { return e.Msg }

func (e *SyntaxError) ExceptionClass() string { return "SyntaxError" }

func syntaxErrorf(format string, args ...any) *SyntaxError {
	return &SyntaxError{Msg: fmt.Sprintf(format, args...)}
}

// ErrUnknownTarget is matched by every ConfigError.
var ErrUnknownTarget = errors.New("unknown target")

// ConfigError reports a target name that is not registered.
type ConfigError struct {
	Name string
}

func (e *ConfigError) Error() string { return "Unknown configuration name " + e.Name }

func (e *ConfigError) ExceptionClass() string { return "Exception" }

func (e *ConfigError) Is(target error) bool { return target == ErrUnknownTarget }

// DuplicateTypedefError reports a typedef name declared twice with different
// layouts.
type DuplicateTypedefError struct {
	Name   string
	First  Location
	Second Location
}

func (e *DuplicateTypedefError) Error() string {
	return fmt.Sprintf("Duplicate typedef name '%s' in %s and %s", e.Name, e.Second, e.First)
}

func (e *DuplicateTypedefError) ExceptionClass() string { return "Exception" }
