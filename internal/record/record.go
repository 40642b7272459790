package record

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Kind is the three letter tag of an assertion record
type Kind string

const (
	// KindInt compares the evaluated expression as a signed integer
	KindInt Kind = "INT"
	// KindHex compares the evaluated expression as an unsigned hex value
	KindHex Kind = "HEX"
	// KindExp expects the evaluation to fail with the recorded message
	KindExp Kind = "EXP"
	// KindStr compares the evaluated expression as a string
	KindStr Kind = "STR"
)

// Valid reports whether k is one of the known tags
func (k Kind) Valid() bool {
	switch k {
	case KindInt, KindHex, KindExp, KindStr:
		return true
	}
	return false
}

// Record is one assertion emitted by a fixture program
type Record struct {
	Line  int    `json:"line"`
	Kind  Kind   `json:"kind"`
	Expr  string `json:"expr"`
	Value string `json:"value"`
}

// String renders the record without the trailing newline
func (r Record) String() string {
	return fmt.Sprintf("%d:%s:%s=%s", r.Line, r.Kind, r.Expr, r.Value)
}

// Render returns the text emitted for value under kind.
// Integers are decimal for INT and 0x-prefixed hex for HEX; anything else is
// written with %v.
func Render(kind Kind, value any) string {
	switch kind {
	case KindHex:
		switch v := value.(type) {
		case uint64:
			return "0x" + strconv.FormatUint(v, 16)
		case uint32:
			return "0x" + strconv.FormatUint(uint64(v), 16)
		case uint:
			return "0x" + strconv.FormatUint(uint64(v), 16)
		case int64:
			return "0x" + strconv.FormatUint(uint64(v), 16)
		case int:
			return "0x" + strconv.FormatUint(uint64(v), 16)
		}
	case KindInt:
		switch v := value.(type) {
		case int64:
			return strconv.FormatInt(v, 10)
		case int:
			return strconv.Itoa(v)
		case bool:
			if v {
				return "1"
			}
			return "0"
		}
	}
	return fmt.Sprint(value)
}

// Emit writes one record line to w
func Emit(w io.Writer, line int, kind Kind, expr string, value any) error {
	_, err := fmt.Fprintf(w, "%d:%s:%s=%s\n", line, kind, expr, Render(kind, value))
	return err
}

// Writer mirrors the fixture print macros on top of an io.Writer
type Writer struct {
	w   io.Writer
	err error
}

// NewWriter wraps w. The first write error is kept and returned by Err.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (rw *Writer) emit(line int, kind Kind, expr string, value any) {
	if rw.err != nil {
		return
	}
	rw.err = Emit(rw.w, line, kind, expr, value)
}

// Int emits an INT record
func (rw *Writer) Int(line int, expr string, value int64) { rw.emit(line, KindInt, expr, value) }

// Hex emits a HEX record
func (rw *Writer) Hex(line int, expr string, value uint64) { rw.emit(line, KindHex, expr, value) }

// Exp emits an EXP record carrying the expected exception text
func (rw *Writer) Exp(line int, expr string, message string) { rw.emit(line, KindExp, expr, message) }

// Str emits a STR record
func (rw *Writer) Str(line int, expr string, value string) { rw.emit(line, KindStr, expr, value) }

// Err returns the first write error
func (rw *Writer) Err() error { return rw.err }

var recordPattern = regexp.MustCompile(`^([0-9]*):(...):(.*)=(.*)$`)

// Parse extracts every record line from captured program output.
// The expression runs up to the last '=' on the line; lines that do not look
// like records are skipped.
func Parse(text string) []Record {
	var records []Record
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if rec, ok := ParseLine(line); ok {
			records = append(records, rec)
		}
	}
	return records
}

// ParseLine parses a single record line
func ParseLine(line string) (Record, bool) {
	m := recordPattern.FindStringSubmatch(line)
	if m == nil {
		return Record{}, false
	}
	n := 0
	if m[1] != "" {
		v, err := strconv.Atoi(m[1])
		if err != nil {
			return Record{}, false
		}
		n = v
	}
	return Record{Line: n, Kind: Kind(m[2]), Expr: m[3], Value: m[4]}, true
}
