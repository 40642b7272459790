// Package readelf reads the symbol tables printed by `readelf --all`.
//
// The linker map is not detailed enough to place file-local statics, so the
// harness asks each simulator to leave the readelf dump next to its results:
//
//	Symbol table '.symtab' contains 47 entries:
//	   Num:    Value  Size Type    Bind   Vis      Ndx Name
//	    28: 00000000     0 FILE    LOCAL  DEFAULT  ABS test.c
//	    34: 00010438     4 OBJECT  LOCAL  DEFAULT    6 my_static_function_var.4270
//	    38: 00010434     1 OBJECT  GLOBAL DEFAULT    6 my_char_var
//	    43: 000102b4   384 FUNC    GLOBAL DEFAULT    5 main
//
// LOCAL rows after a FILE row belong to that file. GLOBAL rows carry no file.
package readelf

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Symbol is one FUNC or OBJECT row.
type Symbol struct {
	Name  string
	Addr  uint64
	Size  uint64
	Local bool
	File  string // source file of a LOCAL symbol, empty for GLOBAL
}

// Table holds the symbols of every symbol table in a dump.
type Table struct {
	Objects   []Symbol
	Functions []Symbol
}

var tableHeader = regexp.MustCompile(`(?m)^Symbol table '.*' contains [0-9]* entries:$`)

// ParseFile reads a readelf dump from disk.
func ParseFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data), path)
}

// Parse extracts the symbol rows of text. name is used in error messages.
func Parse(text, name string) (*Table, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	headers := tableHeader.FindAllStringIndex(text, -1)
	if len(headers) == 0 {
		return nil, fmt.Errorf("No symbol table found in %s", name)
	}

	var rows []string
	for _, h := range headers {
		// Skip the header line and the column titles that follow it.
		start := h[1] + 1
		if start > len(text) {
			continue
		}
		if nl := strings.IndexByte(text[start:], '\n'); nl >= 0 {
			start += nl + 1
		} else {
			continue
		}
		end := strings.Index(text[start:], "\n\n")
		if end < 0 {
			end = len(text)
		} else {
			end += start
		}
		rows = append(rows, strings.Split(text[start:end], "\n")...)
	}

	table := &Table{}
	file := ""
	for i, row := range rows {
		parts := strings.Fields(row)
		if len(parts) < 4 {
			continue
		}
		switch parts[3] {
		case "FILE":
			if len(parts) >= 8 {
				file = parts[7]
			}
		case "FUNC", "OBJECT":
			if len(parts) < 8 {
				continue
			}
			sym, err := parseRow(parts, file)
			if err != nil {
				return nil, fmt.Errorf("%s: symbol row %d: %w", name, i+1, err)
			}
			if parts[3] == "FUNC" {
				table.Functions = append(table.Functions, sym)
				continue
			}
			// Statics are emitted as name.1234
			if dot := strings.IndexByte(sym.Name, '.'); dot >= 0 {
				sym.Name = sym.Name[:dot]
			}
			table.Objects = append(table.Objects, sym)
		}
	}
	return table, nil
}

func parseRow(parts []string, file string) (Symbol, error) {
	addr, err := strconv.ParseUint(parts[1], 16, 64)
	if err != nil {
		return Symbol{}, fmt.Errorf("bad address %q: %w", parts[1], err)
	}
	size, err := parseSize(parts[2])
	if err != nil {
		return Symbol{}, fmt.Errorf("bad size %q: %w", parts[2], err)
	}
	sym := Symbol{Name: parts[7], Addr: addr, Size: size, Local: parts[4] == "LOCAL"}
	if sym.Local {
		sym.File = file
	}
	return sym, nil
}

// parseSize accepts decimal sizes and the 0x form readelf uses for large ones.
func parseSize(s string) (uint64, error) {
	if rest, ok := strings.CutPrefix(s, "0x"); ok {
		return strconv.ParseUint(rest, 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}
