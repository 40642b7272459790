package readelf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dump = `ELF Header:
  Magic:   7f 45 4c 46 01 01 01 00 00 00 00 00 00 00 00 00

Symbol table '.symtab' contains 14 entries:
   Num:    Value  Size Type    Bind   Vis      Ndx Name
     0: 00000000     0 NOTYPE  LOCAL  DEFAULT  UND
     1: 00010000     0 SECTION LOCAL  DEFAULT    1
    25: 00010130     0 NOTYPE  LOCAL  DEFAULT    2 $a
    27: 00000000     0 FILE    LOCAL  DEFAULT  ABS startup.c
    28: 00010600     4 OBJECT  LOCAL  DEFAULT    6 boot_count
    29: 00000000     0 FILE    LOCAL  DEFAULT  ABS test.c
    34: 00010438     4 OBJECT  LOCAL  DEFAULT    6 my_static_function_var.4270
    35: 0001043c     4 OBJECT  LOCAL  DEFAULT    6 my_static_function_var.4266
    36: 00010170     4 FUNC    LOCAL  DEFAULT    2 helper
    37: 00010044    76 FUNC    GLOBAL DEFAULT    2 print_str
    38: 00010434     1 OBJECT  GLOBAL DEFAULT    6 my_char_var
    39: 00010440     4 OBJECT  GLOBAL DEFAULT    6 my_int_var
    40: 00011448     0 NOTYPE  GLOBAL DEFAULT    6 stack_top
    43: 000102b4   384 FUNC    GLOBAL DEFAULT    5 main

Histogram for bucket list length (total of 3 buckets):
`

func TestParse(t *testing.T) {
	table, err := Parse(dump, "results.map")
	require.NoError(t, err)

	require.Len(t, table.Objects, 5)
	assert.Equal(t, Symbol{Name: "boot_count", Addr: 0x10600, Size: 4, Local: true, File: "startup.c"}, table.Objects[0])
	assert.Equal(t, "my_static_function_var", table.Objects[1].Name)
	assert.Equal(t, "test.c", table.Objects[1].File)
	assert.Equal(t, uint64(0x1043c), table.Objects[2].Addr)
	assert.Equal(t, Symbol{Name: "my_int_var", Addr: 0x10440, Size: 4}, table.Objects[4])

	require.Len(t, table.Functions, 3)
	assert.Equal(t, Symbol{Name: "helper", Addr: 0x10170, Size: 4, Local: true, File: "test.c"}, table.Functions[0])
	assert.Equal(t, Symbol{Name: "main", Addr: 0x102b4, Size: 384}, table.Functions[2])
}

func TestParseMultipleTables(t *testing.T) {
	text := "Symbol table '.dynsym' contains 2 entries:\n" +
		"   Num:    Value  Size Type    Bind   Vis      Ndx Name\n" +
		"     1: 00020000     8 OBJECT  GLOBAL DEFAULT    3 dyn_var\n" +
		"\n" +
		"Symbol table '.symtab' contains 2 entries:\n" +
		"   Num:    Value  Size Type    Bind   Vis      Ndx Name\n" +
		"     1: 00030000    16 FUNC    GLOBAL DEFAULT    1 entry\n"

	table, err := Parse(text, "x")
	require.NoError(t, err)
	require.Len(t, table.Objects, 1)
	require.Len(t, table.Functions, 1)
	assert.Equal(t, "dyn_var", table.Objects[0].Name)
	assert.Equal(t, uint64(16), table.Functions[0].Size)
}

func TestParseNoSymbolTable(t *testing.T) {
	_, err := Parse("ELF Header:\n", "results.map")
	require.Error(t, err)
	assert.Equal(t, "No symbol table found in results.map", err.Error())
}

func TestParseBadAddress(t *testing.T) {
	text := "Symbol table '.symtab' contains 1 entries:\n" +
		"   Num:    Value  Size Type    Bind   Vis      Ndx Name\n" +
		"     1: zzzz     4 OBJECT  GLOBAL DEFAULT    6 x\n"
	_, err := Parse(text, "bad.map")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad address")
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.map")
	require.NoError(t, os.WriteFile(path, []byte(dump), 0o644))

	table, err := ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, table.Functions, 3)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.map"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
