package scrape

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	enumsSource = filepath.Join("testdata", "enums", "test.c")
	enumsHeader = filepath.Join("testdata", "enums", "test.h")
)

func parseEnumsFixture(t *testing.T) *Scraper {
	t.Helper()
	s := New()
	require.NoError(t, s.ParseFile(enumsSource))
	require.NoError(t, s.ParseFile(enumsHeader))
	return s
}

func TestUserTypeSizes(t *testing.T) {
	s := New()
	require.NoError(t, s.ParseFile(filepath.Join("testdata", "sizeof_user_type", "test.c")))

	tests := []struct {
		name     string
		expected int
	}{
		{"my_type1", 32},
		{"my_type2", 64},
		{"my_type3", 64},
		{"my_type4", 128},
		{"my_type5", 160},
		{"my_type6", 1728},
		{"my_type7", 1728},
		{"my_type8", 96},
		{"my_type9", 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			size, err := s.TypeSize(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, size)
		})
	}

	td, ok := s.Typedef("my_type3")
	require.True(t, ok)
	assert.Equal(t, KindStruct, td.Kind)
	require.Len(t, td.Types, 2)
	assert.Equal(t, "signed int", td.Types[1].TypeName)
	assert.Equal(t, 32, td.Types[1].Offset)
	assert.Contains(t, td.Types[0].Line, "// b is aligned after a char")
}

func TestFunctionStatic(t *testing.T) {
	s := New()
	require.NoError(t, s.ParseFile(filepath.Join("testdata", "sizeof_user_type", "test.c")))

	v, err := s.Var("FIXME1", Scope{Function: "main"})
	require.NoError(t, err)
	assert.True(t, v.Static)
	assert.Equal(t, "signed int", v.Type)
	assert.Equal(t, 32, v.Size)
	assert.Equal(t, "main", v.Function)

	_, err = s.Var("FIXME1", Scope{Function: "other"})
	assert.True(t, IsMissing(err))

	f, err := s.Func("main", Scope{})
	require.NoError(t, err)
	assert.Equal(t, "void", f.Type)
	assert.Empty(t, f.Params)

	// prototypes are not definitions
	_, err = s.Func("print_str", Scope{})
	assert.True(t, IsMissing(err))
}

func TestEnumLookups(t *testing.T) {
	s := parseEnumsFixture(t)

	tests := []struct {
		name     string
		constant string
		scope    Scope
		expected int64
		errMsg   string
	}{
		{name: "anonymous", constant: "MY_ENUM", expected: 0},
		{name: "missing", constant: "UNKNOWN", errMsg: "Missing enum 'enum:*:*:*:UNKNOWN'"},
		{name: "tagged first", constant: "MY_ENUM2_A", expected: 0},
		{name: "negative", constant: "MY_ENUM2_B", expected: -5},
		{name: "by tag", constant: "MY_ENUM2_B", scope: Scope{Typename: "my_enum2_t"}, expected: -5},
		{name: "wrong tag", constant: "MY_ENUM2_B", scope: Scope{Typename: "my_enum_tX"},
			errMsg: "Missing enum 'enum:*:*:my_enum_tX:MY_ENUM2_B'"},
		{name: "header first", constant: "MY_ENUM_H0", expected: 0},
		{name: "header implicit", constant: "MY_ENUM_H1", expected: 1},
		{name: "header explicit", constant: "MY_ENUM_H99", expected: 99},
		{name: "header after explicit", constant: "MY_ENUM_H100", expected: 100},
		{name: "function f1", constant: "FUNC_ENUM", scope: Scope{Function: "f1"}, expected: 10},
		{name: "function f2", constant: "FUNC_ENUM", scope: Scope{Function: "f2"}, expected: 20},
		{name: "function duplicate", constant: "FUNC_ENUM",
			errMsg: "Duplicate enum 'enum:*:*:*:FUNC_ENUM'  testdata/enums/test.c:25 and testdata/enums/test.c:20"},
		{name: "source file", constant: "FUNC_ENUM2", scope: Scope{Filename: "test.c"}, expected: 100},
		{name: "header file", constant: "FUNC_ENUM2", scope: Scope{Filename: "test.h"}, expected: 200},
		{name: "file duplicate", constant: "FUNC_ENUM2",
			errMsg: "Duplicate enum 'enum:*:*:*:FUNC_ENUM2'  testdata/enums/test.h:14 and testdata/enums/test.c:30"},
		{name: "type1", constant: "MY_ENUM_T", scope: Scope{Typename: "type1"}, expected: 77},
		{name: "type2", constant: "MY_ENUM_T", scope: Scope{Typename: "type2"}, expected: 88},
		{name: "type duplicate", constant: "MY_ENUM_T",
			errMsg: "Duplicate enum 'enum:*:*:*:MY_ENUM_T'  testdata/enums/test.c:35 and testdata/enums/test.c:33"},
		{name: "typedef tag", constant: "ALIVE", scope: Scope{Typename: "Life_e"}, expected: 1},
		{name: "typedef alias", constant: "DEAD", scope: Scope{Typename: "Life_t"}, expected: 0},
		{name: "filename and function", constant: "FUNC_ENUM", scope: Scope{Filename: "test.c", Function: "f2"}, expected: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Enum(tt.constant, tt.scope)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Equal(t, filepath.ToSlash(tt.errMsg), filepath.ToSlash(err.Error()))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestEnumLookupErrorKinds(t *testing.T) {
	s := parseEnumsFixture(t)

	_, err := s.Enum("FUNC_ENUM", Scope{})
	assert.True(t, IsDuplicate(err))
	assert.False(t, IsMissing(err))

	var le *LookupError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, EntityEnum, le.Entity)
	assert.Equal(t, "enum:*:*:*:FUNC_ENUM", le.Key)
	require.Len(t, le.Found, 2)
	assert.Equal(t, 25, le.Found[0].LineNumber)
	assert.Equal(t, 20, le.Found[1].LineNumber)
	assert.Equal(t, "Exception", le.ExceptionClass())
}

func TestEnumType(t *testing.T) {
	s := parseEnumsFixture(t)

	values, err := s.EnumType(Scope{Typename: "MyList_e"})
	require.NoError(t, err)
	require.Len(t, values, 5)

	names := make([]string, 0, len(values))
	for _, v := range values {
		names = append(names, v.Name)
	}
	assert.Equal(t, []string{"ONE", "TWO", "THREE", "TEN", "ELEVEN"}, names)
	assert.Equal(t, int64(10), values[3].Value)
	assert.Equal(t, int64(11), values[4].Value)
	assert.Equal(t, 42, values[2].LineNumber)
	assert.Contains(t, values[2].Line, "// Comment with THREE")

	// Returned slices are copies.
	values[0].Value = 99
	again, err := s.EnumType(Scope{Typename: "MyList_e"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), again[0].Value)

	_, err = s.EnumType(Scope{Typename: "nope"})
	require.Error(t, err)
	assert.Equal(t, "Missing enum 'enum_type:*:*:nope'", err.Error())

	_, err = s.EnumType(Scope{Filename: "test.h"})
	assert.True(t, IsDuplicate(err))
}

func TestQueriesAreRepeatable(t *testing.T) {
	s := New()
	require.NoError(t, s.ParseString("enum { A = 1 };\n", "a.c"))

	for range 3 {
		v, err := s.Enum("A", Scope{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), v)
	}

	// A later file can make an earlier answer ambiguous.
	require.NoError(t, s.ParseString("enum { A = 2 };\n", "b.c"))
	_, err := s.Enum("A", Scope{})
	assert.True(t, IsDuplicate(err))

	v, err := s.Enum("A", Scope{Filename: "b.c"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
}

func TestConstantExpressions(t *testing.T) {
	src := `
struct pair { int a; char b; };
enum consts {
  A = 1 << 4,
  B = sizeof(int),
  C = 'A',
  D = (unsigned char)300,
  E = -7 / 2,
  F = A | 3,
  G = (B > 2) ? 10 : 20,
  H = 0x10 + 010,
  I = sizeof(struct pair),
  J = '\n',
  K = (signed char)0xff,
  L = !0 + ~0,
  M = 5UL % 3,
};
`
	s := New()
	require.NoError(t, s.ParseString(src, "consts.c"))

	tests := []struct {
		name     string
		expected int64
	}{
		{"A", 16},
		{"B", 4},
		{"C", 65},
		{"D", 44},
		{"E", -3},
		{"F", 19},
		{"G", 10},
		{"H", 24},
		{"I", 8},
		{"J", 10},
		{"K", -1},
		{"L", 0},
		{"M", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := s.Enum(tt.name, Scope{Typename: "consts"})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, v)
		})
	}
}

func TestEnumException(t *testing.T) {
	src := "enum bad { X = UNDEFINED_MACRO + 1, Y };\nenum good { Z = 3 };\n"
	s := New()
	require.NoError(t, s.ParseString(src, "bad.c"))

	require.Len(t, s.Enums(), 2)
	assert.Equal(t, "Unknown constant 'UNDEFINED_MACRO'", s.Enums()[0].Exception)
	assert.Empty(t, s.Enums()[0].Values)

	_, err := s.Enum("X", Scope{})
	assert.True(t, IsMissing(err))

	v, err := s.Enum("Z", Scope{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)
}

func TestBitfieldsAndUnions(t *testing.T) {
	src := `
struct flags {
  unsigned a : 3;
  unsigned b : 5;
  unsigned : 0;
  unsigned c : 30;
  unsigned d : 4;
};
union u { char c; int i; short s[3]; };
struct outer {
  char tag;
  union { int i; char c; };
  char tail;
};
typedef struct flags flags_t;
`
	s := New()
	require.NoError(t, s.ParseString(src, "layout.c"))

	flags, ok := s.Typedef("struct flags")
	require.True(t, ok)
	assert.Equal(t, 96, flags.Size)
	offsets := make([]int, 0, len(flags.Types))
	for _, el := range flags.Types {
		offsets = append(offsets, el.Offset)
	}
	assert.Equal(t, []int{0, 3, 32, 32, 64}, offsets)
	assert.Equal(t, 5, flags.Types[1].BitField)

	size, err := s.TypeSize("union u")
	require.NoError(t, err)
	assert.Equal(t, 64, size)

	size, err = s.TypeSize("struct outer")
	require.NoError(t, err)
	assert.Equal(t, 96, size)

	size, err = s.TypeSize("flags_t")
	require.NoError(t, err)
	assert.Equal(t, 96, size)

	align, err := s.TypeAlignment("union u")
	require.NoError(t, err)
	assert.Equal(t, 32, align)
}

func TestTypedefExceptions(t *testing.T) {
	src := "typedef struct { int a[UNKNOWN_LEN]; } broken_t;\ntypedef broken_t *broken_ptr;\n"
	s := New()
	require.NoError(t, s.ParseString(src, "broken.c"))

	_, err := s.TypeSize("broken_t")
	require.Error(t, err)
	assert.Equal(t, "Unknown constant 'UNKNOWN_LEN'", err.Error())
	var se *SyntaxError
	assert.ErrorAs(t, err, &se)

	size, err := s.TypeSize("broken_ptr")
	require.NoError(t, err)
	assert.Equal(t, 32, size)
}

func TestDuplicateTypedef(t *testing.T) {
	s := New()
	require.NoError(t, s.ParseString("typedef int t1;\ntypedef int t1;\n", "same.c"))

	err := s.ParseString("typedef int t2;\ntypedef char t2;\n", "dup.c")
	require.Error(t, err)
	var de *DuplicateTypedefError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "Duplicate typedef name 't2' in dup.c:2 and dup.c:1", de.Error())
}

const varsSource = `int counter;
static char buffer[16];
static int helper(int x, char *p) { static int calls; return x; }
int main(void) { return helper(1, 0); }
`

func TestVarAndFunc(t *testing.T) {
	s := New()
	require.NoError(t, s.ParseString(varsSource, "vars.c"))

	counter, err := s.Var("counter", Scope{})
	require.NoError(t, err)
	assert.Equal(t, "signed int", counter.Type)
	assert.Equal(t, 32, counter.Size)
	assert.Nil(t, counter.Addr)

	buffer, err := s.Var("buffer", Scope{})
	require.NoError(t, err)
	assert.Equal(t, []int{16}, buffer.Array)
	assert.Equal(t, 128, buffer.Size)
	assert.True(t, buffer.Static)

	byType, err := s.Var(Wildcard, Scope{Typename: "char"})
	require.NoError(t, err)
	assert.Equal(t, "buffer", byType.Name)

	calls, err := s.Var(Wildcard, Scope{Function: "helper"})
	require.NoError(t, err)
	assert.Equal(t, "calls", calls.Name)

	_, err = s.Var(Wildcard, Scope{})
	require.Error(t, err)
	assert.Equal(t, "Duplicate variables 'var:*:*:*:*'  vars.c:2 and vars.c:1", err.Error())

	helper, err := s.Func("helper", Scope{Filename: "vars.c"})
	require.NoError(t, err)
	assert.True(t, helper.Static)
	assert.Equal(t, []Param{
		{Name: "x", Type: "signed int", Array: []int{}},
		{Name: "p", Type: "signed char", Ptr: 1, Array: []int{}},
	}, helper.Params)

	_, err = s.Func("nope", Scope{})
	require.Error(t, err)
	assert.Equal(t, "Missing function 'func:*:*:*:nope'", err.Error())
}

func TestMapData(t *testing.T) {
	s := New()
	require.NoError(t, s.ParseString(varsSource, "vars.c"))

	s.AddMapData(
		[]MapSymbol{{Name: "counter", Addr: 0x20000000, Size: 4}},
		[]MapSymbol{
			{Name: "helper", Addr: 0x8000100, Size: 24, File: "vars.c"},
			{Name: "helper", Addr: 0x8000200, Size: 8, File: "other.c"},
		},
	)

	counter, err := s.Var("counter", Scope{})
	require.NoError(t, err)
	require.NotNil(t, counter.Addr)
	assert.Equal(t, uint64(0x20000000), *counter.Addr)

	helper, err := s.Func("helper", Scope{})
	require.NoError(t, err)
	require.NotNil(t, helper.Addr)
	assert.Equal(t, uint64(0x8000100), *helper.Addr)
	assert.Equal(t, uint64(24), *helper.Size)

	s.AddMapData([]MapSymbol{{Name: "counter", Addr: 0x20000010, Size: 4}}, nil)
	_, err = s.Var("counter", Scope{})
	require.Error(t, err)
	assert.Equal(t, "Duplicate variable in map 'var:*:*:*:counter'  vars.c:1 and vars.c:1", err.Error())
}

func TestLoadReadelf(t *testing.T) {
	dump := "Symbol table '.symtab' contains 3 entries:\n" +
		"   Num:    Value  Size Type    Bind   Vis      Ndx Name\n" +
		"     1: 00000000     0 FILE    LOCAL  DEFAULT  ABS vars.c\n" +
		"     2: 20000004    16 OBJECT  LOCAL  DEFAULT    6 buffer\n" +
		"     3: 08000100    24 FUNC    LOCAL  DEFAULT    2 helper\n"
	path := filepath.Join(t.TempDir(), "results.map")
	require.NoError(t, os.WriteFile(path, []byte(dump), 0o644))

	s := New()
	require.NoError(t, s.ParseString(varsSource, "vars.c"))
	require.NoError(t, s.LoadReadelf(path))

	buffer, err := s.Var("buffer", Scope{})
	require.NoError(t, err)
	require.NotNil(t, buffer.Addr)
	assert.Equal(t, uint64(0x20000004), *buffer.Addr)

	helper, err := s.Func("helper", Scope{})
	require.NoError(t, err)
	assert.Equal(t, uint64(24), *helper.Size)

	assert.Error(t, s.LoadReadelf(filepath.Join(t.TempDir(), "missing.map")))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		errMsg string
	}{
		{"unterminated body", "void f(void) { int x;\n", "unexpected end of file in body of f"},
		{"unterminated string", "char *s = \"abc;\n", "unterminated string literal"},
		{"missing semicolon", "int a int b;\n", "expected ';'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New().ParseString(tt.src, "bad.c")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "bad.c")
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

const unsizedSource = `typedef struct { int a; } pair_t;
static const char *names[] = {"a", "b", 0};
int matrix[][3] = {{1, 2, 3}, {4, 5, 6}};
char greeting[] = "hi\n";
char joined[] = "ab" "\x41\101";
int trailing[] = {1, 2,};
short nothing[] = {};
pair_t pairs[] = {{1}, {2}, {3}};
int designated[] = {[4] = 1};
int fields[] = {.x = 1};
int tentative[];
int zero[0];
int negative[-2];
`

func TestArrayExtents(t *testing.T) {
	s := New()
	require.NoError(t, s.ParseString(unsizedSource, "arrays.c"))

	tests := []struct {
		name      string
		array     []int
		size      int
		exception string
	}{
		{name: "names", array: []int{3}, size: 96},
		{name: "matrix", array: []int{2, 3}, size: 192},
		{name: "greeting", array: []int{4}, size: 32},
		{name: "joined", array: []int{5}, size: 40},
		{name: "trailing", array: []int{2}, size: 64},
		{name: "nothing", array: []int{0}, size: 0},
		{name: "pairs", array: []int{3}, size: 96},
		{name: "designated", array: []int{0}, exception: "Array size missing for designated"},
		{name: "fields", array: []int{0}, exception: "Array size missing for fields"},
		{name: "tentative", array: []int{0}, exception: "Array size missing for tentative"},
		{name: "zero", array: []int{0}, size: 0},
		{name: "negative", array: []int{-2}, exception: "Negative array size -2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := s.Var(tt.name, Scope{})
			require.NoError(t, err)
			assert.Equal(t, tt.array, v.Array)
			assert.Equal(t, tt.size, v.Size)
			assert.Equal(t, tt.exception, v.Exception)
		})
	}
}
