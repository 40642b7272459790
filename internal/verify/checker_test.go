package verify

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cscrape/internal/record"
	"cscrape/internal/scrape"
)

// enumsOutput is what the enums fixture prints when run on arm32.
const enumsOutput = `51:INT:obj.enum('MY_ENUM')=0
52:EXP:obj.enum('UNKNOWN')=Exception("Missing enum 'enum:*:*:*:UNKNOWN'",)
54:INT:obj.enum('MY_ENUM2_A')=0
55:INT:obj.enum('MY_ENUM2_B')=-5
56:INT:obj.enum('MY_ENUM2_B', typename='my_enum2_t')=-5
57:EXP:obj.enum('MY_ENUM2_B', typename='my_enum_tX')=Exception("Missing enum 'enum:*:*:my_enum_tX:MY_ENUM2_B'",)
59:INT:obj.enum('MY_ENUM_H0')=0
60:INT:obj.enum('MY_ENUM_H1')=1
61:INT:obj.enum('MY_ENUM_H99')=99
62:INT:obj.enum('MY_ENUM_H100')=100
64:INT:obj.enum('FUNC_ENUM', function='f1')=10
65:INT:obj.enum('FUNC_ENUM', function='f2')=20
66:EXP:obj.enum('FUNC_ENUM')=Exception("Duplicate enum 'enum:*:*:*:FUNC_ENUM'
68:INT:obj.enum('FUNC_ENUM2', filename='test.c')=100
69:INT:obj.enum('FUNC_ENUM2', filename='test.h')=200
70:EXP:obj.enum('FUNC_ENUM2')=Exception("Duplicate enum 'enum:*:*:*:FUNC_ENUM2'
72:INT:obj.enum('MY_ENUM_T', typename='type1')=77
73:INT:obj.enum('MY_ENUM_T', typename='type2')=88
74:EXP:obj.enum('MY_ENUM_T')=Exception("Duplicate enum 'enum:*:*:*:MY_ENUM_T'
76:INT:obj.enum('DEAD',  typename='Life_e')=0
77:INT:obj.enum('ALIVE', typename='Life_e')=1
78:INT:obj.enum('DEAD',  typename='Life_t')=0
79:INT:obj.enum('ALIVE', typename='Life_t')=1
81:INT:len(obj.enum_type(typename='MyList_e'))=5
82:INT:obj.enum_type(typename='MyList_e')['ONE']['value']=1
83:INT:obj.enum_type(typename='MyList_e')['TWO']['value']=2
84:INT:obj.enum_type(typename='MyList_e')['THREE']['value']=3
85:INT:obj.enum_type(typename='MyList_e')['TEN']['value']=10
86:INT:obj.enum_type(typename='MyList_e')['ELEVEN']['value']=11
87:INT:int('// Comment with THREE' in obj.enum_type(typename='MyList_e')['THREE']['line'])=1
`

func enumsScraper(t *testing.T) *scrape.Scraper {
	t.Helper()
	dir := filepath.Join("..", "scrape", "testdata", "enums")
	s := scrape.New()
	require.NoError(t, s.ParseFile(filepath.Join(dir, "test.c")))
	require.NoError(t, s.ParseFile(filepath.Join(dir, "test.h")))
	return s
}

func TestEnumsFixture(t *testing.T) {
	records := record.Parse(enumsOutput)
	require.Len(t, records, 30)

	rep := NewChecker(enumsScraper(t)).CheckAll(records)
	for _, res := range rep.Failed() {
		t.Errorf("unexpected failure: %s (actual %s)", res.Report, res.Actual)
	}
	assert.Equal(t, 0, rep.Errors)

	var out bytes.Buffer
	_, err := rep.WriteTo(&out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	assert.Equal(t, "  51: eval(obj.enum('MY_ENUM')) (0) = 0    OK", lines[0])
	assert.Equal(t, "ERRORS=0", lines[len(lines)-1])
}

const varsSource = `int counter;
static char buffer[16];
static int helper(int x, char *p) { static int calls; return x; }
`

func varsChecker(t *testing.T) *Checker {
	t.Helper()
	s := scrape.New()
	require.NoError(t, s.ParseString(varsSource, "vars.c"))
	s.AddMapData(
		[]scrape.MapSymbol{{Name: "counter", Addr: 0x20000000, Size: 4}},
		[]scrape.MapSymbol{{Name: "helper", Addr: 0x8000100, Size: 24}},
	)
	return NewChecker(s)
}

func TestCheck(t *testing.T) {
	c := varsChecker(t)

	tests := []struct {
		name   string
		line   string
		ok     bool
		report string
	}{
		{"int match", "10:INT:obj.type_size('int')=32", true, "  10: eval(obj.type_size('int')) (32) = 32"},
		{"int mismatch", "11:INT:obj.type_size('short')=32", false, "  11: eval(obj.type_size('short')) (16) = 32"},
		{"hex match", "12:HEX:obj.var('counter')['addr']=0x20000000", true,
			"  12: eval(obj.var('counter')['addr']) (0x20000000) = 0x20000000"},
		{"hex without prefix", "13:HEX:obj.type_size('int')=20", true, "  13: eval(obj.type_size('int')) (0x00000020) = 0x00000020"},
		{"hex negative never matches", "14:HEX:-1=ffffffffffffffff", false, "  14: eval(-1) (-1) = ffffffffffffffff"},
		{"str match", "15:STR:obj.var('buffer')['type']=signed char", true, "  15: 'obj.var('buffer')['type']' (signed char) = 'signed char'"},
		{"exp repr", "16:EXP:obj.type_size('foo')=SyntaxError('Unknown type foo',)", true,
			"  16: eval(obj.type_size('foo')) (EXCEPTION:\"SyntaxError('Unknown type foo',)\") = SyntaxError('Unknown type foo',)"},
		{"exp bare message prefix", "17:EXP:obj.var('nope')=Missing variable", true,
			"  17: eval(obj.var('nope')) (EXCEPTION:'Exception(\"Missi') = Missing variable"},
		{"exp without exception", "18:EXP:obj.type_size('int')=Exception", false, "  18: eval(obj.type_size('int')) = NO EXCEPTION"},
		{"exp wrong message", "19:EXP:obj.enum('X')=KeyError", false,
			"  19: eval(obj.enum('X')) (EXCEPTION:'Exceptio') = KeyError"},
		{"int raises", "20:INT:obj.enum('X')=1", false,
			"  20: eval(obj.enum('X')) (EXCEPTION:Exception(\"Missing enum 'enum:*:*:*:X'\",)) = 1"},
		{"unknown tag", "21:ABC:1=1", false, "Unknown test type ABC at line 21"},
		{"func params", "22:INT:obj.func('helper')['params'][1]['ptr']=1", true, "  22: eval(obj.func('helper')['params'][1]['ptr']) (1) = 1"},
		{"func size", "23:INT:obj.func('helper', filename='vars.c')['size']=24", true,
			"  23: eval(obj.func('helper', filename='vars.c')['size']) (24) = 24"},
		{"static local", "24:STR:obj.var('calls', function='helper')['function']=helper", true,
			"  24: 'obj.var('calls', function='helper')['function']' (helper) = 'helper'"},
		{"config", "25:EXP:obj.config('pdp11')=Exception('Unknown configuration name pdp11',)", true,
			"  25: eval(obj.config('pdp11')) (EXCEPTION:\"Exception('Unknown configuration name pdp11',)\") = Exception('Unknown configuration name pdp11',)"},
		{"bool as int", "26:INT:obj.var('buffer')['static']=1", true, "  26: eval(obj.var('buffer')['static']) (1) = 1"},
		{"hex all ones", "27:HEX:0xFFFFFFFFFFFFFFFF=0xffffffffffffffff", true,
			"  27: eval(0xFFFFFFFFFFFFFFFF) (0xffffffffffffffff) = 0xffffffffffffffff"},
		{"hex sign bit", "28:HEX:0x8000000000000000=0x8000000000000000", true,
			"  28: eval(0x8000000000000000) (0x8000000000000000) = 0x8000000000000000"},
		{"hex wider than 64 bits", "29:HEX:1 << 64=0", false, "  29: eval(1 << 64) (18446744073709551616) = 0"},
		{"int does not wrap", "30:INT:4611686018427387904*4=0", false,
			"  30: eval(4611686018427387904*4) (18446744073709551616) = 0"},
		{"int long match", "31:INT:2**64=18446744073709551616", true,
			"  31: eval(2**64) (18446744073709551616) = 18446744073709551616"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, ok := record.ParseLine(tt.line)
			require.True(t, ok)
			res := c.Check(rec)
			assert.Equal(t, tt.ok, res.OK)
			assert.Equal(t, tt.report, res.Report)
		})
	}
}

func TestReportNumbersErrors(t *testing.T) {
	c := varsChecker(t)
	records := record.Parse("1:INT:1=2\n2:INT:1=1\n3:INT:2=3\n")
	rep := c.CheckAll(records)
	assert.Equal(t, 2, rep.Errors)
	assert.Len(t, rep.Failed(), 2)

	var out bytes.Buffer
	_, err := rep.WriteTo(&out)
	require.NoError(t, err)
	assert.Equal(t,
		"   1: eval(1) (1) = 2    ERROR 1\n"+
			"   2: eval(1) (1) = 1    OK\n"+
			"   3: eval(2) (2) = 3    ERROR 2\n"+
			"ERRORS=2\n",
		out.String())
}

func TestObjectArguments(t *testing.T) {
	c := varsChecker(t)

	tests := []struct {
		line   string
		actual string
	}{
		{"1:EXP:obj.type_size()=TypeError", "TypeError"},
		{"2:EXP:obj.enum('A', file='x.c')=TypeError", "TypeError"},
		{"3:EXP:obj.enum(1)=TypeError", "TypeError"},
		{"4:EXP:obj.nothing('A')=AttributeError", "AttributeError"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			rec, ok := record.ParseLine(tt.line)
			require.True(t, ok)
			res := c.Check(rec)
			assert.True(t, res.OK, res.Report)
			assert.Equal(t, tt.actual, res.Actual)
		})
	}
}

func TestCheckerEval(t *testing.T) {
	c := varsChecker(t)

	v, err := c.Eval("obj.var('counter')['addr']")
	require.NoError(t, err)
	assert.Equal(t, int64(0x20000000), v)

	_, err = c.Eval("obj.var('missing')")
	require.Error(t, err)
}
