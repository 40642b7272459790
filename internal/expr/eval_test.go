package expr

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeObj exposes a single method echoing its arguments.
type fakeObj struct{}

func (fakeObj) Attr(name string) (Value, bool) {
	if name != "echo" {
		return nil, false
	}
	return Func(func(args []Value, kwargs map[string]Value) (Value, error) {
		bound, err := Bind("echo", []string{"name", "typename"}, args, kwargs)
		if err != nil {
			return nil, err
		}
		if bound[1] == nil {
			bound[1] = "*"
		}
		return Str(bound[0]) + ":" + Str(bound[1]), nil
	}), true
}

func testEnv() Env {
	list := NewDict().
		Set("ONE", NewDict().Set("value", int64(1)).Set("line", "    ONE = 1,")).
		Set("THREE", NewDict().Set("value", int64(3)).Set("line", "    THREE,        // Comment with THREE"))
	return Env{"obj": fakeObj{}, "values": list}
}

func TestEval(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected Value
	}{
		{"int", "42", int64(42)},
		{"hex literal", "0x1F", int64(31)},
		{"long suffix", "10L", int64(10)},
		{"precedence", "1 + 2 * 3", int64(7)},
		{"parens", "(1 + 2) * 3", int64(9)},
		{"floor division", "-7 // 2", int64(-4)},
		{"classic division floors", "7 / 2", int64(3)},
		{"modulo sign", "-7 % 3", int64(2)},
		{"shift", "1 << 10", int64(1024)},
		{"bitwise", "0xF0 | 0x0F & 0x3", int64(0xF3)},
		{"unary", "-~5", int64(6)},
		{"power", "2 ** 10", int64(1024)},
		{"power binds tighter than unary", "-2 ** 2", int64(-4)},
		{"string concat", "'ab' + \"cd\"", "abcd"},
		{"adjacent strings", "'ab' 'cd'", "abcd"},
		{"string repeat", "'ab' * 2", "abab"},
		{"comparison chain", "1 < 2 <= 2", true},
		{"comparison chain false", "1 < 2 > 3", false},
		{"in string", "'THREE' in 'with THREE'", true},
		{"not in", "'x' not in 'abc'", true},
		{"in dict", "'ONE' in values", true},
		{"in list", "2 in [1, 2, 3]", true},
		{"and returns operand", "0 and 5", int64(0)},
		{"or returns operand", "0 or 'x'", "x"},
		{"not", "not 0", true},
		{"bool arithmetic", "True + 1", int64(2)},
		{"is none", "None is None", true},
		{"conditional", "'a' if 0 else 'b'", "b"},
		{"len dict", "len(values)", int64(2)},
		{"subscript", "values['THREE']['value']", int64(3)},
		{"int of bool", "int('// Comment with THREE' in values['THREE']['line'])", int64(1)},
		{"int of string", "int(' 12 ')", int64(12)},
		{"int with base", "int('ff', 16)", int64(255)},
		{"int base zero", "int('0x10', 0)", int64(16)},
		{"str", "str(12)", "12"},
		{"hex", "hex(255)", "0xff"},
		{"hex negative", "hex(-1)", "-0x1"},
		{"abs", "abs(-3)", int64(3)},
		{"bool", "bool('')", false},
		{"repr", "repr('it''s')", "'its'"},
		{"method call", "obj.echo('A')", "A:*"},
		{"keyword argument", "obj.echo('A', typename='T')", "A:T"},
		{"dict get default", "values.get('NOPE', 7)", int64(7)},
		{"dict keys", "values.keys()", []Value{"ONE", "THREE"}},
		{"string method", "'Hello'.lower().startswith('he')", true},
		{"negative index", "[1, 2, 3][-1]", int64(3)},
		{"string index", "'abc'[1]", "b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Eval(tt.src, testEnv())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestEvalErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		class string
		msg   string
	}{
		{"unknown name", "foo", "NameError", "name 'foo' is not defined"},
		{"missing key", "values['NOPE']", "KeyError", "NOPE"},
		{"division by zero", "1 // 0", "ZeroDivisionError", "integer division or modulo by zero"},
		{"bad attribute", "obj.nope", "AttributeError", "'object' object has no attribute 'nope'"},
		{"not callable", "1()", "TypeError", "'int' object is not callable"},
		{"bad operands", "1 + 'a'", "TypeError", "unsupported operand type(s) for +: 'int' and 'str'"},
		{"index range", "[1][5]", "IndexError", "list index out of range"},
		{"bad keyword", "obj.echo('A', file='x')", "TypeError", "echo() got an unexpected keyword argument 'file'"},
		{"int literal", "int('abc')", "ValueError", "invalid literal for int() with base 10: 'abc'"},
		{"len of int", "len(3)", "TypeError", "object of type 'int' has no len()"},
		{"negative shift", "1 << -1", "ValueError", "negative shift count"},
		{"in needs string", "1 in 'abc'", "TypeError", "'in <string>' requires string as left operand"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Eval(tt.src, testEnv())
			require.Error(t, err)
			var ee *Error
			require.True(t, errors.As(err, &ee))
			assert.Equal(t, tt.class, ee.Class)
			assert.Equal(t, tt.msg, ee.Msg)
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, src := range []string{"", "1 +", "(1", "obj.", "f(a=1, 2)", "1 $ 2", "'open", "a b"} {
		t.Run(src, func(t *testing.T) {
			_, err := Parse(src)
			require.Error(t, err)
			var ee *Error
			require.True(t, errors.As(err, &ee))
			assert.Equal(t, "SyntaxError", ee.Class)
		})
	}
}

func TestBoolOpShortCircuits(t *testing.T) {
	// "or" stops at the first true operand, so the unknown name is never read.
	got, err := Eval("1 or undefined_name", Env{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)

	_, err = Eval("0 or undefined_name", Env{})
	require.Error(t, err)
}

func TestEvalLongIntegers(t *testing.T) {
	maxU64, _ := new(big.Int).SetString("18446744073709551615", 10)
	twoTo64, _ := new(big.Int).SetString("18446744073709551616", 10)
	twoTo63, _ := new(big.Int).SetString("9223372036854775808", 10)

	tests := []struct {
		name     string
		src      string
		expected Value
	}{
		{"all ones literal", "0xFFFFFFFFFFFFFFFF", maxU64},
		{"sign bit literal", "0x8000000000000000", twoTo63},
		{"multiplication grows", "4611686018427387904 * 4", twoTo64},
		{"addition grows", "9223372036854775807 + 1", twoTo63},
		{"shift grows", "1 << 64", twoTo64},
		{"power grows", "2 ** 64", twoTo64},
		{"negation of min", "-(-9223372036854775807 - 1)", twoTo63},
		{"back to int", "(1 << 64) >> 60", int64(16)},
		{"long minus long", "0xFFFFFFFFFFFFFFFF - 0xFFFFFFFFFFFFFFF0", int64(15)},
		{"floor division", "-(1 << 64) // 3", mustBig("-6148914691236517206")},
		{"modulo", "(1 << 64) % 10", int64(6)},
		{"mask", "0xFFFFFFFFFFFFFFFF & 0xFF", int64(255)},
		{"compare", "0xFFFFFFFFFFFFFFFF > 9223372036854775807", true},
		{"equal", "2 ** 64 == 1 << 64", true},
		{"int of long string", "int('18446744073709551616')", twoTo64},
		{"str of long", "str(1 << 64)", "18446744073709551616"},
		{"repr of long", "repr(1 << 64)", "18446744073709551616L"},
		{"hex of long", "hex(0xFFFFFFFFFFFFFFFF)", "0xffffffffffffffffL"},
		{"abs of long", "abs(-(1 << 64))", twoTo64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Eval(tt.src, Env{})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestEvalLongIntegerErrors(t *testing.T) {
	tests := []struct {
		src   string
		class string
	}{
		{"1 << 100000", "OverflowError"},
		{"3 ** 100000", "OverflowError"},
		{"1 << 9223372036854775807", "OverflowError"},
		{"3 ** 4611686018427387904", "OverflowError"},
		{"'a' * 100000000", "OverflowError"},
		{"[1][1 << 64]", "IndexError"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := Eval(tt.src, Env{})
			var ee *Error
			require.True(t, errors.As(err, &ee))
			assert.Equal(t, tt.class, ee.Class)
		})
	}
}

func mustBig(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad integer " + s)
	}
	return n
}
