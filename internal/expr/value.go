package expr

import (
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"
)

// Value is the result of an evaluation: nil (None), bool, int64, *big.Int
// (long), string, []Value, *Dict, Callable or Object.
type Value = any

// Callable is a value that can be called with positional and keyword
// arguments.
type Callable interface {
	Call(args []Value, kwargs map[string]Value) (Value, error)
}

// Func adapts a plain function to Callable.
type Func func(args []Value, kwargs map[string]Value) (Value, error)

func (f Func) Call(args []Value, kwargs map[string]Value) (Value, error) {
	return f(args, kwargs)
}

// Object exposes named attributes, usually methods, to expressions.
type Object interface {
	Attr(name string) (Value, bool)
}

// Dict is a string keyed mapping that keeps insertion order.
type Dict struct {
	keys  []string
	items map[string]Value
}

// NewDict returns an empty Dict.
func NewDict() *Dict {
	return &Dict{items: make(map[string]Value)}
}

// Set adds or replaces key.
func (d *Dict) Set(key string, v Value) *Dict {
	if _, ok := d.items[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.items[key] = v
	return d
}

// Get returns the value stored under key.
func (d *Dict) Get(key string) (Value, bool) {
	v, ok := d.items[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []string { return d.keys }

// Len returns the number of entries.
func (d *Dict) Len() int { return len(d.keys) }

// Bind matches call arguments to parameter names. Missing arguments are nil.
func Bind(fn string, params []string, args []Value, kwargs map[string]Value) ([]Value, error) {
	if len(args) > len(params) {
		return nil, errorf("TypeError", "%s() takes at most %d arguments (%d given)", fn, len(params), len(args))
	}
	out := make([]Value, len(params))
	copy(out, args)
	for name, v := range kwargs {
		i := indexOf(params, name)
		if i < 0 {
			return nil, errorf("TypeError", "%s() got an unexpected keyword argument '%s'", fn, name)
		}
		if i < len(args) {
			return nil, errorf("TypeError", "%s() got multiple values for keyword argument '%s'", fn, name)
		}
		out[i] = v
	}
	return out, nil
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

// TypeName returns the Python type name of v, used in error messages.
func TypeName(v Value) string {
	switch v.(type) {
	case nil:
		return "NoneType"
	case bool:
		return "bool"
	case int64:
		return "int"
	case *big.Int:
		return "long"
	case string:
		return "str"
	case []Value:
		return "list"
	case *Dict:
		return "dict"
	case Callable:
		return "builtin_function_or_method"
	}
	return "object"
}

// Truthy reports the truth value of v.
func Truthy(v Value) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case int64:
		return x != 0
	case *big.Int:
		return x.Sign() != 0
	case string:
		return x != ""
	case []Value:
		return len(x) > 0
	case *Dict:
		return x.Len() > 0
	}
	return true
}

// Str is the str() of v.
func Str(v Value) string {
	switch x := v.(type) {
	case string:
		return x
	case *big.Int:
		return x.String()
	}
	return ReprValue(v)
}

// ReprValue is the repr() of v.
func ReprValue(v Value) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case bool:
		if x {
			return "True"
		}
		return "False"
	case int64:
		return strconv.FormatInt(x, 10)
	case *big.Int:
		return x.String() + "L"
	case string:
		return quote(x)
	case []Value:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = ReprValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *Dict:
		parts := make([]string, 0, x.Len())
		for _, k := range x.keys {
			parts = append(parts, quote(k)+": "+ReprValue(x.items[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case Callable:
		return "<built-in function>"
	}
	return fmt.Sprintf("<%T object>", v)
}

// asInt converts ints and bools that fit in 64 bits.
func asInt(v Value) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// Equal compares two values the way == does.
func Equal(a, b Value) bool {
	if x, ok := BigInt(a); ok {
		y, ok := BigInt(b)
		return ok && x.Cmp(y) == 0
	}
	switch x := a.(type) {
	case nil:
		return b == nil
	case string:
		y, ok := b.(string)
		return ok && x == y
	case []Value:
		y, ok := b.([]Value)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case *Dict:
		y, ok := b.(*Dict)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for _, k := range x.keys {
			yv, ok := y.items[k]
			if !ok || !Equal(x.items[k], yv) {
				return false
			}
		}
		return true
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	return ta == tb && ta.Comparable() && a == b
}
