package expr

import (
	"math/big"
	"strings"
)

var builtins map[string]Value

func init() {
	builtins = map[string]Value{
		"len":  Func(builtinLen),
		"int":  Func(builtinInt),
		"str":  Func(builtinStr),
		"repr": Func(builtinRepr),
		"hex":  Func(builtinHex),
		"bool": Func(builtinBool),
		"abs":  Func(builtinAbs),
	}
}

func oneArg(name string, args []Value, kwargs map[string]Value) (Value, error) {
	if len(kwargs) > 0 {
		return nil, errorf("TypeError", "%s() takes no keyword arguments", name)
	}
	if len(args) != 1 {
		return nil, errorf("TypeError", "%s() takes exactly one argument (%d given)", name, len(args))
	}
	return args[0], nil
}

func builtinLen(args []Value, kwargs map[string]Value) (Value, error) {
	v, err := oneArg("len", args, kwargs)
	if err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case string:
		return int64(len(x)), nil
	case []Value:
		return int64(len(x)), nil
	case *Dict:
		return int64(x.Len()), nil
	}
	return nil, errorf("TypeError", "object of type '%s' has no len()", TypeName(v))
}

func builtinInt(args []Value, kwargs map[string]Value) (Value, error) {
	bound, err := Bind("int", []string{"x", "base"}, args, kwargs)
	if err != nil {
		return nil, err
	}
	x, base := bound[0], bound[1]
	if x == nil && base == nil {
		return int64(0), nil
	}
	if base != nil {
		s, ok := x.(string)
		if !ok {
			return nil, errorf("TypeError", "int() can't convert non-string with explicit base")
		}
		b, ok := asInt(base)
		if !ok || b == 1 || b < 0 || b > 36 {
			return nil, errorf("ValueError", "int() base must be >= 2 and <= 36")
		}
		return parseInt(s, int(b))
	}
	if v, ok := BigInt(x); ok {
		return normInt(v), nil
	}
	if s, ok := x.(string); ok {
		return parseInt(s, 10)
	}
	return nil, errorf("TypeError", "int() argument must be a string or a number, not '%s'", TypeName(x))
}

func parseInt(s string, base int) (Value, error) {
	text := strings.TrimSpace(s)
	if base == 16 {
		text = strings.TrimPrefix(strings.TrimPrefix(text, "0x"), "0X")
	}
	v, ok := new(big.Int).SetString(text, base)
	if !ok || strings.Contains(text, "_") {
		return nil, errorf("ValueError", "invalid literal for int() with base %d: %s", base, quote(s))
	}
	return normInt(v), nil
}

func builtinStr(args []Value, kwargs map[string]Value) (Value, error) {
	if len(args) == 0 && len(kwargs) == 0 {
		return "", nil
	}
	v, err := oneArg("str", args, kwargs)
	if err != nil {
		return nil, err
	}
	return Str(v), nil
}

func builtinRepr(args []Value, kwargs map[string]Value) (Value, error) {
	v, err := oneArg("repr", args, kwargs)
	if err != nil {
		return nil, err
	}
	return ReprValue(v), nil
}

func builtinHex(args []Value, kwargs map[string]Value) (Value, error) {
	v, err := oneArg("hex", args, kwargs)
	if err != nil {
		return nil, err
	}
	n, ok := BigInt(v)
	if !ok {
		return nil, errorf("TypeError", "hex() argument can't be converted to hex")
	}
	sign := ""
	if n.Sign() < 0 {
		sign = "-"
		n.Neg(n)
	}
	out := sign + "0x" + n.Text(16)
	if _, long := v.(*big.Int); long {
		out += "L"
	}
	return out, nil
}

func builtinBool(args []Value, kwargs map[string]Value) (Value, error) {
	if len(args) == 0 && len(kwargs) == 0 {
		return false, nil
	}
	v, err := oneArg("bool", args, kwargs)
	if err != nil {
		return nil, err
	}
	return Truthy(v), nil
}

func builtinAbs(args []Value, kwargs map[string]Value) (Value, error) {
	v, err := oneArg("abs", args, kwargs)
	if err != nil {
		return nil, err
	}
	n, ok := BigInt(v)
	if !ok {
		return nil, errorf("TypeError", "bad operand type for abs(): '%s'", TypeName(v))
	}
	return normInt(n.Abs(n)), nil
}

// attr resolves x.name: object attributes first, then the methods of the
// builtin dict and str types.
func attr(x Value, name string) (Value, error) {
	switch v := x.(type) {
	case Object:
		if a, ok := v.Attr(name); ok {
			return a, nil
		}
	case *Dict:
		if m, ok := dictMethod(v, name); ok {
			return m, nil
		}
	case string:
		if m, ok := stringMethod(v, name); ok {
			return m, nil
		}
	}
	return nil, errorf("AttributeError", "'%s' object has no attribute '%s'", TypeName(x), name)
}

func dictMethod(d *Dict, name string) (Value, bool) {
	switch name {
	case "keys":
		return Func(func(args []Value, kwargs map[string]Value) (Value, error) {
			out := make([]Value, 0, d.Len())
			for _, k := range d.Keys() {
				out = append(out, k)
			}
			return out, nil
		}), true
	case "values":
		return Func(func(args []Value, kwargs map[string]Value) (Value, error) {
			out := make([]Value, 0, d.Len())
			for _, k := range d.Keys() {
				v, _ := d.Get(k)
				out = append(out, v)
			}
			return out, nil
		}), true
	case "get":
		return Func(func(args []Value, kwargs map[string]Value) (Value, error) {
			bound, err := Bind("get", []string{"key", "default"}, args, kwargs)
			if err != nil {
				return nil, err
			}
			k, ok := bound[0].(string)
			if !ok {
				return bound[1], nil
			}
			if v, found := d.Get(k); found {
				return v, nil
			}
			return bound[1], nil
		}), true
	}
	return nil, false
}

func stringMethod(s, name string) (Value, bool) {
	unaryString := func(f func(string) string) Value {
		return Func(func(args []Value, kwargs map[string]Value) (Value, error) {
			return f(s), nil
		})
	}
	withString := func(f func(string, string) Value) Value {
		return Func(func(args []Value, kwargs map[string]Value) (Value, error) {
			v, err := oneArg(name, args, kwargs)
			if err != nil {
				return nil, err
			}
			arg, ok := v.(string)
			if !ok {
				return nil, errorf("TypeError", "%s() argument must be str, not %s", name, TypeName(v))
			}
			return f(s, arg), nil
		})
	}
	switch name {
	case "strip":
		return unaryString(strings.TrimSpace), true
	case "lower":
		return unaryString(strings.ToLower), true
	case "upper":
		return unaryString(strings.ToUpper), true
	case "startswith":
		return withString(func(s, p string) Value { return strings.HasPrefix(s, p) }), true
	case "endswith":
		return withString(func(s, p string) Value { return strings.HasSuffix(s, p) }), true
	case "find":
		return withString(func(s, p string) Value { return int64(strings.Index(s, p)) }), true
	}
	return nil, false
}
