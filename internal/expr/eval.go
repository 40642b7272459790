// Package expr evaluates the small Python-flavoured expressions that C
// fixtures embed in their assertion records, e.g.
//
//	obj.enum('FUNC_ENUM', function='f1')
//	len(obj.enum_type(typename='MyList_e'))
//
// Integers grow past 64 bits instead of wrapping. Errors carry an exception class so that expected
// failures can be compared against their rendered form.
package expr

import (
	"math/big"
	"strings"
)

// Env binds names to values. Builtins are visible unless shadowed.
type Env map[string]Value

// Eval parses and evaluates src.
func Eval(src string, env Env) (Value, error) {
	n, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return EvalNode(n, env)
}

// EvalNode evaluates a parsed expression.
func EvalNode(n Node, env Env) (Value, error) {
	switch n := n.(type) {
	case *Const:
		return n.Value, nil
	case *Name:
		if v, ok := env[n.ID]; ok {
			return v, nil
		}
		if b, ok := builtins[n.ID]; ok {
			return b, nil
		}
		return nil, errorf("NameError", "name '%s' is not defined", n.ID)
	case *Attr:
		x, err := EvalNode(n.X, env)
		if err != nil {
			return nil, err
		}
		return attr(x, n.Name)
	case *Call:
		return evalCall(n, env)
	case *Index:
		x, err := EvalNode(n.X, env)
		if err != nil {
			return nil, err
		}
		key, err := EvalNode(n.Key, env)
		if err != nil {
			return nil, err
		}
		return index(x, key)
	case *Unary:
		x, err := EvalNode(n.X, env)
		if err != nil {
			return nil, err
		}
		return unary(n.Op, x)
	case *Binary:
		l, err := EvalNode(n.L, env)
		if err != nil {
			return nil, err
		}
		r, err := EvalNode(n.R, env)
		if err != nil {
			return nil, err
		}
		return binary(n.Op, l, r)
	case *Compare:
		return evalCompare(n, env)
	case *BoolOp:
		l, err := EvalNode(n.L, env)
		if err != nil {
			return nil, err
		}
		if Truthy(l) == (n.Op == "or") {
			return l, nil
		}
		return EvalNode(n.R, env)
	case *IfExp:
		c, err := EvalNode(n.Cond, env)
		if err != nil {
			return nil, err
		}
		if Truthy(c) {
			return EvalNode(n.Then, env)
		}
		return EvalNode(n.Else, env)
	case *List:
		out := make([]Value, 0, len(n.Elems))
		for _, e := range n.Elems {
			v, err := EvalNode(e, env)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}
	return nil, errorf("SystemError", "unknown node %T", n)
}

func evalCall(n *Call, env Env) (Value, error) {
	fn, err := EvalNode(n.Fn, env)
	if err != nil {
		return nil, err
	}
	c, ok := fn.(Callable)
	if !ok {
		return nil, errorf("TypeError", "'%s' object is not callable", TypeName(fn))
	}
	args := make([]Value, 0, len(n.Args))
	for _, a := range n.Args {
		v, err := EvalNode(a, env)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	var kwargs map[string]Value
	if len(n.Keywords) > 0 {
		kwargs = make(map[string]Value, len(n.Keywords))
		for _, kw := range n.Keywords {
			if _, dup := kwargs[kw.Name]; dup {
				return nil, errorf("SyntaxError", "keyword argument repeated")
			}
			v, err := EvalNode(kw.Value, env)
			if err != nil {
				return nil, err
			}
			kwargs[kw.Name] = v
		}
	}
	return c.Call(args, kwargs)
}

func evalCompare(n *Compare, env Env) (Value, error) {
	l, err := EvalNode(n.L, env)
	if err != nil {
		return nil, err
	}
	for i, op := range n.Ops {
		r, err := EvalNode(n.Rs[i], env)
		if err != nil {
			return nil, err
		}
		ok, err := compare(op, l, r)
		if err != nil {
			return nil, err
		}
		if !ok {
			return false, nil
		}
		l = r
	}
	return true, nil
}

func compare(op string, l, r Value) (bool, error) {
	switch op {
	case "==":
		return Equal(l, r), nil
	case "!=":
		return !Equal(l, r), nil
	case "is":
		return identical(l, r), nil
	case "is not":
		return !identical(l, r), nil
	case "in", "not in":
		in, err := contains(r, l)
		if err != nil {
			return false, err
		}
		return in == (op == "in"), nil
	}

	if a, ok := BigInt(l); ok {
		if b, ok := BigInt(r); ok {
			return order(op, a.Cmp(b)), nil
		}
	}
	if a, ok := l.(string); ok {
		if b, ok := r.(string); ok {
			return order(op, strings.Compare(a, b)), nil
		}
	}
	return false, errorf("TypeError", "unorderable types: %s() %s %s()", TypeName(l), op, TypeName(r))
}

func identical(l, r Value) bool {
	switch l.(type) {
	case nil, bool:
		return l == r
	}
	return Equal(l, r)
}

func order(op string, c int) bool {
	switch op {
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	}
	return c >= 0
}

func contains(container, item Value) (bool, error) {
	switch c := container.(type) {
	case string:
		s, ok := item.(string)
		if !ok {
			return false, errorf("TypeError", "'in <string>' requires string as left operand")
		}
		return strings.Contains(c, s), nil
	case []Value:
		for _, e := range c {
			if Equal(e, item) {
				return true, nil
			}
		}
		return false, nil
	case *Dict:
		k, ok := item.(string)
		if !ok {
			return false, nil
		}
		_, found := c.Get(k)
		return found, nil
	}
	return false, errorf("TypeError", "argument of type '%s' is not iterable", TypeName(container))
}

func index(x, key Value) (Value, error) {
	switch c := x.(type) {
	case *Dict:
		k, ok := key.(string)
		if !ok {
			return nil, &Error{Class: "KeyError", Msg: Str(key)}
		}
		v, found := c.Get(k)
		if !found {
			return nil, &Error{Class: "KeyError", Msg: k}
		}
		return v, nil
	case []Value:
		i, err := sequenceIndex(key, len(c), "list")
		if err != nil {
			return nil, err
		}
		return c[i], nil
	case string:
		i, err := sequenceIndex(key, len(c), "string")
		if err != nil {
			return nil, err
		}
		return c[i : i+1], nil
	}
	return nil, errorf("TypeError", "'%s' object is not subscriptable", TypeName(x))
}

func sequenceIndex(key Value, n int, kind string) (int, error) {
	if _, long := key.(*big.Int); long {
		return 0, errorf("IndexError", "cannot fit 'long' into an index-sized integer")
	}
	i, ok := asInt(key)
	if !ok {
		return 0, errorf("TypeError", "%s indices must be integers, not %s", kind, TypeName(key))
	}
	if i < 0 {
		i += int64(n)
	}
	if i < 0 || i >= int64(n) {
		return 0, errorf("IndexError", "%s index out of range", kind)
	}
	return int(i), nil
}

func unary(op string, x Value) (Value, error) {
	if op == "not" {
		return !Truthy(x), nil
	}
	v, ok := BigInt(x)
	if !ok {
		return nil, errorf("TypeError", "bad operand type for unary %s: '%s'", op, TypeName(x))
	}
	return intUnary(op, v), nil
}

func binary(op string, l, r Value) (Value, error) {
	if x, ok := BigInt(l); ok {
		if y, ok := BigInt(r); ok {
			return intBinary(op, x, y)
		}
	}
	a, lok := asInt(l)
	b, rok := asInt(r)

	switch x := l.(type) {
	case string:
		switch op {
		case "+":
			if y, ok := r.(string); ok {
				return x + y, nil
			}
		case "*":
			if rok {
				return repeat(x, b)
			}
		}
	case []Value:
		if y, ok := r.([]Value); ok && op == "+" {
			out := make([]Value, 0, len(x)+len(y))
			return append(append(out, x...), y...), nil
		}
	}
	if s, ok := r.(string); ok && lok && op == "*" {
		return repeat(s, a)
	}
	return nil, errorf("TypeError", "unsupported operand type(s) for %s: '%s' and '%s'", op, TypeName(l), TypeName(r))
}

func repeat(s string, n int64) (Value, error) {
	if n <= 0 || s == "" {
		return "", nil
	}
	if n > maxRepeat/int64(len(s)) {
		return nil, errorf("OverflowError", "repeated string is too long")
	}
	return strings.Repeat(s, int(n)), nil
}
