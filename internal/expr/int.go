package expr

import (
	"math/big"
)

// Integers that fit in 64 bits are int64. Larger ones are *big.Int, the way
// Python 2 promotes int to long, so arithmetic never wraps.

const (
	// maxBits bounds the size of shift and power results.
	maxBits = 1 << 16
	// maxRepeat bounds the length of a repeated string.
	maxRepeat = 1 << 24
)

// normInt returns n as int64 when it fits.
func normInt(n *big.Int) Value {
	if n.IsInt64() {
		return n.Int64()
	}
	return n
}

// BigInt converts ints, longs and bools to a *big.Int that the caller owns.
func BigInt(v Value) (*big.Int, bool) {
	switch x := v.(type) {
	case *big.Int:
		return new(big.Int).Set(x), true
	case int64:
		return big.NewInt(x), true
	case bool:
		if x {
			return big.NewInt(1), true
		}
		return new(big.Int), true
	}
	return nil, false
}

func overflow() *Error {
	return errorf("OverflowError", "long int too large to convert to int")
}

func intBinary(op string, a, b *big.Int) (Value, error) {
	r := new(big.Int)
	switch op {
	case "+":
		r.Add(a, b)
	case "-":
		r.Sub(a, b)
	case "*":
		r.Mul(a, b)
	case "/", "//", "%":
		if b.Sign() == 0 {
			return nil, errorf("ZeroDivisionError", "integer division or modulo by zero")
		}
		q, m := new(big.Int).QuoRem(a, b, new(big.Int))
		// floor towards negative infinity
		if m.Sign() != 0 && (m.Sign() < 0) != (b.Sign() < 0) {
			q.Sub(q, big.NewInt(1))
			m.Add(m, b)
		}
		if op == "%" {
			return normInt(m), nil
		}
		return normInt(q), nil
	case "<<", ">>":
		if b.Sign() < 0 {
			return nil, errorf("ValueError", "negative shift count")
		}
		if op == ">>" {
			if !b.IsInt64() || b.Int64() > int64(a.BitLen()) {
				if a.Sign() < 0 {
					return int64(-1), nil
				}
				return int64(0), nil
			}
			return normInt(r.Rsh(a, uint(b.Int64()))), nil
		}
		if a.Sign() == 0 {
			return int64(0), nil
		}
		if !b.IsInt64() || b.Int64() > maxBits || int64(a.BitLen())+b.Int64() > maxBits {
			return nil, overflow()
		}
		r.Lsh(a, uint(b.Int64()))
	case "&":
		r.And(a, b)
	case "|":
		r.Or(a, b)
	case "^":
		r.Xor(a, b)
	case "**":
		if b.Sign() < 0 {
			return nil, errorf("ValueError", "negative exponent")
		}
		if a.CmpAbs(big.NewInt(1)) > 0 && (!b.IsInt64() || b.Int64() > maxBits || int64(a.BitLen()-1)*b.Int64() > maxBits) {
			return nil, overflow()
		}
		r.Exp(a, b, nil)
	default:
		return nil, errorf("SystemError", "unknown operator %s", op)
	}
	return normInt(r), nil
}

func intUnary(op string, x *big.Int) Value {
	switch op {
	case "-":
		return normInt(x.Neg(x))
	case "~":
		return normInt(x.Not(x))
	}
	return normInt(x)
}
