package lisp

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/nukata/goarith"
)

// Integers are int64 until a result no longer fits; from then on they are
// carried as *big.Int and rendered exactly. A Value never holds a Big that
// would fit in an int64.

// BigInt returns z as an integer value, in int64 form when it fits.
func BigInt(z *big.Int) Value {
	if z.IsInt64() {
		return Int(z.Int64())
	}
	return Value{Type: TypeInt, Big: new(big.Int).Set(z)}
}

func isBig(v Value) bool { return v.Type == TypeInt && v.Big != nil }

// bigOf returns the integer value of an int or bool as a fresh *big.Int.
func bigOf(v Value) *big.Int {
	if isBig(v) {
		return new(big.Int).Set(v.Big)
	}
	return big.NewInt(toInt(v))
}

func toInt(v Value) int64 {
	switch v.Type {
	case TypeBool:
		if v.Bool {
			return 1
		}
		return 0
	case TypeFloat:
		return int64(v.Float)
	default:
		return v.Int
	}
}

func toFloat(v Value) float64 {
	switch {
	case v.Type == TypeFloat:
		return v.Float
	case isBig(v):
		f, _ := new(big.Float).SetInt(v.Big).Float64()
		return f
	}
	return float64(toInt(v))
}

func sign(v Value) int {
	switch {
	case v.Type == TypeFloat:
		switch {
		case v.Float < 0:
			return -1
		case v.Float > 0:
			return 1
		}
		return 0
	case isBig(v):
		return v.Big.Sign()
	}
	switch n := toInt(v); {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

func arithNumber(v Value) goarith.Number {
	return goarith.AsNumber(bigOf(v))
}

// fromNumber converts an integer result of goarith back to a Value.
func fromNumber(n goarith.Number) Value {
	s := fmt.Sprint(n)
	if z, ok := new(big.Int).SetString(s, 10); ok {
		return BigInt(z)
	}
	f, _ := strconv.ParseFloat(s, 64)
	return Float(f)
}

// intArith applies op to two integers. The int64 result is used when fast
// reports no overflow; otherwise the exact result comes from slow.
func intArith(a, b Value,
	fast func(x, y int64) (int64, bool),
	slow func(x, y goarith.Number) goarith.Number) Value {
	if !isBig(a) && !isBig(b) {
		if r, ok := fast(toInt(a), toInt(b)); ok {
			return Int(r)
		}
	}
	return fromNumber(slow(arithNumber(a), arithNumber(b)))
}

func addInt64(x, y int64) (int64, bool) {
	s := x + y
	return s, (s > x) == (y > 0)
}

func subInt64(x, y int64) (int64, bool) {
	d := x - y
	return d, (d < x) == (y > 0)
}

func mulInt64(x, y int64) (int64, bool) {
	if x == 0 || y == 0 {
		return 0, true
	}
	if (x == -1 && y == math.MinInt64) || (y == -1 && x == math.MinInt64) {
		return 0, false
	}
	p := x * y
	return p, p/y == x
}

// cmpInts orders two integers (ints or bools).
func cmpInts(a, b Value) int {
	if !isBig(a) && !isBig(b) {
		x, y := toInt(a), toInt(b)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	return arithNumber(a).Cmp(arithNumber(b))
}

// floatToInt truncates f toward zero, as int() does.
func floatToInt(op string, f float64) (Value, error) {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return Void(), typeErrorf(op, "cannot convert %s to integer", formatFloat(f))
	}
	if f >= -(1<<63) && f < 1<<63 {
		return Int(int64(f)), nil
	}
	z, _ := big.NewFloat(f).Int(nil)
	return BigInt(z), nil
}
