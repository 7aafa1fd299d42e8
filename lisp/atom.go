package lisp

import (
	"errors"
	"math/big"
	"regexp"
	"strconv"
)

var (
	reTrue   = regexp.MustCompile(`^#t$`)
	reFalse  = regexp.MustCompile(`^#f$`)
	reInt    = regexp.MustCompile(`^[-+]?(0[xX][0-9A-Fa-f]+|0[0-7]*|\d+)$`)
	reHex    = regexp.MustCompile(`^[-+]?0[xX]`)
	reOctal  = regexp.MustCompile(`^[-+]?0[0-7]+$`)
	reFloat  = regexp.MustCompile(`^[-+]?(\d+(\.\d*)?|\.\d+)([eE][-+]?\d+)?$`)
	reString = regexp.MustCompile(`^"[^"]+"$`)
)

// Atom classifies a single token. The order of the checks is fixed:
// booleans, integers, floats, strings, and finally symbols, so anything
// that reads as a number is never a symbol.
func Atom(token string) Value {
	switch {
	case reTrue.MatchString(token):
		return Bool(true)
	case reFalse.MatchString(token):
		return Bool(false)
	}
	if reInt.MatchString(token) {
		if n, ok := parseInt(token); ok {
			return n
		}
	}
	if reFloat.MatchString(token) {
		if f, ok := parseFloat(token); ok {
			return Float(f)
		}
	}
	if reString.MatchString(token) {
		return Str(token[1 : len(token)-1])
	}
	return Sym(token)
}

// parseInt reads a decimal, hex or octal literal of any size.
func parseInt(token string) (Value, bool) {
	sign, digits := "", token
	if digits[0] == '+' || digits[0] == '-' {
		sign, digits = digits[:1], digits[1:]
	}
	base := 10
	switch {
	case reHex.MatchString(token):
		base, digits = 16, digits[2:]
	case reOctal.MatchString(token):
		base, digits = 8, digits[1:]
	}
	z, ok := new(big.Int).SetString(sign+digits, base)
	if !ok {
		return Void(), false
	}
	return BigInt(z), true
}

// parseFloat accepts literals beyond the float64 range as infinities.
func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return f, true
}
