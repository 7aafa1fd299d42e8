package lisp

import (
	"fmt"
	"strings"

	"github.com/nukata/goarith"
)

func (ev *Evaluator) setupBuiltins() {
	env := ev.Global

	// Arithmetic
	env.Define("+", NewBuiltin("+", builtinAdd))
	env.Define("-", NewBuiltin("-", builtinSub))
	env.Define("*", NewBuiltin("*", builtinMul))
	env.Define("/", NewBuiltin("/", builtinDiv))

	// Comparison
	env.Define(">", NewBuiltin(">", compare(">", func(c int) bool { return c > 0 })))
	env.Define("<", NewBuiltin("<", compare("<", func(c int) bool { return c < 0 })))
	env.Define("<=", NewBuiltin("<=", compare("<=", func(c int) bool { return c <= 0 })))
	env.Define(">=", NewBuiltin(">=", compare(">=", func(c int) bool { return c >= 0 })))
	env.Define("=", NewBuiltin("=", builtinEq))

	// Lists
	env.Define("car", NewBuiltin("car", builtinCar))
	env.Define("cdr", NewBuiltin("cdr", builtinCdr))
	env.Define("list", NewBuiltin("list", builtinList))
	env.Define("map", NewBuiltin("map", builtinMap))

	// Functions and I/O
	env.Define("print", NewBuiltin("print", builtinPrint))
	env.Define("varargs", NewBuiltin("varargs", builtinVarargs))

	// Host escape
	env.Define("#import", NewBuiltin("#import", builtinImport))
	env.Define("#py", NewBuiltin("#py", builtinPy))
}

func checkArity(name string, args []Value, want int) error {
	if len(args) != want {
		return &ArityError{Name: name, Want: want, Got: len(args)}
	}
	return nil
}

func checkMinArity(name string, args []Value, want int) error {
	if len(args) < want {
		return &ArityError{Name: name, Want: want, Got: len(args), Variadic: true}
	}
	return nil
}

func checkNumbers(op string, args []Value) error {
	for _, a := range args {
		if !a.IsNumber() {
			return typeErrorf(op, "unsupported operand %s of type %s", Render(a), a.Type)
		}
	}
	return nil
}

// arith combines two numbers, promoting to float when either operand is a
// float. Integer results never wrap.
func arith(a, b Value,
	ints func(x, y int64) (int64, bool),
	bigs func(x, y goarith.Number) goarith.Number,
	floats func(x, y float64) float64) Value {
	if a.Type == TypeFloat || b.Type == TypeFloat {
		return Float(floats(toFloat(a), toFloat(b)))
	}
	return intArith(a, b, ints, bigs)
}

// number normalizes booleans to integers when they are returned on their own.
func number(v Value) Value {
	if v.Type == TypeBool {
		return Int(toInt(v))
	}
	return v
}

func fold(init Value, args []Value, step func(acc, x Value) (Value, error)) (Value, error) {
	acc := init
	for _, a := range args {
		var err error
		if acc, err = step(acc, a); err != nil {
			return Void(), err
		}
	}
	return acc, nil
}

func add(a, b Value) (Value, error) {
	return arith(a, b, addInt64,
		func(x, y goarith.Number) goarith.Number { return x.Add(y) },
		func(x, y float64) float64 { return x + y }), nil
}

func sub(a, b Value) (Value, error) {
	return arith(a, b, subInt64,
		func(x, y goarith.Number) goarith.Number { return x.Sub(y) },
		func(x, y float64) float64 { return x - y }), nil
}

func mul(a, b Value) (Value, error) {
	return arith(a, b, mulInt64,
		func(x, y goarith.Number) goarith.Number { return x.Mul(y) },
		func(x, y float64) float64 { return x * y }), nil
}

func div(a, b Value) (Value, error) {
	d := toFloat(b)
	if d == 0 {
		return Void(), &EvalError{Op: "/", Err: ErrDivisionByZero}
	}
	return Float(toFloat(a) / d), nil
}

func builtinAdd(ev *Evaluator, args []Value) (Value, error) {
	if err := checkNumbers("+", args); err != nil {
		return Void(), err
	}
	return fold(Int(0), args, add)
}

func builtinMul(ev *Evaluator, args []Value) (Value, error) {
	if err := checkNumbers("*", args); err != nil {
		return Void(), err
	}
	return fold(Int(1), args, mul)
}

func builtinSub(ev *Evaluator, args []Value) (Value, error) {
	if err := checkMinArity("-", args, 1); err != nil {
		return Void(), err
	}
	if err := checkNumbers("-", args); err != nil {
		return Void(), err
	}
	if len(args) == 1 {
		return sub(Int(0), args[0])
	}
	return fold(number(args[0]), args[1:], sub)
}

func builtinDiv(ev *Evaluator, args []Value) (Value, error) {
	if err := checkMinArity("/", args, 1); err != nil {
		return Void(), err
	}
	if err := checkNumbers("/", args); err != nil {
		return Void(), err
	}
	if len(args) == 1 {
		return div(Int(1), args[0])
	}
	return fold(number(args[0]), args[1:], div)
}

// order returns the sign of a compared to b for numbers or strings.
func order(op string, a, b Value) (int, error) {
	switch {
	case a.IsNumber() && b.IsNumber():
		if a.Type == TypeFloat || b.Type == TypeFloat {
			x, y := toFloat(a), toFloat(b)
			switch {
			case x < y:
				return -1, nil
			case x > y:
				return 1, nil
			}
			return 0, nil
		}
		return cmpInts(a, b), nil
	case a.Type == TypeString && b.Type == TypeString:
		return strings.Compare(a.Str, b.Str), nil
	}
	return 0, typeErrorf(op, "cannot compare %s and %s", a.Type, b.Type)
}

func compare(op string, accept func(int) bool) BuiltinFunc {
	return func(ev *Evaluator, args []Value) (Value, error) {
		if err := checkArity(op, args, 2); err != nil {
			return Void(), err
		}
		c, err := order(op, args[0], args[1])
		if err != nil {
			return Void(), err
		}
		return Bool(accept(c)), nil
	}
}

func builtinEq(ev *Evaluator, args []Value) (Value, error) {
	if err := checkArity("=", args, 2); err != nil {
		return Void(), err
	}
	return Bool(Equal(args[0], args[1])), nil
}

func listArg(op string, v Value) ([]Value, error) {
	if !v.IsList() {
		return nil, typeErrorf(op, "expected a list, got %s", v.Type)
	}
	return v.List, nil
}

func builtinCar(ev *Evaluator, args []Value) (Value, error) {
	if err := checkArity("car", args, 1); err != nil {
		return Void(), err
	}
	items, err := listArg("car", args[0])
	if err != nil {
		return Void(), err
	}
	if len(items) == 0 {
		return Void(), &EvalError{Op: "car", Err: ErrEmptyList}
	}
	return items[0], nil
}

func builtinCdr(ev *Evaluator, args []Value) (Value, error) {
	if err := checkArity("cdr", args, 1); err != nil {
		return Void(), err
	}
	items, err := listArg("cdr", args[0])
	if err != nil {
		return Void(), err
	}
	if len(items) == 0 {
		return Lst(), nil
	}
	return Lst(items[1:]...), nil
}

func builtinList(ev *Evaluator, args []Value) (Value, error) {
	return listOf(args), nil
}

func builtinMap(ev *Evaluator, args []Value) (Value, error) {
	if err := checkArity("map", args, 2); err != nil {
		return Void(), err
	}
	fn := args[0]
	if !fn.IsCallable() {
		return Void(), typeErrorf("map", "%s is not callable", Render(fn))
	}
	items, err := listArg("map", args[1])
	if err != nil {
		return Void(), err
	}
	out := make([]Value, len(items))
	for i, item := range items {
		if out[i], err = ev.Apply(fn, []Value{item}); err != nil {
			return Void(), err
		}
	}
	return Lst(out...), nil
}

func builtinPrint(ev *Evaluator, args []Value) (Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = Display(a)
	}
	if _, err := fmt.Fprintln(ev.Out, strings.Join(parts, " ")); err != nil {
		return Void(), &EvalError{Op: "print", Err: err}
	}
	return Void(), nil
}

// builtinVarargs adapts f so that its arguments arrive as a single list.
func builtinVarargs(ev *Evaluator, args []Value) (Value, error) {
	if err := checkArity("varargs", args, 1); err != nil {
		return Void(), err
	}
	fn := args[0]
	if !fn.IsCallable() {
		return Void(), typeErrorf("varargs", "%s is not callable", Render(fn))
	}
	return NewBuiltin("varargs:"+Render(fn), func(ev *Evaluator, rest []Value) (Value, error) {
		return ev.Apply(fn, []Value{listOf(rest)})
	}), nil
}

// listOf copies args so the new list never aliases a caller slice.
func listOf(args []Value) Value {
	items := make([]Value, len(args))
	copy(items, args)
	return Lst(items...)
}
