package lisp

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"strings"
	"unicode/utf8"
)

// HostTable is the fixed set of host modules and functions reachable
// through #import and #py. Nothing is discovered dynamically: a name
// resolves only if it was registered.
type HostTable struct {
	modules map[string]Value
	funcs   map[string]Value
}

func NewHostTable() *HostTable {
	return &HostTable{
		modules: make(map[string]Value),
		funcs:   make(map[string]Value),
	}
}

// RegisterModule makes members importable as a module called name.
func (h *HostTable) RegisterModule(name string, members map[string]Value) {
	h.modules[name] = Host(&HostValue{Tag: "module", Text: name, Data: members})
}

// RegisterFunc makes fn available to #py under name.
func (h *HostTable) RegisterFunc(name string, fn BuiltinFunc) {
	h.funcs[name] = NewBuiltin(name, fn)
}

func (h *HostTable) Module(name string) (Value, bool) {
	v, ok := h.modules[name]
	return v, ok
}

func (h *HostTable) Func(name string) (Value, bool) {
	v, ok := h.funcs[name]
	return v, ok
}

// DefaultHost returns the standard host table.
func DefaultHost() *HostTable {
	h := NewHostTable()

	h.RegisterFunc("tuple", hostTuple)
	h.RegisterFunc("len", hostLen)
	h.RegisterFunc("sum", hostSum)
	h.RegisterFunc("abs", hostAbs)
	h.RegisterFunc("max", extremum("max", 1))
	h.RegisterFunc("min", extremum("min", -1))
	h.RegisterFunc("str", hostStr)
	h.RegisterFunc("repr", hostRepr)
	h.RegisterFunc("int", hostInt)
	h.RegisterFunc("float", hostFloat)
	h.RegisterFunc("bool", hostBool)
	h.RegisterFunc("range", hostRange)
	h.RegisterFunc("sorted", hostSorted)
	h.RegisterFunc("reversed", hostReversed)
	h.RegisterFunc("getattr", hostGetattr)

	h.RegisterModule("math", mathModule())
	h.RegisterModule("operator", operatorModule())
	h.RegisterModule("string", map[string]Value{
		"ascii_lowercase": Str("abcdefghijklmnopqrstuvwxyz"),
		"ascii_uppercase": Str("ABCDEFGHIJKLMNOPQRSTUVWXYZ"),
		"digits":          Str("0123456789"),
		"hexdigits":       Str("0123456789abcdefABCDEF"),
		"whitespace":      Str(" \t\n\r\x0b\x0c"),
	})
	return h
}

func nameArg(op string, args []Value) (string, error) {
	if err := checkArity(op, args, 1); err != nil {
		return "", err
	}
	switch args[0].Type {
	case TypeString:
		return args[0].Str, nil
	case TypeSymbol:
		return args[0].Symbol, nil
	}
	return "", typeErrorf(op, "expected a name, got %s", args[0].Type)
}

func builtinImport(ev *Evaluator, args []Value) (Value, error) {
	name, err := nameArg("#import", args)
	if err != nil {
		return Void(), err
	}
	if m, ok := ev.host.Module(name); ok {
		return m, nil
	}
	return Void(), &UndefinedSymbolError{Name: "#import " + name}
}

func builtinPy(ev *Evaluator, args []Value) (Value, error) {
	name, err := nameArg("#py", args)
	if err != nil {
		return Void(), err
	}
	if fn, ok := ev.host.Func(name); ok {
		return fn, nil
	}
	return Void(), &UndefinedSymbolError{Name: "#py " + name}
}

// sequence accepts a list or a string; strings yield one string per rune.
func sequence(op string, v Value) ([]Value, error) {
	switch v.Type {
	case TypeList:
		return v.List, nil
	case TypeString:
		out := make([]Value, 0, utf8.RuneCountInString(v.Str))
		for _, r := range v.Str {
			out = append(out, Str(string(r)))
		}
		return out, nil
	}
	return nil, typeErrorf(op, "%s is not iterable", v.Type)
}

func hostTuple(ev *Evaluator, args []Value) (Value, error) {
	if len(args) == 0 {
		return Lst(), nil
	}
	if err := checkArity("tuple", args, 1); err != nil {
		return Void(), err
	}
	items, err := sequence("tuple", args[0])
	if err != nil {
		return Void(), err
	}
	return listOf(items), nil
}

func hostLen(ev *Evaluator, args []Value) (Value, error) {
	if err := checkArity("len", args, 1); err != nil {
		return Void(), err
	}
	if args[0].Type == TypeString {
		return Int(int64(utf8.RuneCountInString(args[0].Str))), nil
	}
	items, err := sequence("len", args[0])
	if err != nil {
		return Void(), err
	}
	return Int(int64(len(items))), nil
}

func hostSum(ev *Evaluator, args []Value) (Value, error) {
	if err := checkArity("sum", args, 1); err != nil {
		return Void(), err
	}
	items, err := listArg("sum", args[0])
	if err != nil {
		return Void(), err
	}
	return builtinAdd(ev, items)
}

func hostAbs(ev *Evaluator, args []Value) (Value, error) {
	if err := checkArity("abs", args, 1); err != nil {
		return Void(), err
	}
	if err := checkNumbers("abs", args); err != nil {
		return Void(), err
	}
	v := number(args[0])
	if v.Type == TypeFloat {
		return Float(math.Abs(v.Float)), nil
	}
	if sign(v) < 0 {
		return sub(Int(0), v)
	}
	return v, nil
}

// extremum builds max (sign 1) or min (sign -1). A single list argument is
// searched element-wise.
func extremum(op string, sign int) BuiltinFunc {
	return func(ev *Evaluator, args []Value) (Value, error) {
		if err := checkMinArity(op, args, 1); err != nil {
			return Void(), err
		}
		items := args
		if len(args) == 1 {
			var err error
			if items, err = sequence(op, args[0]); err != nil {
				return Void(), err
			}
			if len(items) == 0 {
				return Void(), &EvalError{Op: op, Err: ErrEmptyList}
			}
		}
		best := items[0]
		for _, item := range items[1:] {
			c, err := order(op, item, best)
			if err != nil {
				return Void(), err
			}
			if c*sign > 0 {
				best = item
			}
		}
		return best, nil
	}
}

func hostStr(ev *Evaluator, args []Value) (Value, error) {
	if err := checkArity("str", args, 1); err != nil {
		return Void(), err
	}
	return Str(Display(args[0])), nil
}

func hostRepr(ev *Evaluator, args []Value) (Value, error) {
	if err := checkArity("repr", args, 1); err != nil {
		return Void(), err
	}
	return Str(Render(args[0])), nil
}

func hostInt(ev *Evaluator, args []Value) (Value, error) {
	if err := checkArity("int", args, 1); err != nil {
		return Void(), err
	}
	v := args[0]
	switch {
	case v.Type == TypeFloat:
		return floatToInt("int", v.Float)
	case v.IsNumber():
		return number(v), nil
	case v.Type == TypeString:
		z, ok := new(big.Int).SetString(strings.TrimSpace(v.Str), 10)
		if !ok {
			return Void(), typeErrorf("int", "invalid literal %s", Render(v))
		}
		return BigInt(z), nil
	}
	return Void(), typeErrorf("int", "cannot convert %s", v.Type)
}

func hostFloat(ev *Evaluator, args []Value) (Value, error) {
	if err := checkArity("float", args, 1); err != nil {
		return Void(), err
	}
	v := args[0]
	switch {
	case v.IsNumber():
		return Float(toFloat(v)), nil
	case v.Type == TypeString:
		f, ok := parseFloat(strings.TrimSpace(v.Str))
		if !ok {
			return Void(), typeErrorf("float", "could not convert %s", Render(v))
		}
		return Float(f), nil
	}
	return Void(), typeErrorf("float", "cannot convert %s", v.Type)
}

func hostBool(ev *Evaluator, args []Value) (Value, error) {
	if err := checkArity("bool", args, 1); err != nil {
		return Void(), err
	}
	return Bool(args[0].IsTruthy()), nil
}

// MaxRangeLen caps the number of elements range may produce.
const MaxRangeLen = 1 << 20

func hostRange(ev *Evaluator, args []Value) (Value, error) {
	if len(args) < 1 || len(args) > 3 {
		return Void(), &ArityError{Name: "range", Want: 1, Got: len(args), Variadic: true}
	}
	for _, a := range args {
		if a.Type != TypeInt && a.Type != TypeBool {
			return Void(), typeErrorf("range", "expected an integer, got %s", a.Type)
		}
	}
	start, stop, step := big.NewInt(0), bigOf(args[0]), big.NewInt(1)
	if len(args) >= 2 {
		start, stop = bigOf(args[0]), bigOf(args[1])
	}
	if len(args) == 3 {
		step = bigOf(args[2])
	}
	if step.Sign() == 0 {
		return Void(), typeErrorf("range", "step must not be zero")
	}

	n := rangeLen(start, stop, step)
	if n.Cmp(big.NewInt(MaxRangeLen)) > 0 {
		return Void(), &EvalError{Op: "range", Err: fmt.Errorf("%w: %s elements, limit %d", ErrTooLarge, n, MaxRangeLen)}
	}
	count := int(n.Int64())
	out := make([]Value, count)
	i := start
	for k := 0; k < count; k++ {
		out[k] = BigInt(i)
		i = new(big.Int).Add(i, step)
	}
	return Lst(out...), nil
}

// rangeLen is the element count of range(start, stop, step), step != 0.
func rangeLen(start, stop, step *big.Int) *big.Int {
	span := new(big.Int).Sub(stop, start)
	by := new(big.Int).Set(step)
	if step.Sign() < 0 {
		span.Neg(span)
		by.Neg(by)
	}
	if span.Sign() <= 0 {
		return big.NewInt(0)
	}
	// ceil(span / by)
	span.Add(span, by).Sub(span, big.NewInt(1))
	return span.Quo(span, by)
}

func hostSorted(ev *Evaluator, args []Value) (Value, error) {
	if err := checkArity("sorted", args, 1); err != nil {
		return Void(), err
	}
	items, err := sequence("sorted", args[0])
	if err != nil {
		return Void(), err
	}
	out := listOf(items)
	var sortErr error
	sort.SliceStable(out.List, func(i, j int) bool {
		c, err := order("sorted", out.List[i], out.List[j])
		if err != nil && sortErr == nil {
			sortErr = err
		}
		return c < 0
	})
	if sortErr != nil {
		return Void(), sortErr
	}
	return out, nil
}

func hostReversed(ev *Evaluator, args []Value) (Value, error) {
	if err := checkArity("reversed", args, 1); err != nil {
		return Void(), err
	}
	items, err := sequence("reversed", args[0])
	if err != nil {
		return Void(), err
	}
	out := make([]Value, len(items))
	for i, item := range items {
		out[len(items)-1-i] = item
	}
	return Lst(out...), nil
}

func hostGetattr(ev *Evaluator, args []Value) (Value, error) {
	if err := checkArity("getattr", args, 2); err != nil {
		return Void(), err
	}
	mod := args[0]
	if mod.Type != TypeHost || mod.Host.Tag != "module" {
		return Void(), typeErrorf("getattr", "%s is not a module", Render(mod))
	}
	name, err := nameArg("getattr", args[1:])
	if err != nil {
		return Void(), err
	}
	members, _ := mod.Host.Data.(map[string]Value)
	if v, ok := members[name]; ok {
		return v, nil
	}
	return Void(), &UndefinedSymbolError{Name: mod.Host.Text + "." + name}
}

func unaryFloat(name string, fn func(float64) float64) Value {
	return NewBuiltin(name, func(ev *Evaluator, args []Value) (Value, error) {
		if err := checkArity(name, args, 1); err != nil {
			return Void(), err
		}
		if err := checkNumbers(name, args); err != nil {
			return Void(), err
		}
		return Float(fn(toFloat(args[0]))), nil
	})
}

func unaryRound(name string, fn func(float64) float64) Value {
	return NewBuiltin(name, func(ev *Evaluator, args []Value) (Value, error) {
		if err := checkArity(name, args, 1); err != nil {
			return Void(), err
		}
		if err := checkNumbers(name, args); err != nil {
			return Void(), err
		}
		return floatToInt(name, fn(toFloat(args[0])))
	})
}

func mathModule() map[string]Value {
	return map[string]Value{
		"pi":    Float(math.Pi),
		"e":     Float(math.E),
		"inf":   Float(math.Inf(1)),
		"nan":   Float(math.NaN()),
		"sqrt":  unaryFloat("sqrt", math.Sqrt),
		"exp":   unaryFloat("exp", math.Exp),
		"log":   unaryFloat("log", math.Log),
		"sin":   unaryFloat("sin", math.Sin),
		"cos":   unaryFloat("cos", math.Cos),
		"tan":   unaryFloat("tan", math.Tan),
		"fabs":  unaryFloat("fabs", math.Abs),
		"floor": unaryRound("floor", math.Floor),
		"ceil":  unaryRound("ceil", math.Ceil),
		"pow": NewBuiltin("pow", func(ev *Evaluator, args []Value) (Value, error) {
			if err := checkArity("pow", args, 2); err != nil {
				return Void(), err
			}
			if err := checkNumbers("pow", args); err != nil {
				return Void(), err
			}
			return Float(math.Pow(toFloat(args[0]), toFloat(args[1]))), nil
		}),
	}
}

func binary(name string, fn BuiltinFunc) Value {
	return NewBuiltin(name, func(ev *Evaluator, args []Value) (Value, error) {
		if err := checkArity(name, args, 2); err != nil {
			return Void(), err
		}
		return fn(ev, args)
	})
}

func operatorModule() map[string]Value {
	return map[string]Value{
		"add":     binary("add", builtinAdd),
		"sub":     binary("sub", builtinSub),
		"mul":     binary("mul", builtinMul),
		"truediv": binary("truediv", builtinDiv),
		"eq":      binary("eq", builtinEq),
		"lt":      NewBuiltin("lt", compare("lt", func(c int) bool { return c < 0 })),
		"le":      NewBuiltin("le", compare("le", func(c int) bool { return c <= 0 })),
		"gt":      NewBuiltin("gt", compare("gt", func(c int) bool { return c > 0 })),
		"ge":      NewBuiltin("ge", compare("ge", func(c int) bool { return c >= 0 })),
		"neg": NewBuiltin("neg", func(ev *Evaluator, args []Value) (Value, error) {
			if err := checkArity("neg", args, 1); err != nil {
				return Void(), err
			}
			return builtinSub(ev, args)
		}),
		"not_": NewBuiltin("not_", func(ev *Evaluator, args []Value) (Value, error) {
			if err := checkArity("not_", args, 1); err != nil {
				return Void(), err
			}
			return Bool(!args[0].IsTruthy()), nil
		}),
	}
}
