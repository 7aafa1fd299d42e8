package lisp

import (
	"fmt"
	"math/big"
	"strings"
)

// ValueType tags the variant held by a Value.
type ValueType int

const (
	TypeVoid ValueType = iota
	TypeBool
	TypeInt
	TypeFloat
	TypeString
	TypeSymbol
	TypeList
	TypeFunc
	TypeBuiltin
	TypeHost
)

var typeNames = map[ValueType]string{
	TypeVoid:    "void",
	TypeBool:    "bool",
	TypeInt:     "int",
	TypeFloat:   "float",
	TypeString:  "string",
	TypeSymbol:  "symbol",
	TypeList:    "list",
	TypeFunc:    "lambda",
	TypeBuiltin: "builtin",
	TypeHost:    "host",
}

func (t ValueType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ValueType(%d)", int(t))
}

// Value is both a parsed expression and a runtime value. Parse trees only
// ever hold atoms and lists; evaluation adds closures, builtins and host values.
type Value struct {
	Type    ValueType
	Bool    bool
	Int     int64
	Big     *big.Int // set instead of Int when the integer exceeds int64
	Float   float64
	Str     string
	Symbol  string
	List    []Value
	Func    *Closure
	Builtin *Builtin
	Host    *HostValue
}

// Closure is a lambda together with the environment it was created in.
type Closure struct {
	Params []string
	Body   Value
	Env    *Env
}

// BuiltinFunc is the signature of host-native callables.
type BuiltinFunc func(ev *Evaluator, args []Value) (Value, error)

// Builtin is a named host-native callable.
type Builtin struct {
	Name string
	Fn   BuiltinFunc
}

// HostValue is an opaque value handed out by the host escape.
type HostValue struct {
	Tag  string
	Text string
	Data any
}

// Value constructors
func Void() Value              { return Value{Type: TypeVoid} }
func Bool(b bool) Value        { return Value{Type: TypeBool, Bool: b} }
func Int(n int64) Value        { return Value{Type: TypeInt, Int: n} }
func Float(f float64) Value    { return Value{Type: TypeFloat, Float: f} }
func Str(s string) Value       { return Value{Type: TypeString, Str: s} }
func Sym(name string) Value    { return Value{Type: TypeSymbol, Symbol: name} }
func Lst(items ...Value) Value { return Value{Type: TypeList, List: items} }
func Func(c *Closure) Value    { return Value{Type: TypeFunc, Func: c} }
func Host(h *HostValue) Value  { return Value{Type: TypeHost, Host: h} }

// NewBuiltin wraps fn as a callable value.
func NewBuiltin(name string, fn BuiltinFunc) Value {
	return Value{Type: TypeBuiltin, Builtin: &Builtin{Name: name, Fn: fn}}
}

func (v Value) IsVoid() bool     { return v.Type == TypeVoid }
func (v Value) IsList() bool     { return v.Type == TypeList }
func (v Value) IsSymbol() bool   { return v.Type == TypeSymbol }
func (v Value) IsNumber() bool   { return v.Type == TypeInt || v.Type == TypeFloat || v.Type == TypeBool }
func (v Value) IsCallable() bool { return v.Type == TypeFunc || v.Type == TypeBuiltin }

// IsTruthy reports whether v selects the "then" branch of an if.
// False, zero, the empty string, the empty list and void are false.
func (v Value) IsTruthy() bool {
	switch v.Type {
	case TypeVoid:
		return false
	case TypeBool:
		return v.Bool
	case TypeInt:
		return v.Big != nil || v.Int != 0
	case TypeFloat:
		return v.Float != 0
	case TypeString:
		return v.Str != ""
	case TypeList:
		return len(v.List) > 0
	default:
		return true
	}
}

func (v Value) String() string {
	return Render(v)
}

// Equal is structural equality as used by the = builtin.
func Equal(a, b Value) bool {
	if a.IsNumber() && b.IsNumber() {
		if a.Type == TypeFloat || b.Type == TypeFloat {
			return toFloat(a) == toFloat(b)
		}
		return cmpInts(a, b) == 0
	}
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case TypeVoid:
		return true
	case TypeString:
		return a.Str == b.Str
	case TypeSymbol:
		return a.Symbol == b.Symbol
	case TypeList:
		if len(a.List) != len(b.List) {
			return false
		}
		for i := range a.List {
			if !Equal(a.List[i], b.List[i]) {
				return false
			}
		}
		return true
	case TypeFunc:
		return a.Func == b.Func
	case TypeBuiltin:
		return a.Builtin == b.Builtin
	case TypeHost:
		return a.Host == b.Host
	}
	return false
}

// Call binds args to the closure's parameters in a fresh frame chained in
// front of the captured environment and evaluates the body there.
func (c *Closure) Call(ev *Evaluator, args []Value) (Value, error) {
	if len(args) != len(c.Params) {
		return Void(), &ArityError{
			Name: "lambda:(" + strings.Join(c.Params, " ") + ")",
			Want: len(c.Params),
			Got:  len(args),
		}
	}
	frame := NewEnv(c.Env)
	for i, name := range c.Params {
		frame.Define(name, args[i])
	}
	return ev.Eval(c.Body, frame)
}
