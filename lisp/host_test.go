package lisp

import (
	"errors"
	"testing"
)

func TestHostFunctions(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{`((#py "tuple") (list 1 2))`, "(1 2)"},
		{`((#py "tuple") "ab")`, "('a' 'b')"},
		{`((#py "len") (list 1 2 3))`, "3"},
		{`((#py "len") "héllo")`, "5"},
		{`((#py "sum") (list 1 2 3.5))`, "6.5"},
		{`((#py "abs") -3)`, "3"},
		{`((#py "abs") -2.5)`, "2.5"},
		{`((#py "max") 3 9 4)`, "9"},
		{`((#py "min") (list 3 9 4))`, "3"},
		{`((#py "str") 42)`, "'42'"},
		{`((#py "repr") "x")`, `"'x'"`},
		{`((#py "int") "12")`, "12"},
		{`((#py "int") 3.9)`, "3"},
		{`((#py "float") 2)`, "2.0"},
		{`((#py "bool") (list))`, "#f"},
		{`((#py "range") 4)`, "(0 1 2 3)"},
		{`((#py "range") 1 10 3)`, "(1 4 7)"},
		{`((#py "range") 3 0 -1)`, "(3 2 1)"},
		{`((#py "range") 0)`, "()"},
		{`((#py "range") 5 1)`, "()"},
		{`((#py "range") 9223372036854775800 9223372036854775807 5)`, "(9223372036854775800 9223372036854775805)"},
		{`((#py "range") 9223372036854775806 9223372036854775809)`, "(9223372036854775806 9223372036854775807 9223372036854775808)"},
		{`((#py "abs") -9223372036854775808)`, "9223372036854775808"},
		{`((#py "abs") -99999999999999999999)`, "99999999999999999999"},
		{`((#py "int") "123456789012345678901234567890")`, "123456789012345678901234567890"},
		{`((#py "int") 1e20)`, "100000000000000000000"},
		{`((#py "int") -2.5)`, "-2"},
		{`((#py "float") "1e400")`, "inf"},
		{`((#py "sorted") (list 3 1 2))`, "(1 2 3)"},
		{`((#py "reversed") (list 1 2 3))`, "(3 2 1)"},
		{`(#py "len")`, "host.builtin:len"},
	}
	for _, tc := range cases {
		if got := evalOne(t, tc.src); got != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.src, tc.want, got)
		}
	}
}

func TestHostModules(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{`(#import "math")`, "host.module:math"},
		{`(#import (quote math))`, "host.module:math"},
		{`((#py "getattr") (#import "math") "sqrt")`, "host.builtin:sqrt"},
		{`(((#py "getattr") (#import "math") "sqrt") 16)`, "4.0"},
		{`(((#py "getattr") (#import "math") "floor") 2.7)`, "2"},
		{`(((#py "getattr") (#import "operator") "add") 2 3)`, "5"},
		{`(((#py "getattr") (#import "operator") "not_") (list))`, "#t"},
		{`((#py "getattr") (#import "string") "digits")`, "'0123456789'"},
	}
	for _, tc := range cases {
		if got := evalOne(t, tc.src); got != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.src, tc.want, got)
		}
	}
}

func TestHostErrors(t *testing.T) {
	cases := []struct {
		src    string
		target error
	}{
		{`(#import "os")`, ErrUndefinedSymbol},
		{`(#py "eval")`, ErrUndefinedSymbol},
		{`((#py "getattr") (#import "math") "nope")`, ErrUndefinedSymbol},
		{`((#py "getattr") 1 "x")`, ErrType},
		{`(#py 1)`, ErrType},
		{`((#py "range") 1 2 0)`, ErrType},
		{`((#py "range") 9000000000000000000)`, ErrTooLarge},
		{`((#py "range") 0 2000000 1)`, ErrTooLarge},
		{`((#py "range") 9223372036854775807 -9223372036854775808 -1)`, ErrTooLarge},
		{`((#py "int") ((#py "getattr") (#import "math") "inf"))`, ErrType},
		{`((#py "sorted") (list 1 "a"))`, ErrType},
		{`((#py "max") (list))`, ErrEmptyList},
		{`(((#py "getattr") (#import "operator") "add") 1)`, ErrArity},
	}
	for _, tc := range cases {
		if err := runErr(t, tc.src); !errors.Is(err, tc.target) {
			t.Errorf("%s: expected %v, got %v", tc.src, tc.target, err)
		}
	}
}

func TestCustomHostTable(t *testing.T) {
	h := NewHostTable()
	h.RegisterFunc("answer", func(ev *Evaluator, args []Value) (Value, error) {
		return Int(42), nil
	})
	h.RegisterModule("consts", map[string]Value{"one": Int(1)})

	ev := NewEvaluator(WithHost(h))
	got, err := ev.Run(`((#py "answer")) ((#py "getattr") (#import "consts") "one")`)
	if err == nil {
		t.Fatal("Expected getattr to be missing from a custom table")
	}
	if len(got) != 1 || got[0] != "42" {
		t.Errorf("Expected registered function to run, got %v", got)
	}
	if _, err := ev.Run(`(#import "consts")`); err != nil {
		t.Errorf("Expected registered module to import, got %v", err)
	}
	if _, err := ev.Run(`(#import "math")`); !errors.Is(err, ErrUndefinedSymbol) {
		t.Errorf("Expected default modules to be absent, got %v", err)
	}
}
