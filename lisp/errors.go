package lisp

import (
	"errors"
	"fmt"
)

var (
	ErrSyntax          = errors.New("invalid syntax")
	ErrUnmatchedParen  = errors.New("unmatched parenthesis")
	ErrBadSyntax       = errors.New("bad syntax")
	ErrUndefinedSymbol = errors.New("undefined symbol")
	ErrArity           = errors.New("wrong number of arguments")
	ErrType            = errors.New("type error")
	ErrStackOverflow   = errors.New("maximum recursion depth exceeded")
	ErrDivisionByZero  = errors.New("division by zero")
	ErrEmptyList       = errors.New("empty list")
	ErrTooLarge        = errors.New("result too large")
	ErrTimeout         = errors.New("evaluation interrupted")
	ErrFormCount       = errors.New("wrong number of forms")
)

// SyntaxError reports input the lexer cannot split into tokens.
type SyntaxError struct {
	Pos  int
	Near string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("Invalid syntax at offset %d near %q", e.Pos, e.Near)
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }

// UnmatchedParenError reports an extra ')' or a '(' that is never closed.
type UnmatchedParenError struct {
	Pos     int
	Unclose bool
}

func (e *UnmatchedParenError) Error() string {
	if e.Unclose {
		return fmt.Sprintf("Unmatched parenthesis: '(' at offset %d is never closed", e.Pos)
	}
	return fmt.Sprintf("Unmatched parenthesis: unexpected ')' at offset %d", e.Pos)
}

func (e *UnmatchedParenError) Unwrap() error { return ErrUnmatchedParen }

// BadSyntaxError reports a special form keyword used as a value.
type BadSyntaxError struct {
	Name string
}

func (e *BadSyntaxError) Error() string { return "Bad syntax in " + e.Name }

func (e *BadSyntaxError) Unwrap() error { return ErrBadSyntax }

type UndefinedSymbolError struct {
	Name string
}

func (e *UndefinedSymbolError) Error() string { return "Undefined symbol " + e.Name }

func (e *UndefinedSymbolError) Unwrap() error { return ErrUndefinedSymbol }

// ArityError reports a call whose argument count does not fit the callee.
// Want is the minimum when Variadic is set.
type ArityError struct {
	Name     string
	Want     int
	Got      int
	Variadic bool
}

func (e *ArityError) Error() string {
	if e.Variadic {
		return fmt.Sprintf("%s expects at least %d argument(s), got %d", e.Name, e.Want, e.Got)
	}
	return fmt.Sprintf("%s expects %d argument(s), got %d", e.Name, e.Want, e.Got)
}

func (e *ArityError) Unwrap() error { return ErrArity }

type TypeError struct {
	Op  string
	Msg string
}

func (e *TypeError) Error() string { return e.Op + ": " + e.Msg }

func (e *TypeError) Unwrap() error { return ErrType }

type StackOverflowError struct {
	Depth int
}

func (e *StackOverflowError) Error() string {
	return fmt.Sprintf("Stack overflow: maximum recursion depth %d exceeded", e.Depth)
}

func (e *StackOverflowError) Unwrap() error { return ErrStackOverflow }

// TimeoutError reports an evaluation stopped because its context ended.
// It matches both ErrTimeout and the context's own error.
type TimeoutError struct {
	Cause error
}

func (e *TimeoutError) Error() string {
	return "Evaluation timed out: " + e.Cause.Error()
}

func (e *TimeoutError) Unwrap() []error { return []error{ErrTimeout, e.Cause} }

// FormCountError reports source that should hold exactly one form.
type FormCountError struct {
	Got int
}

func (e *FormCountError) Error() string {
	return fmt.Sprintf("Expected exactly one expression, got %d", e.Got)
}

func (e *FormCountError) Unwrap() error { return ErrFormCount }

// EvalError is a builtin failure that has no dedicated type.
type EvalError struct {
	Op  string
	Err error
}

func (e *EvalError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *EvalError) Unwrap() error { return e.Err }

// IsParseError reports whether err came from lexing or parsing.
func IsParseError(err error) bool {
	return errors.Is(err, ErrSyntax) || errors.Is(err, ErrUnmatchedParen) || errors.Is(err, ErrFormCount)
}

// IsEvalError reports whether err came from evaluation.
func IsEvalError(err error) bool {
	for _, target := range []error{
		ErrBadSyntax, ErrUndefinedSymbol, ErrArity, ErrType,
		ErrStackOverflow, ErrDivisionByZero, ErrEmptyList, ErrTooLarge, ErrTimeout,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func typeErrorf(op, format string, args ...any) error {
	return &TypeError{Op: op, Msg: fmt.Sprintf(format, args...)}
}
