package lisp

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// DefaultMaxDepth bounds nested Eval calls. Recursion deeper than this
// fails with a StackOverflowError instead of crashing the process.
const DefaultMaxDepth = 10000

// cancelCheckEvery is how many Eval calls pass between context checks.
const cancelCheckEvery = 256

var specialForms = map[string]bool{
	"if":     true,
	"define": true,
	"quote":  true,
	"lambda": true,
}

// Evaluator interprets expressions against a global environment that is
// populated once from the builtin table. It is not safe for concurrent use.
type Evaluator struct {
	Global   *Env
	Out      io.Writer
	MaxDepth int

	host   *HostTable
	logger *slog.Logger
	ctx    context.Context
	depth  int
	steps  int
}

type Option func(*Evaluator)

// WithOutput redirects the print builtin.
func WithOutput(w io.Writer) Option {
	return func(ev *Evaluator) { ev.Out = w }
}

func WithMaxDepth(n int) Option {
	return func(ev *Evaluator) { ev.MaxDepth = n }
}

// WithHost replaces the table behind #import and #py.
func WithHost(h *HostTable) Option {
	return func(ev *Evaluator) { ev.host = h }
}

// WithContext bounds every evaluation by ctx: once it is done, Eval
// fails with a *TimeoutError.
func WithContext(ctx context.Context) Option {
	return func(ev *Evaluator) { ev.ctx = ctx }
}

func WithLogger(l *slog.Logger) Option {
	return func(ev *Evaluator) { ev.logger = l }
}

func NewEvaluator(opts ...Option) *Evaluator {
	ev := &Evaluator{
		Global:   NewEnv(nil),
		Out:      os.Stdout,
		MaxDepth: DefaultMaxDepth,
		host:     DefaultHost(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		ctx:      context.Background(),
	}
	for _, opt := range opts {
		opt(ev)
	}
	ev.setupBuiltins()
	return ev
}

// Eval evaluates expr in env; a nil env means the global environment.
func (ev *Evaluator) Eval(expr Value, env *Env) (Value, error) {
	if env == nil {
		env = ev.Global
	}
	if ev.MaxDepth > 0 && ev.depth >= ev.MaxDepth {
		return Void(), &StackOverflowError{Depth: ev.MaxDepth}
	}
	if ev.steps++; ev.steps%cancelCheckEvery == 0 {
		if err := ev.ctx.Err(); err != nil {
			return Void(), &TimeoutError{Cause: err}
		}
	}
	ev.depth++
	defer func() { ev.depth-- }()

	switch expr.Type {
	case TypeSymbol:
		return ev.lookup(expr.Symbol, env)
	case TypeList:
		if len(expr.List) == 0 {
			return expr, nil
		}
		if v, ok, err := ev.evalSpecial(expr.List, env); ok {
			return v, err
		}
		return ev.evalCall(expr.List, env)
	default:
		return expr, nil
	}
}

// EvalContext is Eval bounded by ctx for this call only.
func (ev *Evaluator) EvalContext(ctx context.Context, expr Value, env *Env) (Value, error) {
	if err := ctx.Err(); err != nil {
		return Void(), &TimeoutError{Cause: err}
	}
	prev := ev.ctx
	ev.ctx = ctx
	defer func() { ev.ctx = prev }()
	return ev.Eval(expr, env)
}

func (ev *Evaluator) lookup(name string, env *Env) (Value, error) {
	v, ok := env.Get(name)
	if ok {
		return v, nil
	}
	if specialForms[name] {
		return Void(), &BadSyntaxError{Name: name}
	}
	return Void(), &UndefinedSymbolError{Name: name}
}

// evalSpecial handles well-formed special forms. ok is false when form is
// not one, including malformed uses of the keywords, which then go through
// ordinary application and fail on the keyword lookup.
func (ev *Evaluator) evalSpecial(form []Value, env *Env) (Value, bool, error) {
	head := form[0]
	if !head.IsSymbol() {
		return Void(), false, nil
	}

	switch head.Symbol {
	case "if":
		if len(form) != 4 {
			return Void(), false, nil
		}
		cond, err := ev.Eval(form[1], env)
		if err != nil {
			return Void(), true, err
		}
		branch := form[3]
		if cond.IsTruthy() {
			branch = form[2]
		}
		v, err := ev.Eval(branch, env)
		return v, true, err

	case "define":
		if len(form) != 3 || !form[1].IsSymbol() {
			return Void(), false, nil
		}
		val, err := ev.Eval(form[2], env)
		if err != nil {
			return Void(), true, err
		}
		name := form[1].Symbol
		env.Define(name, val)
		ev.logger.Debug("define", "name", name, "type", val.Type.String())
		return Void(), true, nil

	case "quote":
		if len(form) != 2 {
			return Void(), false, nil
		}
		return form[1], true, nil

	case "lambda":
		if len(form) != 3 || !form[1].IsList() {
			return Void(), false, nil
		}
		params := make([]string, len(form[1].List))
		for i, p := range form[1].List {
			if !p.IsSymbol() {
				return Void(), false, nil
			}
			params[i] = p.Symbol
		}
		return Func(&Closure{Params: params, Body: form[2], Env: env}), true, nil
	}
	return Void(), false, nil
}

func (ev *Evaluator) evalCall(form []Value, env *Env) (Value, error) {
	fn, err := ev.Eval(form[0], env)
	if err != nil {
		return Void(), err
	}
	args := make([]Value, len(form)-1)
	for i, arg := range form[1:] {
		if args[i], err = ev.Eval(arg, env); err != nil {
			return Void(), err
		}
	}
	return ev.Apply(fn, args)
}

// Apply calls fn with already evaluated arguments.
func (ev *Evaluator) Apply(fn Value, args []Value) (Value, error) {
	switch fn.Type {
	case TypeBuiltin:
		return fn.Builtin.Fn(ev, args)
	case TypeFunc:
		ev.logger.Debug("call", "params", fn.Func.Params, "args", len(args))
		return fn.Func.Call(ev, args)
	default:
		return Void(), typeErrorf("apply", "%s is not callable", Render(fn))
	}
}

// EvalString parses src and evaluates each form in the global environment,
// returning the value of the last one.
func (ev *Evaluator) EvalString(src string) (Value, error) {
	exprs, err := Parse(src)
	if err != nil {
		return Void(), err
	}
	result := Void()
	for _, expr := range exprs {
		if result, err = ev.Eval(expr, nil); err != nil {
			return Void(), err
		}
	}
	return result, nil
}

// Run parses src and evaluates each form in the global environment,
// collecting the rendering of every non-void result. On error it returns
// the results gathered before the failing form.
func (ev *Evaluator) Run(src string) ([]string, error) {
	exprs, err := Parse(src)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, expr := range exprs {
		v, err := ev.Eval(expr, nil)
		if err != nil {
			return out, err
		}
		if !v.IsVoid() {
			out = append(out, Render(v))
		}
	}
	return out, nil
}
