// Package lisp implements a small Lisp: a lazy regexp lexer, a stack based
// S-expression parser, and a tree-walking evaluator with lexical closures.
//
// The pipeline is Parse → (*Evaluator).Eval → Render. Errors are returned,
// never recovered internally; callers decide whether to keep going after a
// failed form.
package lisp
