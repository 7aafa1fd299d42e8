package lisp

import "sort"

// Env is one frame of a lexical scope chain. Frames are shared by pointer:
// a closure keeps its defining frame alive after the call that built it
// returns.
type Env struct {
	vars   map[string]Value
	parent *Env
}

func NewEnv(parent *Env) *Env {
	return &Env{
		vars:   make(map[string]Value),
		parent: parent,
	}
}

// Get walks from this frame outward and returns the first binding found.
func (e *Env) Get(name string) (Value, bool) {
	for frame := e; frame != nil; frame = frame.parent {
		if v, ok := frame.vars[name]; ok {
			return v, true
		}
	}
	return Void(), false
}

// Define binds name in this frame only; parent frames are never written.
func (e *Env) Define(name string, val Value) {
	e.vars[name] = val
}

func (e *Env) Parent() *Env { return e.parent }

// Names lists the bindings of this frame, sorted.
func (e *Env) Names() []string {
	names := make([]string, 0, len(e.vars))
	for name := range e.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
