// Package interp evaluates Intermediate Trees. It exists to check that
// rewritten trees behave like their inputs: a translated body, a lowered
// state machine and a packaged generator can all be run against the same
// host functions and compared.
package interp

import (
	"fmt"

	"github.com/wippyai/flowtree/errors"
	"github.com/wippyai/flowtree/tree"
)

// Value is a runtime value: nil, tree.VoidValue, bool, int, float64,
// string, *Closure, *Generator, *Promise, Result, or anything a host
// function returns.
type Value = any

// Func is a host function.
type Func func(args []Value) (Value, error)

// Failure is a propagated failure. Try and handler scopes catch it; any
// other error aborts evaluation.
type Failure struct {
	At    tree.Span
	Cause error
}

func (f *Failure) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("failure at %s: %v", f.At, f.Cause)
	}
	return fmt.Sprintf("failure at %s", f.At)
}

func (f *Failure) Unwrap() error { return f.Cause }

// Result is what one generator turn reports.
type Result struct {
	Value Value
	Done  bool
}

// Promise is a settled promise. Err marks a rejection.
type Promise struct {
	Value Value
	Err   error
}

// Closure is a function literal bound to its defining scope.
type Closure struct {
	lit   *tree.FuncLit
	scope *scope
	in    *Interp
}

// Call invokes the closure.
func (c *Closure) Call(args ...Value) (Value, error) {
	s := newScope(c.scope)
	for i, p := range c.lit.Params {
		var v Value
		if i < len(args) {
			v = args[i]
		}
		s.define(p, v)
	}
	sig, err := c.in.exec(c.lit.Body, s)
	if err != nil {
		return nil, err
	}
	if sig.kind == flowReturn {
		return sig.value, nil
	}
	return tree.Void, nil
}

// Generator drives a state machine helper one turn at a time.
type Generator struct {
	helper *Closure
	// Awaiting is the promise the last turn waits on, if any.
	Awaiting *Promise
}

// Next runs one turn.
func (g *Generator) Next() (Result, error) {
	g.Awaiting = nil
	v, err := g.helper.Call(g)
	if err != nil {
		return Result{}, err
	}
	r, ok := v.(Result)
	if !ok {
		return Result{}, fmt.Errorf("generator turn returned %T, not a result", v)
	}
	return r, nil
}

// Interp evaluates trees against a set of host functions.
type Interp struct {
	Funcs   map[string]Func
	Globals map[tree.Name]Value
}

// New returns an interpreter with no host functions.
func New() *Interp {
	return &Interp{Funcs: make(map[string]Func), Globals: make(map[tree.Name]Value)}
}

// Run executes body as a function body and returns its result, or Void
// when it falls off the end.
func (in *Interp) Run(body tree.Node) (Value, error) {
	global := newScope(nil)
	for k, v := range in.Globals {
		global.define(k, v)
	}
	sig, err := in.exec(body, newScope(global))
	if err != nil {
		return nil, err
	}
	switch sig.kind {
	case flowReturn:
		return sig.value, nil
	case flowBreak, flowContinue:
		return nil, fmt.Errorf("%s %s escaped the body", sig.kind, sig.label)
	}
	return tree.Void, nil
}

type scope struct {
	vars   map[tree.Name]Value
	parent *scope
}

func newScope(parent *scope) *scope {
	return &scope{vars: make(map[tree.Name]Value), parent: parent}
}

func (s *scope) define(name tree.Name, v Value) { s.vars[name] = v }

func (s *scope) lookup(name tree.Name) (Value, bool) {
	for ; s != nil; s = s.parent {
		if v, ok := s.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (s *scope) set(name tree.Name, v Value) bool {
	for ; s != nil; s = s.parent {
		if _, ok := s.vars[name]; ok {
			s.vars[name] = v
			return true
		}
	}
	return false
}

func stuck(at tree.Span, detail string, args ...any) error {
	return errors.New(errors.PhaseTranslate, errors.KindInvalidInput).At(at).Detail(detail, args...).Build()
}
