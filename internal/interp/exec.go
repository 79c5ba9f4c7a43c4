package interp

import (
	"fmt"

	"github.com/wippyai/flowtree/tree"
)

type flow uint8

const (
	flowNext flow = iota
	flowBreak
	flowContinue
	flowReturn
)

func (f flow) String() string {
	switch f {
	case flowBreak:
		return "break"
	case flowContinue:
		return "continue"
	case flowReturn:
		return "return"
	}
	return "next"
}

type signal struct {
	kind  flow
	label tree.Name
	value Value
}

var next = signal{}

func (in *Interp) exec(n tree.Node, s *scope) (signal, error) {
	switch n := n.(type) {
	case nil:
		return next, nil
	case *tree.Block:
		inner := newScope(s)
		for _, st := range n.Stmts {
			sig, err := in.exec(st, inner)
			if err != nil || sig.kind != flowNext {
				return sig, err
			}
		}
		return next, nil
	case *tree.Decl:
		s.define(n.Name, nil)
		return next, nil
	case *tree.CombinedDeclaration:
		s.define(n.Decl.Name, nil)
		v, err := in.eval(n.Initial, s)
		if err != nil {
			return next, err
		}
		s.define(n.Decl.Name, v)
		return next, nil
	case *tree.Assign:
		v, err := in.eval(n.Value, s)
		if err != nil {
			return next, err
		}
		if !s.set(n.Name, v) {
			return next, stuck(n.At, "assignment to undeclared %s", n.Name)
		}
		return next, nil
	case *tree.ExprStmt:
		_, err := in.eval(n.X, s)
		return next, err
	case *tree.If:
		c, err := in.cond(n.Cond, s)
		if err != nil {
			return next, err
		}
		if c {
			return in.exec(n.Then, s)
		}
		return in.exec(n.Else, s)
	case *tree.Try:
		sig, err := in.exec(n.Tried, s)
		if _, ok := err.(*Failure); ok {
			return in.exec(n.Recover, s)
		}
		return sig, err
	case *tree.WhileLoop:
		return in.loop(n, "", s)
	case *tree.LabeledStmt:
		var sig signal
		var err error
		if l, ok := n.Body.(*tree.WhileLoop); ok {
			sig, err = in.loop(l, n.Label, s)
		} else {
			sig, err = in.exec(n.Body, s)
		}
		if err == nil && sig.kind == flowBreak && sig.label == n.Label {
			return next, nil
		}
		return sig, err
	case *tree.Dispatch:
		v, err := in.eval(n.Subject, s)
		if err != nil {
			return next, err
		}
		k, ok := v.(int)
		if !ok {
			return next, stuck(n.At, "dispatch on %T", v)
		}
		for _, c := range n.Cases {
			for _, cv := range c.Values {
				if cv == k {
					return in.exec(c.Body, s)
				}
			}
		}
		return in.exec(n.Else, s)
	case *tree.Break:
		return signal{kind: flowBreak, label: n.Label}, nil
	case *tree.Continue:
		return signal{kind: flowContinue, label: n.Label}, nil
	case *tree.Return:
		if n.Value == nil {
			return signal{kind: flowReturn, value: tree.Void}, nil
		}
		v, err := in.eval(n.Value, s)
		if err != nil {
			return next, err
		}
		return signal{kind: flowReturn, value: v}, nil
	case *tree.Goal:
		switch n.Kind {
		case tree.GoalPropagateFailure:
			return next, &Failure{At: n.At}
		case tree.GoalExitFunction:
			return signal{kind: flowReturn, value: tree.Void}, nil
		}
		kind := flowBreak
		if n.Jump == tree.JumpContinue {
			kind = flowContinue
		}
		return signal{kind: kind, label: n.Target}, nil
	case *tree.ConvertedCoroutine:
		return in.coroutine(n, s)
	case *tree.Garbage:
		return next, stuck(n.At, "untranslatable: %s", n.Diagnostic)
	}
	return next, stuck(n.Span(), "cannot execute %T", n)
}

func (in *Interp) loop(n *tree.WhileLoop, label tree.Name, s *scope) (signal, error) {
	for {
		c, err := in.cond(n.Cond, s)
		if err != nil || !c {
			return next, err
		}
		sig, err := in.exec(n.Body, s)
		if err != nil {
			return next, err
		}
		switch sig.kind {
		case flowBreak:
			if sig.label == "" {
				return next, nil
			}
			return sig, nil
		case flowContinue:
			if sig.label != "" && sig.label != label {
				return sig, nil
			}
		case flowReturn:
			return sig, nil
		}
	}
}

// coroutine runs the packaged form of n: persistent locals, the helper,
// and the adapted generator as the result.
func (in *Interp) coroutine(n *tree.ConvertedCoroutine, s *scope) (signal, error) {
	inner := newScope(s)
	for _, p := range n.Persistent {
		if _, err := in.exec(p, inner); err != nil {
			return next, err
		}
	}
	helper := &Closure{lit: &tree.FuncLit{At: n.At, Params: []tree.Name{n.Generator}, Body: n.Body}, scope: inner, in: in}
	return signal{kind: flowReturn, value: &Generator{helper: helper}}, nil
}

func (in *Interp) cond(e tree.Expr, s *scope) (bool, error) {
	v, err := in.eval(e, s)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, stuck(e.Span(), "condition is %T, not a boolean", v)
	}
	return b, nil
}

func (in *Interp) eval(e tree.Expr, s *scope) (Value, error) {
	switch e := e.(type) {
	case *tree.Ref:
		v, ok := s.lookup(e.Name)
		if !ok {
			return nil, stuck(e.At, "undeclared %s", e.Name)
		}
		return v, nil
	case *tree.Literal:
		return e.Value, nil
	case *tree.FuncLit:
		return &Closure{lit: e, scope: s, in: in}, nil
	case *tree.Not:
		b, err := in.cond(e.X, s)
		return !b, err
	case *tree.NotNull:
		v, err := in.eval(e.X, s)
		if err == nil && v == nil {
			return nil, &Failure{At: e.At, Cause: fmt.Errorf("null asserted non-null")}
		}
		return v, err
	case *tree.Binary:
		return in.binary(e, s)
	case *tree.Call:
		return in.call(e, s)
	case *tree.BadExpr:
		return nil, stuck(e.At, "untranslatable: %s", e.Diagnostic)
	}
	return nil, stuck(e.Span(), "cannot evaluate %T", e)
}
