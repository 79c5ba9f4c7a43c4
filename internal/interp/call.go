package interp

import (
	"fmt"

	"github.com/wippyai/flowtree/tree"
)

func (in *Interp) args(es []tree.Expr, s *scope) ([]Value, error) {
	out := make([]Value, len(es))
	for i, a := range es {
		v, err := in.eval(a, s)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (in *Interp) call(c *tree.Call, s *scope) (Value, error) {
	switch c.Callee {
	case tree.BuiltinHandlerScope:
		return in.handlerScope(c, s)
	case tree.BuiltinPromiseResultSync:
		return in.promiseResult(c, s)
	case tree.BuiltinYield, tree.BuiltinAwait:
		return nil, stuck(c.At, "%s outside a state machine", c.Callee)
	}

	args, err := in.args(c.Args, s)
	if err != nil {
		return nil, err
	}
	switch c.Callee {
	case tree.BuiltinValueResult:
		if len(args) != 1 {
			return nil, stuck(c.At, "ValueResult takes one argument")
		}
		return Result{Value: args[0]}, nil
	case tree.BuiltinDoneResult:
		return Result{Done: true}, nil
	case tree.BuiltinAdaptGenerator:
		f, ok := first(args).(*Closure)
		if !ok {
			return nil, stuck(c.At, "adaptGeneratorFunction needs a function")
		}
		return &Generator{helper: f}, nil
	case tree.BuiltinAwakeUpon:
		if len(args) != 2 {
			return nil, stuck(c.At, "awakeUpon takes a promise and a generator")
		}
		p, ok := args[0].(*Promise)
		g, gok := args[1].(*Generator)
		if !ok || !gok {
			return nil, stuck(c.At, "awakeUpon(%T, %T)", args[0], args[1])
		}
		g.Awaiting = p
		return tree.Void, nil
	}

	if v, ok := s.lookup(tree.Name(c.Callee)); ok {
		if f, ok := v.(*Closure); ok {
			return f.Call(args...)
		}
	}
	f, ok := in.Funcs[c.Callee]
	if !ok {
		return nil, stuck(c.At, "unknown function %s", c.Callee)
	}
	v, err := f(args)
	if err != nil {
		if _, ok := err.(*Failure); ok {
			return nil, err
		}
		return nil, &Failure{At: c.At, Cause: err}
	}
	return v, nil
}

func first(vs []Value) Value {
	if len(vs) == 0 {
		return nil
	}
	return vs[0]
}

// handlerScope evaluates hs(flag, e): a failure in e sets flag instead of
// propagating.
func (in *Interp) handlerScope(c *tree.Call, s *scope) (Value, error) {
	if len(c.Args) != 2 {
		return nil, stuck(c.At, "hs takes a flag and an expression")
	}
	flag, ok := c.Args[0].(*tree.Ref)
	if !ok {
		return nil, stuck(c.At, "hs flag must be a name")
	}
	v, err := in.eval(c.Args[1], s)
	if _, failed := err.(*Failure); failed {
		s.set(flag.Name, true)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.set(flag.Name, false)
	return v, nil
}

// promiseResult unpacks a settled promise. A rejection sets the flag when
// one is given and fails otherwise.
func (in *Interp) promiseResult(c *tree.Call, s *scope) (Value, error) {
	if len(c.Args) != 2 {
		return nil, stuck(c.At, "getPromiseResultSync takes a flag and a promise")
	}
	v, err := in.eval(c.Args[1], s)
	if err != nil {
		return nil, err
	}
	p, ok := v.(*Promise)
	if !ok {
		return nil, stuck(c.At, "awaited %T, not a promise", v)
	}
	if p.Err == nil {
		return p.Value, nil
	}
	if flag, ok := c.Args[0].(*tree.Ref); ok {
		s.set(flag.Name, true)
		return nil, nil
	}
	return nil, &Failure{At: c.At, Cause: p.Err}
}

func (in *Interp) binary(e *tree.Binary, s *scope) (Value, error) {
	switch e.Op {
	case "&&", "||":
		l, err := in.cond(e.X, s)
		if err != nil || l == (e.Op == "||") {
			return l, err
		}
		return in.cond(e.Y, s)
	}
	l, err := in.eval(e.X, s)
	if err != nil {
		return nil, err
	}
	r, err := in.eval(e.Y, s)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case "==":
		return l == r, nil
	case "!=":
		return l != r, nil
	}
	switch l := l.(type) {
	case int:
		r, ok := r.(int)
		if !ok {
			break
		}
		return intOp(e, l, r)
	case float64:
		r, ok := r.(float64)
		if !ok {
			break
		}
		return floatOp(e, l, r)
	case string:
		if r, ok := r.(string); ok && e.Op == "+" {
			return l + r, nil
		}
	}
	return nil, stuck(e.At, "%T %s %T", l, e.Op, r)
}

func intOp(e *tree.Binary, l, r int) (Value, error) {
	switch e.Op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		if r == 0 {
			return nil, &Failure{At: e.At, Cause: fmt.Errorf("division by zero")}
		}
		return l / r, nil
	case "%":
		if r == 0 {
			return nil, &Failure{At: e.At, Cause: fmt.Errorf("division by zero")}
		}
		return l % r, nil
	case "<":
		return l < r, nil
	case "<=":
		return l <= r, nil
	case ">":
		return l > r, nil
	case ">=":
		return l >= r, nil
	}
	return nil, stuck(e.At, "unknown operator %s", e.Op)
}

func floatOp(e *tree.Binary, l, r float64) (Value, error) {
	switch e.Op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		return l / r, nil
	case "<":
		return l < r, nil
	case "<=":
		return l <= r, nil
	case ">":
		return l > r, nil
	case ">=":
		return l >= r, nil
	}
	return nil, stuck(e.At, "unknown operator %s", e.Op)
}
