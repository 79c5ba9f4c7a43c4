package translate

import (
	"github.com/wippyai/flowtree/internal/options"
	"github.com/wippyai/flowtree/tree"
)

// Leaf translates one statement payload.
func (t *Translator) Leaf(p tree.Node) tree.Node {
	if t.opts.Failure == options.ExceptionBased {
		p = unpackHandlerScope(p)
	}
	if t.propagatesFailure(p) {
		return &tree.Goal{At: p.Span(), Kind: tree.GoalPropagateFailure}
	}
	return t.opts.Finish(p)
}

func (t *Translator) propagatesFailure(p tree.Node) bool {
	switch p := p.(type) {
	case *tree.ExprStmt:
		return t.opts.IsFailCall(p.X)
	case *tree.Assign:
		// Erased void: storing a failing call into a void slot is just
		// the call.
		return t.opts.Void == options.Erased && t.voidVars[p.Name] && t.opts.IsFailCall(p.Value)
	}
	return false
}

// unpackHandlerScope strips hs(flag, e) down to e. With real unwinding
// nothing needs to trap the failure into the flag.
func unpackHandlerScope(p tree.Node) tree.Node {
	switch s := p.(type) {
	case *tree.ExprStmt:
		if inner, ok := handlerScopeBody(s.X); ok {
			return &tree.ExprStmt{At: s.At, X: inner}
		}
	case *tree.Assign:
		if inner, ok := handlerScopeBody(s.Value); ok {
			return &tree.Assign{At: s.At, Name: s.Name, Value: inner}
		}
	}
	return p
}

func handlerScopeBody(e tree.Expr) (tree.Expr, bool) {
	c, ok := tree.AsCall(e, tree.BuiltinHandlerScope)
	if !ok || len(c.Args) != 2 {
		return nil, false
	}
	return c.Args[1], true
}

// HandlerScopeFlag returns the failure flag of an hs(flag, e) call.
func HandlerScopeFlag(e tree.Expr) (tree.Name, tree.Expr, bool) {
	c, ok := tree.AsCall(e, tree.BuiltinHandlerScope)
	if !ok || len(c.Args) != 2 {
		return "", nil, false
	}
	flag, ok := c.Args[0].(*tree.Ref)
	if !ok {
		return "", nil, false
	}
	return flag.Name, c.Args[1], true
}
