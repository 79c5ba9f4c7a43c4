package coroutine

import (
	"github.com/wippyai/flowtree/internal/simplify"
	"github.com/wippyai/flowtree/tree"
)

// Package emits the statements that stand for cc in the enclosing body:
// the persistent locals, the helper function taking the generator, and a
// return of the adapted generator.
func Package(cc *tree.ConvertedCoroutine) *tree.Block {
	at := cc.At
	stmts := make([]tree.Node, 0, len(cc.Persistent)+2)
	for _, p := range cc.Persistent {
		stmts = append(stmts, NullAdjust(p, cc.NullAdjust))
	}
	helper := &tree.FuncLit{At: at, Params: []tree.Name{cc.Generator}, Body: NullAdjust(cc.Body, cc.NullAdjust)}
	stmts = append(stmts, simplify.CombineDeclarations([]tree.Node{
		&tree.Decl{At: at, Name: cc.Helper},
		&tree.Assign{At: at, Name: cc.Helper, Value: helper},
	})...)
	stmts = append(stmts,
		&tree.Return{At: at, Value: &tree.Call{
			At:     at,
			Callee: tree.BuiltinAdaptGenerator,
			Args:   []tree.Expr{&tree.Ref{At: at, Name: cc.Helper}},
		}},
	)
	return &tree.Block{At: at, Stmts: stmts}
}

// NullAdjust asserts non-null on every read of a name whose sentinel
// widened its type.
func NullAdjust(n tree.Node, adjust map[tree.Name]tree.Type) tree.Node {
	if len(adjust) == 0 || n == nil {
		return n
	}
	return tree.RewriteExprs(n, func(e tree.Expr) tree.Expr {
		switch e := e.(type) {
		case *tree.Ref:
			if t, ok := adjust[e.Name]; ok {
				r := *e
				r.Type = t.OrNull()
				return &tree.NotNull{At: e.At, X: &r}
			}
		case *tree.NotNull:
			// x!! where x was already adjusted
			if inner, ok := e.X.(*tree.NotNull); ok {
				if r, ok := inner.X.(*tree.Ref); ok {
					if _, ok := adjust[r.Name]; ok {
						return inner
					}
				}
			}
		}
		return e
	})
}

// DropTerminalDoneReturns removes `return doneResult()` statements that
// are the last thing the body does. Native generators finish by falling
// off the end. Loop bodies are never terminal.
func DropTerminalDoneReturns(root tree.Node) tree.Node {
	out := dropTerminal(root)
	if out == nil {
		return &tree.Block{At: root.Span()}
	}
	return out
}

func isDoneReturn(n tree.Node) bool {
	r, ok := n.(*tree.Return)
	if !ok {
		return false
	}
	_, ok = tree.AsCall(r.Value, tree.BuiltinDoneResult)
	return ok
}

// dropTerminal returns nil when n reduces to nothing.
func dropTerminal(n tree.Node) tree.Node {
	if isDoneReturn(n) {
		return nil
	}
	switch n := n.(type) {
	case *tree.Block:
		if len(n.Stmts) == 0 {
			return n
		}
		last := n.Stmts[len(n.Stmts)-1]
		d := dropTerminal(last)
		if d == last {
			return n
		}
		c := *n
		c.Stmts = append([]tree.Node(nil), n.Stmts[:len(n.Stmts)-1]...)
		if d != nil {
			c.Stmts = append(c.Stmts, d)
		}
		return &c
	case *tree.If:
		then, els := branch(n.Then), branch(n.Else)
		if then == n.Then && els == n.Else {
			return n
		}
		c := *n
		c.Then, c.Else = then, els
		return &c
	case *tree.Try:
		tried, rec := branch(n.Tried), branch(n.Recover)
		if tried == n.Tried && rec == n.Recover {
			return n
		}
		c := *n
		c.Tried, c.Recover = tried, rec
		return &c
	case *tree.LabeledStmt:
		body := branch(n.Body)
		if body == n.Body {
			return n
		}
		c := *n
		c.Body = body
		return &c
	}
	return n
}

func branch(n tree.Node) tree.Node {
	if n == nil {
		return nil
	}
	d := dropTerminal(n)
	if d == nil {
		return &tree.Block{At: n.Span()}
	}
	return d
}
