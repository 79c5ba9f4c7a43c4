package tree

// RewriteExpr rebuilds e bottom-up, replacing every sub-expression s with
// fn(s) after its operands have been rewritten. Function literal bodies
// are rewritten with RewriteExprs.
func RewriteExpr(e Expr, fn func(Expr) Expr) Expr {
	if e == nil {
		return nil
	}
	switch x := e.(type) {
	case *Call:
		args, changed := rewriteArgs(x.Args, fn)
		if changed {
			c := *x
			c.Args = args
			e = &c
		}
	case *Binary:
		l, r := RewriteExpr(x.X, fn), RewriteExpr(x.Y, fn)
		if l != x.X || r != x.Y {
			c := *x
			c.X, c.Y = l, r
			e = &c
		}
	case *Not:
		if y := RewriteExpr(x.X, fn); y != x.X {
			c := *x
			c.X = y
			e = &c
		}
	case *NotNull:
		if y := RewriteExpr(x.X, fn); y != x.X {
			c := *x
			c.X = y
			e = &c
		}
	case *FuncLit:
		if body := RewriteExprs(x.Body, fn); body != x.Body {
			c := *x
			c.Body = body
			e = &c
		}
	}
	return fn(e)
}

func rewriteArgs(args []Expr, fn func(Expr) Expr) ([]Expr, bool) {
	changed := false
	out := make([]Expr, len(args))
	for i, a := range args {
		out[i] = RewriteExpr(a, fn)
		if out[i] != a {
			changed = true
		}
	}
	return out, changed
}

// RewriteExprs applies RewriteExpr to every expression held by n or its
// descendants.
func RewriteExprs(n Node, fn func(Expr) Expr) Node {
	return Rewrite(n, func(m Node) Node {
		return mapOwnExprs(m, func(e Expr) Expr { return RewriteExpr(e, fn) })
	})
}

// mapOwnExprs replaces the expressions n holds directly.
func mapOwnExprs(n Node, fn func(Expr) Expr) Node {
	switch n := n.(type) {
	case *Assign:
		if v := fn(n.Value); v != n.Value {
			c := *n
			c.Value = v
			return &c
		}
	case *ExprStmt:
		if v := fn(n.X); v != n.X {
			c := *n
			c.X = v
			return &c
		}
	case *Return:
		if n.Value == nil {
			return n
		}
		if v := fn(n.Value); v != n.Value {
			c := *n
			c.Value = v
			return &c
		}
	case *If:
		if v := fn(n.Cond); v != n.Cond {
			c := *n
			c.Cond = v
			return &c
		}
	case *WhileLoop:
		if v := fn(n.Cond); v != n.Cond {
			c := *n
			c.Cond = v
			return &c
		}
	case *Dispatch:
		if v := fn(n.Subject); v != n.Subject {
			c := *n
			c.Subject = v
			return &c
		}
	case *CombinedDeclaration:
		if v := fn(n.Initial); v != n.Initial {
			init := *n.Init
			init.Value = v
			c := *n
			c.Init, c.Initial = &init, v
			return &c
		}
	}
	return n
}

// OwnExprs returns the expressions n holds directly.
func OwnExprs(n Node) []Expr {
	switch n := n.(type) {
	case *Assign:
		return []Expr{n.Value}
	case *ExprStmt:
		return []Expr{n.X}
	case *Return:
		if n.Value != nil {
			return []Expr{n.Value}
		}
	case *If:
		return []Expr{n.Cond}
	case *WhileLoop:
		return []Expr{n.Cond}
	case *Dispatch:
		return []Expr{n.Subject}
	case *CombinedDeclaration:
		return []Expr{n.Initial}
	}
	return nil
}

// WalkExpr calls fn for e and its sub-expressions in pre-order, descending
// into function literal bodies. Returning false skips operands.
func WalkExpr(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch e := e.(type) {
	case *Call:
		for _, a := range e.Args {
			WalkExpr(a, fn)
		}
	case *Binary:
		WalkExpr(e.X, fn)
		WalkExpr(e.Y, fn)
	case *Not:
		WalkExpr(e.X, fn)
	case *NotNull:
		WalkExpr(e.X, fn)
	case *FuncLit:
		WalkExprs(e.Body, fn)
	}
}

// WalkExprs calls WalkExpr for every expression in n and its descendants.
func WalkExprs(n Node, fn func(Expr) bool) {
	Walk(n, func(m Node) bool {
		for _, e := range OwnExprs(m) {
			WalkExpr(e, fn)
		}
		return true
	})
}

// EqualExpr reports structural equality, ignoring spans.
func EqualExpr(a, b Expr) bool {
	switch a := a.(type) {
	case *Ref:
		b, ok := b.(*Ref)
		return ok && a.Name == b.Name
	case *Literal:
		b, ok := b.(*Literal)
		return ok && a.Value == b.Value
	case *Call:
		b, ok := b.(*Call)
		if !ok || a.Callee != b.Callee || len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if !EqualExpr(a.Args[i], b.Args[i]) {
				return false
			}
		}
		return true
	case *Binary:
		b, ok := b.(*Binary)
		return ok && a.Op == b.Op && EqualExpr(a.X, b.X) && EqualExpr(a.Y, b.Y)
	case *Not:
		b, ok := b.(*Not)
		return ok && EqualExpr(a.X, b.X)
	case *NotNull:
		b, ok := b.(*NotNull)
		return ok && EqualExpr(a.X, b.X)
	}
	// Function literals and bad expressions are never equal.
	return false
}

// IsNegation reports whether one of a, b is exactly the negation of the
// other.
func IsNegation(a, b Expr) bool {
	if n, ok := a.(*Not); ok && EqualExpr(n.X, b) {
		return true
	}
	if n, ok := b.(*Not); ok && EqualExpr(n.X, a) {
		return true
	}
	return false
}

// IsPure reports whether evaluating e has no effects and cannot fail.
func IsPure(e Expr) bool {
	pure := true
	WalkExpr(e, func(s Expr) bool {
		switch s.(type) {
		case *Call, *NotNull, *BadExpr:
			pure = false
		}
		return pure
	})
	return pure
}
