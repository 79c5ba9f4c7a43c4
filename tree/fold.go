package tree

// Folder rewrites a tree bottom-up while folding a summary out of it.
//
// Each handler is optional. Fold dispatches to the handler for the node's
// variant; childless nodes go to Leaf; anything without a handler goes to
// Node and finally to Default, which rewrites the node by parts. A handler
// that wants structural recursion plus its own twist calls f.Default.
//
// Rewriting by parts keeps the original node when no child changed, so
// callers can use pointer identity to detect "no change". A nil result
// for a Block child deletes it.
type Folder[I, O any] struct {
	// Combine merges the summaries of a node's children. Nil means the
	// summary is always the zero O.
	Combine func(parts []O) O

	Block              func(f *Folder[I, O], n *Block, x I) (Node, O)
	If                 func(f *Folder[I, O], n *If, x I) (Node, O)
	Try                func(f *Folder[I, O], n *Try, x I) (Node, O)
	WhileLoop          func(f *Folder[I, O], n *WhileLoop, x I) (Node, O)
	Dispatch           func(f *Folder[I, O], n *Dispatch, x I) (Node, O)
	LabeledStmt        func(f *Folder[I, O], n *LabeledStmt, x I) (Node, O)
	ConvertedCoroutine func(f *Folder[I, O], n *ConvertedCoroutine, x I) (Node, O)
	Leaf               func(f *Folder[I, O], n Node, x I) (Node, O)
	Node               func(f *Folder[I, O], n Node, x I) (Node, O)
}

// Fold folds n with input x.
func (f *Folder[I, O]) Fold(n Node, x I) (Node, O) {
	if n == nil {
		var zero O
		return nil, zero
	}
	switch n := n.(type) {
	case *Block:
		if f.Block != nil {
			return f.Block(f, n, x)
		}
	case *If:
		if f.If != nil {
			return f.If(f, n, x)
		}
	case *Try:
		if f.Try != nil {
			return f.Try(f, n, x)
		}
	case *WhileLoop:
		if f.WhileLoop != nil {
			return f.WhileLoop(f, n, x)
		}
	case *Dispatch:
		if f.Dispatch != nil {
			return f.Dispatch(f, n, x)
		}
	case *LabeledStmt:
		if f.LabeledStmt != nil {
			return f.LabeledStmt(f, n, x)
		}
	case *ConvertedCoroutine:
		if f.ConvertedCoroutine != nil {
			return f.ConvertedCoroutine(f, n, x)
		}
	default:
		if f.Leaf != nil {
			return f.Leaf(f, n, x)
		}
	}
	if f.Node != nil {
		return f.Node(f, n, x)
	}
	return f.Default(n, x)
}

// FoldAll folds each node of ns, dropping nil results. changed reports
// whether the result differs from ns.
func (f *Folder[I, O]) FoldAll(ns []Node, x I) (out []Node, parts []O, changed bool) {
	out = make([]Node, 0, len(ns))
	parts = make([]O, 0, len(ns))
	for _, n := range ns {
		m, o := f.Fold(n, x)
		parts = append(parts, o)
		if m != n {
			changed = true
		}
		if m != nil {
			out = append(out, m)
		}
	}
	return out, parts, changed
}

func (f *Folder[I, O]) combine(parts ...O) O {
	if f.Combine == nil {
		var zero O
		return zero
	}
	return f.Combine(parts)
}

// Default rewrites n by parts.
func (f *Folder[I, O]) Default(n Node, x I) (Node, O) {
	switch n := n.(type) {
	case *Block:
		stmts, parts, changed := f.FoldAll(n.Stmts, x)
		out := f.combine(parts...)
		if !changed {
			return n, out
		}
		c := *n
		c.Stmts = stmts
		return &c, out
	case *If:
		then, o1 := f.Fold(n.Then, x)
		els, o2 := f.Fold(n.Else, x)
		out := f.combine(o1, o2)
		if then == n.Then && els == n.Else {
			return n, out
		}
		c := *n
		c.Then, c.Else = orEmpty(then, n.At), els
		return &c, out
	case *Try:
		tried, o1 := f.Fold(n.Tried, x)
		rec, o2 := f.Fold(n.Recover, x)
		out := f.combine(o1, o2)
		if tried == n.Tried && rec == n.Recover {
			return n, out
		}
		c := *n
		c.Tried, c.Recover = orEmpty(tried, n.At), orEmpty(rec, n.At)
		return &c, out
	case *WhileLoop:
		body, o := f.Fold(n.Body, x)
		out := f.combine(o)
		if body == n.Body {
			return n, out
		}
		c := *n
		c.Body = orEmpty(body, n.At)
		return &c, out
	case *Dispatch:
		changed := false
		cases := make([]Case, len(n.Cases))
		parts := make([]O, 0, len(n.Cases)+1)
		for i, cs := range n.Cases {
			body, o := f.Fold(cs.Body, x)
			parts = append(parts, o)
			if body != cs.Body {
				changed = true
			}
			cases[i] = Case{Values: cs.Values, Body: orEmpty(body, n.At)}
		}
		els, o := f.Fold(n.Else, x)
		parts = append(parts, o)
		out := f.combine(parts...)
		if !changed && els == n.Else {
			return n, out
		}
		c := *n
		c.Cases, c.Else = cases, els
		return &c, out
	case *LabeledStmt:
		body, o := f.Fold(n.Body, x)
		out := f.combine(o)
		if body == n.Body {
			return n, out
		}
		c := *n
		c.Body = orEmpty(body, n.At)
		return &c, out
	case *ConvertedCoroutine:
		persistent, parts, changed := f.FoldAll(n.Persistent, x)
		body, o := f.Fold(n.Body, x)
		out := f.combine(append(parts, o)...)
		if !changed && body == n.Body {
			return n, out
		}
		c := *n
		c.Persistent, c.Body = persistent, orEmpty(body, n.At)
		return &c, out
	}
	var zero O
	return n, zero
}

func orEmpty(n Node, at Span) Node {
	if n == nil {
		return &Block{At: at}
	}
	return n
}

// Sum combines integer summaries.
func Sum(parts []int) int {
	total := 0
	for _, p := range parts {
		total += p
	}
	return total
}

// AnyOf combines boolean summaries.
func AnyOf(parts []bool) bool {
	for _, p := range parts {
		if p {
			return true
		}
	}
	return false
}

// Rewrite rebuilds n bottom-up, replacing every node m with post(m) after
// its children have been rewritten. post may return nil to delete a block
// child.
func Rewrite(n Node, post func(Node) Node) Node {
	f := &Folder[struct{}, struct{}]{
		Node: func(f *Folder[struct{}, struct{}], n Node, x struct{}) (Node, struct{}) {
			m, _ := f.Default(n, x)
			return post(m), struct{}{}
		},
	}
	out, _ := f.Fold(n, struct{}{})
	return out
}

// Walk calls fn for n and its statement-level descendants in pre-order.
// Returning false skips a node's children.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children() {
		Walk(c, fn)
	}
}
