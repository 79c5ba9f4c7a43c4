package simplify

import (
	"github.com/wippyai/flowtree/tree"
)

type usedAfter func(tree.Name) bool

type migrator struct {
	output tree.Name
}

// MigrateDeclarations moves a declaration out of a labeled block made by
// or-else translation into the enclosing block when the name is read
// after the labeled block ends. The output slot counts as read after the
// root and is released by every nested block. A combined declaration
// leaves its assignment in place.
func MigrateDeclarations(root tree.Node, output tree.Name) tree.Node {
	m := &migrator{output: output}
	after := func(n tree.Name) bool { return output != "" && n == output }
	b, ok := root.(*tree.Block)
	if !ok {
		n, lifted := m.node(root, after)
		if len(lifted) == 0 {
			return n
		}
		return tree.Seq(root.Span(), append(lifted, n)...)
	}
	out, changed := m.stmts(b.Stmts, after, false, nil)
	if !changed {
		return b
	}
	return &tree.Block{At: b.At, Stmts: out}
}

// body rewrites a nested statement and returns the declarations lifted
// out of it. release lets every read-after declaration of a block leave.
func (m *migrator) body(n tree.Node, after usedAfter, release bool) (tree.Node, []tree.Node) {
	b, ok := n.(*tree.Block)
	if !ok {
		return m.node(n, after)
	}
	var lifted []tree.Node
	out, changed := m.stmts(b.Stmts, after, release, &lifted)
	if !changed {
		return b, nil
	}
	return &tree.Block{At: b.At, Stmts: out}, lifted
}

// stmts rewrites stmts. When lift is non-nil, declarations of names that
// after reports are moved to it if release is set or the name is the
// output slot.
func (m *migrator) stmts(stmts []tree.Node, after usedAfter, release bool, lift *[]tree.Node) ([]tree.Node, bool) {
	suffix := make([]tree.Mentions, len(stmts)+1)
	suffix[len(stmts)] = tree.MentionsOf(nil)
	for i := len(stmts) - 1; i >= 0; i-- {
		suffix[i] = union(tree.MentionsOf(stmts[i]), suffix[i+1])
	}

	changed := false
	out := make([]tree.Node, 0, len(stmts))
	keep := func(s tree.Node) {
		if lift != nil {
			if name, ok := tree.DeclaredName(s); ok && after(name) && (release || name == m.output) {
				changed = true
				switch d := s.(type) {
				case *tree.Decl:
					*lift = append(*lift, d)
					return
				case *tree.CombinedDeclaration:
					*lift = append(*lift, d.Decl)
					s = d.Init
				}
			}
		}
		out = append(out, s)
	}
	for i, s := range stmts {
		rest := suffix[i+1]
		pred := func(n tree.Name) bool { return rest.Uses(n) || after(n) }
		n, nested := m.node(s, pred)
		if n != s || len(nested) > 0 {
			changed = true
		}
		for _, d := range nested {
			keep(d)
		}
		keep(n)
	}
	return out, changed
}

func (m *migrator) node(n tree.Node, after usedAfter) (tree.Node, []tree.Node) {
	switch n := n.(type) {
	case *tree.Block:
		return m.body(n, after, false)
	case *tree.If:
		then, l1 := m.body(n.Then, after, false)
		els, l2 := m.body(n.Else, after, false)
		if then == n.Then && els == n.Else {
			return n, nil
		}
		c := *n
		c.Then, c.Else = then, els
		return &c, append(l1, l2...)
	case *tree.Try:
		tried, l1 := m.body(n.Tried, after, false)
		rec, l2 := m.body(n.Recover, after, false)
		if tried == n.Tried && rec == n.Recover {
			return n, nil
		}
		c := *n
		c.Tried, c.Recover = tried, rec
		return &c, append(l1, l2...)
	case *tree.WhileLoop:
		body, l := m.body(n.Body, after, false)
		if body == n.Body {
			return n, nil
		}
		c := *n
		c.Body = body
		return &c, l
	case *tree.LabeledStmt:
		body, l := m.body(n.Body, after, n.OrElse)
		if body == n.Body {
			return n, nil
		}
		c := *n
		c.Body = body
		return &c, l
	case *tree.Dispatch:
		var lifted []tree.Node
		changed := false
		cases := make([]tree.Case, len(n.Cases))
		for i, cs := range n.Cases {
			body, l := m.body(cs.Body, after, false)
			changed = changed || body != cs.Body
			lifted = append(lifted, l...)
			cases[i] = tree.Case{Values: cs.Values, Body: body}
		}
		els, l := m.body(n.Else, after, false)
		lifted = append(lifted, l...)
		if !changed && els == n.Else {
			return n, nil
		}
		c := *n
		c.Cases, c.Else = cases, els
		return &c, lifted
	}
	return n, nil
}

func union(a, b tree.Mentions) tree.Mentions {
	for k := range b.Declared {
		a.Declared[k] = true
	}
	for k := range b.Read {
		a.Read[k] = true
	}
	for k := range b.Written {
		a.Written[k] = true
	}
	return a
}
