package simplify

import (
	"github.com/wippyai/flowtree/tree"
)

// CollapseTailReturns rewrites `let r; ...; r = e; return r` and
// `let r = e; return r` into `...; return e` in every block, provided
// nothing else in the block mentions r.
func CollapseTailReturns(root tree.Node) tree.Node {
	return tree.Rewrite(root, func(n tree.Node) tree.Node {
		b, ok := n.(*tree.Block)
		if !ok {
			return n
		}
		if stmts, ok := collapseTail(b.Stmts); ok {
			return &tree.Block{At: b.At, Stmts: stmts}
		}
		return n
	})
}

func collapseTail(stmts []tree.Node) ([]tree.Node, bool) {
	n := len(stmts)
	if n < 2 {
		return nil, false
	}
	ret, ok := stmts[n-1].(*tree.Return)
	if !ok {
		return nil, false
	}
	ref, ok := ret.Value.(*tree.Ref)
	if !ok {
		return nil, false
	}
	name := ref.Name

	switch prev := stmts[n-2].(type) {
	case *tree.CombinedDeclaration:
		if prev.Decl.Name != name || tree.ExprReads(prev.Initial)[name] {
			return nil, false
		}
		out := append(append([]tree.Node(nil), stmts[:n-2]...), &tree.Return{At: ret.At, Value: prev.Initial})
		return out, true
	case *tree.Assign:
		if prev.Name != name || tree.ExprReads(prev.Value)[name] {
			return nil, false
		}
		d := -1
		for i, s := range stmts[:n-2] {
			if decl, ok := s.(*tree.Decl); ok && decl.Name == name {
				d = i
				break
			}
		}
		if d < 0 {
			return nil, false
		}
		for _, s := range stmts[d+1 : n-2] {
			m := tree.MentionsOf(s)
			if m.Uses(name) || m.Declared[name] {
				return nil, false
			}
		}
		out := make([]tree.Node, 0, n-2)
		out = append(out, stmts[:d]...)
		out = append(out, stmts[d+1:n-2]...)
		out = append(out, &tree.Return{At: ret.At, Value: prev.Value})
		return out, true
	}
	return nil, false
}
