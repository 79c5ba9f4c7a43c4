package simplify

import (
	"github.com/wippyai/flowtree/tree"
)

// EraseVoid removes void-typed declarations, assignments and references
// from root. An assignment whose value has effects keeps the value as an
// expression statement. Blocks left with a single statement collapse to
// that statement; the root keeps its shape.
func EraseVoid(root tree.Node) tree.Node {
	void := voidNames(root)
	f := &tree.Folder[struct{}, struct{}]{
		Block: func(f *tree.Folder[struct{}, struct{}], n *tree.Block, x struct{}) (tree.Node, struct{}) {
			m, _ := f.Default(n, x)
			if b := m.(*tree.Block); len(b.Stmts) == 1 {
				return b.Stmts[0], x
			}
			return m, x
		},
		Leaf: func(f *tree.Folder[struct{}, struct{}], n tree.Node, x struct{}) (tree.Node, struct{}) {
			return eraseLeaf(n, void), x
		},
	}
	b, ok := root.(*tree.Block)
	if !ok {
		out, _ := f.Fold(root, struct{}{})
		return out
	}
	stmts, _, changed := f.FoldAll(b.Stmts, struct{}{})
	if !changed {
		return b
	}
	return &tree.Block{At: b.At, Stmts: stmts}
}

func voidNames(root tree.Node) map[tree.Name]bool {
	void := map[tree.Name]bool{}
	tree.Walk(root, func(n tree.Node) bool {
		switch n := n.(type) {
		case *tree.Decl:
			if n.Type.IsVoid() {
				void[n.Name] = true
			}
		case *tree.CombinedDeclaration:
			if n.Decl.Type.IsVoid() {
				void[n.Decl.Name] = true
			}
		}
		return true
	})
	return void
}

func eraseLeaf(n tree.Node, void map[tree.Name]bool) tree.Node {
	switch n := n.(type) {
	case *tree.Decl:
		if void[n.Name] {
			return nil
		}
	case *tree.CombinedDeclaration:
		if void[n.Decl.Name] {
			return effect(n.At, n.Initial, void)
		}
	case *tree.Assign:
		if void[n.Name] {
			return effect(n.At, n.Value, void)
		}
	case *tree.ExprStmt:
		if isVoidValue(n.X, void) {
			return nil
		}
	case *tree.Return:
		if n.Value != nil && isVoidValue(n.Value, void) {
			return &tree.Return{At: n.At}
		}
	}
	return n
}

func effect(at tree.Span, e tree.Expr, void map[tree.Name]bool) tree.Node {
	if isVoidValue(e, void) || tree.IsPure(e) {
		return nil
	}
	return &tree.ExprStmt{At: at, X: e}
}

func isVoidValue(e tree.Expr, void map[tree.Name]bool) bool {
	switch e := e.(type) {
	case *tree.Ref:
		return void[e.Name]
	case *tree.Literal:
		return tree.ExprType(e).IsVoid()
	}
	return false
}
