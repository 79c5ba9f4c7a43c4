package tree

import (
	"testing"

	"github.com/kr/pretty"
)

func sampleTree() *Block {
	return &Block{Stmts: []Node{
		&Decl{Name: "x", Type: TypeInt},
		&If{
			Cond: RefTo("c"),
			Then: &Block{Stmts: []Node{&Assign{Name: "x", Value: IntLit(1)}}},
			Else: &Block{Stmts: []Node{&Assign{Name: "x", Value: IntLit(2)}}},
		},
		&LabeledStmt{Label: "L", Body: &WhileLoop{
			Cond: BoolLit(true),
			Body: &Block{Stmts: []Node{&Break{Label: "L"}}},
		}},
		&Return{Value: RefTo("x")},
	}}
}

func TestFolderDefaultKeepsIdentity(t *testing.T) {
	root := sampleTree()
	f := &Folder[struct{}, int]{Combine: Sum}
	got, _ := f.Fold(root, struct{}{})
	if got != Node(root) {
		t.Fatalf("unchanged fold should return the same node")
	}
}

func TestFolderCountsLeaves(t *testing.T) {
	f := &Folder[struct{}, int]{
		Combine: Sum,
		Leaf: func(_ *Folder[struct{}, int], n Node, _ struct{}) (Node, int) {
			return n, 1
		},
	}
	_, leaves := f.Fold(sampleTree(), struct{}{})
	// decl, two assigns, break, return
	if leaves != 5 {
		t.Errorf("leaves = %d, want 5", leaves)
	}
}

func TestFolderRewritesOnlyChangedPath(t *testing.T) {
	root := sampleTree()
	f := &Folder[struct{}, struct{}]{
		Leaf: func(_ *Folder[struct{}, struct{}], n Node, _ struct{}) (Node, struct{}) {
			if b, ok := n.(*Break); ok {
				return &Continue{At: b.At, Label: b.Label}, struct{}{}
			}
			return n, struct{}{}
		},
	}
	got, _ := f.Fold(root, struct{}{})
	out := got.(*Block)
	if out == root {
		t.Fatal("expected a rewritten root")
	}
	if out.Stmts[1] != root.Stmts[1] {
		t.Error("untouched If should be shared with the input")
	}
	if want := "L: while (true) { continue L }"; Render(out.Stmts[2]) != want {
		t.Errorf("got %q, want %q", Render(out.Stmts[2]), want)
	}
	if Render(root.Stmts[2]) != "L: while (true) { break L }" {
		t.Error("input tree must not be mutated")
	}
}

func TestFolderNilDeletesBlockChild(t *testing.T) {
	root := sampleTree()
	got := Rewrite(root, func(n Node) Node {
		if _, ok := n.(*Decl); ok {
			return nil
		}
		return n
	})
	if len(got.(*Block).Stmts) != 3 {
		t.Fatalf("got %s", Render(got))
	}
}

func TestFolderHandlerPassesInput(t *testing.T) {
	// Collect loop depth at each break.
	var depths []int
	f := &Folder[int, struct{}]{}
	f.WhileLoop = func(f *Folder[int, struct{}], n *WhileLoop, depth int) (Node, struct{}) {
		return f.Default(n, depth+1)
	}
	f.Leaf = func(_ *Folder[int, struct{}], n Node, depth int) (Node, struct{}) {
		if _, ok := n.(*Break); ok {
			depths = append(depths, depth)
		}
		return n, struct{}{}
	}
	f.Fold(&Block{Stmts: []Node{
		&Break{},
		&WhileLoop{Cond: BoolLit(true), Body: &WhileLoop{Cond: BoolLit(true), Body: &Break{}}},
	}}, 0)
	if diff := pretty.Diff(depths, []int{0, 2}); len(diff) > 0 {
		t.Errorf("depths differ: %v", diff)
	}
}

func TestRewriteExprsReachesFunctionBodies(t *testing.T) {
	fn := Combine(&Decl{Name: "f"}, &Assign{Name: "f", Value: &FuncLit{
		Params: []Name{"a"},
		Body:   &Return{Value: &Binary{Op: "+", X: RefTo("a"), Y: RefTo("x")}},
	}})
	fn.Func = true
	root := &Block{Stmts: []Node{fn}}
	got := RewriteExprs(root, func(e Expr) Expr {
		if r, ok := e.(*Ref); ok && r.Name == "x" {
			return &NotNull{X: r}
		}
		return e
	})
	if want := "{ fn f(a) return (a + x!!) }"; Render(got) != want {
		t.Errorf("got %q, want %q", Render(got), want)
	}
}

func TestWalkSkipsChildren(t *testing.T) {
	count := 0
	Walk(sampleTree(), func(n Node) bool {
		count++
		_, isLabeled := n.(*LabeledStmt)
		return !isLabeled
	})
	// block, decl, if, then, assign, else, assign, labeled, return
	if count != 9 {
		t.Errorf("visited %d nodes, want 9", count)
	}
}
