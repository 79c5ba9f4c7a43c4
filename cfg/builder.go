package cfg

import "github.com/wippyai/flowtree/tree"

// Builder assembles a Graph bottom-up.
//
//	b := cfg.NewBuilder()
//	body := b.Block(b.Stmt(s1), b.Jump(tree.JumpBreak, ""))
//	g := b.Finish(b.Block(b.Loop("", cond, body)))
type Builder struct {
	g *Graph
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{g: &Graph{root: NoNode}}
}

// Extend returns a builder that adds nodes to a finished graph. Call
// g.Resolve once the new nodes are placed.
func (g *Graph) Extend() *Builder {
	return &Builder{g: g}
}

func (b *Builder) add(n Node) NodeID {
	n.Parent = NoNode
	b.g.nodes = append(b.g.nodes, n)
	return NodeID(len(b.g.nodes) - 1)
}

func blank(kind Kind) Node {
	return Node{
		Kind:      kind,
		Ref:       NoRef,
		Then:      NoNode,
		Else:      NoNode,
		Body:      NoNode,
		Recover:   NoNode,
		Increment: NoNode,
	}
}

func (b *Builder) payload(p tree.Node) Ref {
	b.g.payloads = append(b.g.payloads, p)
	return Ref(len(b.g.payloads) - 1)
}

// Node exposes a node under construction.
func (b *Builder) Node(id NodeID) *Node { return b.g.Node(id) }

// At sets the span of id and returns id.
func (b *Builder) At(id NodeID, at tree.Span) NodeID {
	b.g.nodes[id].At = at
	return id
}

// Stmt adds a statement node.
func (b *Builder) Stmt(p tree.Node) NodeID {
	n := blank(KindStmt)
	n.Ref = b.payload(p)
	if p != nil {
		n.At = p.Span()
	}
	return b.add(n)
}

// Dangling adds a statement node whose reference has no payload.
func (b *Builder) Dangling(at tree.Span) NodeID {
	n := blank(KindStmt)
	n.At = at
	n.Ref = Ref(1 << 30)
	return b.add(n)
}

// Block adds a statement block.
func (b *Builder) Block(children ...NodeID) NodeID {
	n := blank(KindStmtBlock)
	n.Children = children
	return b.add(n)
}

// If adds a branch. els may be NoNode.
func (b *Builder) If(cond tree.Expr, then, els NodeID) NodeID {
	n := blank(KindIf)
	n.Ref = b.payload(&tree.ExprStmt{At: cond.Span(), X: cond})
	n.At = cond.Span()
	n.Then, n.Else = then, els
	return b.add(n)
}

// Loop adds a pre-test loop. label may be empty.
func (b *Builder) Loop(label tree.Name, cond tree.Expr, body NodeID) NodeID {
	n := blank(KindLoop)
	n.Ref = b.payload(&tree.ExprStmt{At: cond.Span(), X: cond})
	n.At = cond.Span()
	n.Label, n.Body = label, body
	return b.add(n)
}

// Jump adds a break or continue. target may be empty for the innermost
// loop.
func (b *Builder) Jump(kind tree.JumpKind, target tree.Name) NodeID {
	n := blank(KindJump)
	n.Jump, n.Target = kind, target
	return b.add(n)
}

// Labeled adds a labeled statement.
func (b *Builder) Labeled(label tree.Name, body NodeID) NodeID {
	n := blank(KindLabeled)
	n.Label, n.Body = label, body
	return b.add(n)
}

// OrElse adds a try/recover pairing. Breaking to label from inside tried
// transfers to the recover part.
func (b *Builder) OrElse(tried NodeID, label tree.Name, rec NodeID) NodeID {
	n := blank(KindOrElse)
	n.Body, n.Label, n.Recover = tried, label, rec
	return b.add(n)
}

// Finish sets the root, resolves labels and returns the graph. The
// builder must not be used afterwards.
func (b *Builder) Finish(root NodeID) *Graph {
	g := b.g
	g.root = root
	g.Resolve()
	b.g = nil
	return g
}
