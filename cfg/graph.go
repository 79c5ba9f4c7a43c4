package cfg

import (
	"github.com/wippyai/flowtree/tree"
)

// NodeID addresses a node in a Graph.
type NodeID int32

// NoNode marks an absent child.
const NoNode NodeID = -1

// Ref addresses a payload in a Graph.
type Ref int32

// NoRef marks an absent payload.
const NoRef Ref = -1

// Kind is the variant of a Node.
type Kind uint8

const (
	KindStmt Kind = iota
	KindStmtBlock
	KindIf
	KindLoop
	KindJump
	KindLabeled
	KindOrElse
)

var kindNames = [...]string{"stmt", "block", "if", "loop", "jump", "labeled", "orelse"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Node is one control-flow node. Which fields are meaningful depends on
// Kind:
//
//	KindStmt       Ref
//	KindStmtBlock  Children
//	KindIf         Ref (condition), Then, Else
//	KindLoop       Ref (condition), Body, Label, PostTest, Increment
//	KindJump       Jump, Target
//	KindLabeled    Label, Body
//	KindOrElse     Body (tried), Label, Recover
type Node struct {
	Kind      Kind
	At        tree.Span
	Parent    NodeID
	Ref       Ref
	Children  []NodeID
	Then      NodeID
	Else      NodeID
	Body      NodeID
	Recover   NodeID
	Label     tree.Name
	Jump      tree.JumpKind
	Target    tree.Name
	PostTest  bool
	Increment NodeID
}

// Graph is the control-flow graph of one function body.
type Graph struct {
	nodes    []Node
	payloads []tree.Node
	root     NodeID
	targets  map[NodeID]NodeID
}

// Root returns the root node, normally a statement block.
func (g *Graph) Root() NodeID { return g.root }

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Valid reports whether id addresses a node.
func (g *Graph) Valid(id NodeID) bool {
	return id >= 0 && int(id) < len(g.nodes)
}

// Node returns the node at id. The pointer stays valid until nodes are
// added.
func (g *Graph) Node(id NodeID) *Node {
	return &g.nodes[id]
}

// Deref returns the payload at r.
func (g *Graph) Deref(r Ref) (tree.Node, bool) {
	if r < 0 || int(r) >= len(g.payloads) || g.payloads[r] == nil {
		return nil, false
	}
	return g.payloads[r], true
}

// Condition returns the expression held by the payload at r.
func (g *Graph) Condition(r Ref) (tree.Expr, bool) {
	p, ok := g.Deref(r)
	if !ok {
		return nil, false
	}
	s, ok := p.(*tree.ExprStmt)
	if !ok {
		return nil, false
	}
	return s.X, true
}

// Payloads returns the payload store. Callers must not modify it.
func (g *Graph) Payloads() []tree.Node { return g.payloads }

// SetPayload replaces the payload at r.
func (g *Graph) SetPayload(r Ref, p tree.Node) {
	g.payloads[r] = p
}

// Target returns the Loop, Labeled or OrElse node a jump transfers to.
func (g *Graph) Target(jump NodeID) (NodeID, bool) {
	t, ok := g.targets[jump]
	return t, ok
}

// NewStmt appends a statement node holding p. The node has no parent
// until it is placed with SetChildren.
func (g *Graph) NewStmt(p tree.Node) NodeID {
	g.payloads = append(g.payloads, p)
	g.nodes = append(g.nodes, Node{
		Kind:      KindStmt,
		At:        p.Span(),
		Parent:    NoNode,
		Ref:       Ref(len(g.payloads) - 1),
		Then:      NoNode,
		Else:      NoNode,
		Body:      NoNode,
		Recover:   NoNode,
		Increment: NoNode,
	})
	return NodeID(len(g.nodes) - 1)
}

// SetChildren replaces the children of a statement block.
func (g *Graph) SetChildren(block NodeID, children []NodeID) {
	g.nodes[block].Children = children
	for _, c := range children {
		if g.Valid(c) {
			g.nodes[c].Parent = block
		}
	}
}

// Clone returns a deep copy that can be edited independently. Payloads
// are shared; replace them with SetPayload rather than mutating them.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		nodes:    make([]Node, len(g.nodes)),
		payloads: append([]tree.Node(nil), g.payloads...),
		root:     g.root,
		targets:  make(map[NodeID]NodeID, len(g.targets)),
	}
	copy(c.nodes, g.nodes)
	for i := range c.nodes {
		c.nodes[i].Children = append([]NodeID(nil), g.nodes[i].Children...)
	}
	for k, v := range g.targets {
		c.targets[k] = v
	}
	return c
}

// Walk calls fn for every node reachable from the root in pre-order.
// Returning false skips a node's children. An edge back to an ancestor is
// not followed.
func (g *Graph) Walk(fn func(id NodeID, n *Node) bool) {
	g.walk(g.root, fn, make(map[NodeID]bool))
}

func (g *Graph) walk(id NodeID, fn func(NodeID, *Node) bool, active map[NodeID]bool) {
	if !g.Valid(id) || active[id] {
		return
	}
	n := &g.nodes[id]
	if !fn(id, n) {
		return
	}
	active[id] = true
	for _, c := range g.children(n) {
		g.walk(c, fn, active)
	}
	delete(active, id)
}

func (g *Graph) children(n *Node) []NodeID {
	switch n.Kind {
	case KindStmtBlock:
		return n.Children
	case KindIf:
		return []NodeID{n.Then, n.Else}
	case KindLoop, KindLabeled:
		return []NodeID{n.Body}
	case KindOrElse:
		return []NodeID{n.Body, n.Recover}
	}
	return nil
}
