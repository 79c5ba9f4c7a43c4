package cfg

import (
	"github.com/wippyai/flowtree/errors"
	"github.com/wippyai/flowtree/tree"
)

type scope struct {
	label tree.Name
	id    NodeID
	loop  bool
}

// Resolve recomputes parent links and the jump target table. Jumps whose
// target is not an enclosing scope are left out of the table. A child
// edge leading back to an ancestor is replaced by a statement holding a
// structural Garbage, so the resolved graph is a tree.
func (g *Graph) Resolve() {
	g.targets = make(map[NodeID]NodeID)
	if g.Valid(g.root) {
		g.nodes[g.root].Parent = NoNode
	}
	g.resolve(g.root, nil, make(map[NodeID]bool))
}

func (g *Graph) resolve(id NodeID, scopes []scope, active map[NodeID]bool) {
	if !g.Valid(id) {
		return
	}
	active[id] = true
	defer delete(active, id)
	g.cutCycles(id, active)

	n := g.nodes[id]
	switch n.Kind {
	case KindJump:
		if t, ok := lookup(scopes, n.Jump, n.Target); ok {
			g.targets[id] = t
		}
		return
	case KindLoop:
		g.adopt(id, n.Body)
		g.resolve(n.Body, append(scopes, scope{label: n.Label, id: id, loop: true}), active)
		return
	case KindLabeled:
		g.adopt(id, n.Body)
		g.resolve(n.Body, append(scopes, scope{label: n.Label, id: id}), active)
		return
	case KindOrElse:
		// The or-else label is only reachable from the tried part.
		g.adopt(id, n.Body)
		g.adopt(id, n.Recover)
		g.resolve(n.Body, append(scopes, scope{label: n.Label, id: id}), active)
		g.resolve(n.Recover, scopes, active)
		return
	}
	for _, c := range g.children(&n) {
		g.adopt(id, c)
		g.resolve(c, scopes, active)
	}
}

// cutCycles replaces every child of id that is on the active path with a
// Garbage statement.
func (g *Graph) cutCycles(id NodeID, active map[NodeID]bool) {
	n := g.nodes[id]
	cut := func(c NodeID) NodeID {
		if !g.Valid(c) || !active[c] {
			return c
		}
		err := errors.Structural(errors.PhaseTranslate, n.At, "%s node %d re-enters its ancestor %d", n.Kind, id, c)
		return g.NewStmt(tree.NewGarbage(n.At, err))
	}
	switch n.Kind {
	case KindStmtBlock:
		var children []NodeID
		for i, c := range n.Children {
			if r := cut(c); r != c {
				if children == nil {
					children = append([]NodeID(nil), n.Children...)
				}
				children[i] = r
			}
		}
		if children != nil {
			g.nodes[id].Children = children
		}
	case KindIf:
		g.nodes[id].Then, g.nodes[id].Else = cut(n.Then), cut(n.Else)
	case KindLoop, KindLabeled:
		g.nodes[id].Body = cut(n.Body)
	case KindOrElse:
		g.nodes[id].Body, g.nodes[id].Recover = cut(n.Body), cut(n.Recover)
	}
}

func (g *Graph) adopt(parent, child NodeID) {
	if g.Valid(child) {
		g.nodes[child].Parent = parent
	}
}

func lookup(scopes []scope, kind tree.JumpKind, label tree.Name) (NodeID, bool) {
	for i := len(scopes) - 1; i >= 0; i-- {
		s := scopes[i]
		if label == "" {
			if s.loop {
				return s.id, true
			}
			continue
		}
		if s.label != label {
			continue
		}
		if kind == tree.JumpContinue && !s.loop {
			return NoNode, false
		}
		return s.id, true
	}
	return NoNode, false
}
