// Package translate turns a control-flow graph into an Intermediate Tree.
//
// Translation is total: anything malformed becomes a Garbage node with a
// positioned diagnostic and the rest of the body is still translated.
package translate

import (
	"go.uber.org/zap"

	"github.com/wippyai/flowtree/cfg"
	"github.com/wippyai/flowtree/errors"
	"github.com/wippyai/flowtree/internal/names"
	"github.com/wippyai/flowtree/internal/options"
	"github.com/wippyai/flowtree/internal/simplify"
	"github.com/wippyai/flowtree/tree"
)

// Translator translates one graph.
type Translator struct {
	g     *cfg.Graph
	namer names.Namer
	opts  options.Options

	failVars map[tree.Name]bool
	voidVars map[tree.Name]bool
	// active holds the nodes on the current translation path.
	active map[cfg.NodeID]bool
}

// New returns a translator for g.
func New(g *cfg.Graph, namer names.Namer, opts options.Options) *Translator {
	t := &Translator{
		g:        g,
		namer:    namer,
		opts:     opts,
		failVars: make(map[tree.Name]bool),
		voidVars: make(map[tree.Name]bool),
		active:   make(map[cfg.NodeID]bool),
	}
	for _, p := range g.Payloads() {
		d, ok := p.(*tree.Decl)
		if !ok {
			continue
		}
		if d.FailFlag {
			t.failVars[d.Name] = true
		}
		if d.Type.IsVoid() {
			t.voidVars[d.Name] = true
		}
	}
	return t
}

// FailVars returns the names declared as failure flags.
func (t *Translator) FailVars() map[tree.Name]bool { return t.failVars }

// Translate translates the whole graph.
func (t *Translator) Translate() tree.Node {
	out := t.Node(t.g.Root())
	Logger().Debug("translated graph",
		zap.Int("nodes", t.g.Len()),
		zap.Stringer("failure", t.opts.Failure))
	return out
}

// Node translates the subgraph rooted at id.
func (t *Translator) Node(id cfg.NodeID) tree.Node {
	if !t.g.Valid(id) {
		return tree.NewGarbage(tree.Span{}, errors.Structural(errors.PhaseTranslate, nil, "reference to missing node %d", id))
	}
	n := t.g.Node(id)
	if t.active[id] {
		return tree.NewGarbage(n.At, errors.Structural(errors.PhaseTranslate, n.At, "node %d is reached again through its own subgraph", id))
	}
	t.active[id] = true
	defer delete(t.active, id)
	switch n.Kind {
	case cfg.KindStmt:
		p, ok := t.g.Deref(n.Ref)
		if !ok {
			return tree.NewGarbage(n.At, errors.Structural(errors.PhaseTranslate, n.At, "statement reference %d has no payload", n.Ref))
		}
		return t.Leaf(p)
	case cfg.KindStmtBlock:
		return t.block(n)
	case cfg.KindIf:
		cond, ok := t.Condition(n)
		if !ok {
			return tree.NewGarbage(n.At, errors.Structural(errors.PhaseTranslate, n.At, "branch condition is not an expression"))
		}
		return &tree.If{At: n.At, Cond: cond, Then: t.Node(n.Then), Else: t.optional(n.Else)}
	case cfg.KindLoop:
		return t.loop(n)
	case cfg.KindJump:
		return t.jump(id, n)
	case cfg.KindLabeled:
		return &tree.LabeledStmt{At: n.At, Label: n.Label, Body: t.Node(n.Body)}
	case cfg.KindOrElse:
		return t.orElseNode(n)
	}
	return tree.NewGarbage(n.At, errors.Structural(errors.PhaseTranslate, n.At, "unknown node kind %s", n.Kind))
}

func (t *Translator) optional(id cfg.NodeID) tree.Node {
	if id == cfg.NoNode {
		return nil
	}
	return t.Node(id)
}

// Condition dereferences the condition of an If or Loop node.
func (t *Translator) Condition(n *cfg.Node) (tree.Expr, bool) {
	return t.g.Condition(n.Ref)
}

func (t *Translator) loop(n *cfg.Node) tree.Node {
	if n.PostTest || n.Increment != cfg.NoNode {
		return tree.NewGarbage(n.At, errors.Structural(errors.PhaseTranslate, n.At, "loop must test before its body and have no increment"))
	}
	cond, ok := t.Condition(n)
	if !ok {
		return tree.NewGarbage(n.At, errors.Structural(errors.PhaseTranslate, n.At, "loop condition is not an expression"))
	}
	w := &tree.WhileLoop{At: n.At, Cond: cond, Body: t.Node(n.Body)}
	if n.Label == "" {
		return w
	}
	return &tree.LabeledStmt{At: n.At, Label: n.Label, Body: w}
}

func (t *Translator) orElseNode(n *cfg.Node) tree.Node {
	if t.opts.Failure == options.ExceptionBased {
		return &tree.Try{At: n.At, Tried: t.Node(n.Body), Recover: t.Node(n.Recover)}
	}

	// ok: { recovery: { TRIED; break ok; } RECOVER }
	ok := t.namer.Fresh("ok")
	recovery := n.Label
	if recovery == "" {
		recovery = t.namer.Fresh("recovery")
	}
	at := n.At
	tried := &tree.LabeledStmt{
		At:     at,
		Label:  recovery,
		Body:   tree.Seq(at, t.Node(n.Body), &tree.Break{At: at.RightEdge(), Label: ok}),
		OrElse: true,
	}
	return &tree.LabeledStmt{
		At:     at,
		Label:  ok,
		Body:   tree.Seq(at, tried, t.Node(n.Recover)),
		OrElse: true,
	}
}

// block translates a statement block. Nested blocks are spliced in and
// declarations are combined with their initializers.
func (t *Translator) block(n *cfg.Node) tree.Node {
	out := make([]tree.Node, 0, len(n.Children))
	for _, c := range n.Children {
		s := t.Node(c)
		if t.opts.Failure == options.ExceptionBased && t.flagOnly(s) {
			continue
		}
		if b, ok := s.(*tree.Block); ok {
			out = append(out, b.Stmts...)
			continue
		}
		out = append(out, s)
	}
	return &tree.Block{At: n.At, Stmts: simplify.CombineDeclarations(out)}
}

// flagOnly reports whether s only maintains or checks a failure flag.
// With real unwinding the flag is never raised, so a check on it without
// an else never runs.
func (t *Translator) flagOnly(s tree.Node) bool {
	switch s := s.(type) {
	case *tree.Decl:
		return s.FailFlag
	case *tree.Assign:
		return t.failVars[s.Name]
	case *tree.If:
		ref, ok := s.Cond.(*tree.Ref)
		return ok && t.failVars[ref.Name] && tree.IsEmpty(s.Else)
	}
	return false
}
