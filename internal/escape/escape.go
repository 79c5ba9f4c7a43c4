// Package escape reroutes jumps that cannot cross a structural boundary.
//
// A region (typically a try) is wrapped in a fresh label. Each distinct
// jump that escapes the region is replaced by a store of its escape code
// and a break out of the wrapper; after the region, a dispatch on the code
// replays the original jump.
package escape

import (
	"github.com/wippyai/flowtree/internal/names"
	"github.com/wippyai/flowtree/tree"
)

// Jump is an escaping (kind, label) pair. An empty label means the
// innermost loop.
type Jump struct {
	Kind  tree.JumpKind
	Label tree.Name
}

func (j Jump) node(at tree.Span) tree.Node {
	if j.Kind == tree.JumpContinue {
		return &tree.Continue{At: at, Label: j.Label}
	}
	return &tree.Break{At: at, Label: j.Label}
}

// Hatch carries the escape codes of one region.
type Hatch struct {
	at      tree.Span
	escapes []Jump
	codes   map[Jump]int
	wrapper tree.Name
	codeVar tree.Name
}

// Build scans stmts for escaping jumps. parent is the node immediately
// enclosing the region, or nil. Build returns nil when nothing escapes.
func Build(at tree.Span, namer names.Namer, parent tree.Node, stmts []tree.Node) *Hatch {
	h := &Hatch{at: at, codes: make(map[Jump]int)}
	defined := make(map[tree.Name]bool)
	for _, s := range stmts {
		h.find(s, 0, defined)
	}
	if len(h.escapes) == 0 {
		return nil
	}
	h.wrapper = namer.Fresh("escape")
	if !h.fast(parent) {
		h.codeVar = namer.Fresh("escapeCode")
	}
	return h
}

func (h *Hatch) find(n tree.Node, depth int, defined map[tree.Name]bool) {
	switch n := n.(type) {
	case *tree.LabeledStmt:
		defined[n.Label] = true
	case *tree.WhileLoop:
		h.find(n.Body, depth+1, defined)
		return
	case *tree.Break:
		h.note(Jump{Kind: tree.JumpBreak, Label: n.Label}, depth, defined)
	case *tree.Continue:
		h.note(Jump{Kind: tree.JumpContinue, Label: n.Label}, depth, defined)
	case *tree.Goal:
		if n.Kind == tree.GoalJump {
			h.note(Jump{Kind: n.Jump, Label: n.Target}, depth, defined)
		}
	case *tree.ConvertedCoroutine:
		return
	}
	if n == nil {
		return
	}
	for _, c := range n.Children() {
		h.find(c, depth, defined)
	}
}

func (h *Hatch) note(j Jump, depth int, defined map[tree.Name]bool) {
	escapes := (j.Label == "" && depth == 0) || (j.Label != "" && !defined[j.Label])
	if !escapes {
		return
	}
	if _, seen := h.codes[j]; seen {
		return
	}
	h.escapes = append(h.escapes, j)
	h.codes[j] = len(h.escapes)
}

// fast reports whether the single escape lands exactly where breaking out
// of the wrapper lands: the end of the enclosing labeled statement or
// loop body.
func (h *Hatch) fast(parent tree.Node) bool {
	if len(h.escapes) != 1 {
		return false
	}
	e := h.escapes[0]
	switch p := parent.(type) {
	case *tree.LabeledStmt:
		return e.Kind == tree.JumpBreak && e.Label == p.Label
	case *tree.WhileLoop:
		return e.Kind == tree.JumpContinue && e.Label == ""
	}
	return false
}

// Fast reports whether no code variable is needed.
func (h *Hatch) Fast() bool { return h.codeVar == "" }

// Escapes returns the escaping jumps in discovery order.
func (h *Hatch) Escapes() []Jump { return h.escapes }

// Code returns the 1-based code of j, or 0 if j does not escape.
func (h *Hatch) Code(j Jump) int { return h.codes[j] }

// Wrapper returns the label wrapping the region.
func (h *Hatch) Wrapper() tree.Name { return h.wrapper }

// CodeVar returns the code variable, or "" on the fast path.
func (h *Hatch) CodeVar() tree.Name { return h.codeVar }

// WrapRegion labels stmt with the wrapper label.
func (h *Hatch) WrapRegion(stmt tree.Node) tree.Node {
	return &tree.LabeledStmt{At: stmt.Span(), Label: h.wrapper, Body: stmt}
}

// DeclareCodeVarIfNeeded returns the code variable declaration, or nothing
// on the fast path.
func (h *Hatch) DeclareCodeVarIfNeeded() []tree.Node {
	if h.Fast() {
		return nil
	}
	at := h.at.LeftEdge()
	decl := &tree.Decl{At: at, Name: h.codeVar, Type: tree.TypeInt, Var: true}
	zero := tree.IntLit(0)
	zero.At = at
	return []tree.Node{tree.Combine(decl, &tree.Assign{At: at, Name: h.codeVar, Value: zero})}
}

// RewriteEscapingJump replaces stmt when it is an escaping jump. depth is
// the number of loops between stmt and the region boundary.
func (h *Hatch) RewriteEscapingJump(stmt tree.Node, depth int) (tree.Node, bool) {
	var j Jump
	switch s := stmt.(type) {
	case *tree.Break:
		j = Jump{Kind: tree.JumpBreak, Label: s.Label}
	case *tree.Continue:
		j = Jump{Kind: tree.JumpContinue, Label: s.Label}
	case *tree.Goal:
		if s.Kind != tree.GoalJump {
			return stmt, false
		}
		j = Jump{Kind: s.Jump, Label: s.Target}
	default:
		return stmt, false
	}
	if j.Label == "" && depth > 0 {
		return stmt, false
	}
	code, ok := h.codes[j]
	if !ok {
		return stmt, false
	}
	at := stmt.Span()
	brk := &tree.Break{At: at, Label: h.wrapper}
	if h.Fast() {
		return brk, true
	}
	lit := tree.IntLit(code)
	lit.At = at
	return &tree.Block{At: at, Stmts: []tree.Node{
		&tree.Assign{At: at, Name: h.codeVar, Value: lit},
		brk,
	}}, true
}

// Rewrite applies RewriteEscapingJump throughout region.
func (h *Hatch) Rewrite(region tree.Node) tree.Node {
	f := &tree.Folder[int, struct{}]{
		WhileLoop: func(f *tree.Folder[int, struct{}], n *tree.WhileLoop, depth int) (tree.Node, struct{}) {
			return f.Default(n, depth+1)
		},
		ConvertedCoroutine: func(_ *tree.Folder[int, struct{}], n *tree.ConvertedCoroutine, _ int) (tree.Node, struct{}) {
			return n, struct{}{}
		},
		Leaf: func(_ *tree.Folder[int, struct{}], n tree.Node, depth int) (tree.Node, struct{}) {
			out, _ := h.RewriteEscapingJump(n, depth)
			return out, struct{}{}
		},
	}
	out, _ := f.Fold(region, 0)
	return out
}

// EmitDispatch returns the statements that replay escaped jumps after the
// region.
func (h *Hatch) EmitDispatch() []tree.Node {
	if h.Fast() {
		return nil
	}
	at := h.at.RightEdge()
	code := &tree.Ref{At: at, Name: h.codeVar, Type: tree.TypeInt}
	if len(h.escapes) == 1 {
		one := tree.IntLit(1)
		one.At = at
		return []tree.Node{&tree.If{
			At:   at,
			Cond: &tree.Binary{At: at, Op: "==", X: code, Y: one},
			Then: &tree.Block{At: at, Stmts: []tree.Node{h.escapes[0].node(at)}},
			Else: &tree.Block{At: at},
		}}
	}
	cases := make([]tree.Case, len(h.escapes))
	for i, e := range h.escapes {
		cases[i] = tree.Case{
			Values: []int{i + 1},
			Body:   &tree.Block{At: at, Stmts: []tree.Node{e.node(at)}},
		}
	}
	return []tree.Node{&tree.Dispatch{At: at, Subject: code, Cases: cases, Else: &tree.Block{At: at}}}
}

// Apply lowers region: code variable, wrapped and rewritten region, then
// after, then the dispatch.
func (h *Hatch) Apply(region tree.Node, after ...tree.Node) []tree.Node {
	out := h.DeclareCodeVarIfNeeded()
	out = append(out, h.WrapRegion(h.Rewrite(region)))
	out = append(out, after...)
	return append(out, h.EmitDispatch()...)
}
