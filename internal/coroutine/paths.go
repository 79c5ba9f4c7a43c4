package coroutine

import (
	"github.com/wippyai/flowtree/cfg"
	"github.com/wippyai/flowtree/errors"
	"github.com/wippyai/flowtree/internal/options"
	"github.com/wippyai/flowtree/tree"
)

// Follower is an edge to another path, taken when Cond holds. A nil Cond
// is unconditional. Followers are tried in order.
type Follower struct {
	Cond tree.Expr
	To   int
	Back bool
}

// Path is a maximal straight-line run of statements.
type Path struct {
	Index     int
	Elements  []tree.Node
	Followers []Follower
	// Yield is the value the path suspends with, nil if it does not
	// suspend. A suspending path runs its followers on the next turn.
	Yield    tree.Expr
	Suspends bool
	Exit     bool
	FailExit bool
}

// Terminal reports whether the body finishes after this path.
func (p *Path) Terminal() bool { return p.Exit || p.FailExit }

// Paths partitions a body. Paths[0] is the entry.
type Paths struct {
	Paths []*Path
}

type edge struct {
	cond tree.Expr
	to   *mpath
	back bool
}

type mpath struct {
	elements  []tree.Node
	followers []edge
	suspends  bool
	yield     tree.Expr
	exit      bool
	failExit  bool
}

type jumpKey struct {
	target cfg.NodeID
	kind   tree.JumpKind
}

type pathBuilder struct {
	g        *cfg.Graph
	opts     options.Options
	paths    []*mpath
	jumps    map[jumpKey]*[]*mpath
	failOver []*[]*mpath
	returned []*mpath
}

// BuildPaths partitions g into maximal paths. Statements that yield end a
// path; branches and join points start new ones.
func BuildPaths(g *cfg.Graph, opts options.Options) *Paths {
	b := &pathBuilder{g: g, opts: opts, jumps: make(map[jumpKey]*[]*mpath)}
	var fails []*mpath
	b.failOver = []*[]*mpath{&fails}

	entry := b.newPath()
	end := b.build(g.Root(), []*mpath{entry})
	end = append(end, b.returned...)
	if exit := b.reuse(end, false); exit != nil {
		exit.exit = true
	}
	if fail := b.reuse(fails, false); fail != nil {
		fail.failExit = true
	}
	b.eliminateEmptyTransitions()
	return b.export()
}

func (b *pathBuilder) newPath() *mpath {
	p := &mpath{}
	b.paths = append(b.paths, p)
	return p
}

func follow(from, to *mpath, cond tree.Expr, back bool) {
	from.followers = append(from.followers, edge{cond: cond, to: to, back: back})
}

// join starts a new path reached from every preceder.
func (b *pathBuilder) join(preds []*mpath) *mpath {
	if len(preds) == 0 {
		return nil
	}
	p := b.newPath()
	for _, q := range preds {
		follow(q, p, nil, false)
	}
	return p
}

// reuse continues the single open preceder when there is one. A
// suspending preceder may only be reused to attach branches.
func (b *pathBuilder) reuse(preds []*mpath, allowSuspended bool) *mpath {
	if len(preds) == 1 {
		p := preds[0]
		if len(p.followers) == 0 && (allowSuspended || !p.suspends) && !p.exit && !p.failExit {
			return p
		}
	}
	return b.join(preds)
}

func (b *pathBuilder) garbage(preds []*mpath, at tree.Span, err *errors.Error) []*mpath {
	p := b.reuse(preds, false)
	p.elements = append(p.elements, tree.NewGarbage(at, err))
	return []*mpath{p}
}

func (b *pathBuilder) build(id cfg.NodeID, preds []*mpath) []*mpath {
	if len(preds) == 0 {
		return nil
	}
	if !b.g.Valid(id) {
		return b.garbage(preds, tree.Span{}, errors.Structural(errors.PhaseCoroutine, nil, "dangling node %d", id))
	}
	n := b.g.Node(id)
	switch n.Kind {
	case cfg.KindStmtBlock:
		for _, c := range n.Children {
			preds = b.build(c, preds)
			if len(preds) == 0 {
				break
			}
		}
		return preds
	case cfg.KindStmt:
		p, ok := b.g.Deref(n.Ref)
		if !ok {
			return b.garbage(preds, n.At, errors.Structural(errors.PhaseCoroutine, n.At, "statement without a payload"))
		}
		return b.stmt(p, preds)
	case cfg.KindIf:
		return b.ifNode(n, preds)
	case cfg.KindLoop:
		return b.loop(id, n, preds)
	case cfg.KindJump:
		target, ok := b.g.Target(id)
		set := b.jumps[jumpKey{target, n.Jump}]
		if !ok || set == nil {
			out := b.garbage(preds, n.At, errors.UnresolvedJump(n.At, n.Jump.String(), string(n.Target)))
			b.addFailure(out[0])
			return nil
		}
		*set = append(*set, preds...)
		return nil
	case cfg.KindLabeled:
		var after []*mpath
		b.jumps[jumpKey{id, tree.JumpBreak}] = &after
		out := b.build(n.Body, preds)
		delete(b.jumps, jumpKey{id, tree.JumpBreak})
		return append(out, after...)
	case cfg.KindOrElse:
		var startOfElse []*mpath
		b.jumps[jumpKey{id, tree.JumpBreak}] = &startOfElse
		b.failOver = append(b.failOver, &startOfElse)
		out := b.build(n.Body, preds)
		b.failOver = b.failOver[:len(b.failOver)-1]
		delete(b.jumps, jumpKey{id, tree.JumpBreak})
		if len(startOfElse) > 0 {
			out = append(out, b.build(n.Recover, startOfElse)...)
		}
		return out
	}
	return b.garbage(preds, n.At, errors.Structural(errors.PhaseCoroutine, n.At, "unknown node kind %v", n.Kind))
}

func (b *pathBuilder) addFailure(p *mpath) {
	set := b.failOver[len(b.failOver)-1]
	*set = append(*set, p)
}

func (b *pathBuilder) stmt(p tree.Node, preds []*mpath) []*mpath {
	switch s := p.(type) {
	case *tree.ExprStmt:
		if b.opts.IsFailCall(s.X) {
			b.addFailure(b.reuse(preds, true))
			return nil
		}
		if c, ok := tree.AsCall(s.X, tree.BuiltinYield); ok {
			in := b.reuse(preds, false)
			in.suspends = true
			if len(c.Args) > 0 {
				in.yield = c.Args[0]
			}
			return []*mpath{in}
		}
	case *tree.Return:
		in := b.reuse(preds, false)
		if s.Value != nil && !tree.IsPure(s.Value) {
			in.elements = append(in.elements, &tree.ExprStmt{At: s.At, X: s.Value})
		}
		b.returned = append(b.returned, in)
		return nil
	}
	in := b.reuse(preds, false)
	in.elements = append(in.elements, p)
	return []*mpath{in}
}

func (b *pathBuilder) ifNode(n *cfg.Node, preds []*mpath) []*mpath {
	cond, ok := b.g.Condition(n.Ref)
	if !ok {
		return b.garbage(preds, n.At, errors.Structural(errors.PhaseCoroutine, n.At, "if without a condition"))
	}
	if l, ok := cond.(*tree.Literal); ok {
		if v, ok := l.Value.(bool); ok {
			branch := n.Else
			if v {
				branch = n.Then
			}
			return b.optional(branch, preds)
		}
	}
	in := b.reuse(preds, true)
	then, els := b.newPath(), b.newPath()
	follow(in, then, cond, false)
	follow(in, els, nil, false)
	out := b.build(n.Then, []*mpath{then})
	return append(out, b.optional(n.Else, []*mpath{els})...)
}

func (b *pathBuilder) optional(id cfg.NodeID, preds []*mpath) []*mpath {
	if id == cfg.NoNode {
		return preds
	}
	return b.build(id, preds)
}

func (b *pathBuilder) loop(id cfg.NodeID, n *cfg.Node, preds []*mpath) []*mpath {
	if n.PostTest || n.Increment != cfg.NoNode {
		return b.garbage(preds, n.At, errors.Unsupported(errors.PhaseCoroutine, n.At, "only pre-test loops without an increment can suspend"))
	}
	cond, ok := b.g.Condition(n.Ref)
	if !ok {
		return b.garbage(preds, n.At, errors.Structural(errors.PhaseCoroutine, n.At, "loop without a condition"))
	}
	if l, ok := cond.(*tree.Literal); ok && l.Value == false {
		return preds
	}
	start := b.join(preds)
	var after, cont []*mpath
	body := b.newPath()
	if tree.IsAlwaysTrue(cond) {
		follow(start, body, nil, false)
	} else {
		follow(start, body, cond, false)
		after = append(after, start)
	}
	b.jumps[jumpKey{id, tree.JumpBreak}] = &after
	b.jumps[jumpKey{id, tree.JumpContinue}] = &cont
	end := b.build(n.Body, []*mpath{body})
	delete(b.jumps, jumpKey{id, tree.JumpBreak})
	delete(b.jumps, jumpKey{id, tree.JumpContinue})

	if back := b.reuse(append(end, cont...), true); back != nil {
		follow(back, start, nil, true)
	}
	return after
}

// eliminateEmptyTransitions merges paths joined by a plain unconditional
// edge until none remain.
func (b *pathBuilder) eliminateEmptyTransitions() {
	for {
		keep, drop := b.mergeCandidate()
		if keep == nil {
			return
		}
		keep.elements = append(keep.elements, drop.elements...)
		keep.followers = drop.followers
		keep.suspends, keep.yield = drop.suspends, drop.yield
		keep.exit = keep.exit || drop.exit
		keep.failExit = keep.failExit || drop.failExit
		live := b.paths[:0]
		for _, p := range b.paths {
			if p == drop {
				continue
			}
			for i := range p.followers {
				if p.followers[i].to == drop {
					p.followers[i].to = keep
				}
			}
			live = append(live, p)
		}
		b.paths = live
	}
}

func (b *pathBuilder) mergeCandidate() (keep, drop *mpath) {
	preds := make(map[*mpath][]*mpath)
	for _, p := range b.paths {
		for _, e := range p.followers {
			preds[e.to] = append(preds[e.to], p)
		}
	}
	for i, p := range b.paths {
		// A path whose only way in is a plain edge from an open path.
		if ps := preds[p]; i > 0 && len(ps) == 1 && ps[0] != p {
			a := ps[0]
			if len(a.followers) == 1 && a.followers[0].cond == nil && !a.followers[0].back &&
				!a.suspends && !a.exit && !a.failExit {
				return a, p
			}
		}
		// An empty path that only forwards.
		if len(p.elements) == 0 && !p.suspends && !p.exit && !p.failExit && len(p.followers) == 1 {
			e := p.followers[0]
			if e.cond == nil && !e.back && e.to != p && e.to != b.paths[0] {
				return p, e.to
			}
		}
	}
	return nil, nil
}

func (b *pathBuilder) export() *Paths {
	index := make(map[*mpath]int, len(b.paths))
	for i, p := range b.paths {
		index[p] = i
	}
	out := &Paths{Paths: make([]*Path, len(b.paths))}
	for i, p := range b.paths {
		q := &Path{
			Index:    i,
			Elements: p.elements,
			Yield:    p.yield,
			Suspends: p.suspends,
			Exit:     p.exit,
			FailExit: p.failExit,
		}
		for _, e := range p.followers {
			q.Followers = append(q.Followers, Follower{Cond: e.cond, To: index[e.to], Back: e.back})
		}
		out.Paths[i] = q
	}
	return out
}
