package coroutine

import (
	"github.com/wippyai/flowtree/cfg"
	"github.com/wippyai/flowtree/errors"
	"github.com/wippyai/flowtree/internal/names"
	"github.com/wippyai/flowtree/internal/translate"
	"github.com/wippyai/flowtree/tree"
)

// Desugar rewrites every await in g into an explicit suspension:
//
//	promise = p; awakeUpon(promise, generator); yield(); fail = false
//	... getPromiseResultSync(fail, promise) ...
//
// The fail reset is only emitted when the await sits in a handler scope.
// An await in a branch or pre-test loop condition is first moved into a
// temporary assigned in front of the test; for a loop the test moves to
// the head of the body. A statement holding more than one await, an await
// outside a statement block and a yield inside a condition become
// Garbage. g is modified in place.
func Desugar(g *cfg.Graph, namer names.Namer, generator tree.Name) {
	var tests []cfg.NodeID
	g.Walk(func(id cfg.NodeID, n *cfg.Node) bool {
		if n.Kind != cfg.KindIf && n.Kind != cfg.KindLoop {
			return true
		}
		if cond, ok := g.Condition(n.Ref); ok && len(suspensions(cond)) > 0 {
			tests = append(tests, id)
		}
		return true
	})
	reshaped := false
	for _, id := range tests {
		if hoistCondition(g, id, namer) {
			reshaped = true
		}
	}
	if reshaped {
		g.Resolve()
	}

	var blocks []cfg.NodeID
	var stray []cfg.Ref
	g.Walk(func(id cfg.NodeID, n *cfg.Node) bool {
		switch n.Kind {
		case cfg.KindStmtBlock:
			blocks = append(blocks, id)
		case cfg.KindStmt:
			if g.Valid(n.Parent) && g.Node(n.Parent).Kind == cfg.KindStmtBlock {
				break
			}
			if p, ok := g.Deref(n.Ref); ok && len(awaits(p)) > 0 {
				stray = append(stray, n.Ref)
			}
		}
		return true
	})
	for _, r := range stray {
		p, _ := g.Deref(r)
		g.SetPayload(r, tree.NewGarbage(p.Span(), errors.Unsupported(errors.PhaseCoroutine, p.Span(), "await outside a statement sequence")))
	}
	for _, id := range blocks {
		desugarBlock(g, id, namer, generator)
	}
}

// hoistCondition moves the condition of the If or Loop at id into a
// fresh Boolean temporary. An If gets the assignment in front of it in
// its block. A pre-test loop becomes
//
//	while (true) { cond = c; if (!cond) { break }; body }
//
// Conditions that cannot be moved are replaced by a BadExpr. It reports
// whether nodes other than statements were added.
func hoistCondition(g *cfg.Graph, id cfg.NodeID, namer names.Namer) bool {
	n := g.Node(id)
	kind, parent, body, ref := n.Kind, n.Parent, n.Body, n.Ref
	cond, _ := g.Condition(ref)
	at := cond.Span()
	reject := func(detail string) bool {
		err := errors.Unsupported(errors.PhaseCoroutine, at, "%s", detail)
		g.SetPayload(ref, &tree.ExprStmt{At: at, X: tree.AsExpression(tree.NewGarbage(at, err))})
		return false
	}
	switch {
	case len(calls(cond, tree.BuiltinYield)) > 0:
		return reject("yield inside a condition")
	case kind == cfg.KindLoop && (n.PostTest || n.Increment != cfg.NoNode):
		return reject("await in the condition of a post-test or counted loop")
	case kind == cfg.KindIf && (!g.Valid(parent) || g.Node(parent).Kind != cfg.KindStmtBlock):
		return reject("await in a condition outside a statement sequence")
	}

	name := namer.Fresh("cond")
	tmp := &tree.Ref{At: at, Name: name, Type: tree.TypeBool}
	decl := &tree.Decl{At: at, Name: name, Type: tree.TypeBool}
	assign := &tree.Assign{At: at, Name: name, Value: cond}

	if kind == cfg.KindIf {
		var children []cfg.NodeID
		for _, c := range g.Node(parent).Children {
			if c == id {
				children = append(children, g.NewStmt(decl), g.NewStmt(assign))
			}
			children = append(children, c)
		}
		g.SetChildren(parent, children)
		g.SetPayload(ref, &tree.ExprStmt{At: at, X: tmp})
		return false
	}

	b := g.Extend()
	exit := b.At(b.If(&tree.Not{At: at, X: tmp}, b.Block(b.At(b.Jump(tree.JumpBreak, ""), at)), cfg.NoNode), at)
	head := []cfg.NodeID{b.Stmt(decl), b.Stmt(assign), exit}
	if g.Valid(body) {
		head = append(head, body)
	}
	g.Node(id).Body = b.At(b.Block(head...), at)
	always := tree.BoolLit(true)
	always.At = at
	g.SetPayload(ref, &tree.ExprStmt{At: at, X: always})
	return true
}
func desugarBlock(g *cfg.Graph, id cfg.NodeID, namer names.Namer, generator tree.Name) {
	old := g.Node(id).Children
	var children []cfg.NodeID
	changed := false
	for _, c := range old {
		if !g.Valid(c) || g.Node(c).Kind != cfg.KindStmt {
			children = append(children, c)
			continue
		}
		ref := g.Node(c).Ref
		p, ok := g.Deref(ref)
		if !ok {
			children = append(children, c)
			continue
		}
		found := awaits(p)
		switch len(found) {
		case 0:
			children = append(children, c)
			continue
		case 1:
		default:
			g.SetPayload(ref, tree.NewGarbage(p.Span(), errors.Unsupported(errors.PhaseCoroutine, p.Span(), "%d awaits in one statement", len(found))))
			children = append(children, c)
			continue
		}
		changed = true
		before, rewritten := suspend(p, found[0], namer, generator)
		for _, s := range before {
			children = append(children, g.NewStmt(s))
		}
		g.SetPayload(ref, rewritten)
		children = append(children, c)
	}
	if changed {
		g.SetChildren(id, children)
	}
}

// suspend returns the statements that suspend on await and p with the
// await replaced by the synchronous result unpack.
func suspend(p tree.Node, await *tree.Call, namer names.Namer, generator tree.Name) ([]tree.Node, tree.Node) {
	at := await.At
	var before []tree.Node
	var promise tree.Expr
	if len(await.Args) > 0 {
		promise = await.Args[0]
	} else {
		promise = &tree.BadExpr{At: at, Diagnostic: "await without a promise"}
	}
	if _, ok := promise.(*tree.Ref); !ok {
		name := namer.Fresh("promise")
		before = append(before,
			&tree.Decl{At: at, Name: name, Type: tree.ExprType(promise)},
			&tree.Assign{At: at, Name: name, Value: promise},
		)
		promise = &tree.Ref{At: at, Name: name, Type: tree.ExprType(promise)}
	}
	gen := &tree.Ref{At: at, Name: generator}
	before = append(before,
		&tree.ExprStmt{At: at, X: &tree.Call{At: at, Callee: tree.BuiltinAwakeUpon, Args: []tree.Expr{promise, gen}}},
		&tree.ExprStmt{At: at, X: &tree.Call{At: at, Callee: tree.BuiltinYield}},
	)

	var fail tree.Expr = &tree.Literal{At: at}
	if flag, ok := handlerFlag(p, await); ok {
		fail = &tree.Ref{At: at, Name: flag, Type: tree.TypeBool}
		no := tree.BoolLit(false)
		no.At = at
		before = append(before, &tree.Assign{At: at, Name: flag, Value: no})
	}
	sync := &tree.Call{At: at, Callee: tree.BuiltinPromiseResultSync, Args: []tree.Expr{fail, promise}, Type: await.Type}
	rewritten := tree.RewriteExprs(p, func(s tree.Expr) tree.Expr {
		if s == tree.Expr(await) {
			return sync
		}
		return s
	})
	return before, rewritten
}

// handlerFlag finds the flag of the handler scope directly wrapping await.
func handlerFlag(p tree.Node, await *tree.Call) (tree.Name, bool) {
	var flag tree.Name
	found := false
	for _, e := range tree.OwnExprs(p) {
		tree.WalkExpr(e, func(s tree.Expr) bool {
			if found {
				return false
			}
			if f, inner, ok := translate.HandlerScopeFlag(s); ok && inner == tree.Expr(await) {
				flag, found = f, true
				return false
			}
			_, isFunc := s.(*tree.FuncLit)
			return !isFunc
		})
	}
	return flag, found
}

// awaits returns the await calls p evaluates, outside function literals.
func awaits(p tree.Node) []*tree.Call {
	var out []*tree.Call
	for _, e := range tree.OwnExprs(p) {
		out = append(out, calls(e, tree.BuiltinAwait)...)
	}
	return out
}

// suspensions returns the await and yield calls e evaluates.
func suspensions(e tree.Expr) []*tree.Call {
	return append(calls(e, tree.BuiltinAwait), calls(e, tree.BuiltinYield)...)
}

func calls(e tree.Expr, callee string) []*tree.Call {
	var out []*tree.Call
	tree.WalkExpr(e, func(s tree.Expr) bool {
		switch s := s.(type) {
		case *tree.FuncLit:
			return false
		case *tree.Call:
			if s.Callee == callee {
				out = append(out, s)
			}
		}
		return true
	})
	return out
}
