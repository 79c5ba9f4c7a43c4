package flowtree

import (
	"go.uber.org/zap"

	"github.com/wippyai/flowtree/internal/coroutine"
	"github.com/wippyai/flowtree/internal/exits"
	"github.com/wippyai/flowtree/internal/options"
	"github.com/wippyai/flowtree/internal/simplify"
	"github.com/wippyai/flowtree/internal/translate"
	"github.com/wippyai/flowtree/tree"
)

// assemble runs the passes for one body.
//
// Ordinary bodies: translate, simplify, lower exit goals to returns of the
// output slot, return the output when control can fall off the end,
// collapse the tail, then split try regions for assign-once targets.
//
// Suspendable bodies either become a packaged state machine, or stay
// native generators whose exits are done returns, the terminal ones
// dropped.
func (t *Translator) assemble(b *Body) *Result {
	if b.Suspendable && t.opts.Coroutines == options.ToStateMachine {
		cc := coroutine.Lower(b.Graph, t.namer, t.opts, b.OutputName)
		return &Result{Tree: coroutine.Package(cc), Coroutine: cc}
	}

	root := translate.New(b.Graph, t.namer, t.opts).Translate()
	root = simplify.Run(root, t.opts, b.OutputName)

	exit := b.outputReturn
	if b.Suspendable {
		exit = doneReturn
	}
	root = lowerExits(root, b.Suspendable, exit)

	fallsOff := exits.Stmt(root).CanFallThrough()
	if fallsOff && (b.Suspendable || b.OutputName != "") {
		if !b.Suspendable && !declares(root, b.OutputName) {
			root = prepend(root, &tree.Decl{At: root.Span().LeftEdge(), Name: b.OutputName, Type: b.OutputType, Var: true})
		}
		root = appendStmt(root, exit(root.Span().RightEdge()))
	}

	root = simplify.CollapseTailReturns(root)
	root = translate.LowerTryRegions(root, t.namer, t.opts)
	if b.Suspendable {
		root = coroutine.DropTerminalDoneReturns(root)
	}
	Logger().Debug("assembled body",
		zap.String("body", b.Name),
		zap.Bool("falls_off", fallsOff))
	return &Result{Tree: root}
}

func (b *Body) outputReturn(at tree.Span) *tree.Return {
	if b.OutputName == "" {
		return &tree.Return{At: at}
	}
	return &tree.Return{At: at, Value: &tree.Ref{At: at, Name: b.OutputName, Type: b.OutputType}}
}

func doneReturn(at tree.Span) *tree.Return {
	done := tree.CallOf(tree.BuiltinDoneResult)
	done.At = at
	return &tree.Return{At: at, Value: done}
}

// lowerExits replaces exit goals, and bare returns of generators, with
// exit(at).
func lowerExits(root tree.Node, generator bool, exit func(tree.Span) *tree.Return) tree.Node {
	return tree.Rewrite(root, func(n tree.Node) tree.Node {
		switch n := n.(type) {
		case *tree.Goal:
			if n.Kind == tree.GoalExitFunction {
				return exit(n.At)
			}
		case *tree.Return:
			if generator && n.Value == nil {
				return exit(n.At)
			}
		}
		return n
	})
}

func declares(root tree.Node, name tree.Name) bool {
	found := false
	tree.Walk(root, func(n tree.Node) bool {
		if d, ok := tree.DeclaredName(n); ok && d == name {
			found = true
		}
		return !found
	})
	return found
}

func prepend(root tree.Node, s tree.Node) tree.Node {
	return &tree.Block{At: root.Span(), Stmts: append([]tree.Node{s}, tree.AsStatements(root)...)}
}

func appendStmt(root tree.Node, s tree.Node) tree.Node {
	stmts := append(append([]tree.Node(nil), tree.AsStatements(root)...), s)
	return &tree.Block{At: root.Span(), Stmts: stmts}
}
