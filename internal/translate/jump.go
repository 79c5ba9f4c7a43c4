package translate

import (
	"github.com/wippyai/flowtree/cfg"
	"github.com/wippyai/flowtree/errors"
	"github.com/wippyai/flowtree/internal/options"
	"github.com/wippyai/flowtree/tree"
)

// jump translates a break or continue. Under the exception strategy an
// or-else becomes a try whose label no longer exists, so a break to it
// propagates the failure into the recover part instead.
func (t *Translator) jump(id cfg.NodeID, n *cfg.Node) tree.Node {
	target, ok := t.g.Target(id)
	if !ok {
		return tree.NewGarbage(n.At, errors.UnresolvedJump(n.At, n.Jump.String(), string(n.Target)))
	}
	if n.Jump == tree.JumpContinue {
		return &tree.Continue{At: n.At, Label: n.Target}
	}
	if t.opts.Failure == options.ExceptionBased && t.g.Node(target).Kind == cfg.KindOrElse {
		return &tree.Goal{At: n.At, Kind: tree.GoalPropagateFailure}
	}
	return &tree.Break{At: n.At, Label: n.Target}
}
