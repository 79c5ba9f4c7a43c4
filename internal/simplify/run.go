package simplify

import (
	"github.com/wippyai/flowtree/internal/options"
	"github.com/wippyai/flowtree/tree"
)

// Run applies the block fixups bottom-up, then erases void values when
// void is not reified, then migrates declarations. output names the
// variable read after the body, if any.
func Run(root tree.Node, opts options.Options, output tree.Name) tree.Node {
	root = Fixup(root)
	if opts.Void == options.Erased {
		root = EraseVoid(root)
	}
	return MigrateDeclarations(root, output)
}

// All runs every rewrite including CollapseTailReturns.
func All(root tree.Node, opts options.Options, output tree.Name) tree.Node {
	return CollapseTailReturns(Run(root, opts, output))
}

// Fixup applies FixBlock to every block of root and flattens rethrowing
// tries that are not block children.
func Fixup(root tree.Node) tree.Node {
	f := &tree.Folder[struct{}, struct{}]{
		Block: func(f *tree.Folder[struct{}, struct{}], n *tree.Block, x struct{}) (tree.Node, struct{}) {
			m, _ := f.Default(n, x)
			b := m.(*tree.Block)
			stmts := FixBlock(b.Stmts)
			if sameNodes(stmts, b.Stmts) {
				return b, x
			}
			return &tree.Block{At: b.At, Stmts: stmts}, x
		},
		Try: func(f *tree.Folder[struct{}, struct{}], n *tree.Try, x struct{}) (tree.Node, struct{}) {
			m, _ := f.Default(n, x)
			return FlattenRethrow(m), x
		},
	}
	out, _ := f.Fold(root, struct{}{})
	return out
}
