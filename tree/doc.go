// Package tree defines the Intermediate Tree shared by every flowtree pass.
//
// The tree is a tagged variant of structured control flow (Block, If, Try,
// WhileLoop, Dispatch, Break, Continue, Return, Goal, LabeledStmt,
// CombinedDeclaration, ConvertedCoroutine, Garbage) over a small leaf
// language of declarations, assignments and expression statements. The leaf
// language is only interpreted as far as the passes need: names read and
// written, calls by callee name, literals and function literals.
//
// Passes traverse the tree with a Folder, overriding the handlers they care
// about and inheriting structural recursion for the rest:
//
//	f := &tree.Folder[struct{}, int]{
//		Combine: tree.Sum,
//		Leaf: func(f *tree.Folder[struct{}, int], n tree.Node, _ struct{}) (tree.Node, int) {
//			return n, 1
//		},
//	}
//	_, leaves := f.Fold(root, struct{}{})
package tree
