package tree

import "github.com/wippyai/flowtree/errors"

// AsStatements returns n as a statement list.
func AsStatements(n Node) []Node {
	switch n := n.(type) {
	case nil:
		return nil
	case *Block:
		return n.Stmts
	}
	return []Node{n}
}

// AsExpression returns the expression form of n. Nodes with no expression
// form become a BadExpr carrying a diagnostic.
func AsExpression(n Node) Expr {
	switch n := n.(type) {
	case nil:
		return &Literal{Value: Void, Type: TypeVoid}
	case *ExprStmt:
		return n.X
	case *Garbage:
		return &BadExpr{At: n.At, Diagnostic: n.Diagnostic}
	case *Block:
		if len(n.Stmts) == 1 {
			return AsExpression(n.Stmts[0])
		}
		if len(n.Stmts) == 0 {
			return &Literal{At: n.At, Value: Void, Type: TypeVoid}
		}
	case *CombinedDeclaration:
		if fn, ok := n.Initial.(*FuncLit); ok {
			return fn
		}
	}
	err := errors.Unsupported(errors.PhaseTranslate, n.Span(), "%T has no expression form", n)
	return &BadExpr{At: n.Span(), Diagnostic: err.Error()}
}
