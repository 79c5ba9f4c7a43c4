package tree

import (
	"github.com/wippyai/flowtree/errors"
)

// Node is a statement-level Intermediate Tree node.
type Node interface {
	Span() Span
	// Children returns the direct statement-level children.
	Children() []Node
	node()
}

// JumpKind distinguishes break from continue.
type JumpKind uint8

const (
	JumpBreak JumpKind = iota
	JumpContinue
)

func (k JumpKind) String() string {
	if k == JumpContinue {
		return "continue"
	}
	return "break"
}

// GoalKind is the kind of a non-structural control transfer.
type GoalKind uint8

const (
	GoalExitFunction GoalKind = iota
	GoalPropagateFailure
	GoalJump
)

// Decl declares a local. It never carries an initializer; see
// CombinedDeclaration.
type Decl struct {
	At   Span
	Name Name
	Type Type
	Var  bool
	// FailFlag marks a declaration that only carries the failure flag of
	// a handler scope.
	FailFlag bool
}

// Assign stores a value into a name.
type Assign struct {
	At    Span
	Name  Name
	Value Expr
}

// ExprStmt evaluates an expression for effect.
type ExprStmt struct {
	At Span
	X  Expr
}

// Block is a sequence of statements with its own scope.
type Block struct {
	At    Span
	Stmts []Node
}

// If branches on a condition. Else may be nil.
type If struct {
	At   Span
	Cond Expr
	Then Node
	Else Node
}

// Try runs Tried and, when it propagates failure, Recover.
type Try struct {
	At      Span
	Tried   Node
	Recover Node
}

// WhileLoop is a pre-test loop.
type WhileLoop struct {
	At   Span
	Cond Expr
	Body Node
}

// Case is one arm of a Dispatch.
type Case struct {
	Values []int
	Body   Node
}

// Dispatch switches on an integer subject. Else may be nil.
type Dispatch struct {
	At      Span
	Subject Expr
	Cases   []Case
	Else    Node
}

// Break leaves the labeled statement or, unlabeled, the innermost loop.
type Break struct {
	At    Span
	Label Name
}

// Continue restarts the labeled or innermost loop.
type Continue struct {
	At    Span
	Label Name
}

// Return leaves the function. Value may be nil.
type Return struct {
	At    Span
	Value Expr
}

// Goal is a control transfer whose rendering the backend decides.
type Goal struct {
	At     Span
	Kind   GoalKind
	Jump   JumpKind
	Target Name
}

// LabeledStmt attaches a label to a statement. OrElse marks the blocks
// introduced by flag-based or-else translation.
type LabeledStmt struct {
	At     Span
	Label  Name
	Body   Node
	OrElse bool
}

// CombinedDeclaration is a declaration merged with its initializing
// assignment. Init.Value and Initial are the same expression. Func marks
// a constant bound to a function literal, which stands as a named local
// function.
type CombinedDeclaration struct {
	At      Span
	Decl    *Decl
	Init    *Assign
	Initial Expr
	Func    bool
}

// ConvertedCoroutine is a suspendable body lowered to a state machine.
type ConvertedCoroutine struct {
	At         Span
	Persistent []Node
	Generator  Name
	Helper     Name
	Body       Node
	// NullAdjust maps lifted names whose sentinel widened the type to
	// their declared type.
	NullAdjust map[Name]Type
}

// Garbage stands in for something that could not be translated.
type Garbage struct {
	At         Span
	Diagnostic string
	Kind       errors.Kind
}

func (n *Decl) Span() Span                { return n.At }
func (n *Assign) Span() Span              { return n.At }
func (n *ExprStmt) Span() Span            { return n.At }
func (n *Block) Span() Span               { return n.At }
func (n *If) Span() Span                  { return n.At }
func (n *Try) Span() Span                 { return n.At }
func (n *WhileLoop) Span() Span           { return n.At }
func (n *Dispatch) Span() Span            { return n.At }
func (n *Break) Span() Span               { return n.At }
func (n *Continue) Span() Span            { return n.At }
func (n *Return) Span() Span              { return n.At }
func (n *Goal) Span() Span                { return n.At }
func (n *LabeledStmt) Span() Span         { return n.At }
func (n *CombinedDeclaration) Span() Span { return n.At }
func (n *ConvertedCoroutine) Span() Span  { return n.At }
func (n *Garbage) Span() Span             { return n.At }

func (*Decl) Children() []Node                { return nil }
func (*Assign) Children() []Node              { return nil }
func (*ExprStmt) Children() []Node            { return nil }
func (n *Block) Children() []Node             { return n.Stmts }
func (n *If) Children() []Node                { return nonNil(n.Then, n.Else) }
func (n *Try) Children() []Node               { return nonNil(n.Tried, n.Recover) }
func (n *WhileLoop) Children() []Node         { return nonNil(n.Body) }
func (*Break) Children() []Node               { return nil }
func (*Continue) Children() []Node            { return nil }
func (*Return) Children() []Node              { return nil }
func (*Goal) Children() []Node                { return nil }
func (n *LabeledStmt) Children() []Node       { return nonNil(n.Body) }
func (*CombinedDeclaration) Children() []Node { return nil }
func (*Garbage) Children() []Node             { return nil }

func (n *Dispatch) Children() []Node {
	out := make([]Node, 0, len(n.Cases)+1)
	for _, c := range n.Cases {
		out = append(out, c.Body)
	}
	return append(out, nonNil(n.Else)...)
}

func (n *ConvertedCoroutine) Children() []Node {
	out := make([]Node, 0, len(n.Persistent)+1)
	out = append(out, n.Persistent...)
	return append(out, nonNil(n.Body)...)
}

func (*Decl) node()                {}
func (*Assign) node()              {}
func (*ExprStmt) node()            {}
func (*Block) node()               {}
func (*If) node()                  {}
func (*Try) node()                 {}
func (*WhileLoop) node()           {}
func (*Dispatch) node()            {}
func (*Break) node()               {}
func (*Continue) node()            {}
func (*Return) node()              {}
func (*Goal) node()                {}
func (*LabeledStmt) node()         {}
func (*CombinedDeclaration) node() {}
func (*ConvertedCoroutine) node()  {}
func (*Garbage) node()             {}

func nonNil(ns ...Node) []Node {
	out := ns[:0:0]
	for _, n := range ns {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

// NewGarbage converts err into a placeholder node at at.
func NewGarbage(at Span, err *errors.Error) *Garbage {
	return &Garbage{At: at, Diagnostic: err.Error(), Kind: err.Kind}
}

// Combine merges a declaration and its initializing assignment.
func Combine(decl *Decl, init *Assign) *CombinedDeclaration {
	return &CombinedDeclaration{
		At:      decl.At.Join(init.At),
		Decl:    decl,
		Init:    init,
		Initial: init.Value,
	}
}

// DeclaredName returns the name n declares, if it is a declaration.
func DeclaredName(n Node) (Name, bool) {
	switch n := n.(type) {
	case *Decl:
		return n.Name, true
	case *CombinedDeclaration:
		return n.Decl.Name, true
	}
	return "", false
}

// IsEmpty reports whether n does nothing.
func IsEmpty(n Node) bool {
	if n == nil {
		return true
	}
	b, ok := n.(*Block)
	if !ok {
		return false
	}
	for _, s := range b.Stmts {
		if !IsEmpty(s) {
			return false
		}
	}
	return true
}

// IsFailure reports whether n is exactly a failure-propagation goal,
// possibly inside a single-statement block.
func IsFailure(n Node) bool {
	switch n := n.(type) {
	case *Goal:
		return n.Kind == GoalPropagateFailure
	case *Block:
		return len(n.Stmts) == 1 && IsFailure(n.Stmts[0])
	}
	return false
}

// Seq builds a block from stmts, flattening nested blocks and dropping
// nils.
func Seq(at Span, stmts ...Node) *Block {
	out := make([]Node, 0, len(stmts))
	for _, s := range stmts {
		switch s := s.(type) {
		case nil:
		case *Block:
			out = append(out, s.Stmts...)
		default:
			out = append(out, s)
		}
	}
	return &Block{At: at, Stmts: out}
}
