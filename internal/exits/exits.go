// Package exits computes how control can leave a statement sequence.
package exits

import (
	"sort"
	"strings"

	"github.com/wippyai/flowtree/tree"
)

// Kind is a way of leaving a statement.
type Kind uint8

const (
	Normal Kind = iota
	Return
	PropagateFailure
	Break
	Continue
)

// Exit is a kind plus, for Break and Continue, the label ("" for the
// innermost loop).
type Exit struct {
	Kind  Kind
	Label tree.Name
}

func (e Exit) String() string {
	switch e.Kind {
	case Normal:
		return "normal"
	case Return:
		return "return"
	case PropagateFailure:
		return "fail"
	}
	kw := "break"
	if e.Kind == Continue {
		kw = "continue"
	}
	if e.Label == "" {
		return kw
	}
	return kw + " " + string(e.Label)
}

// Set is a set of exits.
type Set map[Exit]struct{}

// Of returns a set holding es.
func Of(es ...Exit) Set {
	s := make(Set, len(es))
	for _, e := range es {
		s[e] = struct{}{}
	}
	return s
}

// Has reports whether e is in s.
func (s Set) Has(e Exit) bool {
	_, ok := s[e]
	return ok
}

// CanFallThrough reports whether Normal is in s.
func (s Set) CanFallThrough() bool { return s.Has(Exit{Kind: Normal}) }

func (s Set) add(o Set) {
	for e := range o {
		s[e] = struct{}{}
	}
}

// Sorted returns the exits in a stable order.
func (s Set) Sorted() []Exit {
	out := make([]Exit, 0, len(s))
	for e := range s {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func (s Set) String() string {
	parts := make([]string, 0, len(s))
	for _, e := range s.Sorted() {
		parts = append(parts, e.String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

var normal = Exit{Kind: Normal}

// Kinds returns the ways control can leave stmts. The result is never
// empty. Statements after one that cannot fall through are unreachable and
// ignored.
func Kinds(stmts []tree.Node) Set {
	out := Of(normal)
	for _, s := range stmts {
		if !out.Has(normal) {
			break
		}
		delete(out, normal)
		out.add(Stmt(s))
	}
	return out
}

// Stmt returns the ways control can leave a single statement.
func Stmt(n tree.Node) Set {
	switch n := n.(type) {
	case nil:
		return Of(normal)
	case *tree.Block:
		return Kinds(n.Stmts)
	case *tree.Return:
		return Of(Exit{Kind: Return})
	case *tree.Break:
		return Of(Exit{Kind: Break, Label: n.Label})
	case *tree.Continue:
		return Of(Exit{Kind: Continue, Label: n.Label})
	case *tree.Garbage:
		return Of(Exit{Kind: PropagateFailure})
	case *tree.Goal:
		switch n.Kind {
		case tree.GoalExitFunction:
			return Of(Exit{Kind: Return})
		case tree.GoalPropagateFailure:
			return Of(Exit{Kind: PropagateFailure})
		}
		if n.Jump == tree.JumpContinue {
			return Of(Exit{Kind: Continue, Label: n.Target})
		}
		return Of(Exit{Kind: Break, Label: n.Target})
	case *tree.If:
		out := Stmt(n.Then)
		out.add(Stmt(n.Else))
		return out
	case *tree.Try:
		out := Stmt(n.Tried)
		delete(out, Exit{Kind: PropagateFailure})
		out.add(Stmt(n.Recover))
		return out
	case *tree.WhileLoop:
		return loop(Stmt(n.Body), "", tree.IsAlwaysTrue(n.Cond))
	case *tree.LabeledStmt:
		if w, ok := n.Body.(*tree.WhileLoop); ok {
			return loop(Stmt(w.Body), n.Label, tree.IsAlwaysTrue(w.Cond))
		}
		out := Stmt(n.Body)
		brk := Exit{Kind: Break, Label: n.Label}
		if out.Has(brk) {
			delete(out, brk)
			out[normal] = struct{}{}
		}
		delete(out, Exit{Kind: Continue, Label: n.Label})
		return out
	case *tree.Dispatch:
		if len(n.Cases) == 0 && n.Else == nil {
			return Of(normal)
		}
		out := Set{}
		for _, c := range n.Cases {
			out.add(Stmt(c.Body))
		}
		// No exhaustiveness check: an absent else can always be taken.
		out.add(Stmt(n.Else))
		return out
	case *tree.ConvertedCoroutine:
		return Of(Exit{Kind: Return})
	}
	// Declarations, assignments and expression statements.
	return Of(normal)
}

// loop computes the exits of a loop whose body exits with body. label is
// the loop's own label, if any. Falling off the body is kept as Normal, so
// the result over-approximates.
func loop(body Set, label tree.Name, alwaysTrue bool) Set {
	out := Set{}
	broke := false
	for e := range body {
		if (e.Kind == Break || e.Kind == Continue) && (e.Label == "" || e.Label == label) {
			if e.Kind == Break {
				broke = true
			}
			continue
		}
		out[e] = struct{}{}
	}
	if broke || !alwaysTrue || len(out) == 0 {
		out[normal] = struct{}{}
	}
	return out
}
