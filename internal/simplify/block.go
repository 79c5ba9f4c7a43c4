package simplify

import (
	"github.com/wippyai/flowtree/tree"
)

// FixBlock applies the block-local rewrites to stmts.
func FixBlock(stmts []tree.Node) []tree.Node {
	stmts = spliceBlocks(stmts)
	stmts = MergeAdjacentIfs(stmts)
	stmts = CombineDeclarations(stmts)
	if flat := FlattenRethrows(stmts); !sameNodes(flat, stmts) {
		stmts = CombineDeclarations(flat)
	}
	return stmts
}

func spliceBlocks(stmts []tree.Node) []tree.Node {
	nested := false
	for _, s := range stmts {
		if _, ok := s.(*tree.Block); ok {
			nested = true
			break
		}
	}
	if !nested {
		return stmts
	}
	out := make([]tree.Node, 0, len(stmts))
	for _, s := range stmts {
		if b, ok := s.(*tree.Block); ok {
			out = append(out, b.Stmts...)
			continue
		}
		out = append(out, s)
	}
	return out
}

func sameNodes(a, b []tree.Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// MergeAdjacentIfs merges `if (c) A else B; if (c) C else D` into
// `if (c) { A; C } else { B; D }`, and likewise for `!c` with the second
// pair swapped. The condition must be pure and not written by A or B.
func MergeAdjacentIfs(stmts []tree.Node) []tree.Node {
	var out []tree.Node
	for i, s := range stmts {
		if len(out) > 0 {
			prev, ok1 := out[len(out)-1].(*tree.If)
			next, ok2 := s.(*tree.If)
			if ok1 && ok2 {
				if merged, ok := mergeIfs(prev, next); ok {
					out[len(out)-1] = merged
					continue
				}
			}
		}
		if out == nil && i > 0 {
			out = append(out, stmts[:i]...)
		}
		out = append(out, s)
	}
	if out == nil {
		return stmts
	}
	return out
}

func mergeIfs(a, b *tree.If) (*tree.If, bool) {
	same := tree.EqualExpr(a.Cond, b.Cond)
	negated := !same && tree.IsNegation(a.Cond, b.Cond)
	if !same && !negated {
		return nil, false
	}
	if !tree.IsPure(a.Cond) {
		return nil, false
	}
	reads := tree.ExprReads(a.Cond)
	for _, branch := range []tree.Node{a.Then, a.Else} {
		if branch == nil {
			continue
		}
		for name := range tree.MentionsOf(branch).Written {
			if reads[name] {
				return nil, false
			}
		}
	}
	then, els := b.Then, b.Else
	if negated {
		then, els = els, then
	}
	at := a.At.Join(b.At)
	merged := &tree.If{At: at, Cond: a.Cond, Then: tree.Seq(at, a.Then, then)}
	if e := tree.Seq(at, a.Else, els); len(e.Stmts) > 0 {
		merged.Else = e
	}
	return merged, true
}

// CombineDeclarations moves each declaration forward to its initializing
// assignment, when nothing in between reads it, and merges the two into a
// CombinedDeclaration. A constant initialized with a function literal
// becomes a named local function.
func CombineDeclarations(stmts []tree.Node) []tree.Node {
	stmts = hoistDeclarations(stmts)
	out := make([]tree.Node, 0, len(stmts))
	for _, s := range stmts {
		if a, ok := s.(*tree.Assign); ok && len(out) > 0 {
			if d, ok := out[len(out)-1].(*tree.Decl); ok && d.Name == a.Name && !tree.ExprReads(a.Value)[d.Name] {
				out[len(out)-1] = combine(d, a)
				continue
			}
		}
		if cd, ok := s.(*tree.CombinedDeclaration); ok && !cd.Func {
			if _, isFunc := cd.Initial.(*tree.FuncLit); isFunc && !cd.Decl.Var {
				c := *cd
				c.Func = true
				s = &c
			}
		}
		out = append(out, s)
	}
	return out
}

func combine(d *tree.Decl, a *tree.Assign) *tree.CombinedDeclaration {
	cd := tree.Combine(d, a)
	_, isFunc := a.Value.(*tree.FuncLit)
	cd.Func = isFunc && !d.Var
	return cd
}

func hoistDeclarations(stmts []tree.Node) []tree.Node {
	out := append([]tree.Node(nil), stmts...)
	for i := 0; i < len(out); i++ {
		d, ok := out[i].(*tree.Decl)
		if !ok {
			continue
		}
		j := firstMention(out[i+1:], d.Name)
		if j <= 0 {
			continue
		}
		j += i + 1
		a, ok := out[j].(*tree.Assign)
		if !ok || a.Name != d.Name || tree.ExprReads(a.Value)[d.Name] {
			continue
		}
		copy(out[i:j-1], out[i+1:j])
		out[j-1] = d
		i--
	}
	return out
}

func firstMention(stmts []tree.Node, name tree.Name) int {
	for i, s := range stmts {
		m := tree.MentionsOf(s)
		if m.Uses(name) || m.Declared[name] {
			return i
		}
	}
	return -1
}

// FlattenRethrows replaces each `try T catch FAIL` in stmts by the
// statements of T.
func FlattenRethrows(stmts []tree.Node) []tree.Node {
	var out []tree.Node
	for i, s := range stmts {
		t, ok := s.(*tree.Try)
		if !ok || !tree.IsFailure(t.Recover) {
			if out != nil {
				out = append(out, s)
			}
			continue
		}
		if out == nil {
			out = append(out, stmts[:i]...)
		}
		out = append(out, tree.AsStatements(t.Tried)...)
	}
	if out == nil {
		return stmts
	}
	return out
}

// FlattenRethrow returns T for `try T catch FAIL` and n otherwise.
func FlattenRethrow(n tree.Node) tree.Node {
	if t, ok := n.(*tree.Try); ok && tree.IsFailure(t.Recover) {
		return t.Tried
	}
	return n
}
