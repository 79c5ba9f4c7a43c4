package translate

import (
	"sort"

	"go.uber.org/zap"

	"github.com/wippyai/flowtree/internal/escape"
	"github.com/wippyai/flowtree/internal/names"
	"github.com/wippyai/flowtree/internal/options"
	"github.com/wippyai/flowtree/tree"
)

// LowerTryRegions rewrites every Try that assigns an assign-once local in
// both its tried and recover parts, for targets that reject that. Such
// locals are assigned to temporaries inside the Try and written back after
// it. Jumps leaving the Try are rerouted through an escape hatch so the
// write-back runs before they land.
func LowerTryRegions(root tree.Node, namer names.Namer, opts options.Options) tree.Node {
	if opts.MayAssignInBothTryAndRecover {
		return root
	}
	once := make(map[tree.Name]*tree.Decl)
	tree.Walk(root, func(n tree.Node) bool {
		var d *tree.Decl
		switch n := n.(type) {
		case *tree.Decl:
			d = n
		case *tree.CombinedDeclaration:
			d = n.Decl
		}
		if d != nil && !d.Var {
			once[d.Name] = d
		}
		return true
	})
	if len(once) == 0 {
		return root
	}

	l := &tryLowerer{namer: namer, once: once}
	f := &tree.Folder[tree.Node, struct{}]{
		Node: func(f *tree.Folder[tree.Node, struct{}], n tree.Node, _ tree.Node) (tree.Node, struct{}) {
			return f.Default(n, n)
		},
		Try: func(f *tree.Folder[tree.Node, struct{}], n *tree.Try, parent tree.Node) (tree.Node, struct{}) {
			inner, _ := f.Default(n, n)
			return l.lower(inner.(*tree.Try), parent), struct{}{}
		},
	}
	out, _ := f.Fold(root, nil)
	return out
}

type tryLowerer struct {
	namer names.Namer
	once  map[tree.Name]*tree.Decl
}

func assigned(n tree.Node) map[tree.Name]bool {
	out := make(map[tree.Name]bool)
	tree.Walk(n, func(m tree.Node) bool {
		if a, ok := m.(*tree.Assign); ok {
			out[a.Name] = true
		}
		return true
	})
	return out
}

func (l *tryLowerer) lower(n *tree.Try, parent tree.Node) tree.Node {
	inRecover := assigned(n.Recover)
	var both []tree.Name
	for name := range assigned(n.Tried) {
		if inRecover[name] && l.once[name] != nil {
			both = append(both, name)
		}
	}
	if len(both) == 0 {
		return n
	}
	sort.Slice(both, func(i, j int) bool { return both[i] < both[j] })

	at := n.At
	temps := make(map[tree.Name]tree.Name, len(both))
	var before, after []tree.Node
	for _, name := range both {
		tmp := l.namer.Fresh(string(name))
		temps[name] = tmp
		typ := l.once[name].Type
		zero, widens := tree.ZeroValue(typ, at.LeftEdge())
		if widens {
			typ = typ.OrNull()
		}
		before = append(before, tree.Combine(
			&tree.Decl{At: at.LeftEdge(), Name: tmp, Type: typ, Var: true},
			&tree.Assign{At: at.LeftEdge(), Name: tmp, Value: zero},
		))
		var val tree.Expr = &tree.Ref{At: at.RightEdge(), Name: tmp, Type: typ}
		if widens {
			val = &tree.NotNull{At: at.RightEdge(), X: val}
		}
		after = append(after, &tree.Assign{At: at.RightEdge(), Name: name, Value: val})
	}

	rename := func(m tree.Node) tree.Node {
		m = tree.Rewrite(m, func(s tree.Node) tree.Node {
			if a, ok := s.(*tree.Assign); ok {
				if tmp, ok := temps[a.Name]; ok {
					c := *a
					c.Name = tmp
					return &c
				}
			}
			return s
		})
		return tree.RewriteExprs(m, func(e tree.Expr) tree.Expr {
			if r, ok := e.(*tree.Ref); ok {
				if tmp, ok := temps[r.Name]; ok {
					c := *r
					c.Name = tmp
					return &c
				}
			}
			return e
		})
	}
	region := &tree.Try{At: at, Tried: rename(n.Tried), Recover: rename(n.Recover)}

	Logger().Debug("lowering try region",
		zap.Stringer("at", at),
		zap.Int("temporaries", len(both)))

	out := append([]tree.Node(nil), before...)
	if h := escape.Build(at, l.namer, parent, []tree.Node{region}); h != nil {
		out = append(out, h.Apply(region, after...)...)
	} else {
		out = append(out, region)
		out = append(out, after...)
	}
	return &tree.Block{At: at, Stmts: out}
}
