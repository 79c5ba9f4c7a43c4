package coroutine

import (
	"go.uber.org/zap"

	"github.com/wippyai/flowtree/cfg"
	"github.com/wippyai/flowtree/internal/exits"
	"github.com/wippyai/flowtree/internal/names"
	"github.com/wippyai/flowtree/internal/options"
	"github.com/wippyai/flowtree/internal/simplify"
	"github.com/wippyai/flowtree/tree"
)

// noCase is the caseIndex value that makes the next turn report done.
const noCase = -1

type machine struct {
	namer     names.Namer
	opts      options.Options
	output    tree.Name
	at        tree.Span
	paths     []*Path
	start     []int
	followOn  []int
	caseIndex tree.Name
	adjust    map[tree.Name]tree.Type
}

type dispatchCase struct {
	value int
	stmts []tree.Node
}

// Lower converts the suspendable body g into a state machine. g is not
// modified. output names the body's result variable; assignments to it
// are dropped since a generator reports values through its turns.
func Lower(g *cfg.Graph, namer names.Namer, opts options.Options, output tree.Name) *tree.ConvertedCoroutine {
	var at tree.Span
	if g.Valid(g.Root()) {
		at = g.Node(g.Root()).At
	}
	generator := namer.Fresh("generator")
	g = g.Clone()
	Desugar(g, namer, generator)

	m := &machine{
		namer:     namer,
		opts:      opts,
		output:    output,
		at:        at,
		paths:     BuildPaths(g, opts).Paths,
		caseIndex: namer.Fresh("caseIndex"),
		adjust:    make(map[tree.Name]tree.Type),
	}
	m.number()
	cases := m.cases()
	persistent := m.lift(cases)
	local := namer.Fresh("caseIndexLocal")
	body := m.emit(cases, local)

	Logger().Debug("lowered coroutine",
		zap.Int("paths", len(m.paths)),
		zap.Int("cases", len(cases)),
		zap.Int("persistent", len(persistent)))

	return &tree.ConvertedCoroutine{
		At:         at,
		Persistent: persistent,
		Generator:  generator,
		Helper:     namer.Fresh("convertedCoroutine"),
		Body:       body,
		NullAdjust: m.adjust,
	}
}

// needsFollowOn reports whether the branch after p's suspension must be
// decided when the next turn starts.
func needsFollowOn(p *Path) bool {
	if !p.Suspends || len(p.Followers) == 0 {
		return false
	}
	return len(p.Followers) > 1 || p.Followers[0].Cond != nil
}

func (m *machine) number() {
	m.start = make([]int, len(m.paths))
	m.followOn = make([]int, len(m.paths))
	next := 0
	for i, p := range m.paths {
		m.start[i] = next
		next++
		m.followOn[i] = noCase
		if needsFollowOn(p) {
			m.followOn[i] = next
			next++
		}
	}
}

func (m *machine) setCase(at tree.Span, v int) tree.Node {
	lit := tree.IntLit(v)
	lit.At = at
	return &tree.Assign{At: at, Name: m.caseIndex, Value: lit}
}

// transition selects the next case from followers, first match wins.
func (m *machine) transition(at tree.Span, followers []Follower) []tree.Node {
	var tail tree.Node
	for i := len(followers) - 1; i >= 0; i-- {
		f := followers[i]
		set := m.setCase(at, m.start[f.To])
		if f.Cond == nil {
			tail = set
			continue
		}
		n := &tree.If{At: at, Cond: f.Cond, Then: &tree.Block{At: at, Stmts: []tree.Node{set}}}
		if tail != nil {
			n.Else = &tree.Block{At: at, Stmts: []tree.Node{tail}}
		}
		tail = n
	}
	if tail == nil {
		return nil
	}
	return []tree.Node{tail}
}

func result(at tree.Span, callee string, args ...tree.Expr) tree.Node {
	return &tree.Return{At: at, Value: &tree.Call{At: at, Callee: callee, Args: args}}
}

func (m *machine) cases() []dispatchCase {
	var out []dispatchCase
	for i, p := range m.paths {
		out = append(out, dispatchCase{value: m.start[i], stmts: m.pathBody(p)})
		if m.followOn[i] != noCase {
			out = append(out, dispatchCase{value: m.followOn[i], stmts: m.transition(m.at, p.Followers)})
		}
	}
	return out
}

func (m *machine) pathBody(p *Path) []tree.Node {
	var stmts []tree.Node
	for _, e := range p.Elements {
		if a, ok := e.(*tree.Assign); ok && m.output != "" && a.Name == m.output {
			if !tree.IsPure(a.Value) {
				stmts = append(stmts, m.opts.Finish(&tree.ExprStmt{At: a.At, X: a.Value}))
			}
			continue
		}
		stmts = append(stmts, m.opts.Finish(e))
	}
	// The case index must be set before a trailing awakeUpon registers
	// the resumption.
	awake := false
	if n := len(stmts); n > 0 {
		if s, ok := stmts[n-1].(*tree.ExprStmt); ok {
			_, awake = tree.AsCall(s.X, tree.BuiltinAwakeUpon)
		}
	}
	at := m.at
	if n := len(p.Elements); n > 0 {
		at = p.Elements[n-1].Span()
	}

	switch {
	case p.Suspends:
		var y tree.Expr = p.Yield
		if y == nil {
			v := tree.VoidLit()
			v.At = at
			y = v
		}
		var tail []tree.Node
		if !tree.IsSimple(y) {
			tmp := m.namer.Fresh("tYield")
			tail = append(tail,
				&tree.Decl{At: at, Name: tmp, Type: tree.ExprType(y)},
				&tree.Assign{At: at, Name: tmp, Value: y})
			y = &tree.Ref{At: at, Name: tmp, Type: tree.ExprType(y)}
		}
		if i := p.Index; m.followOn[i] != noCase {
			tail = append(tail, m.setCase(at, m.followOn[i]))
		} else {
			tail = append(tail, m.transition(at, p.Followers)...)
		}
		if awake {
			last := stmts[len(stmts)-1]
			stmts = append(append(stmts[:len(stmts)-1:len(stmts)-1], tail...), last)
		} else {
			stmts = append(stmts, tail...)
		}
		stmts = append(stmts, result(at, tree.BuiltinValueResult, y))
	case p.FailExit:
		stmts = append(stmts, m.opts.Finish(&tree.Goal{At: at, Kind: tree.GoalPropagateFailure}))
	case p.Exit:
		stmts = append(stmts, result(at, tree.BuiltinDoneResult))
	default:
		stmts = append(stmts, m.transition(at, p.Followers)...)
	}
	return simplify.CombineDeclarations(stmts)
}

// lift moves locals that live across cases into the persistent list,
// which starts with the case index itself.
func (m *machine) lift(cases []dispatchCase) []tree.Node {
	bodies := make([][]tree.Node, len(cases))
	for i, c := range cases {
		bodies[i] = c.stmts
	}
	l := analyze(bodies)
	crossing := l.crossing()

	persistent := make([]tree.Node, 0, 1+crossing.len())
	persistent = append(persistent, tree.Combine(
		&tree.Decl{At: m.at, Name: m.caseIndex, Type: tree.TypeInt, Var: true},
		&tree.Assign{At: m.at, Name: m.caseIndex, Value: tree.IntLit(m.start[0])},
	))

	replaced := make(map[tree.Node]tree.Node)
	for _, i := range crossing.members() {
		name := l.names[i]
		switch d := l.decl[i].(type) {
		case *tree.Decl:
			persistent = append(persistent, m.sentinel(d))
			replaced[d] = nil
		case *tree.CombinedDeclaration:
			switch d.Initial.(type) {
			case *tree.Literal:
				decl := *d.Decl
				decl.Var = true
				persistent = append(persistent, tree.Combine(&decl, d.Init))
				replaced[d] = nil
			case *tree.FuncLit:
				persistent = append(persistent, d)
				replaced[d] = nil
			default:
				persistent = append(persistent, m.sentinel(d.Decl))
				replaced[d] = d.Init
			}
		default:
			continue
		}
		Logger().Debug("lifted local", zap.String("name", string(name)), zap.Int("case", l.declCase[i]))
	}

	for ci := range cases {
		var out []tree.Node
		for _, s := range cases[ci].stmts {
			r, ok := replaced[s]
			if !ok {
				out = append(out, s)
			} else if r != nil {
				out = append(out, r)
			}
		}
		cases[ci].stmts = out
	}
	return persistent
}

func (m *machine) sentinel(d *tree.Decl) tree.Node {
	zero, widens := tree.ZeroValue(d.Type, d.At)
	decl := &tree.Decl{At: d.At, Name: d.Name, Type: d.Type, Var: true}
	if widens {
		decl.Type = d.Type.OrNull()
		m.adjust[d.Name] = d.Type
	}
	return tree.Combine(decl, &tree.Assign{At: d.At, Name: d.Name, Value: zero})
}

func (m *machine) emit(cases []dispatchCase, local tree.Name) tree.Node {
	at := m.at
	loops := false
	var dc []tree.Case
	for _, c := range cases {
		if exits.Kinds(c.stmts).CanFallThrough() {
			loops = true
		}
		dc = append(dc, tree.Case{Values: []int{c.value}, Body: &tree.Block{At: at, Stmts: c.stmts}})
	}
	stmts := []tree.Node{
		tree.Combine(
			&tree.Decl{At: at, Name: local, Type: tree.TypeInt},
			&tree.Assign{At: at, Name: local, Value: &tree.Ref{At: at, Name: m.caseIndex, Type: tree.TypeInt}},
		),
		m.setCase(at, noCase),
		&tree.Dispatch{
			At:      at,
			Subject: &tree.Ref{At: at, Name: local, Type: tree.TypeInt},
			Cases:   dc,
			Else:    &tree.Block{At: at, Stmts: []tree.Node{result(at, tree.BuiltinDoneResult)}},
		},
	}
	if !loops {
		return &tree.Block{At: at, Stmts: stmts}
	}
	yes := tree.BoolLit(true)
	yes.At = at
	return &tree.Block{At: at, Stmts: []tree.Node{
		&tree.WhileLoop{At: at, Cond: yes, Body: &tree.Block{At: at, Stmts: stmts}},
	}}
}
