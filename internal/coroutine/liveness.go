package coroutine

import (
	"math/bits"

	"github.com/wippyai/flowtree/tree"
)

// slots is a fixed-capacity set of local slots or case numbers.
type slots []uint64

func newSlots(n int) slots {
	return make(slots, (n+63)/64)
}

func (s slots) add(i int) {
	s[i/64] |= 1 << (i % 64)
}

func (s slots) has(i int) bool {
	return i/64 < len(s) && s[i/64]&(1<<(i%64)) != 0
}

func (s slots) len() int {
	n := 0
	for _, w := range s {
		n += bits.OnesCount64(w)
	}
	return n
}

// members returns the elements in ascending order.
func (s slots) members() []int {
	out := make([]int, 0, s.len())
	for i, w := range s {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			out = append(out, i*64+b)
			w &= w - 1
		}
	}
	return out
}

// readGraph maps a local's slot to the slots its initializer reads.
// Only function literal initializers contribute edges: the literal reads
// those names whenever it is called, possibly in a later turn.
type readGraph map[int][]int

// closure adds to live every slot reachable from it.
func (rg readGraph) closure(live slots) slots {
	work := live.members()
	for len(work) > 0 {
		n := work[len(work)-1]
		work = work[:len(work)-1]
		for _, m := range rg[n] {
			if !live.has(m) {
				live.add(m)
				work = append(work, m)
			}
		}
	}
	return live
}

// liveness records, for each local declared at the top level of a case,
// which case declares it and which cases mention it.
type liveness struct {
	names    []tree.Name
	index    map[tree.Name]int
	declCase []int
	decl     []tree.Node
	users    []slots
	reads    readGraph
}

func analyze(cases [][]tree.Node) *liveness {
	l := &liveness{index: make(map[tree.Name]int), reads: make(readGraph)}
	for c, stmts := range cases {
		for _, s := range stmts {
			name, ok := tree.DeclaredName(s)
			if !ok {
				continue
			}
			if _, seen := l.index[name]; seen {
				continue
			}
			l.index[name] = len(l.names)
			l.names = append(l.names, name)
			l.declCase = append(l.declCase, c)
			l.decl = append(l.decl, s)
			l.users = append(l.users, newSlots(len(cases)))
		}
	}
	for c, stmts := range cases {
		block := &tree.Block{Stmts: stmts}
		m := tree.MentionsOf(block)
		for i, name := range l.names {
			if m.Uses(name) {
				l.users[i].add(c)
			}
		}
		// Local function literals are called by name.
		tree.WalkExprs(block, func(e tree.Expr) bool {
			if call, ok := e.(*tree.Call); ok {
				if i, ok := l.index[tree.Name(call.Callee)]; ok {
					l.users[i].add(c)
				}
			}
			return true
		})
	}
	for i, d := range l.decl {
		cd, ok := d.(*tree.CombinedDeclaration)
		if !ok {
			continue
		}
		if _, ok := cd.Initial.(*tree.FuncLit); !ok {
			continue
		}
		for name := range tree.ExprReads(cd.Initial) {
			if j, ok := l.index[name]; ok && j != i {
				l.reads[i] = appendUnique(l.reads[i], j)
			}
		}
	}
	return l
}

// crossing returns the locals mentioned by a case other than the one
// declaring them, closed over function literal reads.
func (l *liveness) crossing() slots {
	live := newSlots(len(l.names))
	for i, users := range l.users {
		n := users.len()
		if n > 1 || n == 1 && !users.has(l.declCase[i]) {
			live.add(i)
		}
	}
	return l.reads.closure(live)
}

func appendUnique(slice []int, val int) []int {
	for _, v := range slice {
		if v == val {
			return slice
		}
	}
	return append(slice, val)
}
