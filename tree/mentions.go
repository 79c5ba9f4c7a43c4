package tree

// Mentions summarises the names a subtree touches.
type Mentions struct {
	Declared map[Name]bool
	Read     map[Name]bool
	Written  map[Name]bool
}

// Uses reports whether name is read or written.
func (m Mentions) Uses(name Name) bool {
	return m.Read[name] || m.Written[name]
}

// MentionsOf collects the names declared, read and written by n.
// Declarations inside function literals are local to the literal and are
// not reported; their reads and writes are.
func MentionsOf(n Node) Mentions {
	m := Mentions{
		Declared: map[Name]bool{},
		Read:     map[Name]bool{},
		Written:  map[Name]bool{},
	}
	m.node(n, true)
	return m
}

func (m Mentions) node(n Node, top bool) {
	Walk(n, func(s Node) bool {
		switch s := s.(type) {
		case *Decl:
			if top {
				m.Declared[s.Name] = true
			}
		case *Assign:
			m.Written[s.Name] = true
		case *CombinedDeclaration:
			if top {
				m.Declared[s.Decl.Name] = true
			}
			m.Written[s.Decl.Name] = true
		}
		for _, e := range OwnExprs(s) {
			m.expr(e)
		}
		return true
	})
}

func (m Mentions) expr(e Expr) {
	WalkExpr(e, func(s Expr) bool {
		switch s := s.(type) {
		case *Ref:
			m.Read[s.Name] = true
		case *FuncLit:
			m.node(s.Body, false)
			return false
		}
		return true
	})
}

// ExprReads returns the names e reads, including reads inside function
// literal bodies.
func ExprReads(e Expr) map[Name]bool {
	m := Mentions{Declared: map[Name]bool{}, Read: map[Name]bool{}, Written: map[Name]bool{}}
	m.expr(e)
	return m.Read
}

// Reads reports whether n reads name anywhere.
func Reads(n Node, name Name) bool {
	return MentionsOf(n).Read[name]
}
