package tree

import (
	"fmt"
	"strconv"
	"strings"
)

// Render prints n as compact single-line pseudo-code. It is a diagnostic
// form, not target code.
func Render(n Node) string {
	p := &printer{}
	p.node(n)
	return p.b.String()
}

// RenderIndented prints n as indented multi-line pseudo-code.
func RenderIndented(n Node) string {
	p := &printer{multi: true}
	p.node(n)
	return p.b.String()
}

// RenderExpr prints e as pseudo-code.
func RenderExpr(e Expr) string {
	p := &printer{}
	p.expr(e)
	return p.b.String()
}

type printer struct {
	b     strings.Builder
	depth int
	multi bool
}

func (p *printer) open() {
	p.b.WriteByte('{')
	p.depth++
}

func (p *printer) sep(first bool) {
	if p.multi {
		p.b.WriteByte('\n')
		p.b.WriteString(strings.Repeat("  ", p.depth))
		return
	}
	if first {
		p.b.WriteByte(' ')
	} else {
		p.b.WriteString("; ")
	}
}

func (p *printer) close() {
	p.depth--
	if p.multi {
		p.b.WriteByte('\n')
		p.b.WriteString(strings.Repeat("  ", p.depth))
	} else {
		p.b.WriteByte(' ')
	}
	p.b.WriteByte('}')
}

func (p *printer) list(ns []Node) {
	if len(ns) == 0 {
		p.b.WriteString("{}")
		return
	}
	p.open()
	for i, s := range ns {
		p.sep(i == 0)
		p.node(s)
	}
	p.close()
}

func (p *printer) node(n Node) {
	switch n := n.(type) {
	case nil:
		p.b.WriteString("{}")
	case *Block:
		p.list(n.Stmts)
	case *Decl:
		p.decl(n)
	case *Assign:
		p.b.WriteString(string(n.Name))
		p.b.WriteString(" = ")
		p.expr(n.Value)
	case *ExprStmt:
		p.expr(n.X)
	case *If:
		p.b.WriteString("if (")
		p.expr(n.Cond)
		p.b.WriteString(") ")
		p.node(n.Then)
		if !IsEmpty(n.Else) {
			p.b.WriteString(" else ")
			p.node(n.Else)
		}
	case *Try:
		p.b.WriteString("try ")
		p.node(n.Tried)
		p.b.WriteString(" catch ")
		p.node(n.Recover)
	case *WhileLoop:
		p.b.WriteString("while (")
		p.expr(n.Cond)
		p.b.WriteString(") ")
		p.node(n.Body)
	case *Dispatch:
		p.b.WriteString("when (")
		p.expr(n.Subject)
		p.b.WriteString(") ")
		p.open()
		for i, c := range n.Cases {
			p.sep(i == 0)
			for j, v := range c.Values {
				if j > 0 {
					p.b.WriteString(", ")
				}
				p.b.WriteString(strconv.Itoa(v))
			}
			p.b.WriteString(" -> ")
			p.node(c.Body)
		}
		if n.Else != nil {
			p.sep(len(n.Cases) == 0)
			p.b.WriteString("else -> ")
			p.node(n.Else)
		}
		p.close()
	case *Break:
		p.jump("break", n.Label)
	case *Continue:
		p.jump("continue", n.Label)
	case *Return:
		p.b.WriteString("return")
		if n.Value != nil {
			p.b.WriteByte(' ')
			p.expr(n.Value)
		}
	case *Goal:
		switch n.Kind {
		case GoalExitFunction:
			p.b.WriteString("EXIT")
		case GoalPropagateFailure:
			p.b.WriteString("FAIL")
		default:
			p.b.WriteString("GOAL(")
			p.jump(n.Jump.String(), n.Target)
			p.b.WriteByte(')')
		}
	case *LabeledStmt:
		p.b.WriteString(string(n.Label))
		p.b.WriteString(": ")
		p.node(n.Body)
	case *CombinedDeclaration:
		if fn, ok := n.Initial.(*FuncLit); ok && n.Func {
			p.b.WriteString("fn ")
			p.b.WriteString(string(n.Decl.Name))
			p.params(fn.Params)
			p.b.WriteByte(' ')
			p.node(fn.Body)
			return
		}
		p.decl(n.Decl)
		p.b.WriteString(" = ")
		p.expr(n.Initial)
	case *ConvertedCoroutine:
		p.b.WriteString("coroutine ")
		p.b.WriteString(string(n.Helper))
		p.params([]Name{n.Generator})
		p.b.WriteByte(' ')
		stmts := append(append([]Node(nil), n.Persistent...), n.Body)
		p.list(stmts)
	case *Garbage:
		p.garbage(n.Diagnostic)
	default:
		fmt.Fprintf(&p.b, "<%T>", n)
	}
}

func (p *printer) decl(d *Decl) {
	if d.Var {
		p.b.WriteString("var ")
	} else {
		p.b.WriteString("let ")
	}
	p.b.WriteString(string(d.Name))
	if d.Type.Valid() {
		p.b.WriteString(": ")
		p.b.WriteString(d.Type.String())
	}
}

func (p *printer) jump(kw string, label Name) {
	p.b.WriteString(kw)
	if label != "" {
		p.b.WriteByte(' ')
		p.b.WriteString(string(label))
	}
}

func (p *printer) params(ps []Name) {
	p.b.WriteByte('(')
	for i, n := range ps {
		if i > 0 {
			p.b.WriteString(", ")
		}
		p.b.WriteString(string(n))
	}
	p.b.WriteByte(')')
}

func (p *printer) garbage(diag string) {
	p.b.WriteString("UNTRANSLATABLE(")
	p.b.WriteString(strconv.Quote(diag))
	p.b.WriteByte(')')
}

func (p *printer) expr(e Expr) {
	switch e := e.(type) {
	case nil:
		p.b.WriteString("<nil>")
	case *Ref:
		p.b.WriteString(string(e.Name))
	case *Literal:
		p.b.WriteString(literalText(e.Value))
	case *Call:
		p.b.WriteString(e.Callee)
		p.b.WriteByte('(')
		for i, a := range e.Args {
			if i > 0 {
				p.b.WriteString(", ")
			}
			p.expr(a)
		}
		p.b.WriteByte(')')
	case *Binary:
		p.b.WriteByte('(')
		p.expr(e.X)
		p.b.WriteByte(' ')
		p.b.WriteString(e.Op)
		p.b.WriteByte(' ')
		p.expr(e.Y)
		p.b.WriteByte(')')
	case *Not:
		p.b.WriteByte('!')
		p.expr(e.X)
	case *NotNull:
		p.expr(e.X)
		p.b.WriteString("!!")
	case *FuncLit:
		p.b.WriteString("fn")
		p.params(e.Params)
		p.b.WriteByte(' ')
		p.node(e.Body)
	case *BadExpr:
		p.garbage(e.Diagnostic)
	default:
		fmt.Fprintf(&p.b, "<%T>", e)
	}
}

func literalText(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case VoidValue:
		return "void"
	case string:
		return strconv.Quote(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return fmt.Sprint(v)
}
