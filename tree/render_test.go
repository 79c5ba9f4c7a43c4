package tree

import (
	"strings"
	"testing"

	"github.com/wippyai/flowtree/errors"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want string
	}{
		{"empty block", &Block{}, "{}"},
		{"decl with type", &Decl{Name: "x", Type: TypeInt, Var: true}, "var x: Int"},
		{"assign", &Assign{Name: "x", Value: StringLit("a")}, `x = "a"`},
		{
			"if without else",
			&If{Cond: &Not{X: RefTo("c")}, Then: &Block{Stmts: []Node{&Break{}}}, Else: &Block{}},
			"if (!c) { break }",
		},
		{
			"try",
			&Try{Tried: &Block{Stmts: []Node{&Goal{Kind: GoalPropagateFailure}}}, Recover: &Return{}},
			"try { FAIL } catch return",
		},
		{
			"dispatch",
			&Dispatch{
				Subject: RefTo("code"),
				Cases: []Case{
					{Values: []int{1}, Body: &Break{Label: "a"}},
					{Values: []int{2, 3}, Body: &Continue{Label: "b"}},
				},
				Else: &Block{},
			},
			"when (code) { 1 -> break a; 2, 3 -> continue b; else -> {} }",
		},
		{
			"combined declaration",
			Combine(&Decl{Name: "x"}, &Assign{Name: "x", Value: &Binary{Op: "==", X: IntLit(1), Y: NullLit()}}),
			"let x = (1 == null)",
		},
		{"goal jump", &Goal{Kind: GoalJump, Jump: JumpContinue, Target: "L"}, "GOAL(continue L)"},
		{"call", &ExprStmt{X: CallOf("f", VoidLit(), BoolLit(false))}, "f(void, false)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Render(tt.node); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderGarbageIsMarked(t *testing.T) {
	g := NewGarbage(Span{File: "f.yaml", Line: 3, Col: 2}, errors.Structural(errors.PhaseTranslate, Span{File: "f.yaml", Line: 3, Col: 2}, "missing payload"))
	got := Render(&Block{Stmts: []Node{g}})
	if !strings.Contains(got, "UNTRANSLATABLE(") || !strings.Contains(got, "f.yaml:3:2") || !strings.Contains(got, "missing payload") {
		t.Errorf("got %q", got)
	}
	if g.Kind != errors.KindStructural {
		t.Errorf("kind = %v", g.Kind)
	}
}

func TestRenderIndented(t *testing.T) {
	got := RenderIndented(&Block{Stmts: []Node{
		&Decl{Name: "x"},
		&LabeledStmt{Label: "L", Body: &Block{Stmts: []Node{&Break{Label: "L"}}}},
	}})
	want := "{\n  let x\n  L: {\n    break L\n  }\n}"
	if got != want {
		t.Errorf("got\n%s\nwant\n%s", got, want)
	}
}

func TestAsExpression(t *testing.T) {
	if e := AsExpression(&ExprStmt{X: RefTo("x")}); RenderExpr(e) != "x" {
		t.Errorf("got %s", RenderExpr(e))
	}
	e := AsExpression(&Break{})
	if _, ok := e.(*BadExpr); !ok {
		t.Errorf("break has no expression form, got %T", e)
	}
	if got := AsStatements(&Return{}); len(got) != 1 {
		t.Errorf("got %d statements", len(got))
	}
}
