package interp

import (
	"fmt"
	"testing"

	"github.com/wippyai/flowtree/tree"
)

func block(stmts ...tree.Node) *tree.Block { return &tree.Block{Stmts: stmts} }

func call(callee string, args ...tree.Expr) *tree.ExprStmt {
	return &tree.ExprStmt{X: tree.CallOf(callee, args...)}
}

func TestRun(t *testing.T) {
	x := tree.RefTo("x")
	tests := []struct {
		name string
		body tree.Node
		want Value
	}{
		{
			"arithmetic",
			block(
				tree.Combine(&tree.Decl{Name: "x", Var: true}, &tree.Assign{Name: "x", Value: tree.IntLit(2)}),
				&tree.Assign{Name: "x", Value: &tree.Binary{Op: "*", X: x, Y: tree.IntLit(21)}},
				&tree.Return{Value: x},
			),
			42,
		},
		{
			"labeled loop",
			block(
				tree.Combine(&tree.Decl{Name: "x", Var: true}, &tree.Assign{Name: "x", Value: tree.IntLit(0)}),
				&tree.LabeledStmt{Label: "L", Body: &tree.WhileLoop{Cond: tree.BoolLit(true), Body: block(
					&tree.Assign{Name: "x", Value: &tree.Binary{Op: "+", X: x, Y: tree.IntLit(1)}},
					&tree.If{
						Cond: &tree.Binary{Op: "<", X: x, Y: tree.IntLit(5)},
						Then: block(&tree.Continue{Label: "L"}),
					},
					&tree.Break{Label: "L"},
				)}},
				&tree.Return{Value: x},
			),
			5,
		},
		{
			"try catches failure",
			block(
				&tree.Decl{Name: "x"},
				&tree.Try{
					Tried:   block(&tree.Assign{Name: "x", Value: tree.IntLit(1)}, &tree.Goal{Kind: tree.GoalPropagateFailure}),
					Recover: block(&tree.Assign{Name: "x", Value: tree.StringLit("caught")}),
				},
				&tree.Return{Value: x},
			),
			"caught",
		},
		{
			"dispatch else",
			block(
				&tree.Dispatch{
					Subject: tree.IntLit(3),
					Cases:   []tree.Case{{Values: []int{1, 2}, Body: &tree.Return{Value: tree.IntLit(1)}}},
					Else:    &tree.Return{Value: tree.IntLit(0)},
				},
			),
			0,
		},
		{
			"handler scope sets the flag",
			block(
				&tree.Decl{Name: "e"},
				call(tree.BuiltinHandlerScope, tree.RefTo("e"), tree.CallOf("fail")),
				&tree.Return{Value: tree.RefTo("e")},
			),
			true,
		},
		{
			"local function",
			block(
				tree.Combine(&tree.Decl{Name: "x", Var: true}, &tree.Assign{Name: "x", Value: tree.IntLit(1)}),
				tree.Combine(&tree.Decl{Name: "bump"}, &tree.Assign{Name: "bump", Value: &tree.FuncLit{
					Body: &tree.Assign{Name: "x", Value: &tree.Binary{Op: "+", X: x, Y: tree.IntLit(1)}},
				}}),
				call("bump"),
				call("bump"),
				&tree.Return{Value: x},
			),
			3,
		},
		{"falls off the end", block(call("ok")), tree.Void},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := New()
			in.Funcs["fail"] = func([]Value) (Value, error) { return nil, fmt.Errorf("nope") }
			in.Funcs["ok"] = func([]Value) (Value, error) { return tree.Void, nil }
			got, err := in.Run(tt.body)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Run() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    tree.Node
		failure bool
	}{
		{"garbage", block(&tree.Garbage{Diagnostic: "bad"}), false},
		{"undeclared", block(&tree.Assign{Name: "x", Value: tree.IntLit(1)}), false},
		{"failure", block(&tree.Goal{Kind: tree.GoalPropagateFailure}), true},
		{"null assertion", block(call("f", &tree.NotNull{X: tree.NullLit()})), true},
		{"unknown function", block(call("nowhere")), false},
		{"escaping break", block(&tree.Break{Label: "L"}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := New()
			in.Funcs["f"] = func([]Value) (Value, error) { return nil, nil }
			_, err := in.Run(tt.body)
			if err == nil {
				t.Fatal("Run() succeeded, want an error")
			}
			if _, ok := err.(*Failure); ok != tt.failure {
				t.Errorf("Run() error = %v (%T), failure = %v", err, err, tt.failure)
			}
		})
	}
}

func TestGenerator(t *testing.T) {
	// adaptGeneratorFunction(fn(g) { return ValueResult(1) })
	helper := &tree.FuncLit{Params: []tree.Name{"g"}, Body: &tree.Return{Value: tree.CallOf(tree.BuiltinValueResult, tree.IntLit(1))}}
	body := block(&tree.Return{Value: tree.CallOf(tree.BuiltinAdaptGenerator, helper)})
	v, err := New().Run(body)
	if err != nil {
		t.Fatal(err)
	}
	gen, ok := v.(*Generator)
	if !ok {
		t.Fatalf("Run() = %T", v)
	}
	r, err := gen.Next()
	if err != nil || r.Done || r.Value != 1 {
		t.Errorf("Next() = %+v, %v", r, err)
	}
}

func TestPromiseResult(t *testing.T) {
	rejected := &Promise{Err: fmt.Errorf("rejected")}
	in := New()
	in.Globals["p"] = rejected

	withFlag := block(
		&tree.Decl{Name: "e"},
		call(tree.BuiltinPromiseResultSync, tree.RefTo("e"), tree.RefTo("p")),
		&tree.Return{Value: tree.RefTo("e")},
	)
	if got, err := in.Run(withFlag); err != nil || got != true {
		t.Errorf("with flag: %v, %v", got, err)
	}

	without := block(call(tree.BuiltinPromiseResultSync, tree.NullLit(), tree.RefTo("p")))
	if _, err := in.Run(without); err == nil {
		t.Error("rejection without a flag did not fail")
	}
}
