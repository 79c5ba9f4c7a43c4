package translate

import (
	"strings"
	"testing"

	"github.com/wippyai/flowtree/cfg"
	"github.com/wippyai/flowtree/errors"
	"github.com/wippyai/flowtree/internal/names"
	"github.com/wippyai/flowtree/internal/options"
	"github.com/wippyai/flowtree/tree"
)

type calls map[string]bool

func (c calls) Match(callee string) bool { return c[callee] }

func stmt(b *cfg.Builder, callee string, args ...tree.Expr) cfg.NodeID {
	return b.Stmt(&tree.ExprStmt{X: tree.CallOf(callee, args...)})
}

func translate(g *cfg.Graph, opts options.Options) tree.Node {
	return New(g, names.NewGenerator(), opts).Translate()
}

func TestTranslateShapes(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *cfg.Builder) cfg.NodeID
		want  string
	}{
		{
			name: "infinite loop",
			build: func(b *cfg.Builder) cfg.NodeID {
				return b.Block(b.Loop("", tree.BoolLit(true), b.Block(stmt(b, "f"))))
			},
			want: "{ while (true) { f() } }",
		},
		{
			name: "labeled loop",
			build: func(b *cfg.Builder) cfg.NodeID {
				return b.Block(b.Loop("L", tree.RefTo("c"), b.Block(b.Jump(tree.JumpBreak, "L"))))
			},
			want: "{ L: while (c) { break L } }",
		},
		{
			name: "if without else",
			build: func(b *cfg.Builder) cfg.NodeID {
				return b.Block(b.If(tree.RefTo("c"), b.Block(stmt(b, "f")), cfg.NoNode))
			},
			want: "{ if (c) { f() } }",
		},
		{
			name: "nested blocks are spliced",
			build: func(b *cfg.Builder) cfg.NodeID {
				return b.Block(stmt(b, "f"), b.Block(stmt(b, "g"), b.Block(stmt(b, "h"))))
			},
			want: "{ f(); g(); h() }",
		},
		{
			name: "labeled block",
			build: func(b *cfg.Builder) cfg.NodeID {
				return b.Block(b.Labeled("B", b.Block(stmt(b, "f"), b.Jump(tree.JumpBreak, "B"))))
			},
			want: "{ B: { f(); break B } }",
		},
		{
			name: "declaration combined with initializer",
			build: func(b *cfg.Builder) cfg.NodeID {
				return b.Block(
					b.Stmt(&tree.Decl{Name: "x", Type: tree.TypeInt}),
					b.Stmt(&tree.Assign{Name: "x", Value: tree.IntLit(1)}),
					b.Stmt(&tree.Return{Value: tree.RefTo("x")}),
				)
			},
			want: "{ let x: Int = 1; return x }",
		},
		{
			name: "flag-based or-else reuses its label",
			build: func(b *cfg.Builder) cfg.NodeID {
				return b.Block(b.OrElse(b.Block(stmt(b, "f")), "fail", b.Block(stmt(b, "g"))))
			},
			want: "{ ok#1: { fail: { f(); break ok#1 }; g() } }",
		},
		{
			name: "flag-based or-else without label",
			build: func(b *cfg.Builder) cfg.NodeID {
				return b.Block(b.OrElse(b.Block(stmt(b, "f")), "", b.Block(stmt(b, "g"))))
			},
			want: "{ ok#1: { recovery#2: { f(); break ok#1 }; g() } }",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := cfg.NewBuilder()
			g := b.Finish(tt.build(b))
			got := tree.Render(translate(g, options.Options{}))
			if got != tt.want {
				t.Errorf("got  %s\nwant %s", got, tt.want)
			}
		})
	}
}

// orElseWithFlag builds
//
//	fail: orelse {
//	  let e: Boolean (fail flag); let x: Int
//	  x = hs(e, f())
//	  if (e) { break fail }
//	  g()
//	} recover { h() }
func orElseWithFlag(b *cfg.Builder, check cfg.NodeID) cfg.NodeID {
	tried := b.Block(
		b.Stmt(&tree.Decl{Name: "e", Type: tree.TypeBool, FailFlag: true}),
		b.Stmt(&tree.Decl{Name: "x", Type: tree.TypeInt}),
		b.Stmt(&tree.Assign{Name: "x", Value: tree.CallOf(tree.BuiltinHandlerScope, tree.RefTo("e"), tree.CallOf("f"))}),
		check,
		stmt(b, "g"),
	)
	return b.Block(b.OrElse(tried, "fail", b.Block(stmt(b, "h"))))
}

func TestOrElseStrategies(t *testing.T) {
	t.Run("flag based keeps the flag protocol", func(t *testing.T) {
		b := cfg.NewBuilder()
		check := b.If(tree.RefTo("e"), b.Block(b.Jump(tree.JumpBreak, "fail")), cfg.NoNode)
		g := b.Finish(orElseWithFlag(b, check))
		got := tree.Render(translate(g, options.Options{Failure: options.FlagBased}))
		want := "{ ok#1: { fail: { let e: Boolean; let x: Int = hs(e, f()); if (e) { break fail }; g(); break ok#1 }; h() } }"
		if got != want {
			t.Errorf("got  %s\nwant %s", got, want)
		}
	})

	t.Run("exception based drops the flag protocol", func(t *testing.T) {
		b := cfg.NewBuilder()
		check := b.If(tree.RefTo("e"), b.Block(b.Jump(tree.JumpBreak, "fail")), cfg.NoNode)
		g := b.Finish(orElseWithFlag(b, check))
		got := tree.Render(translate(g, options.Options{Failure: options.ExceptionBased}))
		want := "{ try { let x: Int = f(); g() } catch { h() } }"
		if got != want {
			t.Errorf("got  %s\nwant %s", got, want)
		}
	})

	t.Run("exception based drops any check on the flag", func(t *testing.T) {
		b := cfg.NewBuilder()
		check := b.If(tree.RefTo("e"), b.Block(stmt(b, "log"), b.Jump(tree.JumpBreak, "fail")), cfg.NoNode)
		g := b.Finish(orElseWithFlag(b, check))
		got := tree.Render(translate(g, options.Options{Failure: options.ExceptionBased}))
		want := "{ try { let x: Int = f(); g() } catch { h() } }"
		if got != want {
			t.Errorf("got  %s\nwant %s", got, want)
		}
	})

	t.Run("exception based turns other breaks to the or-else into failures", func(t *testing.T) {
		b := cfg.NewBuilder()
		check := b.If(tree.RefTo("c"), b.Block(stmt(b, "log"), b.Jump(tree.JumpBreak, "fail")), cfg.NoNode)
		g := b.Finish(orElseWithFlag(b, check))
		got := tree.Render(translate(g, options.Options{Failure: options.ExceptionBased}))
		want := "{ try { let x: Int = f(); if (c) { log(); FAIL }; g() } catch { h() } }"
		if got != want {
			t.Errorf("got  %s\nwant %s", got, want)
		}
		if strings.Contains(got, "break fail") {
			t.Errorf("break to a label that no longer exists: %s", got)
		}
	})

	t.Run("exception based keeps breaks to other labels", func(t *testing.T) {
		b := cfg.NewBuilder()
		inner := b.Labeled("done", b.Block(stmt(b, "log"), b.Jump(tree.JumpBreak, "done")))
		g := b.Finish(orElseWithFlag(b, inner))
		got := tree.Render(translate(g, options.Options{Failure: options.ExceptionBased}))
		if !strings.Contains(got, "break done") {
			t.Errorf("got %s, want the break to done kept", got)
		}
	})
}

func TestFailingCalls(t *testing.T) {
	opts := options.Options{FailCalls: calls{"bubble": true}, Void: options.Erased}
	b := cfg.NewBuilder()
	g := b.Finish(b.Block(
		b.Stmt(&tree.Decl{Name: "v", Type: tree.TypeVoid}),
		stmt(b, "bubble"),
		b.Stmt(&tree.Assign{Name: "v", Value: tree.CallOf("bubble")}),
		b.Stmt(&tree.Assign{Name: "v", Value: tree.CallOf("other")}),
	))
	got := tree.Render(translate(g, opts))
	if want := "{ FAIL; FAIL; let v: Void = other() }"; got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}

	opts.Void = options.Reified
	got = tree.Render(translate(g, opts))
	if want := "{ FAIL; let v: Void = bubble(); v = other() }"; got != want {
		t.Errorf("reified: got  %s\nwant %s", got, want)
	}
}

func TestFinalizeAppliesToLeaves(t *testing.T) {
	opts := options.Options{Finalize: func(n tree.Node) tree.Node {
		if s, ok := n.(*tree.ExprStmt); ok {
			if c, ok := s.X.(*tree.Call); ok {
				return &tree.ExprStmt{At: s.At, X: tree.CallOf("wrapped_" + c.Callee)}
			}
		}
		return n
	}}
	b := cfg.NewBuilder()
	g := b.Finish(b.Block(stmt(b, "f"), b.Loop("", tree.RefTo("c"), b.Block(stmt(b, "g")))))
	got := tree.Render(translate(g, opts))
	if want := "{ wrapped_f(); while (c) { wrapped_g() } }"; got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestMalformedInputBecomesGarbage(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *cfg.Builder) cfg.NodeID
		diag  string
	}{
		{
			name: "post-test loop",
			build: func(b *cfg.Builder) cfg.NodeID {
				loop := b.Loop("", tree.RefTo("c"), b.Block(stmt(b, "f")))
				b.Node(loop).PostTest = true
				return b.Block(loop, stmt(b, "after"))
			},
			diag: "loop must test before its body and have no increment",
		},
		{
			name: "loop with increment",
			build: func(b *cfg.Builder) cfg.NodeID {
				inc := stmt(b, "inc")
				loop := b.Loop("", tree.RefTo("c"), b.Block(stmt(b, "f")))
				b.Node(loop).Increment = inc
				return b.Block(loop, stmt(b, "after"))
			},
			diag: "loop must test before its body and have no increment",
		},
		{
			name: "break to unknown label",
			build: func(b *cfg.Builder) cfg.NodeID {
				return b.Block(b.Jump(tree.JumpBreak, "nowhere"), stmt(b, "after"))
			},
			diag: "break target is not an enclosing label",
		},
		{
			name: "continue outside a loop",
			build: func(b *cfg.Builder) cfg.NodeID {
				return b.Block(b.Jump(tree.JumpContinue, ""), stmt(b, "after"))
			},
			diag: "continue outside of any loop",
		},
		{
			name: "dangling statement reference",
			build: func(b *cfg.Builder) cfg.NodeID {
				return b.Block(b.Dangling(tree.Span{Line: 3, Col: 1}), stmt(b, "after"))
			},
			diag: "has no payload",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := cfg.NewBuilder()
			g := b.Finish(tt.build(b))
			out, ok := translate(g, options.Options{}).(*tree.Block)
			if !ok || len(out.Stmts) != 2 {
				t.Fatalf("got %s, want garbage followed by after()", tree.Render(out))
			}
			garbage, ok := out.Stmts[0].(*tree.Garbage)
			if !ok {
				t.Fatalf("first statement = %s, want garbage", tree.Render(out.Stmts[0]))
			}
			if !strings.Contains(garbage.Diagnostic, tt.diag) {
				t.Errorf("diagnostic %q does not mention %q", garbage.Diagnostic, tt.diag)
			}
			if tree.Render(out.Stmts[1]) != "after()" {
				t.Errorf("translation should continue after the garbage, got %s", tree.Render(out.Stmts[1]))
			}
		})
	}
}

func TestMissingNode(t *testing.T) {
	b := cfg.NewBuilder()
	g := b.Finish(b.Block(stmt(b, "f")))
	out := New(g, names.NewGenerator(), options.Options{}).Node(cfg.NodeID(99))
	if _, ok := out.(*tree.Garbage); !ok {
		t.Errorf("got %s, want garbage", tree.Render(out))
	}
}

func TestCycleBecomesGarbage(t *testing.T) {
	b := cfg.NewBuilder()
	inner := b.Block(stmt(b, "f"))
	root := b.Block(inner, stmt(b, "after"))
	g := b.Finish(root)
	// Edited after resolution, so the back edge is still present.
	g.Node(inner).Children = append(g.Node(inner).Children, root)

	out := translate(g, options.Options{})
	var garbage []*tree.Garbage
	tree.Walk(out, func(n tree.Node) bool {
		if bad, ok := n.(*tree.Garbage); ok {
			garbage = append(garbage, bad)
		}
		return true
	})
	if len(garbage) != 1 || garbage[0].Kind != errors.KindStructural {
		t.Fatalf("got %s, want one structural garbage", tree.Render(out))
	}
	if !strings.Contains(tree.Render(out), "after()") {
		t.Errorf("translation stopped at the cycle: %s", tree.Render(out))
	}
}

func TestFailVars(t *testing.T) {
	b := cfg.NewBuilder()
	g := b.Finish(b.Block(
		b.Stmt(&tree.Decl{Name: "e", Type: tree.TypeBool, FailFlag: true}),
		b.Stmt(&tree.Decl{Name: "x", Type: tree.TypeInt}),
	))
	vars := New(g, names.NewGenerator(), options.Options{}).FailVars()
	if !vars["e"] || vars["x"] {
		t.Errorf("FailVars() = %v, want only e", vars)
	}
}

func TestHandlerScopeFlag(t *testing.T) {
	flag, inner, ok := HandlerScopeFlag(tree.CallOf(tree.BuiltinHandlerScope, tree.RefTo("e"), tree.CallOf("f")))
	if !ok || flag != "e" || tree.RenderExpr(inner) != "f()" {
		t.Errorf("HandlerScopeFlag = %q, %v, %v", flag, inner, ok)
	}
	if _, _, ok := HandlerScopeFlag(tree.CallOf("f")); ok {
		t.Error("plain call is not a handler scope")
	}
}
