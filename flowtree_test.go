package flowtree_test

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kr/pretty"

	"github.com/wippyai/flowtree"
	"github.com/wippyai/flowtree/cfg"
	"github.com/wippyai/flowtree/errors"
	"github.com/wippyai/flowtree/internal/fixture"
	"github.com/wippyai/flowtree/internal/interp"
	"github.com/wippyai/flowtree/tree"
)

var strategies = map[string]flowtree.FailureStrategy{
	"flag":      flowtree.FlagBased,
	"exception": flowtree.ExceptionBased,
}

func host() *interp.Interp {
	in := interp.New()
	in.Funcs["f"] = func([]interp.Value) (interp.Value, error) {
		return nil, fmt.Errorf("f failed")
	}
	in.Funcs["fetch"] = func([]interp.Value) (interp.Value, error) {
		return &interp.Promise{Value: 7}, nil
	}
	return in
}

func bodyOf(f *fixture.Fixture) *flowtree.Body {
	return &flowtree.Body{
		Name:        f.Name,
		Graph:       f.Graph,
		Suspendable: f.Suspendable,
		OutputName:  f.Output,
		OutputType:  f.OutputType,
	}
}

func show(v interp.Value) string {
	if v == tree.Void {
		return "void"
	}
	return fmt.Sprint(v)
}

func turns(gen *interp.Generator, n int) []string {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		r, err := gen.Next()
		switch {
		case err != nil:
			out = append(out, "error")
		case r.Done:
			out = append(out, "done")
		default:
			out = append(out, show(r.Value))
		}
	}
	return out
}

func mustNew(t *testing.T, conf flowtree.Config) *flowtree.Translator {
	t.Helper()
	tr, err := flowtree.New(conf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return tr
}

func TestFixtures(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("internal", "fixture", "testdata", "*.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	for _, path := range paths {
		f, err := fixture.Load(path)
		if err != nil {
			t.Fatalf("Load(%s) error = %v", path, err)
		}
		for name, want := range f.Expect {
			t.Run(f.Name+"/"+name, func(t *testing.T) {
				strategy, ok := strategies[name]
				if !ok {
					t.Fatalf("unknown strategy %q", name)
				}
				r, err := mustNew(t, flowtree.Config{Failure: strategy, FailCallNames: []string{"bubble"}}).Translate(bodyOf(f))
				if err != nil {
					t.Fatalf("Translate() error = %v", err)
				}
				if len(r.Diagnostics) > 0 {
					t.Fatalf("diagnostics: %v", r.Diagnostics)
				}
				got, err := host().Run(r.Tree)
				if err != nil {
					t.Fatalf("Run() error = %v\n%s", err, tree.RenderIndented(r.Tree))
				}
				if show(got) != want {
					t.Errorf("Run() = %s, want %s\n%s", show(got), want, tree.RenderIndented(r.Tree))
				}
			})
		}
		if len(f.Turns) == 0 {
			continue
		}
		t.Run(f.Name+"/turns", func(t *testing.T) {
			r, err := mustNew(t, flowtree.Config{}).Translate(bodyOf(f))
			if err != nil {
				t.Fatalf("Translate() error = %v", err)
			}
			v, err := host().Run(r.Tree)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			gen, ok := v.(*interp.Generator)
			if !ok {
				t.Fatalf("Run() = %T, want a generator", v)
			}
			got := turns(gen, len(f.Turns))
			if diff := pretty.Diff(got, f.Turns); len(diff) > 0 {
				t.Errorf("turns differ:\n%s", diff)
			}
		})
	}
}

func TestMissingPayloadIsDiagnosed(t *testing.T) {
	f, err := fixture.Load(filepath.Join("internal", "fixture", "testdata", "dangling.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	r, err := mustNew(t, flowtree.Config{}).Translate(bodyOf(f))
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if len(r.Diagnostics) != 1 {
		t.Fatalf("Diagnostics = %v, want one", r.Diagnostics)
	}
	d := r.Diagnostics[0]
	if d.Kind != errors.KindStructural || d.At.File == "" {
		t.Errorf("diagnostic = %+v", d)
	}
	if !strings.Contains(tree.Render(r.Tree), "f()") {
		t.Errorf("the rest of the body was dropped: %s", tree.Render(r.Tree))
	}
}

func TestCycleIsDiagnosed(t *testing.T) {
	b := cfg.NewBuilder()
	inner := b.Block(b.Stmt(&tree.ExprStmt{X: tree.CallOf("g")}))
	root := b.Block(inner)
	b.Node(inner).Children = append(b.Node(inner).Children, root)
	body := &flowtree.Body{Name: "cyclic", Graph: b.Finish(root)}

	r, err := mustNew(t, flowtree.Config{}).Translate(body)
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if len(r.Diagnostics) != 1 || r.Diagnostics[0].Kind != errors.KindStructural {
		t.Errorf("Diagnostics = %v, want one structural", r.Diagnostics)
	}
}

func TestSuspendingConditionIsDiagnosed(t *testing.T) {
	b := cfg.NewBuilder()
	g := b.Finish(b.Block(
		b.If(tree.CallOf(tree.BuiltinYield, tree.IntLit(1)), b.Block(b.Stmt(&tree.ExprStmt{X: tree.CallOf("g")})), cfg.NoNode),
		b.Stmt(&tree.Return{}),
	))
	r, err := mustNew(t, flowtree.Config{}).Translate(&flowtree.Body{Name: "gen", Graph: g, Suspendable: true})
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if r.Coroutine == nil {
		t.Fatalf("Coroutine = nil")
	}
	if len(r.Diagnostics) != 1 || r.Diagnostics[0].Kind != errors.KindUnsupported {
		t.Errorf("Diagnostics = %v, want one unsupported", r.Diagnostics)
	}
}

func TestNewRejectsUnknownStrategy(t *testing.T) {
	tests := []struct {
		name string
		cfg  flowtree.Config
	}{
		{"failure", flowtree.Config{Failure: 9}},
		{"void", flowtree.Config{Void: 9}},
		{"coroutines", flowtree.Config{Coroutines: 9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := flowtree.New(tt.cfg)
			e, ok := err.(*errors.Error)
			if !ok || e.Kind != errors.KindConfigMismatch {
				t.Errorf("New() error = %v, want a config mismatch", err)
			}
		})
	}
}

func TestTranslateWithoutGraph(t *testing.T) {
	tr := mustNew(t, flowtree.Config{})
	for _, b := range []*flowtree.Body{nil, {Name: "empty"}} {
		_, err := tr.Translate(b)
		e, ok := err.(*errors.Error)
		if !ok || e.Kind != errors.KindInvariant || !e.Fatal() {
			t.Errorf("Translate(%v) error = %v, want an invariant breach", b, err)
		}
	}
}

func TestOutputSlot(t *testing.T) {
	t.Run("tail collapses", func(t *testing.T) {
		b := cfg.NewBuilder()
		g := b.Finish(b.Block(
			b.Stmt(&tree.Decl{Name: "r", Type: tree.TypeInt}),
			b.Stmt(&tree.Assign{Name: "r", Value: tree.IntLit(3)}),
		))
		r, err := mustNew(t, flowtree.Config{}).Translate(&flowtree.Body{Graph: g, OutputName: "r", OutputType: tree.TypeInt})
		if err != nil {
			t.Fatal(err)
		}
		if got, want := tree.Render(r.Tree), "{ return 3 }"; got != want {
			t.Errorf("Render() = %s, want %s", got, want)
		}
	})
	t.Run("undeclared slot", func(t *testing.T) {
		b := cfg.NewBuilder()
		g := b.Finish(b.Block(b.Stmt(&tree.ExprStmt{X: tree.CallOf("f")})))
		r, err := mustNew(t, flowtree.Config{}).Translate(&flowtree.Body{Graph: g, OutputName: "out", OutputType: tree.TypeInt})
		if err != nil {
			t.Fatal(err)
		}
		if got, want := tree.Render(r.Tree), "{ var out: Int; f(); return out }"; got != want {
			t.Errorf("Render() = %s, want %s", got, want)
		}
	})
	t.Run("exit goal returns the slot", func(t *testing.T) {
		b := cfg.NewBuilder()
		g := b.Finish(b.Block(
			b.Stmt(&tree.Decl{Name: "r", Type: tree.TypeInt, Var: true}),
			b.If(tree.RefTo("c"), b.Block(
				b.Stmt(&tree.Assign{Name: "r", Value: tree.IntLit(1)}),
				b.Stmt(&tree.Goal{Kind: tree.GoalExitFunction}),
			), cfg.NoNode),
			b.Stmt(&tree.Assign{Name: "r", Value: tree.IntLit(2)}),
		))
		r, err := mustNew(t, flowtree.Config{}).Translate(&flowtree.Body{Graph: g, OutputName: "r", OutputType: tree.TypeInt})
		if err != nil {
			t.Fatal(err)
		}
		if strings.Contains(tree.Render(r.Tree), "EXIT") {
			t.Fatalf("exit goal survived: %s", tree.Render(r.Tree))
		}
		for c, want := range map[bool]interp.Value{true: 1, false: 2} {
			in := interp.New()
			in.Globals["c"] = c
			got, err := in.Run(r.Tree)
			if err != nil || got != want {
				t.Errorf("c = %v: Run() = %v, %v, want %v", c, got, err, want)
			}
		}
	})
}

func TestNativeGenerator(t *testing.T) {
	f, err := fixture.Load(filepath.Join("internal", "fixture", "testdata", "counter.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	r, err := mustNew(t, flowtree.Config{Coroutines: flowtree.ToNativeGenerator}).Translate(bodyOf(f))
	if err != nil {
		t.Fatal(err)
	}
	if r.Coroutine != nil {
		t.Error("native generator was lowered to a state machine")
	}
	got := tree.Render(r.Tree)
	if !strings.Contains(got, "yield(i)") {
		t.Errorf("yield missing: %s", got)
	}
	if strings.Contains(got, tree.BuiltinDoneResult) {
		t.Errorf("terminal done return kept: %s", got)
	}
}

func TestStateMachineResult(t *testing.T) {
	f, err := fixture.Load(filepath.Join("internal", "fixture", "testdata", "counter.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	r, err := mustNew(t, flowtree.Config{}).Translate(bodyOf(f))
	if err != nil {
		t.Fatal(err)
	}
	if r.Coroutine == nil || r.Coroutine.Helper == "" {
		t.Fatalf("Coroutine = %v", r.Coroutine)
	}
	stmts := r.Statements()
	last, ok := stmts[len(stmts)-1].(*tree.Return)
	if !ok {
		t.Fatalf("last statement = %s", tree.Render(stmts[len(stmts)-1]))
	}
	if _, ok := tree.AsCall(last.Value, tree.BuiltinAdaptGenerator); !ok {
		t.Errorf("body returns %s", tree.RenderExpr(last.Value))
	}
}

func TestTranslateAll(t *testing.T) {
	tr := mustNew(t, flowtree.Config{})
	var bodies []*flowtree.Body
	for i := 0; i < 16; i++ {
		b := cfg.NewBuilder()
		g := b.Finish(b.Block(b.Stmt(&tree.Return{Value: tree.IntLit(i)})))
		bodies = append(bodies, &flowtree.Body{Name: fmt.Sprint(i), Graph: g})
	}
	results, err := tr.TranslateAll(context.Background(), bodies)
	if err != nil {
		t.Fatalf("TranslateAll() error = %v", err)
	}
	for i, r := range results {
		if r.Name != fmt.Sprint(i) {
			t.Errorf("results[%d].Name = %s", i, r.Name)
		}
		if got := tree.Render(r.Tree); got != fmt.Sprintf("{ return %d }", i) {
			t.Errorf("results[%d] = %s", i, got)
		}
	}

	bodies = append(bodies, &flowtree.Body{Name: "broken"})
	if _, err := tr.TranslateAll(context.Background(), bodies); err == nil {
		t.Error("TranslateAll() succeeded with a body lacking a graph")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := tr.TranslateAll(ctx, bodies[:1]); err == nil {
		t.Error("TranslateAll() ignored a cancelled context")
	}
}

func TestResultExpression(t *testing.T) {
	b := cfg.NewBuilder()
	g := b.Finish(b.Block(b.Stmt(&tree.ExprStmt{X: tree.CallOf("f", tree.IntLit(1))})))
	r, err := mustNew(t, flowtree.Config{}).Translate(&flowtree.Body{Graph: g})
	if err != nil {
		t.Fatal(err)
	}
	if got := tree.RenderExpr(r.Expression()); got != "f(1)" {
		t.Errorf("Expression() = %s", got)
	}
}
