package fixture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/wippyai/flowtree/cfg"
	"github.com/wippyai/flowtree/errors"
	"github.com/wippyai/flowtree/tree"
)

func TestDecode(t *testing.T) {
	src := `
name: sample
output: r
output-type: Int?
body:
  - let: r
    type: Int?
  - if: {not: {ref: c}}
    then:
      - set: r
        to: 1
    else:
      - do: {call: log, args: ["x", 2.5, true, null, {void: true}]}
  - return: {ref: r}
`
	f, err := Decode([]byte(src))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if f.Name != "sample" || f.Output != "r" || f.OutputType != (tree.Type{Name: "Int", Nullable: true}) {
		t.Errorf("header = %q %q %v", f.Name, f.Output, f.OutputType)
	}
	g := f.Graph
	root := g.Node(g.Root())
	if root.Kind != cfg.KindStmtBlock || len(root.Children) != 3 {
		t.Fatalf("root = %v with %d children", root.Kind, len(root.Children))
	}
	branch := g.Node(root.Children[1])
	if branch.Kind != cfg.KindIf || branch.Else == cfg.NoNode {
		t.Fatalf("second statement = %v", branch.Kind)
	}
	if branch.At.Line != 8 || branch.At.Col != 5 {
		t.Errorf("if span = %v, want line 8 column 5", branch.At)
	}
	cond, _ := g.Condition(branch.Ref)
	if got := tree.RenderExpr(cond); got != "!c" {
		t.Errorf("condition = %s", got)
	}
	els := g.Node(branch.Else)
	p, _ := g.Deref(g.Node(els.Children[0]).Ref)
	if got := tree.Render(p); got != `log("x", 2.5, true, null, void)` {
		t.Errorf("else statement = %s", got)
	}
}

func TestDecodeJumpsResolve(t *testing.T) {
	src := `
body:
  - while: true
    label: L
    body:
      - break: L
      - continue: null
  - try:
      - break: fail
    label: fail
    recover: []
`
	f, err := Decode([]byte(src))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	g := f.Graph
	resolved := 0
	g.Walk(func(id cfg.NodeID, n *cfg.Node) bool {
		if n.Kind == cfg.KindJump {
			if _, ok := g.Target(id); ok {
				resolved++
			}
		}
		return true
	})
	if resolved != 3 {
		t.Errorf("resolved %d jumps, want 3", resolved)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"not yaml", "body: [unclosed"},
		{"body not a list", "body: {do: 1}"},
		{"unknown statement", "body:\n  - frobnicate: 1\n"},
		{"unknown expression", "body:\n  - do: {frob: 1}\n"},
		{"duplicate key", "body:\n  - do: 1\n    do: 2\n"},
		{"set without value", "body:\n  - set: x\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.src))
			if err == nil {
				t.Fatal("Decode() succeeded, want an error")
			}
			var e *errors.Error
			if !asError(err, &e) || e.Phase != errors.PhaseFixture {
				t.Errorf("error = %v, want a fixture error", err)
			}
		})
	}
}

func asError(err error, target **errors.Error) bool {
	e, ok := err.(*errors.Error)
	if ok {
		*target = e
	}
	return ok
}

func TestLoadTestdata(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "*.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Fatal("no fixtures")
	}
	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			f, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if f.Name == "" {
				t.Errorf("fixture has no name")
			}
			if !f.Graph.Valid(f.Graph.Root()) {
				t.Errorf("fixture has no root")
			}
			if f.Graph.Node(f.Graph.Root()).At.File != path {
				t.Errorf("span file = %q, want %q", f.Graph.Node(f.Graph.Root()).At.File, path)
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Load() succeeded")
	}
	if !os.IsNotExist(errorsUnwrap(err)) {
		t.Errorf("error = %v, want a not-exist cause", err)
	}
}

func errorsUnwrap(err error) error {
	if e, ok := err.(*errors.Error); ok {
		return e.Cause
	}
	return err
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in   string
		want tree.Type
	}{
		{"", tree.TypeInvalid},
		{"Int", tree.TypeInt},
		{"AnyValue?", tree.Type{Name: "AnyValue", Nullable: true}},
	}
	for _, tt := range tests {
		if got := ParseType(tt.in); got != tt.want {
			t.Errorf("ParseType(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
