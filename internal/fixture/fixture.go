// Package fixture decodes function bodies written in YAML into control-flow
// graphs. Fixtures drive the tests and the flowc tool.
//
//	name: counter
//	suspendable: true
//	body:
//	  - let: i
//	    type: Int
//	  - set: i
//	    to: 0
//	  - while: {op: "<", left: {ref: i}, right: 3}
//	    body:
//	      - yield: {ref: i}
//	      - set: i
//	        to: {op: "+", left: {ref: i}, right: 1}
//
// Scalars in expression position are literals; names are read with ref.
package fixture

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/flowtree/cfg"
	"github.com/wippyai/flowtree/errors"
	"github.com/wippyai/flowtree/tree"
)

// Fixture is one decoded body.
type Fixture struct {
	Name        string
	Suspendable bool
	Output      tree.Name
	OutputType  tree.Type
	Graph       *cfg.Graph
	// Expect maps a failure strategy name ("flag", "exception") to the
	// value the translated body returns when run, printed with fmt.
	Expect map[string]string
	// Turns lists the expected generator turns of a suspendable body:
	// yielded values printed with fmt, "done" or "error".
	Turns []string
}

type document struct {
	Name        string            `yaml:"name"`
	Suspendable bool              `yaml:"suspendable"`
	Output      string            `yaml:"output"`
	OutputType  string            `yaml:"output-type"`
	Body        yaml.Node         `yaml:"body"`
	Expect      map[string]string `yaml:"expect"`
	Turns       []string          `yaml:"turns"`
}

// Load reads and decodes the fixture at path. Spans name the file.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseFixture, errors.KindNotFound, err, "read fixture")
	}
	return decode(path, data)
}

// Decode decodes a fixture held in memory.
func Decode(data []byte) (*Fixture, error) {
	return decode("", data)
}

func decode(file string, data []byte) (*Fixture, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.PhaseFixture, errors.KindInvalidInput, err, "parse fixture")
	}
	d := &decoder{file: file, b: cfg.NewBuilder()}
	var body *yaml.Node
	if doc.Body.Kind != 0 {
		body = &doc.Body
	}
	root, err := d.block(body)
	if err != nil {
		return nil, err
	}
	return &Fixture{
		Name:        doc.Name,
		Suspendable: doc.Suspendable,
		Output:      tree.Name(doc.Output),
		OutputType:  ParseType(doc.OutputType),
		Graph:       d.b.Finish(root),
		Expect:      doc.Expect,
		Turns:       doc.Turns,
	}, nil
}

// ParseType parses a type name; a trailing "?" makes it nullable.
func ParseType(s string) tree.Type {
	s = strings.TrimSpace(s)
	if s == "" {
		return tree.TypeInvalid
	}
	if name, ok := strings.CutSuffix(s, "?"); ok {
		return tree.Type{Name: name, Nullable: true}
	}
	return tree.Type{Name: s}
}

type decoder struct {
	file string
	b    *cfg.Builder
}

func (d *decoder) span(n *yaml.Node) tree.Span {
	return tree.Span{File: d.file, Line: n.Line, Col: n.Column}
}

func (d *decoder) errorf(n *yaml.Node, format string, args ...any) error {
	return errors.New(errors.PhaseFixture, errors.KindInvalidInput).At(d.span(n)).Detail(format, args...).Build()
}

// fields returns the values of a mapping node by key.
func (d *decoder) fields(n *yaml.Node) (map[string]*yaml.Node, error) {
	if n.Kind != yaml.MappingNode {
		return nil, d.errorf(n, "expected a mapping")
	}
	out := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := n.Content[i]
		if _, dup := out[k.Value]; dup {
			return nil, d.errorf(k, "duplicate key %q", k.Value)
		}
		out[k.Value] = n.Content[i+1]
	}
	return out, nil
}

func (d *decoder) name(n *yaml.Node) (tree.Name, error) {
	if n == nil || isNull(n) {
		return "", nil
	}
	if n.Kind != yaml.ScalarNode {
		return "", d.errorf(n, "expected a name")
	}
	return tree.Name(n.Value), nil
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

func flag(n *yaml.Node) bool {
	if n == nil {
		return false
	}
	v, err := strconv.ParseBool(n.Value)
	return err == nil && v
}

// block decodes a statement sequence into a statement block.
func (d *decoder) block(n *yaml.Node) (cfg.NodeID, error) {
	if n == nil || isNull(n) {
		return d.b.Block(), nil
	}
	if n.Kind != yaml.SequenceNode {
		return cfg.NoNode, d.errorf(n, "expected a statement list")
	}
	ids := make([]cfg.NodeID, 0, len(n.Content))
	for _, c := range n.Content {
		id, err := d.stmt(c)
		if err != nil {
			return cfg.NoNode, err
		}
		ids = append(ids, id)
	}
	return d.b.At(d.b.Block(ids...), d.span(n)), nil
}

func (d *decoder) stmt(n *yaml.Node) (cfg.NodeID, error) {
	f, err := d.fields(n)
	if err != nil {
		return cfg.NoNode, err
	}
	at := d.span(n)
	switch {
	case f["if"] != nil:
		cond, err := d.expr(f["if"])
		if err != nil {
			return cfg.NoNode, err
		}
		then, err := d.block(f["then"])
		if err != nil {
			return cfg.NoNode, err
		}
		els := cfg.NoNode
		if f["else"] != nil {
			if els, err = d.block(f["else"]); err != nil {
				return cfg.NoNode, err
			}
		}
		return d.b.At(d.b.If(cond, then, els), at), nil
	case f["while"] != nil:
		cond, err := d.expr(f["while"])
		if err != nil {
			return cfg.NoNode, err
		}
		label, err := d.name(f["label"])
		if err != nil {
			return cfg.NoNode, err
		}
		body, err := d.block(f["body"])
		if err != nil {
			return cfg.NoNode, err
		}
		return d.b.At(d.b.Loop(label, cond, body), at), nil
	case f["break"] != nil, f["continue"] != nil:
		kind, target := tree.JumpBreak, f["break"]
		if target == nil {
			kind, target = tree.JumpContinue, f["continue"]
		}
		label, err := d.name(target)
		if err != nil {
			return cfg.NoNode, err
		}
		return d.b.At(d.b.Jump(kind, label), at), nil
	case f["labeled"] != nil:
		label, err := d.name(f["labeled"])
		if err != nil {
			return cfg.NoNode, err
		}
		body, err := d.block(f["body"])
		if err != nil {
			return cfg.NoNode, err
		}
		return d.b.At(d.b.Labeled(label, body), at), nil
	case f["try"] != nil:
		tried, err := d.block(f["try"])
		if err != nil {
			return cfg.NoNode, err
		}
		label, err := d.name(f["label"])
		if err != nil {
			return cfg.NoNode, err
		}
		rec, err := d.block(f["recover"])
		if err != nil {
			return cfg.NoNode, err
		}
		return d.b.At(d.b.OrElse(tried, label, rec), at), nil
	case f["dangling"] != nil:
		return d.b.Dangling(at), nil
	}
	leaf, err := d.leaf(n, f)
	if err != nil {
		return cfg.NoNode, err
	}
	return d.b.Stmt(leaf), nil
}

// leaf decodes a leaf statement: let, set, do, yield or return.
func (d *decoder) leaf(n *yaml.Node, f map[string]*yaml.Node) (tree.Node, error) {
	at := d.span(n)
	switch {
	case f["let"] != nil:
		name, err := d.name(f["let"])
		if err != nil {
			return nil, err
		}
		var typ tree.Type
		if t := f["type"]; t != nil {
			typ = ParseType(t.Value)
		}
		decl := &tree.Decl{At: at, Name: name, Type: typ, Var: flag(f["var"]), FailFlag: flag(f["fail"])}
		if f["init"] == nil {
			return decl, nil
		}
		v, err := d.expr(f["init"])
		if err != nil {
			return nil, err
		}
		return tree.Combine(decl, &tree.Assign{At: at, Name: name, Value: v}), nil
	case f["set"] != nil:
		name, err := d.name(f["set"])
		if err != nil {
			return nil, err
		}
		v, err := d.expr(f["to"])
		if err != nil {
			return nil, err
		}
		return &tree.Assign{At: at, Name: name, Value: v}, nil
	case f["do"] != nil:
		v, err := d.expr(f["do"])
		if err != nil {
			return nil, err
		}
		return &tree.ExprStmt{At: at, X: v}, nil
	case f["yield"] != nil:
		c := &tree.Call{At: at, Callee: tree.BuiltinYield}
		if !isNull(f["yield"]) {
			v, err := d.expr(f["yield"])
			if err != nil {
				return nil, err
			}
			c.Args = []tree.Expr{v}
		}
		return &tree.ExprStmt{At: at, X: c}, nil
	case f["return"] != nil:
		r := &tree.Return{At: at}
		if !isNull(f["return"]) {
			v, err := d.expr(f["return"])
			if err != nil {
				return nil, err
			}
			r.Value = v
		}
		return r, nil
	}
	return nil, d.errorf(n, "unknown statement")
}

// stmts decodes a function literal body. Function literals hold leaf
// statements only; their control flow is opaque to the passes.
func (d *decoder) stmts(n *yaml.Node) (tree.Node, error) {
	b := &tree.Block{}
	if n == nil || isNull(n) {
		return b, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, d.errorf(n, "expected a statement list")
	}
	b.At = d.span(n)
	for _, c := range n.Content {
		f, err := d.fields(c)
		if err != nil {
			return nil, err
		}
		s, err := d.leaf(c, f)
		if err != nil {
			return nil, err
		}
		b.Stmts = append(b.Stmts, s)
	}
	return b, nil
}

func (d *decoder) exprs(n *yaml.Node) ([]tree.Expr, error) {
	if n == nil || isNull(n) {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, d.errorf(n, "expected a list of expressions")
	}
	out := make([]tree.Expr, 0, len(n.Content))
	for _, c := range n.Content {
		e, err := d.expr(c)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (d *decoder) expr(n *yaml.Node) (tree.Expr, error) {
	if n == nil {
		return nil, errors.New(errors.PhaseFixture, errors.KindInvalidInput).Detail("missing expression").Build()
	}
	if n.Kind == yaml.ScalarNode {
		return d.literal(n)
	}
	f, err := d.fields(n)
	if err != nil {
		return nil, err
	}
	at := d.span(n)
	var typ tree.Type
	if t := f["type"]; t != nil {
		typ = ParseType(t.Value)
	}
	switch {
	case f["ref"] != nil:
		name, err := d.name(f["ref"])
		if err != nil {
			return nil, err
		}
		return &tree.Ref{At: at, Name: name, Type: typ}, nil
	case f["lit"] != nil:
		l, err := d.literal(f["lit"])
		if err != nil {
			return nil, err
		}
		if typ.Valid() {
			l.Type = typ
		}
		return l, nil
	case f["void"] != nil:
		v := tree.VoidLit()
		v.At = at
		return v, nil
	case f["call"] != nil:
		args, err := d.exprs(f["args"])
		if err != nil {
			return nil, err
		}
		return &tree.Call{At: at, Callee: f["call"].Value, Args: args, Type: typ}, nil
	case f["not"] != nil:
		x, err := d.expr(f["not"])
		if err != nil {
			return nil, err
		}
		return &tree.Not{At: at, X: x}, nil
	case f["notnull"] != nil:
		x, err := d.expr(f["notnull"])
		if err != nil {
			return nil, err
		}
		return &tree.NotNull{At: at, X: x}, nil
	case f["op"] != nil:
		x, err := d.expr(f["left"])
		if err != nil {
			return nil, err
		}
		y, err := d.expr(f["right"])
		if err != nil {
			return nil, err
		}
		return &tree.Binary{At: at, Op: f["op"].Value, X: x, Y: y}, nil
	case f["fn"] != nil:
		var params []tree.Name
		if p := f["fn"]; p.Kind == yaml.SequenceNode {
			for _, c := range p.Content {
				params = append(params, tree.Name(c.Value))
			}
		}
		body, err := d.stmts(f["body"])
		if err != nil {
			return nil, err
		}
		return &tree.FuncLit{At: at, Params: params, Body: body}, nil
	}
	return nil, d.errorf(n, "unknown expression")
}

func (d *decoder) literal(n *yaml.Node) (*tree.Literal, error) {
	at := d.span(n)
	switch n.ShortTag() {
	case "!!null":
		return &tree.Literal{At: at}, nil
	case "!!bool":
		v, err := strconv.ParseBool(n.Value)
		if err != nil {
			return nil, d.errorf(n, "bad boolean %q", n.Value)
		}
		return &tree.Literal{At: at, Value: v, Type: tree.TypeBool}, nil
	case "!!int":
		v, err := strconv.Atoi(n.Value)
		if err != nil {
			return nil, d.errorf(n, "bad integer %q", n.Value)
		}
		return &tree.Literal{At: at, Value: v, Type: tree.TypeInt}, nil
	case "!!float":
		v, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return nil, d.errorf(n, "bad number %q", n.Value)
		}
		return &tree.Literal{At: at, Value: v, Type: tree.TypeFloat}, nil
	case "!!str":
		return &tree.Literal{At: at, Value: n.Value, Type: tree.TypeString}, nil
	}
	return nil, d.errorf(n, "unsupported literal tag %s", n.ShortTag())
}
