package flowtree

import (
	"context"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/flowtree/cfg"
	"github.com/wippyai/flowtree/errors"
	"github.com/wippyai/flowtree/internal/names"
	"github.com/wippyai/flowtree/internal/options"
	"github.com/wippyai/flowtree/tree"
)

// Body is one function body to translate.
type Body struct {
	Name  string
	Graph *cfg.Graph
	// Suspendable marks generator and async bodies.
	Suspendable bool
	// OutputName is the slot holding the value returned when control
	// leaves the body normally. Empty for bodies without one.
	OutputName tree.Name
	OutputType tree.Type
}

// Diagnostic describes an untranslatable part of a body.
type Diagnostic struct {
	At      tree.Span
	Kind    errors.Kind
	Message string
}

func (d Diagnostic) String() string {
	if d.At.IsZero() {
		return d.Message
	}
	return d.At.String() + ": " + d.Message
}

// Result is a translated body.
type Result struct {
	Name string
	Tree tree.Node
	// Coroutine is the state machine a suspendable body was lowered to,
	// before packaging. Nil unless the body was lowered with
	// ToStateMachine.
	Coroutine *tree.ConvertedCoroutine
	// Diagnostics lists every Garbage node and bad expression in Tree.
	Diagnostics []Diagnostic
}

// Statement returns the result as a statement.
func (r *Result) Statement() tree.Node { return r.Tree }

// Statements returns the result as a statement list.
func (r *Result) Statements() []tree.Node { return tree.AsStatements(r.Tree) }

// Expression returns the result as an expression. Results with no
// expression form become a bad expression carrying a diagnostic.
func (r *Result) Expression() tree.Expr { return tree.AsExpression(r.Tree) }

// Translator translates function bodies with one configuration. It is
// safe for concurrent use.
type Translator struct {
	opts  options.Options
	namer Namer
}

// New validates c and returns a Translator.
func New(c Config) (*Translator, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	namer := c.Namer
	if namer == nil {
		namer = names.NewGenerator()
	}
	return &Translator{opts: c.options(), namer: namer}, nil
}

// Translate translates one body. Malformed parts of the body become
// Garbage nodes reported in Result.Diagnostics; an error is returned only
// for a body with no graph.
func (t *Translator) Translate(b *Body) (*Result, error) {
	if b == nil || b.Graph == nil || !b.Graph.Valid(b.Graph.Root()) {
		name := ""
		if b != nil {
			name = b.Name
		}
		return nil, errors.Invariant(errors.PhaseTranslate, []string{name}, "function body has no graph")
	}
	r := t.assemble(b)
	r.Name = b.Name
	r.Diagnostics = collectDiagnostics(r.Tree)
	Logger().Debug("translated body",
		zap.String("body", b.Name),
		zap.Bool("suspendable", b.Suspendable),
		zap.Int("diagnostics", len(r.Diagnostics)))
	return r, nil
}

// TranslateAll translates bodies in parallel. Results are in input order.
// The first error cancels the remaining bodies.
func (t *Translator) TranslateAll(ctx context.Context, bodies []*Body) ([]*Result, error) {
	results := make([]*Result, len(bodies))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, b := range bodies {
		i, b := i, b
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := t.Translate(b)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func collectDiagnostics(root tree.Node) []Diagnostic {
	var out []Diagnostic
	tree.Walk(root, func(n tree.Node) bool {
		if g, ok := n.(*tree.Garbage); ok {
			out = append(out, Diagnostic{At: g.At, Kind: g.Kind, Message: g.Diagnostic})
			return true
		}
		for _, e := range tree.OwnExprs(n) {
			tree.WalkExpr(e, func(e tree.Expr) bool {
				switch e := e.(type) {
				case *tree.BadExpr:
					out = append(out, Diagnostic{At: e.At, Kind: errors.KindUnsupported, Message: e.Diagnostic})
				case *tree.FuncLit:
					out = append(out, collectDiagnostics(e.Body)...)
					return false
				}
				return true
			})
		}
		return true
	})
	return out
}
