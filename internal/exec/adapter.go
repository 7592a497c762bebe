package exec

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cypherbridge/cypherbridge/internal/algebra"
	"github.com/cypherbridge/cypherbridge/internal/cypher"
	"github.com/cypherbridge/cypherbridge/internal/rdf"
)

// Solution is one materialized result row: pattern variable name to term.
// Unbound variables (OPTIONAL misses) are simply absent.
type Solution map[string]rdf.Term

// Evaluator is the host's row-at-a-time evaluation path. The adapter
// delegates to it whenever compilation fails; the end user never sees a
// compilation failure, only potentially slower execution.
type Evaluator interface {
	Evaluate(ctx context.Context, op algebra.Op) ([]Solution, error)
}

// Adapter intercepts the pushable operator shapes, compiles them to
// Cypher, executes the result against the graph engine, and converts
// rows back into variable bindings. Any compilation failure falls back
// to the Evaluator.
type Adapter struct {
	compiler *cypher.Compiler
	runner   Runner
	fallback Evaluator
	logger   *slog.Logger
	ids      QueryIDGenerator
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) { a.logger = l }
}

// WithCompiler overrides the default compiler (e.g. to tune the
// ambiguous-variable limit or the spatial tolerance).
func WithCompiler(c *cypher.Compiler) Option {
	return func(a *Adapter) { a.compiler = c }
}

// WithIDGenerator overrides the query ID source (fixed IDs in tests).
func WithIDGenerator(g QueryIDGenerator) Option {
	return func(a *Adapter) { a.ids = g }
}

// New creates an Adapter. runner may be nil, in which case every
// operator takes the fallback path; fallback may be nil when the caller
// guarantees every operator compiles.
func New(runner Runner, fallback Evaluator, opts ...Option) *Adapter {
	a := &Adapter{
		compiler: cypher.New(),
		runner:   runner,
		fallback: fallback,
		logger:   slog.Default(),
		ids:      UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Evaluate runs one operator: pushdown when possible, fallback
// otherwise. Execution errors (network, engine) are real errors; only
// compilation failures are swallowed into the fallback path.
func (a *Adapter) Evaluate(ctx context.Context, op algebra.Op) ([]Solution, error) {
	id := a.ids.Next()

	if a.runner != nil {
		res, err := a.compileOp(op)
		switch {
		case err == nil:
			a.logger.Debug("pattern pushed down",
				"query_id", id, "branches", res.Branches, "params", len(res.Params))
			rows, runErr := a.runner.Run(ctx, res.Query, rdf.NativeParams(res.Params))
			if runErr != nil {
				return nil, fmt.Errorf("pushdown execution: %w", runErr)
			}
			return convertRows(rows, res.Bindings), nil
		default:
			ce, ok := cypher.AsCompileError(err)
			if !ok {
				return nil, err
			}
			a.logger.Info("pushdown unavailable, using fallback evaluator",
				"query_id", id, "kind", ce.Kind.String(), "reason", ce.Reason)
		}
	}

	if a.fallback == nil {
		return nil, fmt.Errorf("no fallback evaluator configured")
	}
	return a.fallback.Evaluate(ctx, op)
}

// Compile translates one operator to its pushdown form without
// executing it. Callers that only want the query text (the compile
// command, tests) use this instead of constructing an Adapter.
func Compile(c *cypher.Compiler, op algebra.Op) (*cypher.Result, error) {
	if c == nil {
		c = cypher.New()
	}
	a := &Adapter{compiler: c}
	return a.compileOp(op)
}

// compileOp dispatches on the operator shape. Shapes the compiler does
// not handle (filters over joins, nested unions, ...) become typed
// compilation failures so Evaluate routes them to the fallback.
func (a *Adapter) compileOp(op algebra.Op) (*cypher.Result, error) {
	switch o := op.(type) {
	case algebra.Pattern:
		return a.compiler.Compile(o.BGP)

	case algebra.Filter:
		p, ok := o.Input.(algebra.Pattern)
		if !ok {
			return nil, unsupportedOp("filter over a non-pattern input")
		}
		return a.compiler.CompileWithFilter(p.BGP, o.Cond)

	case algebra.LeftJoin:
		left, lok := o.Left.(algebra.Pattern)
		right, rok := o.Right.(algebra.Pattern)
		if !lok || !rok {
			return nil, unsupportedOp("left join over non-pattern inputs")
		}
		return a.compiler.CompileWithOptional(left.BGP, right.BGP, o.Cond)

	case algebra.Union:
		left, lok := o.Left.(algebra.Pattern)
		right, rok := o.Right.(algebra.Pattern)
		if !lok || !rok {
			return nil, unsupportedOp("union over non-pattern inputs")
		}
		return a.compiler.CompileUnion(left.BGP, right.BGP)

	case algebra.Group:
		return a.compileGroup(o)

	default:
		return nil, unsupportedOp(fmt.Sprintf("operator %T", op))
	}
}

// compileGroup compiles the grouped input and replaces its projection
// with the translated aggregation clause. Aggregating a multi-branch
// union per-branch would double-count, so only single-branch inputs are
// pushed down.
func (a *Adapter) compileGroup(g algebra.Group) (*cypher.Result, error) {
	inner, err := a.compileOp(g.Input)
	if err != nil {
		return nil, err
	}
	if inner.Branches != 1 {
		return nil, unsupportedOp("aggregation over a multi-branch union")
	}
	agg, err := cypher.TranslateAggregation(g.Aggregates, g.GroupVars, inner.Bindings)
	if err != nil {
		return nil, err
	}

	idx := strings.LastIndex(inner.Query, "\nRETURN ")
	if idx < 0 {
		return nil, unsupportedOp("grouped input has no projection clause")
	}

	bindings := make(map[string]cypher.Binding, len(g.GroupVars)+len(agg.AggOutputs))
	for i, v := range g.GroupVars {
		if vb, ok := inner.Bindings[v]; ok {
			bindings[v] = cypher.Binding{Column: agg.GroupOutputs[i], Expr: vb.Expr, Kind: vb.Kind}
			continue
		}
		bindings[v] = cypher.Binding{
			Column: agg.GroupOutputs[i],
			Expr:   agg.GroupOutputs[i],
			Kind:   cypher.BindScalar,
		}
	}
	for _, out := range agg.AggOutputs {
		bindings[out] = cypher.Binding{Column: out, Expr: out, Kind: cypher.BindScalar}
	}

	return &cypher.Result{
		Query:    inner.Query[:idx] + "\nRETURN " + agg.Projection,
		Params:   inner.Params,
		Bindings: bindings,
		Branches: 1,
	}, nil
}

func unsupportedOp(reason string) error {
	return &cypher.CompileError{Kind: cypher.FailureUnsupportedShape, Reason: reason}
}
