package cypher

import (
	"github.com/cypherbridge/cypherbridge/internal/algebra"
	"github.com/cypherbridge/cypherbridge/internal/rdf"
)

// DefaultMaxAmbiguousVars bounds the partial-union expansion (2^k
// branches for k distinct ambiguous variables). A performance guard, not
// a correctness boundary; tunable per Compiler.
const DefaultMaxAmbiguousVars = 4

// Compiler translates basic graph patterns (plus optional filters,
// optional patterns, and unions) into a single composite Cypher query
// with typed parameters and variable bindings.
//
// A Compiler is pure and stateless across calls: each compile call
// allocates its own Binder, so concurrent calls are safe as long as the
// caller does not mutate the inputs mid-call. Identical inputs always
// produce byte-identical output.
type Compiler struct {
	// MaxAmbiguousVars caps the number of distinct ambiguous object
	// variables the partial-union expansion will attempt.
	MaxAmbiguousVars int

	// SpatialToleranceMeters is the distance threshold approximating
	// within/contains/intersects spatial predicates.
	SpatialToleranceMeters float64
}

// New creates a Compiler with default tunables.
func New() *Compiler {
	return &Compiler{
		MaxAmbiguousVars:       DefaultMaxAmbiguousVars,
		SpatialToleranceMeters: DefaultSpatialToleranceMeters,
	}
}

// Compile translates a single BGP.
func (c *Compiler) Compile(bgp rdf.BGP) (*Result, error) {
	return c.compile(bgp, nil)
}

// CompileWithFilter translates a BGP constrained by a filter expression.
// The filter condition is appended to every union branch the pattern
// compiles to, never just the first.
func (c *Compiler) CompileWithFilter(bgp rdf.BGP, filter algebra.Expr) (*Result, error) {
	return c.compile(bgp, filter)
}

func (c *Compiler) compile(bgp rdf.BGP, filter algebra.Expr) (*Result, error) {
	b := NewBinder()
	q, err := c.compileQuery(bgp, filter, b)
	if err != nil {
		return nil, err
	}
	if filter != nil {
		if err := c.distributeFilter(q, filter, b); err != nil {
			return nil, err
		}
	}
	return assemble(q, b)
}

// compileQuery is the entry dispatch: first match wins.
//
//  1. Any variable predicate -> edge-label union (three branches).
//  2. A single triple whose object is an otherwise-unconstrained
//     variable (and whose predicate is not rdf:type) -> ambiguous-object
//     union (two branches).
//  3. Everything else -> structured compilation, with the partial-union
//     expansion when ambiguous object variables remain.
//
// The filter argument is consulted only to narrow the edge-label
// property branch; distribution happens in the caller.
func (c *Compiler) compileQuery(bgp rdf.BGP, filter algebra.Expr, b *Binder) (*query, error) {
	roles, err := AnalyzeRoles(bgp)
	if err != nil {
		return nil, err
	}

	varPreds := 0
	for _, t := range bgp {
		if _, ok := rdf.AsVar(t.P); ok {
			varPreds++
		}
	}
	switch {
	case varPreds > 1:
		return nil, errUnsupported("multiple triples with variable predicates")
	case varPreds == 1 && bgp.Size() > 1:
		return nil, errUnsupported("variable predicate in a multi-triple pattern")
	case varPreds == 1:
		return c.compileEdgeLabel(bgp[0], roles, filter, b)
	}

	if bgp.Size() == 1 && !bgp[0].IsTypeTriple() {
		if name, ok := rdf.AsVar(bgp[0].O); ok && roles[name] == RoleAmbiguous {
			return c.compileSingleAmbiguous(bgp[0], b)
		}
	}

	return c.compileStructured(bgp, roles, b)
}
