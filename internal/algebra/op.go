package algebra

import "github.com/cypherbridge/cypherbridge/internal/rdf"

// Op is a physical operator shape the execution adapter intercepts.
//
// This is a sealed interface mirroring the five pattern shapes the
// adapter knows how to push down:
//
//   - Pattern: a bare basic graph pattern
//   - Filter: a pattern constrained by an expression
//   - LeftJoin: required pattern plus OPTIONAL pattern (plus filter)
//   - Union: two patterns, either may match
//   - Group: aggregation over a pattern
//
// Anything the host planner produces outside these shapes never reaches
// the adapter; it stays on the host's native evaluation path.
type Op interface {
	opNode() // Marker method - seals interface to this package
}

// Pattern is a bare BGP.
type Pattern struct {
	BGP rdf.BGP
}

func (Pattern) opNode() {}

// Filter constrains an input pattern with a boolean expression.
// Only Pattern inputs are pushed down; other inputs fall back.
type Filter struct {
	Cond  Expr
	Input Op
}

func (Filter) opNode() {}

// LeftJoin is a required pattern with an optional pattern, SPARQL
// OPTIONAL semantics: required rows survive even when the optional side
// has no match. Cond, when non-nil, constrains the join.
type LeftJoin struct {
	Left  Op
	Right Op
	Cond  Expr
}

func (LeftJoin) opNode() {}

// Union combines the rows of two patterns.
type Union struct {
	Left  Op
	Right Op
}

func (Union) opNode() {}

// Group aggregates an input pattern's rows.
type Group struct {
	Input      Op
	GroupVars  []string
	Aggregates []Aggregate
}

func (Group) opNode() {}
